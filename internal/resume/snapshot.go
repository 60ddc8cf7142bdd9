package resume

// Snapshot is the read-only copy of the résumé form data handed to the
// payment flow at initiation time. The form owns the live data; a
// session in flight keeps working off the snapshot it captured even if
// the form changes afterwards.
type Snapshot struct {
	PersonalInfo PersonalInfo `json:"personalInfo" validate:"required"`
	Skills       []Skill      `json:"skills,omitempty"`
	Education    []Education  `json:"education,omitempty"`
	Experience   []Experience `json:"experience,omitempty"`
	Licensing    []License    `json:"licensing,omitempty"`
	Languages    []Language   `json:"languages,omitempty"`
	Hobbies      string       `json:"hobbies,omitempty"`
	References   []Reference  `json:"references,omitempty"`
}

type PersonalInfo struct {
	FullName        string `json:"fullName" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Phone           string `json:"phone" validate:"required,zmphone"`
	Profession      string `json:"profession,omitempty"`
	YearsExperience string `json:"yearsExperience,omitempty"`
	Specialization  string `json:"specialization,omitempty"`
}

type Skill struct {
	Name  string `json:"name"`
	Level string `json:"level,omitempty"`
}

type Education struct {
	Institution string `json:"institution"`
	Degree      string `json:"degree,omitempty"`
	Field       string `json:"field,omitempty"`
	StartDate   string `json:"startDate,omitempty"`
	EndDate     string `json:"endDate,omitempty"`
	Location    string `json:"location,omitempty"`
}

type Experience struct {
	Company          string   `json:"company"`
	Position         string   `json:"position,omitempty"`
	StartDate        string   `json:"startDate,omitempty"`
	EndDate          string   `json:"endDate,omitempty"`
	Location         string   `json:"location,omitempty"`
	Description      string   `json:"description,omitempty"`
	Responsibilities []string `json:"responsibilities,omitempty"`
}

type License struct {
	Name                string `json:"name"`
	IssuingOrganization string `json:"issuingOrganization,omitempty"`
	IssueDate           string `json:"issueDate,omitempty"`
	ExpiryDate          string `json:"expiryDate,omitempty"`
	CredentialID        string `json:"credentialId,omitempty"`
}

type Language struct {
	Name        string `json:"name"`
	Proficiency string `json:"proficiency,omitempty"`
}

type Reference struct {
	Name     string `json:"name"`
	Position string `json:"position,omitempty"`
	Company  string `json:"company,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Email    string `json:"email,omitempty"`
}
