package resume

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleSnapshot = `{
  "personalInfo": {
    "fullName": "Jane Doe",
    "email": "jane@example.com",
    "phone": "0977123456",
    "profession": "Nurse"
  },
  "skills": [{"name": "Patient care", "level": "Expert"}],
  "education": [{"institution": "UNZA", "degree": "BSc Nursing"}],
  "languages": [{"name": "English", "proficiency": "Fluent"}],
  "hobbies": "Reading"
}`

func TestDecode(t *testing.T) {
	snap, err := Decode(strings.NewReader(sampleSnapshot))
	require.NoError(t, err)
	require.Equal(t, "Jane Doe", snap.PersonalInfo.FullName)
	require.Equal(t, "0977123456", snap.PersonalInfo.Phone)
	require.Len(t, snap.Skills, 1)
	require.Equal(t, "Patient care", snap.Skills[0].Name)
	require.Equal(t, "Reading", snap.Hobbies)
}

func TestDecode_Invalid(t *testing.T) {
	var tests = []struct {
		name string
		in   string
	}{
		{name: "unknown field", in: `{"personalInfo": {}, "nickname": "x"}`},
		{name: "malformed json", in: `{"personalInfo":`},
		{name: "trailing content", in: `{"personalInfo": {}} garbage`},
		{name: "wrong type", in: `{"skills": "not a list"}`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Decode(strings.NewReader(tt.in))
			require.ErrorIs(t, err, ErrInvalidSnapshot)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cv.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleSnapshot), 0o644))

	snap, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "jane@example.com", snap.PersonalInfo.Email)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}
