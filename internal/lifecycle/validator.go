package lifecycle

import (
	"regexp"
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"

	"cvpro/internal/resume"
)

// Zambian mobile numbers: optional +260/260/0 prefix then 9-10 digits.
var phonePattern = regexp.MustCompile(`^(\+?260|0)?[0-9]{9,10}$`)

// NewValidator returns a validator with the zmphone rule registered for
// the snapshot's phone field.
func NewValidator() *validatorv10.Validate {
	v := validatorv10.New()
	_ = v.RegisterValidation("zmphone", func(fl validatorv10.FieldLevel) bool {
		return ValidPhone(fl.Field().String())
	})
	return v
}

func ValidPhone(phone string) bool {
	return phonePattern.MatchString(strings.ReplaceAll(phone, " ", ""))
}

// ValidateSnapshot runs before any network call; a failure here leaves
// the engine exactly where it was.
func ValidateSnapshot(v *validatorv10.Validate, snap resume.Snapshot) error {
	return v.Struct(snap)
}
