package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidPhone(t *testing.T) {
	var tests = []struct {
		name  string
		phone string
		valid bool
	}{
		{name: "local format", phone: "0977123456", valid: true},
		{name: "international with plus", phone: "+260977123456", valid: true},
		{name: "international without plus", phone: "260977123456", valid: true},
		{name: "bare nine digits", phone: "977123456", valid: true},
		{name: "spaces are stripped", phone: "097 712 3456", valid: true},
		{name: "letters", phone: "abc", valid: false},
		{name: "too short", phone: "09771", valid: false},
		{name: "too long", phone: "09771234567890", valid: false},
		{name: "empty", phone: "", valid: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.valid, ValidPhone(tt.phone))
		})
	}
}

func TestValidateSnapshot(t *testing.T) {
	v := NewValidator()

	snap := validSnapshot()
	require.NoError(t, ValidateSnapshot(v, snap))

	var tests = []struct {
		name   string
		mutate func(*testing.T) error
	}{
		{
			name: "missing name",
			mutate: func(t *testing.T) error {
				s := validSnapshot()
				s.PersonalInfo.FullName = ""
				return ValidateSnapshot(v, s)
			},
		},
		{
			name: "bad email",
			mutate: func(t *testing.T) error {
				s := validSnapshot()
				s.PersonalInfo.Email = "not-an-email"
				return ValidateSnapshot(v, s)
			},
		},
		{
			name: "bad phone",
			mutate: func(t *testing.T) error {
				s := validSnapshot()
				s.PersonalInfo.Phone = "12"
				return ValidateSnapshot(v, s)
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			require.Error(t, tt.mutate(t))
		})
	}
}
