package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "http://localhost:3001", c.API.BaseURL)
	require.Equal(t, "redirect", c.Gateway.Mode)
	require.Equal(t, int64(50), c.Gateway.Amount)
	require.Equal(t, "ZMW", c.Gateway.Currency)
	require.Equal(t, 5*time.Second, c.PollInterval())
	require.Equal(t, 3*time.Minute, c.ConfirmWindow())
	require.Equal(t, 5*time.Minute, c.ResumeWindow())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cvpro.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api:
  base_url: http://svc:9000
  timeout_seconds: 3
gateway:
  mode: embedded
  amount: 75
lifecycle:
  poll_interval_seconds: 2
`), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "http://svc:9000", c.API.BaseURL)
	require.Equal(t, 3*time.Second, c.APITimeout())
	require.Equal(t, "embedded", c.Gateway.Mode)
	require.Equal(t, int64(75), c.Gateway.Amount)
	require.Equal(t, 2*time.Second, c.PollInterval())
	// Untouched sections keep their defaults.
	require.Equal(t, "ZMW", c.Gateway.Currency)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.Equal(t, "http://localhost:3001", c.API.BaseURL)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("CVPRO_API_BASE_URL", "http://override:1234")

	c, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "http://override:1234", c.API.BaseURL)
}

func TestLoad_Invalid(t *testing.T) {
	var tests = []struct {
		name string
		yaml string
	}{
		{name: "bad mode", yaml: "gateway:\n  mode: widget\n"},
		{name: "zero amount", yaml: "gateway:\n  amount: -1\n"},
		{name: "zero poll interval", yaml: "lifecycle:\n  poll_interval_seconds: -5\n"},
		{name: "malformed yaml", yaml: "api: [\n"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "cvpro.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o644))
			_, err := Load(path)
			require.ErrorIs(t, err, ErrConfig)
		})
	}
}
