package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

var ErrConfig = errors.New("config: invalid")

// Config is the application configuration. Durations are expressed in
// seconds in the file.
type Config struct {
	API struct {
		BaseURL        string `yaml:"base_url"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"api"`

	Gateway struct {
		Mode          string   `yaml:"mode"`
		PublicKey     string   `yaml:"public_key"`
		Currency      string   `yaml:"currency"`
		Amount        int64    `yaml:"amount"`
		PaymentMethod string   `yaml:"payment_method"`
		Channels      []string `yaml:"channels"`
	} `yaml:"gateway"`

	Lifecycle struct {
		PollIntervalSeconds  int `yaml:"poll_interval_seconds"`
		ConfirmWindowSeconds int `yaml:"confirm_window_seconds"`
		ResumeWindowSeconds  int `yaml:"resume_window_seconds"`
	} `yaml:"lifecycle"`

	Paths struct {
		StateDir  string `yaml:"state_dir"`
		OutputDir string `yaml:"output_dir"`
	} `yaml:"paths"`
}

func Default() Config {
	var c Config
	c.API.BaseURL = "http://localhost:3001"
	c.API.TimeoutSeconds = 15
	c.Gateway.Mode = "redirect"
	c.Gateway.Currency = "ZMW"
	c.Gateway.Amount = 50
	c.Gateway.PaymentMethod = "mobile-money"
	c.Gateway.Channels = []string{"mobile-money"}
	c.Lifecycle.PollIntervalSeconds = 5
	c.Lifecycle.ConfirmWindowSeconds = 180
	c.Lifecycle.ResumeWindowSeconds = 300
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	c.Paths.StateDir = filepath.Join(home, ".cvpro")
	c.Paths.OutputDir = "."
	return c
}

// Load reads the file at path over the defaults. A missing file is not
// an error; CVPRO_API_BASE_URL overrides the file either way.
func Load(path string) (Config, error) {
	c := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, &c); err != nil {
				return Config{}, errors.Join(ErrConfig, err)
			}
		case os.IsNotExist(err):
		default:
			return Config{}, errors.Join(ErrConfig, err)
		}
	}
	if v := os.Getenv("CVPRO_API_BASE_URL"); v != "" {
		c.API.BaseURL = v
	}
	if err := c.validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) validate() error {
	if c.API.BaseURL == "" {
		return errors.Join(ErrConfig, errors.New("api.base_url is required"))
	}
	if c.Gateway.Mode != "redirect" && c.Gateway.Mode != "embedded" {
		return errors.Join(ErrConfig, errors.New("gateway.mode must be redirect or embedded"))
	}
	if c.Gateway.Amount <= 0 {
		return errors.Join(ErrConfig, errors.New("gateway.amount must be positive"))
	}
	if c.Lifecycle.PollIntervalSeconds <= 0 {
		return errors.Join(ErrConfig, errors.New("lifecycle.poll_interval_seconds must be positive"))
	}
	return nil
}

func (c Config) APITimeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

func (c Config) PollInterval() time.Duration {
	return time.Duration(c.Lifecycle.PollIntervalSeconds) * time.Second
}

func (c Config) ConfirmWindow() time.Duration {
	return time.Duration(c.Lifecycle.ConfirmWindowSeconds) * time.Second
}

func (c Config) ResumeWindow() time.Duration {
	return time.Duration(c.Lifecycle.ResumeWindowSeconds) * time.Second
}
