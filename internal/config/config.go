// Package config handles loading and saving user configuration for inflaton.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	ConfigFile    = "config.yaml"
	TemplatesFile = "templates.yaml"
	EnvPrefix     = "INFLATON"
)

// Config holds all user configuration.
type Config struct {
	Model          string        `yaml:"model" mapstructure:"model"`                     // Gemini model name
	BaseURL        string        `yaml:"base_url,omitempty" mapstructure:"base_url"`     // Endpoint override
	APIKey         string        `yaml:"api_key,omitempty" mapstructure:"api_key"`       // Falls back to the environment
	RequestTimeout time.Duration `yaml:"request_timeout" mapstructure:"request_timeout"` // 0 waits indefinitely
	HistoryDB      string        `yaml:"history_db" mapstructure:"history_db"`           // Empty disables history
	LogFile        string        `yaml:"log_file" mapstructure:"log_file"`
	Theme          string        `yaml:"theme" mapstructure:"theme"` // glamour style for derivation steps
	Verbose        bool          `yaml:"-" mapstructure:"verbose"`

	Templates []Template `yaml:"-" mapstructure:"-"`
}

// Template is a quick-insert phrase appended to the theory input.
type Template struct {
	Label  string `yaml:"label"`
	Phrase string `yaml:"phrase"`
}

// Default returns the configuration used when no file exists.
func Default(dir string) *Config {
	return &Config{
		Model:     "gemini-2.5-flash",
		HistoryDB: filepath.Join(dir, "history.db"),
		LogFile:   filepath.Join(dir, "inflaton.log"),
		Theme:     "dark",
		Templates: DefaultTemplates(),
	}
}

// DefaultTemplates returns the built-in quick-insert phrases.
func DefaultTemplates() []Template {
	return []Template{
		{Label: "Quadratic", Phrase: "V(φ) = ½ m² φ²"},
		{Label: "Starobinsky", Phrase: "Starobinsky R + R²/(6M²) gravity"},
		{Label: "Higgs", Phrase: "Higgs inflation with non-minimal coupling ξ φ² R"},
		{Label: "Natural", Phrase: "Natural inflation V(φ) = Λ⁴ [1 + cos(φ/f)]"},
		{Label: "Hilltop", Phrase: "Hilltop potential V(φ) = V₀ (1 − φ⁴/μ⁴)"},
		{Label: "α-attractor", Phrase: "α-attractor T-model V(φ) = V₀ tanh²(φ/√(6α))"},
		{Label: "Kinetic", Phrase: "with a non-canonical kinetic term"},
	}
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper, dir string) {
	d := Default(dir)
	v.SetDefault("config_dir", dir)
	v.SetDefault("model", d.Model)
	v.SetDefault("base_url", d.BaseURL)
	v.SetDefault("api_key", "")
	v.SetDefault("request_timeout", d.RequestTimeout)
	v.SetDefault("history_db", d.HistoryDB)
	v.SetDefault("log_file", d.LogFile)
	v.SetDefault("theme", d.Theme)
}

// ReadInto points v at the config file in dir and reads it.
// A missing file is not an error.
func ReadInto(v *viper.Viper, dir string) error {
	v.SetConfigFile(filepath.Join(dir, ConfigFile))
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}
	return nil
}

// FromViper builds a Config from v and loads the templates file from dir.
func FromViper(v *viper.Viper, dir string) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	templates, err := LoadTemplates(filepath.Join(dir, TemplatesFile))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		cfg.Templates = DefaultTemplates()
	case err != nil:
		return nil, err
	default:
		cfg.Templates = templates
	}

	return &cfg, nil
}

// LoadTemplates loads quick-insert templates from a YAML file.
func LoadTemplates(path string) ([]Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading templates file: %w", err)
	}

	var templates struct {
		Templates []Template `yaml:"templates"`
	}
	if err := yaml.Unmarshal(data, &templates); err != nil {
		return nil, fmt.Errorf("parsing templates file: %w", err)
	}

	return templates.Templates, nil
}

// SaveTemplates saves quick-insert templates to a YAML file.
func SaveTemplates(path string, templates []Template) error {
	data := struct {
		Templates []Template `yaml:"templates"`
	}{Templates: templates}

	out, err := yaml.Marshal(&data)
	if err != nil {
		return fmt.Errorf("marshaling templates: %w", err)
	}

	if err := os.WriteFile(path, out, 0644); err != nil {
		return fmt.Errorf("writing templates file: %w", err)
	}

	return nil
}

// LoadConfig loads config.yaml directly, without viper or the environment.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default(filepath.Dir(path))
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves cfg as YAML. Secrets are written only when set.
func SaveConfig(path string, cfg *Config) error {
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, out, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// GetConfigDir returns the default configuration directory.
func GetConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "inflaton"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "inflaton"), nil
}

// EnsureDir creates dir if it doesn't exist.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return nil
}
