// Package config loads judgesort settings from judgesort.yml and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Backend names accepted in the backend field.
const (
	BackendOpenRouter = "openrouter"
	BackendGemini     = "gemini"
	BackendA2A        = "a2a"
)

// Ledger backend names, matching ledger.Backend.
const (
	LedgerMemory = "memory"
	LedgerBolt   = "bolt"
	LedgerKuzu   = "kuzu"
)

// Environment variables consulted by ApplyEnv.
const (
	EnvBackend = "JUDGESORT_BACKEND"
	EnvModel   = "JUDGESORT_MODEL"
	EnvAPIKey  = "JUDGESORT_API_KEY"
)

// Config holds settings loaded from judgesort.yml.
type Config struct {
	Backend      string        `yaml:"backend,omitempty"`
	Model        string        `yaml:"model,omitempty"`
	APIKeyEnv    string        `yaml:"apiKeyEnv,omitempty"`
	BaseURL      string        `yaml:"baseURL,omitempty"`
	AgentURL     string        `yaml:"agentURL,omitempty"`
	Timeout      time.Duration `yaml:"timeout,omitempty"`
	Parallelism  int           `yaml:"parallelism,omitempty"`
	Memoize      bool          `yaml:"memoize,omitempty"`
	Retries      int           `yaml:"retries,omitempty"`
	RetryBackoff time.Duration `yaml:"retryBackoff,omitempty"`
	Instruction  string        `yaml:"instruction,omitempty"`
	StrictInput  bool          `yaml:"strictInput,omitempty"`
	Ledger       LedgerConfig  `yaml:"ledger,omitempty"`

	// APIKey is resolved from the environment, never read from the file.
	APIKey string `yaml:"-"`
}

// LedgerConfig selects where comparisons are recorded. An empty Path
// disables recording.
type LedgerConfig struct {
	Backend string `yaml:"backend,omitempty"`
	Path    string `yaml:"path,omitempty"`
}

// Default returns the settings used when no file is present.
func Default() *Config {
	return &Config{
		Backend:      BackendOpenRouter,
		Timeout:      2 * time.Minute,
		Parallelism:  1,
		RetryBackoff: 500 * time.Millisecond,
		Ledger:       LedgerConfig{Backend: LedgerBolt},
	}
}

// Load attempts to read judgesort.yml or judgesort.yaml from the given
// directory. Returns the defaults (not an error) if no config file exists.
func Load(dir string) (*Config, error) {
	for _, name := range []string{"judgesort.yml", "judgesort.yaml"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		return LoadFile(path)
	}
	return Default(), nil
}

// LoadFile reads an explicit config file over the defaults. Unlike Load, a
// missing file is an error.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// KeyEnv returns the environment variable holding the backend's credential.
func (c *Config) KeyEnv() string {
	if c.APIKeyEnv != "" {
		return c.APIKeyEnv
	}
	switch c.Backend {
	case BackendGemini:
		return "GEMINI_API_KEY"
	case BackendOpenRouter:
		return "OPENROUTER_API_KEY"
	}
	return ""
}

// ApplyEnv overrides the backend and model from the environment and
// resolves the API key: JUDGESORT_API_KEY first, then the backend's own
// variable. getenv is usually os.Getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvBackend); v != "" {
		c.Backend = v
	}
	if v := getenv(EnvModel); v != "" {
		c.Model = v
	}
	if v := getenv(EnvAPIKey); v != "" {
		c.APIKey = v
		return
	}
	if env := c.KeyEnv(); env != "" {
		c.APIKey = getenv(env)
	}
}

// Validate reports every problem with the settings at once.
func (c *Config) Validate() error {
	var errs []error
	switch c.Backend {
	case BackendOpenRouter, BackendGemini:
		if c.APIKey == "" {
			errs = append(errs, fmt.Errorf("config: %s backend needs an API key (set %s or %s)", c.Backend, EnvAPIKey, c.KeyEnv()))
		}
	case BackendA2A:
		if c.AgentURL == "" {
			errs = append(errs, errors.New("config: a2a backend needs agentURL"))
		}
	default:
		errs = append(errs, fmt.Errorf("config: unknown backend %q (want openrouter, gemini or a2a)", c.Backend))
	}
	if c.Parallelism < 0 {
		errs = append(errs, fmt.Errorf("config: parallelism must not be negative, got %d", c.Parallelism))
	}
	if c.Retries < 0 {
		errs = append(errs, fmt.Errorf("config: retries must not be negative, got %d", c.Retries))
	}
	if c.Timeout < 0 || c.RetryBackoff < 0 {
		errs = append(errs, errors.New("config: durations must not be negative"))
	}
	switch c.Ledger.Backend {
	case "", LedgerMemory, LedgerBolt, LedgerKuzu:
	default:
		errs = append(errs, fmt.Errorf("config: unknown ledger backend %q", c.Ledger.Backend))
	}
	return errors.Join(errs...)
}
