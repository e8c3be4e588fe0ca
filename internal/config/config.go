// Package config assembles lingua's runtime configuration from defaults,
// an optional YAML file and LINGUA_* environment variables.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/abhisek/lingua/internal/srs"
)

// Config holds all runtime configuration.
type Config struct {
	DB   DBConfig   `yaml:"db"`
	HTTP HTTPConfig `yaml:"http"`

	// LogMode selects the logger: "dev", "prod" or "nop".
	LogMode string `yaml:"log_mode"`

	// Timeout bounds each review operation. Default: 5s.
	Timeout time.Duration `yaml:"timeout"`

	// CatalogFile is the YAML or JSON item catalog.
	CatalogFile string `yaml:"catalog"`

	// PolicyFile optionally overrides Policy from a standalone YAML file.
	PolicyFile string `yaml:"policy_file"`

	Policy srs.Policy `yaml:"policy"`
}

// DBConfig selects the scheduling store.
type DBConfig struct {
	Dialect string `yaml:"dialect"` // "sqlite" or "postgres"
	DSN     string `yaml:"dsn"`     // Empty means the default SQLite path.
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		DB: DBConfig{
			Dialect: "sqlite",
		},
		HTTP: HTTPConfig{
			Addr: ":8080",
		},
		LogMode: "dev",
		Timeout: 5 * time.Second,
		Policy:  srs.DefaultPolicy(),
	}
}

// ConfigurationError reports invalid configuration. It is fatal: the
// process must not start serving with it.
type ConfigurationError struct {
	Source string
	Err    error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration (%s): %v", e.Source, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// Load builds the configuration: defaults, then the file at path (if not
// empty), then environment overrides, then the policy file. The result is
// validated.
func Load(fs afero.Fs, path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if err := cfg.applyFile(fs, path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if cfg.PolicyFile != "" {
		p, err := LoadPolicyFile(fs, cfg.PolicyFile, cfg.Policy)
		if err != nil {
			return Config{}, err
		}
		cfg.Policy = p
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Overrides are command-line values that take precedence over the file
// and the environment. Empty fields leave the config unchanged.
type Overrides struct {
	LogMode     string
	CatalogFile string
}

// ApplyOverrides sets the non-empty overrides and validates the result
// again.
func (c *Config) ApplyOverrides(o Overrides) error {
	if o.LogMode != "" {
		c.LogMode = o.LogMode
	}
	if o.CatalogFile != "" {
		c.CatalogFile = o.CatalogFile
	}
	return c.Validate()
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("LINGUA_DB"); v != "" {
		c.DB.DSN = v
	}
	if v := os.Getenv("LINGUA_DB_DIALECT"); v != "" {
		c.DB.Dialect = v
	}
	if v := os.Getenv("LINGUA_HTTP_ADDR"); v != "" {
		c.HTTP.Addr = v
	}
	if v := os.Getenv("LINGUA_LOG_MODE"); v != "" {
		c.LogMode = v
	}
	if v := os.Getenv("LINGUA_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return &ConfigurationError{Source: "LINGUA_TIMEOUT", Err: err}
		}
		c.Timeout = d
	}
	if v := os.Getenv("LINGUA_POLICY_FILE"); v != "" {
		c.PolicyFile = v
	}
	if v := os.Getenv("LINGUA_CATALOG"); v != "" {
		c.CatalogFile = v
	}
	return nil
}

func (c *Config) applyFile(fs afero.Fs, path string) error {
	raw, err := afero.ReadFile(fs, path)
	if err != nil {
		return &ConfigurationError{Source: path, Err: err}
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return &ConfigurationError{Source: path, Err: err}
	}
	return nil
}

// LoadPolicyFile reads scheduling policy constants from a YAML file. Keys
// missing from the file keep their value from base.
func LoadPolicyFile(fs afero.Fs, path string, base srs.Policy) (srs.Policy, error) {
	raw, err := afero.ReadFile(fs, path)
	if err != nil {
		return srs.Policy{}, &ConfigurationError{Source: path, Err: err}
	}
	p := base
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return srs.Policy{}, &ConfigurationError{Source: path, Err: err}
	}
	if err := p.Validate(); err != nil {
		return srs.Policy{}, &ConfigurationError{Source: path, Err: err}
	}
	return p, nil
}

// Validate checks the whole configuration and reports every problem at
// once.
func (c Config) Validate() error {
	var errs []error

	switch c.DB.Dialect {
	case "sqlite":
	case "postgres":
		if c.DB.DSN == "" {
			errs = append(errs, errors.New("db.dsn is required for the postgres dialect"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown db dialect %q", c.DB.Dialect))
	}

	switch strings.ToLower(c.LogMode) {
	case "dev", "development", "prod", "production", "nop", "off", "none":
	default:
		errs = append(errs, fmt.Errorf("unknown log mode %q", c.LogMode))
	}

	// Negative disables the per-call timeout.
	if c.Timeout == 0 {
		errs = append(errs, errors.New("timeout must be non-zero"))
	}
	if c.HTTP.Addr == "" {
		errs = append(errs, errors.New("http.addr is required"))
	}
	if err := c.Policy.Validate(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return &ConfigurationError{Source: "validate", Err: errors.Join(errs...)}
	}
	return nil
}
