// Package system loads the system config file (~/.rulegraph/config.yaml):
// run-level execution defaults, secret sources and redaction settings that
// apply to every manifest.
package system

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/goccy/go-yaml"
	"github.com/reglet-dev/rulegraph/internal/domain/values"
)

// Config is the system config file. Unknown keys are rejected.
type Config struct {
	Execution ExecutionConfig `yaml:"execution"`
	Redaction RedactionConfig `yaml:"redaction"`
	Secrets   SecretsConfig   `yaml:"secrets"`
	// MaxDataSizeBytes bounds each result's data bag; 0 means the default.
	MaxDataSizeBytes int `yaml:"max_data_size_bytes"`
}

// ExecutionConfig sets run-level execution defaults.
type ExecutionConfig struct {
	// AccessorErrorPolicy is "ignore", "error" or "propagate"; empty means the default.
	AccessorErrorPolicy string `yaml:"accessor_error_policy"`
	MaxConcurrentRules  int    `yaml:"max_concurrent_rules"`
	MaxDepth            int    `yaml:"max_depth"`
	Parallel            bool   `yaml:"parallel"`
}

// SecretsConfig maps names usable as {{ .secrets.name }} to their source.
// A name may appear in only one source.
type SecretsConfig struct {
	// Local holds literal values, for development.
	Local map[string]string `yaml:"local"`
	// Env maps a secret name to the environment variable holding it.
	Env map[string]string `yaml:"env"`
	// Files maps a secret name to a file whose trimmed content is the value.
	Files map[string]string `yaml:"files"`
}

// RedactionConfig configures how sensitive data is sanitized.
type RedactionConfig struct {
	HashMode HashModeConfig `yaml:"hash_mode"`
	Patterns []string       `yaml:"patterns"`
	Paths    []string       `yaml:"paths"`
	// DisableGitleaks turns off the built-in secret detectors.
	DisableGitleaks bool `yaml:"disable_gitleaks"`
}

// HashModeConfig controls hash-based redaction.
type HashModeConfig struct {
	Salt    string `yaml:"salt"`
	Enabled bool   `yaml:"enabled"`
}

// DefaultPath returns ~/.rulegraph/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".rulegraph", "config.yaml"), nil
}

// DefaultConfig is the configuration used when no file exists. Loaded
// files are decoded on top of it.
func DefaultConfig() *Config {
	return &Config{
		Redaction: RedactionConfig{
			Patterns: []string{},
			Paths:    []string{},
		},
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if _, err := values.ParseAccessorErrorPolicy(c.Execution.AccessorErrorPolicy); err != nil {
		errs = append(errs, fmt.Errorf("execution.accessor_error_policy: %w", err))
	}
	for name, n := range map[string]int{
		"execution.max_concurrent_rules": c.Execution.MaxConcurrentRules,
		"execution.max_depth":            c.Execution.MaxDepth,
		"max_data_size_bytes":            c.MaxDataSizeBytes,
	} {
		if n < 0 {
			errs = append(errs, fmt.Errorf("%s cannot be negative: %d", name, n))
		}
	}
	errs = append(errs, c.Secrets.validate()...)
	return errors.Join(errs...)
}

func (s SecretsConfig) validate() []error {
	sources := make(map[string][]string)
	for source, m := range map[string]map[string]string{"local": s.Local, "env": s.Env, "files": s.Files} {
		for name := range m {
			sources[name] = append(sources[name], source)
		}
	}

	var errs []error
	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if found := sources[name]; len(found) > 1 {
			sort.Strings(found)
			errs = append(errs, fmt.Errorf("secret %q is defined in more than one source: %v", name, found))
		}
		if env, ok := s.Env[name]; ok && env == "" {
			errs = append(errs, fmt.Errorf("secret %q: empty environment variable name", name))
		}
		if path, ok := s.Files[name]; ok && path == "" {
			errs = append(errs, fmt.Errorf("secret %q: empty file path", name))
		}
	}
	return errs
}

// ConfigLoader loads system configuration from disk.
type ConfigLoader struct{}

// NewConfigLoader creates a new system config loader.
func NewConfigLoader() *ConfigLoader {
	return &ConfigLoader{}
}

// Load reads and validates the config at path. A missing file yields
// DefaultConfig.
func (l *ConfigLoader) Load(path string) (*Config, error) {
	//nolint:gosec // G304: the config path is chosen by the operator
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read system config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.UnmarshalWithOptions(data, cfg, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("failed to parse system config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid system config %s: %w", path, err)
	}
	return cfg, nil
}
