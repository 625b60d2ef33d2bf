// Package config loads guardctl settings from an optional YAML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Defaults used when no config file is present.
const (
	DefaultFileName  = ".guardctl.yaml"
	DefaultVaultName = ".guardctl"
	defaultAuditName = ".guardctl.audit.db"
)

// Config holds user-tunable settings. Zero value plus Default() gives
// the out-of-the-box behavior; command-line flags override file values.
type Config struct {
	// VaultPath is the encrypted vault file location.
	VaultPath string `yaml:"vault_path"`
	// AuditPath is the audit trail database location. Empty disables
	// auditing entirely.
	AuditPath string `yaml:"audit_path"`
	// Clipboard controls whether copy commands touch the OS clipboard.
	Clipboard bool `yaml:"clipboard"`
}

// Default returns the configuration used when no file exists. Paths
// live in the user's home directory.
func Default() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("config: failed to get user home directory: %w", err)
	}
	return &Config{
		VaultPath: filepath.Join(home, DefaultVaultName),
		AuditPath: filepath.Join(home, defaultAuditName),
		Clipboard: true,
	}, nil
}

// Load reads the config file at path, falling back to defaults for
// unset fields. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	// Unmarshal over defaults so unset keys keep their default values.
	// Clipboard needs a pointer to distinguish "false" from "unset".
	var file struct {
		VaultPath string  `yaml:"vault_path"`
		AuditPath *string `yaml:"audit_path"`
		Clipboard *bool   `yaml:"clipboard"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}

	if file.VaultPath != "" {
		cfg.VaultPath = expandHome(file.VaultPath)
	}
	if file.AuditPath != nil {
		cfg.AuditPath = expandHome(*file.AuditPath)
	}
	if file.Clipboard != nil {
		cfg.Clipboard = *file.Clipboard
	}
	return cfg, nil
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: failed to get user home directory: %w", err)
	}
	return filepath.Join(home, DefaultFileName), nil
}

// expandHome resolves a leading "~/" against the user's home directory.
func expandHome(path string) string {
	if len(path) >= 2 && path[:2] == "~/" {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
