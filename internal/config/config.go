// ABOUTME: JSON preset file holding initial engine settings and server options
// ABOUTME: Lives at ~/.config/metrodrone/config.json; missing files yield defaults
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/metrodrone/metrodrone-go/pkg/metrodrone"
)

// ServerConfig stores control server options
type ServerConfig struct {
	Name string `json:"name,omitempty"`
	Port int    `json:"port,omitempty"`
}

// Config is the preset file structure
type Config struct {
	Settings  metrodrone.Settings `json:"settings"`
	ClicksDir string              `json:"clicksDir,omitempty"`
	Volume    int                 `json:"volume,omitempty"`
	Server    ServerConfig        `json:"server,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Volume: 100,
		Server: ServerConfig{
			Name: "Metrodrone",
			Port: 8928,
		},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "metrodrone"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config at path, or the default path when path is empty.
// A missing file returns defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return DefaultConfig(), nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to path, or the default path when path is empty
func (c *Config) Save(path string) error {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return err
		}
		path = p
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
