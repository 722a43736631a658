package config

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Config holds the CLI configuration
type Config struct {
	Server    string `yaml:"server"`
	Username  string `yaml:"username,omitempty"`
	DeviceID  string `yaml:"device_id"`
	ClaudeDir string `yaml:"claude_dir,omitempty"`
}

// Joined reports whether this device has registered a username.
func (c *Config) Joined() bool {
	return c.Username != ""
}

// configPath returns the path to the config file
func configPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".ccboard.yaml"), nil
}

// Load loads the configuration from disk
func Load() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save saves the configuration to disk
func Save(cfg *Config) error {
	// Generate device ID on first save; it is immutable afterwards
	if cfg.DeviceID == "" {
		cfg.DeviceID = uuid.NewString()
	}

	path, err := configPath()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}
