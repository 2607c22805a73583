// Package config handles global Munin configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the global Munin configuration, shared by every tracker
// on the machine.
type Config struct {
	// DefaultTracker is the name of the default tracker (from Trackers).
	DefaultTracker string `toml:"default_tracker"`

	// Trackers maps tracker names to their root paths.
	Trackers map[string]string `toml:"trackers"`

	// Editor is the editor command for opening files (defaults to $EDITOR).
	Editor string `toml:"editor"`

	// User is the identity recorded by user_name/user_email fields.
	User UserConfig `toml:"user"`
}

// UserConfig is the configured identity.
type UserConfig struct {
	Name  string `toml:"name"`
	Email string `toml:"email"`
}

// GetTrackerPath returns the root path for a named tracker. If name is
// empty, returns the default tracker's path.
func (c *Config) GetTrackerPath(name string) (string, error) {
	if name == "" {
		name = c.DefaultTracker
	}
	if name == "" {
		return "", fmt.Errorf("no default tracker configured")
	}

	if c.Trackers != nil {
		if path, ok := c.Trackers[name]; ok {
			return ExpandPath(path), nil
		}
	}
	return "", fmt.Errorf("tracker '%s' not found in config", name)
}

// ListTrackers returns all configured trackers with their expanded paths.
func (c *Config) ListTrackers() map[string]string {
	result := make(map[string]string, len(c.Trackers))
	for name, path := range c.Trackers {
		result[name] = ExpandPath(path)
	}
	return result
}

// GetEditor returns the editor to use, falling back to $EDITOR.
func (c *Config) GetEditor() string {
	if c.Editor != "" {
		return c.Editor
	}
	return os.Getenv("EDITOR")
}

// ExpandPath resolves a leading ~ against the user's home directory, so
// config values like "~/track/work" work as written.
func ExpandPath(path string) string {
	if path == "~" || len(path) >= 2 && path[0] == '~' && (path[1] == '/' || path[1] == filepath.Separator) {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// Load loads the configuration from the default location. Returns an empty
// config if the file doesn't exist.
func Load() (*Config, error) {
	configPath := DefaultPath()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return &Config{}, nil
	}

	return LoadFrom(configPath)
}

// LoadFrom loads the configuration from a specific path.
func LoadFrom(path string) (*Config, error) {
	var config Config
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return &config, nil
}

// DefaultPath returns the default config file path. Checks
// ~/.config/munin/config.toml first (XDG style), then falls back to the
// OS-specific location.
func DefaultPath() string {
	if home, err := os.UserHomeDir(); err == nil {
		xdgPath := filepath.Join(home, ".config", "munin", "config.toml")
		if _, err := os.Stat(xdgPath); err == nil {
			return xdgPath
		}
	}

	if configDir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(configDir, "munin", "config.toml")
	}

	return filepath.Join(".", "config.toml")
}

// XDGPath returns the XDG-style config path (~/.config/munin/config.toml).
func XDGPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "munin", "config.toml"), nil
}

// CreateDefault creates a commented default config file if none exists.
func CreateDefault() (string, error) {
	configPath := DefaultPath()

	if _, err := os.Stat(configPath); err == nil {
		return configPath, nil
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	defaultConfig := `# Munin configuration

# Default tracker name (must exist in [trackers] below)
# default_tracker = "work"

# Editor for opening files (defaults to $EDITOR)
# editor = "nvim"

# Identity recorded by user_name/user_email fields.
# Falls back to git config, then the OS username.
# [user]
# name  = "freya"
# email = "freya@example.com"

# Named trackers
# [trackers]
# work = "~/track/work"
# home = "~/track/home"
`

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}

	return configPath, nil
}
