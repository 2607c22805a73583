package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/natefinch/atomic"
)

// persistedConfig mirrors Config with omitempty pointers so saving never
// writes empty keys a hand-edited file did not have.
type persistedConfig struct {
	DefaultTracker *string           `toml:"default_tracker,omitempty"`
	Editor         *string           `toml:"editor,omitempty"`
	User           *persistedUser    `toml:"user,omitempty"`
	Trackers       map[string]string `toml:"trackers,omitempty"`
}

type persistedUser struct {
	Name  *string `toml:"name,omitempty"`
	Email *string `toml:"email,omitempty"`
}

func nonEmptyPtr(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// Save writes the global config to the default config path.
func Save(cfg *Config) error {
	return SaveTo(DefaultPath(), cfg)
}

// SaveTo writes the global config to a specific path atomically.
func SaveTo(path string, cfg *Config) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("config path is required")
	}
	if cfg == nil {
		cfg = &Config{}
	}

	out := persistedConfig{
		DefaultTracker: nonEmptyPtr(cfg.DefaultTracker),
		Editor:         nonEmptyPtr(cfg.Editor),
	}
	if len(cfg.Trackers) > 0 {
		out.Trackers = cfg.Trackers
	}

	name := nonEmptyPtr(cfg.User.Name)
	email := nonEmptyPtr(cfg.User.Email)
	if name != nil || email != nil {
		out.User = &persistedUser{Name: name, Email: email}
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(out); err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := atomic.WriteFile(path, &buf); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}

	return nil
}
