package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadFrom(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "config.toml")

	content := `default_tracker = "work"
editor = "nvim"

[user]
name  = "freya"
email = "freya@example.com"

[trackers]
work = "/tmp/work"
home = "/tmp/home"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom returned error: %v", err)
	}
	if cfg.DefaultTracker != "work" {
		t.Errorf("expected default_tracker work, got %q", cfg.DefaultTracker)
	}
	if cfg.Editor != "nvim" {
		t.Errorf("expected editor nvim, got %q", cfg.Editor)
	}
	if cfg.User.Name != "freya" || cfg.User.Email != "freya@example.com" {
		t.Errorf("unexpected user identity: %+v", cfg.User)
	}
	if len(cfg.Trackers) != 2 {
		t.Errorf("expected 2 trackers, got %v", cfg.Trackers)
	}
}

func TestLoadFromInvalidTOML(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "config.toml")
	if err := os.WriteFile(path, []byte("default_tracker = [broken"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := LoadFrom(path); err == nil {
		t.Fatal("expected parse error for invalid TOML")
	}
}

func TestGetTrackerPath(t *testing.T) {
	cfg := &Config{
		DefaultTracker: "work",
		Trackers: map[string]string{
			"work": "/tmp/work",
			"home": "/tmp/home",
		},
	}

	tests := []struct {
		name    string
		lookup  string
		want    string
		wantErr bool
	}{
		{name: "named", lookup: "home", want: "/tmp/home"},
		{name: "default via empty name", lookup: "", want: "/tmp/work"},
		{name: "unknown", lookup: "nope", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := cfg.GetTrackerPath(tt.lookup)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.lookup)
				}
				return
			}
			if err != nil {
				t.Fatalf("GetTrackerPath(%q) returned error: %v", tt.lookup, err)
			}
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestGetTrackerPathNoDefault(t *testing.T) {
	cfg := &Config{}
	if _, err := cfg.GetTrackerPath(""); err == nil {
		t.Fatal("expected error when no default tracker is configured")
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home dir: %v", err)
	}

	if got := ExpandPath("~/track/work"); got != filepath.Join(home, "track", "work") {
		t.Errorf("expected home expansion, got %q", got)
	}
	if got := ExpandPath("/abs/path"); got != "/abs/path" {
		t.Errorf("expected absolute path unchanged, got %q", got)
	}
	if got := ExpandPath("relative"); got != "relative" {
		t.Errorf("expected relative path unchanged, got %q", got)
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "nested", "config.toml")

	cfg := &Config{
		DefaultTracker: "work",
		Editor:         "hx",
		User:           UserConfig{Name: "freya", Email: "freya@example.com"},
		Trackers:       map[string]string{"work": "/tmp/work"},
	}

	if err := SaveTo(path, cfg); err != nil {
		t.Fatalf("SaveTo returned error: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom returned error: %v", err)
	}
	if loaded.DefaultTracker != "work" || loaded.Editor != "hx" {
		t.Errorf("unexpected round trip: %+v", loaded)
	}
	if loaded.User.Name != "freya" || loaded.User.Email != "freya@example.com" {
		t.Errorf("unexpected user round trip: %+v", loaded.User)
	}
	if loaded.Trackers["work"] != "/tmp/work" {
		t.Errorf("unexpected trackers round trip: %v", loaded.Trackers)
	}
}

func TestSaveToOmitsEmptySections(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "config.toml")

	if err := SaveTo(path, &Config{Editor: "vim"}); err != nil {
		t.Fatalf("SaveTo returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	content := string(data)
	if strings.Contains(content, "[user]") {
		t.Errorf("expected no empty [user] section, got:\n%s", content)
	}
	if strings.Contains(content, "default_tracker") {
		t.Errorf("expected no empty default_tracker key, got:\n%s", content)
	}
}
