package template

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestApply(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	vars := NewVariables("Fix the flaky test", "bug", now, map[string]string{
		"severity": "3",
		"owner":    "freya",
	})

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "title and template",
			content: "# {{title}}\n\nKind: {{template}}\n",
			want:    "# Fix the flaky test\n\nKind: bug\n",
		},
		{
			name:    "date and datetime",
			content: "Opened {{date}} at {{datetime}}",
			want:    "Opened 2026-03-14 at 2026-03-14T09:26:53.000000Z",
		},
		{
			name:    "field values",
			content: "severity={{field.severity}} owner={{field.owner}}",
			want:    "severity=3 owner=freya",
		},
		{
			name:    "unknown variable left alone",
			content: "{{mystery}} stays",
			want:    "{{mystery}} stays",
		},
		{
			name:    "escaped braces become literal",
			content: `\{{title}} is not substituted`,
			want:    "{{title}} is not substituted",
		},
		{
			name:    "empty content",
			content: "",
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Apply(tt.content, vars); got != tt.want {
				t.Errorf("Apply(%q) = %q, want %q", tt.content, got, tt.want)
			}
		})
	}
}

func TestApplyNilVariables(t *testing.T) {
	if got := Apply("{{title}}", nil); got != "{{title}}" {
		t.Errorf("expected content unchanged with nil vars, got %q", got)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	scaffold := "# {{title}}\n\n## Steps\n"
	if err := os.WriteFile(filepath.Join(dir, "bug.md"), []byte(scaffold), 0o644); err != nil {
		t.Fatalf("write scaffold: %v", err)
	}

	got, err := Load(dir, "bug.md")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != scaffold {
		t.Errorf("expected scaffold content, got %q", got)
	}
}

func TestLoadEmptyName(t *testing.T) {
	got, err := Load(t.TempDir(), "")
	if err != nil || got != "" {
		t.Errorf("expected empty content for empty name, got %q, %v", got, err)
	}
}

func TestLoadRejectsPathTricks(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{"../escape.md", "sub/dir.md", "bad\nname.md"} {
		if _, err := Load(dir, name); err == nil {
			t.Errorf("expected error for name %q", name)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(t.TempDir(), "nope.md")
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("expected not-found error, got %v", err)
	}
}
