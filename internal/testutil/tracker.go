// Package testutil provides reusable fixtures for integration tests.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/aidanlsb/munin/internal/tracker"
)

// TestTracker is a temporary tracker built on t.TempDir.
type TestTracker struct {
	Path string

	t      *testing.T
	config string
	files  map[string]string
}

// NewTestTracker creates a test tracker builder. Call Build to create the
// directory tree.
func NewTestTracker(t *testing.T) *TestTracker {
	t.Helper()
	return &TestTracker{
		t:     t,
		files: make(map[string]string),
	}
}

// WithConfig sets the .munin/config.toml content. Without it the default
// schema applies.
func (tt *TestTracker) WithConfig(toml string) *TestTracker {
	tt.config = toml
	return tt
}

// WithRecord adds a record file with the given raw content.
func (tt *TestTracker) WithRecord(id, content string) *TestTracker {
	tt.files[filepath.Join(tracker.RecordsDirName, id+".md")] = content
	return tt
}

// WithNote adds a note file under its record's note directory.
func (tt *TestTracker) WithNote(recordID, noteID, content string) *TestTracker {
	tt.files[filepath.Join(tracker.NotesDirName, recordID, noteID+".md")] = content
	return tt
}

// WithTemplateBody adds a body scaffold under .munin/templates/.
func (tt *TestTracker) WithTemplateBody(name, content string) *TestTracker {
	tt.files[filepath.Join(tracker.DirName, tracker.TemplatesDirName, name+".md")] = content
	return tt
}

// WithFile adds an arbitrary file relative to the tracker root.
func (tt *TestTracker) WithFile(relPath, content string) *TestTracker {
	tt.files[relPath] = content
	return tt
}

// Build creates the tracker directory and all configured files.
func (tt *TestTracker) Build() *TestTracker {
	tt.t.Helper()
	tt.Path = tt.t.TempDir()

	if _, err := tracker.Init(tt.Path); err != nil {
		tt.t.Fatalf("failed to init tracker: %v", err)
	}
	if tt.config != "" {
		tt.writeFile(filepath.Join(tracker.DirName, "config.toml"), tt.config)
	}
	for path, content := range tt.files {
		tt.writeFile(path, content)
	}
	return tt
}

// Open opens the built tracker, loading its schema config.
func (tt *TestTracker) Open() *tracker.Tracker {
	tt.t.Helper()
	t, err := tracker.Open(tt.Path)
	if err != nil {
		tt.t.Fatalf("failed to open tracker: %v", err)
	}
	return t
}

func (tt *TestTracker) writeFile(relPath, content string) {
	tt.t.Helper()
	fullPath := filepath.Join(tt.Path, relPath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		tt.t.Fatalf("failed to create directory for %s: %v", relPath, err)
	}
	if err := os.WriteFile(fullPath, []byte(content), 0644); err != nil {
		tt.t.Fatalf("failed to write %s: %v", relPath, err)
	}
}

// ReadFile reads a file relative to the tracker root.
func (tt *TestTracker) ReadFile(relPath string) string {
	tt.t.Helper()
	content, err := os.ReadFile(filepath.Join(tt.Path, relPath))
	if err != nil {
		tt.t.Fatalf("failed to read %s: %v", relPath, err)
	}
	return string(content)
}

// FileExists reports whether a file exists relative to the tracker root.
func (tt *TestTracker) FileExists(relPath string) bool {
	tt.t.Helper()
	_, err := os.Stat(filepath.Join(tt.Path, relPath))
	return err == nil
}

// Record returns raw record file content formatted from front matter lines
// and a body.
func Record(fm string, body string) string {
	return fmt.Sprintf("---\n%s---\n\n%s", fm, body)
}

// ProjectsConfig is a schema with a "project" template used across tests.
func ProjectsConfig() string {
	return `[record_special_fields.title]
required = true

[record_special_fields.status]
accepted_values = ["open", "closed"]
default = "open"

[record_special_fields.tags]
cardinality = "multi"

[record_special_fields.created_at]
system_value = "datetime"
editable = false

[record_special_fields.created_by]
system_value = "user_name"
editable = false

[record_special_fields.updated_at]
system_value = "datetime"

[note_special_fields.created_at]
system_value = "datetime"
editable = false

[note_special_fields.created_by]
system_value = "user_name"
editable = false

[templates.project]
id_prefix = "PRJ"

[templates.project.record_fields.status]
accepted_values = ["planning", "active", "done"]
default = "planning"

[templates.project.record_fields.effort]
value_type = "integer"
`
}
