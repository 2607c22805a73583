package testutil

import (
	"path/filepath"
	"strings"
)

// AssertFileExists fails the test if the file does not exist.
func (tt *TestTracker) AssertFileExists(relPath string) {
	tt.t.Helper()
	if !tt.FileExists(relPath) {
		tt.t.Errorf("expected file to exist: %s", relPath)
	}
}

// AssertFileNotExists fails the test if the file exists.
func (tt *TestTracker) AssertFileNotExists(relPath string) {
	tt.t.Helper()
	if tt.FileExists(relPath) {
		tt.t.Errorf("expected file to not exist: %s", relPath)
	}
}

// AssertFileContains fails the test if the file does not contain the
// substring.
func (tt *TestTracker) AssertFileContains(relPath, substr string) {
	tt.t.Helper()
	content := tt.ReadFile(relPath)
	if !strings.Contains(content, substr) {
		tt.t.Errorf("expected file %s to contain %q, got:\n%s", relPath, substr, content)
	}
}

// AssertFileNotContains fails the test if the file contains the substring.
func (tt *TestTracker) AssertFileNotContains(relPath, substr string) {
	tt.t.Helper()
	content := tt.ReadFile(relPath)
	if strings.Contains(content, substr) {
		tt.t.Errorf("expected file %s to not contain %q, got:\n%s", relPath, substr, content)
	}
}

// RecordRel returns the record file path relative to the tracker root.
func RecordRel(id string) string {
	return filepath.Join("records", id+".md")
}

// NoteRel returns the note file path relative to the tracker root.
func NoteRel(recordID, noteID string) string {
	return filepath.Join("notes", recordID, noteID+".md")
}
