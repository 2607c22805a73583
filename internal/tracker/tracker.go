// Package tracker locates and represents a tracker: the directory tree
// holding record and note files plus the .munin control directory with the
// schema config and the index.
//
// Layout:
//
//	<root>/
//	  .munin/
//	    config.toml      schema configuration
//	    index.db         rebuildable SQLite index
//	    templates/       body scaffolds referenced by templates
//	  records/
//	    REC-XXXX.md      one file per record
//	  notes/
//	    REC-XXXX/
//	      NT-XXXX.md     one file per note, grouped by owning record
//
// Files are the source of truth. Everything under .munin can be deleted and
// rebuilt.
package tracker

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aidanlsb/munin/internal/schema"
)

const (
	// DirName is the control directory that marks a tracker root.
	DirName = ".munin"

	// RecordsDirName holds record files under the root.
	RecordsDirName = "records"

	// NotesDirName holds per-record note directories under the root.
	NotesDirName = "notes"

	// TemplatesDirName holds body scaffolds under DirName.
	TemplatesDirName = "templates"
)

// ErrNotFound indicates no tracker directory was found.
var ErrNotFound = errors.New("no tracker found")

// Tracker is an opened tracker with its schema config loaded.
type Tracker struct {
	Root   string
	Config *schema.Config
}

// Discover walks up from start looking for a directory containing .munin.
func Discover(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	for {
		info, err := os.Stat(filepath.Join(dir, DirName))
		if err == nil && info.IsDir() {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNotFound
		}
		dir = parent
	}
}

// Open opens an existing tracker and loads its schema config.
func Open(root string) (*Tracker, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(filepath.Join(abs, DirName))
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w at %s", ErrNotFound, abs)
	}

	cfg, err := schema.Load(filepath.Join(abs, DirName, schema.ConfigFileName))
	if err != nil {
		return nil, err
	}
	return &Tracker{Root: abs, Config: cfg}, nil
}

// Init creates a new tracker at root: the control directory, a commented
// default config, and the records and notes directories.
func Init(root string) (*Tracker, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	for _, dir := range []string{
		filepath.Join(abs, DirName),
		filepath.Join(abs, DirName, TemplatesDirName),
		filepath.Join(abs, RecordsDirName),
		filepath.Join(abs, NotesDirName),
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	if _, err := schema.CreateDefault(filepath.Join(abs, DirName, schema.ConfigFileName)); err != nil {
		return nil, err
	}
	return Open(abs)
}

// MuninPath returns the control directory path.
func (t *Tracker) MuninPath() string {
	return filepath.Join(t.Root, DirName)
}

// ConfigPath returns the schema config file path.
func (t *Tracker) ConfigPath() string {
	return filepath.Join(t.MuninPath(), schema.ConfigFileName)
}

// RecordsPath returns the records directory.
func (t *Tracker) RecordsPath() string {
	return filepath.Join(t.Root, RecordsDirName)
}

// NotesPath returns the notes directory.
func (t *Tracker) NotesPath() string {
	return filepath.Join(t.Root, NotesDirName)
}

// NoteDirPath returns the note directory for one record.
func (t *Tracker) NoteDirPath(recordID string) string {
	return filepath.Join(t.NotesPath(), recordID)
}

// RecordPath returns the absolute path of a record file.
func (t *Tracker) RecordPath(id string) string {
	return filepath.Join(t.RecordsPath(), id+".md")
}

// RecordRelPath returns the tracker-relative path of a record file, with
// forward slashes regardless of OS.
func (t *Tracker) RecordRelPath(id string) string {
	return RecordsDirName + "/" + id + ".md"
}

// NotePath returns the absolute path of a note file.
func (t *Tracker) NotePath(recordID, noteID string) string {
	return filepath.Join(t.NoteDirPath(recordID), noteID+".md")
}

// NoteRelPath returns the tracker-relative path of a note file.
func (t *Tracker) NoteRelPath(recordID, noteID string) string {
	return NotesDirName + "/" + recordID + "/" + noteID + ".md"
}

// TemplatePath returns the path of a body scaffold file.
func (t *Tracker) TemplatePath(name string) string {
	return filepath.Join(t.MuninPath(), TemplatesDirName, name)
}

// WithinRoot rejects paths that escape the tracker root.
func (t *Tracker) WithinRoot(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	rel, err := filepath.Rel(t.Root, abs)
	if err != nil {
		return err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("path %s is outside the tracker", path)
	}
	return nil
}
