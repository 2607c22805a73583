package tracker

import (
	"errors"
	"os"
	"strings"
)

// RecordFiles lists record ids from the records directory, sorted. A
// missing directory is an empty tracker, not an error.
func (t *Tracker) RecordFiles() ([]string, error) {
	return mdBasenames(t.RecordsPath())
}

// NoteDirs lists record ids that have a note directory, sorted.
func (t *Tracker) NoteDirs() ([]string, error) {
	entries, err := os.ReadDir(t.NotesPath())
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			ids = append(ids, e.Name())
		}
	}
	return ids, nil
}

// NoteFiles lists note ids under one record's note directory, sorted.
func (t *Tracker) NoteFiles(recordID string) ([]string, error) {
	return mdBasenames(t.NoteDirPath(recordID))
}

func mdBasenames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".md") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".md"))
	}
	return ids, nil
}
