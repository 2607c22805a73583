package tracker

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/natefinch/atomic"

	"github.com/aidanlsb/munin/internal/model"
	"github.com/aidanlsb/munin/internal/parser"
)

// NotFoundError indicates a record or note id that does not resolve to a
// file.
type NotFoundError struct {
	Kind string // "record" or "note"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// LoadRecord reads and parses one record file.
func (t *Tracker) LoadRecord(id string) (*model.Record, error) {
	content, err := os.ReadFile(t.RecordPath(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, &NotFoundError{Kind: "record", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read record %s: %w", id, err)
	}
	return parser.DecodeRecord(content, id, t.RecordRelPath(id), t.Config)
}

// RecordExists reports whether a record file exists.
func (t *Tracker) RecordExists(id string) bool {
	_, err := os.Stat(t.RecordPath(id))
	return err == nil
}

// SaveRecord encodes and atomically writes a record file. It returns the
// canonical form read back from the encoded bytes, which is what belongs in
// the index: the invariant is that index rows always equal a re-parse of
// the file.
func (t *Tracker) SaveRecord(r *model.Record) (*model.Record, error) {
	content, err := parser.EncodeRecord(r, t.Config)
	if err != nil {
		return nil, err
	}

	path := t.RecordPath(r.ID)
	if err := t.WithinRoot(path); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(t.RecordsPath(), 0755); err != nil {
		return nil, fmt.Errorf("failed to create records directory: %w", err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("failed to write record %s: %w", r.ID, err)
	}

	canonical, err := parser.DecodeRecord(content, r.ID, t.RecordRelPath(r.ID), t.Config)
	if err != nil {
		return nil, fmt.Errorf("record %s does not round-trip: %w", r.ID, err)
	}
	return canonical, nil
}

// LoadNote reads and parses one note file. The owning record provides the
// template context.
func (t *Tracker) LoadNote(recordID, noteID string) (*model.Note, error) {
	record, err := t.LoadRecord(recordID)
	if err != nil {
		return nil, err
	}
	return t.loadNoteWithTemplate(recordID, noteID, record.Template)
}

func (t *Tracker) loadNoteWithTemplate(recordID, noteID, templateID string) (*model.Note, error) {
	content, err := os.ReadFile(t.NotePath(recordID, noteID))
	if errors.Is(err, os.ErrNotExist) {
		return nil, &NotFoundError{Kind: "note", ID: noteID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read note %s: %w", noteID, err)
	}
	return parser.DecodeNote(content, noteID, t.NoteRelPath(recordID, noteID), recordID, templateID, t.Config)
}

// FindNote locates a note by id without knowing its record, scanning the
// note directories.
func (t *Tracker) FindNote(noteID string) (*model.Note, error) {
	dirs, err := t.NoteDirs()
	if err != nil {
		return nil, err
	}
	for _, recordID := range dirs {
		if _, err := os.Stat(t.NotePath(recordID, noteID)); err == nil {
			return t.LoadNote(recordID, noteID)
		}
	}
	return nil, &NotFoundError{Kind: "note", ID: noteID}
}

// SaveNote encodes and atomically writes a note file, creating the record's
// note directory on first use. Like SaveRecord it returns the canonical
// re-parsed form for indexing.
func (t *Tracker) SaveNote(n *model.Note, templateID string) (*model.Note, error) {
	content, err := parser.EncodeNote(n, templateID, t.Config)
	if err != nil {
		return nil, err
	}

	path := t.NotePath(n.Record, n.ID)
	if err := t.WithinRoot(path); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(t.NoteDirPath(n.Record), 0755); err != nil {
		return nil, fmt.Errorf("failed to create note directory: %w", err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("failed to write note %s: %w", n.ID, err)
	}

	canonical, err := parser.DecodeNote(content, n.ID, t.NoteRelPath(n.Record, n.ID), n.Record, templateID, t.Config)
	if err != nil {
		return nil, fmt.Errorf("note %s does not round-trip: %w", n.ID, err)
	}
	return canonical, nil
}

// DeleteRecordFiles removes a record file and its entire note directory.
func (t *Tracker) DeleteRecordFiles(id string) error {
	if !t.RecordExists(id) {
		return &NotFoundError{Kind: "record", ID: id}
	}
	if err := os.Remove(t.RecordPath(id)); err != nil {
		return fmt.Errorf("failed to delete record %s: %w", id, err)
	}
	if err := os.RemoveAll(t.NoteDirPath(id)); err != nil {
		return fmt.Errorf("failed to delete notes for %s: %w", id, err)
	}
	return nil
}

// DeleteNoteFile removes a single note file.
func (t *Tracker) DeleteNoteFile(recordID, noteID string) error {
	err := os.Remove(t.NotePath(recordID, noteID))
	if errors.Is(err, os.ErrNotExist) {
		return &NotFoundError{Kind: "note", ID: noteID}
	}
	if err != nil {
		return fmt.Errorf("failed to delete note %s: %w", noteID, err)
	}
	return nil
}
