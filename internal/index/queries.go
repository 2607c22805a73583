package index

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/aidanlsb/munin/internal/model"
	"github.com/aidanlsb/munin/internal/sqlutil"
)

// GetRecord returns a record with its full field map from the index.
func (d *Database) GetRecord(id string) (*model.Record, error) {
	r := &model.Record{}
	err := d.db.QueryRow(`
		SELECT id, template, path, body FROM records WHERE id = ?
	`, id).Scan(&r.ID, &r.Template, &r.Path, &r.Body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read record %s: %w", id, err)
	}

	r.Fields, err = d.loadFields(r.ID, nil)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// GetNote returns a note with its full field map from the index.
func (d *Database) GetNote(id string) (*model.Note, error) {
	n := &model.Note{}
	err := d.db.QueryRow(`
		SELECT id, record_id, path, body FROM notes WHERE id = ?
	`, id).Scan(&n.ID, &n.Record, &n.Path, &n.Body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read note %s: %w", id, err)
	}

	n.Fields, err = d.loadFields(n.Record, &n.ID)
	if err != nil {
		return nil, err
	}
	return n, nil
}

// ListNotes returns all notes for a record, oldest first (note ids are
// time-sortable).
func (d *Database) ListNotes(recordID string) ([]*model.Note, error) {
	rows, err := d.db.Query(`
		SELECT id, record_id, path, body FROM notes WHERE record_id = ? ORDER BY id
	`, recordID)
	if err != nil {
		return nil, err
	}

	notes, err := sqlutil.ScanRows(rows, func(rows *sql.Rows) (*model.Note, error) {
		n := &model.Note{}
		if err := rows.Scan(&n.ID, &n.Record, &n.Path, &n.Body); err != nil {
			return nil, err
		}
		return n, nil
	})
	if err != nil {
		return nil, err
	}

	for _, n := range notes {
		if n.Fields, err = d.loadFields(n.Record, &n.ID); err != nil {
			return nil, err
		}
	}
	return notes, nil
}

// RecordIDs returns every indexed record id, ascending.
func (d *Database) RecordIDs() ([]string, error) {
	rows, err := d.db.Query(`SELECT id FROM records ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return sqlutil.ScanRows(rows, func(rows *sql.Rows) (string, error) {
		var id string
		err := rows.Scan(&id)
		return id, err
	})
}

// NoteIDs returns every indexed note id, ascending.
func (d *Database) NoteIDs() ([]string, error) {
	rows, err := d.db.Query(`SELECT id FROM notes ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return sqlutil.ScanRows(rows, func(rows *sql.Rows) (string, error) {
		var id string
		err := rows.Scan(&id)
		return id, err
	})
}

// Counts returns the number of indexed records and notes.
func (d *Database) Counts() (records, notes int, err error) {
	if err := d.db.QueryRow(`SELECT COUNT(*) FROM records`).Scan(&records); err != nil {
		return 0, 0, err
	}
	if err := d.db.QueryRow(`SELECT COUNT(*) FROM notes`).Scan(&notes); err != nil {
		return 0, 0, err
	}
	return records, notes, nil
}
