package index

import (
	"fmt"
	"time"

	"github.com/aidanlsb/munin/internal/model"
)

// ReplaceRecord replaces all index rows for a record: delete then insert,
// never an incremental diff, so the index always equals a re-parse of the
// file. fileMtime may be 0 when unknown.
func (d *Database) ReplaceRecord(r *model.Record, fileMtime int64) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := deleteRecordRows(tx, r.ID); err != nil {
		return err
	}
	now := time.Now().Unix()
	if err := insertRecordRow(tx, r, indexedMtime(now, fileMtime), now); err != nil {
		return err
	}
	return tx.Commit()
}

// ReplaceNote replaces all index rows for a note.
func (d *Database) ReplaceNote(n *model.Note, fileMtime int64) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := deleteNoteRows(tx, n.ID); err != nil {
		return err
	}
	now := time.Now().Unix()
	if err := insertNoteRow(tx, n, indexedMtime(now, fileMtime), now); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteRecord removes a record and all of its notes from the index.
func (d *Database) DeleteRecord(id string) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM field_values WHERE record_id = ?`, id); err != nil {
		return fmt.Errorf("delete field values: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM notes WHERE record_id = ?`, id); err != nil {
		return fmt.Errorf("delete notes: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM records WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return tx.Commit()
}

// DeleteNote removes a single note from the index.
func (d *Database) DeleteNote(id string) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := deleteNoteRows(tx, id); err != nil {
		return err
	}
	return tx.Commit()
}
