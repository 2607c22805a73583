package index

import (
	"database/sql"
	"fmt"

	"github.com/aidanlsb/munin/internal/model"
)

// numExpr renders a field_values row as a number. String rows yield NULL,
// so numeric comparisons never match them.
const numExpr = "COALESCE(fv.value_float, CAST(fv.value_integer AS REAL))"

func indexedMtime(now, fileMtime int64) int64 {
	if fileMtime == 0 {
		return now
	}
	return fileMtime
}

func deleteRecordRows(tx *sql.Tx, id string) error {
	// Record-scope field rows only; note rows are replaced with their notes.
	if _, err := tx.Exec(`DELETE FROM field_values WHERE record_id = ? AND note_id IS NULL`, id); err != nil {
		return fmt.Errorf("delete record field values: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM records WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}

func deleteNoteRows(tx *sql.Tx, id string) error {
	if _, err := tx.Exec(`DELETE FROM field_values WHERE note_id = ?`, id); err != nil {
		return fmt.Errorf("delete note field values: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM notes WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	return nil
}

func insertRecordRow(tx *sql.Tx, r *model.Record, mtime, indexedAt int64) error {
	_, err := tx.Exec(`
		INSERT INTO records (id, template, path, body, file_mtime, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, r.ID, r.Template, r.Path, r.Body, mtime, indexedAt)
	if err != nil {
		return fmt.Errorf("insert record %s: %w", r.ID, err)
	}
	return insertFieldRows(tx, r.ID, nil, r.Fields)
}

func insertNoteRow(tx *sql.Tx, n *model.Note, mtime, indexedAt int64) error {
	_, err := tx.Exec(`
		INSERT INTO notes (id, record_id, path, body, file_mtime, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, n.ID, n.Record, n.Path, n.Body, mtime, indexedAt)
	if err != nil {
		return fmt.Errorf("insert note %s: %w", n.ID, err)
	}
	return insertFieldRows(tx, n.Record, &n.ID, n.Fields)
}

// insertFieldRows writes one row per scalar, in field map order so reads
// reconstruct the same ordering.
func insertFieldRows(tx *sql.Tx, recordID string, noteID *string, fields *model.FieldMap) error {
	stmt, err := tx.Prepare(`
		INSERT INTO field_values (record_id, note_id, field, kind, value_string, value_integer, value_float)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, name := range fields.Names() {
		vals, _ := fields.Get(name)
		for _, v := range vals {
			var vi *int64
			var vf *float64
			if i, ok := v.AsInteger(); ok {
				vi = &i
			}
			if f, ok := v.AsFloat(); ok {
				vf = &f
			}
			if _, err := stmt.Exec(recordID, noteID, name, string(v.Kind()), v.Render(), vi, vf); err != nil {
				return fmt.Errorf("insert field %s: %w", name, err)
			}
		}
	}
	return nil
}

// loadFields reconstructs a field map from the index, in insertion order.
// Pass noteID nil for record-scope fields.
func (d *Database) loadFields(recordID string, noteID *string) (*model.FieldMap, error) {
	var rows *sql.Rows
	var err error
	if noteID == nil {
		rows, err = d.db.Query(`
			SELECT field, kind, value_string, value_integer, value_float
			FROM field_values WHERE record_id = ? AND note_id IS NULL ORDER BY id
		`, recordID)
	} else {
		rows, err = d.db.Query(`
			SELECT field, kind, value_string, value_integer, value_float
			FROM field_values WHERE note_id = ? ORDER BY id
		`, *noteID)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fields := model.NewFieldMap()
	for rows.Next() {
		var field, kind, str string
		var vi sql.NullInt64
		var vf sql.NullFloat64
		if err := rows.Scan(&field, &kind, &str, &vi, &vf); err != nil {
			return nil, err
		}
		fields.Add(field, rowValue(model.Kind(kind), str, vi, vf))
	}
	return fields, rows.Err()
}

func rowValue(kind model.Kind, str string, vi sql.NullInt64, vf sql.NullFloat64) model.Value {
	switch kind {
	case model.KindInteger:
		if vi.Valid {
			return model.Integer(vi.Int64)
		}
	case model.KindFloat:
		if vf.Valid {
			return model.Float(vf.Float64)
		}
	}
	return model.String(str)
}
