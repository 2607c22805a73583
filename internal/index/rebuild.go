package index

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/aidanlsb/munin/internal/model"
)

// Batch accepts entities during a rebuild. All inserts land in the rebuild
// transaction.
type Batch struct {
	tx  *sql.Tx
	now int64
}

// AddRecord inserts a record into the rebuild transaction.
func (b *Batch) AddRecord(r *model.Record, fileMtime int64) error {
	return insertRecordRow(b.tx, r, indexedMtime(b.now, fileMtime), b.now)
}

// AddNote inserts a note into the rebuild transaction.
func (b *Batch) AddNote(n *model.Note, fileMtime int64) error {
	return insertNoteRow(b.tx, n, indexedMtime(b.now, fileMtime), b.now)
}

// Rebuild replaces the entire index content in one transaction: everything
// is deleted, then fill streams in the current state of the files. A
// concurrent query never sees a partial index, and a failed fill leaves the
// previous content untouched.
//
// The rebuild lock guards against two processes rebuilding at once;
// ErrIndexLocked reports a holder. In-memory databases skip the lock.
func (d *Database) Rebuild(fill func(b *Batch) error) error {
	lock, err := acquireIndexLock(d.dir)
	if err != nil {
		return err
	}
	defer lock.Release()

	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"field_values", "notes", "records"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	if err := fill(&Batch{tx: tx, now: time.Now().Unix()}); err != nil {
		return err
	}
	return tx.Commit()
}
