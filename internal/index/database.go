// Package index maintains the rebuildable SQLite mirror of the tracker's
// files.
//
// The index is never the source of truth: every row is derived from a
// record or note file, every write replaces an entity's rows wholesale, and
// the whole thing can be rebuilt from the files at any time. Queries read
// the typed field_values table; anything that needs exact file content goes
// back to disk.
package index

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

var (
	// ErrRecordNotFound indicates the requested record id is not in the index.
	ErrRecordNotFound = errors.New("record not found in index")
	// ErrNoteNotFound indicates the requested note id is not in the index.
	ErrNoteNotFound = errors.New("note not found in index")
	// ErrIndexLocked indicates another process is rebuilding the index.
	ErrIndexLocked = errors.New("index is locked for rebuild")
)

// Database is the SQLite index handle.
type Database struct {
	db  *sql.DB
	dir string // .munin directory, empty for in-memory databases
}

// DB returns the underlying sql.DB for advanced queries.
func (d *Database) DB() *sql.DB {
	return d.db
}

// Open opens or creates the index database under trackerPath/.munin.
func Open(trackerPath string) (*Database, error) {
	dbDir := filepath.Join(trackerPath, ".munin")
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create .munin directory: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dbDir, "index.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open index database: %w", err)
	}

	d := &Database{db: db, dir: dbDir}
	if err := d.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

// OpenWithReset opens the index, recreating it when the on-disk schema
// version is incompatible. Returns (database, wasReset, error); after a
// reset the caller must rebuild from files before trusting query results.
func OpenWithReset(trackerPath string) (*Database, bool, error) {
	dbDir := filepath.Join(trackerPath, ".munin")
	dbPath := filepath.Join(dbDir, "index.db")

	reset := false
	if _, err := os.Stat(dbPath); err == nil {
		db, err := sql.Open("sqlite", dbPath)
		if err == nil {
			compatible := schemaVersionCurrent(db)
			db.Close()
			if !compatible {
				if err := removeDatabaseFiles(dbPath); err != nil {
					return nil, false, err
				}
				reset = true
			}
		}
	}

	d, err := Open(trackerPath)
	return d, reset, err
}

// OpenInMemory opens an in-memory index (for testing).
func OpenInMemory() (*Database, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, err
	}

	d := &Database{db: db}
	if err := d.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

// Close closes the database.
func (d *Database) Close() error {
	return d.db.Close()
}

// Analyze refreshes the query planner statistics. Worth calling after a
// full rebuild.
func (d *Database) Analyze() error {
	_, err := d.db.Exec("ANALYZE")
	return err
}

// CurrentDBVersion is the index schema version. Bumping it forces a reset
// and rebuild on next open.
const CurrentDBVersion = 1

// initialize creates the database schema.
func (d *Database) initialize() error {
	schema := `
		-- WAL keeps reads cheap while a write is in flight
		PRAGMA journal_mode = WAL;

		PRAGMA synchronous = NORMAL;      -- Safe with WAL
		PRAGMA temp_store = MEMORY;
		PRAGMA cache_size = -64000;       -- 64MB cache (negative = KB)

		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);

		-- One row per record file
		CREATE TABLE IF NOT EXISTS records (
			id TEXT PRIMARY KEY,
			template TEXT NOT NULL DEFAULT '',
			path TEXT NOT NULL,
			body TEXT NOT NULL DEFAULT '',
			file_mtime INTEGER,
			indexed_at INTEGER
		);

		-- One row per note file, keyed to its owning record
		CREATE TABLE IF NOT EXISTS notes (
			id TEXT PRIMARY KEY,
			record_id TEXT NOT NULL,
			path TEXT NOT NULL,
			body TEXT NOT NULL DEFAULT '',
			file_mtime INTEGER,
			indexed_at INTEGER
		);

		-- One row per scalar field value. note_id is NULL for record-scope
		-- rows. value_string always holds the rendering; the typed columns
		-- hold the exact value for the row's kind.
		CREATE TABLE IF NOT EXISTS field_values (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			record_id TEXT NOT NULL,
			note_id TEXT,
			field TEXT NOT NULL,
			kind TEXT NOT NULL,
			value_string TEXT NOT NULL,
			value_integer INTEGER,
			value_float REAL
		);

		CREATE INDEX IF NOT EXISTS idx_records_template ON records(template);
		CREATE INDEX IF NOT EXISTS idx_notes_record ON notes(record_id);

		CREATE INDEX IF NOT EXISTS idx_field_values_record ON field_values(record_id);
		CREATE INDEX IF NOT EXISTS idx_field_values_note ON field_values(note_id) WHERE note_id IS NOT NULL;
		CREATE INDEX IF NOT EXISTS idx_field_values_field_string ON field_values(field, value_string);
		CREATE INDEX IF NOT EXISTS idx_field_values_field_float ON field_values(field, value_float) WHERE value_float IS NOT NULL;
		CREATE INDEX IF NOT EXISTS idx_field_values_field_integer ON field_values(field, value_integer) WHERE value_integer IS NOT NULL;
	`

	if _, err := d.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize index schema: %w", err)
	}

	_, err := d.db.Exec(`INSERT OR REPLACE INTO meta (key, value) VALUES ('version', ?)`,
		fmt.Sprintf("%d", CurrentDBVersion))
	if err != nil {
		return fmt.Errorf("failed to set index version: %w", err)
	}
	return nil
}

// schemaVersionCurrent reports whether the on-disk version matches.
func schemaVersionCurrent(db *sql.DB) bool {
	var version string
	err := db.QueryRow(`SELECT value FROM meta WHERE key = 'version'`).Scan(&version)
	if err != nil {
		return false
	}
	return version == fmt.Sprintf("%d", CurrentDBVersion)
}

func removeDatabaseFiles(dbPath string) error {
	paths := []string{dbPath, dbPath + "-wal", dbPath + "-shm"}
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove %s: %w", p, err)
		}
	}
	return nil
}

type indexLock struct {
	file *os.File
}

// acquireIndexLock takes the exclusive rebuild lock, without blocking.
func acquireIndexLock(dbDir string) (*indexLock, error) {
	if dbDir == "" {
		return &indexLock{}, nil
	}
	lockFile, err := os.OpenFile(filepath.Join(dbDir, "index.lock"), os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open index lock: %w", err)
	}

	if err := lockFileExclusiveNonBlocking(lockFile); err != nil {
		lockFile.Close()
		if isWouldBlockError(err) {
			return nil, ErrIndexLocked
		}
		return nil, fmt.Errorf("failed to acquire index lock: %w", err)
	}
	return &indexLock{file: lockFile}, nil
}

func (l *indexLock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	unlockErr := unlockFile(l.file)
	closeErr := l.file.Close()
	if unlockErr != nil {
		return unlockErr
	}
	return closeErr
}
