package tracker

import (
	"fmt"
	"os"

	"github.com/aidanlsb/munin/internal/index"
	"github.com/aidanlsb/munin/internal/parser"
)

// FileError is a file the reindex sweep could not use, with why.
type FileError struct {
	Path string
	Err  error
}

// ReindexStats summarizes a full rebuild.
type ReindexStats struct {
	Records int
	Notes   int
	Skipped []FileError
}

// Reindex rebuilds the entire index from the tracker's files in one
// transaction. Unparseable files are skipped and reported in the stats, not
// fatal: one bad file must never make the whole tracker unqueryable. Running
// it twice with unchanged files produces identical index content.
func Reindex(t *Tracker, db *index.Database) (*ReindexStats, error) {
	stats := &ReindexStats{}

	err := db.Rebuild(func(b *index.Batch) error {
		// Records first; notes need their record's template.
		templates := make(map[string]string)

		recordIDs, err := t.RecordFiles()
		if err != nil {
			return err
		}
		for _, id := range recordIDs {
			path := t.RecordPath(id)
			content, err := os.ReadFile(path)
			if err != nil {
				stats.skip(t.RecordRelPath(id), err)
				continue
			}
			r, err := parser.DecodeRecord(content, id, t.RecordRelPath(id), t.Config)
			if err != nil {
				stats.skip(t.RecordRelPath(id), err)
				continue
			}
			if err := b.AddRecord(r, fileMtime(path)); err != nil {
				return err
			}
			templates[id] = r.Template
			stats.Records++
		}

		noteDirs, err := t.NoteDirs()
		if err != nil {
			return err
		}
		for _, recordID := range noteDirs {
			templateID, ok := templates[recordID]
			noteIDs, err := t.NoteFiles(recordID)
			if err != nil {
				return err
			}
			for _, noteID := range noteIDs {
				relPath := t.NoteRelPath(recordID, noteID)
				if !ok {
					stats.skip(relPath, fmt.Errorf("owning record %s is missing or unparseable", recordID))
					continue
				}
				path := t.NotePath(recordID, noteID)
				content, err := os.ReadFile(path)
				if err != nil {
					stats.skip(relPath, err)
					continue
				}
				n, err := parser.DecodeNote(content, noteID, relPath, recordID, templateID, t.Config)
				if err != nil {
					stats.skip(relPath, err)
					continue
				}
				if err := b.AddNote(n, fileMtime(path)); err != nil {
					return err
				}
				stats.Notes++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := db.Analyze(); err != nil {
		return nil, fmt.Errorf("failed to analyze index: %w", err)
	}
	return stats, nil
}

func (s *ReindexStats) skip(path string, err error) {
	s.Skipped = append(s.Skipped, FileError{Path: path, Err: err})
}

func fileMtime(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.ModTime().Unix()
}
