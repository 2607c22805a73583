package watcher

import (
	"testing"

	"github.com/aidanlsb/munin/internal/index"
	"github.com/aidanlsb/munin/internal/model"
	"github.com/aidanlsb/munin/internal/tracker"
)

func newTestWatcher(t *testing.T) (*Watcher, *tracker.Tracker, *index.Database) {
	t.Helper()

	tr, err := tracker.Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	db, err := index.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	w, err := New(Config{Tracker: tr, Database: db})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return w, tr, db
}

func TestClassify(t *testing.T) {
	w, tr, _ := newTestWatcher(t)

	tests := []struct {
		name       string
		path       string
		wantKind   fileKind
		wantRecord string
		wantNote   string
		wantOK     bool
	}{
		{
			name:       "record file",
			path:       tr.RecordPath("REC-1"),
			wantKind:   fileRecord,
			wantRecord: "REC-1",
			wantOK:     true,
		},
		{
			name:       "note file",
			path:       tr.NotePath("REC-1", "NT-2"),
			wantKind:   fileNote,
			wantRecord: "REC-1",
			wantNote:   "NT-2",
			wantOK:     true,
		},
		{
			name:   "non markdown",
			path:   tr.Root + "/records/notes.txt",
			wantOK: false,
		},
		{
			name:   "outside tracked dirs",
			path:   tr.Root + "/stray.md",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, recordID, noteID, ok := w.classify(tt.path)
			if ok != tt.wantOK {
				t.Fatalf("classify(%q) ok = %v, want %v", tt.path, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if kind != tt.wantKind || recordID != tt.wantRecord || noteID != tt.wantNote {
				t.Errorf("classify(%q) = %v, %q, %q", tt.path, kind, recordID, noteID)
			}
		})
	}
}

func TestUpdateFileIndexesRecord(t *testing.T) {
	w, tr, db := newTestWatcher(t)

	r := model.NewRecord("REC-1", "")
	r.Fields.Set("title", model.String("Watched"))
	if _, err := tr.SaveRecord(r); err != nil {
		t.Fatalf("SaveRecord: %v", err)
	}

	if err := w.UpdateFile(tr.RecordPath("REC-1")); err != nil {
		t.Fatalf("UpdateFile: %v", err)
	}

	got, err := db.GetRecord("REC-1")
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if v, ok := got.Fields.First("title"); !ok || v.Render() != "Watched" {
		t.Errorf("expected indexed title, got %v", got.Fields.Raw())
	}
}

func TestUpdateFileRefreshesNotesOfRecord(t *testing.T) {
	w, tr, db := newTestWatcher(t)

	r := model.NewRecord("REC-1", "")
	r.Fields.Set("title", model.String("Owner"))
	if _, err := tr.SaveRecord(r); err != nil {
		t.Fatalf("SaveRecord: %v", err)
	}
	n := model.NewNote("NT-1", "REC-1")
	n.Body = "note body"
	if _, err := tr.SaveNote(n, ""); err != nil {
		t.Fatalf("SaveNote: %v", err)
	}

	if err := w.UpdateFile(tr.RecordPath("REC-1")); err != nil {
		t.Fatalf("UpdateFile: %v", err)
	}

	notes, err := db.ListNotes("REC-1")
	if err != nil {
		t.Fatalf("ListNotes: %v", err)
	}
	if len(notes) != 1 || notes[0].ID != "NT-1" {
		t.Errorf("expected note indexed alongside record, got %v", notes)
	}
}

func TestRemoveFileDropsRows(t *testing.T) {
	w, tr, db := newTestWatcher(t)

	r := model.NewRecord("REC-1", "")
	r.Fields.Set("title", model.String("Doomed"))
	saved, err := tr.SaveRecord(r)
	if err != nil {
		t.Fatalf("SaveRecord: %v", err)
	}
	if err := db.ReplaceRecord(saved, 0); err != nil {
		t.Fatalf("ReplaceRecord: %v", err)
	}

	if err := w.RemoveFile(tr.RecordPath("REC-1")); err != nil {
		t.Fatalf("RemoveFile: %v", err)
	}
	if _, err := db.GetRecord("REC-1"); err == nil {
		t.Error("expected record gone from index")
	}
}

func TestUpdateFileIgnoresForeignPaths(t *testing.T) {
	w, tr, _ := newTestWatcher(t)

	if err := w.UpdateFile(tr.Root + "/README.md"); err != nil {
		t.Errorf("expected foreign path ignored, got %v", err)
	}
}
