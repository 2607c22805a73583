package tracker

import (
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/aidanlsb/munin/internal/index"
	"github.com/aidanlsb/munin/internal/model"
	"github.com/aidanlsb/munin/internal/schema"
)

func opsFixture(t *testing.T) (*Tracker, *index.Database, WriteContext) {
	t.Helper()
	tr := initTracker(t)
	db, err := index.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	wc := WriteContext{
		DB:        db,
		UserName:  "ada",
		UserEmail: "ada@example.com",
		Now:       time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
	}
	return tr, db, wc
}

func TestCreateRecordPipeline(t *testing.T) {
	tr, db, wc := opsFixture(t)

	record, err := tr.CreateRecord(wc, CreateRecordParams{Title: "Fix login timeout"})
	if err != nil {
		t.Fatalf("CreateRecord: %v", err)
	}

	if !strings.HasPrefix(record.ID, "REC-") {
		t.Errorf("expected generated id with REC- prefix, got %s", record.ID)
	}
	if got, _ := record.Fields.First("status"); got.Render() != "open" {
		t.Errorf("expected default status open, got %q", got.Render())
	}
	if got, _ := record.Fields.First("created_by"); got.Render() != "ada" {
		t.Errorf("expected created_by ada, got %q", got.Render())
	}
	if !record.Fields.Has("created_at") {
		t.Error("expected derived created_at")
	}

	// Write-through: the index sees the record immediately.
	indexed, err := db.GetRecord(record.ID)
	if err != nil {
		t.Fatalf("GetRecord after create: %v", err)
	}
	if got, _ := indexed.Fields.First("title"); got.Render() != "Fix login timeout" {
		t.Errorf("indexed title = %q", got.Render())
	}
}

func TestCreateRecordBodyScaffold(t *testing.T) {
	tr, _, wc := opsFixture(t)

	bug := schema.NewTemplate()
	bug.IDPrefix = "BUG"
	bug.BodyTemplate = "bug.md"
	bug.PutRecordField("severity", &schema.FieldSpec{ValueType: "integer"})
	tr.Config.PutTemplate("bug", bug)

	scaffold := "# {{title}}\n\nSeverity: {{field.severity}}\nOpened: {{date}}\n"
	if err := os.WriteFile(tr.TemplatePath("bug.md"), []byte(scaffold), 0o644); err != nil {
		t.Fatalf("write scaffold: %v", err)
	}

	fields := model.NewFieldMap()
	fields.Set("severity", model.Integer(2))
	record, err := tr.CreateRecord(wc, CreateRecordParams{
		Template: "bug",
		Title:    "Crash on save",
		Fields:   fields,
	})
	if err != nil {
		t.Fatalf("CreateRecord: %v", err)
	}

	if !strings.Contains(record.Body, "# Crash on save") {
		t.Errorf("title not substituted: %q", record.Body)
	}
	if !strings.Contains(record.Body, "Severity: 2") {
		t.Errorf("field value not substituted: %q", record.Body)
	}
	if !strings.Contains(record.Body, "Opened: 2026-03-14") {
		t.Errorf("date not substituted: %q", record.Body)
	}
}

func TestCreateRecordValidationWritesNothing(t *testing.T) {
	tr, db, wc := opsFixture(t)

	fields := model.NewFieldMap()
	fields.Set("status", model.String("bogus"))
	fields.Set("title", model.String("Bad status"))

	_, err := tr.CreateRecord(wc, CreateRecordParams{Fields: fields})
	var verrs schema.ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected validation errors, got %v", err)
	}

	ids, err := db.RecordIDs()
	if err != nil {
		t.Fatalf("RecordIDs: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("expected empty index after failed create, got %v", ids)
	}
	files, err := tr.RecordFiles()
	if err != nil {
		t.Fatalf("RecordFiles: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("expected no record files after failed create, got %v", files)
	}
}

func TestCreateRecordCustomIDCollision(t *testing.T) {
	tr, _, wc := opsFixture(t)

	if _, err := tr.CreateRecord(wc, CreateRecordParams{ID: "REC-login", Title: "First"}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := tr.CreateRecord(wc, CreateRecordParams{ID: "REC-login", Title: "Second"})
	if !errors.Is(err, ErrRecordExists) {
		t.Errorf("expected ErrRecordExists, got %v", err)
	}
}

func TestUpdateRecordWritesChangeNote(t *testing.T) {
	tr, _, wc := opsFixture(t)

	record, err := tr.CreateRecord(wc, CreateRecordParams{Title: "Track me"})
	if err != nil {
		t.Fatalf("CreateRecord: %v", err)
	}

	changes := model.NewFieldMap()
	changes.Set("status", model.String("closed"))
	updated, note, err := tr.UpdateRecord(wc, record.ID, UpdateRecordParams{Changes: changes})
	if err != nil {
		t.Fatalf("UpdateRecord: %v", err)
	}

	if got, _ := updated.Fields.First("status"); got.Render() != "closed" {
		t.Errorf("status after update = %q", got.Render())
	}
	if note == nil {
		t.Fatal("expected a change note")
	}
	if !strings.Contains(note.Body, "status: open -> closed") {
		t.Errorf("change note body missing transition, got:\n%s", note.Body)
	}

	// The note is a real note file on the record.
	if _, err := tr.LoadNote(record.ID, note.ID); err != nil {
		t.Errorf("LoadNote change note: %v", err)
	}
}

func TestUpdateRecordSkipNote(t *testing.T) {
	tr, _, wc := opsFixture(t)

	record, err := tr.CreateRecord(wc, CreateRecordParams{Title: "Quiet"})
	if err != nil {
		t.Fatalf("CreateRecord: %v", err)
	}

	changes := model.NewFieldMap()
	changes.Set("status", model.String("closed"))
	_, note, err := tr.UpdateRecord(wc, record.ID, UpdateRecordParams{Changes: changes, SkipNote: true})
	if err != nil {
		t.Fatalf("UpdateRecord: %v", err)
	}
	if note != nil {
		t.Errorf("expected no change note, got %s", note.ID)
	}
}

func TestUpdateRecordNoopChangeWritesNoNote(t *testing.T) {
	tr, _, wc := opsFixture(t)

	record, err := tr.CreateRecord(wc, CreateRecordParams{Title: "Same"})
	if err != nil {
		t.Fatalf("CreateRecord: %v", err)
	}

	changes := model.NewFieldMap()
	changes.Set("status", model.String("open")) // already open
	_, note, err := tr.UpdateRecord(wc, record.ID, UpdateRecordParams{Changes: changes})
	if err != nil {
		t.Fatalf("UpdateRecord: %v", err)
	}
	if note != nil {
		t.Errorf("expected no note for a no-op change, got body:\n%s", note.Body)
	}
}

func TestUpdateRecordNonEditableFailsWhole(t *testing.T) {
	tr, _, wc := opsFixture(t)

	record, err := tr.CreateRecord(wc, CreateRecordParams{Title: "Locked"})
	if err != nil {
		t.Fatalf("CreateRecord: %v", err)
	}

	changes := model.NewFieldMap()
	changes.Set("status", model.String("closed"))
	changes.Set("created_by", model.String("mallory"))
	_, _, err = tr.UpdateRecord(wc, record.ID, UpdateRecordParams{Changes: changes})
	var eerr *schema.EditabilityError
	if !errors.As(err, &eerr) {
		t.Fatalf("expected editability error, got %v", err)
	}

	// The whole update failed: status is untouched on disk.
	reloaded, err := tr.LoadRecord(record.ID)
	if err != nil {
		t.Fatalf("LoadRecord: %v", err)
	}
	if got, _ := reloaded.Fields.First("status"); got.Render() != "open" {
		t.Errorf("expected status still open after rejected update, got %q", got.Render())
	}
}

func TestUpdateRecordBodyOnly(t *testing.T) {
	tr, _, wc := opsFixture(t)

	record, err := tr.CreateRecord(wc, CreateRecordParams{Title: "Body swap", Body: "old body"})
	if err != nil {
		t.Fatalf("CreateRecord: %v", err)
	}

	body := "new body"
	updated, note, err := tr.UpdateRecord(wc, record.ID, UpdateRecordParams{Body: &body})
	if err != nil {
		t.Fatalf("UpdateRecord: %v", err)
	}
	if updated.Body != "new body" {
		t.Errorf("body = %q", updated.Body)
	}
	if note != nil {
		t.Error("body-only update should not write a field change note")
	}
}

func TestAddNoteDerivesSystemFields(t *testing.T) {
	tr, db, wc := opsFixture(t)

	record, err := tr.CreateRecord(wc, CreateRecordParams{Title: "Noted"})
	if err != nil {
		t.Fatalf("CreateRecord: %v", err)
	}

	note, err := tr.AddNote(wc, record.ID, AddNoteParams{Body: "Reproduced on staging."})
	if err != nil {
		t.Fatalf("AddNote: %v", err)
	}
	if !strings.HasPrefix(note.ID, "NT-") {
		t.Errorf("expected NT- prefix, got %s", note.ID)
	}
	if got, _ := note.Fields.First("created_by"); got.Render() != "ada" {
		t.Errorf("note created_by = %q", got.Render())
	}

	notes, err := db.ListNotes(record.ID)
	if err != nil {
		t.Fatalf("ListNotes: %v", err)
	}
	if len(notes) != 1 {
		t.Fatalf("expected 1 indexed note, got %d", len(notes))
	}
}

func TestAddNoteMissingRecord(t *testing.T) {
	tr, _, wc := opsFixture(t)

	_, err := tr.AddNote(wc, "REC-nothere", AddNoteParams{Body: "orphan"})
	var nerr *NotFoundError
	if !errors.As(err, &nerr) || nerr.Kind != "record" {
		t.Errorf("expected record not-found, got %v", err)
	}
}

func TestImportRecordDiscardsNonEditableValues(t *testing.T) {
	tr, _, wc := opsFixture(t)

	content := []byte(`---
title: Imported doc
created_by: someone-else
status: closed
---

Body text here.
`)

	result, err := tr.ImportRecord(wc, content, ImportRecordParams{})
	if err != nil {
		t.Fatalf("ImportRecord: %v", err)
	}

	if len(result.Dropped) != 1 || result.Dropped[0] != "created_by" {
		t.Errorf("dropped = %v, want [created_by]", result.Dropped)
	}
	if got, _ := result.Record.Fields.First("created_by"); got.Render() != "ada" {
		t.Errorf("created_by = %q, want importing identity", got.Render())
	}
	if got, _ := result.Record.Fields.First("status"); got.Render() != "closed" {
		t.Errorf("editable incoming status should survive, got %q", got.Render())
	}
}

func TestImportRecordTitleFromHeading(t *testing.T) {
	tr, _, wc := opsFixture(t)

	content := []byte("# Meeting notes\n\nSome body.\n")
	result, err := tr.ImportRecord(wc, content, ImportRecordParams{})
	if err != nil {
		t.Fatalf("ImportRecord: %v", err)
	}
	if got := result.Record.Title(); got != "Meeting notes" {
		t.Errorf("title = %q", got)
	}
}

func TestDeleteRecordRemovesFilesAndIndexRows(t *testing.T) {
	tr, db, wc := opsFixture(t)

	record, err := tr.CreateRecord(wc, CreateRecordParams{Title: "Doomed"})
	if err != nil {
		t.Fatalf("CreateRecord: %v", err)
	}
	note, err := tr.AddNote(wc, record.ID, AddNoteParams{Body: "so it goes"})
	if err != nil {
		t.Fatalf("AddNote: %v", err)
	}

	if err := tr.DeleteRecord(wc, record.ID); err != nil {
		t.Fatalf("DeleteRecord: %v", err)
	}

	if tr.RecordExists(record.ID) {
		t.Error("record file still exists")
	}
	if _, err := db.GetRecord(record.ID); !errors.Is(err, index.ErrRecordNotFound) {
		t.Errorf("expected record gone from index, got %v", err)
	}
	if _, err := db.GetNote(note.ID); !errors.Is(err, index.ErrNoteNotFound) {
		t.Errorf("expected note gone from index, got %v", err)
	}
}
