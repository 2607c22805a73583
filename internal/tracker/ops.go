package tracker

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/aidanlsb/munin/internal/ids"
	"github.com/aidanlsb/munin/internal/index"
	"github.com/aidanlsb/munin/internal/model"
	"github.com/aidanlsb/munin/internal/parser"
	"github.com/aidanlsb/munin/internal/schema"
	"github.com/aidanlsb/munin/internal/template"
)

// ErrRecordExists is returned when a create would overwrite an existing
// record file.
var ErrRecordExists = errors.New("record already exists")

// WriteContext carries the ambient facts for one write operation: the index
// to keep in step, the acting identity, and the instant to stamp. Now is
// optional; zero means the wall clock.
type WriteContext struct {
	DB        *index.Database
	UserName  string
	UserEmail string
	Now       time.Time
}

func (wc *WriteContext) now() time.Time {
	if wc.Now.IsZero() {
		return time.Now()
	}
	return wc.Now
}

func (wc *WriteContext) inputs(recordID, noteID, templateID string) schema.DeriveInputs {
	return schema.DeriveInputs{
		Now:        wc.now(),
		UserName:   wc.UserName,
		UserEmail:  wc.UserEmail,
		RecordID:   recordID,
		NoteID:     noteID,
		TemplateID: templateID,
	}
}

// CreateRecordParams describes a record creation.
type CreateRecordParams struct {
	// Template selects the field context and id prefix. Empty uses the
	// global schema.
	Template string

	// ID is a user-supplied custom id. Empty generates one.
	ID string

	// Title fills the title field when the caller did not set it
	// explicitly.
	Title string

	// Fields holds the caller-supplied field values.
	Fields *model.FieldMap

	// Body is the record body. Empty falls back to the template's body
	// scaffold, if it declares one.
	Body string
}

// CreateRecord runs the full creation pipeline: id assignment, system
// values, defaults, validation, body scaffolding, file write, index
// write-through. On any failure nothing is written anywhere.
func (t *Tracker) CreateRecord(wc WriteContext, p CreateRecordParams) (*model.Record, error) {
	ctx, err := t.Config.Resolve(schema.ScopeRecord, p.Template)
	if err != nil {
		return nil, err
	}

	id := p.ID
	if id != "" {
		if err := ids.ValidateCustom(id); err != nil {
			return nil, err
		}
	} else {
		id = ids.NewGenerator().NewRecordID(t.Config.RecordIDPrefix(p.Template))
	}
	if t.RecordExists(id) {
		return nil, fmt.Errorf("%w: %s", ErrRecordExists, id)
	}

	record := model.NewRecord(id, p.Template)
	if p.Fields != nil {
		record.Fields = p.Fields.Clone()
	}
	if p.Title != "" && !record.Fields.Has("title") {
		record.Fields.Set("title", model.String(p.Title))
	}

	if err := schema.NewApplier(ctx).ApplyCreate(record.Fields, wc.inputs(id, "", p.Template)); err != nil {
		return nil, err
	}

	record.Body = p.Body
	if record.Body == "" {
		body, err := t.scaffoldBody(record, wc.now())
		if err != nil {
			return nil, err
		}
		record.Body = body
	}

	canonical, err := t.SaveRecord(record)
	if err != nil {
		return nil, err
	}
	if err := wc.DB.ReplaceRecord(canonical, fileMtime(t.RecordPath(id))); err != nil {
		return nil, fmt.Errorf("failed to index record %s: %w", id, err)
	}
	return canonical, nil
}

// UpdateRecordParams describes a record update. All parts are optional;
// an update with none of them still refreshes editable system fields.
type UpdateRecordParams struct {
	// Changes holds the targeted field values.
	Changes *model.FieldMap

	// Removals lists fields to clear.
	Removals []string

	// Body replaces the record body when non-nil.
	Body *string

	// SkipNote suppresses the generated change note.
	SkipNote bool
}

// UpdateRecord runs the update pipeline on an existing record and writes a
// note recording the previous values of every changed field. The returned
// note is nil when note-writing was skipped or nothing field-level changed.
func (t *Tracker) UpdateRecord(wc WriteContext, id string, p UpdateRecordParams) (*model.Record, *model.Note, error) {
	record, err := t.LoadRecord(id)
	if err != nil {
		return nil, nil, err
	}

	ctx, err := t.Config.Resolve(schema.ScopeRecord, record.Template)
	if err != nil {
		return nil, nil, err
	}

	changes := p.Changes
	if changes == nil {
		changes = model.NewFieldMap()
	}
	previous := changedFieldsBefore(record.Fields, changes, p.Removals)

	if err := schema.NewApplier(ctx).ApplyUpdate(record.Fields, changes, p.Removals, wc.inputs(id, "", record.Template)); err != nil {
		return nil, nil, err
	}
	if p.Body != nil {
		record.Body = *p.Body
	}

	canonical, err := t.SaveRecord(record)
	if err != nil {
		return nil, nil, err
	}
	if err := wc.DB.ReplaceRecord(canonical, fileMtime(t.RecordPath(id))); err != nil {
		return nil, nil, fmt.Errorf("failed to index record %s: %w", id, err)
	}

	if p.SkipNote || len(previous) == 0 {
		return canonical, nil, nil
	}
	note, err := t.AddNote(wc, id, AddNoteParams{Body: changeNoteBody(canonical.Fields, previous)})
	if err != nil {
		return nil, nil, fmt.Errorf("record updated but change note failed: %w", err)
	}
	return canonical, note, nil
}

// AddNoteParams describes a note creation.
type AddNoteParams struct {
	Fields *model.FieldMap
	Body   string
}

// AddNote creates a note on an existing record. Notes go through the same
// applier as records, against the note-scope context of the record's
// template.
func (t *Tracker) AddNote(wc WriteContext, recordID string, p AddNoteParams) (*model.Note, error) {
	record, err := t.LoadRecord(recordID)
	if err != nil {
		return nil, err
	}

	ctx, err := t.Config.Resolve(schema.ScopeNote, record.Template)
	if err != nil {
		return nil, err
	}

	note := model.NewNote(ids.NewGenerator().NewNoteID(), recordID)
	if p.Fields != nil {
		note.Fields = p.Fields.Clone()
	}
	note.Body = p.Body

	if err := schema.NewApplier(ctx).ApplyCreate(note.Fields, wc.inputs(recordID, note.ID, record.Template)); err != nil {
		return nil, err
	}

	canonical, err := t.SaveNote(note, record.Template)
	if err != nil {
		return nil, err
	}
	if err := wc.DB.ReplaceNote(canonical, fileMtime(t.NotePath(recordID, note.ID))); err != nil {
		return nil, fmt.Errorf("failed to index note %s: %w", note.ID, err)
	}
	return canonical, nil
}

// ImportRecordParams describes an import from an external markdown file.
type ImportRecordParams struct {
	Template string
	ID       string
}

// ImportResult is an imported record plus the field names whose incoming
// values were discarded because the schema owns them.
type ImportResult struct {
	Record  *model.Record
	Dropped []string
}

// ImportRecord brings an external markdown file under management. Front
// matter becomes field values, except that values for non-editable fields
// are discarded before the create pipeline runs: those are always derived
// under the importing identity, never inherited from the imported content.
// A missing title falls back to the file's first heading.
func (t *Tracker) ImportRecord(wc WriteContext, content []byte, p ImportRecordParams) (*ImportResult, error) {
	ctx, err := t.Config.Resolve(schema.ScopeRecord, p.Template)
	if err != nil {
		return nil, err
	}

	fields, body, err := parser.DecodeExternal(content, ctx)
	if err != nil {
		return nil, err
	}

	dropped := schema.NewApplier(ctx).SanitizeImport(fields)

	title := ""
	if !fields.Has("title") {
		title = firstHeading([]byte(body))
	}

	record, err := t.CreateRecord(wc, CreateRecordParams{
		Template: p.Template,
		ID:       p.ID,
		Title:    title,
		Fields:   fields,
		Body:     body,
	})
	if err != nil {
		return nil, err
	}
	return &ImportResult{Record: record, Dropped: dropped}, nil
}

// DeleteRecord removes a record's file, its note directory, and every index
// row belonging to it or its notes.
func (t *Tracker) DeleteRecord(wc WriteContext, id string) error {
	if err := t.DeleteRecordFiles(id); err != nil {
		return err
	}
	if err := wc.DB.DeleteRecord(id); err != nil {
		return fmt.Errorf("failed to remove record %s from index: %w", id, err)
	}
	return nil
}

// scaffoldBody renders the template's body scaffold for a new record.
func (t *Tracker) scaffoldBody(record *model.Record, now time.Time) (string, error) {
	if record.Template == "" {
		return "", nil
	}
	tmpl, ok := t.Config.Template(record.Template)
	if !ok || tmpl.BodyTemplate == "" {
		return "", nil
	}

	content, err := template.Load(t.TemplatePath(""), tmpl.BodyTemplate)
	if err != nil {
		return "", err
	}

	rendered := make(map[string]string, record.Fields.Len())
	for _, name := range record.Fields.Names() {
		if v, ok := record.Fields.First(name); ok {
			rendered[name] = v.Render()
		}
	}
	return template.Apply(content, template.NewVariables(record.Title(), record.Template, now, rendered)), nil
}

// changedFieldsBefore snapshots the prior state of every field an update
// targets, for the generated change note. Fields whose value is identical
// to the incoming change are not recorded.
func changedFieldsBefore(fields, changes *model.FieldMap, removals []string) map[string]string {
	previous := make(map[string]string)
	for _, name := range changes.Names() {
		newVals, _ := changes.Get(name)
		oldVals, had := fields.Get(name)
		if had && renderValues(oldVals) == renderValues(newVals) {
			continue
		}
		previous[name] = renderValues(oldVals)
	}
	for _, name := range removals {
		if vals, had := fields.Get(name); had {
			previous[name] = renderValues(vals)
		}
	}
	return previous
}

func renderValues(vals []model.Value) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = v.Render()
	}
	return strings.Join(parts, ", ")
}

// changeNoteBody renders the audit note for an update.
func changeNoteBody(after *model.FieldMap, previous map[string]string) string {
	var b strings.Builder
	b.WriteString("Fields changed:\n")
	for _, name := range after.Names() {
		old, changed := previous[name]
		if !changed {
			continue
		}
		vals, _ := after.Get(name)
		fmt.Fprintf(&b, "- %s: %s -> %s\n", name, orNone(old), orNone(renderValues(vals)))
	}
	// Removed fields no longer appear in the record; list them after.
	for name, old := range previous {
		if !after.Has(name) {
			fmt.Fprintf(&b, "- %s: %s -> (removed)\n", name, orNone(old))
		}
	}
	return b.String()
}

func orNone(s string) string {
	if s == "" {
		return "(empty)"
	}
	return s
}

// firstHeading extracts the text of the first markdown heading, used as the
// imported title when the front matter has none.
func firstHeading(body []byte) string {
	doc := goldmark.DefaultParser().Parse(text.NewReader(body))
	var title string
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if h, ok := n.(*ast.Heading); ok {
			var b strings.Builder
			for c := h.FirstChild(); c != nil; c = c.NextSibling() {
				if t, ok := c.(*ast.Text); ok {
					b.Write(t.Segment.Value(body))
				}
			}
			title = strings.TrimSpace(b.String())
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	return title
}

// ReadFileContent loads an external file for import, refusing anything that
// is not a regular readable file.
func ReadFileContent(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return bytes.ToValidUTF8(content, []byte("�")), nil
}
