package model

// Record is a tracked item: one markdown file under records/ with typed
// front matter fields and a free-form body. Files are the source of truth;
// everything in the index is derived from them.
type Record struct {
	// ID uniquely identifies the record and is the file basename,
	// e.g. "REC-1A2B3C4D".
	ID string `json:"id"`

	// Template is the template id this record was created from, empty for
	// the global schema only.
	Template string `json:"template,omitempty"`

	// Fields holds typed field values in serialization order.
	Fields *FieldMap `json:"-"`

	// Body is the markdown content below the front matter.
	Body string `json:"body,omitempty"`

	// Path is the tracker-relative file path, set when loaded from disk.
	Path string `json:"path,omitempty"`
}

// NewRecord creates an empty record with the given id and template.
func NewRecord(id, template string) *Record {
	return &Record{ID: id, Template: template, Fields: NewFieldMap()}
}

// Title returns the rendered title field, or the record id when absent.
func (r *Record) Title() string {
	if v, ok := r.Fields.First("title"); ok && !v.IsEmpty() {
		return v.Render()
	}
	return r.ID
}

// Note is an immutable annotation on a record: one markdown file under
// notes/<record-id>/ with its own field namespace and body.
type Note struct {
	// ID uniquely identifies the note, e.g. "NT-9X8Y7Z".
	ID string `json:"id"`

	// Record is the owning record's id.
	Record string `json:"record"`

	// Fields holds note-scope typed field values.
	Fields *FieldMap `json:"-"`

	// Body is the note text.
	Body string `json:"body,omitempty"`

	// Path is the tracker-relative file path, set when loaded from disk.
	Path string `json:"path,omitempty"`
}

// NewNote creates an empty note owned by the given record.
func NewNote(id, recordID string) *Note {
	return &Note{ID: id, Record: recordID, Fields: NewFieldMap()}
}
