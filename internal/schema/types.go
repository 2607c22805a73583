// Package schema defines field specifications, project configuration, and
// the resolution/application engine that every record and note write funnels
// through.
//
// Configuration declares two field scopes (record and note) plus templates
// that specialize them. Resolution produces an ordered field context;
// application enforces system values, defaults, editability, requiredness,
// and accepted values. The engine holds no hidden state: callers pass the
// resolved context and derivation inputs explicitly.
package schema

import (
	"github.com/aidanlsb/munin/internal/model"
)

// Scope selects which field namespace a context resolves: record fields or
// note fields.
type Scope string

const (
	ScopeRecord Scope = "record"
	ScopeNote   Scope = "note"
)

// Cardinality values for FieldSpec.
const (
	CardinalitySingle = "single"
	CardinalityMulti  = "multi"
)

// FieldSpec declares one schema-managed field.
type FieldSpec struct {
	// Name is the field name, filled from the config map key.
	Name string `toml:"-" json:"name"`

	// Cardinality is "single" or "multi". Empty means single.
	Cardinality string `toml:"cardinality" json:"cardinality,omitempty"`

	// ValueType is "string", "integer", or "float". Empty means string.
	ValueType string `toml:"value_type" json:"value_type,omitempty"`

	// Editable controls whether updates may target this field. Nil means true.
	Editable *bool `toml:"editable" json:"editable,omitempty"`

	// Enabled turns the spec off without deleting it: disabled fields bypass
	// the engine entirely and pass through as opaque custom data. Nil means
	// true.
	Enabled *bool `toml:"enabled" json:"enabled,omitempty"`

	// Required fields must hold at least one non-empty scalar after
	// application.
	Required bool `toml:"required" json:"required,omitempty"`

	// AcceptedValues constrains the string rendering of every scalar.
	// Empty means unconstrained.
	AcceptedValues []string `toml:"accepted_values" json:"accepted_values,omitempty"`

	// SystemValue names a deriver source. Non-empty means the engine owns
	// this field's value.
	SystemValue string `toml:"system_value" json:"system_value,omitempty"`

	// Default is a literal or a symbolic "{{source}}" template, applied only
	// at creation time and only when the field has no value.
	Default string `toml:"default" json:"default,omitempty"`
}

// IsEditable reports the effective editable flag (default true).
func (f *FieldSpec) IsEditable() bool {
	return f.Editable == nil || *f.Editable
}

// IsEnabled reports the effective enabled flag (default true).
func (f *FieldSpec) IsEnabled() bool {
	return f.Enabled == nil || *f.Enabled
}

// Multi reports whether the field holds more than one scalar.
func (f *FieldSpec) Multi() bool {
	return f.Cardinality == CardinalityMulti
}

// Kind returns the scalar kind for this field (default string).
func (f *FieldSpec) Kind() model.Kind {
	if f.ValueType == "" {
		return model.KindString
	}
	return model.Kind(f.ValueType)
}

// Template specializes the global schema for one record kind: an id prefix,
// an optional body scaffold, and per-scope field overrides. A template field
// whose name matches a global field replaces it wholesale.
type Template struct {
	// ID is the template id, filled from the config map key.
	ID string `toml:"-" json:"id"`

	// IDPrefix overrides the record id prefix for this template.
	IDPrefix string `toml:"id_prefix" json:"id_prefix,omitempty"`

	// BodyTemplate names a scaffold file under .munin/templates/.
	BodyTemplate string `toml:"body_template" json:"body_template,omitempty"`

	RecordFields map[string]*FieldSpec `toml:"record_fields" json:"record_fields,omitempty"`
	NoteFields   map[string]*FieldSpec `toml:"note_fields" json:"note_fields,omitempty"`

	// Declaration order of the field maps, reconstructed at load time.
	RecordOrder []string `toml:"-" json:"-"`
	NoteOrder   []string `toml:"-" json:"-"`
}

// Config is a tracker's schema configuration (.munin/config.toml).
type Config struct {
	// IDPrefix is the default record id prefix (REC when empty).
	IDPrefix string `toml:"id_prefix"`

	RecordFields map[string]*FieldSpec `toml:"record_special_fields"`
	NoteFields   map[string]*FieldSpec `toml:"note_special_fields"`
	Templates    map[string]*Template  `toml:"templates"`

	// Declaration order, reconstructed at load time. Resolution depends on
	// it; TOML maps alone would lose it.
	RecordOrder   []string `toml:"-"`
	NoteOrder     []string `toml:"-"`
	TemplateOrder []string `toml:"-"`
}

// NewConfig returns an empty config with initialized maps.
func NewConfig() *Config {
	return &Config{
		RecordFields: make(map[string]*FieldSpec),
		NoteFields:   make(map[string]*FieldSpec),
		Templates:    make(map[string]*Template),
	}
}

// PutRecordField adds or replaces a record-scope field, preserving first
// declaration position.
func (c *Config) PutRecordField(name string, spec *FieldSpec) {
	spec.Name = name
	if _, ok := c.RecordFields[name]; !ok {
		c.RecordOrder = append(c.RecordOrder, name)
	}
	c.RecordFields[name] = spec
}

// PutNoteField adds or replaces a note-scope field.
func (c *Config) PutNoteField(name string, spec *FieldSpec) {
	spec.Name = name
	if _, ok := c.NoteFields[name]; !ok {
		c.NoteOrder = append(c.NoteOrder, name)
	}
	c.NoteFields[name] = spec
}

// PutTemplate adds or replaces a template.
func (c *Config) PutTemplate(id string, t *Template) {
	t.ID = id
	if t.RecordFields == nil {
		t.RecordFields = make(map[string]*FieldSpec)
	}
	if t.NoteFields == nil {
		t.NoteFields = make(map[string]*FieldSpec)
	}
	if _, ok := c.Templates[id]; !ok {
		c.TemplateOrder = append(c.TemplateOrder, id)
	}
	c.Templates[id] = t
}

// NewTemplate returns an empty template with initialized maps.
func NewTemplate() *Template {
	return &Template{
		RecordFields: make(map[string]*FieldSpec),
		NoteFields:   make(map[string]*FieldSpec),
	}
}

// PutRecordField adds or replaces a record-scope override on the template.
func (t *Template) PutRecordField(name string, spec *FieldSpec) {
	spec.Name = name
	if _, ok := t.RecordFields[name]; !ok {
		t.RecordOrder = append(t.RecordOrder, name)
	}
	t.RecordFields[name] = spec
}

// PutNoteField adds or replaces a note-scope override on the template.
func (t *Template) PutNoteField(name string, spec *FieldSpec) {
	spec.Name = name
	if _, ok := t.NoteFields[name]; !ok {
		t.NoteOrder = append(t.NoteOrder, name)
	}
	t.NoteFields[name] = spec
}

// Template returns the template with the given id.
func (c *Config) Template(id string) (*Template, bool) {
	t, ok := c.Templates[id]
	return t, ok
}

// RecordIDPrefix returns the id prefix for records of the given template:
// the template's own prefix, then the config default, then "REC".
func (c *Config) RecordIDPrefix(templateID string) string {
	if templateID != "" {
		if t, ok := c.Templates[templateID]; ok && t.IDPrefix != "" {
			return t.IDPrefix
		}
	}
	if c.IDPrefix != "" {
		return c.IDPrefix
	}
	return "REC"
}
