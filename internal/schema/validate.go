package schema

import (
	"fmt"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/aidanlsb/munin/internal/model"
)

var (
	fieldNameRegex  = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
	templateIDRegex = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)
	idPrefixRegex   = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]{0,7}$`)
)

// Validate checks the whole config at load time so schema mistakes surface
// once, up front, instead of failing individual writes later.
func (c *Config) Validate() error {
	if c.IDPrefix != "" && !idPrefixRegex.MatchString(c.IDPrefix) {
		return fmt.Errorf("id_prefix %q: must be 1-8 alphanumeric characters starting with a letter", c.IDPrefix)
	}

	for _, name := range c.RecordOrder {
		if err := validateFieldSpec(name, c.RecordFields[name], ScopeRecord); err != nil {
			return fmt.Errorf("record_special_fields.%s: %w", name, err)
		}
	}
	for _, name := range c.NoteOrder {
		if err := validateFieldSpec(name, c.NoteFields[name], ScopeNote); err != nil {
			return fmt.Errorf("note_special_fields.%s: %w", name, err)
		}
	}

	for _, id := range c.TemplateOrder {
		t := c.Templates[id]
		if !templateIDRegex.MatchString(id) {
			return fmt.Errorf("templates.%s: invalid template id", id)
		}
		if t.IDPrefix != "" && !idPrefixRegex.MatchString(t.IDPrefix) {
			return fmt.Errorf("templates.%s: id_prefix %q: must be 1-8 alphanumeric characters starting with a letter", id, t.IDPrefix)
		}
		if t.BodyTemplate != "" {
			if strings.Contains(t.BodyTemplate, "..") || strings.HasPrefix(t.BodyTemplate, "/") {
				return fmt.Errorf("templates.%s: body_template must be a plain file name under .munin/templates", id)
			}
		}
		for _, name := range t.RecordOrder {
			if err := validateFieldSpec(name, t.RecordFields[name], ScopeRecord); err != nil {
				return fmt.Errorf("templates.%s.record_fields.%s: %w", id, name, err)
			}
		}
		for _, name := range t.NoteOrder {
			if err := validateFieldSpec(name, t.NoteFields[name], ScopeNote); err != nil {
				return fmt.Errorf("templates.%s.note_fields.%s: %w", id, name, err)
			}
		}
	}

	return nil
}

func validateFieldSpec(name string, spec *FieldSpec, scope Scope) error {
	if !fieldNameRegex.MatchString(name) {
		return fmt.Errorf("invalid field name: must match %s", fieldNameRegex)
	}
	if strings.Contains(name, model.TypeHintSeparator) {
		return fmt.Errorf("field name cannot contain %q (reserved for type hints)", model.TypeHintSeparator)
	}
	if name == "template" || name == "record" {
		return fmt.Errorf("field name %q is reserved", name)
	}

	err := validation.ValidateStruct(spec,
		validation.Field(&spec.Cardinality,
			validation.In(CardinalitySingle, CardinalityMulti)),
		validation.Field(&spec.ValueType,
			validation.In(string(model.KindString), string(model.KindInteger), string(model.KindFloat))),
		validation.Field(&spec.SystemValue,
			validation.By(validSystemValue)),
	)
	if err != nil {
		return err
	}

	if spec.SystemValue != "" {
		if spec.Multi() {
			return fmt.Errorf("system_value fields must be single-valued")
		}
		if spec.Default != "" {
			return fmt.Errorf("system_value and default are mutually exclusive (the system value always wins)")
		}
		if spec.SystemValue == SourceUpdateID && scope == ScopeRecord {
			return fmt.Errorf("system_value %q is only valid for note fields", SourceUpdateID)
		}
	}

	for _, source := range DefaultSources(spec.Default) {
		if !ValidSource(source) {
			return fmt.Errorf("default references unknown source %q", source)
		}
	}

	for _, av := range spec.AcceptedValues {
		if _, err := model.Coerce(av, spec.Kind()); err != nil {
			return fmt.Errorf("accepted value %q does not fit type %s", av, spec.Kind())
		}
	}

	return nil
}

func validSystemValue(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if !ValidSource(s) {
		return fmt.Errorf("unknown system value source %q", s)
	}
	return nil
}
