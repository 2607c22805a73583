package schema

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/natefinch/atomic"
)

// ConfigFileName is the schema config file inside the .munin directory.
const ConfigFileName = "config.toml"

// Load reads and validates a tracker's schema config. A missing file yields
// the built-in default config, so a bare .munin directory still works.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a schema config from TOML and validates it.
func Parse(data []byte) (*Config, error) {
	var raw Config
	md, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&raw)
	if err != nil {
		return nil, fmt.Errorf("invalid TOML: %w", err)
	}

	if md.IsDefined("special_fields") {
		return nil, fmt.Errorf("legacy [special_fields] is no longer supported: split entries into [record_special_fields] and [note_special_fields]")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}

	cfg := restoreOrder(&raw, md)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// restoreOrder rebuilds declaration order from TOML metadata. Decoded maps
// lose it, and resolution order is part of the contract.
func restoreOrder(raw *Config, md toml.MetaData) *Config {
	cfg := NewConfig()
	cfg.IDPrefix = raw.IDPrefix

	seen := make(map[string]bool)
	for _, key := range md.Keys() {
		parts := []string(key)
		switch {
		case len(parts) >= 2 && parts[0] == "record_special_fields":
			name := parts[1]
			if spec, ok := raw.RecordFields[name]; ok && !seen["r/"+name] {
				seen["r/"+name] = true
				cfg.PutRecordField(name, spec)
			}
		case len(parts) >= 2 && parts[0] == "note_special_fields":
			name := parts[1]
			if spec, ok := raw.NoteFields[name]; ok && !seen["n/"+name] {
				seen["n/"+name] = true
				cfg.PutNoteField(name, spec)
			}
		case len(parts) >= 2 && parts[0] == "templates":
			id := parts[1]
			t, ok := raw.Templates[id]
			if !ok {
				continue
			}
			if !seen["t/"+id] {
				seen["t/"+id] = true
				ordered := NewTemplate()
				ordered.IDPrefix = t.IDPrefix
				ordered.BodyTemplate = t.BodyTemplate
				cfg.PutTemplate(id, ordered)
			}
			if len(parts) >= 4 {
				tmpl := cfg.Templates[id]
				name := parts[3]
				switch parts[2] {
				case "record_fields":
					if spec, ok := t.RecordFields[name]; ok && !seen["t/"+id+"/r/"+name] {
						seen["t/"+id+"/r/"+name] = true
						tmpl.PutRecordField(name, spec)
					}
				case "note_fields":
					if spec, ok := t.NoteFields[name]; ok && !seen["t/"+id+"/n/"+name] {
						seen["t/"+id+"/n/"+name] = true
						tmpl.PutNoteField(name, spec)
					}
				}
			}
		}
	}

	return cfg
}

// DefaultConfig returns the built-in schema: the fields every tracker gets
// before any configuration.
func DefaultConfig() *Config {
	cfg := NewConfig()
	no := false

	cfg.PutRecordField("title", &FieldSpec{Required: true})
	cfg.PutRecordField("status", &FieldSpec{
		AcceptedValues: []string{"open", "closed"},
		Default:        "open",
	})
	cfg.PutRecordField("created_at", &FieldSpec{SystemValue: SourceDatetime, Editable: &no})
	cfg.PutRecordField("created_by", &FieldSpec{SystemValue: SourceUserName, Editable: &no})
	cfg.PutRecordField("updated_at", &FieldSpec{SystemValue: SourceDatetime})
	cfg.PutRecordField("tags", &FieldSpec{Cardinality: CardinalityMulti})

	cfg.PutNoteField("created_at", &FieldSpec{SystemValue: SourceDatetime, Editable: &no})
	cfg.PutNoteField("created_by", &FieldSpec{SystemValue: SourceUserName, Editable: &no})

	return cfg
}

const defaultConfigTOML = `# Munin tracker configuration.
#
# Field attributes (all optional):
#   cardinality     = "single" | "multi"          (default "single")
#   value_type      = "string" | "integer" | "float"  (default "string")
#   required        = true | false                (default false)
#   editable        = true | false                (default true)
#   enabled         = true | false                (default true)
#   accepted_values = ["a", "b"]                  (default unconstrained)
#   system_value    = "datetime" | "datestamp" | "user_name" | "user_email"
#                     | "recordid" | "updateid" | "template_id"
#   default         = "literal or {{datestamp}}"  (creation only, empty fields only)

# id_prefix = "REC"

[record_special_fields.title]
required = true

[record_special_fields.status]
accepted_values = ["open", "closed"]
default = "open"

[record_special_fields.created_at]
system_value = "datetime"
editable = false

[record_special_fields.created_by]
system_value = "user_name"
editable = false

[record_special_fields.updated_at]
system_value = "datetime"

[record_special_fields.tags]
cardinality = "multi"

[note_special_fields.created_at]
system_value = "datetime"
editable = false

[note_special_fields.created_by]
system_value = "user_name"
editable = false

# Templates specialize the schema per record kind. A template field with the
# same name as a global field replaces it wholesale.
#
# [templates.bug]
# id_prefix = "BUG"
#
# [templates.bug.record_fields.status]
# accepted_values = ["new", "triaged", "fixed"]
# default = "new"
#
# [templates.bug.record_fields.severity]
# value_type = "integer"
`

// CreateDefault writes the commented default config if none exists. Returns
// true when a file was written.
func CreateDefault(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if err := atomic.WriteFile(path, strings.NewReader(defaultConfigTOML)); err != nil {
		return false, fmt.Errorf("failed to write default config: %w", err)
	}
	return true, nil
}
