package schema

import (
	"fmt"
	"regexp"
	"time"

	"github.com/aidanlsb/munin/internal/dates"
)

// Deriver source names, usable as system_value and inside "{{source}}"
// defaults. "updateid" keeps its historical name on the config surface even
// though updates are called notes everywhere else.
const (
	SourceDatetime   = "datetime"
	SourceDatestamp  = "datestamp"
	SourceUserName   = "user_name"
	SourceUserEmail  = "user_email"
	SourceRecordID   = "recordid"
	SourceUpdateID   = "updateid"
	SourceTemplateID = "template_id"
)

// ValidSource reports whether s names a deriver source.
func ValidSource(s string) bool {
	switch s {
	case SourceDatetime, SourceDatestamp, SourceUserName, SourceUserEmail,
		SourceRecordID, SourceUpdateID, SourceTemplateID:
		return true
	}
	return false
}

// DeriveInputs carries the ambient facts system values derive from. Callers
// build one per write; the engine never reaches for clocks or identity on
// its own.
type DeriveInputs struct {
	Now        time.Time
	UserName   string
	UserEmail  string
	RecordID   string
	NoteID     string
	TemplateID string
}

// Derive computes the value for a system source. Unknown sources are a
// config bug caught at load time; hitting one here is still an error, not a
// panic.
func Derive(source string, in DeriveInputs) (string, error) {
	switch source {
	case SourceDatetime:
		return dates.FormatDatetime(in.Now), nil
	case SourceDatestamp:
		return dates.FormatDatestamp(in.Now), nil
	case SourceUserName:
		return in.UserName, nil
	case SourceUserEmail:
		return in.UserEmail, nil
	case SourceRecordID:
		return in.RecordID, nil
	case SourceUpdateID:
		return in.NoteID, nil
	case SourceTemplateID:
		return in.TemplateID, nil
	}
	return "", fmt.Errorf("unknown system value source %q", source)
}

var defaultVarRegex = regexp.MustCompile(`\{\{(\w+)\}\}`)

// ResolveDefault resolves a default declaration. "{{source}}" placeholders
// derive through the same source table; everything else passes through as a
// literal. "due {{datestamp}}" mixes both.
func ResolveDefault(def string, in DeriveInputs) (string, error) {
	var derr error
	out := defaultVarRegex.ReplaceAllStringFunc(def, func(m string) string {
		source := defaultVarRegex.FindStringSubmatch(m)[1]
		v, err := Derive(source, in)
		if err != nil {
			derr = err
			return m
		}
		return v
	})
	if derr != nil {
		return "", derr
	}
	return out, nil
}

// DefaultSources returns the source names referenced by a default
// declaration, for config validation.
func DefaultSources(def string) []string {
	matches := defaultVarRegex.FindAllStringSubmatch(def, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}
