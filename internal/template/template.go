// Package template renders body scaffolds for new records.
package template

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aidanlsb/munin/internal/dates"
)

// Variables holds the available scaffold variables for substitution.
type Variables struct {
	// Title is the record's title field, if any.
	Title string
	// Template is the template id the record is created from.
	Template string
	// Date is today's date (YYYY-MM-DD).
	Date string
	// Datetime is the current instant in the canonical datetime format.
	Datetime string
	// Fields are the record's field values, rendered.
	Fields map[string]string
}

// NewVariables builds the substitution set for a record created now.
func NewVariables(title, templateID string, now time.Time, fields map[string]string) *Variables {
	return &Variables{
		Title:    title,
		Template: templateID,
		Date:     dates.FormatDatestamp(now),
		Datetime: dates.FormatDatetime(now),
		Fields:   fields,
	}
}

// Load reads a scaffold file from the given templates directory.
// The name must be a plain file name; schema validation enforces that for
// configured body_template values, this guards direct callers.
func Load(dir, name string) (string, error) {
	if name == "" {
		return "", nil
	}
	if strings.Contains(name, "..") || strings.ContainsAny(name, "/\\\n\r") {
		return "", fmt.Errorf("template name %q must be a plain file name", name)
	}

	content, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("template file not found: %s", name)
		}
		return "", fmt.Errorf("failed to read template %s: %w", name, err)
	}
	return string(content), nil
}

// Apply substitutes {{name}} variables in the scaffold content. Unknown
// variables are left as-is. Escaped \{{name}} becomes literal {{name}}.
func Apply(content string, vars *Variables) string {
	if content == "" || vars == nil {
		return content
	}

	// Park escaped sequences so replacements cannot touch them.
	content = strings.ReplaceAll(content, "\\{{", "«MUNIN_ESC_OPEN»")
	content = strings.ReplaceAll(content, "\\}}", "«MUNIN_ESC_CLOSE»")

	replacements := map[string]string{
		"{{title}}":    vars.Title,
		"{{template}}": vars.Template,
		"{{date}}":     vars.Date,
		"{{datetime}}": vars.Datetime,
	}
	for placeholder, value := range replacements {
		content = strings.ReplaceAll(content, placeholder, value)
	}

	for fieldName, fieldValue := range vars.Fields {
		content = strings.ReplaceAll(content, "{{field."+fieldName+"}}", fieldValue)
	}

	content = strings.ReplaceAll(content, "«MUNIN_ESC_OPEN»", "{{")
	content = strings.ReplaceAll(content, "«MUNIN_ESC_CLOSE»", "}}")

	return content
}
