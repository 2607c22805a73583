package parser

import (
	"strings"

	"github.com/aidanlsb/munin/internal/model"
	"github.com/aidanlsb/munin/internal/schema"
)

// DecodeExternal parses a markdown file that was not written by this tool,
// for import. Front matter is optional: a file without the opening "---" is
// all body. Field typing works as for records (managed fields by their
// spec, hinted custom keys by their hint), but reserved keys are dropped
// rather than trusted — the importer assigns ids and templates itself.
func DecodeExternal(content []byte, ctx *schema.Context) (*model.FieldMap, string, error) {
	text := string(content)
	fields := model.NewFieldMap()

	if !strings.HasPrefix(strings.TrimLeft(text, "\n"), delimiter) {
		return fields, strings.TrimSpace(text), nil
	}

	fm, body, err := splitDocument(strings.TrimLeft(text, "\n"), "")
	if err != nil {
		return nil, "", err
	}
	pairs, err := mappingPairs(fm, "")
	if err != nil {
		return nil, "", err
	}
	if err := decodeFieldPairs(pairs, ctx, fields, "", keyTemplate, keyRecord); err != nil {
		return nil, "", err
	}
	return fields, body, nil
}
