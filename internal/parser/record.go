package parser

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/aidanlsb/munin/internal/model"
	"github.com/aidanlsb/munin/internal/schema"
)

// Reserved front matter keys. They are structural, not fields.
const (
	keyTemplate = "template"
	keyRecord   = "record"
)

// DecodeRecord parses a record file. The template named in the front matter
// selects the field context; an unknown template is a ParseError so a
// reindex sweep can skip the file instead of aborting.
func DecodeRecord(content []byte, id, path string, cfg *schema.Config) (*model.Record, error) {
	fm, body, err := splitDocument(string(content), path)
	if err != nil {
		return nil, err
	}
	pairs, err := mappingPairs(fm, path)
	if err != nil {
		return nil, err
	}

	templateID := ""
	for _, p := range pairs {
		if p.key == keyTemplate {
			if p.value.Kind != yaml.ScalarNode {
				return nil, parseErrorf(path, "template must be a scalar")
			}
			templateID = p.value.Value
		}
	}

	ctx, err := cfg.Resolve(schema.ScopeRecord, templateID)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	record := model.NewRecord(id, templateID)
	record.Path = path
	record.Body = body
	if err := decodeFieldPairs(pairs, ctx, record.Fields, path, keyTemplate); err != nil {
		return nil, err
	}
	return record, nil
}

// EncodeRecord renders a record to file content: template first, managed
// fields in resolution order, then custom fields with type hints.
func EncodeRecord(r *model.Record, cfg *schema.Config) ([]byte, error) {
	ctx, err := cfg.Resolve(schema.ScopeRecord, r.Template)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record %s: %w", r.ID, err)
	}

	mapping := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	if r.Template != "" {
		appendPair(mapping, keyTemplate, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: r.Template})
	}
	encodeFields(mapping, r.Fields, ctx)

	fm, err := marshalMapping(mapping)
	if err != nil {
		return nil, err
	}
	return []byte(joinDocument(fm, r.Body)), nil
}

// decodeFieldPairs types each front matter pair: managed fields by their
// spec, custom fields by their key hint.
func decodeFieldPairs(pairs []pair, ctx *schema.Context, fields *model.FieldMap, path string, reserved ...string) error {
	for _, p := range pairs {
		if isReserved(p.key, reserved) {
			continue
		}

		raws, err := scalarValues(p.value, path)
		if err != nil {
			return err
		}

		name := p.key
		kind := model.KindString
		if spec, ok := ctx.Lookup(p.key); ok {
			kind = spec.Kind()
		} else if clean, hintKind, hinted := model.SplitHintKey(p.key); hinted {
			name = clean
			kind = hintKind
			// A hinted key can still shadow a managed field; the spec owns
			// the type then.
			if spec, ok := ctx.Lookup(clean); ok && spec.IsEnabled() {
				kind = spec.Kind()
			}
		}

		vals, err := coerceValues(raws, kind, name, path)
		if err != nil {
			return err
		}
		if len(vals) > 0 {
			fields.Set(name, vals...)
		}
	}
	return nil
}

// encodeFields appends field pairs: enabled managed fields first in context
// order, then everything else (custom and disabled-spec data) with type
// hints, in field map order.
func encodeFields(mapping *yaml.Node, fields *model.FieldMap, ctx *schema.Context) {
	managed := make(map[string]bool)

	for _, spec := range ctx.Specs() {
		if !spec.IsEnabled() {
			continue
		}
		managed[spec.Name] = true
		vals, ok := fields.Get(spec.Name)
		if !ok || len(vals) == 0 || allEmptyStrings(vals) {
			continue
		}
		appendPair(mapping, spec.Name, valueNode(vals, spec.Multi()))
	}

	for _, name := range fields.Names() {
		if managed[name] {
			continue
		}
		vals, _ := fields.Get(name)
		if len(vals) == 0 {
			continue
		}
		key := model.HintKey(name, vals[0].Kind())
		appendPair(mapping, key, valueNode(vals, len(vals) > 1))
	}
}

func appendPair(mapping *yaml.Node, key string, value *yaml.Node) {
	mapping.Content = append(mapping.Content, keyNode(key), value)
}

func isReserved(key string, reserved []string) bool {
	for _, r := range reserved {
		if key == r {
			return true
		}
	}
	return false
}

func allEmptyStrings(vals []model.Value) bool {
	for _, v := range vals {
		if !v.IsEmpty() {
			return false
		}
	}
	return true
}
