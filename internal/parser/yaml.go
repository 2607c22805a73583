package parser

import (
	"fmt"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aidanlsb/munin/internal/dates"
	"github.com/aidanlsb/munin/internal/model"
)

// mappingPairs decodes front matter YAML into ordered key/value-node pairs.
func mappingPairs(frontmatter, path string) ([]pair, error) {
	var root yaml.Node
	if err := yaml.Unmarshal([]byte(frontmatter), &root); err != nil {
		return nil, parseErrorf(path, "invalid front matter YAML: %v", err)
	}
	if len(root.Content) == 0 {
		return nil, nil
	}
	mapping := root.Content[0]
	if mapping.Kind != yaml.MappingNode {
		return nil, parseErrorf(path, "front matter must be a mapping")
	}

	pairs := make([]pair, 0, len(mapping.Content)/2)
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		pairs = append(pairs, pair{
			key:   mapping.Content[i].Value,
			value: mapping.Content[i+1],
		})
	}
	return pairs, nil
}

type pair struct {
	key   string
	value *yaml.Node
}

// scalarValues flattens a value node into raw scalars: a scalar yields one,
// a sequence yields each element. Nested collections are rejected.
func scalarValues(node *yaml.Node, path string) ([]any, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		raw, err := decodeScalar(node, path)
		if err != nil {
			return nil, err
		}
		return []any{raw}, nil
	case yaml.SequenceNode:
		out := make([]any, 0, len(node.Content))
		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode {
				return nil, parseErrorf(path, "nested collections are not supported in front matter")
			}
			raw, err := decodeScalar(item, path)
			if err != nil {
				return nil, err
			}
			out = append(out, raw)
		}
		return out, nil
	case yaml.AliasNode:
		return scalarValues(node.Alias, path)
	}
	return nil, parseErrorf(path, "unsupported front matter value")
}

func decodeScalar(node *yaml.Node, path string) (any, error) {
	var raw any
	if err := node.Decode(&raw); err != nil {
		return nil, parseErrorf(path, "invalid scalar: %v", err)
	}
	// YAML resolves unquoted dates and datetimes to time.Time. Render them
	// back to the canonical string forms so hand-written files match files
	// we write ourselves.
	if t, ok := raw.(time.Time); ok {
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
			return dates.FormatDatestamp(t), nil
		}
		return dates.FormatDatetime(t), nil
	}
	return raw, nil
}

// coerceValues types raw scalars, dropping YAML nulls.
func coerceValues(raws []any, kind model.Kind, field, path string) ([]model.Value, error) {
	out := make([]model.Value, 0, len(raws))
	for _, raw := range raws {
		if raw == nil {
			continue
		}
		v, err := model.Coerce(raw, kind)
		if err != nil {
			return nil, parseErrorf(path, "field %q: %v", field, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// scalarNode builds a YAML node with an explicit tag so typed values survive
// the round trip (a string "123" must not come back as an integer).
func scalarNode(v model.Value) *yaml.Node {
	n := &yaml.Node{Kind: yaml.ScalarNode}
	switch v.Kind() {
	case model.KindInteger:
		i, _ := v.AsInteger()
		n.Tag = "!!int"
		n.Value = strconv.FormatInt(i, 10)
	case model.KindFloat:
		f, _ := v.AsFloat()
		n.Tag = "!!float"
		n.Value = strconv.FormatFloat(f, 'g', -1, 64)
	default:
		s, _ := v.AsString()
		n.Tag = "!!str"
		n.Value = s
	}
	return n
}

func valueNode(vals []model.Value, multi bool) *yaml.Node {
	if !multi && len(vals) == 1 {
		return scalarNode(vals[0])
	}
	seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, v := range vals {
		seq.Content = append(seq.Content, scalarNode(v))
	}
	return seq
}

func keyNode(key string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}
}

// marshalMapping renders an ordered mapping node to front matter text.
func marshalMapping(mapping *yaml.Node) (string, error) {
	out, err := yaml.Marshal(mapping)
	if err != nil {
		return "", fmt.Errorf("failed to encode front matter: %w", err)
	}
	return string(out), nil
}
