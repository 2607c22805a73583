package parser

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/aidanlsb/munin/internal/model"
	"github.com/aidanlsb/munin/internal/schema"
)

// DecodeNote parses a note file. The record named in the front matter must
// match the owning record id (notes live under notes/<record-id>/, so a
// mismatch means the file was moved or hand-edited wrong). The template id
// comes from the caller because it lives on the record, not the note.
func DecodeNote(content []byte, id, path, recordID, templateID string, cfg *schema.Config) (*model.Note, error) {
	fm, body, err := splitDocument(string(content), path)
	if err != nil {
		return nil, err
	}
	pairs, err := mappingPairs(fm, path)
	if err != nil {
		return nil, err
	}

	declared := ""
	for _, p := range pairs {
		if p.key == keyRecord {
			if p.value.Kind != yaml.ScalarNode {
				return nil, parseErrorf(path, "record must be a scalar")
			}
			declared = p.value.Value
		}
	}
	if declared == "" {
		return nil, parseErrorf(path, "note is missing its record key")
	}
	if recordID != "" && declared != recordID {
		return nil, parseErrorf(path, "note declares record %s but belongs to %s", declared, recordID)
	}

	ctx, err := cfg.Resolve(schema.ScopeNote, templateID)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	note := model.NewNote(id, declared)
	note.Path = path
	note.Body = body
	if err := decodeFieldPairs(pairs, ctx, note.Fields, path, keyRecord); err != nil {
		return nil, err
	}
	return note, nil
}

// EncodeNote renders a note to file content: the owning record first, then
// fields as for records.
func EncodeNote(n *model.Note, templateID string, cfg *schema.Config) ([]byte, error) {
	ctx, err := cfg.Resolve(schema.ScopeNote, templateID)
	if err != nil {
		return nil, fmt.Errorf("failed to encode note %s: %w", n.ID, err)
	}

	mapping := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	appendPair(mapping, keyRecord, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: n.Record})
	encodeFields(mapping, n.Fields, ctx)

	fm, err := marshalMapping(mapping)
	if err != nil {
		return nil, err
	}
	return []byte(joinDocument(fm, n.Body)), nil
}
