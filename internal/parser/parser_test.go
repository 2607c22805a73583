package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/aidanlsb/munin/internal/model"
	"github.com/aidanlsb/munin/internal/schema"
)

func testConfig() *schema.Config {
	no := false
	cfg := schema.NewConfig()
	cfg.PutRecordField("title", &schema.FieldSpec{Required: true})
	cfg.PutRecordField("status", &schema.FieldSpec{
		AcceptedValues: []string{"open", "closed"},
		Default:        "open",
	})
	cfg.PutRecordField("severity", &schema.FieldSpec{ValueType: "integer"})
	cfg.PutRecordField("tags", &schema.FieldSpec{Cardinality: "multi"})
	cfg.PutNoteField("created_at", &schema.FieldSpec{
		SystemValue: "datetime",
		Editable:    &no,
	})
	cfg.PutNoteField("author", &schema.FieldSpec{})

	tpl := schema.NewTemplate()
	tpl.PutRecordField("effort", &schema.FieldSpec{ValueType: "float"})
	cfg.PutTemplate("task", tpl)
	return cfg
}

func TestDecodeRecord(t *testing.T) {
	cfg := testConfig()

	content := `---
template: task
title: Fix the gate
status: open
severity: 3
tags:
  - urgent
  - infra
effort: 1.5
confidence__float: 0.8
context: northern wall
---

The gate sticks in winter.
`
	r, err := DecodeRecord([]byte(content), "REC-1", "records/REC-1.md", cfg)
	if err != nil {
		t.Fatalf("DecodeRecord failed: %v", err)
	}

	if r.ID != "REC-1" {
		t.Errorf("expected id REC-1, got %s", r.ID)
	}
	if r.Template != "task" {
		t.Errorf("expected template task, got %s", r.Template)
	}
	if r.Body != "The gate sticks in winter." {
		t.Errorf("unexpected body: %q", r.Body)
	}

	if v, ok := r.Fields.First("severity"); !ok || v.Kind() != model.KindInteger {
		t.Errorf("expected severity to decode as integer, got %+v", v)
	}
	if v, ok := r.Fields.First("effort"); !ok || v.Kind() != model.KindFloat {
		t.Errorf("expected effort to decode as float, got %+v", v)
	}
	if v, ok := r.Fields.First("confidence"); !ok || v.Kind() != model.KindFloat {
		t.Errorf("expected hinted confidence as float, got %+v", v)
	}
	if v, ok := r.Fields.First("context"); !ok || v.Kind() != model.KindString {
		t.Errorf("expected unhinted custom field as string, got %+v", v)
	}
	if tags, ok := r.Fields.Get("tags"); !ok || len(tags) != 2 {
		t.Errorf("expected 2 tags, got %v", tags)
	}
}

func TestDecodeRecordErrors(t *testing.T) {
	cfg := testConfig()

	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{
			name:    "missing front matter",
			content: "just a body\n",
			wantMsg: "missing front matter delimiter",
		},
		{
			name:    "unterminated front matter",
			content: "---\ntitle: x\n",
			wantMsg: "unterminated front matter",
		},
		{
			name:    "unknown template",
			content: "---\ntemplate: ghost\ntitle: x\n---\n",
			wantMsg: "ghost",
		},
		{
			name:    "bad integer",
			content: "---\ntitle: x\nseverity: high\n---\n",
			wantMsg: "not an integer",
		},
		{
			name:    "nested collection",
			content: "---\ntitle: x\ntags:\n  - [a, b]\n---\n",
			wantMsg: "nested collections",
		},
		{
			name:    "non-mapping front matter",
			content: "---\n- a\n- b\n---\n",
			wantMsg: "must be a mapping",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeRecord([]byte(tt.content), "REC-1", "records/REC-1.md", cfg)
			if err == nil {
				t.Fatal("expected parse error, got nil")
			}
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("expected ParseError, got %T", err)
			}
			if perr.Path != "records/REC-1.md" {
				t.Errorf("expected error path records/REC-1.md, got %q", perr.Path)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("expected error containing %q, got %q", tt.wantMsg, err.Error())
			}
		})
	}
}

func TestEncodeRecordOrdering(t *testing.T) {
	cfg := testConfig()

	r := model.NewRecord("REC-1", "task")
	r.Body = "Body text."
	// Set fields out of schema order; encoding must restore it.
	r.Fields.Set("owner", model.String("freya"))
	r.Fields.Set("severity", model.Integer(2))
	r.Fields.Set("title", model.String("Fix the gate"))
	r.Fields.Set("status", model.String("open"))

	out, err := EncodeRecord(r, cfg)
	if err != nil {
		t.Fatalf("EncodeRecord failed: %v", err)
	}

	content := string(out)
	order := []string{"template:", "title:", "status:", "severity:", "owner__string:"}
	last := -1
	for _, key := range order {
		i := strings.Index(content, key)
		if i == -1 {
			t.Fatalf("expected %q in output:\n%s", key, content)
		}
		if i < last {
			t.Errorf("expected %q after previous key in output:\n%s", key, content)
		}
		last = i
	}
	if !strings.Contains(content, "Body text.") {
		t.Errorf("expected body in output:\n%s", content)
	}
}

func TestEncodeRecordOmitsEmptyStrings(t *testing.T) {
	cfg := testConfig()

	r := model.NewRecord("REC-1", "")
	r.Fields.Set("title", model.String("x"))
	r.Fields.Set("status", model.String(""))
	r.Fields.Set("severity", model.Integer(0))

	out, err := EncodeRecord(r, cfg)
	if err != nil {
		t.Fatalf("EncodeRecord failed: %v", err)
	}

	content := string(out)
	if strings.Contains(content, "status:") {
		t.Errorf("expected empty status to be omitted:\n%s", content)
	}
	if !strings.Contains(content, "severity: 0") {
		t.Errorf("expected zero severity to be kept:\n%s", content)
	}
}

func TestRecordRoundTrip(t *testing.T) {
	cfg := testConfig()

	r := model.NewRecord("REC-1", "task")
	r.Body = "Round trip body."
	r.Fields.Set("title", model.String("123"))
	r.Fields.Set("severity", model.Integer(7))
	r.Fields.Set("effort", model.Float(2.5))
	r.Fields.Set("tags", model.String("a"), model.String("b"))
	r.Fields.Set("confidence", model.Float(0.9))

	out, err := EncodeRecord(r, cfg)
	if err != nil {
		t.Fatalf("EncodeRecord failed: %v", err)
	}
	back, err := DecodeRecord(out, "REC-1", "records/REC-1.md", cfg)
	if err != nil {
		t.Fatalf("DecodeRecord failed: %v", err)
	}

	// The numeric-looking title must survive as a string.
	if v, ok := back.Fields.First("title"); !ok || v.Kind() != model.KindString || v.Render() != "123" {
		t.Errorf("expected title to round-trip as string 123, got %+v", v)
	}
	if v, ok := back.Fields.First("severity"); !ok || v.Render() != "7" {
		t.Errorf("expected severity 7, got %+v", v)
	}
	if v, ok := back.Fields.First("effort"); !ok || v.Kind() != model.KindFloat {
		t.Errorf("expected effort to stay float, got %+v", v)
	}
	if v, ok := back.Fields.First("confidence"); !ok || v.Kind() != model.KindFloat {
		t.Errorf("expected confidence to stay float, got %+v", v)
	}
	if tags, _ := back.Fields.Get("tags"); len(tags) != 2 || tags[0].Render() != "a" {
		t.Errorf("expected tags [a b], got %v", tags)
	}
	if back.Body != r.Body {
		t.Errorf("expected body %q, got %q", r.Body, back.Body)
	}
	if back.Template != "task" {
		t.Errorf("expected template task, got %s", back.Template)
	}
}

func TestDecodeNote(t *testing.T) {
	cfg := testConfig()

	content := `---
record: REC-1
created_at: 2026-01-02T03:04:05.000000Z
author: freya
---

Observed at dawn.
`
	n, err := DecodeNote([]byte(content), "NT-1", "notes/REC-1/NT-1.md", "REC-1", "", cfg)
	if err != nil {
		t.Fatalf("DecodeNote failed: %v", err)
	}
	if n.Record != "REC-1" {
		t.Errorf("expected record REC-1, got %s", n.Record)
	}
	if v, ok := n.Fields.First("author"); !ok || v.Render() != "freya" {
		t.Errorf("expected author freya, got %+v", v)
	}
	if n.Body != "Observed at dawn." {
		t.Errorf("unexpected body: %q", n.Body)
	}
}

func TestDecodeNoteRecordMismatch(t *testing.T) {
	cfg := testConfig()

	content := "---\nrecord: REC-2\n---\n"
	_, err := DecodeNote([]byte(content), "NT-1", "notes/REC-1/NT-1.md", "REC-1", "", cfg)
	if err == nil {
		t.Fatal("expected error for record mismatch")
	}
	if !strings.Contains(err.Error(), "REC-2") || !strings.Contains(err.Error(), "REC-1") {
		t.Errorf("expected mismatch error naming both ids, got %q", err.Error())
	}

	_, err = DecodeNote([]byte("---\nauthor: freya\n---\n"), "NT-1", "", "REC-1", "", cfg)
	if err == nil || !strings.Contains(err.Error(), "missing its record key") {
		t.Errorf("expected missing record key error, got %v", err)
	}
}

func TestNoteRoundTrip(t *testing.T) {
	cfg := testConfig()

	n := model.NewNote("NT-1", "REC-1")
	n.Body = "Note body."
	n.Fields.Set("created_at", model.String("2026-01-02T03:04:05.000000Z"))
	n.Fields.Set("author", model.String("freya"))
	n.Fields.Set("minutes", model.Integer(45))

	out, err := EncodeNote(n, "", cfg)
	if err != nil {
		t.Fatalf("EncodeNote failed: %v", err)
	}
	back, err := DecodeNote(out, "NT-1", "notes/REC-1/NT-1.md", "REC-1", "", cfg)
	if err != nil {
		t.Fatalf("DecodeNote failed: %v", err)
	}

	if back.Record != "REC-1" {
		t.Errorf("expected record REC-1, got %s", back.Record)
	}
	if v, ok := back.Fields.First("minutes"); !ok || v.Kind() != model.KindInteger {
		t.Errorf("expected custom minutes as integer, got %+v", v)
	}
	if back.Body != n.Body {
		t.Errorf("expected body %q, got %q", n.Body, back.Body)
	}
}

func TestDecodeRecordDisabledFieldPassesThrough(t *testing.T) {
	no := false
	cfg := testConfig()
	cfg.PutRecordField("legacy", &schema.FieldSpec{ValueType: "integer", Enabled: &no})

	content := "---\ntitle: x\nlegacy: 9\n---\n"
	r, err := DecodeRecord([]byte(content), "REC-1", "records/REC-1.md", cfg)
	if err != nil {
		t.Fatalf("DecodeRecord failed: %v", err)
	}
	// The declared type still applies even though the engine ignores the field.
	if v, ok := r.Fields.First("legacy"); !ok || v.Kind() != model.KindInteger {
		t.Errorf("expected legacy as integer, got %+v", v)
	}

	out, err := EncodeRecord(r, cfg)
	if err != nil {
		t.Fatalf("EncodeRecord failed: %v", err)
	}
	// Disabled specs serialize as hinted custom keys so arbitrary data
	// survives the round trip.
	if !strings.Contains(string(out), "legacy__integer: 9") {
		t.Errorf("expected hinted legacy key in output:\n%s", out)
	}
	back, err := DecodeRecord(out, "REC-1", "records/REC-1.md", cfg)
	if err != nil {
		t.Fatalf("re-decode failed: %v", err)
	}
	if v, ok := back.Fields.First("legacy"); !ok || v.Render() != "9" {
		t.Errorf("expected legacy 9 after round trip, got %+v", v)
	}
}
