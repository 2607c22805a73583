package schema

import (
	"testing"
	"time"
)

func testInputs() DeriveInputs {
	return DeriveInputs{
		Now:        time.Date(2026, 3, 9, 14, 30, 5, 0, time.UTC),
		UserName:   "freya",
		UserEmail:  "freya@example.com",
		RecordID:   "REC-1ABC2D",
		NoteID:     "NT-9XY8Z7",
		TemplateID: "bug",
	}
}

func TestDerive(t *testing.T) {
	in := testInputs()

	cases := []struct {
		source string
		want   string
	}{
		{SourceDatetime, "2026-03-09T14:30:05.000000Z"},
		{SourceDatestamp, "2026-03-09"},
		{SourceUserName, "freya"},
		{SourceUserEmail, "freya@example.com"},
		{SourceRecordID, "REC-1ABC2D"},
		{SourceUpdateID, "NT-9XY8Z7"},
		{SourceTemplateID, "bug"},
	}
	for _, c := range cases {
		got, err := Derive(c.source, in)
		if err != nil {
			t.Fatalf("Derive(%q) failed: %v", c.source, err)
		}
		if got != c.want {
			t.Errorf("Derive(%q) = %q, want %q", c.source, got, c.want)
		}
	}

	if _, err := Derive("bogus", in); err == nil {
		t.Error("expected error for unknown source")
	}
}

func TestResolveDefault(t *testing.T) {
	in := testInputs()

	cases := []struct {
		def  string
		want string
	}{
		{"open", "open"},
		{"{{datestamp}}", "2026-03-09"},
		{"filed {{datestamp}} by {{user_name}}", "filed 2026-03-09 by freya"},
		{"", ""},
	}
	for _, c := range cases {
		got, err := ResolveDefault(c.def, in)
		if err != nil {
			t.Fatalf("ResolveDefault(%q) failed: %v", c.def, err)
		}
		if got != c.want {
			t.Errorf("ResolveDefault(%q) = %q, want %q", c.def, got, c.want)
		}
	}

	if _, err := ResolveDefault("{{nope}}", in); err == nil {
		t.Error("expected error for unknown source in default")
	}
}

func TestDefaultSources(t *testing.T) {
	sources := DefaultSources("filed {{datestamp}} by {{user_name}}")
	if len(sources) != 2 || sources[0] != "datestamp" || sources[1] != "user_name" {
		t.Fatalf("unexpected sources %v", sources)
	}
	if len(DefaultSources("plain")) != 0 {
		t.Error("expected no sources in a literal default")
	}
}
