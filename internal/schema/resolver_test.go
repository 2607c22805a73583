package schema

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func testConfig() *Config {
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

	bug := NewTemplate()
	bug.IDPrefix = "BUG"
	bug.PutRecordField("status", &FieldSpec{
		AcceptedValues: []string{"new", "triaged", "fixed"},
		Default:        "new",
	})
	bug.PutRecordField("severity", &FieldSpec{ValueType: "integer"})
	cfg.PutTemplate("bug", bug)

	return cfg
}

func TestResolveGlobalOnly(t *testing.T) {
	cfg := testConfig()

	ctx, err := cfg.Resolve(ScopeRecord, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"title", "status", "created_at", "created_by", "updated_at", "tags"}
	if diff := cmp.Diff(want, ctx.Names()); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveTemplateReplacesInPlace(t *testing.T) {
	cfg := testConfig()

	ctx, err := cfg.Resolve(ScopeRecord, "bug")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// status keeps position two; severity appends.
	want := []string{"title", "status", "created_at", "created_by", "updated_at", "tags", "severity"}
	if diff := cmp.Diff(want, ctx.Names()); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}

	// The replacement is wholesale: the template's status has no trace of
	// the global accepted values.
	status, ok := ctx.Lookup("status")
	if !ok {
		t.Fatal("status missing from context")
	}
	if diff := cmp.Diff([]string{"new", "triaged", "fixed"}, status.AcceptedValues); diff != "" {
		t.Errorf("accepted values mismatch (-want +got):\n%s", diff)
	}
	if status.Default != "new" {
		t.Errorf("expected template default, got %q", status.Default)
	}
}

func TestResolveNoteScope(t *testing.T) {
	cfg := testConfig()

	ctx, err := cfg.Resolve(ScopeNote, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"created_at", "created_by"}
	if diff := cmp.Diff(want, ctx.Names()); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveUnknownTemplate(t *testing.T) {
	cfg := testConfig()

	_, err := cfg.Resolve(ScopeRecord, "missing")
	if err == nil {
		t.Fatal("expected error for unknown template")
	}
	if !errors.Is(err, ErrTemplateNotFound) {
		t.Fatalf("expected ErrTemplateNotFound, got %v", err)
	}
}

func TestResolveDoesNotMutateConfig(t *testing.T) {
	cfg := testConfig()

	ctx, err := cfg.Resolve(ScopeRecord, "bug")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	spec, _ := ctx.Lookup("title")
	spec.Required = false

	if !cfg.RecordFields["title"].Required {
		t.Error("context mutation leaked into config")
	}

	// The global status is untouched by the bug template overlay.
	if cfg.RecordFields["status"].Default != "open" {
		t.Error("template overlay mutated global field")
	}
}

func TestRecordIDPrefix(t *testing.T) {
	cfg := testConfig()

	if got := cfg.RecordIDPrefix(""); got != "REC" {
		t.Errorf("expected REC, got %q", got)
	}
	if got := cfg.RecordIDPrefix("bug"); got != "BUG" {
		t.Errorf("expected BUG, got %q", got)
	}

	cfg.IDPrefix = "TKT"
	if got := cfg.RecordIDPrefix(""); got != "TKT" {
		t.Errorf("expected TKT, got %q", got)
	}
}
