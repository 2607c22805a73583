package serve

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/aidanlsb/munin/internal/index"
	"github.com/aidanlsb/munin/internal/testutil"
	"github.com/aidanlsb/munin/internal/tracker"
)

func testServer(t *testing.T) (*tracker.Tracker, *index.Database) {
	t.Helper()
	tt := testutil.NewTestTracker(t).Build()
	tr := tt.Open()
	db, err := index.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return tr, db
}

// run feeds one request line per element and returns the decoded responses.
func run(t *testing.T, tr *tracker.Tracker, db *index.Database, lines ...string) []Response {
	t.Helper()
	in := strings.NewReader(strings.Join(lines, "\n") + "\n")
	var out bytes.Buffer
	srv := NewWithStreams(tr, db, Identity{Name: "ada", Email: "ada@example.com"}, in, &out)
	if err := srv.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	var responses []Response
	dec := json.NewDecoder(&out)
	for dec.More() {
		var resp Response
		if err := dec.Decode(&resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		responses = append(responses, resp)
	}
	return responses
}

func dataMap(t *testing.T, resp Response) map[string]interface{} {
	t.Helper()
	m, ok := resp.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("response data is %T, want object", resp.Data)
	}
	return m
}

func TestPingEchoesID(t *testing.T) {
	tr, db := testServer(t)

	resps := run(t, tr, db, `{"id":"abc","op":"ping"}`)
	if len(resps) != 1 {
		t.Fatalf("expected 1 response, got %d", len(resps))
	}
	if resps[0].ID != "abc" || !resps[0].OK {
		t.Errorf("response = %+v", resps[0])
	}
}

func TestMalformedLineDoesNotKillServer(t *testing.T) {
	tr, db := testServer(t)

	resps := run(t, tr, db,
		`this is not json`,
		`{"id":"2","op":"ping"}`,
	)
	if len(resps) != 2 {
		t.Fatalf("expected 2 responses, got %d", len(resps))
	}
	if resps[0].OK || resps[0].Error == nil || resps[0].Error.Code != "INVALID_INPUT" {
		t.Errorf("first response = %+v", resps[0])
	}
	if !resps[1].OK || resps[1].ID != "2" {
		t.Errorf("second response = %+v", resps[1])
	}
}

func TestUnknownOp(t *testing.T) {
	tr, db := testServer(t)

	resps := run(t, tr, db, `{"id":"1","op":"frobnicate"}`)
	if resps[0].OK || resps[0].Error.Code != "INVALID_INPUT" {
		t.Errorf("response = %+v", resps[0])
	}
}

func TestCreateThenGet(t *testing.T) {
	tr, db := testServer(t)

	resps := run(t, tr, db,
		`{"id":"1","op":"create","params":{"title":"Rotate API keys","fields":{"tags":["security","ops"]}}}`,
	)
	if !resps[0].OK {
		t.Fatalf("create failed: %+v", resps[0].Error)
	}
	id, _ := dataMap(t, resps[0])["id"].(string)
	if id == "" {
		t.Fatal("create returned no id")
	}

	resps = run(t, tr, db, `{"id":"2","op":"get","params":{"id":"`+id+`"}}`)
	if !resps[0].OK {
		t.Fatalf("get failed: %+v", resps[0].Error)
	}
	record := dataMap(t, resps[0])["record"].(map[string]interface{})
	fields := record["fields"].(map[string]interface{})
	if fields["title"] != "Rotate API keys" {
		t.Errorf("title = %v", fields["title"])
	}
	tags, _ := fields["tags"].([]interface{})
	if len(tags) != 2 {
		t.Errorf("tags = %v", fields["tags"])
	}
}

func TestGetMissingRecord(t *testing.T) {
	tr, db := testServer(t)

	resps := run(t, tr, db, `{"id":"1","op":"get","params":{"id":"REC-nothere"}}`)
	if resps[0].OK || resps[0].Error.Code != "RECORD_NOT_FOUND" {
		t.Errorf("response = %+v", resps[0])
	}
}

func TestQueryFiltersAndCounts(t *testing.T) {
	tr, db := testServer(t)

	resps := run(t, tr, db,
		`{"id":"1","op":"create","params":{"title":"Open one"}}`,
		`{"id":"2","op":"create","params":{"title":"Closed one","fields":{"status":"closed"}}}`,
		`{"id":"3","op":"query","params":{"search":["status=open"]}}`,
	)
	if !resps[2].OK {
		t.Fatalf("query failed: %+v", resps[2].Error)
	}
	data := dataMap(t, resps[2])
	if count, _ := data["count"].(float64); count != 1 {
		t.Errorf("count = %v", data["count"])
	}
}

func TestQueryInvalidClause(t *testing.T) {
	tr, db := testServer(t)

	resps := run(t, tr, db, `{"id":"1","op":"query","params":{"search":["title>=abc"]}}`)
	if resps[0].OK || resps[0].Error.Code != "QUERY_INVALID" {
		t.Errorf("response = %+v", resps[0])
	}
}

func TestUpdateThroughServer(t *testing.T) {
	tr, db := testServer(t)

	resps := run(t, tr, db, `{"id":"1","op":"create","params":{"title":"Mutable"}}`)
	id, _ := dataMap(t, resps[0])["id"].(string)

	resps = run(t, tr, db,
		`{"id":"2","op":"update","params":{"id":"`+id+`","fields":{"status":"closed"}}}`,
	)
	if !resps[0].OK {
		t.Fatalf("update failed: %+v", resps[0].Error)
	}
	data := dataMap(t, resps[0])
	if _, hasNote := data["change_note"]; !hasNote {
		t.Error("expected a change_note id in update response")
	}

	// Editability violations surface with their CLI code.
	resps = run(t, tr, db,
		`{"id":"3","op":"update","params":{"id":"`+id+`","fields":{"created_by":"mallory"}}}`,
	)
	if resps[0].OK || resps[0].Error.Code != "FIELD_NOT_EDITABLE" {
		t.Errorf("response = %+v", resps[0])
	}
}

func TestValidationCodeThroughServer(t *testing.T) {
	tr, db := testServer(t)

	resps := run(t, tr, db, `{"id":"1","op":"create","params":{"fields":{"status":"open"}}}`)
	if resps[0].OK || resps[0].Error.Code != "REQUIRED_FIELD_MISSING" {
		t.Errorf("response = %+v", resps[0])
	}
}

func TestAddNoteThroughServer(t *testing.T) {
	tr, db := testServer(t)

	resps := run(t, tr, db, `{"id":"1","op":"create","params":{"title":"Parent"}}`)
	id, _ := dataMap(t, resps[0])["id"].(string)

	resps = run(t, tr, db,
		`{"id":"2","op":"add_note","params":{"record":"`+id+`","body":"observed again"}}`,
		`{"id":"3","op":"search_notes","params":{"search":["created_by=ada"]}}`,
	)
	if !resps[0].OK {
		t.Fatalf("add_note failed: %+v", resps[0].Error)
	}
	if !resps[1].OK {
		t.Fatalf("search_notes failed: %+v", resps[1].Error)
	}
	if count, _ := dataMap(t, resps[1])["count"].(float64); count != 1 {
		t.Errorf("note count = %v", dataMap(t, resps[1])["count"])
	}
}

func TestShutdownStopsWithoutReadingMore(t *testing.T) {
	tr, db := testServer(t)

	resps := run(t, tr, db,
		`{"id":"1","op":"shutdown"}`,
		`{"id":"2","op":"ping"}`,
	)
	if len(resps) != 1 {
		t.Fatalf("expected shutdown to stop the loop, got %d responses", len(resps))
	}
	if !resps[0].OK || resps[0].ID != "1" {
		t.Errorf("response = %+v", resps[0])
	}
}

func TestReindexOp(t *testing.T) {
	tt := testutil.NewTestTracker(t).
		WithRecord("REC-hand", testutil.Record("title: Hand written\n", "Edited outside munin.\n")).
		Build()
	tr := tt.Open()
	db, err := index.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	defer db.Close()

	resps := run(t, tr, db,
		`{"id":"1","op":"reindex"}`,
		`{"id":"2","op":"get","params":{"id":"REC-hand"}}`,
	)
	if !resps[0].OK {
		t.Fatalf("reindex failed: %+v", resps[0].Error)
	}
	if records, _ := dataMap(t, resps[0])["records"].(float64); records != 1 {
		t.Errorf("records = %v", dataMap(t, resps[0])["records"])
	}
	if !resps[1].OK {
		t.Errorf("get after reindex failed: %+v", resps[1].Error)
	}
}
