// Package serve implements the long-running line protocol used by editors
// and agents: one JSON request per line on stdin, one JSON response per
// line on stdout, strictly in order.
package serve

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/aidanlsb/munin/internal/index"
	"github.com/aidanlsb/munin/internal/model"
	"github.com/aidanlsb/munin/internal/parser"
	"github.com/aidanlsb/munin/internal/query"
	"github.com/aidanlsb/munin/internal/schema"
	"github.com/aidanlsb/munin/internal/tracker"
)

// Request is one line of input. ID is echoed back verbatim so callers can
// correlate; Params is decoded per op.
type Request struct {
	ID     string          `json:"id"`
	Op     string          `json:"op"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Response is one line of output.
type Response struct {
	ID    string      `json:"id"`
	OK    bool        `json:"ok"`
	Data  interface{} `json:"data,omitempty"`
	Error *Error      `json:"error,omitempty"`
}

// Error carries the same stable codes as the CLI's --json output.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Identity is the acting user stamped into system fields for writes made
// through the server.
type Identity struct {
	Name  string
	Email string
}

// Server handles requests against one tracker over one index connection.
// Requests are processed strictly sequentially.
type Server struct {
	tracker  *tracker.Tracker
	db       *index.Database
	identity Identity

	in  io.Reader
	out io.Writer

	mu   sync.Mutex // serializes writes to out
	stop bool
}

// New creates a Server reading stdin and writing stdout.
func New(t *tracker.Tracker, db *index.Database, id Identity) *Server {
	return &Server{
		tracker:  t,
		db:       db,
		identity: id,
		in:       os.Stdin,
		out:      os.Stdout,
	}
}

// NewWithStreams creates a Server on explicit streams, for tests and
// embedding.
func NewWithStreams(t *tracker.Tracker, db *index.Database, id Identity, in io.Reader, out io.Writer) *Server {
	return &Server{tracker: t, db: db, identity: id, in: in, out: out}
}

// Run reads requests until EOF or a shutdown op. Malformed lines produce
// an error response and the loop continues; no request kills the server.
func (s *Server) Run() error {
	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			s.send(Response{ID: "", OK: false, Error: &Error{
				Code:    "INVALID_INPUT",
				Message: fmt.Sprintf("invalid request: %v", err),
			}})
			continue
		}

		s.send(s.handle(&req))
		if s.stop {
			return nil
		}
	}
	return scanner.Err()
}

func (s *Server) handle(req *Request) Response {
	data, err := s.dispatch(req)
	if err != nil {
		return Response{ID: req.ID, OK: false, Error: errorOf(err)}
	}
	return Response{ID: req.ID, OK: true, Data: data}
}

func (s *Server) dispatch(req *Request) (interface{}, error) {
	switch req.Op {
	case "ping":
		return map[string]interface{}{"pong": true}, nil
	case "get":
		return s.opGet(req.Params)
	case "query":
		return s.opQuery(req.Params)
	case "search_notes":
		return s.opSearchNotes(req.Params)
	case "create":
		return s.opCreate(req.Params)
	case "update":
		return s.opUpdate(req.Params)
	case "add_note":
		return s.opAddNote(req.Params)
	case "reindex":
		return s.opReindex()
	case "shutdown":
		s.stop = true
		return map[string]interface{}{"stopping": true}, nil
	default:
		return nil, &opError{"INVALID_INPUT", fmt.Sprintf("unknown op %q", req.Op)}
	}
}

func (s *Server) opGet(params json.RawMessage) (interface{}, error) {
	var p struct {
		ID string `json:"id"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.ID == "" {
		return nil, &opError{"MISSING_ARGUMENT", "get requires an id"}
	}

	record, err := s.db.GetRecord(p.ID)
	if err != nil {
		return nil, err
	}
	notes, err := s.db.ListNotes(p.ID)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"record": recordData(record),
		"notes":  notesData(notes),
	}, nil
}

func (s *Server) opQuery(params json.RawMessage) (interface{}, error) {
	q, limit, _, err := s.parseQuery(params, schema.ScopeRecord)
	if err != nil {
		return nil, err
	}
	records, err := s.db.SearchRecords(q, limit)
	if err != nil {
		return nil, err
	}

	out := make([]map[string]interface{}, len(records))
	for i, r := range records {
		out[i] = recordData(r)
	}
	return map[string]interface{}{"records": out, "count": len(out)}, nil
}

func (s *Server) opSearchNotes(params json.RawMessage) (interface{}, error) {
	q, limit, recordID, err := s.parseQuery(params, schema.ScopeNote)
	if err != nil {
		return nil, err
	}
	notes, err := s.db.SearchNotes(q, recordID, limit)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"notes": notesData(notes), "count": len(notes)}, nil
}

func (s *Server) opCreate(params json.RawMessage) (interface{}, error) {
	var p struct {
		Template string                 `json:"template"`
		ID       string                 `json:"id"`
		Title    string                 `json:"title"`
		Fields   map[string]interface{} `json:"fields"`
		Body     string                 `json:"body"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	fields, err := fieldsFromJSON(p.Fields)
	if err != nil {
		return nil, err
	}

	record, err := s.tracker.CreateRecord(s.writeContext(), tracker.CreateRecordParams{
		Template: p.Template,
		ID:       p.ID,
		Title:    p.Title,
		Fields:   fields,
		Body:     p.Body,
	})
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"id": record.ID, "record": recordData(record)}, nil
}

func (s *Server) opUpdate(params json.RawMessage) (interface{}, error) {
	var p struct {
		ID     string                 `json:"id"`
		Fields map[string]interface{} `json:"fields"`
		Unset  []string               `json:"unset"`
		Body   *string                `json:"body"`
		NoNote bool                   `json:"no_note"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.ID == "" {
		return nil, &opError{"MISSING_ARGUMENT", "update requires an id"}
	}
	changes, err := fieldsFromJSON(p.Fields)
	if err != nil {
		return nil, err
	}

	record, note, err := s.tracker.UpdateRecord(s.writeContext(), p.ID, tracker.UpdateRecordParams{
		Changes:  changes,
		Removals: p.Unset,
		Body:     p.Body,
		SkipNote: p.NoNote,
	})
	if err != nil {
		return nil, err
	}
	data := map[string]interface{}{"record": recordData(record)}
	if note != nil {
		data["change_note"] = note.ID
	}
	return data, nil
}

func (s *Server) opAddNote(params json.RawMessage) (interface{}, error) {
	var p struct {
		Record string                 `json:"record"`
		Fields map[string]interface{} `json:"fields"`
		Body   string                 `json:"body"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.Record == "" {
		return nil, &opError{"MISSING_ARGUMENT", "add_note requires a record"}
	}
	fields, err := fieldsFromJSON(p.Fields)
	if err != nil {
		return nil, err
	}

	note, err := s.tracker.AddNote(s.writeContext(), p.Record, tracker.AddNoteParams{
		Fields: fields,
		Body:   p.Body,
	})
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"id": note.ID, "note": noteData(note)}, nil
}

func (s *Server) opReindex() (interface{}, error) {
	stats, err := tracker.Reindex(s.tracker, s.db)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"records": stats.Records,
		"notes":   stats.Notes,
		"skipped": len(stats.Skipped),
	}, nil
}

func (s *Server) parseQuery(params json.RawMessage, scope schema.Scope) (*query.Query, int, string, error) {
	var p struct {
		Search []string `json:"search"`
		Sort   string   `json:"sort"`
		Limit  int      `json:"limit"`
		Record string   `json:"record"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, 0, "", err
	}

	q, err := query.Parse(p.Search)
	if err != nil {
		return nil, 0, "", err
	}
	q.Sorts, err = query.ParseSort(p.Sort)
	if err != nil {
		return nil, 0, "", err
	}
	if err := q.Resolve(s.tracker.Config.KindOf(scope)); err != nil {
		return nil, 0, "", err
	}
	return q, p.Limit, p.Record, nil
}

func (s *Server) writeContext() tracker.WriteContext {
	return tracker.WriteContext{
		DB:        s.db,
		UserName:  s.identity.Name,
		UserEmail: s.identity.Email,
	}
}

func (s *Server) send(resp Response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	enc := json.NewEncoder(s.out)
	if err := enc.Encode(resp); err != nil {
		fmt.Fprintf(os.Stderr, "[munin-serve] failed to write response: %v\n", err)
	}
}

func decodeParams(params json.RawMessage, into interface{}) error {
	if len(params) == 0 {
		return nil
	}
	if err := json.Unmarshal(params, into); err != nil {
		return &opError{"INVALID_INPUT", fmt.Sprintf("invalid params: %v", err)}
	}
	return nil
}

// fieldsFromJSON converts a params fields object into a field map. An
// array value sets a multi field; names take the same type-hint suffixes
// as the CLI's --field flag.
func fieldsFromJSON(raw map[string]interface{}) (*model.FieldMap, error) {
	fields := model.NewFieldMap()
	for key, value := range raw {
		name, kind, _ := model.SplitHintKey(key)
		items, ok := value.([]interface{})
		if !ok {
			items = []interface{}{value}
		}
		for _, item := range items {
			v, err := model.Coerce(item, kind)
			if err != nil {
				return nil, &opError{"INVALID_VALUE", fmt.Sprintf("field %q: %v", name, err)}
			}
			fields.Add(name, v)
		}
	}
	return fields, nil
}

func recordData(r *model.Record) map[string]interface{} {
	return map[string]interface{}{
		"id":       r.ID,
		"template": r.Template,
		"fields":   r.Fields.Raw(),
		"body":     r.Body,
		"path":     r.Path,
	}
}

func noteData(n *model.Note) map[string]interface{} {
	return map[string]interface{}{
		"id":     n.ID,
		"record": n.Record,
		"fields": n.Fields.Raw(),
		"body":   n.Body,
		"path":   n.Path,
	}
}

func notesData(notes []*model.Note) []map[string]interface{} {
	out := make([]map[string]interface{}, len(notes))
	for i, n := range notes {
		out[i] = noteData(n)
	}
	return out
}

// opError is a protocol-level failure with an explicit code.
type opError struct {
	code    string
	message string
}

func (e *opError) Error() string { return e.message }

// errorOf maps a failure to its stable code.
func errorOf(err error) *Error {
	var oerr *opError
	var verrs schema.ValidationErrors
	var verr *schema.ValidationError
	var eerr *schema.EditabilityError
	var nerr *tracker.NotFoundError
	var perr *parser.ParseError
	var qerr *query.Error

	switch {
	case errors.As(err, &oerr):
		return &Error{Code: oerr.code, Message: oerr.message}
	case errors.As(err, &verrs):
		return &Error{Code: validationCode(verrs), Message: verrs.Error()}
	case errors.As(err, &verr):
		return &Error{Code: validationCode(schema.ValidationErrors{verr}), Message: verr.Error()}
	case errors.As(err, &eerr):
		return &Error{Code: "FIELD_NOT_EDITABLE", Message: err.Error()}
	case errors.As(err, &nerr):
		if nerr.Kind == "note" {
			return &Error{Code: "NOTE_NOT_FOUND", Message: err.Error()}
		}
		return &Error{Code: "RECORD_NOT_FOUND", Message: err.Error()}
	case errors.As(err, &perr):
		return &Error{Code: "PARSE_ERROR", Message: err.Error()}
	case errors.As(err, &qerr):
		return &Error{Code: "QUERY_INVALID", Message: err.Error()}
	case errors.Is(err, schema.ErrTemplateNotFound):
		return &Error{Code: "TEMPLATE_NOT_FOUND", Message: err.Error()}
	case errors.Is(err, tracker.ErrRecordExists):
		return &Error{Code: "FILE_EXISTS", Message: err.Error()}
	case errors.Is(err, index.ErrRecordNotFound):
		return &Error{Code: "RECORD_NOT_FOUND", Message: err.Error()}
	case errors.Is(err, index.ErrNoteNotFound):
		return &Error{Code: "NOTE_NOT_FOUND", Message: err.Error()}
	case errors.Is(err, index.ErrIndexLocked):
		return &Error{Code: "INDEX_LOCKED", Message: err.Error()}
	default:
		return &Error{Code: "INTERNAL_ERROR", Message: err.Error()}
	}
}

func validationCode(verrs schema.ValidationErrors) string {
	uniform := len(verrs) > 0
	for _, ve := range verrs {
		if ve.Kind != verrs[0].Kind {
			uniform = false
			break
		}
	}
	if uniform {
		switch verrs[0].Kind {
		case schema.MissingRequired:
			return "REQUIRED_FIELD_MISSING"
		case schema.NotAccepted, schema.TypeMismatch:
			return "INVALID_VALUE"
		}
	}
	return "VALIDATION_FAILED"
}
