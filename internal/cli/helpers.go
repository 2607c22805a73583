package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/aidanlsb/munin/internal/index"
	"github.com/aidanlsb/munin/internal/lastresults"
	"github.com/aidanlsb/munin/internal/model"
	"github.com/aidanlsb/munin/internal/parser"
	"github.com/aidanlsb/munin/internal/query"
	"github.com/aidanlsb/munin/internal/schema"
	"github.com/aidanlsb/munin/internal/tracker"
)

// openTracker opens the resolved tracker and loads its schema config.
func openTracker() (*tracker.Tracker, error) {
	t, err := tracker.Open(getTrackerPath())
	if err != nil {
		if errors.Is(err, tracker.ErrNotFound) {
			return nil, handleError(ErrTrackerNotFound, err, fmt.Sprintf("Run 'mun init %s' to create it", getTrackerPath()))
		}
		return nil, handleError(ErrConfigInvalid, err, "Fix .munin/config.toml and retry")
	}
	return t, nil
}

// openDatabase opens the tracker's index, rebuilding it from the files when
// the on-disk schema version is stale.
func openDatabase(t *tracker.Tracker) (*index.Database, error) {
	db, wasReset, err := index.OpenWithReset(t.Root)
	if err != nil {
		return nil, handleError(ErrDatabaseError, err, "")
	}
	if wasReset {
		if _, err := tracker.Reindex(t, db); err != nil {
			db.Close()
			return nil, handleError(ErrDatabaseError, err, "Run 'mun reindex'")
		}
		if !isJSONOutput() {
			fmt.Fprintln(os.Stderr, "index format changed, rebuilt from files")
		}
	}
	return db, nil
}

// writeContext assembles the ambient facts for one write operation.
func writeContext(db *index.Database) tracker.WriteContext {
	id := actingIdentity()
	return tracker.WriteContext{
		DB:        db,
		UserName:  id.Name,
		UserEmail: id.Email,
	}
}

// parseFieldFlags turns repeated --field name=value flags into a field map.
// A repeated name accumulates values (multi fields); a type hint on the
// name ("confidence__float=0.9") types custom values.
func parseFieldFlags(flags []string) (*model.FieldMap, error) {
	fields := model.NewFieldMap()
	for _, f := range flags {
		parts := strings.SplitN(f, "=", 2)
		if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" {
			return nil, fmt.Errorf("invalid field %q: expected name=value", f)
		}
		name, kind, _ := model.SplitHintKey(strings.TrimSpace(parts[0]))
		v, err := model.Coerce(parts[1], kind)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		fields.Add(name, v)
	}
	return fields, nil
}

// resolveRecordArg maps an id argument to a record id: an all-digit
// argument is a 1-indexed reference into the last listing.
func resolveRecordArg(t *tracker.Tracker, arg string) (string, error) {
	id, err := lastresults.Resolve(t, arg)
	if err != nil {
		return "", handleError(ErrInvalidInput, err, "Run 'mun list' to refresh numbered results")
	}
	return id, nil
}

// parseQueryFlags parses --search and --sort flags into a resolved query.
// Resolution types each clause against the schema before any index access.
func parseQueryFlags(t *tracker.Tracker, scope schema.Scope, searches []string, sortSpec string) (*query.Query, error) {
	q, err := query.Parse(searches)
	if err != nil {
		return nil, err
	}
	q.Sorts, err = query.ParseSort(sortSpec)
	if err != nil {
		return nil, err
	}
	if err := q.Resolve(fieldKinds(t, scope)); err != nil {
		return nil, err
	}
	return q, nil
}

// fieldKinds reports the declared kind of a field for query typing.
func fieldKinds(t *tracker.Tracker, scope schema.Scope) query.KindOf {
	return t.Config.KindOf(scope)
}

// writeError maps a pipeline error to its stable code and hands it to the
// output layer. Every create/update/import/delete command funnels failures
// through here so the taxonomy stays uniform.
func writeError(err error) error {
	var verrs schema.ValidationErrors
	var verr *schema.ValidationError
	var eerr *schema.EditabilityError
	var nerr *tracker.NotFoundError
	var perr *parser.ParseError
	var qerr *query.Error

	switch {
	case errors.As(err, &verrs):
		return validationError(verrs)
	case errors.As(err, &verr):
		return validationError(schema.ValidationErrors{verr})
	case errors.As(err, &eerr):
		return handleError(ErrFieldNotEditable, err, "Non-editable fields are set by the system; leave them out of the update")
	case errors.As(err, &nerr):
		if nerr.Kind == "note" {
			return handleError(ErrNoteNotFound, err, "")
		}
		return handleError(ErrRecordNotFound, err, "Run 'mun list' to see records")
	case errors.As(err, &perr):
		return handleError(ErrParseError, err, "")
	case errors.As(err, &qerr):
		return handleError(ErrQueryInvalid, err, qerr.Suggestion)
	case errors.Is(err, schema.ErrTemplateNotFound):
		return handleError(ErrTemplateNotFound, err, "Run 'mun schema' to see configured templates")
	case errors.Is(err, tracker.ErrRecordExists):
		return handleError(ErrFileExists, err, "Pick a different --id")
	case errors.Is(err, index.ErrRecordNotFound):
		return handleError(ErrRecordNotFound, err, "Run 'mun reindex' if the file exists but the index is stale")
	case errors.Is(err, index.ErrNoteNotFound):
		return handleError(ErrNoteNotFound, err, "")
	case errors.Is(err, index.ErrIndexLocked):
		return handleError(ErrIndexLocked, err, "Another munin process is rebuilding; retry in a moment")
	default:
		return handleError(ErrInternal, err, "")
	}
}

// validationError renders aggregated validation failures with one detail
// entry per field, choosing the most specific code when there is a single
// failure kind.
func validationError(verrs schema.ValidationErrors) error {
	code := ErrValidationFailed
	if len(verrs) > 0 {
		uniform := true
		for _, ve := range verrs {
			if ve.Kind != verrs[0].Kind {
				uniform = false
				break
			}
		}
		if uniform {
			switch verrs[0].Kind {
			case schema.MissingRequired:
				code = ErrRequiredField
			case schema.NotAccepted, schema.TypeMismatch:
				code = ErrInvalidValue
			}
		}
	}

	details := make([]map[string]string, len(verrs))
	for i, ve := range verrs {
		details[i] = map[string]string{
			"field":   ve.Field,
			"kind":    string(ve.Kind),
			"message": ve.Message,
		}
	}
	return handleErrorWithDetails(code, verrs.Error(), "Fix the listed fields and retry", details)
}

// recordView is the JSON shape of a record across commands.
type recordView struct {
	ID       string         `json:"id"`
	Template string         `json:"template,omitempty"`
	Fields   map[string]any `json:"fields"`
	Body     string         `json:"body,omitempty"`
	Path     string         `json:"path,omitempty"`
}

func viewOfRecord(r *model.Record) recordView {
	return recordView{
		ID:       r.ID,
		Template: r.Template,
		Fields:   r.Fields.Raw(),
		Body:     r.Body,
		Path:     r.Path,
	}
}

// noteView is the JSON shape of a note across commands.
type noteView struct {
	ID     string         `json:"id"`
	Record string         `json:"record"`
	Fields map[string]any `json:"fields"`
	Body   string         `json:"body,omitempty"`
	Path   string         `json:"path,omitempty"`
}

func viewOfNote(n *model.Note) noteView {
	return noteView{
		ID:     n.ID,
		Record: n.Record,
		Fields: n.Fields.Raw(),
		Body:   n.Body,
		Path:   n.Path,
	}
}
