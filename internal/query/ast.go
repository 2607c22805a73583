// Package query implements the filter and sort language used by record
// listing, note search, and the serve protocol.
//
// A query is a list of clauses combined with AND. Each clause is one
// field/operator/value expression:
//
//	status=open            exact match
//	status=open,blocked    any of the listed values
//	status!=closed         exclusion (<> is an alias)
//	severity>=3            numeric range
//
// Range operators require a numeric field: declared integer/float in the
// schema, or hinted on the clause key ("count__integer>=2"). Sort specs are
// comma-separated field names with an optional trailing direction marker,
// "+" ascending (the default) or "-" descending.
package query

import (
	"fmt"

	"github.com/aidanlsb/munin/internal/model"
)

// Op is a clause comparison operator.
type Op int

const (
	OpEq Op = iota
	OpNeq
	OpLt
	OpLte
	OpGt
	OpGte
)

func (op Op) String() string {
	switch op {
	case OpNeq:
		return "!="
	case OpLt:
		return "<"
	case OpLte:
		return "<="
	case OpGt:
		return ">"
	case OpGte:
		return ">="
	default:
		return "="
	}
}

// Range reports whether the operator is an ordered comparison.
func (op Op) Range() bool {
	switch op {
	case OpLt, OpLte, OpGt, OpGte:
		return true
	}
	return false
}

// Filter is one parsed clause.
type Filter struct {
	// Field is the field name with any type hint stripped.
	Field string

	Op Op

	// Values holds the raw alternatives (one element for range operators).
	Values []string

	// Kind is the comparison kind: the hinted kind, or after Resolve the
	// schema-declared kind. Unknown fields compare as strings.
	Kind model.Kind

	// Hinted records an explicit type hint on the clause key, which wins
	// over the schema declaration.
	Hinted bool

	// Nums holds the numeric renderings of Values, set by Resolve when Kind
	// is numeric.
	Nums []float64
}

// Numeric reports whether the filter compares numerically.
func (f *Filter) Numeric() bool {
	return f.Kind == model.KindInteger || f.Kind == model.KindFloat
}

// Sort is one parsed sort key.
type Sort struct {
	Field      string
	Descending bool
}

// Query is a full parsed query: filters ANDed together plus sort keys
// applied in order.
type Query struct {
	Filters []Filter
	Sorts   []Sort
}

// Error is a malformed or mistyped query, reported before any index access.
type Error struct {
	Clause     string
	Message    string
	Suggestion string
}

func (e *Error) Error() string {
	if e.Clause != "" {
		return fmt.Sprintf("invalid query %q: %s", e.Clause, e.Message)
	}
	return fmt.Sprintf("invalid query: %s", e.Message)
}

func errorf(clause, suggestion, format string, args ...any) *Error {
	return &Error{
		Clause:     clause,
		Message:    fmt.Sprintf(format, args...),
		Suggestion: suggestion,
	}
}
