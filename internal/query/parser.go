package query

import (
	"strings"

	"github.com/aidanlsb/munin/internal/model"
)

// Two-character operators listed first so they win at the same position.
var opTokens = []struct {
	text string
	op   Op
}{
	{"<=", OpLte},
	{">=", OpGte},
	{"!=", OpNeq},
	{"<>", OpNeq},
	{"=", OpEq},
	{"<", OpLt},
	{">", OpGt},
}

// Parse parses filter clauses into a query. Sort keys are parsed separately
// with ParseSort and attached by the caller.
func Parse(clauses []string) (*Query, error) {
	q := &Query{}
	for _, clause := range clauses {
		f, err := parseClause(clause)
		if err != nil {
			return nil, err
		}
		q.Filters = append(q.Filters, f)
	}
	return q, nil
}

func parseClause(clause string) (Filter, error) {
	field, op, rhs, ok := splitClause(clause)
	if !ok {
		return Filter{}, errorf(clause,
			"write field=value, field!=value, or a range like severity>=3",
			"missing operator")
	}

	field = strings.TrimSpace(field)
	if field == "" {
		return Filter{}, errorf(clause, "", "missing field name")
	}

	name, kind, hinted := model.SplitHintKey(field)
	f := Filter{Field: name, Op: op, Kind: kind, Hinted: hinted}

	if op.Range() {
		if strings.Contains(rhs, ",") {
			return Filter{}, errorf(clause, "", "range operators take a single value")
		}
		if strings.TrimSpace(rhs) == "" {
			return Filter{}, errorf(clause, "", "missing value")
		}
		f.Values = []string{rhs}
		return f, nil
	}

	values := strings.Split(rhs, ",")
	for _, v := range values {
		if v == "" {
			return Filter{}, errorf(clause, "", "missing value")
		}
	}
	f.Values = values
	return f, nil
}

// splitClause finds the first operator in the clause and splits around it.
func splitClause(s string) (field string, op Op, rhs string, ok bool) {
	for i := 0; i < len(s); i++ {
		for _, t := range opTokens {
			if strings.HasPrefix(s[i:], t.text) {
				return s[:i], t.op, s[i+len(t.text):], true
			}
		}
	}
	return "", 0, "", false
}

// ParseSort parses a comma-separated sort spec like "severity-,title".
func ParseSort(spec string) ([]Sort, error) {
	if strings.TrimSpace(spec) == "" {
		return nil, nil
	}

	var sorts []Sort
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, errorf(spec, "", "empty sort key")
		}

		desc := false
		switch part[len(part)-1] {
		case '-':
			desc = true
			part = part[:len(part)-1]
		case '+':
			part = part[:len(part)-1]
		}
		if part == "" {
			return nil, errorf(spec, "", "empty sort key")
		}

		// Hints are accepted on sort keys for symmetry but carry no
		// meaning; sorting is typed by the stored values.
		name, _, _ := model.SplitHintKey(part)
		sorts = append(sorts, Sort{Field: name, Descending: desc})
	}
	return sorts, nil
}
