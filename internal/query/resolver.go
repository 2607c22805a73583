package query

import (
	"strconv"
	"strings"

	"github.com/aidanlsb/munin/internal/model"
)

// KindOf reports the declared scalar kind of a field, or false when the
// schema does not declare it anywhere.
type KindOf func(field string) (model.Kind, bool)

// Resolve settles each filter's comparison kind against the schema and
// pre-parses numeric comparisons. It must run before execution: range
// operators on non-numeric fields fail here, before any index access.
func (q *Query) Resolve(kindOf KindOf) error {
	for i := range q.Filters {
		f := &q.Filters[i]

		if !f.Hinted {
			if kind, ok := kindOf(f.Field); ok {
				f.Kind = kind
			}
		}

		if f.Op.Range() && !f.Numeric() {
			return errorf(f.Field+f.Op.String()+f.Values[0],
				"range operators need an integer or float field; hint custom fields like count__integer>=2",
				"field %q is not numeric", f.Field)
		}

		if !f.Numeric() {
			continue
		}
		f.Nums = make([]float64, len(f.Values))
		for j, v := range f.Values {
			n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return errorf(f.Field+f.Op.String()+strings.Join(f.Values, ","),
					"", "value %q is not a number", v)
			}
			f.Nums[j] = n
		}
	}
	return nil
}
