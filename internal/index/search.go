package index

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/aidanlsb/munin/internal/model"
	"github.com/aidanlsb/munin/internal/query"
	"github.com/aidanlsb/munin/internal/sqlutil"
)

// SearchRecords executes a resolved query against record-scope field rows.
// Results are sorted by the query's sort keys (id ascending when none) and
// truncated to limit when limit > 0. An empty index yields an empty slice,
// not an error.
func (d *Database) SearchRecords(q *query.Query, limit int) ([]*model.Record, error) {
	where, args := buildWhere(q.Filters, "fv.record_id = r.id AND fv.note_id IS NULL")

	rows, err := d.db.Query(`SELECT id, template, path, body FROM records r`+where+` ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	records, err := sqlutil.ScanRows(rows, func(rows *sql.Rows) (*model.Record, error) {
		r := &model.Record{}
		if err := rows.Scan(&r.ID, &r.Template, &r.Path, &r.Body); err != nil {
			return nil, err
		}
		return r, nil
	})
	if err != nil {
		return nil, err
	}

	for _, r := range records {
		if r.Fields, err = d.loadFields(r.ID, nil); err != nil {
			return nil, err
		}
	}

	if len(q.Sorts) > 0 {
		sort.SliceStable(records, func(i, j int) bool {
			return compareForSort(q.Sorts, records[i].Fields, records[j].Fields, records[i].ID, records[j].ID) < 0
		})
	}

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// SearchNotes executes a resolved query against note-scope field rows,
// optionally restricted to one record's notes (recordID empty means all).
func (d *Database) SearchNotes(q *query.Query, recordID string, limit int) ([]*model.Note, error) {
	where, args := buildWhere(q.Filters, "fv.note_id = n.id")
	if recordID != "" {
		if where == "" {
			where = " WHERE n.record_id = ?"
		} else {
			where += " AND n.record_id = ?"
		}
		args = append(args, recordID)
	}

	rows, err := d.db.Query(`SELECT id, record_id, path, body FROM notes n`+where+` ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query notes: %w", err)
	}
	notes, err := sqlutil.ScanRows(rows, func(rows *sql.Rows) (*model.Note, error) {
		n := &model.Note{}
		if err := rows.Scan(&n.ID, &n.Record, &n.Path, &n.Body); err != nil {
			return nil, err
		}
		return n, nil
	})
	if err != nil {
		return nil, err
	}

	for _, n := range notes {
		if n.Fields, err = d.loadFields(n.Record, &n.ID); err != nil {
			return nil, err
		}
	}

	if len(q.Sorts) > 0 {
		sort.SliceStable(notes, func(i, j int) bool {
			return compareForSort(q.Sorts, notes[i].Fields, notes[j].Fields, notes[i].ID, notes[j].ID) < 0
		})
	}

	if limit > 0 && len(notes) > limit {
		notes = notes[:limit]
	}
	return notes, nil
}

// buildWhere renders filters as EXISTS subqueries ANDed together. scope ties
// the field_values row to the outer entity.
func buildWhere(filters []query.Filter, scope string) (string, []any) {
	if len(filters) == 0 {
		return "", nil
	}

	var conds []string
	var args []any
	for i := range filters {
		cond, condArgs := filterCondition(&filters[i], scope)
		conds = append(conds, cond)
		args = append(args, condArgs...)
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func filterCondition(f *query.Filter, scope string) (string, []any) {
	inner := fmt.Sprintf("SELECT 1 FROM field_values fv WHERE %s AND fv.field = ?", scope)
	args := []any{f.Field}

	switch {
	case f.Op.Range():
		inner += fmt.Sprintf(" AND %s %s ?", numExpr, rangeSQL(f.Op))
		args = append(args, f.Nums[0])

	case f.Numeric():
		ph, numArgs := sqlutil.InClauseFloats(f.Nums)
		inner += fmt.Sprintf(" AND %s IN (%s)", numExpr, ph)
		args = append(args, numArgs...)

	default:
		ph, strArgs := sqlutil.InClauseArgs(f.Values)
		inner += fmt.Sprintf(" AND fv.value_string IN (%s)", ph)
		args = append(args, strArgs...)
	}

	if f.Op == query.OpNeq {
		return "NOT EXISTS (" + inner + ")", args
	}
	return "EXISTS (" + inner + ")", args
}

func rangeSQL(op query.Op) string {
	switch op {
	case query.OpLt:
		return "<"
	case query.OpLte:
		return "<="
	case query.OpGt:
		return ">"
	default:
		return ">="
	}
}

// compareForSort orders two entities by the sort keys in turn. Entities
// missing a sort field go last under either direction; ties break by id
// ascending. Multi-valued fields sort by their first value.
func compareForSort(sorts []query.Sort, aFields, bFields *model.FieldMap, aID, bID string) int {
	for _, s := range sorts {
		av, aok := aFields.First(s.Field)
		bv, bok := bFields.First(s.Field)
		switch {
		case !aok && !bok:
			continue
		case !aok:
			return 1
		case !bok:
			return -1
		}

		cmp := model.Compare(av, bv)
		if s.Descending {
			cmp = -cmp
		}
		if cmp != 0 {
			return cmp
		}
	}
	return strings.Compare(aID, bID)
}
