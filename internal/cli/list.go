package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/munin/internal/lastresults"
	"github.com/aidanlsb/munin/internal/model"
	"github.com/aidanlsb/munin/internal/schema"
	"github.com/aidanlsb/munin/internal/ui"
)

var (
	listSearchFlags []string
	listSortFlag    string
	listLimitFlag   int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List records matching field filters",
	Long: `Queries the index over record fields. Clauses AND together; a comma list
in one clause matches any of its values. Range operators work on numeric
fields (declared in the schema, or type-hinted like count__integer).

The result numbers are saved: follow-up commands accept them in place of
ids (mun view 1, mun update 2 ...).

Examples:
  mun list
  mun list -k status=open
  mun list -k status=open,blocked -k tags=infra
  mun list -k severity>=3 -s severity- --limit 10
  mun list -s updated_at-`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := openTracker()
		if err != nil {
			return err
		}
		db, err := openDatabase(t)
		if err != nil {
			return err
		}
		defer db.Close()

		q, err := parseQueryFlags(t, schema.ScopeRecord, listSearchFlags, listSortFlag)
		if err != nil {
			return writeError(err)
		}

		records, err := db.SearchRecords(q, listLimitFlag)
		if err != nil {
			return handleError(ErrDatabaseError, err, "")
		}

		ids := make([]string, len(records))
		for i, r := range records {
			ids[i] = r.ID
		}
		if err := lastresults.Write(t, "list", listSearchFlags, ids); err != nil {
			// Numbered refs are a convenience; the listing still stands.
			if !isJSONOutput() {
				fmt.Println(ui.Warningf("could not save result numbers: %v", err))
			}
		}

		if isJSONOutput() {
			views := make([]recordView, len(records))
			for i, r := range records {
				views[i] = viewOfRecord(r)
			}
			outputSuccess(map[string]interface{}{"records": views}, &Meta{Count: len(views)})
			return nil
		}

		if len(records) == 0 {
			fmt.Println(ui.Hint("No records match"))
			return nil
		}

		display := ui.NewDisplayContext()
		table := ui.NewResultsTable(display, ui.ListLayout)
		for i, r := range records {
			table.AddRow(
				ui.FormatRowNum(i+1, len(records)),
				r.ID,
				r.Title(),
				recordMeta(r),
			)
		}
		fmt.Print(table.Render())
		fmt.Println(ui.Hint(ui.Count(len(records), "record", "records")))
		return nil
	},
}

// recordMeta summarizes status-ish fields for the listing table.
func recordMeta(r *model.Record) string {
	var parts []string
	if v, ok := r.Fields.First("status"); ok && !v.IsEmpty() {
		parts = append(parts, v.Render())
	}
	if r.Template != "" {
		parts = append(parts, r.Template)
	}
	if vals, ok := r.Fields.Get("tags"); ok && len(vals) > 0 {
		rendered := make([]string, len(vals))
		for i, v := range vals {
			rendered[i] = v.Render()
		}
		parts = append(parts, strings.Join(rendered, ","))
	}
	return strings.Join(parts, " · ")
}

func init() {
	listCmd.Flags().StringArrayVarP(&listSearchFlags, "search", "k", nil, "Filter clause (can be repeated): -k status=open")
	listCmd.Flags().StringVarP(&listSortFlag, "sort", "s", "", "Sort keys: -s severity-,title")
	listCmd.Flags().IntVar(&listLimitFlag, "limit", 0, "Maximum results (0 = all)")
	rootCmd.AddCommand(listCmd)
}
