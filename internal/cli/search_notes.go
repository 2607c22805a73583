package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/munin/internal/schema"
	"github.com/aidanlsb/munin/internal/ui"
)

var (
	searchNotesSearchFlags []string
	searchNotesSortFlag    string
	searchNotesLimitFlag   int
	searchNotesRecordFlag  string
)

var searchNotesCmd = &cobra.Command{
	Use:   "search-notes",
	Short: "Query note fields across records",
	Long: `Queries the index over note-scope fields, across every record or
restricted to one with --record. The query language is the same as for
mun list.

Examples:
  mun search-notes -k created_by=freya
  mun search-notes -k kind=analysis --record REC-1A2B3C4D
  mun search-notes -k effort__integer>=2 -s created_at-`,
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

		recordID := searchNotesRecordFlag
		if recordID != "" {
			if recordID, err = resolveRecordArg(t, recordID); err != nil {
				return err
			}
		}

		q, err := parseQueryFlags(t, schema.ScopeNote, searchNotesSearchFlags, searchNotesSortFlag)
		if err != nil {
			return writeError(err)
		}

		notes, err := db.SearchNotes(q, recordID, searchNotesLimitFlag)
		if err != nil {
			return handleError(ErrDatabaseError, err, "")
		}

		if isJSONOutput() {
			views := make([]noteView, len(notes))
			for i, n := range notes {
				views[i] = viewOfNote(n)
			}
			outputSuccess(map[string]interface{}{"notes": views}, &Meta{Count: len(views)})
			return nil
		}

		if len(notes) == 0 {
			fmt.Println(ui.Hint("No notes match"))
			return nil
		}
		for _, n := range notes {
			fmt.Printf("%s  %s\n", ui.ID(n.ID), ui.Hint("on "+n.Record))
			if n.Body != "" {
				fmt.Println(indent(ui.TruncateWithEllipsis(firstLine(n.Body), 100), "  "))
			}
		}
		fmt.Println(ui.Hint(ui.Count(len(notes), "note", "notes")))
		return nil
	},
}

func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	return s
}

func init() {
	searchNotesCmd.Flags().StringArrayVarP(&searchNotesSearchFlags, "search", "k", nil, "Filter clause (can be repeated)")
	searchNotesCmd.Flags().StringVarP(&searchNotesSortFlag, "sort", "s", "", "Sort keys")
	searchNotesCmd.Flags().IntVar(&searchNotesLimitFlag, "limit", 0, "Maximum results (0 = all)")
	searchNotesCmd.Flags().StringVar(&searchNotesRecordFlag, "record", "", "Restrict to one record's notes")
	rootCmd.AddCommand(searchNotesCmd)
}
