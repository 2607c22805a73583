package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/munin/internal/model"
	"github.com/aidanlsb/munin/internal/ui"
)

var notesCmd = &cobra.Command{
	Use:   "notes <id|num>",
	Short: "List a record's notes",
	Long: `Shows every note on a record, oldest first. Notes are read from their
files (source of truth), not the index.

Examples:
  mun notes REC-1A2B3C4D
  mun notes 1 --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := openTracker()
		if err != nil {
			return err
		}

		recordID, err := resolveRecordArg(t, args[0])
		if err != nil {
			return err
		}
		record, err := t.LoadRecord(recordID)
		if err != nil {
			return writeError(err)
		}

		// Note ids are time-sortable; sorted directory order is creation
		// order.
		noteIDs, err := t.NoteFiles(recordID)
		if err != nil {
			return handleError(ErrInternal, err, "")
		}

		notes := make([]*model.Note, 0, len(noteIDs))
		for _, noteID := range noteIDs {
			note, err := t.LoadNote(recordID, noteID)
			if err != nil {
				return writeError(err)
			}
			notes = append(notes, note)
		}

		if isJSONOutput() {
			views := make([]noteView, len(notes))
			for i, n := range notes {
				views[i] = viewOfNote(n)
			}
			outputSuccess(map[string]interface{}{
				"record": recordID,
				"notes":  views,
			}, &Meta{Count: len(views)})
			return nil
		}

		fmt.Println(ui.Header(fmt.Sprintf("%s: %s", recordID, record.Title())))
		if len(notes) == 0 {
			fmt.Println(ui.Hint("No notes yet"))
			return nil
		}
		for _, n := range notes {
			fmt.Println()
			fmt.Println(ui.ID(n.ID))
			for _, name := range n.Fields.Names() {
				vals, _ := n.Fields.Get(name)
				parts := make([]string, len(vals))
				for i, v := range vals {
					parts[i] = v.Render()
				}
				fmt.Printf("  %s %s\n", ui.Hint(name+":"), strings.Join(parts, ", "))
			}
			if n.Body != "" {
				fmt.Println(indent(strings.TrimRight(n.Body, "\n"), "  "))
			}
		}
		return nil
	},
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}

func init() {
	rootCmd.AddCommand(notesCmd)
}
