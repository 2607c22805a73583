package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/munin/internal/ui"
)

var deleteForce bool

var deleteCmd = &cobra.Command{
	Use:   "delete <id|num>",
	Short: "Delete a record and its notes",
	Long: `Removes a record's file, its entire note directory, and every index row
belonging to it or its notes.

On a terminal this asks for confirmation; --force (or --json) skips the
prompt. There is no undo beyond your version control.

Examples:
  mun delete REC-1A2B3C4D
  mun delete 3 --force`,
	Args: cobra.ExactArgs(1),
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

		id, err := resolveRecordArg(t, args[0])
		if err != nil {
			return err
		}
		record, err := t.LoadRecord(id)
		if err != nil {
			return writeError(err)
		}
		noteIDs, err := t.NoteFiles(id)
		if err != nil {
			return handleError(ErrInternal, err, "")
		}

		if !deleteForce && !isJSONOutput() {
			msg := fmt.Sprintf("Delete %s (%s)", record.ID, record.Title())
			if len(noteIDs) > 0 {
				msg += fmt.Sprintf(" and %s", ui.Count(len(noteIDs), "note", "notes"))
			}
			if !promptForConfirm(msg + "?") {
				fmt.Println(ui.Hint("Aborted"))
				return nil
			}
		}
		if !deleteForce && isJSONOutput() {
			return handleErrorMsg(ErrInvalidInput, "delete requires --force in JSON mode", "Re-run with --force")
		}

		if err := t.DeleteRecord(writeContext(db), id); err != nil {
			return writeError(err)
		}

		if isJSONOutput() {
			outputSuccess(map[string]interface{}{
				"deleted": id,
				"notes":   len(noteIDs),
			}, nil)
			return nil
		}

		fmt.Println(ui.Successf("Deleted %s (%s)", ui.ID(id), ui.Count(len(noteIDs), "note", "notes")))
		return nil
	},
}

func init() {
	deleteCmd.Flags().BoolVar(&deleteForce, "force", false, "Skip the confirmation prompt")
	rootCmd.AddCommand(deleteCmd)
}
