package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/munin/internal/tracker"
	"github.com/aidanlsb/munin/internal/ui"
)

var (
	updateFieldFlags []string
	updateUnsetFlags []string
	updateBodyFlag   string
	updateNoNote     bool
)

var updateCmd = &cobra.Command{
	Use:   "update <id|num>",
	Short: "Update a record's fields or body",
	Long: `Applies field changes to a record, rewrites its file, and refreshes its
index rows.

Targeting a non-editable field fails the whole update. Editable
system-valued fields (updated_at in the default schema) refresh on every
update whether or not you mention them. Setting a field to an empty value
removes it; --unset does the same by name. Unless --no-note is given, a
note recording the previous values of changed fields is appended.

Examples:
  mun update REC-1A2B3C4D --field status=closed
  mun update 1 --field tags=infra --field tags=urgent
  mun update 2 --unset severity
  mun update 3 --body "Rewritten description" --no-note`,
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

		changes, err := parseFieldFlags(updateFieldFlags)
		if err != nil {
			return handleError(ErrInvalidInput, err, "Use --field name=value")
		}

		// An explicit empty value is a removal.
		removals := append([]string{}, updateUnsetFlags...)
		for _, name := range changes.Names() {
			if vals, _ := changes.Get(name); len(vals) == 1 && vals[0].IsEmpty() {
				changes.Delete(name)
				removals = append(removals, name)
			}
		}

		params := tracker.UpdateRecordParams{
			Changes:  changes,
			Removals: removals,
			SkipNote: updateNoNote,
		}
		if cmd.Flags().Changed("body") {
			params.Body = &updateBodyFlag
		}

		record, note, err := t.UpdateRecord(writeContext(db), id, params)
		if err != nil {
			return writeError(err)
		}

		if isJSONOutput() {
			data := map[string]interface{}{"record": viewOfRecord(record)}
			if note != nil {
				data["change_note"] = viewOfNote(note)
			}
			outputSuccess(data, nil)
			return nil
		}

		fmt.Println(ui.Successf("Updated %s: %s", ui.ID(record.ID), record.Title()))
		if note != nil {
			fmt.Println(ui.Hint("change note " + note.ID))
		}
		return nil
	},
}

func init() {
	updateCmd.Flags().StringArrayVar(&updateFieldFlags, "field", nil, "Set field value (can be repeated): --field name=value")
	updateCmd.Flags().StringArrayVar(&updateUnsetFlags, "unset", nil, "Remove a field (can be repeated)")
	updateCmd.Flags().StringVar(&updateBodyFlag, "body", "", "Replace the record body")
	updateCmd.Flags().BoolVar(&updateNoNote, "no-note", false, "Skip the generated change note")
	rootCmd.AddCommand(updateCmd)
}
