package cli

import (
	"github.com/spf13/cobra"

	"github.com/aidanlsb/munin/internal/index"
	"github.com/aidanlsb/munin/internal/tracker"
)

var openCmd = &cobra.Command{
	Use:   "open <id|num>",
	Short: "Open a record file in your editor",
	Long: `Opens the record file in the configured editor ($VISUAL/$EDITOR or the
editor key in the global config) and reindexes it when the editor exits, so
hand edits show up in queries immediately.

Examples:
  mun open REC-1A2B3C4D
  mun open 2             # second result of the last listing`,
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
		if !t.RecordExists(id) {
			return writeError(&tracker.NotFoundError{Kind: "record", ID: id})
		}

		editor := tracker.ResolveEditor(getConfig().GetEditor())
		if err := tracker.OpenInEditor(editor, t.RecordPath(id)); err != nil {
			return handleError(ErrInternal, err, "Set editor in config or $EDITOR")
		}
		return reindexAfterEdit(t, db, id)
	},
}

// reindexAfterEdit re-reads a record after an editor session so its index
// rows keep matching the file the user just changed.
func reindexAfterEdit(t *tracker.Tracker, db *index.Database, id string) error {
	record, err := t.LoadRecord(id)
	if err != nil {
		return writeError(err)
	}
	if err := db.ReplaceRecord(record, 0); err != nil {
		return handleError(ErrDatabaseError, err, "Run 'mun reindex'")
	}
	return nil
}

func init() {
	rootCmd.AddCommand(openCmd)
}
