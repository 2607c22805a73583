package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/aidanlsb/munin/internal/tracker"
	"github.com/aidanlsb/munin/internal/ui"
)

var noteFieldFlags []string

var noteCmd = &cobra.Command{
	Use:   "note <id|num> [body]",
	Short: "Add a note to a record",
	Long: `Appends a note to a record. Notes carry their own field namespace
([note_special_fields] in the config) and a body. System-valued note
fields (created_at, created_by) are derived at write time.

The body comes from the argument, or from stdin when piped.

Examples:
  mun note REC-1A2B3C4D "Reproduced on staging with v2.14"
  mun note 1 "Root cause: stale cache" --field kind=analysis
  git log -1 | mun note 2`,
	Args: cobra.RangeArgs(1, 2),
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

		recordID, err := resolveRecordArg(t, args[0])
		if err != nil {
			return err
		}

		body := ""
		if len(args) == 2 {
			body = args[1]
		} else if !isatty.IsTerminal(os.Stdin.Fd()) {
			piped, err := io.ReadAll(os.Stdin)
			if err != nil {
				return handleError(ErrInvalidInput, err, "")
			}
			body = string(piped)
		}
		if body == "" {
			return handleErrorMsg(ErrMissingArgument, "note body is required", "Pass it as an argument or pipe it on stdin")
		}

		fields, err := parseFieldFlags(noteFieldFlags)
		if err != nil {
			return handleError(ErrInvalidInput, err, "Use --field name=value")
		}

		note, err := t.AddNote(writeContext(db), recordID, tracker.AddNoteParams{
			Fields: fields,
			Body:   body,
		})
		if err != nil {
			return writeError(err)
		}

		if isJSONOutput() {
			outputSuccess(viewOfNote(note), nil)
			return nil
		}

		fmt.Println(ui.Successf("Added note %s to %s", ui.ID(note.ID), ui.ID(recordID)))
		return nil
	},
}

func init() {
	noteCmd.Flags().StringArrayVar(&noteFieldFlags, "field", nil, "Set note field value (can be repeated)")
	rootCmd.AddCommand(noteCmd)
}
