package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/munin/internal/tracker"
	"github.com/aidanlsb/munin/internal/ui"
)

var (
	importTemplate string
	importID       string
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import an external markdown file as a record",
	Long: `Brings an outside markdown file under management. Front matter keys
become field values; a file without front matter imports as pure body.

Values for non-editable fields in the incoming content are discarded and
re-derived under the importing identity — imported files never smuggle in
their own created_at or created_by. Defaults and validation apply exactly
as for mun create. A missing title falls back to the file's first heading.

Examples:
  mun import ~/notes/incident.md
  mun import postmortem.md --template bug --id PM-2026-08`,
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

		content, err := tracker.ReadFileContent(args[0])
		if err != nil {
			return handleError(ErrFileNotFound, err, "")
		}

		result, err := t.ImportRecord(writeContext(db), content, tracker.ImportRecordParams{
			Template: importTemplate,
			ID:       importID,
		})
		if err != nil {
			return writeError(err)
		}

		warnings := make([]Warning, len(result.Dropped))
		for i, name := range result.Dropped {
			warnings[i] = Warning{
				Code:    WarnFieldDropped,
				Message: fmt.Sprintf("incoming value for non-editable field %q was discarded and re-derived", name),
			}
		}

		if isJSONOutput() {
			outputSuccessWithWarnings(viewOfRecord(result.Record), warnings, nil)
			return nil
		}

		fmt.Println(ui.Successf("Imported %s: %s", ui.ID(result.Record.ID), result.Record.Title()))
		for _, w := range warnings {
			fmt.Println(ui.Warning(w.Message))
		}
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importTemplate, "template", "", "Template to import into")
	importCmd.Flags().StringVar(&importID, "id", "", "Custom record id instead of a generated one")
	rootCmd.AddCommand(importCmd)
}
