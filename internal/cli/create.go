package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/munin/internal/ids"
	"github.com/aidanlsb/munin/internal/tracker"
	"github.com/aidanlsb/munin/internal/ui"
)

var (
	createFieldFlags  []string
	createTemplate    string
	createID          string
	createIDFromTitle bool
	createBody        string
	createEdit        bool
)

var createCmd = &cobra.Command{
	Use:   "create [title]",
	Short: "Create a record",
	Long: `Creates a record file under records/ and indexes it.

System-valued fields (created_at, created_by, ...) are always derived;
defaults fill empty fields; required and accepted-value constraints are
checked before anything is written. A template selects the id prefix, field
overrides, and an optional body scaffold.

Examples:
  mun create "Checkout intermittently 500s"
  mun create "Login broken" --template bug --field severity=3
  mun create "Rollout plan" --field tags=infra --field tags=q3
  mun create "DB upgrade" --id DB-UPGRADE-2026
  mun create "Flaky test" --id-from-title   # id REC-FLAKY-TEST`,
	Args: cobra.MaximumNArgs(1),
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

		title := ""
		if len(args) == 1 {
			title = args[0]
		}

		fields, err := parseFieldFlags(createFieldFlags)
		if err != nil {
			return handleError(ErrInvalidInput, err, "Use --field name=value")
		}

		customID := createID
		if createIDFromTitle {
			if title == "" {
				return handleErrorMsg(ErrMissingArgument, "--id-from-title needs a title", "")
			}
			customID, err = ids.FromTitle(title, t.Config.RecordIDPrefix(createTemplate))
			if err != nil {
				return handleError(ErrInvalidInput, err, "")
			}
		}

		record, err := t.CreateRecord(writeContext(db), tracker.CreateRecordParams{
			Template: createTemplate,
			ID:       customID,
			Title:    title,
			Fields:   fields,
			Body:     createBody,
		})
		if err != nil {
			return writeError(err)
		}

		if isJSONOutput() {
			outputSuccess(viewOfRecord(record), nil)
			return nil
		}

		fmt.Println(ui.Successf("Created %s: %s", ui.ID(record.ID), record.Title()))
		fmt.Println(ui.FilePath(record.Path))

		if createEdit {
			editor := tracker.ResolveEditor(getConfig().GetEditor())
			if err := tracker.OpenInEditor(editor, t.RecordPath(record.ID)); err != nil {
				return handleError(ErrInternal, err, "Set editor in config or $EDITOR")
			}
			return reindexAfterEdit(t, db, record.ID)
		}
		return nil
	},
}

func init() {
	createCmd.Flags().StringArrayVar(&createFieldFlags, "field", nil, "Set field value (can be repeated): --field name=value")
	createCmd.Flags().StringVar(&createTemplate, "template", "", "Template to create from")
	createCmd.Flags().StringVar(&createID, "id", "", "Custom record id instead of a generated one")
	createCmd.Flags().BoolVar(&createIDFromTitle, "id-from-title", false, "Derive a slug id from the title")
	createCmd.Flags().StringVar(&createBody, "body", "", "Record body text")
	createCmd.Flags().BoolVar(&createEdit, "edit", false, "Open the new record in $EDITOR")
	rootCmd.AddCommand(createCmd)
}
