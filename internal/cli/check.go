package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/munin/internal/parser"
	"github.com/aidanlsb/munin/internal/schema"
	"github.com/aidanlsb/munin/internal/ui"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate every file without writing anything",
	Long: `Parses every record and note file and runs schema validation over its
fields. Nothing is written: not the files, not the index. Exit status is
non-zero when any file fails.

Use this after hand edits, merges, or before committing the tracker.

Examples:
  mun check
  mun check --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := openTracker()
		if err != nil {
			return err
		}

		type problem struct {
			Path    string `json:"path"`
			Message string `json:"message"`
		}
		var problems []problem
		checked := 0

		recordIDs, err := t.RecordFiles()
		if err != nil {
			return handleError(ErrInternal, err, "")
		}
		templates := make(map[string]string)
		for _, id := range recordIDs {
			checked++
			relPath := t.RecordRelPath(id)
			content, err := os.ReadFile(t.RecordPath(id))
			if err != nil {
				problems = append(problems, problem{Path: relPath, Message: err.Error()})
				continue
			}
			record, err := parser.DecodeRecord(content, id, relPath, t.Config)
			if err != nil {
				problems = append(problems, problem{Path: relPath, Message: err.Error()})
				continue
			}
			templates[id] = record.Template

			ctx, err := t.Config.Resolve(schema.ScopeRecord, record.Template)
			if err != nil {
				problems = append(problems, problem{Path: relPath, Message: err.Error()})
				continue
			}
			if verrs := schema.NewApplier(ctx).Validate(record.Fields); len(verrs) > 0 {
				problems = append(problems, problem{Path: relPath, Message: verrs.Error()})
			}
		}

		noteDirs, err := t.NoteDirs()
		if err != nil {
			return handleError(ErrInternal, err, "")
		}
		for _, recordID := range noteDirs {
			templateID, ok := templates[recordID]
			noteIDs, err := t.NoteFiles(recordID)
			if err != nil {
				return handleError(ErrInternal, err, "")
			}
			for _, noteID := range noteIDs {
				checked++
				relPath := t.NoteRelPath(recordID, noteID)
				if !ok {
					problems = append(problems, problem{Path: relPath, Message: fmt.Sprintf("owning record %s is missing or unparseable", recordID)})
					continue
				}
				content, err := os.ReadFile(t.NotePath(recordID, noteID))
				if err != nil {
					problems = append(problems, problem{Path: relPath, Message: err.Error()})
					continue
				}
				note, err := parser.DecodeNote(content, noteID, relPath, recordID, templateID, t.Config)
				if err != nil {
					problems = append(problems, problem{Path: relPath, Message: err.Error()})
					continue
				}

				ctx, err := t.Config.Resolve(schema.ScopeNote, templateID)
				if err != nil {
					problems = append(problems, problem{Path: relPath, Message: err.Error()})
					continue
				}
				if verrs := schema.NewApplier(ctx).Validate(note.Fields); len(verrs) > 0 {
					problems = append(problems, problem{Path: relPath, Message: verrs.Error()})
				}
			}
		}

		if isJSONOutput() {
			if len(problems) > 0 {
				return handleErrorWithDetails(ErrValidationFailed,
					fmt.Sprintf("%d of %d files failed validation", len(problems), checked),
					"", problems)
			}
			outputSuccess(map[string]interface{}{"checked": checked}, &Meta{Count: checked})
			return nil
		}

		if len(problems) == 0 {
			fmt.Println(ui.Successf("All %s valid", ui.Count(checked, "file", "files")))
			return nil
		}
		for _, p := range problems {
			fmt.Println(ui.Errorf("%s: %s", ui.FilePath(p.Path), p.Message))
		}
		return fmt.Errorf("%d of %d files failed validation", len(problems), checked)
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
