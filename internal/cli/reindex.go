package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/munin/internal/index"
	"github.com/aidanlsb/munin/internal/tracker"
	"github.com/aidanlsb/munin/internal/ui"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the index from the files on disk",
	Long: `Drops the index contents and rebuilds them by walking every record and
note file. The rebuild runs in a single transaction under a lock, so
concurrent readers keep seeing the old contents until it commits.

Files that fail to parse are skipped and reported; the rebuild still
succeeds without them.

Examples:
  mun reindex
  mun reindex --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := openTracker()
		if err != nil {
			return err
		}
		db, err := index.Open(t.Root)
		if err != nil {
			return handleError(ErrInternal, err, "")
		}
		defer db.Close()

		spinner := ui.NewSpinner("Rebuilding index...")
		spinner.Start()
		stats, err := tracker.Reindex(t, db)
		spinner.Stop()
		if err != nil {
			if errors.Is(err, index.ErrIndexLocked) {
				return handleError(ErrIndexLocked, err, "another rebuild is in progress; retry in a moment")
			}
			return handleError(ErrInternal, err, "")
		}

		if isJSONOutput() {
			var warnings []Warning
			for _, skip := range stats.Skipped {
				warnings = append(warnings, Warning{
					Code:    WarnParseSkipped,
					Message: fmt.Sprintf("%s: %v", skip.Path, skip.Err),
				})
			}
			outputSuccessWithWarnings(map[string]interface{}{
				"records": stats.Records,
				"notes":   stats.Notes,
				"skipped": len(stats.Skipped),
			}, warnings, nil)
			return nil
		}

		fmt.Println(ui.Successf("Indexed %s and %s",
			ui.Count(stats.Records, "record", "records"),
			ui.Count(stats.Notes, "note", "notes")))
		for _, skip := range stats.Skipped {
			fmt.Println(ui.Warningf("skipped %s: %v", ui.FilePath(skip.Path), skip.Err))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reindexCmd)
}
