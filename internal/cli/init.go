package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/munin/internal/index"
	"github.com/aidanlsb/munin/internal/tracker"
	"github.com/aidanlsb/munin/internal/ui"
)

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Create a new tracker",
	Long: `Creates the tracker layout at the given path (default: current directory):

  .munin/config.toml   schema configuration with commented defaults
  .munin/templates/    body scaffolds referenced by templates
  records/             one markdown file per record
  notes/               per-record note directories

Existing files are left alone, so running init in a tracker is harmless.

Examples:
  mun init               # initialize the current directory
  mun init ~/track/work  # initialize a new directory`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "."
		if len(args) == 1 {
			path = args[0]
		}

		t, err := tracker.Init(path)
		if err != nil {
			return handleError(ErrFileWriteError, err, "")
		}

		db, err := index.Open(t.Root)
		if err != nil {
			return handleError(ErrDatabaseError, err, "")
		}
		defer db.Close()
		if _, err := tracker.Reindex(t, db); err != nil {
			return handleError(ErrDatabaseError, err, "")
		}

		if isJSONOutput() {
			outputSuccess(map[string]interface{}{
				"root":   t.Root,
				"config": t.ConfigPath(),
			}, nil)
			return nil
		}

		fmt.Println(ui.Successf("Initialized tracker at %s", ui.FilePath(t.Root)))
		fmt.Println(ui.Hint("Edit " + t.ConfigPath() + " to configure fields and templates"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
