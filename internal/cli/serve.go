package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/munin/internal/serve"
	"github.com/aidanlsb/munin/internal/watcher"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve requests over stdin/stdout for editors and agents",
	Long: `Runs a long-lived process speaking newline-delimited JSON: one request
per line on stdin, one response per line on stdout, strictly in order.
This avoids per-call process startup for callers making many requests.

Writes go through the same validation pipeline as the CLI, and error
codes match the CLI's --json codes. See 'mun docs serve' for the
protocol.

Examples:
  mun serve
  mun serve --watch`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		withWatch, _ := cmd.Flags().GetBool("watch")

		t, err := openTracker()
		if err != nil {
			return err
		}
		db, err := openDatabase(t)
		if err != nil {
			return err
		}
		defer db.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		if withWatch {
			w, err := watcher.New(watcher.Config{Tracker: t, Database: db})
			if err != nil {
				return handleError(ErrInternal, err, "")
			}
			go func() {
				if err := w.Start(ctx); err != nil && ctx.Err() == nil {
					fmt.Fprintf(os.Stderr, "[munin-serve] watcher stopped: %v\n", err)
				}
			}()
		}

		id := actingIdentity()
		srv := serve.New(t, db, serve.Identity{Name: id.Name, Email: id.Email})

		fmt.Fprintf(os.Stderr, "[munin-serve] serving tracker %s\n", t.Root)
		if err := srv.Run(); err != nil {
			return handleError(ErrInternal, err, "")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().Bool("watch", false, "Also keep the index in step with file changes")
}
