package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/munin/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the tracker and keep the index updated",
	Long: `Watches the records and notes directories and updates the index as
files change. Runs in the foreground until interrupted.

The watcher debounces rapid writes (100ms after the last change),
ignores .munin/ and .git/, and indexes one file at a time. A changed
record also re-indexes its notes, since the record's template decides
how they are read.

Examples:
  mun watch
  mun watch --debug
  mun watch --tracker-path /path/to/tracker`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().Bool("debug", false, "Enable debug logging")
}

func runWatch(cmd *cobra.Command, args []string) error {
	debug, _ := cmd.Flags().GetBool("debug")

	t, err := openTracker()
	if err != nil {
		return err
	}
	db, err := openDatabase(t)
	if err != nil {
		return err
	}
	defer db.Close()

	w, err := watcher.New(watcher.Config{
		Tracker:  t,
		Database: db,
		Debug:    debug,
		OnUpdate: func(path string, err error) {
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error indexing %s: %v\n", path, err)
			} else if debug {
				fmt.Printf("Indexed: %s\n", path)
			}
		},
	})
	if err != nil {
		return handleError(ErrInternal, err, "")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nShutting down watcher...")
		cancel()
	}()

	fmt.Printf("Watching tracker: %s\n", t.Root)
	fmt.Println("Press Ctrl+C to stop")

	if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return handleError(ErrInternal, err, "")
	}
	return nil
}
