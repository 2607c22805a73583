// Package cli implements the command-line interface.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/munin/internal/config"
	"github.com/aidanlsb/munin/internal/ident"
	"github.com/aidanlsb/munin/internal/tracker"
	"github.com/aidanlsb/munin/internal/ui"
)

var (
	// Global flags
	trackerName     string // Named tracker from config
	trackerPathFlag string // Explicit path
	configPathFlag  string
	asNameFlag      string
	asEmailFlag     string

	// Resolved values
	resolvedTrackerPath string
	cfg                 *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "mun",
	Short: "Munin - a plain-text record tracker",
	Long: `Munin tracks records (issues, observations, decisions) and their notes as
plain markdown files with typed, schema-validated front matter. A rebuildable
SQLite index keeps field queries fast; the files stay the source of truth.

Named for Odin's raven Muninn (memory).`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Commands that work without a tracker skip resolution.
		switch cmd.Name() {
		case "init", "config", "completion", "help", "version", "docs":
			return nil
		}
		if cmd.Parent() != nil && (cmd.Parent().Name() == "completion" || cmd.Parent().Name() == "config" || cmd.Parent().Name() == "tracker") {
			return nil
		}

		var err error
		cfg, err = loadGlobalConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		// Resolve tracker path: explicit path > named tracker > discovery
		// from the working directory > default tracker.
		if trackerPathFlag != "" {
			resolvedTrackerPath = trackerPathFlag
		} else if trackerName != "" {
			resolvedTrackerPath, err = cfg.GetTrackerPath(trackerName)
			if err != nil {
				return fmt.Errorf("tracker '%s' not found\n\nRun 'mun config tracker list' to see configured trackers", trackerName)
			}
		} else if discovered, derr := discoverTracker(); derr == nil {
			resolvedTrackerPath = discovered
		} else {
			resolvedTrackerPath, err = cfg.GetTrackerPath("")
			if err != nil {
				return fmt.Errorf(`no tracker specified

Either:
  1. Run inside a tracker directory
  2. Use --tracker <name> (from config)
  3. Use --tracker-path /path/to/tracker
  4. Set default_tracker in ~/.config/munin/config.toml
  5. Run 'mun init /path/to/new/tracker' to create one`)
			}
		}

		if _, err := os.Stat(resolvedTrackerPath); os.IsNotExist(err) {
			return fmt.Errorf("tracker not found: %s\n\nRun 'mun init %s' to create it", resolvedTrackerPath, resolvedTrackerPath)
		}
		return nil
	},
}

// Execute runs the CLI.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil && !errors.Is(err, errReported) {
		fmt.Fprintln(os.Stderr, ui.Error(err.Error()))
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&trackerName, "tracker", "t", "", "Named tracker from config")
	rootCmd.PersistentFlags().StringVar(&trackerPathFlag, "tracker-path", "", "Explicit path to tracker directory")
	rootCmd.PersistentFlags().StringVar(&configPathFlag, "config", "", "Path to global config file")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format (for agent/script use)")
	rootCmd.PersistentFlags().StringVar(&asNameFlag, "as-name", "", "Act as this user name for one invocation")
	rootCmd.PersistentFlags().StringVar(&asEmailFlag, "as-email", "", "Act as this user email for one invocation")
}

// getTrackerPath returns the resolved tracker path.
func getTrackerPath() string {
	return resolvedTrackerPath
}

// getConfig returns the loaded global config.
func getConfig() *config.Config {
	if cfg == nil {
		return &config.Config{}
	}
	return cfg
}

// actingIdentity resolves who is running this invocation.
func actingIdentity() ident.Identity {
	return ident.Resolve(ident.Overrides{Name: asNameFlag, Email: asEmailFlag}, getConfig())
}

func loadGlobalConfig() (*config.Config, error) {
	var loaded *config.Config
	var err error
	if configPathFlag != "" {
		loaded, err = config.LoadFrom(configPathFlag)
	} else {
		loaded, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if loaded == nil {
		loaded = &config.Config{}
	}
	return loaded, nil
}

func discoverTracker() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return tracker.Discover(wd)
}
