package cli

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/munin/internal/config"
	"github.com/aidanlsb/munin/internal/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage global config.toml settings",
	Long: `Manage the machine-level config file: registered trackers, the
default tracker, the editor, and the user identity stamped into
created_by fields.

The file lives at ~/.config/munin/config.toml (or $XDG_CONFIG_HOME).`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the default global config file if missing",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.DefaultPath()
		_, statErr := os.Stat(path)
		existed := statErr == nil

		createdPath, err := config.CreateDefault()
		if err != nil {
			return handleError(ErrFileWriteError, err, "")
		}

		if isJSONOutput() {
			outputSuccess(map[string]interface{}{
				"config_path": createdPath,
				"created":     !existed,
			}, nil)
			return nil
		}
		if existed {
			fmt.Printf("Config already exists: %s\n", createdPath)
		} else {
			fmt.Println(ui.Successf("Created %s", ui.FilePath(createdPath)))
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a global config value",
	Long: `Sets one config key and saves the file.

Keys:
  editor           Command used by 'mun open' and --edit
  default_tracker  Tracker name used when none is given or discovered
  user.name        Identity written into created_by fields
  user.email       Identity email

Examples:
  mun config set editor "code --wait"
  mun config set default_tracker work
  mun config set user.name "Ada Lovelace"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		c, err := loadGlobalConfig()
		if err != nil {
			return handleError(ErrConfigInvalid, err, "")
		}

		switch key {
		case "editor":
			c.Editor = value
		case "default_tracker":
			if value != "" {
				if _, err := c.GetTrackerPath(value); err != nil {
					return handleErrorMsg(ErrInvalidInput,
						fmt.Sprintf("tracker '%s' is not registered", value),
						"Run 'mun config tracker add <name> <path>' first")
				}
			}
			c.DefaultTracker = value
		case "user.name":
			c.User.Name = value
		case "user.email":
			c.User.Email = value
		default:
			return handleErrorMsg(ErrInvalidInput,
				fmt.Sprintf("unknown config key '%s'", key),
				"Valid keys: editor, default_tracker, user.name, user.email")
		}

		if err := saveGlobalConfig(c); err != nil {
			return handleError(ErrFileWriteError, err, "")
		}

		if isJSONOutput() {
			outputSuccess(map[string]interface{}{"key": key, "value": value}, nil)
			return nil
		}
		fmt.Println(ui.Successf("Set %s = %s", key, value))
		return nil
	},
}

var configTrackerCmd = &cobra.Command{
	Use:   "tracker",
	Short: "Manage registered trackers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var configTrackerAddCmd = &cobra.Command{
	Use:   "add <name> <path>",
	Short: "Register a tracker under a name",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, path := args[0], config.ExpandPath(args[1])

		c, err := loadGlobalConfig()
		if err != nil {
			return handleError(ErrConfigInvalid, err, "")
		}
		if c.Trackers == nil {
			c.Trackers = make(map[string]string)
		}
		c.Trackers[name] = path
		if c.DefaultTracker == "" {
			c.DefaultTracker = name
		}

		if err := saveGlobalConfig(c); err != nil {
			return handleError(ErrFileWriteError, err, "")
		}

		if isJSONOutput() {
			outputSuccess(map[string]interface{}{"name": name, "path": path}, nil)
			return nil
		}
		fmt.Println(ui.Successf("Registered tracker '%s' at %s", name, ui.FilePath(path)))
		return nil
	},
}

var configTrackerRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Unregister a tracker (files are untouched)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		c, err := loadGlobalConfig()
		if err != nil {
			return handleError(ErrConfigInvalid, err, "")
		}
		if _, ok := c.Trackers[name]; !ok {
			return handleErrorMsg(ErrInvalidInput,
				fmt.Sprintf("tracker '%s' is not registered", name),
				"Run 'mun config tracker list'")
		}
		delete(c.Trackers, name)
		if c.DefaultTracker == name {
			c.DefaultTracker = ""
		}

		if err := saveGlobalConfig(c); err != nil {
			return handleError(ErrFileWriteError, err, "")
		}

		if isJSONOutput() {
			outputSuccess(map[string]interface{}{"name": name}, nil)
			return nil
		}
		fmt.Println(ui.Successf("Removed tracker '%s'", name))
		return nil
	},
}

var configTrackerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered trackers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadGlobalConfig()
		if err != nil {
			return handleError(ErrConfigInvalid, err, "")
		}

		trackers := c.ListTrackers()
		if isJSONOutput() {
			outputSuccess(map[string]interface{}{
				"trackers":        trackers,
				"default_tracker": c.DefaultTracker,
			}, &Meta{Count: len(trackers)})
			return nil
		}

		if len(trackers) == 0 {
			fmt.Println("No trackers registered.")
			fmt.Println(ui.Hint("Run 'mun config tracker add <name> <path>'"))
			return nil
		}

		names := make([]string, 0, len(trackers))
		for name := range trackers {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			marker := "  "
			if name == c.DefaultTracker {
				marker = "* "
			}
			fmt.Printf("%s%s = %s\n", marker, name, trackers[name])
		}
		return nil
	},
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	path := config.DefaultPath()
	if configPathFlag != "" {
		path = configPathFlag
	}
	_, statErr := os.Stat(path)
	exists := statErr == nil

	c, err := loadGlobalConfig()
	if err != nil {
		return handleError(ErrConfigInvalid, err, "")
	}

	if isJSONOutput() {
		outputSuccess(map[string]interface{}{
			"config_path":     path,
			"exists":          exists,
			"default_tracker": c.DefaultTracker,
			"trackers":        c.ListTrackers(),
			"editor":          c.Editor,
			"user": map[string]string{
				"name":  c.User.Name,
				"email": c.User.Email,
			},
		}, nil)
		return nil
	}

	if !exists {
		fmt.Printf("Config file does not exist: %s\n", path)
		fmt.Println("Run 'mun config init' to create it.")
		return nil
	}

	fmt.Printf("config: %s\n", path)
	if v := strings.TrimSpace(c.DefaultTracker); v != "" {
		fmt.Printf("default_tracker: %s\n", v)
	}
	if v := strings.TrimSpace(c.Editor); v != "" {
		fmt.Printf("editor: %s\n", v)
	}
	if v := strings.TrimSpace(c.User.Name); v != "" {
		fmt.Printf("user.name: %s\n", v)
	}
	if v := strings.TrimSpace(c.User.Email); v != "" {
		fmt.Printf("user.email: %s\n", v)
	}

	trackers := c.ListTrackers()
	if len(trackers) == 0 {
		fmt.Println("trackers: (none)")
		return nil
	}
	names := make([]string, 0, len(trackers))
	for name := range trackers {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Println("trackers:")
	for _, name := range names {
		fmt.Printf("  %s = %s\n", name, trackers[name])
	}
	return nil
}

func saveGlobalConfig(c *config.Config) error {
	if configPathFlag != "" {
		return config.SaveTo(configPathFlag, c)
	}
	return config.Save(c)
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configTrackerCmd)
	configTrackerCmd.AddCommand(configTrackerAddCmd)
	configTrackerCmd.AddCommand(configTrackerRemoveCmd)
	configTrackerCmd.AddCommand(configTrackerListCmd)
}
