package cli

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/munin/internal/buildinfo"
)

const modulePath = "github.com/aidanlsb/munin"

type versionInfo struct {
	Version    string `json:"version"`
	ModulePath string `json:"module_path"`
	Commit     string `json:"commit,omitempty"`
	CommitTime string `json:"commit_time,omitempty"`
	Modified   bool   `json:"modified"`
	GoVersion  string `json:"go_version"`
	GOOS       string `json:"goos"`
	GOARCH     string `json:"goarch"`
}

// Swappable for tests.
var readBuildInfo = debug.ReadBuildInfo

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show Munin version and build information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		info := resolveVersion()

		if isJSONOutput() {
			outputSuccess(info, nil)
			return nil
		}

		fmt.Printf("mun %s (%s, %s/%s)\n", info.Version, info.GoVersion, info.GOOS, info.GOARCH)
		if info.Commit != "" {
			line := info.Commit
			if info.Modified {
				line += " (dirty)"
			}
			if info.CommitTime != "" {
				line += ", " + info.CommitTime
			}
			fmt.Printf("commit: %s\n", line)
		}
		fmt.Printf("module: %s\n", info.ModulePath)

		return nil
	},
}

// resolveVersion reads the module info the toolchain stamps into the binary.
// Releases built outside module mode carry ldflags values instead, so those
// fill any field the build info left blank.
func resolveVersion() versionInfo {
	info := versionInfo{
		Version:    "devel",
		ModulePath: modulePath,
		GoVersion:  runtime.Version(),
		GOOS:       runtime.GOOS,
		GOARCH:     runtime.GOARCH,
	}

	if bi, ok := readBuildInfo(); ok && bi != nil {
		if bi.Main.Path != "" {
			info.ModulePath = bi.Main.Path
		}
		if v := bi.Main.Version; v != "" && v != "(devel)" {
			info.Version = v
		}
		if bi.GoVersion != "" {
			info.GoVersion = bi.GoVersion
		}

		settings := make(map[string]string, len(bi.Settings))
		for _, s := range bi.Settings {
			settings[s.Key] = s.Value
		}
		if v := settings["GOOS"]; v != "" {
			info.GOOS = v
		}
		if v := settings["GOARCH"]; v != "" {
			info.GOARCH = v
		}
		info.Commit = settings["vcs.revision"]
		info.CommitTime = settings["vcs.time"]
		info.Modified = strings.EqualFold(settings["vcs.modified"], "true")
	}

	if info.Version == "devel" && buildinfo.Version != "" && buildinfo.Version != "(devel)" {
		info.Version = buildinfo.Version
	}
	if info.Commit == "" {
		info.Commit = buildinfo.Commit
	}
	if info.CommitTime == "" {
		info.CommitTime = buildinfo.Date
	}

	return info
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
