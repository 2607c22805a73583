package cli

import (
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	builtindocs "github.com/aidanlsb/munin/docs"
	"github.com/aidanlsb/munin/internal/ui"
)

var docsCmd = &cobra.Command{
	Use:   "docs [topic]",
	Short: "Browse documentation bundled into the binary",
	Long: `Shows long-form documentation: guides for the schema, the query
language, and serve mode. Without a topic, lists what is available.

For command-level usage, use 'mun help <command>'.

Examples:
  mun docs
  mun docs schema
  mun docs query --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		topics, err := listDocTopics()
		if err != nil {
			return handleError(ErrInternal, err, "")
		}

		if len(args) == 0 {
			if isJSONOutput() {
				outputSuccess(map[string]interface{}{"topics": topics}, &Meta{Count: len(topics)})
				return nil
			}
			fmt.Println(ui.Header("Documentation topics"))
			for _, topic := range topics {
				fmt.Printf("  %s\n", topic)
			}
			fmt.Println()
			fmt.Println(ui.Hint("Run 'mun docs <topic>' to read one"))
			return nil
		}

		topic := strings.TrimSuffix(args[0], ".md")
		content, err := builtindocs.FS.ReadFile(topic + ".md")
		if err != nil {
			return handleErrorMsg(ErrInvalidInput,
				fmt.Sprintf("unknown topic '%s'", topic),
				fmt.Sprintf("Available: %s", strings.Join(topics, ", ")))
		}

		if isJSONOutput() {
			outputSuccess(map[string]interface{}{
				"topic":   topic,
				"content": string(content),
			}, nil)
			return nil
		}

		display := ui.NewDisplayContext()
		if display.IsTTY {
			rendered, err := ui.RenderMarkdown(string(content), display.TermWidth)
			if err == nil {
				fmt.Print(rendered)
				return nil
			}
		}
		fmt.Print(string(content))
		return nil
	},
}

func listDocTopics() ([]string, error) {
	entries, err := fs.ReadDir(builtindocs.FS, ".")
	if err != nil {
		return nil, err
	}
	topics := make([]string, 0, len(entries))
	for _, entry := range entries {
		if name, ok := strings.CutSuffix(entry.Name(), ".md"); ok {
			topics = append(topics, name)
		}
	}
	sort.Strings(topics)
	return topics, nil
}

func init() {
	rootCmd.AddCommand(docsCmd)
}
