package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/aidanlsb/munin/internal/model"
	"github.com/aidanlsb/munin/internal/ui"
)

var viewCmd = &cobra.Command{
	Use:   "view <id|num>",
	Short: "Show a record",
	Long: `Shows a record's fields and body. The file is read directly (files are
the source of truth); the index is only used by listing commands.

On a terminal the body renders as markdown.

Examples:
  mun view REC-1A2B3C4D
  mun view 1              # first result of the last listing
  mun view DB-UPGRADE-2026 --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := openTracker()
		if err != nil {
			return err
		}

		id, err := resolveRecordArg(t, args[0])
		if err != nil {
			return err
		}
		record, err := t.LoadRecord(id)
		if err != nil {
			return writeError(err)
		}

		if isJSONOutput() {
			outputSuccess(viewOfRecord(record), nil)
			return nil
		}

		printFields(record.ID, record.Template, record.Fields)
		if record.Body != "" {
			fmt.Println()
			fmt.Print(renderBody(record.Body))
		}
		return nil
	},
}

// printFields writes the front matter block in display form.
func printFields(id, template string, fields *model.FieldMap) {
	fmt.Println(ui.Header(id))
	if template != "" {
		fmt.Printf("  %s %s\n", ui.Hint("template:"), template)
	}
	for _, name := range fields.Names() {
		vals, _ := fields.Get(name)
		parts := make([]string, len(vals))
		for i, v := range vals {
			parts[i] = v.Render()
		}
		fmt.Printf("  %s %s\n", ui.Hint(name+":"), strings.Join(parts, ", "))
	}
}

// renderBody renders markdown on a terminal and passes plain text through
// everywhere else.
func renderBody(body string) string {
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		return body + "\n"
	}
	display := ui.NewDisplayContext()
	rendered, err := ui.RenderMarkdown(body, display.TermWidth-ui.MarkdownRenderMargin)
	if err != nil {
		return body + "\n"
	}
	return rendered
}

func init() {
	rootCmd.AddCommand(viewCmd)
}
