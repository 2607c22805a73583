package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/munin/internal/schema"
	"github.com/aidanlsb/munin/internal/ui"
)

var schemaCmd = &cobra.Command{
	Use:   "schema [template]",
	Short: "Show the resolved field schema",
	Long: `Prints the resolved field contexts: the global record and note fields,
or — given a template — the fields after that template's overrides replace
same-named globals.

Examples:
  mun schema
  mun schema bug
  mun schema --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := openTracker()
		if err != nil {
			return err
		}

		templateID := ""
		if len(args) == 1 {
			templateID = args[0]
		}

		recordCtx, err := t.Config.Resolve(schema.ScopeRecord, templateID)
		if err != nil {
			return writeError(err)
		}
		noteCtx, err := t.Config.Resolve(schema.ScopeNote, templateID)
		if err != nil {
			return writeError(err)
		}

		if isJSONOutput() {
			outputSuccess(map[string]interface{}{
				"template":      templateID,
				"id_prefix":     t.Config.RecordIDPrefix(templateID),
				"record_fields": recordCtx.Specs(),
				"note_fields":   noteCtx.Specs(),
				"templates":     t.Config.TemplateOrder,
			}, nil)
			return nil
		}

		scopeTitle := "global"
		if templateID != "" {
			scopeTitle = "template " + templateID
		}
		fmt.Println(ui.Header(fmt.Sprintf("Schema (%s), id prefix %s", scopeTitle, t.Config.RecordIDPrefix(templateID))))

		fmt.Println()
		fmt.Println(ui.Header("Record fields"))
		printSpecs(recordCtx.Specs())
		fmt.Println()
		fmt.Println(ui.Header("Note fields"))
		printSpecs(noteCtx.Specs())

		if templateID == "" && len(t.Config.TemplateOrder) > 0 {
			fmt.Println()
			fmt.Println(ui.Hint("Templates: " + strings.Join(t.Config.TemplateOrder, ", ")))
		}
		return nil
	},
}

func printSpecs(specs []*schema.FieldSpec) {
	for _, spec := range specs {
		var attrs []string
		if spec.Multi() {
			attrs = append(attrs, "multi")
		}
		if spec.ValueType != "" && spec.ValueType != "string" {
			attrs = append(attrs, spec.ValueType)
		}
		if spec.Required {
			attrs = append(attrs, "required")
		}
		if !spec.IsEditable() {
			attrs = append(attrs, "read-only")
		}
		if !spec.IsEnabled() {
			attrs = append(attrs, "disabled")
		}
		if spec.SystemValue != "" {
			attrs = append(attrs, "system:"+spec.SystemValue)
		}
		if spec.Default != "" {
			attrs = append(attrs, "default:"+spec.Default)
		}
		if len(spec.AcceptedValues) > 0 {
			attrs = append(attrs, "values:"+strings.Join(spec.AcceptedValues, "|"))
		}

		line := "  " + spec.Name
		if len(attrs) > 0 {
			line += "  " + ui.Hint(strings.Join(attrs, ", "))
		}
		fmt.Println(line)
	}
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}
