// =============================================================================
// Conciliador - Templates Command
// =============================================================================
//
// This file defines the 'templates' command group, which manages the output
// templates stored in templates_dir.
//
// COMMAND USAGE:
//   conciliador templates save NAME --column "Data=date" --column "Cliente=Cliente" [--format "Valor=#,##0.00"]
//   conciliador templates list
//   conciliador templates show NAME
//   conciliador templates delete NAME
//
// Field names are "date", "payment_type", "amount" (or data, tipo_pagamento,
// valor) or the label of any other input column.
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/conciliador/internal/template"
)

// columnFlags and formatFlags hold the repeated "Column=value" flags of save.
var (
	columnFlags []string
	formatFlags []string
)

// templatesCmd groups the template subcommands.
var templatesCmd = &cobra.Command{
	Use:     "templates",
	Aliases: []string{"template"},
	Short:   "Manage output templates",
}

var templatesSaveCmd = &cobra.Command{
	Use:   "save NAME",
	Short: "Create or replace a template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mapping, err := parseMapping(columnFlags)
		if err != nil {
			return err
		}
		formatting, err := parseFormatting(formatFlags)
		if err != nil {
			return err
		}

		path, err := templateStore().Save(args[0], nil, mapping, formatting)
		if err != nil {
			return err
		}

		log.Debug().Str("template", args[0]).Str("path", path).Msg("template saved")
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %q to %s\n", args[0], path)
		return nil
	},
}

var templatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored templates",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := templateStore().List()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s (built-in)\n", template.DefaultName)
		for _, name := range names {
			fmt.Fprintln(out, name)
		}
		return nil
	},
}

var templatesShowCmd = &cobra.Command{
	Use:   "show NAME",
	Short: "Show a template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tpl, err := templateStore().Resolve(args[0])
		if err != nil {
			return err
		}
		printTemplate(cmd.OutOrStdout(), tpl)
		return nil
	},
}

var templatesDeleteCmd = &cobra.Command{
	Use:   "delete NAME",
	Short: "Delete a stored template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deleted, err := templateStore().Delete(args[0])
		if err != nil {
			return err
		}
		if !deleted {
			return fmt.Errorf("%w: %q", template.ErrTemplateNotFound, args[0])
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %q\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(templatesCmd)
	templatesCmd.AddCommand(templatesSaveCmd, templatesListCmd, templatesShowCmd, templatesDeleteCmd)

	// StringArray keeps commas inside values such as "#,##0.00".
	templatesSaveCmd.Flags().StringArrayVarP(&columnFlags, "column", "c", nil,
		`Output column and its source field as "Column=field"; repeat in output order`)
	templatesSaveCmd.Flags().StringArrayVar(&formatFlags, "format", nil,
		`Number format of an output column as "Column=code"`)
	_ = templatesSaveCmd.MarkFlagRequired("column")
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func templateStore() *template.Store {
	return template.NewStore(appConfig.TemplatesDir)
}

// splitPair splits "key=value" at the first '='.
func splitPair(flag, raw string) (string, string, error) {
	key, value, ok := strings.Cut(raw, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return "", "", fmt.Errorf("--%s %q: expected Column=value", flag, raw)
	}
	return key, strings.TrimSpace(value), nil
}

// parseMapping turns repeated --column flags into an ordered mapping.
func parseMapping(flags []string) (template.FieldMapping, error) {
	mapping := make(template.FieldMapping, 0, len(flags))
	for _, raw := range flags {
		column, field, err := splitPair("column", raw)
		if err != nil {
			return nil, err
		}
		mapping = append(mapping, template.MappingEntry{Column: column, Field: field})
	}
	return mapping, nil
}

// parseFormatting turns repeated --format flags into a map.
func parseFormatting(flags []string) (map[string]string, error) {
	if len(flags) == 0 {
		return nil, nil
	}
	formatting := make(map[string]string, len(flags))
	for _, raw := range flags {
		column, code, err := splitPair("format", raw)
		if err != nil {
			return nil, err
		}
		formatting[column] = code
	}
	return formatting, nil
}

func printTemplate(out io.Writer, tpl *template.Template) {
	fmt.Fprintf(out, "Template: %s\n", tpl.Name())
	fmt.Fprintln(out, "Columns:")
	for _, column := range tpl.Columns() {
		field, _ := tpl.Source(column)
		line := fmt.Sprintf("  %-20s <- %s", column, field)
		if format, ok := tpl.Format(column); ok {
			line += fmt.Sprintf("  [%s]", format)
		}
		fmt.Fprintln(out, line)
	}
}
