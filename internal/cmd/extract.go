package cmd

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/wikigap-cli/internal/annotation"
	"github.com/salmonumbrella/wikigap-cli/internal/jsonv"
	"github.com/salmonumbrella/wikigap-cli/internal/output"
)

var extractCmd = &cobra.Command{
	Use:   "extract [file]",
	Short: "Extract the annotation table of one export",
	Long: `Extract the target fields of an annotation export and align them into
rows. Reads stdin when the file is '-' or omitted and input is piped.

Examples:
  wikigap extract annotation_2025-03-24_Paella_fr.json
  cat export.json | wikigap extract -o json --query '.[0]'
  wikigap extract export.json --fields fact,language`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExtract,
}

var extractFields []string

func init() {
	extractCmd.Flags().StringSliceVar(&extractFields, "fields", nil, "Field names to extract (default: the pipeline fields)")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx := currentContext()

	targets := annotation.DefaultFields()
	if len(extractFields) > 0 {
		targets = annotation.NewFieldSet(extractFields...)
	}

	source := "-"
	if len(args) == 1 {
		source = args[0]
	} else if !inputHasData(stdinFromContext(ctx)) {
		return invalid(errors.New("no input: pass an annotation file or pipe one on stdin"))
	}

	r, err := openInputSource(source, stdinFromContext(ctx))
	if err != nil {
		return err
	}
	defer r.Close()

	tree, err := jsonv.Decode(r)
	if err != nil {
		return invalid(fmt.Errorf("parsing annotations %s: %w", filepath.Base(source), err))
	}

	table := annotation.BuildTable(annotation.Extract(tree, targets), filepath.Base(source))
	appLogger.Debug("annotations extracted", "file", source, "rows", table.Len(), "columns", len(table.Columns))

	if structuredOutputRequested() {
		return printStructured(tableRows(table))
	}
	if table.Empty() {
		notef("No rows extracted.\n")
		return nil
	}
	return output.NewPrinter(stdoutFromContext(ctx), output.FormatTable).Print(ctx, textTable(table))
}

// tableRows renders rows as objects whose members follow the column order.
func tableRows(t *annotation.Table) jsonv.Value {
	rows := make([]jsonv.Value, 0, t.Len())
	for _, row := range t.Rows {
		members := make([]jsonv.Member, 0, len(t.Columns))
		for _, col := range t.Columns {
			members = append(members, jsonv.M(col, row.Get(col)))
		}
		rows = append(rows, jsonv.Object(members...))
	}
	return jsonv.Array(rows...)
}

func textTable(t *annotation.Table) output.Table {
	out := output.Table{Headers: t.Columns}
	for _, row := range t.Rows {
		cells := make([]string, 0, len(t.Columns))
		for _, col := range t.Columns {
			cell := row.Get(col)
			if cell.IsMissing() {
				cells = append(cells, "")
				continue
			}
			cells = append(cells, cell.String())
		}
		out.AddRow(cells...)
	}
	return out
}
