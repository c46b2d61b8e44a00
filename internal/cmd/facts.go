package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/wikigap-cli/internal/nest"
	"github.com/salmonumbrella/wikigap-cli/internal/output"
)

var factsCmd = &cobra.Command{
	Use:   "facts <document.json>",
	Short: "List the facts of a generated document",
	Long: `Flatten a document written by 'wikigap run' into one row per fact.

Examples:
  wikigap facts out/Paella.json
  wikigap facts out/Paella.json --entity Paella -o json --result-limit 5
  wikigap facts out/Paella.json -o ndjson --result-sort-by lang`,
	Args: cobra.ExactArgs(1),
	RunE: runFacts,
}

var factsEntity string

func init() {
	factsCmd.Flags().StringVar(&factsEntity, "entity", "", "Only list facts of this entity")
	rootCmd.AddCommand(factsCmd)
}

func runFacts(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("reading document: %w", err)
	}
	defer f.Close()

	doc, err := nest.Decode(f)
	if err != nil {
		return invalid(err)
	}
	if factsEntity != "" {
		if _, ok := doc.Entity(factsEntity); !ok {
			return invalid(fmt.Errorf("entity %q not found in %s", factsEntity, args[0]))
		}
	}

	rows := doc.Facts(factsEntity)
	if structuredOutputRequested() {
		return printStructured(rows)
	}
	if len(rows) == 0 {
		notef("No facts found.\n")
		return nil
	}

	ctx := currentContext()
	if limited, ok := output.ApplyAgentOptions(ctx, rows).([]nest.FactRow); ok {
		rows = limited
	}
	t := output.Table{Headers: []string{"ENTITY", "LANG", "HEADER", "FACT", "TRANSLATED"}}
	for _, r := range rows {
		t.AddRow(r.Entity, r.Lang, r.Header, truncate(r.Original.String(), 60), truncate(r.Translated.String(), 60))
	}
	return output.NewPrinter(stdoutFromContext(ctx), output.FormatTable).Print(ctx, t)
}
