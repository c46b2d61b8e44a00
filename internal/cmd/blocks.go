package cmd

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/wikigap-cli/internal/blocks"
	"github.com/salmonumbrella/wikigap-cli/internal/output"
)

var blocksCmd = &cobra.Command{
	Use:   "blocks",
	Short: "Inspect and import article content blocks",
}

var blocksShowCmd = &cobra.Command{
	Use:   "show <file>",
	Short: "Show the paragraphs of a block file with their headers",
	Long: `Replay a block file (.json block list or saved .html page) and print one
record per paragraph with the headers active at that point.

Examples:
  wikigap blocks show Paella_fr.json
  wikigap blocks show Paella_fr.html --tree
  wikigap blocks show Paella_fr.json -o json --query '.[] | select(.header_1 == "Histoire")'`,
	Args: cobra.ExactArgs(1),
	RunE: runBlocksShow,
}

var blocksImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Store a block file in the blocks database",
	Long: `Import a block file into the SQLite blocks database so pipeline runs can
read it with --blocks-db. Existing blocks for the same entity and language
are replaced.

Examples:
  wikigap blocks import Paella_fr.html --entity Paella --lang fr --db blocks.db`,
	Args: cobra.ExactArgs(1),
	RunE: runBlocksImport,
}

var blocksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the entities stored in the blocks database",
	Args:  cobra.NoArgs,
	RunE:  runBlocksList,
}

var blocksOpts struct {
	tree   bool
	entity string
	lang   string
	db     string
}

func init() {
	blocksShowCmd.Flags().BoolVar(&blocksOpts.tree, "tree", false, "Print blocks as a header outline")
	blocksImportCmd.Flags().StringVar(&blocksOpts.entity, "entity", "", "Entity name (default: file name before the last '_')")
	blocksImportCmd.Flags().StringVar(&blocksOpts.lang, "lang", "", "Language code (default: file name after the last '_')")
	for _, c := range []*cobra.Command{blocksImportCmd, blocksListCmd} {
		c.Flags().StringVar(&blocksOpts.db, "db", "", "Blocks database path (default: blocks_db config)")
	}

	blocksCmd.AddCommand(blocksShowCmd, blocksImportCmd, blocksListCmd)
	rootCmd.AddCommand(blocksCmd)
}

func runBlocksShow(cmd *cobra.Command, args []string) error {
	list, err := blocks.ReadFile(args[0])
	if err != nil {
		return err
	}

	if blocksOpts.tree {
		outline := buildOutline(list)
		if structuredOutputRequested() {
			return printStructured(outline)
		}
		var sb strings.Builder
		renderOutline(&sb, outline, 0)
		printf("%s", sb.String())
		return nil
	}

	records := blocks.Replay(list)
	if structuredOutputRequested() {
		return printStructured(records)
	}
	if len(records) == 0 {
		notef("No paragraphs found.\n")
		return nil
	}

	ctx := currentContext()
	return output.NewPrinter(stdoutFromContext(ctx), output.FormatTable).Print(ctx, recordTable(records))
}

// recordTable lays records out with one column per header level seen.
func recordTable(records []blocks.ParagraphRecord) output.Table {
	minLevel, maxLevel := 1, 0
	for _, r := range records {
		levels := r.Levels()
		if len(levels) == 0 {
			continue
		}
		minLevel = min(minLevel, levels[0])
		maxLevel = max(maxLevel, levels[len(levels)-1])
	}

	headers := []string{"INDEX"}
	for l := minLevel; l <= maxLevel; l++ {
		headers = append(headers, strings.ToUpper(blocks.HeaderKey(l)))
	}
	headers = append(headers, "PARAGRAPH")

	t := output.Table{Headers: headers}
	for _, r := range records {
		cells := []string{fmt.Sprint(r.Index)}
		for l := minLevel; l <= maxLevel; l++ {
			cells = append(cells, r.Headers[l])
		}
		cells = append(cells, truncate(r.Text, 80))
		t.AddRow(cells...)
	}
	return t
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

func runBlocksImport(cmd *cobra.Command, args []string) error {
	path := args[0]
	entity, lang := blocksOpts.entity, blocksOpts.lang
	if entity == "" || lang == "" {
		e, l, ok := splitBlockFileName(path)
		if !ok {
			return invalid(fmt.Errorf("cannot infer entity and language from %s; pass --entity and --lang", filepath.Base(path)))
		}
		if entity == "" {
			entity = e
		}
		if lang == "" {
			lang = l
		}
	}

	list, err := blocks.ReadFile(path)
	if err != nil {
		return err
	}

	db, err := openBlocksDatabase(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Put(currentContext(), entity, lang, list); err != nil {
		return err
	}
	appLogger.Info("blocks imported", "entity", entity, "lang", lang, "blocks", len(list))

	result := struct {
		Entity string `json:"entity"`
		Lang   string `json:"lang"`
		Blocks int    `json:"blocks"`
	}{entity, lang, len(list)}
	if structuredOutputRequested() {
		return printStructured(result)
	}
	printf("Imported %d blocks for %s (%s)\n", result.Blocks, entity, lang)
	return nil
}

func runBlocksList(cmd *cobra.Command, args []string) error {
	db, err := openBlocksDatabase(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	pairs, err := db.Entities(currentContext())
	if err != nil {
		return err
	}

	type entry struct {
		Entity string `json:"entity"`
		Lang   string `json:"lang"`
	}
	entries := make([]entry, 0, len(pairs))
	for _, p := range pairs {
		entries = append(entries, entry{Entity: p[0], Lang: p[1]})
	}
	if structuredOutputRequested() {
		return printStructured(entries)
	}
	if len(entries) == 0 {
		notef("No blocks stored.\n")
		return nil
	}
	ctx := currentContext()
	return output.NewPrinter(stdoutFromContext(ctx), output.FormatTable).Print(ctx, entries)
}

func openBlocksDatabase(cmd *cobra.Command) (*blocks.SQLiteStore, error) {
	path := stringSetting(cmd, "db", blocksOpts.db, appConfig.BlocksDB)
	if path == "" {
		return nil, invalid(errors.New("no blocks database: pass --db or set blocks_db"))
	}
	return openBlockDB(path)
}

// splitBlockFileName splits "<entity>_<lang>.<ext>" at the last underscore.
func splitBlockFileName(path string) (string, string, bool) {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	i := strings.LastIndexByte(stem, '_')
	if i <= 0 || i == len(stem)-1 {
		return "", "", false
	}
	return stem[:i], stem[i+1:], true
}
