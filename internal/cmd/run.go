package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/salmonumbrella/wikigap-cli/internal/blocks"
	"github.com/salmonumbrella/wikigap-cli/internal/config"
	"github.com/salmonumbrella/wikigap-cli/internal/output"
	"github.com/salmonumbrella/wikigap-cli/internal/pipeline"
	"github.com/salmonumbrella/wikigap-cli/internal/translate"
)

var runCmd = &cobra.Command{
	Use:   "run [topics...]",
	Short: "Build gap documents for topics",
	Long: `Build one nested gap document per topic.

Without topic arguments every topic with an annotation export for --date in
the annotations directory is processed. A topic whose languages all fail is
reported and skipped; the remaining topics still run.

Examples:
  wikigap run --date 2025-03-24 Paella Injera
  wikigap run --date 2025-03-24 --langs fr,ru --label '*'
  wikigap run --date 2025-03-24 --no-translate --dry-run -o json`,
	RunE: runPipeline,
}

var runOpts struct {
	annotationsDir string
	blocksDir      string
	blocksDB       string
	titlesFile     string
	date           string
	langs          []string
	primary        string
	label          string
	sample         int
	seed           int64
	outputDir      string
	noTranslate    bool
	noLinks        bool
	llmModel       string
	llmKey         string
	dryRun         bool
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runOpts.annotationsDir, "annotations", "", "Directory of annotation exports (env: WIKIGAP_ANNOTATIONS_DIR)")
	f.StringVar(&runOpts.blocksDir, "blocks", "", "Directory of content block files (default: annotations directory)")
	f.StringVar(&runOpts.blocksDB, "blocks-db", "", "SQLite content block database, checked before --blocks")
	f.StringVar(&runOpts.titlesFile, "titles", "", "YAML title index {lang: {topic: title}}")
	f.StringVar(&runOpts.date, "date", "", "Annotation export date in file names (env: WIKIGAP_ANNOTATION_DATE)")
	f.StringSliceVar(&runOpts.langs, "langs", nil, "Target languages (default: ru,fr,zh)")
	f.StringVar(&runOpts.primary, "primary", "", "Primary language (default: en)")
	f.StringVar(&runOpts.label, "label", "", "Keep rows with this intersection label; '*' keeps all (default: no)")
	f.IntVar(&runOpts.sample, "sample", 0, "Weighted sample of rows per language (0 = all)")
	f.Int64Var(&runOpts.seed, "seed", pipeline.DefaultSampleSeed, "Sampling seed")
	f.StringVar(&runOpts.outputDir, "out", "", "Output directory (env: WIKIGAP_OUTPUT_DIR)")
	f.BoolVar(&runOpts.noTranslate, "no-translate", false, "Copy texts instead of translating them")
	f.BoolVar(&runOpts.noLinks, "no-links", false, "Skip Wikidata link lookups and use entity names")
	f.StringVar(&runOpts.llmModel, "llm-model", "", "Model for fact translation (default: "+translate.DefaultModel+")")
	f.StringVar(&runOpts.llmKey, "llm-key", "", "API key for fact translation (env: ANTHROPIC_API_KEY)")
	f.BoolVar(&runOpts.dryRun, "dry-run", false, "Run without writing output files")

	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := appConfig

	pc := buildPipelineConfig(cmd, cfg)
	if err := pc.Validate(); err != nil {
		return invalid(err)
	}

	log := appLogger.With("run_id", uuid.NewString())

	topics := args
	if len(topics) == 0 {
		found, err := pipeline.DiscoverTopics(pc.AnnotationsDir, pc.AnnotationDate, pc.TargetLanguages)
		if err != nil {
			return err
		}
		if len(found) == 0 {
			return invalid(fmt.Errorf("no annotation exports dated %s in %s", pc.AnnotationDate, pc.AnnotationsDir))
		}
		topics = found
	}

	store, closeStore, err := buildBlockStore(cmd, cfg, pc.AnnotationsDir)
	if err != nil {
		return err
	}
	defer closeStore()

	titles, err := pipeline.LoadTitles(stringSetting(cmd, "titles", runOpts.titlesFile, cfg.TitlesFile))
	if err != nil {
		return err
	}

	runner := &pipeline.Runner{
		Config:     pc,
		Blocks:     store,
		Titles:     titles,
		Translator: buildEnricher(cmd, cfg, log),
		Logger:     log,
		DryRun:     runOpts.dryRun,
	}
	if !runOpts.noLinks {
		runner.Links = newLinkResolver(cfg.WikidataBaseURL, log)
	}

	log.InfoContext(ctx, "run started", slog.Int("topics", len(topics)), slog.String("date", pc.AnnotationDate))
	results := runner.RunTopics(ctx, topics)
	if err := ctx.Err(); err != nil {
		return err
	}

	if structuredOutputRequested() || GetOutputFormat() == output.FormatTable {
		if err := printStructured(results); err != nil {
			return err
		}
	} else {
		printRunResults(results)
	}

	return runError(results)
}

// runError fails the command only when no topic produced a document.
func runError(results []*pipeline.Result) error {
	var errs []error
	for _, res := range results {
		if res.Err == nil {
			return nil
		}
		errs = append(errs, res.Err)
	}
	if len(errs) == 1 {
		return errs[0]
	}
	return fmt.Errorf("all %d topics failed: %w", len(errs), errors.Join(errs...))
}

func printRunResults(results []*pipeline.Result) {
	for _, res := range results {
		switch {
		case res.Err != nil:
			printf("%s: failed: %s\n", res.Topic, res.Error)
		case res.OutputPath != "":
			printf("%s: %d entries -> %s\n", res.Topic, res.Entries, res.OutputPath)
		default:
			printf("%s: %d entries (dry run)\n", res.Topic, res.Entries)
		}
		for _, lr := range res.Languages {
			switch {
			case lr.Skipped && lr.Error != "":
				printf("  %s: skipped (%s: %s)\n", lr.Lang, lr.Reason, lr.Error)
			case lr.Skipped:
				printf("  %s: skipped (%s)\n", lr.Lang, lr.Reason)
			default:
				printf("  %s: %d of %d rows\n", lr.Lang, lr.Rows, lr.Extracted)
			}
		}
	}
}

// buildPipelineConfig layers defaults, then config (file and environment),
// then flags.
func buildPipelineConfig(cmd *cobra.Command, cfg *config.Config) pipeline.Config {
	pc := pipeline.DefaultConfig()

	pc.AnnotationsDir = stringSetting(cmd, "annotations", runOpts.annotationsDir, cfg.AnnotationsDir, pc.AnnotationsDir)
	pc.AnnotationDate = stringSetting(cmd, "date", runOpts.date, cfg.AnnotationDate)
	pc.PrimaryLanguage = stringSetting(cmd, "primary", runOpts.primary, cfg.PrimaryLanguage, pc.PrimaryLanguage)
	pc.OutputDir = stringSetting(cmd, "out", runOpts.outputDir, cfg.OutputDir, pc.OutputDir)
	pc.IntersectionLabel = stringSetting(cmd, "label", runOpts.label, cfg.IntersectionLabel, pc.IntersectionLabel)

	switch {
	case flagChanged(cmd, "langs") && len(runOpts.langs) > 0:
		pc.TargetLanguages = config.SplitList(strings.Join(runOpts.langs, ","))
	case len(cfg.TargetLanguages) > 0:
		pc.TargetLanguages = cfg.TargetLanguages
	}

	pc.SampleSize = cfg.SampleSize
	if flagChanged(cmd, "sample") {
		pc.SampleSize = runOpts.sample
	}
	if flagChanged(cmd, "seed") {
		pc.SampleSeed = runOpts.seed
	}
	return pc
}

// stringSetting returns the flag value when the flag was set, otherwise the
// first non-empty fallback.
func stringSetting(cmd *cobra.Command, flag, value string, fallbacks ...string) string {
	if flagChanged(cmd, flag) && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	for _, f := range fallbacks {
		if strings.TrimSpace(f) != "" {
			return strings.TrimSpace(f)
		}
	}
	return ""
}

// buildBlockStore reads blocks from the SQLite database when one is
// configured, falling back to the block directory.
func buildBlockStore(cmd *cobra.Command, cfg *config.Config, annotationsDir string) (blocks.Store, func(), error) {
	dir := blocks.NewDirStore(stringSetting(cmd, "blocks", runOpts.blocksDir, cfg.BlocksDir, annotationsDir))

	dbPath := stringSetting(cmd, "blocks-db", runOpts.blocksDB, cfg.BlocksDB)
	if dbPath == "" {
		return dir, func() {}, nil
	}
	db, err := openBlockDB(dbPath)
	if err != nil {
		return nil, nil, err
	}
	return blocks.FallbackStore{db, dir}, func() { _ = db.Close() }, nil
}

func buildEnricher(cmd *cobra.Command, cfg *config.Config, log *slog.Logger) *translate.Enricher {
	e := &translate.Enricher{Logger: log}
	if runOpts.noTranslate {
		e.Headers = translate.Noop{}
		e.Facts = translate.Noop{}
		return e
	}

	e.Headers = newHeaderTranslator(cfg.TranslateBaseURL, log)

	key, source := resolveLLMKey(cmd, runOpts.llmKey)
	if key == "" {
		log.Warn("no LLM API key configured; facts will carry translation error markers")
		e.Facts = translate.Unavailable{}
		return e
	}
	log.Debug("fact translation enabled", slog.String("key_source", source))
	e.Facts = newFactTranslator(translate.AnthropicConfig{
		APIKey:  key,
		BaseURL: cfg.LLMBaseURL,
		Model:   stringSetting(cmd, "llm-model", runOpts.llmModel, cfg.LLMModel),
	}, log)
	return e
}
