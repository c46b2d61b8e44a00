package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/salmonumbrella/wikigap-cli/internal/config"
	"github.com/salmonumbrella/wikigap-cli/internal/output"
)

var (
	// Version is set at build time
	version = "dev"
	// Commit is set at build time
	commit = "none"
	// Date is set at build time
	date = "unknown"
)

// SetVersionInfo sets the version information from build flags
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = version
	rootCmd.SetVersionTemplate(versionTemplate())
}

func versionTemplate() string {
	return fmt.Sprintf("wikigap version %s (commit: %s, built: %s)\n", version, commit, date)
}

// Global flags
var (
	outputFmt   string
	outputType  output.Format
	debug       bool
	configFile  string
	queryExpr   string
	queryFile   string
	errorFmt    string
	quietFlag   bool
	logLevel    string
	logFormat   string
	resultLimit int
	resultSort  string
	resultDesc  bool
)

// appConfig is the effective configuration of the running command.
var appConfig = &config.Config{}

// appLogger is built from the log flags and config before each command.
var appLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

var rootCmd = &cobra.Command{
	Use:   "wikigap",
	Short: "Find and translate content gaps between Wikipedia language editions",
	Long: `wikigap turns fact-level annotation exports of Wikipedia articles into
nested, translated gap documents.

For each topic it reads the annotations of every target language, attaches
the section headers of the target article, translates headers and facts to
the primary language and writes <output_dir>/<topic>.json.

Environment Variables:
  WIKIGAP_ANNOTATIONS_DIR   Directory of annotation exports
  WIKIGAP_ANNOTATION_DATE   Export date in the annotation file names
  WIKIGAP_TARGET_LANGUAGES  Comma separated target languages
  ANTHROPIC_API_KEY         API key for fact translation`,
	Version: version,
}

// prepareCommand loads config, resolves output and logging settings and
// installs the per-invocation context on cmd and the root command.
func prepareCommand(cmd *cobra.Command, _ []string) error {
	cmd.SilenceErrors = true

	cfg := &config.Config{}
	// config subcommands must work even when the file does not parse.
	if !isConfigCommand(cmd) {
		loaded, err := loadConfigFromFlag()
		if err != nil {
			return formatConfigLoadError(err)
		}
		cfg = loaded
	}
	appConfig = cfg

	format, err := resolveOutputFormat(cmd, cfg)
	if err != nil {
		return err
	}
	outputType, outputFmt = format, string(format)

	if err := resolveQuery(cmd); err != nil {
		return err
	}
	if !flagChanged(cmd, "quiet") && !isTerminal(cmd.OutOrStdout()) && output.IsStructured(format) {
		quietFlag = true
	}
	appLogger = newLogger(cmd.ErrOrStderr(), effectiveLogLevel(cmd, cfg), effectiveLogFormat(cmd, cfg))

	ctx := withIO(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
	ctx = output.WithOptions(ctx, output.Options{
		Format: format,
		Query:  queryExpr,
		Limit:  resultLimit,
		SortBy: resultSort,
		Desc:   resultDesc,
		Quiet:  quietFlag,
	})
	ctx = WithErrorFormat(ctx, errorFmt)
	cmd.SetContext(ctx)
	rootCmd.SetContext(ctx)

	if err := validateErrorFormat(errorFmt); err != nil {
		return err
	}
	if effectiveErrorFormat(ctx) != "text" {
		cmd.SilenceUsage = true
	}
	return nil
}

func isConfigCommand(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Name() == "config" {
			return true
		}
	}
	return false
}

// resolveOutputFormat picks --output/--format, then output_format from the
// config, then json for piped stdout, then text.
func resolveOutputFormat(cmd *cobra.Command, cfg *config.Config) (output.Format, error) {
	name := outputFmt
	if !flagChanged(cmd, "output") && !flagChanged(cmd, "format") {
		if v := strings.TrimSpace(cfg.OutputFormat); v != "" {
			name = v
		} else if !isTerminal(cmd.OutOrStdout()) {
			name = string(output.FormatJSON)
		}
	}
	return output.ParseFormat(name)
}

func resolveQuery(cmd *cobra.Command) error {
	if queryExpr != "" && queryFile != "" {
		return invalid(fmt.Errorf("use only one of --query or --query-file"))
	}
	if queryFile == "" {
		return nil
	}
	loaded, err := readInputSource(queryFile, cmd.InOrStdin())
	if err != nil {
		return err
	}
	queryExpr = loaded
	return nil
}

// Execute runs the root command
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with ctx, which is cancelled on
// interrupt by the caller.
func ExecuteContext(ctx context.Context) error {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		printCommandError(rootCmd.Context(), err)
		return err
	}
	return nil
}

// GetOutputFormat returns the output format chosen for the running
// command, falling back to --output before PersistentPreRunE has run.
func GetOutputFormat() output.Format {
	if outputType != "" {
		return outputType
	}
	if parsed, err := output.ParseFormat(outputFmt); err == nil {
		return parsed
	}
	return output.FormatText
}

func init() {
	rootCmd.PersistentPreRunE = prepareCommand
	rootCmd.SetVersionTemplate(versionTemplate())

	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "text", "Output format (text|json|ndjson|table|yaml)")
	rootCmd.PersistentFlags().StringVar(&outputFmt, "format", "text", "Alias for --output")
	rootCmd.PersistentFlags().StringVar(&queryExpr, "query", "", "jq expression to filter JSON output")
	rootCmd.PersistentFlags().StringVar(&queryFile, "query-file", "", "Read jq expression from file (use - for stdin)")
	rootCmd.PersistentFlags().StringVar(&errorFmt, "error-format", "auto", "Error output format (auto|text|json|yaml)")
	rootCmd.PersistentFlags().BoolVar(&quietFlag, "quiet", false, "Suppress non-essential output")
	rootCmd.PersistentFlags().IntVar(&resultLimit, "result-limit", 0, "Limit number of results in output (0 = unlimited)")
	rootCmd.PersistentFlags().StringVar(&resultSort, "result-sort-by", "", "Sort output results by field")
	rootCmd.PersistentFlags().BoolVar(&resultDesc, "result-desc", false, "Sort output results in descending order")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug|info|warn|error) (env: WIKIGAP_LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format (text|json) (env: WIKIGAP_LOG_FORMAT)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: ~/.config/wikigap/config.yaml)")
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}
