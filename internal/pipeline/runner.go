package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/salmonumbrella/wikigap-cli/internal/annotation"
	"github.com/salmonumbrella/wikigap-cli/internal/blocks"
	"github.com/salmonumbrella/wikigap-cli/internal/nest"
	"github.com/salmonumbrella/wikigap-cli/internal/translate"
)

// ErrNoRows is returned when no language of a topic produced rows. No
// output file is written.
var ErrNoRows = errors.New("no rows produced")

// Skip reasons reported in LanguageResult.
const (
	ReasonNoAnnotations = "no_annotations"
	ReasonEmpty         = "empty_extraction"
	ReasonNoBlocks      = "no_content_blocks"
	ReasonFiltered      = "no_rows_after_filter"
	ReasonFailed        = "failed"
)

// LanguageResult reports what happened to one target language of a topic.
type LanguageResult struct {
	Lang      string `json:"lang"`
	Extracted int    `json:"extracted"`
	Rows      int    `json:"rows"`
	Skipped   bool   `json:"skipped"`
	Reason    string `json:"reason,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Result reports the outcome of one topic.
type Result struct {
	Topic      string           `json:"topic"`
	Languages  []LanguageResult `json:"languages"`
	Entries    int              `json:"entries"`
	OutputPath string           `json:"output_path,omitempty"`
	Error      string           `json:"error,omitempty"`

	Document *nest.Document `json:"-"`
	Err      error          `json:"-"`
}

// Runner runs the pipeline with its collaborators.
type Runner struct {
	Config     Config
	Blocks     blocks.Store
	Titles     TitleIndex
	Translator *translate.Enricher
	Links      nest.LinkResolver
	Logger     *slog.Logger

	// DryRun skips writing output files.
	DryRun bool
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}

// RunTopic processes every target language of topic and writes the nested
// document. A failing language is skipped; if every language fails the
// result carries ErrNoRows and nothing is written.
func (r *Runner) RunTopic(ctx context.Context, topic string) (*Result, error) {
	log := r.logger().With("topic", topic)
	res := &Result{Topic: topic}

	var all []annotation.Row
	for _, lang := range r.Config.TargetLanguages {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		rows, lr := r.runLanguage(ctx, log.With("lang", lang), topic, lang)
		res.Languages = append(res.Languages, lr)
		all = append(all, rows...)
	}

	if len(all) == 0 {
		log.WarnContext(ctx, "no data to combine")
		return res, fmt.Errorf("%w for %q", ErrNoRows, topic)
	}

	builder := nest.NewBuilder(r.Links, r.Config.PrimaryLanguage, log)
	builder.SetFallbackEntity(topic)
	builder.AddAll(ctx, all)
	res.Document = builder.Document()
	res.Entries = res.Document.Len()

	if r.DryRun {
		return res, nil
	}
	path, err := r.write(topic, res.Document)
	if err != nil {
		return res, err
	}
	res.OutputPath = path
	log.InfoContext(ctx, "document written", slog.String("path", path), slog.Int("entries", res.Entries))
	return res, nil
}

// RunTopics runs every topic in order. A failing topic does not stop the
// others; its error is recorded on its result.
func (r *Runner) RunTopics(ctx context.Context, topics []string) []*Result {
	results := make([]*Result, 0, len(topics))
	for _, topic := range topics {
		if ctx.Err() != nil {
			break
		}
		res, err := r.RunTopic(ctx, topic)
		if err != nil {
			res.Err = err
			res.Error = err.Error()
			if !errors.Is(err, ErrNoRows) {
				r.logger().ErrorContext(ctx, "topic failed", slog.String("topic", topic), slog.String("error", err.Error()))
			}
		}
		results = append(results, res)
	}
	return results
}

func (r *Runner) runLanguage(ctx context.Context, log *slog.Logger, topic, lang string) ([]annotation.Row, LanguageResult) {
	lr := LanguageResult{Lang: lang}
	skip := func(reason string, err error) ([]annotation.Row, LanguageResult) {
		lr.Skipped = true
		lr.Reason = reason
		if err != nil {
			lr.Error = err.Error()
		}
		return nil, lr
	}

	name := annotation.FileName(r.Config.AnnotationDate, topic, lang)
	fields := r.Config.Fields
	if fields == nil {
		fields = annotation.DefaultFields()
	}
	table, err := annotation.LoadFile(filepath.Join(r.Config.AnnotationsDir, name), fields)
	if errors.Is(err, fs.ErrNotExist) {
		log.WarnContext(ctx, "annotation file not found, skipping", slog.String("file", name))
		return skip(ReasonNoAnnotations, err)
	}
	if err != nil {
		log.ErrorContext(ctx, "annotation file unreadable, skipping", slog.String("file", name), slog.String("error", err.Error()))
		return skip(ReasonFailed, err)
	}
	lr.Extracted = table.Len()
	if table.Empty() {
		log.WarnContext(ctx, "no data extracted, skipping", slog.String("file", name))
		return skip(ReasonEmpty, nil)
	}

	entity, ok := r.Titles.Title(topic, lang)
	if !ok {
		log.DebugContext(ctx, "no title in index, using topic")
		entity = topic
	}
	blockList, err := r.Blocks.Fetch(ctx, entity, lang)
	if blocks.IsNotFound(err) {
		log.WarnContext(ctx, "content blocks not found, skipping", slog.String("error", err.Error()))
		return skip(ReasonNoBlocks, err)
	}
	if err != nil {
		log.ErrorContext(ctx, "fetching content blocks failed, skipping", slog.String("error", err.Error()))
		return skip(ReasonFailed, err)
	}
	records := blocks.Replay(blockList)

	rows := r.selectRows(table.Rows, records, lang)
	if len(rows) == 0 {
		return skip(ReasonFiltered, nil)
	}
	rows = WeightedSample(rows, annotation.FieldHeader1, r.Config.SampleSize, r.seed())

	if r.Translator != nil {
		if err := r.Translator.Rows(ctx, rows, lang, r.Config.PrimaryLanguage); err != nil {
			log.ErrorContext(ctx, "translation aborted, skipping", slog.String("error", err.Error()))
			return skip(ReasonFailed, err)
		}
	}

	lr.Rows = len(rows)
	log.InfoContext(ctx, "language processed", slog.Int("extracted", lr.Extracted), slog.Int("rows", lr.Rows))
	return rows, lr
}

// selectRows drops primary-language rows, attaches headers by paragraph
// index and applies the intersection label filter. A row without a
// language cell belongs to the file's language lang.
func (r *Runner) selectRows(rows []annotation.Row, records []blocks.ParagraphRecord, lang string) []annotation.Row {
	var out []annotation.Row
	for _, row := range rows {
		rowLang, _ := row.Text(annotation.FieldLanguage)
		if rowLang == r.Config.PrimaryLanguage {
			continue
		}
		if want := r.Config.IntersectionLabel; want != "" && want != AnyLabel {
			if label, _ := row.Text(annotation.FieldIntersectionLabel); label != want {
				continue
			}
		}
		row = row.Clone()
		if rowLang == "" {
			row.SetText(annotation.FieldLanguage, lang, true)
		}
		attachHeader(row, records, annotation.FieldHeader1, 1)
		attachHeader(row, records, annotation.FieldHeader2, 2)
		out = append(out, row)
	}
	return out
}

func attachHeader(row annotation.Row, records []blocks.ParagraphRecord, column string, level int) {
	idx, ok := row.Int(annotation.FieldParagraphIndex)
	if !ok {
		row.SetText(column, "", false)
		return
	}
	text, ok := blocks.HeaderAt(idx, records, level)
	row.SetText(column, text, ok)
}

func (r *Runner) seed() int64 {
	if r.Config.SampleSeed == 0 {
		return DefaultSampleSeed
	}
	return r.Config.SampleSeed
}

// OutputPath returns the file written for topic.
func (r *Runner) OutputPath(topic string) string {
	name := strings.NewReplacer("/", "_", string(filepath.Separator), "_").Replace(topic)
	return filepath.Join(r.Config.OutputDir, name+".json")
}

func (r *Runner) write(topic string, doc *nest.Document) (string, error) {
	path := r.OutputPath(topic)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating output: %w", err)
	}
	if err := nest.Encode(f, doc); err != nil {
		f.Close()
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}
