package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salmonumbrella/wikigap-cli/internal/annotation"
	"github.com/salmonumbrella/wikigap-cli/internal/blocks"
	"github.com/salmonumbrella/wikigap-cli/internal/jsonv"
	"github.com/salmonumbrella/wikigap-cli/internal/nest"
	"github.com/salmonumbrella/wikigap-cli/internal/translate"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const frAnnotations = `{
	"items": [
		{"name": "person_name", "values": ["Paella", "Paella", "Paella", "Paella"]},
		{"name": "language", "values": ["fr", "fr", "en", "fr"]},
		{"name": "fact", "values": ["f0", "f1", "f2", "f3"]},
		{"name": "intersection_label", "values": ["no", "no", "no", "yes"]},
		{"name": "paragraph_index", "values": [0, 1, 1, 1]},
		{"name": "src_context", "values": [{"values": ["ctx"]}, null, null, null]},
		{"name": "tgt_fact_aligned_sentences", "values": [{"values": [{"values": ["s1"]}, {"values": ["s2"]}]}, null, null, null]}
	]
}`

type upper struct{}

func (upper) TranslateHeader(_ context.Context, text, _, _ string) (string, error) {
	return strings.ToUpper(text), nil
}

func (upper) TranslateFact(_ context.Context, text, _, _ string) (string, error) {
	return "EN:" + text, nil
}

type fixedLink struct{}

func (fixedLink) Resolve(_ context.Context, name, _, tgt string) (string, error) {
	return "https://" + tgt + ".wikipedia.org/wiki/" + name, nil
}

func setup(t *testing.T) (Runner, string) {
	t.Helper()
	dir := t.TempDir()
	annDir := filepath.Join(dir, "annotations")
	blockDir := filepath.Join(dir, "blocks")
	require.NoError(t, os.MkdirAll(annDir, 0o755))
	require.NoError(t, os.MkdirAll(blockDir, 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(annDir, "annotation_2025-03-24_Paella_fr.json"), []byte(frAnnotations), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(annDir, "annotation_2025-03-24_Paella_ru.json"), []byte(`{"x": 1}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(annDir, "annotation_2025-03-24_Paella_zh.json"), []byte(frAnnotations), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(blockDir, "Paëlla_fr.json"), []byte(`[
		{"paragraph": "lead"},
		{"header_1": "Histoire"},
		{"header_2": "Origines"},
		{"paragraph": "p1"}
	]`), 0o644))

	cfg := DefaultConfig()
	cfg.AnnotationsDir = annDir
	cfg.AnnotationDate = "2025-03-24"
	cfg.OutputDir = filepath.Join(dir, "out")

	return Runner{
		Config:     cfg,
		Blocks:     blocks.NewDirStore(blockDir),
		Titles:     TitleIndex{"fr": {"Paella": "Paëlla"}},
		Translator: &translate.Enricher{Headers: upper{}, Facts: upper{}, Logger: testLogger()},
		Links:      fixedLink{},
		Logger:     testLogger(),
	}, dir
}

func TestRunTopic(t *testing.T) {
	r, _ := setup(t)
	res, err := r.RunTopic(context.Background(), "Paella")
	require.NoError(t, err)

	require.Len(t, res.Languages, 3)
	assert.Equal(t, LanguageResult{Lang: "ru", Skipped: true, Reason: ReasonEmpty}, res.Languages[0])
	assert.Equal(t, "fr", res.Languages[1].Lang)
	assert.Equal(t, 4, res.Languages[1].Extracted)
	assert.Equal(t, 2, res.Languages[1].Rows)
	assert.Equal(t, ReasonNoBlocks, res.Languages[2].Reason, "zh has no blocks")
	assert.Equal(t, 2, res.Entries)

	require.FileExists(t, res.OutputPath)
	f, err := os.Open(res.OutputPath)
	require.NoError(t, err)
	defer f.Close()
	doc, err := nest.Decode(f)
	require.NoError(t, err)

	entity, ok := doc.Entity("Paella")
	require.True(t, ok)
	fr, ok := entity.Language("fr")
	require.True(t, ok)
	require.Len(t, fr.Sections, 2)

	general := fr.Sections[0]
	assert.Equal(t, nest.DefaultHeader, general.Header)
	e0 := general.Entries[0]
	assert.Equal(t, "f0", e0.Fact.Original.String())
	assert.Equal(t, "EN:f0", e0.Fact.Translated.String())
	assert.Equal(t, "https://fr.wikipedia.org/wiki/Paella", e0.Fact.WikiLink)
	assert.True(t, jsonv.Equal(jsonv.Strings("ctx"), e0.SrcContext))
	assert.True(t, jsonv.Equal(jsonv.Strings("s1", "s2"), e0.TgtFactAlignedSentences))
	assert.True(t, e0.Header1.Translated.IsNull())

	hist := fr.Sections[1]
	assert.Equal(t, "Histoire", hist.Header)
	e1 := hist.Entries[0]
	assert.Equal(t, "HISTOIRE", e1.Header1.Translated.String())
	assert.Equal(t, "Origines", e1.Header2.Original.String())
	assert.Equal(t, "ORIGINES", e1.Header2.Translated.String())
}

func TestRunTopic_NoRows(t *testing.T) {
	r, dir := setup(t)
	r.Config.TargetLanguages = []string{"ru", "de"}

	res, err := r.RunTopic(context.Background(), "Paella")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoRows))
	assert.Equal(t, ReasonNoAnnotations, res.Languages[1].Reason)
	assert.NoFileExists(t, filepath.Join(dir, "out", "Paella.json"))
}

func TestRunTopic_LabelFilterDisabled(t *testing.T) {
	r, _ := setup(t)
	r.Config.TargetLanguages = []string{"fr"}
	r.Config.IntersectionLabel = ""
	r.DryRun = true

	res, err := r.RunTopic(context.Background(), "Paella")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Entries, "en row still dropped")
	assert.Empty(t, res.OutputPath)
}

func TestRunTopics_ContinuesAfterFailure(t *testing.T) {
	r, _ := setup(t)
	results := r.RunTopics(context.Background(), []string{"Missing", "Paella"})
	require.Len(t, results, 2)
	assert.ErrorIs(t, results[0].Err, ErrNoRows)
	assert.NotEmpty(t, results[0].Error)
	assert.NoError(t, results[1].Err)
	assert.Equal(t, 2, results[1].Entries)
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	assert.Error(t, cfg.Validate(), "date is required")

	cfg.AnnotationDate = "2025-03-24"
	assert.NoError(t, cfg.Validate())

	cfg.TargetLanguages = []string{"en"}
	cfg.SampleSize = -1
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "primary language")
	assert.Contains(t, err.Error(), "sample size")
}

func TestLoadTitles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "titles.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fr:\n  Peking duck: Canard laqué de Pékin\nzh:\n  Oolong: 烏龍茶\n"), 0o644))

	idx, err := LoadTitles(path)
	require.NoError(t, err)
	title, ok := idx.Title("Peking duck", "fr")
	assert.True(t, ok)
	assert.Equal(t, "Canard laqué de Pékin", title)
	_, ok = idx.Title("Peking duck", "ru")
	assert.False(t, ok)

	empty, err := LoadTitles(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestWeightedSample(t *testing.T) {
	var rows []annotation.Row
	for i := 0; i < 20; i++ {
		h := "common"
		if i%5 == 0 {
			h = "rare"
		}
		rows = append(rows, annotation.Row{
			annotation.FieldHeader1:        jsonv.String(h),
			annotation.FieldParagraphIndex: jsonv.Int(int64(i)),
		})
	}

	a := WeightedSample(rows, annotation.FieldHeader1, 6, 42)
	b := WeightedSample(rows, annotation.FieldHeader1, 6, 42)
	require.Len(t, a, 6)
	assert.Equal(t, a, b, "same seed, same sample")

	prev := -1
	for _, row := range a {
		idx, _ := row.Int(annotation.FieldParagraphIndex)
		assert.Greater(t, idx, prev, "input order kept")
		prev = idx
	}

	assert.Len(t, WeightedSample(rows, annotation.FieldHeader1, 0, 42), 20)
	assert.Len(t, WeightedSample(rows, annotation.FieldHeader1, 50, 42), 20)
}

func TestRunTopic_AnyLabel(t *testing.T) {
	r, _ := setup(t)
	r.Config.TargetLanguages = []string{"fr"}
	r.Config.IntersectionLabel = AnyLabel
	r.DryRun = true

	res, err := r.RunTopic(context.Background(), "Paella")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Entries)
}

func TestDiscoverTopics(t *testing.T) {
	_, dir := setup(t)
	annDir := filepath.Join(dir, "annotations")
	require.NoError(t, os.WriteFile(filepath.Join(annDir, "annotation_2025-03-24_Tea_ceremony_fr.json"), []byte(`{}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(annDir, "annotation_2025-01-01_Old_fr.json"), []byte(`{}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(annDir, "annotation_2025-03-24_Sushi_de.json"), []byte(`{}`), 0o644))

	topics, err := DiscoverTopics(annDir, "2025-03-24", []string{"ru", "fr", "zh"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Paella", "Tea_ceremony"}, topics)

	_, err = DiscoverTopics(filepath.Join(dir, "missing"), "2025-03-24", []string{"fr"})
	assert.Error(t, err)
}

func TestRunTopic_PaddedColumnsKeepEveryFact(t *testing.T) {
	r, _ := setup(t)
	r.Config.TargetLanguages = []string{"fr"}
	r.DryRun = true
	padded := `{"items": [
		{"name": "person_name", "values": ["Paella"]},
		{"name": "language", "values": ["fr"]},
		{"name": "fact", "values": ["f0", "f1", "f2"]},
		{"name": "intersection_label", "values": ["no", "no", "no"]},
		{"name": "paragraph_index", "values": [0, 0, 0]}
	]}`
	path := filepath.Join(r.Config.AnnotationsDir, "annotation_2025-03-24_Paella_fr.json")
	require.NoError(t, os.WriteFile(path, []byte(padded), 0o644))

	res, err := r.RunTopic(context.Background(), "Paella")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Entries)
	require.Len(t, res.Document.Entities, 1)
	assert.Equal(t, "Paella", res.Document.Entities[0].Name)
	fr, ok := res.Document.Entities[0].Language("fr")
	require.True(t, ok)
	assert.Equal(t, nest.DefaultHeader, fr.Sections[0].Header)
	assert.Len(t, fr.Sections[0].Entries, 3)
}
