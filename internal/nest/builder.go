package nest

import (
	"context"
	"io"
	"log/slog"

	"github.com/salmonumbrella/wikigap-cli/internal/annotation"
	"github.com/salmonumbrella/wikigap-cli/internal/coerce"
	"github.com/salmonumbrella/wikigap-cli/internal/jsonv"
)

// LinkResolver finds the target-language article link of an entity.
type LinkResolver interface {
	Resolve(ctx context.Context, name, srcLang, tgtLang string) (string, error)
}

type linkKey struct {
	entity string
	lang   string
}

// Builder accumulates rows into a Document. A Builder is owned by one
// goroutine; use one per entity batch.
type Builder struct {
	links   LinkResolver
	primary string
	logger  *slog.Logger

	doc   *Document
	cache map[linkKey]string

	// used for rows whose entity or language cell is empty
	fallbackEntity string
	fallbackLang   string
}

// NewBuilder returns a builder that drops rows in the primary language and
// resolves links with links. A nil resolver uses the entity name as link.
func NewBuilder(links LinkResolver, primary string, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Builder{
		links:   links,
		primary: primary,
		logger:  logger.With("component", "nest"),
		doc:     NewDocument(),
		cache:   make(map[linkKey]string),
	}
}

// SetFallbackEntity sets the entity used for rows without a person_name
// until AddAll finds one in its batch.
func (b *Builder) SetFallbackEntity(name string) {
	b.fallbackEntity = name
}

// Add folds row into the document and reports whether it was kept. Only
// primary-language rows are dropped; a row without entity or language is
// filed under the fallbacks, and skipped only when there is none.
func (b *Builder) Add(ctx context.Context, row annotation.Row) bool {
	entity, ok := row.Text(annotation.FieldPersonName)
	if !ok || entity == "" {
		entity = b.fallbackEntity
		b.logger.Debug("row without entity, using fallback", "entity", entity)
	}
	lang, ok := row.Text(annotation.FieldLanguage)
	if !ok || lang == "" {
		lang = b.fallbackLang
		b.logger.Debug("row without language, using fallback", "entity", entity, "lang", lang)
	}
	if entity == "" || lang == "" {
		fact, _ := row.Text(annotation.FieldFact)
		b.logger.Warn("row without entity or language dropped", "fact", fact)
		return false
	}
	if lang == b.primary {
		return false
	}

	header1, ok := row.Text(annotation.FieldHeader1)
	if !ok || header1 == "" {
		header1 = DefaultHeader
	}

	entry := Entry{
		Header2: Pair{
			Original:   cell(row, annotation.FieldHeader2),
			Translated: cell(row, annotation.FieldHeader2Translated),
		},
		Header1: Pair{
			Original:   jsonv.String(header1),
			Translated: cell(row, annotation.FieldHeader1Translated),
		},
		Fact: Fact{
			Original:            cell(row, annotation.FieldFact),
			Translated:          cell(row, annotation.FieldFactTranslated),
			FactAlignedSentence: cell(row, annotation.FieldFactAlignedSentence),
			WikiLink:            b.link(ctx, entity, lang),
		},
		SrcContext:              coerce.List(row.Get(annotation.FieldSrcContext)),
		TgtFactAlignedSentences: coerce.List(row.Get(annotation.FieldTgtFactAlignedSentences)),
	}
	b.doc.Append(entity, lang, header1, entry)
	return true
}

// AddAll adds rows in order and returns how many were kept. The first
// entity and language named in rows become the fallbacks for rows whose
// cells are null, which is what trailing padding of shorter columns yields.
func (b *Builder) AddAll(ctx context.Context, rows []annotation.Row) int {
	if e := firstText(rows, annotation.FieldPersonName); e != "" {
		b.fallbackEntity = e
	}
	if l := firstText(rows, annotation.FieldLanguage); l != "" && b.fallbackLang == "" {
		b.fallbackLang = l
	}
	n := 0
	for _, row := range rows {
		if b.Add(ctx, row) {
			n++
		}
	}
	return n
}

// Document returns the accumulated document.
func (b *Builder) Document() *Document {
	return b.doc
}

func (b *Builder) link(ctx context.Context, entity, lang string) string {
	key := linkKey{entity: entity, lang: lang}
	if url, ok := b.cache[key]; ok {
		return url
	}
	url := entity
	if b.links != nil {
		resolved, err := b.links.Resolve(ctx, entity, b.primary, lang)
		if err != nil {
			b.logger.Warn("link resolution failed, using entity name",
				"entity", entity, "lang", lang, "error", err)
		} else if resolved != "" {
			url = resolved
		}
	}
	b.cache[key] = url
	return url
}

func firstText(rows []annotation.Row, column string) string {
	for _, row := range rows {
		if s, ok := row.Text(column); ok && s != "" {
			return s
		}
	}
	return ""
}

// cell returns the row value with NaN replaced by null.
func cell(row annotation.Row, column string) jsonv.Value {
	v := row.Get(column)
	if v.IsMissing() {
		return jsonv.Null()
	}
	return v
}
