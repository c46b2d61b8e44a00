package translate

import (
	"context"
	"log/slog"

	"github.com/salmonumbrella/wikigap-cli/internal/annotation"
)

// Enricher adds translated header and fact columns to annotation rows.
type Enricher struct {
	Headers HeaderTranslator
	Facts   FactTranslator
	Logger  *slog.Logger
}

// Rows translates the header_1, header_2 and fact columns of rows from
// srcLang to tgtLang in place. Missing texts stay untranslated. A failed
// header translation leaves the translated header null; a failed fact
// translation stores an inline error marker.
func (e *Enricher) Rows(ctx context.Context, rows []annotation.Row, srcLang, tgtLang string) error {
	log := e.Logger
	if log == nil {
		log = slog.Default()
	}
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		e.header(ctx, log, row, annotation.FieldHeader1, annotation.FieldHeader1Translated, srcLang, tgtLang)
		e.header(ctx, log, row, annotation.FieldHeader2, annotation.FieldHeader2Translated, srcLang, tgtLang)
		e.fact(ctx, log, row, srcLang, tgtLang)
		log.DebugContext(ctx, "row translated", slog.Int("row", i), slog.String("lang", tgtLang))
	}
	return nil
}

func (e *Enricher) header(ctx context.Context, log *slog.Logger, row annotation.Row, from, to, srcLang, tgtLang string) {
	text, ok := row.Text(from)
	if !ok {
		row[to] = row.Get(from)
		return
	}
	out, err := e.Headers.TranslateHeader(ctx, text, srcLang, tgtLang)
	if err != nil {
		log.WarnContext(ctx, "header translation failed", slog.String("header", text), slog.String("error", err.Error()))
		row.SetText(to, "", false)
		return
	}
	row.SetText(to, out, true)
}

func (e *Enricher) fact(ctx context.Context, log *slog.Logger, row annotation.Row, srcLang, tgtLang string) {
	text, ok := row.Text(annotation.FieldFact)
	if !ok {
		row[annotation.FieldFactTranslated] = row.Get(annotation.FieldFact)
		return
	}
	out, err := e.Facts.TranslateFact(ctx, text, srcLang, tgtLang)
	if err != nil {
		log.WarnContext(ctx, "fact translation failed", slog.String("error", err.Error()))
		out = ErrorMarker(err)
	}
	row.SetText(annotation.FieldFactTranslated, out, true)
}
