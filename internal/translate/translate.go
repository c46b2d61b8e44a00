// Package translate translates section headers and facts between article
// languages.
package translate

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoAPIKey is reported for every fact when no model API key is
// configured.
var ErrNoAPIKey = errors.New("no LLM API key configured")

// HeaderTranslator translates short section headers.
type HeaderTranslator interface {
	TranslateHeader(ctx context.Context, text, srcLang, tgtLang string) (string, error)
}

// FactTranslator translates fact sentences.
type FactTranslator interface {
	TranslateFact(ctx context.Context, text, srcLang, tgtLang string) (string, error)
}

// Error reports a failed translation call.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("translate %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// ErrorMarkerPrefix starts the text stored in place of a fact whose
// translation failed.
const ErrorMarkerPrefix = "Translation Error: "

// ErrorMarker returns the inline text recorded for a failed fact
// translation.
func ErrorMarker(err error) string {
	return ErrorMarkerPrefix + err.Error()
}

// Noop returns every text unchanged.
type Noop struct{}

// TranslateHeader implements HeaderTranslator.
func (Noop) TranslateHeader(_ context.Context, text, _, _ string) (string, error) {
	return text, nil
}

// TranslateFact implements FactTranslator.
func (Noop) TranslateFact(_ context.Context, text, _, _ string) (string, error) {
	return text, nil
}

// Unavailable fails every fact translation with Err, so each fact carries
// the error marker.
type Unavailable struct {
	Err error
}

// TranslateFact implements FactTranslator.
func (u Unavailable) TranslateFact(context.Context, string, string, string) (string, error) {
	err := u.Err
	if err == nil {
		err = ErrNoAPIKey
	}
	return "", &Error{Op: "fact", Err: err}
}
