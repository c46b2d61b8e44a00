package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/salmonumbrella/wikigap-cli/internal/blocks"
	"github.com/salmonumbrella/wikigap-cli/internal/output"
	"github.com/salmonumbrella/wikigap-cli/internal/pipeline"
	"github.com/salmonumbrella/wikigap-cli/internal/secrets"
	"github.com/salmonumbrella/wikigap-cli/internal/translate"
)

type errorFormatKey struct{}

// WithErrorFormat stores the --error-format value in ctx.
func WithErrorFormat(ctx context.Context, format string) context.Context {
	return context.WithValue(ctx, errorFormatKey{}, format)
}

// validationError marks bad user input: flags, config values, arguments.
type validationError struct {
	err error
}

func (e validationError) Error() string { return e.err.Error() }

func (e validationError) Unwrap() error { return e.err }

func invalid(err error) error {
	if err == nil {
		return nil
	}
	return validationError{err: err}
}

var errorFormats = map[string]bool{"": true, "auto": true, "text": true, "json": true, "yaml": true}

func validateErrorFormat(format string) error {
	if errorFormats[strings.ToLower(strings.TrimSpace(format))] {
		return nil
	}
	return invalid(fmt.Errorf("invalid --error-format %q (expected auto|text|json|yaml)", format))
}

// effectiveErrorFormat resolves "auto" against the output format so that
// structured stdout gets structured errors on stderr.
func effectiveErrorFormat(ctx context.Context) string {
	format, _ := ctx.Value(errorFormatKey{}).(string)
	format = strings.ToLower(strings.TrimSpace(format))
	if format != "" && format != "auto" {
		return format
	}
	switch output.FormatFromContext(ctx) {
	case output.FormatJSON, output.FormatNDJSON:
		return "json"
	case output.FormatYAML:
		return "yaml"
	}
	return "text"
}

type errorDetail struct {
	Message  string `json:"message" yaml:"message"`
	Type     string `json:"type" yaml:"type"`
	Category string `json:"category" yaml:"category"`
	Subtype  string `json:"subtype,omitempty" yaml:"subtype,omitempty"`
	Entity   string `json:"entity,omitempty" yaml:"entity,omitempty"`
	Lang     string `json:"lang,omitempty" yaml:"lang,omitempty"`
}

type errorEnvelope struct {
	Error errorDetail `json:"error" yaml:"error"`
}

func printCommandError(ctx context.Context, err error) {
	if err == nil {
		return
	}
	w := stderrFromContext(ctx)

	switch effectiveErrorFormat(ctx) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		_ = enc.Encode(buildErrorEnvelope(err))
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		_ = enc.Encode(buildErrorEnvelope(err))
		_ = enc.Close()
	default:
		_, _ = fmt.Fprintln(w, err)
	}
}

// buildErrorEnvelope classifies err. Later matches win, so a missing-blocks
// error wrapped in a validation error still reports not_found.
func buildErrorEnvelope(err error) errorEnvelope {
	d := errorDetail{Message: err.Error(), Type: "error", Category: "system"}

	var verr validationError
	if errors.As(err, &verr) {
		d.Type, d.Category = "validation", "user"
	}

	var nf blocks.NotFoundError
	if errors.As(err, &nf) {
		d.Type, d.Category = "not_found", "user"
		d.Entity, d.Lang = nf.Entity, nf.Lang
	}
	if errors.Is(err, secrets.ErrNotFound) {
		d.Type, d.Category = "not_found", "user"
	}

	var terr *translate.Error
	if errors.As(err, &terr) {
		d.Type, d.Subtype = "translation", terr.Op
		if errors.Is(err, translate.ErrNoAPIKey) {
			d.Category = "user"
		}
	}

	if errors.Is(err, pipeline.ErrNoRows) {
		d.Type, d.Category = "no_rows", "user"
	}
	return errorEnvelope{Error: d}
}
