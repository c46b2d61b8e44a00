// Package pipeline runs the annotation pipeline for a topic: extraction,
// header attachment, filtering, translation and nesting.
package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/salmonumbrella/wikigap-cli/internal/annotation"
)

// DefaultSampleSeed seeds weighted sampling so reruns pick the same rows.
const DefaultSampleSeed = 42

// AnyLabel as the intersection label keeps rows of every label.
const AnyLabel = "*"

// Config is the explicit configuration of one pipeline run.
type Config struct {
	AnnotationsDir    string
	AnnotationDate    string
	PrimaryLanguage   string
	TargetLanguages   []string
	IntersectionLabel string
	SampleSize        int
	SampleSeed        int64
	OutputDir         string
	Fields            annotation.FieldSet
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		AnnotationsDir:    ".",
		PrimaryLanguage:   "en",
		TargetLanguages:   []string{"ru", "fr", "zh"},
		IntersectionLabel: "no",
		SampleSeed:        DefaultSampleSeed,
		OutputDir:         ".",
		Fields:            annotation.DefaultFields(),
	}
}

// Validate reports configuration errors.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.AnnotationDate) == "" {
		errs = append(errs, errors.New("annotation date is required"))
	}
	if c.PrimaryLanguage == "" {
		errs = append(errs, errors.New("primary language is required"))
	}
	if len(c.TargetLanguages) == 0 {
		errs = append(errs, errors.New("at least one target language is required"))
	}
	for _, lang := range c.TargetLanguages {
		if lang == c.PrimaryLanguage {
			errs = append(errs, fmt.Errorf("target language %q equals the primary language", lang))
		}
	}
	if c.SampleSize < 0 {
		errs = append(errs, fmt.Errorf("sample size must not be negative, got %d", c.SampleSize))
	}
	return errors.Join(errs...)
}
