package config

import (
	"fmt"
	"strconv"
	"strings"
)

type field struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func stringField(p func(c *Config) *string) field {
	return field{
		get: func(c *Config) string { return *p(c) },
		set: func(c *Config, v string) error { *p(c) = v; return nil },
	}
}

var fields = map[string]field{
	"annotations_dir":    stringField(func(c *Config) *string { return &c.AnnotationsDir }),
	"blocks_dir":         stringField(func(c *Config) *string { return &c.BlocksDir }),
	"blocks_db":          stringField(func(c *Config) *string { return &c.BlocksDB }),
	"titles_file":        stringField(func(c *Config) *string { return &c.TitlesFile }),
	"output_dir":         stringField(func(c *Config) *string { return &c.OutputDir }),
	"annotation_date":    stringField(func(c *Config) *string { return &c.AnnotationDate }),
	"primary_language":   stringField(func(c *Config) *string { return &c.PrimaryLanguage }),
	"intersection_label": stringField(func(c *Config) *string { return &c.IntersectionLabel }),
	"llm_model":          stringField(func(c *Config) *string { return &c.LLMModel }),
	"llm_base_url":       stringField(func(c *Config) *string { return &c.LLMBaseURL }),
	"translate_base_url": stringField(func(c *Config) *string { return &c.TranslateBaseURL }),
	"wikidata_base_url":  stringField(func(c *Config) *string { return &c.WikidataBaseURL }),
	"keyring_backend":    stringField(func(c *Config) *string { return &c.KeyringBackend }),
	"output_format":      stringField(func(c *Config) *string { return &c.OutputFormat }),
	"log_level":          stringField(func(c *Config) *string { return &c.LogLevel }),
	"log_format":         stringField(func(c *Config) *string { return &c.LogFormat }),
	"target_languages": {
		get: func(c *Config) string { return strings.Join(c.TargetLanguages, ",") },
		set: func(c *Config, v string) error {
			c.TargetLanguages = SplitList(v)
			return nil
		},
	},
	"sample_size": {
		get: func(c *Config) string {
			if c.SampleSize == 0 {
				return ""
			}
			return strconv.Itoa(c.SampleSize)
		},
		set: func(c *Config, v string) error {
			if v == "" {
				c.SampleSize = 0
				return nil
			}
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return fmt.Errorf("sample_size must be a non-negative integer, got %q", v)
			}
			c.SampleSize = n
			return nil
		},
	},
}

// Keys returns the supported configuration keys.
func Keys() []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	return keys
}

// Get returns the value of key as text.
func (c *Config) Get(key string) (string, error) {
	f, ok := fields[key]
	if !ok {
		return "", fmt.Errorf("unknown config key: %s", key)
	}
	return f.get(c), nil
}

// Set parses value into key.
func (c *Config) Set(key, value string) error {
	f, ok := fields[key]
	if !ok {
		return fmt.Errorf("unknown config key: %s", key)
	}
	return f.set(c, value)
}

// Unset clears key.
func (c *Config) Unset(key string) error {
	return c.Set(key, "")
}

// Values returns every key with its text value.
func (c *Config) Values() map[string]string {
	out := make(map[string]string, len(fields))
	for k, f := range fields {
		out[k] = f.get(c)
	}
	return out
}

// SplitList splits a comma separated list, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
