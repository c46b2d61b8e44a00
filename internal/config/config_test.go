package config

import (
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"testing"
)

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !reflect.DeepEqual(cfg, &Config{}) {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := &Config{
		AnnotationsDir:  "/data/annotations",
		TargetLanguages: []string{"ru", "fr"},
		SampleSize:      15,
		OutputFormat:    "json",
	}
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected 0600, got %v", info.Mode().Perm())
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !reflect.DeepEqual(loaded, cfg) {
		t.Fatalf("round trip mismatch: %+v != %+v", loaded, cfg)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("annotations_dir: [unclosed"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadEffective_EnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("output_dir: /from/file\nlog_level: info\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("WIKIGAP_LOG_LEVEL", "debug")
	t.Setenv("WIKIGAP_TARGET_LANGUAGES", "ru,zh")
	t.Setenv("WIKIGAP_SAMPLE_SIZE", "7")

	cfg, err := LoadEffective(path)
	if err != nil {
		t.Fatalf("LoadEffective() error = %v", err)
	}
	if cfg.OutputDir != "/from/file" {
		t.Errorf("OutputDir = %q", cfg.OutputDir)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want env override", cfg.LogLevel)
	}
	if !reflect.DeepEqual(cfg.TargetLanguages, []string{"ru", "zh"}) {
		t.Errorf("TargetLanguages = %v", cfg.TargetLanguages)
	}
	if cfg.SampleSize != 7 {
		t.Errorf("SampleSize = %d", cfg.SampleSize)
	}
}

func TestKeys_SetUnset(t *testing.T) {
	keys := Keys()
	sort.Strings(keys)
	if len(keys) != 18 {
		t.Fatalf("expected 18 keys, got %d: %v", len(keys), keys)
	}

	cfg := &Config{}
	if err := cfg.Set("target_languages", " ru, ,fr "); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if got, _ := cfg.Get("target_languages"); got != "ru,fr" {
		t.Errorf("target_languages = %q", got)
	}
	if err := cfg.Set("sample_size", "abc"); err == nil {
		t.Error("expected error for non-numeric sample_size")
	}
	if err := cfg.Set("sample_size", "20"); err != nil || cfg.SampleSize != 20 {
		t.Errorf("sample_size not set: %v %d", err, cfg.SampleSize)
	}
	if err := cfg.Unset("sample_size"); err != nil || cfg.SampleSize != 0 {
		t.Errorf("sample_size not cleared: %v %d", err, cfg.SampleSize)
	}
	if err := cfg.Set("nope", "x"); err == nil {
		t.Error("expected unknown key error")
	}
	if v := cfg.Values(); len(v) != 18 || v["target_languages"] != "ru,fr" {
		t.Errorf("Values() = %v", v)
	}
}
