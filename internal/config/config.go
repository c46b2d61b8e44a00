package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"
)

// AppName is the application name used for keyring and config
const AppName = "wikigap"

// Config holds CLI configuration. Every key can be overridden by its
// WIKIGAP_* environment variable.
type Config struct {
	AnnotationsDir    string   `yaml:"annotations_dir,omitempty" env:"WIKIGAP_ANNOTATIONS_DIR"`
	BlocksDir         string   `yaml:"blocks_dir,omitempty" env:"WIKIGAP_BLOCKS_DIR"`
	BlocksDB          string   `yaml:"blocks_db,omitempty" env:"WIKIGAP_BLOCKS_DB"`
	TitlesFile        string   `yaml:"titles_file,omitempty" env:"WIKIGAP_TITLES_FILE"`
	OutputDir         string   `yaml:"output_dir,omitempty" env:"WIKIGAP_OUTPUT_DIR"`
	AnnotationDate    string   `yaml:"annotation_date,omitempty" env:"WIKIGAP_ANNOTATION_DATE"`
	PrimaryLanguage   string   `yaml:"primary_language,omitempty" env:"WIKIGAP_PRIMARY_LANGUAGE"`
	TargetLanguages   []string `yaml:"target_languages,omitempty" env:"WIKIGAP_TARGET_LANGUAGES" env-separator:","`
	IntersectionLabel string   `yaml:"intersection_label,omitempty" env:"WIKIGAP_INTERSECTION_LABEL"`
	SampleSize        int      `yaml:"sample_size,omitempty" env:"WIKIGAP_SAMPLE_SIZE"`
	LLMModel          string   `yaml:"llm_model,omitempty" env:"WIKIGAP_LLM_MODEL"`
	LLMBaseURL        string   `yaml:"llm_base_url,omitempty" env:"WIKIGAP_LLM_BASE_URL"`
	TranslateBaseURL  string   `yaml:"translate_base_url,omitempty" env:"WIKIGAP_TRANSLATE_BASE_URL"`
	WikidataBaseURL   string   `yaml:"wikidata_base_url,omitempty" env:"WIKIGAP_WIKIDATA_BASE_URL"`
	KeyringBackend    string   `yaml:"keyring_backend,omitempty" env:"WIKIGAP_KEYRING_BACKEND"` // auto, keychain, file
	OutputFormat      string   `yaml:"output_format,omitempty" env:"WIKIGAP_OUTPUT_FORMAT"`     // text, json, ndjson, yaml, table
	LogLevel          string   `yaml:"log_level,omitempty" env:"WIKIGAP_LOG_LEVEL"`             // debug, info, warn, error
	LogFormat         string   `yaml:"log_format,omitempty" env:"WIKIGAP_LOG_FORMAT"`           // text, json
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".config", AppName), nil
}

// DefaultConfigPath returns the default config file path
func DefaultConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// EnsureKeyringDir ensures the keyring directory exists and returns its path
func EnsureKeyringDir() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	keyringDir := filepath.Join(dir, "keyring")
	if err := os.MkdirAll(keyringDir, 0o700); err != nil {
		return "", fmt.Errorf("creating keyring directory: %w", err)
	}
	return keyringDir, nil
}

// ReadConfig reads the config file from the default location
func ReadConfig() (*Config, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return Load(path)
}

// Load loads config from the given path. Environment overrides are not
// applied, so the result is what Save writes back.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return &cfg, nil
}

// LoadEffective loads config from path and applies WIKIGAP_* environment
// overrides on top of it.
func LoadEffective(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	return cfg, nil
}

// Save writes c to path through a temporary file in the same directory so
// a failed write never leaves a truncated config behind.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".config-*.yaml")
	if err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing config: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("writing config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
