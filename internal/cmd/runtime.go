package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/wikigap-cli/internal/config"
	"github.com/salmonumbrella/wikigap-cli/internal/secrets"
)

// llmKeyEnv lists the environment variables checked for the model API key,
// in order.
var llmKeyEnv = []string{"ANTHROPIC_API_KEY", "WIKIGAP_LLM_API_KEY"}

func configPath() (string, error) {
	if strings.TrimSpace(configFile) != "" {
		return configFile, nil
	}
	return config.DefaultConfigPath()
}

// loadConfigFromFlag loads the effective config (file plus WIKIGAP_*
// environment) from --config if provided, otherwise from the default path.
func loadConfigFromFlag() (*config.Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}
	return config.LoadEffective(path)
}

// loadFileConfig loads only the config file, for commands that write it back.
func loadFileConfig() (*config.Config, string, error) {
	path, err := configPath()
	if err != nil {
		return nil, "", err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func flagChanged(cmd *cobra.Command, name string) bool {
	if cmd == nil {
		return false
	}
	if cmd.Flags().Changed(name) {
		return true
	}
	return cmd.InheritedFlags().Changed(name)
}

// resolveLLMKey resolves the model API key with precedence:
// flag > env > keyring. The second result names the source.
func resolveLLMKey(cmd *cobra.Command, flagValue string) (string, string) {
	if flagChanged(cmd, "llm-key") {
		if key := strings.TrimSpace(flagValue); key != "" {
			return key, "flag"
		}
	}

	for _, name := range llmKeyEnv {
		if v := strings.TrimSpace(envGet(name)); v != "" {
			return v, "env:" + name
		}
	}

	store, err := openSecretsStore()
	if err != nil {
		appLogger.Debug("keyring unavailable", "error", err)
		return "", ""
	}
	tok, err := store.GetToken(secrets.LLMKey)
	if err != nil {
		if !errors.Is(err, secrets.ErrNotFound) {
			appLogger.Debug("reading keyring", "error", err)
		}
		return "", ""
	}
	return strings.TrimSpace(tok.Secret), "keyring"
}

func formatConfigLoadError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("load config: %w", err)
}
