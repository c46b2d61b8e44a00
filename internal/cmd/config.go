package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/wikigap-cli/internal/config"
	"github.com/salmonumbrella/wikigap-cli/internal/output"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage CLI configuration",
	Long: `Manage CLI configuration stored in ~/.config/wikigap/config.yaml.

Every key can be overridden by an environment variable named WIKIGAP_<KEY>,
for example WIKIGAP_OUTPUT_DIR. Run 'wikigap config keys' for the list.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the configuration file values. With --effective, WIKIGAP_*
environment overrides are applied first.`,
	RunE: runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Unset a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigUnset,
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List supported configuration keys",
	RunE: func(cmd *cobra.Command, args []string) error {
		keys := supportedConfigKeys()

		if structuredOutputRequested() {
			return printStructured(keys)
		}

		printf("Supported keys:\n")
		for _, key := range keys {
			printf("  %s (env: %s)\n", key, envName(key))
		}
		return nil
	},
}

var configShowEffective bool

func supportedConfigKeys() []string {
	keys := config.Keys()
	sort.Strings(keys)
	return keys
}

func envName(key string) string {
	return "WIKIGAP_" + strings.ToUpper(key)
}

func init() {
	configShowCmd.Flags().BoolVar(&configShowEffective, "effective", false, "Apply environment overrides")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configUnsetCmd)
	configCmd.AddCommand(configKeysCmd)

	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	var cfg *config.Config
	var err error
	if configShowEffective {
		cfg, err = loadConfigFromFlag()
	} else {
		cfg, _, err = loadFileConfig()
	}
	if err != nil {
		return formatConfigLoadError(err)
	}

	values := cfg.Values()
	if structuredOutputRequested() {
		return printStructured(values)
	}

	printf("Config:\n")
	for _, key := range supportedConfigKeys() {
		printf("  %s: %s\n", key, values[key])
	}
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := strings.ToLower(strings.TrimSpace(args[0]))
	value := strings.TrimSpace(args[1])

	cfg, path, err := loadFileConfig()
	if err != nil {
		return formatConfigLoadError(err)
	}

	if err := cfg.Set(key, value); err != nil {
		return invalid(err)
	}
	if err := validateConfigValue(key, value); err != nil {
		return invalid(err)
	}

	if err := cfg.Save(path); err != nil {
		return err
	}

	if structuredOutputRequested() {
		return printStructured(map[string]string{
			"status": "updated",
			"key":    key,
			"value":  value,
		})
	}

	printf("Updated %s\n", key)
	return nil
}

func runConfigUnset(cmd *cobra.Command, args []string) error {
	key := strings.ToLower(strings.TrimSpace(args[0]))

	cfg, path, err := loadFileConfig()
	if err != nil {
		return formatConfigLoadError(err)
	}

	if err := cfg.Unset(key); err != nil {
		return invalid(err)
	}

	if err := cfg.Save(path); err != nil {
		return err
	}

	if structuredOutputRequested() {
		return printStructured(map[string]string{
			"status": "unset",
			"key":    key,
		})
	}

	printf("Unset %s\n", key)
	return nil
}

// validateConfigValue checks values of keys with a fixed set of choices.
func validateConfigValue(key, value string) error {
	if value == "" {
		return nil
	}
	var allowed []string
	switch key {
	case "output_format":
		_, err := output.ParseFormat(value)
		return err
	case "log_level":
		allowed = []string{"debug", "info", "warn", "error"}
	case "log_format":
		allowed = []string{"text", "json"}
	case "keyring_backend":
		allowed = []string{"auto", "keychain", "secret-service", "file"}
	default:
		return nil
	}
	for _, a := range allowed {
		if strings.EqualFold(value, a) {
			return nil
		}
	}
	return fmt.Errorf("invalid %s %q (expected %s)", key, value, strings.Join(allowed, "|"))
}
