package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/wikigap-cli/internal/secrets"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the translation model API key",
	Long: `Manage the API key used to translate facts.

The key is stored in your system keychain (macOS Keychain, the Secret Service
on Linux, or an encrypted file when neither is available). ANTHROPIC_API_KEY
and WIKIGAP_LLM_API_KEY take precedence over the stored key.

Examples:
  wikigap auth set-key            # Prompt for the key
  echo "$KEY" | wikigap auth set-key
  wikigap auth status
  wikigap auth clear`,
}

var authSetKeyCmd = &cobra.Command{
	Use:   "set-key",
	Short: "Store the API key in the keychain",
	Args:  cobra.NoArgs,
	RunE:  runAuthSetKey,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show where the API key comes from",
	Args:  cobra.NoArgs,
	RunE:  runAuthStatus,
}

var authClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the stored API key",
	Args:  cobra.NoArgs,
	RunE:  runAuthClear,
}

var authKeyFlag string

func init() {
	authSetKeyCmd.Flags().StringVar(&authKeyFlag, "key", "", "API key (prompted when omitted)")

	authCmd.AddCommand(authSetKeyCmd)
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authClearCmd)

	rootCmd.AddCommand(authCmd)
}

func runAuthSetKey(cmd *cobra.Command, args []string) error {
	ctx := currentContext()

	key := strings.TrimSpace(authKeyFlag)
	if key == "" {
		var err error
		key, err = promptSecret(ctx, "Enter API key: ")
		if err != nil {
			return fmt.Errorf("failed to read API key: %w", err)
		}
	}
	if key == "" {
		return invalid(errors.New("API key is required"))
	}

	store, err := openSecretsStore()
	if err != nil {
		return fmt.Errorf("failed to open credential store: %w", err)
	}
	if err := store.SetToken(secrets.LLMKey, secrets.Token{Provider: "anthropic", Secret: key}); err != nil {
		return fmt.Errorf("failed to store API key: %w", err)
	}

	if structuredOutputRequested() {
		return printStructured(map[string]interface{}{
			"status": "stored",
			"key":    maskToken(key),
		})
	}

	printf("API key stored in the system keychain.\n")
	return nil
}

type authStatus struct {
	Configured bool   `json:"configured"`
	Source     string `json:"source,omitempty"`
	Key        string `json:"key,omitempty"`
	StoredAt   string `json:"stored_at,omitempty"`
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	status := authStatus{}
	key, source := resolveLLMKey(cmd, "")
	if key != "" {
		status.Configured = true
		status.Source = source
		status.Key = maskToken(key)
	}
	if source == "keyring" {
		if store, err := openSecretsStore(); err == nil {
			if tok, err := store.GetToken(secrets.LLMKey); err == nil && !tok.CreatedAt.IsZero() {
				status.StoredAt = tok.CreatedAt.Format(time.RFC3339)
			}
		}
	}

	if structuredOutputRequested() {
		return printStructured(status)
	}

	if !status.Configured {
		printf("Status: no API key configured\n")
		printf("\nRun 'wikigap auth set-key' or set ANTHROPIC_API_KEY.\n")
		return nil
	}
	printf("Status: API key configured\n")
	printf("Source: %s\n", status.Source)
	printf("Key: %s\n", status.Key)
	if status.StoredAt != "" {
		printf("Stored: %s\n", status.StoredAt)
	}
	return nil
}

func runAuthClear(cmd *cobra.Command, args []string) error {
	store, err := openSecretsStore()
	if err != nil {
		return fmt.Errorf("failed to open credential store: %w", err)
	}

	removed := true
	if err := store.DeleteToken(secrets.LLMKey); err != nil {
		if !errors.Is(err, secrets.ErrNotFound) {
			return fmt.Errorf("failed to remove API key: %w", err)
		}
		removed = false
	}

	if structuredOutputRequested() {
		return printStructured(map[string]interface{}{
			"status":  "cleared",
			"removed": removed,
		})
	}

	if removed {
		printf("API key removed from the system keychain.\n")
	} else {
		printf("No stored API key.\n")
	}
	return nil
}

// maskToken masks a token for display, showing only first and last 4 characters
func maskToken(token string) string {
	if len(token) <= 12 {
		return "****"
	}
	return token[:4] + "..." + token[len(token)-4:]
}
