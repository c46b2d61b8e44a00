package cmd

import (
	"log/slog"
	"os"

	"github.com/salmonumbrella/wikigap-cli/internal/blocks"
	"github.com/salmonumbrella/wikigap-cli/internal/nest"
	"github.com/salmonumbrella/wikigap-cli/internal/secrets"
	"github.com/salmonumbrella/wikigap-cli/internal/translate"
	"github.com/salmonumbrella/wikigap-cli/internal/wikilink"
)

// Collaborator constructors, swapped out in tests.
var (
	openSecretsStore    = secrets.OpenDefault
	envGet              = os.Getenv
	openBlockDB         = blocks.OpenSQLite
	newHeaderTranslator = func(baseURL string, logger *slog.Logger) translate.HeaderTranslator {
		if baseURL == "" {
			return translate.NewGoogleClient(logger)
		}
		return translate.NewGoogleClientWithURL(baseURL, logger)
	}
	newFactTranslator = func(cfg translate.AnthropicConfig, logger *slog.Logger) translate.FactTranslator {
		return translate.NewAnthropicClient(cfg, logger)
	}
	newLinkResolver = func(baseURL string, logger *slog.Logger) nest.LinkResolver {
		if baseURL == "" {
			return wikilink.NewResolver(logger)
		}
		return wikilink.NewResolverWithURL(baseURL, logger)
	}
)
