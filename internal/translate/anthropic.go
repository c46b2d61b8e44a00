package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// DefaultModel is the model used for fact translation when none is
// configured.
const DefaultModel = "claude-haiku-4-5"

// AnthropicConfig configures an AnthropicClient.
type AnthropicConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	MaxTokens  int64
	MaxRetries int
}

// AnthropicClient translates facts with Claude.
type AnthropicClient struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	log       *slog.Logger
}

// NewAnthropicClient creates a fact translator.
func NewAnthropicClient(cfg AnthropicConfig, logger *slog.Logger) *AnthropicClient {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.MaxRetries > 0 {
		opts = append(opts, option.WithMaxRetries(cfg.MaxRetries))
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &AnthropicClient{
		client:    anthropic.NewClient(opts...),
		model:     model,
		maxTokens: maxTokens,
		log:       logger.With("adapter", "anthropic"),
	}
}

// TranslateFact implements FactTranslator.
func (c *AnthropicClient) TranslateFact(ctx context.Context, text, srcLang, tgtLang string) (string, error) {
	prompt := buildPrompt(text, LanguageName(srcLang), LanguageName(tgtLang))

	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", &Error{Op: "fact", Err: err}
	}
	if len(msg.Content) == 0 {
		return "", &Error{Op: "fact", Err: fmt.Errorf("empty response")}
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		sb.WriteString(block.Text)
	}
	out := unquote(strings.TrimSpace(sb.String()))

	c.log.DebugContext(ctx, "fact translated", slog.String("tl", tgtLang), slog.Int("chars", len(out)))
	return out, nil
}

func buildPrompt(text, srcName, tgtName string) string {
	return fmt.Sprintf("Translate the following content: '%s' from %s to %s. Return only the translation.",
		text, srcName, tgtName)
}

// unquote decodes s when the model replied with a JSON string literal.
func unquote(s string) string {
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return s
	}
	var out string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return s
	}
	return out
}
