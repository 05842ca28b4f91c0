package provider

import (
	"context"
	"errors"

	"github.com/linkcampus/llex/config"
	openai_provider "github.com/linkcampus/llex/provider/openai"
)

// Message represents a message in a conversation.
type Message = openai_provider.Message

// Options tunes a single completion call. Zero values fall back to the
// provider's configured defaults.
type Options = openai_provider.Options

// Provider is the interface the answer tools use to talk to the
// completion/embedding service.
type Provider interface {
	Complete(ctx context.Context, messages []Message, opts Options) (string, error)
	// StreamComplete delivers tokens through emit as they arrive. A non-nil
	// error from emit aborts the stream and is returned as-is.
	StreamComplete(ctx context.Context, messages []Message, opts Options, emit func(token string) error) error
	Embed(ctx context.Context, text string) ([]float32, error)
}

// NewProvider creates the configured LLM client.
func NewProvider(cfg config.LLMConfig) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("llm.api_key not set")
	}
	return openai_provider.NewClient(cfg.APIKey, cfg.BaseURL, cfg.ChatModel, cfg.EmbeddingModel, cfg.Temperature, cfg.MaxTokens, cfg.Timeout), nil
}
