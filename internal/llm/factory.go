package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/JieWu02/nanochat/internal/store"
)

// Stack bundles a fully wired provider with the health tracker feeding it,
// so callers can both generate and observe API health.
type Stack struct {
	Provider Provider
	Health   *HealthTracker
}

// NewStack creates a Provider from configuration, wrapped with the full
// middleware chain: caller → retry → gate → logging → base. The admission
// gate sits inside retry so each attempt acquires its own slot and backoff
// sleeps never hold one.
func NewStack(ctx context.Context, cfg Config, repo store.CallRepo, log *zap.Logger) (*Stack, error) {
	var base Provider
	var err error

	switch cfg.Provider {
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI, cfg.Timeout)
	case "azure":
		base, err = NewAzureProvider(cfg.Azure, cfg.Timeout)
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic, cfg.Timeout)
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini, cfg.Timeout)
	case "mock":
		base = NewMockProvider()
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	health := NewHealthTracker(cfg.HealthWindow)
	logged := WithLogging(base, cfg.Provider, repo, log)
	gated := WithGate(logged, cfg.Admission, health)
	retried := WithRetry(gated, cfg.Retry)

	return &Stack{Provider: retried, Health: health}, nil
}

// NewProvider is a convenience wrapper around NewStack for callers that
// don't need the health tracker.
func NewProvider(ctx context.Context, cfg Config, repo store.CallRepo, log *zap.Logger) (Provider, error) {
	stack, err := NewStack(ctx, cfg, repo, log)
	if err != nil {
		return nil, err
	}
	return stack.Provider, nil
}
