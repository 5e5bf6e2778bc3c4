package convogen

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/JieWu02/nanochat/internal/dialogue"
	"github.com/JieWu02/nanochat/internal/llm"
	"github.com/JieWu02/nanochat/internal/scenario"
)

// purposeGeneration tags generation calls in logs and the call journal.
const purposeGeneration = "dialogue_generation"

// Config controls per-call generation knobs.
type Config struct {
	MaxTokens   int
	Effort      string
	Timeout     time.Duration
	Temperature float64
}

// DefaultConfig matches the production generation settings: low reasoning
// effort for throughput, a 2-minute per-attempt deadline.
func DefaultConfig() Config {
	return Config{
		MaxTokens: 4096,
		Effort:    "low",
		Timeout:   120 * time.Second,
	}
}

// Generator produces one conversation per work item.
type Generator struct {
	provider llm.Provider
	registry *scenario.Registry
	cfg      Config
}

// New creates a Generator.
func New(provider llm.Provider, registry *scenario.Registry, cfg Config) *Generator {
	return &Generator{provider: provider, registry: registry, cfg: cfg}
}

// Generate builds the prompt for one work item, calls the provider, and
// returns the parsed conversation with its metadata attached. Failures
// surface as errors; the caller decides whether the run continues.
func (g *Generator) Generate(ctx context.Context, item WorkItem) (dialogue.Item, error) {
	out := dialogue.Item{
		Metadata: dialogue.Metadata{
			Category:    item.Category,
			Subcategory: item.Subcategory,
			Index:       item.Index,
			Language:    item.Language,
		},
	}

	sc, ok := g.registry.Lookup(item.Category, item.Subcategory)
	if !ok {
		return out, fmt.Errorf("unknown scenario %s/%s", item.Category, item.Subcategory)
	}

	prompt := BuildPrompt(sc, item)

	ctx = llm.WithPurpose(ctx, purposeGeneration)
	resp, err := g.provider.Generate(ctx, llm.Request{
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		Schema:      ConversationSchema(),
		MaxTokens:   g.cfg.MaxTokens,
		Effort:      g.cfg.Effort,
		Timeout:     g.cfg.Timeout,
		Temperature: g.cfg.Temperature,
	})
	if err != nil {
		return out, fmt.Errorf("generate idx=%d: %w", item.Index, err)
	}
	if resp.StopReason == "max_tokens" {
		// A truncated transcript may still be valid JSON; don't let it
		// pass as a short conversation.
		return out, fmt.Errorf("generate idx=%d: %w", item.Index, &llm.ErrMaxTokensExceeded{Content: resp.Content})
	}

	var parsed struct {
		Messages []dialogue.Message `json:"messages"`
	}
	if err := json.Unmarshal(resp.Content, &parsed); err != nil {
		return out, fmt.Errorf("parse conversation idx=%d: %w", item.Index, err)
	}

	out.Messages = parsed.Messages
	return out, nil
}
