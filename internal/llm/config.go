package llm

import (
	"fmt"
	"os"
	"time"
)

// Config holds all LLM provider configuration.
type Config struct {
	// Provider selects which LLM provider to use.
	// Values: "openai", "azure", "anthropic", "gemini", "mock"
	Provider string

	OpenAI    OpenAIConfig
	Azure     AzureConfig
	Anthropic AnthropicConfig
	Gemini    GeminiConfig
	Retry     RetryConfig

	// Admission bounds how many call attempts may be in flight against
	// the upstream API at once. Default: 100.
	Admission int

	// HealthWindow bounds how many recent call outcomes the health
	// tracker keeps. Default: 50.
	HealthWindow int

	// Timeout is the default deadline for a single call attempt, used
	// when a Request carries no Timeout of its own. Default: 300s.
	Timeout time.Duration
}

// OpenAIConfig holds OpenAI-specific configuration.
type OpenAIConfig struct {
	APIKey  string
	Model   string // Default: "o3-mini"
	BaseURL string // Optional. Override for compatible APIs.
}

// AzureConfig holds Azure OpenAI-specific configuration. The Deployment
// name doubles as the model identifier on Azure.
type AzureConfig struct {
	APIKey     string
	Endpoint   string // e.g. "https://myresource.openai.azure.com/"
	Deployment string // Default: "o3-mini"
	APIVersion string // Default: "2025-01-01-preview"
}

// AnthropicConfig holds Anthropic-specific configuration.
type AnthropicConfig struct {
	APIKey string
	Model  string // Default: "claude-haiku"
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey string
	Model  string // Default: "gemini-flash"
}

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	// MaxAttempts bounds total tries, the first call included.
	MaxAttempts int

	// InitialWait seeds the exponential backoff for rate limits that
	// carry no explicit wait; the wait doubles per attempt up to MaxWait.
	InitialWait time.Duration
	MaxWait     time.Duration

	// TimeoutWait is the fixed pause after a per-attempt timeout.
	TimeoutWait time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider: "openai",
		OpenAI: OpenAIConfig{
			Model: "o3-mini",
		},
		Azure: AzureConfig{
			Deployment: "o3-mini",
			APIVersion: "2025-01-01-preview",
		},
		Anthropic: AnthropicConfig{
			Model: "claude-haiku",
		},
		Gemini: GeminiConfig{
			Model: "gemini-flash",
		},
		Retry: RetryConfig{
			MaxAttempts: 5,
			InitialWait: 500 * time.Millisecond,
			MaxWait:     10 * time.Second,
			TimeoutWait: 2 * time.Second,
		},
		Admission:    100,
		HealthWindow: defaultHealthWindow,
		Timeout:      300 * time.Second,
	}
}

// ConfigFromEnv builds a Config from environment variables, falling back
// to defaults for unset values.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if p := os.Getenv("NANOCHAT_LLM_PROVIDER"); p != "" {
		cfg.Provider = p
	}

	if k := os.Getenv("NANOCHAT_OPENAI_API_KEY"); k != "" {
		cfg.OpenAI.APIKey = k
	}
	if m := os.Getenv("NANOCHAT_OPENAI_MODEL"); m != "" {
		cfg.OpenAI.Model = m
	}
	if u := os.Getenv("NANOCHAT_OPENAI_BASE_URL"); u != "" {
		cfg.OpenAI.BaseURL = u
	}

	if k := os.Getenv("NANOCHAT_AZURE_API_KEY"); k != "" {
		cfg.Azure.APIKey = k
	}
	if e := os.Getenv("NANOCHAT_AZURE_ENDPOINT"); e != "" {
		cfg.Azure.Endpoint = e
	}
	if d := os.Getenv("NANOCHAT_AZURE_DEPLOYMENT"); d != "" {
		cfg.Azure.Deployment = d
	}
	if v := os.Getenv("NANOCHAT_AZURE_API_VERSION"); v != "" {
		cfg.Azure.APIVersion = v
	}

	if k := os.Getenv("NANOCHAT_ANTHROPIC_API_KEY"); k != "" {
		cfg.Anthropic.APIKey = k
	}
	if m := os.Getenv("NANOCHAT_ANTHROPIC_MODEL"); m != "" {
		cfg.Anthropic.Model = m
	}

	if k := os.Getenv("NANOCHAT_GEMINI_API_KEY"); k != "" {
		cfg.Gemini.APIKey = k
	}
	if m := os.Getenv("NANOCHAT_GEMINI_MODEL"); m != "" {
		cfg.Gemini.Model = m
	}

	return cfg
}

// DiscoverConfig probes standard API key env vars in priority order
// (Azure → OpenAI → Anthropic → Gemini) and returns a Config for the
// first provider whose key is found. Returns (Config{}, false) if none
// found.
func DiscoverConfig() (Config, bool) {
	cfg := DefaultConfig()

	if k := os.Getenv("AZURE_OPENAI_API_KEY"); k != "" {
		cfg.Provider = "azure"
		cfg.Azure.APIKey = k
		cfg.Azure.Endpoint = os.Getenv("AZURE_OPENAI_ENDPOINT")
		return cfg, true
	}
	if k := os.Getenv("OPENAI_API_KEY"); k != "" {
		cfg.Provider = "openai"
		cfg.OpenAI.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("ANTHROPIC_API_KEY"); k != "" {
		cfg.Provider = "anthropic"
		cfg.Anthropic.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("GEMINI_API_KEY"); k != "" {
		cfg.Provider = "gemini"
		cfg.Gemini.APIKey = k
		return cfg, true
	}

	return Config{}, false
}

// Validate checks that the selected provider has its required credentials.
func (c Config) Validate() error {
	switch c.Provider {
	case "openai":
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("NANOCHAT_OPENAI_API_KEY is required for the openai provider")
		}
	case "azure":
		if c.Azure.APIKey == "" {
			return fmt.Errorf("NANOCHAT_AZURE_API_KEY is required for the azure provider")
		}
		if c.Azure.Endpoint == "" {
			return fmt.Errorf("NANOCHAT_AZURE_ENDPOINT is required for the azure provider")
		}
	case "anthropic":
		if c.Anthropic.APIKey == "" {
			return fmt.Errorf("NANOCHAT_ANTHROPIC_API_KEY is required for the anthropic provider")
		}
	case "gemini":
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("NANOCHAT_GEMINI_API_KEY is required for the gemini provider")
		}
	case "mock":
		// No API key needed.
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	return nil
}
