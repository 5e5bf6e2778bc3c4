package llm

import (
	"context"
	"encoding/json"
	"time"
)

// Provider is the one interface the rest of the pipeline sees: hand it a
// Request, get JSON back. Implementations wrap a vendor SDK and normalize
// its failures into this package's error types.
type Provider interface {
	// Generate performs a single completion. When the request carries a
	// Schema the returned Content is guaranteed to validate against it.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID reports the resolved model identifier, as recorded in the
	// call journal.
	ModelID() string
}

// Request describes one completion call.
type Request struct {
	// System sets the model's role and constraints.
	System string

	// Messages is the conversation so far. Generation and judging both
	// send a single user message.
	Messages []Message

	// Schema, when set, switches the provider to structured output and
	// the response is validated before being returned. When nil, Content
	// carries the raw text wrapped as a JSON string.
	Schema *Schema

	// MaxTokens caps the completion length.
	MaxTokens int

	// Temperature controls sampling randomness in [0,1]. Zero is not
	// sent, leaving the provider's own default in place.
	Temperature float64

	// Effort selects reasoning effort on models that support it ("low",
	// "medium", "high"). Empty uses the provider default.
	Effort string

	// Timeout bounds a single attempt. Zero falls back to the provider's
	// configured timeout. Each retry attempt gets a fresh deadline.
	Timeout time.Duration
}

// Message is one turn of the prompt conversation.
type Message struct {
	Role    Role
	Content string
}

// Role identifies the sender of a prompt message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema names and defines the JSON shape a completion must produce.
type Schema struct {
	// Name is a stable kebab-case identifier ("dialogue-batch").
	// Providers surface it as the schema or tool name and the validator
	// uses it as the compile-cache key.
	Name string

	// Description tells the model what the structure represents.
	Description string

	// Definition is the JSON Schema document itself.
	Definition map[string]any
}

// Response is a normalized completion result.
type Response struct {
	// Content is schema-validated JSON when the request carried a
	// Schema, otherwise the raw text encoded as a JSON string.
	Content json.RawMessage

	// Usage is the token accounting reported by the provider.
	Usage Usage

	// Model is the model that actually served the call.
	Model string

	// StopReason is normalized across providers: "end" or "max_tokens".
	StopReason string
}

// Usage counts tokens for one call.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// Text unwraps Content back to plain text. Schemaless responses are
// stored as a JSON string; anything else is returned verbatim.
func (r *Response) Text() string {
	var s string
	if err := json.Unmarshal(r.Content, &s); err == nil {
		return s
	}
	return string(r.Content)
}
