package convogen

import "github.com/JieWu02/nanochat/internal/llm"

// ConversationSchema is the structured output contract for generation:
// a single "messages" array of role/content pairs. Strict enforcement
// happens provider-side and again locally after the call.
func ConversationSchema() *llm.Schema {
	return &llm.Schema{
		Name:        "conversation",
		Description: "A multi-turn conversation between a user and an assistant",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"messages": map[string]any{
					"type":        "array",
					"description": "A list of conversation messages alternating between user and assistant",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"role": map[string]any{
								"type":        "string",
								"enum":        []any{"user", "assistant"},
								"description": "The role of the speaker",
							},
							"content": map[string]any{
								"type":        "string",
								"description": "The message content",
							},
						},
						"required":             []any{"role", "content"},
						"additionalProperties": false,
					},
				},
			},
			"required":             []any{"messages"},
			"additionalProperties": false,
		},
	}
}
