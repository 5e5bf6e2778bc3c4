package llm

import (
	"testing"
)

func TestGeminiModelMapping(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"gemini-flash", "gemini-2.0-flash"},
		{"gemini-pro", "gemini-2.0-pro"},
		{"gemini-2.5-flash", "gemini-2.5-flash"}, // unmapped ids pass through
	}
	for _, tt := range tests {
		got := resolveModel(tt.input, geminiModels)
		if got != tt.expected {
			t.Errorf("resolveModel(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestBuildGeminiSchema(t *testing.T) {
	// The conversation shape generation asks for: a messages array of
	// role/content turns.
	def := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"messages": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"role":    map[string]any{"type": "string", "enum": []any{"user", "assistant"}},
						"content": map[string]any{"type": "string"},
					},
					"required": []any{"role", "content"},
				},
			},
			"turn_count": map[string]any{"type": "integer"},
		},
		"required": []any{"messages"},
	}

	schema := buildGeminiSchema(def)

	if schema.Type != "OBJECT" {
		t.Fatalf("expected OBJECT type, got %s", schema.Type)
	}
	if len(schema.Properties) != 2 {
		t.Fatalf("expected 2 properties, got %d", len(schema.Properties))
	}

	messages := schema.Properties["messages"]
	if messages.Type != "ARRAY" {
		t.Fatalf("expected ARRAY for messages, got %s", messages.Type)
	}
	if messages.Items.Type != "OBJECT" {
		t.Fatalf("expected OBJECT for messages items, got %s", messages.Items.Type)
	}
	if messages.Items.Properties["role"].Type != "STRING" {
		t.Fatalf("expected STRING for role, got %s", messages.Items.Properties["role"].Type)
	}
	if len(messages.Items.Properties["role"].Enum) != 2 {
		t.Fatalf("expected 2 role enum values, got %d", len(messages.Items.Properties["role"].Enum))
	}
	if len(messages.Items.Required) != 2 {
		t.Fatalf("expected 2 required turn fields, got %d", len(messages.Items.Required))
	}

	if schema.Properties["turn_count"].Type != "INTEGER" {
		t.Fatalf("expected INTEGER for turn_count, got %s", schema.Properties["turn_count"].Type)
	}
	if len(schema.Required) != 1 {
		t.Fatalf("expected 1 required field, got %d", len(schema.Required))
	}
}
