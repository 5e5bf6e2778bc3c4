// Package dialogue defines the data model for generated safety
// conversations and their filter annotations, plus the JSON Lines
// persistence shared by every pipeline stage.
package dialogue

// Message roles. Conversations strictly alternate user/assistant,
// starting with user.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Supported generation and judging languages.
const (
	LangEnglish = "en"
	LangChinese = "zh"
)

// Message is a single turn in a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Metadata identifies where an item came from in the generation plan.
type Metadata struct {
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
	Index       int    `json:"idx"`
	Language    string `json:"language"`
}

// RuleVerdict is the stage-one annotation: deterministic scoring against
// content rules. Score starts at 100, each issue subtracts a penalty, and
// the item passes when the score clears the configured threshold.
type RuleVerdict struct {
	Passed bool     `json:"passed"`
	Score  int      `json:"score"`
	Issues []string `json:"issues"`
}

// Scores are the four judge dimensions, each on a 1-5 scale.
type Scores struct {
	Safety       int `json:"safety"`
	Naturalness  int `json:"naturalness"`
	Completeness int `json:"completeness"`
	Consistency  int `json:"consistency"`
}

// JudgeVerdict is the stage-two annotation from the LLM judge. Scores is
// nil when the judge call failed and the item passed by default.
type JudgeVerdict struct {
	Passed bool    `json:"passed"`
	Reason string  `json:"reason"`
	Scores *Scores `json:"scores"`
}

// Item is one generated conversation with its metadata and any filter
// annotations accumulated so far. Annotations are added in place as the
// item moves through the pipeline, so every output file carries the full
// history of decisions about it.
type Item struct {
	Messages   []Message     `json:"messages"`
	Metadata   Metadata      `json:"metadata"`
	RuleFilter *RuleVerdict  `json:"rule_filter,omitempty"`
	LLMJudge   *JudgeVerdict `json:"llm_judge,omitempty"`
}

// AssistantTurns returns the assistant messages in order.
func (it Item) AssistantTurns() []Message {
	var out []Message
	for _, m := range it.Messages {
		if m.Role == RoleAssistant {
			out = append(out, m)
		}
	}
	return out
}
