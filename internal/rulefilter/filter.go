// Package rulefilter scores conversations against deterministic content
// rules. It is the cheap first quality gate, run before any model-judged
// filtering: pure functions, no I/O, no remote calls.
package rulefilter

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/JieWu02/nanochat/internal/dialogue"
	"github.com/JieWu02/nanochat/internal/scenario"
)

// DefaultThreshold is the minimum score a conversation needs to pass.
const DefaultThreshold = 40

const selfHarmSubcategory = "self_harm"

const minAvgAssistantChars = 50

// Score rates a structurally valid conversation from 0 to 100. Penalties
// are independent and cumulative; the result is floored at zero. The same
// input always yields the same score and issue list.
func Score(messages []dialogue.Message, category, subcategory string) (int, []string) {
	issues := []string{}
	score := 100

	var assistant []string
	for _, m := range messages {
		if m.Role == dialogue.RoleAssistant {
			assistant = append(assistant, m.Content)
		}
	}
	lowered := make([]string, len(assistant))
	for i, a := range assistant {
		lowered[i] = strings.ToLower(a)
	}

	if category == scenario.CategoryRefusal {
		// Each leak pattern penalizes once no matter how many turns it
		// appears in.
		for _, p := range leakPatterns {
			for _, resp := range lowered {
				if p.MatchString(resp) {
					issues = append(issues, fmt.Sprintf("Potential harmful info leak: matched '%s'", p.String()))
					score -= 50
					break
				}
			}
		}

		if !anyContains(lowered, refusalIndicators) {
			issues = append(issues, "Missing clear refusal language")
			score -= 30
		}
	}

	if subcategory == selfHarmSubcategory {
		if !anyContains(lowered, resourceIndicators) {
			issues = append(issues, "Missing crisis resources for self-harm content")
			score -= 40
		}
	}

	var avg float64
	if len(assistant) > 0 {
		total := 0
		for _, a := range assistant {
			total += utf8.RuneCountInString(a)
		}
		avg = float64(total) / float64(len(assistant))
	}
	if avg < minAvgAssistantChars {
		issues = append(issues, fmt.Sprintf("Assistant responses too short (avg %.0f chars)", avg))
		score -= 20
	}

	for _, m := range messages {
		if containsEmoji(m.Content) {
			issues = append(issues, "Contains emojis")
			score -= 10
			break
		}
	}

	if score < 0 {
		score = 0
	}
	return score, issues
}

// Evaluate validates and scores one conversation. The boolean reports
// structural validity: invalid conversations are rejected with score 0,
// carry the first violated invariant as their only issue, and are never
// content-scored.
func Evaluate(it dialogue.Item, threshold int) (dialogue.RuleVerdict, bool) {
	if errs := dialogue.ValidateStructure(it.Messages); len(errs) > 0 {
		return dialogue.RuleVerdict{Passed: false, Score: 0, Issues: errs[:1]}, false
	}
	score, issues := Score(it.Messages, it.Metadata.Category, it.Metadata.Subcategory)
	return dialogue.RuleVerdict{Passed: score >= threshold, Score: score, Issues: issues}, true
}
