// Package judge implements the model-judged quality filter: it asks the
// LLM to rate each conversation against a rubric, then applies
// deterministic numeric thresholds on top of the model's own verdict.
//
// Judge failures are deliberately asymmetric: a conversation whose
// judgment cannot be obtained or parsed passes by default, because
// infrastructure trouble must never destroy otherwise-valid data.
package judge

import (
	"context"
	"fmt"

	"github.com/JieWu02/nanochat/internal/dialogue"
	"github.com/JieWu02/nanochat/internal/llm"
)

const purposeJudge = "llm_judge"

// Override defaults: reject when safety < 4, else when the mean of the
// other three scores < 3.
const (
	DefaultSafetyThreshold   = 4
	DefaultAvgOtherThreshold = 3.0
)

const defaultMaxTokens = 1024

// Config controls the judge call and the deterministic override.
type Config struct {
	SafetyThreshold   int
	AvgOtherThreshold float64

	// MaxTokens bounds the judge reply. A verdict is a few hundred
	// tokens at most.
	MaxTokens int
	Effort    string
}

func DefaultConfig() Config {
	return Config{
		SafetyThreshold:   DefaultSafetyThreshold,
		AvgOtherThreshold: DefaultAvgOtherThreshold,
		MaxTokens:         defaultMaxTokens,
		Effort:            "low",
	}
}

// Judge scores conversations through the LLM provider.
type Judge struct {
	provider llm.Provider
	cfg      Config
}

func New(provider llm.Provider, cfg Config) *Judge {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	return &Judge{provider: provider, cfg: cfg}
}

// Evaluate judges one conversation. It never returns an error: when the
// call or the parse fails, the verdict defaults to pass with a nil Scores
// and the cause recorded in the reason.
func (j *Judge) Evaluate(ctx context.Context, it dialogue.Item) dialogue.JudgeVerdict {
	prompt := BuildPrompt(it.Metadata.Category, it.Metadata.Subcategory, it.Messages, it.Metadata.Language)

	ctx = llm.WithPurpose(ctx, purposeJudge)
	resp, err := j.provider.Generate(ctx, llm.Request{
		Messages:  []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		MaxTokens: j.cfg.MaxTokens,
		Effort:    j.cfg.Effort,
	})
	if err != nil {
		return dialogue.JudgeVerdict{Passed: true, Reason: "LLM judge API failed, defaulting to pass"}
	}

	raw, outcome := parseVerdict(resp.Text())
	if outcome == unparseable {
		return dialogue.JudgeVerdict{Passed: true, Reason: "Failed to parse LLM judge response, defaulting to pass"}
	}

	v := dialogue.JudgeVerdict{
		Passed: boolOr(raw.Pass, true),
		Reason: reasonOr(raw.Reason),
		Scores: &dialogue.Scores{
			Safety:       scoreOr(raw.Safety),
			Naturalness:  scoreOr(raw.Naturalness),
			Completeness: scoreOr(raw.Completeness),
			Consistency:  scoreOr(raw.Consistency),
		},
	}
	j.override(&v)
	return v
}

// override applies the numeric thresholds on top of the model's own pass
// flag. It can only reject, never un-reject.
func (j *Judge) override(v *dialogue.JudgeVerdict) {
	if v.Scores == nil {
		return
	}
	s := v.Scores
	avgOther := float64(s.Naturalness+s.Completeness+s.Consistency) / 3
	switch {
	case s.Safety < j.cfg.SafetyThreshold:
		v.Passed = false
		v.Reason = fmt.Sprintf("Safety score too low (%d < %d)", s.Safety, j.cfg.SafetyThreshold)
	case avgOther < j.cfg.AvgOtherThreshold:
		v.Passed = false
		v.Reason = fmt.Sprintf("Average other scores too low (%.2f < %v)", avgOther, j.cfg.AvgOtherThreshold)
	}
}

// Missing score keys count as a clean 5 rather than a failing zero.
func scoreOr(p *int) int {
	if p == nil {
		return 5
	}
	return *p
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

func reasonOr(r string) string {
	if r == "" {
		return "No reason provided"
	}
	return r
}
