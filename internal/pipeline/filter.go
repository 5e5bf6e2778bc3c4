package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/JieWu02/nanochat/internal/dialogue"
	"github.com/JieWu02/nanochat/internal/dispatch"
	"github.com/JieWu02/nanochat/internal/judge"
	"github.com/JieWu02/nanochat/internal/rulefilter"
)

// stageWriters bundles the accepted/rejected pair every filter stage
// writes.
type stageWriters struct {
	accepted *dialogue.Writer
	rejected *dialogue.Writer
}

func newStageWriters(acceptedPath, rejectedPath string) (*stageWriters, error) {
	accepted, err := dialogue.NewWriter(acceptedPath)
	if err != nil {
		return nil, err
	}
	rejected, err := dialogue.NewWriter(rejectedPath)
	if err != nil {
		accepted.Close()
		return nil, err
	}
	return &stageWriters{accepted: accepted, rejected: rejected}, nil
}

func (w *stageWriters) write(it dialogue.Item, passed bool) error {
	if passed {
		return w.accepted.Write(it)
	}
	return w.rejected.Write(it)
}

func (w *stageWriters) close() error {
	aerr := w.accepted.Close()
	rerr := w.rejected.Close()
	if aerr != nil {
		return aerr
	}
	return rerr
}

func (w *stageWriters) abandon() {
	w.accepted.Close()
	w.rejected.Close()
}

// RunRuleFilter applies the deterministic rule filter to the raw
// conversations, splitting them into accepted and rejected files and
// attaching each item's verdict.
func (p *Pipeline) RunRuleFilter(ctx context.Context) (*rulefilter.Stats, error) {
	if err := requireInput(p.cfg.RawPath()); err != nil {
		return nil, err
	}
	items, err := dialogue.ReadFile(p.cfg.RawPath())
	if err != nil {
		return nil, err
	}

	p.log.Info("rule filtering conversations",
		zap.Int("input", len(items)),
		zap.Int("threshold", p.cfg.RuleFilter.Threshold),
	)

	writers, err := newStageWriters(p.cfg.Stage1AcceptedPath(), p.cfg.Stage1RejectedPath())
	if err != nil {
		return nil, err
	}

	stats := rulefilter.NewStats()
	for i, it := range items {
		if err := ctx.Err(); err != nil {
			writers.abandon()
			return nil, err
		}

		verdict, scored := rulefilter.Evaluate(it, p.cfg.RuleFilter.Threshold)
		it.RuleFilter = &verdict
		stats.Observe(it.Metadata.Category, verdict, !scored)

		if err := writers.write(it, verdict.Passed); err != nil {
			writers.abandon()
			return nil, err
		}

		p.emit(Event{
			Stage:     StageRuleFilter,
			Total:     len(items),
			Completed: i + 1,
			Accepted:  stats.Accepted,
			Rejected:  stats.Rejected,
		})
	}

	if err := writers.close(); err != nil {
		return nil, err
	}
	if err := writeJSON(p.cfg.RuleFilterStatsPath(), stats); err != nil {
		return nil, err
	}

	p.log.Info("rule filter complete",
		zap.Int("accepted", stats.Accepted),
		zap.Int("rejected", stats.Rejected),
	)
	p.emit(Event{Stage: StageRuleFilter, Total: len(items), Completed: len(items),
		Accepted: stats.Accepted, Rejected: stats.Rejected, Done: true})

	return stats, nil
}

// RunJudge submits every rule-accepted conversation to the LLM judge
// across the worker pool. Dispatch-level failures (panics, cancellation)
// follow the judge's own default-to-pass policy so infrastructure trouble
// never rejects data on its own.
func (p *Pipeline) RunJudge(ctx context.Context) (*judge.Stats, error) {
	if p.provider == nil {
		return nil, errors.New("llm judge requires an LLM provider")
	}
	if err := requireInput(p.cfg.Stage1AcceptedPath()); err != nil {
		return nil, err
	}
	items, err := dialogue.ReadFile(p.cfg.Stage1AcceptedPath())
	if err != nil {
		return nil, err
	}

	p.log.Info("judging conversations",
		zap.Int("input", len(items)),
		zap.Int("workers", p.cfg.Judge.Workers),
	)

	writers, err := newStageWriters(p.cfg.Stage2AcceptedPath(), p.cfg.Stage2RejectedPath())
	if err != nil {
		return nil, err
	}

	j := judge.New(p.provider, judge.Config{
		SafetyThreshold:   p.cfg.Judge.SafetyThreshold,
		AvgOtherThreshold: p.cfg.Judge.AvgOtherThreshold,
		MaxTokens:         p.cfg.Judge.MaxTokens,
		Effort:            p.cfg.Judge.Effort,
	})

	pool := dispatch.NewPool(p.cfg.Judge.Workers, func(ctx context.Context, it dialogue.Item) (dialogue.Item, error) {
		verdict := j.Evaluate(ctx, it)
		it.LLMJudge = &verdict
		return it, nil
	})

	stats := judge.NewStats()
	completed := 0
	for res := range pool.Run(ctx, items) {
		it := res.Value
		unexpected := res.Err != nil
		if unexpected {
			it = items[res.Index]
			verdict := dialogue.JudgeVerdict{
				Passed: true,
				Reason: fmt.Sprintf("Unexpected error: %v", res.Err),
			}
			it.LLMJudge = &verdict
			p.log.Warn("judge dispatch failed",
				zap.Int("idx", it.Metadata.Index),
				zap.Error(res.Err),
			)
		}

		stats.Observe(it.Metadata.Category, *it.LLMJudge, unexpected)
		if err := writers.write(it, it.LLMJudge.Passed); err != nil {
			writers.abandon()
			return nil, err
		}

		completed++
		p.emit(Event{
			Stage:     StageJudge,
			Total:     len(items),
			Completed: completed,
			Accepted:  stats.Accepted,
			Rejected:  stats.Rejected,
		})
	}

	if err := writers.close(); err != nil {
		return nil, err
	}
	if err := writeJSON(p.cfg.JudgeStatsPath(), stats); err != nil {
		return nil, err
	}

	p.log.Info("llm judge complete",
		zap.Int("accepted", stats.Accepted),
		zap.Int("rejected", stats.Rejected),
		zap.Int("api_errors", stats.APIErrors),
	)
	p.emit(Event{Stage: StageJudge, Total: len(items), Completed: completed,
		Accepted: stats.Accepted, Rejected: stats.Rejected, Done: true})

	return stats, nil
}
