package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JieWu02/nanochat/internal/convogen"
	"github.com/JieWu02/nanochat/internal/dialogue"
	"github.com/JieWu02/nanochat/internal/dispatch"
	"github.com/JieWu02/nanochat/internal/scenario"
)

// RunGeneration produces raw conversations for the configured plan and
// streams successes to the raw JSONL file as they complete. Individual
// item failures are counted, not fatal: a partial dataset is still a
// dataset.
func (p *Pipeline) RunGeneration(ctx context.Context) (*convogen.Stats, error) {
	if p.provider == nil {
		return nil, errors.New("generation requires an LLM provider")
	}

	gen := p.cfg.Generation
	plan, err := convogen.BuildPlan(p.registry, map[string]int{
		scenario.CategoryRefusal:     gen.RefusalCount,
		scenario.CategoryRedirection: gen.RedirectionCount,
	})
	if err != nil {
		return nil, err
	}
	items := plan.WorkItems(gen.Language)

	p.log.Info("generating conversations",
		zap.Int("total", plan.Total),
		zap.Int("refusal", gen.RefusalCount),
		zap.Int("redirection", gen.RedirectionCount),
		zap.Int("workers", gen.Workers),
		zap.String("language", gen.Language),
	)

	w, err := dialogue.NewWriter(p.cfg.RawPath())
	if err != nil {
		return nil, err
	}

	g := convogen.New(p.provider, p.registry, convogen.Config{
		MaxTokens: gen.MaxTokens,
		Effort:    gen.Effort,
		Timeout:   time.Duration(gen.TimeoutSeconds) * time.Second,
	})

	stats := convogen.NewStats(plan.Total)
	pool := dispatch.NewPool(gen.Workers, g.Generate)

	completed := 0
	for res := range pool.Run(ctx, items) {
		item := items[res.Index]
		ok := res.Err == nil
		stats.Observe(item.Category, item.Subcategory, ok)

		if ok {
			if werr := w.Write(res.Value); werr != nil {
				w.Close()
				return nil, werr
			}
		} else {
			p.log.Warn("generation failed",
				zap.Int("idx", item.Index),
				zap.String("scenario", item.Category+"/"+item.Subcategory),
				zap.Error(res.Err),
			)
		}

		completed++
		p.emit(Event{
			Stage:     StageGeneration,
			Total:     plan.Total,
			Completed: completed,
			Succeeded: stats.Success,
			Failed:    stats.Failed,
		})
	}

	if err := w.Close(); err != nil {
		return nil, err
	}
	if err := writeJSON(p.cfg.GenerationStatsPath(), stats); err != nil {
		return nil, err
	}

	p.log.Info("generation complete",
		zap.Int("success", stats.Success),
		zap.Int("failed", stats.Failed),
		zap.String("output", p.cfg.RawPath()),
	)
	p.emit(Event{Stage: StageGeneration, Total: plan.Total, Completed: completed,
		Succeeded: stats.Success, Failed: stats.Failed, Done: true})

	// A run where nothing generated leaves downstream stages without
	// input; surface that here where the cause is visible.
	if stats.Success == 0 && plan.Total > 0 {
		return stats, fmt.Errorf("all %d generation attempts failed", plan.Total)
	}
	return stats, nil
}
