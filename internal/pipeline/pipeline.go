// Package pipeline sequences the data-generation stages: raw conversation
// generation, the deterministic rule filter, the LLM judge, and sample
// extraction. Each stage reads its input from the previous stage's JSONL
// file and refuses to run when that file is missing, so stages can be
// rerun independently against durable intermediate artifacts.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/JieWu02/nanochat/internal/config"
	"github.com/JieWu02/nanochat/internal/convogen"
	"github.com/JieWu02/nanochat/internal/judge"
	"github.com/JieWu02/nanochat/internal/llm"
	"github.com/JieWu02/nanochat/internal/rulefilter"
	"github.com/JieWu02/nanochat/internal/scenario"
	"github.com/JieWu02/nanochat/internal/store"
)

// ErrMissingInput marks a stage that cannot run because the preceding
// stage's output file does not exist.
var ErrMissingInput = errors.New("stage input file missing")

// Stage names, used in events and log lines.
const (
	StageGeneration = "generation"
	StageRuleFilter = "rule_filter"
	StageJudge      = "llm_judge"
	StageSamples    = "samples"
)

// Stages selects which pipeline stages to run. Sample extraction always
// runs, sourced from the last filter stage that ran.
type Stages struct {
	Generate   bool
	RuleFilter bool
	Judge      bool
}

// AllStages selects every stage.
func AllStages() Stages {
	return Stages{Generate: true, RuleFilter: true, Judge: true}
}

func (s Stages) names() string {
	var parts []string
	if s.Generate {
		parts = append(parts, StageGeneration)
	}
	if s.RuleFilter {
		parts = append(parts, StageRuleFilter)
	}
	if s.Judge {
		parts = append(parts, StageJudge)
	}
	parts = append(parts, StageSamples)
	return strings.Join(parts, ",")
}

// Event is a progress notification emitted while stages run. Events are
// delivered best-effort: a slow consumer drops updates rather than
// stalling the pipeline.
type Event struct {
	Stage     string
	Total     int
	Completed int
	Succeeded int
	Failed    int
	Accepted  int
	Rejected  int
	Done      bool
}

// Summary collects the statistics of every stage that ran.
type Summary struct {
	RunID      string
	Generation *convogen.Stats
	RuleFilter *rulefilter.Stats
	Judge      *judge.Stats
	Samples    map[string]int
	Elapsed    time.Duration
}

// Pipeline runs the staged generation and filtering flow.
type Pipeline struct {
	cfg      config.Config
	provider llm.Provider
	registry *scenario.Registry
	runs     store.RunRepo
	log      *zap.Logger
	events   chan Event
}

// Option configures optional Pipeline collaborators.
type Option func(*Pipeline)

// WithLogger sets the structured logger.
func WithLogger(log *zap.Logger) Option {
	return func(p *Pipeline) { p.log = log }
}

// WithRunRecorder persists a run record in the store for each Run call.
// Recording failures are logged, never fatal.
func WithRunRecorder(repo store.RunRepo) Option {
	return func(p *Pipeline) { p.runs = repo }
}

// WithEvents enables progress events. The channel returned by Events is
// closed when Run returns, so a Pipeline with events is good for one Run.
func WithEvents(buffer int) Option {
	if buffer < 1 {
		buffer = 64
	}
	return func(p *Pipeline) { p.events = make(chan Event, buffer) }
}

// New creates a Pipeline. The provider may be nil when no LLM-backed
// stage will run.
func New(cfg config.Config, provider llm.Provider, registry *scenario.Registry, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:      cfg,
		provider: provider,
		registry: registry,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Events returns the progress channel, or nil when events are disabled.
func (p *Pipeline) Events() <-chan Event {
	return p.events
}

func (p *Pipeline) emit(ev Event) {
	if p.events == nil {
		return
	}
	select {
	case p.events <- ev:
	default:
	}
}

// Run executes the selected stages in order and always finishes with
// sample extraction. The returned Summary holds whatever stages completed
// before any error.
func (p *Pipeline) Run(ctx context.Context, stages Stages) (*Summary, error) {
	started := time.Now()
	sum := &Summary{}

	var rec *store.Run
	if p.runs != nil {
		rec = &store.Run{
			Stages:    stages.names(),
			Language:  p.cfg.Generation.Language,
			Requested: p.cfg.Total(),
		}
		if err := p.runs.BeginRun(ctx, rec); err != nil {
			p.log.Warn("failed to record run start", zap.Error(err))
			rec = nil
		} else {
			sum.RunID = rec.ID
		}
	}

	err := p.runStages(ctx, stages, sum)
	sum.Elapsed = time.Since(started)

	if rec != nil {
		if sum.Generation != nil {
			rec.Generated = sum.Generation.Success
		}
		if sum.RuleFilter != nil {
			rec.Stage1Accepted = sum.RuleFilter.Accepted
		}
		if sum.Judge != nil {
			rec.Stage2Accepted = sum.Judge.Accepted
		}
		if err != nil {
			rec.Status = store.RunStatusFailed
			rec.Error = err.Error()
		}
		// Record the outcome even when the run was canceled.
		if ferr := p.runs.FinishRun(context.WithoutCancel(ctx), rec); ferr != nil {
			p.log.Warn("failed to record run finish", zap.Error(ferr))
		}
	}

	if p.events != nil {
		close(p.events)
	}
	return sum, err
}

func (p *Pipeline) runStages(ctx context.Context, stages Stages, sum *Summary) error {
	if stages.Generate {
		stats, err := p.RunGeneration(ctx)
		sum.Generation = stats
		if err != nil {
			return fmt.Errorf("generation stage: %w", err)
		}
	} else {
		p.log.Info("generation skipped, using existing raw data")
	}

	if stages.RuleFilter {
		stats, err := p.RunRuleFilter(ctx)
		if err != nil {
			return fmt.Errorf("rule filter stage: %w", err)
		}
		sum.RuleFilter = stats
	} else {
		p.log.Info("rule filter skipped, using existing filtered data")
	}

	if stages.Judge {
		stats, err := p.RunJudge(ctx)
		if err != nil {
			return fmt.Errorf("llm judge stage: %w", err)
		}
		sum.Judge = stats
	} else {
		p.log.Info("llm judge skipped")
	}

	// Samples come from the last filter stage selected for this run.
	src := p.cfg.Stage1AcceptedPath()
	if stages.Judge {
		src = p.cfg.Stage2AcceptedPath()
	}
	counts, err := p.RunSamples(src, 0)
	if err != nil {
		return fmt.Errorf("samples stage: %w", err)
	}
	sum.Samples = counts

	return nil
}

// requireInput verifies a stage's input file exists.
func requireInput(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s (run the earlier stage first)", ErrMissingInput, path)
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	return nil
}

// writeJSON writes v as indented JSON, creating parent directories.
func writeJSON(path string, v any) error {
	if err := store.EnsureDir(path); err != nil {
		return fmt.Errorf("create dir for %s: %w", path, err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
