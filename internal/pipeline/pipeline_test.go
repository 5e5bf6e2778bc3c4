package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync/atomic"
	"testing"

	"github.com/JieWu02/nanochat/internal/config"
	"github.com/JieWu02/nanochat/internal/dialogue"
	"github.com/JieWu02/nanochat/internal/llm"
	"github.com/JieWu02/nanochat/internal/scenario"
	"github.com/JieWu02/nanochat/internal/store"
)

// testConfig returns a small pipeline config writing into a temp dir:
// two conversations per category, a few workers.
func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.OutputDir = t.TempDir()
	cfg.Generation.RefusalCount = 2
	cfg.Generation.RedirectionCount = 2
	cfg.Generation.Workers = 4
	cfg.Judge.Workers = 4
	return cfg
}

func loadRegistry(t *testing.T) *scenario.Registry {
	t.Helper()
	reg, err := scenario.Load()
	if err != nil {
		t.Fatalf("load scenario pack: %v", err)
	}
	return reg
}

// routingProvider answers generation requests (which carry a schema) with
// a clean two-turn conversation and judge requests with a passing
// verdict.
func routingProvider(t *testing.T) *llm.MockProvider {
	t.Helper()

	convo, err := json.Marshal(map[string]any{
		"messages": []map[string]string{
			{"role": "user", "content": "Can you help me with something questionable?"},
			{"role": "assistant", "content": "I can't help with that. Let's talk about something safer instead, maybe a hobby you have been meaning to pick up."},
		},
	})
	if err != nil {
		t.Fatalf("marshal conversation: %v", err)
	}
	verdict, err := json.Marshal(map[string]any{
		"safety": 5, "naturalness": 4, "completeness": 4, "consistency": 5,
		"pass": true, "reason": "clear refusal with a constructive redirect",
	})
	if err != nil {
		t.Fatalf("marshal verdict: %v", err)
	}

	mock := llm.NewMockProvider()
	mock.Hook = func(req llm.Request) (*llm.Response, error) {
		content := verdict
		if req.Schema != nil {
			content = convo
		}
		return &llm.Response{Content: content, Model: "mock", StopReason: "end"}, nil
	}
	return mock
}

func TestPipelineEndToEnd(t *testing.T) {
	cfg := testConfig(t)
	s, err := store.Open("file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	p := New(cfg, routingProvider(t), loadRegistry(t), WithRunRecorder(s.RunRepo()))
	sum, err := p.Run(context.Background(), AllStages())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if sum.Generation == nil || sum.Generation.Success != 4 || sum.Generation.Failed != 0 {
		t.Fatalf("generation stats = %+v, want 4 successes", sum.Generation)
	}
	if sum.RuleFilter == nil || sum.RuleFilter.InputCount != 4 || sum.RuleFilter.Accepted != 4 {
		t.Fatalf("rule filter stats = %+v, want 4 accepted of 4", sum.RuleFilter)
	}
	if sum.Judge == nil || sum.Judge.Accepted != 4 || sum.Judge.APIErrors != 0 {
		t.Fatalf("judge stats = %+v, want 4 accepted", sum.Judge)
	}
	if sum.Samples["refusal"] != 2 || sum.Samples["redirection"] != 2 {
		t.Fatalf("samples = %v, want 2 per category", sum.Samples)
	}

	// Every stage left its durable artifacts behind.
	for _, path := range []string{
		cfg.RawPath(),
		cfg.Stage1AcceptedPath(), cfg.Stage1RejectedPath(),
		cfg.Stage2AcceptedPath(), cfg.Stage2RejectedPath(),
		cfg.GenerationStatsPath(), cfg.RuleFilterStatsPath(), cfg.JudgeStatsPath(),
	} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("missing artifact %s: %v", path, err)
		}
	}

	// Final items carry both verdicts.
	final, err := dialogue.ReadFile(cfg.Stage2AcceptedPath())
	if err != nil {
		t.Fatalf("read final output: %v", err)
	}
	if len(final) != 4 {
		t.Fatalf("final items = %d, want 4", len(final))
	}
	for _, it := range final {
		if it.RuleFilter == nil {
			t.Errorf("idx %d lost its rule filter verdict", it.Metadata.Index)
		}
		if it.LLMJudge == nil {
			t.Errorf("idx %d has no judge verdict", it.Metadata.Index)
		}
	}

	// The run record captured the stage counters.
	if sum.RunID == "" {
		t.Fatal("expected a run id")
	}
	rec, err := s.RunRepo().GetRun(context.Background(), sum.RunID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if rec.Status != store.RunStatusCompleted {
		t.Errorf("run status = %q, want completed", rec.Status)
	}
	if rec.Generated != 4 || rec.Stage1Accepted != 4 || rec.Stage2Accepted != 4 {
		t.Errorf("run counters = %d/%d/%d, want 4/4/4", rec.Generated, rec.Stage1Accepted, rec.Stage2Accepted)
	}
}

func TestPipelineSampleFilesShape(t *testing.T) {
	cfg := testConfig(t)
	p := New(cfg, routingProvider(t), loadRegistry(t))
	if _, err := p.Run(context.Background(), AllStages()); err != nil {
		t.Fatalf("run: %v", err)
	}

	data, err := os.ReadFile(cfg.SamplesDir() + "/sample_refusal.json")
	if err != nil {
		t.Fatalf("read sample file: %v", err)
	}
	var doc struct {
		Samples []dialogue.Item `json:"samples"`
		Count   int             `json:"count"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("parse sample file: %v", err)
	}
	if doc.Count != 2 || len(doc.Samples) != 2 {
		t.Fatalf("sample doc = count %d, %d samples; want 2/2", doc.Count, len(doc.Samples))
	}
	for _, it := range doc.Samples {
		if it.Metadata.Category != "refusal" {
			t.Errorf("sample category = %q, want refusal", it.Metadata.Category)
		}
	}
}

func TestPipelineWithoutJudgeSamplesFromStage1(t *testing.T) {
	cfg := testConfig(t)
	p := New(cfg, routingProvider(t), loadRegistry(t))

	sum, err := p.Run(context.Background(), Stages{Generate: true, RuleFilter: true})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if sum.Judge != nil {
		t.Fatal("judge stats present for a run that skipped the judge")
	}
	if sum.Samples["refusal"] != 2 {
		t.Fatalf("samples = %v, want 2 refusal samples from stage 1", sum.Samples)
	}
	if _, err := os.Stat(cfg.Stage2AcceptedPath()); !os.IsNotExist(err) {
		t.Errorf("stage 2 output exists despite skipped judge: %v", err)
	}
}

func TestRuleFilterRefusesWithoutInput(t *testing.T) {
	cfg := testConfig(t)
	p := New(cfg, nil, loadRegistry(t))

	_, err := p.RunRuleFilter(context.Background())
	if !errors.Is(err, ErrMissingInput) {
		t.Fatalf("err = %v, want ErrMissingInput", err)
	}
}

func TestJudgeRefusesWithoutInput(t *testing.T) {
	cfg := testConfig(t)
	p := New(cfg, routingProvider(t), loadRegistry(t))

	_, err := p.RunJudge(context.Background())
	if !errors.Is(err, ErrMissingInput) {
		t.Fatalf("err = %v, want ErrMissingInput", err)
	}
}

func TestGenerationRequiresProvider(t *testing.T) {
	p := New(testConfig(t), nil, loadRegistry(t))
	if _, err := p.RunGeneration(context.Background()); err == nil {
		t.Fatal("expected error without a provider")
	}
}

func TestPipelineToleratesGenerationFailures(t *testing.T) {
	cfg := testConfig(t)
	provider := routingProvider(t)

	// Fail exactly one generation call; the judge path stays intact.
	inner := provider.Hook
	var generationCalls int32
	provider.Hook = func(req llm.Request) (*llm.Response, error) {
		if req.Schema != nil && atomic.AddInt32(&generationCalls, 1) == 1 {
			return nil, errors.New("upstream hiccup")
		}
		return inner(req)
	}

	p := New(cfg, provider, loadRegistry(t))
	sum, err := p.Run(context.Background(), AllStages())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if sum.Generation.Success != 3 || sum.Generation.Failed != 1 {
		t.Fatalf("generation = %d success / %d failed, want 3/1", sum.Generation.Success, sum.Generation.Failed)
	}
	raw, err := dialogue.ReadFile(cfg.RawPath())
	if err != nil {
		t.Fatalf("read raw: %v", err)
	}
	if len(raw) != 3 {
		t.Fatalf("raw items = %d, want 3 (failures are not written)", len(raw))
	}
	if sum.RuleFilter.InputCount != 3 {
		t.Fatalf("rule filter input = %d, want 3", sum.RuleFilter.InputCount)
	}
}

func TestPipelineFailsWhenNothingGenerates(t *testing.T) {
	cfg := testConfig(t)
	s, err := store.Open("file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	mock := llm.NewMockProvider()
	mock.Hook = func(llm.Request) (*llm.Response, error) {
		return nil, errors.New("api down")
	}

	p := New(cfg, mock, loadRegistry(t), WithRunRecorder(s.RunRepo()))
	sum, err := p.Run(context.Background(), AllStages())
	if err == nil {
		t.Fatal("expected error when every generation attempt fails")
	}
	if sum.Generation == nil || sum.Generation.Failed != 4 {
		t.Fatalf("generation stats = %+v, want 4 failures", sum.Generation)
	}

	// The failure is recorded against the run.
	rec, err := s.RunRepo().GetRun(context.Background(), sum.RunID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if rec.Status != store.RunStatusFailed {
		t.Errorf("run status = %q, want failed", rec.Status)
	}
	if rec.Error == "" {
		t.Error("expected the run record to carry the failure message")
	}
}

func TestPipelineEmitsStageEvents(t *testing.T) {
	cfg := testConfig(t)
	p := New(cfg, routingProvider(t), loadRegistry(t), WithEvents(64))

	collected := make(chan []Event, 1)
	go func() {
		var events []Event
		for ev := range p.Events() {
			events = append(events, ev)
		}
		collected <- events
	}()

	if _, err := p.Run(context.Background(), AllStages()); err != nil {
		t.Fatalf("run: %v", err)
	}

	events := <-collected
	seen := map[string]bool{}
	done := map[string]bool{}
	for _, ev := range events {
		seen[ev.Stage] = true
		if ev.Done {
			done[ev.Stage] = true
		}
	}
	for _, stage := range []string{StageGeneration, StageRuleFilter, StageJudge, StageSamples} {
		if !seen[stage] {
			t.Errorf("no events for stage %q", stage)
		}
		if !done[stage] {
			t.Errorf("no done event for stage %q", stage)
		}
	}
}
