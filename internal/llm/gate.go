package llm

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// GateProvider is a decorator that bounds how many calls are in flight
// against the upstream API at once. Each Generate call holds one admission
// slot for the duration of a single attempt; the retry layer sits outside,
// so backoff sleeps never occupy a slot.
//
// The gate also feeds the health tracker: every attempt that passes through
// records one outcome, success meaning a response with non-empty content.
type GateProvider struct {
	inner  Provider
	sem    *semaphore.Weighted
	health *HealthTracker
}

// WithGate wraps a Provider with an admission semaphore of the given
// capacity and outcome recording into tracker. A capacity below 1 falls
// back to 1; a nil tracker disables recording.
func WithGate(p Provider, capacity int, tracker *HealthTracker) Provider {
	if capacity < 1 {
		capacity = 1
	}
	return &GateProvider{
		inner:  p,
		sem:    semaphore.NewWeighted(int64(capacity)),
		health: tracker,
	}
}

func (g *GateProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer g.sem.Release(1)

	resp, err := g.inner.Generate(ctx, req)
	if g.health != nil {
		g.health.Record(err == nil && resp != nil && len(resp.Content) > 0)
	}
	return resp, err
}

func (g *GateProvider) ModelID() string {
	return g.inner.ModelID()
}
