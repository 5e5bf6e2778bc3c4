package llm

import "sync"

// defaultHealthWindow is how many recent call outcomes the tracker keeps.
const defaultHealthWindow = 50

// HealthTracker keeps a bounded window of recent call outcomes so the rest
// of the process can observe API health without unbounded growth. It starts
// empty; the success rate over zero samples reports 1.0 so an idle process
// never looks unhealthy.
type HealthTracker struct {
	mu       sync.Mutex
	outcomes []bool
	next     int
}

// NewHealthTracker returns a tracker bounded to the given window size.
// A size below 1 falls back to the default of 50.
func NewHealthTracker(size int) *HealthTracker {
	if size < 1 {
		size = defaultHealthWindow
	}
	return &HealthTracker{outcomes: make([]bool, 0, size)}
}

// Record appends one call outcome, evicting the oldest once the window
// is full.
func (h *HealthTracker) Record(success bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.outcomes) < cap(h.outcomes) {
		h.outcomes = append(h.outcomes, success)
		return
	}
	h.outcomes[h.next] = success
	h.next = (h.next + 1) % cap(h.outcomes)
}

// SuccessRate returns the fraction of successes in the current window.
// An empty window reports 1.0.
func (h *HealthTracker) SuccessRate() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.outcomes) == 0 {
		return 1.0
	}
	ok := 0
	for _, s := range h.outcomes {
		if s {
			ok++
		}
	}
	return float64(ok) / float64(len(h.outcomes))
}

// Samples returns how many outcomes the window currently holds.
func (h *HealthTracker) Samples() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.outcomes)
}
