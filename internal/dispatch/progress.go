package dispatch

import "sync/atomic"

// Progress exposes live counters for an in-flight Run. All methods are
// safe to call from any goroutine, which lets a UI poll while workers run.
type Progress struct {
	total     atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
}

func (p *Progress) reset(total int) {
	p.total.Store(int64(total))
	p.completed.Store(0)
	p.failed.Store(0)
}

func (p *Progress) record(success bool) {
	p.completed.Add(1)
	if !success {
		p.failed.Add(1)
	}
}

// Total returns how many items the current run submitted.
func (p *Progress) Total() int { return int(p.total.Load()) }

// Completed returns how many items have resolved, failures included.
func (p *Progress) Completed() int { return int(p.completed.Load()) }

// Failed returns how many items resolved with an error.
func (p *Progress) Failed() int { return int(p.failed.Load()) }

// Fraction returns completion as a value in [0, 1]. A run with no items
// reports 1.
func (p *Progress) Fraction() float64 {
	total := p.total.Load()
	if total == 0 {
		return 1
	}
	return float64(p.completed.Load()) / float64(total)
}
