package rulefilter

import (
	"fmt"
	"strings"

	"github.com/JieWu02/nanochat/internal/dialogue"
	"github.com/JieWu02/nanochat/internal/scenario"
)

// CategoryTally counts accept/reject decisions for one category.
type CategoryTally struct {
	Accepted int `json:"accepted"`
	Rejected int `json:"rejected"`
}

// Stats aggregates one rule-filter run. It must only be updated from the
// single goroutine that drains filter results.
type Stats struct {
	InputCount        int                       `json:"input_count"`
	Accepted          int                       `json:"accepted"`
	Rejected          int                       `json:"rejected"`
	RejectionReasons  map[string]int            `json:"rejection_reasons"`
	ByCategory        map[string]*CategoryTally `json:"by_category"`
	ScoreDistribution map[string]int            `json:"score_distribution"`
}

// NewStats returns an empty aggregate with both known categories seeded so
// they appear in the summary even when a run produces nothing for one.
func NewStats() *Stats {
	return &Stats{
		RejectionReasons: map[string]int{},
		ByCategory: map[string]*CategoryTally{
			scenario.CategoryRefusal:     {},
			scenario.CategoryRedirection: {},
		},
		ScoreDistribution: map[string]int{},
	}
}

// Observe folds one verdict into the aggregate. Structural rejections skip
// the score distribution and count their issue verbatim; quality rejections
// bucket their score and count issues by stable prefix.
func (s *Stats) Observe(category string, v dialogue.RuleVerdict, structural bool) {
	if category == "" {
		category = "unknown"
	}
	tally := s.ByCategory[category]
	if tally == nil {
		tally = &CategoryTally{}
		s.ByCategory[category] = tally
	}

	s.InputCount++

	if structural {
		s.Rejected++
		tally.Rejected++
		for _, issue := range v.Issues {
			s.RejectionReasons[issue]++
		}
		return
	}

	base := (v.Score / 10) * 10
	s.ScoreDistribution[fmt.Sprintf("%d-%d", base, base+9)]++

	if v.Passed {
		s.Accepted++
		tally.Accepted++
		return
	}

	s.Rejected++
	tally.Rejected++
	for _, issue := range v.Issues {
		s.RejectionReasons[reasonKey(issue)]++
	}
}

// reasonKey collapses an issue to the text before its first colon so counts
// group by failure class rather than per-item detail.
func reasonKey(issue string) string {
	if i := strings.Index(issue, ":"); i >= 0 {
		return issue[:i]
	}
	return issue
}
