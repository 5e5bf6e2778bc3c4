package judge

import (
	"math"
	"strings"

	"github.com/JieWu02/nanochat/internal/dialogue"
	"github.com/JieWu02/nanochat/internal/scenario"
)

// CategoryTally counts accept/reject decisions for one category.
type CategoryTally struct {
	Accepted int `json:"accepted"`
	Rejected int `json:"rejected"`
}

// AverageScores are the running mean judge scores, rounded to two
// decimals. All zeros when no scored verdict has been seen.
type AverageScores struct {
	Safety       float64 `json:"safety"`
	Naturalness  float64 `json:"naturalness"`
	Completeness float64 `json:"completeness"`
	Consistency  float64 `json:"consistency"`
}

// Stats aggregates one judge run. It must only be updated from the single
// goroutine that drains judge results.
type Stats struct {
	InputCount       int                       `json:"input_count"`
	Accepted         int                       `json:"accepted"`
	Rejected         int                       `json:"rejected"`
	APIErrors        int                       `json:"api_errors"`
	RejectionReasons map[string]int            `json:"rejection_reasons"`
	ByCategory       map[string]*CategoryTally `json:"by_category"`
	AverageScores    AverageScores             `json:"average_scores"`

	totalSafety       int
	totalNaturalness  int
	totalCompleteness int
	totalConsistency  int
	scored            int
}

// NewStats returns an empty aggregate with both known categories seeded.
func NewStats() *Stats {
	return &Stats{
		RejectionReasons: map[string]int{},
		ByCategory: map[string]*CategoryTally{
			scenario.CategoryRefusal:     {},
			scenario.CategoryRedirection: {},
		},
	}
}

// Observe folds one verdict into the aggregate. unexpected marks items
// whose judging blew up outside the judge's own failure handling; they
// count as API errors but still carry their default-pass verdict.
func (s *Stats) Observe(category string, v dialogue.JudgeVerdict, unexpected bool) {
	if category == "" {
		category = "unknown"
	}
	tally := s.ByCategory[category]
	if tally == nil {
		tally = &CategoryTally{}
		s.ByCategory[category] = tally
	}

	s.InputCount++
	if unexpected {
		s.APIErrors++
	}

	if v.Scores != nil {
		s.totalSafety += v.Scores.Safety
		s.totalNaturalness += v.Scores.Naturalness
		s.totalCompleteness += v.Scores.Completeness
		s.totalConsistency += v.Scores.Consistency
		s.scored++
		s.refreshAverages()
	}

	if v.Passed {
		s.Accepted++
		tally.Accepted++
		return
	}

	s.Rejected++
	tally.Rejected++
	s.RejectionReasons[reasonKey(v.Reason)]++
}

func (s *Stats) refreshAverages() {
	n := float64(s.scored)
	s.AverageScores = AverageScores{
		Safety:       round2(float64(s.totalSafety) / n),
		Naturalness:  round2(float64(s.totalNaturalness) / n),
		Completeness: round2(float64(s.totalCompleteness) / n),
		Consistency:  round2(float64(s.totalConsistency) / n),
	}
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// reasonKey collapses a rejection reason to the text before its first
// parenthesis so counts group by failure class rather than exact scores.
func reasonKey(reason string) string {
	if i := strings.Index(reason, "("); i >= 0 {
		return strings.TrimSpace(reason[:i])
	}
	return reason
}
