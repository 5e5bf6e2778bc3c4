package convogen

import "github.com/JieWu02/nanochat/internal/scenario"

// Outcome tallies successes and failures for one grouping.
type Outcome struct {
	Success int `json:"success"`
	Failed  int `json:"failed"`
}

// Stats aggregates generation outcomes for the stage statistics file.
// Subcategory keys take the form "category/subcategory".
type Stats struct {
	TotalAttempts int                 `json:"total_attempts"`
	Success       int                 `json:"success"`
	Failed        int                 `json:"failed"`
	ByCategory    map[string]*Outcome `json:"by_category"`
	BySubcategory map[string]*Outcome `json:"by_subcategory"`
}

// NewStats creates a Stats for a plan of totalAttempts items, with the
// known categories pre-seeded so they appear in the output even when
// empty.
func NewStats(totalAttempts int) *Stats {
	return &Stats{
		TotalAttempts: totalAttempts,
		ByCategory: map[string]*Outcome{
			scenario.CategoryRefusal:     {},
			scenario.CategoryRedirection: {},
		},
		BySubcategory: map[string]*Outcome{},
	}
}

// Observe records the outcome of one generation attempt.
func (s *Stats) Observe(category, subcategory string, ok bool) {
	cat := s.ByCategory[category]
	if cat == nil {
		cat = &Outcome{}
		s.ByCategory[category] = cat
	}
	key := category + "/" + subcategory
	sub := s.BySubcategory[key]
	if sub == nil {
		sub = &Outcome{}
		s.BySubcategory[key] = sub
	}

	if ok {
		s.Success++
		cat.Success++
		sub.Success++
	} else {
		s.Failed++
		cat.Failed++
		sub.Failed++
	}
}
