// Package convogen turns the scenario catalogue into a generation plan
// and produces conversations through an LLM provider, one work item at
// a time.
package convogen

import (
	"fmt"

	"github.com/JieWu02/nanochat/internal/scenario"
)

// Assignment is the number of conversations one subcategory receives.
type Assignment struct {
	Category    string
	Subcategory string
	Count       int
}

// Plan is the full generation plan: per-subcategory assignments in
// catalogue order, expandable into indexed work items.
type Plan struct {
	Assignments []Assignment
	Total       int
}

// WorkItem is a single conversation to generate. Index is unique across
// the whole plan and doubles as the random seed for prompt assembly, so
// rerunning a plan reproduces the same prompts.
type WorkItem struct {
	Index       int
	Category    string
	Subcategory string
	Language    string
}

// BuildPlan distributes each category's requested count evenly across its
// subcategories in catalogue order. When the count does not divide
// evenly, the first subcategories each take one extra, so totals are
// preserved exactly.
func BuildPlan(reg *scenario.Registry, counts map[string]int) (*Plan, error) {
	for name := range counts {
		if reg.Scenarios(name) == nil {
			return nil, fmt.Errorf("unknown category %q in generation counts", name)
		}
	}

	plan := &Plan{}
	for _, cat := range reg.Categories() {
		want := counts[cat]
		if want < 0 {
			return nil, fmt.Errorf("category %q has negative count %d", cat, want)
		}
		if want == 0 {
			continue
		}

		subs := reg.Scenarios(cat)
		per := want / len(subs)
		remainder := want % len(subs)

		for i, sc := range subs {
			count := per
			if i < remainder {
				count++
			}
			if count == 0 {
				continue
			}
			plan.Assignments = append(plan.Assignments, Assignment{
				Category:    cat,
				Subcategory: sc.Subcategory,
				Count:       count,
			})
			plan.Total += count
		}
	}

	return plan, nil
}

// WorkItems expands the plan into individual items with sequential
// indices, in assignment order.
func (p *Plan) WorkItems(language string) []WorkItem {
	items := make([]WorkItem, 0, p.Total)
	idx := 0
	for _, a := range p.Assignments {
		for range a.Count {
			items = append(items, WorkItem{
				Index:       idx,
				Category:    a.Category,
				Subcategory: a.Subcategory,
				Language:    language,
			})
			idx++
		}
	}
	return items
}
