// Package report renders human-readable summaries of pipeline runs and
// their stage statistics for terminal output.
package report

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"charm.land/lipgloss/v2"

	"github.com/JieWu02/nanochat/internal/convogen"
	"github.com/JieWu02/nanochat/internal/judge"
	"github.com/JieWu02/nanochat/internal/pipeline"
	"github.com/JieWu02/nanochat/internal/rulefilter"
	"github.com/JieWu02/nanochat/internal/ui/theme"
)

const sepWidth = 60

func divider() string {
	return lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", sepWidth))
}

func sectionTitle(s string) string {
	return lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Render(s)
}

// Styled fragments are appended after plain-padded labels; padding a
// styled string would count its escape bytes.
func okCount(n int) string {
	return theme.Accept.Render(fmt.Sprintf("%d ok", n))
}

func failedCount(n int) string {
	return theme.Reject.Render(fmt.Sprintf("%d failed", n))
}

func acceptedCount(n int) string {
	return theme.Accept.Render(fmt.Sprintf("%d accepted", n))
}

func rejectedCount(n int) string {
	return theme.Reject.Render(fmt.Sprintf("%d rejected", n))
}

// Summary renders the end-of-run overview: one line per stage that ran.
func Summary(sum *pipeline.Summary) string {
	if sum == nil {
		return ""
	}

	var b strings.Builder

	b.WriteString(sectionTitle("Pipeline complete"))
	b.WriteString("\n")

	meta := sum.Elapsed.Round(time.Second).String()
	if sum.RunID != "" {
		meta = "run " + sum.RunID + "   " + meta
	}
	b.WriteString(theme.Hint.Render(meta))
	b.WriteString("\n")
	b.WriteString(divider())
	b.WriteString("\n")

	if g := sum.Generation; g != nil {
		line := fmt.Sprintf("  %-14s", "Generation") + okCount(g.Success)
		if g.Failed > 0 {
			line += "   " + failedCount(g.Failed)
		}
		line += theme.Hint.Render(fmt.Sprintf("   of %d attempts", g.TotalAttempts))
		b.WriteString(line)
		b.WriteString("\n")
	}

	if rf := sum.RuleFilter; rf != nil {
		b.WriteString(fmt.Sprintf("  %-14s", "Rule filter"))
		b.WriteString(acceptedCount(rf.Accepted))
		b.WriteString("   ")
		b.WriteString(rejectedCount(rf.Rejected))
		b.WriteString(theme.Hint.Render(fmt.Sprintf("   of %d", rf.InputCount)))
		b.WriteString("\n")
	}

	if j := sum.Judge; j != nil {
		line := fmt.Sprintf("  %-14s", "LLM judge") + acceptedCount(j.Accepted) + "   " + rejectedCount(j.Rejected)
		line += theme.Hint.Render(fmt.Sprintf("   of %d", j.InputCount))
		if j.APIErrors > 0 {
			line += "   " + theme.Reject.Render(fmt.Sprintf("%d api errors", j.APIErrors))
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	if len(sum.Samples) > 0 {
		parts := make([]string, 0, len(sum.Samples))
		for _, cat := range sortedKeys(sum.Samples) {
			parts = append(parts, fmt.Sprintf("%s %d", cat, sum.Samples[cat]))
		}
		b.WriteString(fmt.Sprintf("  %-14s", "Samples"))
		b.WriteString(theme.Body.Render(strings.Join(parts, "   ")))
		b.WriteString("\n")
	}

	return b.String()
}

// GenerationStats renders a stored generation aggregate.
func GenerationStats(st *convogen.Stats) string {
	if st == nil {
		return ""
	}

	var b strings.Builder

	b.WriteString(sectionTitle("Generation"))
	b.WriteString("\n")
	b.WriteString(divider())
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  attempts %d   ", st.TotalAttempts))
	b.WriteString(okCount(st.Success))
	b.WriteString("   ")
	b.WriteString(failedCount(st.Failed))
	b.WriteString("\n")

	if len(st.ByCategory) > 0 {
		b.WriteString("\n  By category\n")
		for _, cat := range sortedOutcomeKeys(st.ByCategory) {
			o := st.ByCategory[cat]
			b.WriteString(fmt.Sprintf("  %-28s %5d ok  %5d failed\n", cat, o.Success, o.Failed))
		}
	}

	if len(st.BySubcategory) > 0 {
		b.WriteString("\n  By subcategory\n")
		for _, key := range sortedOutcomeKeys(st.BySubcategory) {
			o := st.BySubcategory[key]
			b.WriteString(fmt.Sprintf("  %-28s %5d ok  %5d failed\n", key, o.Success, o.Failed))
		}
	}

	return b.String()
}

// RuleFilterStats renders a stored rule-filter aggregate.
func RuleFilterStats(st *rulefilter.Stats) string {
	if st == nil {
		return ""
	}

	var b strings.Builder

	b.WriteString(sectionTitle("Rule filter"))
	b.WriteString("\n")
	b.WriteString(divider())
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  input %d   ", st.InputCount))
	b.WriteString(acceptedCount(st.Accepted))
	b.WriteString("   ")
	b.WriteString(rejectedCount(st.Rejected))
	b.WriteString("\n")

	writeCategoryTallies(&b, tallyKeys(st.ByCategory), func(cat string) (int, int) {
		t := st.ByCategory[cat]
		return t.Accepted, t.Rejected
	})

	if len(st.ScoreDistribution) > 0 {
		b.WriteString("\n  Score distribution\n")
		for _, bucket := range sortedBuckets(st.ScoreDistribution) {
			b.WriteString(fmt.Sprintf("  %-10s %5d\n", bucket, st.ScoreDistribution[bucket]))
		}
	}

	writeReasonCounts(&b, st.RejectionReasons)

	return b.String()
}

// JudgeStats renders a stored judge aggregate.
func JudgeStats(st *judge.Stats) string {
	if st == nil {
		return ""
	}

	var b strings.Builder

	b.WriteString(sectionTitle("LLM judge"))
	b.WriteString("\n")
	b.WriteString(divider())
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  input %d   ", st.InputCount))
	b.WriteString(acceptedCount(st.Accepted))
	b.WriteString("   ")
	b.WriteString(rejectedCount(st.Rejected))
	if st.APIErrors > 0 {
		b.WriteString("   " + theme.Reject.Render(fmt.Sprintf("%d api errors", st.APIErrors)))
	}
	b.WriteString("\n")

	avg := st.AverageScores
	b.WriteString(fmt.Sprintf("\n  Average scores: safety %.2f   naturalness %.2f   completeness %.2f   consistency %.2f\n",
		avg.Safety, avg.Naturalness, avg.Completeness, avg.Consistency))

	writeCategoryTallies(&b, judgeTallyKeys(st.ByCategory), func(cat string) (int, int) {
		t := st.ByCategory[cat]
		return t.Accepted, t.Rejected
	})

	writeReasonCounts(&b, st.RejectionReasons)

	return b.String()
}

func writeCategoryTallies(b *strings.Builder, cats []string, tally func(string) (accepted, rejected int)) {
	if len(cats) == 0 {
		return
	}
	b.WriteString("\n  By category\n")
	for _, cat := range cats {
		a, r := tally(cat)
		b.WriteString(fmt.Sprintf("  %-28s %5d accepted  %5d rejected\n", cat, a, r))
	}
}

func writeReasonCounts(b *strings.Builder, reasons map[string]int) {
	if len(reasons) == 0 {
		return
	}
	b.WriteString("\n  Rejection reasons\n")
	for _, reason := range sortedByCount(reasons) {
		b.WriteString(fmt.Sprintf("  %5d  %s\n", reasons[reason], reason))
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedOutcomeKeys(m map[string]*convogen.Outcome) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func tallyKeys(m map[string]*rulefilter.CategoryTally) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func judgeTallyKeys(m map[string]*judge.CategoryTally) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// sortedByCount orders keys by descending count, ties alphabetically.
func sortedByCount(m map[string]int) []string {
	keys := sortedKeys(m)
	sort.SliceStable(keys, func(i, j int) bool {
		return m[keys[i]] > m[keys[j]]
	})
	return keys
}

// sortedBuckets orders "40-49" style score buckets numerically so 100
// lands after 90 rather than before 40.
func sortedBuckets(m map[string]int) []string {
	keys := sortedKeys(m)
	sort.Slice(keys, func(i, j int) bool {
		return bucketStart(keys[i]) < bucketStart(keys[j])
	})
	return keys
}

func bucketStart(bucket string) int {
	head, _, _ := strings.Cut(bucket, "-")
	n, err := strconv.Atoi(head)
	if err != nil {
		return 0
	}
	return n
}
