package pipeline

import (
	"math/rand/v2"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/JieWu02/nanochat/internal/dialogue"
	"github.com/JieWu02/nanochat/internal/scenario"
)

// defaultSampleCount is how many conversations each category's sample
// file holds.
const defaultSampleCount = 5

// sampleFile is the JSON document written per category.
type sampleFile struct {
	Samples []dialogue.Item `json:"samples"`
	Count   int             `json:"count"`
}

// RunSamples extracts a small random sample per category from the given
// JSONL file into human-readable JSON documents under the samples
// directory. perCategory <= 0 selects the default of 5. It returns the
// number of samples written per category.
func (p *Pipeline) RunSamples(inputPath string, perCategory int) (map[string]int, error) {
	if perCategory <= 0 {
		perCategory = defaultSampleCount
	}

	if err := requireInput(inputPath); err != nil {
		return nil, err
	}
	items, err := dialogue.ReadFile(inputPath)
	if err != nil {
		return nil, err
	}

	byCategory := map[string][]dialogue.Item{}
	for _, it := range items {
		cat := it.Metadata.Category
		byCategory[cat] = append(byCategory[cat], it)
	}

	counts := map[string]int{}
	for _, cat := range []string{scenario.CategoryRefusal, scenario.CategoryRedirection} {
		group := byCategory[cat]
		if len(group) == 0 {
			continue
		}

		rand.Shuffle(len(group), func(i, j int) {
			group[i], group[j] = group[j], group[i]
		})
		n := min(perCategory, len(group))

		out := sampleFile{Samples: group[:n], Count: n}
		path := filepath.Join(p.cfg.SamplesDir(), "sample_"+cat+".json")
		if err := writeJSON(path, out); err != nil {
			return nil, err
		}

		counts[cat] = n
		p.log.Info("samples written",
			zap.String("category", cat),
			zap.Int("count", n),
			zap.String("path", path),
		)
	}

	p.emit(Event{Stage: StageSamples, Total: len(counts), Completed: len(counts), Done: true})
	return counts, nil
}
