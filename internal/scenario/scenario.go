// Package scenario holds the catalogue of safety scenarios that drives
// dialogue generation: per-subcategory starter prompts, context
// variations, and descriptions. The default pack is embedded in the
// binary; a YAML file with the same shape can replace it at runtime.
package scenario

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Category names.
const (
	CategoryRefusal     = "refusal"
	CategoryRedirection = "redirection"
)

//go:embed scenarios.yaml
var embeddedPack []byte

// Scenario is one subcategory's generation material.
type Scenario struct {
	Category          string   `yaml:"-"`
	Subcategory       string   `yaml:"subcategory"`
	Description       string   `yaml:"description"`
	Starters          []string `yaml:"starters"`
	ContextVariations []string `yaml:"context_variations"`
}

// Category groups the scenarios of one top-level category. Order within
// Scenarios is declaration order and is load-bearing: generation plans
// assign remainders to the earliest subcategories.
type Category struct {
	Name      string     `yaml:"name"`
	Scenarios []Scenario `yaml:"scenarios"`
}

// Registry is a loaded, validated scenario pack.
type Registry struct {
	categories []Category
}

type packFile struct {
	Categories []Category `yaml:"categories"`
}

// Load parses the embedded scenario pack.
func Load() (*Registry, error) {
	return parse(embeddedPack, "embedded scenario pack")
}

// LoadFile parses a scenario pack from a YAML file, replacing the
// embedded one.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario pack: %w", err)
	}
	return parse(data, path)
}

func parse(data []byte, source string) (*Registry, error) {
	var pack packFile
	if err := yaml.Unmarshal(data, &pack); err != nil {
		return nil, fmt.Errorf("parse %s: %w", source, err)
	}
	if len(pack.Categories) == 0 {
		return nil, fmt.Errorf("%s: no categories defined", source)
	}

	seen := make(map[string]bool)
	for ci := range pack.Categories {
		cat := &pack.Categories[ci]
		if cat.Name == "" {
			return nil, fmt.Errorf("%s: category %d has no name", source, ci)
		}
		if len(cat.Scenarios) == 0 {
			return nil, fmt.Errorf("%s: category %q has no scenarios", source, cat.Name)
		}
		for si := range cat.Scenarios {
			sc := &cat.Scenarios[si]
			sc.Category = cat.Name
			if sc.Subcategory == "" {
				return nil, fmt.Errorf("%s: category %q scenario %d has no subcategory", source, cat.Name, si)
			}
			key := cat.Name + "/" + sc.Subcategory
			if seen[key] {
				return nil, fmt.Errorf("%s: duplicate scenario %s", source, key)
			}
			seen[key] = true
			if len(sc.Starters) == 0 {
				return nil, fmt.Errorf("%s: scenario %s has no starters", source, key)
			}
		}
	}

	return &Registry{categories: pack.Categories}, nil
}

// Categories returns category names in declaration order.
func (r *Registry) Categories() []string {
	out := make([]string, len(r.categories))
	for i, c := range r.categories {
		out[i] = c.Name
	}
	return out
}

// Scenarios returns the scenarios of a category in declaration order,
// or nil for an unknown category.
func (r *Registry) Scenarios(category string) []Scenario {
	for _, c := range r.categories {
		if c.Name == category {
			return c.Scenarios
		}
	}
	return nil
}

// Lookup finds one scenario by category and subcategory.
func (r *Registry) Lookup(category, subcategory string) (*Scenario, bool) {
	for _, sc := range r.Scenarios(category) {
		if sc.Subcategory == subcategory {
			return &sc, true
		}
	}
	return nil, false
}

// Total returns the number of scenarios across all categories.
func (r *Registry) Total() int {
	n := 0
	for _, c := range r.categories {
		n += len(c.Scenarios)
	}
	return n
}
