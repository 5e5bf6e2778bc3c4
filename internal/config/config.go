// Package config holds the pipeline configuration: generation volume and
// split, filter thresholds, worker counts, and output layout. Values come
// from defaults, then an optional YAML file, then NANOCHAT_* environment
// overrides, in that order.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/JieWu02/nanochat/internal/dialogue"
	"github.com/JieWu02/nanochat/internal/llm"
)

// Generation controls the generation stage.
type Generation struct {
	// RefusalCount and RedirectionCount set how many conversations to
	// generate per category.
	RefusalCount     int    `yaml:"refusal_count"`
	RedirectionCount int    `yaml:"redirection_count"`
	Workers          int    `yaml:"workers"`
	Language         string `yaml:"language"`
	MaxTokens        int    `yaml:"max_tokens"`
	Effort           string `yaml:"effort"`
	TimeoutSeconds   int    `yaml:"timeout_seconds"`
}

// RuleFilter controls the deterministic filter stage.
type RuleFilter struct {
	// Threshold is the minimum score (0-100) a conversation must reach
	// to be accepted.
	Threshold int `yaml:"threshold"`
}

// Judge controls the LLM judge stage.
type Judge struct {
	SafetyThreshold   int     `yaml:"safety_threshold"`
	AvgOtherThreshold float64 `yaml:"avg_other_threshold"`
	Workers           int     `yaml:"workers"`
	MaxTokens         int     `yaml:"max_tokens"`
	Effort            string  `yaml:"effort"`
}

// Config is the full pipeline configuration.
type Config struct {
	Generation Generation `yaml:"generation"`
	RuleFilter RuleFilter `yaml:"rule_filter"`
	Judge      Judge      `yaml:"judge"`
	OutputDir  string     `yaml:"output_dir"`

	// Gateway holds LLM provider settings. It is env-only: API keys
	// don't belong in config files.
	Gateway llm.Config `yaml:"-"`
}

// Default returns the production defaults: 1000 conversations split
// 500/500, 32 workers per stage, rule threshold 40, judge thresholds 4
// and 3.
func Default() Config {
	return Config{
		Generation: Generation{
			RefusalCount:     500,
			RedirectionCount: 500,
			Workers:          32,
			Language:         dialogue.LangEnglish,
			MaxTokens:        4096,
			Effort:           "low",
			TimeoutSeconds:   120,
		},
		RuleFilter: RuleFilter{
			Threshold: 40,
		},
		Judge: Judge{
			SafetyThreshold:   4,
			AvgOtherThreshold: 3,
			Workers:           32,
			MaxTokens:         1024,
			Effort:            "low",
		},
		OutputDir: "output",
		Gateway:   llm.ConfigFromEnv(),
	}
}

// Load builds the effective configuration: defaults, overlaid with the
// YAML file at path when given, overlaid with environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

// applyEnv overlays NANOCHAT_* environment variables. Unset or malformed
// values leave the existing setting untouched.
func applyEnv(cfg *Config) {
	if d := os.Getenv("NANOCHAT_OUTPUT_DIR"); d != "" {
		cfg.OutputDir = d
	}
	if l := os.Getenv("NANOCHAT_LANGUAGE"); l != "" {
		cfg.Generation.Language = l
	}
	setIntEnv("NANOCHAT_REFUSAL_COUNT", &cfg.Generation.RefusalCount)
	setIntEnv("NANOCHAT_REDIRECTION_COUNT", &cfg.Generation.RedirectionCount)
	setIntEnv("NANOCHAT_RULE_THRESHOLD", &cfg.RuleFilter.Threshold)
	setIntEnv("NANOCHAT_SAFETY_THRESHOLD", &cfg.Judge.SafetyThreshold)

	if v := os.Getenv("NANOCHAT_AVG_OTHER_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Judge.AvgOtherThreshold = f
		}
	}
	if v := os.Getenv("NANOCHAT_TOTAL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.SetTotal(n)
		}
	}
	if v := os.Getenv("NANOCHAT_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Generation.Workers = n
			cfg.Judge.Workers = n
		}
	}
}

func setIntEnv(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// Total returns the overall number of conversations to generate.
func (c Config) Total() int {
	return c.Generation.RefusalCount + c.Generation.RedirectionCount
}

// SetTotal splits n across the two categories, refusal taking the extra
// item when n is odd.
func (c *Config) SetTotal(n int) {
	c.Generation.RefusalCount = (n + 1) / 2
	c.Generation.RedirectionCount = n / 2
}

// Validate checks the pipeline settings. Gateway credentials are checked
// separately, only by stages that call an LLM.
func (c Config) Validate() error {
	if c.Generation.RefusalCount < 0 || c.Generation.RedirectionCount < 0 {
		return fmt.Errorf("category counts must not be negative")
	}
	if c.Total() == 0 {
		return fmt.Errorf("at least one conversation must be requested")
	}
	if c.Generation.Workers < 1 {
		return fmt.Errorf("generation workers must be at least 1, got %d", c.Generation.Workers)
	}
	if c.Judge.Workers < 1 {
		return fmt.Errorf("judge workers must be at least 1, got %d", c.Judge.Workers)
	}
	switch c.Generation.Language {
	case dialogue.LangEnglish, dialogue.LangChinese:
	default:
		return fmt.Errorf("unsupported language %q (want %q or %q)",
			c.Generation.Language, dialogue.LangEnglish, dialogue.LangChinese)
	}
	if c.RuleFilter.Threshold < 0 || c.RuleFilter.Threshold > 100 {
		return fmt.Errorf("rule filter threshold must be in [0, 100], got %d", c.RuleFilter.Threshold)
	}
	if c.Judge.SafetyThreshold < 1 || c.Judge.SafetyThreshold > 5 {
		return fmt.Errorf("safety threshold must be in [1, 5], got %d", c.Judge.SafetyThreshold)
	}
	if c.Judge.AvgOtherThreshold < 1 || c.Judge.AvgOtherThreshold > 5 {
		return fmt.Errorf("avg other threshold must be in [1, 5], got %v", c.Judge.AvgOtherThreshold)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output dir must not be empty")
	}
	return nil
}

// Output layout. Stage outputs are written under OutputDir:
//
//	raw/raw_conversations.jsonl
//	stage1_rule_filtered/{accepted,rejected}.jsonl
//	stage2_llm_filtered/{accepted,rejected}.jsonl
//	samples/sample_<category>.json
//	statistics/{generation,rule_filter,llm_filter}_stats.json

func (c Config) RawPath() string {
	return filepath.Join(c.OutputDir, "raw", "raw_conversations.jsonl")
}

func (c Config) Stage1AcceptedPath() string {
	return filepath.Join(c.OutputDir, "stage1_rule_filtered", "accepted.jsonl")
}

func (c Config) Stage1RejectedPath() string {
	return filepath.Join(c.OutputDir, "stage1_rule_filtered", "rejected.jsonl")
}

func (c Config) Stage2AcceptedPath() string {
	return filepath.Join(c.OutputDir, "stage2_llm_filtered", "accepted.jsonl")
}

func (c Config) Stage2RejectedPath() string {
	return filepath.Join(c.OutputDir, "stage2_llm_filtered", "rejected.jsonl")
}

func (c Config) SamplesDir() string {
	return filepath.Join(c.OutputDir, "samples")
}

func (c Config) GenerationStatsPath() string {
	return filepath.Join(c.OutputDir, "statistics", "generation_stats.json")
}

func (c Config) RuleFilterStatsPath() string {
	return filepath.Join(c.OutputDir, "statistics", "rule_filter_stats.json")
}

func (c Config) JudgeStatsPath() string {
	return filepath.Join(c.OutputDir, "statistics", "llm_filter_stats.json")
}
