// Package config loads experiment settings from HCL.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/lox/dealerbench/internal/analysis"
	"github.com/lox/dealerbench/internal/draw"
	"github.com/lox/dealerbench/internal/game"
)

// Config is the complete file layout. Every block is optional.
type Config struct {
	Experiment *ExperimentConfig `hcl:"experiment,block"`
	Analysis   *AnalysisConfig   `hcl:"analysis,block"`
	Provider   *ProviderConfig   `hcl:"provider,block"`
}

// ExperimentConfig controls game generation.
type ExperimentConfig struct {
	Games        int    `hcl:"games,optional"`
	Workers      int    `hcl:"workers,optional"`
	Seed         int64  `hcl:"seed,optional"`
	Players      int    `hcl:"players,optional"`
	Policy       string `hcl:"policy,optional"`
	Threshold    int    `hcl:"threshold,optional"`
	DealOrder    string `hcl:"deal_order,optional"`
	GameTimeout  string `hcl:"game_timeout,optional"`
	MinCompleted int    `hcl:"min_completed,optional"`
	OutputDir    string `hcl:"output_dir,optional"`
}

// AnalysisConfig mirrors analysis.Options. A sample_size of -1 disables
// capping.
type AnalysisConfig struct {
	SampleSize       int      `hcl:"sample_size,optional"`
	Alpha            float64  `hcl:"alpha,optional"`
	FloorProbability float64  `hcl:"floor_probability,optional"`
	FloorCount       float64  `hcl:"floor_count,optional"`
	Features         []string `hcl:"features,optional"`
}

// ProviderConfig configures the text-completion provider behind the
// external draw source.
type ProviderConfig struct {
	Model         string  `hcl:"model,optional"`
	BaseURL       string  `hcl:"base_url,optional"`
	APIKey        string  `hcl:"api_key,optional"`
	APIKeyEnv     string  `hcl:"api_key_env,optional"`
	Temperature   float64 `hcl:"temperature,optional"`
	MaxTokens     int     `hcl:"max_tokens,optional"`
	SystemPrompt  string  `hcl:"system_prompt,optional"`
	Prompt        string  `hcl:"prompt,optional"`
	PromptFile    string  `hcl:"prompt_file,optional"`
	MaxAttempts   int     `hcl:"max_attempts,optional"`
	Timeout       string  `hcl:"timeout,optional"`
	RatePerSecond float64 `hcl:"rate_per_second,optional"`
	Burst         int     `hcl:"burst,optional"`
	QueueExtra    bool    `hcl:"queue_extra,optional"`
}

const (
	defaultGames       = 10000
	defaultGameTimeout = "2m"
	defaultModel       = "gpt-4o-mini"
	defaultAPIKeyEnv   = "OPENAI_API_KEY"
	defaultTimeout     = "30s"
	defaultRate        = 5.0
	defaultOutputDir   = "results"
)

// Default returns the configuration used when no file is given.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads filename. A missing file yields the defaults.
func Load(filename string) (*Config, error) {
	if filename == "" {
		return Default(), nil
	}
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return Default(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", filename, err)
	}
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Experiment == nil {
		c.Experiment = &ExperimentConfig{}
	}
	if c.Analysis == nil {
		c.Analysis = &AnalysisConfig{}
	}
	if c.Provider == nil {
		c.Provider = &ProviderConfig{}
	}

	e := c.Experiment
	if e.Games == 0 {
		e.Games = defaultGames
	}
	if e.Players == 0 {
		e.Players = 1
	}
	if e.Policy == "" {
		e.Policy = "upcard"
	}
	if e.Threshold == 0 {
		e.Threshold = game.DefaultThreshold
	}
	if e.DealOrder == "" {
		e.DealOrder = "grouped"
	}
	if e.GameTimeout == "" {
		e.GameTimeout = defaultGameTimeout
	}
	if e.OutputDir == "" {
		e.OutputDir = defaultOutputDir
	}

	a := c.Analysis
	defaults := analysis.DefaultOptions()
	if a.SampleSize == 0 {
		a.SampleSize = defaults.SampleSize
	}
	if a.Alpha == 0 {
		a.Alpha = defaults.Alpha
	}
	if a.FloorProbability == 0 {
		a.FloorProbability = defaults.FloorProbability
	}
	if a.FloorCount == 0 {
		a.FloorCount = defaults.FloorCount
	}

	p := c.Provider
	if p.Model == "" {
		p.Model = defaultModel
	}
	if p.APIKeyEnv == "" {
		p.APIKeyEnv = defaultAPIKeyEnv
	}
	if p.MaxAttempts == 0 {
		p.MaxAttempts = draw.DefaultMaxAttempts
	}
	if p.Timeout == "" {
		p.Timeout = defaultTimeout
	}
	if p.RatePerSecond == 0 {
		p.RatePerSecond = defaultRate
	}
	if p.Burst == 0 {
		p.Burst = 1
	}
}

// Validate checks the configuration after defaults are applied.
func (c *Config) Validate() error {
	e := c.Experiment
	if e.Games < 1 {
		return fmt.Errorf("experiment: games must be positive, got %d", e.Games)
	}
	if e.Workers < 0 {
		return fmt.Errorf("experiment: workers must not be negative, got %d", e.Workers)
	}
	if e.Players < 1 || e.Players > 7 {
		return fmt.Errorf("experiment: players must be between 1 and 7, got %d", e.Players)
	}
	if _, err := game.ParsePolicy(e.Policy, e.Threshold); err != nil {
		return fmt.Errorf("experiment: %w", err)
	}
	if e.Threshold < 2 || e.Threshold > 21 {
		return fmt.Errorf("experiment: threshold must be between 2 and 21, got %d", e.Threshold)
	}
	if _, err := game.ParseDealOrder(e.DealOrder); err != nil {
		return fmt.Errorf("experiment: %w", err)
	}
	if _, err := parseDuration("experiment: game_timeout", e.GameTimeout); err != nil {
		return err
	}
	if e.MinCompleted < 0 || e.MinCompleted > e.Games {
		return fmt.Errorf("experiment: min_completed must be between 0 and games, got %d", e.MinCompleted)
	}

	if err := c.AnalysisOptions().Validate(); err != nil {
		return fmt.Errorf("analysis: %w", err)
	}
	if _, err := c.AnalysisFeatures(); err != nil {
		return fmt.Errorf("analysis: %w", err)
	}

	p := c.Provider
	if p.Temperature < 0 || p.Temperature > 2 {
		return fmt.Errorf("provider: temperature must be between 0 and 2, got %v", p.Temperature)
	}
	if p.MaxAttempts < 1 {
		return fmt.Errorf("provider: max_attempts must be positive, got %d", p.MaxAttempts)
	}
	if _, err := parseDuration("provider: timeout", p.Timeout); err != nil {
		return err
	}
	if p.RatePerSecond < 0 {
		return fmt.Errorf("provider: rate_per_second must not be negative, got %v", p.RatePerSecond)
	}
	if p.Prompt != "" && p.PromptFile != "" {
		return fmt.Errorf("provider: prompt and prompt_file are mutually exclusive")
	}
	return nil
}

// GameConfig returns the table rules for the experiment block.
func (c *Config) GameConfig() (game.Config, error) {
	policy, err := game.ParsePolicy(c.Experiment.Policy, c.Experiment.Threshold)
	if err != nil {
		return game.Config{}, err
	}
	order, err := game.ParseDealOrder(c.Experiment.DealOrder)
	if err != nil {
		return game.Config{}, err
	}
	return game.Config{
		Players:   c.Experiment.Players,
		Policy:    policy,
		DealOrder: order,
	}, nil
}

// GameTimeout returns the per-game deadline.
func (c *Config) GameTimeout() time.Duration {
	d, _ := parseDuration("", c.Experiment.GameTimeout)
	return d
}

// ProviderTimeout returns the per-call provider deadline.
func (c *Config) ProviderTimeout() time.Duration {
	d, _ := parseDuration("", c.Provider.Timeout)
	return d
}

// AnalysisOptions converts the analysis block.
func (c *Config) AnalysisOptions() analysis.Options {
	return analysis.Options{
		SampleSize:       c.Analysis.SampleSize,
		Alpha:            c.Analysis.Alpha,
		FloorProbability: c.Analysis.FloorProbability,
		FloorCount:       c.Analysis.FloorCount,
	}
}

// AnalysisFeatures resolves the configured features, CoreFeatures when none
// are listed.
func (c *Config) AnalysisFeatures() ([]analysis.Feature, error) {
	if len(c.Analysis.Features) == 0 {
		return analysis.CoreFeatures(), nil
	}
	features := make([]analysis.Feature, 0, len(c.Analysis.Features))
	for _, name := range c.Analysis.Features {
		f, err := analysis.ParseFeature(name)
		if err != nil {
			return nil, err
		}
		features = append(features, f)
	}
	return features, nil
}

// PromptTemplate returns the provider prompt: a built-in name, inline
// template text, or the contents of prompt_file.
func (c *Config) PromptTemplate() (string, error) {
	p := c.Provider
	if p.PromptFile != "" {
		data, err := os.ReadFile(p.PromptFile)
		if err != nil {
			return "", fmt.Errorf("failed to read prompt file: %w", err)
		}
		return string(data), nil
	}
	if text, err := draw.PromptByName(p.Prompt); err == nil {
		return text, nil
	}
	return p.Prompt, nil
}

// APIKey returns the configured key, falling back to the environment.
func (c *Config) APIKey() string {
	if c.Provider.APIKey != "" {
		return c.Provider.APIKey
	}
	return os.Getenv(c.Provider.APIKeyEnv)
}

func parseDuration(field, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: must not be negative, got %s", field, value)
	}
	return d, nil
}
