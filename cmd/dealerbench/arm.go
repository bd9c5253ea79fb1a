package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/dealerbench/internal/cards"
	"github.com/lox/dealerbench/internal/config"
	"github.com/lox/dealerbench/internal/draw"
	"github.com/lox/dealerbench/internal/experiment"
	"github.com/lox/dealerbench/internal/provider"
	"github.com/lox/dealerbench/internal/record"
	"github.com/rs/zerolog"
)

// ArmFlags override the experiment block of the config file. Zero values
// leave the file's setting alone.
type ArmFlags struct {
	Games       int           `kong:"help='Games to play per arm'"`
	Workers     int           `kong:"help='Concurrent games (0 = GOMAXPROCS)'"`
	Seed        int64         `kong:"help='Seed for deterministic runs (0 for random)'"`
	Players     int           `kong:"help='Player seats at the table (1-7)'"`
	Policy      string        `kong:"help='Player policy: upcard or threshold'"`
	DealOrder   string        `kong:"help='Initial deal order: grouped or rounds'"`
	GameTimeout time.Duration `kong:"help='Abandon a game that runs longer than this'"`
	OutputDir   string        `kong:"type='path',help='Directory for JSONL records and reports'"`
}

func (f ArmFlags) apply(cfg *config.Config) error {
	e := cfg.Experiment
	if f.Games > 0 {
		e.Games = f.Games
		if e.MinCompleted > e.Games {
			e.MinCompleted = e.Games
		}
	}
	if f.Workers > 0 {
		e.Workers = f.Workers
	}
	if f.Seed != 0 {
		e.Seed = f.Seed
	}
	if f.Players > 0 {
		e.Players = f.Players
	}
	if f.Policy != "" {
		e.Policy = f.Policy
	}
	if f.DealOrder != "" {
		e.DealOrder = f.DealOrder
	}
	if f.GameTimeout > 0 {
		e.GameTimeout = f.GameTimeout.String()
	}
	if f.OutputDir != "" {
		e.OutputDir = f.OutputDir
	}
	return cfg.Validate()
}

// SourceFlags choose the draw source under test.
type SourceFlags struct {
	Source      string `kong:"default='openai',enum='uniform,rigged,openai',help='Draw source: uniform, rigged or openai'"`
	Model       string `kong:"help='Provider model (overrides config)'"`
	Prompt      string `kong:"help='Prompt template name (dealer, zero-shot) or inline template'"`
	RigRole     string `kong:"default='dealer',enum='dealer,player',help='Role a rigged source cheats for'"`
	RigRank     string `kong:"default='ace',help='Rank a rigged source always draws'"`
	RigHitsOnly bool   `kong:"help='Rig only hits, leaving the initial deal fair'"`
}

func (s SourceFlags) name() string {
	switch s.Source {
	case "rigged":
		return fmt.Sprintf("rigged-%s-%s", s.RigRole, s.RigRank)
	case "openai":
		return "openai"
	default:
		return s.Source
	}
}

func (s SourceFlags) factory(cfg *config.Config, engine *log.Logger) (draw.Factory, error) {
	switch s.Source {
	case "uniform":
		return draw.UniformFactory(), nil

	case "rigged":
		rank, err := cards.ParseRank(s.RigRank)
		if err != nil {
			return nil, err
		}
		role := draw.Dealer
		if s.RigRole == "player" {
			role = draw.Player
		}
		return draw.RiggedFactory(role, rank, s.RigHitsOnly), nil

	case "openai":
		p := cfg.Provider
		if s.Model != "" {
			p.Model = s.Model
		}
		if s.Prompt != "" {
			p.Prompt = s.Prompt
			p.PromptFile = ""
		}
		client, err := provider.NewOpenAI(provider.Config{
			APIKey:        cfg.APIKey(),
			BaseURL:       p.BaseURL,
			Model:         p.Model,
			Temperature:   float32(p.Temperature),
			MaxTokens:     p.MaxTokens,
			SystemPrompt:  p.SystemPrompt,
			RatePerSecond: p.RatePerSecond,
			Burst:         p.Burst,
			Logger:        engine,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create provider (set %s or provider.api_key): %w", p.APIKeyEnv, err)
		}
		prompt, err := cfg.PromptTemplate()
		if err != nil {
			return nil, err
		}
		return draw.ExternalFactory(client, draw.ExternalConfig{
			Prompt:      prompt,
			MaxAttempts: p.MaxAttempts,
			Timeout:     cfg.ProviderTimeout(),
			QueueExtra:  p.QueueExtra,
			Logger:      engine,
		})

	default:
		return nil, fmt.Errorf("unknown draw source %q", s.Source)
	}
}

// playArm runs one arm. A starved arm is logged and returned without error;
// the report shows its counts.
func playArm(ctx context.Context, name string, seed int64, cfg *config.Config, factory draw.Factory, logger zerolog.Logger, engine *log.Logger) (*experiment.Arm, error) {
	gc, err := cfg.GameConfig()
	if err != nil {
		return nil, err
	}
	gc.Logger = engine

	runner := experiment.NewRunner(experiment.Config{
		Name:         name,
		Games:        cfg.Experiment.Games,
		Workers:      cfg.Experiment.Workers,
		Seed:         seed,
		Game:         gc,
		GameTimeout:  cfg.GameTimeout(),
		MinCompleted: cfg.Experiment.MinCompleted,
	}, factory, logger)

	arm, err := runner.Run(ctx)
	if errors.Is(err, experiment.ErrSampleStarvation) {
		logger.Warn().Err(err).Msg("Arm is starved; statistics computed from it are not meaningful")
		return arm, nil
	}
	return arm, err
}

func saveArm(dir string, arm *experiment.Arm, logger zerolog.Logger) (string, error) {
	path := filepath.Join(dir, arm.Name+".jsonl")
	if err := record.Write(path, arm.Outcomes); err != nil {
		return "", err
	}
	logger.Info().Str("path", path).Int("records", len(arm.Outcomes)).Msg("Wrote outcomes")
	return path, nil
}

func logSummary(logger zerolog.Logger, s experiment.Summary) {
	logger.Info().
		Str("arm", s.Name).
		Int("completed", s.Completed).
		Int("abandoned", s.Abandoned).
		Int("deferred", s.Deferred).
		Float64("player_win_rate", s.PlayerWinRate).
		Float64("dealer_win_rate", s.DealerWinRate).
		Float64("push_rate", s.PushRate).
		Float64("dealer_bust_rate", s.DealerBustRate).
		Float64("avg_player_hand", s.AvgPlayerHand).
		Float64("avg_dealer_hand", s.AvgDealerHand).
		Msg("Arm summary")
}
