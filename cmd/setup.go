package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/roster-matcher/internal/ai"
	"github.com/spigell/roster-matcher/internal/ai/gemini"
	"github.com/spigell/roster-matcher/internal/filtering"
	"github.com/spigell/roster-matcher/internal/logger"
	"github.com/spigell/roster-matcher/internal/matcher"
	"github.com/spigell/roster-matcher/internal/roster"
	"github.com/spigell/roster-matcher/internal/secrets"
)

const geminiProvider = "gemini"

// loadRoster parses the roster file at path and installs it into engine.
func loadRoster(engine *matcher.Engine, path string, opts roster.ParseOptions, logger *zap.Logger) (*matcher.Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open roster: %w", err)
	}
	defer file.Close()

	parsed, err := roster.Parse(filepath.Base(path), file, opts)
	if err != nil {
		return nil, fmt.Errorf("parse roster %q: %w", path, err)
	}

	if parsed.Dropped > 0 {
		logger.Warn("rows without a name were dropped",
			zap.String("roster", path),
			zap.Int("dropped", parsed.Dropped),
		)
	}

	ds, err := engine.ReplaceDataset(parsed.Records)
	if err != nil {
		return nil, fmt.Errorf("index roster %q: %w", path, err)
	}
	return ds, nil
}

// filterOptions prepares the post-ranking filter chain. A broken AI setup
// only disables the AI step.
func filterOptions(ctx context.Context, config *Config, minScore float64, logger *zap.Logger) filtering.Options {
	opts := filtering.Options{
		MinScore:    minScore,
		ExcludeFile: strings.TrimSpace(config.ExcludeFile),
	}

	if config.AI == nil || !config.AI.Enabled {
		return opts
	}

	opts.AI = &filtering.AIFitFilterConfig{
		Enabled:        true,
		MaxAssessments: config.AI.MaxAssessments,
		ExcludeUnfit:   config.AI.ExcludeUnfit,
	}

	assessor, err := newAIAssessor(ctx, config.AI, logger)
	if err != nil {
		logger.Warn("skipping AI filter", zap.Error(err))
		return opts
	}
	opts.Assessor = assessor

	return opts
}

func newAIAssessor(ctx context.Context, cfg *AIConfig, log *zap.Logger) (ai.Assessor, error) {
	if cfg.Gemini == nil {
		return nil, fmt.Errorf("gemini configuration is required when ai filter is enabled")
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: cfg.Gemini.APIKeyFile,
		Env:  "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file, GEMINI_API_KEY_FILE or GEMINI_API_KEY)", err)
	}

	genLogger := logger.WithAIFields(log, geminiProvider, cfg.Gemini.Model).With(
		zap.Int("ai_retry_attempts", cfg.Gemini.MaxRetries),
	)

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxRetries, genLogger)
	if err != nil {
		return nil, err
	}

	minScore := cfg.MinimumFitScore
	if minScore < 0 {
		minScore = 0
	}

	assessorLogger := logger.WithAIFields(log, geminiProvider, generator.Model()).With(
		zap.Float64("minimum_fit_score", minScore),
	)

	return gemini.NewAssessor(generator, minScore, cfg.Gemini.MaxLogLength, assessorLogger), nil
}
