package filtering

import (
	"go.uber.org/zap"

	"github.com/spigell/roster-matcher/internal/ai"
)

// Options describes the standard filter chain shared by the CLI and the
// HTTP API.
type Options struct {
	MinScore    float64
	ExcludeFile string
	AI          *AIFitFilterConfig
	Assessor    ai.Assessor
}

// Build assembles min_score, exclude_file and ai_fit in that order. The AI
// step is disabled when no assessor is configured.
func Build(opts Options, logger *zap.Logger) *Filtering {
	aiFilter := NewAIFit(opts.AI, &AIFitFilterDeps{
		Logger:      logger,
		Assessor:    opts.Assessor,
		ExcludeFile: opts.ExcludeFile,
	})
	if aiFilter.IsEnabled() && opts.Assessor == nil {
		aiFilter.Disable("ai assessor is not configured")
	}

	steps := []Filter{
		NewMinScore(opts.MinScore),
		NewExcludeFile(opts.ExcludeFile, logger),
		aiFilter,
	}

	return New(steps, logger)
}
