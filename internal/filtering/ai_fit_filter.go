package filtering

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/spigell/roster-matcher/internal/ai"
	"github.com/spigell/roster-matcher/internal/matcher"
	"github.com/spigell/roster-matcher/internal/roster"
)

const defaultMaxAssessments = 5

type aiFitFilter struct {
	enabled bool
	reason  string
	config  *AIFitFilterConfig
	deps    *AIFitFilterDeps
}

type AIFitFilterDeps struct {
	Logger   *zap.Logger
	Assessor ai.Assessor
	// ExcludeFile receives people judged unfit when ExcludeUnfit is set.
	ExcludeFile string
}

type AIFitFilterConfig struct {
	Enabled bool
	// MaxAssessments caps how many top matches are sent to the provider.
	MaxAssessments int
	// ExcludeUnfit appends rejected people to the exclude file.
	ExcludeUnfit bool
}

// NewAIFit creates the AI-based filtering step. Only the first
// MaxAssessments matches are evaluated; the rest pass through untouched.
func NewAIFit(cfg *AIFitFilterConfig, deps *AIFitFilterDeps) Filter {
	if cfg == nil {
		cfg = &AIFitFilterConfig{}
	}
	return &aiFitFilter{
		enabled: cfg.Enabled,
		deps:    deps,
		config:  cfg,
	}
}

func (f *aiFitFilter) Name() string { return "ai_fit" }

func (f *aiFitFilter) Disable(reason string) {
	f.enabled = false
	f.reason = reason
}

func (f *aiFitFilter) IsEnabled() bool { return f.enabled }

func (f *aiFitFilter) Validate() error {
	if f.deps == nil {
		return fmt.Errorf("deps are not initialized: filter is not usable")
	}
	if f.deps.Assessor == nil {
		return fmt.Errorf("ai assessor is required when ai filter is enabled")
	}
	if f.deps.Logger == nil {
		f.deps.Logger = zap.NewNop()
	}
	return nil
}

func (f *aiFitFilter) Apply(ctx context.Context, m *matcher.Matches) (*matcher.Matches, Step, error) {
	initial := m.Len()

	limit := f.config.MaxAssessments
	if limit <= 0 {
		limit = defaultMaxAssessments
	}

	var rejected []roster.Record
	for i, match := range m.Items {
		if i >= limit {
			break
		}
		if err := ctx.Err(); err != nil {
			return m, Step{}, err
		}

		assessment, err := f.deps.Assessor.Evaluate(ctx, m.Query, match.Record)
		if err != nil {
			f.deps.Logger.Warn("AI evaluation failed",
				zap.String("name", match.Record.Name),
				zap.Error(err),
			)
			match.AI = &ai.Assessment{Error: err.Error()}
			continue
		}

		match.AI = assessment
		if !assessment.Fit {
			f.deps.Logger.Info("person rejected by AI provider",
				zap.String("name", match.Record.Name),
				zap.Float64("ai_score", assessment.Score),
				zap.String("reason", assessment.Reason),
			)
			rejected = append(rejected, match.Record)
		}
	}

	dropped := m.Filter(func(match *matcher.Match) bool {
		return match.AI == nil || match.AI.Error != "" || match.AI.Fit
	})

	if f.config.ExcludeUnfit && len(rejected) > 0 {
		if err := f.appendToExcludeFile(rejected); err != nil {
			f.deps.Logger.Warn("failed to append people to exclude file", zap.Error(err))
		}
	}

	f.deps.Logger.Info("AI filtering completed",
		zap.Int("initial_matches", initial),
		zap.Int("approved_matches", m.Len()),
	)

	return m, Step{Initial: initial, Dropped: dropped, Left: m.Len()}, nil
}

func (f *aiFitFilter) appendToExcludeFile(records []roster.Record) error {
	path := f.deps.ExcludeFile
	if path == "" {
		return nil
	}

	people := roster.NewExcluded(records, roster.ExcludeActorAI, "rejected by AI fit assessment")
	if err := roster.AppendToExcludeFile(path, people); err != nil {
		return err
	}

	f.deps.Logger.Info("people appended to exclude file",
		zap.Int("count", len(records)),
		zap.String("exclude_file", path),
	)
	return nil
}

func (f *aiFitFilter) Status() Status {
	details := map[string]string{
		"max_assessments": strconv.Itoa(f.config.MaxAssessments),
	}
	return Status{Name: f.Name(), Enabled: f.enabled, Reason: f.reason, Details: details}
}
