package filtering

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spigell/roster-matcher/internal/matcher"
)

type minScoreFilter struct {
	minScore float64
}

// NewMinScore creates a filter that drops matches scoring below minScore.
func NewMinScore(minScore float64) Filter {
	return &minScoreFilter{minScore: minScore}
}

func (f *minScoreFilter) Name() string { return "min_score" }

func (f *minScoreFilter) Disable(string) {}

func (f *minScoreFilter) IsEnabled() bool { return f.minScore != 0 }

func (f *minScoreFilter) Validate() error {
	if f.minScore < 0 || f.minScore > 1 {
		return fmt.Errorf("%w: min_score must be within [0, 1], got %v", matcher.ErrInvalidConfig, f.minScore)
	}
	return nil
}

func (f *minScoreFilter) Apply(_ context.Context, m *matcher.Matches) (*matcher.Matches, Step, error) {
	initial := m.Len()
	dropped := m.Filter(func(match *matcher.Match) bool {
		return match.Score >= f.minScore
	})
	return m, Step{Initial: initial, Dropped: dropped, Left: m.Len()}, nil
}

func (f *minScoreFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.IsEnabled(),
		Details: map[string]string{"min_score": strconv.FormatFloat(f.minScore, 'f', -1, 64)},
	}
}
