package filtering

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/roster-matcher/internal/matcher"
	"github.com/spigell/roster-matcher/internal/roster"
)

type excludeFileFilter struct {
	path   string
	logger *zap.Logger
}

// NewExcludeFile creates a filter that removes people listed in the exclude file.
func NewExcludeFile(path string, logger *zap.Logger) Filter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &excludeFileFilter{
		path:   path,
		logger: logger,
	}
}

func (f *excludeFileFilter) Name() string { return "exclude_file" }

func (f *excludeFileFilter) Disable(string) {}

func (f *excludeFileFilter) IsEnabled() bool { return f.path != "" }

func (f *excludeFileFilter) Validate() error { return nil }

func (f *excludeFileFilter) Apply(_ context.Context, m *matcher.Matches) (*matcher.Matches, Step, error) {
	initial := m.Len()

	excluded, err := roster.GetExcludedFromFile(f.path)
	if err != nil {
		return m, Step{}, fmt.Errorf("getting excluded people from file: %w", err)
	}

	removed := m.Exclude(roster.FieldName, excluded.Names())
	if len(removed) > 0 {
		f.logger.Info("excluding people based on exclude file",
			zap.String("path", f.path),
			zap.Strings("excluded_people", removed),
			zap.Int("matches_left", m.Len()),
		)
	}

	return m, Step{Initial: initial, Dropped: len(removed), Left: m.Len()}, nil
}

func (f *excludeFileFilter) Status() Status {
	details := map[string]string{}
	if f.path != "" {
		details["path"] = f.path
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Details: details}
}
