package ai

import (
	"context"

	"github.com/spigell/roster-matcher/internal/roster"
)

// Assessment is a provider's opinion of how well a person fits a query.
type Assessment struct {
	Fit    bool    `json:"fit"`
	Score  float64 `json:"score"`
	Reason string  `json:"reason,omitempty"`
	Raw    string  `json:"-"`
	Error  string  `json:"error,omitempty"`
}

type Assessor interface {
	Evaluate(ctx context.Context, query string, person roster.Record) (*Assessment, error)
}
