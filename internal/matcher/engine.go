package matcher

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/roster-matcher/internal/corpus"
	"github.com/spigell/roster-matcher/internal/roster"
	"github.com/spigell/roster-matcher/internal/utils"
)

const queryLogLength = 80

// Engine owns the active dataset. Queries load it with a single atomic read
// and never block uploads; an upload builds its dataset off to the side and
// publishes it with a single atomic store.
type Engine struct {
	cfg     corpus.TokenizerConfig
	current atomic.Pointer[Dataset]
	logger  *zap.Logger
}

func NewEngine(cfg corpus.TokenizerConfig, logger *zap.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Engine{cfg: cfg, logger: logger}, nil
}

// ReplaceDataset fits a new corpus over records and makes it the active
// dataset. On error the previous dataset stays active.
func (e *Engine) ReplaceDataset(records []roster.Record) (*Dataset, error) {
	started := time.Now()

	ds, err := NewDataset(records, e.cfg)
	if err != nil {
		e.logger.Warn("dataset rejected", zap.Int("records", len(records)), zap.Error(err))
		return nil, err
	}

	previous := e.current.Swap(ds)

	fields := []zap.Field{
		zap.Int("records", ds.Len()),
		zap.Int("vocabulary", ds.Corpus.VocabularySize()),
		zap.Duration("took", time.Since(started)),
	}
	if previous != nil {
		fields = append(fields, zap.Int("replaced_records", previous.Len()))
	}
	e.logger.Info("dataset loaded", fields...)

	return ds, nil
}

func (e *Engine) HasDataset() bool {
	return e.current.Load() != nil
}

// Dataset returns the active dataset or nil.
func (e *Engine) Dataset() *Dataset {
	return e.current.Load()
}

// Match ranks the active dataset against query.
func (e *Engine) Match(query string, topK int) (*Matches, error) {
	ds := e.current.Load()
	if ds == nil {
		return nil, ErrNoDataset
	}

	matches, err := Rank(ds, query, topK)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("query ranked",
		zap.String("query", utils.TruncateForLog(query, queryLogLength)),
		zap.Int("top_k", topK),
		zap.Int("matches", matches.Len()),
	)

	return matches, nil
}
