package matcher

import (
	"errors"

	"github.com/spigell/roster-matcher/internal/corpus"
)

var (
	// ErrNoDataset is returned by queries issued before a successful upload.
	ErrNoDataset = errors.New("no dataset loaded, upload a dataset first")
	// ErrInvalidQuery is returned for malformed query text.
	ErrInvalidQuery = errors.New("invalid query")

	ErrEmptyDataset  = corpus.ErrEmptyDataset
	ErrInvalidConfig = corpus.ErrInvalidConfig
)
