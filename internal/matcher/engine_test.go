package matcher

import (
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/roster-matcher/internal/corpus"
	"github.com/spigell/roster-matcher/internal/roster"
)

func newEngine(t *testing.T) (*Engine, *observer.ObservedLogs) {
	t.Helper()

	core, observed := observer.New(zapcore.DebugLevel)
	engine, err := NewEngine(corpus.DefaultTokenizerConfig(), zap.New(core))
	if err != nil {
		t.Fatalf("creating engine: %v", err)
	}
	return engine, observed
}

func TestNewEngineInvalidConfig(t *testing.T) {
	t.Parallel()

	_, err := NewEngine(corpus.TokenizerConfig{MinTokenLength: -1}, nil)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestEngineMatchWithoutDataset(t *testing.T) {
	t.Parallel()

	engine, _ := newEngine(t)

	if engine.HasDataset() {
		t.Fatalf("expected no dataset")
	}
	if _, err := engine.Match("board", 5); !errors.Is(err, ErrNoDataset) {
		t.Fatalf("expected ErrNoDataset, got %v", err)
	}
}

func TestEngineReplaceDataset(t *testing.T) {
	t.Parallel()

	engine, observed := newEngine(t)

	if _, err := engine.ReplaceDataset(sampleRecords()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := observed.FilterMessage("dataset loaded").Len(); n != 1 {
		t.Fatalf("expected dataset loaded log, got %d", n)
	}

	matches, err := engine.Match("software engineer", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if matches.Len() != 1 || matches.Items[0].Record.Name != "John Roe" {
		t.Fatalf("expected John Roe, got %+v", matches.Items)
	}

	replacement := []roster.Record{
		{Name: "Zed", Employment: "Astronaut and pilot"},
	}
	if _, err := engine.ReplaceDataset(replacement); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	matches, err = engine.Match("software engineer", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if matches.Len() != 0 {
		t.Fatalf("expected old dataset to be gone, got %d matches", matches.Len())
	}

	matches, err = engine.Match("astronaut", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if matches.Len() != 1 || matches.Items[0].Record.Name != "Zed" {
		t.Fatalf("expected Zed, got %+v", matches.Items)
	}
}

func TestEngineFailedReplaceKeepsDataset(t *testing.T) {
	t.Parallel()

	engine, observed := newEngine(t)

	first, err := engine.ReplaceDataset(sampleRecords())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := engine.ReplaceDataset(nil); !errors.Is(err, ErrEmptyDataset) {
		t.Fatalf("expected ErrEmptyDataset, got %v", err)
	}
	if n := observed.FilterMessage("dataset rejected").Len(); n != 1 {
		t.Fatalf("expected dataset rejected log, got %d", n)
	}

	if engine.Dataset() != first {
		t.Fatalf("expected previous dataset to stay active")
	}
}

func TestEngineConcurrentMatchDuringReplace(t *testing.T) {
	t.Parallel()

	engine, _ := newEngine(t)

	a := []roster.Record{{Name: "A1", Employment: "director"}, {Name: "A2", Employment: "director"}}
	b := []roster.Record{{Name: "B1", Employment: "director"}, {Name: "B2", Employment: "director"}, {Name: "B3", Employment: "director"}}

	if _, err := engine.ReplaceDataset(a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 100)

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			records := a
			if i%2 == 0 {
				records = b
			}
			if _, err := engine.ReplaceDataset(records); err != nil {
				errs <- err
				return
			}
		}
	}()

	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				matches, err := engine.Match("director", 10)
				if err != nil {
					errs <- err
					return
				}
				// Every result must come from exactly one dataset.
				prefix := matches.Items[0].Record.Name[0]
				want := 2
				if prefix == 'B' {
					want = 3
				}
				if matches.Len() != want {
					errs <- errors.New("matches mixed two datasets")
					return
				}
				for _, m := range matches.Items {
					if m.Record.Name[0] != prefix {
						errs <- errors.New("matches mixed two datasets")
						return
					}
				}
			}
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Fatalf("unexpected error: %v", err)
	}
}
