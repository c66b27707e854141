package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/roster-matcher/internal/corpus"
	"github.com/spigell/roster-matcher/internal/matcher"
	"github.com/spigell/roster-matcher/internal/roster"
)

func TestGetConfigDefaults(t *testing.T) {
	config, err := getConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if config.Listen != ":8000" || config.TopK != 10 {
		t.Fatalf("unexpected defaults: listen=%q top-k=%d", config.Listen, config.TopK)
	}
	if !config.Ingest.Clean {
		t.Fatalf("expected ingest cleaning to be on by default")
	}
	if config.Tokenizer.IncludeName {
		t.Fatalf("expected names to stay out of the index by default")
	}
	if err := config.Tokenizer.Validate(); err != nil {
		t.Fatalf("default tokenizer config is invalid: %v", err)
	}
	if config.AI == nil || config.AI.Gemini == nil || config.AI.Gemini.Model == "" {
		t.Fatalf("expected gemini defaults, got %+v", config.AI)
	}
}

func TestLoadRoster(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "roster.csv")
	content := "Name,Employment,Board Service\nJane Doe,CFO,Audit committee\n,orphan,\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write roster: %v", err)
	}

	core, observed := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	engine, err := matcher.NewEngine(corpus.DefaultTokenizerConfig(), logger)
	if err != nil {
		t.Fatalf("creating engine: %v", err)
	}

	ds, err := loadRoster(engine, path, roster.ParseOptions{Clean: true}, logger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ds.Len() != 1 || !engine.HasDataset() {
		t.Fatalf("expected one record to be loaded, got %d", ds.Len())
	}
	if observed.FilterMessage("rows without a name were dropped").Len() != 1 {
		t.Fatalf("expected dropped rows to be reported")
	}

	if _, err := loadRoster(engine, filepath.Join(t.TempDir(), "absent.csv"), roster.ParseOptions{}, logger); err == nil {
		t.Fatalf("expected error for missing roster")
	}
}

func TestFilterOptions(t *testing.T) {
	t.Parallel()

	t.Run("ai disabled", func(t *testing.T) {
		t.Parallel()

		opts := filterOptions(context.Background(), &Config{ExcludeFile: " excluded.json "}, 0.3, zap.NewNop())
		if opts.AI != nil || opts.Assessor != nil {
			t.Fatalf("expected no ai step, got %+v", opts)
		}
		if opts.ExcludeFile != "excluded.json" || opts.MinScore != 0.3 {
			t.Fatalf("unexpected options: %+v", opts)
		}
	})

	t.Run("ai without gemini config keeps the step off", func(t *testing.T) {
		t.Parallel()

		core, observed := observer.New(zapcore.WarnLevel)
		config := &Config{AI: &AIConfig{Enabled: true, MaxAssessments: 3}}

		opts := filterOptions(context.Background(), config, 0, zap.New(core))
		if opts.AI == nil || opts.AI.MaxAssessments != 3 {
			t.Fatalf("expected ai config to be carried, got %+v", opts.AI)
		}
		if opts.Assessor != nil {
			t.Fatalf("expected no assessor")
		}
		if observed.FilterMessage("skipping AI filter").Len() != 1 {
			t.Fatalf("expected a warning about the skipped AI filter")
		}
	})
}
