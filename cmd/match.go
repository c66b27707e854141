package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/roster-matcher/internal/filtering"
	"github.com/spigell/roster-matcher/internal/logger"
	"github.com/spigell/roster-matcher/internal/matcher"
	"github.com/spigell/roster-matcher/internal/roster"
	"github.com/spigell/roster-matcher/internal/utils"
)

const (
	PromptNewQuery            = "New query"
	PromptExport              = "Export matches to xlsx"
	PromptMatchesToFile       = "Dump matches to file"
	PromptAppendToExcludeFile = "Append all matches to exclude file"
	PromptExit                = "Exit"

	previewLength = 60
)

var errExit = errors.New("exit requested")

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Rank a roster file against a career description",
	Run: func(cmd *cobra.Command, _ []string) {
		match(cmd)
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().StringP("query", "q", "", "career description to match; prompts interactively when empty")
	matchCmd.Flags().Float64("min-score", 0, "drop matches with a similarity score below this value (0-1)")
	matchCmd.Flags().StringP("output", "o", "", "write matches to this xlsx file")
}

// session holds the state of one match invocation.
type session struct {
	engine  *matcher.Engine
	filters *filtering.Filtering
	topK    int
	config  *Config
	logger  *zap.Logger
	matches *matcher.Matches
}

func match(cmd *cobra.Command) {
	ctx := cmd.Context()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	if config.Roster == "" {
		logger.Fatal("roster file is required", zap.String("hint", "pass --roster or set 'roster' in the configuration file"))
	}

	engine, err := matcher.NewEngine(config.Tokenizer, logger)
	if err != nil {
		logger.Fatal("creating the match engine", zap.Error(err))
	}

	ds, err := loadRoster(engine, config.Roster, config.Ingest, logger)
	if err != nil {
		logger.Fatal("loading roster", zap.Error(err))
	}
	logger.Info("roster loaded", zap.Int("records", ds.Len()), zap.Int("vocabulary", ds.Corpus.VocabularySize()))

	minScore, _ := cmd.Flags().GetFloat64("min-score")
	s := &session{
		engine:  engine,
		filters: filtering.Build(filterOptions(ctx, config, minScore, logger), logger),
		topK:    config.TopK,
		config:  config,
		logger:  logger,
	}

	query, _ := cmd.Flags().GetString("query")
	output, _ := cmd.Flags().GetString("output")

	if query != "" {
		if err := s.run(ctx, query); err != nil {
			logger.Fatal("matching", zap.Error(err))
		}
		if output != "" {
			if err := s.export(output); err != nil {
				logger.Fatal("exporting matches", zap.Error(err))
			}
		}
		return
	}

	action := PromptNewQuery
	for {
		if err := s.handleAction(ctx, action); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}

		prompt := promptui.Select{
			Label: "Next?",
			Items: []string{PromptNewQuery, PromptExport, PromptMatchesToFile, PromptAppendToExcludeFile, PromptExit},
		}
		_, action, err = prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func (s *session) handleAction(ctx context.Context, action string) error {
	switch action {
	case PromptNewQuery:
		query, err := askQuery()
		if err != nil {
			return err
		}
		return s.run(ctx, query)
	case PromptExport:
		path, err := askPath("Output xlsx file", "matches.xlsx")
		if err != nil {
			return err
		}
		return s.export(path)
	case PromptMatchesToFile:
		if s.matches == nil {
			return nil
		}
		filename, err := roster.DumpToTmpFile(s.matches.ExportRows())
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		s.logger.Info("dumping result to file", zap.String("filename", filename))
		return nil
	case PromptAppendToExcludeFile:
		return s.appendToExcludeFile()
	case PromptExit:
		s.logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func (s *session) run(ctx context.Context, query string) error {
	matches, err := s.engine.Match(query, s.topK)
	if err != nil {
		return err
	}

	matches, err = s.filters.RunFilters(ctx, matches)
	if err != nil {
		return fmt.Errorf("filtering failed: %w", err)
	}
	s.matches = matches

	s.logger.Info("matches found",
		zap.String("query", utils.TruncateForLog(query, previewLength)),
		zap.Int("count", matches.Len()),
	)

	for _, m := range matches.Items {
		fmt.Printf("%3d. %-30s %.4f  %s | %s\n",
			m.Rank,
			m.Record.Name,
			m.Score,
			utils.TruncateForLog(m.Record.Employment, previewLength),
			utils.TruncateForLog(m.Record.BoardService, previewLength),
		)
		if m.AI != nil && m.AI.Reason != "" {
			fmt.Printf("     ai: %.2f %s\n", m.AI.Score, m.AI.Reason)
		}
	}

	return nil
}

func (s *session) export(path string) error {
	if s.matches == nil || s.matches.Len() == 0 {
		s.logger.Info("nothing to export")
		return nil
	}
	if err := roster.SaveXLSX(path, s.matches.ExportRows()); err != nil {
		return err
	}
	s.logger.Info("matches exported", zap.String("filename", path), zap.Int("count", s.matches.Len()))
	return nil
}

func (s *session) appendToExcludeFile() error {
	path := strings.TrimSpace(s.config.ExcludeFile)
	if path == "" {
		s.logger.Warn("exclude file is not configured", zap.String("hint", "set 'exclude-file' in the configuration file"))
		return nil
	}
	if s.matches == nil || s.matches.Len() == 0 {
		return nil
	}

	people := roster.NewExcluded(s.matches.Records(), roster.ExcludeActorUser, "excluded from prompt")
	if err := roster.AppendToExcludeFile(path, people); err != nil {
		return err
	}

	s.logger.Info("appended to exclude file", zap.String("filename", path), zap.Int("count", s.matches.Len()))
	return nil
}

func askQuery() (string, error) {
	prompt := promptui.Prompt{
		Label: "Describe the person",
		Validate: func(input string) error {
			if strings.TrimSpace(input) == "" {
				return errors.New("query must not be empty")
			}
			return nil
		},
	}
	return prompt.Run()
}

func askPath(label, def string) (string, error) {
	prompt := promptui.Prompt{Label: label, Default: def}
	return prompt.Run()
}
