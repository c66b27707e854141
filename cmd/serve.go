package cmd

import (
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/roster-matcher/internal/logger"
	"github.com/spigell/roster-matcher/internal/matcher"
	"github.com/spigell/roster-matcher/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the upload and match HTTP API",
	Run: func(cmd *cobra.Command, _ []string) {
		serve(cmd)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("listen", "l", "", "address to listen on (default :8000)")

	viper.BindPFlag("listen", serveCmd.Flags().Lookup("listen"))
}

func serve(cmd *cobra.Command) {
	ctx := cmd.Context()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the roster-matcher server", zap.String("version", version))

	engine, err := matcher.NewEngine(config.Tokenizer, logger)
	if err != nil {
		logger.Fatal("creating the match engine", zap.Error(err))
	}

	if config.Roster != "" {
		if _, err := loadRoster(engine, config.Roster, config.Ingest, logger); err != nil {
			logger.Fatal("preloading roster", zap.Error(err))
		}
	} else {
		logger.Info("waiting for dataset upload")
	}

	srv := server.New(engine, server.Config{
		DefaultTopK: config.TopK,
		Ingest:      config.Ingest,
		Filters:     filterOptions(ctx, config, 0, logger),
	}, logger)

	if err := srv.ListenAndServe(ctx, config.Listen); err != nil {
		logger.Fatal("serving", zap.Error(err))
	}
}
