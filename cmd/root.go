package cmd

import (
	"context"
	"errors"
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/roster-matcher/internal/corpus"
	"github.com/spigell/roster-matcher/internal/roster"
)

const (
	app = "roster-matcher"
)

type Config struct {
	Listen      string                 `mapstructure:"listen"`
	Roster      string                 `mapstructure:"roster"`
	TopK        int                    `mapstructure:"top-k"`
	ExcludeFile string                 `mapstructure:"exclude-file"`
	Tokenizer   corpus.TokenizerConfig `mapstructure:"tokenizer"`
	Ingest      roster.ParseOptions    `mapstructure:"ingest"`
	AI          *AIConfig              `mapstructure:"ai"`
}

type AIConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	MinimumFitScore float64       `mapstructure:"minimum-fit-score"`
	MaxAssessments  int           `mapstructure:"max-assessments"`
	ExcludeUnfit    bool          `mapstructure:"exclude-unfit"`
	Gemini          *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "roster-matcher ranks people in an uploaded roster against a free-text career description",
	}
)

// Execute executes the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	setDefaults()

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is roster-matcher.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().StringP("roster", "r", "", "roster file to load (.xlsx, .csv or .json)")
	rootCmd.PersistentFlags().IntP("top-k", "k", 0, "number of matches to return (default from config, 10)")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("roster", rootCmd.PersistentFlags().Lookup("roster"))
	viper.BindPFlag("top-k", rootCmd.PersistentFlags().Lookup("top-k"))
}

func setDefaults() {
	tokenizer := corpus.DefaultTokenizerConfig()

	viper.SetDefault("listen", ":8000")
	viper.SetDefault("top-k", 10)
	viper.SetDefault("tokenizer.lowercase", tokenizer.Lowercase)
	viper.SetDefault("tokenizer.strip-punctuation", tokenizer.StripPunctuation)
	viper.SetDefault("tokenizer.stopwords", tokenizer.Stopwords)
	viper.SetDefault("tokenizer.min-token-length", tokenizer.MinTokenLength)
	viper.SetDefault("tokenizer.ngram-max", tokenizer.NGramMax)
	viper.SetDefault("tokenizer.tf", string(tokenizer.TF))
	viper.SetDefault("tokenizer.include-name", false)
	viper.SetDefault("ingest.clean", true)
	viper.SetDefault("ingest.strip-org-suffixes", false)
	viper.SetDefault("ai.max-assessments", 5)
	viper.SetDefault("ai.gemini.model", "gemini-2.5-pro")
	viper.SetDefault("ai.gemini.max-retries", 2)
	viper.SetDefault("ai.gemini.max-log-length", 200)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// A missing default config is fine: flags and defaults are enough to run.
	// An explicit --config must exist and parse.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
