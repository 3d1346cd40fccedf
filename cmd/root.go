package cmd

import (
	"errors"
	"io/fs"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spigell/ats-auditor/internal/ai/gemini"
	"github.com/spigell/ats-auditor/internal/fetch"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "ats-auditor"
)

type Config struct {
	AI      *AIConfig      `mapstructure:"ai"`
	Fetch   *FetchConfig   `mapstructure:"fetch"`
	Extract *ExtractConfig `mapstructure:"extract"`
	Audit   *AuditConfig   `mapstructure:"audit"`
}

type AIConfig struct {
	Provider       string        `mapstructure:"provider"`
	SynthesisModel string        `mapstructure:"synthesis-model"`
	Models         []string      `mapstructure:"models"`
	CascadeDelay   time.Duration `mapstructure:"cascade-delay"`
	MaxLogLength   int           `mapstructure:"max-log-length"`
	Gemini         *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
}

type FetchConfig struct {
	UserAgent string        `mapstructure:"user-agent"`
	Timeout   time.Duration `mapstructure:"timeout"`
	MaxBytes  int64         `mapstructure:"max-bytes"`
}

type ExtractConfig struct {
	// Skip lists extraction strategies to leave out of the chain.
	Skip []string `mapstructure:"skip"`
}

type AuditConfig struct {
	Deadline time.Duration `mapstructure:"deadline"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "ats-auditor scores a resume against a target role the way an applicant tracking system would",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	setDefaults()

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is ats-auditor.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func setDefaults() {
	viper.SetDefault("ai.provider", gemini.Provider)
	viper.SetDefault("ai.synthesis-model", gemini.DefaultSynthesisModel)
	viper.SetDefault("ai.models", gemini.DefaultCascade)
	viper.SetDefault("ai.cascade-delay", time.Duration(0))
	viper.SetDefault("ai.max-log-length", 200)
	viper.SetDefault("fetch.user-agent", fetch.DefaultUserAgent)
	viper.SetDefault("fetch.timeout", fetch.DefaultTimeout)
	viper.SetDefault("fetch.max-bytes", fetch.DefaultMaxBytes)
	viper.SetDefault("audit.deadline", 5*time.Minute)
}

func initConfig() {
	// Config is needed only for the audit command.
	if auditCmd.CalledAs() == "" {
		return
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading .env file: %v", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// Defaults are enough to run; a config file that exists must parse.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
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
