package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/Devcode940/kenyawatch/internal/logging"
)

var (
	cfgFile     string
	dbPath      string
	redisURL    string
	logLevel    string
	llmSettings string
	userName    string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "kenyawatch",
	Short: "Terminal civic data browser for Kenyan representatives",
	Long: `KenyaWatch is a terminal-first civic data tool. It keeps records of elected
representatives, county GDP and census figures in SQLite, and presents them
as searchable, filterable and sortable tables.

Features:
- Representatives, census, county GDP and leaderboard tables
- AI fact-checks, integrity summaries and social media highlights
- Citizen reviews and performance metrics
- Folder and HTTP ingestion of JSON, JSONL and TOML records
- Optional Redis Streams for background jobs and live table updates`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.kenyawatch.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "./data/kenyawatch.db", "SQLite database path")
	rootCmd.PersistentFlags().StringVar(&redisURL, "redis", "", "Redis connection URL, e.g. redis://localhost:6379 (empty disables the bus)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&llmSettings, "llm-settings", "config/llm_settings.json", "LLM provider settings file")
	rootCmd.PersistentFlags().StringVar(&userName, "user", "", "Name recorded on reviews and audit entries")

	viper.BindPFlag("database.path", rootCmd.PersistentFlags().Lookup("db"))
	viper.BindPFlag("redis.url", rootCmd.PersistentFlags().Lookup("redis"))
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("llm.settings", rootCmd.PersistentFlags().Lookup("llm-settings"))
	viper.BindPFlag("user.name", rootCmd.PersistentFlags().Lookup("user"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".kenyawatch")
	}

	// KENYAWATCH_DATABASE_PATH, KENYAWATCH_REDIS_URL, ...
	viper.SetEnvPrefix("KENYAWATCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	viper.SetDefault("database.path", "./data/kenyawatch.db")
	viper.SetDefault("redis.url", "")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("llm.settings", "config/llm_settings.json")
	viper.SetDefault("user.name", "")
	viper.SetDefault("ingest.dir", "data/incoming")
	viper.SetDefault("ui.theme", "kenya")
}

// GetConfig returns the current configuration values
func GetConfig() Config {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: invalid configuration: %v\n", err)
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "./data/kenyawatch.db"
	}
	if cfg.LLM.Settings == "" {
		cfg.LLM.Settings = "config/llm_settings.json"
	}
	if cfg.Ingest.Dir == "" {
		cfg.Ingest.Dir = "data/incoming"
	}
	return cfg
}

// Config represents the application configuration
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Log      LogConfig      `mapstructure:"log"`
	LLM      LLMConfig      `mapstructure:"llm"`
	User     UserConfig     `mapstructure:"user"`
	Ingest   IngestConfig   `mapstructure:"ingest"`
	UI       UIConfig       `mapstructure:"ui"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type RedisConfig struct {
	URL string `mapstructure:"url"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type LLMConfig struct {
	Settings string `mapstructure:"settings"`
}

type UserConfig struct {
	Name string `mapstructure:"name"`
}

type IngestConfig struct {
	Dir string `mapstructure:"dir"`
}

type UIConfig struct {
	Theme string `mapstructure:"theme"`
}

// newLogger builds the command logger at the configured level. outputs
// default to stderr.
func newLogger(cfg Config, outputs ...string) (*zap.Logger, error) {
	return logging.New(cfg.Log.Level, outputs...)
}
