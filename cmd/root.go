package cmd

import (
	"errors"
	"io/fs"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/ta-nexus/internal/contact"
	"github.com/spigell/ta-nexus/internal/evaluation"
	"github.com/spigell/ta-nexus/internal/market"
	"github.com/spigell/ta-nexus/internal/memory"
	"github.com/spigell/ta-nexus/internal/orchestrator"
	"github.com/spigell/ta-nexus/internal/reminder"
	"github.com/spigell/ta-nexus/internal/screening"
	"github.com/spigell/ta-nexus/internal/store"
)

const (
	app       = "ta-nexus"
	envPrefix = "TA_NEXUS"
)

type Config struct {
	UserAgent  string            `mapstructure:"user-agent"`
	AI         AIConfig          `mapstructure:"ai"`
	Store      store.Config      `mapstructure:"store"`
	Market     MarketConfig      `mapstructure:"market"`
	Contact    ContactConfig     `mapstructure:"contact"`
	Thresholds ThresholdsConfig  `mapstructure:"thresholds"`
	Memory     memory.Options    `mapstructure:"memory"`
	Screening  screening.Options `mapstructure:"screening"`
	Reminders  reminder.Options  `mapstructure:"reminders"`
	Slack      SlackConfig       `mapstructure:"slack"`
}

type AIConfig struct {
	Provider     string  `mapstructure:"provider"`
	APIKey       string  `mapstructure:"api-key"`
	APIKeyFile   string  `mapstructure:"api-key-file"`
	Model        string  `mapstructure:"model"`
	Temperature  float32 `mapstructure:"temperature"`
	MaxTokens    int64   `mapstructure:"max-tokens"`
	MaxLogLength int     `mapstructure:"max-log-length"`
}

type MarketConfig struct {
	Currency    string                   `mapstructure:"currency"`
	Adzuna      market.AdzunaConfig      `mapstructure:"adzuna"`
	Marketstack market.MarketstackConfig `mapstructure:"marketstack"`
}

type ContactConfig struct {
	Hunter       contact.HunterConfig       `mapstructure:"hunter"`
	Mailboxlayer contact.MailboxlayerConfig `mapstructure:"mailboxlayer"`
}

// ThresholdsConfig keeps the screening gates apart from the gates of the
// full analysis since they score different things.
type ThresholdsConfig struct {
	Evaluation evaluation.Thresholds   `mapstructure:"evaluation"`
	Analysis   orchestrator.Thresholds `mapstructure:"analysis"`
}

type SlackConfig struct {
	Token     string `mapstructure:"token"`
	TokenFile string `mapstructure:"token-file"`
	Channel   string `mapstructure:"channel"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "ta-nexus is a talent acquisition cli: candidate risk analysis, screening evaluation and sourcing",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is ta-nexus.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	setDefaults(viper.GetViper())

	if err := viper.BindEnv("ai.api-key-file", envPrefix+"_AI_API_KEY_FILE", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}
}

// setDefaults registers every key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper) {
	analysis := orchestrator.DefaultThresholds()
	screen := evaluation.DefaultThresholds()

	v.SetDefault("user-agent", "")
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.api-key", "")
	v.SetDefault("ai.model", "")
	v.SetDefault("ai.temperature", 0.2)
	v.SetDefault("ai.max-tokens", 2048)
	v.SetDefault("ai.max-log-length", 2000)
	v.SetDefault("store.driver", store.DriverSQLite)
	v.SetDefault("store.dsn", app+".db")
	v.SetDefault("market.currency", market.DefaultCurrency)
	v.SetDefault("market.adzuna.app-id", "")
	v.SetDefault("market.adzuna.app-key", "")
	v.SetDefault("market.adzuna.country", "")
	v.SetDefault("market.marketstack.access-key", "")
	v.SetDefault("contact.hunter.api-key", "")
	v.SetDefault("contact.mailboxlayer.access-key", "")
	v.SetDefault("thresholds.evaluation.advance", screen.Advance)
	v.SetDefault("thresholds.evaluation.screen", screen.Screen)
	v.SetDefault("thresholds.analysis.advance", analysis.Advance)
	v.SetDefault("thresholds.analysis.screen", analysis.Screen)
	v.SetDefault("thresholds.analysis.red-flash", analysis.RedFlash)
	v.SetDefault("memory.threshold", memory.DefaultThreshold)
	v.SetDefault("screening.reminder-score", screening.DefaultReminderScore)
	v.SetDefault("screening.follow-up-delay", screening.DefaultFollowUpDelay)
	v.SetDefault("screening.app-url", "")
	v.SetDefault("reminders.schedule", reminder.DefaultSchedule)
	v.SetDefault("slack.token", "")
	v.SetDefault("slack.token-file", "")
	v.SetDefault("slack.channel", "")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
}

func initConfig() {
	// A missing .env is fine, it only feeds the environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading .env: %v", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// Every setting has a default, so only an explicit config must exist.
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
