package cmd

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/ta-nexus/internal/store"
)

func TestDefaultsUnmarshal(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))

	assert.Equal(t, "gemini", cfg.AI.Provider)
	assert.Equal(t, store.DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, "ta-nexus.db", cfg.Store.DSN)
	assert.Equal(t, 85.0, cfg.Thresholds.Evaluation.Advance)
	assert.Equal(t, 70.0, cfg.Thresholds.Analysis.RedFlash)
	assert.Equal(t, 3000, cfg.Memory.Threshold)
	assert.Equal(t, 48*time.Hour, cfg.Screening.FollowUpDelay)
	assert.Equal(t, "*/15 * * * *", cfg.Reminders.Schedule)
	assert.Equal(t, "SAR", cfg.Market.Currency)
}

func TestEnvOverridesConfig(t *testing.T) {
	t.Setenv("TA_NEXUS_AI_PROVIDER", "anthropic")
	t.Setenv("TA_NEXUS_STORE_DRIVER", "postgres")
	t.Setenv("TA_NEXUS_SCREENING_FOLLOW_UP_DELAY", "72h")
	t.Setenv("TA_NEXUS_THRESHOLDS_ANALYSIS_RED_FLASH", "65")

	v := viper.New()
	setDefaults(v)

	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))

	assert.Equal(t, "anthropic", cfg.AI.Provider)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, 72*time.Hour, cfg.Screening.FollowUpDelay)
	assert.Equal(t, 65.0, cfg.Thresholds.Analysis.RedFlash)
}

func TestRedacted(t *testing.T) {
	cfg := Config{}
	cfg.AI.APIKey = "secret"
	cfg.Slack.Token = "xoxb-1"
	cfg.Slack.Channel = "#hiring"

	out := redacted(cfg)
	assert.Equal(t, "REDACTED", out.AI.APIKey)
	assert.Equal(t, "REDACTED", out.Slack.Token)
	assert.Equal(t, "#hiring", out.Slack.Channel)
	assert.Empty(t, out.Contact.Hunter.APIKey)
	assert.Equal(t, "secret", cfg.AI.APIKey, "the input config is untouched")
}

func TestNewOracleRejectsUnknownProvider(t *testing.T) {
	_, err := newOracle(t.Context(), AIConfig{Provider: "llama"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported ai provider")
}

func TestNewOracleRequiresKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")

	_, err := newOracle(t.Context(), AIConfig{Provider: "anthropic"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic api key")
}

func TestNewOracleAnthropic(t *testing.T) {
	oracle, err := newOracle(t.Context(), AIConfig{Provider: "Anthropic", APIKey: "key"}, nil)
	require.NoError(t, err)
	assert.NotNil(t, oracle)
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	t.Cleanup(func() { versionCmd.SetOut(nil) })

	require.NoError(t, versionCmd.Flags().Set("short", "true"))
	t.Cleanup(func() { _ = versionCmd.Flags().Set("short", "false") })

	versionCmd.Run(versionCmd, nil)
	assert.Equal(t, "unknown\n", out.String())
}
