package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/ta-nexus/internal/ai"
	"github.com/spigell/ta-nexus/internal/ai/anthropic"
	"github.com/spigell/ta-nexus/internal/ai/gemini"
	"github.com/spigell/ta-nexus/internal/apiclient"
	"github.com/spigell/ta-nexus/internal/contact"
	"github.com/spigell/ta-nexus/internal/evaluation"
	"github.com/spigell/ta-nexus/internal/logger"
	"github.com/spigell/ta-nexus/internal/market"
	"github.com/spigell/ta-nexus/internal/notify"
	"github.com/spigell/ta-nexus/internal/orchestrator"
	"github.com/spigell/ta-nexus/internal/secrets"
	"github.com/spigell/ta-nexus/internal/store"
)

// runtime carries what every command needs once flags and config are parsed.
type runtime struct {
	ctx    context.Context
	config *Config
	logger *zap.Logger
	api    *apiclient.Client
}

func setup(ctx context.Context, command string) *runtime {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	if config == nil {
		logger.Fatal("config is required")
	}

	logger.Info("starting the ta-nexus", zap.String("version", version), zap.String("command", command))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(redacted(*config), "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	api := apiclient.New(logger)
	if config.UserAgent != "" {
		api.UserAgent = config.UserAgent
	}

	return &runtime{ctx: ctx, config: config, logger: logger, api: api}
}

// redacted hides inline secrets before the config is logged.
func redacted(c Config) Config {
	hide := func(s *string) {
		if *s != "" {
			*s = "REDACTED"
		}
	}
	hide(&c.AI.APIKey)
	hide(&c.Market.Adzuna.AppKey)
	hide(&c.Market.Marketstack.AccessKey)
	hide(&c.Contact.Hunter.APIKey)
	hide(&c.Contact.Mailboxlayer.AccessKey)
	hide(&c.Slack.Token)
	hide(&c.Store.DSN)
	return c
}

// oracle returns nil when no provider can be built. Every consumer degrades
// to its neutral fallback without one.
func (r *runtime) oracle() ai.Oracle {
	oracle, err := newOracle(r.ctx, r.config.AI, r.logger)
	if err != nil {
		r.logger.Warn("running without ai oracle", zap.Error(err))
		return nil
	}
	return oracle
}

func newOracle(ctx context.Context, cfg AIConfig, log *zap.Logger) (ai.Oracle, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))

	switch provider {
	case "", gemini.ProviderName:
		apiKey, err := secrets.Load(secrets.Source{
			Name:  "gemini api key",
			Value: cfg.APIKey,
			File:  cfg.APIKeyFile,
			Env:   "GEMINI_API_KEY",
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set ai.api-key-file or GEMINI_API_KEY_FILE)", err)
		}

		generator, err := gemini.NewGenerator(ctx, apiKey, gemini.Options{
			Model:        cfg.Model,
			Temperature:  cfg.Temperature,
			MaxLogLength: cfg.MaxLogLength,
		}, log)
		if err != nil {
			return nil, err
		}
		return generator, nil
	case anthropic.ProviderName:
		apiKey, err := secrets.Load(secrets.Source{
			Name:  "anthropic api key",
			Value: cfg.APIKey,
			File:  cfg.APIKeyFile,
			Env:   "ANTHROPIC_API_KEY",
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set ai.api-key-file or ANTHROPIC_API_KEY)", err)
		}

		client, err := anthropic.New(apiKey, anthropic.Options{
			Model:        cfg.Model,
			MaxTokens:    cfg.MaxTokens,
			MaxLogLength: cfg.MaxLogLength,
		}, log)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}
}

func (r *runtime) store() store.Repository {
	repo, err := store.Open(r.ctx, r.config.Store)
	if err != nil {
		r.logger.Fatal("opening the store",
			zap.String("driver", r.config.Store.Driver),
			zap.Error(err),
		)
	}
	return repo
}

// notifier posts to slack when a token and channel are configured and only
// logs otherwise.
func (r *runtime) notifier() notify.Notifier {
	token, err := secrets.Optional(secrets.Source{
		Name:  "slack token",
		Value: r.config.Slack.Token,
		File:  r.config.Slack.TokenFile,
		Env:   "SLACK_BOT_TOKEN",
	})
	if err != nil {
		r.logger.Fatal("loading slack token", zap.Error(err))
	}

	if token == "" || r.config.Slack.Channel == "" {
		r.logger.Debug("slack is not configured, alerts go to the log")
		return notify.NewLog(r.logger)
	}

	slack, err := notify.NewSlack(notify.SlackConfig{Token: token, Channel: r.config.Slack.Channel}, r.logger)
	if err != nil {
		r.logger.Fatal("creating slack notifier", zap.Error(err))
	}
	return slack
}

func (r *runtime) pipeline(oracle ai.Oracle) *evaluation.Pipeline {
	return evaluation.New(oracle, evaluation.Options{Thresholds: r.config.Thresholds.Evaluation}, r.logger)
}

// marketIntel is nil without adzuna credentials so the market worker reports
// its fallback instead of querying with empty keys.
func (r *runtime) marketIntel() orchestrator.MarketIntel {
	cfg := r.config.Market

	cfg.Adzuna.AppID = r.optional("adzuna app id", cfg.Adzuna.AppID, "ADZUNA_APP_ID")
	cfg.Adzuna.AppKey = r.optional("adzuna app key", cfg.Adzuna.AppKey, "ADZUNA_APP_KEY")
	if cfg.Adzuna.AppID == "" || cfg.Adzuna.AppKey == "" {
		r.logger.Warn("adzuna is not configured, market intelligence falls back",
			zap.String("hint", "set ADZUNA_APP_ID and ADZUNA_APP_KEY"),
		)
		return nil
	}
	if cfg.Adzuna.Currency == "" {
		cfg.Adzuna.Currency = cfg.Currency
	}
	salaries := market.NewAdzuna(r.api, cfg.Adzuna, r.logger)

	var companies market.CompanyProvider
	cfg.Marketstack.AccessKey = r.optional("marketstack key", cfg.Marketstack.AccessKey, "MARKETSTACK_API_KEY")
	if cfg.Marketstack.AccessKey != "" {
		companies = market.NewMarketstack(r.api, cfg.Marketstack, r.logger)
	}

	return market.NewIntel(salaries, companies, cfg.Currency)
}

// contacts is nil without a hunter key. Verification is optional.
func (r *runtime) contacts() orchestrator.ContactDiscovery {
	cfg := r.config.Contact

	cfg.Hunter.APIKey = r.optional("hunter api key", cfg.Hunter.APIKey, "HUNTER_API_KEY")
	if cfg.Hunter.APIKey == "" {
		r.logger.Warn("hunter is not configured, outreach falls back to linkedin",
			zap.String("hint", "set HUNTER_API_KEY"),
		)
		return nil
	}
	finder := contact.NewHunter(r.api, cfg.Hunter, r.logger)

	var verifier contact.Verifier
	cfg.Mailboxlayer.AccessKey = r.optional("mailboxlayer key", cfg.Mailboxlayer.AccessKey, "MAILBOXLAYER_API_KEY")
	if cfg.Mailboxlayer.AccessKey != "" {
		verifier = contact.NewMailboxlayer(r.api, cfg.Mailboxlayer, r.logger)
	}

	return contact.NewDiscovery(finder, verifier, r.logger)
}

func (r *runtime) orchestrator(oracle ai.Oracle) *orchestrator.Orchestrator {
	return orchestrator.New(orchestrator.Deps{
		Oracle:   oracle,
		Market:   r.marketIntel(),
		Contacts: r.contacts(),
	}, orchestrator.Options{Thresholds: r.config.Thresholds.Analysis}, r.logger)
}

func (r *runtime) optional(name, value, env string) string {
	secret, err := secrets.Optional(secrets.Source{Name: name, Value: value, Env: env})
	if err != nil {
		r.logger.Fatal("loading secret", zap.String("name", name), zap.Error(err))
	}
	return secret
}
