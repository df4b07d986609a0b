package market

import (
	"context"
	"errors"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/spigell/ta-nexus/internal/apiclient"
	"github.com/spigell/ta-nexus/internal/logger"
	"github.com/spigell/ta-nexus/internal/utils"
)

const (
	marketstackURL = "https://api.marketstack.com/v1"
	// Last trading days taken into account for the trend.
	eodWindow = 5
)

type MarketstackConfig struct {
	AccessKey string `mapstructure:"access-key"`
	BaseURL   string `mapstructure:"base-url"`
}

// Marketstack reads end of day stock prices.
type Marketstack struct {
	api    *apiclient.Client
	cfg    MarketstackConfig
	logger *zap.Logger
}

func NewMarketstack(api *apiclient.Client, cfg MarketstackConfig, log *zap.Logger) *Marketstack {
	if cfg.BaseURL == "" {
		cfg.BaseURL = marketstackURL
	}
	return &Marketstack{api: api, cfg: cfg, logger: logger.Component(log, "marketstack")}
}

type eodResponse struct {
	Data []eodEntry `json:"data"`
}

type eodEntry struct {
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

var errNoData = errors.New("no end of day data")

// Health compares the newest close with the oldest one in the window.
// Entries come newest first.
func (m *Marketstack) Health(ctx context.Context, symbol string) CompanyHealth {
	q := url.Values{}
	q.Set("access_key", m.cfg.AccessKey)
	q.Set("symbols", symbol)
	q.Set("limit", strconv.Itoa(eodWindow))

	var resp eodResponse
	err := m.api.GetJSON(ctx, m.cfg.BaseURL+"/eod", q, &resp)
	if err == nil && len(resp.Data) == 0 {
		err = errNoData
	}
	if err != nil {
		m.logger.Warn("company health unavailable", zap.String("symbol", symbol), zap.Error(err))
		return CompanyHealth{
			Symbol:        symbol,
			Trend:         TrendUnknown,
			RetentionRisk: RiskUnknown,
		}
	}

	latest := resp.Data[0]
	oldest := resp.Data[len(resp.Data)-1]

	change := 0.0
	if oldest.Close != 0 {
		change = (latest.Close - oldest.Close) / oldest.Close * 100
	}
	trend, retention := Trend(change)

	return CompanyHealth{
		Symbol:        symbol,
		LastPrice:     latest.Close,
		ChangePct:     utils.Round(change, 2),
		Volume:        int64(latest.Volume),
		Trend:         trend,
		RetentionRisk: retention,
		Available:     true,
	}
}
