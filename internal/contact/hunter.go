package contact

import (
	"context"
	"net/url"

	"go.uber.org/zap"

	"github.com/spigell/ta-nexus/internal/apiclient"
	"github.com/spigell/ta-nexus/internal/logger"
)

const hunterURL = "https://api.hunter.io/v2"

type HunterConfig struct {
	APIKey  string `mapstructure:"api-key"`
	BaseURL string `mapstructure:"base-url"`
}

// Hunter finds professional emails through the hunter.io email finder.
type Hunter struct {
	api    *apiclient.Client
	cfg    HunterConfig
	logger *zap.Logger
}

func NewHunter(api *apiclient.Client, cfg HunterConfig, log *zap.Logger) *Hunter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = hunterURL
	}
	return &Hunter{api: api, cfg: cfg, logger: logger.Component(log, "hunter")}
}

type hunterResponse struct {
	Data struct {
		Email      string `json:"email"`
		Confidence int    `json:"confidence"`
		FirstName  string `json:"first_name"`
		LastName   string `json:"last_name"`
		Position   string `json:"position"`
		Twitter    string `json:"twitter"`
		LinkedIn   string `json:"linkedin"`
	} `json:"data"`
}

func (h *Hunter) Find(ctx context.Context, domain, firstName, lastName string) FindResult {
	q := url.Values{}
	q.Set("domain", domain)
	q.Set("first_name", firstName)
	q.Set("last_name", lastName)
	q.Set("api_key", h.cfg.APIKey)

	var resp hunterResponse
	if err := h.api.GetJSON(ctx, h.cfg.BaseURL+"/email-finder", q, &resp); err != nil {
		h.logger.Warn("email finder failed", zap.String("domain", domain), zap.Error(err))
		return FindResult{FirstName: firstName, LastName: lastName}
	}

	data := resp.Data
	result := FindResult{
		Email:      data.Email,
		Confidence: data.Confidence,
		FirstName:  data.FirstName,
		LastName:   data.LastName,
		Position:   data.Position,
		Twitter:    data.Twitter,
		LinkedIn:   data.LinkedIn,
		Found:      data.Email != "",
	}
	if result.FirstName == "" {
		result.FirstName = firstName
	}
	if result.LastName == "" {
		result.LastName = lastName
	}

	return result
}
