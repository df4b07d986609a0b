package contact

import (
	"context"
	"net/url"

	"go.uber.org/zap"

	"github.com/spigell/ta-nexus/internal/apiclient"
	"github.com/spigell/ta-nexus/internal/logger"
)

const mailboxlayerURL = "https://apilayer.net/api"

type MailboxlayerConfig struct {
	AccessKey string `mapstructure:"access-key"`
	BaseURL   string `mapstructure:"base-url"`
}

// Mailboxlayer verifies deliverability with an SMTP check.
type Mailboxlayer struct {
	api    *apiclient.Client
	cfg    MailboxlayerConfig
	logger *zap.Logger
}

func NewMailboxlayer(api *apiclient.Client, cfg MailboxlayerConfig, log *zap.Logger) *Mailboxlayer {
	if cfg.BaseURL == "" {
		cfg.BaseURL = mailboxlayerURL
	}
	return &Mailboxlayer{api: api, cfg: cfg, logger: logger.Component(log, "mailboxlayer")}
}

type checkResponse struct {
	SMTPCheck  bool `json:"smtp_check"`
	MXFound    bool `json:"mx_found"`
	Disposable bool `json:"disposable"`
}

func (m *Mailboxlayer) Verify(ctx context.Context, email string) VerifyResult {
	q := url.Values{}
	q.Set("access_key", m.cfg.AccessKey)
	q.Set("email", email)
	q.Set("smtp", "1")
	q.Set("format", "1")

	var resp checkResponse
	if err := m.api.GetJSON(ctx, m.cfg.BaseURL+"/check", q, &resp); err != nil {
		m.logger.Warn("email verification failed", zap.Error(err))
		return VerifyResult{Email: email, Status: StatusUnknown}
	}

	return Classify(email, resp.SMTPCheck, resp.MXFound, resp.Disposable)
}

// Classify scores a mailbox check: 40 for MX records, 50 for a passing SMTP
// check and 10 for a non disposable domain.
func Classify(email string, smtp, mx, disposable bool) VerifyResult {
	score := 0
	if mx {
		score += 40
	}
	if smtp {
		score += 50
	}
	if !disposable {
		score += 10
	}

	status := StatusUnknown
	switch {
	case smtp && mx && !disposable:
		status = StatusValid
	case !mx:
		status = StatusInvalid
	}

	return VerifyResult{
		Email:      email,
		Verified:   smtp && mx,
		SMTPCheck:  smtp,
		MXFound:    mx,
		Disposable: disposable,
		Score:      score,
		Status:     status,
	}
}
