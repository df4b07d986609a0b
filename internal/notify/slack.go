package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"github.com/spigell/ta-nexus/internal/logger"
)

type SlackConfig struct {
	Token   string `mapstructure:"token"`
	Channel string `mapstructure:"channel"`
}

// Slack posts notifications into a single channel.
type Slack struct {
	api     *slack.Client
	channel string
	logger  *zap.Logger
}

func NewSlack(cfg SlackConfig, log *zap.Logger, opts ...slack.Option) (*Slack, error) {
	if cfg.Token == "" {
		return nil, errors.New("slack token is required")
	}
	if cfg.Channel == "" {
		return nil, errors.New("slack channel is required")
	}

	return &Slack{
		api:     slack.New(cfg.Token, opts...),
		channel: cfg.Channel,
		logger:  logger.Component(log, "slack"),
	}, nil
}

func (s *Slack) RedFlash(ctx context.Context, alert Alert) error {
	blocks := []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, "Red flash", false, false)),
		slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, alert.Text(), false, false), nil, nil),
	}
	return s.post(ctx, alert.Text(), blocks)
}

func (s *Slack) Reminder(ctx context.Context, notice ReminderNotice) error {
	blocks := []slack.Block{
		slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, notice.Text(), false, false), nil, nil),
	}
	return s.post(ctx, notice.Text(), blocks)
}

func (s *Slack) post(ctx context.Context, text string, blocks []slack.Block) error {
	_, ts, err := s.api.PostMessageContext(ctx, s.channel,
		slack.MsgOptionText(text, false),
		slack.MsgOptionBlocks(blocks...),
	)
	if err != nil {
		return fmt.Errorf("post to slack channel %s: %w", s.channel, err)
	}

	s.logger.Debug("posted to slack", zap.String("channel", s.channel), zap.String("ts", ts))
	return nil
}
