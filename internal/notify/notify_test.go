package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type postedMessage struct {
	Channel string
	Text    string
	Blocks  string
}

func newMockSlack(t *testing.T, ok bool) (*Slack, func() []postedMessage) {
	t.Helper()

	var (
		mu    sync.Mutex
		posts []postedMessage
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/api/")
		if path != "chat.postMessage" {
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
			return
		}
		assert.NoError(t, r.ParseForm())

		mu.Lock()
		posts = append(posts, postedMessage{
			Channel: r.FormValue("channel"),
			Text:    r.FormValue("text"),
			Blocks:  r.FormValue("blocks"),
		})
		mu.Unlock()

		if !ok {
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": "channel_not_found"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "channel": r.FormValue("channel"), "ts": "1700000000.000100"})
	}))
	t.Cleanup(server.Close)

	s, err := NewSlack(SlackConfig{Token: "xoxb-test", Channel: "C123"}, nil, slack.OptionAPIURL(server.URL+"/api/"))
	require.NoError(t, err)

	return s, func() []postedMessage {
		mu.Lock()
		defer mu.Unlock()
		return append([]postedMessage(nil), posts...)
	}
}

func TestSlackRedFlash(t *testing.T) {
	s, posts := newMockSlack(t, true)

	err := s.RedFlash(context.Background(), Alert{
		CandidateID:   "c1",
		CandidateName: "Sara Ali",
		SessionID:     "s1",
		Source:        "screening",
		Score:         55,
		Decision:      "reject",
		Reasons:       []string{"score below 60"},
	})
	require.NoError(t, err)

	got := posts()
	require.Len(t, got, 1)
	assert.Equal(t, "C123", got[0].Channel)
	assert.Contains(t, got[0].Text, "RED FLASH: Sara Ali scored 55/100 (decision: reject) from screening, session s1")
	assert.Contains(t, got[0].Text, "- score below 60")
	assert.Contains(t, got[0].Blocks, "header")
}

func TestSlackReminder(t *testing.T) {
	s, posts := newMockSlack(t, true)

	due := time.Date(2026, 5, 3, 9, 0, 0, 0, time.UTC)
	require.NoError(t, s.Reminder(context.Background(), ReminderNotice{
		CandidateID: "c1",
		Score:       91,
		Note:        "Strong Go answers",
		DueAt:       due,
	}))

	got := posts()
	require.Len(t, got, 1)
	assert.Equal(t, "Follow up with c1 (score 91/100), due 2026-05-03T09:00:00Z\nNote: Strong Go answers", got[0].Text)
}

func TestSlackErrorIsReturned(t *testing.T) {
	s, _ := newMockSlack(t, false)

	err := s.RedFlash(context.Background(), Alert{CandidateID: "c1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "channel_not_found")
}

func TestNewSlackValidatesConfig(t *testing.T) {
	_, err := NewSlack(SlackConfig{Channel: "C1"}, nil)
	assert.Error(t, err)

	_, err = NewSlack(SlackConfig{Token: "t"}, nil)
	assert.Error(t, err)
}

func TestLogNotifier(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	n := NewLog(zap.New(core))

	require.NoError(t, n.RedFlash(context.Background(), Alert{CandidateID: "c1", Score: 40}))
	require.NoError(t, n.Reminder(context.Background(), ReminderNotice{ReminderID: "r1"}))

	require.Equal(t, 1, logs.FilterMessage("red flash").Len())
	require.Equal(t, 1, logs.FilterMessage("follow-up reminder").Len())
	assert.Equal(t, "c1", logs.FilterMessage("red flash").All()[0].ContextMap()["candidate_id"])
}

func TestAlertTextFallsBackToID(t *testing.T) {
	assert.Equal(t, "RED FLASH: c9 scored 0/100", Alert{CandidateID: "c9"}.Text())
}
