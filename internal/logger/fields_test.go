package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFieldHelpersSkipBlankValues(t *testing.T) {
	cases := []struct {
		name   string
		fields []zap.Field
		want   map[string]string
	}{
		{
			name:   "session without candidate",
			fields: SessionFields(" sess-1 ", ""),
			want:   map[string]string{FieldSessionID: "sess-1"},
		},
		{
			name:   "session with candidate",
			fields: SessionFields("sess-1", "cand-9"),
			want:   map[string]string{FieldSessionID: "sess-1", FieldCandidateID: "cand-9"},
		},
		{
			name:   "provider only",
			fields: CommonFields("  gemini  ", " "),
			want:   map[string]string{FieldProvider: "gemini"},
		},
		{
			name:   "blank key dropped",
			fields: StringFields(StringField{Key: "   ", Value: "orphan"}),
			want:   map[string]string{},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := make(map[string]string, len(tc.fields))
			for _, f := range tc.fields {
				got[f.Key] = f.String
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestComponentCarriesCommonFields(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)

	log := WithCommonFields(Component(zap.New(core), "strategic"), "anthropic", "claude-x")
	WithFields(log, SessionFields("sess-2", "")...).Info("worker started")

	entries := observed.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "strategic", entries[0].LoggerName)
	assert.Equal(t, map[string]interface{}{
		FieldProvider:  "anthropic",
		FieldModel:     "claude-x",
		FieldSessionID: "sess-2",
	}, entries[0].ContextMap())
}

func TestNilLoggerFallsBackToNop(t *testing.T) {
	assert.NotPanics(t, func() {
		Component(nil, "market").Info("dropped")
		WithCommonFields(nil, "gemini", "m").Info("dropped")
		WithFields(nil, SessionFields("s", "c")...).Warn("dropped")
	})
}
