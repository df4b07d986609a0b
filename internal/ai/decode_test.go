package ai

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/ta-nexus/internal/failure"
)

type sampleRecord struct {
	Color   string   `json:"color" validate:"oneof=green yellow red"`
	Score   float64  `json:"score"`
	Alert   bool     `json:"alert"`
	Notes   string   `json:"notes"`
	Reasons []string `json:"reasons"`
}

func TestDecodeJSONKeepsDefaultsForMissingFields(t *testing.T) {
	rec := sampleRecord{Color: "yellow", Score: 50, Notes: "default"}

	err := DecodeJSON(`{"score": 72}`, &rec)
	require.NoError(t, err)

	assert.Equal(t, "yellow", rec.Color)
	assert.Equal(t, 72.0, rec.Score)
	assert.Equal(t, "default", rec.Notes)
}

func TestDecodeJSONHandlesCodeFenceAndWeakTypes(t *testing.T) {
	raw := "```json\n{\"color\": \"red\", \"score\": \"0.8\", \"alert\": \"true\", \"reasons\": \"single\"}\n```"
	rec := sampleRecord{Color: "yellow"}

	require.NoError(t, DecodeJSON(raw, &rec))

	assert.Equal(t, "red", rec.Color)
	assert.Equal(t, 0.8, rec.Score)
	assert.True(t, rec.Alert)
	assert.Equal(t, []string{"single"}, rec.Reasons)
}

func TestDecodeJSONRejectsInvalidEnum(t *testing.T) {
	rec := sampleRecord{Color: "yellow"}
	err := DecodeJSON(`{"color": "purple"}`, &rec)
	require.Error(t, err)
	assert.True(t, failure.Is(err, failure.MalformedResponse))
}

type casedRecord struct {
	Level string `json:"level" validate:"oneof=low medium high"`
	Color string `json:"color" validate:"oneof=green yellow red"`
	Note  string `json:"note"`
}

func (r *casedRecord) Normalize() {
	r.Level = Enum(r.Level, "medium", "low", "medium", "high")
	r.Color = Enum(r.Color, "yellow", "green", "yellow", "red")
}

func TestDecodeJSONNormalizesBeforeValidation(t *testing.T) {
	rec := casedRecord{Level: "medium", Color: "yellow"}

	require.NoError(t, DecodeJSON(`{"level": " High ", "color": "purple", "note": "Keep Case"}`, &rec))

	assert.Equal(t, "high", rec.Level)
	assert.Equal(t, "yellow", rec.Color, "unknown values fall back per field")
	assert.Equal(t, "Keep Case", rec.Note)
}

func TestEnum(t *testing.T) {
	assert.Equal(t, "red", Enum("RED", "yellow", "green", "yellow", "red"))
	assert.Equal(t, "yellow", Enum("", "yellow", "green", "yellow", "red"))
	assert.Equal(t, "yellow", Enum("crimson", "yellow", "green", "yellow", "red"))
}

func TestDecodeJSONRejectsGarbage(t *testing.T) {
	cases := []string{"", "not json at all", "{\"color\": ", "[1, 2, 3]"}
	for _, raw := range cases {
		rec := sampleRecord{Color: "yellow"}
		err := DecodeJSON(raw, &rec)
		require.Error(t, err, "input %q", raw)
		assert.True(t, failure.Is(err, failure.MalformedResponse), "input %q", raw)
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: `{"a":1}`, want: `{"a":1}`},
		{name: "json fence", in: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "bare fence", in: "```\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "prose around", in: "Sure! Here it is: {\"a\":1} Hope that helps.", want: `{"a":1}`},
		{name: "no object", in: "nothing here", want: "nothing here"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractJSON(tt.in))
		})
	}
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 20.0, Clamp(25, 0, 20))
	assert.Equal(t, 0.0, Clamp(-3, 0, 20))
	assert.Equal(t, 7.5, Clamp(7.5, 0, 20))
	assert.Equal(t, 0.0, Clamp(math.NaN(), 0, 20))
}

func TestRenderPrompt(t *testing.T) {
	out := RenderPrompt("Job: {{JOB}}\nCandidate: {{CANDIDATE}}\n{{JOB}}", map[string]string{
		"JOB":       "Go developer",
		"CANDIDATE": "Alice",
	})
	assert.Equal(t, "Job: Go developer\nCandidate: Alice\nGo developer", out)
}

func TestCleanList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, CleanList([]string{" a ", "", "  ", "b"}))
}
