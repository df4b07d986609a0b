package apiclient

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestGetJSONDecodesPlainAndGzip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))
		assert.Equal(t, "go", r.URL.Query().Get("what"))

		body := []byte(`{"count": 3}`)
		if r.URL.Path == "/gzip" {
			var buf bytes.Buffer
			zw := gzip.NewWriter(&buf)
			_, _ = zw.Write(body)
			_ = zw.Close()
			w.Header().Set("Content-Encoding", "gzip")
			_, _ = w.Write(buf.Bytes())
			return
		}
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	c := New(nil)
	for _, path := range []string{"/plain", "/gzip"} {
		var got struct {
			Count int `json:"count"`
		}
		require.NoError(t, c.GetJSON(context.Background(), srv.URL+path, url.Values{"what": {"go"}}, &got))
		assert.Equal(t, 3, got.Count, path)
	}
}

func TestGetJSONStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	err := New(nil).GetJSON(context.Background(), srv.URL, nil, nil)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusUnauthorized, statusErr.Code)
}

func TestDecodeItemsIsWeaklyTyped(t *testing.T) {
	var out []struct {
		Min float64 `json:"salary_min"`
		Max float64 `json:"salary_max"`
	}
	items := []interface{}{
		map[string]interface{}{"salary_min": "9000", "salary_max": 12000},
		map[string]interface{}{"salary_min": 1.5},
	}

	require.NoError(t, DecodeItems(items, &out))
	require.Len(t, out, 2)
	assert.Equal(t, 9000.0, out[0].Min)
	assert.Equal(t, 12000.0, out[0].Max)
	assert.Equal(t, 1.5, out[1].Min)
}

func TestRequestLogRedactsKeys(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	core, logs := observer.New(zapcore.DebugLevel)
	c := New(zap.New(core))

	q := url.Values{"api_key": {"secret"}, "domain": {"acme.com"}}
	require.NoError(t, c.GetJSON(context.Background(), srv.URL, q, nil))

	entries := logs.FilterMessage("make request").All()
	require.Len(t, entries, 1)
	logged := entries[0].ContextMap()["url"].(string)
	assert.NotContains(t, logged, "secret")
	assert.Contains(t, logged, "api_key=REDACTED")
	assert.Contains(t, logged, "domain=acme.com")
}
