package pagespeed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brandscore-workers/internal/common/logger"
)

const successBody = `{
	"lighthouseResult": {
		"categories": {
			"performance": {"score": 0.95},
			"seo": {"score": 0.92}
		},
		"audits": {
			"largest-contentful-paint": {"score": 0.9, "displayValue": "1.8 s"},
			"cumulative-layout-shift": {"score": 1, "displayValue": "0.02"},
			"first-contentful-paint": {"score": 0.95, "displayValue": "1.1 s"},
			"errors-in-console": {"score": 0},
			"is-crawlable": {"score": 1},
			"viewport": {"score": null}
		},
		"stackPacks": [
			{"title": "WordPress"},
			{"title": "React"}
		]
	}
}`

func testClient(t *testing.T, serverURL, apiKey string) *Client {
	t.Helper()
	return NewClient(Config{
		BaseURL:          serverURL,
		APIKey:           apiKey,
		Timeout:          2 * time.Second,
		RateLimitBackoff: 10 * time.Millisecond,
		RetryDelay:       10 * time.Millisecond,
	}, logger.NewNoOpLogger())
}

func TestCollect_NoCredentialSkipsNetwork(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer server.Close()

	client := testClient(t, server.URL, "")
	data := client.Collect(context.Background(), "https://example.com")

	assert.False(t, data.Success)
	assert.Equal(t, -1, data.PerfScore)
	assert.Equal(t, -1, data.SEOScore)
	assert.Equal(t, "N/A", data.WebVitals.LCP)
	assert.Empty(t, data.TechStack)
	assert.Empty(t, data.Bugs)
	assert.Equal(t, 0, hits, "no network call expected without a credential")
}

func TestCollect_AuthenticatedSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Equal(t, "mobile", r.URL.Query().Get("strategy"))
		assert.ElementsMatch(t, []string{"performance", "seo"}, r.URL.Query()["category"])
		w.Write([]byte(successBody))
	}))
	defer server.Close()

	client := testClient(t, server.URL, "test-key")
	data := client.Collect(context.Background(), "https://example.com")

	require.True(t, data.Success)
	assert.Equal(t, 95, data.PerfScore)
	assert.Equal(t, 92, data.SEOScore)
	assert.Equal(t, "1.8 s", data.WebVitals.LCP)
	assert.Equal(t, "0.02", data.WebVitals.CLS)
	assert.Equal(t, "1.1 s", data.WebVitals.FCP)
	assert.Equal(t, []string{"WordPress", "React"}, data.TechStack)
	assert.Equal(t, []string{
		"JavaScript errors in browser console",
		"Missing viewport meta tag for mobile",
	}, data.Bugs)
}

func TestCollect_ForbiddenFallsBackAnonymously(t *testing.T) {
	var sawKey []bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hasKey := r.URL.Query().Get("key") != ""
		sawKey = append(sawKey, hasKey)
		if hasKey {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Write([]byte(successBody))
	}))
	defer server.Close()

	client := testClient(t, server.URL, "rejected-key")
	data := client.Collect(context.Background(), "https://example.com")

	require.True(t, data.Success)
	assert.Equal(t, []bool{true, false}, sawKey, "authenticated attempt then anonymous retry")
}

func TestCollect_MalformedBodyFallsBackAnonymously(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.Write([]byte(`<html>not the scan you were looking for</html>`))
			return
		}
		w.Write([]byte(successBody))
	}))
	defer server.Close()

	client := testClient(t, server.URL, "test-key")
	data := client.Collect(context.Background(), "https://example.com")

	require.True(t, data.Success)
	assert.Equal(t, 95, data.PerfScore)
	assert.Equal(t, 2, attempts, "garbled response should still get the anonymous retry")
}

func TestCollect_MalformedBodyOnBothTiers(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.Write([]byte(`{"lighthouseResult":`))
	}))
	defer server.Close()

	client := testClient(t, server.URL, "test-key")
	data := client.Collect(context.Background(), "https://example.com")

	assert.False(t, data.Success)
	assert.Equal(t, 2, attempts)
	assert.Contains(t, data.Error, "anonymous scan failed")
}

func TestCollect_RateLimitedBacksOffThenRetries(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(successBody))
	}))
	defer server.Close()

	client := testClient(t, server.URL, "test-key")
	data := client.Collect(context.Background(), "https://example.com")

	require.True(t, data.Success)
	assert.Equal(t, 2, attempts)
}

func TestCollect_BothTiersFail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := testClient(t, server.URL, "test-key")
	data := client.Collect(context.Background(), "https://example.com")

	assert.False(t, data.Success)
	assert.Equal(t, -1, data.PerfScore)
	assert.Equal(t, "N/A", data.WebVitals.FCP)
	assert.NotEmpty(t, data.Error)
}

func TestCollect_TransportErrorDoesNotRetry(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused

	client := testClient(t, server.URL, "test-key")
	data := client.Collect(context.Background(), "https://example.com")

	assert.False(t, data.Success)
	assert.Contains(t, data.Error, "scan unreachable")
}

func TestCollect_MissingScoresYieldPlaceholders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"lighthouseResult": {"categories": {"performance": {"score": null}, "seo": {}}, "audits": {}}}`))
	}))
	defer server.Close()

	client := testClient(t, server.URL, "test-key")
	data := client.Collect(context.Background(), "https://example.com")

	require.True(t, data.Success)
	assert.Equal(t, -1, data.PerfScore)
	assert.Equal(t, -1, data.SEOScore)
	assert.Equal(t, "N/A", data.WebVitals.LCP)
}
