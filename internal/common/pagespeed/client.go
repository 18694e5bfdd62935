// internal/common/pagespeed/client.go
package pagespeed

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"

	"brandscore-workers/internal/common/logger"
	"brandscore-workers/internal/common/metrics"
	"brandscore-workers/internal/models"
)

// Audit checks whose zero/null score is surfaced as a site bug.
// Ordered so the bug list is stable across scans.
var bugAudits = []struct {
	id    string
	label string
}{
	{"errors-in-console", "JavaScript errors in browser console"},
	{"is-crawlable", "Page is blocked from search engine crawling"},
	{"robots-txt", "robots.txt is invalid"},
	{"viewport", "Missing viewport meta tag for mobile"},
	{"link-text", "Links with non-descriptive text"},
}

type Config struct {
	BaseURL          string
	APIKey           string
	Timeout          time.Duration
	RateLimitBackoff time.Duration
	RetryDelay       time.Duration
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://www.googleapis.com/pagespeedonline/v5/runPagespeed"
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.RateLimitBackoff <= 0 {
		c.RateLimitBackoff = 4 * time.Second
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 1 * time.Second
	}
}

// Client collects performance and SEO metrics for a site. Collect never
// returns an error: every failure path resolves to an unsuccessful
// TechnicalCrawlData that downstream code treats as degraded input.
type Client struct {
	config     Config
	httpClient *http.Client
	logger     logger.Logger
}

func NewClient(config Config, log logger.Logger) *Client {
	config.applyDefaults()
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: log,
	}
}

type apiResponse struct {
	LighthouseResult struct {
		Categories struct {
			Performance categoryResult `json:"performance"`
			SEO         categoryResult `json:"seo"`
		} `json:"categories"`
		Audits     map[string]auditResult `json:"audits"`
		StackPacks []stackPack            `json:"stackPacks"`
	} `json:"lighthouseResult"`
}

type categoryResult struct {
	Score *float64 `json:"score"`
}

type auditResult struct {
	Score        *float64 `json:"score"`
	DisplayValue string   `json:"displayValue"`
}

type stackPack struct {
	Title string `json:"title"`
}

// Collect runs the mobile-strategy scan for siteURL. The first attempt
// carries the API key; on rejection or throttling it falls back to an
// anonymous request. Transport failures that never produced a response
// are not retried since the anonymous tier shares the same path.
func (c *Client) Collect(ctx context.Context, siteURL string) models.TechnicalCrawlData {
	if c.config.APIKey == "" {
		c.logger.Info("PageSpeed key not configured, skipping technical scan", map[string]interface{}{
			"url": siteURL,
		})
		metrics.CrawlAttempts.WithLabelValues("none", "skipped").Inc()
		return models.UnavailableCrawlData("scan not configured")
	}

	data, status, err := c.attempt(ctx, siteURL, true)
	if err == nil && status == http.StatusOK {
		metrics.CrawlAttempts.WithLabelValues("authenticated", "success").Inc()
		return data
	}

	var decodeErr *decodeError
	if err != nil && !stderrors.As(err, &decodeErr) {
		// No response at all; the anonymous tier would hit the same wall.
		metrics.CrawlAttempts.WithLabelValues("authenticated", "transport_error").Inc()
		c.logger.Warn("Technical scan transport failure", map[string]interface{}{
			"url":   siteURL,
			"error": err.Error(),
		})
		return models.UnavailableCrawlData(fmt.Sprintf("scan unreachable: %v", err))
	}

	if decodeErr != nil {
		// A response arrived but did not parse; retry anonymously like
		// any other non-2xx outcome.
		metrics.CrawlAttempts.WithLabelValues("authenticated", "decode_error").Inc()
		if !c.wait(ctx, c.config.RetryDelay) {
			return models.UnavailableCrawlData("scan cancelled")
		}
	} else {
		metrics.CrawlAttempts.WithLabelValues("authenticated", fmt.Sprintf("http_%d", status)).Inc()

		switch status {
		case http.StatusForbidden:
			// Credential rejected; the anonymous tier does not need it.
		case http.StatusTooManyRequests:
			if !c.wait(ctx, c.config.RateLimitBackoff) {
				return models.UnavailableCrawlData("scan cancelled while rate limited")
			}
		default:
			if !c.wait(ctx, c.config.RetryDelay) {
				return models.UnavailableCrawlData("scan cancelled")
			}
		}
	}

	c.logger.Warn("Authenticated scan rejected, retrying anonymously", map[string]interface{}{
		"url":    siteURL,
		"status": status,
	})

	data, status, err = c.attempt(ctx, siteURL, false)
	if err == nil && status == http.StatusOK {
		metrics.CrawlAttempts.WithLabelValues("anonymous", "success").Inc()
		return data
	}

	reason := "scan failed on both tiers"
	if err != nil {
		outcome := "transport_error"
		if stderrors.As(err, &decodeErr) {
			outcome = "decode_error"
		}
		metrics.CrawlAttempts.WithLabelValues("anonymous", outcome).Inc()
		reason = fmt.Sprintf("anonymous scan failed: %v", err)
	} else {
		metrics.CrawlAttempts.WithLabelValues("anonymous", fmt.Sprintf("http_%d", status)).Inc()
		reason = fmt.Sprintf("anonymous scan rejected with status %d", status)
	}

	c.logger.Warn("Technical scan unavailable", map[string]interface{}{
		"url":    siteURL,
		"reason": reason,
	})
	return models.UnavailableCrawlData(reason)
}

func (c *Client) attempt(ctx context.Context, siteURL string, authenticated bool) (models.TechnicalCrawlData, int, error) {
	query := url.Values{}
	query.Set("url", siteURL)
	query.Set("strategy", "mobile")
	query.Add("category", "performance")
	query.Add("category", "seo")
	if authenticated {
		query.Set("key", c.config.APIKey)
	}

	requestURL := c.config.BaseURL + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return models.TechnicalCrawlData{}, 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.TechnicalCrawlData{}, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return models.TechnicalCrawlData{}, resp.StatusCode, nil
	}

	var parsed apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return models.TechnicalCrawlData{}, resp.StatusCode, &decodeError{err: err}
	}

	return extract(parsed), http.StatusOK, nil
}

// decodeError marks a response that arrived but could not be parsed.
// Unlike a transport failure it is worth an anonymous retry: the
// provider did answer, it just answered garbage.
type decodeError struct {
	err error
}

func (e *decodeError) Error() string {
	return "failed to decode scan response: " + e.err.Error()
}

func (e *decodeError) Unwrap() error {
	return e.err
}

func (c *Client) wait(ctx context.Context, d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-ctx.Done():
		return false
	}
}

func extract(resp apiResponse) models.TechnicalCrawlData {
	lr := resp.LighthouseResult

	data := models.TechnicalCrawlData{
		Success:   true,
		PerfScore: roundedScore(lr.Categories.Performance.Score),
		SEOScore:  roundedScore(lr.Categories.SEO.Score),
		WebVitals: models.WebVitals{
			LCP: vitalDisplay(lr.Audits, "largest-contentful-paint"),
			CLS: vitalDisplay(lr.Audits, "cumulative-layout-shift"),
			FCP: vitalDisplay(lr.Audits, "first-contentful-paint"),
		},
		TechStack: []string{},
		Bugs:      []string{},
	}

	for _, pack := range lr.StackPacks {
		if pack.Title != "" {
			data.TechStack = append(data.TechStack, pack.Title)
		}
	}

	for _, check := range bugAudits {
		audit, ok := lr.Audits[check.id]
		if !ok {
			continue
		}
		if audit.Score == nil || *audit.Score == 0 {
			data.Bugs = append(data.Bugs, check.label)
		}
	}

	return data
}

func roundedScore(score *float64) int {
	if score == nil {
		return -1
	}
	return int(math.Round(*score * 100))
}

func vitalDisplay(audits map[string]auditResult, auditID string) string {
	if audit, ok := audits[auditID]; ok && audit.DisplayValue != "" {
		return audit.DisplayValue
	}
	return "N/A"
}
