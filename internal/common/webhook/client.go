// internal/common/webhook/client.go
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	httpclient "brandscore-workers/internal/common/http"
)

// DeliveryError distinguishes rejections (4xx, permanent) from
// transient delivery failures (timeouts, 5xx).
type DeliveryError struct {
	StatusCode int
	Body       string
	Retryable  bool
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("webhook delivery failed (status %d): %s", e.StatusCode, e.Body)
}

// Client posts lead payloads to the downstream automation webhook.
type Client struct {
	url        string
	secret     string
	httpClient *httpclient.Client
}

func NewClient(url, secret string) *Client {
	return NewClientWithTimeout(url, secret, 15*time.Second)
}

// NewClientWithTimeout is used by tests and callers needing a tighter bound.
func NewClientWithTimeout(url, secret string, timeout time.Duration) *Client {
	return &Client{
		url:        url,
		secret:     secret,
		httpClient: httpclient.NewClient(timeout),
	}
}

// Deliver posts the payload as JSON. A non-2xx response yields a
// *DeliveryError; transport failures are returned as-is and should be
// treated as retryable.
func (c *Client) Deliver(ctx context.Context, payload interface{}) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.secret != "" {
		req.Header.Set("X-Webhook-Secret", c.secret)
	}

	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &DeliveryError{
		StatusCode: resp.StatusCode,
		Body:       string(body),
		Retryable:  resp.StatusCode >= 500,
	}
}
