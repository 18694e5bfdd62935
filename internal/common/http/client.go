// internal/common/http/client.go
package http

import (
	"context"
	"net/http"
	"time"
)

const defaultTimeout = 15 * time.Second

// Client is the timeout-bound HTTP client shared by the outbound
// integrations (lead relay, provider REST APIs). The timeout covers
// the whole exchange, body read included.
type Client struct {
	inner *http.Client
}

func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		inner: &http.Client{
			Timeout: timeout,
		},
	}
}

// Do executes req bound to ctx; whichever of ctx and the client
// timeout fires first cancels the request.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	return c.inner.Do(req.WithContext(ctx))
}
