// Package delegate talks to the external elevated sandbox service. The engine
// treats it as an opaque next hop: same request shape in, same outcome shape
// out, internals never inspected.
package delegate

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ThomasVuNguyen/sim/engine/sandbox"
	"github.com/go-resty/resty/v2"
)

// Client executes requests against the delegate service.
type Client struct {
	http *resty.Client
}

// Config holds the delegate service connection settings.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// NewClient creates a delegate client. Retries apply to transport-level
// failures only; failures classified by the remote engine come back inside a
// 200 envelope and are never retried here.
func NewClient(cfg *Config) *Client {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(2).
		SetRetryWaitTime(250 * time.Millisecond).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		})
	if cfg.Token != "" {
		client.SetAuthToken(cfg.Token)
	}
	return &Client{http: client}
}

// Execute forwards the request to the delegate service and returns its
// outcome envelope.
func (c *Client) Execute(ctx context.Context, req *sandbox.ExecutionRequest) (*sandbox.ExecutionResult, error) {
	result := &sandbox.ExecutionResult{}
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(result).
		Post("/execute")
	if err != nil {
		return nil, fmt.Errorf("delegate request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("delegate service returned %s", resp.Status())
	}
	return result, nil
}
