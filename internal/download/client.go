package download

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/dorogoy/zipline-mcp-sub003/internal/resilience"
)

// Client wraps resty with rate limiting and a circuit breaker for outbound
// fetches. Response bodies are consumed raw so the downloader can enforce
// its byte ceiling while streaming.
type Client struct {
	Resty   *resty.Client
	Limiter *rate.Limiter
	Breaker *resilience.Breaker
}

// NewClient creates the outbound HTTP client.
func NewClient() *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = 1 * time.Second
	retryClient.RetryWaitMax = 10 * time.Second
	retryClient.Logger = nil

	restyClient := resty.New()
	restyClient.
		SetHeader("User-Agent", "zipline-mcp/1.0").
		// Requesting gzip explicitly disables transparent transport
		// decompression; the downloader decodes while counting bytes.
		SetHeader("Accept-Encoding", "gzip").
		SetTransport(retryClient.HTTPClient.Transport)

	breaker := resilience.New("download", resilience.Settings{
		FailureThreshold: 8,
		Cooldown:         30 * time.Second,
	})

	return &Client{
		Resty:   restyClient,
		Limiter: rate.NewLimiter(rate.Inf, 0),
		Breaker: breaker,
	}
}

// SetRateLimit configures outbound rate limiting (requests per second).
func (c *Client) SetRateLimit(rps float64) {
	if rps <= 0 {
		c.Limiter = rate.NewLimiter(rate.Inf, 0)
	} else {
		c.Limiter = rate.NewLimiter(rate.Limit(rps), int(rps))
	}
}

// Request creates a raw-body request gated by the breaker and rate limiter.
func (c *Client) Request(ctx context.Context) (*resty.Request, error) {
	if err := c.Breaker.Allow(); err != nil {
		return nil, err
	}
	if err := c.Limiter.Wait(ctx); err != nil {
		// The admitted call never went out. Keep the breaker slot free.
		c.Breaker.Cancel()
		return nil, fmt.Errorf("rate limit error: %w", err)
	}
	return c.Resty.R().SetContext(ctx).SetDoNotParseResponse(true), nil
}
