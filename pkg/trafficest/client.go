// Package trafficest provides a client for the traffic estimation API.
package trafficest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/sitepulse/compete-cli/internal/resilience"
)

// Client fetches monthly traffic estimates for a domain.
type Client interface {
	Estimate(ctx context.Context, domain string) (*Estimate, error)
}

// Estimate holds one domain's traffic figures.
type Estimate struct {
	Domain          string  `json:"domain"`
	MonthlyVisits   float64 `json:"monthly_visits"`
	UniqueVisitors  float64 `json:"unique_visitors"`
	BounceRate      float64 `json:"bounce_rate"`
	AvgDurationSecs float64 `json:"avg_duration_secs"`
	PagesPerVisit   float64 `json:"pages_per_visit"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) { c.baseURL = u }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

// WithRateLimit caps outgoing requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a traffic estimate client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: "https://api.trafficestimate.io/v1",
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(5), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Estimate(ctx context.Context, domain string) (*Estimate, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqURL := fmt.Sprintf("%s/traffic/%s", c.baseURL, domain)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, resilience.NewProviderError("trafficest", resilience.KindHTTPError, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, resilience.NewProviderError("trafficest", resilience.KindOf(err), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resilience.NewProviderError("trafficest", resilience.KindHTTPError, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, resilience.HTTPError("trafficest",
			resp.StatusCode, fmt.Errorf("trafficest: status %d: %s", resp.StatusCode, body))
	}

	var est Estimate
	if err := json.Unmarshal(body, &est); err != nil {
		return nil, resilience.NewProviderError("trafficest", resilience.KindParseError, err)
	}
	return &est, nil
}
