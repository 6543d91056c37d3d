// Package linkgraph provides a client for the backlink profile API.
package linkgraph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/sitepulse/compete-cli/internal/resilience"
)

// Client fetches a domain's backlink profile.
type Client interface {
	Profile(ctx context.Context, domain string) (*LinkProfile, error)
}

// LinkProfile summarizes a domain's inbound link graph.
type LinkProfile struct {
	Domain           string  `json:"domain"`
	TotalBacklinks   float64 `json:"total_backlinks"`
	ReferringDomains float64 `json:"referring_domains"`
	DomainAuthority  float64 `json:"domain_authority"`
	FollowRatio      float64 `json:"follow_ratio"`
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

// NewClient creates a backlink profile client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: "https://api.linkgraph.dev/v2",
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(2), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Profile(ctx context.Context, domain string) (*LinkProfile, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqURL := fmt.Sprintf("%s/backlinks?%s", c.baseURL, url.Values{"target": {domain}}.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, resilience.NewProviderError("linkgraph", resilience.KindHTTPError, err)
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, resilience.NewProviderError("linkgraph", resilience.KindOf(err), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resilience.NewProviderError("linkgraph", resilience.KindHTTPError, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, resilience.HTTPError("linkgraph",
			resp.StatusCode, fmt.Errorf("linkgraph: status %d: %s", resp.StatusCode, body))
	}

	var profile LinkProfile
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, resilience.NewProviderError("linkgraph", resilience.KindParseError, err)
	}
	return &profile, nil
}
