// Package techdetect provides a client for the technology detection API.
package techdetect

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

// Client detects the technology stack running on a domain.
type Client interface {
	Detect(ctx context.Context, domain string) (*Detection, error)
}

// Technology is one detected product.
type Technology struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Version  string `json:"version,omitempty"`
}

// Detection is the full stack detected for a domain.
type Detection struct {
	Domain       string       `json:"domain"`
	Technologies []Technology `json:"technologies"`
}

// HasCategory reports whether any detected technology is in the category.
func (d *Detection) HasCategory(category string) bool {
	for _, t := range d.Technologies {
		if t.Category == category {
			return true
		}
	}
	return false
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

// NewClient creates a technology detection client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: "https://api.techdetect.io/v1",
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

func (c *httpClient) Detect(ctx context.Context, domain string) (*Detection, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqURL := fmt.Sprintf("%s/lookup/%s", c.baseURL, domain)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, resilience.NewProviderError("techdetect", resilience.KindHTTPError, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, resilience.NewProviderError("techdetect", resilience.KindOf(err), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resilience.NewProviderError("techdetect", resilience.KindHTTPError, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, resilience.HTTPError("techdetect",
			resp.StatusCode, fmt.Errorf("techdetect: status %d: %s", resp.StatusCode, body))
	}

	var detection Detection
	if err := json.Unmarshal(body, &detection); err != nil {
		return nil, resilience.NewProviderError("techdetect", resilience.KindParseError, err)
	}
	return &detection, nil
}
