// Package socialgraph provides a client for the social profile metrics API.
package socialgraph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/sitepulse/compete-cli/internal/resilience"
)

// Client fetches engagement metrics for a social profile.
type Client interface {
	ProfileMetrics(ctx context.Context, platform, username string) (*ProfileMetrics, error)
}

// ProfileMetrics is one platform profile's engagement snapshot.
type ProfileMetrics struct {
	Platform       string  `json:"platform"`
	Username       string  `json:"username"`
	Followers      float64 `json:"followers"`
	Following      float64 `json:"following"`
	Posts          float64 `json:"posts"`
	EngagementRate float64 `json:"engagement_rate"`
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

// NewClient creates a social metrics client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: "https://api.socialgraph.app/v1",
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

func (c *httpClient) ProfileMetrics(ctx context.Context, platform, username string) (*ProfileMetrics, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	// Handles are stored with a leading @; the API wants the bare name.
	username = strings.TrimPrefix(username, "@")
	reqURL := fmt.Sprintf("%s/profiles/%s/%s", c.baseURL,
		url.PathEscape(platform), url.PathEscape(username))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, resilience.NewProviderError("socialgraph", resilience.KindHTTPError, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, resilience.NewProviderError("socialgraph", resilience.KindOf(err), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resilience.NewProviderError("socialgraph", resilience.KindHTTPError, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, resilience.HTTPError("socialgraph",
			resp.StatusCode, fmt.Errorf("socialgraph: status %d: %s", resp.StatusCode, body))
	}

	var metrics ProfileMetrics
	if err := json.Unmarshal(body, &metrics); err != nil {
		return nil, resilience.NewProviderError("socialgraph", resilience.KindParseError, err)
	}
	return &metrics, nil
}
