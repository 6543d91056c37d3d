// Package pagespeed provides a client for the PageSpeed Insights audit API.
package pagespeed

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

// Client runs a full page audit for a domain. Audits are slow (tens of
// seconds) and flaky; callers apply the audit retry policy externally.
type Client interface {
	Audit(ctx context.Context, domain string) (*AuditResult, error)
}

// AuditResult holds the category scores from one audit, on a 0-100 scale.
type AuditResult struct {
	PerformanceScore   float64 `json:"performance_score"`
	SEOScore           float64 `json:"seo_score"`
	AccessibilityScore float64 `json:"accessibility_score"`
	BestPractices      float64 `json:"best_practices_score"`
	LCPMs              float64 `json:"lcp_ms"`
	FCPMs              float64 `json:"fcp_ms"`
}

// apiResponse mirrors the subset of the audit API response we consume.
type apiResponse struct {
	LighthouseResult struct {
		Categories map[string]struct {
			Score float64 `json:"score"`
		} `json:"categories"`
		Audits map[string]struct {
			NumericValue float64 `json:"numericValue"`
		} `json:"audits"`
	} `json:"lighthouseResult"`
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

// NewClient creates a PageSpeed audit client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: "https://www.googleapis.com/pagespeedonline/v5",
		http: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(1), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Audit(ctx context.Context, domain string) (*AuditResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("url", "https://"+domain)
	for _, cat := range []string{"performance", "seo", "accessibility", "best-practices"} {
		q.Add("category", cat)
	}
	if c.apiKey != "" {
		q.Set("key", c.apiKey)
	}
	reqURL := fmt.Sprintf("%s/runPagespeed?%s", c.baseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, resilience.NewProviderError("pagespeed", resilience.KindHTTPError, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, resilience.NewProviderError("pagespeed", resilience.KindOf(err), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resilience.NewProviderError("pagespeed", resilience.KindHTTPError, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, resilience.HTTPError("pagespeed",
			resp.StatusCode, fmt.Errorf("pagespeed: status %d: %s", resp.StatusCode, body))
	}

	var parsed apiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, resilience.NewProviderError("pagespeed", resilience.KindParseError, err)
	}

	result := &AuditResult{}
	// Category scores arrive on a 0-1 scale.
	if cat, ok := parsed.LighthouseResult.Categories["performance"]; ok {
		result.PerformanceScore = cat.Score * 100
	}
	if cat, ok := parsed.LighthouseResult.Categories["seo"]; ok {
		result.SEOScore = cat.Score * 100
	}
	if cat, ok := parsed.LighthouseResult.Categories["accessibility"]; ok {
		result.AccessibilityScore = cat.Score * 100
	}
	if cat, ok := parsed.LighthouseResult.Categories["best-practices"]; ok {
		result.BestPractices = cat.Score * 100
	}
	if audit, ok := parsed.LighthouseResult.Audits["largest-contentful-paint"]; ok {
		result.LCPMs = audit.NumericValue
	}
	if audit, ok := parsed.LighthouseResult.Audits["first-contentful-paint"]; ok {
		result.FCPMs = audit.NumericValue
	}
	return result, nil
}
