// Package secprobe inspects a site's TLS and security response headers
// directly, without a third-party API.
package secprobe

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sitepulse/compete-cli/internal/resilience"
)

// Client probes a domain over HTTPS.
type Client interface {
	Probe(ctx context.Context, domain string) (*ProbeResult, error)
}

// ProbeResult records which security controls a site exposes.
type ProbeResult struct {
	Domain              string `json:"domain"`
	HTTPSValid          bool   `json:"https_valid"`
	HSTS                bool   `json:"hsts"`
	CSP                 bool   `json:"csp"`
	XFrameOptions       bool   `json:"x_frame_options"`
	XContentTypeOptions bool   `json:"x_content_type_options"`
	ReferrerPolicy      bool   `json:"referrer_policy"`
	CertDaysRemaining   int    `json:"cert_days_remaining"`
}

// Score condenses the probe into a 0-100 value: HTTPS is worth half, the
// five headers split the rest.
func (p *ProbeResult) Score() float64 {
	score := 0.0
	if p.HTTPSValid {
		score += 50
	}
	for _, present := range []bool{p.HSTS, p.CSP, p.XFrameOptions, p.XContentTypeOptions, p.ReferrerPolicy} {
		if present {
			score += 10
		}
	}
	return score
}

// Option configures the client.
type Option func(*probeClient)

// WithHTTPClient sets a custom HTTP client (for testing).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *probeClient) { c.http = hc }
}

// WithScheme overrides the probe scheme (httptest servers are http).
func WithScheme(scheme string) Option {
	return func(c *probeClient) { c.scheme = scheme }
}

type probeClient struct {
	http   *http.Client
	scheme string
}

// NewClient creates a security probe client.
func NewClient(opts ...Option) Client {
	c := &probeClient{
		http: &http.Client{
			Timeout: 20 * time.Second,
		},
		scheme: "https",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *probeClient) Probe(ctx context.Context, domain string) (*ProbeResult, error) {
	reqURL := fmt.Sprintf("%s://%s/", c.scheme, domain)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, resilience.NewProviderError("secprobe", resilience.KindHTTPError, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, resilience.NewProviderError("secprobe", resilience.KindOf(err), err)
	}
	defer resp.Body.Close()

	result := &ProbeResult{
		Domain:              domain,
		HSTS:                resp.Header.Get("Strict-Transport-Security") != "",
		CSP:                 resp.Header.Get("Content-Security-Policy") != "",
		XFrameOptions:       resp.Header.Get("X-Frame-Options") != "",
		XContentTypeOptions: resp.Header.Get("X-Content-Type-Options") != "",
		ReferrerPolicy:      resp.Header.Get("Referrer-Policy") != "",
	}

	if resp.TLS != nil {
		result.HTTPSValid = true
		if len(resp.TLS.PeerCertificates) > 0 {
			remaining := time.Until(resp.TLS.PeerCertificates[0].NotAfter)
			result.CertDaysRemaining = int(remaining.Hours() / 24)
		}
	}

	return result, nil
}
