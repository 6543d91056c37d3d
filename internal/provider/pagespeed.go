package provider

import (
	"context"

	"github.com/sitepulse/compete-cli/internal/model"
	"github.com/sitepulse/compete-cli/pkg/pagespeed"
)

// PerformanceProvider produces the performance metric from a page speed
// audit.
type PerformanceProvider struct {
	client pagespeed.Client
}

// NewPerformanceProvider wraps a page speed client.
func NewPerformanceProvider(client pagespeed.Client) *PerformanceProvider {
	return &PerformanceProvider{client: client}
}

func (p *PerformanceProvider) Name() string           { return "pagespeed" }
func (p *PerformanceProvider) Kind() model.MetricKind { return model.MetricPerformance }

func (p *PerformanceProvider) Fetch(ctx context.Context, subject model.Subject) (*model.MetricPayload, error) {
	result, err := p.client.Audit(ctx, subject.Domain)
	if err != nil {
		return nil, err
	}
	return &model.MetricPayload{
		Values: map[string]float64{
			"performance_score":    result.PerformanceScore,
			"accessibility_score":  result.AccessibilityScore,
			"best_practices_score": result.BestPractices,
			"lcp_ms":               result.LCPMs,
			"fcp_ms":               result.FCPMs,
		},
	}, nil
}

// SEOProvider produces the SEO metric from the same page speed audit,
// using the audit's SEO category.
type SEOProvider struct {
	client pagespeed.Client
}

// NewSEOProvider wraps a page speed client.
func NewSEOProvider(client pagespeed.Client) *SEOProvider {
	return &SEOProvider{client: client}
}

func (p *SEOProvider) Name() string           { return "pagespeed-seo" }
func (p *SEOProvider) Kind() model.MetricKind { return model.MetricSEO }

func (p *SEOProvider) Fetch(ctx context.Context, subject model.Subject) (*model.MetricPayload, error) {
	result, err := p.client.Audit(ctx, subject.Domain)
	if err != nil {
		return nil, err
	}
	return &model.MetricPayload{
		Values: map[string]float64{
			"seo_score": result.SEOScore,
		},
	}, nil
}
