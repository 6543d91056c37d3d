package provider

import (
	"context"

	"github.com/sitepulse/compete-cli/internal/contentaudit"
	"github.com/sitepulse/compete-cli/internal/model"
)

// ContentProvider produces the content metric from a homepage audit.
type ContentProvider struct {
	auditor contentaudit.Auditor
}

// NewContentProvider wraps a homepage content auditor.
func NewContentProvider(auditor contentaudit.Auditor) *ContentProvider {
	return &ContentProvider{auditor: auditor}
}

func (p *ContentProvider) Name() string           { return "contentaudit" }
func (p *ContentProvider) Kind() model.MetricKind { return model.MetricContent }

func (p *ContentProvider) Fetch(ctx context.Context, subject model.Subject) (*model.MetricPayload, error) {
	audit, err := p.auditor.Audit(ctx, subject.Domain)
	if err != nil {
		return nil, err
	}

	altCoverage := 1.0
	if audit.ImageCount > 0 {
		altCoverage = float64(audit.ImagesWithAlt) / float64(audit.ImageCount)
	}

	return &model.MetricPayload{
		Values: map[string]float64{
			"content_score":      audit.Score(),
			"word_count":         float64(audit.WordCount),
			"h1_count":           float64(audit.H1Count),
			"image_alt_coverage": altCoverage,
			"internal_links":     float64(audit.InternalLinks),
			"external_links":     float64(audit.ExternalLinks),
		},
		Labels: map[string]string{
			"title": audit.Title,
		},
	}, nil
}
