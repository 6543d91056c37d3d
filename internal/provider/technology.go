package provider

import (
	"context"
	"strings"

	"github.com/sitepulse/compete-cli/internal/model"
	"github.com/sitepulse/compete-cli/pkg/techdetect"
)

// TechnologyProvider produces the technology metric from the detection
// API.
type TechnologyProvider struct {
	client techdetect.Client
}

// NewTechnologyProvider wraps a technology detection client.
func NewTechnologyProvider(client techdetect.Client) *TechnologyProvider {
	return &TechnologyProvider{client: client}
}

func (p *TechnologyProvider) Name() string           { return "techdetect" }
func (p *TechnologyProvider) Kind() model.MetricKind { return model.MetricTechnology }

func (p *TechnologyProvider) Fetch(ctx context.Context, subject model.Subject) (*model.MetricPayload, error) {
	detection, err := p.client.Detect(ctx, subject.Domain)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(detection.Technologies))
	for _, t := range detection.Technologies {
		names = append(names, t.Name)
	}

	boolVal := func(b bool) float64 {
		if b {
			return 1
		}
		return 0
	}

	return &model.MetricPayload{
		Values: map[string]float64{
			"tech_count":    float64(len(detection.Technologies)),
			"has_cms":       boolVal(detection.HasCategory("cms")),
			"has_analytics": boolVal(detection.HasCategory("analytics")),
			"has_cdn":       boolVal(detection.HasCategory("cdn")),
		},
		Labels: map[string]string{
			"stack": strings.Join(names, ", "),
		},
	}, nil
}
