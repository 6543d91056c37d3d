package provider

import (
	"context"

	"github.com/sitepulse/compete-cli/internal/model"
	"github.com/sitepulse/compete-cli/pkg/secprobe"
)

// SecurityProvider produces the security metric from a direct probe of
// the site's TLS and response headers.
type SecurityProvider struct {
	client secprobe.Client
}

// NewSecurityProvider wraps a security probe client.
func NewSecurityProvider(client secprobe.Client) *SecurityProvider {
	return &SecurityProvider{client: client}
}

func (p *SecurityProvider) Name() string           { return "secprobe" }
func (p *SecurityProvider) Kind() model.MetricKind { return model.MetricSecurity }

func (p *SecurityProvider) Fetch(ctx context.Context, subject model.Subject) (*model.MetricPayload, error) {
	result, err := p.client.Probe(ctx, subject.Domain)
	if err != nil {
		return nil, err
	}

	boolVal := func(b bool) float64 {
		if b {
			return 1
		}
		return 0
	}

	return &model.MetricPayload{
		Values: map[string]float64{
			"security_score":         result.Score(),
			"https_valid":            boolVal(result.HTTPSValid),
			"hsts":                   boolVal(result.HSTS),
			"csp":                    boolVal(result.CSP),
			"x_frame_options":        boolVal(result.XFrameOptions),
			"x_content_type_options": boolVal(result.XContentTypeOptions),
			"cert_days_remaining":    float64(result.CertDaysRemaining),
		},
	}, nil
}
