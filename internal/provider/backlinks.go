package provider

import (
	"context"

	"github.com/sitepulse/compete-cli/internal/model"
	"github.com/sitepulse/compete-cli/pkg/linkgraph"
)

// BacklinksProvider produces the backlinks metric from the link graph
// API.
type BacklinksProvider struct {
	client linkgraph.Client
}

// NewBacklinksProvider wraps a link graph client.
func NewBacklinksProvider(client linkgraph.Client) *BacklinksProvider {
	return &BacklinksProvider{client: client}
}

func (p *BacklinksProvider) Name() string           { return "linkgraph" }
func (p *BacklinksProvider) Kind() model.MetricKind { return model.MetricBacklinks }

func (p *BacklinksProvider) Fetch(ctx context.Context, subject model.Subject) (*model.MetricPayload, error) {
	profile, err := p.client.Profile(ctx, subject.Domain)
	if err != nil {
		return nil, err
	}
	return &model.MetricPayload{
		Values: map[string]float64{
			"total_backlinks":   profile.TotalBacklinks,
			"referring_domains": profile.ReferringDomains,
			"domain_authority":  profile.DomainAuthority,
			"follow_ratio":      profile.FollowRatio,
		},
	}, nil
}
