package provider

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/sitepulse/compete-cli/internal/model"
	"github.com/sitepulse/compete-cli/internal/resilience"
	"github.com/sitepulse/compete-cli/pkg/socialgraph"
)

// SocialProvider produces the social metric by aggregating profile
// metrics across every resolved handle for the subject.
type SocialProvider struct {
	client socialgraph.Client
}

// NewSocialProvider wraps a social metrics client.
func NewSocialProvider(client socialgraph.Client) *SocialProvider {
	return &SocialProvider{client: client}
}

func (p *SocialProvider) Name() string           { return "socialgraph" }
func (p *SocialProvider) Kind() model.MetricKind { return model.MetricSocial }

func (p *SocialProvider) Fetch(ctx context.Context, subject model.Subject) (*model.MetricPayload, error) {
	if len(subject.Handles) == 0 {
		return nil, resilience.HTTPError("socialgraph", http.StatusNotFound,
			errors.New("socialgraph: no social handles resolved for "+subject.Domain))
	}

	platforms := make([]string, 0, len(subject.Handles))
	for platform := range subject.Handles {
		platforms = append(platforms, platform)
	}
	sort.Strings(platforms)

	var (
		totalFollowers float64
		totalPosts     float64
		engagementSum  float64
		fetched        []string
		lastErr        error
	)
	for _, platform := range platforms {
		metrics, err := p.client.ProfileMetrics(ctx, platform, subject.Handles[platform])
		if err != nil {
			// One stale handle must not sink the whole metric.
			zap.L().Warn("social profile fetch failed",
				zap.String("platform", platform),
				zap.String("domain", subject.Domain),
				zap.Error(err))
			lastErr = err
			continue
		}
		totalFollowers += metrics.Followers
		totalPosts += metrics.Posts
		engagementSum += metrics.EngagementRate
		fetched = append(fetched, platform)
	}

	if len(fetched) == 0 {
		return nil, lastErr
	}

	return &model.MetricPayload{
		Values: map[string]float64{
			"total_followers":     totalFollowers,
			"total_posts":         totalPosts,
			"platform_count":      float64(len(fetched)),
			"avg_engagement_rate": engagementSum / float64(len(fetched)),
		},
		Labels: map[string]string{
			"platforms": strings.Join(fetched, ","),
		},
	}, nil
}
