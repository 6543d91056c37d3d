package provider

import (
	"context"

	"github.com/sitepulse/compete-cli/internal/model"
	"github.com/sitepulse/compete-cli/pkg/trafficest"
)

// TrafficProvider produces the traffic metric from the traffic estimate
// API.
type TrafficProvider struct {
	client trafficest.Client
}

// NewTrafficProvider wraps a traffic estimate client.
func NewTrafficProvider(client trafficest.Client) *TrafficProvider {
	return &TrafficProvider{client: client}
}

func (p *TrafficProvider) Name() string           { return "trafficest" }
func (p *TrafficProvider) Kind() model.MetricKind { return model.MetricTraffic }

func (p *TrafficProvider) Fetch(ctx context.Context, subject model.Subject) (*model.MetricPayload, error) {
	est, err := p.client.Estimate(ctx, subject.Domain)
	if err != nil {
		return nil, err
	}
	return &model.MetricPayload{
		Values: map[string]float64{
			"monthly_visits":    est.MonthlyVisits,
			"unique_visitors":   est.UniqueVisitors,
			"bounce_rate":       est.BounceRate,
			"avg_duration_secs": est.AvgDurationSecs,
			"pages_per_visit":   est.PagesPerVisit,
		},
	}, nil
}
