package assemble

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sitepulse/compete-cli/internal/compare"
	"github.com/sitepulse/compete-cli/internal/model"
)

func sideWith(kind model.MetricKind, value string, v float64) *model.SiteAnalysis {
	return &model.SiteAnalysis{
		Metrics: map[string]model.MetricResult{
			string(kind): {
				Provider: string(kind),
				Kind:     kind,
				Payload:  &model.MetricPayload{Values: map[string]float64{value: v}},
			},
		},
	}
}

func TestResponseCleanRun(t *testing.T) {
	yours := sideWith(model.MetricPerformance, "performance_score", 80)
	competitor := sideWith(model.MetricPerformance, "performance_score", 60)

	resp := Response(yours, competitor, compare.DefaultWeights(), 1200)

	assert.True(t, resp.Success)
	assert.False(t, resp.PartialFailure)
	assert.Empty(t, resp.FailedMetrics)
	assert.Equal(t, int64(1200), resp.ElapsedMs)

	perf := resp.Comparison["performance"]
	assert.Equal(t, model.WinnerYours, perf.Winner)
	assert.Equal(t, 20.0, perf.Gap)
}

func TestResponsePartialFailureStillSucceeds(t *testing.T) {
	yours := sideWith(model.MetricSEO, "seo_score", 70)
	yours.FailedMetrics = []model.FailedMetric{
		{Side: "user", Metric: "trafficest", Kind: "provider_timeout", Error: "deadline exceeded"},
	}
	competitor := sideWith(model.MetricSEO, "seo_score", 50)
	competitor.FailedMetrics = []model.FailedMetric{
		{Side: "competitor", Metric: "trafficest", Kind: "provider_timeout", Error: "deadline exceeded"},
	}

	resp := Response(yours, competitor, compare.DefaultWeights(), 900)

	assert.True(t, resp.Success, "provider failures must not fail the run")
	assert.True(t, resp.PartialFailure)
	assert.Len(t, resp.FailedMetrics, 2)

	// Traffic failed on both sides, so its category is unavailable and
	// the score renormalizes over SEO alone.
	assert.Equal(t, model.WinnerUnavailable, resp.Comparison["traffic"].Winner)
	assert.Equal(t, 58, resp.MarketShare.Yours)
	assert.Equal(t, 42, resp.MarketShare.Competitor)
}
