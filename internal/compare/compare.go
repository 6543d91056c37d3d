// Package compare turns two settled site analyses into per-category
// winners and the weighted market share score.
package compare

import (
	"math"

	"github.com/sitepulse/compete-cli/internal/model"
)

// primaryValue names the headline value compared for each metric kind.
var primaryValue = map[model.MetricKind]string{
	model.MetricPerformance: "performance_score",
	model.MetricSEO:         "seo_score",
	model.MetricContent:     "content_score",
	model.MetricTechnology:  "tech_count",
	model.MetricSecurity:    "security_score",
	model.MetricTraffic:     "monthly_visits",
	model.MetricBacklinks:   "total_backlinks",
	model.MetricSocial:      "total_followers",
}

// tieEpsilon absorbs float noise when two sides are effectively equal.
const tieEpsilon = 1e-9

// Sites compares every metric category across the two analyses. A
// category where either side is missing its metric settles as
// unavailable with a zero gap.
func Sites(yours, competitor *model.SiteAnalysis) model.ComparisonResult {
	result := make(model.ComparisonResult, len(primaryValue))
	for _, kind := range model.MetricKinds() {
		result[string(kind)] = category(kind, yours, competitor)
	}
	return result
}

func category(kind model.MetricKind, yours, competitor *model.SiteAnalysis) model.CategoryComparison {
	yv, yok := sideValue(yours, kind)
	cv, cok := sideValue(competitor, kind)
	if !yok || !cok {
		return model.CategoryComparison{Winner: model.WinnerUnavailable}
	}

	cmp := model.CategoryComparison{
		YourValue:       yv,
		CompetitorValue: cv,
		Gap:             math.Abs(yv - cv),
	}
	switch {
	case math.Abs(yv-cv) <= tieEpsilon:
		cmp.Winner = model.WinnerTie
		cmp.Gap = 0
	case yv > cv:
		cmp.Winner = model.WinnerYours
	default:
		cmp.Winner = model.WinnerCompetitor
	}
	return cmp
}

func sideValue(analysis *model.SiteAnalysis, kind model.MetricKind) (float64, bool) {
	if analysis == nil {
		return 0, false
	}
	res := analysis.ByKind(kind)
	if res == nil {
		return 0, false
	}
	return res.Payload.Value(primaryValue[kind])
}
