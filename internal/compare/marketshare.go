package compare

import (
	"math"

	"github.com/sitepulse/compete-cli/internal/model"
)

// Weights are the market share category weights. They need not sum to
// any particular total: scoring renormalizes over the weight actually
// used, so an unavailable category redistributes its share instead of
// skewing the result.
type Weights struct {
	SEO       float64
	Traffic   float64
	Backlinks float64
}

// DefaultWeights is the standard 30/40/30 split.
func DefaultWeights() Weights {
	return Weights{SEO: 30, Traffic: 40, Backlinks: 30}
}

// MarketShare computes the comparative 0-100 score from the category
// comparisons. Each available weighted category contributes its weight
// split proportionally to the two sides' values; the totals are then
// renormalized over the weight used. A category where both sides are
// zero is excluded, same as an unavailable one. Yours and Competitor
// always sum to exactly 100 unless no weighted category contributed, in
// which case both are zero.
func MarketShare(comparison model.ComparisonResult, w Weights) model.MarketShareScore {
	weighted := []struct {
		kind   model.MetricKind
		weight float64
	}{
		{model.MetricSEO, w.SEO},
		{model.MetricTraffic, w.Traffic},
		{model.MetricBacklinks, w.Backlinks},
	}

	var yoursPoints, weightUsed float64
	for _, cat := range weighted {
		if cat.weight <= 0 {
			continue
		}
		cmp, ok := comparison[string(cat.kind)]
		if !ok || cmp.Winner == model.WinnerUnavailable {
			continue
		}
		total := cmp.YourValue + cmp.CompetitorValue
		if total <= 0 {
			// Both sides at zero say nothing about either site; the
			// category contributes no weight.
			continue
		}
		weightUsed += cat.weight
		yoursPoints += cat.weight * (cmp.YourValue / total)
	}

	if weightUsed <= 0 {
		return model.MarketShareScore{}
	}

	yours := int(math.Round(100 * yoursPoints / weightUsed))
	return model.MarketShareScore{Yours: yours, Competitor: 100 - yours}
}
