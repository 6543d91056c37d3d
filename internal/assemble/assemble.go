// Package assemble merges two settled site analyses into the final
// comparison response.
package assemble

import (
	"github.com/sitepulse/compete-cli/internal/compare"
	"github.com/sitepulse/compete-cli/internal/model"
)

// Response builds the merged AnalyzeResponse from the two sides. Success
// reflects that the orchestration itself completed; provider failures
// surface through PartialFailure and FailedMetrics instead.
func Response(yours, competitor *model.SiteAnalysis, weights compare.Weights, elapsedMs int64) *model.AnalyzeResponse {
	comparison := compare.Sites(yours, competitor)

	resp := &model.AnalyzeResponse{
		Success:        true,
		YourSite:       yours,
		CompetitorSite: competitor,
		Comparison:     comparison,
		MarketShare:    compare.MarketShare(comparison, weights),
		ElapsedMs:      elapsedMs,
	}

	if yours != nil {
		resp.FailedMetrics = append(resp.FailedMetrics, yours.FailedMetrics...)
	}
	if competitor != nil {
		resp.FailedMetrics = append(resp.FailedMetrics, competitor.FailedMetrics...)
	}
	resp.PartialFailure = len(resp.FailedMetrics) > 0

	return resp
}
