package model

// Winner indicates which side won a comparison category.
type Winner string

const (
	WinnerYours       Winner = "yours"
	WinnerCompetitor  Winner = "competitor"
	WinnerTie         Winner = "tie"
	WinnerUnavailable Winner = "unavailable"
)

// CategoryComparison is the outcome of comparing one category across the
// two sides. Gap is the absolute difference of the two values; it is zero
// when the category is unavailable.
type CategoryComparison struct {
	YourValue       float64 `json:"your_value"`
	CompetitorValue float64 `json:"competitor_value"`
	Winner          Winner  `json:"winner"`
	Gap             float64 `json:"gap"`
}

// ComparisonResult maps category name to its comparison outcome.
type ComparisonResult map[string]CategoryComparison

// MarketShareScore is the renormalized 0-100 comparative score. Yours and
// Competitor sum to 100 whenever any category contributed weight; both are
// zero otherwise.
type MarketShareScore struct {
	Yours      int `json:"yours"`
	Competitor int `json:"competitor"`
}

// AnalyzeResponse is the merged response payload for one comparison.
type AnalyzeResponse struct {
	Success        bool             `json:"success"`
	PartialFailure bool             `json:"partial_failure"`
	FailedMetrics  []FailedMetric   `json:"failed_metrics,omitempty"`
	YourSite       *SiteAnalysis    `json:"your_site"`
	CompetitorSite *SiteAnalysis    `json:"competitor_site"`
	Comparison     ComparisonResult `json:"comparison"`
	MarketShare    MarketShareScore `json:"market_share"`
	Insight        string           `json:"insight,omitempty"`
	ElapsedMs      int64            `json:"elapsed_ms"`
}
