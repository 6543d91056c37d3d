// Package model defines the core data types shared across the analysis pipeline.
package model

import "time"

// MetricKind identifies one analysis dimension.
type MetricKind string

const (
	MetricPerformance MetricKind = "performance"
	MetricSEO         MetricKind = "seo"
	MetricContent     MetricKind = "content"
	MetricTechnology  MetricKind = "technology"
	MetricSecurity    MetricKind = "security"
	MetricTraffic     MetricKind = "traffic"
	MetricBacklinks   MetricKind = "backlinks"
	MetricSocial      MetricKind = "social"

	// MetricComparison is the kind under which an assembled comparison is
	// written back to the cache. It is never fetched from a provider.
	MetricComparison MetricKind = "comparison"
)

// MetricKinds lists every provider-backed metric dimension.
func MetricKinds() []MetricKind {
	return []MetricKind{
		MetricPerformance, MetricSEO, MetricContent, MetricTechnology,
		MetricSecurity, MetricTraffic, MetricBacklinks, MetricSocial,
	}
}

// MetricPayload is the normalized result of one provider fetch. Providers
// translate their vendor-specific response shapes into named numeric values
// exactly once, so downstream consumers never touch raw vendor JSON.
type MetricPayload struct {
	Values map[string]float64 `json:"values"`
	Labels map[string]string  `json:"labels,omitempty"`
}

// Value returns a named numeric value and whether it is present.
func (p *MetricPayload) Value(name string) (float64, bool) {
	if p == nil || p.Values == nil {
		return 0, false
	}
	v, ok := p.Values[name]
	return v, ok
}

// MetricError describes a failed provider fetch.
type MetricError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// MetricResult is the settled outcome of one provider slot in an analysis:
// exactly one of Payload or Error is set.
type MetricResult struct {
	Provider        string         `json:"provider"`
	Kind            MetricKind     `json:"kind"`
	Payload         *MetricPayload `json:"payload,omitempty"`
	Error           *MetricError   `json:"error,omitempty"`
	FetchedAt       time.Time      `json:"fetched_at"`
	Cached          bool           `json:"cached"`
	CacheAgeMinutes int            `json:"cache_age_minutes,omitempty"`
}

// OK reports whether the fetch succeeded.
func (r MetricResult) OK() bool {
	return r.Error == nil
}

// FailedMetric is one entry in the failure bookkeeping attached to an
// analysis or response.
type FailedMetric struct {
	Side   string `json:"side,omitempty"`
	Metric string `json:"metric"`
	Kind   string `json:"kind"`
	Error  string `json:"error"`
}
