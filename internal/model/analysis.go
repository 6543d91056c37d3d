package model

import "time"

// SubjectType distinguishes the two sides of a comparison for cache keying.
type SubjectType string

const (
	SubjectUser       SubjectType = "user"
	SubjectCompetitor SubjectType = "competitor"
)

// Subject identifies one site to analyze.
type Subject struct {
	Type    SubjectType       `json:"type"`
	OwnerID string            `json:"owner_id"`
	Domain  string            `json:"domain"`
	Handles map[string]string `json:"handles,omitempty"` // platform -> username
}

// SiteAnalysis is the settled result of analyzing one domain. It always
// holds exactly one MetricResult per configured provider.
type SiteAnalysis struct {
	Domain        string                  `json:"domain"`
	Metrics       map[string]MetricResult `json:"metrics"`
	FailedMetrics []FailedMetric          `json:"failed_metrics,omitempty"`
	ElapsedMs     int64                   `json:"elapsed_ms"`
}

// Succeeded returns the number of providers that produced a payload.
func (a *SiteAnalysis) Succeeded() int {
	n := 0
	for _, m := range a.Metrics {
		if m.OK() {
			n++
		}
	}
	return n
}

// ByKind returns the first successful result for a metric kind, or nil.
func (a *SiteAnalysis) ByKind(kind MetricKind) *MetricResult {
	for _, m := range a.Metrics {
		if m.Kind == kind && m.OK() {
			return &m
		}
	}
	return nil
}

// CacheEntry is one row of the metric cache.
type CacheEntry struct {
	ID        string    `json:"id"`
	Key       string    `json:"key"`
	Payload   []byte    `json:"payload"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Source    string    `json:"source"`
}

// Valid reports whether the entry is still fresh at the given instant.
func (e *CacheEntry) Valid(now time.Time) bool {
	return now.Before(e.ExpiresAt)
}

// RunStatus tracks an analysis run through its lifecycle.
type RunStatus string

const (
	RunStatusQueued   RunStatus = "queued"
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run is the persisted bookkeeping record for one orchestrator invocation.
type Run struct {
	ID               string           `json:"id"`
	OwnerID          string           `json:"owner_id"`
	YourDomain       string           `json:"your_domain"`
	CompetitorDomain string           `json:"competitor_domain"`
	Status           RunStatus        `json:"status"`
	Result           *AnalyzeResponse `json:"result,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}
