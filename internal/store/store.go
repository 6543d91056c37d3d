// Package store provides persistence for the metric cache, analysis runs,
// and business profiles, with SQLite and Postgres backends.
package store

import (
	"context"

	"github.com/sitepulse/compete-cli/internal/model"
)

// Store defines the persistence interface backing the cache gateway and
// the orchestrator's run bookkeeping.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, ownerID, yourDomain, competitorDomain string) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	UpdateRunResult(ctx context.Context, runID string, result *model.AnalyzeResponse) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)

	// Metric cache. GetCachedMetric returns the stored entry even when it
	// has expired; freshness is the cache gateway's concern so that expiry
	// can be evaluated against an injectable clock.
	GetCachedMetric(ctx context.Context, key string) (*model.CacheEntry, error)
	SetCachedMetric(ctx context.Context, entry *model.CacheEntry) error
	DeleteCachedMetric(ctx context.Context, key string) error
	DeleteExpiredMetrics(ctx context.Context) (int, error)

	// Business profiles and OAuth connections
	GetProfile(ctx context.Context, ownerID string) (*model.BusinessProfile, error)
	UpsertProfile(ctx context.Context, profile *model.BusinessProfile) error
	ListConnections(ctx context.Context, ownerID string) ([]model.SocialHandle, error)
	UpsertConnection(ctx context.Context, ownerID string, handle model.SocialHandle) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
