package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitepulse/compete-cli/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore_RunLifecycle(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, "owner-1", "mysite.com", "rival.com")
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusQueued, run.Status)
	assert.NotEmpty(t, run.ID)

	require.NoError(t, s.UpdateRunStatus(ctx, run.ID, model.RunStatusRunning))

	result := &model.AnalyzeResponse{
		Success:     true,
		MarketShare: model.MarketShareScore{Yours: 60, Competitor: 40},
	}
	require.NoError(t, s.UpdateRunResult(ctx, run.ID, result))

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, got.Status)
	assert.Equal(t, "mysite.com", got.YourDomain)
	assert.Equal(t, "rival.com", got.CompetitorDomain)
	require.NotNil(t, got.Result)
	assert.Equal(t, 60, got.Result.MarketShare.Yours)
}

func TestSQLiteStore_RunNotFound(t *testing.T) {
	s := newTestSQLite(t)

	err := s.UpdateRunStatus(context.Background(), "missing", model.RunStatusRunning)
	assert.Error(t, err)

	_, err = s.GetRun(context.Background(), "missing")
	assert.Error(t, err)
}

func TestSQLiteStore_MetricCacheRoundTrip(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	entry := &model.CacheEntry{
		ID:        uuid.New().String(),
		Key:       "user:owner-1:mysite.com:seo",
		Payload:   []byte(`{"values":{"seo_score":82}}`),
		Source:    "pagespeed",
		CreatedAt: now,
		ExpiresAt: now.Add(7 * 24 * time.Hour),
	}
	require.NoError(t, s.SetCachedMetric(ctx, entry))

	got, err := s.GetCachedMetric(ctx, entry.Key)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, entry.Key, got.Key)
	assert.JSONEq(t, string(entry.Payload), string(got.Payload))
	assert.Equal(t, "pagespeed", got.Source)
}

func TestSQLiteStore_MetricCacheMiss(t *testing.T) {
	s := newTestSQLite(t)

	got, err := s.GetCachedMetric(context.Background(), "user:none:x.com:traffic")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLiteStore_MetricCacheUpsertLastWriteWins(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)
	key := "user:owner-1:mysite.com:traffic"

	first := &model.CacheEntry{
		ID: uuid.New().String(), Key: key,
		Payload: []byte(`{"values":{"monthly_visits":1000}}`), Source: "trafficest",
		CreatedAt: now, ExpiresAt: now.Add(time.Hour),
	}
	second := &model.CacheEntry{
		ID: uuid.New().String(), Key: key,
		Payload: []byte(`{"values":{"monthly_visits":2000}}`), Source: "trafficest",
		CreatedAt: now.Add(time.Minute), ExpiresAt: now.Add(2 * time.Hour),
	}
	require.NoError(t, s.SetCachedMetric(ctx, first))
	require.NoError(t, s.SetCachedMetric(ctx, second))

	got, err := s.GetCachedMetric(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.JSONEq(t, string(second.Payload), string(got.Payload))
}

func TestSQLiteStore_DeleteExpiredMetrics(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()
	now := time.Now().UTC()

	expired := &model.CacheEntry{
		ID: uuid.New().String(), Key: "user:o:a.com:seo",
		Payload: []byte(`{}`), CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour),
	}
	fresh := &model.CacheEntry{
		ID: uuid.New().String(), Key: "user:o:b.com:seo",
		Payload: []byte(`{}`), CreatedAt: now, ExpiresAt: now.Add(time.Hour),
	}
	require.NoError(t, s.SetCachedMetric(ctx, expired))
	require.NoError(t, s.SetCachedMetric(ctx, fresh))

	n, err := s.DeleteExpiredMetrics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := s.GetCachedMetric(ctx, fresh.Key)
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestSQLiteStore_ProfileAndConnections(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	missing, err := s.GetProfile(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)

	profile := &model.BusinessProfile{
		OwnerID: "owner-1",
		Domain:  "mysite.com",
		DeclaredHandles: []model.SocialHandle{
			{Platform: "instagram", Username: "@stale", Source: model.HandleSourceDeclared},
		},
	}
	require.NoError(t, s.UpsertProfile(ctx, profile))

	got, err := s.GetProfile(ctx, "owner-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "mysite.com", got.Domain)
	require.Len(t, got.DeclaredHandles, 1)
	assert.Equal(t, "@stale", got.DeclaredHandles[0].Username)

	require.NoError(t, s.UpsertConnection(ctx, "owner-1", model.SocialHandle{
		Platform: "instagram", Username: "@real", Connected: true,
	}))

	conns, err := s.ListConnections(ctx, "owner-1")
	require.NoError(t, err)
	require.Len(t, conns, 1)
	assert.Equal(t, "@real", conns[0].Username)
	assert.Equal(t, model.HandleSourceOAuth, conns[0].Source)
	assert.True(t, conns[0].Connected)
}
