package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitepulse/compete-cli/internal/model"
)

// fakeStore implements the store surface the gateway touches.
type fakeStore struct {
	entries map[string]*model.CacheEntry
	getErr  error
	setErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{entries: make(map[string]*model.CacheEntry)}
}

func (f *fakeStore) GetCachedMetric(_ context.Context, key string) (*model.CacheEntry, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.entries[key], nil
}

func (f *fakeStore) SetCachedMetric(_ context.Context, entry *model.CacheEntry) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.entries[entry.Key] = entry
	return nil
}

func (f *fakeStore) DeleteCachedMetric(_ context.Context, key string) error {
	delete(f.entries, key)
	return nil
}

func (f *fakeStore) DeleteExpiredMetrics(context.Context) (int, error) { return 0, nil }

func (f *fakeStore) CreateRun(context.Context, string, string, string) (*model.Run, error) {
	return nil, nil
}
func (f *fakeStore) UpdateRunStatus(context.Context, string, model.RunStatus) error { return nil }
func (f *fakeStore) UpdateRunResult(context.Context, string, *model.AnalyzeResponse) error {
	return nil
}
func (f *fakeStore) GetRun(context.Context, string) (*model.Run, error) { return nil, nil }
func (f *fakeStore) GetProfile(context.Context, string) (*model.BusinessProfile, error) {
	return nil, nil
}
func (f *fakeStore) UpsertProfile(context.Context, *model.BusinessProfile) error { return nil }
func (f *fakeStore) ListConnections(context.Context, string) ([]model.SocialHandle, error) {
	return nil, nil
}
func (f *fakeStore) UpsertConnection(context.Context, string, model.SocialHandle) error {
	return nil
}
func (f *fakeStore) Migrate(context.Context) error { return nil }
func (f *fakeStore) Close() error                  { return nil }

func testKey() Key {
	return Key{
		SubjectType: model.SubjectUser,
		OwnerID:     "owner-1",
		Domain:      "mysite.com",
		Kind:        model.MetricSEO,
	}
}

func TestKey_String(t *testing.T) {
	assert.Equal(t, "user:owner-1:mysite.com:seo", testKey().String())
}

func TestGateway_SetGetRoundTrip(t *testing.T) {
	g := NewGateway(newFakeStore(), nil)
	ctx := context.Background()

	payload := &model.MetricPayload{Values: map[string]float64{"seo_score": 82}}
	require.NoError(t, g.Set(ctx, testKey(), payload, "pagespeed"))

	entry := g.Get(ctx, testKey())
	require.NotNil(t, entry)

	var got model.MetricPayload
	require.NoError(t, json.Unmarshal(entry.Payload, &got))
	assert.Equal(t, 82.0, got.Values["seo_score"])
}

func TestGateway_TTLBoundary(t *testing.T) {
	fs := newFakeStore()
	t0 := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	clock := t0
	g := NewGateway(fs, nil).WithNow(func() time.Time { return clock })

	key := Key{SubjectType: model.SubjectUser, OwnerID: "o", Domain: "a.com", Kind: model.MetricBacklinks}
	require.NoError(t, g.Set(context.Background(), key, map[string]int{"total": 9}, "linkgraph"))

	// backlinks TTL is 7 days
	clock = t0.Add(7*24*time.Hour - time.Second)
	assert.NotNil(t, g.Get(context.Background(), key), "entry should be valid just inside the TTL")

	clock = t0.Add(7*24*time.Hour + time.Second)
	assert.Nil(t, g.Get(context.Background(), key), "entry should be invalid just past the TTL")
}

func TestGateway_StoreErrorDegradesToMiss(t *testing.T) {
	fs := newFakeStore()
	fs.getErr = errors.New("connection refused")
	g := NewGateway(fs, nil)

	assert.Nil(t, g.Get(context.Background(), testKey()))
}

func TestGateway_Invalidate(t *testing.T) {
	g := NewGateway(newFakeStore(), nil)
	ctx := context.Background()

	require.NoError(t, g.Set(ctx, testKey(), map[string]int{"x": 1}, "test"))
	require.NotNil(t, g.Get(ctx, testKey()))

	require.NoError(t, g.Invalidate(ctx, testKey()))
	assert.Nil(t, g.Get(ctx, testKey()))
}

func TestGateway_LastWriteWins(t *testing.T) {
	g := NewGateway(newFakeStore(), nil)
	ctx := context.Background()

	require.NoError(t, g.Set(ctx, testKey(), map[string]int{"v": 1}, "a"))
	require.NoError(t, g.Set(ctx, testKey(), map[string]int{"v": 2}, "b"))

	entry := g.Get(ctx, testKey())
	require.NotNil(t, entry)
	assert.Equal(t, "b", entry.Source)
	assert.JSONEq(t, `{"v":2}`, string(entry.Payload))
}

func TestDefaultTTLPolicy(t *testing.T) {
	p := DefaultTTLPolicy()
	assert.Equal(t, 7*24*time.Hour, p.TTL(model.MetricPerformance))
	assert.Equal(t, 6*time.Hour, p.TTL(model.MetricSocial))
	assert.Equal(t, 24*time.Hour, p.TTL(model.MetricKind("unknown")))
}

func TestTTLPolicy_WithOverrides(t *testing.T) {
	p := DefaultTTLPolicy().WithOverrides(map[string]int{"social": 1, "traffic": 0})
	assert.Equal(t, time.Hour, p.TTL(model.MetricSocial))
	assert.Equal(t, 24*time.Hour, p.TTL(model.MetricTraffic), "zero override is ignored")
}
