package orchestrator

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitepulse/compete-cli/internal/analyzer"
	"github.com/sitepulse/compete-cli/internal/cache"
	"github.com/sitepulse/compete-cli/internal/model"
	"github.com/sitepulse/compete-cli/internal/provider"
	"github.com/sitepulse/compete-cli/internal/resilience"
	"github.com/sitepulse/compete-cli/internal/store"
)

type stubProvider struct {
	name  string
	kind  model.MetricKind
	delay time.Duration

	mu       sync.Mutex
	subjects []model.Subject
	fetch    func(subject model.Subject) (*model.MetricPayload, error)
}

func (s *stubProvider) Name() string           { return s.name }
func (s *stubProvider) Kind() model.MetricKind { return s.kind }

func (s *stubProvider) Fetch(ctx context.Context, subject model.Subject) (*model.MetricPayload, error) {
	s.mu.Lock()
	s.subjects = append(s.subjects, subject)
	s.mu.Unlock()
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.fetch != nil {
		return s.fetch(subject)
	}
	return &model.MetricPayload{Values: map[string]float64{"score": 1}}, nil
}

func valueProvider(name string, kind model.MetricKind, valueName string, bySide map[model.SubjectType]float64) *stubProvider {
	return &stubProvider{name: name, kind: kind, fetch: func(subject model.Subject) (*model.MetricPayload, error) {
		return &model.MetricPayload{Values: map[string]float64{valueName: bySide[subject.Type]}}, nil
	}}
}

func newTestOrchestrator(t *testing.T, st *store.MemoryStore, regs ...*stubProvider) (*Orchestrator, *cache.Gateway) {
	t.Helper()
	registry := provider.NewRegistry()
	for _, p := range regs {
		registry.Register(p, provider.Policy{Cacheable: true})
	}
	gw := cache.NewGateway(st, nil)
	a := analyzer.New(registry, gw)
	return New(a, gw, st), gw
}

func TestAnalyzeHappyPath(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	perf := valueProvider("pagespeed", model.MetricPerformance, "performance_score",
		map[model.SubjectType]float64{model.SubjectUser: 80, model.SubjectCompetitor: 60})
	o, gw := newTestOrchestrator(t, st, perf)

	resp, run, err := o.Analyze(ctx, Request{
		OwnerID:          "owner-1",
		YourDomain:       "example.com",
		CompetitorDomain: "rival.com",
	})
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.False(t, resp.PartialFailure)
	assert.Equal(t, "example.com", resp.YourSite.Domain)
	assert.Equal(t, "rival.com", resp.CompetitorSite.Domain)

	perfCmp := resp.Comparison["performance"]
	assert.Equal(t, model.WinnerYours, perfCmp.Winner)
	assert.Equal(t, 20.0, perfCmp.Gap)

	require.NotNil(t, run)
	assert.Equal(t, model.RunStatusComplete, run.Status)
	require.NotNil(t, run.Result)
	assert.Equal(t, resp.MarketShare, run.Result.MarketShare)

	// The assembled comparison is written back under the user key.
	entry := gw.Get(ctx, cache.Key{
		SubjectType: model.SubjectUser,
		OwnerID:     "owner-1",
		Domain:      "example.com",
		Kind:        model.MetricComparison,
	})
	assert.NotNil(t, entry)
}

func TestAnalyzeBothSidesFailingProviderStillSucceeds(t *testing.T) {
	st := store.NewMemory()
	seo := valueProvider("pagespeed-seo", model.MetricSEO, "seo_score",
		map[model.SubjectType]float64{model.SubjectUser: 70, model.SubjectCompetitor: 50})
	traffic := &stubProvider{name: "trafficest", kind: model.MetricTraffic,
		fetch: func(model.Subject) (*model.MetricPayload, error) {
			return nil, resilience.HTTPError("trafficest", http.StatusServiceUnavailable, errors.New("down"))
		}}
	o, _ := newTestOrchestrator(t, st, seo, traffic)

	resp, run, err := o.Analyze(context.Background(), Request{
		OwnerID:          "owner-1",
		YourDomain:       "example.com",
		CompetitorDomain: "rival.com",
	})
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.True(t, resp.PartialFailure)
	assert.Len(t, resp.FailedMetrics, 2)
	assert.Equal(t, model.WinnerUnavailable, resp.Comparison["traffic"].Winner)

	// Score renormalizes over SEO alone: 70/120.
	assert.Equal(t, 58, resp.MarketShare.Yours)
	assert.Equal(t, 42, resp.MarketShare.Competitor)
	assert.Equal(t, model.RunStatusComplete, run.Status)
}

func TestAnalyzeResolvesUserHandles(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	require.NoError(t, st.UpsertProfile(ctx, &model.BusinessProfile{
		OwnerID: "owner-1",
		Domain:  "example.com",
		DeclaredHandles: []model.SocialHandle{
			{Platform: "instagram", Username: "@stale", Source: model.HandleSourceDeclared},
		},
	}))
	require.NoError(t, st.UpsertConnection(ctx, "owner-1", model.SocialHandle{
		Platform: "instagram", Username: "@real", Source: model.HandleSourceOAuth, Connected: true,
	}))

	socialStub := &stubProvider{name: "socialgraph", kind: model.MetricSocial}
	o, _ := newTestOrchestrator(t, st, socialStub)

	_, _, err := o.Analyze(ctx, Request{
		OwnerID:           "owner-1",
		CompetitorDomain:  "rival.com",
		CompetitorHandles: map[string]string{"instagram": "@rivalgram"},
	})
	require.NoError(t, err)

	byType := make(map[model.SubjectType]model.Subject)
	socialStub.mu.Lock()
	for _, s := range socialStub.subjects {
		byType[s.Type] = s
	}
	socialStub.mu.Unlock()

	// OAuth handle supersedes the declared one on the user side.
	assert.Equal(t, "@real", byType[model.SubjectUser].Handles["instagram"])
	assert.Equal(t, "@rivalgram", byType[model.SubjectCompetitor].Handles["instagram"])
	// The user domain fell back to the profile.
	assert.Equal(t, "example.com", byType[model.SubjectUser].Domain)
}

func TestAnalyzeInvalidCompetitorDomain(t *testing.T) {
	st := store.NewMemory()
	o, _ := newTestOrchestrator(t, st, valueProvider("pagespeed", model.MetricPerformance,
		"performance_score", nil))

	_, _, err := o.Analyze(context.Background(), Request{
		OwnerID:          "owner-1",
		YourDomain:       "example.com",
		CompetitorDomain: "not a domain",
	})
	require.Error(t, err)
	assert.Equal(t, resilience.KindInvalidDomain, resilience.KindOf(err))
}

func TestAnalyzeNoDomainAnywhere(t *testing.T) {
	st := store.NewMemory()
	o, _ := newTestOrchestrator(t, st, valueProvider("pagespeed", model.MetricPerformance,
		"performance_score", nil))

	_, _, err := o.Analyze(context.Background(), Request{
		OwnerID:          "owner-1",
		CompetitorDomain: "rival.com",
	})
	require.Error(t, err)
}

func TestAnalyzeSidesRunInParallel(t *testing.T) {
	st := store.NewMemory()
	slow := &stubProvider{name: "pagespeed", kind: model.MetricPerformance, delay: 100 * time.Millisecond}
	o, _ := newTestOrchestrator(t, st, slow)

	start := time.Now()
	_, _, err := o.Analyze(context.Background(), Request{
		OwnerID:          "owner-1",
		YourDomain:       "example.com",
		CompetitorDomain: "rival.com",
	})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 250*time.Millisecond,
		"both sides should analyze concurrently")
}
