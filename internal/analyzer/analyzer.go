// Package analyzer runs every registered metric provider against one
// domain concurrently and settles the results into a SiteAnalysis.
package analyzer

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sitepulse/compete-cli/internal/cache"
	"github.com/sitepulse/compete-cli/internal/model"
	"github.com/sitepulse/compete-cli/internal/provider"
	"github.com/sitepulse/compete-cli/internal/resilience"
)

// Analyzer fans out over the provider registry for a single subject.
// Provider failures settle as failure results; the only error Analyze
// itself returns is an invalid domain.
type Analyzer struct {
	registry       *provider.Registry
	gateway        *cache.Gateway
	breakers       map[model.MetricKind]*resilience.Breaker
	defaultTimeout time.Duration
}

// Option configures the analyzer.
type Option func(*Analyzer)

// WithDefaultTimeout sets the per-attempt timeout used when a provider's
// policy leaves it zero.
func WithDefaultTimeout(d time.Duration) Option {
	return func(a *Analyzer) { a.defaultTimeout = d }
}

// WithBreakers sets the circuit breaker parameters shared by every
// provider.
func WithBreakers(failureThreshold int, resetTimeout time.Duration) Option {
	return func(a *Analyzer) {
		for _, reg := range a.registry.All() {
			a.breakers[reg.Provider.Kind()] = resilience.NewBreaker(failureThreshold, resetTimeout)
		}
	}
}

// New creates an analyzer over the registry and cache gateway. The
// gateway may be nil, in which case every fetch is live.
func New(registry *provider.Registry, gateway *cache.Gateway, opts ...Option) *Analyzer {
	a := &Analyzer{
		registry:       registry,
		gateway:        gateway,
		breakers:       make(map[model.MetricKind]*resilience.Breaker),
		defaultTimeout: 15 * time.Second,
	}
	for _, reg := range registry.All() {
		a.breakers[reg.Provider.Kind()] = resilience.NewBreaker(0, 0)
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze fetches every registered metric for the subject. The returned
// analysis holds exactly one MetricResult per registered provider; a
// provider failure never affects its siblings.
func (a *Analyzer) Analyze(ctx context.Context, subject model.Subject, forceRefresh bool) (*model.SiteAnalysis, error) {
	domain, err := NormalizeDomain(subject.Domain)
	if err != nil {
		return nil, err
	}
	subject.Domain = domain

	start := time.Now()
	regs := a.registry.All()
	results := make([]model.MetricResult, len(regs))

	g, gctx := errgroup.WithContext(ctx)
	for i, reg := range regs {
		g.Go(func() error {
			results[i] = a.fetchOne(gctx, reg, subject, forceRefresh)
			// Always nil: a failed fetch settles as a failure result
			// and must not cancel sibling fetches.
			return nil
		})
	}
	_ = g.Wait()

	analysis := &model.SiteAnalysis{
		Domain:    subject.Domain,
		Metrics:   make(map[string]model.MetricResult, len(results)),
		ElapsedMs: time.Since(start).Milliseconds(),
	}
	for _, res := range results {
		analysis.Metrics[string(res.Kind)] = res
		if !res.OK() {
			analysis.FailedMetrics = append(analysis.FailedMetrics, model.FailedMetric{
				Side:   string(subject.Type),
				Metric: res.Provider,
				Kind:   res.Error.Kind,
				Error:  res.Error.Message,
			})
		}
	}
	sort.Slice(analysis.FailedMetrics, func(i, j int) bool {
		return analysis.FailedMetrics[i].Metric < analysis.FailedMetrics[j].Metric
	})

	zap.L().Info("site analysis settled",
		zap.String("domain", subject.Domain),
		zap.String("subject_type", string(subject.Type)),
		zap.Int("succeeded", analysis.Succeeded()),
		zap.Int("failed", len(analysis.FailedMetrics)),
		zap.Int64("elapsed_ms", analysis.ElapsedMs),
	)
	return analysis, nil
}

// fetchOne settles one provider slot: cache read-through, bounded retry
// behind the provider's breaker, then cache write-through on success.
func (a *Analyzer) fetchOne(ctx context.Context, reg provider.Registration, subject model.Subject, forceRefresh bool) model.MetricResult {
	p := reg.Provider
	kind := p.Kind()
	key := cache.SubjectKey(subject, kind)

	readCache := a.gateway != nil && reg.Policy.Cacheable && !forceRefresh &&
		!(reg.Policy.CompetitorLiveOnly && subject.Type == model.SubjectCompetitor)
	if readCache {
		if entry := a.gateway.Get(ctx, key); entry != nil {
			var payload model.MetricPayload
			if err := json.Unmarshal(entry.Payload, &payload); err != nil {
				zap.L().Warn("cache payload corrupt, fetching live",
					zap.String("key", key.String()),
					zap.Error(err))
			} else {
				return model.MetricResult{
					Provider:        p.Name(),
					Kind:            kind,
					Payload:         &payload,
					FetchedAt:       entry.CreatedAt,
					Cached:          true,
					CacheAgeMinutes: a.gateway.AgeMinutes(entry),
				}
			}
		}
	}

	breaker := a.breakers[kind]
	if breaker != nil && !breaker.Allow() {
		return failureResult(p, resilience.ErrCircuitOpen)
	}

	policy := resilience.Policy{
		MaxAttempts: reg.Policy.MaxAttempts,
		Backoff:     reg.Policy.Backoff,
		Timeout:     reg.Policy.Timeout,
		OnRetry:     resilience.RetryLogger(p.Name()),
	}
	if policy.Timeout <= 0 {
		policy.Timeout = a.defaultTimeout
	}

	payload, err := resilience.DoVal(ctx, policy, func(ctx context.Context) (*model.MetricPayload, error) {
		return p.Fetch(ctx, subject)
	})
	if breaker != nil {
		breaker.Record(err)
	}
	if err != nil {
		return failureResult(p, err)
	}

	if a.gateway != nil && reg.Policy.Cacheable {
		// Competitor live-only providers still warm the cache for later
		// user-side reads of the same domain.
		if cerr := a.gateway.Set(ctx, key, payload, p.Name()); cerr != nil {
			zap.L().Warn("cache write failed",
				zap.String("key", key.String()),
				zap.Error(cerr))
		}
	}

	return model.MetricResult{
		Provider:  p.Name(),
		Kind:      kind,
		Payload:   payload,
		FetchedAt: time.Now().UTC(),
	}
}

func failureResult(p provider.Provider, err error) model.MetricResult {
	return model.MetricResult{
		Provider: p.Name(),
		Kind:     p.Kind(),
		Error: &model.MetricError{
			Kind:    string(resilience.KindOf(err)),
			Message: err.Error(),
		},
		FetchedAt: time.Now().UTC(),
	}
}
