// Package orchestrator drives a full comparison: it resolves the two
// subjects, runs their site analyses in parallel, assembles the merged
// response, and keeps the run record current.
package orchestrator

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sitepulse/compete-cli/internal/analyzer"
	"github.com/sitepulse/compete-cli/internal/assemble"
	"github.com/sitepulse/compete-cli/internal/cache"
	"github.com/sitepulse/compete-cli/internal/compare"
	"github.com/sitepulse/compete-cli/internal/insight"
	"github.com/sitepulse/compete-cli/internal/model"
	"github.com/sitepulse/compete-cli/internal/social"
	"github.com/sitepulse/compete-cli/internal/store"
)

// Request describes one comparison to run.
type Request struct {
	OwnerID string
	// YourDomain may be empty, in which case the owner's profile domain
	// is used.
	YourDomain       string
	CompetitorDomain string
	// CompetitorHandles are optional caller-supplied social handles for
	// the competitor, which has no profile of its own.
	CompetitorHandles map[string]string
	// ForceRefresh bypasses the metric cache on both sides.
	ForceRefresh bool
	// WithInsight requests an LLM summary when a generator is wired.
	WithInsight bool
}

// Orchestrator runs two-sided comparisons.
type Orchestrator struct {
	analyzer *analyzer.Analyzer
	gateway  *cache.Gateway
	store    store.Store
	resolver *social.Resolver
	insights insight.Generator
	weights  compare.Weights
}

// Option configures the orchestrator.
type Option func(*Orchestrator)

// WithInsightGenerator wires an optional LLM insight generator.
func WithInsightGenerator(g insight.Generator) Option {
	return func(o *Orchestrator) { o.insights = g }
}

// WithWeights overrides the market share weights.
func WithWeights(w Weights) Option {
	return func(o *Orchestrator) { o.weights = compare.Weights(w) }
}

// Weights aliases the scoring weights for callers that configure the
// orchestrator without importing compare.
type Weights compare.Weights

// New creates an orchestrator. The gateway may be nil for cache-less
// operation.
func New(a *analyzer.Analyzer, gw *cache.Gateway, st store.Store, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		analyzer: a,
		gateway:  gw,
		store:    st,
		resolver: social.NewResolver(st),
		weights:  compare.DefaultWeights(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Analyze runs the full comparison and returns the merged response along
// with its run record. Provider failures settle into the response; the
// error return covers invalid input and store failures only.
func (o *Orchestrator) Analyze(ctx context.Context, req Request) (*model.AnalyzeResponse, *model.Run, error) {
	start := time.Now()

	yourDomain, competitorDomain, err := o.resolveDomains(ctx, req)
	if err != nil {
		return nil, nil, err
	}

	run, err := o.store.CreateRun(ctx, req.OwnerID, yourDomain, competitorDomain)
	if err != nil {
		return nil, nil, eris.Wrap(err, "orchestrator: create run")
	}
	if err := o.store.UpdateRunStatus(ctx, run.ID, model.RunStatusRunning); err != nil {
		return nil, nil, eris.Wrap(err, "orchestrator: mark run running")
	}

	handles, err := o.resolver.Resolve(ctx, req.OwnerID)
	if err != nil {
		// Missing handles only cost the social metric; keep going.
		zap.L().Warn("social handle resolution failed",
			zap.String("owner_id", req.OwnerID),
			zap.Error(err))
		handles = nil
	}

	yourSubject := model.Subject{
		Type:    model.SubjectUser,
		OwnerID: req.OwnerID,
		Domain:  yourDomain,
		Handles: handles,
	}
	competitorSubject := model.Subject{
		Type:    model.SubjectCompetitor,
		OwnerID: req.OwnerID,
		Domain:  competitorDomain,
		Handles: req.CompetitorHandles,
	}

	var yours, competitor *model.SiteAnalysis
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var aerr error
		yours, aerr = o.analyzer.Analyze(gctx, yourSubject, req.ForceRefresh)
		return aerr
	})
	g.Go(func() error {
		var aerr error
		competitor, aerr = o.analyzer.Analyze(gctx, competitorSubject, req.ForceRefresh)
		return aerr
	})
	if err := g.Wait(); err != nil {
		o.failRun(ctx, run.ID)
		return nil, run, err
	}

	resp := assemble.Response(yours, competitor, o.weights, time.Since(start).Milliseconds())

	if req.WithInsight {
		insight.Maybe(ctx, o.insights, resp)
	}

	o.cacheComparison(ctx, yourSubject, resp)

	if err := o.store.UpdateRunResult(ctx, run.ID, resp); err != nil {
		return resp, run, eris.Wrap(err, "orchestrator: store run result")
	}
	run, err = o.store.GetRun(ctx, run.ID)
	if err != nil {
		return resp, nil, eris.Wrap(err, "orchestrator: reload run")
	}

	zap.L().Info("comparison complete",
		zap.String("run_id", run.ID),
		zap.String("your_domain", yourDomain),
		zap.String("competitor_domain", competitorDomain),
		zap.Bool("partial_failure", resp.PartialFailure),
		zap.Int("market_share_yours", resp.MarketShare.Yours),
		zap.Int64("elapsed_ms", resp.ElapsedMs),
	)
	return resp, run, nil
}

// resolveDomains validates both sides, falling back to the owner's
// profile domain when the request leaves the user side empty.
func (o *Orchestrator) resolveDomains(ctx context.Context, req Request) (string, string, error) {
	yourDomain := req.YourDomain
	if yourDomain == "" {
		profile, err := o.store.GetProfile(ctx, req.OwnerID)
		if err != nil {
			return "", "", eris.Wrapf(err, "orchestrator: load profile %s", req.OwnerID)
		}
		if profile == nil || profile.Domain == "" {
			return "", "", eris.Errorf("orchestrator: no domain for owner %s", req.OwnerID)
		}
		yourDomain = profile.Domain
	}

	yours, err := analyzer.NormalizeDomain(yourDomain)
	if err != nil {
		return "", "", err
	}
	competitor, err := analyzer.NormalizeDomain(req.CompetitorDomain)
	if err != nil {
		return "", "", err
	}
	return yours, competitor, nil
}

// cacheComparison writes the assembled response back under the user's
// comparison key so repeat dashboard loads skip the full fan-out.
func (o *Orchestrator) cacheComparison(ctx context.Context, subject model.Subject, resp *model.AnalyzeResponse) {
	if o.gateway == nil {
		return
	}
	key := cache.SubjectKey(subject, model.MetricComparison)
	if err := o.gateway.Set(ctx, key, resp, "orchestrator"); err != nil {
		zap.L().Warn("comparison cache write failed",
			zap.String("key", key.String()),
			zap.Error(err))
	}
}

func (o *Orchestrator) failRun(ctx context.Context, runID string) {
	if err := o.store.UpdateRunStatus(ctx, runID, model.RunStatusFailed); err != nil {
		zap.L().Warn("failed to mark run failed",
			zap.String("run_id", runID),
			zap.Error(err))
	}
}
