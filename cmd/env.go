package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sitepulse/compete-cli/internal/analyzer"
	"github.com/sitepulse/compete-cli/internal/cache"
	"github.com/sitepulse/compete-cli/internal/contentaudit"
	"github.com/sitepulse/compete-cli/internal/insight"
	"github.com/sitepulse/compete-cli/internal/orchestrator"
	"github.com/sitepulse/compete-cli/internal/provider"
	"github.com/sitepulse/compete-cli/internal/store"
	"github.com/sitepulse/compete-cli/pkg/anthropic"
	"github.com/sitepulse/compete-cli/pkg/linkgraph"
	"github.com/sitepulse/compete-cli/pkg/pagespeed"
	"github.com/sitepulse/compete-cli/pkg/secprobe"
	"github.com/sitepulse/compete-cli/pkg/socialgraph"
	"github.com/sitepulse/compete-cli/pkg/techdetect"
	"github.com/sitepulse/compete-cli/pkg/trafficest"
)

// appEnv bundles the wired components a command needs.
type appEnv struct {
	Store        store.Store
	Gateway      *cache.Gateway
	Registry     *provider.Registry
	Orchestrator *orchestrator.Orchestrator
}

func (e *appEnv) Close() {
	_ = e.Store.Close()
}

func initEnv(ctx context.Context) (*appEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	policy, err := initTTLPolicy()
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	gateway := cache.NewGateway(st, policy)

	registry := initRegistry()
	a := analyzer.New(registry, gateway,
		analyzer.WithDefaultTimeout(cfg.Analyzer.ProviderTimeout()),
		analyzer.WithBreakers(cfg.Analyzer.BreakerFailures,
			time.Duration(cfg.Analyzer.BreakerResetSecs)*time.Second),
	)

	opts := []orchestrator.Option{
		orchestrator.WithWeights(orchestrator.Weights{
			SEO:       cfg.Scoring.SEOWeight,
			Traffic:   cfg.Scoring.TrafficWeight,
			Backlinks: cfg.Scoring.BacklinksWeight,
		}),
	}
	if cfg.Anthropic.Key != "" {
		opts = append(opts, orchestrator.WithInsightGenerator(insight.NewGenerator(
			anthropic.NewClient(cfg.Anthropic.Key),
			insight.WithModel(cfg.Anthropic.Model),
			insight.WithMaxTokens(int64(cfg.Anthropic.MaxTokens)),
		)))
		zap.L().Info("insight generation enabled", zap.String("model", cfg.Anthropic.Model))
	} else {
		zap.L().Debug("COMPETE_ANTHROPIC_KEY not set, insight generation disabled")
	}

	return &appEnv{
		Store:        st,
		Gateway:      gateway,
		Registry:     registry,
		Orchestrator: orchestrator.New(a, gateway, st, opts...),
	}, nil
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "compete.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	case "memory":
		return store.NewMemory(), nil
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func initTTLPolicy() (cache.TTLPolicy, error) {
	if cfg.Cache.PolicyFile != "" {
		policy, err := cache.LoadTTLPolicy(cfg.Cache.PolicyFile)
		if err != nil {
			return nil, err
		}
		return policy, nil
	}
	return cache.DefaultTTLPolicy().WithOverrides(cfg.Cache.TTLHours), nil
}

func initRegistry() *provider.Registry {
	registry := provider.NewRegistry()

	pagespeedClient := pagespeed.NewClient(cfg.PageSpeed.Key,
		pagespeed.WithBaseURL(cfg.PageSpeed.BaseURL),
		pagespeed.WithRateLimit(cfg.PageSpeed.RPS))

	// The page speed audit is slow and flaky enough to deserve retries
	// and a longer per-attempt budget.
	auditPolicy := provider.Policy{
		Cacheable:   true,
		MaxAttempts: cfg.Analyzer.AuditMaxAttempts,
		Backoff:     cfg.Analyzer.AuditBackoff(),
		Timeout:     cfg.Analyzer.AuditTimeout(),
	}
	registry.Register(provider.NewPerformanceProvider(pagespeedClient), auditPolicy)
	registry.Register(provider.NewSEOProvider(pagespeedClient), auditPolicy)

	registry.Register(provider.NewContentProvider(contentaudit.New(
		contentaudit.WithHTTPClient(&http.Client{
			Timeout: time.Duration(cfg.ContentAudit.TimeoutSecs) * time.Second,
		}),
		contentaudit.WithUserAgent(cfg.ContentAudit.UserAgent),
	)), provider.Policy{Cacheable: true})

	registry.Register(provider.NewTechnologyProvider(techdetect.NewClient(cfg.TechDetect.Key,
		techdetect.WithBaseURL(cfg.TechDetect.BaseURL),
		techdetect.WithRateLimit(cfg.TechDetect.RPS))), provider.Policy{Cacheable: true})

	registry.Register(provider.NewSecurityProvider(secprobe.NewClient()),
		provider.Policy{Cacheable: true})

	registry.Register(provider.NewTrafficProvider(trafficest.NewClient(cfg.Traffic.Key,
		trafficest.WithBaseURL(cfg.Traffic.BaseURL),
		trafficest.WithRateLimit(cfg.Traffic.RPS))), provider.Policy{Cacheable: true})

	registry.Register(provider.NewBacklinksProvider(linkgraph.NewClient(cfg.Backlinks.Key,
		linkgraph.WithBaseURL(cfg.Backlinks.BaseURL),
		linkgraph.WithRateLimit(cfg.Backlinks.RPS))), provider.Policy{Cacheable: true})

	// Social handles churn; competitor profiles are always fetched live.
	registry.Register(provider.NewSocialProvider(socialgraph.NewClient(cfg.SocialGraph.Key,
		socialgraph.WithBaseURL(cfg.SocialGraph.BaseURL),
		socialgraph.WithRateLimit(cfg.SocialGraph.RPS))),
		provider.Policy{Cacheable: true, CompetitorLiveOnly: true})

	return registry
}
