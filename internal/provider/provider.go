// Package provider defines the metric provider contract and the registry
// the analyzer fans out over. Each provider wraps one external source and
// maps its response into a MetricPayload; providers classify errors but
// never retry, that is the analyzer's job.
package provider

import (
	"context"
	"sort"
	"time"

	"github.com/sitepulse/compete-cli/internal/model"
)

// Provider fetches one metric kind for a subject.
type Provider interface {
	// Name identifies the provider in results and logs.
	Name() string
	// Kind is the metric kind this provider produces.
	Kind() model.MetricKind
	// Fetch retrieves the metric. Implementations return a classified
	// *resilience.ProviderError on failure and respect ctx cancellation.
	Fetch(ctx context.Context, subject model.Subject) (*model.MetricPayload, error)
}

// Policy controls how the analyzer treats one provider: caching,
// retry bounds, and the per-attempt timeout.
type Policy struct {
	// Cacheable providers go through the cache gateway read-through.
	Cacheable bool
	// CompetitorLiveOnly skips the cache read for competitor subjects
	// so their data is always fresh (writes still happen).
	CompetitorLiveOnly bool
	// MaxAttempts bounds retries for transient failures. Zero means one
	// attempt.
	MaxAttempts int
	// Backoff is the base delay between attempts.
	Backoff time.Duration
	// Timeout bounds each attempt. Zero falls back to the analyzer's
	// default provider timeout.
	Timeout time.Duration
}

// Registration pairs a provider with its policy.
type Registration struct {
	Provider Provider
	Policy   Policy
}

// Registry holds the providers the analyzer runs. It is populated at
// startup and read-only afterwards.
type Registry struct {
	entries map[model.MetricKind]Registration
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[model.MetricKind]Registration)}
}

// Register adds a provider. Registering a second provider for the same
// kind replaces the first.
func (r *Registry) Register(p Provider, policy Policy) {
	r.entries[p.Kind()] = Registration{Provider: p, Policy: policy}
}

// Get returns the registration for a kind.
func (r *Registry) Get(kind model.MetricKind) (Registration, bool) {
	reg, ok := r.entries[kind]
	return reg, ok
}

// All returns every registration ordered by metric kind, so fan-out and
// listings are deterministic.
func (r *Registry) All() []Registration {
	out := make([]Registration, 0, len(r.entries))
	for _, reg := range r.entries {
		out = append(out, reg)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Provider.Kind() < out[j].Provider.Kind()
	})
	return out
}

// Len returns the number of registered providers.
func (r *Registry) Len() int {
	return len(r.entries)
}
