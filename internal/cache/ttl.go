package cache

import (
	"os"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sitepulse/compete-cli/internal/model"
)

// TTLPolicy maps each metric kind to how long its cached payload stays
// fresh. TTLs are deliberately uneven: audit-style providers are expensive
// to re-run, social counts go stale within hours.
type TTLPolicy map[model.MetricKind]time.Duration

// DefaultTTLPolicy returns the built-in per-metric TTLs.
func DefaultTTLPolicy() TTLPolicy {
	return TTLPolicy{
		model.MetricPerformance: 7 * 24 * time.Hour,
		model.MetricSEO:         7 * 24 * time.Hour,
		model.MetricBacklinks:   7 * 24 * time.Hour,
		model.MetricTechnology:  7 * 24 * time.Hour,
		model.MetricTraffic:     24 * time.Hour,
		model.MetricSecurity:    24 * time.Hour,
		model.MetricContent:     12 * time.Hour,
		model.MetricSocial:      6 * time.Hour,
		model.MetricComparison:  time.Hour,
	}
}

// TTL returns the policy's TTL for a kind, falling back to 24h for kinds
// the policy does not name.
func (p TTLPolicy) TTL(kind model.MetricKind) time.Duration {
	if d, ok := p[kind]; ok {
		return d
	}
	return 24 * time.Hour
}

// WithOverrides returns a copy of the policy with per-kind hour overrides
// applied (zero and negative values are ignored).
func (p TTLPolicy) WithOverrides(ttlHours map[string]int) TTLPolicy {
	out := make(TTLPolicy, len(p))
	for k, v := range p {
		out[k] = v
	}
	for kind, hours := range ttlHours {
		if hours > 0 {
			out[model.MetricKind(kind)] = time.Duration(hours) * time.Hour
		}
	}
	return out
}

// LoadTTLPolicy reads a yaml file mapping metric kind to TTL hours and
// overlays it on the defaults.
func LoadTTLPolicy(path string) (TTLPolicy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "cache: read ttl policy %s", path)
	}

	var hours map[string]int
	if err := yaml.Unmarshal(data, &hours); err != nil {
		return nil, eris.Wrapf(err, "cache: parse ttl policy %s", path)
	}
	return DefaultTTLPolicy().WithOverrides(hours), nil
}
