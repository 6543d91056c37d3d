// Package social resolves which handle to use per platform when an owner
// has both declared handles and live OAuth connections.
package social

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sitepulse/compete-cli/internal/model"
	"github.com/sitepulse/compete-cli/internal/store"
)

// Resolver merges declared profile handles with OAuth connections.
type Resolver struct {
	store store.Store
}

// NewResolver creates a resolver over the store.
func NewResolver(st store.Store) *Resolver {
	return &Resolver{store: st}
}

// Resolve returns the effective platform-to-username map for an owner.
// A connected OAuth handle supersedes a declared handle for the same
// platform; declared handles fill the platforms with no connection. A
// disconnected OAuth record is ignored entirely.
func (r *Resolver) Resolve(ctx context.Context, ownerID string) (map[string]string, error) {
	handles := make(map[string]string)

	profile, err := r.store.GetProfile(ctx, ownerID)
	if err != nil {
		return nil, eris.Wrapf(err, "social: load profile %s", ownerID)
	}
	if profile != nil {
		for _, h := range profile.DeclaredHandles {
			if h.Username != "" {
				handles[h.Platform] = h.Username
			}
		}
	}

	connections, err := r.store.ListConnections(ctx, ownerID)
	if err != nil {
		return nil, eris.Wrapf(err, "social: list connections %s", ownerID)
	}
	for _, c := range connections {
		if c.Connected && c.Username != "" {
			handles[c.Platform] = c.Username
		}
	}

	return handles, nil
}

// Merge applies the same precedence to in-memory records, for callers
// that already hold the profile and connections.
func Merge(declared []model.SocialHandle, connections []model.SocialHandle) map[string]string {
	handles := make(map[string]string)
	for _, h := range declared {
		if h.Username != "" {
			handles[h.Platform] = h.Username
		}
	}
	for _, c := range connections {
		if c.Connected && c.Username != "" {
			handles[c.Platform] = c.Username
		}
	}
	return handles
}
