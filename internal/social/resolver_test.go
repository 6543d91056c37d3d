package social

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitepulse/compete-cli/internal/model"
	"github.com/sitepulse/compete-cli/internal/store"
)

func TestResolveOAuthSupersedesDeclared(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()

	require.NoError(t, st.UpsertProfile(ctx, &model.BusinessProfile{
		OwnerID: "owner-1",
		Domain:  "example.com",
		DeclaredHandles: []model.SocialHandle{
			{Platform: "instagram", Username: "@stale", Source: model.HandleSourceDeclared},
			{Platform: "twitter", Username: "@declared_only", Source: model.HandleSourceDeclared},
		},
	}))
	require.NoError(t, st.UpsertConnection(ctx, "owner-1", model.SocialHandle{
		Platform: "instagram", Username: "@real", Source: model.HandleSourceOAuth, Connected: true,
	}))

	handles, err := NewResolver(st).Resolve(ctx, "owner-1")
	require.NoError(t, err)

	assert.Equal(t, "@real", handles["instagram"])
	assert.Equal(t, "@declared_only", handles["twitter"])
}

func TestResolveDisconnectedOAuthIgnored(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()

	require.NoError(t, st.UpsertProfile(ctx, &model.BusinessProfile{
		OwnerID: "owner-1",
		DeclaredHandles: []model.SocialHandle{
			{Platform: "instagram", Username: "@declared", Source: model.HandleSourceDeclared},
		},
	}))
	require.NoError(t, st.UpsertConnection(ctx, "owner-1", model.SocialHandle{
		Platform: "instagram", Username: "@revoked", Source: model.HandleSourceOAuth, Connected: false,
	}))

	handles, err := NewResolver(st).Resolve(ctx, "owner-1")
	require.NoError(t, err)

	assert.Equal(t, "@declared", handles["instagram"])
}

func TestResolveNoProfile(t *testing.T) {
	handles, err := NewResolver(store.NewMemory()).Resolve(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, handles)
}

func TestMergePrecedence(t *testing.T) {
	declared := []model.SocialHandle{
		{Platform: "instagram", Username: "@old"},
		{Platform: "linkedin", Username: "acme"},
	}
	connections := []model.SocialHandle{
		{Platform: "instagram", Username: "@new", Connected: true},
		{Platform: "tiktok", Username: "@acmetok", Connected: true},
		{Platform: "linkedin", Username: "@hacked", Connected: false},
	}

	handles := Merge(declared, connections)
	assert.Equal(t, map[string]string{
		"instagram": "@new",
		"linkedin":  "acme",
		"tiktok":    "@acmetok",
	}, handles)
}
