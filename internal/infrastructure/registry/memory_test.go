package registry

import (
	"context"
	"testing"

	"github.com/ipede/authorization-service/internal/domain"
	"github.com/ipede/authorization-service/internal/infrastructure/secret"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRegistry(t *testing.T) *Memory {
	t.Helper()
	logger, _ := zap.NewDevelopment()

	hash, err := secret.Hash("correct-secret")
	require.NoError(t, err)

	return NewMemory([]domain.Client{
		&domain.ConfidentialClient{
			ClientProfile: domain.ClientProfile{
				ID:           "web-app",
				RedirectURIs: []string{"https://app.example.com/callback"},
				GrantTypes:   []string{domain.GrantAuthorizationCode},
				Scopes:       []string{domain.ScopeOpenID},
			},
			SecretHash: hash,
		},
		&domain.PublicClient{
			ClientProfile: domain.ClientProfile{
				ID:     "spa",
				Scopes: []string{domain.ScopeOpenID},
			},
		},
	}, logger)
}

func TestMemoryLookup(t *testing.T) {
	registry := newTestRegistry(t)
	ctx := context.Background()

	client, err := registry.Lookup(ctx, "web-app")
	require.NoError(t, err)
	assert.Equal(t, "web-app", client.Profile().ID)
	assert.True(t, client.Confidential())

	_, err = registry.Lookup(ctx, "unknown")
	assert.ErrorIs(t, err, domain.ErrInvalidClient)
}

func TestMemoryResolveConfidential(t *testing.T) {
	registry := newTestRegistry(t)
	ctx := context.Background()

	t.Run("correct secret", func(t *testing.T) {
		client, err := registry.Resolve(ctx, "web-app", "correct-secret")
		require.NoError(t, err)
		assert.Equal(t, "web-app", client.Profile().ID)
	})

	t.Run("wrong secret", func(t *testing.T) {
		_, err := registry.Resolve(ctx, "web-app", "wrong-secret")
		assert.ErrorIs(t, err, domain.ErrInvalidClient)
	})

	t.Run("missing secret", func(t *testing.T) {
		_, err := registry.Resolve(ctx, "web-app", "")
		assert.ErrorIs(t, err, domain.ErrInvalidClient)
	})
}

func TestMemoryResolvePublic(t *testing.T) {
	registry := newTestRegistry(t)
	ctx := context.Background()

	t.Run("no secret", func(t *testing.T) {
		client, err := registry.Resolve(ctx, "spa", "")
		require.NoError(t, err)
		assert.False(t, client.Confidential())
	})

	t.Run("unexpected secret rejected", func(t *testing.T) {
		_, err := registry.Resolve(ctx, "spa", "anything")
		assert.ErrorIs(t, err, domain.ErrInvalidClient)
	})
}
