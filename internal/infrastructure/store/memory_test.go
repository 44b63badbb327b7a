package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ipede/authorization-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestCode(code string, now time.Time) *domain.AuthorizationCode {
	return &domain.AuthorizationCode{
		Code:        code,
		ClientID:    "client-1",
		SubjectID:   "user-1",
		Scopes:      []string{"openid", "profile"},
		RedirectURI: "https://app.example.com/callback",
		CreatedAt:   now,
		ExpiresAt:   now.Add(10 * time.Minute),
	}
}

func TestMemoryAuthorizationCodeLifecycle(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	store := NewMemory(logger)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.SaveAuthorizationCode(ctx, newTestCode("code-1", now)))

	// Read-only lookup leaves the code redeemable.
	record, err := store.GetAuthorizationCode(ctx, "code-1", now)
	require.NoError(t, err)
	assert.Equal(t, "client-1", record.ClientID)
	assert.False(t, record.Used)

	// First consume succeeds and stamps the redemption.
	record, err = store.ConsumeAuthorizationCode(ctx, "code-1", now)
	require.NoError(t, err)
	assert.True(t, record.Used)
	assert.Equal(t, now, record.UsedAt)

	// Replay fails deterministically.
	_, err = store.ConsumeAuthorizationCode(ctx, "code-1", now)
	assert.ErrorIs(t, err, domain.ErrArtifactUsed)

	_, err = store.GetAuthorizationCode(ctx, "code-1", now)
	assert.ErrorIs(t, err, domain.ErrArtifactUsed)
}

func TestMemoryAuthorizationCodeExpiry(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	store := NewMemory(logger)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.SaveAuthorizationCode(ctx, newTestCode("code-1", now)))

	later := now.Add(11 * time.Minute)
	_, err := store.GetAuthorizationCode(ctx, "code-1", later)
	assert.ErrorIs(t, err, domain.ErrArtifactExpired)

	_, err = store.ConsumeAuthorizationCode(ctx, "code-1", later)
	assert.ErrorIs(t, err, domain.ErrArtifactExpired)
}

func TestMemoryAuthorizationCodeUnknown(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	store := NewMemory(logger)

	_, err := store.ConsumeAuthorizationCode(context.Background(), "missing", time.Now())
	assert.ErrorIs(t, err, domain.ErrArtifactNotFound)
}

func TestMemoryAuthorizationCodeDuplicateSave(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	store := NewMemory(logger)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.SaveAuthorizationCode(ctx, newTestCode("code-1", now)))
	err := store.SaveAuthorizationCode(ctx, newTestCode("code-1", now))
	assert.ErrorIs(t, err, domain.ErrArtifactExists)
}

// Exactly one of N concurrent redeemers may win.
func TestMemoryConsumeAuthorizationCodeConcurrent(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	store := NewMemory(logger)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.SaveAuthorizationCode(ctx, newTestCode("code-1", now)))

	const redeemers = 50
	var wg sync.WaitGroup
	var successes int32
	var mu sync.Mutex

	for i := 0; i < redeemers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.ConsumeAuthorizationCode(ctx, "code-1", now); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), successes)
}

func TestMemoryRefreshTokenRotation(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	store := NewMemory(logger)
	ctx := context.Background()
	now := time.Now()

	token := &domain.RefreshToken{
		Token:     "refresh-1",
		ClientID:  "client-1",
		SubjectID: "user-1",
		Scopes:    []string{"openid"},
		CreatedAt: now,
		ExpiresAt: now.Add(30 * 24 * time.Hour),
	}
	require.NoError(t, store.SaveRefreshToken(ctx, token))

	record, err := store.ConsumeRefreshToken(ctx, "refresh-1", now)
	require.NoError(t, err)
	assert.Equal(t, "user-1", record.SubjectID)

	// The consumed token is gone.
	_, err = store.ConsumeRefreshToken(ctx, "refresh-1", now)
	assert.ErrorIs(t, err, domain.ErrArtifactNotFound)

	_, err = store.GetRefreshToken(ctx, "refresh-1", now)
	assert.ErrorIs(t, err, domain.ErrArtifactNotFound)
}

// Exactly one of N concurrent rotations may win.
func TestMemoryConsumeRefreshTokenConcurrent(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	store := NewMemory(logger)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.SaveRefreshToken(ctx, &domain.RefreshToken{
		Token:     "refresh-1",
		ClientID:  "client-1",
		SubjectID: "user-1",
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}))

	const rotators = 50
	var wg sync.WaitGroup
	var successes int32
	var mu sync.Mutex

	for i := 0; i < rotators; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.ConsumeRefreshToken(ctx, "refresh-1", now); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), successes)
}

func TestMemoryAccessTokenExpiry(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	store := NewMemory(logger)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.SaveAccessToken(ctx, &domain.AccessToken{
		Token:     "access-1",
		ClientID:  "client-1",
		SubjectID: "user-1",
		Scopes:    []string{"openid"},
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}))

	record, err := store.GetAccessToken(ctx, "access-1", now)
	require.NoError(t, err)
	assert.Equal(t, "user-1", record.SubjectID)

	_, err = store.GetAccessToken(ctx, "access-1", now.Add(2*time.Hour))
	assert.ErrorIs(t, err, domain.ErrArtifactExpired)
}

func TestMemoryDeleteExpired(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	store := NewMemory(logger)
	ctx := context.Background()
	now := time.Now()

	for i := 0; i < 3; i++ {
		code := newTestCode(fmt.Sprintf("code-%d", i), now)
		require.NoError(t, store.SaveAuthorizationCode(ctx, code))
	}
	require.NoError(t, store.SaveAccessToken(ctx, &domain.AccessToken{
		Token: "access-1", ClientID: "client-1", SubjectID: "user-1",
		CreatedAt: now, ExpiresAt: now.Add(time.Hour),
	}))

	// Consumed codes survive the sweep until their expiry passes, so a
	// replay keeps getting the same answer.
	_, err := store.ConsumeAuthorizationCode(ctx, "code-0", now)
	require.NoError(t, err)

	removed, err := store.DeleteExpired(ctx, now.Add(5*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 0, removed)

	_, err = store.ConsumeAuthorizationCode(ctx, "code-0", now.Add(5*time.Minute))
	assert.ErrorIs(t, err, domain.ErrArtifactUsed)

	// Past expiry everything goes.
	removed, err = store.DeleteExpired(ctx, now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 4, removed)

	_, err = store.GetAuthorizationCode(ctx, "code-1", now)
	assert.ErrorIs(t, err, domain.ErrArtifactNotFound)
}
