package store

import (
	"context"
	"testing"
	"time"

	"github.com/ipede/authorization-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSweepReclaimsExpiredArtifacts(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	store := NewMemory(logger)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	now := time.Now()
	require.NoError(t, store.SaveAccessToken(ctx, &domain.AccessToken{
		Token:     "stale",
		ClientID:  "client-1",
		SubjectID: "user-1",
		CreatedAt: now.Add(-2 * time.Hour),
		ExpiresAt: now.Add(-time.Hour),
	}))

	go Sweep(ctx, store, 10*time.Millisecond, logger)

	assert.Eventually(t, func() bool {
		_, err := store.GetAccessToken(context.Background(), "stale", now)
		return err == domain.ErrArtifactNotFound
	}, time.Second, 10*time.Millisecond)
}

func TestSweepStopsOnCancel(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	store := NewMemory(logger)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		Sweep(ctx, store, 10*time.Millisecond, logger)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweep did not stop after cancellation")
	}
}
