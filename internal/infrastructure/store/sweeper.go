package store

import (
	"context"
	"time"

	"github.com/ipede/authorization-service/internal/domain"
	"go.uber.org/zap"
)

// Sweep runs the store's best-effort expiry reclamation on a fixed
// interval until ctx is cancelled. Correctness never depends on it;
// every lookup checks expiry itself.
func Sweep(ctx context.Context, store domain.ArtifactStore, interval time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			removed, err := store.DeleteExpired(ctx, now)
			if err != nil {
				logger.Warn("expiry sweep failed", zap.Error(err))
				continue
			}
			if removed > 0 {
				logger.Debug("expiry sweep reclaimed artifacts", zap.Int("removed", removed))
			}
		}
	}
}
