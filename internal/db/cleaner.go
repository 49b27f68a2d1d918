package db

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// TrashPurger removes notes that sat in the trash since before cutoff.
type TrashPurger interface {
	PurgeTrash(ctx context.Context, cutoff time.Time) (int64, error)
}

// StartTrashCleaner purges trashed notes older than retention every
// interval until ctx is done.
func StartTrashCleaner(
	ctx context.Context,
	purger TrashPurger,
	interval time.Duration,
	retention time.Duration,
	log *zap.Logger,
) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rows, err := purger.PurgeTrash(ctx, time.Now().Add(-retention))
				if err != nil {
					log.Error("failed to purge trashed notes", zap.Error(err))
					continue
				}
				if rows > 0 {
					log.Info("purged trashed notes", zap.Int64("removed", rows))
				}
			}
		}
	}()
}
