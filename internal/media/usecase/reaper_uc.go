package usecase

import (
	"context"
	"time"

	"github.com/Abdurahmanit/GroupProject/media-service/internal/media/domain"
	"github.com/Abdurahmanit/GroupProject/media-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/media-service/internal/platform/metrics"
	"go.uber.org/zap"
)

// ReaperUsecase garbage-collects pending images whose session was abandoned:
// assets still tagged with an upload session after the TTL are deleted from
// the object store and the metadata store. Attached assets are never touched.
type ReaperUsecase struct {
	assets  domain.ImageAssetRepository
	storage Storage
	metrics *metrics.MetricsManager
	logger  *logger.Logger
}

func NewReaperUsecase(assets domain.ImageAssetRepository, storage Storage, mm *metrics.MetricsManager, log *logger.Logger) *ReaperUsecase {
	return &ReaperUsecase{
		assets:  assets,
		storage: storage,
		metrics: mm,
		logger:  log.Named("ReaperUsecase"),
	}
}

// Sweep removes every pending asset older than ttl and returns the count
// removed. Per-asset failures are logged and skipped so one bad asset cannot
// stall the rest; the next sweep retries it. Idempotent: an immediate rerun
// removes zero.
func (uc *ReaperUsecase) Sweep(ctx context.Context, ttl time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-ttl)
	expired, err := uc.assets.FindPendingOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if len(expired) == 0 {
		return 0, nil
	}

	removed := 0
	for _, asset := range expired {
		key := uc.storage.KeyOf(asset.RemoteURL)
		if err := uc.storage.Delete(ctx, key); err != nil {
			uc.logger.Warn("Reaper failed to delete remote object, keeping metadata row for retry",
				zap.String("asset_id", asset.ID), zap.String("key", key), zap.Error(err))
			continue
		}
		if err := uc.assets.Delete(ctx, asset.ID); err != nil {
			uc.logger.Warn("Reaper failed to delete metadata row",
				zap.String("asset_id", asset.ID), zap.Error(err))
			continue
		}
		removed++
	}

	uc.metrics.AssetsReapedTotal.Add(float64(removed))
	uc.logger.Info("Expired pending assets swept",
		zap.Int("expired", len(expired)), zap.Int("removed", removed), zap.Time("cutoff", cutoff))
	return removed, nil
}
