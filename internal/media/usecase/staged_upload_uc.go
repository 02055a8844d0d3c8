package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/media-service/internal/media/domain"
	"github.com/Abdurahmanit/GroupProject/media-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/media-service/internal/platform/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UploadUsecase manages the staged image pools: pending images keyed by an
// upload session before a listing exists, and attached images keyed by
// listing id after. Association is the single one-way transition between the
// two pools.
type UploadUsecase struct {
	assets  domain.ImageAssetRepository
	storage Storage
	locker  ScopeLocker
	natsPub Publisher
	metrics *metrics.MetricsManager
	logger  *logger.Logger
}

func NewUploadUsecase(assets domain.ImageAssetRepository, storage Storage, locker ScopeLocker, natsPub Publisher, mm *metrics.MetricsManager, log *logger.Logger) *UploadUsecase {
	return &UploadUsecase{
		assets:  assets,
		storage: storage,
		locker:  locker,
		natsPub: natsPub,
		metrics: mm,
		logger:  log.Named("UploadUsecase"),
	}
}

// UploadToSession stages an image in the pending pool of the session. An
// empty sessionID mints a fresh session. Returns the stored asset and the
// session id it landed in.
func (uc *UploadUsecase) UploadToSession(ctx context.Context, sessionID string, file domain.FileUpload) (*domain.ImageAsset, string, error) {
	if err := domain.ValidateImage(file.ContentType, file.Size()); err != nil {
		return nil, "", err
	}
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	asset, err := uc.uploadLocked(ctx, "session:"+sessionID, domain.PendingIn(sessionID), file,
		func(now time.Time) string { return domain.PendingImageKey(sessionID, file.Name, now) },
		func() (int64, error) { return uc.assets.CountBySession(ctx, sessionID) },
		domain.MaxImagesPerSession,
	)
	if err != nil {
		return nil, "", err
	}
	return asset, sessionID, nil
}

// UploadToListing stores an image directly into the attached pool of an
// existing listing.
func (uc *UploadUsecase) UploadToListing(ctx context.Context, listingID string, file domain.FileUpload) (*domain.ImageAsset, error) {
	if err := domain.ValidateImage(file.ContentType, file.Size()); err != nil {
		return nil, err
	}

	return uc.uploadLocked(ctx, "listing:"+listingID, domain.AttachedTo(listingID), file,
		func(now time.Time) string { return domain.ListingImageKey(listingID, file.Name, now) },
		func() (int64, error) { return uc.assets.CountByListing(ctx, listingID) },
		domain.MaxImagesPerListing,
	)
}

// uploadLocked runs the quota-gated store-then-persist sequence under the
// scope lock so two racing uploads cannot both pass the count check.
func (uc *UploadUsecase) uploadLocked(ctx context.Context, lockScope string, scope domain.Scope, file domain.FileUpload, keyOf func(time.Time) string, count func() (int64, error), limit int64) (*domain.ImageAsset, error) {
	release, err := uc.locker.Lock(ctx, lockScope)
	if err != nil {
		return nil, fmt.Errorf("%w: scope lock: %v", domain.ErrStorageUnavailable, err)
	}
	defer release()

	current, err := count()
	if err != nil {
		return nil, err
	}
	if current >= limit {
		uc.metrics.QuotaRejectionsTotal.Inc()
		return nil, fmt.Errorf("%w: %s holds %d of %d images", domain.ErrQuotaExceeded, lockScope, current, limit)
	}

	now := time.Now().UTC()
	key := keyOf(now)
	url, err := uc.storage.Put(ctx, key, file.Data, file.ContentType)
	if err != nil {
		return nil, err
	}

	asset := &domain.ImageAsset{
		RemoteURL: url,
		Scope:     scope,
		CreatedAt: now,
	}
	if err := uc.assets.Create(ctx, asset); err != nil {
		// Bytes are stored but the row is not: remove the blob so no object
		// is left without metadata pointing at it.
		if delErr := uc.storage.Delete(ctx, key); delErr != nil {
			uc.logger.Error("failed to remove orphaned object after metadata insert failure",
				zap.String("key", key), zap.Error(delErr))
		}
		return nil, err
	}

	uc.metrics.ImagesUploadedTotal.Inc()
	if err := uc.natsPub.Publish(ctx, "media.image.uploaded", map[string]interface{}{
		"asset_id":   asset.ID,
		"remote_url": asset.RemoteURL,
		"created_at": asset.CreatedAt.Format(time.RFC3339Nano),
	}); err != nil {
		uc.logger.Warn("Failed to publish media.image.uploaded event", zap.Error(err), zap.String("asset_id", asset.ID))
	}

	uc.logger.Info("Image uploaded", zap.String("asset_id", asset.ID), zap.String("scope", lockScope))
	return asset, nil
}

// Associate moves all pending images of the session onto the listing.
// All-or-nothing: if the pending batch does not fit into the listing's
// remaining slots, nothing moves. An empty session is a no-op so a duplicate
// retry of the same association is safe.
func (uc *UploadUsecase) Associate(ctx context.Context, sessionID, listingID string) (int64, error) {
	release, err := uc.locker.Lock(ctx, "listing:"+listingID)
	if err != nil {
		return 0, fmt.Errorf("%w: scope lock: %v", domain.ErrStorageUnavailable, err)
	}
	defer release()

	sessionRelease, err := uc.locker.Lock(ctx, "session:"+sessionID)
	if err != nil {
		return 0, fmt.Errorf("%w: scope lock: %v", domain.ErrStorageUnavailable, err)
	}
	defer sessionRelease()

	pending, err := uc.assets.FindBySession(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}

	attached, err := uc.assets.CountByListing(ctx, listingID)
	if err != nil {
		return 0, err
	}
	available := int64(domain.MaxImagesPerListing) - attached
	if int64(len(pending)) > available {
		uc.metrics.QuotaRejectionsTotal.Inc()
		return 0, fmt.Errorf("%w: %d pending images exceed %d available listing slots",
			domain.ErrQuotaExceeded, len(pending), available)
	}

	moved, err := uc.assets.AttachSession(ctx, sessionID, listingID)
	if err != nil {
		return 0, err
	}

	if err := uc.natsPub.Publish(ctx, "media.session.associated", map[string]interface{}{
		"session_id": sessionID,
		"listing_id": listingID,
		"moved":      moved,
	}); err != nil {
		uc.logger.Warn("Failed to publish media.session.associated event", zap.Error(err), zap.String("listing_id", listingID))
	}

	uc.logger.Info("Session associated with listing",
		zap.String("session_id", sessionID), zap.String("listing_id", listingID), zap.Int64("moved", moved))
	return moved, nil
}

// DeleteImage removes the asset's remote object and then its row. The caller
// states which scope it believes the asset is in; a mismatch aborts so a
// pending delete cannot remove an attached image or vice versa. If the remote
// delete fails the row is kept, a row pointing at a deleted blob self-heals
// on retry, the reverse never does.
func (uc *UploadUsecase) DeleteImage(ctx context.Context, assetID string, expectedScope domain.Scope) error {
	asset, err := uc.assets.GetByID(ctx, assetID)
	if err != nil {
		return err
	}
	if !asset.Scope.Equal(expectedScope) {
		return fmt.Errorf("%w: asset %s is not in the expected scope", domain.ErrInvalidState, assetID)
	}

	key := uc.storage.KeyOf(asset.RemoteURL)
	if err := uc.storage.Delete(ctx, key); err != nil {
		return err
	}
	if err := uc.assets.Delete(ctx, assetID); err != nil {
		return err
	}

	uc.logger.Info("Image deleted", zap.String("asset_id", assetID))
	return nil
}

// GetImagesBySession returns the pending pool of a session.
func (uc *UploadUsecase) GetImagesBySession(ctx context.Context, sessionID string) ([]*domain.ImageAsset, error) {
	return uc.assets.FindBySession(ctx, sessionID)
}

// GetImagesByListing returns the attached pool of a listing.
func (uc *UploadUsecase) GetImagesByListing(ctx context.Context, listingID string) ([]*domain.ImageAsset, error) {
	return uc.assets.FindByListing(ctx, listingID)
}
