package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/Abdurahmanit/GroupProject/media-service/internal/media/domain"
	"github.com/Abdurahmanit/GroupProject/media-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/media-service/internal/platform/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newReaperUsecase(assets *MockImageAssetRepository, storage *MockStorage) *ReaperUsecase {
	return NewReaperUsecase(assets, storage, metrics.NewMetricsManager("test_reaper"), logger.NewLogger())
}

func expiredAsset(id, sessionID, url string) *domain.ImageAsset {
	return &domain.ImageAsset{
		ID:        id,
		Scope:     domain.PendingIn(sessionID),
		RemoteURL: url,
		CreatedAt: time.Now().UTC().Add(-48 * time.Hour),
	}
}

func TestSweep_RemovesExpiredPendingAssets(t *testing.T) {
	assets := new(MockImageAssetRepository)
	storage := new(MockStorage)

	expired := []*domain.ImageAsset{
		expiredAsset("a1", "s1", "http://minio:9000/listing-media/pending/s1/1-a.jpg"),
		expiredAsset("a2", "s2", "http://minio:9000/listing-media/pending/s2/2-b.png"),
	}
	assets.On("FindPendingOlderThan", mock.Anything, mock.Anything).Return(expired, nil)
	storage.On("KeyOf", "http://minio:9000/listing-media/pending/s1/1-a.jpg").Return("pending/s1/1-a.jpg")
	storage.On("KeyOf", "http://minio:9000/listing-media/pending/s2/2-b.png").Return("pending/s2/2-b.png")
	storage.On("Delete", mock.Anything, "pending/s1/1-a.jpg").Return(nil)
	storage.On("Delete", mock.Anything, "pending/s2/2-b.png").Return(nil)
	assets.On("Delete", mock.Anything, "a1").Return(nil)
	assets.On("Delete", mock.Anything, "a2").Return(nil)

	removed, err := newReaperUsecase(assets, storage).Sweep(context.Background(), 24*time.Hour)

	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assets.AssertExpectations(t)
	storage.AssertExpectations(t)
}

func TestSweep_RemoteFailureSkipsAssetAndContinues(t *testing.T) {
	assets := new(MockImageAssetRepository)
	storage := new(MockStorage)

	expired := []*domain.ImageAsset{
		expiredAsset("a1", "s1", "http://minio:9000/listing-media/pending/s1/1-a.jpg"),
		expiredAsset("a2", "s2", "http://minio:9000/listing-media/pending/s2/2-b.png"),
	}
	assets.On("FindPendingOlderThan", mock.Anything, mock.Anything).Return(expired, nil)
	storage.On("KeyOf", mock.Anything).Return("pending/s1/1-a.jpg").Once()
	storage.On("KeyOf", mock.Anything).Return("pending/s2/2-b.png").Once()
	storage.On("Delete", mock.Anything, "pending/s1/1-a.jpg").Return(domain.ErrStorageUnavailable)
	storage.On("Delete", mock.Anything, "pending/s2/2-b.png").Return(nil)
	assets.On("Delete", mock.Anything, "a2").Return(nil)

	removed, err := newReaperUsecase(assets, storage).Sweep(context.Background(), 24*time.Hour)

	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	// The failed asset keeps its metadata row so the next sweep retries it.
	assets.AssertNotCalled(t, "Delete", mock.Anything, "a1")
}

func TestSweep_NothingExpiredIsNoop(t *testing.T) {
	assets := new(MockImageAssetRepository)
	storage := new(MockStorage)

	assets.On("FindPendingOlderThan", mock.Anything, mock.Anything).Return([]*domain.ImageAsset{}, nil)

	removed, err := newReaperUsecase(assets, storage).Sweep(context.Background(), 24*time.Hour)

	require.NoError(t, err)
	assert.Zero(t, removed)
	storage.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestSweep_UsesTTLCutoff(t *testing.T) {
	assets := new(MockImageAssetRepository)
	storage := new(MockStorage)

	var captured time.Time
	assets.On("FindPendingOlderThan", mock.Anything, mock.MatchedBy(func(cutoff time.Time) bool {
		captured = cutoff
		return true
	})).Return([]*domain.ImageAsset{}, nil)

	_, err := newReaperUsecase(assets, storage).Sweep(context.Background(), 6*time.Hour)

	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC().Add(-6*time.Hour), captured, time.Minute)
}
