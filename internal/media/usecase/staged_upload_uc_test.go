package usecase

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Abdurahmanit/GroupProject/media-service/internal/media/domain"
	"github.com/Abdurahmanit/GroupProject/media-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/media-service/internal/platform/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockImageAssetRepository struct {
	mock.Mock
}

func (m *MockImageAssetRepository) Create(ctx context.Context, asset *domain.ImageAsset) error {
	args := m.Called(ctx, asset)
	return args.Error(0)
}

func (m *MockImageAssetRepository) GetByID(ctx context.Context, id string) (*domain.ImageAsset, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ImageAsset), args.Error(1)
}

func (m *MockImageAssetRepository) FindBySession(ctx context.Context, sessionID string) ([]*domain.ImageAsset, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ImageAsset), args.Error(1)
}

func (m *MockImageAssetRepository) FindByListing(ctx context.Context, listingID string) ([]*domain.ImageAsset, error) {
	args := m.Called(ctx, listingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ImageAsset), args.Error(1)
}

func (m *MockImageAssetRepository) CountBySession(ctx context.Context, sessionID string) (int64, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockImageAssetRepository) CountByListing(ctx context.Context, listingID string) (int64, error) {
	args := m.Called(ctx, listingID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockImageAssetRepository) FindPendingOlderThan(ctx context.Context, cutoff time.Time) ([]*domain.ImageAsset, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ImageAsset), args.Error(1)
}

func (m *MockImageAssetRepository) AttachSession(ctx context.Context, sessionID, listingID string) (int64, error) {
	args := m.Called(ctx, sessionID, listingID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockImageAssetRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	args := m.Called(ctx, key, data, contentType)
	return args.String(0), args.Error(1)
}

func (m *MockStorage) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockStorage) KeyOf(publicURL string) string {
	args := m.Called(publicURL)
	return args.String(0)
}

type MockScopeLocker struct {
	mock.Mock
}

func (m *MockScopeLocker) Lock(ctx context.Context, scope string) (func(), error) {
	args := m.Called(ctx, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(func()), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	args := m.Called(ctx, subject, data)
	return args.Error(0)
}

func jpegUpload(size int) domain.FileUpload {
	return domain.FileUpload{
		Name:        "photo.jpg",
		ContentType: "image/jpeg",
		Data:        bytes.Repeat([]byte{0xAB}, size),
	}
}

func newUploadUsecase(assets *MockImageAssetRepository, storage *MockStorage, locker *MockScopeLocker, pub *MockPublisher) *UploadUsecase {
	return NewUploadUsecase(assets, storage, locker, pub, metrics.NewMetricsManager("test_upload"), logger.NewLogger())
}

func TestUploadToSession_MintsSessionID(t *testing.T) {
	assets := new(MockImageAssetRepository)
	storage := new(MockStorage)
	locker := new(MockScopeLocker)
	pub := new(MockPublisher)

	locker.On("Lock", mock.Anything, mock.Anything).Return(func() {}, nil)
	assets.On("CountBySession", mock.Anything, mock.Anything).Return(int64(0), nil)
	storage.On("Put", mock.Anything, mock.Anything, mock.Anything, "image/jpeg").Return("http://minio:9000/listing-media/pending/x/1-photo.jpg", nil)
	assets.On("Create", mock.Anything, mock.Anything).Return(nil)
	pub.On("Publish", mock.Anything, "media.image.uploaded", mock.Anything).Return(nil)

	uc := newUploadUsecase(assets, storage, locker, pub)
	asset, sessionID, err := uc.UploadToSession(context.Background(), "", jpegUpload(200*1024))

	require.NoError(t, err)
	assert.NotEmpty(t, sessionID)
	gotSession, ok := asset.Scope.SessionID()
	assert.True(t, ok)
	assert.Equal(t, sessionID, gotSession)
	assert.False(t, asset.Scope.IsAttached())
	assets.AssertExpectations(t)
}

func TestUploadToSession_RejectsInvalidMedia(t *testing.T) {
	uc := newUploadUsecase(new(MockImageAssetRepository), new(MockStorage), new(MockScopeLocker), new(MockPublisher))

	_, _, err := uc.UploadToSession(context.Background(), "s1", domain.FileUpload{
		Name:        "notes.txt",
		ContentType: "text/plain",
		Data:        []byte("hello"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidMedia)

	_, _, err = uc.UploadToSession(context.Background(), "s1", jpegUpload(domain.MaxImageSize+1))
	assert.ErrorIs(t, err, domain.ErrInvalidMedia)
}

func TestUploadToSession_QuotaExceededOnEleventh(t *testing.T) {
	assets := new(MockImageAssetRepository)
	storage := new(MockStorage)
	locker := new(MockScopeLocker)
	pub := new(MockPublisher)

	locker.On("Lock", mock.Anything, "session:s1").Return(func() {}, nil)
	assets.On("CountBySession", mock.Anything, "s1").Return(int64(domain.MaxImagesPerSession), nil)

	uc := newUploadUsecase(assets, storage, locker, pub)
	_, _, err := uc.UploadToSession(context.Background(), "s1", jpegUpload(1024))

	assert.ErrorIs(t, err, domain.ErrQuotaExceeded)
	storage.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assets.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUploadToListing_QuotaExceededAtCap(t *testing.T) {
	assets := new(MockImageAssetRepository)
	storage := new(MockStorage)
	locker := new(MockScopeLocker)
	pub := new(MockPublisher)

	locker.On("Lock", mock.Anything, "listing:L1").Return(func() {}, nil)
	assets.On("CountByListing", mock.Anything, "L1").Return(int64(domain.MaxImagesPerListing), nil)

	uc := newUploadUsecase(assets, storage, locker, pub)
	_, err := uc.UploadToListing(context.Background(), "L1", jpegUpload(1024))

	assert.ErrorIs(t, err, domain.ErrQuotaExceeded)
	assets.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUpload_RemovesBlobWhenMetadataInsertFails(t *testing.T) {
	assets := new(MockImageAssetRepository)
	storage := new(MockStorage)
	locker := new(MockScopeLocker)
	pub := new(MockPublisher)

	locker.On("Lock", mock.Anything, mock.Anything).Return(func() {}, nil)
	assets.On("CountByListing", mock.Anything, "L1").Return(int64(0), nil)
	storage.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("http://minio:9000/listing-media/listings/L1/1-photo.jpg", nil)
	assets.On("Create", mock.Anything, mock.Anything).Return(errors.New("db insert failed"))
	storage.On("Delete", mock.Anything, mock.Anything).Return(nil)

	uc := newUploadUsecase(assets, storage, locker, pub)
	_, err := uc.UploadToListing(context.Background(), "L1", jpegUpload(1024))

	assert.Error(t, err)
	storage.AssertCalled(t, "Delete", mock.Anything, mock.Anything)
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestAssociate_EmptySessionIsNoop(t *testing.T) {
	assets := new(MockImageAssetRepository)
	locker := new(MockScopeLocker)

	locker.On("Lock", mock.Anything, mock.Anything).Return(func() {}, nil)
	assets.On("FindBySession", mock.Anything, "s1").Return([]*domain.ImageAsset{}, nil)

	uc := newUploadUsecase(assets, new(MockStorage), locker, new(MockPublisher))
	moved, err := uc.Associate(context.Background(), "s1", "L1")

	require.NoError(t, err)
	assert.Equal(t, int64(0), moved)
	assets.AssertNotCalled(t, "AttachSession", mock.Anything, mock.Anything, mock.Anything)
}

func TestAssociate_AllOrNothing(t *testing.T) {
	assets := new(MockImageAssetRepository)
	locker := new(MockScopeLocker)

	pending := []*domain.ImageAsset{
		{ID: "a1", Scope: domain.PendingIn("s1")},
		{ID: "a2", Scope: domain.PendingIn("s1")},
		{ID: "a3", Scope: domain.PendingIn("s1")},
	}
	locker.On("Lock", mock.Anything, mock.Anything).Return(func() {}, nil)
	assets.On("FindBySession", mock.Anything, "s1").Return(pending, nil)
	// 8 already attached leaves only 2 free slots for 3 pending images.
	assets.On("CountByListing", mock.Anything, "L1").Return(int64(8), nil)

	uc := newUploadUsecase(assets, new(MockStorage), locker, new(MockPublisher))
	moved, err := uc.Associate(context.Background(), "s1", "L1")

	assert.ErrorIs(t, err, domain.ErrQuotaExceeded)
	assert.Equal(t, int64(0), moved)
	assets.AssertNotCalled(t, "AttachSession", mock.Anything, mock.Anything, mock.Anything)
}

func TestAssociate_MovesAllPendingImages(t *testing.T) {
	assets := new(MockImageAssetRepository)
	locker := new(MockScopeLocker)
	pub := new(MockPublisher)

	pending := []*domain.ImageAsset{
		{ID: "a1", Scope: domain.PendingIn("s1")},
		{ID: "a2", Scope: domain.PendingIn("s1")},
		{ID: "a3", Scope: domain.PendingIn("s1")},
	}
	locker.On("Lock", mock.Anything, mock.Anything).Return(func() {}, nil)
	assets.On("FindBySession", mock.Anything, "s1").Return(pending, nil)
	assets.On("CountByListing", mock.Anything, "L1").Return(int64(0), nil)
	assets.On("AttachSession", mock.Anything, "s1", "L1").Return(int64(3), nil)
	pub.On("Publish", mock.Anything, "media.session.associated", mock.Anything).Return(nil)

	uc := newUploadUsecase(assets, new(MockStorage), locker, pub)
	moved, err := uc.Associate(context.Background(), "s1", "L1")

	require.NoError(t, err)
	assert.Equal(t, int64(3), moved)
	assets.AssertExpectations(t)
}

func TestDeleteImage_ScopeMismatchAborts(t *testing.T) {
	assets := new(MockImageAssetRepository)
	storage := new(MockStorage)

	assets.On("GetByID", mock.Anything, "a1").Return(&domain.ImageAsset{
		ID:    "a1",
		Scope: domain.AttachedTo("L1"),
	}, nil)

	uc := newUploadUsecase(assets, storage, new(MockScopeLocker), new(MockPublisher))
	err := uc.DeleteImage(context.Background(), "a1", domain.PendingIn("s1"))

	assert.ErrorIs(t, err, domain.ErrInvalidState)
	storage.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	assets.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestDeleteImage_KeepsRowWhenRemoteDeleteFails(t *testing.T) {
	assets := new(MockImageAssetRepository)
	storage := new(MockStorage)

	assets.On("GetByID", mock.Anything, "a1").Return(&domain.ImageAsset{
		ID:        "a1",
		RemoteURL: "http://minio:9000/listing-media/pending/s1/1-photo.jpg",
		Scope:     domain.PendingIn("s1"),
	}, nil)
	storage.On("KeyOf", mock.Anything).Return("pending/s1/1-photo.jpg")
	storage.On("Delete", mock.Anything, "pending/s1/1-photo.jpg").Return(domain.ErrStorageUnavailable)

	uc := newUploadUsecase(assets, storage, new(MockScopeLocker), new(MockPublisher))
	err := uc.DeleteImage(context.Background(), "a1", domain.PendingIn("s1"))

	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
	assets.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestDeleteImage_RemovesObjectThenRow(t *testing.T) {
	assets := new(MockImageAssetRepository)
	storage := new(MockStorage)

	assets.On("GetByID", mock.Anything, "a1").Return(&domain.ImageAsset{
		ID:        "a1",
		RemoteURL: "http://minio:9000/listing-media/pending/s1/1-photo.jpg",
		Scope:     domain.PendingIn("s1"),
	}, nil)
	storage.On("KeyOf", mock.Anything).Return("pending/s1/1-photo.jpg")
	storage.On("Delete", mock.Anything, "pending/s1/1-photo.jpg").Return(nil)
	assets.On("Delete", mock.Anything, "a1").Return(nil)

	uc := newUploadUsecase(assets, storage, new(MockScopeLocker), new(MockPublisher))
	err := uc.DeleteImage(context.Background(), "a1", domain.PendingIn("s1"))

	require.NoError(t, err)
	assets.AssertExpectations(t)
	storage.AssertExpectations(t)
}
