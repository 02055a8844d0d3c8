package domain

import (
	"context"
	"time"
)

type ImageAssetRepository interface {
	Create(ctx context.Context, asset *ImageAsset) error
	GetByID(ctx context.Context, id string) (*ImageAsset, error)
	FindBySession(ctx context.Context, sessionID string) ([]*ImageAsset, error)
	FindByListing(ctx context.Context, listingID string) ([]*ImageAsset, error)
	CountBySession(ctx context.Context, sessionID string) (int64, error)
	CountByListing(ctx context.Context, listingID string) (int64, error)
	FindPendingOlderThan(ctx context.Context, cutoff time.Time) ([]*ImageAsset, error)
	// AttachSession rewrites every pending asset of the session to the listing
	// scope in a single bulk update and returns the number moved.
	AttachSession(ctx context.Context, sessionID, listingID string) (int64, error)
	// Delete removes the asset row. A row that is already gone is success,
	// the reaper and interactive deletes may race on the same id.
	Delete(ctx context.Context, id string) error
}

type VerificationRepository interface {
	CreateDocument(ctx context.Context, doc *VerificationDocument) error
	GetDocumentByID(ctx context.Context, id string) (*VerificationDocument, error)
	FindDocumentsByListing(ctx context.Context, listingID string) ([]*VerificationDocument, error)
	DeleteDocument(ctx context.Context, id string) error
	AppendHistory(ctx context.Context, entry *VerificationHistoryEntry) error
	FindHistoryByListing(ctx context.Context, listingID string) ([]*VerificationHistoryEntry, error)
}

// ListingRepository exposes the one slice of the listing entity this service
// reads and writes: verification status and approval metadata.
type ListingRepository interface {
	GetVerification(ctx context.Context, listingID string) (*ListingVerification, error)
	UpdateVerification(ctx context.Context, v *ListingVerification) error
}
