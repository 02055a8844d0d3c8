package mongodb

import (
	"time"

	"github.com/Abdurahmanit/GroupProject/media-service/internal/media/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// imageAssetDocument stores an ImageAsset. Exactly one of listing_id /
// upload_session_id is set; the converters below are the only place the
// document shape and the domain Scope meet.
type imageAssetDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	ListingID string             `bson:"listing_id,omitempty"`
	SessionID string             `bson:"upload_session_id,omitempty"`
	RemoteURL string             `bson:"remote_url"`
	CreatedAt time.Time          `bson:"created_at"`
}

type verificationDocumentDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	ListingID    string             `bson:"listing_id"`
	DocumentType string             `bson:"document_type"`
	RemoteURL    string             `bson:"remote_url"`
	FileName     string             `bson:"file_name"`
	UploadedBy   string             `bson:"uploaded_by"`
	CreatedAt    time.Time          `bson:"created_at"`
}

type verificationHistoryDocument struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	ListingID      string             `bson:"listing_id"`
	PreviousStatus string             `bson:"previous_status"`
	NewStatus      string             `bson:"new_status"`
	Notes          string             `bson:"notes,omitempty"`
	ReviewedBy     string             `bson:"reviewed_by,omitempty"`
	CreatedAt      time.Time          `bson:"created_at"`
}

func toImageAssetDocument(a *domain.ImageAsset) *imageAssetDocument {
	doc := &imageAssetDocument{
		RemoteURL: a.RemoteURL,
		CreatedAt: a.CreatedAt,
	}
	if listingID, ok := a.Scope.ListingID(); ok {
		doc.ListingID = listingID
	} else if sessionID, ok := a.Scope.SessionID(); ok {
		doc.SessionID = sessionID
	}
	return doc
}

func toDomainImageAsset(d *imageAssetDocument) *domain.ImageAsset {
	var scope domain.Scope
	if d.ListingID != "" {
		scope = domain.AttachedTo(d.ListingID)
	} else {
		scope = domain.PendingIn(d.SessionID)
	}
	return &domain.ImageAsset{
		ID:        d.ID.Hex(),
		RemoteURL: d.RemoteURL,
		Scope:     scope,
		CreatedAt: d.CreatedAt,
	}
}

func toDomainImageAssets(docs []*imageAssetDocument) []*domain.ImageAsset {
	assets := make([]*domain.ImageAsset, 0, len(docs))
	for _, d := range docs {
		assets = append(assets, toDomainImageAsset(d))
	}
	return assets
}

func toVerificationDocumentDocument(doc *domain.VerificationDocument) *verificationDocumentDocument {
	return &verificationDocumentDocument{
		ListingID:    doc.ListingID,
		DocumentType: string(doc.DocumentType),
		RemoteURL:    doc.RemoteURL,
		FileName:     doc.FileName,
		UploadedBy:   doc.UploadedBy,
		CreatedAt:    doc.CreatedAt,
	}
}

func toDomainVerificationDocument(d *verificationDocumentDocument) *domain.VerificationDocument {
	return &domain.VerificationDocument{
		ID:           d.ID.Hex(),
		ListingID:    d.ListingID,
		DocumentType: domain.DocumentType(d.DocumentType),
		RemoteURL:    d.RemoteURL,
		FileName:     d.FileName,
		UploadedBy:   d.UploadedBy,
		CreatedAt:    d.CreatedAt,
	}
}

func toVerificationHistoryDocument(e *domain.VerificationHistoryEntry) *verificationHistoryDocument {
	return &verificationHistoryDocument{
		ListingID:      e.ListingID,
		PreviousStatus: string(e.PreviousStatus),
		NewStatus:      string(e.NewStatus),
		Notes:          e.Notes,
		ReviewedBy:     e.ReviewedBy,
		CreatedAt:      e.CreatedAt,
	}
}

func toDomainHistoryEntry(d *verificationHistoryDocument) *domain.VerificationHistoryEntry {
	return &domain.VerificationHistoryEntry{
		ID:             d.ID.Hex(),
		ListingID:      d.ListingID,
		PreviousStatus: domain.VerificationStatus(d.PreviousStatus),
		NewStatus:      domain.VerificationStatus(d.NewStatus),
		Notes:          d.Notes,
		ReviewedBy:     d.ReviewedBy,
		CreatedAt:      d.CreatedAt,
	}
}
