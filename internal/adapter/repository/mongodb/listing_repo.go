package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/Abdurahmanit/GroupProject/media-service/internal/media/domain"
	"github.com/Abdurahmanit/GroupProject/media-service/internal/platform/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const listingCollectionName = "listings"

// ListingRepository reads and writes only the verification slice of the
// listing documents owned by the listing service. A listing with no
// verification_status yet is reported as PENDING.
type ListingRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

func NewListingRepository(db *mongo.Database, log *logger.Logger) *ListingRepository {
	return &ListingRepository{
		collection: db.Collection(listingCollectionName),
		logger:     log.Named("ListingRepository"),
	}
}

type listingVerificationDocument struct {
	Status     string              `bson:"verification_status,omitempty"`
	VerifiedAt *primitive.DateTime `bson:"verified_at,omitempty"`
	VerifiedBy string              `bson:"verified_by,omitempty"`
}

func (r *ListingRepository) GetVerification(ctx context.Context, listingID string) (*domain.ListingVerification, error) {
	objectID, err := primitive.ObjectIDFromHex(listingID)
	if err != nil {
		return nil, domain.ErrNotFound
	}

	var doc listingVerificationDocument
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("Failed to get listing verification from DB", zap.Error(err), zap.String("listing_id", listingID))
		return nil, fmt.Errorf("db findone failed: %w", err)
	}

	v := &domain.ListingVerification{
		ListingID:  listingID,
		Status:     domain.VerificationPending,
		VerifiedBy: doc.VerifiedBy,
	}
	if doc.Status != "" {
		v.Status = domain.VerificationStatus(doc.Status)
	}
	if doc.VerifiedAt != nil {
		t := doc.VerifiedAt.Time()
		v.VerifiedAt = &t
	}
	return v, nil
}

func (r *ListingRepository) UpdateVerification(ctx context.Context, v *domain.ListingVerification) error {
	objectID, err := primitive.ObjectIDFromHex(v.ListingID)
	if err != nil {
		return domain.ErrNotFound
	}

	set := bson.M{"verification_status": string(v.Status)}
	unset := bson.M{}
	if v.VerifiedAt != nil {
		set["verified_at"] = primitive.NewDateTimeFromTime(*v.VerifiedAt)
		set["verified_by"] = v.VerifiedBy
	} else {
		unset["verified_at"] = ""
		unset["verified_by"] = ""
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		r.logger.Error("Failed to update listing verification in DB", zap.Error(err), zap.String("listing_id", v.ListingID))
		return fmt.Errorf("db update failed: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}
