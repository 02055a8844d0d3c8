package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/media-service/internal/media/domain"
	"github.com/Abdurahmanit/GroupProject/media-service/internal/platform/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const imageAssetCollectionName = "image_assets"

// ImageAssetRepository implements domain.ImageAssetRepository using MongoDB.
type ImageAssetRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

// NewImageAssetRepository creates a new MongoDB image asset repository.
func NewImageAssetRepository(db *mongo.Database, log *logger.Logger) (*ImageAssetRepository, error) {
	collection := db.Collection(imageAssetCollectionName)

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "upload_session_id", Value: 1}}},                                // Session pool queries and quota counts
		{Keys: bson.D{{Key: "listing_id", Value: 1}}},                                       // Listing pool queries and quota counts
		{Keys: bson.D{{Key: "upload_session_id", Value: 1}, {Key: "created_at", Value: 1}}}, // Reaper cutoff scan
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Error("Failed to create indexes for image_assets collection", zap.Error(err))
		// Indexes might already exist or be created manually; don't fail startup.
	} else {
		log.Info("Successfully ensured indexes for image_assets collection")
	}

	return &ImageAssetRepository{
		collection: collection,
		logger:     log.Named("ImageAssetRepository"),
	}, nil
}

func (r *ImageAssetRepository) Create(ctx context.Context, asset *domain.ImageAsset) error {
	doc := toImageAssetDocument(asset)
	doc.ID = primitive.NewObjectID()
	asset.ID = doc.ID.Hex()

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			r.logger.Warn("Duplicate key error on image asset creation", zap.Error(err))
			return domain.ErrConflict
		}
		r.logger.Error("Failed to insert image asset into DB", zap.Error(err))
		return fmt.Errorf("db insert failed: %w", err)
	}
	return nil
}

func (r *ImageAssetRepository) GetByID(ctx context.Context, id string) (*domain.ImageAsset, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrNotFound
	}

	var doc imageAssetDocument
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("Failed to get image asset by ID from DB", zap.Error(err), zap.String("asset_id", id))
		return nil, fmt.Errorf("db findone failed: %w", err)
	}
	return toDomainImageAsset(&doc), nil
}

func (r *ImageAssetRepository) FindBySession(ctx context.Context, sessionID string) ([]*domain.ImageAsset, error) {
	return r.find(ctx, bson.M{"upload_session_id": sessionID})
}

func (r *ImageAssetRepository) FindByListing(ctx context.Context, listingID string) ([]*domain.ImageAsset, error) {
	return r.find(ctx, bson.M{"listing_id": listingID})
}

func (r *ImageAssetRepository) find(ctx context.Context, filter bson.M) ([]*domain.ImageAsset, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to find image assets in DB", zap.Error(err))
		return nil, fmt.Errorf("db find failed: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []*imageAssetDocument
	if err := cursor.All(ctx, &docs); err != nil {
		r.logger.Error("Failed to decode image asset documents", zap.Error(err))
		return nil, fmt.Errorf("db cursor decode failed: %w", err)
	}
	return toDomainImageAssets(docs), nil
}

func (r *ImageAssetRepository) CountBySession(ctx context.Context, sessionID string) (int64, error) {
	return r.count(ctx, bson.M{"upload_session_id": sessionID})
}

func (r *ImageAssetRepository) CountByListing(ctx context.Context, listingID string) (int64, error) {
	return r.count(ctx, bson.M{"listing_id": listingID})
}

func (r *ImageAssetRepository) count(ctx context.Context, filter bson.M) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		r.logger.Error("Failed to count image assets in DB", zap.Error(err))
		return 0, fmt.Errorf("db count failed: %w", err)
	}
	return count, nil
}

func (r *ImageAssetRepository) FindPendingOlderThan(ctx context.Context, cutoff time.Time) ([]*domain.ImageAsset, error) {
	filter := bson.M{
		"upload_session_id": bson.M{"$exists": true, "$ne": ""},
		"created_at":        bson.M{"$lt": cutoff},
	}
	return r.find(ctx, filter)
}

// AttachSession moves every pending asset of the session onto the listing in
// one bulk update: sets listing_id and clears upload_session_id.
func (r *ImageAssetRepository) AttachSession(ctx context.Context, sessionID, listingID string) (int64, error) {
	result, err := r.collection.UpdateMany(ctx,
		bson.M{"upload_session_id": sessionID},
		bson.M{
			"$set":   bson.M{"listing_id": listingID},
			"$unset": bson.M{"upload_session_id": ""},
		},
	)
	if err != nil {
		r.logger.Error("Failed to attach session assets to listing",
			zap.Error(err), zap.String("session_id", sessionID), zap.String("listing_id", listingID))
		return 0, fmt.Errorf("db updatemany failed: %w", err)
	}
	return result.ModifiedCount, nil
}

// Delete removes the asset row. A missing row counts as success: the reaper
// and an interactive delete may race on the same id.
func (r *ImageAssetRepository) Delete(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil
	}
	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID}); err != nil {
		r.logger.Error("Failed to delete image asset from DB", zap.Error(err), zap.String("asset_id", id))
		return fmt.Errorf("db delete failed: %w", err)
	}
	return nil
}
