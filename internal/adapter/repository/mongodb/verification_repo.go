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

const (
	documentCollectionName = "verification_documents"
	historyCollectionName  = "verification_history"
)

// VerificationRepository implements domain.VerificationRepository using
// MongoDB: one collection for documents, one append-only collection for the
// audit history.
type VerificationRepository struct {
	documents *mongo.Collection
	history   *mongo.Collection
	logger    *logger.Logger
}

// NewVerificationRepository creates a new MongoDB verification repository.
func NewVerificationRepository(db *mongo.Database, log *logger.Logger) (*VerificationRepository, error) {
	documents := db.Collection(documentCollectionName)
	history := db.Collection(historyCollectionName)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	docIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "listing_id", Value: 1}}},
	}
	if _, err := documents.Indexes().CreateMany(ctx, docIndexes); err != nil {
		log.Error("Failed to create indexes for verification_documents collection", zap.Error(err))
	}

	historyIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "listing_id", Value: 1}, {Key: "created_at", Value: -1}}},
	}
	if _, err := history.Indexes().CreateMany(ctx, historyIndexes); err != nil {
		log.Error("Failed to create indexes for verification_history collection", zap.Error(err))
	}

	return &VerificationRepository{
		documents: documents,
		history:   history,
		logger:    log.Named("VerificationRepository"),
	}, nil
}

func (r *VerificationRepository) CreateDocument(ctx context.Context, doc *domain.VerificationDocument) error {
	dbDoc := toVerificationDocumentDocument(doc)
	dbDoc.ID = primitive.NewObjectID()
	doc.ID = dbDoc.ID.Hex()

	if _, err := r.documents.InsertOne(ctx, dbDoc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrConflict
		}
		r.logger.Error("Failed to insert verification document into DB", zap.Error(err))
		return fmt.Errorf("db insert failed: %w", err)
	}
	return nil
}

func (r *VerificationRepository) GetDocumentByID(ctx context.Context, id string) (*domain.VerificationDocument, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrNotFound
	}

	var doc verificationDocumentDocument
	err = r.documents.FindOne(ctx, bson.M{"_id": objectID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("Failed to get verification document by ID from DB", zap.Error(err), zap.String("document_id", id))
		return nil, fmt.Errorf("db findone failed: %w", err)
	}
	return toDomainVerificationDocument(&doc), nil
}

func (r *VerificationRepository) FindDocumentsByListing(ctx context.Context, listingID string) ([]*domain.VerificationDocument, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.documents.Find(ctx, bson.M{"listing_id": listingID}, opts)
	if err != nil {
		r.logger.Error("Failed to find verification documents in DB", zap.Error(err), zap.String("listing_id", listingID))
		return nil, fmt.Errorf("db find failed: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []*verificationDocumentDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("db cursor decode failed: %w", err)
	}

	result := make([]*domain.VerificationDocument, 0, len(docs))
	for _, d := range docs {
		result = append(result, toDomainVerificationDocument(d))
	}
	return result, nil
}

func (r *VerificationRepository) DeleteDocument(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil
	}
	if _, err := r.documents.DeleteOne(ctx, bson.M{"_id": objectID}); err != nil {
		r.logger.Error("Failed to delete verification document from DB", zap.Error(err), zap.String("document_id", id))
		return fmt.Errorf("db delete failed: %w", err)
	}
	return nil
}

// AppendHistory inserts an audit entry. History is append-only; there is no
// update or delete path.
func (r *VerificationRepository) AppendHistory(ctx context.Context, entry *domain.VerificationHistoryEntry) error {
	dbDoc := toVerificationHistoryDocument(entry)
	dbDoc.ID = primitive.NewObjectID()
	entry.ID = dbDoc.ID.Hex()

	if _, err := r.history.InsertOne(ctx, dbDoc); err != nil {
		r.logger.Error("Failed to append verification history entry", zap.Error(err), zap.String("listing_id", entry.ListingID))
		return fmt.Errorf("db insert failed: %w", err)
	}
	return nil
}

func (r *VerificationRepository) FindHistoryByListing(ctx context.Context, listingID string) ([]*domain.VerificationHistoryEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.history.Find(ctx, bson.M{"listing_id": listingID}, opts)
	if err != nil {
		r.logger.Error("Failed to find verification history in DB", zap.Error(err), zap.String("listing_id", listingID))
		return nil, fmt.Errorf("db find failed: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []*verificationHistoryDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("db cursor decode failed: %w", err)
	}

	result := make([]*domain.VerificationHistoryEntry, 0, len(docs))
	for _, d := range docs {
		result = append(result, toDomainHistoryEntry(d))
	}
	return result, nil
}
