package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/media-service/internal/media/domain"
	"github.com/Abdurahmanit/GroupProject/media-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/media-service/internal/platform/metrics"
	"go.uber.org/zap"
)

// VerificationUsecase drives the ownership-verification state machine:
// PENDING -> APPROVED | REJECTED via admin review, REJECTED -> PENDING
// automatically when new documents arrive (resubmission). APPROVED is a sink:
// no transition out, no document mutation in or out.
type VerificationUsecase struct {
	verifications domain.VerificationRepository
	listings      domain.ListingRepository
	storage       Storage
	natsPub       Publisher
	notifier      Notifier
	metrics       *metrics.MetricsManager
	logger        *logger.Logger
}

func NewVerificationUsecase(verifications domain.VerificationRepository, listings domain.ListingRepository, storage Storage, natsPub Publisher, notifier Notifier, mm *metrics.MetricsManager, log *logger.Logger) *VerificationUsecase {
	return &VerificationUsecase{
		verifications: verifications,
		listings:      listings,
		storage:       storage,
		natsPub:       natsPub,
		notifier:      notifier,
		metrics:       mm,
		logger:        log.Named("VerificationUsecase"),
	}
}

// VerificationState is the full verification view of a listing. CanResubmit
// is derived, not stored.
type VerificationState struct {
	Listing     *domain.ListingVerification
	Documents   []*domain.VerificationDocument
	History     []*domain.VerificationHistoryEntry
	CanResubmit bool
}

// UploadDocument stores an ownership document for the listing. Uploading
// while the listing is REJECTED is a resubmission and flips the status back
// to PENDING with its own audit entry.
func (uc *VerificationUsecase) UploadDocument(ctx context.Context, listingID string, principal domain.Principal, docType domain.DocumentType, file domain.FileUpload) (*domain.VerificationDocument, error) {
	if err := domain.ValidateDocumentType(docType); err != nil {
		return nil, err
	}
	if err := domain.ValidateDocument(file.ContentType, file.Size()); err != nil {
		return nil, err
	}

	verification, err := uc.listings.GetVerification(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if verification.Status == domain.VerificationApproved {
		return nil, fmt.Errorf("%w: listing %s is already approved", domain.ErrInvalidState, listingID)
	}

	now := time.Now().UTC()
	key := domain.DocumentKey(listingID, file.Name, now)
	url, err := uc.storage.Put(ctx, key, file.Data, file.ContentType)
	if err != nil {
		return nil, err
	}

	doc := &domain.VerificationDocument{
		ListingID:    listingID,
		DocumentType: docType,
		RemoteURL:    url,
		FileName:     file.Name,
		UploadedBy:   principal.ID,
		CreatedAt:    now,
	}
	if err := uc.verifications.CreateDocument(ctx, doc); err != nil {
		if delErr := uc.storage.Delete(ctx, key); delErr != nil {
			uc.logger.Error("failed to remove orphaned document after metadata insert failure",
				zap.String("key", key), zap.Error(delErr))
		}
		return nil, err
	}

	if verification.Status == domain.VerificationRejected {
		if err := uc.resubmit(ctx, verification); err != nil {
			return nil, err
		}
	}

	uc.metrics.DocumentsUploadedTotal.Inc()
	if err := uc.natsPub.Publish(ctx, "media.verification.submitted", map[string]interface{}{
		"document_id":   doc.ID,
		"listing_id":    listingID,
		"document_type": string(docType),
		"uploaded_by":   principal.ID,
	}); err != nil {
		uc.logger.Warn("Failed to publish media.verification.submitted event", zap.Error(err), zap.String("listing_id", listingID))
	}

	uc.logger.Info("Verification document uploaded",
		zap.String("document_id", doc.ID), zap.String("listing_id", listingID), zap.String("document_type", string(docType)))
	return doc, nil
}

// resubmit performs the system-initiated REJECTED -> PENDING transition.
func (uc *VerificationUsecase) resubmit(ctx context.Context, verification *domain.ListingVerification) error {
	previous := *verification
	verification.Status = domain.VerificationPending
	verification.VerifiedAt = nil
	verification.VerifiedBy = ""

	if err := uc.listings.UpdateVerification(ctx, verification); err != nil {
		return err
	}
	entry := &domain.VerificationHistoryEntry{
		ListingID:      verification.ListingID,
		PreviousStatus: previous.Status,
		NewStatus:      domain.VerificationPending,
		Notes:          domain.ResubmissionNotes,
		CreatedAt:      time.Now().UTC(),
	}
	if err := uc.verifications.AppendHistory(ctx, entry); err != nil {
		uc.rollbackStatus(ctx, verification, &previous)
		return err
	}

	uc.logger.Info("Verification resubmitted", zap.String("listing_id", verification.ListingID))
	return nil
}

// rollbackStatus restores a status write whose audit entry could not be
// appended. Status must never run ahead of the history log.
func (uc *VerificationUsecase) rollbackStatus(ctx context.Context, verification, previous *domain.ListingVerification) {
	*verification = *previous
	if err := uc.listings.UpdateVerification(ctx, verification); err != nil {
		uc.logger.Error("failed to restore verification status after history append failure",
			zap.String("listing_id", verification.ListingID),
			zap.String("status", string(previous.Status)), zap.Error(err))
	}
}

// ReviewVerification records an admin decision. Reviewing into the current
// status is an error, not a no-op: it usually means the reviewer acted on a
// stale view. verifiedAt/verifiedBy are set only on approval and cleared on
// any other outcome.
func (uc *VerificationUsecase) ReviewVerification(ctx context.Context, listingID, reviewerID string, decision domain.VerificationStatus, notes string) (*domain.ListingVerification, error) {
	if decision != domain.VerificationApproved && decision != domain.VerificationRejected {
		return nil, fmt.Errorf("%w: review decision must be APPROVED or REJECTED", domain.ErrInvalidState)
	}

	verification, err := uc.listings.GetVerification(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if verification.Status == decision {
		return nil, fmt.Errorf("%w: listing %s is already %s", domain.ErrInvalidState, listingID, decision)
	}

	previous := *verification
	verification.Status = decision
	if decision == domain.VerificationApproved {
		now := time.Now().UTC()
		verification.VerifiedAt = &now
		verification.VerifiedBy = reviewerID
	} else {
		verification.VerifiedAt = nil
		verification.VerifiedBy = ""
	}

	if err := uc.listings.UpdateVerification(ctx, verification); err != nil {
		return nil, err
	}
	entry := &domain.VerificationHistoryEntry{
		ListingID:      listingID,
		PreviousStatus: previous.Status,
		NewStatus:      decision,
		Notes:          notes,
		ReviewedBy:     reviewerID,
		CreatedAt:      time.Now().UTC(),
	}
	if err := uc.verifications.AppendHistory(ctx, entry); err != nil {
		uc.rollbackStatus(ctx, verification, &previous)
		return nil, err
	}

	uc.metrics.ReviewsRecordedTotal.WithLabelValues(string(decision)).Inc()
	if err := uc.natsPub.Publish(ctx, "media.verification.reviewed", map[string]interface{}{
		"listing_id":  listingID,
		"decision":    string(decision),
		"reviewed_by": reviewerID,
	}); err != nil {
		uc.logger.Warn("Failed to publish media.verification.reviewed event", zap.Error(err), zap.String("listing_id", listingID))
	}
	// Best-effort landlord notification; delivery failure never fails the review.
	if err := uc.notifier.SendVerificationReviewed(listingID, decision, notes); err != nil {
		uc.logger.Warn("Failed to send verification review notification", zap.Error(err), zap.String("listing_id", listingID))
	}

	uc.logger.Info("Verification reviewed",
		zap.String("listing_id", listingID), zap.String("decision", string(decision)), zap.String("reviewed_by", reviewerID))
	return verification, nil
}

// DeleteDocument removes a document and its remote object. Only the uploader
// or an admin may delete, and never once the listing is approved.
func (uc *VerificationUsecase) DeleteDocument(ctx context.Context, documentID string, principal domain.Principal) error {
	doc, err := uc.verifications.GetDocumentByID(ctx, documentID)
	if err != nil {
		return err
	}
	if doc.UploadedBy != principal.ID && !principal.IsAdmin() {
		return fmt.Errorf("%w: only the uploader or an admin may delete a document", domain.ErrForbidden)
	}

	verification, err := uc.listings.GetVerification(ctx, doc.ListingID)
	if err != nil {
		return err
	}
	if verification.Status == domain.VerificationApproved {
		return fmt.Errorf("%w: documents of an approved listing are immutable", domain.ErrInvalidState)
	}

	key := uc.storage.KeyOf(doc.RemoteURL)
	if err := uc.storage.Delete(ctx, key); err != nil {
		return err
	}
	if err := uc.verifications.DeleteDocument(ctx, documentID); err != nil {
		return err
	}

	uc.logger.Info("Verification document deleted",
		zap.String("document_id", documentID), zap.String("listing_id", doc.ListingID))
	return nil
}

// GetStatus returns the listing's verification status, documents, and full
// audit history.
func (uc *VerificationUsecase) GetStatus(ctx context.Context, listingID string) (*VerificationState, error) {
	verification, err := uc.listings.GetVerification(ctx, listingID)
	if err != nil {
		return nil, err
	}
	documents, err := uc.verifications.FindDocumentsByListing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	history, err := uc.verifications.FindHistoryByListing(ctx, listingID)
	if err != nil {
		return nil, err
	}

	return &VerificationState{
		Listing:     verification,
		Documents:   documents,
		History:     history,
		CanResubmit: verification.Status == domain.VerificationRejected,
	}, nil
}
