package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/Abdurahmanit/GroupProject/media-service/internal/media/domain"
	"github.com/Abdurahmanit/GroupProject/media-service/internal/media/usecase"
	"github.com/Abdurahmanit/GroupProject/media-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/media-service/internal/platform/metrics"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handlers cap multipart memory; larger files spill to disk before the size
// check in the usecase rejects them.
const maxMultipartMemory = 12 << 20

// MediaHandler translates HTTP requests into usecase calls. All business
// rules live below; this layer only parses, dispatches, and maps errors.
type MediaHandler struct {
	uploads       *usecase.UploadUsecase
	verifications *usecase.VerificationUsecase
	reaper        *usecase.ReaperUsecase
	reaperTTL     time.Duration
	metrics       *metrics.MetricsManager
	logger        *logger.Logger
}

func NewMediaHandler(uploads *usecase.UploadUsecase, verifications *usecase.VerificationUsecase, reaper *usecase.ReaperUsecase, reaperTTL time.Duration, mm *metrics.MetricsManager, log *logger.Logger) *MediaHandler {
	return &MediaHandler{
		uploads:       uploads,
		verifications: verifications,
		reaper:        reaper,
		reaperTTL:     reaperTTL,
		metrics:       mm,
		logger:        log.Named("MediaHandler"),
	}
}

type imageResponse struct {
	ID        string `json:"id"`
	RemoteURL string `json:"remote_url"`
	ListingID string `json:"listing_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	CreatedAt string `json:"created_at"`
}

func toImageResponse(a *domain.ImageAsset) imageResponse {
	resp := imageResponse{
		ID:        a.ID,
		RemoteURL: a.RemoteURL,
		CreatedAt: a.CreatedAt.Format(time.RFC3339),
	}
	if listingID, ok := a.Scope.ListingID(); ok {
		resp.ListingID = listingID
	}
	if sessionID, ok := a.Scope.SessionID(); ok {
		resp.SessionID = sessionID
	}
	return resp
}

func toImageResponses(assets []*domain.ImageAsset) []imageResponse {
	result := make([]imageResponse, 0, len(assets))
	for _, a := range assets {
		result = append(result, toImageResponse(a))
	}
	return result
}

// readUpload extracts the "file" part of a multipart request.
func (h *MediaHandler) readUpload(w http.ResponseWriter, r *http.Request) (domain.FileUpload, bool) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		http.Error(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return domain.FileUpload{}, false
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing 'file' form field", http.StatusBadRequest)
		return domain.FileUpload{}, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.logger.Error("Failed to read uploaded file", zap.Error(err))
		http.Error(w, "failed to read uploaded file", http.StatusBadRequest)
		return domain.FileUpload{}, false
	}

	return domain.FileUpload{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, true
}

// HandleUploadSessionImage stages an image in a pre-listing upload session.
// The session id is optional; a fresh one is minted on first upload.
func (h *MediaHandler) HandleUploadSessionImage(w http.ResponseWriter, r *http.Request) {
	upload, ok := h.readUpload(w, r)
	if !ok {
		return
	}
	sessionID := r.FormValue("session_id")

	asset, sessionID, err := h.uploads.UploadToSession(r.Context(), sessionID, upload)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"session_id": sessionID,
		"image":      toImageResponse(asset),
	})
}

// HandleUploadListingImage attaches an image directly to an existing listing.
func (h *MediaHandler) HandleUploadListingImage(w http.ResponseWriter, r *http.Request) {
	listingID := chi.URLParam(r, "listingID")
	upload, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	asset, err := h.uploads.UploadToListing(r.Context(), listingID, upload)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toImageResponse(asset))
}

// HandleAssociateSession moves all pending images of a session onto a listing.
func (h *MediaHandler) HandleAssociateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
		ListingID string `json:"listing_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	moved, err := h.uploads.Associate(r.Context(), req.SessionID, req.ListingID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]int64{"moved": moved})
}

// HandleGetSessionImages lists the pending pool of a session.
func (h *MediaHandler) HandleGetSessionImages(w http.ResponseWriter, r *http.Request) {
	assets, err := h.uploads.GetImagesBySession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toImageResponses(assets))
}

// HandleGetListingImages lists the attached pool of a listing.
func (h *MediaHandler) HandleGetListingImages(w http.ResponseWriter, r *http.Request) {
	assets, err := h.uploads.GetImagesByListing(r.Context(), chi.URLParam(r, "listingID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toImageResponses(assets))
}

// HandleDeleteImage deletes one image. The caller must state the scope it
// believes the asset is in via either session_id or listing_id.
func (h *MediaHandler) HandleDeleteImage(w http.ResponseWriter, r *http.Request) {
	assetID := chi.URLParam(r, "assetID")

	var expected domain.Scope
	switch {
	case r.URL.Query().Get("session_id") != "":
		expected = domain.PendingIn(r.URL.Query().Get("session_id"))
	case r.URL.Query().Get("listing_id") != "":
		expected = domain.AttachedTo(r.URL.Query().Get("listing_id"))
	default:
		http.Error(w, "either session_id or listing_id query parameter is required", http.StatusBadRequest)
		return
	}

	if err := h.uploads.DeleteImage(r.Context(), assetID, expected); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleUploadDocument stores an ownership-verification document.
func (h *MediaHandler) HandleUploadDocument(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}
	listingID := chi.URLParam(r, "listingID")
	upload, ok := h.readUpload(w, r)
	if !ok {
		return
	}
	docType := domain.DocumentType(r.FormValue("document_type"))

	doc, err := h.verifications.UploadDocument(r.Context(), listingID, principal, docType, upload)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, doc)
}

// HandleReviewVerification records an admin decision on a listing.
func (h *MediaHandler) HandleReviewVerification(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}
	listingID := chi.URLParam(r, "listingID")

	var req struct {
		Decision string `json:"decision"`
		Notes    string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	verification, err := h.verifications.ReviewVerification(r.Context(), listingID, principal.ID, domain.VerificationStatus(req.Decision), req.Notes)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, verification)
}

// HandleDeleteDocument deletes one verification document.
func (h *MediaHandler) HandleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	if err := h.verifications.DeleteDocument(r.Context(), chi.URLParam(r, "documentID"), principal); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleGetVerificationStatus returns status, documents, and audit history.
func (h *MediaHandler) HandleGetVerificationStatus(w http.ResponseWriter, r *http.Request) {
	state, err := h.verifications.GetStatus(r.Context(), chi.URLParam(r, "listingID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, state)
}

// HandleTriggerSweep runs one reaper sweep on demand (admin only).
func (h *MediaHandler) HandleTriggerSweep(w http.ResponseWriter, r *http.Request) {
	removed, err := h.reaper.Sweep(r.Context(), h.reaperTTL)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

func (h *MediaHandler) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (h *MediaHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	var errorType string
	switch {
	case errors.Is(err, domain.ErrInvalidMedia):
		status, errorType = http.StatusUnprocessableEntity, "invalid_media"
	case errors.Is(err, domain.ErrQuotaExceeded):
		status, errorType = http.StatusConflict, "quota_exceeded"
	case errors.Is(err, domain.ErrInvalidState):
		status, errorType = http.StatusConflict, "invalid_state"
	case errors.Is(err, domain.ErrForbidden):
		status, errorType = http.StatusForbidden, "forbidden"
	case errors.Is(err, domain.ErrNotFound):
		status, errorType = http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrConflict):
		status, errorType = http.StatusConflict, "conflict"
	case errors.Is(err, domain.ErrStorageUnavailable):
		status, errorType = http.StatusServiceUnavailable, "storage_unavailable"
	default:
		status, errorType = http.StatusInternalServerError, "internal"
	}

	h.metrics.APIErrorsTotal.WithLabelValues(routeLabel(r), errorType).Inc()
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	http.Error(w, err.Error(), status)
}
