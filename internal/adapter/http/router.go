package http

import (
	"github.com/Abdurahmanit/GroupProject/media-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/media-service/internal/platform/metrics"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires the media routes. Everything requires an authenticated
// principal; review and sweep additionally require the admin role.
func NewRouter(h *MediaHandler, jwtSecret string, mm *metrics.MetricsManager, log *logger.Logger) *chi.Mux {
	mux := chi.NewRouter()
	mux.Use(chimiddleware.Recoverer)
	mux.Use(Observe(mm))

	mux.Group(func(r chi.Router) {
		r.Use(JWTAuth(jwtSecret, log))

		r.Post("/api/media/sessions/images", h.HandleUploadSessionImage)
		r.Get("/api/media/sessions/{sessionID}/images", h.HandleGetSessionImages)
		r.Post("/api/media/associate", h.HandleAssociateSession)
		r.Post("/api/media/listings/{listingID}/images", h.HandleUploadListingImage)
		r.Get("/api/media/listings/{listingID}/images", h.HandleGetListingImages)
		r.Delete("/api/media/images/{assetID}", h.HandleDeleteImage)

		r.Post("/api/media/listings/{listingID}/verification/documents", h.HandleUploadDocument)
		r.Get("/api/media/listings/{listingID}/verification", h.HandleGetVerificationStatus)
		r.Delete("/api/media/verification/documents/{documentID}", h.HandleDeleteDocument)

		r.Group(func(admin chi.Router) {
			admin.Use(AdminOnly)
			admin.Post("/api/media/listings/{listingID}/verification/review", h.HandleReviewVerification)
			admin.Post("/api/media/reaper/sweep", h.HandleTriggerSweep)
		})
	})

	return mux
}
