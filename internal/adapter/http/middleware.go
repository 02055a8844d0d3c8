package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/Abdurahmanit/GroupProject/media-service/internal/media/domain"
	"github.com/Abdurahmanit/GroupProject/media-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/media-service/internal/platform/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

// ContextKey is a custom type for context keys to avoid collisions.
type ContextKey string

const principalCtxKey = ContextKey("authenticatedPrincipal")

// Claims is the JWT claims structure issued by the user service.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// PrincipalFromContext returns the authenticated principal set by JWTAuth.
func PrincipalFromContext(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(principalCtxKey).(domain.Principal)
	return p, ok
}

// JWTAuth validates the Bearer token and stores the resulting principal in
// the request context.
func JWTAuth(jwtSecret string, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "authorization token is not provided", http.StatusUnauthorized)
				return
			}

			parts := strings.Fields(authHeader)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				log.Warn("JWTAuth: invalid 'Authorization' header format, expected 'Bearer <token>'")
				http.Error(w, "authorization token format is invalid, expected 'Bearer <token>'", http.StatusUnauthorized)
				return
			}

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !token.Valid {
				log.Warn("JWTAuth: token validation failed", zap.Error(err))
				http.Error(w, "authorization token is invalid", http.StatusUnauthorized)
				return
			}
			if claims.UserID == "" {
				http.Error(w, "authorization token carries no user id", http.StatusUnauthorized)
				return
			}

			principal := domain.Principal{ID: claims.UserID, Role: claims.Role}
			ctx := context.WithValue(r.Context(), principalCtxKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminOnly rejects callers whose principal does not carry the admin role.
// Must run after JWTAuth.
func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := PrincipalFromContext(r.Context())
		if !ok || !principal.IsAdmin() {
			http.Error(w, "admin role required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// routeLabel returns the chi route pattern of the matched route, so metric
// labels stay bounded instead of growing one series per listing or asset id.
// Only available once routing has run.
func routeLabel(r *http.Request) string {
	pattern := chi.RouteContext(r.Context()).RoutePattern()
	if pattern == "" {
		pattern = "unmatched"
	}
	return r.Method + " " + pattern
}

// Observe wraps each request in an OTel span and records its latency.
func Observe(mm *metrics.MetricsManager) func(http.Handler) http.Handler {
	tracer := otel.Tracer("media-service/http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracer.Start(r.Context(), r.Method+" "+r.URL.Path)
			defer span.End()

			start := time.Now()
			next.ServeHTTP(w, r.WithContext(ctx))

			route := routeLabel(r)
			span.SetName(route)
			mm.APILatency.WithLabelValues(route).Observe(time.Since(start).Seconds())
		})
	}
}
