package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/yourorg/propertyhub/internal/domain"
	"github.com/yourorg/propertyhub/internal/security/audit"
	"github.com/yourorg/propertyhub/internal/security/auth"
	"github.com/yourorg/propertyhub/internal/security/ratelimit"
)

type IdentityContextKey struct{}
type ClaimsContextKey struct{}

// publicPaths are served without a bearer token
var publicPaths = map[string]bool{
	"/healthz":        true,
	"/readyz":         true,
	"/metrics":        true,
	"/api/auth/login": true,
}

func isPublic(r *http.Request) bool {
	return publicPaths[r.URL.Path] || r.Method == http.MethodOptions
}

// signInRequired answers an unauthenticated request by pointing the caller at
// the sign-in flow.
func signInRequired(w http.ResponseWriter, signInURL, reason string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="propertyhub"`)
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{
		"error":     "sign-in required",
		"reason":    reason,
		"signInUrl": signInURL,
	})
}

// JWTMiddleware resolves the caller's identity from the bearer token. Browser
// websocket clients cannot set headers, so /ws/ paths also accept ?token=.
func JWTMiddleware(tm *auth.TokenManager, signInURL string, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublic(r) {
				next.ServeHTTP(w, r)
				return
			}

			var tokenString string
			if authHeader := r.Header.Get("Authorization"); authHeader != "" {
				t, err := auth.ExtractToken(authHeader)
				if err != nil {
					signInRequired(w, signInURL, "invalid authorization header")
					return
				}
				tokenString = t
			} else if strings.HasPrefix(r.URL.Path, "/ws/") {
				tokenString = r.URL.Query().Get("token")
			}
			if tokenString == "" {
				signInRequired(w, signInURL, "missing credentials")
				return
			}

			claims, err := tm.ValidateToken(tokenString)
			if err != nil {
				log.Debug("token rejected",
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
				signInRequired(w, signInURL, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), ClaimsContextKey{}, claims)
			ctx = context.WithValue(ctx, IdentityContextKey{}, claims.Identity())

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func RateLimitMiddleware(limiter *ratelimit.Limiter, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := GetIdentityFromContext(r.Context())
			if id == nil {
				next.ServeHTTP(w, r)
				return
			}

			if !limiter.Allow(id.ProfileID) {
				log.Warn("rate limit exceeded",
					slog.String("profile_id", id.ProfileID),
					slog.String("path", r.URL.Path),
				)
				http.Error(w, `{"error":"rate limit exceeded"}`, http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// AuditMiddleware records every state-changing API call with its outcome.
// It must run after JWTMiddleware so the caller is known.
func AuditMiddleware(auditLog *audit.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
			default:
				next.ServeHTTP(w, r)
				return
			}

			sw := &auditWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)

			entry := audit.Entry{
				RequestID: w.Header().Get("X-Request-ID"),
				Action:    r.Method + " " + r.URL.Path,
				Status:    sw.status,
			}
			entry.Resource, entry.ResourceID = resourceOf(r.URL.Path)
			if id := GetIdentityFromContext(r.Context()); id != nil {
				entry.ProfileID = id.ProfileID
				entry.Role = string(id.Role)
			}
			auditLog.Log(r.Context(), entry)
		})
	}
}

// resourceOf splits /api/<resource>/<id>/... into resource and id
func resourceOf(path string) (string, string) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(path, "/api/"), "/"), "/")
	resource := parts[0]
	if len(parts) > 1 {
		return resource, parts[1]
	}
	return resource, ""
}

type auditWriter struct {
	http.ResponseWriter
	status int
}

func (w *auditWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *auditWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// GetIdentityFromContext returns the authenticated identity or nil
func GetIdentityFromContext(ctx context.Context) *domain.Identity {
	if id, ok := ctx.Value(IdentityContextKey{}).(*domain.Identity); ok {
		return id
	}
	return nil
}

// WithIdentity stores id in ctx. Used by tests and internal callers.
func WithIdentity(ctx context.Context, id *domain.Identity) context.Context {
	return context.WithValue(ctx, IdentityContextKey{}, id)
}

func GetClaimsFromContext(ctx context.Context) *auth.Claims {
	if c, ok := ctx.Value(ClaimsContextKey{}).(*auth.Claims); ok {
		return c
	}
	return nil
}
