package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/sakif/quotes-api/internal/apperror"
	"github.com/sakif/quotes-api/internal/model"
)

// contextKey is an unexported type used for context keys in this package.
// A package-private type prevents collisions: only this package can create a
// key of type contextKey, so only this package can read or write the
// authenticated identifier in the context.
type contextKey string

const identifierKey contextKey = "identifier"

// Authenticator resolves a validated identifier/secret pair to a user.
// *service.AccountService satisfies this; the interface lives here so the
// middleware does not depend on the service package.
type Authenticator interface {
	Authenticate(ctx context.Context, identifier, secret string) (*model.User, error)
}

// RateLimiter decides whether an authenticated user may make a request now.
type RateLimiter interface {
	Allow(ctx context.Context, identifier string, now time.Time) error
}

// RequireCredentials is a middleware that enforces authentication with either
// credential shape: the identity-key/secret-key header pair, or an
// Authorization: Basic header. If a key header is present the request is
// treated as key-shaped and Basic auth is not consulted.
//
// On success the authenticated identifier is stored in the request context
// for IdentityFromContext. On failure the chain stops with 400 (malformed
// credentials) or 401 (credentials that don't match an account).
func RequireCredentials(authn Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var identifier, secret string
			var err error

			if r.Header.Get("identity-key") != "" || r.Header.Get("secret-key") != "" {
				identifier, secret, err = ParseKeyHeaders(
					r.Header.Get("identity-key"),
					r.Header.Get("secret-key"),
				)
			} else {
				identifier, secret, err = ParseBasicAuth(r.Header.Get("Authorization"))
			}
			if err != nil {
				writeError(w, err)
				return
			}

			user, err := authn.Authenticate(r.Context(), identifier, secret)
			if err != nil {
				writeError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), identifierKey, user.Identifier)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireBasicAuth is a middleware that enforces Basic authentication only.
// The portal routes use it: API-key headers are not accepted there.
func RequireBasicAuth(authn Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username, password, err := ParseBasicAuth(r.Header.Get("Authorization"))
			if err != nil {
				writeError(w, err)
				return
			}

			user, err := authn.Authenticate(r.Context(), username, password)
			if err != nil {
				writeError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), identifierKey, user.Identifier)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RateLimit is a middleware that applies the per-user request limit. It must
// run after RequireCredentials: the limit is keyed by the authenticated
// identifier, and unauthenticated requests never reach it.
func RateLimit(limiter RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identifier, ok := IdentityFromContext(r.Context())
			if !ok {
				// Only reachable if the route is miswired.
				writeError(w, errors.New("rate limit applied before authentication"))
				return
			}

			if err := limiter.Allow(r.Context(), identifier, time.Now()); err != nil {
				writeError(w, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// IdentityFromContext retrieves the authenticated identifier from the request
// context. Returns ("", false) if the request did not pass an auth middleware.
func IdentityFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(identifierKey).(string)
	return id, ok && id != ""
}

// writeError maps a domain error to an HTTP status and sends the standard
// {"error": ..., "message": ...} body. The handler package has the full
// version of this mapping; the middleware carries the subset it can produce
// (validation, unauthenticated, rate limited) plus the 500 fallback.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	errorType := "internal_error"
	message := "An internal error occurred"

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
			errorType = "validation_error"
		case errors.Is(err, apperror.ErrUnauthenticated):
			status = http.StatusUnauthorized
			errorType = "unauthenticated"
		case errors.Is(err, apperror.ErrRateLimited):
			status = http.StatusTooManyRequests
			errorType = "rate_limited"
		default:
			message = "An internal error occurred"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   errorType,
		"message": message,
	})
}
