package transport

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/ganot/taskboard/internal/domain/account"
)

// ErrUnauthorized indicates invalid or missing credentials.
var ErrUnauthorized = errors.New("unauthorized")

type sessionKey struct{}

// SessionResolver resolves an account session from a bearer token.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*account.Session, error)
}

// SessionFromContext returns the authenticated session from context, if present.
func SessionFromContext(ctx context.Context) (*account.Session, bool) {
	sess, ok := ctx.Value(sessionKey{}).(*account.Session)
	return sess, ok && sess != nil
}

// WithSession returns a copy of ctx carrying sess.
func WithSession(ctx context.Context, sess *account.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, sess)
}

// BearerToken extracts the token from an "Authorization: Bearer" header value.
func BearerToken(header string) string {
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// AuthMiddleware enforces bearer token authentication.
func AuthMiddleware(resolver SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r.Header.Get("Authorization"))
			if token == "" {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}

			sess, err := resolver.Resolve(r.Context(), token)
			if err != nil || sess == nil {
				http.Error(w, "invalid bearer token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}

// OptionalAuthMiddleware attaches the session when the request carries a
// valid bearer token and passes the request on unchanged otherwise. Methods
// that need a session reject the call themselves.
func OptionalAuthMiddleware(resolver SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r.Header.Get("Authorization"))
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			sess, err := resolver.Resolve(r.Context(), token)
			if err != nil || sess == nil {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}
