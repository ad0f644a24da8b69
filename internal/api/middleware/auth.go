package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/spottica/backend/internal/domain/entities"
	"github.com/spottica/backend/internal/domain/providers"
)

type identityKey struct{}

// IdentityFrom returns the authenticated caller, or nil for anonymous requests
func IdentityFrom(ctx context.Context) *entities.Identity {
	id, _ := ctx.Value(identityKey{}).(*entities.Identity)
	return id
}

// WithIdentity attaches a caller to ctx
func WithIdentity(ctx context.Context, identity *entities.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// Auth resolves bearer tokens into identities
type Auth struct {
	tokens providers.TokenProvider
}

// NewAuth creates the auth middleware set
func NewAuth(tokens providers.TokenProvider) *Auth {
	return &Auth{tokens: tokens}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

// Optional attaches the caller when a valid token is present. Missing or
// invalid tokens continue as anonymous.
func (a *Auth) Optional(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if token := bearerToken(r); token != "" {
			if identity, err := a.tokens.VerifyAccessToken(token); err == nil {
				r = r.WithContext(WithIdentity(r.Context(), identity))
			}
		}
		next(w, r)
	}
}

// Require rejects requests without a valid token with 401
func (a *Auth) Require(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		identity, err := a.tokens.VerifyAccessToken(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		next(w, r.WithContext(WithIdentity(r.Context(), identity)))
	}
}

// RequireRole rejects authenticated callers lacking role with 403
func (a *Auth) RequireRole(role entities.Role, next http.HandlerFunc) http.HandlerFunc {
	return a.Require(func(w http.ResponseWriter, r *http.Request) {
		if IdentityFrom(r.Context()).Role != role {
			writeError(w, http.StatusForbidden, "not allowed")
			return
		}
		next(w, r)
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
