package middleware

import (
	"net/http"

	"github.com/spottica/backend/internal/application/loaders"
	"github.com/spottica/backend/internal/domain/repositories"
)

// LoadersMiddleware attaches fresh request-scoped dataloaders to every request
func LoadersMiddleware(users repositories.UserRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := loaders.WithLoaders(r.Context(), loaders.NewLoaders(users))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
