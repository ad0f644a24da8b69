package routes

import (
	"net/http"

	"github.com/spottica/backend/internal/api/handlers"
	"github.com/spottica/backend/internal/api/middleware"
	"github.com/spottica/backend/internal/domain/entities"
	"github.com/spottica/backend/internal/domain/repositories"
	"github.com/spottica/backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	healthHandler   *handlers.HealthHandler
	authHandler     *handlers.AuthHandler
	placeHandler    *handlers.PlaceHandler
	reviewHandler   *handlers.ReviewHandler
	favoriteHandler *handlers.FavoriteHandler
	geocodeHandler  *handlers.GeocodeHandler

	auth            *middleware.Auth
	authLimiter     *middleware.RateLimiter
	cacheMiddleware *middleware.CacheMiddleware
	users           repositories.UserRepository
	allowedOrigins  []string
	metrics         *observability.Metrics
}

// Options carries the optional pieces of the HTTP stack
type Options struct {
	// AuthLimiter throttles register, login and password recovery. Nil disables throttling.
	AuthLimiter *middleware.RateLimiter
	// ListCache caches public listings. Nil disables the HTTP cache.
	ListCache      *middleware.CacheMiddleware
	AllowedOrigins []string
	Metrics        *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	healthHandler *handlers.HealthHandler,
	authHandler *handlers.AuthHandler,
	placeHandler *handlers.PlaceHandler,
	reviewHandler *handlers.ReviewHandler,
	favoriteHandler *handlers.FavoriteHandler,
	geocodeHandler *handlers.GeocodeHandler,
	auth *middleware.Auth,
	users repositories.UserRepository,
	opts Options,
) *Router {
	return &Router{
		mux:             http.NewServeMux(),
		healthHandler:   healthHandler,
		authHandler:     authHandler,
		placeHandler:    placeHandler,
		reviewHandler:   reviewHandler,
		favoriteHandler: favoriteHandler,
		geocodeHandler:  geocodeHandler,
		auth:            auth,
		authLimiter:     opts.AuthLimiter,
		cacheMiddleware: opts.ListCache,
		users:           users,
		allowedOrigins:  opts.AllowedOrigins,
		metrics:         opts.Metrics,
	}
}

func (r *Router) limited(next http.HandlerFunc) http.HandlerFunc {
	if r.authLimiter == nil {
		return next
	}
	return r.authLimiter.Limit(next)
}

func (r *Router) admin(next http.HandlerFunc) http.HandlerFunc {
	return r.auth.RequireRole(entities.RoleAdmin, next)
}

// SetupRoutes registers every endpoint and wraps the mux in the middleware chain
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", r.healthHandler.Health)

	// Accounts
	r.mux.HandleFunc("POST /api/auth/register", r.limited(r.authHandler.Register))
	r.mux.HandleFunc("POST /api/auth/login", r.limited(r.authHandler.Login))
	r.mux.HandleFunc("POST /api/auth/logout", r.authHandler.Logout)
	r.mux.HandleFunc("GET /api/auth/me", r.auth.Optional(r.authHandler.Me))
	r.mux.HandleFunc("POST /api/auth/forgot-password", r.limited(r.authHandler.ForgotPassword))
	r.mux.HandleFunc("POST /api/auth/reset-password/{token}", r.authHandler.ResetPassword)

	// Places
	r.mux.HandleFunc("GET /api/places", r.cacheMiddleware.Cached(r.placeHandler.ListPlaces))
	r.mux.HandleFunc("GET /api/places/map", r.cacheMiddleware.Cached(r.placeHandler.MapPlaces))
	r.mux.HandleFunc("GET /api/places/{id}", r.auth.Optional(r.placeHandler.GetPlace))
	r.mux.HandleFunc("POST /api/places", r.auth.Require(r.placeHandler.CreatePlace))
	r.mux.HandleFunc("PATCH /api/places/{id}", r.admin(r.placeHandler.UpdatePlace))
	r.mux.HandleFunc("DELETE /api/places/{id}", r.admin(r.placeHandler.DeletePlace))
	r.mux.HandleFunc("PATCH /api/places/{id}/status", r.admin(r.placeHandler.SetStatus))
	r.mux.HandleFunc("GET /api/admin/places/pending", r.admin(r.placeHandler.PendingPlaces))

	// Reviews
	r.mux.HandleFunc("POST /api/places/{id}/reviews", r.auth.Require(r.reviewHandler.CreateReview))
	r.mux.HandleFunc("POST /api/reviews", r.auth.Require(r.reviewHandler.CreateReview))
	r.mux.HandleFunc("PATCH /api/reviews/{id}", r.auth.Require(r.reviewHandler.UpdateReview))
	r.mux.HandleFunc("DELETE /api/reviews/{id}", r.auth.Require(r.reviewHandler.DeleteReview))

	// Favorites
	r.mux.HandleFunc("GET /api/users/me/favorites", r.auth.Require(r.favoriteHandler.ListFavorites))
	r.mux.HandleFunc("POST /api/users/me/favorites/{placeId}", r.auth.Require(r.favoriteHandler.AddFavorite))
	r.mux.HandleFunc("DELETE /api/users/me/favorites/{placeId}", r.auth.Require(r.favoriteHandler.RemoveFavorite))

	if r.geocodeHandler != nil {
		r.mux.HandleFunc("GET /api/geocode", r.geocodeHandler.Geocode)
	}

	// Apply middleware in reverse order (last middleware wraps first).
	// Logging and observability sit directly on the mux so they see the
	// request the mux stamps with the matched pattern.
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.LoadersMiddleware(r.users)(handler)
	handler = middleware.CacheControl(handler)
	handler = middleware.Compression(handler)

	// CORS wraps everything so headers are set even on cache HITs
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}
