package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spottica/backend/internal/adapters/cache"
	"github.com/spottica/backend/internal/adapters/database"
	"github.com/spottica/backend/internal/adapters/events"
	"github.com/spottica/backend/internal/adapters/providers/geolocation"
	"github.com/spottica/backend/internal/adapters/providers/identity"
	"github.com/spottica/backend/internal/adapters/providers/mail"
	"github.com/spottica/backend/internal/adapters/search"
	"github.com/spottica/backend/internal/api/handlers"
	"github.com/spottica/backend/internal/api/middleware"
	"github.com/spottica/backend/internal/api/routes"
	"github.com/spottica/backend/internal/application/services"
	"github.com/spottica/backend/internal/domain/providers"
	"github.com/spottica/backend/internal/domain/repositories"
	"github.com/spottica/backend/internal/infrastructure/clients/postgres"
	"github.com/spottica/backend/internal/infrastructure/clients/redis"
	"github.com/spottica/backend/internal/infrastructure/clients/typesense"
	"github.com/spottica/backend/internal/infrastructure/observability"
	"github.com/spottica/backend/pkg/config"
)

const memoryCacheSize = 4096

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Env)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			log.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	// Initialize database client
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()
	if err := pgClient.EnsureSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to apply database schema")
	}

	// Redis backs the cache and the event bus. Without it both fall back to
	// in-process implementations.
	var cacheProvider providers.CacheProvider
	var eventBus providers.EventBus
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, using in-memory cache and event bus")
		memory, err := cache.NewMemoryAdapter(memoryCacheSize)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create in-memory cache")
		}
		cacheProvider = memory
		eventBus = events.NewMemoryEventBus()
	} else {
		defer redisClient.Close()
		cacheProvider = cache.NewRedisAdapter(redisClient)
		eventBus = events.NewRedisEventBus(redisClient)
	}

	// Typesense is optional; text search falls back to the database
	var searchRepo repositories.PlaceSearchRepository
	if cfg.Typesense.URL != "" {
		tsClient, err := typesense.NewClient(&cfg.Typesense)
		if err != nil {
			log.Warn().Err(err).Msg("Typesense unavailable, text search uses the database")
		} else if err := tsClient.InitSchema(ctx); err != nil {
			log.Warn().Err(err).Msg("failed to init Typesense schema, text search uses the database")
		} else {
			searchRepo = search.NewTypesenseAdapter(tsClient)
		}
	}

	var geocoder providers.GeolocationProvider
	switch cfg.Geolocation.Provider {
	case "google":
		if cfg.Geolocation.APIKey == "" {
			log.Warn().Msg("GEOLOCATION_API_KEY is not set; using mock geolocation provider")
			geocoder = geolocation.NewMockGeolocationProvider()
		} else {
			geocoder = geolocation.NewGoogleGeolocationProvider(cfg.Geolocation.APIKey, cacheProvider)
		}
	default:
		geocoder = geolocation.NewMockGeolocationProvider()
	}

	mailer, err := mail.New(cfg.Mail.ShoutrrrURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize mailer")
	}

	// Initialize adapters
	userRepo := database.NewUserAdapter(pgClient)
	placeRepo := database.NewCachedPlaceAdapter(database.NewPlaceAdapter(pgClient), cacheProvider, metrics)
	reviewRepo := database.NewReviewAdapter(pgClient)
	favoriteRepo := database.NewFavoriteAdapter(pgClient)

	tokens := identity.NewJWTProvider(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	hasher := identity.NewBcryptHasher(cfg.Auth.BcryptCost)

	// Initialize services
	aggregator := services.NewRatingAggregator(placeRepo, searchRepo, eventBus)
	authService := services.NewAuthService(userRepo, tokens, hasher, mailer, cfg.Auth, cfg.Mail)
	placeService := services.NewPlaceService(placeRepo, reviewRepo, userRepo, searchRepo, geocoder, eventBus, cfg.Search)
	reviewService := services.NewReviewService(placeRepo, reviewRepo, aggregator, metrics)
	favoriteService := services.NewFavoriteService(favoriteRepo)

	invalidation := services.NewCacheInvalidationService(cacheProvider, eventBus)
	if err := invalidation.Start(); err != nil {
		log.Warn().Err(err).Msg("failed to start cache invalidation service")
	}

	go func() {
		warmed, err := services.NewCacheWarmingService(placeRepo, 0).WarmCache(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("cache warming failed")
			return
		}
		log.Info().Int("places", warmed).Msg("place cache warmed")
	}()

	authLimiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	go authLimiter.Cleanup(ctx)

	// Set up router
	router := routes.NewRouter(
		handlers.NewHealthHandler(pgClient),
		handlers.NewAuthHandler(authService),
		handlers.NewPlaceHandler(placeService),
		handlers.NewReviewHandler(reviewService),
		handlers.NewFavoriteHandler(favoriteService),
		handlers.NewGeocodeHandler(placeService),
		middleware.NewAuth(tokens),
		userRepo,
		routes.Options{
			AuthLimiter:    authLimiter,
			ListCache:      middleware.NewCacheMiddleware(cacheProvider, middleware.DefaultListCacheTTL, metrics),
			AllowedOrigins: cfg.Server.AllowedOrigins,
			Metrics:        metrics,
		},
	)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", serverAddr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	invalidation.Stop()
	if err := eventBus.Close(); err != nil {
		log.Error().Err(err).Msg("error closing event bus")
	}
	authService.Wait()

	log.Info().Msg("server stopped")
}
