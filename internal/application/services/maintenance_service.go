package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/spottica/backend/internal/domain/entities"
	"github.com/spottica/backend/internal/domain/repositories"
	"github.com/spottica/backend/internal/infrastructure/observability"
	apperrors "github.com/spottica/backend/pkg/errors"
)

// MaintenanceService holds operator tasks run from placesctl
type MaintenanceService struct {
	users      repositories.UserRepository
	places     repositories.PlaceRepository
	aggregator *RatingAggregator
}

// NewMaintenanceService creates a new maintenance service
func NewMaintenanceService(users repositories.UserRepository, places repositories.PlaceRepository, aggregator *RatingAggregator) *MaintenanceService {
	return &MaintenanceService{users: users, places: places, aggregator: aggregator}
}

// Promote grants the admin role to the user registered with email
func (s *MaintenanceService) Promote(ctx context.Context, email string) (*entities.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, apperrors.NewValidationError("email is required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user.IsAdmin() {
		return user, nil
	}
	if err := s.users.SetRole(ctx, user.ID, entities.RoleAdmin); err != nil {
		return nil, err
	}
	user.Role = entities.RoleAdmin
	return user, nil
}

// RecomputeAll rebuilds the derived stats of every place and returns how
// many places were repaired. It keeps going past individual failures.
func (s *MaintenanceService) RecomputeAll(ctx context.Context) (int, error) {
	ids, err := s.places.ListIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list places: %w", err)
	}

	logger := observability.LoggerFromContext(ctx)
	done, failed := 0, 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return done, err
		}
		if _, err := s.aggregator.RecomputeStats(ctx, id); err != nil {
			failed++
			logger.Error().Err(err).Str("place_id", id).Msg("failed to recompute stats")
			continue
		}
		done++
	}
	if failed > 0 {
		return done, fmt.Errorf("%d of %d places failed to recompute", failed, len(ids))
	}
	return done, nil
}
