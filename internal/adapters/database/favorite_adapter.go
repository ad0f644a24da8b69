package database

import (
	"context"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/spottica/backend/internal/domain/entities"
	"github.com/spottica/backend/internal/domain/repositories"
	"github.com/spottica/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/spottica/backend/pkg/errors"
)

// FavoriteAdapter implements the FavoriteRepository interface on user_favorites
type FavoriteAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewFavoriteAdapter creates a new favorite adapter
func NewFavoriteAdapter(client *postgres.Client) repositories.FavoriteRepository {
	return &FavoriteAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Add inserts the pair if missing
func (a *FavoriteAdapter) Add(ctx context.Context, userID, placeID string) error {
	query, args, err := a.db.Insert("user_favorites").
		Rows(goqu.Record{
			"user_id":    userID,
			"place_id":   placeID,
			"created_at": time.Now().UTC(),
		}).
		OnConflict(goqu.DoNothing()).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		if isForeignKeyViolation(err) {
			return apperrors.NewNotFoundError("user not found")
		}
		return apperrors.NewInternalError("failed to add favorite", err)
	}

	return nil
}

// Remove deletes the pair if present
func (a *FavoriteAdapter) Remove(ctx context.Context, userID, placeID string) error {
	query, args, err := a.db.Delete("user_favorites").
		Where(goqu.Ex{"user_id": userID, "place_id": placeID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to remove favorite", err)
	}

	return nil
}

// ListIDs returns the user's favorite place IDs in the order they were added
func (a *FavoriteAdapter) ListIDs(ctx context.Context, userID string) ([]string, error) {
	query, args, err := a.db.From("user_favorites").
		Select("place_id").
		Where(goqu.Ex{"user_id": userID}).
		Order(goqu.C("created_at").Asc(), goqu.C("place_id").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	ids := []string{}
	if err := a.client.DB().SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, apperrors.NewInternalError("failed to list favorites", err)
	}

	return ids, nil
}

// ListPlaces joins favorites to places and keeps those with the given status.
// Favorites of deleted places drop out of the join.
func (a *FavoriteAdapter) ListPlaces(ctx context.Context, userID string, status entities.PlaceStatus) ([]*entities.Place, error) {
	columns := make([]interface{}, 0, len(placeColumns))
	for _, c := range placeColumns {
		columns = append(columns, goqu.I("p."+c.(string)))
	}

	query, args, err := a.db.From(goqu.T("user_favorites").As("f")).
		Join(goqu.T("places").As("p"), goqu.On(goqu.I("p.id").Eq(goqu.I("f.place_id")))).
		Select(columns...).
		Where(
			goqu.I("f.user_id").Eq(userID),
			goqu.I("p.status").Eq(string(status)),
		).
		Order(goqu.I("f.created_at").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	var rows []placeRow
	if err := a.client.DB().SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, apperrors.NewInternalError("failed to list favorite places", err)
	}

	return toPlaces(rows), nil
}
