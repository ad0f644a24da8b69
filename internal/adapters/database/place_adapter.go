package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/spottica/backend/internal/domain/entities"
	"github.com/spottica/backend/internal/domain/repositories"
	"github.com/spottica/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/spottica/backend/pkg/errors"
)

const (
	kmPerDegree = 111.0

	textVector = "to_tsvector('simple', title || ' ' || description)"
	// haversine distance in km from (?, ?) given as latitude, latitude, longitude
	distanceKm = "2 * 6371 * asin(sqrt(power(sin(radians(latitude - ?) / 2), 2) + " +
		"cos(radians(?)) * cos(radians(latitude)) * power(sin(radians(longitude - ?) / 2), 2)))"
)

var placeColumns = []interface{}{
	"id", "title", "description", "address", "longitude", "latitude", "status",
	"author_id", "avg_rating", "reviews_count", "created_at", "updated_at",
}

type placeRow struct {
	ID           string    `db:"id"`
	Title        string    `db:"title"`
	Description  string    `db:"description"`
	Address      string    `db:"address"`
	Longitude    float64   `db:"longitude"`
	Latitude     float64   `db:"latitude"`
	Status       string    `db:"status"`
	AuthorID     string    `db:"author_id"`
	AvgRating    float64   `db:"avg_rating"`
	ReviewsCount int       `db:"reviews_count"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r *placeRow) toEntity() *entities.Place {
	return &entities.Place{
		ID:           r.ID,
		Title:        r.Title,
		Description:  r.Description,
		Address:      r.Address,
		Location:     entities.Location{Longitude: r.Longitude, Latitude: r.Latitude},
		Status:       entities.PlaceStatus(r.Status),
		AuthorID:     r.AuthorID,
		AvgRating:    r.AvgRating,
		ReviewsCount: r.ReviewsCount,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func toPlaces(rows []placeRow) []*entities.Place {
	places := make([]*entities.Place, 0, len(rows))
	for i := range rows {
		places = append(places, rows[i].toEntity())
	}
	return places
}

// PlaceAdapter implements the PlaceRepository interface
type PlaceAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewPlaceAdapter creates a new place adapter
func NewPlaceAdapter(client *postgres.Client) repositories.PlaceRepository {
	return &PlaceAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

func placeNotFound(id string) error {
	return apperrors.NewNotFoundError(fmt.Sprintf("place with id %s not found", id))
}

// Create creates a new place
func (a *PlaceAdapter) Create(ctx context.Context, place *entities.Place) error {
	query, args, err := a.db.Insert("places").Rows(goqu.Record{
		"id":            place.ID,
		"title":         place.Title,
		"description":   place.Description,
		"address":       place.Address,
		"longitude":     place.Location.Longitude,
		"latitude":      place.Location.Latitude,
		"status":        string(place.Status),
		"author_id":     place.AuthorID,
		"avg_rating":    place.AvgRating,
		"reviews_count": place.ReviewsCount,
		"created_at":    place.CreatedAt,
		"updated_at":    place.UpdatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		if isForeignKeyViolation(err) {
			return apperrors.NewNotFoundError(fmt.Sprintf("author with id %s not found", place.AuthorID))
		}
		return apperrors.NewInternalError("failed to create place", err)
	}

	return nil
}

// GetByID retrieves a place by ID
func (a *PlaceAdapter) GetByID(ctx context.Context, id string) (*entities.Place, error) {
	query, args, err := a.db.From("places").Select(placeColumns...).Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	var row placeRow
	err = a.client.DB().GetContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) || isInvalidID(err) {
		return nil, placeNotFound(id)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get place", err)
	}

	return row.toEntity(), nil
}

// Update writes title, description, address and location
func (a *PlaceAdapter) Update(ctx context.Context, place *entities.Place) error {
	updated, err := a.updateReturning(ctx, place.ID, goqu.Record{
		"title":       place.Title,
		"description": place.Description,
		"address":     place.Address,
		"longitude":   place.Location.Longitude,
		"latitude":    place.Location.Latitude,
	})
	if err != nil {
		return err
	}

	*place = *updated
	return nil
}

// SetStatus changes the moderation status
func (a *PlaceAdapter) SetStatus(ctx context.Context, id string, status entities.PlaceStatus) (*entities.Place, error) {
	return a.updateReturning(ctx, id, goqu.Record{"status": string(status)})
}

func (a *PlaceAdapter) updateReturning(ctx context.Context, id string, record goqu.Record) (*entities.Place, error) {
	record["updated_at"] = time.Now().UTC()

	query, args, err := a.db.Update("places").
		Set(record).
		Where(goqu.Ex{"id": id}).
		Returning(placeColumns...).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build update query", err)
	}

	var row placeRow
	err = a.client.DB().GetContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) || isInvalidID(err) {
		return nil, placeNotFound(id)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to update place", err)
	}

	return row.toEntity(), nil
}

// Delete deletes a place. Its reviews go with it through the foreign key cascade.
func (a *PlaceAdapter) Delete(ctx context.Context, id string) error {
	query, args, err := a.db.Delete("places").Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if isInvalidID(err) {
		return placeNotFound(id)
	}
	if err != nil {
		return apperrors.NewInternalError("failed to delete place", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return placeNotFound(id)
	}

	return nil
}

// RecomputeStats rewrites avg_rating and reviews_count from the reviews table
// in a single UPDATE, so the two fields are always written together
func (a *PlaceAdapter) RecomputeStats(ctx context.Context, id string) (*entities.PlaceStats, error) {
	avg := a.db.From("reviews").
		Select(goqu.COALESCE(goqu.AVG("rating"), 0)).
		Where(goqu.Ex{"place_id": id})
	count := a.db.From("reviews").
		Select(goqu.COUNT("*")).
		Where(goqu.Ex{"place_id": id})

	query, args, err := a.db.Update("places").
		Set(goqu.Record{"avg_rating": avg, "reviews_count": count}).
		Where(goqu.Ex{"id": id}).
		Returning("avg_rating", "reviews_count").
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build stats query", err)
	}

	var stats struct {
		AvgRating    float64 `db:"avg_rating"`
		ReviewsCount int     `db:"reviews_count"`
	}
	err = a.client.DB().GetContext(ctx, &stats, query, args...)
	if errors.Is(err, sql.ErrNoRows) || isInvalidID(err) {
		return nil, placeNotFound(id)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to recompute place stats", err)
	}

	return &entities.PlaceStats{AvgRating: stats.AvgRating, ReviewsCount: stats.ReviewsCount}, nil
}

func (a *PlaceAdapter) filtered(filter repositories.PlaceFilter) *goqu.SelectDataset {
	ds := a.db.From("places")

	if filter.Status != "" {
		ds = ds.Where(goqu.Ex{"status": string(filter.Status)})
	}
	if filter.MinRating != nil {
		ds = ds.Where(goqu.C("avg_rating").Gte(*filter.MinRating))
	}
	if filter.Search != "" {
		ds = ds.Where(goqu.L(textVector+" @@ plainto_tsquery('simple', ?)", filter.Search))
	}
	if filter.Near != nil && filter.RadiusKm > 0 {
		lat, lng := filter.Near.Latitude, filter.Near.Longitude
		delta := filter.RadiusKm / kmPerDegree
		ds = ds.Where(
			goqu.C("latitude").Between(goqu.Range(lat-delta, lat+delta)),
			goqu.L(distanceKm+" <= ?", lat, lat, lng, filter.RadiusKm),
		)
	}

	return ds
}

func (a *PlaceAdapter) ordering(filter repositories.PlaceFilter) []exp.OrderedExpression {
	switch {
	case filter.Near != nil:
		lat, lng := filter.Near.Latitude, filter.Near.Longitude
		return []exp.OrderedExpression{goqu.L(distanceKm, lat, lat, lng).Asc()}
	case filter.Search != "":
		return []exp.OrderedExpression{
			goqu.L("ts_rank("+textVector+", plainto_tsquery('simple', ?))", filter.Search).Desc(),
			goqu.C("created_at").Desc(),
		}
	default:
		return []exp.OrderedExpression{goqu.C("created_at").Desc()}
	}
}

// List retrieves one page of places plus the total match count. Both reads
// run in one REPEATABLE READ snapshot so the page and the total agree.
func (a *PlaceAdapter) List(ctx context.Context, filter repositories.PlaceFilter) ([]*entities.Place, int, error) {
	base := a.filtered(filter)

	countQuery, countArgs, err := base.Select(goqu.COUNT("*")).ToSQL()
	if err != nil {
		return nil, 0, apperrors.NewInternalError("failed to build count query", err)
	}

	pageDS := base.Select(placeColumns...).Order(a.ordering(filter)...)
	if filter.Limit > 0 {
		pageDS = pageDS.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		pageDS = pageDS.Offset(uint(filter.Offset))
	}
	pageQuery, pageArgs, err := pageDS.ToSQL()
	if err != nil {
		return nil, 0, apperrors.NewInternalError("failed to build list query", err)
	}

	tx, err := a.client.BeginReadTx(ctx)
	if err != nil {
		return nil, 0, apperrors.NewInternalError("failed to begin read transaction", err)
	}
	defer tx.Rollback()

	var total int
	if err := tx.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return nil, 0, apperrors.NewInternalError("failed to count places", err)
	}

	var rows []placeRow
	if err := tx.SelectContext(ctx, &rows, pageQuery, pageArgs...); err != nil {
		return nil, 0, apperrors.NewInternalError("failed to list places", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, 0, apperrors.NewInternalError("failed to commit read transaction", err)
	}

	return toPlaces(rows), total, nil
}

// ListByIDs retrieves the places among ids with the given status, keeping the order of ids
func (a *PlaceAdapter) ListByIDs(ctx context.Context, ids []string, status entities.PlaceStatus) ([]*entities.Place, error) {
	if len(ids) == 0 {
		return []*entities.Place{}, nil
	}

	query, args, err := a.db.From("places").
		Select(placeColumns...).
		Where(goqu.Ex{"id": ids, "status": string(status)}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	var rows []placeRow
	if err := a.client.DB().SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, apperrors.NewInternalError("failed to list places by id", err)
	}

	byID := make(map[string]*entities.Place, len(rows))
	for i := range rows {
		byID[rows[i].ID] = rows[i].toEntity()
	}
	places := make([]*entities.Place, 0, len(rows))
	for _, id := range ids {
		if place, ok := byID[id]; ok {
			places = append(places, place)
		}
	}

	return places, nil
}

// ListByStatus retrieves every place with the given status, oldest first
func (a *PlaceAdapter) ListByStatus(ctx context.Context, status entities.PlaceStatus) ([]*entities.Place, error) {
	query, args, err := a.db.From("places").
		Select(placeColumns...).
		Where(goqu.Ex{"status": string(status)}).
		Order(goqu.C("created_at").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	var rows []placeRow
	if err := a.client.DB().SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, apperrors.NewInternalError("failed to list places by status", err)
	}

	return toPlaces(rows), nil
}

// ListMap retrieves the map projection of places with the given status
func (a *PlaceAdapter) ListMap(ctx context.Context, status entities.PlaceStatus) ([]*entities.MapPlace, error) {
	query, args, err := a.db.From("places").
		Select("id", "title", "description", "longitude", "latitude", "avg_rating", "reviews_count").
		Where(goqu.Ex{"status": string(status)}).
		Order(goqu.C("created_at").Desc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	var rows []struct {
		ID           string  `db:"id"`
		Title        string  `db:"title"`
		Description  string  `db:"description"`
		Longitude    float64 `db:"longitude"`
		Latitude     float64 `db:"latitude"`
		AvgRating    float64 `db:"avg_rating"`
		ReviewsCount int     `db:"reviews_count"`
	}
	if err := a.client.DB().SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, apperrors.NewInternalError("failed to list map places", err)
	}

	places := make([]*entities.MapPlace, 0, len(rows))
	for _, r := range rows {
		places = append(places, &entities.MapPlace{
			ID:           r.ID,
			Title:        r.Title,
			Description:  r.Description,
			Location:     entities.Location{Longitude: r.Longitude, Latitude: r.Latitude},
			AvgRating:    r.AvgRating,
			ReviewsCount: r.ReviewsCount,
		})
	}

	return places, nil
}

// ListIDs returns the IDs of every place
func (a *PlaceAdapter) ListIDs(ctx context.Context) ([]string, error) {
	query, args, err := a.db.From("places").Select("id").Order(goqu.C("created_at").Asc()).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	ids := []string{}
	if err := a.client.DB().SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, apperrors.NewInternalError("failed to list place ids", err)
	}

	return ids, nil
}
