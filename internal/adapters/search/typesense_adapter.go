package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spottica/backend/internal/domain/entities"
	"github.com/spottica/backend/internal/domain/repositories"
	tsclient "github.com/spottica/backend/internal/infrastructure/clients/typesense"
	"github.com/typesense/typesense-go/v2/typesense"
	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"
)

// TypesenseAdapter implements place full-text search using Typesense
type TypesenseAdapter struct {
	client *tsclient.Client
}

var _ repositories.PlaceSearchRepository = (*TypesenseAdapter)(nil)

// NewTypesenseAdapter creates a new Typesense adapter
func NewTypesenseAdapter(client *tsclient.Client) *TypesenseAdapter {
	return &TypesenseAdapter{client: client}
}

// Index upserts a place document
func (a *TypesenseAdapter) Index(ctx context.Context, place *entities.Place) error {
	_, err := a.client.Client().Collection(tsclient.PlacesCollection).Documents().Upsert(ctx, placeDocument(place))
	if err != nil {
		return fmt.Errorf("failed to index place %s: %w", place.ID, err)
	}
	return nil
}

// Delete removes a place from the index. A place that was never indexed is not an error.
func (a *TypesenseAdapter) Delete(ctx context.Context, id string) error {
	_, err := a.client.Client().Collection(tsclient.PlacesCollection).Document(id).Delete(ctx)
	var httpErr *typesense.HTTPError
	if errors.As(err, &httpErr) && httpErr.Status == http.StatusNotFound {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete place %s from index: %w", id, err)
	}
	return nil
}

// Search runs a full-text query over title and description
func (a *TypesenseAdapter) Search(ctx context.Context, filter repositories.PlaceFilter) ([]*entities.Place, int, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}

	params := &api.SearchCollectionParams{
		Q:       pointer.String(filter.Search),
		QueryBy: pointer.String("title,description"),
		SortBy:  pointer.String("_text_match:desc,created_at:desc"),
		Page:    pointer.Int(filter.Offset/limit + 1),
		PerPage: pointer.Int(limit),
	}
	if expr := filterBy(filter); expr != "" {
		params.FilterBy = pointer.String(expr)
	}

	result, err := a.client.Client().Collection(tsclient.PlacesCollection).Documents().Search(ctx, params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search places: %w", err)
	}

	places := []*entities.Place{}
	if result.Hits != nil {
		for _, hit := range *result.Hits {
			if hit.Document == nil {
				continue
			}
			places = append(places, placeFromDocument(*hit.Document))
		}
	}

	total := len(places)
	if result.Found != nil {
		total = *result.Found
	}

	return places, total, nil
}

func filterBy(filter repositories.PlaceFilter) string {
	var clauses []string
	if filter.Status != "" {
		clauses = append(clauses, "status:="+string(filter.Status))
	}
	if filter.MinRating != nil {
		clauses = append(clauses, fmt.Sprintf("avg_rating:>=%g", *filter.MinRating))
	}
	return strings.Join(clauses, " && ")
}

func placeDocument(place *entities.Place) map[string]interface{} {
	return map[string]interface{}{
		"id":            place.ID,
		"title":         place.Title,
		"description":   place.Description,
		"address":       place.Address,
		"location":      []float64{place.Location.Latitude, place.Location.Longitude},
		"status":        string(place.Status),
		"author_id":     place.AuthorID,
		"avg_rating":    place.AvgRating,
		"reviews_count": place.ReviewsCount,
		"created_at":    place.CreatedAt.Unix(),
		"updated_at":    place.UpdatedAt.Unix(),
	}
}

func placeFromDocument(doc map[string]interface{}) *entities.Place {
	place := &entities.Place{
		ID:          stringField(doc, "id"),
		Title:       stringField(doc, "title"),
		Description: stringField(doc, "description"),
		Address:     stringField(doc, "address"),
		Status:      entities.PlaceStatus(stringField(doc, "status")),
		AuthorID:    stringField(doc, "author_id"),
		AvgRating:   numberField(doc, "avg_rating"),
	}
	place.ReviewsCount = int(numberField(doc, "reviews_count"))

	if loc, ok := doc["location"].([]interface{}); ok && len(loc) == 2 {
		lat, _ := loc[0].(float64)
		lng, _ := loc[1].(float64)
		place.Location = entities.Location{Latitude: lat, Longitude: lng}
	}
	if ts := numberField(doc, "created_at"); ts > 0 {
		place.CreatedAt = time.Unix(int64(ts), 0).UTC()
	}
	if ts := numberField(doc, "updated_at"); ts > 0 {
		place.UpdatedAt = time.Unix(int64(ts), 0).UTC()
	}

	return place
}

func stringField(doc map[string]interface{}, key string) string {
	s, _ := doc[key].(string)
	return s
}

func numberField(doc map[string]interface{}, key string) float64 {
	switch v := doc[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}
