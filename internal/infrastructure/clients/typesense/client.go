package typesense

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spottica/backend/pkg/config"
	"github.com/spottica/backend/pkg/retry"
	"github.com/typesense/typesense-go/v2/typesense"
	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"
)

const (
	PlacesCollection = "places"
)

// Client represents a Typesense client
type Client struct {
	client *typesense.Client
}

// NewClient creates a new Typesense client with exponential backoff retry
func NewClient(cfg *config.TypesenseConfig) (*Client, error) {
	client := typesense.NewClient(
		typesense.WithServer(cfg.URL),
		typesense.WithAPIKey(cfg.APIKey),
		typesense.WithConnectionTimeout(5*time.Second),
	)

	err := retry.DoWithLog(
		context.Background(),
		retry.DefaultConfig(),
		"Typesense",
		func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_, err := client.Health(ctx, 2*time.Second)
			return err
		},
		func(attempt int, err error, nextDelay time.Duration) {
			log.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", nextDelay).Msg("Typesense connection attempt failed")
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Typesense after retries: %w", err)
	}

	log.Info().Str("url", cfg.URL).Msg("connected to Typesense")
	return &Client{client: client}, nil
}

// Client returns the underlying Typesense client
func (c *Client) Client() *typesense.Client {
	return c.client
}

// PlacesSchema is the collection schema for approved places
func PlacesSchema() *api.CollectionSchema {
	return &api.CollectionSchema{
		Name: PlacesCollection,
		Fields: []api.Field{
			{Name: "id", Type: "string"},
			{Name: "title", Type: "string"},
			{Name: "description", Type: "string"},
			{Name: "address", Type: "string", Optional: pointer.True()},
			{Name: "location", Type: "geopoint"},
			{Name: "status", Type: "string", Facet: pointer.True()},
			{Name: "author_id", Type: "string", Index: pointer.False(), Optional: pointer.True()},
			{Name: "avg_rating", Type: "float", Facet: pointer.True()},
			{Name: "reviews_count", Type: "int32"},
			{Name: "created_at", Type: "int64"},
			{Name: "updated_at", Type: "int64", Optional: pointer.True()},
		},
		DefaultSortingField: pointer.String("created_at"),
	}
}

// InitSchema ensures the places collection exists
func (c *Client) InitSchema(ctx context.Context) error {
	collections, err := c.client.Collections().Retrieve(ctx)
	if err != nil {
		return fmt.Errorf("failed to retrieve collections: %w", err)
	}

	for _, col := range collections {
		if col.Name == PlacesCollection {
			return nil
		}
	}

	if _, err := c.client.Collections().Create(ctx, PlacesSchema()); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	log.Info().Str("collection", PlacesCollection).Msg("created Typesense collection")
	return nil
}

// ResetSchema drops and recreates the places collection
func (c *Client) ResetSchema(ctx context.Context) error {
	if _, err := c.client.Collection(PlacesCollection).Delete(ctx); err != nil {
		log.Warn().Err(err).Str("collection", PlacesCollection).Msg("drop collection failed, continuing")
	}
	return c.InitSchema(ctx)
}
