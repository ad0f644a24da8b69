package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spottica/backend/internal/adapters/database"
	"github.com/spottica/backend/internal/adapters/search"
	"github.com/spottica/backend/internal/application/services"
	"github.com/spottica/backend/internal/infrastructure/clients/postgres"
	"github.com/spottica/backend/internal/infrastructure/clients/typesense"
	"github.com/spottica/backend/internal/infrastructure/observability"
	"github.com/spottica/backend/pkg/config"
)

func main() {
	var reset bool
	var intervalFlag string
	flag.BoolVar(&reset, "reset", false, "drop the Typesense collection before reindexing")
	flag.StringVar(&intervalFlag, "interval", "", "repeat interval for reindexing (e.g. 6h, 30m)")
	flag.Parse()

	intervalValue := strings.TrimSpace(intervalFlag)
	if intervalValue == "" {
		intervalValue = strings.TrimSpace(os.Getenv("REINDEX_INTERVAL"))
	}

	var interval time.Duration
	if intervalValue != "" {
		var err error
		interval, err = time.ParseDuration(intervalValue)
		if err != nil {
			log.Fatal().Err(err).Str("interval", intervalValue).Msg("invalid interval")
		}
		if interval <= 0 {
			log.Fatal().Msg("interval must be greater than zero")
		}
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	observability.InitLogger("spottica-indexer", cfg.Env)
	if cfg.Typesense.URL == "" {
		log.Fatal().Msg("TYPESENSE_URL is not set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for {
		if err := indexOnce(ctx, cfg, reset); err != nil {
			log.Error().Err(err).Msg("reindex failed")
		}

		if interval <= 0 {
			break
		}

		reset = false
		log.Info().Dur("next_run_in", interval).Msg("reindex complete")

		select {
		case <-ctx.Done():
			log.Info().Msg("reindexer shutting down")
			return
		case <-time.After(interval):
		}
	}
}

func indexOnce(ctx context.Context, cfg *config.Config, reset bool) error {
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		return err
	}
	defer pgClient.Close()

	tsClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		return err
	}

	if reset || os.Getenv("RESET_TYPESENSE") == "true" {
		log.Info().Msg("reset requested, recreating places collection")
		err = tsClient.ResetSchema(ctx)
	} else {
		err = tsClient.InitSchema(ctx)
	}
	if err != nil {
		return err
	}

	indexer := services.NewIndexerService(database.NewPlaceAdapter(pgClient), search.NewTypesenseAdapter(tsClient))
	indexed, err := indexer.Reindex(ctx)
	log.Info().Int("indexed", indexed).Msg("places indexed")
	return err
}
