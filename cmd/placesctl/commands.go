package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spottica/backend/internal/adapters/database"
	"github.com/spottica/backend/internal/adapters/events"
	"github.com/spottica/backend/internal/application/services"
	"github.com/spottica/backend/internal/domain/providers"
	"github.com/spottica/backend/internal/infrastructure/clients/postgres"
	"github.com/spottica/backend/internal/infrastructure/clients/redis"
	"github.com/spottica/backend/internal/infrastructure/observability"
	"github.com/spottica/backend/pkg/config"
)

// env is the state shared by every subcommand once PersistentPreRunE ran
type env struct {
	cfg *config.Config
	db  *postgres.Client
}

func rootCommand() *cobra.Command {
	e := &env{}

	rootCmd := &cobra.Command{
		Use:           "placesctl",
		Short:         "Operator tasks for the places backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		observability.InitLogger("placesctl", cfg.Env)

		db, err := postgres.NewClient(&cfg.Database)
		if err != nil {
			return err
		}
		e.cfg, e.db = cfg, db
		return nil
	}
	rootCmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if e.db != nil {
			return e.db.Close()
		}
		return nil
	}

	rootCmd.AddCommand(
		migrateCommand(e),
		promoteCommand(e),
		recomputeCommand(e),
	)
	return rootCmd
}

// maintenance builds the service. Stats events go out over Redis when it is
// reachable so running API instances evict their cached copies.
func (e *env) maintenance() (*services.MaintenanceService, func()) {
	places := database.NewPlaceAdapter(e.db)

	var bus providers.EventBus
	closeBus := func() {}
	if client, err := redis.NewClient(&e.cfg.Redis); err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, cache eviction events will not be published")
	} else {
		bus = events.NewRedisEventBus(client)
		closeBus = func() {
			_ = bus.Close()
			_ = client.Close()
		}
	}

	aggregator := services.NewRatingAggregator(places, nil, bus)
	return services.NewMaintenanceService(database.NewUserAdapter(e.db), places, aggregator), closeBus
}

func migrateCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create missing tables and indexes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.db.EnsureSchema(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
}

func promoteCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "promote <email>",
		Short: "Grant the admin role to a registered user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			maintenance, done := e.maintenance()
			defer done()

			user, err := maintenance.Promote(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) is now %s\n", user.Email, user.ID, user.Role)
			return nil
		},
	}
}

func recomputeCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "recompute-stats",
		Short: "Rebuild avgRating and reviewsCount of every place from its reviews",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			maintenance, done := e.maintenance()
			defer done()

			n, err := maintenance.RecomputeAll(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "recomputed %d places\n", n)
			return err
		},
	}
}
