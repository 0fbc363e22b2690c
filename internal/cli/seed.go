package cli

import (
	"context"
	"fmt"
	"log"

	"trivia-quiz-service/internal/config"
	pgstore "trivia-quiz-service/internal/infra/postgres"
	"trivia-quiz-service/internal/opentdb"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"
)

// NewSeedCmd loads the upstream category taxonomy into Postgres. Categories
// are stable reference data; re-running refreshes names in place.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed categories from the upstream trivia source",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), *configPath)
		},
	}
}

func runSeed(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}

	if err := runMigrationsWithConfig(ctx, cfg); err != nil {
		return err
	}

	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	upstreamTimeout := config.TTLDuration(cfg.OpenTDB.Timeout, opentdb.DefaultTimeout)
	upstream := opentdb.NewClient(cfg.OpenTDB.BaseURL, upstreamTimeout)

	categories, err := upstream.FetchCategories(ctx)
	if err != nil {
		return err
	}

	if err := pgstore.NewCategoryStore(pool).Upsert(ctx, categories); err != nil {
		return err
	}
	log.Printf("seeded %d categories", len(categories))
	return nil
}
