package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/config"
	"trivia-quiz-service/internal/domain"
	"trivia-quiz-service/internal/infra/memory"
	pgstore "trivia-quiz-service/internal/infra/postgres"
	redisstore "trivia-quiz-service/internal/infra/redis"
	"trivia-quiz-service/internal/opentdb"
	transport "trivia-quiz-service/internal/transport/http"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	// Postgres is the durable backend of choice; Redis serves smaller
	// deployments, and the in-memory store covers local development.
	var quizStore app.QuizStore
	switch {
	case pool != nil:
		quizStore = pgstore.NewQuizStore(pool)
	case redisClient != nil:
		quizTTL := config.TTLDuration(cfg.Redis.TTL, 0)
		quizStore = redisstore.NewQuizStore(redisClient, quizTTL)
	default:
		quizStore = memory.NewQuizStore()
	}

	categoryTTL := config.TTLDuration(cfg.Quiz.CategoryTTL, 10*time.Minute)
	var categories app.CategorySource
	if pool != nil {
		categories = memory.NewCategoryCache(pgstore.NewCategoryStore(pool), categoryTTL)
	} else {
		categories = memory.NewStaticCategorySource(defaultCategories())
	}

	upstreamTimeout := config.TTLDuration(cfg.OpenTDB.Timeout, opentdb.DefaultTimeout)
	upstream := opentdb.NewClient(cfg.OpenTDB.BaseURL, upstreamTimeout)

	service := app.NewQuizService(quizStore, categories, upstream, cfg.Quiz.MaxQuestions)

	mux := http.NewServeMux()
	transport.NewHandler(service).Register(mux)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting trivia service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// defaultCategories is the fallback taxonomy when Postgres is not configured;
// run the seed command against a database for the full upstream list.
func defaultCategories() []domain.Category {
	return []domain.Category{
		{ID: 9, Name: "General Knowledge"},
		{ID: 17, Name: "Science & Nature"},
		{ID: 21, Name: "Sports"},
		{ID: 22, Name: "Geography"},
		{ID: 23, Name: "History"},
	}
}
