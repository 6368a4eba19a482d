package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/config"
	"quiz-attempt-service/internal/domain"
	"quiz-attempt-service/internal/infra/memory"
	"quiz-attempt-service/internal/infra/postgres"
	redisstore "quiz-attempt-service/internal/infra/redis"
	"quiz-attempt-service/internal/logger"
	transport "quiz-attempt-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz attempt server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

// catalogBackend is what the quiz cache loads from and authoring writes to.
type catalogBackend interface {
	app.CatalogStore
	memory.QuizLoader
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Env)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Postgres.URL != "" {
		if err := runMigrations(ctx, cfg, log); err != nil {
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

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var catalog catalogBackend
	if pool != nil {
		catalog = postgres.NewCatalogStore(pool)
	} else {
		demo := memory.NewCatalogStore()
		demo.Seed(sampleQuizzes()...)
		catalog = demo
		log.Warn("postgres not configured, serving in-memory sample quizzes")
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo app.QuizRepository
	if redisClient != nil {
		quizRepo = redisstore.NewQuizRepository(redisClient, catalog, quizTTL)
	} else {
		quizRepo = memory.NewQuizRepository(catalog, quizTTL)
	}

	var attemptStore app.AttemptStore
	switch {
	case pool != nil:
		attemptStore = postgres.NewAttemptStore(pool)
	case redisClient != nil:
		attemptStore = redisstore.NewAttemptStore(redisClient, config.TTLDuration(cfg.Redis.AttemptTTL, 7*24*time.Hour))
	default:
		attemptStore = memory.NewAttemptStore()
	}

	attempts := app.NewAttemptService(attemptStore, quizRepo, log, app.WithUpdateRetries(cfg.Attempts.UpdateRetries))
	catalogService := app.NewCatalogService(catalog, quizRepo, log)
	timeLimit := config.TTLDuration(cfg.Attempts.QuestionTimeLimit, domain.QuestionTimeLimit)
	api := transport.NewAPI(attempts, catalogService, log, timeLimit)

	// WriteTimeout stays unset: websocket connections outlive any single request deadline.
	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     api.Handler(),
		ReadTimeout: 15 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting quiz attempt service", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// sampleQuizzes seeds the in-memory catalog when no database is configured.
func sampleQuizzes() []domain.QuizContent {
	return []domain.QuizContent{
		{
			Quiz: domain.Quiz{
				ID:          "quiz-1",
				Title:       "Warm-up",
				Description: "Two quick questions",
				CreatedBy:   "system",
				CreatedAt:   time.Now().UTC(),
				Published:   true,
			},
			Questions: []domain.Question{
				{
					ID:   "q1",
					Text: "What is 2 + 2?",
					Options: []domain.Option{
						{ID: "o1", Text: "3"},
						{ID: "o2", Text: "4"},
						{ID: "o3", Text: "5"},
					},
					CorrectAnswers: []string{"o2"},
					Hints:          []string{"It is an even number", "It is greater than three"},
					Type:           domain.QuestionSingle,
				},
				{
					ID:   "q2",
					Text: "Which of these are prime?",
					Options: []domain.Option{
						{ID: "o1", Text: "2"},
						{ID: "o2", Text: "4"},
						{ID: "o3", Text: "7"},
						{ID: "o4", Text: "9"},
					},
					CorrectAnswers: []string{"o1", "o3"},
					Hints:          []string{"A prime has exactly two divisors"},
					Type:           domain.QuestionMultiple,
				},
			},
		},
	}
}
