package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/bavakarni05/quizapp/internal/auth"
	"github.com/bavakarni05/quizapp/internal/config"
	"github.com/bavakarni05/quizapp/internal/db/repository"
	"github.com/bavakarni05/quizapp/internal/leaderboard"
	"github.com/bavakarni05/quizapp/internal/logging"
	"github.com/bavakarni05/quizapp/internal/question"
	"github.com/bavakarni05/quizapp/internal/quiz"
	"github.com/bavakarni05/quizapp/internal/room"
	"github.com/bavakarni05/quizapp/internal/server"
	"github.com/bavakarni05/quizapp/internal/user"
	ws "github.com/bavakarni05/quizapp/pkg/http/ws"
)

// Application aggregates shared infrastructure (DB, cache, HTTP server).
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	pool  *pgxpool.Pool
	redis *redis.Client
	http  *http.Server

	answerWriter *quiz.AnswerWriter
	bgCancels    []context.CancelFunc
}

// New bootstraps config, logger, Postgres, Redis and the HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	logger.Info().Msg("starting application bootstrap")

	connString := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s pool_max_conns=10",
		cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.Database, cfg.Postgres.SSLMode)

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	userRepo := repository.NewUserRepository(pool)
	roomRepo := repository.NewRoomRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	quizStore := quiz.NewPGStore(roomRepo, questionRepo, userRepo)

	tokens := auth.NewTokenManager(auth.TokenConfig{
		Secret: []byte(cfg.Security.JWTSecret),
		TTL:    cfg.Security.TokenTTL,
		Issuer: cfg.Name,
	})
	authSvc := auth.NewService(userRepo, tokens, logger)
	authHandlers := auth.NewHTTPHandlers(authSvc, logger)

	wsHub := ws.NewHub(logger)
	leaderboardSvc := leaderboard.NewService(redisClient, logger, leaderboard.ServiceOptions{})

	registry := quiz.NewRegistry()
	answerWriter := quiz.NewAnswerWriter(quizStore, cfg.Quiz.AnswerWriteBuffer, cfg.Quiz.AnswerWriteTimeout, logger)
	coordinator := quiz.NewCoordinator(registry, quizStore, wsHub, answerWriter, quiz.CoordinatorOptions{
		StartGraceDelay: cfg.Quiz.StartGraceDelay,
		Results:         leaderboardSvc,
	}, logger)
	quizHandler := quiz.NewHandler(coordinator, wsHub, authSvc, logger)

	questionCache := question.NewCache(redisClient, 0)
	questionSvc := question.NewService(questionRepo, questionCache, logger)
	questionHandlers := question.NewHTTPHandlers(questionSvc, logger)

	roomSvc := room.NewService(roomRepo, wsHub, logger)
	roomHandlers := room.NewHTTPHandlers(roomSvc, coordinator, logger)

	userHandlers := user.NewHTTPHandlers(userRepo, logger)
	lbHTTPHandler := leaderboard.NewHTTPHandler(leaderboardSvc, logger)

	apiServer := server.NewHTTPServer(cfg, logger, pool, redisClient, server.Handlers{
		Auth:        authHandlers,
		AuthSvc:     authSvc,
		Users:       userHandlers,
		Rooms:       roomHandlers,
		Questions:   questionHandlers,
		Leaderboard: lbHTTPHandler,
		QuizWS:      quizHandler.HandleWebSocket,
	})

	return &Application{
		cfg:          cfg,
		logger:       logger,
		pool:         pool,
		redis:        redisClient,
		http:         apiServer,
		answerWriter: answerWriter,
		bgCancels:    make([]context.CancelFunc, 0, 1),
	}, nil
}

// Run starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	a.startBackgroundWorkers(ctx)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}

	for _, cancel := range a.bgCancels {
		cancel()
	}

	a.pool.Close()
	if err := a.redis.Close(); err != nil {
		a.logger.Error().Err(err).Msg("redis shutdown error")
	}

	a.logger.Info().Msg("shutdown complete")
	return nil
}

func (a *Application) startBackgroundWorkers(ctx context.Context) {
	bgCtx, cancel := context.WithCancel(ctx)
	a.bgCancels = append(a.bgCancels, cancel)
	go func() {
		if err := a.answerWriter.Run(bgCtx); err != nil && err != context.Canceled {
			a.logger.Warn().Err(err).Msg("answer writer stopped")
		}
	}()
}
