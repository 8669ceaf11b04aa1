package server

import (
	"context"
	"net/http"
	"slices"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/bavakarni05/quizapp/internal/auth"
	"github.com/bavakarni05/quizapp/internal/config"
	"github.com/bavakarni05/quizapp/internal/leaderboard"
	"github.com/bavakarni05/quizapp/internal/question"
	"github.com/bavakarni05/quizapp/internal/room"
	"github.com/bavakarni05/quizapp/internal/user"
)

// Handlers bundles the HTTP surfaces wired into the mux.
type Handlers struct {
	Auth        *auth.HTTPHandlers
	AuthSvc     *auth.Service
	Users       *user.HTTPHandlers
	Rooms       *room.HTTPHandlers
	Questions   *question.HTTPHandlers
	Leaderboard *leaderboard.HTTPHandler
	QuizWS      http.HandlerFunc
}

// NewHTTPServer wires every route for the API service.
func NewHTTPServer(cfg *config.App, logger zerolog.Logger, pool *pgxpool.Pool, rdb *redis.Client, h Handlers) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /v1/ping", func(w http.ResponseWriter, r *http.Request) {
		if err := pingDependencies(r.Context(), pool, rdb); err != nil {
			logger.Error().Err(err).Msg("dependency ping failed")
			http.Error(w, "upstream error", http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"pong":true}`))
	})

	mux.HandleFunc("POST /v1/auth/signup", h.Auth.Signup)
	mux.HandleFunc("POST /v1/auth/login", h.Auth.Login)

	mux.HandleFunc("GET /v1/users/me", h.AuthSvc.RequireAuth(h.Users.GetMe))
	mux.HandleFunc("GET /v1/users/me/answers", h.AuthSvc.RequireAuth(h.Users.GetMyAnswers))

	mux.HandleFunc("POST /v1/rooms", h.AuthSvc.RequireRole(auth.RoleHost, h.Rooms.Create))
	mux.HandleFunc("GET /v1/rooms", h.AuthSvc.RequireAuth(h.Rooms.ListMine))
	mux.HandleFunc("GET /v1/rooms/{roomKey}", h.Rooms.Get)
	mux.HandleFunc("GET /v1/rooms/{roomKey}/players", h.Rooms.Players)
	mux.HandleFunc("POST /v1/rooms/{roomKey}/join", h.AuthSvc.RequireRole(auth.RolePlayer, h.Rooms.JoinAsPlayer))
	mux.HandleFunc("POST /v1/rooms/{roomKey}/host", h.AuthSvc.RequireRole(auth.RoleHost, h.Rooms.JoinAsHost))
	mux.HandleFunc("POST /v1/rooms/{roomKey}/start", h.AuthSvc.RequireRole(auth.RoleHost, h.Rooms.Start))

	mux.HandleFunc("POST /v1/rooms/{roomID}/questions", h.AuthSvc.RequireRole(auth.RoleHost, h.Questions.Add))
	mux.HandleFunc("GET /v1/rooms/{roomID}/questions", h.AuthSvc.RequireRole(auth.RoleHost, h.Questions.List))

	mux.HandleFunc("GET /v1/leaderboard", h.Leaderboard.HandleGet)

	mux.HandleFunc("GET /ws/quiz", h.QuizWS)

	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: corsMiddleware(cfg, mux),
	}
}

func pingDependencies(ctx context.Context, pool *pgxpool.Pool, rdb *redis.Client) error {
	if err := pool.Ping(ctx); err != nil {
		return err
	}
	return rdb.Ping(ctx).Err()
}

func corsMiddleware(cfg *config.App, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && originAllowed(cfg.CORS.AllowedOrigins, origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
			if cfg.CORS.AllowCredentials {
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func originAllowed(allowed []string, origin string) bool {
	if slices.Contains(allowed, "*") {
		return true
	}
	return slices.Contains(allowed, origin)
}
