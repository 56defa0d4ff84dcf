package observe

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hordecore/hordecore/internal/persist"
)

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
	leaderboardTimeout      = 3 * time.Second
)

// Leaderboard reads ranked verified scores.
type Leaderboard interface {
	Top(ctx context.Context, mapID string, limit int) ([]persist.LeaderboardRow, error)
}

// RouterConfig holds the router's collaborators. Board is required; a nil
// Hub, Metrics or Leaderboard leaves its route unmounted.
type RouterConfig struct {
	Board       *Board
	Hub         *Hub
	Metrics     *Metrics
	Leaderboard Leaderboard
	CORSOrigins []string
	Log         *zap.Logger
}

// NewRouter builds the debug HTTP surface. It starts no goroutines and opens
// no listeners.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	if cfg.Log != nil {
		r.Use(requestLogger(cfg.Log))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Get("/snapshot", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, cfg.Board.Snapshot())
	})
	r.Get("/meta", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, cfg.Board.Profile())
	})
	r.Get("/summary", func(w http.ResponseWriter, _ *http.Request) {
		sum, ok := cfg.Board.Summary()
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "run in progress"})
			return
		}
		writeJSON(w, http.StatusOK, sum)
	})
	if cfg.Metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Metrics.Registry(), promhttp.HandlerOpts{}))
	}
	if cfg.Hub != nil {
		r.Handle("/ws", cfg.Hub)
	}
	if cfg.Leaderboard != nil {
		r.Get("/leaderboard/{map}", leaderboardHandler(cfg.Leaderboard, cfg.Log))
	}
	return r
}

func leaderboardHandler(lb Leaderboard, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultLeaderboardLimit
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
				return
			}
			limit = min(n, maxLeaderboardLimit)
		}
		ctx, cancel := context.WithTimeout(r.Context(), leaderboardTimeout)
		defer cancel()
		rows, err := lb.Top(ctx, chi.URLParam(r, "map"), limit)
		if err != nil {
			if log != nil {
				log.Warn("leaderboard query", zap.Error(err))
			}
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "leaderboard unavailable"})
			return
		}
		if rows == nil {
			rows = []persist.LeaderboardRow{}
		}
		writeJSON(w, http.StatusOK, rows)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Debug("http",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("took", time.Since(start)),
			)
		})
	}
}
