package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/dukerupert/allowance/internal/handler"
	"github.com/dukerupert/allowance/internal/ledger"
	"github.com/dukerupert/allowance/internal/middleware"
	"github.com/dukerupert/allowance/internal/money"
	"github.com/dukerupert/allowance/internal/store"
	ws "github.com/dukerupert/allowance/internal/websocket"
)

type Config struct {
	JWTSecret          string
	RateLimitPerMinute int
	Location           *time.Location
	Currency           string
	// Clock overrides the wall clock, for tests.
	Clock ledger.Clock
}

type Server struct {
	db          *sqlx.DB
	hub         *ws.Hub
	svc         *ledger.Service
	taskH       *handler.TaskHandler
	memberH     *handler.MemberHandler
	rateLimiter *middleware.RateLimiter
	cfg         Config
	logger      *slog.Logger
}

func New(db *sqlx.DB, cfg Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	svc := ledger.New(db, ledger.Options{
		Location: cfg.Location,
		Clock:    cfg.Clock,
		Notifier: hub,
		Logger:   logger,
	})

	memberStore := store.NewMemberStore(db)
	taskStore := store.NewTaskStore(db)
	completionStore := store.NewCompletionStore(db)

	return &Server{
		db:          db,
		hub:         hub,
		svc:         svc,
		taskH:       handler.NewTaskHandler(taskStore, memberStore, completionStore, svc, logger.With("component", "task")),
		memberH:     handler.NewMemberHandler(memberStore, svc, money.NewFormatter(cfg.Currency), logger.With("component", "member")),
		rateLimiter: middleware.NewRateLimiter(),
		cfg:         cfg,
		logger:      logger,
	}
}

// Ledger returns the ledger service the handlers use.
func (s *Server) Ledger() *ledger.Service {
	return s.svc
}

// RunCleanup prunes rate limiter entries until ctx is done.
func (s *Server) RunCleanup(ctx context.Context) {
	s.rateLimiter.Run(ctx, 5*time.Minute)
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireToken(s.cfg.JWTSecret)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestID(middleware.RequestLogger(s.logger.With("component", "http"))(outerMux))
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	if err := s.db.PingContext(r.Context()); err != nil {
		status, code = "db unavailable", http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"status": status})
}

// limited rate-limits writes per member.
func (s *Server) limited(h http.HandlerFunc) http.HandlerFunc {
	limit := s.cfg.RateLimitPerMinute
	if limit <= 0 {
		return h
	}
	rl := middleware.RateLimit(s.rateLimiter, middleware.MemberKey, limit, time.Minute)
	return rl(h).ServeHTTP
}

func parentOnly(h http.HandlerFunc) http.HandlerFunc {
	return middleware.RequireParent(h).ServeHTTP
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	// Task editor
	mux.HandleFunc("GET /api/tasks", s.taskH.List)
	mux.HandleFunc("POST /api/tasks", parentOnly(s.taskH.Create))
	mux.HandleFunc("PUT /api/tasks/{id}", parentOnly(s.taskH.Update))
	mux.HandleFunc("DELETE /api/tasks/{id}", parentOnly(s.taskH.Delete))
	mux.HandleFunc("GET /api/tasks/today", s.taskH.Today)
	mux.HandleFunc("GET /api/routines", s.taskH.ListRoutines)
	mux.HandleFunc("POST /api/routines", parentOnly(s.taskH.CreateRoutine))

	// Completions
	mux.HandleFunc("POST /api/tasks/{id}/complete", s.limited(s.taskH.Complete))
	mux.HandleFunc("DELETE /api/completions/{id}", s.limited(s.taskH.Undo))

	// Members
	mux.HandleFunc("GET /api/members", s.memberH.List)
	mux.HandleFunc("POST /api/members", parentOnly(s.memberH.Create))
	mux.HandleFunc("POST /api/members/{id}/pin", s.memberH.SetPIN)
	mux.HandleFunc("DELETE /api/members/{id}/pin", s.memberH.ClearPIN)

	// Dashboard reads
	mux.HandleFunc("GET /api/members/{id}/balance", s.memberH.Balance)
	mux.HandleFunc("GET /api/members/{id}/transactions", s.memberH.Transactions)
	mux.HandleFunc("GET /api/members/{id}/streaks", s.memberH.Streaks)
	mux.HandleFunc("GET /api/members/{id}/completions", s.memberH.Completions)

	// Money out
	mux.HandleFunc("POST /api/members/{id}/payout", s.limited(parentOnly(s.memberH.Payout)))
	mux.HandleFunc("POST /api/members/{id}/adjustments", s.limited(parentOnly(s.memberH.Adjust)))

	// Event stream
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket")))
}
