// Package http exposes the ledger as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	plog "planner/internal/log"
	"planner/internal/middleware/ratelimit"
	"planner/internal/middleware/security"
	"planner/internal/middleware/trace"
	"planner/internal/services"
)

// DefaultMaxBodyBytes bounds JSON bodies and uploaded import files.
const DefaultMaxBodyBytes = 10 << 20

type Options struct {
	RateLimitRPS   float64
	RateLimitBurst int
	MaxBodyBytes   int64
	Logger         *plog.Logger
}

type Server struct {
	http.Server
	ledger   *services.LedgerService
	validate *validator.Validate
	limiter  *ratelimit.Limiter
	tracer   *trace.Middleware
	maxBody  int64
	started  time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, ledger *services.LedgerService, opts Options) *Server {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.Logger == nil {
		opts.Logger = plog.New(plog.DefaultConfig()).WithComponent(plog.ComponentHTTP)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(jsonFieldName)

	s := &Server{
		ledger:   ledger,
		validate: validate,
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerSecond: opts.RateLimitRPS,
			Burst:             opts.RateLimitBurst,
		}),
		tracer:  trace.NewMiddleware(extractClientIP),
		maxBody: opts.MaxBodyBytes,
		started: time.Now(),
	}

	mux := http.NewServeMux()
	s.routes(mux)

	var handler http.Handler = mux
	handler = s.limiter.Middleware(extractClientIP, s.handleRateLimited)(handler)
	handler = s.tracer.Middleware(handler)
	handler = security.Headers(security.DefaultHeadersConfig())(handler)
	handler = plog.Middleware(opts.Logger)(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/entries", s.handleListEntries)
	mux.HandleFunc("POST /api/entries", s.handleCreateEntry)
	mux.HandleFunc("PUT /api/entries/{id}", s.handleUpdateEntry)
	mux.HandleFunc("DELETE /api/entries/{id}", s.handleDeleteEntry)

	mux.HandleFunc("GET /api/recurring", s.handleListRules)
	mux.HandleFunc("POST /api/recurring", s.handleCreateRule)
	mux.HandleFunc("POST /api/recurring/materialize", s.handleMaterialize)
	mux.HandleFunc("PUT /api/recurring/{id}", s.handleUpdateRule)
	mux.HandleFunc("DELETE /api/recurring/{id}", s.handleDeleteRule)

	mux.HandleFunc("GET /api/goals", s.handleListGoals)
	mux.HandleFunc("POST /api/goals", s.handleCreateGoal)
	mux.HandleFunc("GET /api/goals/progress", s.handleGoalProgress)
	mux.HandleFunc("DELETE /api/goals/{id}", s.handleDeleteGoal)

	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("POST /api/categories", s.handleAddCategory)
	mux.HandleFunc("DELETE /api/categories/{kind}/{name}", s.handleDeleteCategory)

	mux.HandleFunc("GET /api/settings/currency", s.handleGetCurrency)
	mux.HandleFunc("PUT /api/settings/currency", s.handleSetCurrency)

	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /api/suggestions", s.handleSuggestions)

	mux.HandleFunc("GET /api/export/csv", s.handleExportCSV)
	mux.HandleFunc("GET /api/export/json", s.handleExportJSON)
	mux.HandleFunc("GET /api/export/xlsx", s.handleExportXLSX)
	mux.HandleFunc("POST /api/import/csv", s.handleImportCSV)
	mux.HandleFunc("POST /api/import/json", s.handleImportJSON)
	mux.HandleFunc("POST /api/import/xlsx", s.handleImportXLSX)

	mux.HandleFunc("POST /api/sync/push", s.handleSyncPush)
	mux.HandleFunc("POST /api/sync/reconcile", s.handleReconcile)

	mux.HandleFunc("DELETE /api/data", s.handleClearData)
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusTooManyRequests, errorResponse{
		Error:     "rate limit exceeded, please try again later",
		RequestID: trace.GetRequestID(r.Context()),
	})
}

// Shutdown stops the rate limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
