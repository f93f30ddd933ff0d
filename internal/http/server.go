// Package http serves the JSON API consumed by the desktop frontend.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"btwbuddy/internal/cache"
	"btwbuddy/internal/core"
	"btwbuddy/internal/services"
	"btwbuddy/internal/update"
)

type Server struct {
	http.Server

	transactions *services.TransactionService
	exports      *services.ExportService
	updater      *update.Updater
	versions     *update.VersionManager

	// Summaries are cheap to recompute but the frontend polls them on every
	// view change; entries are dropped on any transaction mutation.
	summaryCache *cache.LRUCache[core.MonthlySummary]
	cacheManager *cache.Manager

	rateLimiter  *rateLimiter
	shutdownOnce sync.Once
}

// NewServer configures routes and returns a ready-to-run http.Server.
func NewServer(addr string, ts *services.TransactionService, es *services.ExportService, up *update.Updater, vm *update.VersionManager) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		transactions: ts,
		exports:      es,
		updater:      up,
		versions:     vm,
		summaryCache: cache.NewLRUCache[core.MonthlySummary](100, 5*time.Minute),
		cacheManager: cache.NewManager(),
		rateLimiter:  newRateLimiter(),
	}

	s.cacheManager.Register(s.summaryCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /api/version", s.withRequestLog(s.handleVersion))

	mux.HandleFunc("GET /api/transactions", s.withRequestLog(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.withRequestLog(s.handleCreateTransaction))
	mux.HandleFunc("GET /api/transactions/{id}", s.withRequestLog(s.handleGetTransaction))
	mux.HandleFunc("PUT /api/transactions/{id}", s.withRequestLog(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.withRequestLog(s.handleDeleteTransaction))

	mux.HandleFunc("GET /api/summary", s.withRequestLog(s.handleMonthlySummary))
	mux.HandleFunc("GET /api/summary/quarters", s.withRequestLog(s.handleQuarterSummaries))
	mux.HandleFunc("GET /api/months", s.withRequestLog(s.handleMonths))
	mux.HandleFunc("POST /api/export", s.withRequestLog(s.handleExport))

	mux.HandleFunc("GET /api/templates/{kind}", s.withRequestLog(s.handleListTemplates))
	mux.HandleFunc("POST /api/templates", s.withRequestLog(s.handleCreateTemplate))
	mux.HandleFunc("PUT /api/templates/{id}", s.withRequestLog(s.handleUpdateTemplate))
	mux.HandleFunc("DELETE /api/templates/{id}", s.withRequestLog(s.handleDeleteTemplate))

	mux.HandleFunc("GET /api/update/status", s.withRequestLog(s.handleUpdateStatus))
	mux.HandleFunc("POST /api/update/check", s.withRequestLog(s.handleUpdateCheck))
	mux.HandleFunc("POST /api/update/install", s.withRequestLog(s.handleUpdateInstall))
	mux.HandleFunc("POST /api/update/defer", s.withRequestLog(s.handleUpdateDefer))

	mux.HandleFunc("GET /api/releases", s.withRequestLog(s.handleListReleases))
	mux.HandleFunc("POST /api/releases/{tag}/download", s.withRequestLog(s.handleDownloadRelease))

	return s
}

// Shutdown gracefully shuts down the server and its cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.cacheManager != nil {
			s.cacheManager.Stop()
		}
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// withRequestLog adds rate limiting and request logging to a handler.
func (s *Server) withRequestLog(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		// Rate limit mutating requests only; the frontend polls GET
		// endpoints freely.
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", clientIP)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"version": s.updater.Snapshot().CurrentVersion,
	})
}
