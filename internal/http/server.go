// Package http exposes the ledger to consumers as a JSON API. Consumers
// only read derived views and call the mutation endpoints; they never touch
// the persistence adapter directly.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"carbonledger/internal/cache"
	"carbonledger/internal/ledger"
)

type Server struct {
	http.Server
	ledger      *ledger.Ledger
	rateLimiter *rateLimiter

	// Response caches for derived views, invalidated on mutation.
	logCache     *cache.LRU[dailyLogResponse]
	weekCache    *cache.LRU[weeklySummaryResponse]
	cacheMgr     *cache.Manager
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, lg *ledger.Ledger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		ledger:      lg,
		rateLimiter: newRateLimiter(),
		logCache:    cache.NewLRU[dailyLogResponse](64, time.Minute),
		weekCache:   cache.NewLRU[weeklySummaryResponse](4, time.Minute),
		cacheMgr:    cache.NewManager(),
	}

	s.cacheMgr.Register(s.logCache)
	s.cacheMgr.Register(s.weekCache)
	s.cacheMgr.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/logs/today", s.withMiddleware(s.handleTodayLog))
	mux.HandleFunc("GET /api/logs/{date}", s.withMiddleware(s.handleLogForDate))
	mux.HandleFunc("GET /api/summary/week", s.withMiddleware(s.handleWeeklySummary))
	mux.HandleFunc("GET /api/budget/{date}", s.withMiddleware(s.handleBudget))

	mux.HandleFunc("POST /api/activities", s.withMiddleware(s.handleAddActivity))
	mux.HandleFunc("DELETE /api/activities/{id}", s.withMiddleware(s.handleRemoveActivity))
	mux.HandleFunc("POST /api/scans", s.withMiddleware(s.handleAddProductScan))
	mux.HandleFunc("GET /api/scans", s.withMiddleware(s.handleScansForDate))
	mux.HandleFunc("POST /api/energy", s.withMiddleware(s.handleAddEnergyActivity))

	mux.HandleFunc("GET /api/baselines", s.withMiddleware(s.handleGetBaselines))
	mux.HandleFunc("PUT /api/baselines/{type}", s.withMiddleware(s.handleUpdateBaseline))
	mux.HandleFunc("GET /api/settings", s.withMiddleware(s.handleGetSettings))
	mux.HandleFunc("PUT /api/settings", s.withMiddleware(s.handleUpdateSettings))

	return s
}

// Shutdown stops cache maintenance and the rate limiter, then shuts down the
// HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheMgr.Stop()
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// invalidateDate drops the cached views touched by a mutation on a date.
// Weekly summaries span dates, so the whole week cache is flushed.
func (s *Server) invalidateDate(date string) {
	s.logCache.Delete(date)
	s.weekCache.Flush()
}

// withMiddleware adds request-id logging, security headers and write rate
// limiting around a handler.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP)

		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			respondError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds())
	}
}

type requestIDKey struct{}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

// Simple in-memory rate limiter for write endpoints.
type rateLimiter struct {
	mu           sync.Mutex
	clients      map[string]*clientInfo
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type clientInfo struct {
	lastRequest time.Time
	requests    int
}

func newRateLimiter() *rateLimiter {
	rl := &rateLimiter{
		clients:     make(map[string]*clientInfo),
		stopCleanup: make(chan struct{}),
	}
	go rl.startCleanup()
	return rl
}

func (rl *rateLimiter) startCleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries()
		case <-rl.stopCleanup:
			return
		}
	}
}

// cleanupStaleEntries removes client entries older than 10 minutes
func (rl *rateLimiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, client := range rl.clients {
		if client.lastRequest.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.shutdownOnce.Do(func() {
		close(rl.stopCleanup)
	})
}

func (rl *rateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	client, exists := rl.clients[clientIP]
	if !exists {
		rl.clients[clientIP] = &clientInfo{lastRequest: now, requests: 1}
		return true
	}

	if now.Sub(client.lastRequest) > time.Minute {
		client.requests = 1
		client.lastRequest = now
		return true
	}

	// Allow up to 120 write requests per minute
	client.requests++
	client.lastRequest = now
	return client.requests <= 120
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady reports ready once the initial bulk load has resolved; derived
// views are gated behind that single flag.
func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	if !s.ledger.Loaded() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("loading"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
