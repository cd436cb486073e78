// Package http exposes the JSON API: auth, taxonomy, transactions,
// dashboard aggregates, SMS import, CSV export, notes, receivables and the
// activity log.
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

	"spendsense/internal/auth"
	"spendsense/internal/services"
)

type Server struct {
	http.Server
	auth        *auth.Service
	ledger      *services.LedgerService
	importer    *services.ImportService
	rateLimiter *rateLimiter

	shutdownOnce sync.Once
}

// Simple in-memory rate limiter
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

// startCleanup runs periodic cleanup to remove stale client entries
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
		if rl.stopCleanup != nil {
			close(rl.stopCleanup)
		}
	})
}

func (rl *rateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	client, exists := rl.clients[clientIP]

	if !exists {
		rl.clients[clientIP] = &clientInfo{
			lastRequest: now,
			requests:    1,
		}
		return true
	}

	// Reset counter if more than 1 minute has passed
	if now.Sub(client.lastRequest) > time.Minute {
		client.requests = 1
		client.lastRequest = now
		return true
	}

	// Allow up to 60 requests per minute
	client.requests++
	client.lastRequest = now

	return client.requests <= 60
}

// NewServer configures all routes and returns a ready-to-run http.Server.
func NewServer(addr string, authSvc *auth.Service, ledgerSvc *services.LedgerService, importSvc *services.ImportService) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		auth:        authSvc,
		ledger:      ledgerSvc,
		importer:    importSvc,
		rateLimiter: newRateLimiter(),
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("POST /api/register", s.withMiddleware(s.handleRegister))
	mux.HandleFunc("POST /api/login", s.withMiddleware(s.handleLogin))
	mux.HandleFunc("POST /api/logout", s.withMiddleware(s.handleLogout))

	mux.HandleFunc("GET /api/me", s.protected(s.handleMe))
	mux.HandleFunc("PUT /api/me/password", s.protected(s.handleChangePassword))
	mux.HandleFunc("PUT /api/me/profile", s.protected(s.handleUpdateProfile))
	mux.HandleFunc("PUT /api/me/preferences", s.protected(s.handleUpdatePreferences))

	mux.HandleFunc("GET /api/groups", s.protected(s.handleListGroups))
	mux.HandleFunc("POST /api/groups", s.protected(s.handleAddGroup))
	mux.HandleFunc("DELETE /api/groups/{id}", s.protected(s.handleDeleteGroup))
	mux.HandleFunc("POST /api/groups/{id}/subgroups", s.protected(s.handleAddSubgroup))
	mux.HandleFunc("DELETE /api/groups/{id}/subgroups/{subId}", s.protected(s.handleDeleteSubgroup))

	mux.HandleFunc("GET /api/transactions", s.protected(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.protected(s.handleAddTransaction))
	mux.HandleFunc("PUT /api/transactions/{id}", s.protected(s.handleEditTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.protected(s.handleDeleteTransaction))

	mux.HandleFunc("GET /api/dashboard", s.protected(s.handleDashboard))
	mux.HandleFunc("GET /api/statement", s.protected(s.handleStatement))
	mux.HandleFunc("GET /api/orphans", s.protected(s.handleOrphans))
	mux.HandleFunc("GET /api/export", s.protected(s.handleExport))

	mux.HandleFunc("GET /api/import/templates", s.protected(s.handleImportTemplates))
	mux.HandleFunc("GET /api/import/pending", s.protected(s.handleImportPending))
	mux.HandleFunc("POST /api/import/scan", s.protected(s.handleImportScan))
	mux.HandleFunc("POST /api/import/{id}/confirm", s.protected(s.handleImportConfirm))
	mux.HandleFunc("POST /api/import/{id}/skip", s.protected(s.handleImportSkip))
	mux.HandleFunc("DELETE /api/import/{id}", s.protected(s.handleImportDiscard))

	mux.HandleFunc("GET /api/notes", s.protected(s.handleListNotes))
	mux.HandleFunc("POST /api/notes", s.protected(s.handleAddNote))
	mux.HandleFunc("DELETE /api/notes/{id}", s.protected(s.handleDeleteNote))

	mux.HandleFunc("GET /api/receivables", s.protected(s.handleListReceivables))
	mux.HandleFunc("POST /api/receivables", s.protected(s.handleAddReceivable))
	mux.HandleFunc("POST /api/receivables/{id}/toggle", s.protected(s.handleToggleReceivable))
	mux.HandleFunc("DELETE /api/receivables/{id}", s.protected(s.handleDeleteReceivable))

	mux.HandleFunc("GET /api/activity", s.protected(s.handleActivity))

	return s
}

// Shutdown stops the server and its cleanup goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withMiddleware adds security headers, rate limiting and request logging.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Extract client IP (considering proxies)
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
			"client_ip", clientIP,
			"user_agent", r.Header.Get("User-Agent"))

		// Rate limit mutating requests.
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, r, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"client_ip", clientIP)
	}
}

type requestIDKey struct{}

type userHandler func(w http.ResponseWriter, r *http.Request, userID string)

// protected wraps a handler with the standard middleware plus bearer-token
// session resolution.
func (s *Server) protected(next userHandler) http.HandlerFunc {
	return s.withMiddleware(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, r, http.StatusUnauthorized, "missing bearer token")
			return
		}
		userID, ok := s.auth.UserFromToken(token)
		if !ok {
			writeError(w, r, http.StatusUnauthorized, "invalid or expired session")
			return
		}
		next(w, r, userID)
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp if random fails
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
