// Package http serves the calendar and day ledgers as a JSON API.
package http

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	applog "nutrilog/internal/log"
	"nutrilog/internal/services"
)

// maxBodyBytes caps request bodies for record writes.
const maxBodyBytes = 64 << 10

// Options configures a Server.
type Options struct {
	// MutationsPerMinute is the per-client budget for writes. Zero means 60.
	MutationsPerMinute int
	Logger             *applog.Logger
}

type Server struct {
	http.Server
	service     *services.LedgerService
	rateLimiter *rateLimiter
	logger      *applog.Logger
	started     time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and returns a ready-to-run server.
func NewServer(addr string, svc *services.LedgerService, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig())
	}
	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		service:     svc,
		rateLimiter: newRateLimiter(opts.MutationsPerMinute),
		logger:      opts.Logger.WithComponent(applog.ComponentHTTP),
		started:     time.Now(),
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.Handle("GET /api/calendar", s.chain(s.handleCalendar))
	mux.Handle("POST /api/calendar/shift", s.chain(s.handleShift))
	mux.Handle("GET /api/days/{key}", s.chain(s.handleDay))
	mux.Handle("POST /api/days/{key}/records", s.chain(s.handleAppend))
	mux.Handle("PUT /api/days/{key}/records/{index}", s.chain(s.handleReplace))
	mux.Handle("DELETE /api/days/{key}/records/{index}", s.chain(s.handleRemove))
	mux.Handle("POST /api/days/{key}/records/{index}/toggle", s.chain(s.handleToggle))
	mux.Handle("PUT /api/days/{key}/records/by-id/{id}", s.chain(s.handleUpdateByID))
	mux.Handle("DELETE /api/days/{key}/records/by-id/{id}", s.chain(s.handleRemoveByID))

	return s
}

// Shutdown gracefully shuts down the server and the rate limiter cleanup
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// chain wraps an API handler. Order: request ID resolution, context logger,
// request ID on the logger, then withRequestLogging.
func (s *Server) chain(h http.HandlerFunc) http.Handler {
	var next http.Handler = s.withRequestLogging(h)
	next = applog.RequestIDMiddleware(requestIDFromHeader)(next)
	next = applog.Middleware(s.logger)(next)
	return ensureRequestID(next)
}

// ensureRequestID keeps a caller-supplied X-Request-ID of sane length and
// generates one otherwise. The ID is echoed on the response.
func ensureRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" || len(id) > 64 {
			id = generateRequestID()
			r.Header.Set("X-Request-ID", id)
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}

func requestIDFromHeader(r *http.Request) string {
	return r.Header.Get("X-Request-ID")
}

// withRequestLogging applies the mutation rate limit, sets response
// headers, caps the body and logs completion with the context logger.
func (s *Server) withRequestLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)
		ctx := r.Context()
		logger := applog.FromContext(ctx)

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Cache-Control", "no-store")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		if isMutation(r.Method) && !s.rateLimiter.allow(clientIP) {
			logger.WarnContext(ctx, "Rate limit exceeded",
				applog.FieldClientIP, clientIP,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
			rw.Header().Set("Retry-After", strconv.Itoa(60))
			writeErrorStatus(rw, http.StatusTooManyRequests, "rate_limited", "rate limit exceeded, try again later")
		} else {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(rw, r.Body, maxBodyBytes)
			}
			next(rw, r)
		}

		applog.NewStructuredLogger(logger).LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	}
}

func isMutation(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch:
		return true
	}
	return false
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.statusCode = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}
