package http

import (
	"bufio"
	"context"
	"fmt"
	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/saddiabu4/telegram-web-app-backend/internal/auth"
	"github.com/saddiabu4/telegram-web-app-backend/internal/domain"
	"github.com/saddiabu4/telegram-web-app-backend/internal/metrics"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

type contextKey string

const (
	// ContextKeyClaims holds the *auth.Claims of an authenticated request
	ContextKeyClaims contextKey = "claims"

	rateLimitedMessage = "Too many requests, please try again later."
)

// Middleware struct holds dependencies for middleware functions
type Middleware struct {
	Logger    hclog.Logger
	Auth      auth.Service
	Responder *Responder
	Metrics   *metrics.Metrics
	Limiter   *RateLimiter
	now       func() time.Time
}

func NewMiddleware(logger hclog.Logger, as auth.Service, responder *Responder, m *metrics.Metrics, limiter *RateLimiter) *Middleware {
	return &Middleware{
		Logger:    logger,
		Auth:      as,
		Responder: responder,
		Metrics:   m,
		Limiter:   limiter,
		now:       time.Now,
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	status int
}

func (w *loggingResponseWriter) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *loggingResponseWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(p)
}

func (w *loggingResponseWriter) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

func (w *loggingResponseWriter) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// Hijack keeps websocket upgrades working behind the logger
func (w *loggingResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	if w.status == 0 {
		w.status = http.StatusSwitchingProtocols
	}
	return hijacker.Hijack()
}

// LoggingMiddleware tags the request with an ID and logs its outcome
func (m *Middleware) LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.New().String()

		// Add the request ID to the response header
		w.Header().Set("X-Request-ID", requestID)

		rw := &loggingResponseWriter{ResponseWriter: w}
		next.ServeHTTP(rw, r)

		status := rw.Status()
		m.Metrics.Requests.WithLabelValues(r.Method, strconv.Itoa(status)).Inc()

		fields := []interface{}{
			"method", r.Method,
			"url", r.URL.Path,
			"status", status,
			"request_id", requestID,
			"duration", time.Since(start),
			"remote_addr", r.RemoteAddr,
		}
		if status >= 500 {
			m.Logger.Error("Completed request", fields...)
			return
		}
		if r.URL.Path == "/healthz" || r.URL.Path == "/metrics" {
			m.Logger.Trace("Completed request", fields...)
			return
		}
		m.Logger.Info("Completed request", fields...)
	})
}

// SecurityHeaders sets the hardening headers browsers understand. Resources
// stay loadable cross-origin so the storefront can embed product images.
func (m *Middleware) SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Cross-Origin-Resource-Policy", "cross-origin")
		h.Set("Cross-Origin-Opener-Policy", "same-origin")
		h.Set("Origin-Agent-Cluster", "?1")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Strict-Transport-Security", "max-age=15552000; includeSubDomains")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-DNS-Prefetch-Control", "off")
		h.Set("X-Download-Options", "noopen")
		h.Set("X-Frame-Options", "SAMEORIGIN")
		h.Set("X-Permitted-Cross-Domain-Policies", "none")
		h.Set("X-XSS-Protection", "0")
		next.ServeHTTP(w, r)
	})
}

// RateLimitMiddleware caps requests per client address on /api/ paths
func (m *Middleware) RateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.Limiter == nil || !strings.HasPrefix(r.URL.Path, "/api/") {
			next.ServeHTTP(w, r)
			return
		}

		d, err := m.Limiter.Allow(r.Context(), clientIP(r))
		if err != nil {
			// fail open
			m.Logger.Error("Rate limiter unavailable", "error", err)
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(d.Reset.Unix(), 10))

		if !d.Allowed {
			retry := int(math.Ceil(d.Reset.Sub(m.now()).Seconds()))
			if retry < 1 {
				retry = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retry))
			m.Metrics.RateLimited.Inc()
			m.Logger.Warn("Rate limit exceeded", "client", clientIP(r), "path", r.URL.Path)
			m.Responder.JSON(w, http.StatusTooManyRequests, InternalErrorResponse{Error: rateLimitedMessage})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AuthMiddleware rejects requests without a valid session token before the
// handler reads the body.
func (m *Middleware) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := auth.ExtractToken(r.Header.Get("Authorization"))

		claims, err := m.Auth.Verify(token)
		if err != nil {
			m.Logger.Debug("Rejected token", "url", r.URL.Path)
			m.Responder.Error(w, r, domain.ErrUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), ContextKeyClaims, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// clientIP strips the port from the remote address
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
