// Package trace tags every request with an ID, writes access logs and reports
// per-route latency.
package trace

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"regexp"
	"time"

	applog "expensetracker/internal/log"
)

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	routeKey     contextKey = "route"

	HeaderRequestID = "X-Request-ID"
)

// Observer receives one call per finished request.
type Observer interface {
	ObserveRequest(method, route string, status int, elapsed time.Duration)
}

type Middleware struct {
	extractIP func(*http.Request) string
	logger    *applog.RequestLogger
	observer  Observer
}

// NewMiddleware builds the tracing middleware. observer may be nil.
func NewMiddleware(logger *applog.Logger, extractIP func(*http.Request) string, observer Observer) *Middleware {
	return &Middleware{
		extractIP: extractIP,
		logger:    applog.NewRequestLogger(logger),
		observer:  observer,
	}
}

type route struct{ pattern string }

func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := ""
		if m.extractIP != nil {
			clientIP = m.extractIP(r)
		}
		requestID := incomingRequestID(r)
		rt := &route{}

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		ctx = context.WithValue(ctx, routeKey, rt)
		r = r.WithContext(ctx)
		w.Header().Set(HeaderRequestID, requestID)

		m.logger.LogStart(ctx, r, clientIP)
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		elapsed := time.Since(start)
		m.logger.LogEnd(ctx, r, rw.statusCode, elapsed.Milliseconds(), clientIP)
		if m.observer != nil {
			pattern := rt.pattern
			if pattern == "" {
				pattern = "unmatched"
			}
			m.observer.ObserveRequest(r.Method, pattern, rw.statusCode, elapsed)
		}
	})
}

// SetRoute records the matched route pattern for the current request so the
// observer can label by route rather than raw path.
func SetRoute(ctx context.Context, pattern string) {
	if rt, ok := ctx.Value(routeKey).(*route); ok {
		rt.pattern = pattern
	}
}

var validRequestID = regexp.MustCompile(`^[A-Za-z0-9_.\-]{1,64}$`)

// incomingRequestID reuses a well-formed X-Request-ID header or makes a new ID.
func incomingRequestID(r *http.Request) string {
	if id := r.Header.Get(HeaderRequestID); validRequestID.MatchString(id) {
		return id
	}
	return GenerateRequestID()
}

type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}

func (rw *responseWriter) Unwrap() http.ResponseWriter { return rw.ResponseWriter }

func GenerateRequestID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(b)
}

// RequestIDFromRequest is RequestID for middleware that only sees the request.
func RequestIDFromRequest(r *http.Request) string { return RequestID(r.Context()) }

func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}
