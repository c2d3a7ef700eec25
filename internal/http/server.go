// Package http serves the expense tracker UI, its htmx endpoints and the
// operational endpoints.
package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
	"expensetracker/internal/metrics"
	"expensetracker/internal/middleware/ratelimit"
	"expensetracker/internal/middleware/security"
	"expensetracker/internal/middleware/trace"
	"expensetracker/internal/view"
	appweb "expensetracker/web"
)

// Ledger is the part of the ledger the handlers drive.
type Ledger interface {
	AddExpense(description string, amount decimal.Decimal, category string) (int, error)
	EditAmount(index int, amount decimal.Decimal) error
	EditAmountByID(id string, amount decimal.Decimal) error
	RemoveExpense(index int) error
	RemoveByID(id string) error
	SetGoal(goal decimal.Decimal) error
	Snapshot() core.Snapshot
}

// Exporter pushes the current snapshot to the configured spreadsheet.
type Exporter interface {
	ExportNow(ctx context.Context) (string, error)
}

// ReadinessCheck is one dependency probed by /readyz.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type Options struct {
	Addr               string
	Ledger             Ledger
	Palette            *view.Palette
	Exporter           Exporter
	Checks             []ReadinessCheck
	Metrics            *metrics.Recorder
	Logger             *applog.Logger
	RateLimitPerMinute int
}

type Server struct {
	http.Server
	mux       *http.ServeMux
	templates *template.Template

	ledger   Ledger
	palette  *view.Palette
	exporter Exporter
	checks   []ReadinessCheck
	metrics  *metrics.Recorder
	logger   *applog.Logger
	limiter  *ratelimit.Limiter
	detector *security.Detector
	started  time.Time

	shutdownOnce sync.Once
}

// NewServer parses the embedded templates, registers routes and wraps them in
// the middleware chain. The returned server is ready for ListenAndServe.
func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig())
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	if opts.Palette == nil {
		opts.Palette = view.NewPalette(0)
	}

	s := &Server{
		mux:      http.NewServeMux(),
		ledger:   opts.Ledger,
		palette:  opts.Palette,
		exporter: opts.Exporter,
		checks:   opts.Checks,
		metrics:  opts.Metrics,
		logger:   opts.Logger.WithComponent(applog.ComponentHTTP),
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		detector: security.NewDetector(),
		started:  time.Now(),
	}

	s.palette.OnEvict(s.metrics.PaletteEvicted)

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.WithComponent(applog.ComponentTemplate).Error("Failed parsing templates", applog.FieldError, err)
	}
	s.templates = t

	s.routes()

	var handler http.Handler = s.mux
	handler = s.limiter.Middleware(s.detector.ClientIP, s.onRateLimited)(handler)
	handler = s.detector.Middleware(opts.Logger)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = applog.RequestIDMiddleware(trace.RequestIDFromRequest)(handler)
	handler = trace.NewMiddleware(opts.Logger, s.detector.ClientIP, s.metrics).Handler(handler)
	handler = applog.Middleware(opts.Logger)(handler)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		s.handle("GET /static/", security.StaticAssetMiddleware(3600)(static).ServeHTTP)
	} else {
		s.logger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
	}

	s.handle("GET /{$}", s.handleIndex)
	s.handle("GET /ui/ledger", s.handleLedgerPartial)
	s.handle("POST /expenses", s.handleAddExpense)
	s.handle("POST /expenses/{index}/amount", s.handleEditAmount)
	s.handle("POST /expenses/{index}/delete", s.handleRemoveExpense)
	s.handle("DELETE /expenses/{index}", s.handleRemoveExpense)
	s.handle("POST /goal", s.handleSetGoal)
	s.handle("GET /api/summary", s.handleSummary)
	s.handle("POST /export", s.handleExport)

	s.handle("GET /healthz", s.handleHealth)
	s.handle("GET /readyz", s.handleReady)
	s.handle("GET /metrics", s.metrics.Handler().ServeHTTP)
}

// handle registers h and labels its requests with pattern for metrics.
func (s *Server) handle(pattern string, h http.HandlerFunc) {
	s.mux.Handle(pattern, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		trace.SetRoute(r.Context(), pattern)
		h(w, r)
	}))
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WithComponent(applog.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, s.detector.ClientIP(r),
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "Too many changes. Please wait a minute and try again.").Write(w)
}

// Shutdown stops the rate limiter and drains the HTTP server. Safe to call
// more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
