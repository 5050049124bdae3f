// Package http serves Teddy's JSON API and the server-rendered dashboard.
package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"teddy/internal/advisor"
	"teddy/internal/cache"
	"teddy/internal/core"
	"teddy/internal/ledger"
	"teddy/internal/log"
	"teddy/internal/middleware/ratelimit"
	"teddy/internal/middleware/security"
	"teddy/internal/middleware/trace"
	appweb "teddy/web"
)

// AppVersion is shown on the profile page.
const AppVersion = "Teddy v1.0.0"

type (
	// TransactionStore is the ledger as seen by the handlers.
	TransactionStore interface {
		Transactions() []core.Transaction
		Search(query string) []core.Transaction
		Add(ctx context.Context, d core.Draft) (core.Transaction, error)
		Delete(ctx context.Context, id string) error
		Load(ctx context.Context) error
		Status() ledger.Status
	}

	// Advisor answers chat messages.
	Advisor interface {
		Reply(ctx context.Context, req advisor.Request, p core.Profile, txs []core.Transaction, now time.Time) (advisor.Reply, error)
	}

	// Deps are the collaborators the handlers need. Now is sampled on every
	// request; Location drives all calendar arithmetic.
	Deps struct {
		Ledger   TransactionStore
		Advisor  Advisor
		Profile  core.Profile
		Now      func() time.Time
		Location *time.Location
		Logger   *log.Logger
		// Ready reports whether the document store is reachable; optional.
		Ready func(ctx context.Context) error
	}
)

// Limits for the per-client rate limiters.
const (
	writeRequestsPerMinute = 60
	chatRequestsPerMinute  = 12
)

type Server struct {
	http.Server
	deps      Deps
	templates *template.Template

	tracer       *trace.Middleware
	detector     *security.Detector
	writeLimiter *ratelimit.Limiter
	chatLimiter  *ratelimit.Limiter
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Location == nil {
		deps.Location = time.Local
	}
	if deps.Logger == nil {
		deps.Logger = log.Discard()
	}
	if deps.Advisor == nil {
		deps.Advisor = advisor.New(nil, advisor.DefaultConfig(), deps.Logger)
	}

	s := &Server{
		deps:         deps,
		detector:     security.NewDetector(deps.Logger),
		writeLimiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: writeRequestsPerMinute}),
		chatLimiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: chatRequestsPerMinute}),
	}
	s.tracer = trace.NewMiddleware(deps.Logger, s.detector.ClientIP)

	t, err := template.New("").Funcs(templateFuncs(deps.Location)).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		deps.Logger.Warn("Failed parsing templates", log.FieldError, err)
	}
	s.templates = t

	mux := http.NewServeMux()

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600")
			static.ServeHTTP(w, r)
		}))
	} else {
		deps.Logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	writes := s.limit(s.writeLimiter)
	chat := s.limit(s.chatLimiter)
	api := func(h http.HandlerFunc) http.Handler { return security.NoStore(h) }

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.Handle("GET /api/transactions", api(s.handleListTransactions))
	mux.Handle("POST /api/transactions", writes(api(s.handleCreateTransaction)))
	mux.Handle("DELETE /api/transactions/{id}", writes(api(s.handleDeleteTransaction)))
	mux.Handle("POST /api/transactions/reload", writes(api(s.handleReload)))

	mux.Handle("GET /api/stats/dashboard", api(s.handleDashboard))
	mux.Handle("GET /api/stats/analytics", api(s.handleAnalytics))
	mux.Handle("GET /api/export.csv", api(s.handleExport))

	mux.Handle("GET /api/advisor/greeting", api(s.handleGreeting))
	mux.Handle("POST /api/advisor/chat", chat(api(s.handleChat)))
	mux.Handle("GET /api/profile", api(s.handleProfile))

	var h http.Handler = mux
	h = security.Headers(security.DefaultHeadersConfig())(h)
	h = s.tracer.Handler(h)
	h = s.detector.Middleware(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Chat replies wait on the upstream model.
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

func (s *Server) limit(l *ratelimit.Limiter) func(http.Handler) http.Handler {
	return l.Middleware(s.detector.ClientIP, func(w http.ResponseWriter, r *http.Request) {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
			log.FieldPath, r.URL.Path, log.FieldClientIP, s.detector.ClientIP(r))
		TooManyRequestsError().Write(w)
	})
}

// Cleaners returns the server's expiring state for periodic cleanup.
func (s *Server) Cleaners() []cache.Cleaner {
	return []cache.Cleaner{s.writeLimiter, s.chatLimiter}
}

// now returns the current instant in the configured location.
func (s *Server) now() time.Time {
	return s.deps.Now().In(s.deps.Location)
}
