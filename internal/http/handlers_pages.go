package http

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"teddy/internal/core"
	"teddy/internal/ledger"
	"teddy/internal/log"
	"teddy/internal/stats"
)

// recentOnIndex is how many transactions the dashboard page lists.
const recentOnIndex = 10

func templateFuncs(loc *time.Location) template.FuncMap {
	return template.FuncMap{
		"money": func(m core.Money) string { return "$" + m.Fixed() },
		"date":  func(t time.Time) string { return t.In(loc).Format("Jan 2, 2006") },
		"pct":   func(v float64) string { return fmt.Sprintf("%+.0f%%", v) },
	}
}

type indexData struct {
	Greeting     string
	Today        string
	Dashboard    stats.DashboardStats
	Recent       []core.Transaction
	Categories   []core.Category
	Status       ledger.Status
	Version      string
	Transactions int
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Templates not loaded", log.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	now := s.now()
	txs := s.deps.Ledger.Transactions()
	recent := txs
	if len(recent) > recentOnIndex {
		recent = recent[:recentOnIndex]
	}

	data := indexData{
		Greeting:     s.deps.Profile.DisplayName("there"),
		Today:        now.Format(time.DateOnly),
		Dashboard:    stats.Dashboard(txs, now),
		Recent:       recent,
		Categories:   core.Categories(),
		Status:       s.deps.Ledger.Status(),
		Version:      AppVersion,
		Transactions: len(txs),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Index template execution failed",
			log.FieldError, err, "template", "index.html")
		http.Error(w, "failed to render page", http.StatusInternalServerError)
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type readiness struct {
	Ready  bool          `json:"ready"`
	Store  string        `json:"store"`
	Status ledger.Status `json:"status"`
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	res := readiness{Ready: true, Store: "ok", Status: s.deps.Ledger.Status()}
	if s.deps.Ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.Ready(ctx); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			res.Ready = false
			res.Store = "unavailable"
		}
	}
	status := http.StatusOK
	if !res.Ready {
		status = http.StatusServiceUnavailable
	}
	NewJSONResponse(res).Status(status).Write(w)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	tm := s.tracer.GetMetrics()
	wm := s.writeLimiter.GetMetrics()
	cm := s.chatLimiter.GetMetrics()
	st := s.deps.Ledger.Status()

	storeError := 0
	if st.Error != "" {
		storeError = 1
	}

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	fmt.Fprintf(w, "teddy_http_requests_total %d\n", tm.TotalRequests)
	fmt.Fprintf(w, "teddy_http_server_errors_total %d\n", tm.ServerErrors)
	fmt.Fprintf(w, "teddy_http_response_time_avg_microseconds %d\n", tm.AverageResponseTime)
	fmt.Fprintf(w, "teddy_rate_limit_hits_total{scope=\"write\"} %d\n", wm.TotalHits)
	fmt.Fprintf(w, "teddy_rate_limit_hits_total{scope=\"chat\"} %d\n", cm.TotalHits)
	fmt.Fprintf(w, "teddy_suspicious_requests_total %d\n", s.detector.SuspiciousRequests())
	fmt.Fprintf(w, "teddy_transactions %d\n", len(s.deps.Ledger.Transactions()))
	fmt.Fprintf(w, "teddy_store_error %d\n", storeError)
}
