package http

import (
	"net/http"

	"teddy/internal/export"
	"teddy/internal/log"
	"teddy/internal/stats"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse(stats.Dashboard(s.deps.Ledger.Transactions(), s.now())).Write(w)
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	period, err := stats.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		BadRequestError("Unknown period; use daily, weekly, monthly or yearly").Write(w)
		return
	}

	report, err := stats.Analyze(s.deps.Ledger.Transactions(), s.now(), period)
	if err != nil {
		writeError(w, r, err, "Failed to compute analytics")
		return
	}

	log.FromContext(r.Context()).DebugContext(r.Context(), "Analytics computed",
		log.FieldOperation, log.OpAnalyze, log.FieldPeriod, string(period),
		log.FieldCount, report.TransactionCount)
	NewJSONResponse(report).Write(w)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	txs := s.deps.Ledger.Transactions()
	now := s.now()

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename(now)+`"`)
	if err := export.WriteCSV(w, txs, s.deps.Location); err != nil {
		// Headers are already sent; the client sees a truncated file.
		log.FromContext(r.Context()).ErrorContext(r.Context(), "CSV export failed",
			log.FieldOperation, log.OpExport, log.FieldError, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Transactions exported",
		log.FieldOperation, log.OpExport, log.FieldCount, len(txs))
}
