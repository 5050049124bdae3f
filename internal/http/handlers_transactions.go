package http

import (
	"net/http"

	"teddy/internal/core"
	"teddy/internal/ledger"
	"teddy/internal/log"
)

type transactionsResponse struct {
	Transactions []core.Transaction `json:"transactions"`
	Count        int                `json:"count"`
	Total        core.Money         `json:"total"`
	Status       ledger.Status      `json:"status"`
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	txs := s.deps.Ledger.Search(q)
	if q != "" {
		log.FromContext(r.Context()).DebugContext(r.Context(), "Transactions searched",
			log.FieldOperation, log.OpList, log.FieldCount, len(txs))
	}
	NewJSONResponse(transactionsResponse{
		Transactions: txs,
		Count:        len(txs),
		Total:        core.Sum(txs),
		Status:       s.deps.Ledger.Status(),
	}).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	draft, err := ParseDraft(p, s.deps.Now(), s.deps.Location)
	if err != nil {
		writeError(w, r, err, ledger.SaveFailedMessage)
		return
	}

	tx, err := s.deps.Ledger.Add(r.Context(), draft)
	if err != nil {
		writeError(w, r, err, ledger.SaveFailedMessage)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "Transaction created",
		log.NewFields().WithOperation(log.OpAdd).
			WithTransaction(tx.ID, string(tx.Category), tx.Amount.Cents).ToSlice()...)
	NewJSONResponse(tx).
		Status(http.StatusCreated).
		Header("Location", "/api/transactions/"+tx.ID).
		Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.deps.Ledger.Delete(r.Context(), id); err != nil {
		writeError(w, r, err, ledger.SaveFailedMessage)
		return
	}
	NewJSONResponse(nil).Status(http.StatusNoContent).Write(w)
}

// handleReload lets the user retry after a failed load.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Ledger.Load(r.Context()); err != nil {
		writeError(w, r, err, ledger.LoadFailedMessage)
		return
	}
	txs := s.deps.Ledger.Transactions()
	NewJSONResponse(transactionsResponse{
		Transactions: txs,
		Count:        len(txs),
		Total:        core.Sum(txs),
		Status:       s.deps.Ledger.Status(),
	}).Write(w)
}
