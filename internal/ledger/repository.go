// Package ledger owns the in-memory transaction list and keeps it in step
// with the stored document.
//
// Every mutation rewrites the whole document. Mutations are serialised
// within one Repository only; a second process writing the same path is not
// coordinated with and the last write wins.
package ledger

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"teddy/internal/blob"
	"teddy/internal/core"
	"teddy/internal/log"
)

// User-facing status messages.
const (
	LoadFailedMessage = "Failed to load your transactions"
	SaveFailedMessage = "Failed to save your transactions"
)

// Operation names passed to the Publisher.
const (
	OpAdd    = "add"
	OpDelete = "delete"
)

// Publisher is told after the document at path has been rewritten.
type Publisher interface {
	PublishTransactionsChanged(ctx context.Context, path string, count int, op string) error
}

// Status reports the repository's I/O state for display.
type Status struct {
	Loaded  bool   `json:"loaded"`
	Loading bool   `json:"loading"`
	Saving  bool   `json:"saving"`
	Error   string `json:"error,omitempty"`
}

type Repository struct {
	store     blob.Store
	path      string
	publisher Publisher
	logger    *log.Logger
	newID     func() string

	// writeMu serialises load and mutations end to end; mu guards the fields below.
	writeMu sync.Mutex
	mu      sync.RWMutex
	items   []core.Transaction
	status  Status
}

type Option func(*Repository)

// WithPath overrides the document path.
func WithPath(path string) Option {
	return func(r *Repository) { r.path = path }
}

// WithPublisher enables change notifications.
func WithPublisher(p Publisher) Option {
	return func(r *Repository) { r.publisher = p }
}

func WithLogger(l *log.Logger) Option {
	return func(r *Repository) { r.logger = l.WithComponent(log.ComponentLedger) }
}

// WithIDGenerator replaces the UUID generator, for tests.
func WithIDGenerator(f func() string) Option {
	return func(r *Repository) { r.newID = f }
}

func New(store blob.Store, opts ...Option) *Repository {
	r := &Repository{
		store:  store,
		path:   DefaultPath,
		logger: log.Discard(),
		newID:  uuid.NewString,
		items:  []core.Transaction{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Path returns the document path the repository persists to.
func (r *Repository) Path() string { return r.path }

// Load replaces the in-memory list with the stored document. A missing
// document is an empty list. On failure the previous list is kept.
func (r *Repository) Load(ctx context.Context) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	r.setStatus(func(s *Status) { s.Loading = true; s.Error = "" })
	txs, err := Fetch(ctx, r.store, r.path)
	if err != nil {
		r.setStatus(func(s *Status) { s.Loading = false; s.Error = LoadFailedMessage })
		r.logger.ErrorContext(ctx, "Failed to load transactions",
			log.FieldOperation, log.OpLoad, log.FieldDocumentPath, r.path, log.FieldError, err)
		return fmt.Errorf("load transactions: %w", err)
	}

	r.mu.Lock()
	r.items = txs
	r.status.Loading = false
	r.status.Loaded = true
	r.mu.Unlock()

	r.logger.InfoContext(ctx, "Transactions loaded",
		log.FieldOperation, log.OpLoad, log.FieldDocumentPath, r.path, log.FieldCount, len(txs))
	return nil
}

// Add validates the draft, mints an id and prepends the new transaction.
func (r *Repository) Add(ctx context.Context, d core.Draft) (core.Transaction, error) {
	if err := d.Validate(); err != nil {
		return core.Transaction{}, err
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	tx := d.Transaction(r.newID())
	prev := r.Transactions()
	next := make([]core.Transaction, 0, len(prev)+1)
	next = append(next, tx)
	next = append(next, prev...)

	if err := r.commit(ctx, prev, next, OpAdd); err != nil {
		return core.Transaction{}, err
	}

	r.logger.InfoContext(ctx, "Transaction added",
		log.NewFields().WithOperation(log.OpAdd).
			WithTransaction(tx.ID, string(tx.Category), tx.Amount.Cents).ToSlice()...)
	return tx, nil
}

// Delete removes the transaction with id.
func (r *Repository) Delete(ctx context.Context, id string) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	prev := r.Transactions()
	next := make([]core.Transaction, 0, len(prev))
	for _, tx := range prev {
		if tx.ID != id {
			next = append(next, tx)
		}
	}
	if len(next) == len(prev) {
		return fmt.Errorf("%w: %s", core.ErrTransactionNotFound, id)
	}

	if err := r.commit(ctx, prev, next, OpDelete); err != nil {
		return err
	}

	r.logger.InfoContext(ctx, "Transaction deleted",
		log.FieldOperation, log.OpDelete, log.FieldTransactionID, id)
	return nil
}

// commit applies next locally, writes it, and restores prev if the write fails.
// Callers hold writeMu.
func (r *Repository) commit(ctx context.Context, prev, next []core.Transaction, op string) error {
	data, err := Encode(next)
	if err != nil {
		return fmt.Errorf("encode transactions: %w", err)
	}

	r.mu.Lock()
	r.items = next
	r.status.Saving = true
	r.status.Error = ""
	r.mu.Unlock()

	if err := r.store.Write(ctx, r.path, data); err != nil {
		r.mu.Lock()
		r.items = prev
		r.status.Saving = false
		r.status.Error = SaveFailedMessage
		r.mu.Unlock()
		r.logger.ErrorContext(ctx, "Failed to save transactions",
			log.FieldOperation, op, log.FieldDocumentPath, r.path, log.FieldError, err)
		return fmt.Errorf("save transactions: %w", err)
	}
	r.setStatus(func(s *Status) { s.Saving = false })

	r.publish(ctx, len(next), op)
	return nil
}

func (r *Repository) publish(ctx context.Context, count int, op string) {
	if r.publisher == nil {
		return
	}
	if err := r.publisher.PublishTransactionsChanged(ctx, r.path, count, op); err != nil {
		// The document is saved; the mirror catches up on its next resync.
		r.logger.WarnContext(ctx, "Failed to publish change notification",
			log.FieldOperation, log.OpPublish, log.FieldError, err)
	}
}

// Transactions returns a copy of the list, most recently added first.
func (r *Repository) Transactions() []core.Transaction {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]core.Transaction, len(r.items))
	copy(out, r.items)
	return out
}

// Search returns transactions whose description or category contains query,
// ignoring case. An empty query matches everything.
func (r *Repository) Search(query string) []core.Transaction {
	all := r.Transactions()
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return all
	}
	out := make([]core.Transaction, 0, len(all))
	for _, tx := range all {
		if strings.Contains(strings.ToLower(tx.Description), q) ||
			strings.Contains(strings.ToLower(string(tx.Category)), q) {
			out = append(out, tx)
		}
	}
	return out
}

// Status returns the current I/O status.
func (r *Repository) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

func (r *Repository) setStatus(f func(*Status)) {
	r.mu.Lock()
	f(&r.status)
	r.mu.Unlock()
}
