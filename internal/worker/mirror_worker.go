package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"teddy/internal/amqp"
	"teddy/internal/blob"
	"teddy/internal/ledger"
	"teddy/internal/log"
	"teddy/internal/sheets"
)

// MirrorWorker copies the stored transactions document to a sheets.Mirror.
// Every run re-reads the whole document, so messages may arrive late,
// duplicated or out of order.
type MirrorWorker struct {
	store  blob.Reader
	mirror sheets.Mirror
	path   string
	logger *log.Logger

	mu       sync.Mutex
	lastSync time.Time
	now      func() time.Time
}

func NewMirrorWorker(store blob.Reader, mirror sheets.Mirror, path string, logger *log.Logger) *MirrorWorker {
	if path == "" {
		path = ledger.DefaultPath
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &MirrorWorker{
		store:  store,
		mirror: mirror,
		path:   path,
		logger: logger.WithComponent(log.ComponentWorker),
		now:    time.Now,
	}
}

// HandleChanged is the AMQP handler. Messages for other documents are acked
// and ignored.
func (w *MirrorWorker) HandleChanged(ctx context.Context, msg *amqp.TransactionsChangedMessage) error {
	if msg.Path != w.path {
		w.logger.DebugContext(ctx, "Ignoring change for another document",
			log.FieldDocumentPath, msg.Path)
		return nil
	}
	w.logger.InfoContext(ctx, "Processing transactions changed message",
		log.FieldDocumentPath, msg.Path,
		log.FieldCount, msg.Count,
		"op", msg.Op,
		"published_at", msg.Timestamp)
	return w.Resync(ctx)
}

// Resync mirrors the current document. Concurrent calls are serialised.
func (w *MirrorWorker) Resync(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	txs, err := ledger.Fetch(ctx, w.store, w.path)
	if err != nil {
		return fmt.Errorf("fetch transactions: %w", err)
	}
	if err := w.mirror.Mirror(ctx, txs); err != nil {
		return fmt.Errorf("mirror transactions: %w", err)
	}
	w.lastSync = w.now()

	w.logger.InfoContext(ctx, "Mirror synchronised",
		log.FieldOperation, log.OpMirror,
		log.FieldDocumentPath, w.path,
		log.FieldCount, len(txs))
	return nil
}

// LastSync returns when the last successful mirror finished.
func (w *MirrorWorker) LastSync() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastSync
}

// Run resyncs once immediately and then on every interval until ctx is
// cancelled. Failures are logged and retried on the next tick.
func (w *MirrorWorker) Run(ctx context.Context, interval time.Duration) error {
	w.resyncAndLog(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.InfoContext(ctx, "Periodic resync stopped", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			w.resyncAndLog(ctx)
		}
	}
}

func (w *MirrorWorker) resyncAndLog(ctx context.Context) {
	if err := w.Resync(ctx); err != nil && ctx.Err() == nil {
		w.logger.ErrorContext(ctx, "Periodic resync failed",
			log.FieldOperation, log.OpMirror, log.FieldError, err)
	}
}
