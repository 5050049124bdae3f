package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"teddy/internal/blob"
	"teddy/internal/core"
)

// DefaultPath is the document the transaction list is persisted at.
const DefaultPath = "transactions.json"

// Encode renders the list as a pretty-printed JSON array. An empty list
// encodes as [].
func Encode(txs []core.Transaction) ([]byte, error) {
	if txs == nil {
		txs = []core.Transaction{}
	}
	return json.MarshalIndent(txs, "", "  ")
}

// Decode parses a stored document. Whitespace-only content is an empty list.
func Decode(data []byte) ([]core.Transaction, error) {
	var txs []core.Transaction
	if len(bytes.TrimSpace(data)) == 0 {
		return []core.Transaction{}, nil
	}
	if err := json.Unmarshal(data, &txs); err != nil {
		return nil, fmt.Errorf("decode transactions: %w", err)
	}
	if txs == nil {
		txs = []core.Transaction{}
	}
	return txs, nil
}

// Fetch reads and decodes the document at path. A document that was never
// written is an empty list.
func Fetch(ctx context.Context, store blob.Reader, path string) ([]core.Transaction, error) {
	data, err := store.Read(ctx, path)
	if errors.Is(err, blob.ErrNotExist) {
		return []core.Transaction{}, nil
	}
	if err != nil {
		return nil, err
	}
	return Decode(data)
}
