package sheets

import (
	"context"
	"time"

	"teddy/internal/core"
)

// Header is the first row of the mirrored sheet.
var Header = []string{"Date", "Category", "Amount", "Description", "ID"}

// DateLayout formats the Date column.
const DateLayout = time.DateOnly

// Mirror replaces the remote copy with the given transactions.
type Mirror interface {
	Mirror(ctx context.Context, txs []core.Transaction) error
}

// Rows renders txs as sheet rows, header first. Dates are shown in loc.
func Rows(txs []core.Transaction, loc *time.Location) [][]any {
	if loc == nil {
		loc = time.UTC
	}
	rows := make([][]any, 0, len(txs)+1)
	head := make([]any, len(Header))
	for i, h := range Header {
		head[i] = h
	}
	rows = append(rows, head)
	for _, tx := range txs {
		rows = append(rows, []any{
			tx.Date.In(loc).Format(DateLayout),
			string(tx.Category),
			tx.Amount.Float(),
			tx.Description,
			tx.ID,
		})
	}
	return rows
}
