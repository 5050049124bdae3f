// Package export renders the transaction list for download.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"teddy/internal/core"
)

// ContentType is the media type of the CSV export.
const ContentType = "text/csv; charset=utf-8"

// Header is the first row of every export.
var Header = []string{"Date", "Category", "Amount", "Description"}

// DateLayout is the month/day/year form used in the Date column.
const DateLayout = "1/2/2006"

// WriteCSV writes one row per transaction in list order. Dates are rendered in
// loc; fields containing commas, quotes or newlines are quoted.
func WriteCSV(w io.Writer, txs []core.Transaction, loc *time.Location) error {
	if loc == nil {
		loc = time.Local
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, tx := range txs {
		row := []string{
			tx.Date.In(loc).Format(DateLayout),
			string(tx.Category),
			tx.Amount.String(),
			tx.Description,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write transaction %s: %w", tx.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Filename names an export produced at now.
func Filename(now time.Time) string {
	return fmt.Sprintf("expenses_%s.csv", now.Format(time.DateOnly))
}
