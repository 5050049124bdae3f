package sheets

import (
	"reflect"
	"testing"
	"time"

	"teddy/internal/core"
)

func TestRows(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*3600)
	txs := []core.Transaction{
		{ID: "a", Amount: core.NewMoney(12.5), Category: core.Shopping, Date: time.Date(2025, 3, 1, 23, 0, 0, 0, time.UTC), Description: "Shoes"},
		{ID: "b", Amount: core.NewMoney(3), Category: core.Other, Date: time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)},
	}

	got := Rows(txs, loc)
	want := [][]any{
		{"Date", "Category", "Amount", "Description", "ID"},
		{"2025-03-02", "Shopping", 12.5, "Shoes", "a"},
		{"2025-03-01", "Other", 3.0, "", "b"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Rows() = %v, want %v", got, want)
	}

	if empty := Rows(nil, nil); len(empty) != 1 {
		t.Fatalf("empty input must still produce the header, got %v", empty)
	}
}
