package core

// CategoryAmount represents an amount aggregated by category.
type CategoryAmount struct {
	Name   Category `json:"category"`
	Amount Money    `json:"amount"`
}

// Sum totals the amounts of a list of transactions.
func Sum(txs []Transaction) Money {
	var total Money
	for _, tx := range txs {
		total = total.Add(tx.Amount)
	}
	return total
}
