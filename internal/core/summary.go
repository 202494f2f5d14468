package core

import "github.com/shopspring/decimal"

// CategoryAmount is one bucket of the expense distribution, keyed by the
// category display name.
type CategoryAmount struct {
	Name    string
	Icon    string
	Total   decimal.Decimal
	Percent int64 // share of the chosen divisor, rounded to whole percent
	Color   string
}

// SourceSummary totals the transactions charged to one payment method.
type SourceSummary struct {
	PaymentMethod PaymentMethod
	Total         decimal.Decimal
	Count         int
}

// Totals sums amounts over a transaction set.
type Totals struct {
	All     decimal.Decimal
	Expense decimal.Decimal
	Income  decimal.Decimal
}
