package view

import (
	"sort"

	"ledger/internal/core"

	"github.com/shopspring/decimal"
)

// Palette colours distribution buckets, cycling past the last entry.
var Palette = []string{"#F97316", "#EC4899", "#3B82F6", "#10B981", "#8B5CF6", "#F59E0B", "#6366F1", "#EF4444"}

var hundred = decimal.NewFromInt(100)

// CategoryDistribution totals expenses per category display name. Distinct
// ids sharing a name land in one bucket. Buckets are sorted by total,
// largest first, ties in first-seen order; colours follow first-seen order.
// A zero divisor is replaced by one.
func CategoryDistribution(txs []core.Transaction, cats []core.Category, divisor decimal.Decimal) []core.CategoryAmount {
	if divisor.IsZero() {
		divisor = decimal.NewFromInt(1)
	}
	byID := indexCategories(cats)

	var buckets []core.CategoryAmount
	pos := map[string]int{}
	for _, tx := range txs {
		if tx.Type != core.Expense {
			continue
		}
		name, icon := core.UncategorizedName, ""
		if c, ok := byID[tx.CategoryID]; ok && c.Name != "" {
			name, icon = c.Name, c.Icon
		}
		i, ok := pos[name]
		if !ok {
			i = len(buckets)
			pos[name] = i
			buckets = append(buckets, core.CategoryAmount{
				Name:  name,
				Icon:  icon,
				Total: decimal.Zero,
				Color: Palette[i%len(Palette)],
			})
		}
		buckets[i].Total = buckets[i].Total.Add(decimal.NewFromFloat(tx.Amount))
	}

	for i := range buckets {
		buckets[i].Percent = buckets[i].Total.Mul(hundred).Div(divisor).Round(0).IntPart()
	}
	sort.SliceStable(buckets, func(i, j int) bool {
		return buckets[i].Total.GreaterThan(buckets[j].Total)
	})
	return buckets
}

// PaymentMethodSummary totals and counts transactions per known payment
// method, in list order. Methods without transactions report zero.
func PaymentMethodSummary(txs []core.Transaction, pms []core.PaymentMethod) []core.SourceSummary {
	out := make([]core.SourceSummary, len(pms))
	pos := make(map[string]int, len(pms))
	for i, pm := range pms {
		out[i] = core.SourceSummary{PaymentMethod: pm, Total: decimal.Zero}
		if _, dup := pos[pm.ID]; !dup {
			pos[pm.ID] = i
		}
	}
	for _, tx := range txs {
		i, ok := pos[tx.PaymentMethodID]
		if !ok {
			continue
		}
		out[i].Total = out[i].Total.Add(decimal.NewFromFloat(tx.Amount))
		out[i].Count++
	}
	return out
}
