// Package view derives display views from a ledger snapshot: date and type
// filtering, day sections and the totals shown alongside them.
//
// Transaction dates are read as wall-clock calendar dates. "Today" and the
// month filters are evaluated in the location of Query.Now.
package view

import (
	"time"

	"ledger/internal/core"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

const (
	LabelToday     = "Today"
	LabelYesterday = "Yesterday"
	labelLayout    = "Jan 2, 2006"
)

// Ledger is the snapshot a view is computed from.
type Ledger struct {
	Transactions   []core.Transaction
	Categories     []core.Category
	PaymentMethods []core.PaymentMethod
}

type Query struct {
	Date    DateFilter
	Type    TypeFilter
	Range   *DateRange // only read by DateCustom
	Divisor Divisor
	Now     time.Time
}

// Item is a transaction with its category and payment method resolved for
// display.
type Item struct {
	core.Transaction
	CategoryName      string
	CategoryIcon      string
	PaymentMethodName string
	PaymentMethodIcon string
}

type Section struct {
	Title string
	Date  civil.Date
	Items []Item
}

type View struct {
	Sections        []Section
	Count           int
	Totals          core.Totals
	ByCategory      []core.CategoryAmount
	ByPaymentMethod []core.SourceSummary
}

func (q Query) now() time.Time {
	if q.Now.IsZero() {
		return time.Now()
	}
	return q.Now
}

// Build filters the ledger's transactions and derives sections and
// aggregates from what remains.
func Build(l Ledger, q Query) View {
	filtered := Filter(l.Transactions, q)
	totals := Sum(filtered)

	divisor := totals.All
	if q.Divisor == DivisorExpense {
		divisor = totals.Expense
	}

	return View{
		Sections:        Group(filtered, l.Categories, l.PaymentMethods, q.now()),
		Count:           len(filtered),
		Totals:          totals,
		ByCategory:      CategoryDistribution(filtered, l.Categories, divisor),
		ByPaymentMethod: PaymentMethodSummary(filtered, l.PaymentMethods),
	}
}

// Group splits transactions into day sections, in first-seen order.
func Group(txs []core.Transaction, cats []core.Category, pms []core.PaymentMethod, now time.Time) []Section {
	today := civil.DateOf(now)
	yesterday := today.AddDays(-1)
	catByID := indexCategories(cats)
	pmByID := indexPaymentMethods(pms)

	var sections []Section
	pos := map[string]int{}
	for _, tx := range txs {
		d := calendarDate(tx.Date)
		label := sectionLabel(d, today, yesterday)
		i, ok := pos[label]
		if !ok {
			i = len(sections)
			pos[label] = i
			sections = append(sections, Section{Title: label, Date: d})
		}
		sections[i].Items = append(sections[i].Items, resolve(tx, catByID, pmByID))
	}
	return sections
}

func sectionLabel(d, today, yesterday civil.Date) string {
	switch d {
	case today:
		return LabelToday
	case yesterday:
		return LabelYesterday
	default:
		return d.In(time.UTC).Format(labelLayout)
	}
}

func resolve(tx core.Transaction, cats map[string]core.Category, pms map[string]core.PaymentMethod) Item {
	it := Item{
		Transaction:       tx,
		CategoryName:      core.UncategorizedName,
		PaymentMethodName: core.DefaultPaymentMethodName,
	}
	if c, ok := cats[tx.CategoryID]; ok {
		if c.Name != "" {
			it.CategoryName = c.Name
		}
		it.CategoryIcon = c.Icon
	}
	if p, ok := pms[tx.PaymentMethodID]; ok {
		if p.Name != "" {
			it.PaymentMethodName = p.Name
		}
		it.PaymentMethodIcon = p.Icon
	}
	return it
}

// Sum totals amounts over all transactions and per type.
func Sum(txs []core.Transaction) core.Totals {
	t := core.Totals{All: decimal.Zero, Expense: decimal.Zero, Income: decimal.Zero}
	for _, tx := range txs {
		amt := decimal.NewFromFloat(tx.Amount)
		t.All = t.All.Add(amt)
		if tx.Type == core.Income {
			t.Income = t.Income.Add(amt)
		} else {
			t.Expense = t.Expense.Add(amt)
		}
	}
	return t
}

func indexCategories(cats []core.Category) map[string]core.Category {
	m := make(map[string]core.Category, len(cats))
	for _, c := range cats {
		if _, dup := m[c.ID]; !dup {
			m[c.ID] = c
		}
	}
	return m
}

func indexPaymentMethods(pms []core.PaymentMethod) map[string]core.PaymentMethod {
	m := make(map[string]core.PaymentMethod, len(pms))
	for _, p := range pms {
		if _, dup := m[p.ID]; !dup {
			m[p.ID] = p
		}
	}
	return m
}
