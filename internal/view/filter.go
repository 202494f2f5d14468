package view

import (
	"fmt"
	"strings"
	"time"

	"ledger/internal/core"

	"cloud.google.com/go/civil"
)

type (
	// DateFilter selects transactions by calendar date.
	DateFilter string

	// TypeFilter selects transactions by type.
	TypeFilter string

	// Divisor picks the total category shares are computed against.
	Divisor string
)

const (
	DateAll       DateFilter = "all"
	DateThisMonth DateFilter = "this_month"
	DateLastMonth DateFilter = "last_month"
	DateCustom    DateFilter = "custom"
)

const (
	TypeAll     TypeFilter = "all"
	TypeExpense TypeFilter = "expense"
	TypeIncome  TypeFilter = "income"
)

const (
	DivisorAll     Divisor = "all"
	DivisorExpense Divisor = "expense"
)

// DateRange is an inclusive range of calendar days.
type DateRange struct {
	Start civil.Date
	End   civil.Date
}

func ParseDateFilter(s string) (DateFilter, error) {
	switch f := DateFilter(normalize(s)); f {
	case "":
		return DateAll, nil
	case DateAll, DateThisMonth, DateLastMonth, DateCustom:
		return f, nil
	default:
		return "", fmt.Errorf("unknown date filter %q", s)
	}
}

func ParseTypeFilter(s string) (TypeFilter, error) {
	switch f := TypeFilter(normalize(s)); f {
	case "":
		return TypeAll, nil
	case TypeAll, TypeExpense, TypeIncome:
		return f, nil
	default:
		return "", fmt.Errorf("unknown type filter %q", s)
	}
}

func ParseDivisor(s string) (Divisor, error) {
	switch d := Divisor(normalize(s)); d {
	case "":
		return DivisorAll, nil
	case DivisorAll, DivisorExpense:
		return d, nil
	default:
		return "", fmt.Errorf("unknown divisor %q", s)
	}
}

// ParseDateRange reads two YYYY-MM-DD dates.
func ParseDateRange(start, end string) (DateRange, error) {
	s, err := civil.ParseDate(strings.TrimSpace(start))
	if err != nil {
		return DateRange{}, fmt.Errorf("parse range start: %w", err)
	}
	e, err := civil.ParseDate(strings.TrimSpace(end))
	if err != nil {
		return DateRange{}, fmt.Errorf("parse range end: %w", err)
	}
	return DateRange{Start: s, End: e}, nil
}

// Contains reports whether d falls in the range, both ends included.
func (r DateRange) Contains(d civil.Date) bool {
	return !d.Before(r.Start) && !d.After(r.End)
}

func normalize(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
}

// calendarDate is the wall-clock date a transaction was recorded for.
func calendarDate(t time.Time) civil.Date {
	return civil.DateOf(t)
}

func (q Query) matchDate(tx core.Transaction, today civil.Date) bool {
	d := calendarDate(tx.Date)
	switch q.Date {
	case DateThisMonth:
		return d.Year == today.Year && d.Month == today.Month
	case DateLastMonth:
		// time.Date normalizes month 0 to December of the previous year.
		prev := time.Date(today.Year, today.Month-1, 1, 0, 0, 0, 0, time.UTC)
		return d.Year == prev.Year() && d.Month == prev.Month()
	case DateCustom:
		if q.Range == nil {
			return true
		}
		return q.Range.Contains(d)
	default:
		return true
	}
}

func (q Query) matchType(tx core.Transaction) bool {
	switch q.Type {
	case TypeExpense:
		return tx.Type == core.Expense
	case TypeIncome:
		return tx.Type == core.Income
	default:
		return true
	}
}

// Filter applies the date filter, then the type filter, keeping order.
func Filter(txs []core.Transaction, q Query) []core.Transaction {
	today := civil.DateOf(q.now())
	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if q.matchDate(tx, today) && q.matchType(tx) {
			out = append(out, tx)
		}
	}
	return out
}
