package notion

import (
	"strings"
	"time"

	"ledger/internal/core"

	"github.com/jomei/notionapi"
)

// Property names of the three databases.
const (
	PropName     = "Name"
	PropExpense  = "Expense"
	PropAmount   = "Amount"
	PropDate     = "Date"
	PropCategory = "Category"
	PropPayment  = "Payment"
	PropType     = "Type"
	PropPrepared = "Prepared"
)

// NormalizeCategories converts raw pages into categories, preserving order.
// Pages without an id are dropped and reported as *core.ParseError.
func NormalizeCategories(pages []notionapi.Page) ([]core.Category, []error) {
	out := make([]core.Category, 0, len(pages))
	var errs []error
	for i, p := range pages {
		id := pageID(p)
		if id == "" {
			errs = append(errs, &core.ParseError{Collection: core.Categories, Index: i, Reason: "missing id"})
			continue
		}
		out = append(out, core.Category{
			ID:   id,
			Name: titleText(p.Properties[PropName]),
			Icon: iconEmoji(p),
		})
	}
	return out, errs
}

// NormalizePaymentMethods converts raw pages into payment methods, preserving order.
func NormalizePaymentMethods(pages []notionapi.Page) ([]core.PaymentMethod, []error) {
	out := make([]core.PaymentMethod, 0, len(pages))
	var errs []error
	for i, p := range pages {
		id := pageID(p)
		if id == "" {
			errs = append(errs, &core.ParseError{Collection: core.PaymentMethods, Index: i, Reason: "missing id"})
			continue
		}
		out = append(out, core.PaymentMethod{
			ID:   id,
			Name: titleText(p.Properties[PropName]),
			Icon: iconEmoji(p),
		})
	}
	return out, errs
}

// NormalizeTransactions converts raw pages into transactions, preserving
// order. A page without a date gets now; callers pass the instant so the
// result depends on the input alone.
func NormalizeTransactions(pages []notionapi.Page, now time.Time) ([]core.Transaction, []error) {
	out := make([]core.Transaction, 0, len(pages))
	var errs []error
	for i, p := range pages {
		id := pageID(p)
		if id == "" {
			errs = append(errs, &core.ParseError{Collection: core.Transactions, Index: i, Reason: "missing id"})
			continue
		}
		note := titleText(p.Properties[PropExpense])
		if note == "" {
			note = core.DefaultNote
		}
		date, ok := dateStart(p.Properties[PropDate])
		if !ok {
			date = now
		}
		out = append(out, core.Transaction{
			ID:              id,
			Amount:          number(p.Properties[PropAmount]),
			Date:            date,
			Note:            note,
			CategoryID:      firstRelation(p.Properties[PropCategory]),
			PaymentMethodID: firstRelation(p.Properties[PropPayment]),
			Type:            core.ParseTxType(selectName(p.Properties[PropType])),
			Prepared:        core.ParsePrepared(selectName(p.Properties[PropPrepared])),
			CreatedTime:     p.CreatedTime,
			LastEditedTime:  p.LastEditedTime,
		})
	}
	return out, errs
}

func pageID(p notionapi.Page) string {
	return strings.TrimSpace(p.ID.String())
}

func iconEmoji(p notionapi.Page) string {
	if p.Icon == nil || p.Icon.Emoji == nil {
		return ""
	}
	return string(*p.Icon.Emoji)
}

// Decoded pages carry pointer properties, locally built ones carry values.

func titleText(prop notionapi.Property) string {
	var rts []notionapi.RichText
	switch v := prop.(type) {
	case *notionapi.TitleProperty:
		if v == nil {
			return ""
		}
		rts = v.Title
	case notionapi.TitleProperty:
		rts = v.Title
	default:
		return ""
	}
	var b strings.Builder
	for _, rt := range rts {
		switch {
		case rt.PlainText != "":
			b.WriteString(rt.PlainText)
		case rt.Text != nil:
			b.WriteString(rt.Text.Content)
		}
	}
	return strings.TrimSpace(b.String())
}

func number(prop notionapi.Property) float64 {
	switch v := prop.(type) {
	case *notionapi.NumberProperty:
		if v != nil {
			return v.Number
		}
	case notionapi.NumberProperty:
		return v.Number
	}
	return 0
}

func dateStart(prop notionapi.Property) (time.Time, bool) {
	var d *notionapi.DateObject
	switch v := prop.(type) {
	case DateOnlyProperty:
		if !v.Date.Start.IsValid() || v.Date.Start.IsZero() {
			return time.Time{}, false
		}
		return v.Date.Start.In(time.UTC), true
	case *notionapi.DateProperty:
		if v != nil {
			d = v.Date
		}
	case notionapi.DateProperty:
		d = v.Date
	}
	if d == nil || d.Start == nil {
		return time.Time{}, false
	}
	t := time.Time(*d.Start)
	if t.IsZero() {
		return time.Time{}, false
	}
	return t, true
}

func firstRelation(prop notionapi.Property) string {
	var rel []notionapi.Relation
	switch v := prop.(type) {
	case *notionapi.RelationProperty:
		if v != nil {
			rel = v.Relation
		}
	case notionapi.RelationProperty:
		rel = v.Relation
	}
	if len(rel) == 0 {
		return ""
	}
	return rel[0].ID.String()
}

func selectName(prop notionapi.Property) string {
	switch v := prop.(type) {
	case *notionapi.SelectProperty:
		if v != nil {
			return v.Select.Name
		}
	case notionapi.SelectProperty:
		return v.Select.Name
	}
	return ""
}
