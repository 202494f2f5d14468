package notion

import (
	"time"

	"ledger/internal/core"

	"cloud.google.com/go/civil"
	"github.com/jomei/notionapi"
)

// DateOnlyProperty is a date property without a time component. The API
// keeps a bare YYYY-MM-DD start as a calendar date, whereas notionapi.Date
// always encodes a full timestamp.
type DateOnlyProperty struct {
	Type notionapi.PropertyType `json:"type,omitempty"`
	Date DateOnlyValue          `json:"date"`
}

type DateOnlyValue struct {
	Start civil.Date `json:"start"`
}

func (p DateOnlyProperty) GetID() string { return "" }

func (p DateOnlyProperty) GetType() notionapi.PropertyType { return notionapi.PropertyTypeDate }

// TransactionProperties builds the property payload sent on create and
// update. Relations are only included when set; Type only when the input
// names one.
func TransactionProperties(in core.TransactionInput) notionapi.Properties {
	props := notionapi.Properties{
		PropExpense: notionapi.TitleProperty{
			Title: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{Content: in.NoteOrDefault()},
				},
			},
		},
		PropAmount: notionapi.NumberProperty{
			Number: in.AmountFloat(),
		},
		PropDate: dateOnly(in.Date),
		PropPrepared: notionapi.SelectProperty{
			Select: notionapi.Option{Name: preparedOption(in.Prepared)},
		},
	}

	if in.CategoryID != "" {
		props[PropCategory] = relation(in.CategoryID)
	}
	if in.PaymentMethodID != "" {
		props[PropPayment] = relation(in.PaymentMethodID)
	}
	if in.Type != "" {
		props[PropType] = notionapi.SelectProperty{
			Select: notionapi.Option{Name: typeOption(in.Type)},
		}
	}
	return props
}

// dateOnly keeps the wall-clock calendar date of t. A zero t means today.
func dateOnly(t time.Time) DateOnlyProperty {
	if t.IsZero() {
		t = time.Now()
	}
	return DateOnlyProperty{
		Type: notionapi.PropertyTypeDate,
		Date: DateOnlyValue{Start: civil.DateOf(t)},
	}
}

func relation(id string) notionapi.RelationProperty {
	return notionapi.RelationProperty{
		Relation: []notionapi.Relation{{ID: notionapi.PageID(id)}},
	}
}

func preparedOption(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func typeOption(t core.TxType) string {
	if t == core.Income {
		return "Income"
	}
	return "Expense"
}
