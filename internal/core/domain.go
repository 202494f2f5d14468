package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Categories     Collection = "categories"
	PaymentMethods Collection = "payment_methods"
	Transactions   Collection = "transactions"
)

const (
	Expense TxType = "expense"
	Income  TxType = "income"
)

const (
	PreparedYes Prepared = "yes"
	PreparedNo  Prepared = "no"
)

const (
	DefaultNote              = "Untitled"
	UncategorizedName        = "Uncategorized"
	DefaultPaymentMethodName = "Cash"

	// MaxNoteLength is the rich-text content limit of the remote store.
	MaxNoteLength = 2000
)

type (
	// Collection names one mirrored remote collection. It doubles as the cache key.
	Collection string

	TxType string

	Prepared string

	Category struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Icon string `json:"icon,omitempty"`
	}

	PaymentMethod struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Icon string `json:"icon,omitempty"`
	}

	// Transaction is the canonical ledger entry. Display names for the
	// referenced category and payment method are resolved at view time and
	// never stored here.
	Transaction struct {
		ID              string    `json:"id"`
		Amount          float64   `json:"amount"`
		Date            time.Time `json:"date"`
		Note            string    `json:"note"`
		CategoryID      string    `json:"categoryId,omitempty"`
		PaymentMethodID string    `json:"paymentMethodId,omitempty"`
		Type            TxType    `json:"type"`
		Prepared        Prepared  `json:"prepared"`
		CreatedTime     time.Time `json:"createdTime"`
		LastEditedTime  time.Time `json:"lastEditedTime"`
	}

	// TransactionInput is the payload accepted by create and update.
	// Amount is the raw user entry and is parsed during validation.
	TransactionInput struct {
		Amount          string
		Note            string
		CategoryID      string
		PaymentMethodID string
		Date            time.Time
		Prepared        bool
		Type            TxType // empty leaves the remote value untouched
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrEmptyCategory      = errors.New("empty category selection")
	ErrEmptyPaymentMethod = errors.New("empty payment method selection")
	ErrEmptyID            = errors.New("empty record id")
	ErrNoteTooLong        = errors.New("note too long")
	ErrUnknownCollection  = errors.New("unknown collection")
)

// Collections returns every mirrored collection in refresh order.
func Collections() []Collection {
	return []Collection{Categories, PaymentMethods, Transactions}
}

func (c Collection) String() string {
	return string(c)
}

func (c Collection) IsValid() bool {
	switch c {
	case Categories, PaymentMethods, Transactions:
		return true
	default:
		return false
	}
}

// ParseCollection accepts the cache key form ("payment_methods") and the
// hyphenated CLI form ("payment-methods").
func ParseCollection(s string) (Collection, error) {
	c := Collection(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	if !c.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCollection, s)
	}
	return c, nil
}

// ParseTxType maps a remote select name onto the closed type set. Anything
// unrecognised is an expense.
func ParseTxType(s string) TxType {
	switch TxType(strings.ToLower(strings.TrimSpace(s))) {
	case Income:
		return Income
	default:
		return Expense
	}
}

func (t TxType) IsValid() bool {
	return t == Expense || t == Income
}

// ParsePrepared maps a remote select name onto yes/no. Anything
// unrecognised is "no".
func ParsePrepared(s string) Prepared {
	switch Prepared(strings.ToLower(strings.TrimSpace(s))) {
	case PreparedYes:
		return PreparedYes
	default:
		return PreparedNo
	}
}

func (p Prepared) Bool() bool {
	return p == PreparedYes
}

// Validate checks the local preconditions of a mutation. It does not check
// that the referenced category or payment method still exists remotely.
func (in TransactionInput) Validate() error {
	if _, err := ParseAmount(in.Amount); err != nil {
		return &ValidationError{Field: "amount", Err: err}
	}
	if strings.TrimSpace(in.CategoryID) == "" {
		return &ValidationError{Field: "categoryId", Err: ErrEmptyCategory}
	}
	if strings.TrimSpace(in.PaymentMethodID) == "" {
		return &ValidationError{Field: "paymentMethodId", Err: ErrEmptyPaymentMethod}
	}
	if len([]rune(in.Note)) > MaxNoteLength {
		return &ValidationError{Field: "note", Err: ErrNoteTooLong}
	}
	if in.Type != "" && !in.Type.IsValid() {
		return &ValidationError{Field: "type", Err: fmt.Errorf("unknown transaction type %q", in.Type)}
	}
	return nil
}

// NoteOrDefault returns the note to send remotely.
func (in TransactionInput) NoteOrDefault() string {
	if strings.TrimSpace(in.Note) == "" {
		return DefaultNote
	}
	return in.Note
}
