package transaction

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Kind string

const (
	Expense         Kind = "expense"
	Income          Kind = "income"
	LedgerLoan      Kind = "ledger_loan"
	LedgerRepayment Kind = "ledger_repayment"
)

const DefaultCategory = "General"

var (
	ErrInvalidAmount      = errors.New("amount must be a positive number")
	ErrInvalidKind        = errors.New("unknown transaction kind")
	ErrMissingDescription = errors.New("description is required")
)

func (k Kind) Valid() bool {
	switch k {
	case Expense, Income, LedgerLoan, LedgerRepayment:
		return true
	}
	return false
}

// LedgerRelated reports whether the kind moves the family ledger balance.
func (k Kind) LedgerRelated() bool {
	return k == LedgerLoan || k == LedgerRepayment
}

// Transaction is immutable once created, except for the provisional Id being
// swapped for the storage id on confirmation.
type Transaction struct {
	Id          string
	OccurredAt  time.Time
	Description string
	Amount      decimal.Decimal
	Category    string
	Kind        Kind
	// Counterparty is the family member a loan or repayment concerns. Empty for
	// expense and income.
	Counterparty string
}

func (t Transaction) IsLedgerRelated() bool {
	return t.Kind.LedgerRelated()
}

// Draft is what a caller provides to create a Transaction.
type Draft struct {
	Description  string
	Amount       decimal.Decimal
	Category     string
	Kind         Kind
	Counterparty string
}

// Validate is the caller side check run before a draft reaches the ledger.
func (d Draft) Validate() error {
	if !d.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(d.Description) == "" {
		return ErrMissingDescription
	}
	if !d.Kind.Valid() {
		return ErrInvalidKind
	}
	return nil
}
