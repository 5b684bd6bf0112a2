package transaction

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestDraft_Validate(t *testing.T) {
	valid := Draft{Description: "groceries", Amount: decimal.RequireFromString("12.30"), Kind: Expense}

	tests := []struct {
		name  string
		draft func(d Draft) Draft
		err   error
	}{
		{"valid draft", func(d Draft) Draft { return d }, nil},
		{"zero amount", func(d Draft) Draft { d.Amount = decimal.Zero; return d }, ErrInvalidAmount},
		{"negative amount", func(d Draft) Draft { d.Amount = decimal.NewFromInt(-3); return d }, ErrInvalidAmount},
		{"blank description", func(d Draft) Draft { d.Description = "  "; return d }, ErrMissingDescription},
		{"unknown kind", func(d Draft) Draft { d.Kind = "gift"; return d }, ErrInvalidKind},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.draft(valid).Validate()
			if tt.err == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.err)
			}
		})
	}
}

func TestKind(t *testing.T) {
	assert.True(t, LedgerLoan.LedgerRelated())
	assert.True(t, LedgerRepayment.LedgerRelated())
	assert.False(t, Expense.LedgerRelated())
	assert.False(t, Income.LedgerRelated())
	assert.False(t, Kind("gift").Valid())

	tx := Transaction{Kind: LedgerLoan}
	assert.True(t, tx.IsLedgerRelated())
}
