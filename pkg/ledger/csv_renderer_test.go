package ledger

import (
	"testing"
	"time"

	"github.com/famledger/famledger/pkg/transaction"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderCsv(t *testing.T) {
	// given
	day := time.Date(2026, time.October, 2, 12, 0, 0, 0, time.UTC)
	txs := []transaction.Transaction{
		{Id: "2", OccurredAt: day, Description: "gas, full tank", Amount: decimal.RequireFromString("50"), Category: "General", Kind: transaction.LedgerLoan, Counterparty: "Alex"},
		{Id: "1", OccurredAt: day, Description: "pizza", Amount: decimal.RequireFromString("19.9"), Category: "Food", Kind: transaction.Expense},
	}

	// when
	csv, err := RenderCsv(txs, Summarize(txs, decimal.NewFromInt(2000)), "Dad")

	// then
	require.NoError(t, err)
	want := "Date,Description,Category,Type,Amount,Borrower\n" +
		"02/10/2026,\"gas, full tank\",General,ledger_loan,50.00,Alex\n" +
		"02/10/2026,pizza,Food,expense,19.90,\n" +
		"\n" +
		"Spent this month,19.90\n" +
		"Owed to Dad,50.00\n" +
		"Remaining budget,1980.10\n"
	assert.Equal(t, want, csv)
}
