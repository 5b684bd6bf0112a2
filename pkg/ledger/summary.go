package ledger

import (
	"github.com/famledger/famledger/pkg/transaction"
	"github.com/shopspring/decimal"
)

type Summary struct {
	MonthlySpent           decimal.Decimal
	TotalOwedToLedgerOwner decimal.Decimal
	RemainingBudget        decimal.Decimal
}

// Summarize folds the whole transaction set. It is recomputed on every read
// and never stored.
func Summarize(txs []transaction.Transaction, budgetLimit decimal.Decimal) Summary {
	spent := decimal.Zero
	owed := decimal.Zero
	for _, tx := range txs {
		switch tx.Kind {
		case transaction.Expense:
			spent = spent.Add(tx.Amount)
		case transaction.LedgerLoan:
			owed = owed.Add(tx.Amount)
		case transaction.LedgerRepayment:
			owed = owed.Sub(tx.Amount)
		}
	}
	return Summary{
		MonthlySpent:           spent,
		TotalOwedToLedgerOwner: owed,
		RemainingBudget:        budgetLimit.Sub(spent),
	}
}
