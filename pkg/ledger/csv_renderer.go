package ledger

import (
	"bytes"
	"encoding/csv"

	"github.com/famledger/famledger/pkg/transaction"
	log "github.com/sirupsen/logrus"
)

const csvDateLayout = "02/01/2006"

// RenderCsv writes the transactions followed by the summary rows.
func RenderCsv(txs []transaction.Transaction, summary Summary, ledgerName string) (string, error) {
	data := make([][]string, 0, len(txs)+5)
	data = append(data, []string{"Date", "Description", "Category", "Type", "Amount", "Borrower"})
	for _, tx := range txs {
		data = append(data, []string{
			tx.OccurredAt.Format(csvDateLayout),
			tx.Description,
			tx.Category,
			string(tx.Kind),
			tx.Amount.StringFixed(2),
			tx.Counterparty,
		})
	}
	data = append(data,
		[]string{},
		[]string{"Spent this month", summary.MonthlySpent.StringFixed(2)},
		[]string{"Owed to " + ledgerName, summary.TotalOwedToLedgerOwner.StringFixed(2)},
		[]string{"Remaining budget", summary.RemainingBudget.StringFixed(2)},
	)

	var b bytes.Buffer
	writer := csv.NewWriter(&b)
	if err := writer.WriteAll(data); err != nil {
		log.Errorf("Error writing to csv: %v", err)
		return "", err
	}
	return b.String(), nil
}
