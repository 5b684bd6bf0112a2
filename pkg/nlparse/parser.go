package nlparse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/famledger/famledger/pkg/transaction"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

var (
	ErrParse         = errors.New("could not parse transaction")
	ErrNotConfigured = errors.New("natural language parsing is not configured")
)

// Context is what the parser knows about the user's ledger.
type Context struct {
	LedgerName    string
	FamilyMembers []string
}

type Parser interface {
	// Parse turns free text into a draft. Every failure wraps ErrParse or
	// ErrNotConfigured.
	Parse(ctx context.Context, text string, pc Context) (transaction.Draft, error)
}

// parsedTransaction is the JSON object the model is asked to return.
type parsedTransaction struct {
	Description string          `json:"description"`
	Amount      json.RawMessage `json:"amount"`
	Category    string          `json:"category"`
	Type        string          `json:"type"`
	Borrower    string          `json:"borrower,omitempty"`
}

// decodeDraft validates a model response. It never fills in missing required
// fields, a partial answer is a parse failure.
func decodeDraft(text string) (transaction.Draft, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return transaction.Draft{}, fmt.Errorf("%w: empty response", ErrParse)
	}
	var parsed parsedTransaction
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return transaction.Draft{}, fmt.Errorf("%w: malformed response: %v", ErrParse, err)
	}

	raw := strings.TrimSpace(string(parsed.Amount))
	if raw == "" || raw == "null" || strings.HasPrefix(raw, `"`) {
		return transaction.Draft{}, fmt.Errorf("%w: amount is not a number", ErrParse)
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return transaction.Draft{}, fmt.Errorf("%w: amount is not a number: %v", ErrParse, err)
	}

	draft := transaction.Draft{
		Description:  strings.TrimSpace(parsed.Description),
		Amount:       amount,
		Category:     strings.TrimSpace(parsed.Category),
		Kind:         transaction.Kind(parsed.Type),
		Counterparty: strings.TrimSpace(parsed.Borrower),
	}
	if draft.Category == "" {
		return transaction.Draft{}, fmt.Errorf("%w: category is missing", ErrParse)
	}
	if err := draft.Validate(); err != nil {
		return transaction.Draft{}, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if !draft.Kind.LedgerRelated() {
		draft.Counterparty = ""
	}
	log.Debugf("parsed %q as %s of %s", draft.Description, draft.Kind, draft.Amount)
	return draft, nil
}

func buildPrompt(text string, pc Context) string {
	ledgerName := pc.LedgerName
	if ledgerName == "" {
		ledgerName = "Dad"
	}
	familyContext := ""
	if len(pc.FamilyMembers) > 0 {
		familyContext = fmt.Sprintf("Known family members: %s.", strings.Join(pc.FamilyMembers, ", "))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Parse the following transaction description into a JSON object: %q.\n\n", text)
	b.WriteString("Rules:\n")
	fmt.Fprintf(&b, "- 'type' must be one of: 'expense', 'income', 'ledger_loan' (borrowing from %s), 'ledger_repayment' (paying back %s).\n", ledgerName, ledgerName)
	fmt.Fprintf(&b, "- If it mentions %q and borrowing or owing, it is 'ledger_loan'.\n", ledgerName)
	fmt.Fprintf(&b, "- If it mentions paying back %q, it is 'ledger_repayment'.\n", ledgerName)
	b.WriteString("- Default to 'expense' if spending money.\n")
	b.WriteString("- Default to 'income' if receiving money (salary, sold items).\n")
	b.WriteString("- 'amount' must be a number.\n")
	b.WriteString("- 'category' should be a short string (e.g. \"Food\", \"Transport\", \"Utilities\").\n")
	b.WriteString("- 'description' should be a clean summary.\n")
	fmt.Fprintf(&b, "- 'borrower': who borrowed or is repaying, based on the text. %s\n", familyContext)
	b.WriteString("- If a name from the known family members list appears, use it as the borrower.\n")
	return b.String()
}

// StubParser returns a fixed result, for tests.
type StubParser struct {
	Draft transaction.Draft
	Err   error
	Calls []string
}

func (s *StubParser) Parse(_ context.Context, text string, _ Context) (transaction.Draft, error) {
	s.Calls = append(s.Calls, text)
	if s.Err != nil {
		return transaction.Draft{}, s.Err
	}
	return s.Draft, nil
}
