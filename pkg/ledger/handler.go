package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/famledger/famledger/pkg/transaction"
	"github.com/famledger/famledger/pkg/user"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type TransactionDTO struct {
	Id              string          `json:"id"`
	OccurredAt      time.Time       `json:"date"`
	Description     string          `json:"description"`
	Amount          decimal.Decimal `json:"amount"`
	Category        string          `json:"category"`
	Type            string          `json:"type"`
	IsLedgerRelated bool            `json:"isLedgerRelated"`
	Counterparty    string          `json:"borrower,omitempty"`
	Provisional     bool            `json:"provisional"`
}

type DraftDTO struct {
	Description  string          `json:"description"`
	Amount       decimal.Decimal `json:"amount"`
	Category     string          `json:"category,omitempty"`
	Type         string          `json:"type"`
	Counterparty string          `json:"borrower,omitempty"`
}

type ParseRequestDTO struct {
	Text string `json:"text"`
}

type SummaryDTO struct {
	MonthlySpent           decimal.Decimal `json:"monthlySpent"`
	TotalOwedToLedgerOwner decimal.Decimal `json:"totalOwedToLedgerOwner"`
	RemainingBudget        decimal.Decimal `json:"remainingBudget"`
	BudgetLimit            decimal.Decimal `json:"budgetLimit"`
}

type SettingsDTO struct {
	LedgerName    string          `json:"ledgerName"`
	FamilyMembers []string        `json:"familyMembers"`
	BudgetLimit   decimal.Decimal `json:"budgetLimit"`
}

type NameDTO struct {
	Name string `json:"name"`
}

type BudgetLimitDTO struct {
	Amount decimal.Decimal `json:"amount"`
}

// Sessions gives access to the ledger of a signed-in user.
type Sessions interface {
	Get(uid string) (*Manager, error)
}

type Handler struct {
	sessions Sessions
}

func NewHandler(sessions Sessions) *Handler {
	return &Handler{sessions: sessions}
}

// ListTransactions godoc
// @Summary List transactions
// @Description Transactions of the session, most recent first
// @Tags Ledger
// @Produce json
// @Param ledger query bool false "Only loans and repayments"
// @Param limit query int false "Maximum number of transactions"
// @Produce text/csv
// @Success 200 {array} TransactionDTO
// @Failure 401 {string} string "No active session"
// @Router /api/transactions [get]
// @Security XUserId
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	log.Debug("Listing transactions")
	manager, ok := h.manager(w, r)
	if !ok {
		return
	}

	var txs []transaction.Transaction
	if r.URL.Query().Get("ledger") == "true" {
		txs = manager.LedgerTransactions()
	} else {
		txs = manager.Transactions()
	}
	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		limit, err := strconv.Atoi(limitParam)
		if err != nil || limit < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		if limit < len(txs) {
			txs = txs[:limit]
		}
	}

	if acceptsCSV(r) {
		csv, err := RenderCsv(txs, manager.Summary(), manager.Settings().LedgerName)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(csv)); err != nil {
			log.Errorf("failed to write csv: %v", err)
		}
		return
	}

	dtos := make([]TransactionDTO, 0, len(txs))
	for _, tx := range txs {
		dtos = append(dtos, TransactionToDTO(tx))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// acceptsCSV reports whether any media range of the Accept header is text/csv.
func acceptsCSV(r *http.Request) bool {
	for _, value := range r.Header.Values("Accept") {
		for _, mediaRange := range strings.Split(value, ",") {
			mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(mediaRange))
			if err == nil && mediaType == "text/csv" {
				return true
			}
		}
	}
	return false
}

// AddTransaction godoc
// @Summary Add a transaction
// @Description Adds the transaction optimistically. With wait=true the response is sent once storage confirmed it.
// @Tags Ledger
// @Accept json
// @Produce json
// @Param transaction body DraftDTO true "Transaction"
// @Param wait query bool false "Wait for the remote write"
// @Success 201 {object} TransactionDTO
// @Success 202 {object} TransactionDTO
// @Failure 400 {string} string "Bad Request"
// @Failure 401 {string} string "No active session"
// @Failure 502 {string} string "Storage failure"
// @Router /api/transactions [post]
// @Security XUserId
func (h *Handler) AddTransaction(w http.ResponseWriter, r *http.Request) {
	log.Debug("Adding transaction")
	manager, ok := h.manager(w, r)
	if !ok {
		return
	}
	var draftDTO DraftDTO
	if err := json.NewDecoder(r.Body).Decode(&draftDTO); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	draft := DTOToDraft(draftDTO)
	if err := draft.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	pending, err := manager.AddTransaction(r.Context(), draft)
	if err != nil {
		writeError(w, err)
		return
	}
	h.respondPending(w, r, manager, pending)
}

// ParseTransaction godoc
// @Summary Add a transaction from free text
// @Tags Ledger
// @Accept json
// @Produce json
// @Param request body ParseRequestDTO true "Free text"
// @Param wait query bool false "Wait for the remote write"
// @Success 201 {object} TransactionDTO
// @Success 202 {object} TransactionDTO
// @Failure 400 {string} string "Bad Request"
// @Failure 401 {string} string "No active session"
// @Failure 422 {string} string "Could not parse"
// @Router /api/transactions/parse [post]
// @Security XUserId
func (h *Handler) ParseTransaction(w http.ResponseWriter, r *http.Request) {
	log.Debug("Parsing transaction")
	manager, ok := h.manager(w, r)
	if !ok {
		return
	}
	var request ParseRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	pending, err := manager.AddParsed(r.Context(), request.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	h.respondPending(w, r, manager, pending)
}

func (h *Handler) respondPending(w http.ResponseWriter, r *http.Request, manager *Manager, pending *Pending) {
	if r.URL.Query().Get("wait") != "true" {
		for _, tx := range manager.Transactions() {
			if tx.Id == pending.ProvisionalId {
				writeJSON(w, http.StatusAccepted, TransactionToDTO(tx))
				return
			}
		}
		// already resolved, fall through and report the outcome
	}
	confirmed, err := pending.Wait(r.Context())
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, TransactionToDTO(confirmed))
}

// GetSummary godoc
// @Summary Financial summary
// @Tags Ledger
// @Produce json
// @Success 200 {object} SummaryDTO
// @Failure 401 {string} string "No active session"
// @Router /api/summary [get]
// @Security XUserId
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	manager, ok := h.manager(w, r)
	if !ok {
		return
	}
	summary := manager.Summary()
	writeJSON(w, http.StatusOK, SummaryDTO{
		MonthlySpent:           summary.MonthlySpent,
		TotalOwedToLedgerOwner: summary.TotalOwedToLedgerOwner,
		RemainingBudget:        summary.RemainingBudget,
		BudgetLimit:            manager.Settings().BudgetLimit,
	})
}

// GetSettings godoc
// @Summary Ledger settings
// @Tags Settings
// @Produce json
// @Success 200 {object} SettingsDTO
// @Failure 401 {string} string "No active session"
// @Router /api/settings [get]
// @Security XUserId
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	manager, ok := h.manager(w, r)
	if !ok {
		return
	}
	h.writeSettings(w, http.StatusOK, manager)
}

// SetLedgerName godoc
// @Summary Rename the ledger
// @Tags Settings
// @Accept json
// @Produce json
// @Param name body NameDTO true "Ledger name"
// @Success 200 {object} SettingsDTO
// @Failure 400 {string} string "Bad Request"
// @Router /api/settings/ledger-name [put]
// @Security XUserId
func (h *Handler) SetLedgerName(w http.ResponseWriter, r *http.Request) {
	manager, ok := h.manager(w, r)
	if !ok {
		return
	}
	var name NameDTO
	if err := json.NewDecoder(r.Body).Decode(&name); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := manager.SetLedgerName(r.Context(), name.Name); err != nil {
		writeError(w, err)
		return
	}
	h.writeSettings(w, http.StatusOK, manager)
}

// AddFamilyMember godoc
// @Summary Add a family member
// @Tags Settings
// @Accept json
// @Produce json
// @Param name body NameDTO true "Member name"
// @Success 200 {object} SettingsDTO "Already known"
// @Success 201 {object} SettingsDTO
// @Failure 400 {string} string "Bad Request"
// @Router /api/settings/family-members [post]
// @Security XUserId
func (h *Handler) AddFamilyMember(w http.ResponseWriter, r *http.Request) {
	manager, ok := h.manager(w, r)
	if !ok {
		return
	}
	var name NameDTO
	if err := json.NewDecoder(r.Body).Decode(&name); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	added, err := manager.AddFamilyMember(r.Context(), name.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	h.writeSettings(w, status, manager)
}

// SetBudgetLimit godoc
// @Summary Change the monthly budget
// @Tags Settings
// @Accept json
// @Produce json
// @Param limit body BudgetLimitDTO true "Budget limit"
// @Success 200 {object} SettingsDTO
// @Failure 400 {string} string "Bad Request"
// @Router /api/settings/budget-limit [put]
// @Security XUserId
func (h *Handler) SetBudgetLimit(w http.ResponseWriter, r *http.Request) {
	manager, ok := h.manager(w, r)
	if !ok {
		return
	}
	var limit BudgetLimitDTO
	if err := json.NewDecoder(r.Body).Decode(&limit); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := manager.SetBudgetLimit(r.Context(), limit.Amount); err != nil {
		writeError(w, err)
		return
	}
	h.writeSettings(w, http.StatusOK, manager)
}

func (h *Handler) writeSettings(w http.ResponseWriter, status int, manager *Manager) {
	s := manager.Settings()
	writeJSON(w, status, SettingsDTO{
		LedgerName:    s.LedgerName,
		FamilyMembers: s.FamilyMembers.Names(),
		BudgetLimit:   s.BudgetLimit,
	})
}

func (h *Handler) manager(w http.ResponseWriter, r *http.Request) (*Manager, bool) {
	currentUser, err := user.CurrentUser(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return nil, false
	}
	manager, err := h.sessions.Get(currentUser.Uid)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return nil, false
	}
	return manager, true
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrSessionClosed):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, ErrUnparseable):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, ErrWriteFailed), errors.Is(err, ErrSettingsWrite):
		http.Error(w, err.Error(), http.StatusBadGateway)
	case errors.Is(err, ErrEmptyInput),
		errors.Is(err, ErrInvalidLedgerName),
		errors.Is(err, ErrInvalidMemberName),
		errors.Is(err, ErrInvalidBudgetLimit),
		errors.Is(err, transaction.ErrInvalidKind):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		log.Errorf("unexpected ledger error: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Errorf("failed to encode response: %v", err)
	}
}

func TransactionToDTO(tx transaction.Transaction) TransactionDTO {
	return TransactionDTO{
		Id:              tx.Id,
		OccurredAt:      tx.OccurredAt,
		Description:     tx.Description,
		Amount:          tx.Amount,
		Category:        tx.Category,
		Type:            string(tx.Kind),
		IsLedgerRelated: tx.IsLedgerRelated(),
		Counterparty:    tx.Counterparty,
		Provisional:     strings.HasPrefix(tx.Id, provisionalPrefix),
	}
}

func DTOToDraft(dto DraftDTO) transaction.Draft {
	return transaction.Draft{
		Description:  strings.TrimSpace(dto.Description),
		Amount:       dto.Amount,
		Category:     dto.Category,
		Kind:         transaction.Kind(dto.Type),
		Counterparty: dto.Counterparty,
	}
}
