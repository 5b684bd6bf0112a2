package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/famledger/famledger/internal/event_bus"
	"github.com/famledger/famledger/internal/utils"
	"github.com/famledger/famledger/pkg/nlparse"
	"github.com/famledger/famledger/pkg/settings"
	"github.com/famledger/famledger/pkg/transaction"
	"github.com/famledger/famledger/pkg/user"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	provisionalPrefix = "tmp-"
	parseFailedNotice = "Could not parse transaction. Please try again or use manual mode."
)

var (
	ErrSessionClosed      = errors.New("ledger session is closed")
	ErrWriteFailed        = errors.New("failed to save transaction")
	ErrUnparseable        = errors.New("could not parse transaction")
	ErrEmptyInput         = errors.New("nothing to parse")
	ErrInvalidLedgerName  = errors.New("ledger name must not be empty")
	ErrInvalidMemberName  = errors.New("family member name must not be empty")
	ErrInvalidBudgetLimit = errors.New("budget limit must be a positive number")
	ErrSettingsWrite      = errors.New("failed to save settings")
)

// Defaults are the settings a session starts with until stored ones are loaded.
type Defaults struct {
	BudgetLimit         decimal.Decimal
	LedgerName          string
	FamilyMembers       []string
	CounterpartyDefault CounterpartyPolicy
}

// Manager owns the ledger of one signed-in user. Reads never wait for remote
// writes: additions are visible immediately and confirmed or rolled back when
// storage answers.
type Manager struct {
	owner        user.User
	txRepo       transaction.Repository
	settingsRepo settings.Repository
	parser       nlparse.Parser
	eventBus     *event_bus.EventBus
	clock        utils.Clock
	policy       CounterpartyPolicy

	mu           sync.RWMutex
	transactions []transaction.Transaction
	settings     settings.Settings
	closed       bool

	// one lock per settings field keeps their upserts in change order
	ledgerNameMu  sync.Mutex
	membersMu     sync.Mutex
	budgetLimitMu sync.Mutex
}

func NewManager(
	owner user.User,
	defaults Defaults,
	txRepo transaction.Repository,
	settingsRepo settings.Repository,
	parser nlparse.Parser,
	eventBus *event_bus.EventBus,
	clock utils.Clock,
) *Manager {
	if clock == nil {
		clock = utils.SystemClock{}
	}
	policy := defaults.CounterpartyDefault
	if policy == "" {
		policy = CounterpartyFirstMember
	}
	return &Manager{
		owner:        owner,
		txRepo:       txRepo,
		settingsRepo: settingsRepo,
		parser:       parser,
		eventBus:     eventBus,
		clock:        clock,
		policy:       policy,
		transactions: []transaction.Transaction{},
		settings:     defaultSettings(defaults),
	}
}

func defaultSettings(defaults Defaults) settings.Settings {
	return settings.Settings{
		LedgerName:    defaults.LedgerName,
		FamilyMembers: settings.NewFamilyMembers(defaults.FamilyMembers...),
		BudgetLimit:   defaults.BudgetLimit,
	}
}

func (m *Manager) Owner() user.User {
	return m.owner
}

// Load replaces the ledger with the stored transactions and settings. Failures
// are logged only: a failed transaction fetch leaves the ledger empty and a
// failed settings fetch keeps the current settings.
func (m *Manager) Load(ctx context.Context) {
	if m.isClosed() {
		return
	}

	var (
		g           errgroup.Group
		txs         []transaction.Transaction
		txErr       error
		stored      settings.Stored
		settingsErr error
	)
	g.Go(func() error {
		txs, txErr = m.txRepo.ListByUser(ctx, m.owner.Id)
		return nil
	})
	g.Go(func() error {
		stored, settingsErr = m.settingsRepo.Get(ctx, m.owner.Id)
		return nil
	})
	_ = g.Wait()

	if txErr != nil {
		log.Errorf("error fetching transactions of user %s: %v", m.owner.Uid, txErr)
		txs = []transaction.Transaction{}
	}
	if errors.Is(settingsErr, settings.ErrSettingsNotFound) {
		log.Debugf("no stored settings for user %s, using defaults", m.owner.Uid)
	} else if settingsErr != nil {
		log.Warnf("error fetching settings of user %s: %v", m.owner.Uid, settingsErr)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions = txs
	if settingsErr == nil {
		m.settings = mergeSettings(m.settings, stored)
	}
	log.Debugf("loaded %d transactions for user %s", len(txs), m.owner.Uid)
}

func mergeSettings(current settings.Settings, stored settings.Stored) settings.Settings {
	if stored.LedgerName != nil && *stored.LedgerName != "" {
		current.LedgerName = *stored.LedgerName
	}
	if stored.FamilyMembers != nil {
		current.FamilyMembers = settings.NewFamilyMembers(stored.FamilyMembers...)
	}
	if stored.BudgetLimit != nil && stored.BudgetLimit.IsPositive() {
		current.BudgetLimit = *stored.BudgetLimit
	}
	return current
}

// AddTransaction inserts the draft optimistically and starts the remote write.
// The draft is expected to be validated by the caller. The write runs to
// completion even if ctx is cancelled; use the returned Pending to wait for it.
func (m *Manager) AddTransaction(ctx context.Context, draft transaction.Draft) (*Pending, error) {
	if !draft.Kind.Valid() {
		return nil, transaction.ErrInvalidKind
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrSessionClosed
	}
	tx := m.newRecord(draft)
	m.transactions = prepend(m.transactions, tx)
	m.mu.Unlock()

	log.Debugf("added provisional transaction %s (%s %s)", tx.Id, tx.Kind, tx.Amount)
	pending := newPending(tx.Id)
	go m.persist(context.WithoutCancel(ctx), tx, pending)
	return pending, nil
}

// newRecord must be called with m.mu held.
func (m *Manager) newRecord(draft transaction.Draft) transaction.Transaction {
	tx := transaction.Transaction{
		Id:          provisionalPrefix + uuid.NewString(),
		OccurredAt:  m.clock.Now(),
		Description: draft.Description,
		Amount:      draft.Amount,
		Category:    strings.TrimSpace(draft.Category),
		Kind:        draft.Kind,
	}
	if tx.Category == "" {
		tx.Category = transaction.DefaultCategory
	}
	if tx.IsLedgerRelated() {
		tx.Counterparty = strings.TrimSpace(draft.Counterparty)
		if tx.Counterparty == "" {
			tx.Counterparty = m.policy.resolve(m.settings.FamilyMembers)
		}
	}
	return tx
}

func (m *Manager) persist(ctx context.Context, tx transaction.Transaction, pending *Pending) {
	id, err := m.txRepo.Insert(ctx, m.owner.Id, tx)
	if err != nil {
		m.compensate(ctx, tx.Id, err)
		pending.resolve(transaction.Transaction{}, fmt.Errorf("%w: %v", ErrWriteFailed, err))
		return
	}
	pending.resolve(m.commit(ctx, tx, id), nil)
}

// commit swaps the provisional id for the stored one, keeping list position.
func (m *Manager) commit(ctx context.Context, tx transaction.Transaction, id string) transaction.Transaction {
	provisionalId := tx.Id
	tx.Id = id

	m.mu.Lock()
	idx := indexOf(m.transactions, provisionalId)
	if idx >= 0 {
		updated := make([]transaction.Transaction, len(m.transactions))
		copy(updated, m.transactions)
		updated[idx].Id = id
		m.transactions = updated
	}
	m.mu.Unlock()

	if idx < 0 {
		log.Debugf("confirmed transaction %s is no longer in the ledger, it was reloaded meanwhile", provisionalId)
	}
	m.publish(ctx, event_bus.TransactionConfirmed, event_bus.TransactionConfirmedEvent{
		UserUid:       m.owner.Uid,
		ProvisionalId: provisionalId,
		Id:            id,
		Kind:          string(tx.Kind),
		Amount:        tx.Amount,
		OccurredAt:    tx.OccurredAt,
	})
	return tx
}

// compensate removes the provisional record and tells the user why.
func (m *Manager) compensate(ctx context.Context, provisionalId string, cause error) {
	m.mu.Lock()
	if idx := indexOf(m.transactions, provisionalId); idx >= 0 {
		updated := make([]transaction.Transaction, 0, len(m.transactions)-1)
		updated = append(updated, m.transactions[:idx]...)
		m.transactions = append(updated, m.transactions[idx+1:]...)
	}
	m.mu.Unlock()

	log.Warnf("rolled back transaction %s of user %s: %v", provisionalId, m.owner.Uid, cause)
	m.publish(ctx, event_bus.TransactionRolledBack, event_bus.TransactionRolledBackEvent{
		UserUid:       m.owner.Uid,
		ProvisionalId: provisionalId,
		Reason:        cause.Error(),
	})
	m.notify(ctx, "Failed to save transaction: "+cause.Error())
}

// AddParsed creates a transaction from free text. When the parser has no
// usable answer nothing is added and a single notice is raised.
func (m *Manager) AddParsed(ctx context.Context, text string) (*Pending, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyInput
	}
	if m.isClosed() {
		return nil, ErrSessionClosed
	}

	current := m.Settings()
	draft, err := m.parse(ctx, text, nlparse.Context{
		LedgerName:    current.LedgerName,
		FamilyMembers: current.FamilyMembers.Names(),
	})
	if err == nil {
		err = draft.Validate()
	}
	if err != nil {
		log.Infof("could not parse %q for user %s: %v", text, m.owner.Uid, err)
		m.notify(context.WithoutCancel(ctx), parseFailedNotice)
		return nil, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	return m.AddTransaction(ctx, draft)
}

func (m *Manager) parse(ctx context.Context, text string, pc nlparse.Context) (transaction.Draft, error) {
	if m.parser == nil {
		return transaction.Draft{}, nlparse.ErrNotConfigured
	}
	return m.parser.Parse(ctx, text, pc)
}

// Transactions returns a copy of the ledger, most recent first.
func (m *Manager) Transactions() []transaction.Transaction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]transaction.Transaction, len(m.transactions))
	copy(result, m.transactions)
	return result
}

// LedgerTransactions returns only loans and repayments, most recent first.
func (m *Manager) LedgerTransactions() []transaction.Transaction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]transaction.Transaction, 0)
	for _, tx := range m.transactions {
		if tx.IsLedgerRelated() {
			result = append(result, tx)
		}
	}
	return result
}

// Recent returns at most n of the latest transactions.
func (m *Manager) Recent(n int) []transaction.Transaction {
	all := m.Transactions()
	if n < 0 {
		n = 0
	}
	if n < len(all) {
		return all[:n]
	}
	return all
}

func (m *Manager) Summary() Summary {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Summarize(m.transactions, m.settings.BudgetLimit)
}

func (m *Manager) Settings() settings.Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings
}

func (m *Manager) SetLedgerName(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidLedgerName
	}
	m.ledgerNameMu.Lock()
	defer m.ledgerNameMu.Unlock()

	if err := m.updateSettings(func(s *settings.Settings) bool {
		s.LedgerName = name
		return true
	}); err != nil {
		return err
	}
	if err := m.settingsRepo.UpsertLedgerName(ctx, m.owner.Id, name); err != nil {
		log.Errorf("error updating ledger name of user %s: %v", m.owner.Uid, err)
		return fmt.Errorf("%w: %v", ErrSettingsWrite, err)
	}
	return nil
}

// AddFamilyMember appends a member. It returns false, and issues no write,
// when the name is already known.
func (m *Manager) AddFamilyMember(ctx context.Context, name string) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, ErrInvalidMemberName
	}
	m.membersMu.Lock()
	defer m.membersMu.Unlock()

	var members []string
	added := false
	if err := m.updateSettings(func(s *settings.Settings) bool {
		s.FamilyMembers, added = s.FamilyMembers.Add(name)
		members = s.FamilyMembers.Names()
		return added
	}); err != nil {
		return false, err
	}
	if !added {
		return false, nil
	}
	if err := m.settingsRepo.UpsertFamilyMembers(ctx, m.owner.Id, members); err != nil {
		log.Errorf("error updating family members of user %s: %v", m.owner.Uid, err)
		return true, fmt.Errorf("%w: %v", ErrSettingsWrite, err)
	}
	return true, nil
}

func (m *Manager) SetBudgetLimit(ctx context.Context, limit decimal.Decimal) error {
	if !limit.IsPositive() {
		return ErrInvalidBudgetLimit
	}
	m.budgetLimitMu.Lock()
	defer m.budgetLimitMu.Unlock()

	if err := m.updateSettings(func(s *settings.Settings) bool {
		s.BudgetLimit = limit
		return true
	}); err != nil {
		return err
	}
	if err := m.settingsRepo.UpsertBudgetLimit(ctx, m.owner.Id, limit); err != nil {
		log.Errorf("error updating budget limit of user %s: %v", m.owner.Uid, err)
		return fmt.Errorf("%w: %v", ErrSettingsWrite, err)
	}
	return nil
}

func (m *Manager) updateSettings(apply func(*settings.Settings) bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrSessionClosed
	}
	updated := m.settings
	if apply(&updated) {
		m.settings = updated
	}
	return nil
}

// Close ends the session. Writes already issued still complete, new ones are
// refused.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
}

func (m *Manager) isClosed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}

func (m *Manager) notify(ctx context.Context, message string) {
	m.publish(ctx, event_bus.LedgerNoticeRaised, event_bus.LedgerNotice{
		UserUid: m.owner.Uid,
		Level:   event_bus.NoticeError,
		Message: message,
	})
}

func (m *Manager) publish(ctx context.Context, eventType event_bus.EventType, data any) {
	if m.eventBus == nil {
		return
	}
	if err := m.eventBus.Publish(event_bus.NewEvent(ctx, eventType, data)); err != nil {
		log.Errorf("failed to publish %s event: %v", eventType, err)
	}
}

func prepend(txs []transaction.Transaction, tx transaction.Transaction) []transaction.Transaction {
	result := make([]transaction.Transaction, 0, len(txs)+1)
	result = append(result, tx)
	return append(result, txs...)
}

func indexOf(txs []transaction.Transaction, id string) int {
	for i, tx := range txs {
		if tx.Id == id {
			return i
		}
	}
	return -1
}
