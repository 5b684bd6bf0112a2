package app

import (
	"context"
	"fmt"

	"github.com/famledger/famledger/internal/config"
	"github.com/famledger/famledger/internal/event_bus"
	"github.com/famledger/famledger/internal/utils"
	"github.com/famledger/famledger/pkg/ledger"
	"github.com/famledger/famledger/pkg/nlparse"
	"github.com/famledger/famledger/pkg/notice"
	"github.com/famledger/famledger/pkg/session"
	"github.com/famledger/famledger/pkg/settings"
	"github.com/famledger/famledger/pkg/transaction"
	"github.com/famledger/famledger/pkg/user"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	UserService user.Service

	TransactionRepo transaction.Repository
	SettingsRepo    settings.Repository
	Parser          nlparse.Parser

	EventBus *event_bus.EventBus
	Inbox    *notice.Inbox
	Clock    utils.Clock

	Sessions       *session.Registry
	SessionHandler *session.Handler
	LedgerHandler  *ledger.Handler
	NoticeHandler  *notice.Handler
}

// Repositories are the storage adapters the dependencies are built on.
type Repositories struct {
	Users        user.Repo
	Transactions transaction.Repository
	Settings     settings.Repository
}

// LedgerDefaults converts the ledger section of the configuration.
func LedgerDefaults(cfg config.Ledger) (ledger.Defaults, error) {
	budgetLimit, err := decimal.NewFromString(cfg.BudgetLimit)
	if err != nil {
		return ledger.Defaults{}, fmt.Errorf("invalid ledger.budgetlimit %q: %w", cfg.BudgetLimit, err)
	}
	if !budgetLimit.IsPositive() {
		return ledger.Defaults{}, fmt.Errorf("ledger.budgetlimit must be positive, got %s", budgetLimit)
	}
	policy, err := ledger.ParseCounterpartyPolicy(cfg.CounterpartyDefault)
	if err != nil {
		return ledger.Defaults{}, err
	}
	return ledger.Defaults{
		BudgetLimit:         budgetLimit,
		LedgerName:          cfg.LedgerName,
		FamilyMembers:       cfg.FamilyMembers,
		CounterpartyDefault: policy,
	}, nil
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(ctx context.Context, repos Repositories, cfg config.Application) (*Dependencies, error) {
	defaults, err := LedgerDefaults(cfg.Ledger)
	if err != nil {
		return nil, err
	}

	deps := &Dependencies{}
	deps.UserService = user.NewUserService(repos.Users)
	deps.TransactionRepo = repos.Transactions
	deps.SettingsRepo = repos.Settings

	geminiParser, err := nlparse.NewGeminiParser(ctx, cfg.Gemini.ApiKey, cfg.Gemini.Model)
	if err != nil {
		return nil, err
	}
	if geminiParser == nil {
		log.Warn("no Gemini API key configured, natural language input is disabled")
	} else {
		deps.Parser = geminiParser
	}

	deps.EventBus = event_bus.NewEventBus()
	deps.Inbox = notice.NewInbox(deps.EventBus)
	deps.Clock = &utils.SystemClock{}

	deps.Sessions = session.NewRegistry(func(u user.User) *ledger.Manager {
		return ledger.NewManager(u, defaults, deps.TransactionRepo, deps.SettingsRepo, deps.Parser, deps.EventBus, deps.Clock)
	})
	deps.SessionHandler = session.NewHandler(deps.Sessions)
	deps.LedgerHandler = ledger.NewHandler(deps.Sessions)
	deps.NoticeHandler = notice.NewHandler(deps.Inbox)

	return deps, nil
}
