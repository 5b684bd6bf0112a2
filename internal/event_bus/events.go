package event_bus

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TransactionConfirmed  EventType = "ledger.transaction.confirmed"
	TransactionRolledBack EventType = "ledger.transaction.rolled_back"
	LedgerNoticeRaised    EventType = "ledger.notice"
)

type TransactionConfirmedEvent struct {
	UserUid       string
	ProvisionalId string
	Id            string
	Kind          string
	Amount        decimal.Decimal
	OccurredAt    time.Time
}

type TransactionRolledBackEvent struct {
	UserUid       string
	ProvisionalId string
	Reason        string
}

type NoticeLevel string

const (
	NoticeError NoticeLevel = "error"
	NoticeInfo  NoticeLevel = "info"
)

// LedgerNotice is a message meant to be shown to the user of a session.
type LedgerNotice struct {
	UserUid string
	Level   NoticeLevel
	Message string
}
