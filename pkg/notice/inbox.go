package notice

import (
	"sync"
	"time"

	"github.com/famledger/famledger/internal/event_bus"
)

type Notice struct {
	Level   string
	Message string
	At      time.Time
}

// Inbox collects ledger notices per user until they are drained.
type Inbox struct {
	mu          sync.Mutex
	notices     map[string][]Notice
	unsubscribe func()
}

func NewInbox(bus *event_bus.EventBus) *Inbox {
	inbox := &Inbox{notices: make(map[string][]Notice)}
	inbox.unsubscribe = event_bus.SubscribeTyped(bus, event_bus.LedgerNoticeRaised,
		func(e event_bus.EventT[event_bus.LedgerNotice]) error {
			inbox.push(e.Data.UserUid, Notice{Level: string(e.Data.Level), Message: e.Data.Message, At: e.Timestamp})
			return nil
		})
	return inbox
}

func (i *Inbox) push(uid string, n Notice) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.notices[uid] = append(i.notices[uid], n)
}

// Drain returns the pending notices of the user, oldest first, and forgets them.
func (i *Inbox) Drain(uid string) []Notice {
	i.mu.Lock()
	defer i.mu.Unlock()
	pending := i.notices[uid]
	delete(i.notices, uid)
	if pending == nil {
		return []Notice{}
	}
	return pending
}

func (i *Inbox) Close() {
	i.unsubscribe()
}
