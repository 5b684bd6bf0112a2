package notice

import (
	"context"
	"testing"

	"github.com/famledger/famledger/internal/event_bus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInbox(t *testing.T) {
	publish := func(t *testing.T, bus *event_bus.EventBus, uid, message string) {
		t.Helper()
		require.NoError(t, bus.Publish(event_bus.NewEvent(context.Background(), event_bus.LedgerNoticeRaised,
			event_bus.LedgerNotice{UserUid: uid, Level: event_bus.NoticeError, Message: message})))
	}

	t.Run("should keep notices per user until drained", func(t *testing.T) {
		bus := event_bus.NewEventBus()
		inbox := NewInbox(bus)
		defer inbox.Close()

		publish(t, bus, "alice", "first")
		publish(t, bus, "bob", "other")
		publish(t, bus, "alice", "second")

		notices := inbox.Drain("alice")
		require.Len(t, notices, 2)
		assert.Equal(t, "first", notices[0].Message)
		assert.Equal(t, "second", notices[1].Message)
		assert.Equal(t, "error", notices[0].Level)
		assert.Empty(t, inbox.Drain("alice"))
		assert.Len(t, inbox.Drain("bob"), 1)
	})

	t.Run("should stop collecting after close", func(t *testing.T) {
		bus := event_bus.NewEventBus()
		inbox := NewInbox(bus)
		inbox.Close()

		publish(t, bus, "alice", "ignored")

		assert.Empty(t, inbox.Drain("alice"))
	})
}
