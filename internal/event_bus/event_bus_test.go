package event_bus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus_Publish(t *testing.T) {
	t.Run("should call handlers in subscription order", func(t *testing.T) {
		bus := NewEventBus()
		var calls []int
		for i := 1; i <= 5; i++ {
			i := i
			bus.Subscribe("test", func(Event) error {
				calls = append(calls, i)
				return nil
			})
		}

		err := bus.Publish(NewEvent(context.Background(), "test", nil))

		require.NoError(t, err)
		assert.Equal(t, []int{1, 2, 3, 4, 5}, calls)
	})

	t.Run("should keep running handlers after a failure or a panic", func(t *testing.T) {
		bus := NewEventBus()
		failure := errors.New("boom")
		reached := false
		bus.Subscribe("test", func(Event) error { return failure })
		bus.Subscribe("test", func(Event) error { panic("bad handler") })
		bus.Subscribe("test", func(Event) error {
			reached = true
			return nil
		})

		err := bus.Publish(NewEvent(context.Background(), "test", nil))

		assert.True(t, reached)
		assert.ErrorIs(t, err, failure)
		assert.Contains(t, err.Error(), "2 handler(s) failed")
	})

	t.Run("should not call handlers when context is cancelled", func(t *testing.T) {
		bus := NewEventBus()
		called := false
		bus.Subscribe("test", func(Event) error {
			called = true
			return nil
		})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := bus.Publish(NewEvent(ctx, "test", nil))

		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, called)
	})

	t.Run("should stop calling a handler after unsubscribe", func(t *testing.T) {
		bus := NewEventBus()
		calls := 0
		unsubscribe := bus.Subscribe("test", func(Event) error {
			calls++
			return nil
		})

		require.NoError(t, bus.Publish(NewEvent(context.Background(), "test", nil)))
		unsubscribe()
		require.NoError(t, bus.Publish(NewEvent(context.Background(), "test", nil)))

		assert.Equal(t, 1, calls)
	})
}

func TestSubscribeTyped(t *testing.T) {
	bus := NewEventBus()
	var received []LedgerNotice
	SubscribeTyped(bus, LedgerNoticeRaised, func(e EventT[LedgerNotice]) error {
		received = append(received, e.Data)
		return nil
	})

	// given a matching and a mismatching payload
	notice := LedgerNotice{UserUid: "u-1", Level: NoticeError, Message: "failed"}
	require.NoError(t, bus.Publish(NewEvent(context.Background(), LedgerNoticeRaised, notice)))
	require.NoError(t, bus.Publish(NewEvent(context.Background(), LedgerNoticeRaised, "not a notice")))

	// then only the typed payload reaches the handler
	assert.Equal(t, []LedgerNotice{notice}, received)
}
