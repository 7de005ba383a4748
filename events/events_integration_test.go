package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"sportsbook/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEventDeliveryIntegration tests the flow from TransactionalBus to the main Bus
func TestEventDeliveryIntegration(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	eventReceived := make(chan BalanceChangeEvent, 1)
	mainBus.Subscribe(EventTypeBalanceChange, func(ctx context.Context, event Event) {
		balanceEvent, ok := event.(BalanceChangeEvent)
		if !ok {
			t.Errorf("Expected BalanceChangeEvent, got %T", event)
			return
		}
		eventReceived <- balanceEvent
	})

	testEvent := BalanceChangeEvent{
		UserID:       "user-1",
		OldBalance:   decimal.NewFromInt(100),
		NewBalance:   decimal.NewFromInt(600),
		ChangeAmount: decimal.NewFromInt(500),
		EntryType:    models.LedgerEntryDepositApproved,
	}

	transactionalBus.Publish(testEvent)

	// Nothing is delivered before the commit
	select {
	case <-eventReceived:
		t.Fatal("event delivered before flush")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, transactionalBus.Flush(context.Background()))

	select {
	case received := <-eventReceived:
		assert.Equal(t, testEvent.UserID, received.UserID)
		assert.True(t, testEvent.ChangeAmount.Equal(received.ChangeAmount))
		assert.Equal(t, testEvent.EntryType, received.EntryType)
	case <-time.After(2 * time.Second):
		t.Fatal("Event was not received within timeout")
	}
	assert.Equal(t, 0, transactionalBus.Pending())
}

func TestTransactionalBus_Discard(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	var mu sync.Mutex
	delivered := 0
	mainBus.SubscribeAll(func(ctx context.Context, event Event) {
		mu.Lock()
		delivered++
		mu.Unlock()
	})

	transactionalBus.Publish(WagerPlacedEvent{WagerID: "w1", UserID: "u1"})
	transactionalBus.Publish(DepositRequestedEvent{TransactionID: "t1", UserID: "u1"})
	assert.Equal(t, 2, transactionalBus.Pending())

	transactionalBus.Discard()
	require.NoError(t, transactionalBus.Flush(context.Background()))
	mainBus.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 0, delivered)
}

func TestBus_MultipleEventsDelivery(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	var mu sync.Mutex
	received := map[EventType]int{}
	mainBus.SubscribeAll(func(ctx context.Context, event Event) {
		mu.Lock()
		received[event.Type()]++
		mu.Unlock()
	})

	transactionalBus.Publish(WagerPlacedEvent{WagerID: "w1", UserID: "u1"})
	transactionalBus.Publish(WagerSettledEvent{WagerID: "w1", UserID: "u1", Status: models.WagerStatusWon})
	transactionalBus.Publish(WithdrawalResolvedEvent{RequestID: "r1", UserID: "u1", Status: models.RequestStatusApproved})

	require.NoError(t, transactionalBus.Flush(context.Background()))
	mainBus.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, received[EventTypeWagerPlaced])
	assert.Equal(t, 1, received[EventTypeWagerSettled])
	assert.Equal(t, 1, received[EventTypeWithdrawalResolved])
}

func TestBus_HandlerPanicIsRecovered(t *testing.T) {
	bus := NewBus()

	done := make(chan struct{})
	bus.Subscribe(EventTypeUserRegistered, func(ctx context.Context, event Event) {
		panic("boom")
	})
	bus.Subscribe(EventTypeUserRegistered, func(ctx context.Context, event Event) {
		close(done)
	})

	bus.Emit(context.Background(), UserRegisteredEvent{UserID: "u1", Username: "alice"})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("second handler did not run")
	}
	bus.Wait()
}

func TestTransactionalBus_FlushSurvivesCancelledContext(t *testing.T) {
	bus := NewBus()
	transactionalBus := NewTransactionalBus(bus)

	ctxErr := make(chan error, 1)
	bus.Subscribe(EventTypeDepositResolved, func(ctx context.Context, event Event) {
		ctxErr <- ctx.Err()
	})

	ctx, cancel := context.WithCancel(context.Background())
	transactionalBus.Publish(DepositResolvedEvent{TransactionID: "t1", UserID: "u1"})
	cancel()
	require.NoError(t, transactionalBus.Flush(ctx))

	select {
	case err := <-ctxErr:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("handler not called")
	}
}
