package events

import (
	"context"
	"sync"

	"sportsbook/models"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChange       EventType = "balance_change"
	EventTypeUserRegistered      EventType = "user_registered"
	EventTypeWagerPlaced         EventType = "wager_placed"
	EventTypeWagerSettled        EventType = "wager_settled"
	EventTypeDepositRequested    EventType = "deposit_requested"
	EventTypeDepositResolved     EventType = "deposit_resolved"
	EventTypeWithdrawalRequested EventType = "withdrawal_requested"
	EventTypeWithdrawalResolved  EventType = "withdrawal_resolved"
)

// AllEventTypes lists every event type emitted by the services
var AllEventTypes = []EventType{
	EventTypeBalanceChange,
	EventTypeUserRegistered,
	EventTypeWagerPlaced,
	EventTypeWagerSettled,
	EventTypeDepositRequested,
	EventTypeDepositResolved,
	EventTypeWithdrawalRequested,
	EventTypeWithdrawalResolved,
}

// Event is the base interface for all events
type Event interface {
	Type() EventType
	// PartitionKey groups events of the same user together downstream
	PartitionKey() string
}

// BalanceChangeEvent represents a balance change that occurred
type BalanceChangeEvent struct {
	UserID       string                 `json:"userId"`
	OldBalance   decimal.Decimal        `json:"oldBalance"`
	NewBalance   decimal.Decimal        `json:"newBalance"`
	ChangeAmount decimal.Decimal        `json:"changeAmount"`
	EntryType    models.LedgerEntryType `json:"entryType"`
}

func (e BalanceChangeEvent) Type() EventType      { return EventTypeBalanceChange }
func (e BalanceChangeEvent) PartitionKey() string { return e.UserID }

// UserRegisteredEvent represents a new account
type UserRegisteredEvent struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func (e UserRegisteredEvent) Type() EventType      { return EventTypeUserRegistered }
func (e UserRegisteredEvent) PartitionKey() string { return e.UserID }

// WagerPlacedEvent represents a submitted bet
type WagerPlacedEvent struct {
	WagerID   string          `json:"wagerId"`
	UserID    string          `json:"userId"`
	Stake     decimal.Decimal `json:"stake"`
	TotalOdds decimal.Decimal `json:"totalOdds"`
	Legs      int             `json:"legs"`
}

func (e WagerPlacedEvent) Type() EventType      { return EventTypeWagerPlaced }
func (e WagerPlacedEvent) PartitionKey() string { return e.UserID }

// WagerSettledEvent represents a wager reaching won or lost
type WagerSettledEvent struct {
	WagerID string             `json:"wagerId"`
	UserID  string             `json:"userId"`
	Status  models.WagerStatus `json:"status"`
	Payout  decimal.Decimal    `json:"payout"`
}

func (e WagerSettledEvent) Type() EventType      { return EventTypeWagerSettled }
func (e WagerSettledEvent) PartitionKey() string { return e.UserID }

// DepositRequestedEvent represents a user reporting an external payment
type DepositRequestedEvent struct {
	TransactionID string          `json:"transactionId"`
	UserID        string          `json:"userId"`
	Amount        decimal.Decimal `json:"amount"`
	Method        string          `json:"method"`
}

func (e DepositRequestedEvent) Type() EventType      { return EventTypeDepositRequested }
func (e DepositRequestedEvent) PartitionKey() string { return e.UserID }

// DepositResolvedEvent represents an admin decision on a deposit
type DepositResolvedEvent struct {
	TransactionID string               `json:"transactionId"`
	UserID        string               `json:"userId"`
	Amount        decimal.Decimal      `json:"amount"`
	Status        models.RequestStatus `json:"status"`
	AdminID       string               `json:"adminId"`
	Reason        string               `json:"reason,omitempty"`
}

func (e DepositResolvedEvent) Type() EventType      { return EventTypeDepositResolved }
func (e DepositResolvedEvent) PartitionKey() string { return e.UserID }

// WithdrawalRequestedEvent represents funds held for a payout
type WithdrawalRequestedEvent struct {
	RequestID     string                  `json:"requestId"`
	TransactionID string                  `json:"transactionId"`
	UserID        string                  `json:"userId"`
	Amount        decimal.Decimal         `json:"amount"`
	MethodType    models.WithdrawalMethod `json:"methodType"`
}

func (e WithdrawalRequestedEvent) Type() EventType      { return EventTypeWithdrawalRequested }
func (e WithdrawalRequestedEvent) PartitionKey() string { return e.UserID }

// WithdrawalResolvedEvent represents an admin decision on a withdrawal.
// An approved event is the signal to pay out off-platform.
type WithdrawalResolvedEvent struct {
	RequestID     string                  `json:"requestId"`
	TransactionID string                  `json:"transactionId"`
	UserID        string                  `json:"userId"`
	Amount        decimal.Decimal         `json:"amount"`
	MethodType    models.WithdrawalMethod `json:"methodType"`
	MethodDetails string                  `json:"methodDetails"`
	Status        models.RequestStatus    `json:"status"`
	AdminID       string                  `json:"adminId"`
	Reason        string                  `json:"reason,omitempty"`
}

func (e WithdrawalResolvedEvent) Type() EventType      { return EventTypeWithdrawalResolved }
func (e WithdrawalResolvedEvent) PartitionKey() string { return e.UserID }

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	inflight sync.WaitGroup
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// SubscribeAll adds a handler for every known event type
func (b *Bus) SubscribeAll(handler Handler) {
	for _, eventType := range AllEventTypes {
		b.Subscribe(eventType, handler)
	}
}

// Emit publishes an event to all registered handlers.
// Handlers run asynchronously and a panicking handler does not affect the others.
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event to handlers")

	for i, handler := range handlers {
		b.inflight.Add(1)
		go func(h Handler, handlerIndex int) {
			defer b.inflight.Done()
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// Wait blocks until every handler started so far has returned
func (b *Bus) Wait() {
	b.inflight.Wait()
}

// TransactionalBus holds events raised inside a unit of work until the database commit.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	log.WithFields(log.Fields{
		"eventType":    e.Type(),
		"pendingCount": len(b.pending),
	}).Debug("Queued event until commit")
	b.pending = append(b.pending, e)
}

// Flush is called after a successful commit
func (b *TransactionalBus) Flush(ctx context.Context) error {
	// Handlers outlive the request, so they must not inherit its cancellation
	eventCtx := context.WithoutCancel(ctx)

	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	log.WithField("eventCount", len(b.pending)).Debug("Flushed pending events")
	b.pending = nil
	return nil
}

// Discard is called after a rollback
func (b *TransactionalBus) Discard() {
	b.pending = nil
}

// Pending returns the number of queued events
func (b *TransactionalBus) Pending() int {
	return len(b.pending)
}
