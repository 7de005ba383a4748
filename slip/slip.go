// Package slip holds a user's in-progress bet slip: an ordered set of selections and a stake
// that is turned into a wager on submission.
package slip

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"sportsbook/apperr"
	"sportsbook/models"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// Change reports what a toggle did to the slip
type Change string

const (
	ChangeAdded   Change = "added"
	ChangeRemoved Change = "removed"
)

// Op names the mutation that triggered a notification
type Op string

const (
	OpToggle Op = "toggle"
	OpStake  Op = "stake"
	OpSubmit Op = "submit"
	OpClear  Op = "clear"
)

var minOdds = decimal.NewFromInt(1)

// State is the persisted part of a slip
type State struct {
	Selections []models.Selection `json:"selections"`
	Stake      decimal.Decimal    `json:"stake"`
}

// Snapshot is a read-only view of a slip with its derived values
type Snapshot struct {
	Selections []models.Selection `json:"selections"`
	Stake      decimal.Decimal    `json:"stake"`
	TotalOdds  decimal.Decimal    `json:"totalOdds"`
	Payout     decimal.Decimal    `json:"payout"`
}

// Event is delivered to listeners after every mutation
type Event struct {
	Op       Op
	Change   Change
	Snapshot Snapshot
}

// Listener receives slip notifications synchronously
type Listener func(Event)

// Placer turns a submitted slip into a wager. service.WagerService satisfies it.
type Placer interface {
	PlaceWager(ctx context.Context, userID string, selections []models.Selection, stake decimal.Decimal) (*models.Wager, error)
}

// Slip is the bet slip of one owner. It is safe for concurrent use.
type Slip struct {
	mu        sync.Mutex
	owner     string
	store     Store
	state     State
	listeners map[int]Listener
	order     []int
	nextID    int
	closed    bool
	// submitting is set while a wager is being placed from the current state
	submitting bool
}

// Open constructs the slip for owner and hydrates it from store
func Open(ctx context.Context, store Store, owner string) (*Slip, error) {
	state, err := store.Load(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to load slip for %s: %w", owner, err)
	}

	s := &Slip{
		owner:     owner,
		store:     store,
		listeners: make(map[int]Listener),
	}
	if state != nil {
		s.state = *state
	}
	return s, nil
}

// Subscribe registers a listener and returns a function that removes it
func (s *Slip) Subscribe(listener Listener) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = listener
	s.order = append(s.order, id)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.listeners, id)
			for i, registered := range s.order {
				if registered == id {
					s.order = append(s.order[:i], s.order[i+1:]...)
					break
				}
			}
		})
	}
}

// Toggle adds the selection, or removes it when a selection with the same id is already present
func (s *Slip) Toggle(ctx context.Context, sel models.Selection) (Change, error) {
	sel.Label = strings.TrimSpace(sel.Label)
	if sel.Label == "" {
		return "", apperr.Validation("selection label is required")
	}
	if !sel.Odds.GreaterThan(minOdds) {
		return "", apperr.Validation("odds must be greater than 1")
	}
	sel.ID = models.SelectionID(sel.Label, sel.Odds)

	s.mu.Lock()
	if err := s.checkMutable(); err != nil {
		s.mu.Unlock()
		return "", err
	}

	change := ChangeAdded
	next := make([]models.Selection, 0, len(s.state.Selections)+1)
	for _, existing := range s.state.Selections {
		if models.SelectionID(existing.Label, existing.Odds) == sel.ID {
			change = ChangeRemoved
			continue
		}
		next = append(next, existing)
	}
	if change == ChangeAdded {
		next = append(next, sel)
	}

	if err := s.persist(ctx, State{Selections: next, Stake: s.state.Stake}); err != nil {
		s.mu.Unlock()
		return "", err
	}
	event, listeners := s.eventLocked(OpToggle, change)
	s.mu.Unlock()

	notify(listeners, event)
	return change, nil
}

// SetStake sets the stake. Negative amounts are coerced to zero and rejected at submission.
func (s *Slip) SetStake(ctx context.Context, amount decimal.Decimal) error {
	if amount.IsNegative() {
		amount = decimal.Zero
	}

	s.mu.Lock()
	if err := s.checkMutable(); err != nil {
		s.mu.Unlock()
		return err
	}
	if err := s.persist(ctx, State{Selections: s.state.Selections, Stake: amount}); err != nil {
		s.mu.Unlock()
		return err
	}
	event, listeners := s.eventLocked(OpStake, "")
	s.mu.Unlock()

	notify(listeners, event)
	return nil
}

// SetStakeInput parses raw user input as the stake. Empty or unparsable input becomes zero.
func (s *Slip) SetStakeInput(ctx context.Context, raw string) error {
	return s.SetStake(ctx, ParseStake(raw))
}

// ParseStake converts free-form stake input to an amount, coercing anything invalid to zero
func ParseStake(raw string) decimal.Decimal {
	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || amount.IsNegative() {
		return decimal.Zero
	}
	return amount
}

// Clear empties the slip
func (s *Slip) Clear(ctx context.Context) error {
	s.mu.Lock()
	if err := s.checkMutable(); err != nil {
		s.mu.Unlock()
		return err
	}
	if err := s.store.Delete(ctx, s.owner); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to clear slip: %w", err)
	}
	s.state = State{}
	event, listeners := s.eventLocked(OpClear, "")
	s.mu.Unlock()

	notify(listeners, event)
	return nil
}

// TotalOdds returns the product of the selected odds, zero when empty
func (s *Slip) TotalOdds() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.CombinedOdds(s.state.Selections)
}

// Payout returns stake × total odds, zero for an empty slip regardless of stake
func (s *Slip) Payout() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return payout(s.state)
}

// Snapshot returns a copy of the current slip
func (s *Slip) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot(s.state)
}

// Submit places the slip as a wager for userID and clears it on success.
// On failure the slip is left as it was. Mutations and further submits are
// rejected until the placement finishes.
func (s *Slip) Submit(ctx context.Context, placer Placer, userID string) (*models.Wager, error) {
	if userID == "" {
		return nil, apperr.ErrAuthRequired
	}

	s.mu.Lock()
	if err := s.checkMutable(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	current := snapshot(s.state)
	if len(current.Selections) == 0 {
		s.mu.Unlock()
		return nil, apperr.Validation("slip is empty")
	}
	if !current.Stake.IsPositive() {
		s.mu.Unlock()
		return nil, apperr.Validation("stake must be positive")
	}
	s.submitting = true
	s.mu.Unlock()

	wager, err := placer.PlaceWager(ctx, userID, current.Selections, current.Stake)

	s.mu.Lock()
	s.submitting = false
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.state = State{}
	if err := s.store.Delete(ctx, s.owner); err != nil {
		// The wager is already placed; only the stored copy is stale
		log.WithFields(log.Fields{
			"owner": s.owner,
			"error": err,
		}).Warn("Failed to clear stored slip after submission")
	}
	event, listeners := s.eventLocked(OpSubmit, "")
	s.mu.Unlock()

	notify(listeners, event)
	return wager, nil
}

// Close removes the stored slip and drops all listeners. The slip cannot be used afterwards.
func (s *Slip) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.state = State{}
	s.listeners = make(map[int]Listener)
	s.order = nil

	if err := s.store.Delete(ctx, s.owner); err != nil {
		return fmt.Errorf("failed to delete slip: %w", err)
	}
	return nil
}

// Reload replaces the in-memory state with the stored copy. An expired or
// missing copy empties the slip. It is a no-op while a submission is in flight.
func (s *Slip) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.submitting {
		return nil
	}
	state, err := s.store.Load(ctx, s.owner)
	if err != nil {
		return fmt.Errorf("failed to load slip for %s: %w", s.owner, err)
	}
	if state == nil {
		s.state = State{}
		return nil
	}
	s.state = *state
	return nil
}

// Submitting reports whether a wager is currently being placed from this slip
func (s *Slip) Submitting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitting
}

func (s *Slip) checkOpen() error {
	if s.closed {
		return fmt.Errorf("slip for %s is closed", s.owner)
	}
	return nil
}

func (s *Slip) checkMutable() error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if s.submitting {
		return apperr.Validation("submission in progress")
	}
	return nil
}

// persist saves next and makes it current. Must be called with mu held.
func (s *Slip) persist(ctx context.Context, next State) error {
	if err := s.store.Save(ctx, s.owner, &next); err != nil {
		return fmt.Errorf("failed to save slip: %w", err)
	}
	s.state = next
	return nil
}

// eventLocked builds the notification and copies the listeners in registration order
func (s *Slip) eventLocked(op Op, change Change) (Event, []Listener) {
	listeners := make([]Listener, 0, len(s.order))
	for _, id := range s.order {
		listeners = append(listeners, s.listeners[id])
	}
	return Event{Op: op, Change: change, Snapshot: snapshot(s.state)}, listeners
}

func notify(listeners []Listener, event Event) {
	for _, l := range listeners {
		l(event)
	}
}

func snapshot(state State) Snapshot {
	selections := make([]models.Selection, len(state.Selections))
	copy(selections, state.Selections)
	return Snapshot{
		Selections: selections,
		Stake:      state.Stake,
		TotalOdds:  models.CombinedOdds(state.Selections),
		Payout:     payout(state),
	}
}

func payout(state State) decimal.Decimal {
	if len(state.Selections) == 0 {
		return decimal.Zero
	}
	return models.Payout(state.Stake, models.CombinedOdds(state.Selections))
}
