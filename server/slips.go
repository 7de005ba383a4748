package server

import (
	"context"
	"sync"
	"time"

	"sportsbook/slip"

	log "github.com/sirupsen/logrus"
)

const defaultSlipIdleTimeout = 30 * time.Minute

type cachedSlip struct {
	slip     *slip.Slip
	lastUsed time.Time
}

// slipRegistry caches one open slip per user. The stored copy is authoritative:
// a cached slip is reloaded on every access and dropped once idle.
type slipRegistry struct {
	mu        sync.Mutex
	store     slip.Store
	idle      time.Duration
	slips     map[string]*cachedSlip
	lastSweep time.Time
	now       func() time.Time
}

func newSlipRegistry(store slip.Store, idle time.Duration) *slipRegistry {
	if store == nil {
		store = slip.NewMemoryStore()
	}
	if idle <= 0 {
		idle = defaultSlipIdleTimeout
	}
	return &slipRegistry{
		store: store,
		idle:  idle,
		slips: make(map[string]*cachedSlip),
		now:   time.Now,
	}
}

// get returns the user's slip, hydrated from the store
func (r *slipRegistry) get(ctx context.Context, userID string) (*slip.Slip, error) {
	r.mu.Lock()
	now := r.now()
	r.sweepLocked(now)
	if cached, ok := r.slips[userID]; ok {
		cached.lastUsed = now
		r.mu.Unlock()
		if err := cached.slip.Reload(ctx); err != nil {
			return nil, err
		}
		return cached.slip, nil
	}
	r.mu.Unlock()

	opened, err := slip.Open(ctx, r.store, userID)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Another request may have opened it meanwhile
	if cached, ok := r.slips[userID]; ok {
		cached.lastUsed = now
		return cached.slip, nil
	}
	r.slips[userID] = &cachedSlip{slip: opened, lastUsed: now}
	return opened, nil
}

// close discards the user's slip, including its stored copy
func (r *slipRegistry) close(ctx context.Context, userID string) error {
	r.mu.Lock()
	cached, ok := r.slips[userID]
	delete(r.slips, userID)
	r.mu.Unlock()

	if !ok {
		return r.store.Delete(ctx, userID)
	}
	return cached.slip.Close(ctx)
}

// size reports how many slips are cached
func (r *slipRegistry) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.slips)
}

// sweepLocked drops slips unused for longer than the idle timeout. Their stored
// copies are kept. Must be called with mu held.
func (r *slipRegistry) sweepLocked(now time.Time) {
	if now.Sub(r.lastSweep) < r.idle/2 {
		return
	}
	r.lastSweep = now

	evicted := 0
	for userID, cached := range r.slips {
		if now.Sub(cached.lastUsed) > r.idle && !cached.slip.Submitting() {
			delete(r.slips, userID)
			evicted++
		}
	}
	if evicted > 0 {
		log.WithField("count", evicted).Debug("Evicted idle slips")
	}
}
