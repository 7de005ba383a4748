package slip

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Store persists slips between requests. Load returns nil when the owner has no slip.
type Store interface {
	Load(ctx context.Context, owner string) (*State, error)
	Save(ctx context.Context, owner string, state *State) error
	Delete(ctx context.Context, owner string) error
}

// MemoryStore keeps slips in process memory
type MemoryStore struct {
	mu    sync.RWMutex
	slips map[string]State
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{slips: make(map[string]State)}
}

func (m *MemoryStore) Load(_ context.Context, owner string) (*State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.slips[owner]
	if !ok {
		return nil, nil
	}
	return cloneState(state), nil
}

func (m *MemoryStore) Save(_ context.Context, owner string, state *State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slips[owner] = *cloneState(*state)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.slips, owner)
	return nil
}

func cloneState(state State) *State {
	selections := append(state.Selections[:0:0], state.Selections...)
	return &State{Selections: selections, Stake: state.Stake}
}

// RedisStore keeps slips as JSON in Redis with a sliding TTL
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore creates a Redis-backed store. Each save refreshes the TTL.
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func slipKey(owner string) string { return "slip:user:" + owner }

func (r *RedisStore) Load(ctx context.Context, owner string) (*State, error) {
	b, err := r.rdb.Get(ctx, slipKey(owner)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read slip: %w", err)
	}

	var state State
	if err := json.Unmarshal(b, &state); err != nil {
		// Unreadable entries read as an empty slip
		log.WithFields(log.Fields{
			"owner": owner,
			"error": err,
		}).Warn("Discarding unreadable slip")
		return nil, nil
	}
	return &state, nil
}

func (r *RedisStore) Save(ctx context.Context, owner string, state *State) error {
	b, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal slip: %w", err)
	}
	if err := r.rdb.Set(ctx, slipKey(owner), b, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write slip: %w", err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, owner string) error {
	if err := r.rdb.Del(ctx, slipKey(owner)).Err(); err != nil {
		return fmt.Errorf("failed to delete slip: %w", err)
	}
	return nil
}
