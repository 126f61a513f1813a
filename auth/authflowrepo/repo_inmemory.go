package authflowrepo

import (
	"sync"
	"time"

	"github.com/jrsteele09/oauth2-test-client/internal/errors"
)

// DefaultMaxStates bounds how many states an InMemoryRepo tracks at once.
const DefaultMaxStates = 1024

// InMemoryRepo is a thread-safe in-memory implementation of the Repo interface that
// mints a fresh state per authorization attempt. A state is accepted once; consumed
// states are kept until they expire so that a replay is reported as such. When the
// repo is full the oldest state is evicted to make room.
type InMemoryRepo struct {
	mu        sync.Mutex
	states    map[string]*AuthFlowState
	order     []string // issue order, may hold states already removed from the map
	ttl       time.Duration
	maxStates int
	newState  func() string
}

var _ Repo = (*InMemoryRepo)(nil)

// InMemoryOption configures an InMemoryRepo.
type InMemoryOption func(*InMemoryRepo)

// WithStateGenerator replaces the random state generator (primarily for testing)
func WithStateGenerator(gen func() string) InMemoryOption {
	return func(r *InMemoryRepo) {
		r.newState = gen
	}
}

// WithMaxStates sets how many states are tracked before the oldest is evicted
func WithMaxStates(n int) InMemoryOption {
	return func(r *InMemoryRepo) {
		if n > 0 {
			r.maxStates = n
		}
	}
}

// NewInMemoryRepo creates a new in-memory auth flow state repository
func NewInMemoryRepo(ttl time.Duration, opts ...InMemoryOption) *InMemoryRepo {
	r := &InMemoryRepo{
		states:    make(map[string]*AuthFlowState),
		ttl:       ttl,
		maxStates: DefaultMaxStates,
		newState:  NewState,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Issue stores a new state valid for the repo's TTL. Expired entries are swept first,
// then the oldest entries are evicted while the repo is full.
func (r *InMemoryRepo) Issue(now time.Time) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sweep(now)

	state := r.newState()
	if state == "" {
		return "", errors.New("state cannot be empty")
	}
	if _, exists := r.states[state]; exists {
		return "", errors.New("state collision")
	}

	for len(r.states) >= r.maxStates {
		r.evictOldest()
	}

	r.states[state] = &AuthFlowState{
		State:     state,
		IssuedAt:  now,
		ExpiresAt: now.Add(r.ttl),
	}
	r.order = append(r.order, state)
	return state, nil
}

// Consume marks a state as used. Unknown, expired and already used states are rejected.
func (r *InMemoryRepo) Consume(state string, now time.Time) (*AuthFlowState, error) {
	if state == "" {
		return nil, errors.ErrStateNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	authState, exists := r.states[state]
	if !exists {
		return nil, errors.ErrStateNotFound
	}
	if authState.ConsumedAt != nil {
		return nil, errors.ErrStateConsumed
	}
	if authState.Expired(now) {
		delete(r.states, state)
		return nil, errors.ErrStateExpired
	}

	consumedAt := now
	authState.ConsumedAt = &consumedAt

	// Return a copy to prevent external modifications
	stateCopy := *authState
	return &stateCopy, nil
}

// Len returns the number of tracked states, consumed or not.
func (r *InMemoryRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.states)
}

func (r *InMemoryRepo) sweep(now time.Time) {
	for state, authState := range r.states {
		if authState.Expired(now) {
			delete(r.states, state)
		}
	}

	live := r.order[:0]
	for _, state := range r.order {
		if _, ok := r.states[state]; ok {
			live = append(live, state)
		}
	}
	r.order = live
}

func (r *InMemoryRepo) evictOldest() {
	for len(r.order) > 0 {
		oldest := r.order[0]
		r.order = r.order[1:]
		if _, ok := r.states[oldest]; ok {
			delete(r.states, oldest)
			return
		}
	}
}
