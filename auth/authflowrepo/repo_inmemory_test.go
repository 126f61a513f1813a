package authflowrepo_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/oauth2-test-client/auth/authflowrepo"
	"github.com/jrsteele09/oauth2-test-client/internal/errors"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func TestInMemoryRepo_ConsumeOnce(t *testing.T) {
	repo := authflowrepo.NewInMemoryRepo(time.Minute)

	state, err := repo.Issue(testNow)
	require.NoError(t, err)
	require.NotEmpty(t, state)

	authState, err := repo.Consume(state, testNow.Add(time.Second))
	require.NoError(t, err)
	require.Equal(t, state, authState.State)
	require.Equal(t, testNow, authState.IssuedAt)
	require.Equal(t, testNow.Add(time.Minute), authState.ExpiresAt)
	require.NotNil(t, authState.ConsumedAt)

	_, err = repo.Consume(state, testNow.Add(2*time.Second))
	require.ErrorIs(t, err, errors.ErrStateConsumed)
	require.ErrorIs(t, err, errors.ErrCsrfMismatch)
}

func TestInMemoryRepo_ConsumeFailures(t *testing.T) {
	repo := authflowrepo.NewInMemoryRepo(time.Minute)
	state, err := repo.Issue(testNow)
	require.NoError(t, err)

	tests := []struct {
		name    string
		state   string
		at      time.Time
		wantErr error
	}{
		{name: "empty", state: "", at: testNow, wantErr: errors.ErrStateNotFound},
		{name: "unknown", state: "unknown", at: testNow, wantErr: errors.ErrStateNotFound},
		{name: "expired", state: state, at: testNow.Add(time.Minute + time.Nanosecond), wantErr: errors.ErrStateExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.Consume(tt.state, tt.at)
			require.ErrorIs(t, err, tt.wantErr)
			require.ErrorIs(t, err, errors.ErrCsrfMismatch)
		})
	}

	// The expired state was dropped on the failed attempt.
	require.Zero(t, repo.Len())
}

func TestInMemoryRepo_ValidAtExpiryBoundary(t *testing.T) {
	repo := authflowrepo.NewInMemoryRepo(time.Minute)
	state, err := repo.Issue(testNow)
	require.NoError(t, err)

	_, err = repo.Consume(state, testNow.Add(time.Minute))
	require.NoError(t, err)
}

func TestInMemoryRepo_IssueSweepsExpired(t *testing.T) {
	repo := authflowrepo.NewInMemoryRepo(time.Minute)
	for i := 0; i < 5; i++ {
		_, err := repo.Issue(testNow)
		require.NoError(t, err)
	}
	require.Equal(t, 5, repo.Len())

	_, err := repo.Issue(testNow.Add(2 * time.Minute))
	require.NoError(t, err)
	require.Equal(t, 1, repo.Len())
}

func TestInMemoryRepo_StateGenerator(t *testing.T) {
	t.Run("collision", func(t *testing.T) {
		repo := authflowrepo.NewInMemoryRepo(time.Minute, authflowrepo.WithStateGenerator(func() string { return "fixed" }))

		state, err := repo.Issue(testNow)
		require.NoError(t, err)
		require.Equal(t, "fixed", state)

		_, err = repo.Issue(testNow)
		require.Error(t, err)
	})

	t.Run("empty", func(t *testing.T) {
		repo := authflowrepo.NewInMemoryRepo(time.Minute, authflowrepo.WithStateGenerator(func() string { return "" }))
		_, err := repo.Issue(testNow)
		require.Error(t, err)
	})
}

func TestInMemoryRepo_Concurrent(t *testing.T) {
	repo := authflowrepo.NewInMemoryRepo(time.Minute)

	var wg sync.WaitGroup
	states := make(chan string, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			state, err := repo.Issue(testNow)
			if err == nil {
				states <- state
			}
		}()
	}
	wg.Wait()
	close(states)

	seen := map[string]bool{}
	for state := range states {
		seen[state] = true
	}
	require.Len(t, seen, 100)

	// Each state can be redeemed by exactly one of several concurrent callbacks.
	for state := range seen {
		var ok int32
		var mu sync.Mutex
		var inner sync.WaitGroup
		for i := 0; i < 4; i++ {
			inner.Add(1)
			go func() {
				defer inner.Done()
				if _, err := repo.Consume(state, testNow); err == nil {
					mu.Lock()
					ok++
					mu.Unlock()
				}
			}()
		}
		inner.Wait()
		require.Equal(t, int32(1), ok, fmt.Sprintf("state %s", state))
	}
}

func TestNewState(t *testing.T) {
	a, b := authflowrepo.NewState(), authflowrepo.NewState()
	require.Len(t, a, 32)
	require.NotEqual(t, a, b)
	require.NotContains(t, a, "-")
}

func TestInMemoryRepo_EvictsOldestWhenFull(t *testing.T) {
	repo := authflowrepo.NewInMemoryRepo(time.Minute, authflowrepo.WithMaxStates(3))

	var states []string
	for i := 0; i < 5; i++ {
		state, err := repo.Issue(testNow)
		require.NoError(t, err)
		states = append(states, state)
		require.LessOrEqual(t, repo.Len(), 3)
	}
	require.Equal(t, 3, repo.Len())

	for _, evicted := range states[:2] {
		_, err := repo.Consume(evicted, testNow)
		require.ErrorIs(t, err, errors.ErrStateNotFound)
	}
	for _, kept := range states[2:] {
		_, err := repo.Consume(kept, testNow)
		require.NoError(t, err)
	}
}

func TestInMemoryRepo_BoundedUnderLoad(t *testing.T) {
	repo := authflowrepo.NewInMemoryRepo(10 * time.Minute)

	var last string
	for i := 0; i < 3*authflowrepo.DefaultMaxStates; i++ {
		state, err := repo.Issue(testNow.Add(time.Duration(i) * time.Millisecond))
		require.NoError(t, err)
		last = state
	}
	require.Equal(t, authflowrepo.DefaultMaxStates, repo.Len())

	_, err := repo.Consume(last, testNow.Add(time.Minute))
	require.NoError(t, err)
}
