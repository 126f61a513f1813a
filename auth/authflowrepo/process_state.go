package authflowrepo

import (
	"crypto/subtle"
	"time"

	"github.com/jrsteele09/oauth2-test-client/internal/errors"
)

// ProcessState is a single state value shared by every authorization attempt for the
// lifetime of the process. It is never consumed, so only one attempt can meaningfully
// be in flight at a time.
type ProcessState struct {
	state    string
	issuedAt time.Time
}

var _ Repo = (*ProcessState)(nil)

// NewProcessState generates the process-wide state.
func NewProcessState(now time.Time) *ProcessState {
	return NewFixedProcessState(NewState(), now)
}

// NewFixedProcessState uses a caller-chosen state (primarily for testing).
func NewFixedProcessState(state string, now time.Time) *ProcessState {
	return &ProcessState{state: state, issuedAt: now}
}

func (p *ProcessState) Issue(time.Time) (string, error) {
	return p.state, nil
}

// Consume compares state to the process value by exact match.
func (p *ProcessState) Consume(state string, _ time.Time) (*AuthFlowState, error) {
	if state == "" || subtle.ConstantTimeCompare([]byte(state), []byte(p.state)) != 1 {
		return nil, errors.ErrStateNotFound
	}
	return &AuthFlowState{State: p.state, IssuedAt: p.issuedAt}, nil
}
