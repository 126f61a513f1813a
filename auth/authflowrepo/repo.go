package authflowrepo

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// AuthFlowState is one issued anti-CSRF state value.
type AuthFlowState struct {
	State      string
	IssuedAt   time.Time
	ExpiresAt  time.Time
	ConsumedAt *time.Time
}

// Expired reports whether the state can no longer be redeemed at now.
func (s AuthFlowState) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// Repo binds each authorization attempt to an unguessable state value that is verified
// when the authorization server redirects back.
type Repo interface {
	// Issue returns the state to embed in a new authorization URL.
	Issue(now time.Time) (string, error)
	// Consume verifies a callback's state. Every failure wraps errors.ErrCsrfMismatch.
	Consume(state string, now time.Time) (*AuthFlowState, error)
}

// NewState returns a random 128-bit hex value.
func NewState() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
