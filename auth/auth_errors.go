package auth

import (
	"github.com/jrsteele09/oauth2-test-client/internal/errors"
)

// ProviderError is an error the authorization server reported on the callback
// (RFC 6749 section 4.1.2.1). It is shown to the user verbatim.
type ProviderError struct {
	Code        string
	Description string
}

func (e *ProviderError) Error() string {
	if e.Description != "" {
		return e.Code + ": " + e.Description
	}
	return e.Code
}

func (e *ProviderError) Unwrap() error {
	return errors.ErrProvider
}
