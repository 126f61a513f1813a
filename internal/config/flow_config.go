package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/jrsteele09/oauth2-test-client/oauth2"
)

const (
	requestEncodingEnvVar = "TOKEN_REQUEST_ENCODING"
	strictValidationVar   = "STRICT_TOKEN_VALIDATION"
	refreshScopeEnvVar    = "REFRESH_SCOPE"
	stateModeEnvVar       = "STATE_MODE"
	stateTTLEnvVar        = "STATE_TTL"
	httpTimeoutEnvVar     = "HTTP_TIMEOUT"
	oidcIssuerEnvVar      = "OIDC_ISSUER"
	oidcJWKSURIEnvVar     = "OIDC_JWKS_URI"

	// DefaultRefreshScope is the reduced scope requested on every refresh.
	DefaultRefreshScope = "building:read"
)

// StateMode selects how the anti-CSRF state parameter is minted and checked.
type StateMode string

const (
	// StateModePerAttempt mints a fresh state per authorization URL and consumes it on callback.
	StateModePerAttempt StateMode = "per_attempt"
	// StateModeProcess uses one state for the whole process lifetime.
	StateModeProcess StateMode = "process"
)

type Flow struct {
	RequestEncoding       oauth2.RequestEncoding
	StrictTokenValidation bool
	RefreshScope          string
	StateMode             StateMode
	StateTTL              time.Duration
	HTTPTimeout           time.Duration
	OIDCIssuer            string `json:"OIDC_ISSUER"`
	OIDCJWKSURI           string `json:"OIDC_JWKS_URI"`
}

var _ FlowConfig = Flow{}

func loadFlow(lookup Lookup) (Flow, error) {
	f := Flow{
		RefreshScope: getEnv(lookup, refreshScopeEnvVar, DefaultRefreshScope),
		OIDCIssuer:   lookup(oidcIssuerEnvVar),
		OIDCJWKSURI:  lookup(oidcJWKSURIEnvVar),
	}

	encoding, err := oauth2.ParseRequestEncoding(getEnv(lookup, requestEncodingEnvVar, string(oauth2.FormEncoding)))
	if err != nil {
		return Flow{}, fmt.Errorf("%s: %w", requestEncodingEnvVar, err)
	}
	f.RequestEncoding = encoding

	strict, err := strconv.ParseBool(getEnv(lookup, strictValidationVar, "true"))
	if err != nil {
		return Flow{}, fmt.Errorf("%s: %w", strictValidationVar, err)
	}
	f.StrictTokenValidation = strict

	switch mode := StateMode(strings.ToLower(getEnv(lookup, stateModeEnvVar, string(StateModePerAttempt)))); mode {
	case StateModePerAttempt, StateModeProcess:
		f.StateMode = mode
	default:
		return Flow{}, fmt.Errorf("%s: unsupported state mode %q", stateModeEnvVar, mode)
	}

	if f.StateTTL, err = time.ParseDuration(getEnv(lookup, stateTTLEnvVar, "10m")); err != nil {
		return Flow{}, fmt.Errorf("%s: %w", stateTTLEnvVar, err)
	}
	if f.StateTTL <= 0 {
		return Flow{}, fmt.Errorf("%s: must be positive", stateTTLEnvVar)
	}

	if f.HTTPTimeout, err = time.ParseDuration(getEnv(lookup, httpTimeoutEnvVar, "0s")); err != nil {
		return Flow{}, fmt.Errorf("%s: %w", httpTimeoutEnvVar, err)
	}

	// ID token verification needs both values or neither.
	if err := validation.ValidateStruct(&f,
		validation.Field(&f.OIDCIssuer, validation.When(f.OIDCJWKSURI != "", validation.Required)),
		validation.Field(&f.OIDCJWKSURI, validation.When(f.OIDCIssuer != "", validation.Required), validation.By(absoluteURL)),
	); err != nil {
		return Flow{}, err
	}

	return f, nil
}

func (f Flow) GetRequestEncoding() oauth2.RequestEncoding {
	return f.RequestEncoding
}

// GetStrictTokenValidation reports whether the initial token response must carry all
// of access_token, refresh_token, expires_in and token_type.
func (f Flow) GetStrictTokenValidation() bool {
	return f.StrictTokenValidation
}

func (f Flow) GetRefreshScope() string {
	return f.RefreshScope
}

func (f Flow) GetStateMode() StateMode {
	return f.StateMode
}

func (f Flow) GetStateTTL() time.Duration {
	return f.StateTTL
}

// GetHTTPTimeout returns the outbound client timeout; zero means no timeout.
func (f Flow) GetHTTPTimeout() time.Duration {
	return f.HTTPTimeout
}

func (f Flow) GetOIDCIssuer() string {
	return f.OIDCIssuer
}

func (f Flow) GetOIDCJWKSURI() string {
	return f.OIDCJWKSURI
}

func (f Flow) IDTokenVerificationEnabled() bool {
	return f.OIDCIssuer != "" && f.OIDCJWKSURI != ""
}
