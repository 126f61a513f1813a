package idtoken

import (
	"context"
	"net/http"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
)

// Result is the outcome of verifying an ID token. A failed verification is an
// observation for the report, not a failure of the flow.
type Result struct {
	Verified bool
	Subject  string
	Issuer   string
	Audience []string
	Expiry   time.Time
	Claims   map[string]any
	Error    string
}

// Verifier checks ID tokens against an issuer, the client id as audience, and a key set.
type Verifier struct {
	verifier *oidc.IDTokenVerifier
}

// VerifierOption adjusts the oidc verification config.
type VerifierOption func(*oidc.Config)

// WithNow sets the clock used for expiry checks (primarily for testing)
func WithNow(now func() time.Time) VerifierOption {
	return func(c *oidc.Config) {
		c.Now = now
	}
}

// NewVerifier builds a verifier over an arbitrary key set.
func NewVerifier(issuer, clientID string, keySet oidc.KeySet, opts ...VerifierOption) *Verifier {
	cfg := &oidc.Config{ClientID: clientID}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Verifier{
		verifier: oidc.NewVerifier(issuer, keySet, cfg),
	}
}

// NewRemoteVerifier fetches signing keys from jwksURI on first use. No discovery
// request is made, so startup does not depend on the provider being reachable.
func NewRemoteVerifier(ctx context.Context, issuer, jwksURI, clientID string, httpClient *http.Client, opts ...VerifierOption) *Verifier {
	if httpClient != nil {
		ctx = oidc.ClientContext(ctx, httpClient)
	}
	return NewVerifier(issuer, clientID, oidc.NewRemoteKeySet(ctx, jwksURI), opts...)
}

// Verify checks signature, issuer, audience and expiry of rawIDToken.
func (v *Verifier) Verify(ctx context.Context, rawIDToken string) *Result {
	idToken, err := v.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return &Result{Verified: false, Error: err.Error()}
	}

	claims := map[string]any{}
	if err := idToken.Claims(&claims); err != nil {
		return &Result{Verified: false, Error: "failed to extract claims: " + err.Error()}
	}

	return &Result{
		Verified: true,
		Subject:  idToken.Subject,
		Issuer:   idToken.Issuer,
		Audience: idToken.Audience,
		Expiry:   idToken.Expiry,
		Claims:   claims,
	}
}
