package oauth2

import "fmt"

// GrantType represents the OAuth 2.0 grant type used at the token endpoint.
type GrantType string

const (
	// AuthorizationCodeGrant exchanges an authorization code for tokens.
	// Token request includes: code, redirect_uri (client credentials via Basic auth)
	// Returns: access_token, refresh_token, expires_in, token_type
	AuthorizationCodeGrant GrantType = "authorization_code"

	// RefreshTokenGrant exchanges a refresh token for a new access token.
	// Token request includes: refresh_token and an optional narrower scope
	// Returns: new access_token, and a rotated refresh_token on providers that rotate
	RefreshTokenGrant GrantType = "refresh_token"
)

// RequestEncoding determines where the grant parameters travel on the token request.
// Providers disagree on what they accept, so the test client supports all three.
type RequestEncoding string

const (
	// FormEncoding sends an application/x-www-form-urlencoded body (RFC 6749 section 4.1.3).
	FormEncoding RequestEncoding = "form"

	// QueryEncoding appends the parameters to the token endpoint URL and sends an empty body.
	QueryEncoding RequestEncoding = "query"

	// JSONEncoding sends the parameters as a JSON object body.
	JSONEncoding RequestEncoding = "json"
)

// ParseRequestEncoding validates a configured encoding name.
func ParseRequestEncoding(s string) (RequestEncoding, error) {
	switch e := RequestEncoding(s); e {
	case FormEncoding, QueryEncoding, JSONEncoding:
		return e, nil
	}
	return "", fmt.Errorf("unsupported request encoding %q", s)
}
