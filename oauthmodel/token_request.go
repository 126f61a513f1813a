package oauthmodel

import (
	"net/url"

	"github.com/jrsteele09/oauth2-test-client/oauth2"
)

// TokenRequest holds the grant parameters sent to the /token endpoint.
// Client credentials are not part of it; they travel in the Basic auth header.
type TokenRequest struct {
	// GrantType is authorization_code or refresh_token.
	GrantType oauth2.GrantType

	// Code is the authorization code received on the callback.
	// Required: Yes (only for authorization_code grant)
	Code string

	// RedirectURI must match the one sent on the authorization request.
	// Required: Yes (only for authorization_code grant)
	RedirectURI string

	// RefreshToken is exchanged for a new access token.
	// Required: Yes (only for refresh_token grant)
	RefreshToken string

	// Scope narrows the scope of the refreshed access token.
	// Required: No
	Scope string
}

// NewAuthorizationCodeRequest builds the grant_type=authorization_code parameters.
func NewAuthorizationCodeRequest(code, redirectURI string) TokenRequest {
	return TokenRequest{
		GrantType:   oauth2.AuthorizationCodeGrant,
		Code:        code,
		RedirectURI: redirectURI,
	}
}

// NewRefreshTokenRequest builds the grant_type=refresh_token parameters.
func NewRefreshTokenRequest(refreshToken, scope string) TokenRequest {
	return TokenRequest{
		GrantType:    oauth2.RefreshTokenGrant,
		RefreshToken: refreshToken,
		Scope:        scope,
	}
}

// Fields returns the non-empty parameters keyed by their wire names.
func (r TokenRequest) Fields() map[string]string {
	fields := map[string]string{"grant_type": string(r.GrantType)}
	add := func(key, value string) {
		if value != "" {
			fields[key] = value
		}
	}
	add("code", r.Code)
	add("redirect_uri", r.RedirectURI)
	add("refresh_token", r.RefreshToken)
	add("scope", r.Scope)
	return fields
}

// Values returns the parameters for form and query encodings.
func (r TokenRequest) Values() url.Values {
	v := url.Values{}
	for key, value := range r.Fields() {
		v.Set(key, value)
	}
	return v
}
