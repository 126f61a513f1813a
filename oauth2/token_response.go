package oauth2

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/jrsteele09/oauth2-test-client/internal/utils"
	xoauth2 "golang.org/x/oauth2"
)

// TokenResponse represents the response from an OAuth2 token request (RFC 6749 section 5.1).
// Fields are pointers so that an absent field can be told apart from a zero value.
type TokenResponse struct {
	// AccessToken is presented to the protected resource as "Authorization: Bearer <access_token>".
	AccessToken *string `json:"access_token,omitempty"`

	// RefreshToken is sent back with grant_type=refresh_token to obtain a new access token.
	// Providers that rotate return a new value on every refresh.
	RefreshToken *string `json:"refresh_token,omitempty"`

	// ExpiresIn is the lifetime in seconds of the access token.
	ExpiresIn *int `json:"expires_in,omitempty"`

	// TokenType tells the client how to present the access token, usually "Bearer".
	TokenType *string `json:"token_type,omitempty"`

	// IdToken is only present when the openid scope was granted.
	IdToken *string `json:"id_token,omitempty"`

	// Scope is the granted scope when it differs from the requested one.
	Scope *string `json:"scope,omitempty"`

	// Raw is the complete JSON object as returned by the provider.
	Raw map[string]any `json:"-"`
}

// ParseTokenResponse decodes a token endpoint body. The body must be a JSON object;
// which fields are required is decided by the caller through Validate. A field of
// an unusable type is left nil rather than failing the whole response.
func ParseTokenResponse(body []byte) (*TokenResponse, error) {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("token response is not a JSON object: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("token response is not a JSON object: null")
	}

	return &TokenResponse{
		AccessToken:  stringField(raw, "access_token"),
		RefreshToken: stringField(raw, "refresh_token"),
		ExpiresIn:    secondsField(raw, "expires_in"),
		TokenType:    stringField(raw, "token_type"),
		IdToken:      stringField(raw, "id_token"),
		Scope:        stringField(raw, "scope"),
		Raw:          raw,
	}, nil
}

func stringField(raw map[string]any, key string) *string {
	if s, ok := raw[key].(string); ok {
		return &s
	}
	return nil
}

// secondsField accepts a JSON number or a numeric string, as some providers quote expires_in.
func secondsField(raw map[string]any, key string) *int {
	switch v := raw[key].(type) {
	case float64:
		if v == math.Trunc(v) && v >= math.MinInt32 && v <= math.MaxInt32 {
			return utils.Ptr(int(v))
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return &n
		}
	}
	return nil
}

// Validate checks the fields the authorization-code flow depends on. In strict mode
// all four RFC 6749 fields are required; otherwise only the two tokens the flow uses.
func (t TokenResponse) Validate(strict bool) error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.AccessToken, validation.Required),
		validation.Field(&t.RefreshToken, validation.Required),
		validation.Field(&t.ExpiresIn, validation.When(strict, validation.NotNil)),
		validation.Field(&t.TokenType, validation.When(strict, validation.Required)),
	)
}

// ValidateRefresh checks a refresh-token grant response; only a new access token is required.
func (t TokenResponse) ValidateRefresh() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.AccessToken, validation.Required),
	)
}

func (t *TokenResponse) GetAccessToken() string {
	return utils.Value(t.AccessToken)
}

func (t *TokenResponse) GetRefreshToken() string {
	return utils.Value(t.RefreshToken)
}

func (t *TokenResponse) GetIdToken() string {
	return utils.Value(t.IdToken)
}

// Token converts the response into an x/oauth2 token, resolving expires_in against issuedAt.
func (t *TokenResponse) Token(issuedAt time.Time) *xoauth2.Token {
	tok := &xoauth2.Token{
		AccessToken:  utils.Value(t.AccessToken),
		TokenType:    utils.Value(t.TokenType),
		RefreshToken: utils.Value(t.RefreshToken),
	}
	if t.ExpiresIn != nil && *t.ExpiresIn > 0 {
		tok.ExpiresIn = int64(*t.ExpiresIn)
		tok.Expiry = issuedAt.Add(time.Duration(*t.ExpiresIn) * time.Second)
	}
	if t.Raw != nil {
		tok = tok.WithExtra(t.Raw)
	}
	return tok
}
