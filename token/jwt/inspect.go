package jwt

import (
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/oauth2-test-client/internal/utils"
)

// Inspection is the unverified content of an access token. Access tokens are opaque to
// a relying party; decoding them only serves the diagnostic report.
type Inspection struct {
	IsJWT     bool
	Header    map[string]any
	Claims    map[string]any
	Subject   string
	Issuer    string
	Audience  []string
	Scope     string
	IssuedAt  *time.Time
	ExpiresAt *time.Time
	Error     string // set when the token looked like a JWT but could not be decoded
}

// Inspect decodes a JWT without verifying its signature. Tokens that are not three
// dot-separated segments are reported as opaque.
func Inspect(rawToken string) *Inspection {
	if strings.Count(rawToken, ".") != 2 {
		return &Inspection{IsJWT: false}
	}

	token, _, err := jwtlib.NewParser().ParseUnverified(rawToken, jwtlib.MapClaims{})
	if err != nil {
		return &Inspection{IsJWT: false, Error: err.Error()}
	}

	claims, ok := token.Claims.(jwtlib.MapClaims)
	if !ok {
		return &Inspection{IsJWT: false, Error: "error extracting claims"}
	}

	i := &Inspection{
		IsJWT:  true,
		Header: token.Header,
		Claims: claims,
		Scope:  scopeClaim(claims),
	}
	i.Subject, _ = claims.GetSubject()
	i.Issuer, _ = claims.GetIssuer()
	if aud, err := claims.GetAudience(); err == nil {
		i.Audience = aud
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		i.IssuedAt = utils.Ptr(iat.Time)
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		i.ExpiresAt = utils.Ptr(exp.Time)
	}
	return i
}

// scopeClaim reads "scope" (RFC 8693, space separated) or "scp" (string or array).
func scopeClaim(claims jwtlib.MapClaims) string {
	if s, ok := claims["scope"].(string); ok {
		return s
	}
	switch scp := claims["scp"].(type) {
	case string:
		return scp
	case []any:
		return strings.Join(utils.ToStringSlice(scp), " ")
	}
	return ""
}
