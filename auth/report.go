package auth

import (
	"net/http"
	"time"

	"github.com/jrsteele09/oauth2-test-client/oauth2"
	"github.com/jrsteele09/oauth2-test-client/resource"
	"github.com/jrsteele09/oauth2-test-client/token/idtoken"
	"github.com/jrsteele09/oauth2-test-client/token/jwt"
	xoauth2 "golang.org/x/oauth2"
)

// Step names the states of the callback flow, in execution order.
type Step string

const (
	StepErrorCheck     Step = "error_check"
	StepStateCheck     Step = "state_check"
	StepCodeExchange   Step = "code_exchange"
	StepValidateToken  Step = "validate_token"
	StepFetchResource1 Step = "fetch_resource_1"
	StepRefresh1       Step = "refresh_1"
	StepFetchResource2 Step = "fetch_resource_2"
	StepRefresh2       Step = "refresh_2"
	StepFetchResource3 Step = "fetch_resource_3"
	StepVerifyIDToken  Step = "verify_id_token"
	StepReport         Step = "report"
)

// StepTiming records how long one outbound step took.
type StepTiming struct {
	Step    Step
	Elapsed time.Duration
}

// Report is everything observed during one callback, rendered as the diagnostic page.
type Report struct {
	Callback map[string]string

	Initial *TokenReport
	IDToken *idtoken.Result
	Fetch1  *resource.ProtectedResource

	Refresh1 *TokenReport
	Fetch2   *resource.ProtectedResource

	Probe  *ReuseProbe
	Fetch3 *resource.ProtectedResource // nil when the provider rejected the reused refresh token

	Rotation RotationObservation
	Steps    []StepTiming
}

// TokenReport is one token endpoint response as seen by the client.
type TokenReport struct {
	Response *oauth2.TokenResponse
	Token    *xoauth2.Token
	Claims   *jwt.Inspection // unverified access token content
}

func newTokenReport(tr *oauth2.TokenResponse, issuedAt time.Time) *TokenReport {
	return &TokenReport{
		Response: tr,
		Token:    tr.Token(issuedAt),
		Claims:   jwt.Inspect(tr.GetAccessToken()),
	}
}

func (t *TokenReport) AccessToken() string {
	return t.Response.GetAccessToken()
}

func (t *TokenReport) RefreshToken() string {
	return t.Response.GetRefreshToken()
}

// ReuseProbe is the result of redeeming the original refresh token a second time.
// Exactly one of Response and Rejection is set.
type ReuseProbe struct {
	RefreshToken string
	Response     *TokenReport
	Rejection    *Rejection
}

// Accepted reports whether the provider honoured the reused refresh token.
func (p *ReuseProbe) Accepted() bool {
	return p.Response != nil
}

// Rejection is the provider's refusal of a token request.
type Rejection struct {
	StatusCode       int
	ErrorCode        string
	ErrorDescription string
	Body             string
}

func newRejection(rErr *xoauth2.RetrieveError) *Rejection {
	r := &Rejection{
		ErrorCode:        rErr.ErrorCode,
		ErrorDescription: rErr.ErrorDescription,
		Body:             string(rErr.Body),
	}
	if rErr.Response != nil {
		r.StatusCode = rErr.Response.StatusCode
	}
	return r
}

func (r *Rejection) Status() string {
	return http.StatusText(r.StatusCode)
}

// Refresh-token behaviour seen on the first refresh. Neither is a failure.
const (
	RefreshTokenRotated   = "provider issued a new refresh token"
	RefreshTokenReturned  = "provider returned the original refresh token"
	RefreshTokenNotIssued = "provider did not return a refresh token"
)

// Outcome of presenting the original refresh token again. Neither is a failure.
const (
	ReuseAccepted = "original refresh token accepted again"
	ReuseRejected = "original refresh token rejected on reuse"
)

// RotationObservation summarises how the provider treats refresh tokens.
type RotationObservation struct {
	FirstRefresh string
	Reuse        string
}

func observeRotation(originalRefreshToken string, refresh1 *TokenReport, probe *ReuseProbe) RotationObservation {
	obs := RotationObservation{Reuse: ReuseRejected}
	switch refresh1.RefreshToken() {
	case "":
		obs.FirstRefresh = RefreshTokenNotIssued
	case originalRefreshToken:
		obs.FirstRefresh = RefreshTokenReturned
	default:
		obs.FirstRefresh = RefreshTokenRotated
	}
	if probe.Accepted() {
		obs.Reuse = ReuseAccepted
	}
	return obs
}
