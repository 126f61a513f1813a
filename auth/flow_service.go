package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/jrsteele09/oauth2-test-client/auth/authflowrepo"
	"github.com/jrsteele09/oauth2-test-client/internal/errors"
	"github.com/jrsteele09/oauth2-test-client/internal/utils"
	"github.com/jrsteele09/oauth2-test-client/oauth2"
	"github.com/jrsteele09/oauth2-test-client/oauthmodel"
	"github.com/jrsteele09/oauth2-test-client/resource"
	"github.com/jrsteele09/oauth2-test-client/token/idtoken"
	"github.com/rs/zerolog/log"
	xoauth2 "golang.org/x/oauth2"
)

// Config is the part of the process configuration the flow needs.
type Config interface {
	GetAuthEndpoint() string
	GetClientID() string
	GetScopes() string
	GetRedirectURI() string
	GetStrictTokenValidation() bool
}

// TokenEndpoint performs the authorization-code and refresh-token grants.
type TokenEndpoint interface {
	ExchangeCode(ctx context.Context, code string) (*oauth2.TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*oauth2.TokenResponse, error)
}

// ResourceFetcher calls the protected resource with a bearer token.
type ResourceFetcher interface {
	FetchProtectedResource(ctx context.Context, accessToken string) (*resource.ProtectedResource, error)
}

// IDTokenVerifier checks an ID token; the result is reported, never fatal.
type IDTokenVerifier interface {
	Verify(ctx context.Context, rawIDToken string) *idtoken.Result
}

// Dependencies holds the collaborators of the FlowService
type Dependencies struct {
	Tokens    TokenEndpoint     // Token endpoint client
	Resources ResourceFetcher   // Protected resource client
	States    authflowrepo.Repo // Anti-CSRF state store
	IDTokens  IDTokenVerifier   // Optional
}

// FlowService drives the relying-party side of the authorization-code flow: it builds
// the authorization URL and, on callback, runs the exchange, fetch, refresh and
// refresh-reuse probe chain once, in order, with no retries.
type FlowService struct {
	deps             Dependencies
	states           authflowrepo.Repo
	oauth2Config     *xoauth2.Config
	strictValidation bool
	nowTime          func() time.Time // nowTime function (injectable for testing)
}

// FlowServiceOption defines a function type to modify the FlowService instance.
type FlowServiceOption func(*FlowService)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) FlowServiceOption {
	return func(fs *FlowService) {
		fs.nowTime = nowFunc
	}
}

// NewFlowService initializes a new FlowService with required dependencies.
func NewFlowService(cfg Config, deps Dependencies, options ...FlowServiceOption) (*FlowService, error) {
	if cfg == nil {
		return nil, errors.New("[NewFlowService] config is required")
	}
	if deps.Tokens == nil {
		return nil, errors.New("[NewFlowService] token endpoint client is required")
	}
	if deps.Resources == nil {
		return nil, errors.New("[NewFlowService] resource client is required")
	}
	if deps.States == nil {
		return nil, errors.New("[NewFlowService] state repo is required")
	}

	fs := &FlowService{
		deps:             deps,
		states:           deps.States,
		oauth2Config:     newOAuth2Config(cfg),
		strictValidation: cfg.GetStrictTokenValidation(),
		nowTime:          time.Now,
	}

	for _, opt := range options {
		opt(fs)
	}

	return fs, nil
}

// HandleCallback processes the authorization server's redirect. A non-empty error
// parameter returns a *ProviderError and a state mismatch returns ErrCsrfMismatch; in
// both cases no outbound call is made. Any other failure aborts the remaining steps.
func (fs *FlowService) HandleCallback(ctx context.Context, params oauthmodel.CallbackParameters) (*Report, error) {
	if params.HasError() {
		log.Warn().Str("step", string(StepErrorCheck)).Str("error", params.Error).Msg("authorization server returned an error")
		return nil, &ProviderError{Code: params.Error, Description: params.ErrorDescription}
	}

	if _, err := fs.states.Consume(params.State, fs.nowTime()); err != nil {
		return nil, fs.fail(StepStateCheck, err)
	}

	if params.Code == "" {
		return nil, fs.fail(StepCodeExchange, fmt.Errorf("%w: %w", errors.ErrProtocolViolation, oauthmodel.ErrMissingCode))
	}

	report := &Report{Callback: params.Flatten()}

	// CODE_EXCHANGE
	start := fs.nowTime()
	initial, err := fs.deps.Tokens.ExchangeCode(ctx, params.Code)
	if err != nil {
		return nil, fs.fail(StepCodeExchange, err)
	}
	report.record(StepCodeExchange, fs.since(start))

	// VALIDATE_TOKEN
	if err := initial.Validate(fs.strictValidation); err != nil {
		return nil, fs.fail(StepValidateToken, fmt.Errorf("%w: initial token response: %w", errors.ErrProtocolViolation, err))
	}
	report.Initial = newTokenReport(initial, start)

	if fs.deps.IDTokens != nil && initial.GetIdToken() != "" {
		start = fs.nowTime()
		report.IDToken = fs.deps.IDTokens.Verify(ctx, initial.GetIdToken())
		report.record(StepVerifyIDToken, fs.since(start))
	}

	// FETCH_RESOURCE_1
	if report.Fetch1, err = fs.fetch(ctx, report, StepFetchResource1, report.Initial.AccessToken()); err != nil {
		return nil, err
	}

	// REFRESH_1
	originalRefreshToken := report.Initial.RefreshToken()
	start = fs.nowTime()
	refreshed, err := fs.refresh(ctx, originalRefreshToken)
	if err != nil {
		return nil, fs.fail(StepRefresh1, err)
	}
	report.record(StepRefresh1, fs.since(start))
	report.Refresh1 = newTokenReport(refreshed, start)

	// FETCH_RESOURCE_2
	if report.Fetch2, err = fs.fetch(ctx, report, StepFetchResource2, report.Refresh1.AccessToken()); err != nil {
		return nil, err
	}

	// REFRESH_2 uses the original refresh token, not the one from REFRESH_1.
	start = fs.nowTime()
	if report.Probe, err = fs.ProbeRefreshTokenReuse(ctx, originalRefreshToken); err != nil {
		return nil, fs.fail(StepRefresh2, err)
	}
	report.record(StepRefresh2, fs.since(start))

	// FETCH_RESOURCE_3 only when the provider issued a token to fetch with.
	if report.Probe.Accepted() {
		if report.Fetch3, err = fs.fetch(ctx, report, StepFetchResource3, report.Probe.Response.AccessToken()); err != nil {
			return nil, err
		}
	}

	report.Rotation = observeRotation(originalRefreshToken, report.Refresh1, report.Probe)

	log.Info().
		Str("step", string(StepReport)).
		Str("first_refresh", report.Rotation.FirstRefresh).
		Str("reuse", report.Rotation.Reuse).
		Msg("authorization flow completed")

	return report, nil
}

// ProbeRefreshTokenReuse redeems a refresh token that has already been used once, to
// observe whether the provider rotates refresh tokens. A refusal by the provider is a
// valid observation and is returned in the probe; transport failures and malformed
// responses are errors.
func (fs *FlowService) ProbeRefreshTokenReuse(ctx context.Context, refreshToken string) (*ReuseProbe, error) {
	probe := &ReuseProbe{RefreshToken: refreshToken}
	issuedAt := fs.nowTime()

	tr, err := fs.refresh(ctx, refreshToken)
	if err != nil {
		var rErr *xoauth2.RetrieveError
		if errors.As(err, &rErr) {
			probe.Rejection = newRejection(rErr)
			log.Info().
				Str("step", string(StepRefresh2)).
				Str("refresh_token", utils.MaskSecret(refreshToken)).
				Int("status", probe.Rejection.StatusCode).
				Str("error", probe.Rejection.ErrorCode).
				Msg(ReuseRejected)
			return probe, nil
		}
		return nil, fmt.Errorf("[FlowService ProbeRefreshTokenReuse] %w", err)
	}

	probe.Response = newTokenReport(tr, issuedAt)
	return probe, nil
}

func (fs *FlowService) refresh(ctx context.Context, refreshToken string) (*oauth2.TokenResponse, error) {
	tr, err := fs.deps.Tokens.Refresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if err := tr.ValidateRefresh(); err != nil {
		return nil, fmt.Errorf("%w: refresh token response: %w", errors.ErrProtocolViolation, err)
	}
	return tr, nil
}

func (fs *FlowService) fetch(ctx context.Context, report *Report, step Step, accessToken string) (*resource.ProtectedResource, error) {
	start := fs.nowTime()
	pr, err := fs.deps.Resources.FetchProtectedResource(ctx, accessToken)
	if err != nil {
		return nil, fs.fail(step, err)
	}
	report.record(step, fs.since(start))
	return pr, nil
}

func (fs *FlowService) fail(step Step, err error) error {
	log.Error().Err(err).Str("step", string(step)).Msg("authorization flow aborted")
	return fmt.Errorf("[FlowService HandleCallback] %s: %w", step, err)
}

func (fs *FlowService) since(start time.Time) time.Duration {
	return fs.nowTime().Sub(start)
}

func (r *Report) record(step Step, elapsed time.Duration) {
	r.Steps = append(r.Steps, StepTiming{Step: step, Elapsed: elapsed})
	log.Debug().Str("step", string(step)).Dur("elapsed", elapsed).Msg("flow step completed")
}
