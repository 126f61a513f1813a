package token

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jrsteele09/oauth2-test-client/internal/errors"
	"github.com/jrsteele09/oauth2-test-client/internal/metrics"
	"github.com/jrsteele09/oauth2-test-client/oauth2"
	"github.com/jrsteele09/oauth2-test-client/oauthmodel"
	"github.com/rs/zerolog/log"
	xoauth2 "golang.org/x/oauth2"
)

// maxResponseSize matches the cap x/oauth2 applies to token endpoint bodies.
const maxResponseSize = 1 << 20

// Config is the part of the process configuration the token client needs.
type Config interface {
	GetTokenEndpoint() string
	GetClientID() string
	GetClientSecret() string
	GetRedirectURI() string
	GetRefreshScope() string
	GetRequestEncoding() oauth2.RequestEncoding
}

// Client sends authorization-code and refresh-token grants to the provider's token endpoint.
type Client struct {
	httpClient   *http.Client
	endpoint     string
	clientID     string
	clientSecret string
	redirectURI  string
	refreshScope string
	encoding     oauth2.RequestEncoding
	metrics      *metrics.Metrics
}

// Option is a client option method used to set properties of the token client
type Option func(*Client)

// WithHTTPClient sets the http client used for token requests
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.httpClient = h
	}
}

// WithMetrics records every token request
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient returns a token endpoint client for the configured provider.
func NewClient(cfg Config, opts ...Option) *Client {
	c := &Client{
		httpClient:   http.DefaultClient,
		endpoint:     cfg.GetTokenEndpoint(),
		clientID:     cfg.GetClientID(),
		clientSecret: cfg.GetClientSecret(),
		redirectURI:  cfg.GetRedirectURI(),
		refreshScope: cfg.GetRefreshScope(),
		encoding:     cfg.GetRequestEncoding(),
	}
	if c.encoding == "" {
		c.encoding = oauth2.FormEncoding
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// ExchangeCode redeems an authorization code (grant_type=authorization_code).
func (c *Client) ExchangeCode(ctx context.Context, code string) (*oauth2.TokenResponse, error) {
	tr, err := c.requestToken(ctx, oauthmodel.NewAuthorizationCodeRequest(code, c.redirectURI))
	if err != nil {
		return nil, fmt.Errorf("[token ExchangeCode] %w", err)
	}
	return tr, nil
}

// Refresh redeems a refresh token (grant_type=refresh_token), always asking for the
// configured reduced scope.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*oauth2.TokenResponse, error) {
	tr, err := c.requestToken(ctx, oauthmodel.NewRefreshTokenRequest(refreshToken, c.refreshScope))
	if err != nil {
		return nil, fmt.Errorf("[token Refresh] %w", err)
	}
	return tr, nil
}

func (c *Client) requestToken(ctx context.Context, tokenReq oauthmodel.TokenRequest) (*oauth2.TokenResponse, error) {
	req, err := newTokenRequest(ctx, c.endpoint, c.encoding, tokenReq)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	res, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveOutbound(metrics.TargetTokenEndpoint, metrics.OutcomeTransportError, time.Since(start))
		return nil, fmt.Errorf("%w: %s grant: %w", errors.ErrTransport, tokenReq.GrantType, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxResponseSize))
	elapsed := time.Since(start)
	if err != nil {
		c.metrics.ObserveOutbound(metrics.TargetTokenEndpoint, metrics.OutcomeTransportError, elapsed)
		return nil, fmt.Errorf("%w: reading %s grant response: %w", errors.ErrTransport, tokenReq.GrantType, err)
	}

	log.Debug().
		Str("grant_type", string(tokenReq.GrantType)).
		Str("encoding", string(c.encoding)).
		Int("status", res.StatusCode).
		Dur("elapsed", elapsed).
		Msg("token endpoint responded")

	if res.StatusCode < 200 || res.StatusCode > 299 {
		c.metrics.ObserveOutbound(metrics.TargetTokenEndpoint, metrics.OutcomeHTTPError, elapsed)
		return nil, fmt.Errorf("%w: %s grant: %w", errors.ErrTransport, tokenReq.GrantType, newRetrieveError(res, body))
	}

	tr, err := oauth2.ParseTokenResponse(body)
	if err != nil {
		c.metrics.ObserveOutbound(metrics.TargetTokenEndpoint, metrics.OutcomeProtocolViolation, elapsed)
		return nil, fmt.Errorf("%w: %s grant: %w", errors.ErrProtocolViolation, tokenReq.GrantType, err)
	}

	c.metrics.ObserveOutbound(metrics.TargetTokenEndpoint, metrics.OutcomeSuccess, elapsed)
	return tr, nil
}

// newRetrieveError keeps the provider's status and body, plus the RFC 6749 section 5.2
// error fields when the body carries them.
func newRetrieveError(res *http.Response, body []byte) *xoauth2.RetrieveError {
	rErr := &xoauth2.RetrieveError{Response: res, Body: body}

	var e struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
		ErrorURI         string `json:"error_uri"`
	}
	if json.Unmarshal(body, &e) == nil {
		rErr.ErrorCode = e.Error
		rErr.ErrorDescription = e.ErrorDescription
		rErr.ErrorURI = e.ErrorURI
	}
	return rErr
}
