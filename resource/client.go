package resource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/jrsteele09/oauth2-test-client/internal/errors"
	"github.com/jrsteele09/oauth2-test-client/internal/metrics"
	"github.com/rs/zerolog/log"
)

// maxBodySize caps how much of the protected resource is kept for the report.
const maxBodySize = 1 << 20

// ProtectedResource is what the verify endpoint returned, success or not.
type ProtectedResource struct {
	StatusCode   int
	ContentType  string // as declared by the server
	DetectedType string // sniffed from the body
	Body         string
	Truncated    bool // Body holds only the first maxBodySize bytes
}

// OK reports whether the resource accepted the token.
func (p *ProtectedResource) OK() bool {
	return p.StatusCode >= 200 && p.StatusCode <= 299
}

// Client calls the protected resource with a bearer token.
type Client struct {
	httpClient *http.Client
	endpoint   string
	metrics    *metrics.Metrics
}

// Option is a client option method used to set properties of the resource client
type Option func(*Client)

// WithHTTPClient sets the http client used for resource requests
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.httpClient = h
	}
}

// WithMetrics records every resource request
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

func NewClient(endpoint string, opts ...Option) *Client {
	c := &Client{
		httpClient: http.DefaultClient,
		endpoint:   endpoint,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchProtectedResource GETs the verify endpoint with "Authorization: Bearer <accessToken>".
// The body is returned verbatim whatever the status, up to maxBodySize bytes; only
// transport failures are errors.
func (c *Client) FetchProtectedResource(ctx context.Context, accessToken string) (*ProtectedResource, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("[resource FetchProtectedResource] %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	start := time.Now()
	res, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveOutbound(metrics.TargetResource, metrics.OutcomeTransportError, time.Since(start))
		return nil, fmt.Errorf("[resource FetchProtectedResource] %w: %w", errors.ErrTransport, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodySize+1))
	elapsed := time.Since(start)
	if err != nil {
		c.metrics.ObserveOutbound(metrics.TargetResource, metrics.OutcomeTransportError, elapsed)
		return nil, fmt.Errorf("[resource FetchProtectedResource] %w: reading body: %w", errors.ErrTransport, err)
	}

	truncated := len(body) > maxBodySize
	if truncated {
		body = body[:maxBodySize]
	}

	pr := &ProtectedResource{
		StatusCode:   res.StatusCode,
		ContentType:  res.Header.Get("Content-Type"),
		DetectedType: mimetype.Detect(body).String(),
		Body:         string(body),
		Truncated:    truncated,
	}

	outcome := metrics.OutcomeSuccess
	if !pr.OK() {
		outcome = metrics.OutcomeHTTPError
	}
	c.metrics.ObserveOutbound(metrics.TargetResource, outcome, elapsed)

	log.Debug().
		Int("status", res.StatusCode).
		Str("content_type", pr.DetectedType).
		Bool("truncated", pr.Truncated).
		Dur("elapsed", elapsed).
		Msg("protected resource responded")

	return pr, nil
}
