package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/oauth2-test-client/auth"
	"github.com/jrsteele09/oauth2-test-client/auth/authflowrepo"
	"github.com/jrsteele09/oauth2-test-client/internal/config"
	"github.com/jrsteele09/oauth2-test-client/internal/metrics"
	"github.com/jrsteele09/oauth2-test-client/resource"
	"github.com/jrsteele09/oauth2-test-client/token"
	"github.com/jrsteele09/oauth2-test-client/token/idtoken"
	"github.com/rs/zerolog/log"
)

type Server struct {
	env     string // Environment (e.g., "DEV", "PROD")
	mux     *http.ServeMux
	routes  []string
	config  config.Config
	flow    *auth.FlowService
	metrics *metrics.Metrics

	httpClient  *http.Client
	flowOptions []auth.FlowServiceOption
}

// Option is a server option method used to set properties of the server
type Option func(*Server)

// WithHTTPClient sets the client used for every outbound call
func WithHTTPClient(h *http.Client) Option {
	return func(s *Server) {
		s.httpClient = h
	}
}

// WithMetrics replaces the server's metrics registry
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithFlowOptions passes options through to the flow service
func WithFlowOptions(opts ...auth.FlowServiceOption) Option {
	return func(s *Server) {
		s.flowOptions = append(s.flowOptions, opts...)
	}
}

// New wires the token, resource and state collaborators from cfg and registers the routes.
func New(cfg config.Config, opts ...Option) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("[Server New] config is required")
	}

	s := &Server{
		env:    cfg.GetEnv(),
		mux:    http.NewServeMux(),
		config: cfg,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}
	if s.httpClient == nil {
		s.httpClient = &http.Client{Timeout: cfg.GetHTTPTimeout()}
	}

	deps := auth.Dependencies{
		Tokens:    token.NewClient(cfg, token.WithHTTPClient(s.httpClient), token.WithMetrics(s.metrics)),
		Resources: resource.NewClient(cfg.GetVerifyEndpoint(), resource.WithHTTPClient(s.httpClient), resource.WithMetrics(s.metrics)),
		States:    newStateRepo(cfg),
	}

	if cfg.IDTokenVerificationEnabled() {
		deps.IDTokens = idtoken.NewRemoteVerifier(context.Background(), cfg.GetOIDCIssuer(), cfg.GetOIDCJWKSURI(), cfg.GetClientID(), s.httpClient)
	}

	flow, err := auth.NewFlowService(cfg, deps, s.flowOptions...)
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to create flow service: %w", err)
	}
	s.flow = flow

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func newStateRepo(cfg config.Config) authflowrepo.Repo {
	if cfg.GetStateMode() == config.StateModeProcess {
		return authflowrepo.NewProcessState(time.Now())
	}
	return authflowrepo.NewInMemoryRepo(cfg.GetStateTTL())
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) Routes() []string {
	return append([]string(nil), s.routes...)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	log.Info().Msgf("[%-19s] %s", colourMethod(method), path)
}

func logError(method, path, error string) {
	log.Error().Msgf("[%-19s] %s %s", colourMethod(method), path, Red+error+ResetColor)
}

func colourMethod(method string) string {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		return color + paddedMethod + ResetColor
	}
	return Gray + paddedMethod + ResetColor
}
