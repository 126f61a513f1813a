package auth_test

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/jrsteele09/oauth2-test-client/auth"
	"github.com/jrsteele09/oauth2-test-client/auth/authflowrepo"
	"github.com/jrsteele09/oauth2-test-client/oauth2"
	"github.com/jrsteele09/oauth2-test-client/resource"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

type fakeConfig struct {
	authEndpoint string
	clientID     string
	scopes       string
	redirectURI  string
}

func (c fakeConfig) GetAuthEndpoint() string        { return c.authEndpoint }
func (c fakeConfig) GetClientID() string            { return c.clientID }
func (c fakeConfig) GetScopes() string              { return c.scopes }
func (c fakeConfig) GetRedirectURI() string         { return c.redirectURI }
func (c fakeConfig) GetStrictTokenValidation() bool { return true }

// countingTokens and countingResources record calls without doing any I/O
type countingTokens struct{ calls int }

func (c *countingTokens) ExchangeCode(context.Context, string) (*oauth2.TokenResponse, error) {
	c.calls++
	return nil, context.Canceled
}

func (c *countingTokens) Refresh(context.Context, string) (*oauth2.TokenResponse, error) {
	c.calls++
	return nil, context.Canceled
}

type countingResources struct{ calls int }

func (c *countingResources) FetchProtectedResource(context.Context, string) (*resource.ProtectedResource, error) {
	c.calls++
	return nil, context.Canceled
}

var defaultFakeConfig = fakeConfig{
	authEndpoint: "https://idp.example.com/oauth2/authorize",
	clientID:     "test-client-1",
	scopes:       "building:read building:write",
	redirectURI:  "http://localhost:3000/api_callback",
}

func newURLService(t require.TestingT, cfg fakeConfig, states authflowrepo.Repo) (*auth.FlowService, *countingTokens, *countingResources) {
	tokens := &countingTokens{}
	resources := &countingResources{}
	fs, err := auth.NewFlowService(cfg, auth.Dependencies{Tokens: tokens, Resources: resources, States: states})
	require.NoError(t, err)
	return fs, tokens, resources
}

func TestBuildAuthorizationURL_Parameters(t *testing.T) {
	fs, _, _ := newURLService(t, defaultFakeConfig, authflowrepo.NewFixedProcessState("abc", time.Now()))

	authURL, err := fs.BuildAuthorizationURL()
	require.NoError(t, err)

	u, err := url.Parse(authURL)
	require.NoError(t, err)
	require.Equal(t, "https", u.Scheme)
	require.Equal(t, "idp.example.com", u.Host)
	require.Equal(t, "/oauth2/authorize", u.Path)

	require.Equal(t, url.Values{
		"client_id":     {"test-client-1"},
		"response_type": {"code"},
		"state":         {"abc"},
		"redirect_uri":  {"http://localhost:3000/api_callback"},
		"scope":         {"building:read building:write"},
	}, u.Query())
}

func TestBuildAuthorizationURL_KeepsExistingQuery(t *testing.T) {
	cfg := defaultFakeConfig
	cfg.authEndpoint = "https://idp.example.com/authorize?tenant=acme"
	fs, _, _ := newURLService(t, cfg, authflowrepo.NewFixedProcessState("abc", time.Now()))

	authURL, err := fs.BuildAuthorizationURL()
	require.NoError(t, err)

	u, err := url.Parse(authURL)
	require.NoError(t, err)
	require.Equal(t, "acme", u.Query().Get("tenant"))
	require.Equal(t, "abc", u.Query().Get("state"))
}

func TestBuildAuthorizationURL_PerAttemptStates(t *testing.T) {
	states := authflowrepo.NewInMemoryRepo(time.Minute)
	fs, _, _ := newURLService(t, defaultFakeConfig, states)

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		authURL, err := fs.BuildAuthorizationURL()
		require.NoError(t, err)
		u, err := url.Parse(authURL)
		require.NoError(t, err)

		state := u.Query().Get("state")
		require.Len(t, state, 32)
		require.False(t, seen[state], "state %q issued twice", state)
		seen[state] = true
	}
	require.Equal(t, 50, states.Len())
}

func TestBuildAuthorizationURL_ProcessStateIsIdempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cfg := fakeConfig{
			authEndpoint: "https://idp.example.com/" + rapid.StringMatching(`[a-z]{1,10}`).Draw(t, "path"),
			clientID:     rapid.StringMatching(`[A-Za-z0-9 &=?%+/-]{1,20}`).Draw(t, "client_id"),
			scopes:       rapid.StringMatching(`[a-z:]{1,10}( [a-z:]{1,10}){0,3}`).Draw(t, "scopes"),
			redirectURI:  "http://localhost:3000/" + rapid.StringMatching(`[a-z_]{1,10}(\?x=[a-z&=]{1,8})?`).Draw(t, "redirect"),
		}
		fs, _, _ := newURLService(t, cfg, authflowrepo.NewProcessState(time.Now()))

		first, err := fs.BuildAuthorizationURL()
		require.NoError(t, err)
		second, err := fs.BuildAuthorizationURL()
		require.NoError(t, err)
		require.Equal(t, first, second)

		// Every configured value round-trips through the encoding unchanged.
		u, err := url.Parse(first)
		require.NoError(t, err)
		q := u.Query()
		require.Equal(t, cfg.clientID, q.Get("client_id"))
		require.Equal(t, cfg.scopes, q.Get("scope"))
		require.Equal(t, cfg.redirectURI, q.Get("redirect_uri"))
		require.Equal(t, "code", q.Get("response_type"))
	})
}
