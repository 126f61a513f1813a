// Package testutil provides a stub authorization server and protected resource for
// exercising the test client end to end.
package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/jrsteele09/oauth2-test-client/internal/config"
	"github.com/jrsteele09/oauth2-test-client/oauth2"
)

const (
	TestClientID     = "test-client-1"
	TestClientSecret = "test-secret-1"
	TestScopes       = "building:read building:write"
	TestRedirectURI  = "http://localhost:3000/api_callback"
	TestCode         = "abc123"

	routeAuthorize = "/authorize"
	routeToken     = "/token"
	routeVerify    = "/verify"
)

// TokenCall is one request received by the stub token endpoint.
type TokenCall struct {
	GrantType    string
	Code         string
	RedirectURI  string
	RefreshToken string
	Scope        string
	ClientID     string
	ClientSecret string
	ContentType  string
	Encoding     oauth2.RequestEncoding // where the parameters were found
}

// StubResponse is a canned token endpoint reply.
type StubResponse struct {
	Status int
	Body   any // marshalled to JSON unless it is a string
}

// StubProvider serves /authorize, /token and /verify. Token replies are served in
// order from TokenResponses; /verify echoes "DATA-for-<token>".
type StubProvider struct {
	Server *httptest.Server

	mu             sync.Mutex
	tokenResponses []StubResponse
	tokenCalls     []TokenCall
	resourceCalls  []string
	resourceStatus int
	resourcePad    int
}

// NewStubProvider starts a provider that answers the exchange with T1/R1 and the two
// refreshes with T2/R2 and T3/R3.
func NewStubProvider(t *testing.T) *StubProvider {
	t.Helper()
	return NewStubProviderWithResponses(t,
		TokenOK("T1", "R1"),
		TokenOK("T2", "R2"),
		TokenOK("T3", "R3"),
	)
}

// NewStubProviderWithResponses starts a provider with the given token replies.
func NewStubProviderWithResponses(t *testing.T, responses ...StubResponse) *StubProvider {
	t.Helper()

	p := &StubProvider{
		tokenResponses: responses,
		resourceStatus: http.StatusOK,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+routeAuthorize, p.handleAuthorize)
	mux.HandleFunc("POST "+routeToken, p.handleToken)
	mux.HandleFunc("GET "+routeVerify, p.handleVerify)

	p.Server = httptest.NewServer(mux)
	t.Cleanup(p.Server.Close)
	return p
}

// TokenOK is a complete RFC 6749 token response.
func TokenOK(accessToken, refreshToken string) StubResponse {
	return StubResponse{
		Status: http.StatusOK,
		Body: map[string]any{
			"access_token":  accessToken,
			"refresh_token": refreshToken,
			"expires_in":    3600,
			"token_type":    "Bearer",
		},
	}
}

// TokenError is an RFC 6749 section 5.2 error response.
func TokenError(status int, code, description string) StubResponse {
	return StubResponse{
		Status: status,
		Body: map[string]any{
			"error":             code,
			"error_description": description,
		},
	}
}

func (p *StubProvider) AuthorizeURL() string {
	return p.Server.URL + routeAuthorize
}

func (p *StubProvider) TokenURL() string {
	return p.Server.URL + routeToken
}

func (p *StubProvider) VerifyURL() string {
	return p.Server.URL + routeVerify
}

// SetResourceStatus makes /verify answer with status.
func (p *StubProvider) SetResourceStatus(status int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resourceStatus = status
}

// SetResourcePadding appends n filler bytes to every resource body.
func (p *StubProvider) SetResourcePadding(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resourcePad = n
}

func (p *StubProvider) TokenCalls() []TokenCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]TokenCall(nil), p.tokenCalls...)
}

// ResourceCalls returns the bearer tokens presented to /verify.
func (p *StubProvider) ResourceCalls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.resourceCalls...)
}

// TotalCalls counts every token and resource request received.
func (p *StubProvider) TotalCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.tokenCalls) + len(p.resourceCalls)
}

// Env returns a configuration lookup pointing at the stub, with overrides applied.
func (p *StubProvider) Env(overrides map[string]string) config.Lookup {
	env := map[string]string{
		"AUTH_ENDPOINT":   p.AuthorizeURL(),
		"TOKEN_ENDPOINT":  p.TokenURL(),
		"VERIFY_ENDPOINT": p.VerifyURL(),
		"CLIENT_ID":       TestClientID,
		"CLIENT_SECRET":   TestClientSecret,
		"SCOPES":          TestScopes,
		"REDIRECT_URI":    TestRedirectURI,
	}
	for k, v := range overrides {
		env[k] = v
	}
	return MapLookup(env)
}

// Config loads a configuration pointing at the stub.
func (p *StubProvider) Config(t *testing.T, overrides map[string]string) config.Config {
	t.Helper()
	cfg, err := config.LoadFrom(p.Env(overrides))
	if err != nil {
		t.Fatalf("loading stub config: %v", err)
	}
	return cfg
}

// MapLookup turns a map into a configuration lookup.
func MapLookup(env map[string]string) config.Lookup {
	return func(key string) string {
		return env[key]
	}
}

func (p *StubProvider) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	redirect, err := url.Parse(q.Get("redirect_uri"))
	if err != nil {
		http.Error(w, "invalid redirect_uri", http.StatusBadRequest)
		return
	}
	v := redirect.Query()
	v.Set("code", TestCode)
	v.Set("state", q.Get("state"))
	redirect.RawQuery = v.Encode()
	http.Redirect(w, r, redirect.String(), http.StatusFound)
}

func (p *StubProvider) handleToken(w http.ResponseWriter, r *http.Request) {
	call := parseTokenCall(r)

	p.mu.Lock()
	p.tokenCalls = append(p.tokenCalls, call)
	var resp StubResponse
	if len(p.tokenResponses) > 0 {
		resp = p.tokenResponses[0]
		p.tokenResponses = p.tokenResponses[1:]
	} else {
		resp = TokenError(http.StatusInternalServerError, "server_error", "no stubbed response left")
	}
	p.mu.Unlock()

	if raw, ok := resp.Body.(string); ok {
		w.WriteHeader(resp.Status)
		_, _ = io.WriteString(w, raw)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.Status)
	_ = json.NewEncoder(w).Encode(resp.Body)
}

func (p *StubProvider) handleVerify(w http.ResponseWriter, r *http.Request) {
	tok := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

	p.mu.Lock()
	p.resourceCalls = append(p.resourceCalls, tok)
	status := p.resourceStatus
	pad := p.resourcePad
	p.mu.Unlock()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, "DATA-for-"+tok+strings.Repeat(".", pad))
}

func parseTokenCall(r *http.Request) TokenCall {
	call := TokenCall{ContentType: r.Header.Get("Content-Type")}
	call.ClientID, call.ClientSecret, _ = r.BasicAuth()

	body, _ := io.ReadAll(r.Body)
	values := url.Values{}
	switch {
	case strings.HasPrefix(call.ContentType, "application/json"):
		call.Encoding = oauth2.JSONEncoding
		var fields map[string]string
		_ = json.Unmarshal(body, &fields)
		for k, v := range fields {
			values.Set(k, v)
		}
	case len(body) > 0:
		call.Encoding = oauth2.FormEncoding
		values, _ = url.ParseQuery(string(body))
	default:
		call.Encoding = oauth2.QueryEncoding
		values = r.URL.Query()
	}

	call.GrantType = values.Get("grant_type")
	call.Code = values.Get("code")
	call.RedirectURI = values.Get("redirect_uri")
	call.RefreshToken = values.Get("refresh_token")
	call.Scope = values.Get("scope")
	return call
}
