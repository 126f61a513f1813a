package auth

import (
	"fmt"

	xoauth2 "golang.org/x/oauth2"
)

// BuildAuthorizationURL returns the authorization endpoint URL with client_id,
// response_type=code, state, redirect_uri and scope. With a process-wide state store it
// is pure and returns byte-identical URLs; with a per-attempt store each call records a
// new state.
func (fs *FlowService) BuildAuthorizationURL() (string, error) {
	state, err := fs.states.Issue(fs.nowTime())
	if err != nil {
		return "", fmt.Errorf("[FlowService BuildAuthorizationURL] issuing state: %w", err)
	}
	return fs.oauth2Config.AuthCodeURL(state), nil
}

// newOAuth2Config keeps the configured scope string verbatim as a single entry, so the
// scope parameter is exactly what was configured.
func newOAuth2Config(cfg Config) *xoauth2.Config {
	return &xoauth2.Config{
		ClientID:    cfg.GetClientID(),
		RedirectURL: cfg.GetRedirectURI(),
		Scopes:      []string{cfg.GetScopes()},
		Endpoint: xoauth2.Endpoint{
			AuthURL:   cfg.GetAuthEndpoint(),
			AuthStyle: xoauth2.AuthStyleInHeader,
		},
	}
}
