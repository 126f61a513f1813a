package config

import (
	"errors"
	"net/url"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	authEndpointEnvVar   = "AUTH_ENDPOINT"
	tokenEndpointEnvVar  = "TOKEN_ENDPOINT"
	verifyEndpointEnvVar = "VERIFY_ENDPOINT"
	clientIDEnvVar       = "CLIENT_ID"
	clientSecretEnvVar   = "CLIENT_SECRET"
	scopesEnvVar         = "SCOPES"
	redirectURIEnvVar    = "REDIRECT_URI"
)

// RequiredEnvVars lists the keys without which the process refuses to start.
var RequiredEnvVars = []string{
	authEndpointEnvVar,
	tokenEndpointEnvVar,
	verifyEndpointEnvVar,
	clientIDEnvVar,
	clientSecretEnvVar,
	scopesEnvVar,
	redirectURIEnvVar,
}

// Client holds the connection parameters for the single authorization server and
// protected resource under test. The json tags name the env var in validation errors.
type Client struct {
	AuthEndpoint   string `json:"AUTH_ENDPOINT"`
	TokenEndpoint  string `json:"TOKEN_ENDPOINT"`
	VerifyEndpoint string `json:"VERIFY_ENDPOINT"`
	ClientID       string `json:"CLIENT_ID"`
	ClientSecret   string `json:"CLIENT_SECRET"`
	Scopes         string `json:"SCOPES"`
	RedirectURI    string `json:"REDIRECT_URI"`
}

var _ ClientConfig = Client{}

func loadClient(lookup Lookup) Client {
	return Client{
		AuthEndpoint:   lookup(authEndpointEnvVar),
		TokenEndpoint:  lookup(tokenEndpointEnvVar),
		VerifyEndpoint: lookup(verifyEndpointEnvVar),
		ClientID:       lookup(clientIDEnvVar),
		ClientSecret:   lookup(clientSecretEnvVar),
		Scopes:         lookup(scopesEnvVar),
		RedirectURI:    lookup(redirectURIEnvVar),
	}
}

func (c Client) validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.AuthEndpoint, validation.Required, validation.By(absoluteURL)),
		validation.Field(&c.TokenEndpoint, validation.Required, validation.By(absoluteURL)),
		validation.Field(&c.VerifyEndpoint, validation.Required, validation.By(absoluteURL)),
		validation.Field(&c.ClientID, validation.Required),
		validation.Field(&c.ClientSecret, validation.Required),
		validation.Field(&c.Scopes, validation.Required),
		validation.Field(&c.RedirectURI, validation.Required, validation.By(absoluteURL)),
	)
}

func absoluteURL(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil {
		return err
	}
	if u.Scheme == "" || u.Host == "" {
		return errors.New("must be an absolute URL")
	}
	return nil
}

func (c Client) GetAuthEndpoint() string {
	return c.AuthEndpoint
}

func (c Client) GetTokenEndpoint() string {
	return c.TokenEndpoint
}

func (c Client) GetVerifyEndpoint() string {
	return c.VerifyEndpoint
}

func (c Client) GetClientID() string {
	return c.ClientID
}

func (c Client) GetClientSecret() string {
	return c.ClientSecret
}

func (c Client) GetScopes() string {
	return c.Scopes
}

func (c Client) GetRedirectURI() string {
	return c.RedirectURI
}
