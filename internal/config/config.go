package config

import (
	"fmt"
	"os"
	"time"

	"github.com/jrsteele09/oauth2-test-client/internal/errors"
	"github.com/jrsteele09/oauth2-test-client/oauth2"
)

type Config interface {
	EnvConfig
	ClientConfig
	FlowConfig
}

type EnvConfig interface {
	GetListenAddr() string
	GetAppName() string
	GetEnv() string
	IsDebug() bool
	GetLogLevel() string
}

// ClientConfig is the relying party's registration with the authorization server.
type ClientConfig interface {
	GetAuthEndpoint() string
	GetTokenEndpoint() string
	GetVerifyEndpoint() string
	GetClientID() string
	GetClientSecret() string
	GetScopes() string
	GetRedirectURI() string
}

type FlowConfig interface {
	GetRequestEncoding() oauth2.RequestEncoding
	GetStrictTokenValidation() bool
	GetRefreshScope() string
	GetStateMode() StateMode
	GetStateTTL() time.Duration
	GetHTTPTimeout() time.Duration
	GetOIDCIssuer() string
	GetOIDCJWKSURI() string
	IDTokenVerificationEnabled() bool
}

type mainConfig struct {
	EnvVars
	Client
	Flow
}

var _ Config = mainConfig{}

// Lookup returns the value of a configuration key, "" when unset.
type Lookup func(key string) string

// Load reads the configuration from the process environment.
func Load() (Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom reads and validates the configuration once. Any missing required value or
// malformed optional value is an ErrConfiguration; the process must not start serving.
func LoadFrom(lookup Lookup) (Config, error) {
	env, err := loadEnvVars(lookup)
	if err != nil {
		return nil, fmt.Errorf("[config LoadFrom] %w: %w", errors.ErrConfiguration, err)
	}

	client := loadClient(lookup)
	if err := client.validate(); err != nil {
		return nil, fmt.Errorf("[config LoadFrom] %w: %w", errors.ErrConfiguration, err)
	}

	flow, err := loadFlow(lookup)
	if err != nil {
		return nil, fmt.Errorf("[config LoadFrom] %w: %w", errors.ErrConfiguration, err)
	}

	return mainConfig{
		EnvVars: env,
		Client:  client,
		Flow:    flow,
	}, nil
}

func getEnv(lookup Lookup, envVar, defaultValue string) string {
	value := lookup(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
