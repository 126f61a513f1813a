package config_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/oauth2-test-client/internal/config"
	"github.com/jrsteele09/oauth2-test-client/internal/errors"
	"github.com/jrsteele09/oauth2-test-client/oauth2"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func requiredEnv() map[string]string {
	return map[string]string{
		"AUTH_ENDPOINT":   "https://idp.example.com/oauth2/authorize",
		"TOKEN_ENDPOINT":  "https://idp.example.com/oauth2/token",
		"VERIFY_ENDPOINT": "https://api.example.com/verify",
		"CLIENT_ID":       "test-client-1",
		"CLIENT_SECRET":   "test-secret-1",
		"SCOPES":          "building:read building:write",
		"REDIRECT_URI":    "http://localhost/api_callback",
	}
}

func lookup(env map[string]string) config.Lookup {
	return func(key string) string { return env[key] }
}

func withEnv(overrides map[string]string) config.Lookup {
	env := requiredEnv()
	for k, v := range overrides {
		env[k] = v
	}
	return lookup(env)
}

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := config.LoadFrom(withEnv(nil))
	require.NoError(t, err)

	require.Equal(t, "https://idp.example.com/oauth2/authorize", cfg.GetAuthEndpoint())
	require.Equal(t, "https://idp.example.com/oauth2/token", cfg.GetTokenEndpoint())
	require.Equal(t, "https://api.example.com/verify", cfg.GetVerifyEndpoint())
	require.Equal(t, "test-client-1", cfg.GetClientID())
	require.Equal(t, "test-secret-1", cfg.GetClientSecret())
	require.Equal(t, "building:read building:write", cfg.GetScopes())
	require.Equal(t, "http://localhost/api_callback", cfg.GetRedirectURI())

	require.Equal(t, "0.0.0.0:80", cfg.GetListenAddr())
	require.Equal(t, "OAuth2 Test Client", cfg.GetAppName())
	require.Equal(t, "DEV", cfg.GetEnv())
	require.True(t, cfg.IsDebug())
	require.Equal(t, "debug", cfg.GetLogLevel())

	require.Equal(t, oauth2.FormEncoding, cfg.GetRequestEncoding())
	require.True(t, cfg.GetStrictTokenValidation())
	require.Equal(t, config.DefaultRefreshScope, cfg.GetRefreshScope())
	require.Equal(t, config.StateModePerAttempt, cfg.GetStateMode())
	require.Equal(t, 10*time.Minute, cfg.GetStateTTL())
	require.Zero(t, cfg.GetHTTPTimeout())
	require.False(t, cfg.IDTokenVerificationEnabled())
}

func TestLoadFrom_Overrides(t *testing.T) {
	cfg, err := config.LoadFrom(withEnv(map[string]string{
		"HOST":                    "127.0.0.1",
		"PORT":                    ":8080",
		"APP_NAME":                "Provider Probe",
		"ENV":                     "prod",
		"DEBUG":                   "false",
		"TOKEN_REQUEST_ENCODING":  "json",
		"STRICT_TOKEN_VALIDATION": "false",
		"REFRESH_SCOPE":           "building:admin",
		"STATE_MODE":              "PROCESS",
		"STATE_TTL":               "30s",
		"HTTP_TIMEOUT":            "5s",
		"OIDC_ISSUER":             "https://idp.example.com",
		"OIDC_JWKS_URI":           "https://idp.example.com/.well-known/jwks.json",
	}))
	require.NoError(t, err)

	require.Equal(t, "127.0.0.1:8080", cfg.GetListenAddr())
	require.Equal(t, "Provider Probe", cfg.GetAppName())
	require.Equal(t, "PROD", cfg.GetEnv())
	require.False(t, cfg.IsDebug())
	require.Equal(t, "info", cfg.GetLogLevel())
	require.Equal(t, oauth2.JSONEncoding, cfg.GetRequestEncoding())
	require.False(t, cfg.GetStrictTokenValidation())
	require.Equal(t, "building:admin", cfg.GetRefreshScope())
	require.Equal(t, config.StateModeProcess, cfg.GetStateMode())
	require.Equal(t, 30*time.Second, cfg.GetStateTTL())
	require.Equal(t, 5*time.Second, cfg.GetHTTPTimeout())
	require.Equal(t, "https://idp.example.com", cfg.GetOIDCIssuer())
	require.Equal(t, "https://idp.example.com/.well-known/jwks.json", cfg.GetOIDCJWKSURI())
	require.True(t, cfg.IDTokenVerificationEnabled())
}

func TestLoadFrom_MissingRequired(t *testing.T) {
	for _, key := range config.RequiredEnvVars {
		t.Run(key, func(t *testing.T) {
			cfg, err := config.LoadFrom(withEnv(map[string]string{key: ""}))
			require.Nil(t, cfg)
			require.ErrorIs(t, err, errors.ErrConfiguration)
			require.ErrorContains(t, err, key)
		})
	}
}

func TestLoadFrom_AnyMissingRequiredFails(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		missing := rapid.SliceOfNDistinct(rapid.SampledFrom(config.RequiredEnvVars), 1, len(config.RequiredEnvVars), rapid.ID[string]).Draw(t, "missing")

		env := requiredEnv()
		for _, key := range missing {
			delete(env, key)
		}

		_, err := config.LoadFrom(lookup(env))
		require.ErrorIs(t, err, errors.ErrConfiguration)
	})
}

func TestLoadFrom_InvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{key: "AUTH_ENDPOINT", value: "/oauth2/authorize"},
		{key: "TOKEN_ENDPOINT", value: "idp.example.com/token"},
		{key: "VERIFY_ENDPOINT", value: "://bad"},
		{key: "REDIRECT_URI", value: "api_callback"},
		{key: "PORT", value: "eighty"},
		{key: "PORT", value: "70000"},
		{key: "DEBUG", value: "maybe"},
		{key: "LOG_LEVEL", value: "loud"},
		{key: "TOKEN_REQUEST_ENCODING", value: "xml"},
		{key: "STRICT_TOKEN_VALIDATION", value: "sometimes"},
		{key: "STATE_MODE", value: "global"},
		{key: "STATE_TTL", value: "ten minutes"},
		{key: "STATE_TTL", value: "-1m"},
		{key: "HTTP_TIMEOUT", value: "soon"},
		{key: "OIDC_ISSUER", value: "https://idp.example.com"},
		{key: "OIDC_JWKS_URI", value: "https://idp.example.com/jwks"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			_, err := config.LoadFrom(withEnv(map[string]string{tt.key: tt.value}))
			require.ErrorIs(t, err, errors.ErrConfiguration)
		})
	}
}
