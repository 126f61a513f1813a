package oauthmodel_test

import (
	"net/url"
	"testing"

	"github.com/jrsteele09/oauth2-test-client/oauthmodel"
	"github.com/stretchr/testify/require"
)

func TestParseCallbackParameters(t *testing.T) {
	values := url.Values{
		"code":          {"abc123"},
		"state":         {"xyz"},
		"session_state": {"s1", "s2"},
	}

	p := oauthmodel.ParseCallbackParameters(values)
	require.False(t, p.HasError())
	require.Equal(t, "abc123", p.Code)
	require.Equal(t, "xyz", p.State)
	require.Equal(t, map[string]string{
		"code":          "abc123",
		"state":         "xyz",
		"session_state": "s1,s2",
	}, p.Flatten())
}

func TestParseCallbackParameters_Error(t *testing.T) {
	p := oauthmodel.ParseCallbackParameters(url.Values{
		"error":             {"access_denied"},
		"error_description": {"The user denied the request"},
	})
	require.True(t, p.HasError())
	require.Equal(t, "access_denied", p.Error)
	require.Equal(t, "The user denied the request", p.ErrorDescription)
	require.Empty(t, p.Code)
}

func TestParseCallbackParameters_EmptyErrorIsNotAnError(t *testing.T) {
	p := oauthmodel.ParseCallbackParameters(url.Values{"error": {""}, "code": {"abc123"}})
	require.False(t, p.HasError())
}
