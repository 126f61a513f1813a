package oauthmodel

import (
	"net/url"
	"strings"
)

// CallbackParameters is the authorization server's redirect back to the client.
// It carries either an error, or a code and state pair; a non-empty Error wins.
type CallbackParameters struct {
	Error            string
	ErrorDescription string
	Code             string
	State            string

	// Raw holds every parameter as received, for the diagnostic report.
	Raw url.Values
}

// ParseCallbackParameters reads the callback from query or form values.
func ParseCallbackParameters(values url.Values) CallbackParameters {
	return CallbackParameters{
		Error:            values.Get("error"),
		ErrorDescription: values.Get("error_description"),
		Code:             values.Get("code"),
		State:            values.Get("state"),
		Raw:              values,
	}
}

func (p CallbackParameters) HasError() bool {
	return p.Error != ""
}

// Flatten returns one string per parameter, joining repeated values with commas.
func (p CallbackParameters) Flatten() map[string]string {
	flat := make(map[string]string, len(p.Raw))
	for k, v := range p.Raw {
		flat[k] = strings.Join(v, ",")
	}
	return flat
}
