package token

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/jrsteele09/oauth2-test-client/oauth2"
	"github.com/jrsteele09/oauth2-test-client/oauthmodel"
)

const (
	contentTypeForm = "application/x-www-form-urlencoded"
	contentTypeJSON = "application/json"
)

// newTokenRequest builds the POST to the token endpoint with the grant parameters
// placed according to encoding.
func newTokenRequest(ctx context.Context, endpoint string, encoding oauth2.RequestEncoding, tokenReq oauthmodel.TokenRequest) (*http.Request, error) {
	switch encoding {
	case oauth2.QueryEncoding:
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("parsing token endpoint: %w", err)
		}
		q := u.Query()
		for key, values := range tokenReq.Values() {
			q[key] = values
		}
		u.RawQuery = q.Encode()
		return http.NewRequestWithContext(ctx, http.MethodPost, u.String(), http.NoBody)

	case oauth2.JSONEncoding:
		body, err := json.Marshal(tokenReq.Fields())
		if err != nil {
			return nil, fmt.Errorf("encoding token request: %w", err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", contentTypeJSON)
		return req, nil

	case oauth2.FormEncoding:
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(tokenReq.Values().Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", contentTypeForm)
		return req, nil
	}

	return nil, fmt.Errorf("unsupported request encoding %q", encoding)
}
