package oauthmodel

import "errors"

var ErrMissingCode = errors.New("callback carried neither error nor code")
