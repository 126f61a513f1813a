package server

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/jrsteele09/oauth2-test-client/auth"
	"github.com/jrsteele09/oauth2-test-client/internal/errors"
	"github.com/jrsteele09/oauth2-test-client/internal/metrics"
	"github.com/jrsteele09/oauth2-test-client/oauthmodel"
)

// CallbackHandler receives the authorization server's redirect and runs the flow.
//
//   - error parameter: 200 text/plain "Error: <value>"
//   - state failure: 403, nothing else happens
//   - transport or protocol failure: 502 with the error text
//   - success: 200 HTML report
func (s *Server) CallbackHandler() http.HandlerFunc {
	tmpl, err := ParseTemplate("report.html")
	if err != nil {
		panic("Failed to parse report template: " + err.Error())
	}

	return func(w http.ResponseWriter, r *http.Request) {
		// r.Form covers both query params and POST form data (form_post response mode)
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid callback parameters", http.StatusBadRequest)
			return
		}
		params := oauthmodel.ParseCallbackParameters(r.Form)

		report, err := s.flow.HandleCallback(r.Context(), params)
		if err != nil {
			s.writeCallbackError(w, r, err)
			return
		}

		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, reportView{AppName: s.config.GetAppName(), Report: report}); err != nil {
			s.metrics.ObserveCallback(metrics.OutcomeInternalError)
			logError(r.Method, r.URL.Path, err.Error())
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		s.metrics.ObserveCallback(metrics.OutcomeSuccess)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = buf.WriteTo(w)
	}
}

func (s *Server) writeCallbackError(w http.ResponseWriter, r *http.Request, err error) {
	var providerErr *auth.ProviderError
	switch {
	case errors.As(err, &providerErr):
		s.metrics.ObserveCallback(metrics.OutcomeProviderError)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "Error: "+providerErr.Code)

	case errors.Is(err, errors.ErrCsrfMismatch):
		s.metrics.ObserveCallback(metrics.OutcomeStateMismatch)
		logError(r.Method, r.URL.Path, err.Error())
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)

	case errors.Is(err, errors.ErrTransport):
		s.metrics.ObserveCallback(metrics.OutcomeTransportError)
		logError(r.Method, r.URL.Path, err.Error())
		http.Error(w, fmt.Sprintf("Upstream request failed: %v", err), http.StatusBadGateway)

	case errors.Is(err, errors.ErrProtocolViolation):
		s.metrics.ObserveCallback(metrics.OutcomeProtocolViolation)
		logError(r.Method, r.URL.Path, err.Error())
		http.Error(w, fmt.Sprintf("Unexpected response: %v", err), http.StatusBadGateway)

	default:
		s.metrics.ObserveCallback(metrics.OutcomeInternalError)
		logError(r.Method, r.URL.Path, err.Error())
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

type reportView struct {
	AppName string
	*auth.Report
}
