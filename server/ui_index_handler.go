package server

import (
	"net/http"
)

// IndexHandler renders the home page with a freshly built authorization URL
func (s *Server) IndexHandler() http.HandlerFunc {
	tmpl, err := ParseTemplate("index.html")
	if err != nil {
		panic("Failed to parse index template: " + err.Error())
	}

	return func(w http.ResponseWriter, r *http.Request) {
		authURL, err := s.flow.BuildAuthorizationURL()
		if err != nil {
			logError(r.Method, r.URL.Path, err.Error())
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		data := map[string]interface{}{
			"AppName":          s.config.GetAppName(),
			"AuthorizationURL": authURL,
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = tmpl.Execute(w, data)
	}
}
