package server

import (
	"io"
	"net/http"
	"net/http/pprof"
)

func (s *Server) initRoutes() {
	s.RegisterRouteHandler("GET "+RouteIndex, ChainMiddleware(s.IndexHandler(), s.HTMLMiddleWare()...))

	s.RegisterRouteHandler("GET "+RouteCallback, ChainMiddleware(s.CallbackHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteCallback, ChainMiddleware(s.CallbackHandler(), s.HTMLMiddleWare()...)) // For form_post response mode

	s.RegisterRouteHandler("GET "+RouteMetrics, s.metrics.Handler())
	s.RegisterRouteFunc("GET "+RouteHealthz, s.HealthHandler())

	if s.config.IsDebug() {
		s.RegisterRouteFunc(RoutePprof, pprof.Index)
		s.RegisterRouteFunc(RoutePprof+"cmdline", pprof.Cmdline)
		s.RegisterRouteFunc(RoutePprof+"profile", pprof.Profile)
		s.RegisterRouteFunc(RoutePprof+"symbol", pprof.Symbol)
		s.RegisterRouteFunc(RoutePprof+"trace", pprof.Trace)
	}
}

// HealthHandler reports liveness only; it never calls the provider.
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok")
	}
}
