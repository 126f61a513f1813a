package server

// Route path constants
const (
	RouteIndex    = "/{$}"
	RouteCallback = "/api_callback"

	// Operational routes
	RouteMetrics = "/metrics"
	RouteHealthz = "/healthz"
	RoutePprof   = "/debug/pprof/"
)
