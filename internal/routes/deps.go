package routes

import "net/http"

// Deps contains dependencies for the public routes
type Deps struct {
	SubscribeHandler http.Handler

	// MetricsHandler serves the Prometheus exposition
	MetricsHandler http.Handler
}
