package routes

import (
	"github.com/dukerupert/mailinglist/internal/handler"
	"github.com/dukerupert/mailinglist/internal/router"
)

// Register registers all routes.
//
// Note: /metrics has no authentication; restrict it at the network edge.
func Register(r *router.Router, deps Deps) {
	r.Get("/health", handler.Health)
	r.Get("/metrics", deps.MetricsHandler.ServeHTTP)
	r.Post("/subscriptions", deps.SubscribeHandler.ServeHTTP)
}
