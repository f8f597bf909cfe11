package routes

import (
	"github.com/dukerupert/cartsync/internal/router"
)

// RegisterSearchRoutes registers product search. No token is required.
func RegisterSearchRoutes(r *router.Router, deps SearchDeps) {
	r.Get("/search/product", deps.SearchHandler.Search)
	r.Get("/search/product/detail", deps.SearchHandler.Detail)
}

// RegisterOpsRoutes registers /health and /metrics.
func RegisterOpsRoutes(r *router.Router, deps OpsDeps) {
	r.Get("/health", deps.HealthHandler.ServeHTTP)
	if deps.MetricsHandler != nil {
		r.Get("/metrics", deps.MetricsHandler.ServeHTTP)
	}
}
