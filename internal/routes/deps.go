// Package routes registers the HTTP surface on the router.
package routes

import (
	"net/http"

	"github.com/dukerupert/cartsync/internal/handler/seller"
	"github.com/dukerupert/cartsync/internal/handler/storefront"
	"github.com/dukerupert/cartsync/internal/middleware"
)

// CustomerDeps contains dependencies for the /customer routes
type CustomerDeps struct {
	CartHandler *storefront.CartHandler

	// Verifier checks X-Auth-Token for the CUSTOMER role
	Verifier middleware.TokenVerifier

	// OrderLimiter throttles order commits per customer; nil disables it
	OrderLimiter *middleware.RateLimiter
}

// SellerDeps contains dependencies for the /seller routes
type SellerDeps struct {
	ProductHandler *seller.ProductHandler
	Verifier       middleware.TokenVerifier
}

// SearchDeps contains dependencies for the public /search routes
type SearchDeps struct {
	SearchHandler *storefront.SearchHandler
}

// OpsDeps contains the health and metrics endpoints
type OpsDeps struct {
	HealthHandler  http.Handler
	MetricsHandler http.Handler
}
