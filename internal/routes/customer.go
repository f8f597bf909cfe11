package routes

import (
	"github.com/dukerupert/cartsync/internal/middleware"
	"github.com/dukerupert/cartsync/internal/router"
	"github.com/dukerupert/cartsync/internal/telemetry"
)

// RegisterCustomerRoutes registers the cart and order routes.
// All of them require a CUSTOMER token.
func RegisterCustomerRoutes(r *router.Router, deps CustomerDeps) {
	customer := r.Route("/customer",
		middleware.RequireCustomer(deps.Verifier),
		telemetry.SentryContextMiddleware(middleware.SentryUser),
	)

	customer.Post("/cart", deps.CartHandler.Add)
	customer.Get("/cart", deps.CartHandler.View)
	customer.Put("/cart", deps.CartHandler.Replace)
	customer.Delete("/cart", deps.CartHandler.Clear)

	var limit []router.Middleware
	if deps.OrderLimiter != nil {
		limit = append(limit, deps.OrderLimiter.Middleware)
	}
	customer.Post("/cart/order", deps.CartHandler.Order, limit...)
}
