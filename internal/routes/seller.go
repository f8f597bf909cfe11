package routes

import (
	"github.com/dukerupert/cartsync/internal/middleware"
	"github.com/dukerupert/cartsync/internal/router"
	"github.com/dukerupert/cartsync/internal/telemetry"
)

// RegisterSellerRoutes registers catalog management routes.
// All of them require a SELLER token.
func RegisterSellerRoutes(r *router.Router, deps SellerDeps) {
	s := r.Route("/seller",
		middleware.RequireSeller(deps.Verifier),
		telemetry.SentryContextMiddleware(middleware.SentryUser),
	)

	s.Post("/product", deps.ProductHandler.AddProduct)
	s.Put("/product", deps.ProductHandler.UpdateProduct)
	s.Delete("/product", deps.ProductHandler.DeleteProduct)

	s.Post("/product/item", deps.ProductHandler.AddItem)
	s.Put("/product/item", deps.ProductHandler.UpdateItem)
	s.Delete("/product/item", deps.ProductHandler.DeleteItem)
}
