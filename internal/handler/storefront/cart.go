// Package storefront serves the customer cart and product search endpoints.
package storefront

import (
	"net/http"

	"github.com/dukerupert/cartsync/internal/domain"
	"github.com/dukerupert/cartsync/internal/handler"
	"github.com/dukerupert/cartsync/internal/middleware"
)

// CartHandler handles the /customer/cart routes.
type CartHandler struct {
	cartService  domain.CartService
	orderService domain.OrderService
}

// NewCartHandler creates a new cart handler
func NewCartHandler(cartService domain.CartService, orderService domain.OrderService) *CartHandler {
	return &CartHandler{
		cartService:  cartService,
		orderService: orderService,
	}
}

// Add handles POST /customer/cart
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r)
	if user == nil {
		handler.UnauthorizedResponse(w, r)
		return
	}

	var req domain.AddToCartRequest
	if err := handler.DecodeJSON(r, "cart.add", &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	view, err := h.cartService.AddToCart(r.Context(), user.ID, req)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.WriteJSON(w, http.StatusOK, view)
}

// View handles GET /customer/cart
func (h *CartHandler) View(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r)
	if user == nil {
		handler.UnauthorizedResponse(w, r)
		return
	}

	view, err := h.cartService.GetCart(r.Context(), user.ID)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.WriteJSON(w, http.StatusOK, view)
}

// Replace handles PUT /customer/cart. The body is the whole cart.
func (h *CartHandler) Replace(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r)
	if user == nil {
		handler.UnauthorizedResponse(w, r)
		return
	}

	cart, err := decodeCart(r, "cart.update", user.ID)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	view, err := h.cartService.UpdateCart(r.Context(), user.ID, cart)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.WriteJSON(w, http.StatusOK, view)
}

// Clear handles DELETE /customer/cart
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r)
	if user == nil {
		handler.UnauthorizedResponse(w, r)
		return
	}

	if err := h.cartService.ClearCart(r.Context(), user.ID); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Order handles POST /customer/cart/order. The body is the cart the customer
// saw; it is reconciled again before anything is debited.
func (h *CartHandler) Order(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r)
	if user == nil {
		handler.UnauthorizedResponse(w, r)
		return
	}

	cart, err := decodeCart(r, "order.commit", user.ID)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	result, err := h.orderService.Order(r.Context(), user.Token, cart)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.WriteJSON(w, http.StatusOK, result)
}

// decodeCart reads a cart body and binds it to the caller. A customerId in
// the body is ignored.
func decodeCart(r *http.Request, op string, customerID int64) (*domain.Cart, error) {
	var cart domain.Cart
	if err := handler.DecodeJSON(r, op, &cart); err != nil {
		return nil, err
	}
	cart.CustomerID = customerID
	if cart.Products == nil {
		cart.Products = []domain.CartProduct{}
	}
	return &cart, nil
}
