// Package seller serves catalog management for authenticated sellers.
package seller

import (
	"net/http"

	"github.com/dukerupert/cartsync/internal/domain"
	"github.com/dukerupert/cartsync/internal/handler"
	"github.com/dukerupert/cartsync/internal/middleware"
)

// ProductHandler handles the /seller/product routes. Every operation is
// scoped to the seller in the token.
type ProductHandler struct {
	products domain.ProductService
}

// NewProductHandler creates a new seller product handler
func NewProductHandler(products domain.ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

// AddProduct handles POST /seller/product
func (h *ProductHandler) AddProduct(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := sellerFrom(w, r)
	if !ok {
		return
	}

	var params domain.AddProductParams
	if err := handler.DecodeJSON(r, "seller.add_product", &params); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	product, err := h.products.AddProduct(r.Context(), sellerID, params)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusCreated, product)
}

// UpdateProduct handles PUT /seller/product
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := sellerFrom(w, r)
	if !ok {
		return
	}

	var params domain.UpdateProductParams
	if err := handler.DecodeJSON(r, "seller.update_product", &params); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	product, err := h.products.UpdateProduct(r.Context(), sellerID, params)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, product)
}

// DeleteProduct handles DELETE /seller/product?id=
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := sellerFrom(w, r)
	if !ok {
		return
	}

	id, err := handler.QueryInt64(r, "seller.delete_product", "id")
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	product, err := h.products.DeleteProduct(r.Context(), sellerID, id)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, product)
}

// AddItem handles POST /seller/product/item
func (h *ProductHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := sellerFrom(w, r)
	if !ok {
		return
	}

	var params domain.AddProductItemParams
	if err := handler.DecodeJSON(r, "seller.add_item", &params); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	product, err := h.products.AddProductItem(r.Context(), sellerID, params)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusCreated, product)
}

// UpdateItem handles PUT /seller/product/item
func (h *ProductHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := sellerFrom(w, r)
	if !ok {
		return
	}

	var params domain.UpdateProductItemForm
	if err := handler.DecodeJSON(r, "seller.update_item", &params); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	item, err := h.products.UpdateProductItem(r.Context(), sellerID, params)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, item)
}

// DeleteItem handles DELETE /seller/product/item?id=
func (h *ProductHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := sellerFrom(w, r)
	if !ok {
		return
	}

	id, err := handler.QueryInt64(r, "seller.delete_item", "id")
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	item, err := h.products.DeleteProductItem(r.Context(), sellerID, id)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, item)
}

func sellerFrom(w http.ResponseWriter, r *http.Request) (int64, bool) {
	user := middleware.GetUserFromContext(r)
	if !user.Is(domain.RoleSeller) {
		handler.ForbiddenResponse(w, r)
		return 0, false
	}
	return user.ID, true
}
