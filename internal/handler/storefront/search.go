package storefront

import (
	"context"
	"net/http"
	"strings"

	"github.com/dukerupert/cartsync/internal/domain"
	"github.com/dukerupert/cartsync/internal/handler"
)

// ProductSearcher is the read side of the catalog.
type ProductSearcher interface {
	SearchByName(ctx context.Context, name string) ([]domain.CatalogProduct, error)
	GetProductDetail(ctx context.Context, productID int64) (*domain.CatalogProduct, error)
}

// SearchHandler handles the public /search routes.
type SearchHandler struct {
	products ProductSearcher
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(products ProductSearcher) *SearchHandler {
	return &SearchHandler{products: products}
}

// Search handles GET /search/product?name=
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		handler.ErrorResponse(w, r, domain.NewValidationError("search.product", "name", "is required"))
		return
	}

	products, err := h.products.SearchByName(r.Context(), name)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	if products == nil {
		products = []domain.CatalogProduct{}
	}

	handler.WriteJSON(w, http.StatusOK, products)
}

// Detail handles GET /search/product/detail?productId=
func (h *SearchHandler) Detail(w http.ResponseWriter, r *http.Request) {
	productID, err := handler.QueryInt64(r, "search.detail", "productId")
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	product, err := h.products.GetProductDetail(r.Context(), productID)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.WriteJSON(w, http.StatusOK, product)
}
