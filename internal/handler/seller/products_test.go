package seller

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dukerupert/cartsync/internal/domain"
)

// mockProductService implements domain.ProductService for testing
type mockProductService struct {
	addProductFunc        func(ctx context.Context, sellerID int64, params domain.AddProductParams) (*domain.CatalogProduct, error)
	addProductItemFunc    func(ctx context.Context, sellerID int64, params domain.AddProductItemParams) (*domain.CatalogProduct, error)
	updateProductFunc     func(ctx context.Context, sellerID int64, params domain.UpdateProductParams) (*domain.CatalogProduct, error)
	updateProductItemFunc func(ctx context.Context, sellerID int64, params domain.UpdateProductItemForm) (*domain.CatalogItem, error)
	deleteProductFunc     func(ctx context.Context, sellerID, productID int64) (*domain.CatalogProduct, error)
	deleteProductItemFunc func(ctx context.Context, sellerID, itemID int64) (*domain.CatalogItem, error)
}

func (m *mockProductService) AddProduct(ctx context.Context, sellerID int64, params domain.AddProductParams) (*domain.CatalogProduct, error) {
	if m.addProductFunc != nil {
		return m.addProductFunc(ctx, sellerID, params)
	}
	return &domain.CatalogProduct{}, nil
}

func (m *mockProductService) AddProductItem(ctx context.Context, sellerID int64, params domain.AddProductItemParams) (*domain.CatalogProduct, error) {
	if m.addProductItemFunc != nil {
		return m.addProductItemFunc(ctx, sellerID, params)
	}
	return &domain.CatalogProduct{}, nil
}

func (m *mockProductService) UpdateProduct(ctx context.Context, sellerID int64, params domain.UpdateProductParams) (*domain.CatalogProduct, error) {
	if m.updateProductFunc != nil {
		return m.updateProductFunc(ctx, sellerID, params)
	}
	return &domain.CatalogProduct{}, nil
}

func (m *mockProductService) UpdateProductItem(ctx context.Context, sellerID int64, params domain.UpdateProductItemForm) (*domain.CatalogItem, error) {
	if m.updateProductItemFunc != nil {
		return m.updateProductItemFunc(ctx, sellerID, params)
	}
	return &domain.CatalogItem{}, nil
}

func (m *mockProductService) DeleteProduct(ctx context.Context, sellerID, productID int64) (*domain.CatalogProduct, error) {
	if m.deleteProductFunc != nil {
		return m.deleteProductFunc(ctx, sellerID, productID)
	}
	return &domain.CatalogProduct{}, nil
}

func (m *mockProductService) DeleteProductItem(ctx context.Context, sellerID, itemID int64) (*domain.CatalogItem, error) {
	if m.deleteProductItemFunc != nil {
		return m.deleteProductItemFunc(ctx, sellerID, itemID)
	}
	return &domain.CatalogItem{}, nil
}

func (m *mockProductService) SearchByName(ctx context.Context, name string) ([]domain.CatalogProduct, error) {
	return nil, nil
}

func (m *mockProductService) GetProductDetail(ctx context.Context, productID int64) (*domain.CatalogProduct, error) {
	return nil, nil
}

var testSeller = &domain.User{ID: 9, Email: "seller@example.com", Role: domain.RoleSeller, Token: "tok"}

func request(method, target, body string, user *domain.User) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	if user != nil {
		req = req.WithContext(domain.NewContextWithUser(req.Context(), user))
	}
	return req
}

func TestProductHandler_AddProduct(t *testing.T) {
	tests := []struct {
		name           string
		user           *domain.User
		body           string
		mockErr        error
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "creates product",
			user:           testSeller,
			body:           `{"name":"Nike Air","description":"shoes","items":[{"name":"Red 270","price":20000,"count":10}]}`,
			expectedStatus: http.StatusCreated,
			expectedBody:   `"sellerId":9`,
		},
		{
			name:           "customer token is forbidden",
			user:           &domain.User{ID: 7, Role: domain.RoleCustomer},
			body:           `{"name":"Nike Air"}`,
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "missing name",
			user:           testSeller,
			body:           `{"description":"shoes"}`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"name":"is required"`,
		},
		{
			name:           "item without name",
			user:           testSeller,
			body:           `{"name":"Nike Air","items":[{"price":1,"count":1}]}`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"items[0].name"`,
		},
		{
			name:           "duplicate item name",
			user:           testSeller,
			body:           `{"name":"Nike Air","items":[{"name":"Red","price":1,"count":1},{"name":"Red","price":1,"count":1}]}`,
			mockErr:        domain.ErrSameItemName,
			expectedStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewProductHandler(&mockProductService{
				addProductFunc: func(ctx context.Context, sellerID int64, params domain.AddProductParams) (*domain.CatalogProduct, error) {
					if tt.mockErr != nil {
						return nil, tt.mockErr
					}
					return &domain.CatalogProduct{ID: 1, SellerID: sellerID, Name: params.Name}, nil
				},
			})

			w := httptest.NewRecorder()
			h.AddProduct(w, request(http.MethodPost, "/seller/product", tt.body, tt.user))

			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			if tt.expectedBody != "" {
				assert.Contains(t, w.Body.String(), tt.expectedBody)
			}
		})
	}
}

func TestProductHandler_UpdateProduct(t *testing.T) {
	var gotSeller int64
	h := NewProductHandler(&mockProductService{
		updateProductFunc: func(ctx context.Context, sellerID int64, params domain.UpdateProductParams) (*domain.CatalogProduct, error) {
			gotSeller = sellerID
			return &domain.CatalogProduct{ID: params.ID, SellerID: sellerID, Name: params.Name}, nil
		},
	})

	w := httptest.NewRecorder()
	h.UpdateProduct(w, request(http.MethodPut, "/seller/product", `{"id":1,"name":"Nike Air 2"}`, testSeller))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, testSeller.ID, gotSeller)
	assert.Contains(t, w.Body.String(), "Nike Air 2")
}

func TestProductHandler_DeleteProduct(t *testing.T) {
	h := NewProductHandler(&mockProductService{
		deleteProductFunc: func(ctx context.Context, sellerID, productID int64) (*domain.CatalogProduct, error) {
			if productID != 1 {
				return nil, domain.ErrProductNotFound
			}
			return &domain.CatalogProduct{ID: 1, SellerID: sellerID}, nil
		},
	})

	w := httptest.NewRecorder()
	h.DeleteProduct(w, request(http.MethodDelete, "/seller/product?id=1", "", testSeller))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	h.DeleteProduct(w, request(http.MethodDelete, "/seller/product?id=5", "", testSeller))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	h.DeleteProduct(w, request(http.MethodDelete, "/seller/product", "", testSeller))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProductHandler_Items(t *testing.T) {
	h := NewProductHandler(&mockProductService{
		addProductItemFunc: func(ctx context.Context, sellerID int64, params domain.AddProductItemParams) (*domain.CatalogProduct, error) {
			return nil, domain.ErrSameItemName
		},
		updateProductItemFunc: func(ctx context.Context, sellerID int64, params domain.UpdateProductItemForm) (*domain.CatalogItem, error) {
			return &domain.CatalogItem{ID: params.ID, SellerID: sellerID, Price: params.Price, Count: params.Count}, nil
		},
		deleteProductItemFunc: func(ctx context.Context, sellerID, itemID int64) (*domain.CatalogItem, error) {
			return nil, domain.ErrItemNotFound
		},
	})

	w := httptest.NewRecorder()
	h.AddItem(w, request(http.MethodPost, "/seller/product/item", `{"productId":1,"name":"Red 270","price":1,"count":1}`, testSeller))
	assert.Equal(t, http.StatusConflict, w.Code)

	w = httptest.NewRecorder()
	h.UpdateItem(w, request(http.MethodPut, "/seller/product/item", `{"id":11,"name":"Red 270","price":21000,"count":4}`, testSeller))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"price":21000`)

	w = httptest.NewRecorder()
	h.UpdateItem(w, request(http.MethodPut, "/seller/product/item", `{"id":11,"name":"Red 270","price":-1,"count":4}`, testSeller))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	h.DeleteItem(w, request(http.MethodDelete, "/seller/product/item?id=99", "", testSeller))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
