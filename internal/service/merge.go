package service

import (
	"fmt"

	"github.com/dukerupert/cartsync/internal/domain"
)

// MergeItems adds the requested items of product to cart and returns the updated
// cart with any divergence notes. A nil cart is created for customerID.
//
// Validation is all-or-nothing: an unknown item id, a count below one, or a total
// (cached plus requested) above live stock fails before cart is modified.
func MergeItems(cart *domain.Cart, customerID int64, product *domain.CatalogProduct, req domain.AddToCartRequest) (*domain.Cart, []string, error) {
	if err := checkAddable(cart, product, req); err != nil {
		return cart, nil, err
	}

	if cart == nil {
		cart = domain.NewCart(customerID)
	}

	existing := cart.Product(req.ProductID)
	if existing == nil {
		cart.Products = append(cart.Products, newCartProduct(product, req))
		return cart, nil, nil
	}

	var messages []string
	for _, reqItem := range req.Items {
		cached := existing.Item(reqItem.ID)
		if cached == nil {
			existing.Items = append(existing.Items, domain.CartItem{
				ID:    reqItem.ID,
				Name:  reqItem.Name,
				Price: reqItem.Price,
				Count: reqItem.Count,
			})
			continue
		}

		cached.Count += reqItem.Count
		if cached.Price != reqItem.Price {
			cached.Price = reqItem.Price
			messages = append(messages, fmt.Sprintf("%s %s price changed, please review", req.Name, cached.Name))
		}
	}

	if existing.Name != req.Name {
		messages = append(messages, fmt.Sprintf("%s information changed, please review", existing.Name))
	}

	return cart, messages, nil
}

// checkCartLines rejects a client-supplied cart whose lines could slip past
// the per-line reconcile: a count below one, or a product or item id listed
// twice. Item ids are unique across the catalog.
func checkCartLines(cart *domain.Cart) error {
	products := make(map[int64]bool, len(cart.Products))
	items := make(map[int64]bool)
	for _, p := range cart.Products {
		if products[p.ID] {
			return domain.ErrDuplicateCartLine
		}
		products[p.ID] = true
		for _, item := range p.Items {
			if item.Count < 1 {
				return domain.ErrInvalidQuantity
			}
			if items[item.ID] {
				return domain.ErrDuplicateCartLine
			}
			items[item.ID] = true
		}
	}
	return nil
}

// checkAddable validates every requested line against the live product
// and the counts already held in cart.
func checkAddable(cart *domain.Cart, product *domain.CatalogProduct, req domain.AddToCartRequest) error {
	requested := make(map[int64]int, len(req.Items))
	for _, reqItem := range req.Items {
		if _, ok := product.Item(reqItem.ID); !ok {
			return domain.ErrItemNotFound
		}
		if reqItem.Count < 1 {
			return domain.ErrInvalidQuantity
		}
		requested[reqItem.ID] += reqItem.Count
	}

	var held *domain.CartProduct
	if cart != nil {
		held = cart.Product(req.ProductID)
	}

	for itemID, count := range requested {
		live, _ := product.Item(itemID)
		if held != nil {
			if cached := held.Item(itemID); cached != nil {
				count += cached.Count
			}
		}
		if count > live.Count {
			return domain.ErrNotEnoughItemCount
		}
	}

	return nil
}

func newCartProduct(product *domain.CatalogProduct, req domain.AddToCartRequest) domain.CartProduct {
	cp := domain.CartProduct{
		ID:          req.ProductID,
		SellerID:    req.SellerID,
		Name:        req.Name,
		Description: req.Description,
		Items:       make([]domain.CartItem, 0, len(req.Items)),
	}
	if cp.SellerID == 0 {
		cp.SellerID = product.SellerID
	}

	for _, reqItem := range req.Items {
		if cached := cp.Item(reqItem.ID); cached != nil {
			cached.Count += reqItem.Count
			continue
		}
		cp.Items = append(cp.Items, domain.CartItem{
			ID:    reqItem.ID,
			Name:  reqItem.Name,
			Price: reqItem.Price,
			Count: reqItem.Count,
		})
	}
	return cp
}
