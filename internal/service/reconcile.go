package service

import (
	"fmt"
	"strings"

	"github.com/dukerupert/cartsync/internal/domain"
)

// ReconcileCart refreshes every cached product and item in cart against snap and
// returns one message per product that changed, in cart order.
//
// Products missing from snap and items missing from their live product are dropped.
// Items whose live count is zero are dropped as sold out. Surviving items take the
// live price and are clamped down to the live count. A product left with no items
// is dropped. The catalog is never touched, and reconciling twice against the same
// snapshot yields no messages the second time.
func ReconcileCart(cart *domain.Cart, snap domain.CatalogSnapshot) []string {
	if cart == nil {
		return nil
	}

	var messages []string
	products := make([]domain.CartProduct, 0, len(cart.Products))

	for _, cp := range cart.Products {
		live, ok := snap.Product(cp.ID)
		if !ok {
			messages = append(messages, fmt.Sprintf("%s has been removed", cp.Name))
			continue
		}

		items, itemMessages := reconcileItems(cp.Items, live)
		if len(items) == 0 {
			messages = append(messages, fmt.Sprintf("%s has no purchasable options left", cp.Name))
			continue
		}
		if len(itemMessages) > 0 {
			messages = append(messages, fmt.Sprintf("%s changes: %s", cp.Name, strings.Join(itemMessages, ", ")))
		}

		cp.Items = items
		products = append(products, cp)
	}

	cart.Products = products
	return messages
}

func reconcileItems(cached []domain.CartItem, live domain.CatalogProduct) ([]domain.CartItem, []string) {
	var messages []string
	items := make([]domain.CartItem, 0, len(cached))

	for _, item := range cached {
		current, ok := live.Item(item.ID)
		if !ok {
			messages = append(messages, fmt.Sprintf("%s option removed", item.Name))
			continue
		}
		if current.Count <= 0 {
			messages = append(messages, fmt.Sprintf("%s is sold out", item.Name))
			continue
		}

		priceChanged := item.Price != current.Price
		countInsufficient := item.Count > current.Count

		switch {
		case priceChanged && countInsufficient:
			messages = append(messages, fmt.Sprintf("%s price and quantity changed", item.Name))
		case priceChanged:
			messages = append(messages, fmt.Sprintf("%s price changed", item.Name))
		case countInsufficient:
			messages = append(messages, fmt.Sprintf("%s quantity changed", item.Name))
		}

		item.Price = current.Price
		if countInsufficient {
			item.Count = current.Count
		}
		items = append(items, item)
	}

	return items, messages
}
