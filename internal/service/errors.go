package service

import (
	"errors"

	"github.com/dukerupert/cartsync/internal/domain"
)

// mergeResult maps an add-to-cart failure to a metrics label.
func mergeResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrProductNotFound), errors.Is(err, domain.ErrItemNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrNotEnoughItemCount):
		return "not_enough_stock"
	case errors.Is(err, domain.ErrInvalidQuantity):
		return "invalid"
	default:
		return "error"
	}
}

// orderResult maps an order outcome to a metrics label.
func orderResult(err error) string {
	switch {
	case err == nil:
		return "committed"
	case errors.Is(err, domain.ErrCartEmpty):
		return "cart_empty"
	case errors.Is(err, domain.ErrOrderFailCheckCart):
		return "check_cart"
	case errors.Is(err, domain.ErrOrderFailNotEnoughBalance), errors.Is(err, domain.ErrNotEnoughBalance):
		return "balance"
	case errors.Is(err, domain.ErrNotEnoughItemCount):
		return "stock"
	case errors.Is(err, domain.ErrInvalidQuantity), errors.Is(err, domain.ErrDuplicateCartLine):
		return "invalid"
	default:
		return "error"
	}
}
