package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/dukerupert/cartsync/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CatalogStore implements the live catalog lookup, the inventory ledger,
// and seller catalog management on PostgreSQL.
type CatalogStore struct {
	db *pgxpool.Pool
}

// Compile-time checks that CatalogStore implements the catalog interfaces.
var (
	_ domain.CatalogLookup   = (*CatalogStore)(nil)
	_ domain.InventoryLedger = (*CatalogStore)(nil)
	_ domain.ProductService  = (*CatalogStore)(nil)
)

// NewCatalogStore creates a PostgreSQL-backed catalog.
func NewCatalogStore(db *pgxpool.Pool) *CatalogStore {
	return &CatalogStore{db: db}
}

const searchLimit = 100

// =============================================================================
// CATALOG LOOKUP
// =============================================================================

// ProductByID returns the product with all of its items.
func (s *CatalogStore) ProductByID(ctx context.Context, id int64) (*domain.CatalogProduct, error) {
	return productByID(ctx, s.db, id)
}

// ProductsByIDs returns every listed product that still exists, with items.
func (s *CatalogStore) ProductsByIDs(ctx context.Context, ids []int64) ([]domain.CatalogProduct, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, seller_id, name, description
		FROM products
		WHERE id = ANY($1)
		ORDER BY id
	`, ids)
	if err != nil {
		return nil, domain.Unavailable(err, "catalog.products", "failed to load products")
	}
	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, domain.Unavailable(err, "catalog.products", "failed to scan products")
	}

	items, err := itemsByProduct(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}
	for i := range products {
		products[i].Items = items[products[i].ID]
	}
	return products, nil
}

// =============================================================================
// INVENTORY LEDGER
// =============================================================================

// Decrement removes count units of stock. The guard in the WHERE clause makes
// concurrent orders unable to drive stock below zero.
func (s *CatalogStore) Decrement(ctx context.Context, itemID int64, count int) error {
	const op = "inventory.decrement"
	if count < 1 {
		return domain.ErrInvalidQuantity
	}

	tag, err := s.db.Exec(ctx, `
		UPDATE product_items
		SET count = count - $2, updated_at = NOW()
		WHERE id = $1 AND count >= $2
	`, itemID, count)
	if err != nil {
		return domain.Unavailable(err, op, "failed to decrement stock")
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM product_items WHERE id = $1)`, itemID).Scan(&exists); err != nil {
		return domain.Unavailable(err, op, "failed to check item")
	}
	if !exists {
		return domain.ErrItemNotFound
	}
	return domain.ErrNotEnoughItemCount
}

// Increment returns count units of stock.
func (s *CatalogStore) Increment(ctx context.Context, itemID int64, count int) error {
	if count < 1 {
		return domain.ErrInvalidQuantity
	}
	tag, err := s.db.Exec(ctx, `
		UPDATE product_items
		SET count = count + $2, updated_at = NOW()
		WHERE id = $1
	`, itemID, count)
	if err != nil {
		return domain.Unavailable(err, "inventory.increment", "failed to restore stock")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

// =============================================================================
// SELLER CATALOG MANAGEMENT
// =============================================================================

// AddProduct creates a product and its items for sellerID.
func (s *CatalogStore) AddProduct(ctx context.Context, sellerID int64, params domain.AddProductParams) (*domain.CatalogProduct, error) {
	const op = "catalog.add_product"

	names := make([]string, 0, len(params.Items))
	for _, item := range params.Items {
		names = append(names, item.Name)
	}
	if hasDuplicate(names) {
		return nil, domain.ErrSameItemName
	}

	var product *domain.CatalogProduct
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		var id int64
		if err := tx.QueryRow(ctx, `
			INSERT INTO products (seller_id, name, description)
			VALUES ($1, $2, $3)
			RETURNING id
		`, sellerID, params.Name, params.Description).Scan(&id); err != nil {
			return err
		}

		for _, item := range params.Items {
			if _, err := tx.Exec(ctx, `
				INSERT INTO product_items (product_id, seller_id, name, price, count)
				VALUES ($1, $2, $3, $4, $5)
			`, id, sellerID, item.Name, item.Price, item.Count); err != nil {
				return err
			}
		}

		var err error
		product, err = productByID(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, catalogWriteError(err, op)
	}
	return product, nil
}

// AddProductItem adds an item to one of the seller's products.
func (s *CatalogStore) AddProductItem(ctx context.Context, sellerID int64, params domain.AddProductItemParams) (*domain.CatalogProduct, error) {
	const op = "catalog.add_item"

	var product *domain.CatalogProduct
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		if err := lockSellerProduct(ctx, tx, sellerID, params.ProductID); err != nil {
			return err
		}

		var taken bool
		if err := tx.QueryRow(ctx, `
			SELECT EXISTS (SELECT 1 FROM product_items WHERE product_id = $1 AND name = $2)
		`, params.ProductID, params.Name).Scan(&taken); err != nil {
			return err
		}
		if taken {
			return domain.ErrSameItemName
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO product_items (product_id, seller_id, name, price, count)
			VALUES ($1, $2, $3, $4, $5)
		`, params.ProductID, sellerID, params.Name, params.Price, params.Count); err != nil {
			return err
		}

		var err error
		product, err = productByID(ctx, tx, params.ProductID)
		return err
	})
	if err != nil {
		return nil, catalogWriteError(err, op)
	}
	return product, nil
}

// UpdateProduct replaces product fields and updates every listed item.
func (s *CatalogStore) UpdateProduct(ctx context.Context, sellerID int64, params domain.UpdateProductParams) (*domain.CatalogProduct, error) {
	const op = "catalog.update_product"

	var product *domain.CatalogProduct
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE products
			SET name = $3, description = $4, updated_at = NOW()
			WHERE id = $1 AND seller_id = $2
		`, params.ID, sellerID, params.Name, params.Description)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrProductNotFound
		}

		for _, item := range params.Items {
			tag, err := tx.Exec(ctx, `
				UPDATE product_items
				SET name = $3, price = $4, count = $5, updated_at = NOW()
				WHERE id = $1 AND product_id = $2
			`, item.ID, params.ID, item.Name, item.Price, item.Count)
			if err != nil {
				return err
			}
			if tag.RowsAffected() == 0 {
				return domain.ErrItemNotFound
			}
		}

		product, err = productByID(ctx, tx, params.ID)
		return err
	})
	if err != nil {
		return nil, catalogWriteError(err, op)
	}
	return product, nil
}

// UpdateProductItem updates one of the seller's items.
func (s *CatalogStore) UpdateProductItem(ctx context.Context, sellerID int64, params domain.UpdateProductItemForm) (*domain.CatalogItem, error) {
	rows, err := s.db.Query(ctx, `
		UPDATE product_items
		SET name = $3, price = $4, count = $5, updated_at = NOW()
		WHERE id = $1 AND seller_id = $2
		RETURNING id, product_id, seller_id, name, price, count
	`, params.ID, sellerID, params.Name, params.Price, params.Count)
	if err != nil {
		return nil, catalogWriteError(err, "catalog.update_item")
	}
	item, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByPos[domain.CatalogItem])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrItemNotFound
	}
	if err != nil {
		return nil, catalogWriteError(err, "catalog.update_item")
	}
	return &item, nil
}

// DeleteProduct removes one of the seller's products and its items.
func (s *CatalogStore) DeleteProduct(ctx context.Context, sellerID, productID int64) (*domain.CatalogProduct, error) {
	const op = "catalog.delete_product"

	var product *domain.CatalogProduct
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		if err := lockSellerProduct(ctx, tx, sellerID, productID); err != nil {
			return err
		}

		var err error
		if product, err = productByID(ctx, tx, productID); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `DELETE FROM products WHERE id = $1`, productID)
		return err
	})
	if err != nil {
		return nil, catalogWriteError(err, op)
	}
	return product, nil
}

// DeleteProductItem removes one of the seller's items.
func (s *CatalogStore) DeleteProductItem(ctx context.Context, sellerID, itemID int64) (*domain.CatalogItem, error) {
	rows, err := s.db.Query(ctx, `
		DELETE FROM product_items
		WHERE id = $1 AND seller_id = $2
		RETURNING id, product_id, seller_id, name, price, count
	`, itemID, sellerID)
	if err != nil {
		return nil, catalogWriteError(err, "catalog.delete_item")
	}
	item, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByPos[domain.CatalogItem])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrItemNotFound
	}
	if err != nil {
		return nil, catalogWriteError(err, "catalog.delete_item")
	}
	return &item, nil
}

// =============================================================================
// SEARCH
// =============================================================================

// SearchByName returns products whose name contains name, ignoring case.
// Items are not loaded.
func (s *CatalogStore) SearchByName(ctx context.Context, name string) ([]domain.CatalogProduct, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, seller_id, name, description
		FROM products
		WHERE POSITION(LOWER($1) IN LOWER(name)) > 0
		ORDER BY id
		LIMIT $2
	`, strings.TrimSpace(name), searchLimit)
	if err != nil {
		return nil, domain.Unavailable(err, "catalog.search", "failed to search products")
	}
	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, domain.Unavailable(err, "catalog.search", "failed to scan products")
	}
	return products, nil
}

// GetProductDetail returns one product with its items.
func (s *CatalogStore) GetProductDetail(ctx context.Context, productID int64) (*domain.CatalogProduct, error) {
	return productByID(ctx, s.db, productID)
}

// =============================================================================
// HELPERS
// =============================================================================

func productByID(ctx context.Context, q querier, id int64) (*domain.CatalogProduct, error) {
	rows, err := q.Query(ctx, `
		SELECT id, seller_id, name, description
		FROM products
		WHERE id = $1
	`, id)
	if err != nil {
		return nil, domain.Unavailable(err, "catalog.product", "failed to load product")
	}
	product, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		return nil, domain.Unavailable(err, "catalog.product", "failed to scan product")
	}

	items, err := itemsByProduct(ctx, q, []int64{id})
	if err != nil {
		return nil, err
	}
	product.Items = items[id]
	return &product, nil
}

func itemsByProduct(ctx context.Context, q querier, productIDs []int64) (map[int64][]domain.CatalogItem, error) {
	rows, err := q.Query(ctx, `
		SELECT id, product_id, seller_id, name, price, count
		FROM product_items
		WHERE product_id = ANY($1)
		ORDER BY id
	`, productIDs)
	if err != nil {
		return nil, domain.Unavailable(err, "catalog.items", "failed to load items")
	}
	items, err := pgx.CollectRows(rows, pgx.RowToStructByPos[domain.CatalogItem])
	if err != nil {
		return nil, domain.Unavailable(err, "catalog.items", "failed to scan items")
	}

	byProduct := make(map[int64][]domain.CatalogItem, len(productIDs))
	for _, item := range items {
		byProduct[item.ProductID] = append(byProduct[item.ProductID], item)
	}
	return byProduct, nil
}

func scanProduct(row pgx.CollectableRow) (domain.CatalogProduct, error) {
	var p domain.CatalogProduct
	err := row.Scan(&p.ID, &p.SellerID, &p.Name, &p.Description)
	return p, err
}

// lockSellerProduct locks the product row and fails with ErrProductNotFound
// unless it exists and belongs to sellerID.
func lockSellerProduct(ctx context.Context, tx pgx.Tx, sellerID, productID int64) error {
	var owner int64
	err := tx.QueryRow(ctx, `SELECT seller_id FROM products WHERE id = $1 FOR UPDATE`, productID).Scan(&owner)
	if errors.Is(err, pgx.ErrNoRows) || (err == nil && owner != sellerID) {
		return domain.ErrProductNotFound
	}
	return err
}

// catalogWriteError keeps domain errors and maps storage failures.
func catalogWriteError(err error, op string) error {
	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}
	if isUniqueViolation(err) {
		return domain.ErrSameItemName
	}
	return domain.Unavailable(err, op, "catalog write failed")
}

func hasDuplicate(names []string) bool {
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			return true
		}
		seen[n] = struct{}{}
	}
	return false
}
