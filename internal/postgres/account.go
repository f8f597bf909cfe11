package postgres

import (
	"context"
	"errors"

	"github.com/dukerupert/cartsync/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CustomerResolver maps an X-Auth-Token to a customer id.
type CustomerResolver interface {
	CustomerID(token string) (int64, error)
}

// AccountLedger stores customer balances and their change history locally.
type AccountLedger struct {
	db       *pgxpool.Pool
	resolver CustomerResolver
}

var _ domain.AccountLedger = (*AccountLedger)(nil)

// NewAccountLedger creates a PostgreSQL-backed account ledger.
func NewAccountLedger(db *pgxpool.Pool, resolver CustomerResolver) *AccountLedger {
	return &AccountLedger{db: db, resolver: resolver}
}

// GetCustomer returns the customer the token belongs to.
func (l *AccountLedger) GetCustomer(ctx context.Context, token string) (*domain.Customer, error) {
	id, err := l.resolver.CustomerID(token)
	if err != nil {
		return nil, err
	}

	var c domain.Customer
	err = l.db.QueryRow(ctx, `
		SELECT id, email, name, balance
		FROM customers
		WHERE id = $1
	`, id).Scan(&c.ID, &c.Email, &c.Name, &c.Balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrCustomerNotFound
	}
	if err != nil {
		return nil, domain.Unavailable(err, "account.customer", "failed to load customer")
	}
	return &c, nil
}

// GetBalance returns the customer's current balance.
func (l *AccountLedger) GetBalance(ctx context.Context, token string) (int64, error) {
	c, err := l.GetCustomer(ctx, token)
	if err != nil {
		return 0, err
	}
	return c.Balance, nil
}

// ChangeBalance applies delta under a row lock and records the change.
func (l *AccountLedger) ChangeBalance(ctx context.Context, token string, delta int64, reason string) (int64, error) {
	const op = "account.change_balance"

	id, err := l.resolver.CustomerID(token)
	if err != nil {
		return 0, err
	}

	var current int64
	err = pgx.BeginFunc(ctx, l.db, func(tx pgx.Tx) error {
		var balance int64
		err := tx.QueryRow(ctx, `SELECT balance FROM customers WHERE id = $1 FOR UPDATE`, id).Scan(&balance)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrCustomerNotFound
		}
		if err != nil {
			return err
		}

		current = balance + delta
		if current < 0 {
			return domain.ErrNotEnoughBalance
		}

		if _, err := tx.Exec(ctx, `
			UPDATE customers SET balance = $2, updated_at = NOW() WHERE id = $1
		`, id, current); err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO customer_balance_history (customer_id, change_money, current_money, from_message, description)
			VALUES ($1, $2, $3, $4, $5)
		`, id, delta, current, "cartsync", reason)
		return err
	})
	if err != nil {
		var de *domain.Error
		if errors.As(err, &de) {
			return 0, err
		}
		return 0, domain.Unavailable(err, op, "failed to change balance")
	}
	return current, nil
}

// BalanceChange is one row of a customer's balance history.
type BalanceChange struct {
	ChangeMoney  int64
	CurrentMoney int64
	FromMessage  string
	Description  string
}

// History returns the customer's balance changes, newest first.
func (l *AccountLedger) History(ctx context.Context, customerID int64) ([]BalanceChange, error) {
	rows, err := l.db.Query(ctx, `
		SELECT change_money, current_money, from_message, description
		FROM customer_balance_history
		WHERE customer_id = $1
		ORDER BY created_at DESC, id DESC
	`, customerID)
	if err != nil {
		return nil, domain.Unavailable(err, "account.history", "failed to load balance history")
	}
	changes, err := pgx.CollectRows(rows, pgx.RowToStructByPos[BalanceChange])
	if err != nil {
		return nil, domain.Unavailable(err, "account.history", "failed to scan balance history")
	}
	return changes, nil
}
