// Package account talks to the remote user service that owns customer balances.
package account

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dukerupert/cartsync/internal/auth"
	"github.com/dukerupert/cartsync/internal/domain"
	"github.com/dukerupert/cartsync/internal/telemetry"
	"github.com/go-resty/resty/v2"
)

const (
	pathCustomerInfo = "/customer/getInfo"
	pathBalance      = "/customer/balance"

	codeNotEnoughBalance = "NOT_ENOUGH_BALANCE"
	codeNotFoundUser     = "NOT_FOUND_USER"
)

// Config configures the remote ledger client.
type Config struct {
	BaseURL string
	Timeout time.Duration

	// Transport overrides the HTTP transport. Defaults to a Sentry-instrumented one.
	Transport http.RoundTripper
}

// Client implements domain.AccountLedger against the user service.
type Client struct {
	http *resty.Client
}

var _ domain.AccountLedger = (*Client)(nil)

type customerInfo struct {
	ID      int64  `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Balance int64  `json:"balance"`
}

type changeBalanceForm struct {
	From    string `json:"from"`
	Message string `json:"message"`
	Money   int64  `json:"money"`
}

type remoteError struct {
	ErrorCode string `json:"errorCode"`
	Message   string `json:"message"`
}

// NewClient creates a resty-backed client for the user service.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	transport := cfg.Transport
	if transport == nil {
		transport = &telemetry.HTTPTransport{}
	}

	c := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetTransport(transport).
		SetHeader("Accept", "application/json")

	return &Client{http: c}
}

// GetCustomer fetches the token owner's account.
func (c *Client) GetCustomer(ctx context.Context, token string) (*domain.Customer, error) {
	const op = "account.get_customer"

	var info customerInfo
	var failure remoteError
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader(auth.HeaderName, token).
		SetResult(&info).
		SetError(&failure).
		Get(pathCustomerInfo)
	if err != nil {
		return nil, domain.Unavailable(err, op, "user service unreachable")
	}
	if resp.IsError() {
		return nil, remoteFailure(op, resp, failure)
	}

	return &domain.Customer{ID: info.ID, Email: info.Email, Name: info.Name, Balance: info.Balance}, nil
}

// GetBalance returns the token owner's balance.
func (c *Client) GetBalance(ctx context.Context, token string) (int64, error) {
	customer, err := c.GetCustomer(ctx, token)
	if err != nil {
		return 0, err
	}
	return customer.Balance, nil
}

// ChangeBalance posts a balance change and returns the new balance.
func (c *Client) ChangeBalance(ctx context.Context, token string, delta int64, reason string) (int64, error) {
	const op = "account.change_balance"

	var balance int64
	var failure remoteError
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader(auth.HeaderName, token).
		SetBody(changeBalanceForm{From: "cartsync", Message: reason, Money: delta}).
		SetResult(&balance).
		SetError(&failure).
		Post(pathBalance)
	if err != nil {
		return 0, domain.Unavailable(err, op, "user service unreachable")
	}
	if resp.IsError() {
		return 0, remoteFailure(op, resp, failure)
	}
	return balance, nil
}

func remoteFailure(op string, resp *resty.Response, failure remoteError) error {
	switch {
	case failure.ErrorCode == codeNotEnoughBalance:
		return domain.ErrNotEnoughBalance
	case failure.ErrorCode == codeNotFoundUser, resp.StatusCode() == http.StatusNotFound:
		return domain.ErrCustomerNotFound
	case resp.StatusCode() == http.StatusUnauthorized:
		return auth.ErrInvalidToken
	case resp.StatusCode() == http.StatusForbidden:
		return auth.ErrWrongRole
	case resp.StatusCode() >= http.StatusInternalServerError:
		return domain.Unavailable(fmt.Errorf("user service returned %s", resp.Status()), op, "user service failed")
	default:
		return domain.Internal(fmt.Errorf("user service returned %s: %s", resp.Status(), failure.Message), op, "unexpected user service response")
	}
}
