// Package auth issues and verifies the X-Auth-Token used by customers and sellers.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dukerupert/cartsync/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// HeaderName is the request header carrying the token.
	HeaderName = "X-Auth-Token"

	issuer = "cartsync"
)

var (
	ErrInvalidToken = domain.Unauthorized("auth.verify", "Invalid or expired token")
	ErrWrongRole    = domain.Forbidden("auth.verify", "Token role does not allow this operation")
)

// Claims identify a user and their role.
type Claims struct {
	UserID int64  `json:"id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies HS256 tokens.
type TokenManager struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

// NewTokenManager creates a token manager. A zero expiry defaults to 24 hours.
func NewTokenManager(secret string, expiry time.Duration) *TokenManager {
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	return &TokenManager{secret: []byte(secret), expiry: expiry, now: time.Now}
}

// Issue signs a token for the user.
func (m *TokenManager) Issue(userID int64, email, role string) (string, error) {
	now := m.now()
	claims := &Claims{
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   fmt.Sprintf("%d", userID),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiry)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify parses the token and returns its claims.
func (m *TokenManager) Verify(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID <= 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// User verifies the token and requires role.
func (m *TokenManager) User(token, role string) (*domain.User, error) {
	claims, err := m.Verify(token)
	if err != nil {
		return nil, err
	}
	if claims.Role != role {
		return nil, ErrWrongRole
	}
	return &domain.User{ID: claims.UserID, Email: claims.Email, Role: claims.Role, Token: token}, nil
}

// CustomerID resolves a customer token to its user id.
func (m *TokenManager) CustomerID(token string) (int64, error) {
	u, err := m.User(token, domain.RoleCustomer)
	if err != nil {
		return 0, err
	}
	return u.ID, nil
}

// IsAuthError reports whether err came from token verification.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrInvalidToken) || errors.Is(err, ErrWrongRole)
}
