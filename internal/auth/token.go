package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/wayfarer-app/wayfarer/internal/shared"
)

// TokenManager mints and verifies the signed bearer credentials carried by
// clients. Tokens are HS256 JWTs whose subject is the account id.
type TokenManager struct {
	secret []byte
	expiry time.Duration
	issuer string
}

// NewTokenManager constructs a manager with the server secret and the
// configured credential lifetime.
func NewTokenManager(secret string, expiry time.Duration, issuer string) *TokenManager {
	return &TokenManager{secret: []byte(secret), expiry: expiry, issuer: issuer}
}

// Claims are the registered claims carried by a credential.
type Claims struct {
	jwt.RegisteredClaims
}

// Mint creates a signed credential for the account, issued now.
func (m *TokenManager) Mint(accountID int64, now time.Time) (string, error) {
	now = now.UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   strconv.FormatInt(accountID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiry)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Expiry returns the configured credential lifetime.
func (m *TokenManager) Expiry() time.Duration { return m.expiry }

// Verify checks signature and expiry, then returns the embedded account id
// and issued-at timestamp. A structurally broken or badly signed token
// yields ErrInvalidCredential; one past its expiry yields
// ErrExpiredCredential.
func (m *TokenManager) Verify(tokenString string) (int64, time.Time, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, time.Time{}, shared.ErrExpiredCredential
		}
		return 0, time.Time{}, shared.ErrInvalidCredential
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.IssuedAt == nil {
		return 0, time.Time{}, shared.ErrInvalidCredential
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, time.Time{}, shared.ErrInvalidCredential
	}
	return id, claims.IssuedAt.Time, nil
}
