// Package auth issues and verifies the signed session tokens handed out at
// login.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// TokenTTL is how long an issued token stays valid.
	TokenTTL = time.Hour
	// CookieName is the cookie that carries "Bearer <token>".
	CookieName = "authorization"
	// Scheme prefixes the token in the cookie and the Authorization header.
	Scheme = "Bearer "
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// Claims is the token payload.
type Claims struct {
	jwt.RegisteredClaims
	UserID int `json:"userId"`
}

// Issuer signs and verifies HS256 tokens with one secret fixed at startup.
type Issuer struct {
	secret []byte
	now    func() time.Time
}

// Option configures an Issuer.
type Option func(*Issuer)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) {
		i.now = now
	}
}

func NewIssuer(secret []byte, opts ...Option) (*Issuer, error) {
	if len(secret) == 0 {
		return nil, errors.New("token secret must not be empty")
	}
	i := &Issuer{
		secret: append([]byte(nil), secret...),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// Issue returns a token for userID that expires TokenTTL from now.
func (i *Issuer) Issue(userID int) (string, error) {
	now := i.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
		UserID: userID,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// Verify checks signature, algorithm and expiry and returns the user id the
// token was issued for.
func (i *Issuer) Verify(token string) (int, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)

	var claims Claims
	_, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return i.secret, nil
	})
	if errors.Is(err, jwt.ErrTokenExpired) {
		return 0, ErrExpiredToken
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.UserID <= 0 {
		return 0, fmt.Errorf("%w: missing userId", ErrInvalidToken)
	}
	return claims.UserID, nil
}

// StripScheme removes the "Bearer " prefix. It reports false when the
// prefix is missing or nothing follows it.
func StripScheme(value string) (string, bool) {
	if !strings.HasPrefix(value, Scheme) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(value, Scheme))
	return token, token != ""
}

// CookieValue formats token the way the authorization cookie carries it.
func CookieValue(token string) string {
	return Scheme + token
}
