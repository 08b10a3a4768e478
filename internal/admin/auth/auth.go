// Package auth issues and validates the admin session tokens.
package auth

import (
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	dErrors "msmeclinic/pkg/domain-errors"

	"msmeclinic/internal/platform/middleware"
)

const adminRole = "admin"

// Authenticator checks the configured admin credentials and mints HS256
// session tokens. There is a single admin identity, configured by environment.
type Authenticator struct {
	email      string
	password   string
	signingKey []byte
	tokenTTL   time.Duration
	clock      func() time.Time
}

// Option configures an Authenticator.
type Option func(*Authenticator)

// WithClock sets the clock function for testability.
func WithClock(clock func() time.Time) Option {
	return func(a *Authenticator) {
		if clock != nil {
			a.clock = clock
		}
	}
}

func New(email, password string, signingKey []byte, tokenTTL time.Duration, opts ...Option) *Authenticator {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	a := &Authenticator{
		email:      email,
		password:   password,
		signingKey: signingKey,
		tokenTTL:   tokenTTL,
		clock:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

type sessionClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Login verifies the credentials and returns a signed token with its expiry.
func (a *Authenticator) Login(email, password string) (string, time.Time, error) {
	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(a.email)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(a.password)) == 1
	if !emailOK || !passOK {
		return "", time.Time{}, dErrors.New(dErrors.CodeUnauthorized, "Invalid email or password")
	}

	now := a.clock()
	expiresAt := now.Add(a.tokenTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		Email: a.email,
		Role:  adminRole,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})

	signed, err := token.SignedString(a.signingKey)
	if err != nil {
		return "", time.Time{}, dErrors.Wrap(dErrors.CodeInternal, "Something went wrong!", err)
	}
	return signed, expiresAt, nil
}

// ValidateToken implements middleware.TokenValidator.
func (a *Authenticator) ValidateToken(tokenString string) (*middleware.AdminClaims, error) {
	var claims sessionClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return a.signingKey, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.clock),
	)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid || claims.Role != adminRole {
		return nil, fmt.Errorf("token rejected")
	}
	return &middleware.AdminClaims{Email: claims.Email, Role: claims.Role}, nil
}
