package jwtauth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pdfshare/internal/ports/auth"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrNotConfigured = errors.New("jwt verifier not configured")
	ErrTokenEmpty    = errors.New("token is empty")
)

// userClaims es el formato de los bearer tokens de usuario (HS256).
type userClaims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Verifier implementa auth.AuthVerifier con tokens HS256 firmados con un secreto compartido.
type Verifier struct {
	secret []byte
	issuer string
}

var _ auth.AuthVerifier = (*Verifier)(nil)

func NewVerifier(secret, issuer string) *Verifier {
	return &Verifier{secret: []byte(secret), issuer: strings.TrimSpace(issuer)}
}

func (v *Verifier) Verify(_ context.Context, token string) (auth.Claims, error) {
	if v == nil || len(v.secret) == 0 {
		return auth.Claims{}, ErrNotConfigured
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, ErrTokenEmpty
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	var out userClaims
	tkn, err := jwt.ParseWithClaims(token, &out, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return auth.Claims{}, fmt.Errorf("jwt verify failed: %w", err)
	}
	if !tkn.Valid {
		return auth.Claims{}, jwt.ErrTokenInvalidClaims
	}

	// una sesión de link no es una identidad de usuario
	for _, aud := range out.Audience {
		if aud == sessionAudience {
			return auth.Claims{}, jwt.ErrTokenInvalidAudience
		}
	}

	sub := strings.TrimSpace(out.Subject)
	if sub == "" {
		return auth.Claims{}, errors.New("jwt claims missing subject")
	}

	return auth.Claims{
		UserID: sub,
		Email:  strings.TrimSpace(out.Email),
		Name:   strings.TrimSpace(out.Name),
	}, nil
}

// SignUser emite un bearer token de usuario. Lo usan tests y herramientas de dev.
func (v *Verifier) SignUser(c auth.Claims, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	cl := userClaims{
		Email: c.Email,
		Name:  c.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    v.issuer,
			Subject:   c.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, cl).SignedString(v.secret)
}
