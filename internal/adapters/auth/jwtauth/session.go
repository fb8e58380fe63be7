package jwtauth

import (
	"context"
	"errors"
	"strings"
	"time"

	"pdfshare/internal/domain/sharing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const DefaultSessionTTL = 30 * time.Minute

// audiencia fija para que un token de usuario no sirva como sesión de link
const sessionAudience = "share-session"

type sessionClaims struct {
	DocumentID  string `json:"doc"`
	TokenHash   string `json:"th"`
	Email       string `json:"email,omitempty"`
	CanView     bool   `json:"v"`
	CanComment  bool   `json:"c"`
	CanDownload bool   `json:"d"`
	jwt.RegisteredClaims
}

// SessionManager implementa sharing.SessionTokens con JWT HS256.
type SessionManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

var _ sharing.SessionTokens = (*SessionManager)(nil)

func NewSessionManager(secret, issuer string, ttl time.Duration) *SessionManager {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionManager{secret: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}
}

// Issue firma la sesión. Si c.ID viene vacío se genera un jti nuevo.
func (m *SessionManager) Issue(_ context.Context, c sharing.SessionClaims) (string, sharing.SessionClaims, error) {
	if len(m.secret) == 0 {
		return "", sharing.SessionClaims{}, ErrNotConfigured
	}
	if strings.TrimSpace(c.DocumentID) == "" || strings.TrimSpace(c.TokenHash) == "" {
		return "", sharing.SessionClaims{}, errors.New("session requires document and token hash")
	}

	now := m.now().UTC()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	exp := now.Add(m.ttl)

	cl := sessionClaims{
		DocumentID:  c.DocumentID,
		TokenHash:   c.TokenHash,
		Email:       c.Email,
		CanView:     c.Permissions.CanView,
		CanComment:  c.Permissions.CanComment,
		CanDownload: c.Permissions.CanDownload,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   c.DocumentID,
			Audience:  jwt.ClaimStrings{sessionAudience},
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        c.ID,
		},
	}

	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, cl).SignedString(m.secret)
	if err != nil {
		return "", sharing.SessionClaims{}, err
	}

	// NumericDate trunca a segundos
	c.ExpiresAt = cl.ExpiresAt.Time
	return raw, c, nil
}

// Parse valida firma, audiencia y vencimiento.
func (m *SessionManager) Parse(_ context.Context, raw string) (sharing.SessionClaims, error) {
	if len(m.secret) == 0 {
		return sharing.SessionClaims{}, ErrNotConfigured
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return sharing.SessionClaims{}, ErrTokenEmpty
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(sessionAudience),
		jwt.WithTimeFunc(m.now),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	var out sessionClaims
	tkn, err := jwt.ParseWithClaims(raw, &out, func(*jwt.Token) (any, error) {
		return m.secret, nil
	}, opts...)
	if err != nil {
		return sharing.SessionClaims{}, err
	}
	if !tkn.Valid {
		return sharing.SessionClaims{}, jwt.ErrTokenInvalidClaims
	}

	var exp time.Time
	if out.ExpiresAt != nil {
		exp = out.ExpiresAt.Time
	}
	return sharing.SessionClaims{
		ID:         out.ID,
		DocumentID: out.DocumentID,
		TokenHash:  out.TokenHash,
		Email:      out.Email,
		Permissions: sharing.PermissionSet{
			CanView:     out.CanView,
			CanComment:  out.CanComment,
			CanDownload: out.CanDownload,
		},
		ExpiresAt: exp,
	}, nil
}
