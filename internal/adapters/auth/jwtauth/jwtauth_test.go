package jwtauth

import (
	"context"
	"testing"
	"time"

	"pdfshare/internal/domain/sharing"
	"pdfshare/internal/ports/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-0123456789"

func TestVerifier_RoundTrip(t *testing.T) {
	v := NewVerifier(testSecret, "pdfshare")

	raw, err := v.SignUser(auth.Claims{UserID: "user-1", Email: "Ana@Example.com", Name: "Ana"}, time.Minute)
	require.NoError(t, err)

	got, err := v.Verify(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, "Ana@Example.com", got.Email)
	assert.Equal(t, "Ana", got.Name)
}

func TestVerifier_Rejects(t *testing.T) {
	v := NewVerifier(testSecret, "pdfshare")
	ctx := context.Background()

	_, err := v.Verify(ctx, "   ")
	assert.ErrorIs(t, err, ErrTokenEmpty)

	other := NewVerifier("another-secret", "pdfshare")
	raw, err := other.SignUser(auth.Claims{UserID: "user-1"}, time.Minute)
	require.NoError(t, err)
	_, err = v.Verify(ctx, raw)
	assert.Error(t, err, "firma con otro secreto")

	wrongIss := NewVerifier(testSecret, "someone-else")
	raw, err = wrongIss.SignUser(auth.Claims{UserID: "user-1"}, time.Minute)
	require.NoError(t, err)
	_, err = v.Verify(ctx, raw)
	assert.Error(t, err, "issuer distinto")

	raw, err = v.SignUser(auth.Claims{UserID: "user-1"}, -time.Minute)
	require.NoError(t, err)
	_, err = v.Verify(ctx, raw)
	assert.Error(t, err, "token vencido")

	raw, err = v.SignUser(auth.Claims{UserID: " "}, time.Minute)
	require.NoError(t, err)
	_, err = v.Verify(ctx, raw)
	assert.Error(t, err, "sin subject")

	_, err = NewVerifier("", "").Verify(ctx, "x")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestSession_IssueParse(t *testing.T) {
	m := NewSessionManager(testSecret, "pdfshare", 10*time.Minute)
	ctx := context.Background()

	raw, issued, err := m.Issue(ctx, sharing.SessionClaims{
		ID:          "access-1",
		DocumentID:  "doc-1",
		TokenHash:   "abc123",
		Email:       "bob@example.com",
		Permissions: sharing.PermissionSet{CanView: true, CanDownload: true},
	})
	require.NoError(t, err)
	assert.False(t, issued.ExpiresAt.IsZero())

	got, err := m.Parse(ctx, raw)
	require.NoError(t, err)
	assert.Equal(t, "access-1", got.ID)
	assert.Equal(t, "doc-1", got.DocumentID)
	assert.Equal(t, "abc123", got.TokenHash)
	assert.Equal(t, "bob@example.com", got.Email)
	assert.Equal(t, sharing.PermissionSet{CanView: true, CanDownload: true}, got.Permissions)
	assert.True(t, got.ExpiresAt.Equal(issued.ExpiresAt))
}

func TestSession_GeneratesID(t *testing.T) {
	m := NewSessionManager(testSecret, "", 0)
	_, issued, err := m.Issue(context.Background(), sharing.SessionClaims{DocumentID: "doc-1", TokenHash: "h"})
	require.NoError(t, err)
	assert.NotEmpty(t, issued.ID)

	_, _, err = m.Issue(context.Background(), sharing.SessionClaims{DocumentID: "doc-1"})
	assert.Error(t, err)
}

func TestSession_Expires(t *testing.T) {
	m := NewSessionManager(testSecret, "pdfshare", time.Minute)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	raw, _, err := m.Issue(context.Background(), sharing.SessionClaims{DocumentID: "doc-1", TokenHash: "h"})
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = m.Parse(context.Background(), raw)
	assert.Error(t, err)
}

func TestSession_NotInterchangeableWithUserTokens(t *testing.T) {
	ctx := context.Background()
	v := NewVerifier(testSecret, "pdfshare")
	m := NewSessionManager(testSecret, "pdfshare", time.Minute)

	userRaw, err := v.SignUser(auth.Claims{UserID: "user-1"}, time.Minute)
	require.NoError(t, err)
	_, err = m.Parse(ctx, userRaw)
	assert.Error(t, err, "un bearer de usuario no es una sesión")

	sessRaw, _, err := m.Issue(ctx, sharing.SessionClaims{DocumentID: "doc-1", TokenHash: "h"})
	require.NoError(t, err)
	_, err = v.Verify(ctx, sessRaw)
	assert.Error(t, err, "una sesión no es un bearer de usuario")
}
