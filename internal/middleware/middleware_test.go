package middleware

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pdfshare/internal/platform/logger"
	"pdfshare/internal/ports/auth"
	"pdfshare/internal/ports/directory"
)

type fakeVerifier struct{}

func (fakeVerifier) Verify(_ context.Context, token string) (auth.Claims, error) {
	if token == "good" {
		return auth.Claims{UserID: "u-1"}, nil
	}
	return auth.Claims{}, errors.New("bad token")
}

type fakeDirectory map[string]directory.User

func (d fakeDirectory) Lookup(_ context.Context, id string) (directory.User, error) {
	u, ok := d[id]
	if !ok {
		return directory.User{}, directory.ErrUserNotFound
	}
	return u, nil
}

func captureClaims(t *testing.T, mw func(http.Handler) http.Handler, req *http.Request) (auth.Claims, bool) {
	t.Helper()
	var (
		got auth.Claims
		ok  bool
	)
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = GetClaims(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), req)
	return got, ok
}

func TestAuthContext_DevHeaders(t *testing.T) {
	mw := AuthContext(AuthOptions{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderDebugUserID, "dev-1")
	req.Header.Set(HeaderDebugUserEmail, "dev@example.com")
	c, ok := captureClaims(t, mw, req)
	if !ok || c.UserID != "dev-1" || c.Email != "dev@example.com" {
		t.Fatalf("unexpected claims: %+v ok=%v", c, ok)
	}

	_, ok = captureClaims(t, mw, httptest.NewRequest(http.MethodGet, "/", nil))
	if ok {
		t.Fatalf("expected no claims without headers")
	}
}

func TestAuthContext_VerifierAndDirectory(t *testing.T) {
	mw := AuthContext(AuthOptions{
		Verifier:  fakeVerifier{},
		Directory: fakeDirectory{"u-1": {ID: "u-1", Email: "ana@example.com", Name: "Ana"}},
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	c, ok := captureClaims(t, mw, req)
	if !ok || c.Email != "ana@example.com" || c.Name != "Ana" {
		t.Fatalf("expected enriched claims, got %+v ok=%v", c, ok)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer bad")
	if _, ok := captureClaims(t, mw, req); ok {
		t.Fatalf("expected no claims for rejected token")
	}

	// con verifier, los headers de debug se ignoran
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderDebugUserID, "dev-1")
	if _, ok := captureClaims(t, mw, req); ok {
		t.Fatalf("debug header must be ignored when a verifier is set")
	}
}

func TestBearerToken(t *testing.T) {
	cases := map[string]string{
		"":             "",
		"Bearer abc":   "abc",
		"bearer  abc ": "abc",
		"Basic abc":    "",
		"Bearer":       "",
	}
	for in, want := range cases {
		if got := bearerToken(in); got != want {
			t.Fatalf("bearerToken(%q)=%q want %q", in, got, want)
		}
	}
}

func TestRecover_LogsAndReturns500(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Options{Level: logger.Debug, Out: &buf})

	h := Recover(log)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/s/secret-token/content", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	out := buf.String()
	if !strings.Contains(out, "panic recovered") || strings.Contains(out, "secret-token") {
		t.Fatalf("unexpected log: %s", out)
	}
}

func TestAccessLog_RedactsToken(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Options{Level: logger.Info, Out: &buf})

	h := AccessLog(log)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/s/secret-token", nil))

	out := buf.String()
	if strings.Contains(out, "secret-token") || !strings.Contains(out, "path=/s/***") || !strings.Contains(out, "status=418") {
		t.Fatalf("unexpected access log: %s", out)
	}
}
