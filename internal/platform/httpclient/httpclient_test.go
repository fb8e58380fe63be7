package httpclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestDoJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Api-Key") != "k" {
			http.Error(w, "no key", http.StatusUnauthorized)
			return
		}
		var in map[string]string
		_ = json.NewDecoder(r.Body).Decode(&in)
		_ = json.NewEncoder(w).Encode(map[string]string{"echo": in["msg"], "path": r.URL.Path})
	}))
	defer srv.Close()

	c, err := NewWithBaseURL(srv.URL+"/", time.Second)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	c.WithHeader("X-Api-Key", "k")

	var out struct {
		Echo string `json:"echo"`
		Path string `json:"path"`
	}
	if err := c.DoJSON(context.Background(), http.MethodPost, "v1/echo", nil, map[string]string{"msg": "hola"}, &out); err != nil {
		t.Fatalf("DoJSON: %v", err)
	}
	if out.Echo != "hola" || out.Path != "/v1/echo" {
		t.Fatalf("unexpected response: %+v", out)
	}

	// el header por request pisa al default
	err = c.DoJSON(context.Background(), http.MethodGet, "/x", map[string]string{"X-Api-Key": "otra"}, nil, nil)
	if StatusOf(err) != http.StatusUnauthorized {
		t.Fatalf("expected 401 HTTPError, got %v", err)
	}
}

func TestResolveURL(t *testing.T) {
	c := New(0)
	if _, err := c.resolveURL("/rel"); err == nil {
		t.Fatalf("expected error for relative path without BaseURL")
	}
	if u, err := c.resolveURL("https://example.com/a"); err != nil || u != "https://example.com/a" {
		t.Fatalf("absolute url should pass through, got %q %v", u, err)
	}
	if _, err := NewWithBaseURL("not a url", 0); err == nil {
		t.Fatalf("expected invalid base url error")
	}
	if StatusOf(nil) != 0 {
		t.Fatalf("StatusOf(nil) should be 0")
	}
}
