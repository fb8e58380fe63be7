package httpdir

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pdfshare/internal/platform/httpclient"
	"pdfshare/internal/ports/directory"
)

var (
	ErrNotConfigured = errors.New("directory client not configured")
	ErrUnauthorized  = errors.New("directory unauthorized")
	ErrUpstream      = errors.New("directory upstream error")
)

type Config struct {
	BaseURL string
	APIKey  string

	APIKeyHeader string
	Timeout      time.Duration
}

type Client struct {
	http   *httpclient.Client
	apiKey string
}

func NewClient(cfg Config) (*Client, error) {
	h := strings.TrimSpace(cfg.APIKeyHeader)
	if h == "" {
		h = "X-Api-Key"
	}
	hc, err := httpclient.NewWithBaseURL(strings.TrimSpace(cfg.BaseURL), cfg.Timeout)
	if err != nil {
		return nil, err
	}
	key := strings.TrimSpace(cfg.APIKey)
	return &Client{http: hc.WithHeader(h, key), apiKey: key}, nil
}

func (c *Client) IsConfigured() bool {
	return c != nil && c.http != nil && c.http.BaseURL != "" && c.apiKey != ""
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// GetUser trae un usuario: GET /v1/users/{id}.
func (c *Client) GetUser(ctx context.Context, userID string) (directory.User, error) {
	if !c.IsConfigured() {
		return directory.User{}, ErrNotConfigured
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return directory.User{}, errors.New("userID required")
	}

	var out userResponse
	err := c.http.DoJSON(ctx, http.MethodGet, "/v1/users/"+url.PathEscape(userID), nil, nil, &out)
	if err != nil {
		switch httpclient.StatusOf(err) {
		case http.StatusNotFound:
			return directory.User{}, directory.ErrUserNotFound
		case http.StatusUnauthorized, http.StatusForbidden:
			return directory.User{}, ErrUnauthorized
		}
		return directory.User{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	id := strings.TrimSpace(out.ID)
	if id == "" {
		id = userID
	}
	return directory.User{
		ID:    id,
		Email: strings.TrimSpace(out.Email),
		Name:  strings.TrimSpace(out.Name),
	}, nil
}
