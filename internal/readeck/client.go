// Package readeck is a minimal client for the Readeck REST API: token
// exchange, bookmark creation/lookup, and article markdown retrieval.
package readeck

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

// ErrTokenMissing is returned when the auth endpoint answers 2xx but the
// body carries no token. The account exists; re-registering won't help.
var ErrTokenMissing = errors.New("auth response missing token")

// ErrMissingBookmarkID is returned when bookmark creation is accepted but
// the Bookmark-Id header is absent, so the new bookmark cannot be named.
var ErrMissingBookmarkID = errors.New("response missing Bookmark-Id header")

// StatusError reports an unexpected HTTP status from Readeck. Transport
// failures are wrapped plain errors; a StatusError means the backend
// answered and refused.
type StatusError struct {
	Op         string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("readeck %s: unexpected status %d", e.Op, e.StatusCode)
}

// BookmarkRequest is the creation payload. Title and Labels are omitted
// from the body when empty.
type BookmarkRequest struct {
	URL    string   `json:"url"`
	Title  string   `json:"title,omitempty"`
	Labels []string `json:"labels,omitempty"`
}

// Bookmark is the subset of the bookmark record the bot renders.
type Bookmark struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Href  string `json:"href"`
	URL   string `json:"url"`
	Site  string `json:"site"`
}

// Client talks to one Readeck instance.
type Client struct {
	baseURL     string
	application string
	client      *http.Client
	logger      *slog.Logger
}

type Config struct {
	BaseURL     string
	Application string // application name reported on token exchange
	Timeout     time.Duration
	Logger      *slog.Logger
}

func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return NewWithClient(cfg, SharedHTTPClient(cfg.Timeout))
}

// NewWithClient allows substituting the HTTP client (tests).
func NewWithClient(cfg Config, client *http.Client) *Client {
	if cfg.Application == "" {
		cfg.Application = "telegram bot"
	}
	if client == nil {
		client = &http.Client{}
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		application: cfg.Application,
		client:      client,
		logger:      cfg.Logger,
	}
}

// Authenticate exchanges username/password for a bearer token.
func (c *Client) Authenticate(ctx context.Context, username, password string) (string, error) {
	payload := map[string]string{
		"application": c.application,
		"username":    username,
		"password":    password,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/auth", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("auth request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{Op: "auth", StatusCode: resp.StatusCode}
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode auth response: %w", err)
	}
	if out.Token == "" {
		return "", ErrTokenMissing
	}
	return out.Token, nil
}

// CreateBookmark submits a bookmark and returns the backend-assigned ID
// from the Bookmark-Id response header.
func (c *Client) CreateBookmark(ctx context.Context, token string, br BookmarkRequest) (string, error) {
	body, err := json.Marshal(br)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/bookmarks", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	c.setHeaders(req, token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("create bookmark request: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusAccepted {
		return "", &StatusError{Op: "create bookmark", StatusCode: resp.StatusCode}
	}

	id := resp.Header.Get("Bookmark-Id")
	if id == "" {
		return "", ErrMissingBookmarkID
	}
	return id, nil
}

// GetBookmark fetches the materialized record for a bookmark ID.
func (c *Client) GetBookmark(ctx context.Context, token, id string) (*Bookmark, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/api/bookmarks/"+id, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req, token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get bookmark request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Op: "get bookmark", StatusCode: resp.StatusCode}
	}

	var bm Bookmark
	if err := json.NewDecoder(resp.Body).Decode(&bm); err != nil {
		return nil, fmt.Errorf("decode bookmark: %w", err)
	}
	if bm.ID == "" {
		bm.ID = id
	}
	return &bm, nil
}

// ListUnread fetches the user's unarchived bookmarks.
func (c *Client) ListUnread(ctx context.Context, token string) ([]Bookmark, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/api/bookmarks?is_archived=false", nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req, token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list bookmarks request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Op: "list bookmarks", StatusCode: resp.StatusCode}
	}

	var bookmarks []Bookmark
	if err := json.NewDecoder(resp.Body).Decode(&bookmarks); err != nil {
		return nil, fmt.Errorf("decode bookmark list: %w", err)
	}
	return bookmarks, nil
}

// ArticleMarkdown fetches the extracted article text for a bookmark.
func (c *Client) ArticleMarkdown(ctx context.Context, token, id string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/api/bookmarks/"+id+"/article.md", nil)
	if err != nil {
		return "", err
	}
	c.setHeaders(req, token)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("article request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{Op: "article markdown", StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read article body: %w", err)
	}
	return string(data), nil
}

func (c *Client) setHeaders(req *http.Request, token string) {
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
}
