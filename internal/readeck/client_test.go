package readeck

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	return NewWithClient(Config{BaseURL: srv.URL, Logger: logger}, srv.Client())
}

func TestAuthenticate_Success(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth" || r.Method != "POST" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["username"] != "alice" || body["password"] != "pw" || body["application"] == "" {
			t.Errorf("unexpected payload: %v", body)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"token": "tok-1"})
	})

	token, err := c.Authenticate(context.Background(), "alice", "pw")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if token != "tok-1" {
		t.Errorf("token = %q", token)
	}
}

func TestAuthenticate_TokenMissing(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{})
	})

	_, err := c.Authenticate(context.Background(), "u", "p")
	if !errors.Is(err, ErrTokenMissing) {
		t.Errorf("expected ErrTokenMissing, got %v", err)
	}
}

func TestAuthenticate_NonSuccessStatus(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := c.Authenticate(context.Background(), "u", "p")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusForbidden {
		t.Errorf("status = %d", statusErr.StatusCode)
	}
}

func TestCreateBookmark_ReturnsHeaderID(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("auth header = %q", got)
		}
		var br BookmarkRequest
		if err := json.NewDecoder(r.Body).Decode(&br); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if br.URL != "https://x.com/a" {
			t.Errorf("url = %q", br.URL)
		}
		w.Header().Set("Bookmark-Id", "42")
		w.WriteHeader(http.StatusAccepted)
	})

	id, err := c.CreateBookmark(context.Background(), "tok", BookmarkRequest{URL: "https://x.com/a"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if id != "42" {
		t.Errorf("id = %q", id)
	}
}

func TestCreateBookmark_OmitsEmptyTitleAndLabels(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		var raw map[string]any
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if _, ok := raw["title"]; ok {
			t.Error("title key must be omitted when empty")
		}
		if _, ok := raw["labels"]; ok {
			t.Error("labels key must be omitted when empty")
		}
		w.Header().Set("Bookmark-Id", "1")
		w.WriteHeader(http.StatusAccepted)
	})

	if _, err := c.CreateBookmark(context.Background(), "tok", BookmarkRequest{URL: "https://x.com"}); err != nil {
		t.Fatalf("create: %v", err)
	}
}

func TestCreateBookmark_MissingIDHeader(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	_, err := c.CreateBookmark(context.Background(), "tok", BookmarkRequest{URL: "https://x.com"})
	if !errors.Is(err, ErrMissingBookmarkID) {
		t.Errorf("expected ErrMissingBookmarkID, got %v", err)
	}
}

func TestCreateBookmark_Non202(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.CreateBookmark(context.Background(), "tok", BookmarkRequest{URL: "https://x.com"})
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 StatusError, got %v", err)
	}
}

func TestGetBookmark(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/bookmarks/42" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "42", "title": "Foo", "href": "https://x"})
	})

	bm, err := c.GetBookmark(context.Background(), "tok", "42")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if bm.Title != "Foo" || bm.Href != "https://x" {
		t.Errorf("bookmark = %+v", bm)
	}
}

func TestListUnread(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/bookmarks" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("is_archived"); got != "false" {
			t.Errorf("is_archived = %q", got)
		}
		json.NewEncoder(w).Encode([]map[string]string{
			{"id": "1", "title": "First", "url": "https://x.com/1", "site": "x.com"},
			{"id": "2", "title": "Second", "url": "https://y.com/2", "site": "y.com"},
		})
	})

	bookmarks, err := c.ListUnread(context.Background(), "tok")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(bookmarks) != 2 {
		t.Fatalf("expected 2 bookmarks, got %d", len(bookmarks))
	}
	if bookmarks[0].ID != "1" || bookmarks[0].Site != "x.com" || bookmarks[1].URL != "https://y.com/2" {
		t.Errorf("bookmarks = %+v", bookmarks)
	}
}

func TestListUnread_NonSuccessStatus(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.ListUnread(context.Background(), "tok")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 StatusError, got %v", err)
	}
}

func TestArticleMarkdown(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/bookmarks/42/article.md" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte("# Article\n\nbody"))
	})

	text, err := c.ArticleMarkdown(context.Background(), "tok", "42")
	if err != nil {
		t.Fatalf("article: %v", err)
	}
	if text != "# Article\n\nbody" {
		t.Errorf("text = %q", text)
	}
}

func TestArticleMarkdown_NotFound(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.ArticleMarkdown(context.Background(), "tok", "42")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 StatusError, got %v", err)
	}
}
