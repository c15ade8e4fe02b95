package cache

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"testing"
	"time"
)

func TestHTTPCache_RoundTrip(t *testing.T) {
	t.Parallel()
	c := &HTTPCache{Dir: t.TempDir()}
	url := "https://example.com/article"

	err := c.Save(context.Background(), url, HTTPEntry{
		FinalURL:        "https://example.com/article/latest",
		ContentType:     "text/html; charset=utf-8",
		ContentLanguage: "fi",
		ETag:            `W/"abc"`,
		LastModified:    "Tue, 01 Jul 2025 10:00:00 GMT",
	}, []byte("<html>cached</html>"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	meta, err := c.LoadMeta(context.Background(), url)
	if err != nil {
		t.Fatalf("load meta: %v", err)
	}
	if meta.URL != url {
		t.Fatalf("meta url = %q, want %q", meta.URL, url)
	}
	if meta.FinalURL != "https://example.com/article/latest" {
		t.Fatalf("meta final url = %q", meta.FinalURL)
	}
	if meta.ContentLanguage != "fi" {
		t.Fatalf("meta content language = %q", meta.ContentLanguage)
	}
	if meta.ETag != `W/"abc"` {
		t.Fatalf("meta etag = %q", meta.ETag)
	}
	if meta.SavedAt.IsZero() {
		t.Fatalf("meta saved-at not set")
	}

	body, err := c.LoadBody(context.Background(), url)
	if err != nil {
		t.Fatalf("load body: %v", err)
	}
	if string(body) != "<html>cached</html>" {
		t.Fatalf("body = %q", body)
	}
}

func TestHTTPCache_MissingEntry(t *testing.T) {
	t.Parallel()
	c := &HTTPCache{Dir: t.TempDir()}
	if _, err := c.LoadMeta(context.Background(), "https://example.com/nope"); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not-exist, got %v", err)
	}
	if _, err := c.LoadBody(context.Background(), "https://example.com/nope"); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not-exist, got %v", err)
	}
}

func TestHTTPCache_UnconfiguredDir(t *testing.T) {
	t.Parallel()
	c := &HTTPCache{}
	if err := c.Save(context.Background(), "https://example.com/x", HTTPEntry{}, []byte("x")); err == nil {
		t.Fatalf("expected error for unconfigured cache dir")
	}
}

func TestPurgeHTTPCacheByAge(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	c := &HTTPCache{Dir: dir}
	urls := []string{"https://example.com/old", "https://example.com/fresh"}
	for _, u := range urls {
		if err := c.Save(context.Background(), u, HTTPEntry{ContentType: "text/html"}, []byte("body")); err != nil {
			t.Fatalf("save %s: %v", u, err)
		}
	}

	// Age the first entry past the cutoff by rewriting its metadata.
	stale, err := c.LoadMeta(context.Background(), urls[0])
	if err != nil {
		t.Fatalf("load meta: %v", err)
	}
	stale.SavedAt = time.Now().UTC().Add(-48 * time.Hour)
	raw, err := json.Marshal(stale)
	if err != nil {
		t.Fatalf("marshal meta: %v", err)
	}
	if err := os.WriteFile(c.metaPath(c.key(urls[0])), raw, 0o644); err != nil {
		t.Fatalf("rewrite meta: %v", err)
	}

	removed, err := PurgeHTTPCacheByAge(dir, 24*time.Hour)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if _, err := c.LoadBody(context.Background(), urls[0]); err == nil {
		t.Fatalf("expected expired entry gone")
	}
	if _, err := c.LoadBody(context.Background(), urls[1]); err != nil {
		t.Fatalf("fresh entry must survive: %v", err)
	}
}

func TestPurgeHTTPCacheByAge_Disabled(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	c := &HTTPCache{Dir: dir}
	if err := c.Save(context.Background(), "https://example.com/x", HTTPEntry{}, []byte("b")); err != nil {
		t.Fatalf("save: %v", err)
	}
	removed, err := PurgeHTTPCacheByAge(dir, 0)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if removed != 0 {
		t.Fatalf("expected purge disabled, removed %d", removed)
	}
}

func TestClearDir(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	c := &HTTPCache{Dir: dir}
	if err := c.Save(context.Background(), "https://example.com/x", HTTPEntry{}, []byte("b")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := ClearDir(dir); err != nil {
		t.Fatalf("clear: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty cache dir, found %d entries", len(entries))
	}
	if err := ClearDir("  "); err == nil {
		t.Fatalf("expected error for blank dir")
	}
}
