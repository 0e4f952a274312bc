package ics

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	appLog "propcal/internal/log"
)

// Calendar is a subscribed community calendar feed.
type Calendar struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
	URL  string `yaml:"url" json:"url"`
}

// Feed is the body of one calendar, fresh or from the disk cache.
type Feed struct {
	Calendar  Calendar
	Body      []byte
	FromCache bool
}

type cacheMeta struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Fetcher downloads feeds with conditional requests and keeps the last
// good body on disk, so a flaky upstream still yields the previous data.
type Fetcher struct {
	client   *http.Client
	cacheDir string
}

func NewFetcher(cacheDir string, client *http.Client) *Fetcher {
	if cacheDir == "" {
		cacheDir = "./var/ics-cache"
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Fetcher{client: client, cacheDir: cacheDir}
}

// FetchAll fetches every calendar. Failed calendars are logged and
// reported in the error slice; the rest are returned.
func (f *Fetcher) FetchAll(ctx context.Context, cals []Calendar) ([]Feed, []error) {
	feeds := make([]Feed, 0, len(cals))
	var errs []error
	for _, c := range cals {
		feed, err := f.Fetch(ctx, c)
		if err != nil {
			appLog.Error("community calendar fetch failed", err, "calendar", c.ID, "url", redactURL(c.URL))
			errs = append(errs, fmt.Errorf("%s: %w", c.ID, err))
			continue
		}
		feeds = append(feeds, feed)
	}
	return feeds, errs
}

// Fetch downloads one calendar, sending If-None-Match / If-Modified-Since
// from the cache. On 304, non-2xx or network failure it falls back to the
// cached body when there is one.
func (f *Fetcher) Fetch(ctx context.Context, c Calendar) (Feed, error) {
	if c.URL == "" {
		return Feed{}, errors.New("calendar URL is empty")
	}
	dir := f.cacheDirFor(c.URL)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return Feed{}, err
	}

	meta, _ := readMeta(dir)
	cached, _ := os.ReadFile(filepath.Join(dir, "body.ics"))
	fallback := func(reason error) (Feed, error) {
		if len(cached) == 0 {
			return Feed{}, reason
		}
		appLog.Warn("using cached calendar", "calendar", c.ID, "reason", reason)
		return Feed{Calendar: c, Body: cached, FromCache: true}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return Feed{}, err
	}
	if meta.ETag != "" {
		req.Header.Set("If-None-Match", meta.ETag)
	}
	if meta.LastModified != "" {
		req.Header.Set("If-Modified-Since", meta.LastModified)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fallback(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified:
		if len(cached) == 0 {
			return Feed{}, errors.New("304 Not Modified without a cached body")
		}
		appLog.Debug("community calendar not modified", "calendar", c.ID)
		return Feed{Calendar: c, Body: cached, FromCache: true}, nil

	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fallback(err)
		}
		m := cacheMeta{
			URL:          c.URL,
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
		}
		if err := writeCache(dir, m, body); err != nil {
			appLog.Error("calendar cache write failed", err, "calendar", c.ID)
		}
		appLog.Info("community calendar fetched", "calendar", c.ID, "bytes", len(body))
		return Feed{Calendar: c, Body: body}, nil
	}
	return fallback(errors.New(resp.Status))
}

func (f *Fetcher) cacheDirFor(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	return filepath.Join(f.cacheDir, hex.EncodeToString(sum[:8]))
}

func readMeta(dir string) (cacheMeta, error) {
	var m cacheMeta
	b, err := os.ReadFile(filepath.Join(dir, "meta.json"))
	if err != nil {
		return m, err
	}
	err = json.Unmarshal(b, &m)
	return m, err
}

// writeCache writes the body before the metadata so the metadata never
// refers to a missing body.
func writeCache(dir string, m cacheMeta, body []byte) error {
	if err := os.WriteFile(filepath.Join(dir, "body.ics"), body, 0o600); err != nil {
		return err
	}
	m.UpdatedAt = time.Now().UTC()
	b, err := json.MarshalIndent(&m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "meta.json"), b, 0o600)
}

// redactURL keeps only scheme and host; feed URLs often embed tokens.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "ics://...(redacted)"
	}
	return u.Scheme + "://" + u.Host + "/...(redacted)"
}
