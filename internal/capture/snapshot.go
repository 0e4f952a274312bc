// Package capture renders the printable schedule page to a PNG with a
// headless Chromium, for the daily schedule snapshot.
package capture

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/chromedp/chromedp"

	appLog "propcal/internal/log"
)

const (
	DefaultWidth   = 1280
	DefaultHeight  = 1600
	DefaultTimeout = 30 * time.Second

	// ReadySelector is set by the calendar page once its grid is rendered.
	ReadySelector = `[data-ready="true"]`
)

// Options describes one snapshot of /calendar.
type Options struct {
	BaseURL string // e.g. http://127.0.0.1:8080
	Date    string // YYYY-MM-DD; empty means the server's today
	Span    string // day, 3day, week, month; empty means day
	Token   string // API token, sent as the token query parameter

	Width   int
	Height  int
	Timeout time.Duration

	ExecPath  string // Chromium binary; empty lets chromedp look it up
	NoSandbox bool
}

func (o Options) normalized() (Options, error) {
	if o.BaseURL == "" {
		return o, errors.New("capture: base URL is required")
	}
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	return o, nil
}

// PageURL is the calendar page the snapshot loads.
func (o Options) PageURL() (string, error) {
	u, err := url.Parse(o.BaseURL)
	if err != nil {
		return "", fmt.Errorf("capture: base URL: %w", err)
	}
	u = u.JoinPath("calendar")
	q := u.Query()
	if o.Date != "" {
		q.Set("date", o.Date)
	}
	if o.Span != "" {
		q.Set("view", o.Span)
	}
	if o.Token != "" {
		q.Set("token", o.Token)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Snapshot loads the calendar page, waits for ReadySelector and returns a
// full-page PNG.
func Snapshot(parent context.Context, opts Options) ([]byte, error) {
	opts, err := opts.normalized()
	if err != nil {
		return nil, err
	}
	page, err := opts.PageURL()
	if err != nil {
		return nil, err
	}

	allocOpts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}
	if opts.NoSandbox {
		allocOpts = append(allocOpts, chromedp.NoSandbox)
	}
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, allocOpts...)
	defer cancelAlloc()

	ctx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, opts.Timeout)
	defer cancelTimeout()

	var png []byte
	err = chromedp.Run(ctx,
		chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height)),
		chromedp.Navigate(page),
		chromedp.WaitVisible(ReadySelector, chromedp.ByQuery),
		chromedp.FullScreenshot(&png, 100),
	)
	if err != nil {
		return nil, fmt.Errorf("capture: %s: %w", page, err)
	}
	appLog.Info("schedule snapshot captured", "url", page, "bytes", len(png))
	return png, nil
}

// SnapshotToFile is Snapshot followed by a write to path.
func SnapshotToFile(ctx context.Context, opts Options, path string) error {
	if path == "" {
		return errors.New("capture: output path is required")
	}
	png, err := Snapshot(ctx, opts)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return fmt.Errorf("capture: write %s: %w", path, err)
	}
	return nil
}
