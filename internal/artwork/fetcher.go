// Package artwork downloads track artwork and renders now-playing cards.
package artwork

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	_maxImageSize        = 10 * 1024 * 1024 // 10 MB
	_defaultFetchTimeout = 10 * time.Second
)

// ErrTooLarge is returned for artwork above the 10 MB limit.
var ErrTooLarge = errors.New("artwork too large")

// FetchError describes a failed artwork download.
type FetchError struct {
	URL string
	// Status is the HTTP status, or 0 when no response was received.
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch artwork %s: status %d: %v", e.URL, e.Status, e.Err)
	}
	return fmt.Sprintf("fetch artwork %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// FetcherOptions configures an HTTPFetcher.
type FetcherOptions struct {
	Timeout   time.Duration
	UserAgent string
	// CacheSize bounds the images kept in memory; 0 disables caching.
	CacheSize int
}

// HTTPFetcher downloads artwork over HTTP(S). Tracks of one album share an
// artwork URL, so recent images are kept and served without a request.
type HTTPFetcher struct {
	logger    *zap.Logger
	client    *http.Client
	userAgent string

	mu       sync.Mutex
	capacity int
	images   map[string][]byte
	order    []string // insertion order, oldest first
}

func NewHTTPFetcher(logger *zap.Logger, opts FetcherOptions) *HTTPFetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = _defaultFetchTimeout
	}
	return &HTTPFetcher{
		logger:    logger,
		client:    &http.Client{Timeout: opts.Timeout},
		userAgent: opts.UserAgent,
		capacity:  max(opts.CacheSize, 0),
		images:    make(map[string][]byte),
	}
}

// Fetch returns the image at rawURL, from the cache when possible. The
// returned slice is shared and must not be modified.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if err := checkURL(rawURL); err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}

	if data, ok := f.cached(rawURL); ok {
		f.logger.Debug("Artwork served from cache", zap.String("url", rawURL))
		return data, nil
	}

	data, err := f.download(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	f.store(rawURL, data)

	f.logger.Debug("Artwork fetched", zap.Int("bytes", len(data)), zap.String("url", rawURL))
	return data, nil
}

func checkURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("missing host")
	}
	return nil
}

func (f *HTTPFetcher) download(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{URL: rawURL, Status: resp.StatusCode, Err: errors.New(http.StatusText(resp.StatusCode))}
	}
	if mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type")); !strings.HasPrefix(mediaType, "image/") {
		return nil, &FetchError{URL: rawURL, Status: resp.StatusCode, Err: fmt.Errorf("not an image: %q", resp.Header.Get("Content-Type"))}
	}

	// A truncated image would fail to decode later on; reject it here.
	data, err := io.ReadAll(io.LimitReader(resp.Body, _maxImageSize+1))
	if err != nil {
		return nil, &FetchError{URL: rawURL, Status: resp.StatusCode, Err: err}
	}
	if len(data) > _maxImageSize {
		return nil, &FetchError{URL: rawURL, Status: resp.StatusCode, Err: ErrTooLarge}
	}
	return data, nil
}

func (f *HTTPFetcher) cached(rawURL string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.images[rawURL]
	return data, ok
}

func (f *HTTPFetcher) store(rawURL string, data []byte) {
	if f.capacity == 0 {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.images[rawURL]; ok {
		return
	}
	for len(f.order) >= f.capacity {
		delete(f.images, f.order[0])
		f.order = f.order[1:]
	}
	f.images[rawURL] = data
	f.order = append(f.order, rawURL)
}
