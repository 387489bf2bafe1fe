// Package titlefetch looks up a page title for a URL so bookmarks can be
// saved without typing one. Lookups are best effort: anything short of an
// invalid URL yields at least the hostname.
package titlefetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	domainerrors "github.com/smartbookmarks/smartbookmarks/internal/errors"
	"github.com/smartbookmarks/smartbookmarks/internal/metrics"
	"github.com/smartbookmarks/smartbookmarks/internal/ratelimit"
	"github.com/sony/gobreaker"
)

// Source says where a title came from.
type Source string

const (
	SourceFetched  Source = "fetched"
	SourceFallback Source = "fallback"
)

// Result is a title lookup outcome.
type Result struct {
	Title  string `json:"title"`
	Source Source `json:"source"`
}

// Defaults.
const (
	DefaultTimeout      = 5 * time.Second
	DefaultMaxBodyBytes = 1 << 20
	acceptHeader        = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
)

// Options configures a Fetcher.
type Options struct {
	Timeout      time.Duration
	UserAgent    string
	MaxBodyBytes int64
	HTTPClient   *http.Client
}

// statusError is a non-2xx response. It does not count against the host's breaker.
type statusError struct{ code int }

func (e *statusError) Error() string { return fmt.Sprintf("unexpected status %d", e.code) }

// Fetcher retrieves and caches page titles. Requests to a host are paced by
// the limiter and guarded by a per-host circuit breaker.
type Fetcher struct {
	opts    Options
	client  *http.Client
	cache   Cache
	limiter *ratelimit.KeyedRateLimiter
	metrics *metrics.Collector
	logger  *slog.Logger

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// New creates a Fetcher. cache, limiter and m may be nil.
func New(opts Options, cache Cache, limiter *ratelimit.KeyedRateLimiter, m *metrics.Collector, logger *slog.Logger) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	if cache == nil {
		cache = NewMemoryCache()
	}
	return &Fetcher{
		opts:     opts,
		client:   client,
		cache:    cache,
		limiter:  limiter,
		metrics:  m,
		logger:   logger,
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

// ParseURL validates raw as an absolute http(s) URL.
func ParseURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, domainerrors.Validation("URL is required")
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, domainerrors.Validation("Invalid URL format")
	}
	return u, nil
}

// Fetch returns the page title for raw. The only error is an invalid URL;
// network failures, bad statuses and title-less pages fall back to the hostname.
func (f *Fetcher) Fetch(ctx context.Context, raw string) (Result, error) {
	u, err := ParseURL(raw)
	if err != nil {
		return Result{}, err
	}
	key := u.String()
	fallback := Result{Title: Truncate(Hostname(u)), Source: SourceFallback}

	if r, ok := f.cache.Get(key); ok {
		f.metrics.TitleCache(true)
		return r, nil
	}
	f.metrics.TitleCache(false)

	ctx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	host := u.Hostname()
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, host); err != nil {
			f.logger.Debug("title fetch rate limited", "host", host, "error", err)
			f.metrics.TitleFetch(string(SourceFallback))
			return fallback, nil
		}
	}

	out, err := f.breaker(host).Execute(func() (any, error) {
		return f.get(ctx, u)
	})
	if err != nil {
		f.logger.Debug("title fetch failed", "url", key, "error", err)
		f.metrics.TitleFetch(string(SourceFallback))
		return fallback, nil
	}

	title, _ := out.(string)
	if title == "" {
		f.metrics.TitleFetch(string(SourceFallback))
		return fallback, nil
	}

	r := Result{Title: Truncate(title), Source: SourceFetched}
	f.cache.Set(key, r)
	f.metrics.TitleFetch(string(SourceFetched))
	return r, nil
}

func (f *Fetcher) get(ctx context.Context, u *url.URL) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", err
	}
	if f.opts.UserAgent != "" {
		req.Header.Set("User-Agent", f.opts.UserAgent)
	}
	req.Header.Set("Accept", acceptHeader)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &statusError{code: resp.StatusCode}
	}

	return ExtractTitle(io.LimitReader(resp.Body, f.opts.MaxBodyBytes)), nil
}

func (f *Fetcher) breaker(host string) *gobreaker.CircuitBreaker {
	f.mu.Lock()
	defer f.mu.Unlock()

	if cb, ok := f.breakers[host]; ok {
		return cb
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     host,
		Interval: time.Minute,
		Timeout:  30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			var se *statusError
			return err == nil || errors.As(err, &se)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			f.logger.Info("title fetch breaker state changed",
				"host", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})
	f.breakers[host] = cb
	return cb
}

// Close releases the cache.
func (f *Fetcher) Close() error {
	return f.cache.Close()
}
