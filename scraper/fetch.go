package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/aluiziolira/go-hunt-reports/config"
)

// FetchResult carries a response body together with the metadata
// downstream steps need (Content-Disposition filename hints live in
// Header). Returning it explicitly keeps all response state out of
// hidden side channels.
type FetchResult struct {
	Body       []byte
	StatusCode int
	Header     http.Header
}

// Fetch error categories, also used as metric labels.
const (
	CategoryTimeout     = "timeout"
	CategoryConnection  = "connection"
	CategoryForbidden   = "forbidden"
	CategoryNotFound    = "not_found"
	CategoryRateLimited = "rate_limited"
	CategoryOther       = "other"
)

// FetchError wraps a failed fetch with its classified category.
type FetchError struct {
	URL      string
	Category string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Category, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Fetcher downloads report files with capped exponential backoff.
// Successful results are kept in a small LRU so a file linked from
// several report pages is fetched once per run.
type Fetcher struct {
	cfg     *config.Config
	client  *http.Client
	metrics *Metrics
	cache   *lru.Cache[string, *FetchResult]
}

// NewFetcher builds a fetcher configured from cfg.
func NewFetcher(cfg *config.Config, metrics *Metrics) (*Fetcher, error) {
	cache, err := lru.New[string, *FetchResult](256)
	if err != nil {
		return nil, fmt.Errorf("create fetch cache: %w", err)
	}

	return &Fetcher{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   cfg.Timeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		metrics: metrics,
		cache:   cache,
	}, nil
}

// Fetch retrieves a URL, retrying transient failures with exponential
// backoff plus a small additive jitter that reduces retry stampedes.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*FetchResult, error) {
	if cached, ok := f.cache.Get(url); ok {
		return cached, nil
	}

	attempts := f.cfg.MaxRetries + 1
	if attempts < 1 {
		attempts = 1
	}

	var lastErr *FetchError
	for attempt := 1; attempt <= attempts; attempt++ {
		result, fetchErr := f.fetchOnce(ctx, url)
		if fetchErr == nil {
			f.cache.Add(url, result)
			return result, nil
		}
		lastErr = fetchErr
		f.metrics.IncError(fetchErr.Category)

		if attempt == attempts || ctx.Err() != nil {
			break
		}
		f.metrics.IncRetries()

		delay := f.backoff(attempt) + time.Duration(attempt)*150*time.Millisecond
		select {
		case <-ctx.Done():
			return nil, &FetchError{URL: url, Category: CategoryTimeout, Err: ctx.Err()}
		case <-time.After(delay):
		}
	}
	return nil, lastErr
}

func (f *Fetcher) fetchOnce(ctx context.Context, url string) (*FetchResult, *FetchError) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Category: CategoryOther, Err: err}
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "*/*")

	start := time.Now()
	f.metrics.IncRequest("started")
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Category: classifyFetchError(err, 0), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	f.metrics.ObserveDuration(time.Since(start))
	if err != nil {
		return nil, &FetchError{URL: url, Category: classifyFetchError(err, resp.StatusCode), Err: err}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		statusErr := fmt.Errorf("http status %d", resp.StatusCode)
		return nil, &FetchError{URL: url, Category: classifyFetchError(nil, resp.StatusCode), Err: statusErr}
	}

	f.metrics.IncRequest("completed")
	return &FetchResult{
		Body:       body,
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
	}, nil
}

func (f *Fetcher) backoff(attempt int) time.Duration {
	if attempt <= 0 {
		attempt = 1
	}

	base := f.cfg.RetryBackoff
	if base <= 0 {
		base = 100 * time.Millisecond
	}

	delay := base * time.Duration(1<<(attempt-1))
	if max := f.cfg.RetryBackoffMax; max > 0 && delay > max {
		delay = max
	}
	return delay
}

func classifyFetchError(err error, statusCode int) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return CategoryTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return CategoryTimeout
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return CategoryConnection
	}

	switch statusCode {
	case http.StatusForbidden:
		return CategoryForbidden
	case http.StatusNotFound:
		return CategoryNotFound
	case http.StatusTooManyRequests:
		return CategoryRateLimited
	}
	return CategoryOther
}
