// Package feed fetches and parses upstream RSS, RDF and Atom feeds.
package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/jonesrussell/world-intel/internal/domain"
	"github.com/jonesrussell/world-intel/internal/logger"
	"github.com/jonesrussell/world-intel/internal/retry"
)

const (
	defaultTimeout  = 8 * time.Second
	defaultAttempts = 3

	backoffBase   = 300 * time.Millisecond
	backoffJitter = 200 * time.Millisecond

	maxBodyBytes = 4 << 20

	userAgent    = "world-intel/1.0 (+https://github.com/jonesrussell/world-intel)"
	acceptHeader = "application/rss+xml, application/atom+xml, application/xml, text/xml, */*"

	maxIdleConns        = 100
	maxIdleConnsPerHost = 10
	idleConnTimeout     = 90 * time.Second
	tlsHandshakeTimeout = 10 * time.Second
)

// Fetcher retrieves feed payloads with per-attempt timeouts and retry.
type Fetcher struct {
	client   *http.Client
	timeout  time.Duration
	attempts int
	logger   logger.Logger
}

// Result is the outcome of fetching one source. A batch settles every
// source independently; Err is per-source and never aborts siblings.
type Result struct {
	Source domain.FeedSource
	Body   []byte
	Err    error
}

// NewFetcher creates a Fetcher with a tuned shared transport.
func NewFetcher(timeout time.Duration, attempts int, log logger.Logger) *Fetcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if attempts <= 0 {
		attempts = defaultAttempts
	}

	transport := &http.Transport{
		MaxIdleConns:        maxIdleConns,
		MaxIdleConnsPerHost: maxIdleConnsPerHost,
		IdleConnTimeout:     idleConnTimeout,
		TLSHandshakeTimeout: tlsHandshakeTimeout,
	}

	return &Fetcher{
		client:   &http.Client{Transport: transport},
		timeout:  timeout,
		attempts: attempts,
		logger:   log,
	}
}

// Fetch retrieves one feed. Each attempt carries its own timeout; failed
// attempts back off linearly with jitter. Returns the last error.
func (f *Fetcher) Fetch(ctx context.Context, source domain.FeedSource) ([]byte, error) {
	var body []byte

	err := retry.Do(ctx, retry.Config{
		MaxAttempts: f.attempts,
		Backoff:     retry.Linear(backoffBase, backoffJitter),
	}, func(attempt int) error {
		attemptCtx, cancel := context.WithTimeout(ctx, f.timeout)
		defer cancel()

		payload, fetchErr := f.fetchOnce(attemptCtx, source.URL)
		if fetchErr != nil {
			f.logger.Debug("feed fetch attempt failed",
				logger.String("src", source.Src),
				logger.Int("attempt", attempt),
				logger.Error(fetchErr),
			)
			return fetchErr
		}
		body = payload
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", source.Src, err)
	}

	return body, nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", acceptHeader)
	// Hint for edge caches sitting in front of the feed.
	req.Header.Set("Cache-Control", "max-age=180")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("upstream returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// FetchAll fetches every source concurrently and settles them all. One
// feed's failure never cancels its siblings.
func (f *Fetcher) FetchAll(ctx context.Context, srcs []domain.FeedSource) []Result {
	results := make([]Result, len(srcs))

	var wg sync.WaitGroup
	for i, source := range srcs {
		wg.Add(1)
		go func(i int, source domain.FeedSource) {
			defer wg.Done()
			body, err := f.Fetch(ctx, source)
			results[i] = Result{Source: source, Body: body, Err: err}
		}(i, source)
	}
	wg.Wait()

	return results
}
