// Package enrich runs the AI enrichment pipeline over scored items: language
// detection, translation, zero-shot topic classification, summarisation,
// sentiment and named-entity recognition via the Hugging Face Inference API.
package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jonesrussell/world-intel/internal/logger"
	"github.com/jonesrussell/world-intel/internal/retry"
)

const (
	inferenceBaseURL = "https://api-inference.huggingface.co/models/"

	maxCallAttempts = 4
	backoffBase     = 1000 * time.Millisecond
	backoffMax      = 8000 * time.Millisecond
	backoffJitter   = 200 * time.Millisecond

	maxResponseBytes = 1 << 20
)

// StatusError carries the upstream HTTP status so callers can branch on
// auth failures versus transient ones.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned %d: %s", e.Code, truncate(e.Body, 200))
}

// IsAuthError reports whether the upstream rejected the credential.
func (e *StatusError) IsAuthError() bool {
	return e.Code == http.StatusUnauthorized || e.Code == http.StatusForbidden
}

func (e *StatusError) retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// Client calls Hugging Face inference models with credential rotation and
// backoff. Transient failures (429, 5xx, transport errors) retry through
// the pool; 401/403 fail fast with the error preserved.
type Client struct {
	http         *http.Client
	pool         *TokenPool
	useEndpoints bool
	baseURL      string
	logger       logger.Logger
}

// NewClient creates a Client over the given credential pool. When
// useEndpoints is true, model identifiers are treated as full URLs.
func NewClient(pool *TokenPool, useEndpoints bool, taskTimeout time.Duration, log logger.Logger) *Client {
	if taskTimeout <= 0 {
		taskTimeout = 8 * time.Second
	}
	return &Client{
		http:         &http.Client{Timeout: taskTimeout},
		pool:         pool,
		useEndpoints: useEndpoints,
		baseURL:      inferenceBaseURL,
		logger:       log,
	}
}

// SetBaseURL overrides the inference base URL, for tests.
func (c *Client) SetBaseURL(base string) {
	c.baseURL = base
}

// Call posts payload to the given model and returns the raw response body.
func (c *Client) Call(ctx context.Context, model string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	url := c.baseURL + model
	if c.useEndpoints && (strings.HasPrefix(model, "http://") || strings.HasPrefix(model, "https://")) {
		url = model
	}

	var out []byte
	err = retry.Do(ctx, retry.Config{
		MaxAttempts: maxCallAttempts,
		Backoff:     retry.Exponential(backoffBase, backoffMax, backoffJitter),
		IsRetryable: func(err error) bool {
			var statusErr *StatusError
			if errors.As(err, &statusErr) {
				return statusErr.retryable()
			}
			// Transport-level failures are worth another credential.
			return true
		},
	}, func(attempt int) error {
		token := c.pool.Next()
		resp, callErr := c.doCall(ctx, url, body, token)
		if callErr != nil {
			return callErr
		}
		out = resp
		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (c *Client) doCall(ctx context.Context, url string, body []byte, token string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode, Body: string(respBody)}
	}

	return respBody, nil
}
