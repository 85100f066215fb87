package enrich

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/world-intel/internal/logger"
)

func TestCallRotatesTokensThroughRateLimits(t *testing.T) {
	var mu sync.Mutex
	var tokens []string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		tokens = append(tokens, strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
		n := len(tokens)
		mu.Unlock()

		if n <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client := NewClient(NewTokenPool([]string{"tok-a", "tok-b"}), false, 2*time.Second, logger.Nop())
	client.SetBaseURL(server.URL + "/models/")

	body, err := client.Call(context.Background(), "some-model", map[string]string{"inputs": "x"})

	require.NoError(t, err, "the call succeeds on the third attempt")
	assert.JSONEq(t, `{"ok":true}`, string(body))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, tokens, 3)
	assert.Equal(t, []string{"tok-a", "tok-b", "tok-a"}, tokens, "credentials rotate in pool order")
}

func TestCallFailsFastOnForbidden(t *testing.T) {
	var calls int
	var mu sync.Mutex
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":"invalid token"}`))
	}))
	defer server.Close()

	client := NewClient(NewTokenPool([]string{"tok-a", "tok-b"}), false, time.Second, logger.Nop())
	client.SetBaseURL(server.URL + "/models/")

	_, err := client.Call(context.Background(), "some-model", map[string]string{"inputs": "x"})

	require.Error(t, err)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.True(t, statusErr.IsAuthError())
	assert.Contains(t, statusErr.Body, "invalid token", "the upstream error is preserved")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls)
}

func TestCallEndpointsModeUsesRawURL(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient(NewTokenPool(nil), true, time.Second, logger.Nop())

	_, err := client.Call(context.Background(), server.URL+"/custom/endpoint", map[string]string{"inputs": "x"})

	require.NoError(t, err)
	assert.Equal(t, "/custom/endpoint", gotPath)
}

func TestTokenPoolRoundRobin(t *testing.T) {
	pool := NewTokenPool([]string{"a", "b", "c"})

	got := []string{pool.Next(), pool.Next(), pool.Next(), pool.Next()}
	assert.Equal(t, []string{"a", "b", "c", "a"}, got)
}

func TestTokenPoolEmpty(t *testing.T) {
	pool := NewTokenPool(nil)
	assert.Equal(t, "", pool.Next())
	assert.Equal(t, 0, pool.Size())
}
