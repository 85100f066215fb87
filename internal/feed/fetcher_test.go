package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/world-intel/internal/domain"
	"github.com/jonesrussell/world-intel/internal/logger"
)

func TestFetchRetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("<rss></rss>"))
	}))
	defer server.Close()

	f := NewFetcher(2*time.Second, 3, logger.Nop())
	body, err := f.Fetch(context.Background(), domain.FeedSource{Src: "flaky", URL: server.URL})

	require.NoError(t, err)
	assert.Equal(t, "<rss></rss>", string(body))
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchReturnsLastError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	f := NewFetcher(time.Second, 2, logger.Nop())
	_, err := f.Fetch(context.Background(), domain.FeedSource{Src: "down", URL: server.URL})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestFetchAllSettlesIndependently(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<rss><channel></channel></rss>"))
	}))
	defer healthy.Close()

	// Hangs past the per-attempt timeout.
	stalled := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer stalled.Close()

	f := NewFetcher(300*time.Millisecond, 1, logger.Nop())
	results := f.FetchAll(context.Background(), []domain.FeedSource{
		{Src: "ok", URL: healthy.URL},
		{Src: "stalled", URL: stalled.URL},
	})

	require.Len(t, results, 2)
	assert.NoError(t, results[0].Err)
	assert.NotEmpty(t, results[0].Body)
	assert.Error(t, results[1].Err, "a stalled feed fails alone, not the batch")
}

func TestFetchSendsHeaders(t *testing.T) {
	var gotUA, gotAccept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	f := NewFetcher(time.Second, 1, logger.Nop())
	_, err := f.Fetch(context.Background(), domain.FeedSource{Src: "hdr", URL: server.URL})

	require.NoError(t, err)
	assert.Contains(t, gotUA, "world-intel")
	assert.Contains(t, gotAccept, "application/rss+xml")
}
