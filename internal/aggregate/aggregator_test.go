package aggregate

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/world-intel/internal/domain"
	"github.com/jonesrussell/world-intel/internal/feed"
	"github.com/jonesrussell/world-intel/internal/kv"
	"github.com/jonesrussell/world-intel/internal/logger"
)

var testNow = time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

func rssDoc(entries ...string) string {
	doc := "<rss version=\"2.0\"><channel>"
	for _, e := range entries {
		doc += e
	}
	return doc + "</channel></rss>"
}

func rssItem(title, link string, age time.Duration) string {
	pub := testNow.Add(-age).Format(time.RFC1123Z)
	return fmt.Sprintf(
		"<item><title>%s</title><link>%s</link><pubDate>%s</pubDate></item>",
		title, link, pub,
	)
}

// newTestAggregator wires an aggregator whose registry points at the given
// payload servers.
func newTestAggregator(t *testing.T, store kv.Store, payloads map[string]string) *Aggregator {
	t.Helper()

	var srcs []domain.FeedSource
	for name, payload := range payloads {
		payload := payload
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(payload))
		}))
		t.Cleanup(server.Close)
		srcs = append(srcs, domain.FeedSource{Src: name, URL: server.URL, Weight: 0.8, Region: "Global"})
	}

	fetcher := feed.NewFetcher(time.Second, 1, logger.Nop())
	agg := New(fetcher, store, Config{}, logger.Nop())
	agg.SetClock(func() time.Time { return testNow })
	agg.SetSources(func() []domain.FeedSource { return srcs })
	return agg
}

func TestItemsEndToEnd(t *testing.T) {
	agg := newTestAggregator(t, kv.NewMemoryStore(), map[string]string{
		"wire-a": rssDoc(
			rssItem("Cyber ransomware attack on hospital network", "https://a.example/1", time.Hour),
			rssItem("Old story far outside the window", "https://a.example/2", 60*time.Hour),
		),
	})

	items := agg.Items(context.Background(), 24, 10)

	require.Len(t, items, 1)
	assert.Equal(t, "Cyber ransomware attack on hospital network", items[0].Title)
	for _, it := range items {
		assert.GreaterOrEqual(t, it.Score, 0.0)
		assert.LessOrEqual(t, it.Score, 1.0)
		assert.LessOrEqual(t, it.AgeH, 24.0)
	}
}

func TestItemsEmptyFeedIsNotAnError(t *testing.T) {
	agg := newTestAggregator(t, kv.NewMemoryStore(), map[string]string{
		"empty-wire": rssDoc(),
	})

	items := agg.Items(context.Background(), 24, 10)
	assert.Empty(t, items)
}

func TestItemsOneFeedDownOthersPopulate(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(down.Close)

	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(rssDoc(rssItem("Flood displaces thousands downstream", "https://b.example/1", time.Hour))))
	}))
	t.Cleanup(healthy.Close)

	fetcher := feed.NewFetcher(500*time.Millisecond, 1, logger.Nop())
	agg := New(fetcher, kv.NewMemoryStore(), Config{}, logger.Nop())
	agg.SetClock(func() time.Time { return testNow })
	agg.SetSources(func() []domain.FeedSource {
		return []domain.FeedSource{
			{Src: "down-wire", URL: down.URL, Weight: 0.8, Region: "Global"},
			{Src: "ok-wire", URL: healthy.URL, Weight: 0.8, Region: "Global"},
		}
	})

	items := agg.Items(context.Background(), 24, 10)
	require.Len(t, items, 1)
	assert.Equal(t, "ok-wire", items[0].Src)
}

func TestClustersCorroboration(t *testing.T) {
	agg := newTestAggregator(t, kv.NewMemoryStore(), map[string]string{
		"wire-a": rssDoc(rssItem("China launches new satellite", "https://a.example/sat", time.Hour)),
		"wire-b": rssDoc(rssItem("Beijing Launches New Satellite for Observation", "https://b.example/sat", 2*time.Hour)),
	})

	clusters := agg.Clusters(context.Background(), 24, 10, 1)

	require.Len(t, clusters, 1)
	c := clusters[0]
	assert.Len(t, c.Sources, 2)
	assert.Contains(t, c.Tags, "PRC/China")
	assert.Contains(t, c.Tags, "Space/EO")
	assert.Contains(t, c.Geos, "Asia")
	assert.LessOrEqual(t, c.FirstSeenTs, c.LastSeenTs)
}

func TestClustersMinSources(t *testing.T) {
	agg := newTestAggregator(t, kv.NewMemoryStore(), map[string]string{
		"wire-a": rssDoc(
			rssItem("China launches new satellite", "https://a.example/sat", time.Hour),
			rssItem("Completely unrelated harvest report published", "https://a.example/crop", time.Hour),
		),
		"wire-b": rssDoc(rssItem("Beijing Launches New Satellite for Observation", "https://b.example/sat", 2*time.Hour)),
	})

	all := agg.Clusters(context.Background(), 24, 10, 1)
	corroborated := agg.Clusters(context.Background(), 24, 10, 2)

	assert.Len(t, all, 2)
	require.Len(t, corroborated, 1)
	assert.Len(t, corroborated[0].Sources, 2)
}

func TestSearchMatchesAllTokens(t *testing.T) {
	agg := newTestAggregator(t, kv.NewMemoryStore(), map[string]string{
		"wire-a": rssDoc(
			rssItem("Cyber ransomware gang extorts utility", "https://a.example/1", time.Hour),
			rssItem("Cyber briefing for policy makers", "https://a.example/2", time.Hour),
			rssItem("Harvest festival opens in the valley", "https://a.example/3", time.Hour),
		),
	})

	hits := agg.Search(context.Background(), "cyber ransomware", 48, 60)

	require.Len(t, hits, 1)
	assert.Contains(t, hits[0].Title, "ransomware")
}

func TestSearchMatchesTagHaystack(t *testing.T) {
	agg := newTestAggregator(t, kv.NewMemoryStore(), map[string]string{
		"wire-a": rssDoc(rssItem("Hackers breach registry with malware", "https://a.example/1", time.Hour)),
	})

	// "cyber" only appears as a tag, not in the text.
	hits := agg.Search(context.Background(), "cyber", 48, 60)
	require.Len(t, hits, 1)
}

func TestFirstSeenRecordsWritten(t *testing.T) {
	store := kv.NewMemoryStore()
	agg := newTestAggregator(t, store, map[string]string{
		"wire-a": rssDoc(rssItem("Quake shakes the capital region", "https://a.example/q", time.Hour)),
	})

	agg.Items(context.Background(), 24, 10)

	keys, err := store.List(context.Background(), "item:")
	require.NoError(t, err)
	require.Len(t, keys, 1)

	val, err := store.Get(context.Background(), keys[0])
	require.NoError(t, err)
	assert.Contains(t, string(val), "https://a.example/q")
}

func TestClusterMemoryWritten(t *testing.T) {
	store := kv.NewMemoryStore()
	agg := newTestAggregator(t, store, map[string]string{
		"wire-a": rssDoc(rssItem("Quake shakes the capital region", "https://a.example/q", time.Hour)),
	})

	agg.Clusters(context.Background(), 24, 10, 1)

	keys, err := store.List(context.Background(), "cluster:")
	require.NoError(t, err)
	assert.Len(t, keys, 1)
}

func TestItemHashStable(t *testing.T) {
	item := domain.ScoredItem{Link: "https://example.com/very/long/url"}
	assert.Equal(t, ItemHash(item), ItemHash(item))
	assert.NotEqual(t, ItemHash(item), ItemHash(domain.ScoredItem{Link: "https://example.com/other"}))
	// Hashes are fixed-width regardless of URL length.
	assert.Len(t, ItemHash(item), 43)
}
