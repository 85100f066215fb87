// Package aggregate orchestrates the intel pipeline: fetch every feed,
// parse, score, cluster, and remember first sightings in the KV store.
package aggregate

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"

	"github.com/jonesrussell/world-intel/internal/cluster"
	"github.com/jonesrussell/world-intel/internal/domain"
	"github.com/jonesrussell/world-intel/internal/feed"
	"github.com/jonesrussell/world-intel/internal/kv"
	"github.com/jonesrussell/world-intel/internal/logger"
	"github.com/jonesrussell/world-intel/internal/metrics"
	"github.com/jonesrussell/world-intel/internal/score"
	"github.com/jonesrussell/world-intel/internal/sources"
)

const (
	firstSeenPrefix = "item:"
	clusterPrefix   = "cluster:"

	// clusterHeadroom lets the clusterer see more items than the final
	// limit so near-duplicates across the cut line still merge.
	clusterHeadroom = 2
)

// Config holds aggregator tunables.
type Config struct {
	MaxPerSource int
	FirstSeenTTL time.Duration
	ClusterTTL   time.Duration
}

// Aggregator owns the in-flight item and cluster windows for a request.
type Aggregator struct {
	fetcher *feed.Fetcher
	store   kv.Store
	cfg     Config
	logger  logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
	sources func() []domain.FeedSource
}

// New creates an Aggregator.
func New(fetcher *feed.Fetcher, store kv.Store, cfg Config, log logger.Logger) *Aggregator {
	if cfg.MaxPerSource <= 0 {
		cfg.MaxPerSource = feed.MaxPerSource
	}
	if cfg.FirstSeenTTL <= 0 {
		cfg.FirstSeenTTL = 7 * 24 * time.Hour
	}
	if cfg.ClusterTTL <= 0 {
		cfg.ClusterTTL = 7 * 24 * time.Hour
	}
	return &Aggregator{
		fetcher: fetcher,
		store:   store,
		cfg:     cfg,
		logger:  log,
		now:     time.Now,
		sources: sources.List,
	}
}

// SetMetrics enables feed fetch metrics.
func (a *Aggregator) SetMetrics(m *metrics.Metrics) { a.metrics = m }

// SetClock overrides the time source, for tests.
func (a *Aggregator) SetClock(now func() time.Time) { a.now = now }

// SetSources overrides the feed registry, for tests.
func (a *Aggregator) SetSources(list func() []domain.FeedSource) { a.sources = list }

// Items fetches all feeds and returns the scored window: score descending,
// ageH <= sinceHours, at most limit items. Individual feed failures
// contribute nothing and never fail the batch.
func (a *Aggregator) Items(ctx context.Context, sinceHours float64, limit int) []domain.ScoredItem {
	raw := a.collect(ctx)
	items := score.Window(raw, a.now(), sinceHours, limit)
	a.rememberItems(ctx, items)
	return items
}

// Clusters builds story clusters over the scored window. The clusterer gets
// 2*limit of headroom; the output is truncated to limit and filtered to
// clusters with at least minSources distinct sources.
func (a *Aggregator) Clusters(ctx context.Context, sinceHours float64, limit, minSources int) []domain.Cluster {
	raw := a.collect(ctx)
	items := score.Window(raw, a.now(), sinceHours, limit*clusterHeadroom)
	a.rememberItems(ctx, items)

	clusters := cluster.Build(items)
	clusters = filterMinSources(clusters, minSources)
	if limit > 0 && len(clusters) > limit {
		clusters = clusters[:limit]
	}

	a.rememberClusters(ctx, clusters)
	return clusters
}

// Search filters the recent window: an item matches iff every whitespace-
// separated query token is a substring of its lowercase haystack
// (title + description + tags + geos).
func (a *Aggregator) Search(ctx context.Context, query string, sinceHours float64, limit int) []domain.ScoredItem {
	items := a.Items(ctx, sinceHours, 0)
	matched := FilterQuery(items, query)
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched
}

// collect fetches and parses every feed concurrently, all-settled.
func (a *Aggregator) collect(ctx context.Context) []domain.RawItem {
	srcs := a.sources()
	results := a.fetcher.FetchAll(ctx, srcs)

	var raw []domain.RawItem
	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			if a.metrics != nil {
				a.metrics.FeedFetch(res.Source.Src, "error")
			}
			a.logger.Warn("feed failed",
				logger.String("src", res.Source.Src),
				logger.Error(res.Err),
			)
			continue
		}
		if a.metrics != nil {
			a.metrics.FeedFetch(res.Source.Src, "ok")
		}
		raw = append(raw, feed.Parse(res.Source, res.Body, a.cfg.MaxPerSource)...)
	}

	a.logger.Info("feeds collected",
		logger.Int("sources", len(srcs)),
		logger.Int("failed", failed),
		logger.Int("items", len(raw)),
	)
	return raw
}

// firstSeenRecord is the KV value for an item's first observation.
type firstSeenRecord struct {
	FirstSeenTs int64  `json:"firstSeenTs"`
	Link        string `json:"link"`
	Title       string `json:"title"`
}

// clusterRecord is the KV value for cluster memory.
type clusterRecord struct {
	Key        string   `json:"key"`
	LastSeenTs int64    `json:"lastSeenTs"`
	Sources    []string `json:"sources"`
	Tags       []string `json:"tags"`
}

// rememberItems records first-seen entries. Writes are idempotent and
// best-effort: an existing record is left alone, failures are logged.
func (a *Aggregator) rememberItems(ctx context.Context, items []domain.ScoredItem) {
	now := a.now().UnixMilli()

	for _, item := range items {
		key := firstSeenPrefix + ItemHash(item)

		if _, err := a.store.Get(ctx, key); err == nil {
			continue
		} else if !errors.Is(err, kv.ErrNotFound) {
			a.logger.Warn("first-seen read failed", logger.String("key", key), logger.Error(err))
			continue
		}

		payload, err := json.Marshal(firstSeenRecord{FirstSeenTs: now, Link: item.Link, Title: item.Title})
		if err != nil {
			continue
		}
		if err := a.store.Put(ctx, key, payload, a.cfg.FirstSeenTTL); err != nil {
			a.logger.Warn("first-seen write failed", logger.String("key", key), logger.Error(err))
		}
	}
}

// rememberClusters refreshes cluster memory, best-effort.
func (a *Aggregator) rememberClusters(ctx context.Context, clusters []domain.Cluster) {
	for _, c := range clusters {
		key := clusterPrefix + c.Key

		payload, err := json.Marshal(clusterRecord{
			Key:        c.Key,
			LastSeenTs: c.LastSeenTs,
			Sources:    c.Sources,
			Tags:       c.Tags,
		})
		if err != nil {
			continue
		}
		if err := a.store.Put(ctx, key, payload, a.cfg.ClusterTTL); err != nil {
			a.logger.Warn("cluster memory write failed", logger.String("key", key), logger.Error(err))
		}
	}
}

// ItemHash is the content-hashed item identity: base64url SHA-256 of the
// link, falling back to key then title. Long URLs never truncate into
// colliding keys.
func ItemHash(item domain.ScoredItem) string {
	id := item.Link
	if id == "" {
		id = item.Key
	}
	if id == "" {
		id = item.Title
	}
	sum := sha256.Sum256([]byte(id))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func filterMinSources(clusters []domain.Cluster, minSources int) []domain.Cluster {
	if minSources <= 1 {
		return clusters
	}
	out := clusters[:0]
	for _, c := range clusters {
		if len(c.Sources) >= minSources {
			out = append(out, c)
		}
	}
	return out
}
