package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/world-intel/internal/aggregate"
	"github.com/jonesrussell/world-intel/internal/cluster"
	"github.com/jonesrussell/world-intel/internal/domain"
	"github.com/jonesrussell/world-intel/internal/logger"
	"github.com/jonesrussell/world-intel/internal/metrics"
	"github.com/jonesrussell/world-intel/internal/signing"
	"github.com/jonesrussell/world-intel/internal/sources"
)

// Route defaults.
const (
	defaultFeedsSinceHours  = 24
	defaultFeedsLimit       = 80
	defaultMinSources       = 1
	defaultEnrichSinceHours = 24
	defaultEnrichLimit      = 40
	defaultSearchSinceHours = 48
	defaultSearchLimit      = 60

	cacheFeedsSeconds   = 120
	cacheSourcesSeconds = 3600
	cacheTopicsSeconds  = 3600
)

// Enricher is the enrichment dependency of the API layer.
type Enricher interface {
	EnrichAll(ctx context.Context, items []domain.ScoredItem) []domain.EnrichedItem
}

// Handler serves the intel API routes.
type Handler struct {
	agg      *aggregate.Aggregator
	enricher Enricher
	signer   *signing.Signer
	stream   StreamConfig
	logger   logger.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewHandler creates the API handler.
func NewHandler(agg *aggregate.Aggregator, enricher Enricher, signer *signing.Signer, stream StreamConfig, log logger.Logger) *Handler {
	stream.setDefaults()
	return &Handler{
		agg:      agg,
		enricher: enricher,
		signer:   signer,
		stream:   stream,
		logger:   log,
		now:      time.Now,
	}
}

// SetMetrics enables the SSE connection gauge.
func (h *Handler) SetMetrics(m *metrics.Metrics) { h.metrics = m }

// HandleHealth handles GET /api/health.
func (h *Handler) HandleHealth(c *gin.Context) {
	h.writeJSON(c, http.StatusOK, gin.H{
		"ok":      true,
		"ts":      h.now().UnixMilli(),
		"sources": sources.Count(),
	}, responseOptions{cacheSeconds: -1, sign: true})
}

// HandleSources handles GET /api/sources.
func (h *Handler) HandleSources(c *gin.Context) {
	h.writeJSON(c, http.StatusOK, sources.List(), responseOptions{cacheSeconds: cacheSourcesSeconds})
}

// HandleTopics handles GET /api/topics.
func (h *Handler) HandleTopics(c *gin.Context) {
	regions := make([]string, 0, 8)
	seen := map[string]struct{}{}
	for _, s := range sources.List() {
		if _, ok := seen[s.Region]; !ok {
			seen[s.Region] = struct{}{}
			regions = append(regions, s.Region)
		}
	}

	h.writeJSON(c, http.StatusOK, gin.H{
		"topics":     sources.Topics(),
		"regions":    regions,
		"geoBuckets": sources.GeoBuckets(),
	}, responseOptions{cacheSeconds: cacheTopicsSeconds})
}

// HandleFeeds handles GET /api/feeds.
func (h *Handler) HandleFeeds(c *gin.Context) {
	sinceHours, err := queryFloat(c, "sinceHours", defaultFeedsSinceHours)
	if err != nil {
		h.clientError(c, err.Error())
		return
	}
	limit, err := queryInt(c, "limit", defaultFeedsLimit)
	if err != nil {
		h.clientError(c, err.Error())
		return
	}

	items := h.agg.Items(c.Request.Context(), sinceHours, limit)
	h.writeJSON(c, http.StatusOK, emptyAsList(items), responseOptions{
		cacheSeconds: cacheFeedsSeconds,
		etag:         true,
		sign:         true,
	})
}

// HandleClusters handles GET /api/clusters.
func (h *Handler) HandleClusters(c *gin.Context) {
	sinceHours, err := queryFloat(c, "sinceHours", defaultFeedsSinceHours)
	if err != nil {
		h.clientError(c, err.Error())
		return
	}
	limit, err := queryInt(c, "limit", defaultFeedsLimit)
	if err != nil {
		h.clientError(c, err.Error())
		return
	}
	minSources, err := queryInt(c, "minSources", defaultMinSources)
	if err != nil {
		h.clientError(c, err.Error())
		return
	}

	clusters := h.agg.Clusters(c.Request.Context(), sinceHours, limit, minSources)
	h.writeJSON(c, http.StatusOK, emptyAsList(clusters), responseOptions{sign: true})
}

// HandleEnrich handles GET /api/enrich.
func (h *Handler) HandleEnrich(c *gin.Context) {
	sinceHours, err := queryFloat(c, "sinceHours", defaultEnrichSinceHours)
	if err != nil {
		h.clientError(c, err.Error())
		return
	}
	limit, err := queryInt(c, "limit", defaultEnrichLimit)
	if err != nil {
		h.clientError(c, err.Error())
		return
	}

	items := h.agg.Items(c.Request.Context(), sinceHours, limit)
	enriched := h.enricher.EnrichAll(c.Request.Context(), items)

	h.writeJSON(c, http.StatusOK, gin.H{
		"count": len(enriched),
		"items": emptyAsList(enriched),
	}, responseOptions{noStore: true, sign: true})
}

// HandleClustersEnriched handles GET /api/clusters/enriched.
func (h *Handler) HandleClustersEnriched(c *gin.Context) {
	sinceHours, err := queryFloat(c, "sinceHours", defaultEnrichSinceHours)
	if err != nil {
		h.clientError(c, err.Error())
		return
	}
	limit, err := queryInt(c, "limit", defaultEnrichLimit)
	if err != nil {
		h.clientError(c, err.Error())
		return
	}
	minSources, err := queryInt(c, "minSources", defaultMinSources)
	if err != nil {
		h.clientError(c, err.Error())
		return
	}

	items := h.agg.Items(c.Request.Context(), sinceHours, limit)
	enriched := h.enricher.EnrichAll(c.Request.Context(), items)

	clusters := cluster.BuildEnriched(enriched)
	if minSources > 1 {
		kept := clusters[:0]
		for _, cl := range clusters {
			if len(cl.Sources) >= minSources {
				kept = append(kept, cl)
			}
		}
		clusters = kept
	}

	h.writeJSON(c, http.StatusOK, emptyAsList(clusters), responseOptions{noStore: true, sign: true})
}

// HandleSearch handles GET /api/search.
func (h *Handler) HandleSearch(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		h.clientError(c, "missing q")
		return
	}
	sinceHours, err := queryFloat(c, "sinceHours", defaultSearchSinceHours)
	if err != nil {
		h.clientError(c, err.Error())
		return
	}
	limit, err := queryInt(c, "limit", defaultSearchLimit)
	if err != nil {
		h.clientError(c, err.Error())
		return
	}

	items := h.agg.Search(c.Request.Context(), q, sinceHours, limit)
	h.writeJSON(c, http.StatusOK, gin.H{
		"q":     q,
		"count": len(items),
		"items": emptyAsList(items),
	}, responseOptions{})
}

// emptyAsList keeps empty windows serialising as [] rather than null.
func emptyAsList[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
