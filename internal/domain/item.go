// Package domain defines the data model shared by the aggregation pipeline:
// feed sources, items at each stage of refinement, and story clusters.
package domain

// FeedSource identifies one upstream RSS/Atom feed. The registry declares
// these at load time; they are immutable for the process lifetime.
type FeedSource struct {
	// Src is the stable source id (e.g. "reuters-world").
	Src string `json:"src"`
	// URL is the feed URL.
	URL string `json:"url"`
	// Weight is the trust weight in [0,1] used as scoring confidence.
	Weight float64 `json:"weight"`
	// Region is a coarse label used for geo matching.
	Region string `json:"region"`
}

// RawItem is one parsed feed entry before scoring. Title and Link are
// trimmed and at least one of them is non-empty: the parser drops items
// missing both.
type RawItem struct {
	Src         string
	Title       string
	Link        string
	Description string
	PubText     string
	Weight      float64
	Region      string
}

// ScoredItem is a RawItem after tagging and scoring. It lives for the
// request and for its TTL in the cache.
type ScoredItem struct {
	Src         string   `json:"src"`
	Title       string   `json:"title"`
	Link        string   `json:"link"`
	Description string   `json:"description"`
	Region      string   `json:"region"`
	Tags        []string `json:"tags"`
	Geos        []string `json:"geos"`
	// Ts is the published time in epoch milliseconds.
	Ts int64 `json:"ts"`
	// AgeH is the item age in hours at scoring time, clamped at 0.
	AgeH float64 `json:"ageH"`
	// Score is the blended impact/confidence/urgency score in [0,1].
	Score float64 `json:"score"`
	// Key is the canonical story key derived from the title.
	Key string `json:"key"`
}

// Cluster groups corroborating items that tell the same story.
type Cluster struct {
	Key   string       `json:"key"`
	Items []ScoredItem `json:"items"`
	Tags  []string     `json:"tags"`
	Geos  []string     `json:"geos"`
	// Sources is the distinct set of item source ids.
	Sources     []string `json:"sources"`
	FirstSeenTs int64    `json:"firstSeenTs"`
	LastSeenTs  int64    `json:"lastSeenTs"`
	Score       float64  `json:"score"`
}

// EnrichedItem is a ScoredItem extended with AI enrichment results. Any
// field may be empty when the corresponding task failed; Tags always
// contains at least the original item tags.
type EnrichedItem struct {
	ScoredItem
	// Lang is the detected ISO language code ("en" on detection failure).
	Lang string `json:"lang"`
	// Translated reports whether NormalizedText is a translation.
	Translated bool `json:"translated"`
	// NormalizedText is English text (translation or original), capped.
	NormalizedText string `json:"normalizedText"`
	Summary        string `json:"summary"`
	// ZsLabels are zero-shot topic labels above the keep threshold.
	ZsLabels []string `json:"zsLabels"`
	// Sentiment is the provider payload stored as-is.
	Sentiment any `json:"sentiment,omitempty"`
	// Entities are named entities recognised in the text.
	Entities []Entity `json:"entities"`
}

// Entity is one named-entity recognition result.
type Entity struct {
	Word  string  `json:"word"`
	Group string  `json:"entity_group"`
	Score float64 `json:"score"`
}

// EnrichedCluster is a Cluster whose items carry enrichment.
type EnrichedCluster struct {
	Key         string         `json:"key"`
	Items       []EnrichedItem `json:"items"`
	Tags        []string       `json:"tags"`
	Geos        []string       `json:"geos"`
	Sources     []string       `json:"sources"`
	FirstSeenTs int64          `json:"firstSeenTs"`
	LastSeenTs  int64          `json:"lastSeenTs"`
	Score       float64        `json:"score"`
}
