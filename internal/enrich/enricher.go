package enrich

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"

	"github.com/jonesrussell/world-intel/internal/domain"
	"github.com/jonesrussell/world-intel/internal/kv"
	"github.com/jonesrussell/world-intel/internal/logger"
	"github.com/jonesrussell/world-intel/internal/metrics"
	"github.com/jonesrussell/world-intel/internal/sources"
)

const (
	// cachePrefix namespaces enrichment cache entries in the KV store.
	cachePrefix = "enrich:"

	// zeroShotKeepScore is the minimum zero-shot score for a label to be kept.
	zeroShotKeepScore = 0.35
	// zeroShotMaxLabels caps how many zero-shot labels an item gains.
	zeroShotMaxLabels = 5

	// normalizedTextMax caps the English normalized text length.
	normalizedTextMax = 2000

	summaryMaxLength = 120
	summaryMinLength = 40
)

// Models names the model used for each task.
type Models struct {
	LangDetect string
	Translate  string
	ZeroShot   string
	Summary    string
	Sentiment  string
	NER        string
}

// Enricher runs the per-item task pipeline with a KV-backed result cache.
type Enricher struct {
	client      *Client
	store       kv.Store
	models      Models
	maxItems    int
	cacheTTL    time.Duration
	taskTimeout time.Duration
	logger      logger.Logger
	metrics     *metrics.Metrics
}

// Options configures an Enricher.
type Options struct {
	// MaxItems caps how many items are enriched per request; the rest pass
	// through unmodified.
	MaxItems int
	// CacheTTL bounds cached results.
	CacheTTL time.Duration
	// TaskTimeout is the hard per-task timeout.
	TaskTimeout time.Duration
	Models      Models
}

// NewEnricher creates an Enricher over the given client and KV store.
func NewEnricher(client *Client, store kv.Store, opts Options, log logger.Logger) *Enricher {
	if opts.MaxItems <= 0 {
		opts.MaxItems = 25
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = time.Hour
	}
	if opts.TaskTimeout <= 0 {
		opts.TaskTimeout = 8 * time.Second
	}
	return &Enricher{
		client:      client,
		store:       store,
		models:      opts.Models,
		maxItems:    opts.MaxItems,
		cacheTTL:    opts.CacheTTL,
		taskTimeout: opts.TaskTimeout,
		logger:      log,
	}
}

// SetMetrics enables task outcome metrics.
func (e *Enricher) SetMetrics(m *metrics.Metrics) { e.metrics = m }

// EnrichAll enriches the head of items up to the configured cap, passing the
// tail through untouched. Input order is preserved. A cancelled context
// stops further upstream work; items not reached come back un-enriched.
func (e *Enricher) EnrichAll(ctx context.Context, items []domain.ScoredItem) []domain.EnrichedItem {
	out := make([]domain.EnrichedItem, 0, len(items))

	for i, item := range items {
		if i >= e.maxItems || ctx.Err() != nil {
			out = append(out, passThrough(item))
			continue
		}
		out = append(out, e.enrichOne(ctx, item))
	}

	return out
}

// enrichOne runs the task pipeline for one item, consulting the cache first.
func (e *Enricher) enrichOne(ctx context.Context, item domain.ScoredItem) domain.EnrichedItem {
	key := cacheKey(item)

	if cached, err := e.store.Get(ctx, key); err == nil {
		var enriched domain.EnrichedItem
		if json.Unmarshal(cached, &enriched) == nil {
			// Cached runs predate this request's scoring; refresh the
			// volatile fields so ageH/score track the current window.
			enriched.ScoredItem = item
			enriched.Tags = mergeTags(item.Tags, enriched.ZsLabels)
			return enriched
		}
	} else if !errors.Is(err, kv.ErrNotFound) {
		e.logger.Warn("enrichment cache read failed", logger.String("key", key), logger.Error(err))
	}

	enriched := e.runTasks(ctx, item)

	if payload, err := json.Marshal(enriched); err == nil {
		if putErr := e.store.Put(ctx, key, payload, e.cacheTTL); putErr != nil {
			e.logger.Warn("enrichment cache write failed", logger.String("key", key), logger.Error(putErr))
		}
	}

	return enriched
}

// runTasks executes the ordered task list. Every task is individually
// guarded: a failure leaves its field empty and the pipeline continues. An
// auth failure short-circuits the remaining tasks for this item.
func (e *Enricher) runTasks(ctx context.Context, item domain.ScoredItem) domain.EnrichedItem {
	enriched := passThrough(item)
	text := truncate(item.Title+". "+item.Description, normalizedTextMax)

	lang, err := e.detectLanguage(ctx, text)
	if e.authFailed(err, item.Src, "lang_detect") {
		return enriched
	}
	enriched.Lang = lang

	enriched.NormalizedText = text
	if lang != "en" {
		translated, translateErr := e.translate(ctx, text)
		if e.authFailed(translateErr, item.Src, "translate") {
			return enriched
		}
		if translateErr == nil && translated != "" {
			enriched.NormalizedText = truncate(translated, normalizedTextMax)
			enriched.Translated = true
		}
	}

	labels, err := e.zeroShot(ctx, enriched.NormalizedText)
	if e.authFailed(err, item.Src, "zero_shot") {
		return enriched
	}
	enriched.ZsLabels = labels
	enriched.Tags = mergeTags(item.Tags, labels)

	summary, err := e.summarise(ctx, enriched.NormalizedText)
	if e.authFailed(err, item.Src, "summary") {
		return enriched
	}
	enriched.Summary = summary

	sentiment, err := e.sentiment(ctx, enriched.NormalizedText)
	if e.authFailed(err, item.Src, "sentiment") {
		return enriched
	}
	enriched.Sentiment = sentiment

	entities, err := e.entities(ctx, enriched.NormalizedText)
	if e.authFailed(err, item.Src, "ner") {
		return enriched
	}
	enriched.Entities = entities

	return enriched
}

// authFailed logs task errors and reports whether the error was an auth
// rejection, which stops enrichment for the current item.
func (e *Enricher) authFailed(err error, src, task string) bool {
	if e.metrics != nil {
		result := "ok"
		if err != nil {
			result = "error"
		}
		e.metrics.EnrichTask(task, result)
	}
	if err == nil {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.IsAuthError() {
		e.logger.Error("enrichment credentials rejected",
			logger.String("task", task),
			logger.String("src", src),
			logger.Error(err),
		)
		return true
	}

	e.logger.Warn("enrichment task failed",
		logger.String("task", task),
		logger.String("src", src),
		logger.Error(err),
	)
	return false
}

func (e *Enricher) detectLanguage(ctx context.Context, text string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.taskTimeout)
	defer cancel()

	raw, err := e.client.Call(ctx, e.models.LangDetect, map[string]any{"inputs": text})
	if err != nil {
		return "en", err
	}

	labels := decodeLabelScores(raw)
	if len(labels) == 0 {
		return "en", nil
	}
	return labels[0].Label, nil
}

func (e *Enricher) translate(ctx context.Context, text string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.taskTimeout)
	defer cancel()

	raw, err := e.client.Call(ctx, e.models.Translate, map[string]any{"inputs": text})
	if err != nil {
		return "", err
	}

	var results []struct {
		TranslationText string `json:"translation_text"`
	}
	if jsonErr := json.Unmarshal(raw, &results); jsonErr != nil || len(results) == 0 {
		return "", nil
	}
	return results[0].TranslationText, nil
}

func (e *Enricher) zeroShot(ctx context.Context, text string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.taskTimeout)
	defer cancel()

	raw, err := e.client.Call(ctx, e.models.ZeroShot, map[string]any{
		"inputs": text,
		"parameters": map[string]any{
			"candidate_labels": sources.TopicLabels(),
			"multi_label":      true,
		},
	})
	if err != nil {
		return nil, err
	}

	var result struct {
		Labels []string  `json:"labels"`
		Scores []float64 `json:"scores"`
	}
	if jsonErr := json.Unmarshal(raw, &result); jsonErr != nil {
		return nil, nil
	}

	var kept []string
	for i, label := range result.Labels {
		if i >= len(result.Scores) || result.Scores[i] < zeroShotKeepScore {
			continue
		}
		kept = append(kept, label)
		if len(kept) == zeroShotMaxLabels {
			break
		}
	}
	return kept, nil
}

func (e *Enricher) summarise(ctx context.Context, text string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.taskTimeout)
	defer cancel()

	raw, err := e.client.Call(ctx, e.models.Summary, map[string]any{
		"inputs": text,
		"parameters": map[string]any{
			"max_length": summaryMaxLength,
			"min_length": summaryMinLength,
		},
	})
	if err != nil {
		return "", err
	}

	var results []struct {
		SummaryText string `json:"summary_text"`
	}
	if jsonErr := json.Unmarshal(raw, &results); jsonErr != nil || len(results) == 0 {
		return "", nil
	}
	return results[0].SummaryText, nil
}

func (e *Enricher) sentiment(ctx context.Context, text string) (any, error) {
	ctx, cancel := context.WithTimeout(ctx, e.taskTimeout)
	defer cancel()

	raw, err := e.client.Call(ctx, e.models.Sentiment, map[string]any{"inputs": text})
	if err != nil {
		return nil, err
	}

	// Provider-opaque: stored as-is.
	var payload any
	if jsonErr := json.Unmarshal(raw, &payload); jsonErr != nil {
		return nil, nil
	}
	return payload, nil
}

func (e *Enricher) entities(ctx context.Context, text string) ([]domain.Entity, error) {
	ctx, cancel := context.WithTimeout(ctx, e.taskTimeout)
	defer cancel()

	raw, err := e.client.Call(ctx, e.models.NER, map[string]any{
		"inputs":     text,
		"parameters": map[string]any{"aggregation_strategy": "simple"},
	})
	if err != nil {
		return nil, err
	}

	var entities []domain.Entity
	if jsonErr := json.Unmarshal(raw, &entities); jsonErr != nil {
		return nil, nil
	}
	return entities, nil
}

type labelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// decodeLabelScores handles both classifier response shapes: a flat list
// and a nested list-of-lists.
func decodeLabelScores(raw []byte) []labelScore {
	var nested [][]labelScore
	if err := json.Unmarshal(raw, &nested); err == nil && len(nested) > 0 {
		return nested[0]
	}

	var flat []labelScore
	if err := json.Unmarshal(raw, &flat); err == nil {
		return flat
	}
	return nil
}

// cacheKey derives the cache key from the item identity: base64url of
// SHA-256 over link, falling back to key then title.
func cacheKey(item domain.ScoredItem) string {
	id := item.Link
	if id == "" {
		id = item.Key
	}
	if id == "" {
		id = item.Title
	}
	sum := sha256.Sum256([]byte(id))
	return cachePrefix + base64.RawURLEncoding.EncodeToString(sum[:])
}

func passThrough(item domain.ScoredItem) domain.EnrichedItem {
	enriched := domain.EnrichedItem{ScoredItem: item}
	enriched.Tags = item.Tags
	return enriched
}

func mergeTags(original, extra []string) []string {
	seen := make(map[string]struct{}, len(original)+len(extra))
	merged := make([]string, 0, len(original)+len(extra))
	for _, t := range original {
		if _, ok := seen[t]; !ok {
			seen[t] = struct{}{}
			merged = append(merged, t)
		}
	}
	for _, t := range extra {
		if _, ok := seen[t]; !ok {
			seen[t] = struct{}{}
			merged = append(merged, t)
		}
	}
	return merged
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
