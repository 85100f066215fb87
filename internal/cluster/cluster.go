// Package cluster groups scored items into story clusters with a two-pass
// algorithm: exact story-key buckets, then a greedy Jaccard merge over the
// bucket seed titles.
package cluster

import (
	"sort"

	"github.com/jonesrussell/world-intel/internal/domain"
	"github.com/jonesrussell/world-intel/internal/score"
)

// MergeThreshold is the Jaccard similarity at or above which two buckets
// merge.
const MergeThreshold = 0.6

// corroborationCap is the number of sources beyond the first at which
// corroboration saturates (5+ distinct sources).
const corroborationCap = 4.0

// Build clusters a window of scored items. Items inside a cluster come out
// newest-first; clusters are ordered by source count desc, then score desc,
// then lastSeenTs desc.
func Build(items []domain.ScoredItem) []domain.Cluster {
	buckets := bucketByKey(items)
	buckets = mergeSimilar(buckets)

	clusters := make([]domain.Cluster, 0, len(buckets))
	for _, b := range buckets {
		clusters = append(clusters, finalise(b))
	}

	sort.SliceStable(clusters, func(i, j int) bool {
		a, b := clusters[i], clusters[j]
		if len(a.Sources) != len(b.Sources) {
			return len(a.Sources) > len(b.Sources)
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.LastSeenTs > b.LastSeenTs
	})

	return clusters
}

type bucket struct {
	key   string
	items []domain.ScoredItem
}

// bucketByKey groups items sharing the same story key, preserving first-
// appearance order of keys.
func bucketByKey(items []domain.ScoredItem) []*bucket {
	index := make(map[string]*bucket)
	var ordered []*bucket

	for _, it := range items {
		b, ok := index[it.Key]
		if !ok {
			b = &bucket{key: it.Key}
			index[it.Key] = b
			ordered = append(ordered, b)
		}
		b.items = append(b.items, it)
	}

	return ordered
}

// mergeSimilar greedily merges buckets left to right when the token sets of
// their first titles reach the Jaccard threshold. A merged bucket is not
// re-examined.
func mergeSimilar(buckets []*bucket) []*bucket {
	merged := make([]bool, len(buckets))

	for i := range buckets {
		if merged[i] {
			continue
		}
		left := score.TitleTokens(buckets[i].items[0].Title)

		for j := i + 1; j < len(buckets); j++ {
			if merged[j] {
				continue
			}
			right := score.TitleTokens(buckets[j].items[0].Title)
			if Jaccard(left, right) >= MergeThreshold {
				buckets[i].items = append(buckets[i].items, buckets[j].items...)
				merged[j] = true
			}
		}
	}

	out := buckets[:0]
	for i, b := range buckets {
		if !merged[i] {
			out = append(out, b)
		}
	}
	return out
}

// finalise derives the cluster fields from its members.
//
//	corroboration = min(1, (|sources|-1)/4)
//	score         = round3(0.8*max(item score) + 0.2*corroboration)
func finalise(b *bucket) domain.Cluster {
	sort.SliceStable(b.items, func(i, j int) bool {
		return b.items[i].Ts > b.items[j].Ts
	})

	var (
		tags, geos  []string
		seenTag     = map[string]struct{}{}
		seenGeo     = map[string]struct{}{}
		seenSrc     = map[string]struct{}{}
		sourceOrder []string
		maxScore    float64
	)

	first := b.items[0].Ts
	last := b.items[0].Ts

	for _, it := range b.items {
		for _, t := range it.Tags {
			if _, ok := seenTag[t]; !ok {
				seenTag[t] = struct{}{}
				tags = append(tags, t)
			}
		}
		for _, g := range it.Geos {
			if _, ok := seenGeo[g]; !ok {
				seenGeo[g] = struct{}{}
				geos = append(geos, g)
			}
		}
		if _, ok := seenSrc[it.Src]; !ok {
			seenSrc[it.Src] = struct{}{}
			sourceOrder = append(sourceOrder, it.Src)
		}
		if it.Score > maxScore {
			maxScore = it.Score
		}
		if it.Ts < first {
			first = it.Ts
		}
		if it.Ts > last {
			last = it.Ts
		}
	}

	corroboration := (float64(len(sourceOrder)) - 1) / corroborationCap
	if corroboration > 1 {
		corroboration = 1
	}

	return domain.Cluster{
		Key:         b.key,
		Items:       b.items,
		Tags:        tags,
		Geos:        geos,
		Sources:     sourceOrder,
		FirstSeenTs: first,
		LastSeenTs:  last,
		Score:       score.Round3(0.8*maxScore + 0.2*corroboration),
	}
}

// Jaccard computes |A ∩ B| / |A ∪ B| over two token sets. Two empty sets
// have similarity 0.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	inter := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}
