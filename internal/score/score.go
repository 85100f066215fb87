// Package score turns raw feed items into scored, tagged items and carries
// the story-key canonicalisation used as the cluster seed.
package score

import (
	"math"
	"sort"
	"time"

	"github.com/jonesrussell/world-intel/internal/domain"
	"github.com/jonesrussell/world-intel/internal/feed"
	"github.com/jonesrussell/world-intel/internal/sources"
)

// urgencyHorizonH is the age in hours at which urgency bottoms out.
const urgencyHorizonH = 36.0

// impactTagTarget is the tag count at which impact saturates.
const impactTagTarget = 3.0

// Item scores one raw item at the given time.
//
//	urgency    = max(0, 1 - min(ageH, 36)/36)
//	impact     = min(1, |tags|/3)
//	confidence = source weight
//	score      = round3(0.5*impact + 0.3*confidence + 0.2*urgency)
func Item(raw domain.RawItem, now time.Time) domain.ScoredItem {
	text := raw.Title + " " + raw.Description
	tags := sources.MatchTopics(text)
	geos := sources.MatchGeos(text + " " + raw.Region)

	ts := feed.ParseDate(raw.PubText, now).UnixMilli()
	ageH := float64(now.UnixMilli()-ts) / 3600000.0
	if ageH < 0 {
		ageH = 0
	}

	urgency := 1 - math.Min(ageH, urgencyHorizonH)/urgencyHorizonH
	if urgency < 0 {
		urgency = 0
	}
	impact := math.Min(1, float64(len(tags))/impactTagTarget)
	confidence := raw.Weight

	return domain.ScoredItem{
		Src:         raw.Src,
		Title:       raw.Title,
		Link:        raw.Link,
		Description: raw.Description,
		Region:      raw.Region,
		Tags:        tags,
		Geos:        geos,
		Ts:          ts,
		AgeH:        Round3(ageH),
		Score:       Round3(0.5*impact + 0.3*confidence + 0.2*urgency),
		Key:         StoryKey(raw.Title),
	}
}

// Window scores, sorts and filters a batch: score descending, then only
// items with ageH <= sinceHours, truncated to limit. Callers that cluster
// afterwards pass 2*limit for merge headroom.
func Window(raw []domain.RawItem, now time.Time, sinceHours float64, limit int) []domain.ScoredItem {
	items := make([]domain.ScoredItem, 0, len(raw))
	for _, r := range raw {
		items = append(items, Item(r, now))
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score > items[j].Score
	})

	filtered := items[:0]
	for _, it := range items {
		if it.AgeH <= sinceHours {
			filtered = append(filtered, it)
		}
	}

	if limit > 0 && len(filtered) > limit {
		filtered = filtered[:limit]
	}
	return filtered
}

// Round3 rounds to three decimal places.
func Round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
