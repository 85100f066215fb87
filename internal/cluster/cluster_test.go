package cluster

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/world-intel/internal/domain"
	"github.com/jonesrussell/world-intel/internal/score"
)

var base = time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

func scored(src, title string, ts time.Time, itemScore float64, tags, geos []string) domain.ScoredItem {
	return domain.ScoredItem{
		Src:   src,
		Title: title,
		Link:  "https://example.com/" + src + "/" + score.StoryKey(title),
		Tags:  tags,
		Geos:  geos,
		Ts:    ts.UnixMilli(),
		Score: itemScore,
		Key:   score.StoryKey(title),
	}
}

func TestBuildSameKeySingleCluster(t *testing.T) {
	items := []domain.ScoredItem{
		scored("a", "China launches new satellite", base, 0.7, nil, nil),
		scored("b", "China launches new satellite", base.Add(-time.Hour), 0.6, nil, nil),
		scored("c", "China launches new satellite", base.Add(-2*time.Hour), 0.5, nil, nil),
	}

	clusters := Build(items)

	require.Len(t, clusters, 1)
	assert.Len(t, clusters[0].Items, 3)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, clusters[0].Sources)
}

func TestBuildCorroboratingHeadlinesMerge(t *testing.T) {
	items := []domain.ScoredItem{
		scored("reuters-world", "China launches new satellite", base, 0.8,
			[]string{"PRC/China", "Space/EO"}, []string{"Asia"}),
		scored("bbc-world", "Beijing Launches New Satellite for Observation", base.Add(-30*time.Minute), 0.75,
			[]string{"PRC/China", "Space/EO"}, []string{"Asia"}),
	}

	clusters := Build(items)

	require.Len(t, clusters, 1)
	c := clusters[0]
	assert.Len(t, c.Sources, 2)
	assert.Contains(t, c.Tags, "PRC/China")
	assert.Contains(t, c.Tags, "Space/EO")
	assert.Contains(t, c.Geos, "Asia")
}

func TestBuildJaccardThreshold(t *testing.T) {
	// 3 shared of 5 union = 0.6: merges.
	at := map[string]struct{}{"alpha": {}, "bravo": {}, "charlie": {}, "delta": {}}
	bt := map[string]struct{}{"alpha": {}, "bravo": {}, "charlie": {}, "echo": {}}
	assert.InDelta(t, 0.6, Jaccard(at, bt), 1e-9)

	// 3 shared of 7: stays below the threshold.
	ct := map[string]struct{}{"alpha": {}, "bravo": {}, "charlie": {}, "echo": {}, "foxtrot": {}, "golf": {}}
	assert.Less(t, Jaccard(at, ct), 0.6)
}

func TestBuildMergeAtExactThreshold(t *testing.T) {
	// Token sets {alpha,bravo,charlie,delta} vs {alpha,bravo,charlie,echo9}:
	// 3/5 = 0.6 exactly, so the buckets merge.
	items := []domain.ScoredItem{
		scored("a", "alpha bravo charlie delta", base, 0.7, nil, nil),
		scored("b", "alpha bravo charlie echo9", base, 0.6, nil, nil),
	}
	items[1].Title = "alpha bravo charlie echo9"

	clusters := Build(items)
	require.Len(t, clusters, 1)
}

func TestBuildNoMergeBelowThreshold(t *testing.T) {
	// 2/6 shared: stays apart.
	items := []domain.ScoredItem{
		scored("a", "alpha bravo charlie delta", base, 0.7, nil, nil),
		scored("b", "alpha bravo golf7 hotel8", base, 0.6, nil, nil),
	}

	clusters := Build(items)
	require.Len(t, clusters, 2)
}

func TestClusterFields(t *testing.T) {
	items := []domain.ScoredItem{
		scored("a", "Major flood displaces thousands downstream", base, 0.9, []string{"Disaster"}, []string{"Asia"}),
		scored("b", "Major flood displaces thousands downstream", base.Add(-3*time.Hour), 0.5, []string{"Migration"}, []string{"Asia"}),
		scored("a", "Major flood displaces thousands downstream", base.Add(-1*time.Hour), 0.6, nil, nil),
	}

	clusters := Build(items)
	require.Len(t, clusters, 1)
	c := clusters[0]

	assert.Equal(t, []string{"a", "b"}, c.Sources, "sources are distinct")
	assert.LessOrEqual(t, c.FirstSeenTs, c.LastSeenTs)
	assert.Equal(t, base.Add(-3*time.Hour).UnixMilli(), c.FirstSeenTs)
	assert.Equal(t, base.UnixMilli(), c.LastSeenTs)

	// corroboration = (2-1)/4 = 0.25; score = 0.8*0.9 + 0.2*0.25.
	assert.InDelta(t, 0.77, c.Score, 0.001)

	// Items newest-first.
	for i := 1; i < len(c.Items); i++ {
		assert.GreaterOrEqual(t, c.Items[i-1].Ts, c.Items[i].Ts)
	}
}

func TestClusterOrdering(t *testing.T) {
	items := []domain.ScoredItem{
		// Single-source, very high score.
		scored("solo", "Unique exclusive scoop nobody matched", base, 0.99, nil, nil),
		// Two sources, lower item scores.
		scored("a", "Shared story everyone covered today widely", base, 0.5, nil, nil),
		scored("b", "Shared story everyone covered today widely", base.Add(-time.Hour), 0.4, nil, nil),
	}

	clusters := Build(items)
	require.Len(t, clusters, 2)
	assert.Len(t, clusters[0].Sources, 2, "more sources outranks higher score")
	assert.Len(t, clusters[1].Sources, 1)
}

func TestClusterTieBreakLastSeen(t *testing.T) {
	mk := func(src, title string, ts time.Time) domain.ScoredItem {
		return scored(src, title, ts, 0.5, nil, nil)
	}
	items := []domain.ScoredItem{
		mk("a", "eastern river levels rising quickly overnight", base.Add(-5*time.Hour)),
		mk("b", "western desert convoy spotted moving north", base.Add(-1*time.Hour)),
	}

	clusters := Build(items)
	require.Len(t, clusters, 2)
	// Same source count, same score: the more recent cluster first.
	assert.Equal(t, items[1].Key, clusters[0].Key)
}

func TestBuildEmpty(t *testing.T) {
	assert.Empty(t, Build(nil))
}

func TestBuildEnrichedCarriesEnrichment(t *testing.T) {
	item := scored("a", "Cyber attack disrupts rail network signals", base, 0.8, []string{"Cyber"}, nil)
	one := domain.EnrichedItem{
		ScoredItem: item,
		Lang:       "en",
		Summary:    "Attack disrupted rail signalling.",
	}
	one.Tags = []string{"Cyber", "Infrastructure"}
	enriched := []domain.EnrichedItem{one}

	clusters := BuildEnriched(enriched)
	require.Len(t, clusters, 1)
	require.Len(t, clusters[0].Items, 1)
	assert.Equal(t, "Attack disrupted rail signalling.", clusters[0].Items[0].Summary)
}
