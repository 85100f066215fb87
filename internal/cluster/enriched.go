package cluster

import "github.com/jonesrussell/world-intel/internal/domain"

// BuildEnriched clusters enriched items with the same algorithm as Build,
// carrying each item's enrichment through to the output.
func BuildEnriched(items []domain.EnrichedItem) []domain.EnrichedCluster {
	scored := make([]domain.ScoredItem, len(items))
	byIdentity := make(map[string]domain.EnrichedItem, len(items))
	for i, it := range items {
		scored[i] = it.ScoredItem
		byIdentity[identity(it.ScoredItem)] = it
	}

	clusters := Build(scored)

	out := make([]domain.EnrichedCluster, 0, len(clusters))
	for _, c := range clusters {
		members := make([]domain.EnrichedItem, 0, len(c.Items))
		for _, it := range c.Items {
			if enriched, ok := byIdentity[identity(it)]; ok {
				members = append(members, enriched)
				continue
			}
			plain := domain.EnrichedItem{ScoredItem: it}
			plain.Tags = it.Tags
			members = append(members, plain)
		}
		out = append(out, domain.EnrichedCluster{
			Key:         c.Key,
			Items:       members,
			Tags:        c.Tags,
			Geos:        c.Geos,
			Sources:     c.Sources,
			FirstSeenTs: c.FirstSeenTs,
			LastSeenTs:  c.LastSeenTs,
			Score:       c.Score,
		})
	}
	return out
}

// identity keys an item inside one request window. Link is unique per
// item; titles back it up for link-less entries.
func identity(it domain.ScoredItem) string {
	if it.Link != "" {
		return it.Link
	}
	return it.Key + "|" + it.Title
}
