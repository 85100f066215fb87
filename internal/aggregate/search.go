package aggregate

import (
	"strings"

	"github.com/jonesrussell/world-intel/internal/domain"
)

// FilterQuery keeps items whose haystack contains every whitespace-
// separated query token. An empty query matches everything.
func FilterQuery(items []domain.ScoredItem, query string) []domain.ScoredItem {
	tokens := strings.Fields(strings.ToLower(query))
	if len(tokens) == 0 {
		return items
	}

	matched := make([]domain.ScoredItem, 0, len(items))
	for _, item := range items {
		if matchesAll(haystack(item), tokens) {
			matched = append(matched, item)
		}
	}
	return matched
}

func haystack(item domain.ScoredItem) string {
	parts := []string{item.Title, item.Description}
	parts = append(parts, item.Tags...)
	parts = append(parts, item.Geos...)
	return strings.ToLower(strings.Join(parts, " "))
}

func matchesAll(hay string, tokens []string) bool {
	for _, tok := range tokens {
		if !strings.Contains(hay, tok) {
			return false
		}
	}
	return true
}
