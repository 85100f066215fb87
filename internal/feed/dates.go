package feed

import (
	"strings"
	"time"
)

// dateLayouts covers the published-date formats seen across RSS 2.0, RDF
// and Atom feeds in the wild, most common first.
var dateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	time.RFC3339,
	"2006-01-02T15:04:05.999Z07:00",
	"2006-01-02T15:04:05Z0700",
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"2 Jan 2006 15:04:05 -0700",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDate parses a feed timestamp. Invalid or empty input yields now;
// the item still flows, it just scores as fresh.
func ParseDate(text string, now time.Time) time.Time {
	text = strings.TrimSpace(text)
	if text == "" {
		return now
	}

	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, text); err == nil {
			return ts
		}
	}
	return now
}
