package feed

import (
	"strings"

	"github.com/jonesrussell/world-intel/internal/domain"
)

// MaxPerSource caps parsed entries per feed; the tail beyond it is ignored.
const MaxPerSource = 120

// Parse extracts items from a fetched feed payload. It accepts RSS 2.0,
// RDF-RSS 1.0 and Atom 1.0 and tolerates malformed blocks: a bad block is
// skipped, never fatal for the feed. Items missing both title and link are
// dropped.
func Parse(source domain.FeedSource, payload []byte, maxItems int) []domain.RawItem {
	if maxItems <= 0 || maxItems > MaxPerSource {
		maxItems = MaxPerSource
	}

	doc := string(payload)

	blocks := extractBlocks(doc, "item")
	atom := false
	if len(blocks) == 0 {
		blocks = extractBlocks(doc, "entry")
		atom = true
	}

	items := make([]domain.RawItem, 0, len(blocks))
	for _, block := range blocks {
		if len(items) >= maxItems {
			break
		}
		item, ok := parseBlock(source, block, atom)
		if !ok {
			continue
		}
		items = append(items, item)
	}

	return items
}

// parseBlock converts one item/entry block into a RawItem. Returns false
// when the block yields neither title nor link.
func parseBlock(source domain.FeedSource, block string, atom bool) (domain.RawItem, bool) {
	title := cleanText(innerTag(block, "title"))

	var link string
	if atom {
		link = atomLink(block)
	} else {
		link = cleanText(innerTag(block, "link"))
		if link == "" {
			// Some RSS feeds only carry a permalink guid.
			if guid := cleanText(innerTag(block, "guid")); looksLikeURL(guid) {
				link = guid
			}
		}
	}

	if title == "" && link == "" {
		return domain.RawItem{}, false
	}

	pubText := firstNonEmpty(
		cleanText(innerTag(block, "pubDate")),
		cleanText(innerTag(block, "updated")),
		cleanText(innerTag(block, "published")),
		cleanText(innerTag(block, "dc:date")),
	)

	description := firstNonEmpty(
		StripHTML(innerTag(block, "description")),
		StripHTML(innerTag(block, "summary")),
		StripHTML(innerTag(block, "content:encoded")),
		StripHTML(innerTag(block, "content")),
	)

	return domain.RawItem{
		Src:         source.Src,
		Title:       title,
		Link:        link,
		Description: description,
		PubText:     pubText,
		Weight:      source.Weight,
		Region:      source.Region,
	}, true
}

// extractBlocks scans for <tag ...>...</tag> blocks without requiring the
// document to be well-formed. Matching is case-insensitive; a block with a
// missing close tag is dropped, not fatal.
func extractBlocks(doc, tag string) []string {
	lower := strings.ToLower(doc)
	openTag := "<" + tag
	closeTag := "</" + tag

	var blocks []string
	pos := 0
	for {
		start := indexTagOpen(lower, openTag, pos)
		if start < 0 {
			return blocks
		}

		bodyStart := strings.IndexByte(lower[start:], '>')
		if bodyStart < 0 {
			return blocks
		}
		bodyStart += start + 1

		end := strings.Index(lower[bodyStart:], closeTag)
		if end < 0 {
			return blocks
		}
		end += bodyStart

		blocks = append(blocks, doc[bodyStart:end])
		pos = end + len(closeTag)
	}
}

// indexTagOpen finds "<tag" followed by a delimiter, so <item> does not
// match <itemref>.
func indexTagOpen(lower, open string, from int) int {
	for {
		idx := strings.Index(lower[from:], open)
		if idx < 0 {
			return -1
		}
		idx += from
		next := idx + len(open)
		if next >= len(lower) {
			return -1
		}
		switch lower[next] {
		case '>', ' ', '\t', '\n', '\r', '/':
			return idx
		}
		from = idx + 1
	}
}

// innerTag returns the inner text of the first <name> element in block, or
// "" when absent or self-closing.
func innerTag(block, name string) string {
	lower := strings.ToLower(block)
	lname := strings.ToLower(name)

	start := indexTagOpen(lower, "<"+lname, 0)
	if start < 0 {
		return ""
	}

	gt := strings.IndexByte(lower[start:], '>')
	if gt < 0 {
		return ""
	}
	if gt > 0 && lower[start+gt-1] == '/' {
		return ""
	}
	bodyStart := start + gt + 1

	end := strings.Index(lower[bodyStart:], "</"+lname)
	if end < 0 {
		return ""
	}
	return block[bodyStart : bodyStart+end]
}

// atomLink resolves an Atom entry link: prefer rel="alternate" href, then
// any href, then the element text.
func atomLink(block string) string {
	var anyHref string

	lower := strings.ToLower(block)
	pos := 0
	for {
		start := indexTagOpen(lower, "<link", pos)
		if start < 0 {
			break
		}
		gt := strings.IndexByte(lower[start:], '>')
		if gt < 0 {
			break
		}
		tag := block[start : start+gt+1]
		pos = start + gt + 1

		href := attrValue(tag, "href")
		if href == "" {
			continue
		}
		rel := attrValue(tag, "rel")
		if rel == "" || strings.EqualFold(rel, "alternate") {
			return cleanText(href)
		}
		if anyHref == "" {
			anyHref = href
		}
	}

	if anyHref != "" {
		return cleanText(anyHref)
	}
	return cleanText(innerTag(block, "link"))
}

// attrValue extracts a quoted attribute value from a single tag.
func attrValue(tag, name string) string {
	lower := strings.ToLower(tag)
	needle := name + "="
	idx := strings.Index(lower, needle)
	if idx < 0 {
		return ""
	}
	rest := tag[idx+len(needle):]
	if rest == "" {
		return ""
	}

	quote := rest[0]
	if quote != '"' && quote != '\'' {
		end := strings.IndexAny(rest, " \t\n\r>/")
		if end < 0 {
			return rest
		}
		return rest[:end]
	}

	end := strings.IndexByte(rest[1:], quote)
	if end < 0 {
		return ""
	}
	return rest[1 : 1+end]
}

// cleanText unwraps CDATA, decodes entities, and trims.
func cleanText(s string) string {
	return strings.TrimSpace(decodeEntities(unwrapCDATA(s)))
}

func looksLikeURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
