package feed

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// StripHTML reduces a feed description to plain text: scripts and styles
// are dropped entirely, remaining markup is stripped, entities decoded,
// and whitespace collapsed.
func StripHTML(s string) string {
	s = unwrapCDATA(s)
	if !strings.ContainsAny(s, "<&") {
		return collapseWhitespace(s)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return collapseWhitespace(decodeEntities(s))
	}

	doc.Find("script, style").Remove()
	return collapseWhitespace(doc.Text())
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
