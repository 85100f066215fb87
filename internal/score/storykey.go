package score

import "strings"

// storyKeyTokens is how many canonical tokens a story key keeps.
const storyKeyTokens = 8

// minTokenLen drops short filler words; tokens of this length or less are
// ignored.
const minTokenLen = 3

// stopwords is a curated small set. Headline vocabulary beyond these is
// signal, not noise.
var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "from": {}, "into": {},
	"over": {}, "after": {}, "amid": {}, "says": {}, "said": {}, "will": {},
	"this": {}, "that": {}, "have": {}, "has": {}, "been": {}, "were": {},
	"was": {}, "are": {}, "its": {}, "his": {}, "her": {}, "their": {},
	"about": {}, "against": {}, "during": {}, "before": {}, "under": {},
	"more": {}, "than": {},
}

// aliases folds common place-name variants onto one canonical token so a
// headline rewrite ("Beijing" for "China") still lands on the same story.
var aliases = map[string]string{
	"beijing":    "china",
	"shanghai":   "china",
	"moscow":     "russia",
	"kremlin":    "russia",
	"kyiv":       "ukraine",
	"washington": "america",
	"pyongyang":  "korea",
	"tehran":     "iran",
	"jerusalem":  "israel",
	"brussels":   "europe",
}

// StoryKey canonicalises a title into a cluster seed: lowercase, non-
// alphanumerics to spaces, stopwords and short tokens dropped, first 8
// remaining tokens joined with "-". Semantically identical rewrites of a
// title should land on the same key.
func StoryKey(title string) string {
	lower := strings.ToLower(title)

	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}

	kept := make([]string, 0, storyKeyTokens)
	for _, tok := range strings.Fields(b.String()) {
		if len(tok) <= minTokenLen {
			continue
		}
		if _, stop := stopwords[tok]; stop {
			continue
		}
		if canon, ok := aliases[tok]; ok {
			tok = canon
		}
		kept = append(kept, tok)
		if len(kept) == storyKeyTokens {
			break
		}
	}

	return strings.Join(kept, "-")
}

// TitleTokens returns the canonical token set of a title, used for Jaccard
// comparison between cluster seeds.
func TitleTokens(title string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, tok := range strings.Split(StoryKey(title), "-") {
		if tok != "" {
			tokens[tok] = struct{}{}
		}
	}
	return tokens
}
