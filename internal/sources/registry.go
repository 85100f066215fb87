// Package sources declares the immutable feed registry and the topic and
// geo keyword dictionaries used for tagging.
package sources

import "github.com/jonesrussell/world-intel/internal/domain"

// registry is the declarative feed table. Src ids are unique; weights are
// trust weights in [0,1] and feed the scorer's confidence term.
var registry = []domain.FeedSource{
	{Src: "reuters-world", URL: "https://feeds.reuters.com/Reuters/worldNews", Weight: 0.95, Region: "Global"},
	{Src: "bbc-world", URL: "https://feeds.bbci.co.uk/news/world/rss.xml", Weight: 0.92, Region: "Global"},
	{Src: "ap-topnews", URL: "https://rsshub.app/apnews/topics/apf-topnews", Weight: 0.93, Region: "Global"},
	{Src: "aljazeera", URL: "https://www.aljazeera.com/xml/rss/all.xml", Weight: 0.82, Region: "Middle East"},
	{Src: "france24-en", URL: "https://www.france24.com/en/rss", Weight: 0.8, Region: "Europe"},
	{Src: "dw-world", URL: "https://rss.dw.com/rdf/rss-en-world", Weight: 0.82, Region: "Europe"},
	{Src: "guardian-world", URL: "https://www.theguardian.com/world/rss", Weight: 0.85, Region: "Europe"},
	{Src: "euronews", URL: "https://www.euronews.com/rss?format=mrss", Weight: 0.72, Region: "Europe"},
	{Src: "kyiv-independent", URL: "https://kyivindependent.com/feed", Weight: 0.7, Region: "Europe"},
	{Src: "nhk-world", URL: "https://www3.nhk.or.jp/rss/news/cat6.xml", Weight: 0.8, Region: "Asia"},
	{Src: "scmp-china", URL: "https://www.scmp.com/rss/4/feed", Weight: 0.72, Region: "Asia"},
	{Src: "straits-times", URL: "https://www.straitstimes.com/news/asia/rss.xml", Weight: 0.74, Region: "Asia"},
	{Src: "kyodo-en", URL: "https://english.kyodonews.net/rss/all.xml", Weight: 0.76, Region: "Asia"},
	{Src: "times-of-india", URL: "https://timesofindia.indiatimes.com/rssfeeds/296589292.cms", Weight: 0.6, Region: "Asia"},
	{Src: "yonhap-en", URL: "https://en.yna.co.kr/RSS/news.xml", Weight: 0.74, Region: "Asia"},
	{Src: "abc-au", URL: "https://www.abc.net.au/news/feed/51120/rss.xml", Weight: 0.78, Region: "Oceania"},
	{Src: "times-of-israel", URL: "https://www.timesofisrael.com/feed/", Weight: 0.66, Region: "Middle East"},
	{Src: "al-monitor", URL: "https://www.al-monitor.com/rss", Weight: 0.62, Region: "Middle East"},
	{Src: "africanews", URL: "https://www.africanews.com/api/en/rss", Weight: 0.64, Region: "Africa"},
	{Src: "allafrica-latest", URL: "https://allafrica.com/tools/headlines/rdf/latest/headlines.rdf", Weight: 0.55, Region: "Africa"},
	{Src: "mercopress", URL: "https://en.mercopress.com/rss/", Weight: 0.58, Region: "Americas"},
	{Src: "cbc-world", URL: "https://www.cbc.ca/webfeed/rss/rss-world", Weight: 0.8, Region: "Americas"},
	{Src: "npr-world", URL: "https://feeds.npr.org/1004/rss.xml", Weight: 0.84, Region: "Americas"},
	{Src: "defense-news", URL: "https://www.defensenews.com/arc/outboundfeeds/rss/", Weight: 0.7, Region: "Global"},
	{Src: "breaking-defense", URL: "https://breakingdefense.com/feed/", Weight: 0.66, Region: "Global"},
	{Src: "war-on-the-rocks", URL: "https://warontherocks.com/feed/", Weight: 0.6, Region: "Global"},
	{Src: "bleeping-computer", URL: "https://www.bleepingcomputer.com/feed/", Weight: 0.68, Region: "Global"},
	{Src: "hacker-news-sec", URL: "https://feeds.feedburner.com/TheHackersNews", Weight: 0.62, Region: "Global"},
	{Src: "spacenews", URL: "https://spacenews.com/feed/", Weight: 0.7, Region: "Global"},
	{Src: "reliefweb", URL: "https://reliefweb.int/updates/rss.xml", Weight: 0.72, Region: "Global"},
	{Src: "un-news", URL: "https://news.un.org/feed/subscribe/en/news/all/rss.xml", Weight: 0.78, Region: "Global"},
	{Src: "gdacs", URL: "https://www.gdacs.org/xml/rss.xml", Weight: 0.8, Region: "Global"},
}

// List returns a copy of the feed registry.
func List() []domain.FeedSource {
	out := make([]domain.FeedSource, len(registry))
	copy(out, registry)
	return out
}

// Count returns the number of registered sources.
func Count() int {
	return len(registry)
}
