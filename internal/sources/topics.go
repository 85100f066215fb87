package sources

import "strings"

// Topic is one entry of a keyword dictionary: a label plus the lowercase
// keywords that select it.
type Topic struct {
	Label    string   `json:"label"`
	Keywords []string `json:"keywords"`
}

// topics is the declarative topic dictionary. Order matters: matched labels
// preserve declaration order.
var topics = []Topic{
	{Label: "Armed Conflict", Keywords: []string{"war", "offensive", "airstrike", "air strike", "shelling", "missile strike", "frontline", "ceasefire", "invasion", "artillery"}},
	{Label: "Terrorism", Keywords: []string{"terror", "suicide bomb", "ied", "extremist", "insurgent", "hostage"}},
	{Label: "Cyber", Keywords: []string{"cyber", "ransomware", "malware", "phishing", "data breach", "zero-day", "botnet", "ddos"}},
	{Label: "Nuclear/WMD", Keywords: []string{"nuclear", "enrichment", "warhead", "ballistic", "icbm", "chemical weapon", "proliferation"}},
	{Label: "PRC/China", Keywords: []string{"china", "chinese", "beijing", "prc", "pla ", "taiwan strait"}},
	{Label: "Russia/Ukraine", Keywords: []string{"russia", "russian", "ukraine", "ukrainian", "kremlin", "moscow", "kyiv"}},
	{Label: "Middle East", Keywords: []string{"israel", "gaza", "hezbollah", "iran", "houthi", "red sea", "west bank"}},
	{Label: "DPRK", Keywords: []string{"north korea", "dprk", "pyongyang"}},
	{Label: "Space/EO", Keywords: []string{"satellite", "launch vehicle", "orbital", "spacecraft", "rocket launch", "space station", "reconnaissance satellite"}},
	{Label: "Sanctions/Trade", Keywords: []string{"sanction", "export control", "tariff", "embargo", "trade war", "blacklist"}},
	{Label: "Energy", Keywords: []string{"pipeline", "oil price", "opec", "lng", "refinery", "power grid"}},
	{Label: "Elections", Keywords: []string{"election", "ballot", "polls open", "presidential race", "coup", "referendum"}},
	{Label: "Disaster", Keywords: []string{"earthquake", "flood", "hurricane", "typhoon", "wildfire", "tsunami", "volcano", "landslide"}},
	{Label: "Health", Keywords: []string{"outbreak", "pandemic", "epidemic", "cholera", "ebola", "avian flu", "who declares"}},
	{Label: "Migration", Keywords: []string{"refugee", "migrant", "asylum", "displacement", "border crossing"}},
	{Label: "Maritime", Keywords: []string{"naval", "warship", "tanker", "strait of hormuz", "south china sea", "piracy", "coast guard"}},
	{Label: "Aviation", Keywords: []string{"airspace", "fighter jet", "drone strike", "uav", "airliner", "no-fly"}},
	{Label: "Economy", Keywords: []string{"inflation", "recession", "central bank", "default", "currency crisis", "imf"}},
	{Label: "Diplomacy", Keywords: []string{"summit", "treaty", "ambassador", "bilateral", "security council", "peace talks"}},
	{Label: "Intelligence", Keywords: []string{"espionage", "spy", "intelligence agency", "covert", "surveillance", "leaked documents"}},
}

// Topics returns the topic dictionary in declaration order.
func Topics() []Topic {
	out := make([]Topic, len(topics))
	copy(out, topics)
	return out
}

// TopicLabels returns the label set, used by zero-shot classification.
func TopicLabels() []string {
	labels := make([]string, len(topics))
	for i, t := range topics {
		labels[i] = t.Label
	}
	return labels
}

// MatchTopics returns the labels whose keywords appear in the haystack.
// Matching is case-insensitive substring; results preserve declaration
// order and are deduplicated.
func MatchTopics(haystack string) []string {
	return matchDictionary(topics, strings.ToLower(haystack))
}

func matchDictionary(dict []Topic, haystack string) []string {
	var labels []string
	for _, entry := range dict {
		for _, kw := range entry.Keywords {
			if strings.Contains(haystack, kw) {
				labels = append(labels, entry.Label)
				break
			}
		}
	}
	return labels
}
