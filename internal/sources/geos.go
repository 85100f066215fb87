package sources

import "strings"

// geos is the declarative geo dictionary. The geo haystack includes the
// source region, so a regional feed tags its own geography even when the
// text names no place.
var geos = []Topic{
	{Label: "Asia", Keywords: []string{"china", "beijing", "taiwan", "japan", "tokyo", "korea", "india", "pakistan", "philippines", "vietnam", "indonesia", "asia"}},
	{Label: "Europe", Keywords: []string{"europe", "ukraine", "russia", "germany", "france", "poland", "united kingdom", "britain", "balkans", "brussels", "nato"}},
	{Label: "Middle East", Keywords: []string{"israel", "gaza", "iran", "iraq", "syria", "lebanon", "saudi", "yemen", "qatar", "middle east"}},
	{Label: "Africa", Keywords: []string{"africa", "nigeria", "ethiopia", "sudan", "sahel", "kenya", "congo", "somalia", "libya", "mali"}},
	{Label: "Americas", Keywords: []string{"united states", "washington", "canada", "mexico", "brazil", "venezuela", "argentina", "colombia", "americas", "latin america"}},
	{Label: "Oceania", Keywords: []string{"australia", "new zealand", "pacific islands", "papua", "oceania"}},
	{Label: "Arctic", Keywords: []string{"arctic", "svalbard", "northern sea route", "greenland"}},
}

// geoBuckets groups geo labels under coarse regions for the dashboard.
var geoBuckets = map[string][]string{
	"East":   {"Asia", "Oceania"},
	"West":   {"Europe", "Americas"},
	"South":  {"Africa", "Middle East"},
	"Polar":  {"Arctic"},
	"Global": {"Asia", "Europe", "Middle East", "Africa", "Americas", "Oceania", "Arctic"},
}

// Geos returns the geo dictionary in declaration order.
func Geos() []Topic {
	out := make([]Topic, len(geos))
	copy(out, geos)
	return out
}

// GeoBuckets returns the region-to-geo-label grouping.
func GeoBuckets() map[string][]string {
	out := make(map[string][]string, len(geoBuckets))
	for k, v := range geoBuckets {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// MatchGeos returns the geo labels whose keywords appear in the haystack.
func MatchGeos(haystack string) []string {
	return matchDictionary(geos, strings.ToLower(haystack))
}
