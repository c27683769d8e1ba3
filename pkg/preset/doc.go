/*
Package preset ranks a fixed collection of map feature presets against a typed
query and returns a short, deduplicated list suitable for autocomplete.

A Collection is an immutable, ordered list of Items. Every operation returns a
new Collection, so calls can be chained and a single Collection can be shared
between goroutines without locking:

	results := presets.MatchGeometry("point").Search("cafe", "point")

# Ranking

Search does not score presets on a single scale. It runs seven independent
passes (tiers) and concatenates their output in a fixed order:

	leading_name         query starts the name or a word in it
	leading_terms        query starts a synonym term or a word in it
	leading_tag_values   query starts a tag value (wildcard "*" ignored)
	leading_suggestions  as leading_name, for suggestion presets
	similar_name         name within a small edit distance of the query
	similar_terms        a term within a small edit distance of the query
	similar_suggestions  derived suggestion name within edit distance 0

Only leading_name, leading_suggestions and the two similar name tiers are
sorted; the other tiers keep collection order. The merged list is capped,
the geometry fallback preset (the Item whose ID equals the geometry) is
appended, and duplicates are dropped keeping the first occurrence.

# Suggestions

Items flagged as suggestions (brand presets and similar) are matched on a
derived name: "Coffee Shop - Starbucks" is compared as "coffee shop", i.e. the
trailing " - " segment is stripped before matching.
*/
package preset
