package preset

import (
	"cmp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/bastiangx/presetserve/pkg/distance"
	"github.com/charmbracelet/log"
)

const (
	// Edit distance (adjusted for length) must stay below these.
	similarThreshold           = 3
	similarSuggestionThreshold = 1

	suggestionSeparator = " - "
	wildcardTagValue    = "*"

	// leading_suggestions may use this many slots above the suggestion cap.
	leadingSuggestionSlack = 5
)

// nameMatch is a leading_name or leading_suggestions candidate.
type nameMatch struct {
	pos     int
	exact   bool
	score   float64
	index   int // rune offset of the query in the compared name
	nameLen int
}

// similarMatch is a similar_name or similar_suggestions candidate.
type similarMatch struct {
	pos  int
	dist int
}

// query holds the case-folded search value.
type query struct {
	value string
	runes int
}

func newQuery(value string) query {
	value = strings.ToLower(value)
	return query{value: value, runes: utf8.RuneCountInString(value)}
}

// leading reports whether the first occurrence of the query in s starts s or
// follows a space. The rune offset of that occurrence is returned as well.
func (q query) leading(s string) (int, bool) {
	i := strings.Index(s, q.value)
	if i < 0 {
		return -1, false
	}
	if i == 0 || s[i-1] == ' ' {
		return utf8.RuneCountInString(s[:i]), true
	}
	return -1, false
}

func (q query) leadingAny(values []string) bool {
	for _, v := range values {
		if _, ok := q.leading(v); ok {
			return true
		}
	}
	return false
}

// similar computes the edit distance to s and whether it passes threshold
// once names longer than the query are penalised.
func (q query) similar(s string, threshold int) (int, bool) {
	d := distance.Levenshtein(q.value, s)
	return d, d+min(q.runes-utf8.RuneCountInString(s), 0) < threshold
}

func (q query) similarAny(values []string) bool {
	for _, v := range values {
		if _, ok := q.similar(v, similarThreshold); ok {
			return true
		}
	}
	return false
}

// suggestionName strips the trailing " - " segment of a suggestion name and
// case-folds the rest.
func suggestionName(name string) string {
	parts := strings.Split(name, suggestionSeparator)
	if len(parts) > 1 {
		name = strings.Join(parts[:len(parts)-1], suggestionSeparator)
	}
	return strings.ToLower(name)
}

func compareLeadingName(a, b nameMatch) int {
	if a.exact != b.exact {
		if a.exact {
			return -1
		}
		return 1
	}
	if c := cmp.Compare(b.score, a.score); c != 0 {
		return c
	}
	if c := cmp.Compare(a.index, b.index); c != 0 {
		return c
	}
	return cmp.Compare(a.nameLen, b.nameLen)
}

func compareLeadingSuggestion(a, b nameMatch) int {
	if c := cmp.Compare(a.index, b.index); c != 0 {
		return c
	}
	return cmp.Compare(a.nameLen, b.nameLen)
}

func compareSimilar(a, b similarMatch) int {
	return cmp.Compare(a.dist, b.dist)
}

// Search ranks the collection against value and returns the matches as a new
// Collection. An empty value returns c itself. geometry names the fallback
// preset appended to every non-empty search.
func (c *Collection) Search(value, geometry string) *Collection {
	if value == "" {
		return c
	}
	q := newQuery(value)

	var searchable, suggestions []int
	for i, it := range c.items {
		switch {
		case it.Suggestion():
			suggestions = append(suggestions, i)
		case it.Searchable():
			searchable = append(searchable, i)
		}
	}

	var (
		leadingName       []nameMatch
		leadingTerms      []int
		leadingTagValues  []int
		similarName       []similarMatch
		similarTerms      []int
		leadingSuggestion []nameMatch
		similarSuggestion []similarMatch
	)

	for _, pos := range searchable {
		it := c.items[pos]
		name := it.Name()
		folded := strings.ToLower(name)

		if idx, ok := q.leading(folded); ok {
			leadingName = append(leadingName, nameMatch{
				pos:     pos,
				exact:   folded == q.value,
				score:   it.OriginalScore(),
				index:   idx,
				nameLen: utf8.RuneCountInString(name),
			})
		}
		if q.leadingAny(it.Terms()) {
			leadingTerms = append(leadingTerms, pos)
		}
		if q.leadingTagValue(it.Tags()) {
			leadingTagValues = append(leadingTagValues, pos)
		}
		if d, ok := q.similar(name, similarThreshold); ok {
			similarName = append(similarName, similarMatch{pos: pos, dist: d})
		}
		if q.similarAny(it.Terms()) {
			similarTerms = append(similarTerms, pos)
		}
	}

	for _, pos := range suggestions {
		name := suggestionName(c.items[pos].Name())

		if idx, ok := q.leading(name); ok {
			leadingSuggestion = append(leadingSuggestion, nameMatch{
				pos:     pos,
				index:   idx,
				nameLen: utf8.RuneCountInString(name),
			})
		}
		if d, ok := q.similar(name, similarSuggestionThreshold); ok {
			similarSuggestion = append(similarSuggestion, similarMatch{pos: pos, dist: d})
		}
	}

	slices.SortStableFunc(leadingName, compareLeadingName)
	slices.SortStableFunc(leadingSuggestion, compareLeadingSuggestion)
	slices.SortStableFunc(similarName, compareSimilar)
	slices.SortStableFunc(similarSuggestion, compareSimilar)

	log.Debug("Ranked presets",
		"query", q.value,
		"leading_name", len(leadingName),
		"leading_terms", len(leadingTerms),
		"leading_tag_values", len(leadingTagValues),
		"leading_suggestions", len(leadingSuggestion),
		"similar_name", len(similarName),
		"similar_terms", len(similarTerms),
		"similar_suggestions", len(similarSuggestion))

	results := make([]int, 0, c.maxSearchResults)
	results = appendNameMatches(results, leadingName, -1)
	results = append(results, leadingTerms...)
	results = append(results, leadingTagValues...)
	results = appendNameMatches(results, leadingSuggestion, c.maxSuggestionResults+leadingSuggestionSlack)
	results = appendSimilarMatches(results, similarName, -1)
	results = append(results, similarTerms...)
	results = appendSimilarMatches(results, similarSuggestion, c.maxSuggestionResults)

	if limit := max(c.maxSearchResults-1, 0); len(results) > limit {
		results = results[:limit]
	}
	if pos, ok := c.index(geometry); ok {
		results = append(results, pos)
	}

	return c.derive(c.unique(results))
}

func (q query) leadingTagValue(tags map[string]string) bool {
	for _, v := range tags {
		if v == wildcardTagValue {
			continue
		}
		if _, ok := q.leading(v); ok {
			return true
		}
	}
	return false
}

// unique resolves positions to items, keeping the first occurrence of each
// item. The same item may sit at several positions.
func (c *Collection) unique(positions []int) []Item {
	seen := make(map[Item]struct{}, len(positions))
	items := make([]Item, 0, len(positions))
	for _, pos := range positions {
		it := c.items[pos]
		if _, ok := seen[it]; ok {
			continue
		}
		seen[it] = struct{}{}
		items = append(items, it)
	}
	return items
}

// appendNameMatches appends at most limit positions; a negative limit means all.
func appendNameMatches(dst []int, matches []nameMatch, limit int) []int {
	if limit >= 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	for _, m := range matches {
		dst = append(dst, m.pos)
	}
	return dst
}

// appendSimilarMatches appends at most limit positions; a negative limit means all.
func appendSimilarMatches(dst []int, matches []similarMatch, limit int) []int {
	if limit >= 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	for _, m := range matches {
		dst = append(dst, m.pos)
	}
	return dst
}
