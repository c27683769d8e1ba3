package preset

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

// def builds a point preset; edit the returned value for anything else.
func def(id, name string) Definition {
	return Definition{ID: id, Name: name, Geometry: []string{"point"}}
}

func collectionOf(defs ...Definition) *Collection {
	items := make([]Item, len(defs))
	for i, d := range defs {
		items[i] = New(d)
	}
	return NewCollection(items)
}

func TestPresetDefaults(t *testing.T) {
	p := New(Definition{ID: "amenity/cafe", Name: "Cafe"})
	assert.True(t, p.Searchable(), "absent searchable means true")
	assert.False(t, p.Suggestion(), "absent suggestion means false")
	assert.Nil(t, p.Terms())
	assert.Nil(t, p.Tags())

	hidden := New(Definition{ID: "x", Searchable: boolPtr(false), Suggestion: boolPtr(true)})
	assert.False(t, hidden.Searchable())
	assert.True(t, hidden.Suggestion())
}

func TestPresetMatchGeometry(t *testing.T) {
	p := New(Definition{ID: "amenity/cafe", Geometry: []string{"point", "area"}})
	assert.True(t, p.MatchGeometry("point"))
	assert.True(t, p.MatchGeometry("area"))
	assert.False(t, p.MatchGeometry("line"))
}

func TestCollectionItem(t *testing.T) {
	c := collectionOf(def("a", "First"), def("b", "Second"), def("a", "Shadowed"))

	it, ok := c.Item("a")
	require.True(t, ok)
	assert.Equal(t, "First", it.Name(), "first match wins")

	it, ok = c.Item("missing")
	assert.False(t, ok)
	assert.Nil(t, it)
}

func TestCollectionMatchGeometry(t *testing.T) {
	line := def("highway/road", "Road")
	line.Geometry = []string{"line"}
	area := def("landuse/park", "Park")
	area.Geometry = []string{"area", "point"}

	c := collectionOf(def("amenity/cafe", "Cafe"), line, area)
	points := c.MatchGeometry("point")

	assert.Equal(t, []string{"amenity/cafe", "landuse/park"}, points.IDs())
	assert.Equal(t, 3, c.Len(), "source collection untouched")
	assert.Equal(t, c.MaxSearchResults(), points.MaxSearchResults())
	assert.Zero(t, c.MatchGeometry("relation").Len())
}

func TestNewCollectionCopiesItems(t *testing.T) {
	items := []Item{New(def("a", "A")), New(def("b", "B"))}
	c := NewCollection(items)
	items[0] = New(def("z", "Z"))

	assert.Equal(t, []string{"a", "b"}, c.IDs())

	out := c.Items()
	out[1] = nil
	assert.Equal(t, "b", c.At(1).ID())
}

func TestCollectionOptions(t *testing.T) {
	c := NewCollection(nil, WithMaxSearchResults(5), WithMaxSuggestionResults(0))
	assert.Equal(t, 5, c.MaxSearchResults())
	assert.Equal(t, 0, c.MaxSuggestionResults())

	c = NewCollection(nil, WithMaxSearchResults(0), WithMaxSuggestionResults(-1))
	assert.Equal(t, DefaultMaxSearchResults, c.MaxSearchResults())
	assert.Equal(t, DefaultMaxSuggestionResults, c.MaxSuggestionResults())
}

func TestSuggestionName(t *testing.T) {
	testCases := []struct {
		name        string
		expected    string
		description string
	}{
		{"Coffee Shop - Starbucks", "coffee shop", "family suffix stripped"},
		{"A - B - C", "a - b", "only the last segment dropped"},
		{"Starbucks", "starbucks", "no separator"},
		{"Co-op", "co-op", "hyphen without spaces is not a separator"},
		{"", "", "empty"},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			assert.Equal(t, tc.expected, suggestionName(tc.name))
		})
	}
}

func TestQueryLeading(t *testing.T) {
	q := newQuery("Car")

	testCases := []struct {
		s           string
		index       int
		ok          bool
		description string
	}{
		{"car wash", 0, true, "start of string"},
		{"electric car", 9, true, "after a space"},
		{"scar", -1, false, "inside a word"},
		{"scar car", -1, false, "only the first occurrence counts"},
		{"bus", -1, false, "absent"},
		{"café car", 5, true, "rune offset, not byte offset"},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			index, ok := q.leading(tc.s)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.index, index)
		})
	}
}

func TestQueryLeadingTagValue(t *testing.T) {
	q := newQuery("bak")
	assert.True(t, q.leadingTagValue(map[string]string{"shop": "bakery"}))
	assert.False(t, q.leadingTagValue(map[string]string{"shop": "cakebakery"}))
	assert.False(t, q.leadingTagValue(nil))

	wildcard := newQuery("*")
	assert.False(t, wildcard.leadingTagValue(map[string]string{"building": "*"}), "wildcard values never match")
}

func TestQuerySimilar(t *testing.T) {
	testCases := []struct {
		query       string
		s           string
		threshold   int
		ok          bool
		description string
	}{
		{"cafe", "caffe", similarThreshold, true, "one edit, equal footing"},
		{"cafe", "bank", similarThreshold, false, "four edits"},
		{"restaurant", "rest", similarThreshold, false, "query longer than name gets no allowance"},
		{"c", "lighthouse tower base", similarThreshold, true, "length gap is not counted as edits"},
		{"bak", "xbak", similarSuggestionThreshold, true, "suggestion: only the length gap"},
		{"bak", "bek", similarSuggestionThreshold, false, "suggestion: any real edit fails"},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			_, ok := newQuery(tc.query).similar(tc.s, tc.threshold)
			assert.Equal(t, tc.ok, ok)
		})
	}
}

func TestSearchEmptyQueryIsIdentity(t *testing.T) {
	c := collectionOf(def("point", "Point"), def("amenity/cafe", "Cafe"))
	for _, g := range []string{"point", "area", ""} {
		assert.Same(t, c, c.Search("", g))
	}
}

func TestSearchTierOrder(t *testing.T) {
	name := def("name", "Bakery")
	terms := def("terms", "Shop")
	terms.Terms = []string{"bakehouse"}
	tags := def("tags", "Store")
	tags.Tags = map[string]string{"shop": "bakery"}
	sugg := def("sugg", "Bakers Delight - Bakery")
	sugg.Suggestion = boolPtr(true)
	simName := def("sim-name", "Bek")
	simTerms := def("sim-terms", "Outlet")
	simTerms.Terms = []string{"bck"}
	simSugg := def("sim-sugg", "Xbak - Cafe")
	simSugg.Suggestion = boolPtr(true)

	c := collectionOf(simSugg, simTerms, simName, sugg, tags, terms, name)
	got := c.Search("bak", "point")

	assert.Equal(t,
		[]string{"name", "terms", "tags", "sugg", "sim-name", "sim-terms", "sim-sugg"},
		got.IDs())
}

func TestSearchLeadingNameOrdering(t *testing.T) {
	park := def("park", "Park")
	bench := def("bench", "Park Bench")
	bench.MatchScore = 1

	t.Run("exact name beats higher score", func(t *testing.T) {
		got := collectionOf(bench, park).Search("park", "point")
		assert.Equal(t, []string{"park", "bench"}, got.IDs())
	})

	t.Run("higher score first", func(t *testing.T) {
		got := collectionOf(park, bench).Search("PAR", "point")
		assert.Equal(t, []string{"bench", "park"}, got.IDs()[:2])
	})

	t.Run("earlier occurrence first", func(t *testing.T) {
		got := collectionOf(def("charger", "Electric Car Charger"), def("wash", "Car Wash")).Search("car", "point")
		assert.Equal(t, []string{"wash", "charger"}, got.IDs()[:2])
	})

	t.Run("shorter name first", func(t *testing.T) {
		got := collectionOf(def("stool", "Bar Stool"), def("bar", "Bar")).Search("ba", "point")
		assert.Equal(t, []string{"bar", "stool"}, got.IDs()[:2])
	})
}

func TestSearchDeduplicates(t *testing.T) {
	cafe := def("cafe", "Cafe")
	cafe.Terms = []string{"cafe", "coffee"}
	cafe.Tags = map[string]string{"amenity": "cafe"}
	other := def("caff", "Caff")

	got := collectionOf(other, cafe).Search("cafe", "point")
	assert.Equal(t, []string{"cafe", "caff"}, got.IDs())
}

func TestSearchDeduplicatesRepeatedItems(t *testing.T) {
	testCases := []struct {
		description string
		items       func() []Item
		query       string
		expected    []string
	}{
		{
			description: "same preset twice",
			items: func() []Item {
				p := New(def("cafe", "Cafe"))
				return []Item{p, p}
			},
			query:    "cafe",
			expected: []string{"cafe"},
		},
		{
			description: "repeated fallback outside the tiers",
			items: func() []Item {
				fb := New(Definition{ID: "point", Name: "Point", Geometry: []string{"point"}, Searchable: boolPtr(false)})
				return []Item{New(def("x", "Point of Interest")), fb, fb}
			},
			query:    "point",
			expected: []string{"x", "point"},
		},
		{
			description: "repeated fallback inside the tiers",
			items: func() []Item {
				fb := New(def("point", "Point"))
				return []Item{New(def("x", "Point of Interest")), fb, fb}
			},
			query:    "point",
			expected: []string{"point", "x"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			got := NewCollection(tc.items()).Search(tc.query, "point")
			assert.Equal(t, tc.expected, got.IDs())
		})
	}
}

func TestSearchCapsResults(t *testing.T) {
	defs := make([]Definition, 0, 61)
	for i := 1; i <= 60; i++ {
		defs = append(defs, def(fmt.Sprintf("shop/%02d", i), fmt.Sprintf("Shop %02d", i)))
	}

	got := collectionOf(defs...).Search("shop", "point")
	require.Equal(t, DefaultMaxSearchResults-1, got.Len())
	assert.Equal(t, "shop/01", got.At(0).ID())
	assert.Equal(t, "shop/49", got.At(48).ID())

	defs = append(defs, def("point", "Point"))
	got = collectionOf(defs...).Search("shop", "point")
	require.Equal(t, DefaultMaxSearchResults, got.Len())
	assert.Equal(t, "point", got.At(got.Len()-1).ID(), "fallback appended after the cap")

	small := NewCollection(collectionOf(defs...).Items(), WithMaxSearchResults(4))
	assert.Equal(t, []string{"shop/01", "shop/02", "shop/03", "point"}, small.Search("shop", "point").IDs())
}

func TestSearchSuggestions(t *testing.T) {
	starbucks := def("brand/starbucks", "Coffee Shop - Starbucks")
	starbucks.Suggestion = boolPtr(true)

	c := collectionOf(starbucks)
	assert.Equal(t, []string{"brand/starbucks"}, c.Search("Coffee", "point").IDs())
	assert.Equal(t, []string{"brand/starbucks"}, c.Search("shop", "point").IDs())
	assert.Zero(t, c.Search("starbucks", "point").Len(), "family suffix is not matched")
}

func TestSearchLeadingSuggestionOrdering(t *testing.T) {
	costaCoffee := def("costa-coffee", "Costa Coffee - Cafe")
	costaCoffee.Suggestion = boolPtr(true)
	costa := def("costa", "Costa - Cafe")
	costa.Suggestion = boolPtr(true)
	shop := def("shop", "Gift Costa - Shop")
	shop.Suggestion = boolPtr(true)

	got := collectionOf(shop, costaCoffee, costa).Search("costa", "point")
	assert.Equal(t, []string{"costa", "costa-coffee", "shop"}, got.IDs())
}

func TestSearchSuggestionCaps(t *testing.T) {
	var items []Item
	for i := 1; i <= 8; i++ {
		d := def(fmt.Sprintf("brand/%d", i), fmt.Sprintf("Brand %d - Cafe", i))
		d.Suggestion = boolPtr(true)
		items = append(items, New(d))
	}

	c := NewCollection(items, WithMaxSuggestionResults(0))
	got := c.Search("brand", "point")
	assert.Equal(t, []string{"brand/1", "brand/2", "brand/3", "brand/4", "brand/5"}, got.IDs())
}

func TestSearchSimilarName(t *testing.T) {
	got := collectionOf(def("bank", "bank"), def("caffe", "caffe")).Search("cafe", "point")
	assert.Equal(t, []string{"caffe"}, got.IDs())

	got = collectionOf(def("a", "cafx"), def("b", "cxfx"), def("c", "cafe")).Search("cafe", "point")
	assert.Equal(t, []string{"c", "a", "b"}, got.IDs(), "sorted by distance after the exact match")
}

func TestSearchGeometryFallback(t *testing.T) {
	c := collectionOf(def("amenity/cafe", "Cafe"), def("point", "Point"), def("line", "Line"))

	got := c.Search("zz_no_match", "point")
	assert.Equal(t, []string{"point"}, got.IDs())

	got = c.Search("point", "point")
	assert.Equal(t, []string{"point"}, got.IDs(), "fallback never repeated")

	assert.Zero(t, c.Search("zz_no_match", "vertex").Len())
}

func TestSearchNonSearchable(t *testing.T) {
	hidden := def("point", "Point")
	hidden.Searchable = boolPtr(false)
	hidden.Terms = []string{"point"}

	c := collectionOf(hidden, def("amenity/cafe", "Cafe"))
	assert.Zero(t, c.Search("point", "area").Len(), "excluded from every tier")
	assert.Equal(t, []string{"point"}, c.Search("point", "point").IDs(), "still reachable as fallback")
}

func TestSearchKeepsCollectionOrderInUnsortedTiers(t *testing.T) {
	alpha := def("alpha", "Alpha")
	alpha.Terms = []string{"shop"}
	beta := def("beta", "Beta")
	beta.Terms = []string{"shopping"}
	beta.MatchScore = 5
	gamma := def("gamma", "Gamma")
	gamma.Terms = []string{"shop"}
	gamma.MatchScore = 10

	got := collectionOf(alpha, beta, gamma).Search("shop", "point")
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, got.IDs())

	x := def("x", "X")
	x.Tags = map[string]string{"shop": "convenience"}
	y := def("y", "Y")
	y.Tags = map[string]string{"name": "corner convenience"}
	y.MatchScore = 3
	got = collectionOf(x, y).Search("convenience", "point")
	assert.Equal(t, []string{"x", "y"}, got.IDs())
}

func TestSearchIsChainable(t *testing.T) {
	cafe := def("amenity/cafe", "Cafe")
	cafeArea := def("amenity/cafe/area", "Cafe Area")
	cafeArea.Geometry = []string{"area"}
	c := collectionOf(cafe, cafeArea, def("amenity/toilets", "Toilets"))

	got := c.MatchGeometry("point").Search("caf", "point")
	assert.Equal(t, []string{"amenity/cafe"}, got.IDs())

	again := got.Search("cafe", "point").MatchGeometry("point")
	assert.Equal(t, []string{"amenity/cafe"}, again.IDs())
	assert.Equal(t, 3, c.Len())
}

func TestSearchConcurrentCallers(t *testing.T) {
	defs := make([]Definition, 0, 200)
	for i := 0; i < 200; i++ {
		defs = append(defs, def(fmt.Sprintf("p/%d", i), fmt.Sprintf("Preset %d", i)))
	}
	c := collectionOf(defs...)
	want := c.Search("preset 1", "point").IDs()

	var wg sync.WaitGroup
	results := make([][]string, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = c.Search("preset 1", "point").IDs()
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, want, got)
	}
}

func BenchmarkSearch(b *testing.B) {
	items := make([]Item, 0, 1000)
	for i := 0; i < 1000; i++ {
		d := def(fmt.Sprintf("p/%d", i), fmt.Sprintf("Preset Number %d", i))
		d.Terms = []string{"thing", fmt.Sprintf("alias %d", i)}
		items = append(items, New(d))
	}
	c := NewCollection(items)
	queries := []string{"pre", "preset 42", "alias", "thng", "zzz"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Search(queries[i%len(queries)], "point")
	}
}
