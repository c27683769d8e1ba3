package preset

import "github.com/charmbracelet/log"

const (
	// DefaultMaxSearchResults caps a search result, geometry fallback included.
	DefaultMaxSearchResults = 50
	// DefaultMaxSuggestionResults caps the similar_suggestions tier.
	// leading_suggestions is allowed 5 more.
	DefaultMaxSuggestionResults = 10
)

// Collection is an immutable ordered list of presets.
type Collection struct {
	items                []Item
	maxSearchResults     int
	maxSuggestionResults int
}

// Option configures a Collection.
type Option func(*Collection)

// WithMaxSearchResults overrides DefaultMaxSearchResults. Non-positive values are ignored.
func WithMaxSearchResults(n int) Option {
	return func(c *Collection) {
		if n <= 0 {
			log.Warnf("Ignoring max search results %d, keeping %d", n, c.maxSearchResults)
			return
		}
		c.maxSearchResults = n
	}
}

// WithMaxSuggestionResults overrides DefaultMaxSuggestionResults. Negative values are ignored.
func WithMaxSuggestionResults(n int) Option {
	return func(c *Collection) {
		if n < 0 {
			log.Warnf("Ignoring max suggestion results %d, keeping %d", n, c.maxSuggestionResults)
			return
		}
		c.maxSuggestionResults = n
	}
}

// NewCollection creates a collection over a copy of items.
func NewCollection(items []Item, opts ...Option) *Collection {
	c := &Collection{
		items:                append([]Item(nil), items...),
		maxSearchResults:     DefaultMaxSearchResults,
		maxSuggestionResults: DefaultMaxSuggestionResults,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// derive builds a collection sharing c's limits. items must not be retained by the caller.
func (c *Collection) derive(items []Item) *Collection {
	return &Collection{
		items:                items,
		maxSearchResults:     c.maxSearchResults,
		maxSuggestionResults: c.maxSuggestionResults,
	}
}

// Len returns the number of presets in c.
func (c *Collection) Len() int { return len(c.items) }

// At returns the i-th preset.
func (c *Collection) At(i int) Item { return c.items[i] }

// Items returns a copy of the presets in order.
func (c *Collection) Items() []Item {
	return append([]Item(nil), c.items...)
}

// IDs returns the preset IDs in order.
func (c *Collection) IDs() []string {
	ids := make([]string, len(c.items))
	for i, it := range c.items {
		ids[i] = it.ID()
	}
	return ids
}

// MaxSearchResults returns the result cap used by Search.
func (c *Collection) MaxSearchResults() int { return c.maxSearchResults }

// MaxSuggestionResults returns the suggestion cap used by Search.
func (c *Collection) MaxSuggestionResults() int { return c.maxSuggestionResults }

// Item returns the first preset whose ID is id.
func (c *Collection) Item(id string) (Item, bool) {
	if pos, ok := c.index(id); ok {
		return c.items[pos], true
	}
	return nil, false
}

func (c *Collection) index(id string) (int, bool) {
	for i, it := range c.items {
		if it.ID() == id {
			return i, true
		}
	}
	return -1, false
}

// MatchGeometry returns the presets that apply to geometry, in order.
func (c *Collection) MatchGeometry(geometry string) *Collection {
	matched := make([]Item, 0, len(c.items))
	for _, it := range c.items {
		if it.MatchGeometry(geometry) {
			matched = append(matched, it)
		}
	}
	return c.derive(matched)
}
