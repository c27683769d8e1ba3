// Package catalog loads preset definitions from TOML, YAML and compiled
// msgpack files and indexes them by ID.
package catalog

import (
	"errors"
	"fmt"
	"slices"

	"github.com/bastiangx/presetserve/pkg/preset"
	"github.com/tchap/go-patricia/v2/patricia"
)

var (
	ErrEmptyID     = errors.New("preset without id")
	ErrDuplicateID = errors.New("duplicate preset id")
)

// Catalog is an immutable set of presets. IDs are kept in a patricia trie
// so families such as "amenity/" can be listed without a scan.
type Catalog struct {
	presets []*preset.Preset
	ids     *patricia.Trie // id -> position in presets
	sources []string
}

// New validates defs and builds a catalog in the given order.
func New(defs []preset.Definition) (*Catalog, error) {
	c := &Catalog{
		presets: make([]*preset.Preset, 0, len(defs)),
		ids:     patricia.NewTrie(),
	}
	for i, def := range defs {
		if def.ID == "" {
			return nil, fmt.Errorf("%w: entry %d (%q)", ErrEmptyID, i, def.Name)
		}
		if !c.ids.Insert(patricia.Prefix(def.ID), len(c.presets)) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, def.ID)
		}
		c.presets = append(c.presets, preset.New(def))
	}
	return c, nil
}

// Len returns the number of presets.
func (c *Catalog) Len() int { return len(c.presets) }

// Sources returns the files the catalog was loaded from, if any.
func (c *Catalog) Sources() []string { return slices.Clone(c.sources) }

// Definitions returns the definitions in catalog order.
func (c *Catalog) Definitions() []preset.Definition {
	defs := make([]preset.Definition, len(c.presets))
	for i, p := range c.presets {
		defs[i] = p.Definition()
	}
	return defs
}

// Get returns the preset with the given ID.
func (c *Catalog) Get(id string) (*preset.Preset, bool) {
	item := c.ids.Get(patricia.Prefix(id))
	if item == nil {
		return nil, false
	}
	return c.presets[item.(int)], true
}

// Collection returns every preset as a searchable collection.
func (c *Catalog) Collection(opts ...preset.Option) *preset.Collection {
	return preset.NewCollection(preset.Items(c.presets), opts...)
}

// IDs returns the IDs starting with prefix, in catalog order.
func (c *Catalog) IDs(prefix string) []string {
	positions := c.positions(prefix)
	ids := make([]string, len(positions))
	for i, pos := range positions {
		ids[i] = c.presets[pos].ID()
	}
	return ids
}

// Family returns the presets whose ID starts with prefix as a collection,
// in catalog order.
func (c *Catalog) Family(prefix string, opts ...preset.Option) *preset.Collection {
	positions := c.positions(prefix)
	items := make([]preset.Item, len(positions))
	for i, pos := range positions {
		items[i] = c.presets[pos]
	}
	return preset.NewCollection(items, opts...)
}

func (c *Catalog) positions(prefix string) []int {
	var positions []int
	// The visitor never returns an error.
	_ = c.ids.VisitSubtree(patricia.Prefix(prefix), func(_ patricia.Prefix, item patricia.Item) error {
		positions = append(positions, item.(int))
		return nil
	})
	slices.Sort(positions)
	return positions
}

// Stats returns counts about the loaded presets.
func (c *Catalog) Stats() map[string]int {
	stats := map[string]int{
		"presets":       len(c.presets),
		"suggestions":   0,
		"nonSearchable": 0,
		"sources":       len(c.sources),
	}
	for _, p := range c.presets {
		if p.Suggestion() {
			stats["suggestions"]++
		}
		if !p.Searchable() {
			stats["nonSearchable"]++
		}
	}
	return stats
}
