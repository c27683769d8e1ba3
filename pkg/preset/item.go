package preset

import "slices"

// Item is the read-only view the ranking engine needs of a preset.
// Implementations must not change while a search over them is running, and
// must be comparable: Search deduplicates results by Item value, so pointer
// types such as *Preset are the natural choice.
type Item interface {
	ID() string
	Name() string
	// Terms returns synonym terms, or nil when the preset has none.
	Terms() []string
	// Tags returns the preset's tag map, or nil when it has none.
	Tags() map[string]string
	// Searchable reports whether the preset takes part in name, term and tag
	// matching. Absent means true.
	Searchable() bool
	// Suggestion reports whether the preset belongs to the suggestion set.
	// Absent means false.
	Suggestion() bool
	OriginalScore() float64
	MatchGeometry(geometry string) bool
}

// Definition is the serialized form of a preset as stored in catalogs.
type Definition struct {
	ID         string            `toml:"id" yaml:"id" msgpack:"id"`
	Name       string            `toml:"name" yaml:"name" msgpack:"name"`
	Terms      []string          `toml:"terms,omitempty" yaml:"terms,omitempty" msgpack:"terms,omitempty"`
	Tags       map[string]string `toml:"tags,omitempty" yaml:"tags,omitempty" msgpack:"tags,omitempty"`
	Geometry   []string          `toml:"geometry,omitempty" yaml:"geometry,omitempty" msgpack:"geometry,omitempty"`
	Searchable *bool             `toml:"searchable,omitempty" yaml:"searchable,omitempty" msgpack:"searchable,omitempty"`
	Suggestion *bool             `toml:"suggestion,omitempty" yaml:"suggestion,omitempty" msgpack:"suggestion,omitempty"`
	MatchScore float64           `toml:"match_score,omitempty" yaml:"match_score,omitempty" msgpack:"match_score,omitempty"`
}

// Preset is the Item implementation backed by a Definition.
type Preset struct {
	def Definition
}

// New wraps a definition. The definition's slices and maps are shared, not
// copied; callers hand over ownership.
func New(def Definition) *Preset {
	return &Preset{def: def}
}

// Definition returns the serialized form of p.
func (p *Preset) Definition() Definition { return p.def }

func (p *Preset) ID() string              { return p.def.ID }
func (p *Preset) Name() string            { return p.def.Name }
func (p *Preset) Terms() []string         { return p.def.Terms }
func (p *Preset) Tags() map[string]string { return p.def.Tags }
func (p *Preset) OriginalScore() float64  { return p.def.MatchScore }

func (p *Preset) Searchable() bool {
	if p.def.Searchable == nil {
		return true
	}
	return *p.def.Searchable
}

func (p *Preset) Suggestion() bool {
	if p.def.Suggestion == nil {
		return false
	}
	return *p.def.Suggestion
}

// MatchGeometry reports whether geometry is one of the preset's geometries.
func (p *Preset) MatchGeometry(geometry string) bool {
	return slices.Contains(p.def.Geometry, geometry)
}

// Items converts presets into Items, keeping order.
func Items(presets []*Preset) []Item {
	items := make([]Item, len(presets))
	for i, p := range presets {
		items[i] = p
	}
	return items
}
