package catalog

import (
	"fmt"
	"os"

	"github.com/bastiangx/presetserve/pkg/preset"
	"github.com/charmbracelet/log"
)

// Load reads preset definitions from one catalog file.
func Load(path string) ([]preset.Definition, error) {
	format, err := DetectFileFormat(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	defs, err := decode(format, data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s (%s): %w", path, format, err)
	}
	log.Debugf("Loaded %d presets from %s", len(defs), path)
	return defs, nil
}

// LoadAll loads every file in order and builds a Catalog from the
// concatenated definitions.
func LoadAll(paths ...string) (*Catalog, error) {
	var defs []preset.Definition
	for _, path := range paths {
		loaded, err := Load(path)
		if err != nil {
			return nil, err
		}
		defs = append(defs, loaded...)
	}

	c, err := New(defs)
	if err != nil {
		return nil, err
	}
	c.sources = append([]string(nil), paths...)
	return c, nil
}
