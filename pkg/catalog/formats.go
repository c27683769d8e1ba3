package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/bastiangx/presetserve/pkg/preset"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

// ErrUnknownFormat is returned for files whose extension names no catalog format.
var ErrUnknownFormat = errors.New("unknown catalog format")

// FileFormat represents the catalog encodings
type FileFormat int

const (
	FormatUnknown FileFormat = iota
	FormatTOML
	FormatYAML
	FormatMsgpack
)

// msgpackVersion is written into compiled catalogs and checked on load.
const msgpackVersion = 1

// FormatInfo describes a catalog format
type FormatInfo struct {
	Format      FileFormat
	Description string
	Extensions  []string
}

var supportedFormats = map[FileFormat]FormatInfo{
	FormatTOML: {
		Format:      FormatTOML,
		Description: "TOML preset catalog",
		Extensions:  []string{".toml"},
	},
	FormatYAML: {
		Format:      FormatYAML,
		Description: "YAML preset catalog",
		Extensions:  []string{".yaml", ".yml"},
	},
	FormatMsgpack: {
		Format:      FormatMsgpack,
		Description: "Compiled msgpack preset catalog",
		Extensions:  []string{".msgpack", ".mpk"},
	},
}

func (f FileFormat) String() string {
	if info, ok := supportedFormats[f]; ok {
		return info.Description
	}
	return "unknown"
}

// file is the on-disk shape shared by every format.
type file struct {
	Version int                 `toml:"version,omitempty" yaml:"version,omitempty" msgpack:"v"`
	Presets []preset.Definition `toml:"presets" yaml:"presets" msgpack:"presets"`
}

// DetectFileFormat maps a file name to its catalog format by extension.
func DetectFileFormat(filename string) (FileFormat, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	for format, info := range supportedFormats {
		if slices.Contains(info.Extensions, ext) {
			return format, nil
		}
	}
	return FormatUnknown, fmt.Errorf("%w: %s", ErrUnknownFormat, filename)
}

// decode parses data in the given format.
func decode(format FileFormat, data []byte) ([]preset.Definition, error) {
	var f file
	switch format {
	case FormatTOML:
		if _, err := toml.Decode(string(data), &f); err != nil {
			return nil, err
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
	case FormatMsgpack:
		if err := msgpack.Unmarshal(data, &f); err != nil {
			return nil, err
		}
		if f.Version != msgpackVersion {
			return nil, fmt.Errorf("unsupported msgpack catalog version %d", f.Version)
		}
	default:
		return nil, ErrUnknownFormat
	}
	return f.Presets, nil
}

// WriteMsgpack compiles definitions into a msgpack catalog at path.
func WriteMsgpack(path string, defs []preset.Definition) error {
	data, err := msgpack.Marshal(file{Version: msgpackVersion, Presets: defs})
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write catalog %s: %w", path, err)
	}
	return nil
}
