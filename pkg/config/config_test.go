package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bastiangx/presetserve/pkg/preset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	assert.Equal(t, 50, c.Search.MaxResults)
	assert.Equal(t, 10, c.Search.MaxSuggestions)
	assert.Equal(t, "point", c.Catalog.DefaultGeometry)

	col := preset.NewCollection(nil, c.CollectionOptions()...)
	assert.Equal(t, 50, col.MaxSearchResults())
	assert.Equal(t, 10, col.MaxSuggestionResults())
}

func TestInitConfigCreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", FileName)

	c, err := InitConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), c)
	assert.FileExists(t, path)

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), loaded)
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
[search]
max_results = 20
max_suggestions = 3

[catalog]
paths = ["a.toml", "dir/"]
default_geometry = "vertex"
`)

	c, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 20, c.Search.MaxResults)
	assert.Equal(t, 3, c.Search.MaxSuggestions)
	assert.Equal(t, []string{"a.toml", "dir/"}, c.Catalog.Paths)
	assert.Equal(t, "vertex", c.Catalog.DefaultGeometry)
	assert.Equal(t, DefaultConfig().Server, c.Server, "missing sections keep defaults")
}

func TestLoadConfigPartialRecovery(t *testing.T) {
	path := writeConfig(t, `
[search]
max_results = "lots"
max_suggestions = 4

[server]
workers = 8
cache_size = 0
announce_ready = true
`)

	c, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 50, c.Search.MaxResults, "bad value falls back")
	assert.Equal(t, 4, c.Search.MaxSuggestions)
	assert.Equal(t, 8, c.Server.Workers)
	assert.Zero(t, c.Server.CacheSize, "zero disables the result cache")
	assert.True(t, c.Server.AnnounceReady)
}

func TestLoadConfigUnparsable(t *testing.T) {
	path := writeConfig(t, "[search\nmax_results = 1")

	c, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), c)
}

func TestValidate(t *testing.T) {
	c := DefaultConfig()
	c.Search.MaxResults = 0
	c.Search.MaxSuggestions = -1
	c.Server.Workers = 0
	c.Catalog.DefaultGeometry = ""
	c.CLI.DefaultGeometry = ""

	c.Validate()
	assert.Equal(t, DefaultConfig(), c)

	c.Search.MaxSuggestions = 0
	c.Validate()
	assert.Zero(t, c.Search.MaxSuggestions, "zero suggestions is allowed")
}

func TestLoadConfigWithPriority(t *testing.T) {
	path := writeConfig(t, "[cli]\ndefault_limit = 5\n")

	c, used, err := LoadConfigWithPriority(path)
	require.NoError(t, err)
	assert.Equal(t, path, used)
	assert.Equal(t, 5, c.CLI.DefaultLimit)
}

func TestGetActiveConfigPath(t *testing.T) {
	assert.Equal(t, "builtin defaults", GetActiveConfigPath(""))
	assert.True(t, filepath.IsAbs(GetActiveConfigPath("config.toml")))
}
