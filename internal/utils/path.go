package utils

import (
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
)

const appDir = "presetserve"

// CatalogExtensions lists the file extensions recognised as preset catalogs.
var CatalogExtensions = []string{".toml", ".yaml", ".yml", ".msgpack", ".mpk"}

// PathResolver resolves config and catalog locations for the binary.
type PathResolver struct {
	executableDir string
	homeDir       string
	configDir     string
}

// NewPathResolver determines the executable location and config directory.
func NewPathResolver() (*PathResolver, error) {
	execPath, err := os.Executable()
	if err != nil {
		return nil, err
	}
	execPath, err = filepath.EvalSymlinks(execPath)
	if err != nil {
		return nil, err
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Warnf("Could not determine home directory: %v", err)
		homeDir = os.TempDir()
	}

	pr := &PathResolver{
		executableDir: filepath.Dir(execPath),
		homeDir:       homeDir,
		configDir:     configDir(homeDir),
	}
	log.Debugf("PathResolver initialized: execDir=%s, configDir=%s", pr.executableDir, pr.configDir)
	return pr, nil
}

// configDir returns the platform config directory for presetserve.
func configDir(homeDir string) string {
	switch runtime.GOOS {
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, appDir)
		}
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, appDir)
		}
	}
	return filepath.Join(homeDir, ".config", appDir)
}

// ResolveCatalogs expands each entry into catalog files. Directories are
// scanned (non-recursively) for files with a CatalogExtensions suffix, in
// lexical order; relative paths are tried against the working directory,
// then the executable directory, then the config directory.
func (pr *PathResolver) ResolveCatalogs(entries []string) []string {
	var files []string
	for _, entry := range entries {
		path, ok := pr.locate(entry)
		if !ok {
			log.Warnf("Catalog path not found: %s", entry)
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if !info.IsDir() {
			files = append(files, path)
			continue
		}
		found := CatalogFiles(path)
		if len(found) == 0 {
			log.Warnf("No catalog files in %s", path)
		}
		files = append(files, found...)
	}
	return files
}

func (pr *PathResolver) locate(entry string) (string, bool) {
	if filepath.IsAbs(entry) {
		return entry, FileExists(entry)
	}
	var bases []string
	if cwd, err := os.Getwd(); err == nil {
		bases = append(bases, cwd)
	}
	bases = append(bases, pr.executableDir, pr.configDir)

	for _, base := range bases {
		candidate := filepath.Join(base, entry)
		if FileExists(candidate) {
			log.Debugf("Resolved catalog %s -> %s", entry, candidate)
			return candidate, true
		}
	}
	return entry, false
}

// CatalogFiles lists catalog files directly inside dir, sorted by name.
func CatalogFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Debugf("Cannot read catalog dir %s: %v", dir, err)
		return nil
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if slices.Contains(CatalogExtensions, strings.ToLower(filepath.Ext(e.Name()))) {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	return files
}
