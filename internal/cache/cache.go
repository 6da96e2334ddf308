// Package cache owns the on-disk layout of a mirrored catalog:
//
//	{root}/{catalog}/metadata/{metadata file}
//	{root}/{catalog}/metadata/metadata.csv
//	{root}/{catalog}/waveform_data/{waveform file}
//
// Every "is it cached" decision goes through ExistsNonEmpty so that zero-byte
// files left by failed downloads count as misses. The layout is single-writer:
// two processes mirroring into the same root race on metadata.csv.
package cache

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Directory and file names under the catalog directory.
const (
	MetadataDirName = "metadata"
	WaveformDirName = "waveform_data"
	IndexFileName   = "metadata.csv"
)

// Cache addresses the files of one catalog under a cache root.
type Cache struct {
	root        string
	catalogDir  string
	metadataDir string
	waveformDir string
}

// New returns a Cache for catalog under root. Nothing is created on disk
// until EnsureLayout or a write.
func New(root, catalog string) *Cache {
	catalogDir := filepath.Join(root, catalog)
	return &Cache{
		root:        root,
		catalogDir:  catalogDir,
		metadataDir: filepath.Join(catalogDir, MetadataDirName),
		waveformDir: filepath.Join(catalogDir, WaveformDirName),
	}
}

// EnsureLayout creates the metadata and waveform directories.
func (c *Cache) EnsureLayout() error {
	for _, d := range []string{c.metadataDir, c.waveformDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", d, err)
		}
	}
	return nil
}

// Root returns the cache root.
func (c *Cache) Root() string { return c.root }

// CatalogDir returns the directory holding this catalog's files.
func (c *Cache) CatalogDir() string { return c.catalogDir }

// MetadataDir returns the metadata directory.
func (c *Cache) MetadataDir() string { return c.metadataDir }

// WaveformDir returns the waveform directory.
func (c *Cache) WaveformDir() string { return c.waveformDir }

// MetadataPath returns the local path of a metadata file.
func (c *Cache) MetadataPath(fileName string) string {
	return filepath.Join(c.metadataDir, fileName)
}

// WaveformPath returns the local path of a waveform file.
func (c *Cache) WaveformPath(fileName string) string {
	return filepath.Join(c.waveformDir, fileName)
}

// IndexPath returns the path of the consolidated index.
func (c *Cache) IndexPath() string {
	return filepath.Join(c.metadataDir, IndexFileName)
}

// ExistsNonEmpty reports whether path is a regular file with nonzero size.
func ExistsNonEmpty(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Size() > 0
}

// WriteMetadata stores lines as a metadata file unless a nonempty copy is
// already cached. It reports whether it wrote.
func (c *Cache) WriteMetadata(fileName string, lines []string) (bool, error) {
	path := c.MetadataPath(fileName)
	if ExistsNonEmpty(path) {
		return false, nil
	}
	if err := os.MkdirAll(c.metadataDir, 0o755); err != nil {
		return false, fmt.Errorf("creating %s: %w", c.metadataDir, err)
	}
	err := writeFileAtomic(path, func(w io.Writer) error {
		for _, l := range lines {
			if _, err := io.WriteString(w, l+"\n"); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// FindByPrefix returns the name of a cached, nonempty metadata file whose
// name is tag followed by '-' or '_'. When several match, the
// lexicographically smallest wins (os.ReadDir sorts by name). In practice a
// simulation index has a single metadata file upstream.
func (c *Cache) FindByPrefix(tag string) (string, bool, error) {
	entries, err := os.ReadDir(c.metadataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("listing %s: %w", c.metadataDir, err)
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !hasTagPrefix(name, tag) {
			continue
		}
		if ExistsNonEmpty(filepath.Join(c.metadataDir, name)) {
			return name, true, nil
		}
	}
	return "", false, nil
}

// hasTagPrefix requires a separator after the tag so that RIT:BBH:1000 does
// not match RIT:BBH:10005-n100-id0.
func hasTagPrefix(name, tag string) bool {
	rest, ok := strings.CutPrefix(name, tag)
	if !ok || rest == "" {
		return false
	}
	return rest[0] == '-' || rest[0] == '_'
}

// CountMetadataFiles returns the number of *.txt files in the metadata
// directory.
func (c *Cache) CountMetadataFiles() (int, error) {
	matches, err := filepath.Glob(filepath.Join(c.metadataDir, "*.txt"))
	if err != nil {
		return 0, err
	}
	return len(matches), nil
}
