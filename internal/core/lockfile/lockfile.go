// Package lockfile records which source populated each install root.
package lockfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/BurntSushi/toml"
)

// APIVersion is written into every ledger.
const APIVersion = "1"

// SourceEntry describes the last successful fetch into one root.
type SourceEntry struct {
	URL       string    `toml:"url"`
	Kind      string    `toml:"kind"`
	Path      string    `toml:"path"`
	Revision  string    `toml:"revision,omitempty"`
	Digest    string    `toml:"digest,omitempty"`
	Files     int       `toml:"files"`
	UpdatedAt time.Time `toml:"updated_at"`
}

// Lockfile is the on-disk ledger, keyed by root name ("install" or "@repo").
type Lockfile struct {
	ApiVersion string                 `toml:"api_version"`
	Source     map[string]SourceEntry `toml:"source"`
}

// New returns an empty ledger.
func New() *Lockfile {
	return &Lockfile{
		ApiVersion: APIVersion,
		Source:     make(map[string]SourceEntry),
	}
}

// Load reads the ledger at path. A missing file yields an empty ledger.
func Load(path string) (*Lockfile, error) {
	lf := New()
	if _, err := toml.DecodeFile(path, lf); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return New(), nil
		}
		return nil, fmt.Errorf("loading %s: %w", filepath.Base(path), err)
	}
	if lf.Source == nil {
		lf.Source = make(map[string]SourceEntry)
	}
	if lf.ApiVersion == "" {
		lf.ApiVersion = APIVersion
	}
	return lf, nil
}

// Save writes the ledger to path, creating parent directories.
func Save(path string, lf *Lockfile) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", filepath.Base(path), err)
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Base(path), err)
	}
	defer func() { _ = out.Close() }()

	if err := toml.NewEncoder(out).Encode(lf); err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}
	return out.Close()
}

// Record adds or replaces the entry for root.
func (lf *Lockfile) Record(root string, entry SourceEntry) {
	if lf.Source == nil {
		lf.Source = make(map[string]SourceEntry)
	}
	lf.Source[root] = entry
}

// Roots returns the recorded root names in sorted order.
func (lf *Lockfile) Roots() []string {
	roots := make([]string, 0, len(lf.Source))
	for name := range lf.Source {
		roots = append(roots, name)
	}
	sort.Strings(roots)
	return roots
}
