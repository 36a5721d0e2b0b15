package fetcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// LocalFetcher copies scripts from a directory or a single file on disk.
type LocalFetcher struct {
	Path string
	opts Options
}

// Fetch copies Path into dest. A directory contributes its install
// subdirectory when one exists, otherwise its whole contents. A single file
// is copied into dest as an executable.
func (l *LocalFetcher) Fetch(_ context.Context, dest string) (*Result, error) {
	info, err := os.Stat(l.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, l.Path)
		}
		return nil, err
	}

	if !info.IsDir() {
		if err := copyFile(l.Path, filepath.Join(dest, filepath.Base(l.Path)), 0755); err != nil {
			return nil, fmt.Errorf("failed to copy '%s': %w", l.Path, err)
		}
		return &Result{Files: 1}, nil
	}

	src := l.Path
	if sub, err := os.Stat(filepath.Join(l.Path, InstallDirName)); err == nil && sub.IsDir() {
		src = filepath.Join(l.Path, InstallDirName)
	}
	l.opts.Logger.Debug("copying local scripts", "from", src, "to", dest)

	n, err := CopyTree(src, dest)
	return &Result{Files: n}, err
}
