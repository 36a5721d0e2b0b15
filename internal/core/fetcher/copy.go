package fetcher

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ScriptExt marks files that are always made executable after copying.
const ScriptExt = ".sh"

// CopyTree merges every regular file below src into dest, overwriting files
// with the same relative path and leaving all other files in dest alone.
// It returns the number of files copied. When dest lies inside src, the
// dest subtree is not walked.
func CopyTree(src, dest string) (int, error) {
	if err := os.MkdirAll(dest, 0755); err != nil {
		return 0, fmt.Errorf("creating destination '%s': %w", dest, err)
	}
	destInfo, err := os.Stat(dest)
	if err != nil {
		return 0, fmt.Errorf("creating destination '%s': %w", dest, err)
	}

	copied := 0
	err = filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)

		if d.IsDir() {
			if info, err := d.Info(); err == nil && os.SameFile(info, destInfo) {
				return fs.SkipDir
			}
			return os.MkdirAll(target, 0755)
		}

		info, err := os.Stat(path) // follows symlinks
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		if err := copyFile(path, target, scriptMode(target, info.Mode().Perm())); err != nil {
			return err
		}
		copied++
		return nil
	})
	if err != nil {
		return copied, fmt.Errorf("failed to copy scripts from '%s': %w", src, err)
	}
	return copied, nil
}

func scriptMode(name string, mode fs.FileMode) fs.FileMode {
	if strings.HasSuffix(name, ScriptExt) {
		return 0755
	}
	return mode
}

// copyFile copies src to dst, creating parent directories, and sets mode on dst.
func copyFile(src, dst string, mode fs.FileMode) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source failed: %w", err)
	}
	defer func() { _ = in.Close() }()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("mkdir failed: %w", err)
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("create target failed: %w", err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy failed: %w", err)
	}
	// OpenFile only applies mode to new files.
	return os.Chmod(dst, mode)
}
