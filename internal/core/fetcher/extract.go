package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip"
)

var (
	zipMagic      = []byte("PK\x03\x04")
	sevenZipMagic = []byte{'7', 'z', 0xBC, 0xAF, 0x27, 0x1C}
)

type extractor struct {
	name string
	args func(archive, dest string) []string
}

var (
	unzipTool = extractor{"unzip", func(archive, dest string) []string {
		return []string{"-q", "-o", archive, "-d", dest}
	}}
	tarTool = extractor{"tar", func(archive, dest string) []string {
		return []string{"-xf", archive, "-C", dest}
	}}
)

// extract unpacks archive into dest. 7z archives are read in-process; all
// other formats go through the first available system tool, preferring
// unzip for zip files and tar for everything else.
func (a *ArchiveFetcher) extract(ctx context.Context, archive, dest string) error {
	head, err := readHead(archive, len(sevenZipMagic))
	if err != nil {
		return err
	}
	if bytes.HasPrefix(head, sevenZipMagic) {
		a.opts.Logger.Debug("extracting 7z archive in-process")
		return extract7z(archive, dest)
	}

	tools := []extractor{tarTool, unzipTool}
	if bytes.HasPrefix(head, zipMagic) {
		tools = []extractor{unzipTool, tarTool}
	}

	for _, tool := range tools {
		bin, err := a.opts.LookPath(tool.name)
		if err != nil {
			a.opts.Logger.Debug("extractor unavailable", "tool", tool.name)
			continue
		}
		a.opts.Logger.Debug("extracting archive", "tool", tool.name)
		if _, err := runCommand(ctx, nil, bin, tool.args(archive, dest)...); err != nil {
			return fmt.Errorf("failed to extract archive: %w", err)
		}
		return nil
	}
	return ErrNoExtractor
}

func readHead(path string, n int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	defer func() { _ = f.Close() }()

	buf := make([]byte, n)
	read, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("reading archive header: %w", err)
	}
	return buf[:read], nil
}

// extract7z unpacks a .7z archive, rejecting entries that escape dest.
func extract7z(src, dest string) error {
	r, err := sevenzip.OpenReader(src)
	if err != nil {
		return fmt.Errorf("failed to open 7z archive: %w", err)
	}
	defer func() { _ = r.Close() }()

	for _, f := range r.File {
		path, err := safeJoin(dest, f.Name)
		if err != nil {
			return err
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(path, 0755); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return err
		}
		if err := writeEntry(f, path); err != nil {
			return fmt.Errorf("extracting %s: %w", f.Name, err)
		}
	}
	return nil
}

func writeEntry(f *sevenzip.File, path string) (err error) {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()

	mode := f.Mode().Perm()
	if mode == 0 {
		mode = 0644
	}
	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	_, err = io.Copy(out, rc)
	return err
}

func safeJoin(root, name string) (string, error) {
	path := filepath.Join(root, filepath.FromSlash(name))
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive entry %q escapes extraction directory", name)
	}
	return path, nil
}
