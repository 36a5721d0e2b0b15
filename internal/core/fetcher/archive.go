package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/jedisct1/go-minisign"

	"github.com/toru-nakai/nmsi/internal/core/hasher"
)

// SignatureSuffix is appended to an archive URL to locate its minisign signature.
const SignatureSuffix = ".minisig"

// ArchiveFetcher downloads an archive over HTTP(S), extracts it and copies
// the first install directory found inside.
type ArchiveFetcher struct {
	URL  string
	opts Options
}

// Fetch downloads, optionally verifies, extracts and copies the archive.
func (a *ArchiveFetcher) Fetch(ctx context.Context, dest string) (*Result, error) {
	scratch, err := a.opts.scratchDir("nmsi-archive-")
	if err != nil {
		return nil, err
	}
	defer func() { _ = os.RemoveAll(scratch) }()

	archivePath := filepath.Join(scratch, "archive")
	a.opts.Logger.Debug("downloading archive", "url", a.URL)
	if err := a.opts.Downloader.DownloadToFile(ctx, a.URL, archivePath); err != nil {
		return nil, err
	}

	digest, err := hasher.CalculateFileSHA256(archivePath)
	if err != nil {
		return nil, err
	}
	a.opts.Logger.Debug("archive downloaded", "digest", digest)

	if a.opts.MinisignKey != "" {
		if err := a.verify(ctx, archivePath, scratch); err != nil {
			return nil, err
		}
	}

	extractDir := filepath.Join(scratch, "extracted")
	if err := os.MkdirAll(extractDir, 0755); err != nil {
		return nil, fmt.Errorf("creating extraction directory: %w", err)
	}
	if err := a.extract(ctx, archivePath, extractDir); err != nil {
		return nil, err
	}

	installDir, err := findInstallDir(extractDir)
	if err != nil {
		return nil, fmt.Errorf("%w in archive %s", err, a.URL)
	}

	n, err := CopyTree(installDir, dest)
	return &Result{Files: n, Digest: digest}, err
}

// verify downloads <URL>.minisig and checks it against the configured key.
func (a *ArchiveFetcher) verify(ctx context.Context, archivePath, scratch string) error {
	sigURL := a.URL + SignatureSuffix
	sigPath := filepath.Join(scratch, "archive"+SignatureSuffix)
	if err := a.opts.Downloader.DownloadToFile(ctx, sigURL, sigPath); err != nil {
		return fmt.Errorf("fetching signature: %w", err)
	}
	content, err := os.ReadFile(archivePath)
	if err != nil {
		return fmt.Errorf("reading archive: %w", err)
	}
	if err := VerifyMinisign(content, sigPath, a.opts.MinisignKey); err != nil {
		return err
	}
	a.opts.Logger.Debug("minisign signature verified", "signature", sigURL)
	return nil
}

// VerifyMinisign checks content against the signature file at sigPath using
// the public key file at pubKeyPath.
func VerifyMinisign(content []byte, sigPath, pubKeyPath string) error {
	pubKey, err := minisign.NewPublicKeyFromFile(pubKeyPath)
	if err != nil {
		return fmt.Errorf("read minisign pubkey: %w", err)
	}

	sig, err := minisign.NewSignatureFromFile(sigPath)
	if err != nil {
		return fmt.Errorf("read minisign signature: %w", err)
	}

	valid, err := pubKey.Verify(content, sig)
	if err != nil {
		return fmt.Errorf("minisign: verification error: %w", err)
	}
	if !valid {
		return errors.New("minisign: signature verification failed")
	}
	return nil
}

// findInstallDir returns the first directory named install below root, in
// lexical walk order.
func findInstallDir(root string) (string, error) {
	var found string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != root && d.IsDir() && d.Name() == InstallDirName {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if found == "" {
		return "", ErrInstallDirMissing
	}
	return found, nil
}
