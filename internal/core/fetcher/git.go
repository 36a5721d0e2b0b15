package fetcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// GitFetcher shallow-clones a repository and copies its install subtree.
type GitFetcher struct {
	URL  string
	opts Options
}

// Fetch clones URL with depth 1 into a scratch directory that is always removed.
func (g *GitFetcher) Fetch(ctx context.Context, dest string) (*Result, error) {
	gitPath, err := g.opts.lookup("git")
	if err != nil {
		return nil, err
	}

	scratch, err := g.opts.scratchDir("nmsi-git-")
	if err != nil {
		return nil, err
	}
	defer func() { _ = os.RemoveAll(scratch) }()

	repoPath := filepath.Join(scratch, "repo")
	g.opts.Logger.Debug("cloning repository", "url", g.URL, "into", repoPath)
	if _, err := runCommand(ctx, []string{"GIT_TERMINAL_PROMPT=0"}, gitPath, "clone", "--depth=1", g.URL, repoPath); err != nil {
		return nil, fmt.Errorf("failed to clone repository: %w", err)
	}

	installDir := filepath.Join(repoPath, InstallDirName)
	if info, err := os.Stat(installDir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w in repository %s", ErrInstallDirMissing, g.URL)
	}

	result := &Result{}
	if out, err := runCommand(ctx, nil, gitPath, "-C", repoPath, "rev-parse", "HEAD"); err == nil {
		result.Revision = strings.TrimSpace(out)
	} else {
		g.opts.Logger.Debug("could not read cloned revision", "err", err)
	}

	n, err := CopyTree(installDir, dest)
	result.Files = n
	if err != nil {
		return result, err
	}
	return result, nil
}
