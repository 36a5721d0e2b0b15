package source

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// Kind selects the fetch strategy for a source.
type Kind int

const (
	KindGit Kind = iota + 1
	KindArchive
	KindLocal
)

func (k Kind) String() string {
	switch k {
	case KindGit:
		return "git"
	case KindArchive:
		return "archive"
	case KindLocal:
		return "local"
	default:
		return "unknown"
	}
}

// ErrUnsupportedScheme is returned for URLs no fetcher can handle.
var ErrUnsupportedScheme = errors.New("unsupported URL scheme")

// ParsedSourceInfo holds the details extracted from a source URL.
type ParsedSourceInfo struct {
	RawURL string
	// FetchURL is RawURL after scheme normalization.
	FetchURL string
	Kind     Kind
	// Path is the filesystem path for local sources.
	Path     string
	RepoName string
}

// ParseSourceURL classifies a source URL and normalizes it for fetching.
func ParseSourceURL(sourceURL string) (*ParsedSourceInfo, error) {
	sourceURL = strings.TrimSpace(sourceURL)
	if sourceURL == "" {
		return nil, errors.New("source URL is empty")
	}

	info := &ParsedSourceInfo{RawURL: sourceURL, FetchURL: sourceURL}

	// SSH short form has no scheme and must not go through url.Parse.
	if strings.HasPrefix(sourceURL, "git@") {
		info.Kind = KindGit
		return withRepoName(info)
	}

	u, err := url.Parse(sourceURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse source URL '%s': %w", sourceURL, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "git":
		info.Kind = KindGit
		info.FetchURL = NormalizeGitURL(sourceURL)
	case "http", "https":
		if strings.HasSuffix(strings.TrimRight(u.Path, "/"), ".git") {
			info.Kind = KindGit
		} else {
			info.Kind = KindArchive
		}
	case "file":
		info.Kind = KindLocal
		info.Path = filepath.FromSlash(u.Path)
	case "":
		info.Kind = KindLocal
		info.Path = sourceURL
	default:
		// Single letters are Windows drive letters, not schemes.
		if len(u.Scheme) == 1 {
			info.Kind = KindLocal
			info.Path = sourceURL
			break
		}
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, u.Scheme)
	}
	return withRepoName(info)
}

func withRepoName(info *ParsedSourceInfo) (*ParsedSourceInfo, error) {
	name, err := RepoName(info.RawURL)
	if err != nil {
		return nil, err
	}
	info.RepoName = name
	return info, nil
}

// NormalizeGitURL rewrites the insecure git:// transport to https://.
// SSH short forms (git@host:path) are returned verbatim.
func NormalizeGitURL(rawURL string) string {
	if strings.HasPrefix(rawURL, "git://") {
		return "https://" + strings.TrimPrefix(rawURL, "git://")
	}
	return rawURL
}

// RepoName derives the repository identifier from a URL or path: the last
// path segment, truncated at its first '.'.
//
//	git@github.com:user/repo.git    -> repo
//	git://github.com/user/repo.git  -> repo
//	https://example.com/repo.tar.gz -> repo
//	file:///path/to/repo            -> repo
func RepoName(rawURL string) (string, error) {
	var p string
	if strings.HasPrefix(rawURL, "git@") {
		_, after, _ := strings.Cut(rawURL, ":")
		p = after
	} else if u, err := url.Parse(rawURL); err == nil && len(u.Scheme) > 1 {
		p = u.Path
	} else {
		p = filepath.ToSlash(rawURL)
	}

	p = strings.TrimRight(p, "/")
	if p == "" {
		return "", fmt.Errorf("invalid URL for repository name: %s", rawURL)
	}
	name := p[strings.LastIndex(p, "/")+1:]
	name, _, _ = strings.Cut(name, ".")
	if name == "" {
		return "", fmt.Errorf("invalid URL for repository name: %s", rawURL)
	}
	return name, nil
}
