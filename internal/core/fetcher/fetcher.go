// Package fetcher populates an install root from a git repository, an HTTP
// archive or a local path. Every strategy ends in the same additive copy of
// an "install" subtree into the destination.
package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/toru-nakai/nmsi/internal/core/downloader"
	"github.com/toru-nakai/nmsi/internal/core/source"
)

// InstallDirName is the subtree every source must provide.
const InstallDirName = "install"

const maxCommandOutput = 512

var (
	// ErrInstallDirMissing is returned when a source has no install subtree.
	ErrInstallDirMissing = errors.New("install directory not found")
	// ErrNoExtractor is returned when neither unzip nor tar is available.
	ErrNoExtractor = errors.New("no extraction tool available (unzip or tar)")
	// ErrToolMissing is returned when a required external command is absent.
	ErrToolMissing = errors.New("required command not found")
	// ErrSourceNotFound is returned for local sources that do not exist.
	ErrSourceNotFound = errors.New("source not found")
)

// CommandError reports a failed child process with its trimmed output.
type CommandError struct {
	Command string
	Output  string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %v: %s", e.Command, e.Err, e.Output)
}

func (e *CommandError) Unwrap() error { return e.Err }

// Result summarizes a completed fetch.
type Result struct {
	Files    int
	Revision string
	Digest   string
}

// Fetcher retrieves a source into dest without deleting existing files.
type Fetcher interface {
	Fetch(ctx context.Context, dest string) (*Result, error)
}

// Options configures the fetch strategies.
type Options struct {
	Downloader *downloader.Client
	// LookPath locates external commands; defaults to exec.LookPath.
	LookPath func(file string) (string, error)
	// MinisignKey is a public key file; when set, archives must carry a
	// valid <url>.minisig signature.
	MinisignKey string
	// TempDir is the parent for scratch directories; empty means os.TempDir.
	TempDir string
	Logger  *log.Logger
}

func (o Options) withDefaults() Options {
	if o.Downloader == nil {
		o.Downloader = downloader.New(0)
	}
	if o.LookPath == nil {
		o.LookPath = exec.LookPath
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	return o
}

// New selects the strategy for a parsed source.
func New(info *source.ParsedSourceInfo, opts Options) (Fetcher, error) {
	opts = opts.withDefaults()
	switch info.Kind {
	case source.KindGit:
		return &GitFetcher{URL: info.FetchURL, opts: opts}, nil
	case source.KindArchive:
		return &ArchiveFetcher{URL: info.FetchURL, opts: opts}, nil
	case source.KindLocal:
		return &LocalFetcher{Path: info.Path, opts: opts}, nil
	default:
		return nil, fmt.Errorf("%w: %s", source.ErrUnsupportedScheme, info.RawURL)
	}
}

// lookup resolves an external command or reports it as missing.
func (o Options) lookup(name string) (string, error) {
	path, err := o.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s (please install %s)", ErrToolMissing, name, name)
	}
	return path, nil
}

// runCommand runs bin and returns its combined output; failures carry the
// trimmed output for diagnostics.
func runCommand(ctx context.Context, env []string, bin string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}
	var combined bytes.Buffer
	cmd.Stdout = &combined
	cmd.Stderr = &combined
	if err := cmd.Run(); err != nil {
		return "", &CommandError{
			Command: strings.TrimSpace(bin + " " + strings.Join(args, " ")),
			Output:  trimCommandOutput(combined.String()),
			Err:     err,
		}
	}
	return combined.String(), nil
}

func trimCommandOutput(out string) string {
	clean := strings.TrimSpace(out)
	if clean == "" {
		return "command failed"
	}
	if len(clean) > maxCommandOutput {
		return clean[:maxCommandOutput] + "..."
	}
	return clean
}

// scratchDir creates a temporary directory; the caller must remove it.
func (o Options) scratchDir(pattern string) (string, error) {
	dir, err := os.MkdirTemp(o.TempDir, pattern)
	if err != nil {
		return "", fmt.Errorf("creating scratch directory: %w", err)
	}
	return dir, nil
}
