// Package resolver finds the installation script that applies to a tool on
// the current host, searching overlay roots before the primary store.
package resolver

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/toru-nakai/nmsi/internal/core/platform"
)

const (
	// ScriptName is the file every tool variant terminates in.
	ScriptName = "install.sh"
	// UniversalOS is the directory used when a script applies to any OS.
	UniversalOS = "universal"
	// GeneralArch is the directory used when a script applies to any architecture.
	GeneralArch = "general"
	// OverlayPrefix marks install roots created from an external source.
	OverlayPrefix = "@"
)

// ErrScriptNotFound is wrapped by every NotFoundError.
var ErrScriptNotFound = errors.New("installation script not found")

// ScriptLocation is the result of a successful resolution.
type ScriptLocation struct {
	Path     string
	OSFlavor string
	Arch     string
	Root     string
}

// NotFoundError carries the context needed to tell the user where a script was expected.
type NotFoundError struct {
	Tool         string
	Env          platform.Environment
	ExpectedPath string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s for %s on %s/%s (expected primary path: %s; tried OS flavors: %s)",
		ErrScriptNotFound, e.Tool, e.Env.Primary(), e.Env.Arch, e.ExpectedPath, strings.Join(e.Env.OSFlavors, ", "))
}

func (e *NotFoundError) Unwrap() error { return ErrScriptNotFound }

// Candidate is one place a script may live, relative to a root.
type Candidate struct {
	RelPath  string
	OSFlavor string
	Arch     string
}

// Candidates returns the per-root search order for tool:
// every OS flavor with the exact arch then "general", followed by
// universal/{arch} and universal/general.
func Candidates(tool string, env platform.Environment) []Candidate {
	candidates := make([]Candidate, 0, 2*len(env.OSFlavors)+2)
	add := func(osName, arch string) {
		candidates = append(candidates, Candidate{
			RelPath:  filepath.Join(tool, osName, arch, ScriptName),
			OSFlavor: osName,
			Arch:     arch,
		})
	}
	for _, flavor := range env.OSFlavors {
		add(flavor, env.Arch)
		add(flavor, GeneralArch)
	}
	add(UniversalOS, env.Arch)
	add(UniversalOS, GeneralArch)
	return candidates
}

// ValidateToolName rejects names that would escape the tool namespace.
func ValidateToolName(tool string) error {
	switch {
	case tool == "":
		return errors.New("tool name is required")
	case tool == "." || tool == "..":
		return fmt.Errorf("invalid tool name '%s'", tool)
	case strings.ContainsAny(tool, `/\`):
		return fmt.Errorf("invalid tool name '%s': must not contain path separators", tool)
	case strings.HasPrefix(tool, OverlayPrefix):
		return fmt.Errorf("invalid tool name '%s': must not start with '%s'", tool, OverlayPrefix)
	}
	return nil
}

// Resolver maps a tool name to its script under InstallDir.
type Resolver struct {
	InstallDir string
	Env        platform.Environment
	// Exists reports whether a candidate script path is present.
	Exists func(path string) bool
}

// New returns a Resolver that checks the real filesystem.
func New(installDir string, env platform.Environment) *Resolver {
	return &Resolver{
		InstallDir: installDir,
		Env:        env,
		Exists:     isRegularFile,
	}
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Roots lists the search roots: overlay roots in name order, then InstallDir.
// A missing InstallDir yields no roots.
func (r *Resolver) Roots() ([]string, error) {
	entries, err := os.ReadDir(r.InstallDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading install directory '%s': %w", r.InstallDir, err)
	}

	var overlays []string
	for _, entry := range entries {
		if entry.IsDir() && strings.HasPrefix(entry.Name(), OverlayPrefix) {
			overlays = append(overlays, entry.Name())
		}
	}
	sort.Strings(overlays)

	roots := make([]string, 0, len(overlays)+1)
	for _, name := range overlays {
		roots = append(roots, filepath.Join(r.InstallDir, name))
	}
	return append(roots, r.InstallDir), nil
}

// ResolveInRoot walks the candidate chain inside a single root.
func (r *Resolver) ResolveInRoot(root, tool string) (*ScriptLocation, bool) {
	for _, c := range Candidates(tool, r.Env) {
		path := filepath.Join(root, c.RelPath)
		if r.Exists(path) {
			return &ScriptLocation{Path: path, OSFlavor: c.OSFlavor, Arch: c.Arch, Root: root}, true
		}
	}
	return nil, false
}

// Resolve exhausts each root through all priority levels before moving on,
// so an overlay's least specific match beats anything in the primary root.
func (r *Resolver) Resolve(tool string) (*ScriptLocation, error) {
	if err := ValidateToolName(tool); err != nil {
		return nil, err
	}
	roots, err := r.Roots()
	if err != nil {
		return nil, err
	}
	for _, root := range roots {
		if loc, ok := r.ResolveInRoot(root, tool); ok {
			return loc, nil
		}
	}
	return nil, &NotFoundError{
		Tool:         tool,
		Env:          r.Env,
		ExpectedPath: r.ExpectedPath(tool),
	}
}

// ExpectedPath is the most specific location in the primary root.
func (r *Resolver) ExpectedPath(tool string) string {
	return filepath.Join(r.InstallDir, tool, r.Env.Primary(), r.Env.Arch, ScriptName)
}

// Tools lists tool names across all roots. When all is false only tools
// that resolve for the current environment are returned; otherwise every
// tool with at least one script anywhere below it.
func (r *Resolver) Tools(all bool) ([]string, error) {
	roots, err := r.Roots()
	if err != nil {
		return nil, err
	}

	names := make(map[string]bool)
	for _, root := range roots {
		entries, err := os.ReadDir(root)
		if err != nil {
			return nil, fmt.Errorf("reading root '%s': %w", root, err)
		}
		for _, entry := range entries {
			if !entry.IsDir() || strings.HasPrefix(entry.Name(), OverlayPrefix) {
				continue
			}
			if all {
				if hasAnyScript(filepath.Join(root, entry.Name())) {
					names[entry.Name()] = true
				}
				continue
			}
			names[entry.Name()] = false
		}
	}

	var tools []string
	for name, confirmed := range names {
		if all {
			if confirmed {
				tools = append(tools, name)
			}
			continue
		}
		if _, err := r.Resolve(name); err == nil {
			tools = append(tools, name)
		}
	}
	sort.Strings(tools)
	return tools, nil
}

func hasAnyScript(toolRoot string) bool {
	found := false
	_ = filepath.WalkDir(toolRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() && d.Name() == ScriptName && isRegularFile(path) {
			found = true
			return fs.SkipAll
		}
		return nil
	})
	return found
}
