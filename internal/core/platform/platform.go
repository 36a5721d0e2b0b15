// Package platform detects the operating system flavor chain and the
// canonical architecture used to pick installation scripts.
package platform

import (
	"bufio"
	"io"
	"os"
	"runtime"
	"strings"
)

// GenericLinux is the catch-all flavor every Linux chain ends with.
const GenericLinux = "linux"

// DefaultOSReleasePaths lists the distribution identifier files, in lookup order.
var DefaultOSReleasePaths = []string{"/etc/os-release", "/usr/lib/os-release"}

// Environment holds the facts the resolver needs about the running host.
// OSFlavors is ordered most-specific first.
type Environment struct {
	OSFlavors []string
	Arch      string
}

// Primary returns the most specific OS flavor, used as the reported OS type.
func (e Environment) Primary() string {
	if len(e.OSFlavors) == 0 {
		return GenericLinux
	}
	return e.OSFlavors[0]
}

// Overrides are user supplied values that replace detection.
type Overrides struct {
	OS   string
	Arch string
}

// Detector gathers environment facts. The zero value is not usable; use NewDetector.
type Detector struct {
	GOOS           string
	GOARCH         string
	OSReleasePaths []string
	ReadFile       func(name string) ([]byte, error)
}

// NewDetector returns a Detector bound to the running process.
func NewDetector() *Detector {
	return &Detector{
		GOOS:           runtime.GOOS,
		GOARCH:         runtime.GOARCH,
		OSReleasePaths: DefaultOSReleasePaths,
		ReadFile:       os.ReadFile,
	}
}

// Detect builds the Environment. It never fails; unknown hosts degrade to
// the most generic applicable flavor.
func (d *Detector) Detect(o Overrides) Environment {
	env := Environment{}

	if o.OS != "" {
		osName := strings.ToLower(o.OS)
		env.OSFlavors = []string{osName}
		if osName != GenericLinux {
			env.OSFlavors = append(env.OSFlavors, GenericLinux)
		}
	} else {
		env.OSFlavors = d.detectFlavors()
	}

	if o.Arch != "" {
		env.Arch = strings.ToLower(o.Arch)
	} else {
		env.Arch = NormalizeArch(d.GOARCH)
	}
	return env
}

func (d *Detector) detectFlavors() []string {
	system := strings.ToLower(d.GOOS)
	switch system {
	case "darwin":
		return []string{"macos"}
	case "linux":
		return LinuxFlavors(d.readOSRelease())
	case "windows":
		return []string{"windows"}
	default:
		return []string{system}
	}
}

// readOSRelease returns the first non-empty os-release file it can read.
func (d *Detector) readOSRelease() map[string]string {
	if d.ReadFile == nil {
		return nil
	}
	for _, path := range d.OSReleasePaths {
		data, err := d.ReadFile(path)
		if err != nil {
			continue
		}
		info := ParseOSRelease(strings.NewReader(string(data)))
		if len(info) > 0 {
			return info
		}
	}
	return nil
}

// ParseOSRelease reads KEY=VALUE lines as found in /etc/os-release.
func ParseOSRelease(r io.Reader) map[string]string {
	info := make(map[string]string)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		value = strings.Trim(value, `"'`)
		info[strings.TrimSpace(key)] = value
	}
	return info
}

// LinuxFlavors orders distribution identifiers by specificity:
// {id}{major}, {id}, then the same for every ID_LIKE entry, then "linux".
func LinuxFlavors(info map[string]string) []string {
	var flavors []string
	seen := make(map[string]bool)
	add := func(name string) {
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		flavors = append(flavors, name)
	}

	baseID := strings.ToLower(strings.TrimSpace(info["ID"]))
	if baseID == "" {
		baseID = GenericLinux
	}
	versionID := strings.Trim(strings.TrimSpace(info["VERSION_ID"]), `"`)
	major, _, _ := strings.Cut(versionID, ".")

	if major != "" {
		add(baseID + major)
	}
	add(baseID)

	for _, like := range strings.Fields(info["ID_LIKE"]) {
		like = strings.ToLower(like)
		if major != "" {
			add(like + major)
		}
		add(like)
	}

	add(GenericLinux)
	return flavors
}

// NormalizeArch maps machine identifier synonyms onto a small canonical set.
// Unknown values pass through lower-cased. Applying it twice is a no-op.
func NormalizeArch(machine string) string {
	m := strings.ToLower(strings.TrimSpace(machine))
	switch {
	case m == "x86_64" || m == "amd64":
		return "amd64"
	case m == "aarch64" || m == "arm64":
		return "arm64"
	case strings.HasPrefix(m, "arm"):
		return "arm"
	case m == "i386" || m == "i686" || m == "386":
		return "i386"
	default:
		return m
	}
}
