// Package platform_test contains tests for the platform package.
package platform_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toru-nakai/nmsi/internal/core/platform"
)

// fakeReadFile serves os-release contents from a map keyed by path.
func fakeReadFile(files map[string]string) func(string) ([]byte, error) {
	return func(name string) ([]byte, error) {
		if content, ok := files[name]; ok {
			return []byte(content), nil
		}
		return nil, errors.New("no such file")
	}
}

func TestNormalizeArch(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"x86_64":  "amd64",
		"AMD64":   "amd64",
		"aarch64": "arm64",
		"arm64":   "arm64",
		"armv7l":  "arm",
		"armv6":   "arm",
		"i686":    "i386",
		"i386":    "i386",
		"386":     "i386",
		"RISCV64": "riscv64",
		"ppc64le": "ppc64le",
	}
	for in, want := range cases {
		assert.Equal(t, want, platform.NormalizeArch(in), "NormalizeArch(%q)", in)
	}
}

func TestNormalizeArch_Idempotent(t *testing.T) {
	t.Parallel()
	for _, in := range []string{"x86_64", "aarch64", "armv7l", "i686", "s390x", "amd64", "arm"} {
		once := platform.NormalizeArch(in)
		assert.Equal(t, once, platform.NormalizeArch(once), "normalizing %q twice changed the result", in)
	}
}

func TestParseOSRelease(t *testing.T) {
	t.Parallel()
	content := `# comment line
NAME="Ubuntu"
ID=ubuntu
ID_LIKE=debian
VERSION_ID="22.04"

garbage line without separator
`
	info := platform.ParseOSRelease(strings.NewReader(content))
	assert.Equal(t, "Ubuntu", info["NAME"])
	assert.Equal(t, "ubuntu", info["ID"])
	assert.Equal(t, "debian", info["ID_LIKE"])
	assert.Equal(t, "22.04", info["VERSION_ID"])
	assert.Len(t, info, 4)
}

func TestLinuxFlavors(t *testing.T) {
	t.Parallel()

	t.Run("versioned id before bare id then family then linux", func(t *testing.T) {
		flavors := platform.LinuxFlavors(map[string]string{
			"ID":         "rocky",
			"ID_LIKE":    "rhel centos fedora",
			"VERSION_ID": "9.3",
		})
		assert.Equal(t, []string{"rocky9", "rocky", "rhel9", "rhel", "centos9", "centos", "fedora9", "fedora", "linux"}, flavors)
	})

	t.Run("no version", func(t *testing.T) {
		flavors := platform.LinuxFlavors(map[string]string{"ID": "arch"})
		assert.Equal(t, []string{"arch", "linux"}, flavors)
	})

	t.Run("duplicates keep first position", func(t *testing.T) {
		flavors := platform.LinuxFlavors(map[string]string{
			"ID":         "debian",
			"ID_LIKE":    "debian linux",
			"VERSION_ID": "12",
		})
		assert.Equal(t, []string{"debian12", "debian", "linux12", "linux"}, flavors)
	})

	t.Run("missing info degrades to linux", func(t *testing.T) {
		assert.Equal(t, []string{"linux"}, platform.LinuxFlavors(nil))
	})
}

func TestDetect_Linux(t *testing.T) {
	t.Parallel()
	d := &platform.Detector{
		GOOS:           "linux",
		GOARCH:         "arm64",
		OSReleasePaths: []string{"/missing", "/etc/os-release"},
		ReadFile: fakeReadFile(map[string]string{
			"/etc/os-release": "ID=ubuntu\nID_LIKE=debian\nVERSION_ID=\"24.04\"\n",
		}),
	}

	env := d.Detect(platform.Overrides{})
	assert.Equal(t, []string{"ubuntu24", "ubuntu", "debian24", "debian", "linux"}, env.OSFlavors)
	assert.Equal(t, "arm64", env.Arch)
	assert.Equal(t, "ubuntu24", env.Primary())
}

func TestDetect_LinuxWithoutOSRelease(t *testing.T) {
	t.Parallel()
	d := &platform.Detector{
		GOOS:           "linux",
		GOARCH:         "amd64",
		OSReleasePaths: platform.DefaultOSReleasePaths,
		ReadFile:       fakeReadFile(nil),
	}

	env := d.Detect(platform.Overrides{})
	assert.Equal(t, []string{"linux"}, env.OSFlavors)
	assert.Equal(t, "amd64", env.Arch)
}

func TestDetect_OtherSystems(t *testing.T) {
	t.Parallel()
	cases := map[string][]string{
		"darwin":  {"macos"},
		"windows": {"windows"},
		"freebsd": {"freebsd"},
	}
	for goos, want := range cases {
		d := &platform.Detector{GOOS: goos, GOARCH: "amd64", ReadFile: fakeReadFile(nil)}
		env := d.Detect(platform.Overrides{})
		assert.Equal(t, want, env.OSFlavors, "flavors for %s", goos)
	}
}

func TestDetect_Overrides(t *testing.T) {
	t.Parallel()
	d := &platform.Detector{GOOS: "darwin", GOARCH: "arm64", ReadFile: fakeReadFile(nil)}

	env := d.Detect(platform.Overrides{OS: "Alpine", Arch: "RISCV64"})
	require.Len(t, env.OSFlavors, 2)
	assert.Equal(t, []string{"alpine", "linux"}, env.OSFlavors)
	assert.Equal(t, "riscv64", env.Arch)

	env = d.Detect(platform.Overrides{OS: "linux"})
	assert.Equal(t, []string{"linux"}, env.OSFlavors, "linux override must not duplicate the fallback")
	assert.Equal(t, "arm64", env.Arch)
}

func TestEnvironmentPrimary_Empty(t *testing.T) {
	t.Parallel()
	assert.Equal(t, platform.GenericLinux, platform.Environment{}.Primary())
}
