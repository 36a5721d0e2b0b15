// Package config resolves where nmsi keeps its data and loads the optional
// config.toml that lives there.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	// BaseDirEnv overrides the base storage directory.
	BaseDirEnv = "NMSI_PATH"
	// ConfigFileName is the settings file inside the base directory.
	ConfigFileName = "config.toml"
	// LockfileName is the fetch ledger inside the base directory.
	LockfileName = "nmsi-lock.toml"
	// InstallDirName is the primary root inside the base directory.
	InstallDirName = "install"

	DefaultRepo        = "git://github.com/toru-nakai/nmsi"
	DefaultSelfRepo    = "toru-nakai/nmsi"
	DefaultShell       = "bash"
	DefaultHTTPRetries = 2
)

// File is the on-disk shape of config.toml.
type File struct {
	Repository string `toml:"repository,omitempty"`
	Shell      string `toml:"shell,omitempty"`
	HTTP       struct {
		Retries *int `toml:"retries,omitempty"`
	} `toml:"http"`
	Self struct {
		Repository string `toml:"repository,omitempty"`
	} `toml:"self"`
}

// Settings is the resolved configuration threaded through every command.
type Settings struct {
	BaseDir     string
	DefaultRepo string
	Shell       string
	HTTPRetries int
	// SelfRepo is the GitHub owner/repo that publishes nmsi releases.
	SelfRepo string
}

// InstallDir is the primary root.
func (s *Settings) InstallDir() string { return filepath.Join(s.BaseDir, InstallDirName) }

// ConfigPath is the location of config.toml.
func (s *Settings) ConfigPath() string { return filepath.Join(s.BaseDir, ConfigFileName) }

// LockfilePath is the location of the fetch ledger.
func (s *Settings) LockfilePath() string { return filepath.Join(s.BaseDir, LockfileName) }

// OverlayDir is the overlay root for a repository identifier.
func (s *Settings) OverlayDir(repoName string) string {
	return filepath.Join(s.InstallDir(), "@"+repoName)
}

// Defaults returns settings rooted at baseDir with no config file applied.
func Defaults(baseDir string) *Settings {
	return &Settings{
		BaseDir:     baseDir,
		DefaultRepo: DefaultRepo,
		Shell:       DefaultShell,
		HTTPRetries: DefaultHTTPRetries,
		SelfRepo:    DefaultSelfRepo,
	}
}

// ResolveBaseDir returns $NMSI_PATH (with ~ expanded) or ~/.local/share/nmsi.
func ResolveBaseDir() (string, error) {
	if p := os.Getenv(BaseDirEnv); p != "" {
		return expandHome(p)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determining home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "nmsi"), nil
}

func expandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expanding '%s': %w", p, err)
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~")), nil
}

// Load resolves the base directory and applies config.toml if it exists.
func Load() (*Settings, error) {
	baseDir, err := ResolveBaseDir()
	if err != nil {
		return nil, err
	}
	return LoadFrom(baseDir)
}

// LoadFrom applies baseDir/config.toml, if present, over the defaults.
func LoadFrom(baseDir string) (*Settings, error) {
	s := Defaults(baseDir)

	var f File
	_, err := toml.DecodeFile(s.ConfigPath(), &f)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("loading %s: %w", ConfigFileName, err)
	}

	if f.Repository != "" {
		s.DefaultRepo = f.Repository
	}
	if f.Shell != "" {
		s.Shell = f.Shell
	}
	if f.Self.Repository != "" {
		s.SelfRepo = f.Self.Repository
	}
	if f.HTTP.Retries != nil {
		if *f.HTTP.Retries < 0 {
			return nil, fmt.Errorf("loading %s: http.retries must not be negative", ConfigFileName)
		}
		s.HTTPRetries = *f.HTTP.Retries
	}
	return s, nil
}

// Write persists the user-tunable parts of s to config.toml.
func Write(s *Settings) error {
	if err := os.MkdirAll(s.BaseDir, 0755); err != nil {
		return fmt.Errorf("creating base directory '%s': %w", s.BaseDir, err)
	}

	var f File
	f.Repository = s.DefaultRepo
	f.Shell = s.Shell
	retries := s.HTTPRetries
	f.HTTP.Retries = &retries
	f.Self.Repository = s.SelfRepo

	out, err := os.Create(s.ConfigPath())
	if err != nil {
		return fmt.Errorf("creating %s: %w", ConfigFileName, err)
	}
	defer func() { _ = out.Close() }()

	if err := toml.NewEncoder(out).Encode(f); err != nil {
		return fmt.Errorf("encoding %s: %w", ConfigFileName, err)
	}
	return out.Close()
}
