// Package paths provides centralized path handling for dotsync.
// It implements XDG Base Directory specification compliance and maps
// tracked files between their canonical source locations and their
// home-relative deploy destinations.
package paths

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/arthur-debert/dotsync/pkg/errors"
)

// Environment variable names
const (
	// EnvDotsyncConfigDir overrides the XDG config directory for dotsync
	EnvDotsyncConfigDir = "DOTSYNC_CONFIG_DIR"

	// EnvHome is the standard home directory variable
	EnvHome = "HOME"
)

// Default directories and files.
// These constants define dotsync's on-disk layout and are NOT
// user-configurable: the mirror working copy location must stay stable
// across runs for the git history to accumulate.
const (
	// AppDirName is the directory name for dotsync-specific files
	AppDirName = "dotsync"

	// ConfigFileName is the name of the configuration file
	ConfigFileName = "config.toml"

	// MirrorDirName is the hidden directory under home holding the
	// git working copy used for remote mirroring
	MirrorDirName = ".dotsync-mirror"

	// BackupExtension is the extension given to pre-sync snapshots
	BackupExtension = ".bak"
)

// Paths resolves the filesystem locations dotsync operates on.
type Paths struct {
	home      string
	configDir string
}

// New creates a Paths instance. The home directory is resolved once; all
// derived locations are computed from it.
func New() (*Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrPathUnresolvable, "failed to get home directory")
	}

	configDir := os.Getenv(EnvDotsyncConfigDir)
	if configDir == "" {
		configDir = filepath.Join(xdg.ConfigHome, AppDirName)
	}

	return &Paths{home: home, configDir: configDir}, nil
}

// Home returns the user's home directory.
func (p *Paths) Home() string {
	return p.home
}

// ConfigDir returns the directory holding the configuration file.
func (p *Paths) ConfigDir() string {
	return p.configDir
}

// ConfigFile returns the full path of the configuration file.
func (p *Paths) ConfigFile() string {
	return filepath.Join(p.configDir, ConfigFileName)
}

// MirrorDir returns the fixed, profile-independent path of the local
// git working copy used for remote mirroring.
func (p *Paths) MirrorDir() string {
	return filepath.Join(p.home, MirrorDirName)
}

// DeployPath maps a home-relative tracked path to its destination.
func (p *Paths) DeployPath(relative string) string {
	return filepath.Join(p.home, relative)
}

// BackupPath returns the sibling backup location for a destination file:
// the path with its extension replaced by the backup extension. The
// leading dot of a hidden file is part of the name, not an extension
// separator, so ".vimrc" backs up to ".vimrc.bak", not ".bak".
func BackupPath(dest string) string {
	base := filepath.Base(dest)
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	return filepath.Join(filepath.Dir(dest), base+BackupExtension)
}

// Canonicalize resolves a path to its absolute, symlink-free form. The
// path must exist; a broken symlink or missing file is an error.
func Canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrPathUnresolvable, "failed to resolve %q", path)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrPathUnresolvable, "failed to canonicalize %q", path)
	}
	return resolved, nil
}

// HomeRelative strips the home directory prefix from a canonical path.
// Paths outside the home directory are rejected: tracked files are
// always deployed relative to home.
func (p *Paths) HomeRelative(canonical string) (string, error) {
	rel, err := filepath.Rel(p.home, canonical)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.Newf(errors.ErrPathOutsideHome, "path %q is not in home directory", canonical)
	}
	return rel, nil
}
