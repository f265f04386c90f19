// Package deploy materializes a tracked source file at its home
// destination, either as a symbolic link or as a permission-preserving
// copy, backing up whatever was there first.
package deploy

import (
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/arthur-debert/dotsync/pkg/backup"
	"github.com/arthur-debert/dotsync/pkg/errors"
	"github.com/arthur-debert/dotsync/pkg/logging"
)

// Deployer writes tracked files to their destinations.
type Deployer struct {
	backups *backup.Manager
	logger  zerolog.Logger
}

// New creates a deployer that snapshots through the given backup manager.
func New(backups *backup.Manager) *Deployer {
	return &Deployer{
		backups: backups,
		logger:  logging.GetLogger("deploy"),
	}
}

// Deploy materializes source at dest. The strategy is a profile-level
// policy: symlink mode links dest at source, copy mode byte-copies and
// propagates the source's permission bits. A pre-existing destination
// is always backed up before either strategy runs.
func (d *Deployer) Deploy(source, dest string, useSymlinks bool) error {
	if err := d.backups.Snapshot(dest); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrIOFailure, "failed to create parent directory for %s", dest)
	}

	if useSymlinks {
		return d.symlink(source, dest)
	}
	return d.copy(source, dest)
}

func (d *Deployer) symlink(source, dest string) error {
	// Symlink creation fails on an existing path, so clear any prior
	// deploy first.
	if _, err := os.Lstat(dest); err == nil {
		if err := os.Remove(dest); err != nil {
			return errors.Wrapf(err, errors.ErrIOFailure, "failed to remove existing %s", dest)
		}
	}

	if err := os.Symlink(source, dest); err != nil {
		return errors.Wrapf(err, errors.ErrIOFailure, "failed to create symlink %s", dest)
	}

	d.logger.Info().Str("dest", dest).Str("source", source).Msg("Created symlink")
	return nil
}

func (d *Deployer) copy(source, dest string) error {
	srcInfo, err := os.Stat(source)
	if err != nil {
		return errors.Wrapf(err, errors.ErrIOFailure, "failed to stat source %s", source)
	}

	// A stale symlink at dest would make the copy write through to its
	// target; replace the link itself instead.
	if destInfo, lerr := os.Lstat(dest); lerr == nil && destInfo.Mode()&os.ModeSymlink != 0 {
		if err := os.Remove(dest); err != nil {
			return errors.Wrapf(err, errors.ErrIOFailure, "failed to remove existing symlink %s", dest)
		}
	}

	if err := copyContents(source, dest); err != nil {
		return errors.Wrapf(err, errors.ErrIOFailure, "failed to copy %s", source)
	}

	// Copy mode propagates the source's permission bits.
	if err := os.Chmod(dest, srcInfo.Mode().Perm()); err != nil {
		return errors.Wrapf(err, errors.ErrIOFailure, "failed to set permissions on %s", dest)
	}

	d.logger.Info().Str("dest", dest).Str("source", source).Msg("Copied file")
	return nil
}

func copyContents(source, dest string) error {
	in, err := os.Open(source)
	if err != nil {
		return err
	}
	defer func() {
		_ = in.Close()
	}()

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
