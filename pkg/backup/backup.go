// Package backup snapshots a destination file before it is overwritten
// by a deploy. Only the most recent pre-sync state is kept.
package backup

import (
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/arthur-debert/dotsync/pkg/errors"
	"github.com/arthur-debert/dotsync/pkg/logging"
	"github.com/arthur-debert/dotsync/pkg/paths"
)

// Manager writes pre-overwrite snapshots next to their destinations.
type Manager struct {
	logger zerolog.Logger
}

// NewManager creates a backup manager.
func NewManager() *Manager {
	return &Manager{logger: logging.GetLogger("backup")}
}

// Snapshot copies the file at dest to its sibling backup path,
// replacing any previous backup unconditionally. A missing destination
// is a no-op: there is nothing to preserve.
func (m *Manager) Snapshot(dest string) error {
	info, err := os.Lstat(dest)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrapf(err, errors.ErrIOFailure, "failed to stat %s", dest)
	}

	// A destination that is itself a symlink (a prior symlink-mode
	// deploy) carries no content of its own worth snapshotting.
	if info.Mode()&os.ModeSymlink != 0 {
		return nil
	}

	backupPath := paths.BackupPath(dest)
	if err := copyFile(dest, backupPath, info.Mode().Perm()); err != nil {
		return errors.Wrapf(err, errors.ErrIOFailure, "failed to create backup %s", backupPath)
	}

	m.logger.Info().Str("path", backupPath).Msg("Created backup")
	return nil
}

func copyFile(src, dst string, perm os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		_ = in.Close()
	}()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
