package backup

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/dotsync/pkg/paths"
)

func TestSnapshot_MissingDestinationIsNoOp(t *testing.T) {
	dest := filepath.Join(t.TempDir(), ".vimrc")

	require.NoError(t, NewManager().Snapshot(dest))

	_, err := os.Stat(paths.BackupPath(dest))
	assert.True(t, os.IsNotExist(err))
}

func TestSnapshot_CopiesExistingDestination(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, ".vimrc")
	require.NoError(t, os.WriteFile(dest, []byte("old\n"), 0644))

	require.NoError(t, NewManager().Snapshot(dest))

	got, err := os.ReadFile(paths.BackupPath(dest))
	require.NoError(t, err)
	assert.Equal(t, "old\n", string(got))

	// The destination itself is untouched.
	orig, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "old\n", string(orig))
}

func TestSnapshot_OverwritesPriorBackup(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, ".vimrc")
	backupPath := paths.BackupPath(dest)

	require.NoError(t, os.WriteFile(backupPath, []byte("ancient\n"), 0644))
	require.NoError(t, os.WriteFile(dest, []byte("recent\n"), 0644))

	require.NoError(t, NewManager().Snapshot(dest))

	got, err := os.ReadFile(backupPath)
	require.NoError(t, err)
	assert.Equal(t, "recent\n", string(got))
}

func TestSnapshot_SymlinkDestinationIsNoOp(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "source.conf")
	require.NoError(t, os.WriteFile(source, []byte("x\n"), 0644))
	dest := filepath.Join(dir, ".vimrc")
	require.NoError(t, os.Symlink(source, dest))

	require.NoError(t, NewManager().Snapshot(dest))

	_, err := os.Stat(paths.BackupPath(dest))
	assert.True(t, os.IsNotExist(err))
}
