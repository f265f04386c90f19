package filter

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// listWalker replays a fixed entry list, standing in for a real
// filesystem walk.
type listWalker struct {
	entries []string
	errs    map[string]error
}

func (w *listWalker) Walk(root string, fn WalkFunc) error {
	for _, entry := range w.entries {
		if err := fn(entry, w.errs[entry]); err != nil {
			return err
		}
	}
	return nil
}

func TestShouldSync_PatternMatching(t *testing.T) {
	tests := []struct {
		name     string
		entries  []string
		patterns []string
		want     bool
	}{
		{
			name:     "no patterns means eligible",
			entries:  []string{"/src/.vimrc"},
			patterns: nil,
			want:     true,
		},
		{
			name:     "pattern in file name",
			entries:  []string{"/src/nvim/init.lua", "/src/nvim/secret.lua"},
			patterns: []string{"secret"},
			want:     false,
		},
		{
			name:     "pattern in ancestor component",
			entries:  []string{"/src/private/notes.md"},
			patterns: []string{"private"},
			want:     false,
		},
		{
			name:     "non-matching pattern",
			entries:  []string{"/src/.bashrc"},
			patterns: []string{".git"},
			want:     true,
		},
		{
			name:     "any of several patterns",
			entries:  []string{"/src/dir/cache.db"},
			patterns: []string{"secret", "cache"},
			want:     false,
		},
		{
			name:     "empty pattern never matches",
			entries:  []string{"/src/.vimrc"},
			patterns: []string{""},
			want:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := New(&listWalker{entries: tt.entries})
			assert.Equal(t, tt.want, f.ShouldSync("/src", tt.patterns))
		})
	}
}

func TestShouldSync_UnreadableEntryIsSkipped(t *testing.T) {
	w := &listWalker{
		entries: []string{"/src/ok", "/src/broken", "/src/also-ok"},
		errs:    map[string]error{"/src/broken": errors.New("permission denied")},
	}

	f := New(w)
	// The unreadable entry is skipped, everything else checked.
	assert.True(t, f.ShouldSync("/src", []string{"nomatch"}))
	assert.False(t, f.ShouldSync("/src", []string{"also-ok"}))
}

func TestGitAwareWalker_VisitsTree(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.conf"), []byte("a"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "b.conf"), []byte("b"), 0644))

	var visited []string
	err := NewGitAwareWalker().Walk(root, func(path string, err error) error {
		require.NoError(t, err)
		visited = append(visited, path)
		return nil
	})
	require.NoError(t, err)

	assert.Contains(t, visited, filepath.Join(root, "a.conf"))
	assert.Contains(t, visited, filepath.Join(root, "sub", "b.conf"))
}

func TestGitAwareWalker_SkipsGitDir(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git", "objects"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".git", "HEAD"), []byte("ref"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "tracked.conf"), []byte("x"), 0644))

	var visited []string
	err := NewGitAwareWalker().Walk(root, func(path string, err error) error {
		require.NoError(t, err)
		visited = append(visited, path)
		return nil
	})
	require.NoError(t, err)

	assert.Contains(t, visited, filepath.Join(root, "tracked.conf"))
	assert.NotContains(t, visited, filepath.Join(root, ".git", "HEAD"))
}

func TestGitAwareWalker_HonorsGitignore(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("build/\n"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "build"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "build", "out.o"), []byte("o"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "keep.conf"), []byte("k"), 0644))

	var visited []string
	err := NewGitAwareWalker().Walk(root, func(path string, err error) error {
		require.NoError(t, err)
		visited = append(visited, path)
		return nil
	})
	require.NoError(t, err)

	assert.Contains(t, visited, filepath.Join(root, "keep.conf"))
	assert.NotContains(t, visited, filepath.Join(root, "build", "out.o"))
}

func TestGitAwareWalker_SingleFile(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, ".vimrc")
	require.NoError(t, os.WriteFile(file, []byte("set nu\n"), 0644))

	var visited []string
	err := NewGitAwareWalker().Walk(file, func(path string, err error) error {
		require.NoError(t, err)
		visited = append(visited, path)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{file}, visited)
}
