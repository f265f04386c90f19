package filter

import (
	"io/fs"
	"path/filepath"

	gitignore "github.com/sabhiram/go-gitignore"
)

// GitAwareWalker walks a path recursively, skipping .git directories
// and anything excluded by a .gitignore at the walk root.
type GitAwareWalker struct{}

// NewGitAwareWalker creates the default walker implementation.
func NewGitAwareWalker() *GitAwareWalker {
	return &GitAwareWalker{}
}

// Walk visits root and every entry beneath it. Unreadable entries are
// reported to fn with a non-nil error; fn returning nil skips them and
// the walk continues.
func (w *GitAwareWalker) Walk(root string, fn WalkFunc) error {
	// A missing .gitignore just means nothing is excluded.
	ignored, _ := gitignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if cbErr := fn(path, err); cbErr != nil {
				return cbErr
			}
			// Skip the unreadable subtree and keep going.
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() && d.Name() == ".git" {
			return filepath.SkipDir
		}

		if ignored != nil && path != root {
			if rel, relErr := filepath.Rel(root, path); relErr == nil && ignored.MatchesPath(rel) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}

		return fn(path, nil)
	})
}

var _ Walker = (*GitAwareWalker)(nil)
