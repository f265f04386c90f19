// Package filter decides whether a tracked source path is eligible for
// deployment, given a profile's ignore patterns. Eligibility covers the
// whole subtree: one ignored descendant makes the path ineligible.
package filter

import (
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/arthur-debert/dotsync/pkg/logging"
)

// WalkFunc is invoked for every entry under the walked root. A non-nil
// err reports an unreadable entry; returning an error stops the walk.
type WalkFunc func(path string, err error) error

// Walker enumerates a path and everything under it. Implementations are
// expected to honor the version-control ignore conventions of the
// walked tree itself (a .gitignore'd build directory is not walked).
type Walker interface {
	Walk(root string, fn WalkFunc) error
}

// errIgnored short-circuits the walk once a pattern matches.
var errIgnored = errors.New("path matches ignore pattern")

// Filter applies a profile's ignore patterns over a walked subtree.
type Filter struct {
	walker Walker
	logger zerolog.Logger
}

// New creates a filter backed by the given walker.
func New(walker Walker) *Filter {
	return &Filter{
		walker: walker,
		logger: logging.GetLogger("filter"),
	}
}

// NewDefault creates a filter backed by the gitignore-aware walker.
func NewDefault() *Filter {
	return New(NewGitAwareWalker())
}

// ShouldSync reports whether path is eligible for deployment.
// Eligibility is recomputed on every call; nothing is cached. An
// unreadable entry is logged and skipped, never fatal.
func (f *Filter) ShouldSync(path string, patterns []string) bool {
	err := f.walker.Walk(path, func(entry string, walkErr error) error {
		if walkErr != nil {
			f.logger.Warn().Err(walkErr).Str("path", entry).Msg("Error walking directory")
			return nil
		}
		for _, pattern := range patterns {
			if pattern != "" && strings.Contains(entry, pattern) {
				return errIgnored
			}
		}
		return nil
	})

	return !errors.Is(err, errIgnored)
}
