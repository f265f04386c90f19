// Package watch invokes a sync pass whenever a tracked source file
// changes on disk. Events are debounced and coalesced, and passes are
// strictly serialized: the loop blocks on event receipt between passes.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/arthur-debert/dotsync/pkg/errors"
	"github.com/arthur-debert/dotsync/pkg/logging"
	"github.com/arthur-debert/dotsync/pkg/sync"
)

// DefaultDebounce is the window within which filesystem events coalesce
// into a single sync pass.
const DefaultDebounce = time.Second

// Syncer runs one sync pass for a profile. Satisfied by *sync.Engine.
type Syncer interface {
	Run(profile string) (*sync.Report, error)
}

// Trigger watches tracked source paths and syncs on change.
type Trigger struct {
	profile  string
	sources  []string
	debounce time.Duration
	syncer   Syncer
	logger   zerolog.Logger
}

// New creates a watch trigger for the profile's tracked source paths.
func New(profile string, sources []string, syncer Syncer) *Trigger {
	return &Trigger{
		profile:  profile,
		sources:  sources,
		debounce: DefaultDebounce,
		syncer:   syncer,
		logger:   logging.GetLogger("watch"),
	}
}

// Run watches until the context is canceled. Watcher setup failure is
// fatal; errors from individual sync passes are logged and watching
// continues.
func (t *Trigger) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, errors.ErrWatchSetup, "failed to create watcher")
	}
	defer func() {
		_ = watcher.Close()
	}()

	for _, path := range watchPaths(t.sources) {
		if err := watcher.Add(path); err != nil {
			return errors.Wrapf(err, errors.ErrWatchSetup, "failed to watch %q", path)
		}
	}

	changes := coalesce(watcher.Events, t.debounce)

	t.logger.Info().Str("profile", t.profile).Msg("Watching for changes. Press Ctrl-C to stop.")

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-watcher.Errors:
			t.logger.Error().Err(err).Msg("Watch error")
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			t.logger.Info().Msg("Change detected, syncing...")
			if _, err := t.syncer.Run(t.profile); err != nil {
				t.logger.Error().Err(err).Msg("Error during sync")
			}
		}
	}
}

// watchPaths expands the tracked sources into the set of paths handed
// to the watcher. A file's parent directory is watched alongside the
// file itself so a remove-and-recreate (how most editors save) is still
// seen.
func watchPaths(sources []string) []string {
	seen := make(map[string]bool)
	var paths []string

	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}

	for _, source := range sources {
		add(source)
		if info, err := os.Stat(source); err == nil && !info.IsDir() {
			add(filepath.Dir(source))
		}
	}
	return paths
}

// coalesce turns a stream of filesystem events into single change
// notifications: the first event opens a debounce window, everything
// arriving within it is folded into one emission. The returned channel
// is buffered so a notification can never be lost while a sync pass is
// running, and closes when the event source closes.
func coalesce(events <-chan fsnotify.Event, window time.Duration) <-chan struct{} {
	out := make(chan struct{}, 1)

	go func() {
		defer close(out)
		for {
			if _, ok := <-events; !ok {
				return
			}

			timer := time.NewTimer(window)
			for draining := true; draining; {
				select {
				case _, ok := <-events:
					if !ok {
						draining = false
					}
				case <-timer.C:
					draining = false
				}
			}
			timer.Stop()

			select {
			case out <- struct{}{}:
			default:
			}
		}
	}()

	return out
}
