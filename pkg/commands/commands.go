// Package commands implements the operations behind the CLI: add,
// remove, sync, watch, and schedule. Each operation loads configuration
// through an explicit store, resolves the target profile, and wires the
// engine packages together.
package commands

import (
	"context"
	"io"
	"time"

	"github.com/arthur-debert/dotsync/pkg/config"
	"github.com/arthur-debert/dotsync/pkg/detect"
	"github.com/arthur-debert/dotsync/pkg/errors"
	"github.com/arthur-debert/dotsync/pkg/logging"
	"github.com/arthur-debert/dotsync/pkg/paths"
	"github.com/arthur-debert/dotsync/pkg/schedule"
	"github.com/arthur-debert/dotsync/pkg/sync"
	"github.com/arthur-debert/dotsync/pkg/watch"
)

// resolveProfile returns the explicitly requested profile, or detects
// one from host signals when none is given.
func resolveProfile(cfg *config.Config, requested string) string {
	if requested != "" {
		return requested
	}
	return detect.Profile(cfg, detect.HostSignals())
}

// ActiveProfile reports which profile an operation will act on: the
// requested name, or the detected one when none is given.
func ActiveProfile(store *config.Store, requested string) (string, error) {
	if requested != "" {
		return requested, nil
	}
	cfg, err := store.Load()
	if err != nil {
		return "", err
	}
	return resolveProfile(cfg, ""), nil
}

// Add starts tracking a file: the path is canonicalized, required to
// live under the home directory, and registered in the profile keyed by
// its home-relative path. The config is saved only on success.
func Add(store *config.Store, pth *paths.Paths, path, profile string) error {
	logger := logging.GetLogger("add")

	cfg, err := store.Load()
	if err != nil {
		return err
	}

	profileName := resolveProfile(cfg, profile)
	pc, ok := cfg.Profiles[profileName]
	if !ok {
		return errors.Newf(errors.ErrProfileNotFound, "profile %q not found", profileName)
	}

	canonical, err := paths.Canonicalize(path)
	if err != nil {
		return err
	}
	relative, err := pth.HomeRelative(canonical)
	if err != nil {
		return err
	}

	if pc.Files == nil {
		pc.Files = make(map[string]string)
	}
	pc.Files[relative] = canonical
	cfg.Profiles[profileName] = pc

	if err := store.Save(cfg); err != nil {
		return err
	}

	logger.Info().Str("file", relative).Str("profile", profileName).Msg("Added file")
	return nil
}

// Remove stops tracking a file. Removing a path that is not tracked is
// reported but is not an error, and the config is left untouched.
func Remove(store *config.Store, pth *paths.Paths, path, profile string) error {
	logger := logging.GetLogger("remove")

	cfg, err := store.Load()
	if err != nil {
		return err
	}

	profileName := resolveProfile(cfg, profile)
	pc, ok := cfg.Profiles[profileName]
	if !ok {
		return errors.Newf(errors.ErrProfileNotFound, "profile %q not found", profileName)
	}

	canonical, err := paths.Canonicalize(path)
	if err != nil {
		return err
	}
	relative, err := pth.HomeRelative(canonical)
	if err != nil {
		return err
	}

	if _, tracked := pc.Files[relative]; !tracked {
		logger.Warn().Str("file", relative).Str("profile", profileName).Msg("File not found in config")
		return nil
	}

	delete(pc.Files, relative)
	cfg.Profiles[profileName] = pc

	if err := store.Save(cfg); err != nil {
		return err
	}

	logger.Info().Str("file", relative).Str("profile", profileName).Msg("Removed file")
	return nil
}

// Sync runs one full sync pass. The diff report is written to out.
func Sync(store *config.Store, pth *paths.Paths, profile string, out io.Writer) (*sync.Report, error) {
	cfg, err := store.Load()
	if err != nil {
		return nil, err
	}

	profileName := resolveProfile(cfg, profile)
	engine := sync.NewEngine(cfg, pth, sync.Options{DiffOutput: out})
	return engine.Run(profileName)
}

// Watch runs sync passes on filesystem changes until ctx is canceled.
func Watch(ctx context.Context, store *config.Store, pth *paths.Paths, profile string, out io.Writer) error {
	cfg, err := store.Load()
	if err != nil {
		return err
	}

	profileName := resolveProfile(cfg, profile)
	pc, err := cfg.Profile(profileName)
	if err != nil {
		return err
	}

	sources := make([]string, 0, len(pc.Files))
	for _, canonical := range pc.Files {
		sources = append(sources, canonical)
	}

	engine := sync.NewEngine(cfg, pth, sync.Options{DiffOutput: out})
	return watch.New(profileName, sources, engine).Run(ctx)
}

// Schedule runs sync passes on a fixed interval until ctx is canceled.
// With interval zero, the configured sync_interval is used. The remote
// must be usable up front: a schedule that can never mirror is a
// misconfiguration, not something to log once a tick.
func Schedule(ctx context.Context, store *config.Store, pth *paths.Paths, profile string, interval time.Duration, out io.Writer) error {
	cfg, err := store.Load()
	if err != nil {
		return err
	}
	if err := cfg.ValidateRemote(); err != nil {
		return err
	}

	profileName := resolveProfile(cfg, profile)
	if _, err := cfg.Profile(profileName); err != nil {
		return err
	}

	if interval <= 0 {
		interval = time.Duration(cfg.SyncInterval) * time.Minute
	}

	run := func(fresh *config.Config, name string) error {
		engine := sync.NewEngine(fresh, pth, sync.Options{DiffOutput: out})
		_, err := engine.Run(name)
		return err
	}

	return schedule.New(store, profileName, interval, run).Run(ctx)
}
