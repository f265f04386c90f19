// Package sync orchestrates one full synchronization pass for a
// profile: diff report, then per-file filter/backup/deploy, then remote
// mirroring, then bookkeeping. The order is strict; files themselves
// are independent and one file's failure never blocks the others.
package sync

import (
	"io"
	"os"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/arthur-debert/dotsync/pkg/backup"
	"github.com/arthur-debert/dotsync/pkg/config"
	"github.com/arthur-debert/dotsync/pkg/deploy"
	"github.com/arthur-debert/dotsync/pkg/diff"
	"github.com/arthur-debert/dotsync/pkg/filter"
	"github.com/arthur-debert/dotsync/pkg/logging"
	"github.com/arthur-debert/dotsync/pkg/mirror"
	"github.com/arthur-debert/dotsync/pkg/paths"
)

// Mirrorer pushes the tracked-file set to the remote. Satisfied by
// *mirror.Mirror.
type Mirrorer interface {
	Sync(tracked map[string]string) error
}

// Options overrides the engine's default wiring.
type Options struct {
	// DiffOutput receives the advisory diff report. Defaults to stdout.
	DiffOutput io.Writer

	// Filter decides per-file sync eligibility. Defaults to the
	// gitignore-aware filter.
	Filter *filter.Filter

	// Mirror handles the remote step. Defaults to the git mirror at
	// the fixed mirror directory.
	Mirror Mirrorer
}

// Engine runs sync passes.
type Engine struct {
	cfg      *config.Config
	pth      *paths.Paths
	filter   *filter.Filter
	differ   *diff.Reporter
	deployer *deploy.Deployer
	mirror   Mirrorer
	state    State
	logger   zerolog.Logger
}

// NewEngine wires an engine for the given configuration.
func NewEngine(cfg *config.Config, pth *paths.Paths, opts Options) *Engine {
	if opts.DiffOutput == nil {
		opts.DiffOutput = os.Stdout
	}
	if opts.Filter == nil {
		opts.Filter = filter.NewDefault()
	}
	if opts.Mirror == nil {
		opts.Mirror = mirror.New(pth.MirrorDir(), cfg.Remote)
	}

	return &Engine{
		cfg:      cfg,
		pth:      pth,
		filter:   opts.Filter,
		differ:   diff.NewReporter(opts.DiffOutput),
		deployer: deploy.New(backup.NewManager()),
		mirror:   opts.Mirror,
		logger:   logging.GetLogger("sync"),
	}
}

// Run executes one full sync pass for the named profile. Per-file
// failures are collected into the report and the pass continues; the
// returned error is non-nil only for store-level failures (profile not
// found, remote unusable, mirror aborted), in which case last_synced is
// not updated.
func (e *Engine) Run(profile string) (*Report, error) {
	defer logging.LogDuration(time.Now(), "sync pass")

	pc, err := e.cfg.Profile(profile)
	if err != nil {
		return nil, err
	}

	report := &Report{Profile: profile}

	// Diff first, so the report reflects pre-sync state.
	e.reportDiffs(pc)

	for _, relative := range sortedKeys(pc.Files) {
		report.Files = append(report.Files, e.syncFile(relative, pc.Files[relative], pc))
	}

	// The mirror covers every profile's tracked set, not just the one
	// being synced.
	if err := e.cfg.ValidateRemote(); err != nil {
		return report, err
	}
	if err := e.mirror.Sync(e.cfg.TrackedFiles()); err != nil {
		return report, err
	}

	e.state = State{LastSynced: time.Now(), CurrentProfile: profile}
	e.logger.Info().
		Str("profile", profile).
		Int("synced", len(report.Synced())).
		Int("failed", len(report.Failed())).
		Msg("Sync pass completed")

	return report, nil
}

// reportDiffs prints a diff for every tracked file whose source and
// deployed copy both exist.
func (e *Engine) reportDiffs(pc *config.ProfileConfig) {
	for _, relative := range sortedKeys(pc.Files) {
		source := pc.Files[relative]
		dest := e.pth.DeployPath(relative)

		if !fileExists(source) || !fileExists(dest) {
			continue
		}
		if err := e.differ.File(relative, dest, source); err != nil {
			e.logger.Warn().Err(err).Str("file", relative).Msg("Diff failed")
		}
	}
}

func (e *Engine) syncFile(relative, canonical string, pc *config.ProfileConfig) FileResult {
	dest := e.pth.DeployPath(relative)

	if !fileExists(canonical) {
		e.logger.Warn().Str("source", canonical).Msg("Source file missing")
		return FileResult{Relative: relative, Status: StatusMissing}
	}

	if !e.filter.ShouldSync(canonical, pc.IgnorePatterns) {
		e.logger.Info().Str("file", relative).Msg("Skipped syncing (ignored)")
		return FileResult{Relative: relative, Status: StatusIgnored}
	}

	if err := e.deployer.Deploy(canonical, dest, pc.UseSymlinks); err != nil {
		e.logger.Error().Err(err).Str("file", relative).Msg("Deploy failed")
		return FileResult{Relative: relative, Status: StatusFailed, Err: err}
	}

	e.logger.Info().Str("file", relative).Msg("Synced")
	return FileResult{Relative: relative, Status: StatusSynced}
}

// State returns the process-local bookkeeping from the last completed
// pass.
func (e *Engine) State() State {
	return e.state
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// sortedKeys fixes the per-file processing order. Files are independent
// so no order is required, but a stable one keeps logs and diff output
// readable.
func sortedKeys(files map[string]string) []string {
	keys := make([]string, 0, len(files))
	for k := range files {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
