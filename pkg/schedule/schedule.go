// Package schedule invokes a sync pass on a fixed wall-clock interval.
// Configuration is reloaded from the store on every tick, so edits to
// the config file take effect without a restart. Ticks never overlap:
// each runs to completion before the next is waited on.
package schedule

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/arthur-debert/dotsync/pkg/config"
	"github.com/arthur-debert/dotsync/pkg/errors"
	"github.com/arthur-debert/dotsync/pkg/logging"
)

// Loader reloads the configuration. Satisfied by *config.Store.
type Loader interface {
	Load() (*config.Config, error)
}

// RunFunc executes one sync pass against a freshly loaded config.
type RunFunc func(cfg *config.Config, profile string) error

// Trigger runs scheduled sync passes.
type Trigger struct {
	loader   Loader
	profile  string
	interval time.Duration
	run      RunFunc
	clock    clockwork.Clock
	logger   zerolog.Logger
}

// New creates a schedule trigger firing every interval.
func New(loader Loader, profile string, interval time.Duration, run RunFunc) *Trigger {
	return &Trigger{
		loader:   loader,
		profile:  profile,
		interval: interval,
		run:      run,
		clock:    clockwork.NewRealClock(),
		logger:   logging.GetLogger("schedule"),
	}
}

// Run ticks until the context is canceled. Errors from individual
// passes (including reload failures) are logged, never propagated.
func (t *Trigger) Run(ctx context.Context) error {
	if t.interval <= 0 {
		return errors.New(errors.ErrSchedule, "sync interval must be greater than 0")
	}

	ticker := t.clock.NewTicker(t.interval)
	defer ticker.Stop()

	t.logger.Info().
		Dur("interval", t.interval).
		Str("profile", t.profile).
		Msg("Scheduled sync started")

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.Chan():
			t.tick()
		}
	}
}

// tick is one reload-then-run step. The reload boundary is explicit so
// it can be tested in isolation from the run step.
func (t *Trigger) tick() {
	cfg, err := t.loader.Load()
	if err != nil {
		t.logger.Error().Err(err).Msg("Failed to reload config, skipping tick")
		return
	}

	if err := t.run(cfg, t.profile); err != nil {
		t.logger.Error().Err(err).Msg("Scheduled sync error")
	}
}
