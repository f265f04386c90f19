package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/dotsync/pkg/commands"
	"github.com/arthur-debert/dotsync/pkg/config"
	"github.com/arthur-debert/dotsync/pkg/logging"
	"github.com/arthur-debert/dotsync/pkg/paths"
)

// Populated at build time via -ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// NewRootCmd builds the dotsync command tree. Construction is kept in a
// function so tests can run isolated command instances.
func NewRootCmd() *cobra.Command {
	var (
		verbosity int
		profile   string
		interval  int
	)

	rootCmd := &cobra.Command{
		Use:   "dotsync",
		Short: MsgRootShort,
		Long:  MsgRootLong,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", MsgFlagVerbose)
	rootCmd.PersistentFlags().StringVarP(&profile, "profile", "p", "", MsgFlagProfile)

	addCmd := &cobra.Command{
		Use:   "add <path>",
		Short: MsgAddShort,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, pth, err := openStore()
			if err != nil {
				return err
			}
			if err := commands.Add(store, pth, args[0], profile); err != nil {
				return err
			}
			cmd.Printf(MsgFileAdded, args[0], resolvedProfile(store, profile))
			return nil
		},
	}

	removeCmd := &cobra.Command{
		Use:   "remove <path>",
		Short: MsgRemoveShort,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, pth, err := openStore()
			if err != nil {
				return err
			}
			if err := commands.Remove(store, pth, args[0], profile); err != nil {
				return err
			}
			cmd.Printf(MsgFileRemoved, args[0], resolvedProfile(store, profile))
			return nil
		},
	}

	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: MsgSyncShort,
		Long:  MsgSyncLong,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, pth, err := openStore()
			if err != nil {
				return err
			}
			report, err := commands.Sync(store, pth, profile, cmd.OutOrStdout())
			if report != nil {
				printSummary(cmd.OutOrStdout(), report.Profile, len(report.Synced()), len(report.Failed()))
			}
			return err
		},
	}

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: MsgWatchShort,
		Long:  MsgWatchLong,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, pth, err := openStore()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			cmd.Printf(MsgWatchStarted, resolvedProfile(store, profile))
			return commands.Watch(ctx, store, pth, profile, cmd.OutOrStdout())
		},
	}

	scheduleCmd := &cobra.Command{
		Use:   "schedule",
		Short: MsgScheduleShort,
		Long:  MsgScheduleLong,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, pth, err := openStore()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			every := time.Duration(interval) * time.Minute
			cmd.Printf(MsgScheduleStart, resolvedProfile(store, profile), scheduleLabel(store, every))
			return commands.Schedule(ctx, store, pth, profile, every, cmd.OutOrStdout())
		},
	}
	scheduleCmd.Flags().IntVar(&interval, "interval", 0, MsgFlagInterval)

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: MsgVersionShort,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("dotsync version %s\n", version)
			cmd.Printf("  commit: %s\n", commit)
			cmd.Printf("  built:  %s\n", date)
		},
	}

	rootCmd.AddCommand(addCmd, removeCmd, syncCmd, watchCmd, scheduleCmd, versionCmd)
	return rootCmd
}

// openStore resolves the standard paths and the config store they imply.
func openStore() (*config.Store, *paths.Paths, error) {
	pth, err := paths.New()
	if err != nil {
		return nil, nil, err
	}
	return config.NewStore(pth.ConfigFile()), pth, nil
}

// resolvedProfile names the profile a command will act on, for display.
// Failures fall back to the requested name; the command itself reports
// them properly.
func resolvedProfile(store *config.Store, requested string) string {
	name, err := commands.ActiveProfile(store, requested)
	if err != nil {
		return requested
	}
	return name
}

func scheduleLabel(store *config.Store, interval time.Duration) string {
	if interval > 0 {
		return interval.String()
	}
	if cfg, err := store.Load(); err == nil {
		return (time.Duration(cfg.SyncInterval) * time.Minute).String()
	}
	return "the configured interval"
}

func printSummary(out io.Writer, profile string, synced, failed int) {
	fmt.Fprintf(out, MsgSyncSummary, profile, synced, failed)
}
