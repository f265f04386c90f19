package main

// Short messages (one-liners)
const (
	// Command descriptions
	MsgRootShort     = "Keep your dotfiles in sync across machines"
	MsgAddShort      = "Start tracking a dotfile"
	MsgRemoveShort   = "Stop tracking a dotfile"
	MsgSyncShort     = "Run one sync pass"
	MsgWatchShort    = "Sync whenever a tracked file changes"
	MsgScheduleShort = "Sync on a fixed interval"
	MsgVersionShort  = "Print version information"

	// Status messages
	MsgFileAdded     = "Tracking '%s' in profile '%s'\n"
	MsgFileRemoved   = "No longer tracking '%s' in profile '%s'\n"
	MsgSyncSummary   = "\nProfile '%s': %d synced, %d failed\n"
	MsgWatchStarted  = "Watching profile '%s', press Ctrl-C to stop\n"
	MsgScheduleStart = "Syncing profile '%s' every %s, press Ctrl-C to stop\n"

	// Flag descriptions
	MsgFlagVerbose  = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagProfile  = "Profile to use (default: detected from this host)"
	MsgFlagInterval = "Minutes between syncs (default: sync_interval from config)"
)

// Long messages
const (
	MsgRootLong = `dotsync keeps the dotfiles you care about deployed in your home
directory and mirrored to a git remote. Files are grouped into profiles;
the active profile can be detected from hostname, OS, or environment
variables, or picked explicitly with --profile.`

	MsgSyncLong = `Sync deploys every file in the profile to its place under your home
directory, printing a diff of what changed, then commits and pushes the
tracked files to the configured remote repository.

Files that fail to deploy are reported and skipped; the rest of the
profile still syncs.`

	MsgWatchLong = `Watch monitors the profile's source files and runs a sync pass when
any of them change. Bursts of changes are coalesced into a single pass.`

	MsgScheduleLong = `Schedule runs a sync pass on a fixed interval. The configuration is
reloaded before every pass, so config edits take effect without a
restart.`
)
