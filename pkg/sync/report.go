package sync

import "time"

// FileStatus is the per-file outcome of a sync pass.
type FileStatus string

// Per-file outcomes. Only StatusFailed represents an error, and a
// failed file never stops the rest of the pass.
const (
	StatusSynced  FileStatus = "synced"
	StatusIgnored FileStatus = "ignored"
	StatusMissing FileStatus = "missing"
	StatusFailed  FileStatus = "failed"
)

// FileResult records what happened to one tracked file.
type FileResult struct {
	Relative string
	Status   FileStatus
	Err      error
}

// Report aggregates the outcome of one sync pass. A pass completes even
// when individual files fail; only store-level failures (unknown
// profile, unusable remote) abort it.
type Report struct {
	Profile string
	Files   []FileResult
}

// Failed returns the results of files that could not be deployed.
func (r *Report) Failed() []FileResult {
	var failed []FileResult
	for _, f := range r.Files {
		if f.Status == StatusFailed {
			failed = append(failed, f)
		}
	}
	return failed
}

// Synced returns the results of files that were deployed.
func (r *Report) Synced() []FileResult {
	var synced []FileResult
	for _, f := range r.Files {
		if f.Status == StatusSynced {
			synced = append(synced, f)
		}
	}
	return synced
}

// State is the process-local sync bookkeeping. It is re-derived on each
// run and never persisted.
type State struct {
	LastSynced     time.Time
	CurrentProfile string
}
