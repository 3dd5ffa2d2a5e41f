package driving

import (
	"context"

	"github.com/custodia-labs/ggbackup/internal/core/domain"
)

// BackupRunner performs one complete backup run.
type BackupRunner interface {
	// Run authenticates, collects the group registry and writes the CSV
	// artifacts. It never returns early on recoverable failures; those are
	// counted in the result.
	Run(ctx context.Context, opts BackupOptions) *BackupResult
}

// BackupOptions configures a backup run.
type BackupOptions struct {
	// Domain is the G Suite domain whose groups are backed up.
	Domain string
	// ClientSecrets is the OAuth client secrets file used by a first authentication.
	ClientSecrets string
	// Credentials is the credential file to load or save.
	Credentials string
	// Target is the directory under which <domain>/ is written.
	Target string

	// First performs the full interactive OAuth2 flow instead of loading credentials.
	First bool
	// Save writes the credential obtained by the first authentication.
	Save bool
	// Setup authenticates and saves, then stops without fetching.
	Setup bool

	// NoSettings skips the group settings enrichment.
	NoSettings bool
	// Datestamp inserts the run date into every CSV filename.
	Datestamp bool
}

// Interactive returns true if the run needs the interactive consent flow.
func (o BackupOptions) Interactive() bool {
	return o.First || o.Save || o.Setup
}

// SavesCredential returns true if the obtained credential should be persisted.
func (o BackupOptions) SavesCredential() bool {
	return o.Save || o.Setup
}

// BackupResult is the outcome of a run.
type BackupResult struct {
	// Run is the recorded summary.
	Run domain.BackupRun
	// Errors are the recoverable failures, one per failed step.
	Errors []error
	// Fatal is the error that aborted the run, if any.
	Fatal error
}

// ErrorCount returns the number of recoverable failures.
func (r *BackupResult) ErrorCount() int {
	return len(r.Errors)
}
