package domain

import "time"

// BackupRun records the outcome of one backup run.
type BackupRun struct {
	ID         string
	Domain     string
	StartedAt  time.Time
	FinishedAt time.Time
	// OutputDir is the directory the CSV artifacts were written to.
	OutputDir   string
	GroupCount  int
	MemberCount int
	// ErrorCount is the number of recoverable step failures.
	ErrorCount int
	// Fatal is true if the run was aborted.
	Fatal bool
}

// Duration returns how long the run took.
func (r BackupRun) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Clean returns true if the run finished without any error.
func (r BackupRun) Clean() bool {
	return !r.Fatal && r.ErrorCount == 0
}
