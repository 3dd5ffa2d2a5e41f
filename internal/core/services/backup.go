package services

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/ggbackup/internal/core/domain"
	"github.com/custodia-labs/ggbackup/internal/core/ports/driven"
	"github.com/custodia-labs/ggbackup/internal/core/ports/driving"
	"github.com/custodia-labs/ggbackup/internal/logger"
)

// Ensure BackupService implements the interface.
var _ driving.BackupRunner = (*BackupService)(nil)

// BackupService runs the collector and exporter in sequence: groups, then
// settings, then members, then the CSV artifacts. Fatal failures abort
// the run; recoverable ones are counted once per step.
type BackupService struct {
	collector *Collector
	runs      driven.RunStore
	now       func() time.Time
}

// NewBackupService creates a backup service.
// runs may be nil, in which case runs are not recorded.
func NewBackupService(collector *Collector, runs driven.RunStore) *BackupService {
	return &BackupService{
		collector: collector,
		runs:      runs,
		now:       time.Now,
	}
}

// Run performs one backup run.
//
//nolint:gocyclo // Linear sequence of steps, each with its own failure mode.
func (s *BackupService) Run(ctx context.Context, opts driving.BackupOptions) *driving.BackupResult {
	result := &driving.BackupResult{
		Run: domain.BackupRun{
			ID:        uuid.New().String(),
			Domain:    opts.Domain,
			StartedAt: s.now(),
		},
	}

	if opts.Domain == "" && !opts.Setup {
		s.fatal(result, "Invalid invocation", fmt.Errorf("%w: a domain is required", domain.ErrInvalidInput))
		return result
	}

	cred, ok := s.authenticate(ctx, opts, result)
	if !ok {
		return result
	}

	if opts.Setup {
		logger.Info("Setup complete.")
		return result
	}
	defer s.record(ctx, result)
	if cred != nil {
		issued := cred.AccessToken
		defer s.persistRefreshed(opts, cred, issued)
	}

	if !opts.NoSettings && cred != nil && len(cred.Scopes) > 0 && !cred.HasScope(ScopeGroupSettings) {
		logger.Warn("Credential was not granted the group settings scope; settings lookups will fail.")
	}

	session, err := s.collector.StartSession(ctx, cred)
	if err != nil {
		s.fatal(result, "Error authenticating with Google", err)
		return result
	}

	registry, err := s.collector.ListGroups(ctx, session, opts.Domain)
	result.Run.GroupCount = registry.Len()
	if err != nil {
		s.fatal(result, "Error gathering groups", err)
		return result
	}

	if !opts.NoSettings {
		if err := s.collector.FetchSettings(ctx, session, registry); err != nil {
			s.recoverable(result, "Error gathering group settings", err)
		} else {
			logger.Info("Retrieved settings for all groups.")
		}
	}

	if err := s.collector.FetchMembers(ctx, session, registry); err != nil {
		s.recoverable(result, "Error gathering group members", err)
	} else {
		logger.Info("Retrieved members for all groups.")
	}
	result.Run.MemberCount = registry.MemberCount()

	dir := filepath.Join(opts.Target, opts.Domain)
	result.Run.OutputDir = dir
	exporter, err := NewExporter(dir, registry, ExportOptions{Datestamp: opts.Datestamp, Date: result.Run.StartedAt})
	if err != nil {
		s.recoverable(result, "Error preparing output directory", err)
		return result
	}

	if err := exporter.WriteMemberships(); err != nil {
		s.recoverable(result, "Error writing group membership", err)
	} else {
		logger.Info("Wrote all group membership CSVs.")
	}

	if err := exporter.WriteSettings(); err != nil {
		s.recoverable(result, "Error writing group settings", err)
	} else {
		logger.Info("Wrote all settings.")
	}

	return result
}

// authenticate obtains the credential for the run, either interactively or
// from the credential file. It returns false if the run must stop.
func (s *BackupService) authenticate(
	ctx context.Context, opts driving.BackupOptions, result *driving.BackupResult,
) (*domain.Credential, bool) {
	if !opts.Interactive() {
		cred, err := s.collector.LoadCredential(opts.Credentials)
		if err != nil {
			s.recoverable(result, "Error loading credentials", err)
		}
		return cred, true
	}

	cred, err := s.collector.AuthenticateInteractive(ctx, opts.ClientSecrets, !opts.NoSettings)
	if err != nil {
		s.fatal(result, "Error authenticating with Google", err)
		return nil, false
	}

	if opts.SavesCredential() {
		if err := s.collector.SaveCredential(opts.Credentials, cred); err != nil {
			s.recoverable(result, "Error saving credentials", err)
		}
	}
	return cred, true
}

func (s *BackupService) recoverable(result *driving.BackupResult, msg string, err error) {
	logger.Error("%s: %v", msg, err)
	result.Errors = append(result.Errors, err)
	result.Run.ErrorCount = len(result.Errors)
}

func (s *BackupService) fatal(result *driving.BackupResult, msg string, err error) {
	logger.Error("%s: %v", msg, err)
	result.Fatal = err
	result.Run.Fatal = true
}

// persistRefreshed writes the credential back when its access token was
// refreshed during the run, so the next run starts from the new token. A
// credential invalidated by a rejected refresh is left on disk unchanged.
func (s *BackupService) persistRefreshed(opts driving.BackupOptions, cred *domain.Credential, issued string) {
	if cred.AccessToken == issued || !cred.IsValid() {
		return
	}
	if opts.Interactive() && !opts.SavesCredential() {
		return
	}
	if err := s.collector.SaveCredential(opts.Credentials, cred); err != nil {
		logger.Warn("Could not store refreshed credentials: %v", err)
	}
}

// record stores the finished run. History is best effort.
func (s *BackupService) record(ctx context.Context, result *driving.BackupResult) {
	result.Run.FinishedAt = s.now()
	if s.runs == nil {
		return
	}
	if err := s.runs.SaveRun(ctx, result.Run); err != nil {
		logger.Warn("Could not record backup run: %v", err)
	}
}
