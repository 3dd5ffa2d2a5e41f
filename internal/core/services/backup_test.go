package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ggbackup/internal/core/domain"
	"github.com/custodia-labs/ggbackup/internal/core/ports/driving"
)

// mockRunStore records saved runs.
type mockRunStore struct {
	runs    []domain.BackupRun
	saveErr error
}

func (s *mockRunStore) SaveRun(_ context.Context, run domain.BackupRun) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.runs = append(s.runs, run)
	return nil
}

func (s *mockRunStore) ListRuns(_ context.Context, limit int) ([]domain.BackupRun, error) {
	if limit > len(s.runs) {
		limit = len(s.runs)
	}
	return s.runs[:limit], nil
}

type backupFixture struct {
	dir      *mockDirectory
	store    *mockCredentialStore
	sessions *mockSessionFactory
	flows    *mockFlowFactory
	prompter *mockPrompter
	runs     *mockRunStore
	service  *BackupService
	target   string
}

func newBackupFixture(t *testing.T) *backupFixture {
	t.Helper()
	f := &backupFixture{
		dir:      newMockDirectory().withGroups(3, 2),
		store:    newMockCredentialStore(),
		flows:    &mockFlowFactory{flow: &mockFlow{}},
		prompter: &mockPrompter{code: "code"},
		runs:     &mockRunStore{},
		target:   t.TempDir(),
	}
	f.sessions = &mockSessionFactory{dir: f.dir}
	f.store.creds["credentials.json"] = validCredential()
	f.dir.members["g0000@example.com"] = []domain.Member{{Email: "a@example.com"}, {Email: "b@example.com"}}

	collector := NewCollector(f.flows, f.prompter, f.store, f.sessions)
	f.service = NewBackupService(collector, f.runs)
	f.service.now = func() time.Time { return time.Date(2024, 1, 15, 9, 30, 0, 0, time.Local) }
	return f
}

func (f *backupFixture) options() driving.BackupOptions {
	return driving.BackupOptions{
		Domain:        "example.com",
		ClientSecrets: "client_secrets.json",
		Credentials:   "credentials.json",
		Target:        f.target,
	}
}

func TestBackupService_Run_Clean(t *testing.T) {
	f := newBackupFixture(t)

	result := f.service.Run(context.Background(), f.options())

	require.NoError(t, result.Fatal)
	assert.Equal(t, 0, result.ErrorCount())
	assert.Equal(t, 3, result.Run.GroupCount)
	assert.Equal(t, 2, result.Run.MemberCount)
	assert.Equal(t, []int{3}, f.dir.batchSizes)

	out := filepath.Join(f.target, "example.com")
	assert.FileExists(t, filepath.Join(out, "settings.csv"))
	assert.FileExists(t, filepath.Join(out, "g0000@example.com-membership.csv"))
	assert.FileExists(t, filepath.Join(out, "g0002@example.com-membership.csv"))

	require.Len(t, f.runs.runs, 1)
	assert.Equal(t, out, f.runs.runs[0].OutputDir)
	assert.True(t, f.runs.runs[0].Clean())
	assert.NotEmpty(t, f.runs.runs[0].ID)
}

func TestBackupService_Run_NoSettingsAndDatestamp(t *testing.T) {
	f := newBackupFixture(t)
	opts := f.options()
	opts.NoSettings = true
	opts.Datestamp = true

	result := f.service.Run(context.Background(), opts)

	require.NoError(t, result.Fatal)
	assert.Empty(t, f.dir.batchSizes)
	assert.FileExists(t, filepath.Join(f.target, "example.com", "settings2024-01-15.csv"))
}

func TestBackupService_Run_MissingDomain(t *testing.T) {
	f := newBackupFixture(t)
	opts := f.options()
	opts.Domain = ""

	result := f.service.Run(context.Background(), opts)

	assert.ErrorIs(t, result.Fatal, domain.ErrInvalidInput)
	assert.Equal(t, 0, f.sessions.calls)
}

func TestBackupService_Run_FirstAuthFailureIsFatal(t *testing.T) {
	f := newBackupFixture(t)
	f.prompter.err = errors.New("cancelled")
	opts := f.options()
	opts.First = true

	result := f.service.Run(context.Background(), opts)

	assert.ErrorIs(t, result.Fatal, domain.ErrAuth)
	assert.Equal(t, 0, f.sessions.calls)
}

func TestBackupService_Run_SaveFailureIsCounted(t *testing.T) {
	f := newBackupFixture(t)
	f.store.saveErr = errors.New("permission denied")
	opts := f.options()
	opts.Save = true

	result := f.service.Run(context.Background(), opts)

	require.NoError(t, result.Fatal)
	assert.Equal(t, 1, result.ErrorCount())
	assert.ErrorIs(t, result.Errors[0], domain.ErrCredential)
	assert.Equal(t, 1, f.sessions.calls)
}

func TestBackupService_Run_Setup(t *testing.T) {
	f := newBackupFixture(t)
	delete(f.store.creds, "credentials.json")
	opts := f.options()
	opts.Setup = true
	opts.Domain = ""

	result := f.service.Run(context.Background(), opts)

	require.NoError(t, result.Fatal)
	assert.Equal(t, 0, result.ErrorCount())
	assert.Contains(t, f.store.creds, "credentials.json")
	assert.Equal(t, 0, f.sessions.calls)
	assert.Empty(t, f.runs.runs)
	_, err := os.Stat(filepath.Join(f.target, "example.com"))
	assert.True(t, os.IsNotExist(err))
}

func TestBackupService_Run_LoadFailureThenFatal(t *testing.T) {
	f := newBackupFixture(t)
	delete(f.store.creds, "credentials.json")

	result := f.service.Run(context.Background(), f.options())

	assert.Equal(t, 1, result.ErrorCount())
	assert.ErrorIs(t, result.Errors[0], domain.ErrCredential)
	assert.ErrorIs(t, result.Fatal, domain.ErrAuth)
	require.Len(t, f.runs.runs, 1)
	assert.True(t, f.runs.runs[0].Fatal)
}

func TestBackupService_Run_GroupListingFailureIsFatal(t *testing.T) {
	f := newBackupFixture(t)
	f.dir.groupPageErr[1] = errors.New("backend error")

	result := f.service.Run(context.Background(), f.options())

	assert.ErrorIs(t, result.Fatal, domain.ErrDirectory)
	assert.Equal(t, 2, result.Run.GroupCount)
	assert.Equal(t, 0, f.dir.memberCalls)
	assert.NoDirExists(t, filepath.Join(f.target, "example.com"))
}

func TestBackupService_Run_StepFailuresCountedOnce(t *testing.T) {
	f := newBackupFixture(t)
	f.dir.batchErr[0] = errors.New("batch rejected")
	f.dir.memberErr["g0001@example.com"] = errors.New("forbidden")
	f.dir.memberErr["g0002@example.com"] = errors.New("forbidden")

	result := f.service.Run(context.Background(), f.options())

	require.NoError(t, result.Fatal)
	require.Equal(t, 2, result.ErrorCount())
	assert.ErrorIs(t, result.Errors[0], domain.ErrSettings)
	assert.ErrorIs(t, result.Errors[1], domain.ErrMembers)
	assert.FileExists(t, filepath.Join(f.target, "example.com", "settings.csv"))
	assert.Equal(t, 2, f.runs.runs[0].ErrorCount)
}

func TestBackupService_Run_OutputDirectoryIsFile(t *testing.T) {
	f := newBackupFixture(t)
	require.NoError(t, os.WriteFile(filepath.Join(f.target, "example.com"), []byte("x"), 0o600))

	result := f.service.Run(context.Background(), f.options())

	require.NoError(t, result.Fatal)
	require.Equal(t, 1, result.ErrorCount())
	assert.ErrorIs(t, result.Errors[0], domain.ErrNotDirectory)
}

func TestBackupService_Run_HistoryFailureNotCounted(t *testing.T) {
	f := newBackupFixture(t)
	f.runs.saveErr = errors.New("database is locked")

	result := f.service.Run(context.Background(), f.options())

	require.NoError(t, result.Fatal)
	assert.Equal(t, 0, result.ErrorCount())
}

func TestBackupService_Run_WithoutRunStore(t *testing.T) {
	f := newBackupFixture(t)
	collector := NewCollector(f.flows, f.prompter, f.store, f.sessions)
	service := NewBackupService(collector, nil)

	result := service.Run(context.Background(), f.options())

	require.NoError(t, result.Fatal)
	assert.False(t, result.Run.FinishedAt.IsZero())
}

func TestBackupService_Run_PersistsRefreshedToken(t *testing.T) {
	f := newBackupFixture(t)
	f.sessions.refresh = func(cred *domain.Credential) {
		cred.AccessToken = "refreshed"
		cred.Expiry = time.Now().Add(time.Hour)
	}

	result := f.service.Run(context.Background(), f.options())

	require.NoError(t, result.Fatal)
	assert.Equal(t, 1, f.store.saves)
	assert.Equal(t, "refreshed", f.store.creds["credentials.json"].AccessToken)
}

func TestBackupService_Run_UnchangedTokenNotRewritten(t *testing.T) {
	f := newBackupFixture(t)

	f.service.Run(context.Background(), f.options())

	assert.Equal(t, 0, f.store.saves)
}

func TestBackupService_Run_InvalidatedTokenNotRewritten(t *testing.T) {
	f := newBackupFixture(t)
	f.sessions.refresh = func(cred *domain.Credential) {
		cred.AccessToken = "rejected"
		cred.Invalidate()
	}

	result := f.service.Run(context.Background(), f.options())

	assert.Equal(t, 0, f.store.saves)
	assert.Equal(t, 0, result.ErrorCount())
}

func TestBackupService_Run_RefreshStoreFailureNotCounted(t *testing.T) {
	f := newBackupFixture(t)
	f.store.saveErr = errors.New("read-only file system")
	f.sessions.refresh = func(cred *domain.Credential) {
		cred.AccessToken = "refreshed"
	}

	result := f.service.Run(context.Background(), f.options())

	require.NoError(t, result.Fatal)
	assert.Equal(t, 0, result.ErrorCount())
}
