package cli

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ggbackup/internal/core/domain"
)

func TestHistory_ListsRuns(t *testing.T) {
	w := installWiring(t)
	started := time.Date(2024, 1, 15, 9, 30, 0, 0, time.Local)
	w.history.runs = []domain.BackupRun{
		{
			Domain: "example.com", StartedAt: started, FinishedAt: started.Add(2 * time.Minute),
			GroupCount: 12, MemberCount: 340, OutputDir: "/backups/example.com",
		},
		{Domain: "example.org", StartedAt: started.Add(-time.Hour), Fatal: true},
		{Domain: "example.net", StartedAt: started.Add(-2 * time.Hour), ErrorCount: 3},
	}

	code, out := runCLI(t, "history", "--limit", "5")

	assert.Equal(t, ExitOK, code)
	assert.Equal(t, 5, w.history.limit)
	assert.Contains(t, out, "STARTED")
	assert.Contains(t, out, "2024-01-15 09:30:00")
	assert.Contains(t, out, "example.com")
	assert.Contains(t, out, "/backups/example.com")
	assert.Contains(t, out, "2m0s")
	assert.Contains(t, out, "ok")
	assert.Contains(t, out, "aborted")
	assert.Contains(t, out, "errors")
}

func TestHistory_DefaultLimit(t *testing.T) {
	w := installWiring(t)

	runCLI(t, "history")

	assert.Equal(t, 10, w.history.limit)
}

func TestHistory_Empty(t *testing.T) {
	installWiring(t)

	code, out := runCLI(t, "history")

	assert.Equal(t, ExitOK, code)
	assert.Contains(t, out, "No backup runs recorded.")
}

func TestHistory_Disabled(t *testing.T) {
	w := installWiring(t)
	w.history.err = domain.ErrHistoryDisabled

	code, out := runCLI(t, "history")

	assert.Equal(t, ExitOK, code)
	assert.Contains(t, out, "Run history is disabled.")
}

func TestHistory_Error(t *testing.T) {
	w := installWiring(t)
	w.history.err = errors.New("database is locked")

	code, out := runCLI(t, "history")

	assert.Equal(t, ExitFatal, code)
	assert.Contains(t, out, "database is locked")
	require.Empty(t, w.runner.opts)
}

func TestRunStatus(t *testing.T) {
	assert.Equal(t, "ok", runStatus(domain.BackupRun{}))
	assert.Equal(t, "errors", runStatus(domain.BackupRun{ErrorCount: 1}))
	assert.Equal(t, "aborted", runStatus(domain.BackupRun{Fatal: true, ErrorCount: 1}))
}

func TestHistoryTable_PlainWhenNotTerminal(t *testing.T) {
	var buf bytes.Buffer
	runs := []domain.BackupRun{{Domain: "example.com", GroupCount: 4, Fatal: true}}

	out := historyTable(lipgloss.NewRenderer(&buf), runs)

	assert.NotContains(t, out, "\x1b[")
	assert.Contains(t, out, "example.com")
	assert.Contains(t, out, "aborted")
	assert.Contains(t, out, "GROUPS")
}
