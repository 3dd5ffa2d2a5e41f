package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/ggbackup/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/ggbackup/internal/core/domain"
	"github.com/custodia-labs/ggbackup/internal/core/ports/driven"
)

// DefaultFilename is the database file name under ~/.ggbackup.
const DefaultFilename = "history.db"

// Ensure Store implements the interface.
var _ driven.RunStore = (*Store)(nil)

// Store is a SQLite-backed run history.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (creating if needed) the database at path.
// If path is empty, defaults to ~/.ggbackup/history.db.
func NewStore(path string) (*Store, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, ".ggbackup", DefaultFilename)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: path,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_runs.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// SaveRun stores or replaces a run.
func (s *Store) SaveRun(ctx context.Context, run domain.BackupRun) error {
	var finishedAt sql.NullTime
	if !run.FinishedAt.IsZero() {
		finishedAt = sql.NullTime{Time: run.FinishedAt.UTC(), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, domain, started_at, finished_at, output_dir,
			group_count, member_count, error_count, fatal)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			finished_at = excluded.finished_at,
			output_dir = excluded.output_dir,
			group_count = excluded.group_count,
			member_count = excluded.member_count,
			error_count = excluded.error_count,
			fatal = excluded.fatal
	`, run.ID, run.Domain, run.StartedAt.UTC(), finishedAt, run.OutputDir,
		run.GroupCount, run.MemberCount, run.ErrorCount, run.Fatal)
	if err != nil {
		return fmt.Errorf("saving run: %w", err)
	}
	return nil
}

// ListRuns returns up to limit runs, most recent first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]domain.BackupRun, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, domain, started_at, finished_at, output_dir,
			group_count, member_count, error_count, fatal
		FROM runs
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.BackupRun
	for rows.Next() {
		var run domain.BackupRun
		var startedAt, finishedAt sql.NullTime
		if err := rows.Scan(&run.ID, &run.Domain, &startedAt, &finishedAt, &run.OutputDir,
			&run.GroupCount, &run.MemberCount, &run.ErrorCount, &run.Fatal); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if startedAt.Valid {
			run.StartedAt = startedAt.Time
		}
		if finishedAt.Valid {
			run.FinishedAt = finishedAt.Time
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
