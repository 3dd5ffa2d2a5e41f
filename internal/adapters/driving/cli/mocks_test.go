package cli

import (
	"context"
	"testing"

	"github.com/custodia-labs/ggbackup/internal/core/domain"
	"github.com/custodia-labs/ggbackup/internal/core/ports/driven"
	"github.com/custodia-labs/ggbackup/internal/core/ports/driving"
)

// mockConfig is a map-backed driven.ConfigStore.
type mockConfig struct {
	data map[string]any
	path string
}

var _ driven.ConfigStore = (*mockConfig)(nil)

func (c *mockConfig) Get(key string) (any, bool) {
	v, ok := c.data[key]
	return v, ok
}

func (c *mockConfig) GetString(key string) string {
	s, _ := c.data[key].(string)
	return s
}

func (c *mockConfig) GetInt(key string) int {
	i, _ := c.data[key].(int)
	return i
}

func (c *mockConfig) GetFloat(key string) float64 {
	f, _ := c.data[key].(float64)
	return f
}

func (c *mockConfig) GetBool(key string) bool {
	b, _ := c.data[key].(bool)
	return b
}

func (c *mockConfig) Load() error {
	return nil
}

func (c *mockConfig) Path() string {
	return c.path
}

// mockRunner records the options it was run with.
type mockRunner struct {
	opts   []driving.BackupOptions
	result *driving.BackupResult
}

func (r *mockRunner) Run(_ context.Context, opts driving.BackupOptions) *driving.BackupResult {
	r.opts = append(r.opts, opts)
	if r.result != nil {
		return r.result
	}
	return &driving.BackupResult{Run: domain.BackupRun{Domain: opts.Domain}}
}

// mockHistory returns canned runs.
type mockHistory struct {
	runs  []domain.BackupRun
	err   error
	limit int
}

func (h *mockHistory) Recent(_ context.Context, limit int) ([]domain.BackupRun, error) {
	h.limit = limit
	return h.runs, h.err
}

// testWiring installs mocks and restores the previous wiring on cleanup.
type testWiring struct {
	config     *mockConfig
	configPath string
	runner     *mockRunner
	history    *mockHistory
	settings   []Settings
	closed     int
	buildErr   error
}

func installWiring(t *testing.T) *testWiring {
	t.Helper()
	w := &testWiring{
		config:  &mockConfig{data: map[string]any{}},
		runner:  &mockRunner{},
		history: &mockHistory{},
	}

	previous := wiring
	SetWiring(&Wiring{
		LoadConfig: func(path string) (driven.ConfigStore, error) {
			w.configPath = path
			return w.config, nil
		},
		Build: func(settings Settings) (*Services, error) {
			if w.buildErr != nil {
				return nil, w.buildErr
			}
			w.settings = append(w.settings, settings)
			closeFn := func() error {
				w.closed++
				return nil
			}
			return &Services{Backup: w.runner, History: w.history, Close: closeFn}, nil
		},
	})
	t.Cleanup(func() { wiring = previous })
	return w
}
