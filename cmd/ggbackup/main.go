// Command ggbackup backs up the groups of a Google Workspace domain to CSV.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/ggbackup/internal/adapters/driven/config/env"
	"github.com/custodia-labs/ggbackup/internal/adapters/driven/config/file"
	"github.com/custodia-labs/ggbackup/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/ggbackup/internal/adapters/driving/cli"
	"github.com/custodia-labs/ggbackup/internal/adapters/driving/oauth"
	"github.com/custodia-labs/ggbackup/internal/connectors/google"
	"github.com/custodia-labs/ggbackup/internal/connectors/google/groups"
	"github.com/custodia-labs/ggbackup/internal/core/ports/driven"
	"github.com/custodia-labs/ggbackup/internal/core/services"
	"github.com/custodia-labs/ggbackup/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cli.SetWiring(&cli.Wiring{
		LoadConfig: loadConfig,
		Build:      build,
	})

	code := cli.Execute(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

// loadConfig reads the configuration file with GGBACKUP_ variables layered on top.
func loadConfig(path string) (driven.ConfigStore, error) {
	store, err := file.NewConfigStore(path)
	if err != nil {
		return nil, err
	}
	return env.NewOverlay(store)
}

// build wires the adapters for one invocation.
func build(settings cli.Settings) (*cli.Services, error) {
	var browser oauth.Browser = oauth.OpenBrowser
	if settings.NoBrowser {
		browser = nil
	}

	var prompter driven.AuthPrompter
	if settings.Listen {
		p, err := oauth.NewLoopbackPrompter(os.Stdout, browser)
		if err != nil {
			return nil, err
		}
		prompter = p
	} else {
		prompter = oauth.NewTerminalPrompter(browser)
	}

	collector := services.NewCollector(
		google.NewFlowFactory(),
		prompter,
		file.NewCredentialStore(),
		groups.NewSessionFactory(groups.Config{
			PageSize:          settings.PageSize,
			RequestsPerSecond: settings.RequestsPerSecond,
		}),
	)

	runs, closeFn := openHistory(settings)
	svc := &cli.Services{Close: closeFn}
	svc.Backup = services.NewBackupService(collector, runs)
	svc.History = services.NewHistoryService(runs)
	return svc, nil
}

// openHistory opens the run history store. History is best effort: a store
// that cannot be opened is logged and the backup runs without it.
func openHistory(settings cli.Settings) (driven.RunStore, func() error) {
	if !settings.HistoryEnabled {
		return nil, nil
	}
	store, err := sqlite.NewStore(settings.HistoryPath)
	if err != nil {
		logger.Warn("Run history unavailable, this run will not be recorded: %v", err)
		return nil, nil
	}
	return store, store.Close
}
