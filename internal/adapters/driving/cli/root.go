// Package cli implements the ggbackup command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ggbackup/internal/core/domain"
	"github.com/custodia-labs/ggbackup/internal/core/ports/driven"
	"github.com/custodia-labs/ggbackup/internal/core/ports/driving"
	"github.com/custodia-labs/ggbackup/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Exit codes. A run with recoverable errors exits with their count,
// capped below ExitFatal.
const (
	ExitOK    = 0
	ExitFatal = 100
)

// Settings are the resolved options the adapters are built from.
type Settings struct {
	// Listen receives the authorization code on a loopback server.
	Listen bool
	// NoBrowser disables opening the consent URL in a browser.
	NoBrowser bool

	HistoryEnabled bool
	// HistoryPath is the run history database; empty uses the default.
	HistoryPath string

	PageSize          int
	RequestsPerSecond float64
}

// Services are the driving ports the commands call.
type Services struct {
	Backup  driving.BackupRunner
	History driving.HistoryService
	// Close releases resources held by the services. May be nil.
	Close func() error
}

// Wiring builds the adapters behind the commands once flags are parsed.
type Wiring struct {
	// LoadConfig opens the configuration file at path.
	LoadConfig func(path string) (driven.ConfigStore, error)
	// Build constructs the services for settings.
	Build func(settings Settings) (*Services, error)
}

var wiring *Wiring

// SetWiring sets the adapter wiring used by Execute.
func SetWiring(w *Wiring) {
	wiring = w
}

// globalFlags apply to every command.
type globalFlags struct {
	verbose    bool
	debug      bool
	configPath string
}

func newRootCmd(exitCode *int) *cobra.Command {
	global := &globalFlags{}
	backup := &backupFlags{}

	cmd := &cobra.Command{
		Use:   "ggbackup [domain]",
		Short: "Back up Google Groups",
		Long: `Back up the groups of a Google Workspace domain to CSV files.

For every group a <email>-membership.csv file is written, plus one
settings.csv file with the settings of all groups, under <target>/<domain>/.

The first run must authenticate interactively (--first, usually with
--save, or --setup to only create the credential file). Later runs
reuse the saved credential.`,
		Example: `  ggbackup --setup
  ggbackup example.com --target /backups --datestamp
  ggbackup -d example.com --first --listen`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			applyLogging(global)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := runBackup(cmd, args, global, backup)
			*exitCode = code
			return err
		},
	}

	cmd.PersistentFlags().BoolVarP(&global.verbose, "verbose", "v", false, "Verbose logging")
	cmd.PersistentFlags().BoolVar(&global.debug, "debug", false, "Debug logging")
	cmd.PersistentFlags().StringVar(&global.configPath, "config", "",
		"Configuration file (default ~/.ggbackup/config.toml)")
	backup.register(cmd)

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newHistoryCmd(global))
	return cmd
}

func applyLogging(global *globalFlags) {
	switch {
	case global.debug:
		logger.SetLevel(logger.LevelDebug)
	case global.verbose:
		logger.SetLevel(logger.LevelInfo)
	default:
		logger.SetLevel(logger.LevelWarn)
	}
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context, args []string) int {
	return execute(ctx, args, os.Stdout, os.Stderr)
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	exitCode := ExitOK
	cmd := newRootCmd(&exitCode)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		cmd.PrintErrln("Error:", err)
		if exitCode == ExitOK {
			exitCode = ExitFatal
		}
	}
	return exitCode
}

// ExitCode maps a backup result to the process exit code.
func ExitCode(result *driving.BackupResult) int {
	if result == nil || result.Fatal != nil {
		return ExitFatal
	}
	if n := result.ErrorCount(); n < ExitFatal {
		return n
	}
	return ExitFatal - 1
}

// loadConfig opens the configuration file named by --config.
func loadConfig(global *globalFlags) (driven.ConfigStore, error) {
	if wiring == nil || wiring.LoadConfig == nil {
		return nil, errors.New("configuration not wired")
	}
	cfg, err := wiring.LoadConfig(global.configPath)
	if err != nil {
		return nil, fmt.Errorf("%w: loading configuration: %w", domain.ErrInvalidInput, err)
	}
	return cfg, nil
}

// buildServices resolves settings from cfg and builds the services.
func buildServices(cfg driven.ConfigStore, settings Settings) (*Services, func(), error) {
	if wiring == nil || wiring.Build == nil {
		return nil, nil, errors.New("services not wired")
	}

	settings.HistoryEnabled = true
	if _, ok := cfg.Get("history.enabled"); ok {
		settings.HistoryEnabled = cfg.GetBool("history.enabled")
	}
	settings.HistoryPath = cfg.GetString("history.path")
	settings.PageSize = cfg.GetInt("api.page_size")
	settings.RequestsPerSecond = cfg.GetFloat("api.requests_per_second")

	svc, err := wiring.Build(settings)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if svc.Close == nil {
			return
		}
		if err := svc.Close(); err != nil {
			logger.Debug("Closing services: %v", err)
		}
	}
	return svc, closeFn, nil
}
