package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ggbackup/internal/core/domain"
	"github.com/custodia-labs/ggbackup/internal/core/ports/driven"
	"github.com/custodia-labs/ggbackup/internal/core/ports/driving"
	"github.com/custodia-labs/ggbackup/internal/logger"
)

// Defaults for the file location options.
const (
	DefaultClientSecrets = "client_secrets.json"
	DefaultCredentials   = "credentials.json"
	DefaultTarget        = "."
)

// backupFlags are the root command's own flags.
type backupFlags struct {
	domain        string
	clientSecrets string
	credentials   string
	target        string

	first bool
	save  bool
	setup bool

	noSettings bool
	datestamp  bool

	listen    bool
	noBrowser bool
}

func (f *backupFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&f.domain, "domain", "d", "", "Domain to back up (alternative to the positional argument)")

	flags.StringVar(&f.clientSecrets, "client_secrets", DefaultClientSecrets, "OAuth client secrets file")
	flags.StringVar(&f.credentials, "credentials", DefaultCredentials, "Credential file to load or save")
	flags.StringVar(&f.target, "target", DefaultTarget, "Directory to save CSVs under")

	flags.BoolVar(&f.first, "first", false, "Authenticate interactively instead of loading credentials")
	flags.BoolVarP(&f.save, "save", "s", false, "Save the credential obtained by --first")
	flags.BoolVar(&f.setup, "setup", false, "Authenticate, save the credential and exit without backing up")

	flags.BoolVar(&f.noSettings, "nosettings", false, "Skip group settings retrieval")
	flags.BoolVar(&f.datestamp, "datestamp", false, "Add the date to every CSV filename")

	flags.BoolVar(&f.listen, "listen", false, "Receive the authorization code on a local callback server")
	flags.BoolVar(&f.noBrowser, "no-browser", false, "Do not open the authorization URL in a browser")
}

// options resolves the backup options. Explicit flags win over the
// configuration file, which wins over the built-in defaults.
func (f *backupFlags) options(cmd *cobra.Command, args []string, cfg driven.ConfigStore) (driving.BackupOptions, error) {
	domainName := f.domain
	if len(args) > 0 {
		if f.domain != "" && f.domain != args[0] {
			return driving.BackupOptions{}, fmt.Errorf("%w: domain given twice (%q and %q)",
				domain.ErrInvalidInput, args[0], f.domain)
		}
		domainName = args[0]
	}

	stringOpt := func(name, value string) string {
		if !cmd.Flags().Changed(name) {
			if v := cfg.GetString(name); v != "" {
				return v
			}
		}
		return value
	}
	boolOpt := func(name string, value bool) bool {
		if !cmd.Flags().Changed(name) {
			if _, ok := cfg.Get(name); ok {
				return cfg.GetBool(name)
			}
		}
		return value
	}

	return driving.BackupOptions{
		Domain:        domainName,
		ClientSecrets: stringOpt("client_secrets", f.clientSecrets),
		Credentials:   stringOpt("credentials", f.credentials),
		Target:        stringOpt("target", f.target),
		First:         f.first,
		Save:          f.save,
		Setup:         f.setup,
		NoSettings:    boolOpt("nosettings", f.noSettings),
		Datestamp:     boolOpt("datestamp", f.datestamp),
	}, nil
}

// runBackup performs one run and returns its exit code. The error is
// non-nil only if the run could not start.
func runBackup(cmd *cobra.Command, args []string, global *globalFlags, f *backupFlags) (int, error) {
	cfg, err := loadConfig(global)
	if err != nil {
		return ExitFatal, err
	}

	opts, err := f.options(cmd, args, cfg)
	if err != nil {
		return ExitFatal, err
	}

	svc, closeFn, err := buildServices(cfg, Settings{Listen: f.listen, NoBrowser: f.noBrowser})
	if err != nil {
		return ExitFatal, err
	}
	defer closeFn()

	result := svc.Backup.Run(cmd.Context(), opts)
	code := ExitCode(result)

	switch {
	case result.Fatal != nil:
		logger.Error("Backup aborted.")
	case opts.Setup:
		if result.ErrorCount() == 0 {
			cmd.Printf("Credential saved to %s.\n", opts.Credentials)
		}
	default:
		logger.Info("Backed up %d groups (%d members) to %s with %d error(s) in %s.",
			result.Run.GroupCount, result.Run.MemberCount, result.Run.OutputDir,
			result.ErrorCount(), result.Run.Duration().Round(time.Millisecond))
	}
	return code, nil
}
