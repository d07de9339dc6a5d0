package main

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/csvmigrate/internal/config"
	"github.com/JonMunkholm/csvmigrate/internal/core"
	"github.com/JonMunkholm/csvmigrate/internal/logging"
	"github.com/JonMunkholm/csvmigrate/internal/report"
)

// errReported is returned after an error document was written to stdout.
var errReported = errors.New("migration failed")

// app carries the state shared by every subcommand.
type app struct {
	stdout io.Writer
	stderr io.Writer
	now    func() time.Time

	envFiles    []string
	profilePath string
	auditDir    string
	logLevel    string

	cfg     *config.Config
	profile *config.Profile
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{stdout: stdout, stderr: stderr, now: time.Now}
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "migrate",
		Short:         "Convert CSV exports into bulk API payloads",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringSliceVar(&a.envFiles, "env-file", nil, "Dotenv files to load (default: .env)")
	flags.StringVar(&a.profilePath, "profile", "", "YAML adapter profile (default: $MIGRATE_PROFILE)")
	flags.StringVar(&a.auditDir, "audit-dir", "", "Directory for side files (default: $MIGRATE_AUDIT_DIR)")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error (default: $LOG_LEVEL)")

	cmd.AddCommand(
		newRunCmd(a),
		newPreviewCmd(a),
		newListCmd(a),
		newTemplateCmd(a),
		newDetectCmd(a),
		newServeCmd(a),
	)
	return cmd
}

// setup loads the environment, configuration and profile. Directory
// settings resolve as flag, then profile, then environment.
func (a *app) setup() error {
	if err := config.LoadDotEnv(a.envFiles...); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	level := config.Pick(a.logLevel, "", cfg.Logging.Level)
	logging.Setup(level, cfg.Logging.Format)

	profile, err := config.LoadProfile(config.Pick(a.profilePath, "", cfg.Migration.Profile))
	if err != nil {
		return err
	}

	cfg.Migration.AuditDir = config.Pick(a.auditDir, profile.AuditDir, cfg.Migration.AuditDir)
	cfg.Migration.LookupDir = config.Pick("", profile.LookupDir, cfg.Migration.LookupDir)

	a.cfg = cfg
	a.profile = profile

	slog.Debug("configuration loaded", "config", cfg.String(), "adapters", core.AdapterCount())
	return nil
}

// service builds a migration service. Side files are written only when
// audit is true and not disabled by MIGRATE_WRITE_AUDIT.
func (a *app) service(audit bool, maxFileSize int64) *core.Service {
	sc := core.ServiceConfig{
		LookupDir:   a.cfg.Migration.LookupDir,
		LookupPaths: a.profile.LookupPaths(),
		MaxFileSize: maxFileSize,
		Now:         a.now,
	}
	if audit && a.cfg.Migration.WriteAudit {
		sc.Reports = report.NewWriter(a.cfg.Migration.AuditDir, true)
	}
	return core.NewService(sc)
}

// fatal writes the error document for err to stdout.
func (a *app) fatal(err error, compact bool) error {
	fe := core.AsFatal(err)
	slog.Error("migration aborted", "code", fe.Code, "error", fe.Error())
	if werr := report.WriteFatal(a.stdout, fe, compact); werr != nil {
		return werr
	}
	return errReported
}
