// Package cli provides the command-line interface of the changelog and release tools.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"gitchangelog/internal/apperr"
	"gitchangelog/internal/config"
	"gitchangelog/internal/gitlog"
	"gitchangelog/internal/logger"
	"gitchangelog/internal/release"
	"gitchangelog/internal/summary"
)

// App carries the collaborators shared by every command. Tests replace them.
type App struct {
	Out io.Writer
	Err io.Writer
	Now func() time.Time

	OpenRepo      func(backend, dir string) (gitlog.Repository, error)
	NewSummarizer func(cfg summary.Config) (release.Summarizer, error)
	Confirm       func(question string) (bool, error)

	settings config.Settings
	testMode bool
}

// NewApp creates an App wired to the real terminal, clock and repository.
func NewApp() *App {
	return &App{
		Out:           os.Stdout,
		Err:           os.Stderr,
		Now:           time.Now,
		OpenRepo:      gitlog.Open,
		NewSummarizer: newSummarizer,
		Confirm:       promptConfirm,
	}
}

func newSummarizer(cfg summary.Config) (release.Summarizer, error) {
	client, err := summary.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return summary.New(client), nil
}

// Execute runs cmd with args and maps the outcome onto a process exit code.
func (app *App) Execute(ctx context.Context, cmd *cobra.Command, args []string) int {
	cmd.SetArgs(args)
	cmd.SetOut(app.Out)
	cmd.SetErr(app.Err)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(app.Err, "Error: %v\n", err)
		return apperr.ExitCode(err)
	}
	return apperr.ExitOK
}

// addGlobalFlags registers the flags shared by both tools and the hook that resolves
// settings and configures logging before any command runs.
func (app *App) addGlobalFlags(rootCmd *cobra.Command) {
	flags := rootCmd.PersistentFlags()
	flags.String(config.KeyRepo, ".", "Repository directory")
	flags.String(config.KeyBackend, gitlog.BackendCLI, "Git backend (cli|native)")
	flags.String(config.KeyConfig, "", "Config file (default: .changelog.yaml, then the user config dir)")
	flags.String(config.KeyLogLevel, "", "Set log level (debug|info|warn|error) [default: info]")
	flags.String(config.KeyLogFile, "", "Write logs to file instead of stderr")
	flags.BoolVar(&app.testMode, "test-mode", false, "Run in deterministic test mode")
	_ = flags.MarkHidden("test-mode")

	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return apperr.Wrap(apperr.ErrUsage, "invalid arguments", err)
	})
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		return app.initSettings(cmd.Flags())
	}
}

func (app *App) initSettings(flags *pflag.FlagSet) error {
	settings, err := config.Load(flags)
	if err != nil {
		return err
	}
	if err := logger.Configure(settings.LogLevel, settings.LogFile, app.testMode); err != nil {
		return apperr.Wrap(apperr.ErrIO, "failed to open log file", err)
	}
	if settings.LogFile == "" {
		logger.SetOutput(app.Err)
	}
	app.settings = settings
	return nil
}

func (app *App) openRepo() (gitlog.Repository, error) {
	return app.OpenRepo(app.settings.Backend, app.settings.RepoDir)
}

// usageArgs turns positional-argument validation failures into usage errors.
func usageArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return apperr.Wrap(apperr.ErrUsage, "invalid arguments", err)
		}
		return nil
	}
}
