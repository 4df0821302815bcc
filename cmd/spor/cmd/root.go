// Package cmd provides the CLI commands for spor.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/spor/internal/config"
	sperrors "github.com/Aman-CERP/spor/internal/errors"
	"github.com/Aman-CERP/spor/internal/logging"
	"github.com/Aman-CERP/spor/internal/profiling"
	"github.com/Aman-CERP/spor/internal/repository"
	"github.com/Aman-CERP/spor/internal/ui"
	"github.com/Aman-CERP/spor/internal/workspace"
	"github.com/Aman-CERP/spor/pkg/version"
)

// app holds the global flags and the resources they start.
type app struct {
	debug   bool
	noColor bool
	profile profiling.Options

	closeLog func()
	session  *profiling.Session
}

// NewRootCmd creates the root command for the spor CLI.
func NewRootCmd() *cobra.Command {
	return newApp().rootCmd()
}

func newApp() *app {
	return &app{}
}

func (a *app) rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "spor",
		Short: "Anchor metadata to text that keeps up with your edits",
		Long: `spor attaches metadata to spans of text files. Each anchor stores the
span together with the text around it, so when the file is edited
'spor update' can find the span again using local sequence alignment.

Anchors live in a .spor directory at the repository root, created with
'spor init'.`,
		Version:           version.Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.start,
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return a.finish()
		},
	}

	cmd.SetVersionTemplate("spor version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable debug logging to stderr and the log file")
	cmd.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "Disable colored output")
	cmd.PersistentFlags().StringVar(&a.profile.CPU, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&a.profile.Heap, "profile-mem", "", "Write memory profile to file")
	cmd.PersistentFlags().StringVar(&a.profile.Trace, "profile-trace", "", "Write execution trace to file")

	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(a.newAddCmd())
	cmd.AddCommand(a.newListCmd())
	cmd.AddCommand(a.newDetailsCmd())
	cmd.AddCommand(a.newDiffCmd())
	cmd.AddCommand(a.newStatusCmd())
	cmd.AddCommand(a.newUpdateCmd())
	cmd.AddCommand(a.newRemoveCmd())
	cmd.AddCommand(a.newWatchCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(a.newConfigCmd())
	cmd.AddCommand(a.newLogsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// start installs logging and starts any requested profiles.
func (a *app) start(cmd *cobra.Command, _ []string) error {
	var logCfg logging.Config
	switch {
	case cmd.Name() == "serve":
		level := configuredLogLevel()
		if a.debug {
			level = "debug"
		}
		logCfg = logging.ServeConfig(level)
	case a.debug:
		logCfg = logging.DebugConfig()
	default:
		logCfg = logging.DefaultConfig()
		logCfg.Level = configuredLogLevel()
	}

	closeLog, err := logging.Install(logCfg)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	a.closeLog = closeLog
	slog.Debug("command started",
		slog.String("command", cmd.CommandPath()),
		slog.String("version", version.Version),
		slog.Bool("dev_build", version.IsDev()))

	if a.profile.Enabled() {
		session, err := profiling.Start(a.profile)
		if err != nil {
			return err
		}
		a.session = session
	}
	return nil
}

// finish stops profiling and closes the log file. It is safe to call twice.
func (a *app) finish() error {
	var err error
	if a.session != nil {
		err = a.session.Stop()
		a.session = nil
	}
	if a.closeLog != nil {
		a.closeLog()
		a.closeLog = nil
	}
	return err
}

// configuredLogLevel reads logging.level for the enclosing repository, if any.
// Configuration errors are reported later by the command that loads it.
func configuredLogLevel() string {
	root, _ := repository.FindRoot(".")
	cfg, err := config.Load(root)
	if err != nil {
		return "info"
	}
	return cfg.Logging.Level
}

// renderer creates a renderer for cmd's output.
func (a *app) renderer(cmd *cobra.Command) *ui.Renderer {
	out := cmd.OutOrStdout()
	return ui.NewRenderer(out, a.noColor || !ui.UseColor(out))
}

// openWorkspace opens the repository enclosing the working directory.
func openWorkspace() (*workspace.Workspace, error) {
	return workspace.Open(".")
}

// Execute runs the root command and reports any error.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp()
	return a.execute(ctx, a.rootCmd())
}

func (a *app) execute(ctx context.Context, root *cobra.Command) error {
	cmd, err := root.ExecuteContextC(ctx)
	if ferr := a.finish(); err == nil {
		err = ferr
	}
	if err != nil {
		if cmd == nil {
			cmd = root
		}
		a.report(cmd, err)
	}
	return err
}

// report prints err for the command that failed. Commands run with --json
// get a JSON error object on stdout so scripts can parse either outcome.
func (a *app) report(cmd *cobra.Command, err error) {
	if f := cmd.Flags().Lookup("json"); f != nil && f.Value.String() == "true" {
		if data, jerr := sperrors.FormatJSON(err); jerr == nil {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return
		}
	}
	_, _ = fmt.Fprint(cmd.ErrOrStderr(), sperrors.FormatForCLI(err, a.debug))
}
