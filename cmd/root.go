package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/meysamhadeli/smartlint/config"
	"github.com/meysamhadeli/smartlint/constants/lipgloss"
	"github.com/meysamhadeli/smartlint/dispatcher"
	"github.com/meysamhadeli/smartlint/report"
	"github.com/meysamhadeli/smartlint/runstate"
	"github.com/meysamhadeli/smartlint/telemetry"
	"github.com/meysamhadeli/smartlint/utils"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X ...cmd.version=...".
var version = "dev"

// ExitError carries a process exit code out of a command. Err may be nil
// when the code alone says everything, e.g. lint issues that were already
// reported.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// RootDependencies is what every command needs after configuration loads.
type RootDependencies struct {
	Root   string
	Config *config.Config
	Logger *zap.Logger
	Color  bool
}

var rootCmd = &cobra.Command{
	Use:   "smartlint [path]",
	Short: "Format and lint the files you just changed, in every language the project uses",
	Long: `smartlint detects the languages of a project (Go, Python, JavaScript/TypeScript,
Rust, Nix), works out which files changed according to git, and runs the best
available formatter and linter for each language on exactly those files.

Formatters apply fixes in place. Any remaining lint finding fails the run.
Exit codes: 0 clean or nothing to check, 1 configuration error, 2 issues found.
With --hook a clean run also exits 2, the signal an editor hook host expects.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE: func(cmd *cobra.Command, args []string) error {
		rootDependencies, err := handleRootCommand(cmd, args)
		if err != nil {
			return err
		}
		defer rootDependencies.Logger.Sync() //nolint:errcheck
		return handleLintCommand(cmd.Context(), rootDependencies)
	},
}

func init() {
	config.InitFlags(rootCmd)
	rootCmd.Version = version
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	err := rootCmd.Execute()
	if err == nil {
		return dispatcher.ExitOK
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Err != nil {
			fmt.Fprintln(os.Stderr, lipgloss.Red.Render(exitErr.Err.Error()))
		}
		return exitErr.Code
	}

	// Flag parsing and argument errors are configuration errors.
	fmt.Fprintln(os.Stderr, lipgloss.Red.Render(err.Error()))
	return dispatcher.ExitConfigError
}

// handleRootCommand resolves the project root, loads configuration and sets
// up logging and color.
func handleRootCommand(cmd *cobra.Command, args []string) (*RootDependencies, error) {
	root, err := os.Getwd()
	if err != nil {
		return nil, &ExitError{Code: dispatcher.ExitConfigError, Err: fmt.Errorf("failed to get current working directory: %w", err)}
	}
	if len(args) > 0 {
		root, err = filepath.Abs(args[0])
		if err != nil {
			return nil, &ExitError{Code: dispatcher.ExitConfigError, Err: err}
		}
	}
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return nil, &ExitError{Code: dispatcher.ExitConfigError, Err: fmt.Errorf("%w: %s is not a directory", config.ErrInvalidConfig, root)}
	}

	cfg, err := config.LoadConfigs(cmd, root)
	if err != nil {
		return nil, &ExitError{Code: dispatcher.ExitConfigError, Err: err}
	}

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		return nil, &ExitError{Code: dispatcher.ExitConfigError, Err: err}
	}
	if cfg.ConfigFile != "" {
		logger.Debug("Loaded config file", zap.String("file", cfg.ConfigFile))
	}
	if len(cfg.OverrideKeys) > 0 {
		logger.Debug("Applied override script", zap.String("file", cfg.OverrideFile), zap.Strings("keys", cfg.OverrideKeys))
	}

	color := colorEnabled(cfg)
	if !color {
		lipgloss.Disable()
		pterm.DisableColor()
	}

	return &RootDependencies{Root: root, Config: cfg, Logger: logger, Color: color}, nil
}

// colorEnabled honours --no-color, NO_COLOR and a non-terminal stderr.
func colorEnabled(cfg *config.Config) bool {
	if cfg.NoColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func handleLintCommand(parent context.Context, deps *RootDependencies) error {
	// Create a context with cancel function
	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg := deps.Config
	logger := deps.Logger

	shutdown, err := telemetry.Init(ctx, cfg.TraceFile, version)
	if err != nil {
		logger.Warn("Tracing disabled", zap.Error(err))
	} else {
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logger.Warn("Failed to flush traces", zap.Error(err))
			}
		}()
	}

	var store *runstate.Store
	if cfg.CooldownSeconds > 0 {
		if store, err = runstate.NewStore(""); err != nil {
			logger.Warn("Cooldown disabled", zap.Error(err))
			store = nil
		}
	}

	var progress *spinnerProgress
	// The hook host captures stderr, so a spinner would only add noise there.
	if deps.Color && !cfg.HostExitConvention {
		progress = newSpinnerProgress()
	}

	opts := dispatcher.Options{
		Root:   deps.Root,
		Config: cfg,
		Exec:   utils.NewCommandExecutor(cfg.ToolTimeout),
		Logger: logger,
		State:  store,
	}
	if progress != nil {
		opts.Progress = progress
	}

	out, runErr := dispatcher.New(opts).Run(ctx)

	reporter := report.New(os.Stderr, report.Options{
		Color:      deps.Color,
		Theme:      cfg.Theme,
		ShowTiming: cfg.ShowTiming || cfg.Debug,
		Verbose:    cfg.Debug,
	})
	if err := reporter.Print(out); err != nil {
		logger.Warn("Failed to write report", zap.Error(err))
	}

	if runErr != nil {
		return &ExitError{Code: out.ExitCode, Err: runErr}
	}
	if out.ExitCode != dispatcher.ExitOK {
		return &ExitError{Code: out.ExitCode}
	}
	return nil
}
