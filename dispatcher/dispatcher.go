// Package dispatcher drives one lint run: it detects the project type,
// resolves the ChangeSet, hands each language group to its runner in a
// fixed order and derives the exit code from the aggregated summary.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/meysamhadeli/smartlint/changeset"
	"github.com/meysamhadeli/smartlint/config"
	"github.com/meysamhadeli/smartlint/detector"
	"github.com/meysamhadeli/smartlint/lint"
	"github.com/meysamhadeli/smartlint/runstate"
	"github.com/meysamhadeli/smartlint/utils"
	"go.uber.org/zap"
)

// Exit codes.
const (
	ExitOK          = 0
	ExitConfigError = 1
	ExitIssues      = 2

	// ExitInterrupted follows the shell convention for SIGINT.
	ExitInterrupted = 130
)

// Resolver computes the ChangeSet.
type Resolver interface {
	Resolve(ctx context.Context) (changeset.ChangeSet, error)
}

// LanguageRunner checks one language group.
type LanguageRunner interface {
	Run(ctx context.Context, project *detector.Project, group lint.FileGroup, summary *lint.Summary) error
}

// Options configures a Dispatcher.
type Options struct {
	Root   string
	Config *config.Config
	Exec   utils.Executor
	Logger *zap.Logger

	// Progress is forwarded to the default runner. Nil disables it.
	Progress lint.Progress

	// State enables the cooldown window. Nil disables it.
	State *runstate.Store

	// Now defaults to time.Now.
	Now func() time.Time

	// Resolver and Runner replace the defaults built from Exec.
	Resolver Resolver
	Runner   LanguageRunner
}

// Outcome is everything the reporter needs about a finished run.
type Outcome struct {
	Project   *detector.Project
	ChangeSet changeset.ChangeSet
	Groups    []lint.FileGroup
	Summary   *lint.Summary
	ExitCode  int

	// Disabled is set when hooks are switched off by configuration.
	Disabled bool

	// CooledDown is set when a recent clean run made this one redundant.
	CooledDown  bool
	CooldownAge time.Duration

	// ResolverInvoked reports whether version control was consulted.
	ResolverInvoked bool

	// HostConvention is set when a clean run exits 2 for the hook host.
	HostConvention bool

	// Transitions is the sequence of states the run passed through.
	Transitions []State
}

// Clean reports whether the run found no issues.
func (o *Outcome) Clean() bool {
	return o.Summary == nil || !o.Summary.Failed()
}

// Dispatcher runs the pipeline once.
type Dispatcher struct {
	opts    Options
	logger  *zap.Logger
	now     func() time.Time
	machine *machine
}

// New creates a dispatcher.
func New(opts Options) *Dispatcher {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Dispatcher{opts: opts, logger: logger, now: now, machine: newMachine()}
}

// Run executes the pipeline. The outcome is always non-nil and carries the
// exit code, including for returned errors.
func (d *Dispatcher) Run(ctx context.Context) (*Outcome, error) {
	out := &Outcome{Summary: lint.NewSummary()}
	defer func() { out.Transitions = append([]State(nil), d.machine.path...) }()

	cfg := d.opts.Config
	if cfg == nil {
		return d.fail(out, ExitConfigError, fmt.Errorf("%w: no configuration loaded", config.ErrInvalidConfig))
	}
	if err := cfg.Validate(); err != nil {
		return d.fail(out, ExitConfigError, err)
	}
	if err := d.machine.advance(ConfigLoaded); err != nil {
		return d.fail(out, ExitConfigError, err)
	}

	if !cfg.Enabled {
		d.logger.Debug("Hooks disabled by configuration")
		out.Disabled = true
		d.machine.terminate()
		return out, nil
	}

	root, err := filepath.Abs(d.opts.Root)
	if err != nil {
		return d.fail(out, ExitConfigError, fmt.Errorf("%w: project root: %v", config.ErrInvalidConfig, err))
	}

	if d.opts.State != nil {
		window := time.Duration(cfg.CooldownSeconds) * time.Second
		if recent, age := d.opts.State.WithinCooldown(root, window, d.now()); recent {
			if entry, ok := d.opts.State.Get(root); ok && !entry.Failed {
				d.logger.Debug("Within cooldown window", zap.Duration("age", age))
				out.CooledDown = true
				out.CooldownAge = age
				d.machine.terminate()
				return out, nil
			}
		}
	}

	// Detection.
	project, err := detector.Detect(root, detector.Options{
		Enabled:  func(l detector.Language) bool { return cfg.Languages.Enabled(string(l)) },
		MaxDepth: cfg.DetectDepth,
	})
	if err != nil {
		return d.fail(out, ExitConfigError, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err))
	}
	for _, w := range project.Warnings {
		d.logger.Warn("Project manifest problem", zap.String("warning", w))
	}
	d.logger.Debug("Detected project", zap.String("type", project.Type.String()))
	out.Project = project
	if err := d.machine.advance(TypeDetected); err != nil {
		return d.fail(out, ExitConfigError, err)
	}

	// ChangeSet.
	cs, err := d.resolve(ctx, cfg, project, out)
	if err != nil {
		if ctx.Err() != nil {
			return d.fail(out, ExitInterrupted, err)
		}
		return d.fail(out, ExitConfigError, err)
	}
	out.ChangeSet = cs
	if err := d.machine.advance(ChangeSetResolved); err != nil {
		return d.fail(out, ExitConfigError, err)
	}

	// Dispatch.
	if err := d.machine.advance(Dispatching); err != nil {
		return d.fail(out, ExitConfigError, err)
	}
	out.Groups = lint.GroupFiles(cs, project.Type)
	if err := d.dispatch(ctx, cfg, project, out); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return d.fail(out, ExitInterrupted, err)
		}
		return d.fail(out, ExitConfigError, err)
	}

	if err := d.machine.advance(Summarized); err != nil {
		return d.fail(out, ExitConfigError, err)
	}
	out.ExitCode = exitCode(cfg, out)
	out.HostConvention = cfg.HostExitConvention && out.Clean() && out.ExitCode == ExitIssues
	d.remember(root, out)

	d.machine.terminate()
	return out, nil
}

func (d *Dispatcher) fail(out *Outcome, code int, err error) (*Outcome, error) {
	out.ExitCode = code
	d.machine.terminate()
	return out, err
}

// resolve picks the ChangeSet. Unknown projects and full runs never consult
// version control. A whole-tree ChangeSet is expanded into an explicit file
// list when the ignore file or disable marker excludes anything.
func (d *Dispatcher) resolve(ctx context.Context, cfg *config.Config, project *detector.Project, out *Outcome) (changeset.ChangeSet, error) {
	if project.Type.IsUnknown() {
		return changeset.ChangeSet{}, nil
	}

	filter := d.filter(cfg, project.Root)
	cs, err := d.changes(ctx, cfg, project, filter, out)
	if err != nil {
		return changeset.ChangeSet{}, err
	}
	if cs.Full {
		if cs, err = changeset.Expand(ctx, project.Root, filter, d.logger); err != nil {
			return changeset.ChangeSet{}, err
		}
	}
	d.logger.Debug("Resolved change set",
		zap.Bool("full", cs.Full),
		zap.Int("files", cs.Len()),
		zap.Int("excluded", len(cs.Excluded)),
	)
	return cs, nil
}

func (d *Dispatcher) changes(ctx context.Context, cfg *config.Config, project *detector.Project, filter changeset.Filter, out *Outcome) (changeset.ChangeSet, error) {
	if cfg.Full {
		d.logger.Debug("Full scan requested")
		return changeset.FullScan(), nil
	}

	resolver := d.opts.Resolver
	if resolver == nil {
		resolver = changeset.NewResolver(project.Root, d.opts.Exec, filter, d.logger)
	}

	out.ResolverInvoked = true
	cs, err := resolver.Resolve(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return changeset.ChangeSet{}, ctx.Err()
		}
		d.logger.Warn("Change detection failed, falling back to full scan", zap.Error(err))
		return changeset.FullScan(), nil
	}
	return cs, nil
}

func (d *Dispatcher) filter(cfg *config.Config, root string) changeset.Filter {
	patterns, err := utils.GetIgnorePatterns(filepath.Join(root, cfg.IgnoreFile))
	if err != nil {
		d.logger.Warn("Could not read ignore file", zap.String("file", cfg.IgnoreFile), zap.Error(err))
	}
	return changeset.Filter{
		IgnorePatterns: patterns,
		DisableMarker:  cfg.DisableMarker,
		MarkerLines:    cfg.MarkerLines,
	}
}

// dispatch runs each non-empty group in language order.
func (d *Dispatcher) dispatch(ctx context.Context, cfg *config.Config, project *detector.Project, out *Outcome) error {
	runner := d.opts.Runner
	if runner == nil {
		runner = lint.NewRunner(d.opts.Exec,
			lint.WithLogger(d.logger),
			lint.WithProgress(d.opts.Progress),
			lint.WithFast(cfg.Fast),
		)
	}

	summary := out.Summary
	for i, group := range out.Groups {
		if cfg.FailFast && summary.Failed() {
			for _, rest := range out.Groups[i:] {
				summary.MarkSkipped(rest.Language)
				summary.Notice(rest.Language, "skipped after an earlier failure (fail-fast)")
			}
			break
		}
		if group.Empty() {
			d.logger.Debug("No changed files for language", zap.String("language", string(group.Language)))
			summary.MarkSkipped(group.Language)
			continue
		}

		summary.MarkChecked(group.Language)
		if err := runner.Run(ctx, project, group, summary); err != nil {
			return err
		}
	}
	return nil
}

func exitCode(cfg *config.Config, out *Outcome) int {
	if out.Summary.Failed() {
		return ExitIssues
	}
	if cfg.HostExitConvention && len(out.Summary.Checked()) > 0 {
		return ExitIssues
	}
	return ExitOK
}

func (d *Dispatcher) remember(root string, out *Outcome) {
	if d.opts.State == nil {
		return
	}
	err := d.opts.State.Set(runstate.Entry{
		Root:       root,
		FinishedAt: d.now(),
		ExitCode:   out.ExitCode,
		Failed:     out.Summary.Failed(),
		Files:      out.ChangeSet.Len(),
		Full:       out.ChangeSet.Full,
	})
	if err != nil {
		d.logger.Warn("Could not save run state", zap.Error(err))
	}
}
