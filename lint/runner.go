package lint

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/meysamhadeli/smartlint/detector"
	"github.com/meysamhadeli/smartlint/utils"
	"go.uber.org/zap"
)

// Progress reports a running tool to the user. Start is called before each
// invocation and the returned func once it finishes.
type Progress interface {
	Start(label string) (done func(succeeded bool))
}

// Runner checks one language's FileGroup: a format pass that applies fixes
// in place, then a lint pass. Tools that are not installed produce notices,
// never failures.
type Runner struct {
	exec     utils.Executor
	registry Registry
	logger   *zap.Logger
	progress Progress
	fast     bool

	// PATH probe results, per binary, for the lifetime of the runner.
	lookups map[string]bool
}

// Option configures the Runner.
type Option func(*Runner)

// WithRegistry replaces the built-in toolchains.
func WithRegistry(registry Registry) Option {
	return func(r *Runner) {
		r.registry = registry
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithProgress sets the progress reporter.
func WithProgress(progress Progress) Option {
	return func(r *Runner) {
		r.progress = progress
	}
}

// WithFast treats slow tools as unavailable.
func WithFast(fast bool) Option {
	return func(r *Runner) {
		r.fast = fast
	}
}

// NewRunner creates a runner that invokes tools through exec.
func NewRunner(exec utils.Executor, opts ...Option) *Runner {
	r := &Runner{
		exec:     exec,
		registry: DefaultRegistry(),
		logger:   zap.NewNop(),
		lookups:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run checks group and records every result and notice into summary.
// Tool failures are not errors; the returned error is non-nil only for
// invalid input or when ctx ends mid-run.
func (r *Runner) Run(ctx context.Context, project *detector.Project, group FileGroup, summary *Summary) error {
	if ctx == nil || project == nil || summary == nil {
		return fmt.Errorf("%w: ctx, project and summary are required", ErrInvalidInput)
	}
	tc, ok := r.registry.Get(group.Language)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoToolchain, group.Language)
	}

	ctx, span := startLanguageSpan(ctx, group)
	defer span.End()

	notice := func(format string, args ...any) {
		summary.Notice(tc.Language, format, args...)
	}

	if t, ok := r.target(project, tc, group, notice); ok {
		r.logger.Debug("Using project targets",
			zap.String("language", string(tc.Language)),
			zap.String("target", t.Name),
		)
		if err := r.invoke(ctx, project, tc.Language, t.Name, StepFormat, t.Format, summary); err != nil {
			return err
		}
		return r.invoke(ctx, project, tc.Language, t.Name, StepLint, t.Lint, summary)
	}

	if err := r.runStep(ctx, project, tc, group, StepFormat, summary); err != nil {
		return err
	}
	return r.runStep(ctx, project, tc, group, StepLint, summary)
}

// resolvedTarget is a project-declared target pair ready to run.
type resolvedTarget struct {
	Name   string
	Format []string
	Lint   []string
}

// target returns the first project-declared target pair whose driver is
// installed. Targets always check the whole project, so they are passed
// over when the group has excluded files.
func (r *Runner) target(project *detector.Project, tc Toolchain, group FileGroup, notice func(format string, args ...any)) (resolvedTarget, bool) {
	for _, target := range tc.Targets {
		format, lint, ok := target.Resolve(project)
		if !ok {
			continue
		}
		if group.Excluded > 0 {
			notice("%s targets skipped: they would also check %d excluded %s", target.Name, group.Excluded, pluralFiles(group.Excluded))
			continue
		}
		if !r.installed(target.Binary) {
			notice("project declares %s targets but %s is not installed", target.Name, target.Binary)
			continue
		}
		return resolvedTarget{
			Name:   target.Name,
			Format: append([]string{target.Binary}, format...),
			Lint:   append([]string{target.Binary}, lint...),
		}, true
	}
	return resolvedTarget{}, false
}

func pluralFiles(n int) string {
	if n == 1 {
		return "file"
	}
	return "files"
}

// runStep invokes the first available tool for step.
func (r *Runner) runStep(ctx context.Context, project *detector.Project, tc Toolchain, group FileGroup, step Step, summary *Summary) error {
	c, ok := r.choose(project, tc, group, step, func(format string, args ...any) {
		summary.Notice(tc.Language, format, args...)
	})
	if !ok {
		if step == StepFormat {
			summary.Notice(tc.Language, "no formatter available")
		} else {
			summary.Notice(tc.Language, "no linter available")
		}
		return nil
	}
	return r.invoke(ctx, project, tc.Language, c.Tool, step, c.Argv, summary)
}

// choice is a selected tool and its argument vector.
type choice struct {
	Tool string
	Argv []string
}

// choose returns the first usable tool for step. notice receives a message
// for each tool passed over for a reason the user can act on.
func (r *Runner) choose(project *detector.Project, tc Toolchain, group FileGroup, step Step, notice func(format string, args ...any)) (choice, bool) {
	for _, tool := range tc.Tools {
		cmd := tool.command(step)
		if cmd == nil {
			continue
		}
		argv, ok := cmd.Argv(group)
		if !ok {
			r.logger.Debug("Tool cannot address group",
				zap.String("tool", tool.Name),
				zap.Bool("whole_tree", group.WholeTree),
			)
			continue
		}
		if tool.Requires != nil && !tool.Requires(project) {
			r.logger.Debug("Tool not configured for project", zap.String("tool", tool.Name))
			continue
		}
		if group.Excluded > 0 && cmd.rewritesBeyond(step) {
			notice("%s skipped: it would also rewrite %d excluded %s", tool.Name, group.Excluded, pluralFiles(group.Excluded))
			continue
		}
		if tool.Slow && r.fast {
			notice("%s skipped in fast mode", tool.Name)
			continue
		}
		if missing := r.missing(cmd.Binary, tool.Needs); missing != "" {
			notice("%s not available: %s not found on PATH", tool.Name, missing)
			continue
		}
		return choice{Tool: tool.Name, Argv: argv}, true
	}
	return choice{}, false
}

func (r *Runner) invoke(ctx context.Context, project *detector.Project, lang detector.Language, name string, step Step, argv []string, summary *Summary) error {
	spanCtx, span := startToolSpan(ctx, name, step, argv)
	defer span.End()

	var done func(bool)
	if r.progress != nil {
		done = r.progress.Start(fmt.Sprintf("%s %s: %s", lang, step, name))
	}

	res, err := r.exec.Run(spanCtx, project.Root, argv[0], argv[1:]...)
	result := ToolResult{
		Language:  lang,
		Tool:      name,
		Step:      step,
		Command:   displayCommand(argv),
		Succeeded: res.Succeeded(),
		ExitCode:  res.ExitCode,
		Output:    res.Output,
		Duration:  res.Duration,
	}

	if err != nil {
		if ctx.Err() != nil {
			if done != nil {
				done(false)
			}
			span.RecordError(err)
			return ctx.Err()
		}
		result.Succeeded = false
		result.ExitCode = -1
		if errors.Is(err, context.DeadlineExceeded) {
			result.Output = strings.TrimSpace(res.Output + "\n" + name + " timed out")
		} else {
			startErr := &ToolStartError{Language: lang, Tool: name, Err: err}
			result.Output = startErr.Error()
		}
	}

	if done != nil {
		done(result.Succeeded)
	}
	setToolSpanResult(span, result)
	r.logger.Debug("Tool finished",
		zap.String("language", string(lang)),
		zap.String("command", result.Command),
		zap.Int("exit_code", result.ExitCode),
		zap.Duration("duration", result.Duration),
	)
	summary.Record(result)
	return nil
}

// installed reports whether binary is on PATH.
func (r *Runner) installed(binary string) bool {
	if found, ok := r.lookups[binary]; ok {
		return found
	}
	_, err := r.exec.LookPath(binary)
	r.lookups[binary] = err == nil
	return err == nil
}

// missing returns the first of binary and needs that is not on PATH, or "".
func (r *Runner) missing(binary string, needs []string) string {
	for _, b := range append([]string{binary}, needs...) {
		if !r.installed(b) {
			return b
		}
	}
	return ""
}
