package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/meysamhadeli/smartlint/constants/lipgloss"
	"github.com/meysamhadeli/smartlint/detector"
	"github.com/meysamhadeli/smartlint/dispatcher"
	"github.com/meysamhadeli/smartlint/lint"
	"github.com/meysamhadeli/smartlint/utils"
	"github.com/spf13/cobra"
)

// detectCmd represents the detect command
var detectCmd = &cobra.Command{
	Use:   "detect [path]",
	Short: "Show the detected project type, change set and tool plan without running anything",
	Long: `The 'detect' command runs detection and change-set resolution exactly like a
normal run, then prints which files each language would receive and which
formatter and linter would be invoked. No tool is executed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rootDependencies, err := handleRootCommand(cmd, args)
		if err != nil {
			return err
		}
		defer rootDependencies.Logger.Sync() //nolint:errcheck
		return handleDetectCommand(cmd.Context(), rootDependencies)
	},
}

func init() {
	rootCmd.AddCommand(detectCmd)
}

// planner records what each language would run instead of running it.
type planner struct {
	runner *lint.Runner
	steps  map[detector.Language][]lint.PlannedStep
}

func (p *planner) Run(_ context.Context, project *detector.Project, group lint.FileGroup, _ *lint.Summary) error {
	steps, err := p.runner.Plan(project, group)
	if err != nil {
		return err
	}
	p.steps[group.Language] = steps
	return nil
}

func handleDetectCommand(ctx context.Context, deps *RootDependencies) error {
	cfg := deps.Config
	exec := utils.NewCommandExecutor(cfg.ToolTimeout)
	plan := &planner{
		runner: lint.NewRunner(exec, lint.WithLogger(deps.Logger), lint.WithFast(cfg.Fast)),
		steps:  make(map[detector.Language][]lint.PlannedStep),
	}

	// Same pipeline as a real run, so fallbacks and exclusions match.
	out, err := dispatcher.New(dispatcher.Options{
		Root:   deps.Root,
		Config: cfg,
		Exec:   exec,
		Logger: deps.Logger,
		Runner: plan,
	}).Run(ctx)
	if err != nil {
		return &ExitError{Code: out.ExitCode, Err: err}
	}

	w := os.Stdout
	if out.Disabled {
		fmt.Fprintln(w, lipgloss.Gray.Render("Hooks are disabled by configuration."))
		return nil
	}

	project := out.Project
	fmt.Fprintln(w, lipgloss.Info.Render("Project: ")+project.Type.String())
	if project.GoModule != "" {
		fmt.Fprintln(w, lipgloss.Gray.Render("  go module "+project.GoModule))
	}
	for _, warning := range project.Warnings {
		fmt.Fprintln(w, lipgloss.Yellow.Render("  warning: "+warning))
	}
	if project.Type.IsUnknown() {
		fmt.Fprintln(w, lipgloss.Gray.Render("Nothing to check."))
		return nil
	}

	cs := out.ChangeSet
	switch {
	case cs.Full:
		fmt.Fprintln(w, lipgloss.Info.Render("Scope: ")+"full tree")
	case cs.Expanded:
		fmt.Fprintln(w, lipgloss.Info.Render("Scope: ")+fmt.Sprintf("full tree, %d files, %d excluded", cs.Len(), len(cs.Excluded)))
	default:
		fmt.Fprintln(w, lipgloss.Info.Render("Scope: ")+fmt.Sprintf("%d changed files", cs.Len()))
	}
	for _, f := range cs.Excluded {
		fmt.Fprintln(w, lipgloss.Gray.Render("  excluded: "+f))
	}

	for _, group := range out.Groups {
		fmt.Fprintln(w)
		fmt.Fprintln(w, lipgloss.Heading.Render(string(group.Language)))
		if group.Empty() {
			fmt.Fprintln(w, lipgloss.Gray.Render("  no changed files, skipped"))
			continue
		}
		if !group.WholeTree {
			fmt.Fprintln(w, lipgloss.Gray.Render("  files: "+strings.Join(group.Files, " ")))
		}

		for _, step := range plan.steps[group.Language] {
			for _, note := range step.Notes {
				fmt.Fprintln(w, lipgloss.Gray.Render("  · "+note))
			}
			if step.Skipped != "" {
				fmt.Fprintln(w, lipgloss.Yellow.Render(fmt.Sprintf("  %-6s %s", step.Step, step.Skipped)))
				continue
			}
			fmt.Fprintf(w, "  %-6s %s\n", step.Step, lipgloss.BlueSky.Render(step.Command))
		}
	}
	return nil
}
