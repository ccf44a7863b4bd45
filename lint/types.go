package lint

import (
	"path"
	"strings"
	"time"

	"github.com/meysamhadeli/smartlint/detector"
)

// Step is the phase a tool invocation belongs to.
type Step string

const (
	StepFormat Step = "format"
	StepLint   Step = "lint"
)

// ToolResult is the outcome of one tool invocation. Output is the combined
// stdout+stderr and is kept for every result, passing or not.
type ToolResult struct {
	Language  detector.Language
	Tool      string
	Step      Step
	Command   string
	Succeeded bool
	ExitCode  int
	Output    string
	Duration  time.Duration
}

// FileGroup is the slice of the ChangeSet one runner receives.
type FileGroup struct {
	Language detector.Language

	// Files are root-relative, slash-separated paths. Empty in whole-tree mode.
	Files []string

	// WholeTree asks the runner to check the entire project.
	WholeTree bool

	// Excluded counts files of this language that were filtered out.
	// Project-wide formatters and project targets would rewrite them, so
	// the runner avoids those when it is non-zero.
	Excluded int
}

// Empty reports whether an incremental group has nothing to check.
func (g FileGroup) Empty() bool {
	return !g.WholeTree && len(g.Files) == 0
}

// PathMode says how a command receives the group's paths.
type PathMode int

const (
	// PathNone runs the command project-wide with no path arguments.
	PathNone PathMode = iota

	// PathFiles appends each file in the group.
	PathFiles

	// PathPackages appends one "./dir" per distinct directory, the way go
	// tooling addresses packages.
	PathPackages
)

// Command is one external program invocation template.
type Command struct {
	Binary string
	Args   []string
	Paths  PathMode

	// WholeTreeArgs replace the paths in whole-tree mode. A PathFiles or
	// PathPackages command with no WholeTreeArgs cannot run on the whole tree.
	WholeTreeArgs []string
	// Fix marks a lint command that rewrites files. Format commands
	// always do.
	Fix bool
}

// rewritesBeyond reports whether running c for step may change files
// other than the ones it is given.
func (c Command) rewritesBeyond(step Step) bool {
	return (step == StepFormat || c.Fix) && c.Paths != PathFiles
}

// Argv builds the full argument vector for group. ok is false when the
// command has no way to address the group.
func (c Command) Argv(group FileGroup) (argv []string, ok bool) {
	argv = append([]string{c.Binary}, c.Args...)

	switch c.Paths {
	case PathNone:
		return argv, true
	case PathFiles:
		if group.WholeTree {
			if c.WholeTreeArgs == nil {
				return nil, false
			}
			return append(argv, c.WholeTreeArgs...), true
		}
		return append(argv, group.Files...), true
	case PathPackages:
		if group.WholeTree {
			if c.WholeTreeArgs == nil {
				return nil, false
			}
			return append(argv, c.WholeTreeArgs...), true
		}
		return append(argv, packageDirs(group.Files)...), true
	}
	return nil, false
}

func packageDirs(files []string) []string {
	seen := make(map[string]bool)
	var dirs []string
	for _, f := range files {
		dir := path.Dir(f)
		if dir != "." {
			dir = "./" + dir
		}
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

// Tool is a formatter and/or linter with an availability probe. Runners
// iterate tools generically; nothing is hand-written per tool.
type Tool struct {
	Name string

	// Format applies fixes in place. Nil when the tool does not format.
	Format *Command

	// Lint reports problems, applying safe fixes where supported. Nil when
	// the tool does not lint.
	Lint *Command

	// Slow tools are skipped in fast mode.
	Slow bool

	// Needs lists extra executables that must be on PATH besides the
	// command binary, e.g. cargo-clippy behind `cargo clippy`.
	Needs []string

	// Requires is an extra probe against the project, e.g. a package.json
	// dependency for npx-run tools. Nil always passes.
	Requires func(*detector.Project) bool
}

// command returns the tool's command for step, or nil.
func (t Tool) command(step Step) *Command {
	if step == StepFormat {
		return t.Format
	}
	return t.Lint
}

// Target is a project-declared build-automation entry point. When the
// project declares both a format and a lint target the runner uses them
// instead of the direct tools.
type Target struct {
	Name   string
	Binary string

	// Resolve returns the format and lint argument vectors (without the
	// binary), or ok=false when the project does not declare them.
	Resolve func(*detector.Project) (format, lint []string, ok bool)
}

// Toolchain is everything a runner knows about one language.
type Toolchain struct {
	Language detector.Language
	Targets  []Target
	Tools    []Tool
}

func displayCommand(argv []string) string {
	return strings.Join(argv, " ")
}
