// Package exectest provides a scripted utils.Executor for tests.
package exectest

import (
	"context"
	"os/exec"
	"strings"
	"sync"

	"github.com/meysamhadeli/smartlint/utils"
)

// Response is the scripted result of one command line.
type Response struct {
	Output   string
	ExitCode int
	Err      error
}

// Call is one recorded invocation.
type Call struct {
	Dir  string
	Name string
	Args []string
}

// String returns the command line, space separated.
func (c Call) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Executor answers LookPath from an installed set and Run from scripted
// responses keyed by the full command line. Unscripted commands succeed
// with no output.
type Executor struct {
	mu        sync.Mutex
	installed map[string]bool
	responses map[string]Response
	calls     []Call
}

// New creates an executor with binaries on PATH.
func New(binaries ...string) *Executor {
	e := &Executor{installed: make(map[string]bool), responses: make(map[string]Response)}
	e.Install(binaries...)
	return e
}

// Install puts binaries on PATH.
func (e *Executor) Install(binaries ...string) *Executor {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, b := range binaries {
		e.installed[b] = true
	}
	return e
}

// On scripts the response for a command line such as "go vet ./...".
func (e *Executor) On(cmdline string, r Response) *Executor {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.responses[cmdline] = r
	return e
}

// Git installs git and scripts a repository with the given changes.
func (e *Executor) Git(staged, unstaged, untracked []string) *Executor {
	e.Install("git")
	e.On("git rev-parse --git-dir", Response{Output: ".git\n"})
	e.On("git -c core.quotepath=off diff --cached --name-only --relative --diff-filter=ACMR", Response{Output: lines(staged)})
	e.On("git -c core.quotepath=off diff --name-only --relative --diff-filter=ACMR", Response{Output: lines(unstaged)})
	e.On("git -c core.quotepath=off ls-files --others --exclude-standard", Response{Output: lines(untracked)})
	return e
}

func lines(files []string) string {
	if len(files) == 0 {
		return ""
	}
	return strings.Join(files, "\n") + "\n"
}

// LookPath implements utils.Executor.
func (e *Executor) LookPath(file string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.installed[file] {
		return "/usr/bin/" + file, nil
	}
	return "", &exec.Error{Name: file, Err: exec.ErrNotFound}
}

// Run implements utils.Executor.
func (e *Executor) Run(ctx context.Context, dir string, name string, args ...string) (utils.CommandResult, error) {
	if err := ctx.Err(); err != nil {
		return utils.CommandResult{}, err
	}

	call := Call{Dir: dir, Name: name, Args: append([]string(nil), args...)}
	e.mu.Lock()
	e.calls = append(e.calls, call)
	r := e.responses[call.String()]
	e.mu.Unlock()

	return utils.CommandResult{Output: r.Output, ExitCode: r.ExitCode}, r.Err
}

// Calls returns every recorded invocation in order.
func (e *Executor) Calls() []Call {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Call(nil), e.calls...)
}

// Commands returns the recorded command lines, optionally only those whose
// program is one of names.
func (e *Executor) Commands(names ...string) []string {
	var out []string
	for _, c := range e.Calls() {
		if len(names) > 0 && !contains(names, c.Name) {
			continue
		}
		out = append(out, c.String())
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
