package utils

import (
	"context"
	"fmt"
	"strings"
)

// GitOperations handles git-related operations
type GitOperations struct {
	workingDir string
	exec       Executor
}

// NewGitOperations creates a new GitOperations instance
func NewGitOperations(workingDir string, exec Executor) *GitOperations {
	return &GitOperations{workingDir: workingDir, exec: exec}
}

// CheckGitRepo checks if the working directory is inside a git repository.
func (g *GitOperations) CheckGitRepo(ctx context.Context) error {
	if _, err := g.exec.LookPath("git"); err != nil {
		return fmt.Errorf("git not installed: %w", err)
	}
	res, err := g.exec.Run(ctx, g.workingDir, "git", "rev-parse", "--git-dir")
	if err != nil {
		return err
	}
	if !res.Succeeded() {
		return fmt.Errorf("not a git repository")
	}
	return nil
}

// StagedFiles returns files added, copied, modified or renamed in the index.
// Like the other queries, paths are relative to the working directory.
func (g *GitOperations) StagedFiles(ctx context.Context) ([]string, error) {
	return g.nameList(ctx, "staged files", "diff", "--cached", "--name-only", "--relative", "--diff-filter=ACMR")
}

// UnstagedFiles returns working-tree modifications not yet staged.
func (g *GitOperations) UnstagedFiles(ctx context.Context) ([]string, error) {
	return g.nameList(ctx, "unstaged files", "diff", "--name-only", "--relative", "--diff-filter=ACMR")
}

// UntrackedFiles returns untracked files that are not excluded by .gitignore.
func (g *GitOperations) UntrackedFiles(ctx context.Context) ([]string, error) {
	return g.nameList(ctx, "untracked files", "ls-files", "--others", "--exclude-standard")
}

func (g *GitOperations) nameList(ctx context.Context, what string, args ...string) ([]string, error) {
	// Unquoted paths so non-ASCII names survive.
	args = append([]string{"-c", "core.quotepath=off"}, args...)
	res, err := g.exec.Run(ctx, g.workingDir, "git", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", what, err)
	}
	if !res.Succeeded() {
		return nil, fmt.Errorf("failed to get %s: git exited %d: %s", what, res.ExitCode, strings.TrimSpace(res.Output))
	}

	var files []string
	for _, line := range strings.Split(res.Output, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			files = append(files, line)
		}
	}
	return files, nil
}
