// Package changeset decides which files a run checks: the union of staged,
// unstaged and untracked files, minus ignored and opted-out files, or the
// whole tree when there is nothing incremental to go on.
package changeset

import (
	"context"
	"os"
	"path/filepath"

	"github.com/meysamhadeli/smartlint/utils"
	"go.uber.org/zap"
)

// ChangeSet is the set of files selected for checking.
type ChangeSet struct {
	// Files are root-relative, slash-separated and unique, in the order
	// they were first reported (staged, unstaged, untracked).
	Files []string

	// Full means every runner should operate on the whole tree.
	Full bool

	// Expanded marks a whole-tree run whose files are listed one by one
	// because the Filter excluded some of them.
	Expanded bool

	// Excluded are the root-relative files the Filter dropped.
	Excluded []string
}

// FullScan is the ChangeSet for a whole-tree run.
func FullScan() ChangeSet {
	return ChangeSet{Full: true}
}

// Len returns the number of files in an incremental ChangeSet.
func (c ChangeSet) Len() int { return len(c.Files) }

// Filter decides whether a changed path is excluded from checks.
type Filter struct {
	// IgnorePatterns come from the project ignore file.
	IgnorePatterns []string

	// DisableMarker opts a file out when it appears in its first
	// MarkerLines lines.
	DisableMarker string
	MarkerLines   int
}

// Empty reports whether the filter can never exclude anything.
func (f Filter) Empty() bool {
	return len(f.IgnorePatterns) == 0 && (f.DisableMarker == "" || f.MarkerLines <= 0)
}

// Excluded reports whether rel (root-relative) must be skipped.
func (f Filter) Excluded(root, rel string) bool {
	if utils.IsIgnored(rel, f.IgnorePatterns) {
		return true
	}
	return utils.HasDisableMarker(filepath.Join(root, filepath.FromSlash(rel)), f.DisableMarker, f.MarkerLines)
}

// Resolver computes the ChangeSet from version-control state.
type Resolver struct {
	root   string
	git    *utils.GitOperations
	filter Filter
	logger *zap.Logger
}

// NewResolver creates a resolver for the tree at root.
func NewResolver(root string, exec utils.Executor, filter Filter, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		root:   root,
		git:    utils.NewGitOperations(root, exec),
		filter: filter,
		logger: logger,
	}
}

// Resolve returns the files to check. Missing git metadata degrades to a
// full scan. So does a tree without any changes, since an empty ChangeSet
// means "check everything". A tree whose changes were all filtered out
// yields an incremental ChangeSet with no files.
func (r *Resolver) Resolve(ctx context.Context) (ChangeSet, error) {
	if err := r.git.CheckGitRepo(ctx); err != nil {
		r.logger.Debug("No git metadata, falling back to full scan", zap.Error(err))
		return FullScan(), nil
	}

	queries := []struct {
		name string
		run  func(context.Context) ([]string, error)
	}{
		{"staged", r.git.StagedFiles},
		{"unstaged", r.git.UnstagedFiles},
		{"untracked", r.git.UntrackedFiles},
	}

	seen := make(map[string]bool)
	var raw []string
	for _, q := range queries {
		files, err := q.run(ctx)
		if err != nil {
			return ChangeSet{}, err
		}
		r.logger.Debug("Git query", zap.String("query", q.name), zap.Int("files", len(files)))
		for _, f := range files {
			f = filepath.ToSlash(filepath.Clean(f))
			if seen[f] {
				continue
			}
			seen[f] = true
			raw = append(raw, f)
		}
	}

	if len(raw) == 0 {
		r.logger.Debug("No changed files, falling back to full scan")
		return FullScan(), nil
	}

	set := ChangeSet{Files: make([]string, 0, len(raw))}
	for _, f := range raw {
		if _, err := os.Stat(filepath.Join(r.root, filepath.FromSlash(f))); err != nil {
			r.logger.Debug("Skipping vanished file", zap.String("file", f))
			continue
		}
		if r.filter.Excluded(r.root, f) {
			r.logger.Debug("Skipping excluded file", zap.String("file", f))
			set.Excluded = append(set.Excluded, f)
			continue
		}
		set.Files = append(set.Files, f)
	}
	return set, nil
}
