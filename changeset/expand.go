package changeset

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/meysamhadeli/smartlint/detector"
	"github.com/meysamhadeli/smartlint/utils"
	"go.uber.org/zap"
)

// Expand walks root and lists every source file the filter keeps. When
// nothing in the tree is excluded the result stays a plain full scan, so
// tools keep their whole-tree form. Only files of a supported language
// are considered.
func Expand(ctx context.Context, root string, filter Filter, logger *zap.Logger) (ChangeSet, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if filter.Empty() {
		return FullScan(), nil
	}

	var kept, excluded []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path == root {
			return nil
		}
		if d.IsDir() {
			if utils.IsSkippedDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if _, ok := detector.LanguageFromPath(rel); !ok {
			return nil
		}
		if filter.Excluded(root, rel) {
			logger.Debug("Skipping excluded file", zap.String("file", rel))
			excluded = append(excluded, rel)
			return nil
		}
		kept = append(kept, rel)
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ChangeSet{}, ctxErr
		}
		return ChangeSet{}, fmt.Errorf("failed to list project tree: %w", err)
	}

	if len(excluded) == 0 {
		return FullScan(), nil
	}
	logger.Debug("Whole-tree run restricted by exclusions",
		zap.Int("files", len(kept)),
		zap.Int("excluded", len(excluded)),
	)
	return ChangeSet{Files: kept, Expanded: true, Excluded: excluded}, nil
}
