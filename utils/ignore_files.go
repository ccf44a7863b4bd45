package utils

import (
	"bufio"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// DefaultIgnoreFile is the per-project ignore file, one glob per line.
const DefaultIgnoreFile = ".claude-hooks-ignore"

// skippedDirs are never descended when walking a project tree.
var skippedDirs = map[string]bool{
	".git":         true,
	".svn":         true,
	".hg":          true,
	".direnv":      true,
	"node_modules": true,
	"vendor":       true,
	"target":       true,
	"result":       true,
	".venv":        true,
	"__pycache__":  true,
}

// IsSkippedDir reports whether a directory name is never worth walking into.
func IsSkippedDir(name string) bool {
	return skippedDirs[name]
}

// GetIgnorePatterns reads the ignore file at ignorePath. A missing file
// yields no patterns and no error.
func GetIgnorePatterns(ignorePath string) ([]string, error) {
	_, err := os.Stat(ignorePath)
	if os.IsNotExist(err) {
		return []string{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("error checking %s: %w", ignorePath, err)
	}

	patterns, err := readIgnoreFile(ignorePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", ignorePath, err)
	}
	return patterns, nil
}

// readIgnoreFile reads the ignore file and returns the list of patterns.
func readIgnoreFile(ignorePath string) ([]string, error) {
	content, err := os.ReadFile(ignorePath)
	if err != nil {
		return nil, err
	}
	lines := strings.Split(string(content), "\n")
	var patterns []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			patterns = append(patterns, filepath.ToSlash(line))
		}
	}
	return patterns, nil
}

// IsIgnored checks if a root-relative, slash-separated path matches any of
// the patterns.
//
// Patterns without a slash match the file's basename or any directory
// component ("*.pb.go", "generated"). Patterns ending in "/" or "/**" match
// everything beneath that directory. Other patterns are matched against the
// whole path, and also as a directory prefix.
func IsIgnored(relPath string, patterns []string) bool {
	relPath = strings.TrimPrefix(filepath.ToSlash(relPath), "./")
	for _, pattern := range patterns {
		pattern = strings.TrimPrefix(pattern, "./")
		pattern = strings.TrimPrefix(pattern, "/")

		if dir, ok := directoryPattern(pattern); ok {
			if relPath == dir || strings.HasPrefix(relPath, dir+"/") {
				return true
			}
			continue
		}

		if !strings.Contains(pattern, "/") {
			for _, part := range strings.Split(relPath, "/") {
				if match, _ := path.Match(pattern, part); match {
					return true
				}
			}
			continue
		}

		if match, _ := path.Match(pattern, relPath); match {
			return true
		}
		// "gen/proto" also covers "gen/proto/x.go".
		if prefixMatches(pattern, relPath) {
			return true
		}
	}
	return false
}

func directoryPattern(pattern string) (string, bool) {
	switch {
	case strings.HasSuffix(pattern, "/**"):
		return strings.TrimSuffix(pattern, "/**"), true
	case strings.HasSuffix(pattern, "/"):
		return strings.TrimSuffix(pattern, "/"), true
	}
	return "", false
}

func prefixMatches(pattern, relPath string) bool {
	patternParts := strings.Split(pattern, "/")
	pathParts := strings.Split(relPath, "/")
	if len(pathParts) <= len(patternParts) {
		return false
	}
	for i, p := range patternParts {
		if match, _ := path.Match(p, pathParts[i]); !match {
			return false
		}
	}
	return true
}

// HasDisableMarker reports whether marker appears within the first maxLines
// lines of the file. Unreadable files are treated as unmarked.
func HasDisableMarker(filePath, marker string, maxLines int) bool {
	if marker == "" || maxLines <= 0 {
		return false
	}
	f, err := os.Open(filePath)
	if err != nil {
		return false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for i := 0; i < maxLines && scanner.Scan(); i++ {
		if strings.Contains(scanner.Text(), marker) {
			return true
		}
	}
	return false
}
