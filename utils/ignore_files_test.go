package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsIgnored(t *testing.T) {
	patterns := []string{"*.pb.go", "generated/", "vendor/**", "docs/*.md", "gen/proto", "# not a pattern"}

	tests := []struct {
		path    string
		ignored bool
	}{
		{"api/service.pb.go", true},
		{"service.pb.go", true},
		{"generated/client.ts", true},
		{"generated", true},
		{"vendor/github.com/x/y.go", true},
		{"docs/readme.md", true},
		{"docs/guide/readme.md", false},
		{"gen/proto/x.go", true},
		{"gen/protocol.go", false},
		{"./api/service.pb.go", true},
		{"main.go", false},
		{"pkg/generatedish/a.go", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.ignored, IsIgnored(tt.path, patterns))
		})
	}
}

func TestIsIgnored_BareNameMatchesAnyComponent(t *testing.T) {
	assert.True(t, IsIgnored("a/fixtures/b/c.py", []string{"fixtures"}))
	assert.False(t, IsIgnored("a/b/c.py", []string{"fixtures"}))
	assert.False(t, IsIgnored("a/b/c.py", nil))
}

func TestGetIgnorePatterns(t *testing.T) {
	dir := t.TempDir()

	patterns, err := GetIgnorePatterns(filepath.Join(dir, DefaultIgnoreFile))
	require.NoError(t, err)
	assert.Empty(t, patterns)

	content := "# generated code\n*.pb.go\n\n  dist/  \nsrc\\legacy\\old.js\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultIgnoreFile), []byte(content), 0644))

	patterns, err = GetIgnorePatterns(filepath.Join(dir, DefaultIgnoreFile))
	require.NoError(t, err)
	assert.Equal(t, "*.pb.go", patterns[0])
	assert.Equal(t, "dist/", patterns[1])
	assert.Len(t, patterns, 3)
}

func TestHasDisableMarker(t *testing.T) {
	dir := t.TempDir()
	marked := filepath.Join(dir, "marked.py")
	late := filepath.Join(dir, "late.py")
	require.NoError(t, os.WriteFile(marked, []byte("# claude-hooks-disable\nimport os\n"), 0644))
	require.NoError(t, os.WriteFile(late, []byte("a\nb\nc\nd\ne\n# claude-hooks-disable\n"), 0644))

	assert.True(t, HasDisableMarker(marked, "claude-hooks-disable", 5))
	assert.False(t, HasDisableMarker(late, "claude-hooks-disable", 5))
	assert.True(t, HasDisableMarker(late, "claude-hooks-disable", 6))
	assert.False(t, HasDisableMarker(marked, "", 5))
	assert.False(t, HasDisableMarker(filepath.Join(dir, "missing.py"), "claude-hooks-disable", 5))
}

func TestIsSkippedDir(t *testing.T) {
	assert.True(t, IsSkippedDir("node_modules"))
	assert.True(t, IsSkippedDir(".git"))
	assert.False(t, IsSkippedDir("src"))
}
