package changeset

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/meysamhadeli/smartlint/utils/exectest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	}
	return root
}

func TestResolve_UnionInReportOrder(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.go": "", "b.go": "", "web/c.ts": "", "d.py": "",
	})
	exec := exectest.New().Git(
		[]string{"a.go", "web/c.ts"},
		[]string{"web/c.ts", "b.go"},
		[]string{"./d.py", "a.go"},
	)

	cs, err := NewResolver(root, exec, Filter{}, nil).Resolve(context.Background())
	require.NoError(t, err)

	assert.False(t, cs.Full)
	assert.Equal(t, []string{"a.go", "web/c.ts", "b.go", "d.py"}, cs.Files)
}

func TestResolve_Idempotent(t *testing.T) {
	root := writeTree(t, map[string]string{"a.go": "", "b.go": ""})
	exec := exectest.New().Git([]string{"a.go"}, []string{"b.go"}, nil)
	resolver := NewResolver(root, exec, Filter{}, nil)

	first, err := resolver.Resolve(context.Background())
	require.NoError(t, err)
	second, err := resolver.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestResolve_NoGitMeansFullScan(t *testing.T) {
	root := writeTree(t, map[string]string{"a.go": ""})

	t.Run("git not installed", func(t *testing.T) {
		exec := exectest.New()
		cs, err := NewResolver(root, exec, Filter{}, nil).Resolve(context.Background())
		require.NoError(t, err)
		assert.Equal(t, FullScan(), cs)
		assert.Empty(t, exec.Calls())
	})

	t.Run("not a repository", func(t *testing.T) {
		exec := exectest.New("git").On("git rev-parse --git-dir", exectest.Response{ExitCode: 128, Output: "fatal: not a git repository"})
		cs, err := NewResolver(root, exec, Filter{}, nil).Resolve(context.Background())
		require.NoError(t, err)
		assert.True(t, cs.Full)
		assert.Equal(t, []string{"git rev-parse --git-dir"}, exec.Commands())
	})
}

func TestResolve_NoChangesMeansFullScan(t *testing.T) {
	root := writeTree(t, map[string]string{"a.go": ""})
	exec := exectest.New().Git(nil, nil, nil)

	cs, err := NewResolver(root, exec, Filter{}, nil).Resolve(context.Background())
	require.NoError(t, err)
	assert.True(t, cs.Full)
	assert.Zero(t, cs.Len())
}

func TestResolve_Filtering(t *testing.T) {
	root := writeTree(t, map[string]string{
		"main.go":           "package main\n",
		"api/service.pb.go": "package api\n",
		"legacy/old.py":     "# claude-hooks-disable\nimport os\n",
		"late.py":           "1\n2\n3\n4\n5\n# claude-hooks-disable\n",
	})
	exec := exectest.New().Git(
		[]string{"main.go", "api/service.pb.go"},
		[]string{"legacy/old.py", "deleted.go"},
		[]string{"late.py"},
	)
	filter := Filter{IgnorePatterns: []string{"*.pb.go"}, DisableMarker: "claude-hooks-disable", MarkerLines: 5}

	cs, err := NewResolver(root, exec, filter, nil).Resolve(context.Background())
	require.NoError(t, err)
	assert.False(t, cs.Full)
	assert.Equal(t, []string{"main.go", "late.py"}, cs.Files)
	assert.Equal(t, []string{"api/service.pb.go", "legacy/old.py"}, cs.Excluded)
}

func TestResolve_EverythingFilteredStaysIncremental(t *testing.T) {
	root := writeTree(t, map[string]string{"gen/a.go": ""})
	exec := exectest.New().Git([]string{"gen/a.go"}, nil, nil)

	cs, err := NewResolver(root, exec, Filter{IgnorePatterns: []string{"gen/"}}, nil).Resolve(context.Background())
	require.NoError(t, err)
	assert.False(t, cs.Full)
	assert.Empty(t, cs.Files)
}

func TestResolve_GitQueryFailure(t *testing.T) {
	root := writeTree(t, map[string]string{"a.go": ""})
	exec := exectest.New().Git([]string{"a.go"}, nil, nil).
		On("git -c core.quotepath=off diff --name-only --relative --diff-filter=ACMR", exectest.Response{ExitCode: 129, Output: "usage"})

	_, err := NewResolver(root, exec, Filter{}, nil).Resolve(context.Background())
	assert.ErrorContains(t, err, "unstaged files")
}
