package dispatcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/meysamhadeli/smartlint/config"
	"github.com/meysamhadeli/smartlint/detector"
	"github.com/meysamhadeli/smartlint/lint"
	"github.com/meysamhadeli/smartlint/runstate"
	"github.com/meysamhadeli/smartlint/utils/exectest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

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

func defaultConfig() *config.Config {
	cfg := config.DefaultConfig
	return &cfg
}

var fullPath = []State{Idle, ConfigLoaded, TypeDetected, ChangeSetResolved, Dispatching, Summarized, Terminal}

func TestRun_FullScanGoFailure(t *testing.T) {
	root := writeTree(t, map[string]string{"main.go": "package main\n"})
	exec := exectest.New("gofmt", "go").
		On("go vet ./...", exectest.Response{ExitCode: 1, Output: "./main.go:1:1: vet complaint"})
	cfg := defaultConfig()
	cfg.Full = true

	out, err := New(Options{Root: root, Config: cfg, Exec: exec}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, ExitIssues, out.ExitCode)
	assert.Equal(t, 1, out.Summary.ErrorCount())
	assert.True(t, out.ChangeSet.Full)
	assert.False(t, out.ResolverInvoked)
	assert.Empty(t, exec.Commands("git"))
	assert.Equal(t, []string{"gofmt -w .", "go vet ./..."}, exec.Commands())
	if diff := cmp.Diff(fullPath, out.Transitions); diff != "" {
		t.Errorf("transitions mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_MixedProjectOnlyChangedLanguageRuns(t *testing.T) {
	root := writeTree(t, map[string]string{
		"go.mod":           "module m\n",
		"main.go":          "package main\n",
		"web/package.json": `{"devDependencies": {"eslint": "^9"}}`,
		"web/a.tsx":        "",
		"web/b.tsx":        "",
	})
	// package.json is not at the root, so eslint comes from PATH.
	exec := exectest.New("gofmt", "go", "eslint").Git([]string{"web/a.tsx"}, []string{"web/b.tsx"}, nil)

	out, err := New(Options{Root: root, Config: defaultConfig(), Exec: exec}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "mixed(go,javascript)", out.Project.Type.String())
	assert.True(t, out.ResolverInvoked)
	assert.Equal(t, ExitOK, out.ExitCode)
	assert.Equal(t, []detector.Language{detector.JavaScript}, out.Summary.Checked())
	assert.Equal(t, []detector.Language{detector.Go}, out.Summary.Skipped())
	assert.Equal(t, []string{"eslint --fix web/a.tsx web/b.tsx"}, exec.Commands("eslint"))
	assert.Empty(t, exec.Commands("gofmt", "go"))
}

func TestRun_UnknownProject(t *testing.T) {
	root := writeTree(t, map[string]string{"README.md": "# docs"})
	exec := exectest.New("git")

	out, err := New(Options{Root: root, Config: defaultConfig(), Exec: exec}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, ExitOK, out.ExitCode)
	assert.True(t, out.Project.Type.IsUnknown())
	assert.Empty(t, exec.Calls())
	assert.Equal(t, fullPath, out.Transitions)
}

func TestRun_UnknownProjectWithHostConvention(t *testing.T) {
	root := writeTree(t, map[string]string{"README.md": "# docs"})
	cfg := defaultConfig()
	cfg.HostExitConvention = true

	out, err := New(Options{Root: root, Config: cfg, Exec: exectest.New()}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ExitOK, out.ExitCode)
	assert.False(t, out.HostConvention)
}

func TestRun_Disabled(t *testing.T) {
	root := writeTree(t, map[string]string{"main.go": "package main\n"})
	exec := exectest.New("gofmt", "go", "git")
	cfg := defaultConfig()
	cfg.Enabled = false

	out, err := New(Options{Root: root, Config: cfg, Exec: exec}).Run(context.Background())
	require.NoError(t, err)

	assert.True(t, out.Disabled)
	assert.Equal(t, ExitOK, out.ExitCode)
	assert.Nil(t, out.Project)
	assert.Empty(t, exec.Calls())
	assert.Equal(t, []State{Idle, ConfigLoaded, Terminal}, out.Transitions)
}

func TestRun_InvalidConfig(t *testing.T) {
	cfg := defaultConfig()
	cfg.MarkerLines = -1

	out, err := New(Options{Root: t.TempDir(), Config: cfg, Exec: exectest.New()}).Run(context.Background())
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
	assert.Equal(t, ExitConfigError, out.ExitCode)
	assert.Equal(t, []State{Idle, Terminal}, out.Transitions)

	out, err = New(Options{Root: t.TempDir(), Exec: exectest.New()}).Run(context.Background())
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
	assert.Equal(t, ExitConfigError, out.ExitCode)
}

func TestRun_HostExitConvention(t *testing.T) {
	root := writeTree(t, map[string]string{"go.mod": "module m\n", "main.go": "package main\n"})
	exec := exectest.New("gofmt", "go").Git([]string{"main.go"}, nil, nil)
	cfg := defaultConfig()
	cfg.HostExitConvention = true

	out, err := New(Options{Root: root, Config: cfg, Exec: exec}).Run(context.Background())
	require.NoError(t, err)

	assert.True(t, out.Clean())
	assert.Equal(t, ExitIssues, out.ExitCode)
	assert.True(t, out.HostConvention)
}

func TestRun_FailFastSkipsRemainingLanguages(t *testing.T) {
	root := writeTree(t, map[string]string{
		"go.mod":           "module m\n",
		"main.go":          "package main\n",
		"requirements.txt": "",
		"tool.py":          "",
	})
	exec := exectest.New("gofmt", "go", "ruff").
		On("gofmt -w .", exectest.Response{ExitCode: 2, Output: "main.go:1:1: expected 'package'"})
	cfg := defaultConfig()
	cfg.Full = true
	cfg.FailFast = true

	out, err := New(Options{Root: root, Config: cfg, Exec: exec}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, ExitIssues, out.ExitCode)
	assert.Equal(t, []string{"gofmt -w .", "go vet ./..."}, exec.Commands())
	assert.Equal(t, []detector.Language{detector.Go}, out.Summary.Checked())
	assert.Equal(t, []detector.Language{detector.Python}, out.Summary.Skipped())
}

func TestRun_WithoutFailFastEveryLanguageRuns(t *testing.T) {
	root := writeTree(t, map[string]string{"go.mod": "module m\n", "requirements.txt": ""})
	exec := exectest.New("gofmt", "go", "ruff").
		On("go vet ./...", exectest.Response{ExitCode: 1, Output: "vet: bad"}).
		On("ruff check --fix .", exectest.Response{ExitCode: 1, Output: "F401 unused import"})
	cfg := defaultConfig()
	cfg.Full = true

	out, err := New(Options{Root: root, Config: cfg, Exec: exec}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, out.Summary.ErrorCount())
	assert.Equal(t, []string{"gofmt -w .", "go vet ./...", "ruff format .", "ruff check --fix ."}, exec.Commands())
}

func TestRun_FullScanHonoursIgnoreFile(t *testing.T) {
	root := writeTree(t, map[string]string{
		"go.mod":               "module m\n",
		"main.go":              "package main\n",
		"gen/x.go":             "package gen\nfunc   X( ) {  }\n",
		".claude-hooks-ignore": "# generated\ngen/\n",
	})
	exec := exectest.New("gofmt", "go")
	cfg := defaultConfig()
	cfg.Full = true

	out, err := New(Options{Root: root, Config: cfg, Exec: exec}).Run(context.Background())
	require.NoError(t, err)

	assert.False(t, out.ChangeSet.Full)
	assert.True(t, out.ChangeSet.Expanded)
	assert.Equal(t, []string{"gen/x.go"}, out.ChangeSet.Excluded)
	if diff := cmp.Diff([]lint.FileGroup{{Language: detector.Go, Files: []string{"main.go"}, Excluded: 1}}, out.Groups); diff != "" {
		t.Errorf("groups mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"gofmt -w main.go", "go vet ."}, exec.Commands())
	assert.Empty(t, exec.Commands("git"))
}

func TestRun_FullScanHonoursDisableMarker(t *testing.T) {
	root := writeTree(t, map[string]string{
		"go.mod":      "module m\n",
		"main.go":     "package main\n",
		"legacy/y.go": "// claude-hooks-disable\npackage legacy\n",
		"legacy/z.go": "package legacy\n",
	})
	exec := exectest.New("gofmt", "go")
	cfg := defaultConfig()
	cfg.Full = true

	out, err := New(Options{Root: root, Config: cfg, Exec: exec}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"legacy/z.go", "main.go"}, out.ChangeSet.Files)
	assert.Equal(t, []string{"legacy/y.go"}, out.ChangeSet.Excluded)
	assert.Equal(t, []string{"gofmt -w legacy/z.go main.go", "go vet ./legacy ."}, exec.Commands())
}

func TestRun_CleanGitTreeHonoursIgnoreFile(t *testing.T) {
	root := writeTree(t, map[string]string{
		"requirements.txt":     "",
		"app.py":               "",
		"migrations/0001.py":   "",
		".claude-hooks-ignore": "migrations/**\n",
	})
	// No changes at all falls back to the whole tree.
	exec := exectest.New("ruff").Git(nil, nil, nil)

	out, err := New(Options{Root: root, Config: defaultConfig(), Exec: exec}).Run(context.Background())
	require.NoError(t, err)

	assert.True(t, out.ResolverInvoked)
	assert.True(t, out.ChangeSet.Expanded)
	assert.Equal(t, []string{"ruff format app.py", "ruff check --fix app.py"}, exec.Commands("ruff"))
}

func TestRun_FullScanWithoutExclusionsKeepsWholeTreeArgs(t *testing.T) {
	root := writeTree(t, map[string]string{
		"go.mod":               "module m\n",
		"main.go":              "package main\n",
		".claude-hooks-ignore": "docs/\n",
	})
	exec := exectest.New("gofmt", "go")
	cfg := defaultConfig()
	cfg.Full = true

	out, err := New(Options{Root: root, Config: cfg, Exec: exec}).Run(context.Background())
	require.NoError(t, err)

	assert.True(t, out.ChangeSet.Full)
	assert.Equal(t, []string{"gofmt -w .", "go vet ./..."}, exec.Commands())
}

func TestRun_DisabledLanguageIsNeverDispatched(t *testing.T) {
	root := writeTree(t, map[string]string{"go.mod": "module m\n", "package.json": "{}"})
	exec := exectest.New("gofmt", "go", "prettier", "eslint")
	cfg := defaultConfig()
	cfg.Full = true
	cfg.Languages.JavaScript = false

	out, err := New(Options{Root: root, Config: cfg, Exec: exec}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "go", out.Project.Type.String())
	assert.Empty(t, exec.Commands("prettier", "eslint"))
}

func TestRun_Cooldown(t *testing.T) {
	root := writeTree(t, map[string]string{"go.mod": "module m\n"})
	store, err := runstate.NewStore(t.TempDir())
	require.NoError(t, err)

	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	cfg := defaultConfig()
	cfg.Full = true
	cfg.CooldownSeconds = 10

	exec := exectest.New("gofmt", "go")
	first, err := New(Options{Root: root, Config: cfg, Exec: exec, State: store, Now: func() time.Time { return now }}).Run(context.Background())
	require.NoError(t, err)
	assert.False(t, first.CooledDown)
	assert.Len(t, exec.Calls(), 2)

	second, err := New(Options{Root: root, Config: cfg, Exec: exec, State: store, Now: func() time.Time { return now.Add(3 * time.Second) }}).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, second.CooledDown)
	assert.Equal(t, 3*time.Second, second.CooldownAge)
	assert.Equal(t, ExitOK, second.ExitCode)
	assert.Len(t, exec.Calls(), 2)

	third, err := New(Options{Root: root, Config: cfg, Exec: exec, State: store, Now: func() time.Time { return now.Add(11 * time.Second) }}).Run(context.Background())
	require.NoError(t, err)
	assert.False(t, third.CooledDown)
	assert.Len(t, exec.Calls(), 4)
}

func TestRun_CooldownNeverHidesFailures(t *testing.T) {
	root := writeTree(t, map[string]string{"go.mod": "module m\n"})
	store, err := runstate.NewStore(t.TempDir())
	require.NoError(t, err)

	cfg := defaultConfig()
	cfg.Full = true
	cfg.CooldownSeconds = 60
	exec := exectest.New("gofmt", "go").On("go vet ./...", exectest.Response{ExitCode: 1})

	for i := 0; i < 2; i++ {
		out, err := New(Options{Root: root, Config: cfg, Exec: exec, State: store}).Run(context.Background())
		require.NoError(t, err)
		assert.False(t, out.CooledDown)
		assert.Equal(t, ExitIssues, out.ExitCode)
	}
}

func TestRun_Interrupted(t *testing.T) {
	root := writeTree(t, map[string]string{"go.mod": "module m\n"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cfg := defaultConfig()
	cfg.Full = true

	out, err := New(Options{Root: root, Config: cfg, Exec: exectest.New("gofmt", "go")}).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, ExitInterrupted, out.ExitCode)
	assert.Equal(t, Terminal, out.Transitions[len(out.Transitions)-1])
}

func TestMachine(t *testing.T) {
	m := newMachine()
	require.NoError(t, m.advance(ConfigLoaded))
	assert.ErrorIs(t, m.advance(ChangeSetResolved), ErrIllegalTransition)
	m.terminate()
	m.terminate()
	assert.ErrorIs(t, m.advance(Idle), ErrIllegalTransition)
	assert.Equal(t, []State{Idle, ConfigLoaded, Terminal}, m.path)
	assert.Equal(t, "changeset-resolved", ChangeSetResolved.String())
}
