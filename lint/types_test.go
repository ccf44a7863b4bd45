package lint

import (
	"testing"

	"github.com/meysamhadeli/smartlint/changeset"
	"github.com/meysamhadeli/smartlint/detector"
	"github.com/stretchr/testify/assert"
)

func TestCommand_Argv(t *testing.T) {
	incremental := FileGroup{Language: detector.Go, Files: []string{"main.go", "pkg/a/x.go", "pkg/a/y.go", "pkg/b/z.go"}}
	whole := FileGroup{Language: detector.Go, WholeTree: true}

	tests := []struct {
		name   string
		cmd    Command
		group  FileGroup
		want   []string
		wantOK bool
	}{
		{
			name:   "files appended",
			cmd:    Command{Binary: "gofmt", Args: []string{"-w"}, Paths: PathFiles, WholeTreeArgs: []string{"."}},
			group:  incremental,
			want:   []string{"gofmt", "-w", "main.go", "pkg/a/x.go", "pkg/a/y.go", "pkg/b/z.go"},
			wantOK: true,
		},
		{
			name:   "files in whole-tree mode",
			cmd:    Command{Binary: "gofmt", Args: []string{"-w"}, Paths: PathFiles, WholeTreeArgs: []string{"."}},
			group:  whole,
			want:   []string{"gofmt", "-w", "."},
			wantOK: true,
		},
		{
			name:  "files without whole-tree form",
			cmd:   Command{Binary: "rustfmt", Paths: PathFiles},
			group: whole,
		},
		{
			name:   "packages deduplicated",
			cmd:    Command{Binary: "go", Args: []string{"vet"}, Paths: PathPackages, WholeTreeArgs: []string{"./..."}},
			group:  incremental,
			want:   []string{"go", "vet", ".", "./pkg/a", "./pkg/b"},
			wantOK: true,
		},
		{
			name:   "packages in whole-tree mode",
			cmd:    Command{Binary: "go", Args: []string{"vet"}, Paths: PathPackages, WholeTreeArgs: []string{"./..."}},
			group:  whole,
			want:   []string{"go", "vet", "./..."},
			wantOK: true,
		},
		{
			name:   "no paths",
			cmd:    Command{Binary: "cargo", Args: []string{"check"}, Paths: PathNone},
			group:  incremental,
			want:   []string{"cargo", "check"},
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.cmd.Argv(tt.group)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCommand_ArgvDoesNotAliasTemplate(t *testing.T) {
	cmd := Command{Binary: "ruff", Args: make([]string, 1, 4), Paths: PathFiles}
	cmd.Args[0] = "check"

	a, _ := cmd.Argv(FileGroup{Files: []string{"a.py"}})
	b, _ := cmd.Argv(FileGroup{Files: []string{"b.py"}})
	assert.Equal(t, []string{"ruff", "check", "a.py"}, a)
	assert.Equal(t, []string{"ruff", "check", "b.py"}, b)
}

func TestGroupFiles(t *testing.T) {
	pt := detector.NewProjectType(detector.Go, detector.JavaScript)

	t.Run("incremental", func(t *testing.T) {
		cs := changeset.ChangeSet{Files: []string{"main.go", "README.md", "web/a.tsx", "tool.py", "web/b.ts"}}
		groups := GroupFiles(cs, pt)

		assert.Equal(t, []FileGroup{
			{Language: detector.Go, Files: []string{"main.go"}},
			{Language: detector.JavaScript, Files: []string{"web/a.tsx", "web/b.ts"}},
		}, groups)
	})

	t.Run("language without changes", func(t *testing.T) {
		groups := GroupFiles(changeset.ChangeSet{Files: []string{"web/a.tsx"}}, pt)
		assert.True(t, groups[0].Empty())
		assert.False(t, groups[1].Empty())
	})

	t.Run("full scan", func(t *testing.T) {
		groups := GroupFiles(changeset.FullScan(), pt)
		assert.Equal(t, []FileGroup{
			{Language: detector.Go, WholeTree: true},
			{Language: detector.JavaScript, WholeTree: true},
		}, groups)
		assert.False(t, groups[0].Empty())
	})

	t.Run("unknown project", func(t *testing.T) {
		assert.Empty(t, GroupFiles(changeset.ChangeSet{Files: []string{"main.go"}}, detector.NewProjectType()))
	})
}

func TestSummary(t *testing.T) {
	s := NewSummary()
	assert.False(t, s.Failed())

	s.Record(ToolResult{Language: detector.Go, Tool: "gofmt", Step: StepFormat, Succeeded: true})
	s.Record(ToolResult{Language: detector.Go, Tool: "go vet", Step: StepLint, ExitCode: 1, Output: "vet: x"})
	s.Notice(detector.Go, "%s not installed", "golangci-lint")

	assert.True(t, s.Failed())
	assert.Equal(t, 1, s.ErrorCount())
	assert.Len(t, s.Results(), 2)
	assert.Equal(t, "vet: x", s.Failures()[0].Output)
	assert.Equal(t, []Notice{{Language: detector.Go, Message: "golangci-lint not installed"}}, s.Notices())
}
