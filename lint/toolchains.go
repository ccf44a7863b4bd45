package lint

import (
	"github.com/meysamhadeli/smartlint/detector"
)

// Registry maps each language to its toolchain.
type Registry map[detector.Language]Toolchain

// DefaultRegistry returns the built-in toolchains. Tools are listed in
// preference order; the runner takes the first available formatter and the
// first available linter.
func DefaultRegistry() Registry {
	return Registry{
		detector.Go:         goToolchain(),
		detector.Python:     pythonToolchain(),
		detector.JavaScript: javascriptToolchain(),
		detector.Rust:       rustToolchain(),
		detector.Nix:        nixToolchain(),
	}
}

// Get returns the toolchain for lang.
func (r Registry) Get(lang detector.Language) (Toolchain, bool) {
	tc, ok := r[lang]
	return tc, ok
}

func hasDependency(name string) func(*detector.Project) bool {
	return func(p *detector.Project) bool { return p.HasDependency(name) }
}

func hasFile(name string) func(*detector.Project) bool {
	return func(p *detector.Project) bool { return p.HasFile(name) }
}

var wholeTree = []string{"."}

// makeTarget uses `make fmt|format` and `make lint` when the Makefile
// declares both.
var makeTarget = Target{
	Name:   "make",
	Binary: "make",
	Resolve: func(p *detector.Project) ([]string, []string, bool) {
		if !p.HasMakeTarget("lint") {
			return nil, nil, false
		}
		for _, name := range []string{"fmt", "format"} {
			if p.HasMakeTarget(name) {
				return []string{name}, []string{"lint"}, true
			}
		}
		return nil, nil, false
	},
}

func goToolchain() Toolchain {
	return Toolchain{
		Language: detector.Go,
		Targets:  []Target{makeTarget},
		Tools: []Tool{
			{
				Name:   "gofmt",
				Format: &Command{Binary: "gofmt", Args: []string{"-w"}, Paths: PathFiles, WholeTreeArgs: wholeTree},
			},
			{
				Name: "golangci-lint",
				Lint: &Command{Binary: "golangci-lint", Args: []string{"run", "--fix"}, Paths: PathPackages, WholeTreeArgs: []string{"./..."}, Fix: true},
				Slow: true,
			},
			{
				Name: "go vet",
				Lint: &Command{Binary: "go", Args: []string{"vet"}, Paths: PathPackages, WholeTreeArgs: []string{"./..."}},
			},
		},
	}
}

func pythonToolchain() Toolchain {
	return Toolchain{
		Language: detector.Python,
		Targets: []Target{{
			Name:   "taskipy",
			Binary: "task",
			Resolve: func(p *detector.Project) ([]string, []string, bool) {
				if p.HasPythonTask("format") && p.HasPythonTask("lint") {
					return []string{"format"}, []string{"lint"}, true
				}
				return nil, nil, false
			},
		}},
		Tools: []Tool{
			{
				Name:   "ruff",
				Format: &Command{Binary: "ruff", Args: []string{"format"}, Paths: PathFiles, WholeTreeArgs: wholeTree},
				Lint:   &Command{Binary: "ruff", Args: []string{"check", "--fix"}, Paths: PathFiles, WholeTreeArgs: wholeTree, Fix: true},
			},
			{
				Name:   "black",
				Format: &Command{Binary: "black", Args: []string{"-q"}, Paths: PathFiles, WholeTreeArgs: wholeTree},
			},
			{
				Name: "flake8",
				Lint: &Command{Binary: "flake8", Paths: PathFiles, WholeTreeArgs: wholeTree},
			},
		},
	}
}

func javascriptToolchain() Toolchain {
	return Toolchain{
		Language: detector.JavaScript,
		Targets: []Target{{
			Name:   "npm",
			Binary: "npm",
			Resolve: func(p *detector.Project) ([]string, []string, bool) {
				if p.HasScript("format") && p.HasScript("lint") {
					return []string{"run", "--silent", "format"}, []string{"run", "--silent", "lint"}, true
				}
				return nil, nil, false
			},
		}},
		Tools: []Tool{
			{
				// Project-local installs win over global ones.
				Name:     "prettier",
				Format:   &Command{Binary: "npx", Args: []string{"prettier", "--write"}, Paths: PathFiles, WholeTreeArgs: wholeTree},
				Requires: hasDependency("prettier"),
			},
			{
				Name:   "prettier",
				Format: &Command{Binary: "prettier", Args: []string{"--write"}, Paths: PathFiles, WholeTreeArgs: wholeTree},
			},
			{
				Name:     "eslint",
				Lint:     &Command{Binary: "npx", Args: []string{"eslint", "--fix"}, Paths: PathFiles, WholeTreeArgs: wholeTree, Fix: true},
				Requires: hasDependency("eslint"),
			},
			{
				Name: "eslint",
				Lint: &Command{Binary: "eslint", Args: []string{"--fix"}, Paths: PathFiles, WholeTreeArgs: wholeTree, Fix: true},
			},
		},
	}
}

func rustToolchain() Toolchain {
	cargo := hasFile("Cargo.toml")
	return Toolchain{
		Language: detector.Rust,
		Tools: []Tool{
			{
				Name:     "cargo fmt",
				Format:   &Command{Binary: "cargo", Args: []string{"fmt"}, Paths: PathNone},
				Needs:    []string{"cargo-fmt"},
				Requires: cargo,
			},
			{
				// Standalone sources without a crate. No whole-tree form.
				Name:   "rustfmt",
				Format: &Command{Binary: "rustfmt", Args: []string{"--edition", "2021"}, Paths: PathFiles},
			},
			{
				Name:     "cargo clippy",
				Lint:     &Command{Binary: "cargo", Args: []string{"clippy", "--quiet", "--", "-D", "warnings"}, Paths: PathNone},
				Slow:     true,
				Needs:    []string{"cargo-clippy"},
				Requires: cargo,
			},
			{
				Name:     "cargo check",
				Lint:     &Command{Binary: "cargo", Args: []string{"check", "--quiet"}, Paths: PathNone},
				Requires: cargo,
			},
		},
	}
}

func nixToolchain() Toolchain {
	return Toolchain{
		Language: detector.Nix,
		Tools: []Tool{
			{
				Name:   "nixpkgs-fmt",
				Format: &Command{Binary: "nixpkgs-fmt", Paths: PathFiles, WholeTreeArgs: wholeTree},
			},
			{
				Name:   "alejandra",
				Format: &Command{Binary: "alejandra", Args: []string{"-q"}, Paths: PathFiles, WholeTreeArgs: wholeTree},
			},
			{
				// statix takes a single target, so it always checks the project.
				Name: "statix",
				Lint: &Command{Binary: "statix", Args: []string{"check"}, Paths: PathNone},
			},
			{
				Name: "deadnix",
				Lint: &Command{Binary: "deadnix", Args: []string{"--fail"}, Paths: PathFiles, WholeTreeArgs: wholeTree},
			},
		},
	}
}
