package detector

import (
	"path/filepath"
	"strings"
)

// Language identifies one supported implementation language.
type Language string

const (
	Go         Language = "go"
	Python     Language = "python"
	JavaScript Language = "javascript"
	Rust       Language = "rust"
	Nix        Language = "nix"
)

// LanguageSpec describes how a language is recognised.
type LanguageSpec struct {
	Language   Language
	Markers    []string
	Extensions []string
}

// Specs lists every supported language in dispatch order.
var Specs = []LanguageSpec{
	{
		Language:   Go,
		Markers:    []string{"go.mod", "go.sum", "go.work"},
		Extensions: []string{".go"},
	},
	{
		Language:   Python,
		Markers:    []string{"pyproject.toml", "setup.py", "setup.cfg", "requirements.txt", "Pipfile"},
		Extensions: []string{".py", ".pyi"},
	},
	{
		Language:   JavaScript,
		Markers:    []string{"package.json", "tsconfig.json"},
		Extensions: []string{".js", ".jsx", ".ts", ".tsx", ".mjs", ".cjs", ".mts", ".cts"},
	},
	{
		Language:   Rust,
		Markers:    []string{"Cargo.toml"},
		Extensions: []string{".rs"},
	},
	{
		Language:   Nix,
		Markers:    []string{"flake.nix", "default.nix", "shell.nix"},
		Extensions: []string{".nix"},
	},
}

var extensionMap = func() map[string]Language {
	m := make(map[string]Language)
	for _, spec := range Specs {
		for _, ext := range spec.Extensions {
			m[ext] = spec.Language
		}
	}
	return m
}()

// LanguageFromPath maps a file path to its language by extension.
func LanguageFromPath(path string) (Language, bool) {
	lang, ok := extensionMap[strings.ToLower(filepath.Ext(path))]
	return lang, ok
}

// ProjectType is the ordered set of languages detected in a tree. No
// languages means Unknown, more than one means Mixed.
type ProjectType struct {
	languages []Language
}

// NewProjectType builds a ProjectType from languages already in dispatch order.
func NewProjectType(langs ...Language) ProjectType {
	return ProjectType{languages: append([]Language(nil), langs...)}
}

// Languages returns a copy of the detected languages in dispatch order.
func (p ProjectType) Languages() []Language {
	return append([]Language(nil), p.languages...)
}

func (p ProjectType) IsUnknown() bool { return len(p.languages) == 0 }

func (p ProjectType) IsMixed() bool { return len(p.languages) > 1 }

// Has reports whether lang was detected.
func (p ProjectType) Has(lang Language) bool {
	for _, l := range p.languages {
		if l == lang {
			return true
		}
	}
	return false
}

func (p ProjectType) String() string {
	switch len(p.languages) {
	case 0:
		return "unknown"
	case 1:
		return string(p.languages[0])
	}
	names := make([]string, len(p.languages))
	for i, l := range p.languages {
		names[i] = string(l)
	}
	return "mixed(" + strings.Join(names, ",") + ")"
}
