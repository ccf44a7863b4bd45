package detector

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/meysamhadeli/smartlint/utils"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/mod/modfile"
)

// DefaultMaxDepth bounds the extension scan so huge trees stay cheap.
const DefaultMaxDepth = 3

// Options controls detection.
type Options struct {
	// Enabled filters languages before detection. Nil enables all.
	Enabled func(Language) bool

	// MaxDepth is the deepest path (in components, root files are depth 1)
	// inspected for source extensions. Zero disables the extension scan.
	MaxDepth int
}

// Project holds what detection learned about the tree.
type Project struct {
	Root string
	Type ProjectType

	// GoModule is the module path from go.mod, if it parses.
	GoModule string

	makeTargets map[string]bool
	scripts     map[string]string
	deps        map[string]bool
	pyTasks     map[string]bool

	// Warnings are manifest problems that did not stop detection.
	Warnings []string
}

// HasMakeTarget reports whether the root Makefile declares target.
func (p *Project) HasMakeTarget(target string) bool { return p.makeTargets[target] }

// HasScript reports whether package.json declares an npm script.
func (p *Project) HasScript(name string) bool {
	_, ok := p.scripts[name]
	return ok
}

// HasDependency reports whether package.json lists name in any dependency block.
func (p *Project) HasDependency(name string) bool { return p.deps[name] }

// HasPythonTask reports whether pyproject.toml declares a taskipy task.
func (p *Project) HasPythonTask(name string) bool { return p.pyTasks[name] }

// HasFile reports whether a regular file named name exists at the root.
func (p *Project) HasFile(name string) bool {
	info, err := os.Stat(filepath.Join(p.Root, name))
	return err == nil && info.Mode().IsRegular()
}

// Detect inspects root and returns the detected project. An Unknown type is
// a valid result, not an error.
func Detect(root string, opts Options) (*Project, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat project root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("project root %s is not a directory", root)
	}

	project := &Project{Root: root}

	var candidates []LanguageSpec
	for _, spec := range Specs {
		if opts.Enabled == nil || opts.Enabled(spec.Language) {
			candidates = append(candidates, spec)
		}
	}

	matched := make(map[Language]bool)
	pending := make(map[string]Language)
	for _, spec := range candidates {
		if hasAnyMarker(root, spec.Markers) {
			matched[spec.Language] = true
			continue
		}
		for _, ext := range spec.Extensions {
			pending[ext] = spec.Language
		}
	}

	if len(pending) > 0 && opts.MaxDepth > 0 {
		if err := scanExtensions(root, opts.MaxDepth, pending, matched); err != nil {
			return nil, err
		}
	}

	var langs []Language
	for _, spec := range candidates {
		if matched[spec.Language] {
			langs = append(langs, spec.Language)
		}
	}
	project.Type = NewProjectType(langs...)

	project.loadManifests()
	return project, nil
}

func hasAnyMarker(root string, markers []string) bool {
	for _, marker := range markers {
		if _, err := os.Stat(filepath.Join(root, marker)); err == nil {
			return true
		}
	}
	return false
}

// scanExtensions walks root up to maxDepth looking for source files of
// languages that had no marker. It stops as soon as every pending language
// matched.
func scanExtensions(root string, maxDepth int, pending map[string]Language, matched map[Language]bool) error {
	remaining := make(map[Language]bool)
	for _, lang := range pending {
		remaining[lang] = true
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			// Unreadable subtrees do not make a language undetectable elsewhere.
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if path == root {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		depth := len(strings.Split(filepath.ToSlash(rel), "/"))

		if d.IsDir() {
			if utils.IsSkippedDir(d.Name()) || depth >= maxDepth {
				return filepath.SkipDir
			}
			return nil
		}

		lang, ok := pending[strings.ToLower(filepath.Ext(path))]
		if !ok || !remaining[lang] {
			return nil
		}
		matched[lang] = true
		delete(remaining, lang)
		if len(remaining) == 0 {
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to scan project tree: %w", err)
	}
	return nil
}

func (p *Project) loadManifests() {
	p.loadGoModule()
	p.loadMakefile()
	p.loadPackageJSON()
	p.loadPyproject()
}

func (p *Project) warn(format string, args ...any) {
	p.Warnings = append(p.Warnings, fmt.Sprintf(format, args...))
}

func (p *Project) loadGoModule() {
	data, err := os.ReadFile(filepath.Join(p.Root, "go.mod"))
	if err != nil {
		return
	}
	p.GoModule = modfile.ModulePath(data)
	if p.GoModule == "" {
		p.warn("go.mod has no module directive")
	}
}

var makeTargetPattern = regexp.MustCompile(`^([A-Za-z0-9_.\-]+)\s*:([^=]|$)`)

func (p *Project) loadMakefile() {
	p.makeTargets = make(map[string]bool)
	for _, name := range []string{"GNUmakefile", "makefile", "Makefile"} {
		f, err := os.Open(filepath.Join(p.Root, name))
		if err != nil {
			continue
		}
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			if m := makeTargetPattern.FindStringSubmatch(scanner.Text()); m != nil {
				p.makeTargets[m[1]] = true
			}
		}
		f.Close()
		return
	}
}

type packageJSON struct {
	Scripts              map[string]string `json:"scripts"`
	Dependencies         map[string]string `json:"dependencies"`
	DevDependencies      map[string]string `json:"devDependencies"`
	PeerDependencies     map[string]string `json:"peerDependencies"`
	OptionalDependencies map[string]string `json:"optionalDependencies"`
}

func (p *Project) loadPackageJSON() {
	p.scripts = make(map[string]string)
	p.deps = make(map[string]bool)

	data, err := os.ReadFile(filepath.Join(p.Root, "package.json"))
	if err != nil {
		return
	}
	var pkg packageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		p.warn("package.json: %v", err)
		return
	}
	p.scripts = pkg.Scripts
	if p.scripts == nil {
		p.scripts = make(map[string]string)
	}
	for _, block := range []map[string]string{pkg.Dependencies, pkg.DevDependencies, pkg.PeerDependencies, pkg.OptionalDependencies} {
		for name := range block {
			p.deps[name] = true
		}
	}
}

type pyproject struct {
	Tool struct {
		Taskipy struct {
			Tasks map[string]any `toml:"tasks"`
		} `toml:"taskipy"`
	} `toml:"tool"`
}

func (p *Project) loadPyproject() {
	p.pyTasks = make(map[string]bool)

	data, err := os.ReadFile(filepath.Join(p.Root, "pyproject.toml"))
	if err != nil {
		return
	}
	var doc pyproject
	if err := toml.Unmarshal(data, &doc); err != nil {
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			row, col := decodeErr.Position()
			p.warn("pyproject.toml:%d:%d: %v", row, col, decodeErr)
			return
		}
		p.warn("pyproject.toml: %v", err)
		return
	}
	for name := range doc.Tool.Taskipy.Tasks {
		p.pyTasks[name] = true
	}
}
