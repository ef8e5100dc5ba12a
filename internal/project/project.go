// Package project reads the i18n project file and groups extracted
// translatables into packages.
package project

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// DefaultPriority is used for packages that do not set one.
const DefaultPriority = 100

// StringList accepts either a single string or a list of strings.
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *StringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		*l = StringList{s}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := value.Decode(&list); err != nil {
			return err
		}
		*l = list
		return nil
	}
	return fmt.Errorf("line %d: expected a string or a list of strings", value.Line)
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *StringList) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*l = StringList{s}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("expected a string or a list of strings")
	}
	*l = list
	return nil
}

// PackageConfig is one entry of the packages map. Paths are relative to the
// project file.
type PackageConfig struct {
	Priority    *int     `json:"priority" yaml:"priority"`
	SourceFiles []string `json:"sourceFiles" yaml:"sourceFiles"`
}

// BackendConfig locates the version translatables are synced with.
type BackendConfig struct {
	URL     string `json:"url" yaml:"url"`
	Org     string `json:"org" yaml:"org"`
	Project string `json:"project" yaml:"project"`
	Version string `json:"version" yaml:"version"`
}

// LocalExportConfig names a directory that receives an export after each sync.
type LocalExportConfig struct {
	Path string `json:"path" yaml:"path"`
}

// Config is the project file. Unknown keys are ignored.
type Config struct {
	TSConfig    StringList               `json:"tsconfig" yaml:"tsconfig"`
	Packages    map[string]PackageConfig `json:"packages" yaml:"packages"`
	Backend     *BackendConfig           `json:"backend" yaml:"backend"`
	LocalExport *LocalExportConfig       `json:"localExport" yaml:"localExport"`
}

// Project is a loaded project file.
type Project struct {
	Config  Config
	BaseDir string

	packages []*Package
	byID     map[string]*Package
}

// From reads the project file at path. JSON and YAML are both accepted.
func From(path string) (*Project, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve project path: %w", err)
	}
	raw, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("read project file: %w", err)
	}

	var cfg Config
	if err := decode(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse project file %s: %w", abs, err)
	}
	if len(cfg.TSConfig) == 0 {
		return nil, fmt.Errorf("project file %s: tsconfig is missing", abs)
	}

	p := New(cfg, filepath.Dir(abs))
	log.Debug().Str("project", abs).Int("packages", len(p.packages)).Msg("Loaded project")
	return p, nil
}

// decode reads a JSON document with encoding/json and anything else as YAML.
func decode(raw []byte, cfg *Config) error {
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '{' {
		return json.Unmarshal(trimmed, cfg)
	}
	return yaml.Unmarshal(raw, cfg)
}

// New builds a project from an already decoded config.
func New(cfg Config, baseDir string) *Project {
	p := &Project{Config: cfg, BaseDir: baseDir, byID: make(map[string]*Package)}
	for id, pc := range cfg.Packages {
		priority := DefaultPriority
		if pc.Priority != nil {
			priority = *pc.Priority
		}
		pkg := &Package{ID: id, Priority: priority}
		for _, f := range pc.SourceFiles {
			pkg.patterns = append(pkg.patterns, filepath.ToSlash(filepath.Join(baseDir, f)))
		}
		p.packages = append(p.packages, pkg)
		p.byID[id] = pkg
	}
	sort.Slice(p.packages, func(i, j int) bool {
		if p.packages[i].Priority != p.packages[j].Priority {
			return p.packages[i].Priority > p.packages[j].Priority
		}
		return p.packages[i].ID < p.packages[j].ID
	})
	return p
}

// TSConfigPaths returns the absolute paths of the configured tsconfig files.
func (p *Project) TSConfigPaths() []string {
	paths := make([]string, len(p.Config.TSConfig))
	for i, c := range p.Config.TSConfig {
		paths[i] = filepath.Join(p.BaseDir, c)
	}
	return paths
}

// Packages returns all packages, highest priority first.
func (p *Project) Packages() []*Package {
	return p.packages
}

// Package returns the package with the given id, or nil.
func (p *Project) Package(id string) *Package {
	return p.byID[id]
}

// PackageFor returns the highest priority package that might contain every
// source file of t, or nil when there is none.
func (p *Project) PackageFor(t *Translatable) *Package {
	for _, pkg := range p.packages {
		all := true
		for _, e := range t.SrcElements {
			if !pkg.MightContain(e.FileName) {
				all = false
				break
			}
		}
		if all {
			return pkg
		}
	}
	return nil
}

// Package is a named set of source files with a priority.
type Package struct {
	ID       string
	Priority int

	patterns []string
}

// MightContain reports whether fileName matches one of the package's
// sourceFiles globs.
func (pkg *Package) MightContain(fileName string) bool {
	abs, err := filepath.Abs(fileName)
	if err != nil {
		return false
	}
	name := filepath.ToSlash(abs)
	for _, pattern := range pkg.patterns {
		if ok, _ := doublestar.Match(pattern, name); ok {
			return true
		}
	}
	return false
}
