package program

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar"
)

// TSConfig is the subset of tsconfig.json that decides which files belong to
// a program.
type TSConfig struct {
	Files           []string `json:"files"`
	Include         []string `json:"include"`
	Exclude         []string `json:"exclude"`
	CompilerOptions struct {
		OutDir string `json:"outDir"`
	} `json:"compilerOptions"`

	dir string
}

// ReadTSConfig loads a tsconfig.json. Comments and trailing commas are
// accepted the way the TypeScript compiler accepts them.
func ReadTSConfig(configPath string) (*TSConfig, error) {
	raw, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read tsconfig: %w", err)
	}
	return ParseTSConfig(raw, filepath.Dir(configPath))
}

// ParseTSConfig decodes tsconfig content whose paths are relative to dir.
func ParseTSConfig(raw []byte, dir string) (*TSConfig, error) {
	var cfg TSConfig
	if err := json.Unmarshal(stripJSONC(raw), &cfg); err != nil {
		return nil, fmt.Errorf("parse tsconfig: %w", err)
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve tsconfig dir: %w", err)
	}
	cfg.dir = abs

	if cfg.Include == nil && cfg.Files == nil {
		cfg.Include = []string{"**/*"}
	}
	if cfg.Exclude == nil {
		cfg.Exclude = []string{"node_modules", "bower_components", "jspm_packages"}
		if cfg.CompilerOptions.OutDir != "" {
			cfg.Exclude = append(cfg.Exclude, cfg.CompilerOptions.OutDir)
		}
	}
	return &cfg, nil
}

// Dir returns the absolute directory the config's paths are relative to.
func (c *TSConfig) Dir() string { return c.dir }

// Contains reports whether the file at absPath belongs to the program.
func (c *TSConfig) Contains(absPath string) bool {
	rel, err := filepath.Rel(c.dir, absPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}
	rel = filepath.ToSlash(rel)

	for _, f := range c.Files {
		if path.Clean(filepath.ToSlash(f)) == rel {
			return true
		}
	}
	return matchesAny(c.Include, rel) && !matchesAny(c.Exclude, rel)
}

func matchesAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		for _, glob := range expandSpec(p) {
			if ok, _ := doublestar.Match(glob, rel); ok {
				return true
			}
		}
	}
	return false
}

// expandSpec turns a tsconfig include/exclude entry into globs. An entry
// without a wildcard or an extension names a directory.
func expandSpec(spec string) []string {
	spec = strings.TrimPrefix(path.Clean(filepath.ToSlash(spec)), "./")
	if spec == "." {
		return []string{"**/*"}
	}
	if strings.ContainsAny(spec, "*?") || path.Ext(spec) != "" {
		return []string{spec}
	}
	return []string{spec, spec + "/**/*"}
}

// stripJSONC removes comments and trailing commas so the result is plain
// JSON. String contents are left untouched.
func stripJSONC(src []byte) []byte {
	out := make([]byte, 0, len(src))
	inString := false
	for i := 0; i < len(src); i++ {
		c := src[i]
		if inString {
			out = append(out, c)
			if c == '\\' && i+1 < len(src) {
				i++
				out = append(out, src[i])
			} else if c == '"' {
				inString = false
			}
			continue
		}
		switch {
		case c == '"':
			inString = true
			out = append(out, c)
		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			for i < len(src) && src[i] != '\n' {
				i++
			}
			if i < len(src) {
				out = append(out, '\n')
			}
		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			i += 2
			for i+1 < len(src) && !(src[i] == '*' && src[i+1] == '/') {
				i++
			}
			i++
		case c == ',':
			j := i + 1
			for j < len(src) && isJSONSpace(src[j]) {
				j++
			}
			// trailing comma
			if j < len(src) && (src[j] == '}' || src[j] == ']') {
				continue
			}
			if j+1 < len(src) && src[j] == '/' && (src[j+1] == '/' || src[j+1] == '*') {
				if next := nextSignificant(src, j); next == '}' || next == ']' {
					continue
				}
			}
			out = append(out, c)
		default:
			out = append(out, c)
		}
	}
	return out
}

func isJSONSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// nextSignificant returns the first byte after i that is neither whitespace
// nor part of a comment.
func nextSignificant(src []byte, i int) byte {
	for i < len(src) {
		switch {
		case isJSONSpace(src[i]):
			i++
		case src[i] == '/' && i+1 < len(src) && src[i+1] == '/':
			for i < len(src) && src[i] != '\n' {
				i++
			}
		case src[i] == '/' && i+1 < len(src) && src[i+1] == '*':
			i += 2
			for i+1 < len(src) && !(src[i] == '*' && src[i+1] == '/') {
				i++
			}
			i += 2
		default:
			return src[i]
		}
	}
	return 0
}
