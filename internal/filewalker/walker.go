package filewalker

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	"i18n-analyzer/internal/parser"

	"github.com/rs/zerolog/log"
)

// Walker finds source files below a directory and pairs each with the
// parser that understands it.
type Walker struct {
	parsers []parser.Parser
	skip    []string
}

// NewWalker creates a Walker for TypeScript and JavaScript sources. Hidden
// directories and node_modules are never entered; skipDirs names further
// directories to leave out.
func NewWalker(skipDirs ...string) *Walker {
	return &Walker{
		parsers: []parser.Parser{parser.NewTSParser()},
		skip:    append([]string{"node_modules"}, skipDirs...),
	}
}

// FileEntry is a discovered source file.
type FileEntry struct {
	Path   string
	Parser parser.Parser
}

// ParserFor returns the parser responsible for path, or nil. Declaration
// files have no parser.
func (w *Walker) ParserFor(path string) parser.Parser {
	if parser.IsDeclarationFile(path) {
		return nil
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, p := range w.parsers {
		if p.CanParse(ext) {
			return p
		}
	}
	return nil
}

func (w *Walker) skipped(name string) bool {
	return strings.HasPrefix(name, ".") || slices.Contains(w.skip, name)
}

// Walk returns the supported files under root, sorted by path.
func (w *Walker) Walk(root string) ([]FileEntry, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root path: %w", err)
	}

	var entries []FileEntry
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			log.Warn().Err(err).Str("path", path).Msg("Cannot read path, skipping")
			return nil
		}
		if path == root {
			if !d.IsDir() {
				return fmt.Errorf("%s is not a directory", root)
			}
			return nil
		}
		if d.IsDir() {
			if w.skipped(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if p := w.ParserFor(path); p != nil {
			entries = append(entries, FileEntry{Path: path, Parser: p})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	slices.SortFunc(entries, func(a, b FileEntry) int { return strings.Compare(a.Path, b.Path) })
	log.Debug().Int("count", len(entries)).Str("root", root).Msg("Discovered source files")
	return entries, nil
}
