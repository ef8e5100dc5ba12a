// Package program loads the set of source files analysed together, either
// from a tsconfig.json or from a plain directory.
package program

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"i18n-analyzer/internal/filewalker"
	"i18n-analyzer/internal/parser"
	"i18n-analyzer/internal/worker"

	"github.com/rs/zerolog/log"
)

// Load builds a program from configPath. A tsconfig.json restricts the files
// by its files/include/exclude settings; a directory takes every supported
// file below it. Files are parsed with the given number of workers and
// returned sorted by path.
func Load(ctx context.Context, configPath string, workers int) (*parser.Program, error) {
	paths, err := Resolve(configPath)
	if err != nil {
		return nil, err
	}
	return Parse(ctx, paths, workers)
}

// Resolve lists the files configPath selects without parsing them.
func Resolve(configPath string) ([]string, error) {
	info, err := os.Stat(configPath)
	if err != nil {
		return nil, fmt.Errorf("stat program root: %w", err)
	}

	walker := filewalker.NewWalker()

	if info.IsDir() {
		entries, err := walker.Walk(configPath)
		if err != nil {
			return nil, err
		}
		paths := make([]string, len(entries))
		for i, e := range entries {
			paths[i] = e.Path
		}
		return paths, nil
	}

	cfg, err := ReadTSConfig(configPath)
	if err != nil {
		return nil, err
	}

	entries, err := walker.Walk(cfg.Dir())
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var paths []string
	for _, e := range entries {
		if cfg.Contains(e.Path) {
			seen[e.Path] = true
			paths = append(paths, e.Path)
		}
	}
	// Explicit files may live in directories the walker skips.
	for _, f := range cfg.Files {
		abs := filepath.Join(cfg.Dir(), f)
		if seen[abs] || walker.ParserFor(abs) == nil {
			continue
		}
		if _, err := os.Stat(abs); err != nil {
			log.Warn().Str("file", abs).Msg("File listed in tsconfig does not exist")
			continue
		}
		seen[abs] = true
		paths = append(paths, abs)
	}
	sort.Strings(paths)

	log.Debug().Str("config", configPath).Int("files", len(paths)).Msg("Resolved program files")
	return paths, nil
}

// Parse parses the given files concurrently into a program. Files that fail
// to parse are logged and left out; cancellation aborts the whole load.
func Parse(ctx context.Context, paths []string, workers int) (*parser.Program, error) {
	tsParser := parser.NewTSParser()
	pool := worker.NewPool(workers, func(ctx context.Context, path string) (*parser.SourceFile, error) {
		return tsParser.Parse(ctx, path)
	})

	tasks := pool.Execute(ctx, paths)

	files := make([]*parser.SourceFile, 0, len(tasks))
	for _, task := range tasks {
		if task.Err != nil {
			if ctx.Err() == nil {
				log.Warn().Err(task.Err).Str("file", task.Input).Msg("Parse failed")
			}
			continue
		}
		if task.Result.HasErrors() {
			log.Debug().Str("file", task.Input).Msg("File has syntax errors")
		}
		files = append(files, task.Result)
	}

	if err := ctx.Err(); err != nil {
		for _, sf := range files {
			sf.Close()
		}
		return nil, fmt.Errorf("load program: %w", err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return parser.NewProgram(files...), nil
}
