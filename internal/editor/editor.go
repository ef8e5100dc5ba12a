// Package editor batches byte-range replacements over source files and
// writes them back.
package editor

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"i18n-analyzer/internal/parser"

	"github.com/rs/zerolog/log"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// File collects the pending replacements for one file.
type File struct {
	Name string

	edits    []parser.Edit
	original []byte
	updated  []byte
}

// Replace schedules source[start:end] to be replaced by text. Offsets refer
// to the file as it is on disk.
func (f *File) Replace(start, end int, text string) {
	f.edits = append(f.edits, parser.Edit{Start: start, End: end, Text: text})
}

// Changed reports whether applying the edits changed the file.
func (f *File) Changed() bool {
	return f.updated != nil && string(f.updated) != string(f.original)
}

// FileEditor tracks edits to any number of files.
type FileEditor struct {
	files map[string]*File
}

// New creates an empty editor.
func New() *FileEditor {
	return &FileEditor{files: make(map[string]*File)}
}

// Open returns the edit set for name, creating it on first use.
func (e *FileEditor) Open(name string) *File {
	if f, ok := e.files[name]; ok {
		return f
	}
	f := &File{Name: name}
	e.files[name] = f
	return f
}

// Files returns the opened files sorted by name.
func (e *FileEditor) Files() []*File {
	files := make([]*File, 0, len(e.files))
	for _, f := range e.files {
		files = append(files, f)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files
}

// ApplyEdits reads every opened file and computes its new content in
// memory. Nothing is written.
func (e *FileEditor) ApplyEdits() error {
	for _, f := range e.Files() {
		src, err := os.ReadFile(f.Name)
		if err != nil {
			return fmt.Errorf("read %s: %w", f.Name, err)
		}
		out, err := parser.RewriteSource(src, f.edits)
		if err != nil {
			return fmt.Errorf("apply edits to %s: %w", f.Name, err)
		}
		f.original = src
		f.updated = []byte(out)
	}
	return nil
}

// WriteChanges writes every file whose content changed. ApplyEdits must run
// first.
func (e *FileEditor) WriteChanges() error {
	written := 0
	for _, f := range e.Files() {
		if !f.Changed() {
			continue
		}
		info, err := os.Stat(f.Name)
		if err != nil {
			return fmt.Errorf("stat %s: %w", f.Name, err)
		}
		if err := os.WriteFile(f.Name, f.updated, info.Mode().Perm()); err != nil {
			return fmt.Errorf("write %s: %w", f.Name, err)
		}
		written++
	}
	log.Info().Int("files", written).Msg("Wrote source changes")
	return nil
}

// Diff renders the changed lines of every changed file. ApplyEdits must run
// first.
func (e *FileEditor) Diff() string {
	var b strings.Builder
	for _, f := range e.Files() {
		if !f.Changed() {
			continue
		}
		fmt.Fprintf(&b, "--- %s\n+++ %s\n", f.Name, f.Name)
		b.WriteString(lineDiff(string(f.original), string(f.updated)))
	}
	return b.String()
}

func lineDiff(before, after string) string {
	dmp := diffmatchpatch.New()
	a, c, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, c, false), lines)

	var b strings.Builder
	for _, d := range diffs {
		var prefix string
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		default:
			continue
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			b.WriteString(prefix)
			b.WriteString(strings.TrimSuffix(line, "\n"))
			b.WriteString("\n")
		}
	}
	return b.String()
}
