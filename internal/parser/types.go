package parser

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"
)

// Parser is the interface for all source file parsers.
type Parser interface {
	// CanParse returns true if this parser handles the given file extension.
	CanParse(ext string) bool
	// Parse reads a file and builds its syntax tree.
	Parse(ctx context.Context, filePath string) (*SourceFile, error)
}

// SourceFile is one parsed file. It owns its syntax tree; nodes obtained from
// it are only valid until Close.
type SourceFile struct {
	// Name is the path the file was loaded from.
	Name string
	// Source is the raw file content the tree was built over.
	Source []byte
	// Language is the grammar used (typescript, tsx, javascript).
	Language string

	tree *sitter.Tree
}

// Root returns the program node of the file.
func (sf *SourceFile) Root() *Node {
	return wrap(sf.tree.RootNode(), sf)
}

// HasErrors reports whether the parser had to recover from syntax errors.
func (sf *SourceFile) HasErrors() bool {
	return sf.tree.RootNode().HasError()
}

// Close releases the syntax tree.
func (sf *SourceFile) Close() {
	if sf.tree != nil {
		sf.tree.Close()
		sf.tree = nil
	}
}

// Program is an ordered set of source files analysed together.
type Program struct {
	files []*SourceFile
}

// NewProgram wraps already parsed files. The order is kept as given.
func NewProgram(files ...*SourceFile) *Program {
	return &Program{files: files}
}

// SourceFiles returns the files of the program in load order.
func (p *Program) SourceFiles() []*SourceFile {
	return p.files
}

// Close releases every file's tree.
func (p *Program) Close() {
	for _, sf := range p.files {
		sf.Close()
	}
}
