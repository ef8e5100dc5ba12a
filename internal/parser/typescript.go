package parser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Grammar names reported in SourceFile.Language.
const (
	LangTypeScript = "typescript"
	LangTSX        = "tsx"
	LangJavaScript = "javascript"
)

var grammarByExt = map[string]string{
	".ts":  LangTypeScript,
	".mts": LangTypeScript,
	".cts": LangTypeScript,
	".tsx": LangTSX,
	".js":  LangJavaScript,
	".jsx": LangJavaScript,
	".mjs": LangJavaScript,
	".cjs": LangJavaScript,
}

// TSParser builds tree-sitter syntax trees for TypeScript and JavaScript
// sources. It is safe for concurrent use; every call creates its own
// tree-sitter parser.
type TSParser struct{}

func NewTSParser() *TSParser { return &TSParser{} }

func (p *TSParser) CanParse(ext string) bool {
	_, ok := grammarByExt[strings.ToLower(ext)]
	return ok
}

// IsDeclarationFile reports whether path is a .d.ts style declaration file.
func IsDeclarationFile(path string) bool {
	base := strings.ToLower(filepath.Base(path))
	return strings.HasSuffix(base, ".d.ts") ||
		strings.HasSuffix(base, ".d.mts") ||
		strings.HasSuffix(base, ".d.cts")
}

func (p *TSParser) Parse(ctx context.Context, filePath string) (*SourceFile, error) {
	src, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read source file: %w", err)
	}
	return p.ParseSource(ctx, filePath, src)
}

// ParseSource parses src as if it was loaded from name. The grammar is picked
// by the extension of name.
func (p *TSParser) ParseSource(ctx context.Context, name string, src []byte) (*SourceFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("parse canceled before start: %w", err)
	}

	lang, ok := grammarByExt[strings.ToLower(filepath.Ext(name))]
	if !ok {
		return nil, fmt.Errorf("unsupported source file: %s", name)
	}

	sp := sitter.NewParser()
	defer sp.Close()
	sp.SetLanguage(language(lang))

	tree, err := sp.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse failed: %w", err)
	}

	return &SourceFile{
		Name:     name,
		Source:   src,
		Language: lang,
		tree:     tree,
	}, nil
}

func language(lang string) *sitter.Language {
	switch lang {
	case LangTSX:
		return tsx.GetLanguage()
	case LangJavaScript:
		return javascript.GetLanguage()
	default:
		return typescript.GetLanguage()
	}
}
