package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"i18n-analyzer/internal/analysis"
	"i18n-analyzer/internal/parser"

	"github.com/spf13/cobra"
)

func patternGenCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "pattern:gen FILE OFFSET",
		Short: "Print the pattern expression that matches the syntax node at a byte offset",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			offset, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid offset %q: %w", args[1], err)
			}
			ctx, cancel := setupContext()
			defer cancel()
			return runPatternGen(ctx, args[0], offset, cmd.OutOrStdout())
		},
	}
}

func runPatternGen(ctx context.Context, file string, offset int, out io.Writer) error {
	sf, err := parser.NewTSParser().Parse(ctx, file)
	if err != nil {
		return err
	}
	defer sf.Close()

	n := parser.NodeAt(sf.Root(), offset)
	if n == nil {
		return fmt.Errorf("offset %d is outside of %s", offset, file)
	}

	sa := analysis.New()
	fmt.Fprintf(out, "// %s at %d:%d\n", n.Kind(), n.Line(), n.Column()+1)
	fmt.Fprintln(out, sa.Factory().GenCode(n))

	if t := findEnclosingTranslatable(sa, n); t != nil {
		fmt.Fprintf(out, "// inside translatable %q: %q\n", t.IDOrEmpty(), t.DefaultText)
	}
	return nil
}

// findEnclosingTranslatable walks up from n to the nearest translatable.
func findEnclosingTranslatable(sa *analysis.StaticAnalysis, n *parser.Node) *analysis.TranslatableSrcElement {
	for cur, ok := n, true; ok; cur, ok = cur.Parent() {
		if t := sa.FindTranslatableAt(cur); t != nil {
			return t
		}
	}
	return nil
}
