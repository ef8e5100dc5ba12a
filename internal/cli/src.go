package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"i18n-analyzer/internal/analysis"
	"i18n-analyzer/internal/cache"
	"i18n-analyzer/internal/editor"
	"i18n-analyzer/internal/gitdiff"
	"i18n-analyzer/internal/interpolation"
	"i18n-analyzer/internal/parser"
	"i18n-analyzer/internal/project"
	"i18n-analyzer/internal/similarity"
	"i18n-analyzer/internal/store"
	"i18n-analyzer/internal/textutil"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type extractOptions struct {
	project string
	format  string
	out     string
}

func extractCmd(a *app) *cobra.Command {
	var opts extractOptions
	cmd := &cobra.Command{
		Use:   "src:extract",
		Short: "List every translatable found in the project sources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := setupContext()
			defer cancel()
			return runExtract(ctx, a, opts, cmd.OutOrStdout())
		},
	}
	addProjectFlag(cmd, &opts.project)
	cmd.Flags().StringVar(&opts.format, "format", "json", "Output format: json or tsv")
	cmd.Flags().StringVar(&opts.out, "out", "-", "Output file, - for stdout")
	return cmd
}

func runExtract(ctx context.Context, a *app, opts extractOptions, out io.Writer) error {
	var write func(io.Writer, []store.ExtractRecord) error
	switch opts.format {
	case "json":
		write = store.ExportJSON
	case "tsv":
		write = store.ExportTSV
	default:
		return fmt.Errorf("unknown format %q, expected json or tsv", opts.format)
	}

	p, err := project.From(opts.project)
	if err != nil {
		return err
	}

	ex, err := extract(ctx, a.cfg, p, analysis.New(), nil)
	if err != nil {
		return err
	}
	defer ex.Close()

	elems := ex.translatables.Elements()
	records := make([]store.ExtractRecord, 0, len(elems))
	for _, elem := range elems {
		r := store.ExtractRecord{
			ID:          elem.IDOrEmpty(),
			DefaultText: elem.DefaultText,
			Description: elem.DescriptionOrEmpty(),
			Package:     packageOf(p, elem),
			File:        relPath(p.BaseDir, elem.FileName),
			Line:        elem.Line(),
		}
		for _, e := range elem.Errors {
			r.Errors = append(r.Errors, e.Message)
		}
		records = append(records, r)
	}

	if opts.out != "" && opts.out != "-" {
		f, err := os.Create(opts.out)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		out = f
	}
	if err := write(out, records); err != nil {
		return err
	}

	log.Info().Int("translatables", len(records)).Str("format", opts.format).Msg("Extraction complete")
	return nil
}

func relPath(base, path string) string {
	if rel, err := filepath.Rel(base, path); err == nil {
		return filepath.ToSlash(rel)
	}
	return path
}

type checkOptions struct {
	backendFlags
	backendIDs   bool
	fix          bool
	untranslated bool
	changedSince string
}

func checkCmd(a *app) *cobra.Command {
	var opts checkOptions
	cmd := &cobra.Command{
		Use:   "src:check",
		Short: "Report invalid translatables and, optionally, untranslated JSX text",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := setupContext()
			defer cancel()
			return runCheck(ctx, a, opts, cmd.OutOrStdout())
		},
	}
	addBackendFlags(cmd, &opts.backendFlags)
	cmd.Flags().BoolVar(&opts.backendIDs, "backend-ids", false, "Avoid ids already stored in the translation store when generating new ones")
	cmd.Flags().BoolVar(&opts.fix, "fix", false, "Apply the available fixes to the source files")
	cmd.Flags().BoolVar(&opts.untranslated, "untranslated", false, "Also report JSX text that is not wrapped in a translatable")
	cmd.Flags().StringVar(&opts.changedSince, "changed-since", "", "Only check files changed since this git ref")
	return cmd
}

func runCheck(ctx context.Context, a *app, opts checkOptions, out io.Writer) error {
	p, err := project.From(opts.project)
	if err != nil {
		return err
	}

	var only []string
	if opts.changedSince != "" {
		only, err = gitdiff.ChangedFiles(ctx, p.BaseDir, opts.changedSince, "")
		if err != nil {
			return err
		}
		if only == nil {
			only = []string{}
		}
	}

	registry := cache.NewIDRegistry()
	if opts.backendIDs {
		s, err := a.openBackend(ctx, opts.backendFlags)
		if err != nil {
			return err
		}
		err = registry.Preload(ctx, s.store, s.backend.Ref)
		s.Close()
		if err != nil {
			return err
		}
	}
	sa := analysis.New(analysis.WithIDGenerator(registry.UniqueIDs(analysis.RandomIDs{})))

	ex, err := extract(ctx, a.cfg, p, sa, only)
	if err != nil {
		return err
	}
	defer ex.Close()
	registry.AddElements(ex.translatables.Elements())

	ed := editor.New()
	problems, fixed := 0, 0
	report := func(file string, at, replace *parser.Node, message string, fix func() string) {
		problems++
		fmt.Fprintf(out, "%s:%d:%d: %s\n", relPath(p.BaseDir, file), at.Line(), at.Column()+1, message)
		if opts.fix && fix != nil {
			ed.Open(file).Replace(replace.Start(), replace.End(), fix())
			fixed++
		}
	}

	for _, elem := range ex.translatables.Elements() {
		for _, e := range elem.Errors {
			report(elem.FileName, e.Target(elem), elem.Node(), "Invalid translatable: "+e.Message, e.GetFixedSource)
		}
	}

	if opts.untranslated {
		finder := sa.NewUntranslatedFinder(analysis.DefaultUntranslatedOptions())
		seen := make(map[string]bool)
		for _, prog := range ex.programs {
			for _, sf := range prog.SourceFiles() {
				if seen[sf.Name] {
					continue
				}
				seen[sf.Name] = true
				for _, e := range finder.FindInFile(sf) {
					report(sf.Name, e.Node, e.Node, e.Message, e.GetFixedSource)
				}
			}
		}
	}

	if fixed > 0 {
		if err := ed.ApplyEdits(); err != nil {
			return err
		}
		if err := ed.WriteChanges(); err != nil {
			return err
		}
	}

	log.Info().Int("problems", problems).Int("fixed", fixed).Msg("Check complete")
	if remaining := problems - fixed; remaining > 0 {
		return fmt.Errorf("found %d problems", remaining)
	}
	return nil
}

type mergeOptions struct {
	project string
	dryRun  bool
}

func mergeDuplicatesCmd(a *app) *cobra.Command {
	var opts mergeOptions
	cmd := &cobra.Command{
		Use:   "src:merge-duplicates",
		Short: "Merge translatables with the same default text, description and parameters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := setupContext()
			defer cancel()
			return runMergeDuplicates(ctx, a, opts, cmd.OutOrStdout())
		},
	}
	addProjectFlag(cmd, &opts.project)
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Print a diff instead of writing the files")
	return cmd
}

func runMergeDuplicates(ctx context.Context, a *app, opts mergeOptions, out io.Writer) error {
	p, err := project.From(opts.project)
	if err != nil {
		return err
	}

	ex, err := extract(ctx, a.cfg, p, analysis.New(), nil)
	if err != nil {
		return err
	}
	defer ex.Close()

	// Elements with errors have no reliable text to compare.
	var valid []*analysis.TranslatableSrcElement
	for _, e := range ex.translatables.Elements() {
		if len(e.Errors) == 0 {
			valid = append(valid, e)
		}
	}

	ed := editor.New()
	deletable, edits := 0, 0
	for _, g := range project.GroupDuplicates(valid) {
		newID := g.CanonicalID()
		if len(g.Elements) < 2 || newID == "" {
			continue
		}
		log.Info().Str("key", textutil.Truncate(g.Key, 80)).Int("uses", len(g.Elements)).Str("id", newID).Msg("Merging duplicates")

		ids := make(map[string]bool)
		for _, e := range g.Elements {
			ids[e.IDOrEmpty()] = true
			if e.IDOrEmpty() == newID {
				continue
			}
			src, err := e.GetSource(analysis.SourceOverrides{ID: newID})
			if err != nil {
				log.Warn().Err(err).Str("file", e.FileName).Int("line", e.Line()).Msg("Cannot rewrite translatable")
				continue
			}
			ed.Open(e.FileName).Replace(e.Range.Pos, e.Range.End, src)
			edits++
		}
		deletable += len(ids) - 1
	}

	if err := ed.ApplyEdits(); err != nil {
		return err
	}

	log.Info().Int("merged_ids", deletable).Int("edits", edits).Msg("Duplicates merged")
	if opts.dryRun {
		fmt.Fprint(out, ed.Diff())
		return nil
	}
	return ed.WriteChanges()
}

type similarOptions struct {
	project   string
	threshold float64
	persist   bool
	query     string
	limit     int
}

func findSimilarCmd(a *app) *cobra.Command {
	var opts similarOptions
	cmd := &cobra.Command{
		Use:   "src:find-similar",
		Short: "Report translatables whose default texts are near duplicates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := setupContext()
			defer cancel()
			return runFindSimilar(ctx, a, opts, cmd.OutOrStdout())
		},
	}
	addProjectFlag(cmd, &opts.project)
	cmd.Flags().Float64Var(&opts.threshold, "threshold", 0, "Cosine similarity threshold; defaults to SIMILARITY_THRESHOLD")
	cmd.Flags().BoolVar(&opts.persist, "persist", false, "Store the embeddings in PostgreSQL (pgvector)")
	cmd.Flags().StringVar(&opts.query, "query", "", "Search the stored embeddings for texts similar to this one")
	cmd.Flags().IntVar(&opts.limit, "limit", 10, "Number of results for --query")
	return cmd
}

func runFindSimilar(ctx context.Context, a *app, opts similarOptions, out io.Writer) error {
	p, err := project.From(opts.project)
	if err != nil {
		return err
	}

	threshold := opts.threshold
	if threshold == 0 {
		threshold = a.cfg.SimilarityThreshold
	}

	var embedder *similarity.EmbeddingClient
	if a.cfg.EmbeddingAPIKey != "" {
		embedder = similarity.NewEmbeddingClient(a.cfg.EmbeddingAPIKey, a.cfg.EmbeddingModel, a.cfg.EmbeddingBaseURL, a.cfg.EmbeddingDimensions)
	} else {
		log.Warn().Msg("EMBEDDING_API_KEY is not set, only texts equal after normalization are reported")
	}

	ex, err := extract(ctx, a.cfg, p, analysis.New(), nil)
	if err != nil {
		return err
	}
	defer ex.Close()
	translatables := ex.translatables.List()

	var emb similarity.Embedder
	if embedder != nil {
		emb = embedder
	}
	pairs, err := similarity.NewFinder(emb, threshold, a.cfg.BatchSize).Find(ctx, translatables)
	if err != nil {
		return err
	}
	for _, pair := range pairs {
		note := ""
		if !pair.SamePlaceholders {
			note = "  (placeholders differ)"
		}
		fmt.Fprintf(out, "%.3f  %s %q  ~  %s %q%s\n", pair.Score, pair.A.ID, pair.A.DefaultText, pair.B.ID, pair.B.DefaultText, note)
	}

	if !opts.persist && opts.query == "" {
		return nil
	}
	if embedder == nil {
		return fmt.Errorf("--persist and --query need EMBEDDING_API_KEY")
	}

	pool, err := connectPostgres(ctx, a.cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	vs := similarity.NewVectorStore(pool, a.cfg.EmbeddingDimensions)
	if err := vs.EnsureSchema(ctx); err != nil {
		return err
	}

	if opts.persist {
		texts := make([]string, len(translatables))
		for i, t := range translatables {
			texts[i] = interpolation.Normalize(t.DefaultText)
		}
		vectors, err := embedder.EmbedBatch(ctx, texts, a.cfg.BatchSize)
		if err != nil {
			return fmt.Errorf("embed default texts: %w", err)
		}
		if err := vs.Store(ctx, similarity.Records(translatables, vectors)); err != nil {
			return err
		}
	}

	if opts.query != "" {
		vectors, err := embedder.Embed(ctx, []string{interpolation.Normalize(opts.query)})
		if err != nil {
			return fmt.Errorf("embed query: %w", err)
		}
		results, err := vs.Search(ctx, vectors[0], opts.limit)
		if err != nil {
			return err
		}
		for _, r := range results {
			fmt.Fprintf(out, "%.3f  %s %q\n", r.Score, r.CodeID, r.Text)
		}
	}
	return nil
}
