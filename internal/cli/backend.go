package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"i18n-analyzer/internal/analysis"
	"i18n-analyzer/internal/editor"
	"i18n-analyzer/internal/project"
	"i18n-analyzer/internal/store"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

type backendFlags struct {
	project string
	url     string
	org     string
	proj    string
	version string
}

func addBackendFlags(cmd *cobra.Command, f *backendFlags) {
	addProjectFlag(cmd, &f.project)
	cmd.Flags().StringVarP(&f.url, "backend-url", "b", "", "PostgreSQL URL of the translation store; defaults to DATABASE_URL")
	cmd.Flags().StringVar(&f.org, "backend-org", "", "Organization id")
	cmd.Flags().StringVar(&f.proj, "backend-project", "", "Project id")
	cmd.Flags().StringVar(&f.version, "backend-version", "", "Version id")
}

// backendSession is an open connection to the translation store of a
// project.
type backendSession struct {
	project *project.Project
	backend project.Backend
	store   *store.TranslationStore
	pool    *pgxpool.Pool
}

func (s *backendSession) Close() { s.pool.Close() }

// openBackend resolves the backend from flags, the project file and
// DATABASE_URL, in that order, and connects to it.
func (a *app) openBackend(ctx context.Context, f backendFlags) (*backendSession, error) {
	p, err := project.From(f.project)
	if err != nil {
		return nil, err
	}

	overrides := project.BackendConfig{URL: f.url, Org: f.org, Project: f.proj, Version: f.version}
	if overrides.URL == "" && (p.Config.Backend == nil || p.Config.Backend.URL == "") {
		overrides.URL = a.cfg.DatabaseURL
	}
	backend, err := p.ResolveBackend(overrides)
	if err != nil {
		return nil, err
	}

	pool, err := connectPostgres(ctx, backend.URL)
	if err != nil {
		return nil, err
	}
	st := store.NewTranslationStore(pool)
	if err := st.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &backendSession{project: p, backend: backend, store: st, pool: pool}, nil
}

// languageName returns the English name of a language code, or the code
// itself when it is unknown.
func languageName(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return code
}

type syncOptions struct {
	backendFlags
	resync bool
}

func syncSrcCmd(a *app) *cobra.Command {
	var opts syncOptions
	cmd := &cobra.Command{
		Use:   "backend:sync-src",
		Short: "Extract all translatables from the source code and synchronize them with the translation store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := setupContext()
			defer cancel()
			return runSyncSrc(ctx, a, opts, cmd.OutOrStdout())
		},
	}
	addBackendFlags(cmd, &opts.backendFlags)
	cmd.Flags().BoolVar(&opts.resync, "resync-after-src-update", false,
		"Synchronize again after the default texts in the source code were updated, so the store knows the update was committed")
	return cmd
}

func runSyncSrc(ctx context.Context, a *app, opts syncOptions, out io.Writer) error {
	s, err := a.openBackend(ctx, opts.backendFlags)
	if err != nil {
		return err
	}
	defer s.Close()

	log.Info().Str("target", s.backend.Ref.String()).Msg("Will upload")

	lang := a.cfg.DefaultLanguage
	if err := s.store.EnsureVersion(ctx, s.backend.Ref, store.Language{LanguageCode: lang, Name: languageName(lang)}); err != nil {
		return err
	}

	ex, err := extract(ctx, a.cfg, s.project, analysis.New(), nil)
	if err != nil {
		return err
	}
	defer ex.Close()

	translatables := ex.translatables.List()
	if err := checkSyncable(translatables); err != nil {
		return err
	}

	byID := make(map[string]*project.Translatable)
	update := store.Update{DefaultLanguageCode: lang}
	index := make(map[string]int)
	for _, t := range translatables {
		pkg := s.project.PackageFor(t)
		if pkg == nil {
			log.Debug().Str("id", t.ID).Msg("Translatable belongs to no package, skipping")
			continue
		}
		byID[t.ID] = t
		index[t.ID] = len(update.Translatables)
		update.Translatables = append(update.Translatables, store.TranslatableUpdate{
			PackageID:     pkg.ID,
			CodeID:        t.ID,
			DefaultFormat: t.DefaultText,
			Description:   t.Description,
		})
	}

	sync := func() (*store.SyncResult, error) {
		log.Info().Int("translatables", len(update.Translatables)).Msg("Uploading")
		result, err := s.store.Sync(ctx, s.backend.Ref, update)
		if err != nil {
			return nil, err
		}
		return result, printJSON(out, result)
	}

	result, err := sync()
	if err != nil {
		return err
	}

	ed := editor.New()
	hasChanges := false
	for _, u := range result.Updated {
		if u.DefaultFormatUpdate.Kind != store.KindShouldUpdateSource {
			continue
		}
		t := byID[u.CodeID]
		if t == nil {
			continue
		}
		suggested := u.DefaultFormatUpdate.SuggestedDefaultFormat
		for _, e := range t.SrcElements {
			src, err := e.GetSource(analysis.SourceOverrides{DefaultText: suggested})
			if err != nil {
				log.Warn().Err(err).Str("file", e.FileName).Int("line", e.Line()).Msg("Cannot rewrite translatable")
				continue
			}
			ed.Open(e.FileName).Replace(e.Range.Pos, e.Range.End, src)
			hasChanges = true
		}
		log.Info().Str("id", t.ID).Str("current", t.DefaultText).Str("suggested", suggested).Msg("Updating default text in source")
		t.DefaultText = suggested
		update.Translatables[index[t.ID]].DefaultFormat = suggested
	}

	if hasChanges {
		log.Info().Msg("Applying source updates")
		if err := ed.ApplyEdits(); err != nil {
			return err
		}
		if err := ed.WriteChanges(); err != nil {
			return err
		}

		if opts.resync {
			if _, err := sync(); err != nil {
				return err
			}
		} else {
			log.Info().Msg("Run the sync again after committing the source update, or use --resync-after-src-update")
		}
	}

	log.Info().Msg("Synchronized")

	if le := s.project.Config.LocalExport; le != nil && le.Path != "" {
		path := le.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(s.project.BaseDir, path)
		}
		log.Info().Str("path", path).Msg("Saving current translations")
		exp, err := s.store.Export(ctx, s.backend.Ref)
		if err != nil {
			return err
		}
		return store.WriteExport(exp, path, store.ModeDir)
	}
	return nil
}

// checkSyncable rejects translatables with invalid source elements. Their
// default text is unreliable, and leaving them out would mark them stale.
func checkSyncable(translatables []*project.Translatable) error {
	invalid := 0
	for _, t := range translatables {
		for _, e := range t.SrcElements {
			if len(e.Errors) == 0 {
				continue
			}
			invalid++
			log.Warn().Str("id", t.ID).Str("file", e.FileName).Int("line", e.Line()).
				Str("error", e.Errors[0].Message).Msg("Invalid translatable")
			break
		}
	}
	if invalid > 0 {
		return fmt.Errorf("%d translatables are invalid, fix them before syncing (see src:check)", invalid)
	}
	return nil
}

func printJSON(out io.Writer, v any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "    ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	return nil
}

type exportOptions struct {
	backendFlags
	out  string
	mode string
}

func exportCmd(a *app) *cobra.Command {
	var opts exportOptions
	cmd := &cobra.Command{
		Use:   "backend:export",
		Short: "Export a version to a JSON file or a directory of per-language files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := setupContext()
			defer cancel()
			return runExport(ctx, a, opts)
		},
	}
	addBackendFlags(cmd, &opts.backendFlags)
	cmd.Flags().StringVar(&opts.out, "out", "", "Output file (file mode) or directory (dir mode)")
	cmd.Flags().StringVar(&opts.mode, "mode", string(store.ModeFile), "Export mode: file or dir")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func runExport(ctx context.Context, a *app, opts exportOptions) error {
	mode := store.ExportMode(opts.mode)
	if mode != store.ModeFile && mode != store.ModeDir {
		return fmt.Errorf("unknown export mode %q, expected file or dir", opts.mode)
	}

	s, err := a.openBackend(ctx, opts.backendFlags)
	if err != nil {
		return err
	}
	defer s.Close()

	exp, err := s.store.Export(ctx, s.backend.Ref)
	if err != nil {
		return err
	}
	return store.WriteExport(exp, opts.out, mode)
}

func addLanguageCmd(a *app) *cobra.Command {
	var opts backendFlags
	cmd := &cobra.Command{
		Use:   "backend:add-language CODE [NAME]",
		Short: "Add a language to a version",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := setupContext()
			defer cancel()

			lang := store.Language{LanguageCode: args[0], Name: languageName(args[0])}
			if len(args) == 2 {
				lang.Name = args[1]
			}

			s, err := a.openBackend(ctx, opts)
			if err != nil {
				return err
			}
			defer s.Close()
			return s.store.AddLanguage(ctx, s.backend.Ref, lang)
		},
	}
	addBackendFlags(cmd, &opts)
	return cmd
}

func setTranslationCmd(a *app) *cobra.Command {
	var opts backendFlags
	cmd := &cobra.Command{
		Use:   "backend:set-translation ID LANGUAGE TEXT",
		Short: "Accept a translation of a translatable",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := setupContext()
			defer cancel()

			s, err := a.openBackend(ctx, opts)
			if err != nil {
				return err
			}
			defer s.Close()
			return s.store.SetTranslation(ctx, s.backend.Ref, args[0], args[1], args[2])
		},
	}
	addBackendFlags(cmd, &opts)
	return cmd
}
