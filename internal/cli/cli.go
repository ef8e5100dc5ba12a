package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"i18n-analyzer/internal/analysis"
	"i18n-analyzer/internal/config"
	"i18n-analyzer/internal/gitdiff"
	"i18n-analyzer/internal/parser"
	"i18n-analyzer/internal/program"
	"i18n-analyzer/internal/project"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// app holds what every command shares once flags are parsed.
type app struct {
	cfg      *config.Config
	logLevel string
}

// Execute runs the CLI application.
func Execute() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:          "i18n",
		Short:        "Static analysis and synchronization of translatable texts",
		Long:         "Finds translatable calls and <TransMsg> elements in TypeScript sources, checks and fixes them, and keeps a translation store in sync.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides LOG_LEVEL")

	rootCmd.AddCommand(extractCmd(a))
	rootCmd.AddCommand(checkCmd(a))
	rootCmd.AddCommand(mergeDuplicatesCmd(a))
	rootCmd.AddCommand(findSimilarCmd(a))
	rootCmd.AddCommand(syncSrcCmd(a))
	rootCmd.AddCommand(exportCmd(a))
	rootCmd.AddCommand(addLanguageCmd(a))
	rootCmd.AddCommand(setTranslationCmd(a))
	rootCmd.AddCommand(graphIngestCmd(a))
	rootCmd.AddCommand(graphUsagesCmd(a))
	rootCmd.AddCommand(patternGenCmd(a))

	return rootCmd
}

func (a *app) init() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := cfg.LogLevel
	if a.logLevel != "" {
		level = a.logLevel
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zerolog.SetGlobalLevel(lvl)
	return nil
}

// setupContext creates a cancellable context with signal handling.
func setupContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
			log.Warn().Msg("Received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// connectPostgres opens and pings a pool.
func connectPostgres(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect PostgreSQL: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping PostgreSQL: %w", err)
	}
	log.Info().Msg("Connected to PostgreSQL")
	return pool, nil
}

// connectNeo4j opens a driver and verifies connectivity.
func connectNeo4j(ctx context.Context, cfg *config.Config) (neo4j.DriverWithContext, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.Neo4jURI, neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""))
	if err != nil {
		return nil, fmt.Errorf("connect Neo4j: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("verify Neo4j connectivity: %w", err)
	}
	log.Info().Msg("Connected to Neo4j")
	return driver, nil
}

// extraction is the result of running the extractor over every tsconfig of
// a project. The programs stay open so that elements can still render
// source.
type extraction struct {
	translatables *project.Translatables
	programs      []*parser.Program
}

func (e *extraction) Close() {
	for _, p := range e.programs {
		p.Close()
	}
}

// extract loads each tsconfig of p and collects its translatables. A file
// reachable from several tsconfigs contributes its translatables once. A
// non-nil only restricts the parsed files to that set.
func extract(ctx context.Context, cfg *config.Config, p *project.Project, sa *analysis.StaticAnalysis, only []string) (*extraction, error) {
	ex := &extraction{translatables: &project.Translatables{}}
	seen := make(map[string]bool)

	for _, tsconfig := range p.TSConfigPaths() {
		log.Info().Str("tsconfig", tsconfig).Msg("Searching for translatables")

		prog, err := loadProgram(ctx, tsconfig, cfg.WorkerCount, only)
		if err != nil {
			ex.Close()
			return nil, err
		}
		ex.programs = append(ex.programs, prog)

		found := 0
		for _, elem := range sa.FindTranslatablesInProgram(prog) {
			key := fmt.Sprintf("%s:%d", elem.FileName, elem.Range.Pos)
			if seen[key] {
				continue
			}
			seen[key] = true
			ex.translatables.Add(elem)
			found++
		}
		log.Info().Int("translatables", found).Msg("Found translatables")
	}
	return ex, nil
}

func loadProgram(ctx context.Context, tsconfig string, workers int, only []string) (*parser.Program, error) {
	if only == nil {
		prog, err := program.Load(ctx, tsconfig, workers)
		if err != nil {
			return nil, fmt.Errorf("load program %s: %w", tsconfig, err)
		}
		return prog, nil
	}

	paths, err := program.Resolve(tsconfig)
	if err != nil {
		return nil, fmt.Errorf("resolve program %s: %w", tsconfig, err)
	}
	paths = gitdiff.Filter(paths, only)
	log.Debug().Str("tsconfig", tsconfig).Int("files", len(paths)).Msg("Restricted program to changed files")

	prog, err := program.Parse(ctx, paths, workers)
	if err != nil {
		return nil, fmt.Errorf("parse program %s: %w", tsconfig, err)
	}
	return prog, nil
}

// packageOf returns the id of the package holding a single element, or "".
func packageOf(p *project.Project, elem *analysis.TranslatableSrcElement) string {
	pkg := p.PackageFor(&project.Translatable{SrcElements: []*analysis.TranslatableSrcElement{elem}})
	if pkg == nil {
		return ""
	}
	return pkg.ID
}

func addProjectFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVarP(target, "project", "p", "i18n.json", "The path to the project json file")
}
