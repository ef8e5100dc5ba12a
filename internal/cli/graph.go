package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"i18n-analyzer/internal/analysis"
	"i18n-analyzer/internal/graph"
	"i18n-analyzer/internal/project"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func graphIngestCmd(a *app) *cobra.Command {
	var projectPath string
	cmd := &cobra.Command{
		Use:   "graph:ingest",
		Short: "Load which files and packages use which translatables into Neo4j",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := setupContext()
			defer cancel()
			return runGraphIngest(ctx, a, projectPath)
		},
	}
	addProjectFlag(cmd, &projectPath)
	return cmd
}

func runGraphIngest(ctx context.Context, a *app, projectPath string) error {
	p, err := project.From(projectPath)
	if err != nil {
		return err
	}

	ex, err := extract(ctx, a.cfg, p, analysis.New(), nil)
	if err != nil {
		return err
	}
	defer ex.Close()
	usages := graph.BuildUsages(p, ex.translatables.List())

	driver, err := connectNeo4j(ctx, a.cfg)
	if err != nil {
		return err
	}
	defer driver.Close(ctx)

	g := graph.NewUsageGraph(driver, a.cfg.BatchSize)
	if err := g.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure graph schema: %w", err)
	}
	if err := g.UpsertUsages(ctx, usages); err != nil {
		return err
	}

	log.Info().Int("usages", len(usages)).Msg("Graph ingestion complete")
	return nil
}

func graphUsagesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "graph:usages [ID]",
		Short: "Show where a translatable is used, or list translatables shared across packages",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := setupContext()
			defer cancel()
			id := ""
			if len(args) == 1 {
				id = args[0]
			}
			return runGraphUsages(ctx, a, id, cmd.OutOrStdout())
		},
	}
}

func runGraphUsages(ctx context.Context, a *app, id string, out io.Writer) error {
	driver, err := connectNeo4j(ctx, a.cfg)
	if err != nil {
		return err
	}
	defer driver.Close(ctx)

	g := graph.NewUsageGraph(driver, a.cfg.BatchSize)

	if id == "" {
		shared, err := g.SharedAcrossPackages(ctx)
		if err != nil {
			return err
		}
		for _, s := range shared {
			fmt.Fprintf(out, "%s\t%s\n", s.ID, strings.Join(s.Packages, ", "))
		}
		return nil
	}

	usages, err := g.FindUsages(ctx, id)
	if err != nil {
		return err
	}
	if len(usages) == 0 {
		return fmt.Errorf("no usages of %q in the graph", id)
	}
	for _, u := range usages {
		pkg := u.PackageID
		if pkg == "" {
			pkg = "-"
		}
		fmt.Fprintf(out, "%s:%d\t%s\n", u.File, u.Line, pkg)
	}
	return nil
}
