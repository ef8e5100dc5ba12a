package graph

import (
	"context"
	"fmt"
	"sort"

	"i18n-analyzer/internal/project"
	"i18n-analyzer/internal/worker"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog/log"
)

// Usage is one occurrence of a translatable in a source file.
type Usage struct {
	PackageID      string
	File           string
	Line           int
	TranslatableID string
	DefaultText    string
}

// BuildUsages flattens translatables into usages. Translatables no package
// claims are assigned to the empty package id.
func BuildUsages(p *project.Project, translatables []*project.Translatable) []Usage {
	var usages []Usage
	for _, t := range translatables {
		pkgID := ""
		if pkg := p.PackageFor(t); pkg != nil {
			pkgID = pkg.ID
		}
		for _, e := range t.SrcElements {
			line := 0
			if e.Node() != nil {
				line = e.Line()
			}
			usages = append(usages, Usage{
				PackageID:      pkgID,
				File:           e.FileName,
				Line:           line,
				TranslatableID: t.ID,
				DefaultText:    t.DefaultText,
			})
		}
	}
	return usages
}

// UsageGraph stores which files and packages use which translatables.
//
//	(:Package)-[:CONTAINS]->(:File)-[:USES {line}]->(:Translatable)-[:BELONGS_TO]->(:Package)
type UsageGraph struct {
	driver    neo4j.DriverWithContext
	batchSize int
}

// NewUsageGraph creates a usage graph on an open driver.
func NewUsageGraph(driver neo4j.DriverWithContext, batchSize int) *UsageGraph {
	if batchSize <= 0 {
		batchSize = 500
	}
	return &UsageGraph{driver: driver, batchSize: batchSize}
}

// EnsureSchema creates uniqueness constraints.
func (g *UsageGraph) EnsureSchema(ctx context.Context) error {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	constraints := []string{
		"CREATE CONSTRAINT IF NOT EXISTS FOR (t:Translatable) REQUIRE t.id IS UNIQUE",
		"CREATE CONSTRAINT IF NOT EXISTS FOR (f:File) REQUIRE f.path IS UNIQUE",
		"CREATE CONSTRAINT IF NOT EXISTS FOR (p:Package) REQUIRE p.id IS UNIQUE",
	}

	for _, c := range constraints {
		if _, err := session.Run(ctx, c, nil); err != nil {
			return fmt.Errorf("create constraint: %w", err)
		}
	}

	log.Info().Msg("Graph schema ensured")
	return nil
}

// UpsertUsages merges usages into the graph in batches.
func (g *UsageGraph) UpsertUsages(ctx context.Context, usages []Usage) error {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	for i, batch := range worker.Batch(usages, g.batchSize) {
		rows := make([]map[string]any, len(batch))
		for j, u := range batch {
			rows[j] = map[string]any{
				"package": u.PackageID,
				"file":    u.File,
				"line":    u.Line,
				"id":      u.TranslatableID,
				"text":    u.DefaultText,
			}
		}

		_, err := session.Run(ctx, `
			UNWIND $rows AS row
			MERGE (p:Package {id: row.package})
			MERGE (f:File {path: row.file})
			MERGE (p)-[:CONTAINS]->(f)
			MERGE (t:Translatable {id: row.id})
			SET t.defaultText = row.text
			MERGE (f)-[u:USES]->(t)
			SET u.line = row.line
			MERGE (t)-[:BELONGS_TO]->(p)
		`, map[string]any{"rows": rows})
		if err != nil {
			return fmt.Errorf("upsert usages batch %d: %w", i+1, err)
		}
	}

	log.Info().Int("usages", len(usages)).Msg("Upserted usage graph")
	return nil
}

// UsageResult is one place a translatable is used.
type UsageResult struct {
	PackageID string
	File      string
	Line      int
}

// FindUsages returns every usage of the translatable id, ordered by file and
// line.
func (g *UsageGraph) FindUsages(ctx context.Context, id string) ([]UsageResult, error) {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (f:File)-[u:USES]->(t:Translatable {id: $id})
		OPTIONAL MATCH (p:Package)-[:CONTAINS]->(f)
		RETURN f.path AS file, u.line AS line, p.id AS package
		ORDER BY file, line
	`, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("query usages: %w", err)
	}

	var usages []UsageResult
	for result.Next(ctx) {
		record := result.Record()
		file, _ := record.Get("file")
		line, _ := record.Get("line")
		pkg, _ := record.Get("package")

		u := UsageResult{File: fmt.Sprintf("%v", file)}
		if n, ok := line.(int64); ok {
			u.Line = int(n)
		}
		if s, ok := pkg.(string); ok {
			u.PackageID = s
		}
		usages = append(usages, u)
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("iterate usages: %w", err)
	}
	return usages, nil
}

// SharedTranslatable is a translatable used from more than one package.
type SharedTranslatable struct {
	ID       string
	Packages []string
}

// SharedAcrossPackages lists translatables whose files belong to several
// packages.
func (g *UsageGraph) SharedAcrossPackages(ctx context.Context) ([]SharedTranslatable, error) {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (p:Package)-[:CONTAINS]->(:File)-[:USES]->(t:Translatable)
		WITH t, collect(DISTINCT p.id) AS packages
		WHERE size(packages) > 1
		RETURN t.id AS id, packages
		ORDER BY id
	`, nil)
	if err != nil {
		return nil, fmt.Errorf("query shared translatables: %w", err)
	}

	var shared []SharedTranslatable
	for result.Next(ctx) {
		record := result.Record()
		id, _ := record.Get("id")
		raw, _ := record.Get("packages")

		s := SharedTranslatable{ID: fmt.Sprintf("%v", id)}
		if list, ok := raw.([]any); ok {
			for _, p := range list {
				s.Packages = append(s.Packages, fmt.Sprintf("%v", p))
			}
		}
		sort.Strings(s.Packages)
		shared = append(shared, s)
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("iterate shared translatables: %w", err)
	}
	return shared, nil
}
