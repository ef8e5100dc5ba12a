package project

import (
	"os"
	"path/filepath"
	"testing"

	"i18n-analyzer/internal/analysis"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProject(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func elem(file, id, text string) *analysis.TranslatableSrcElement {
	e := &analysis.TranslatableSrcElement{FileName: file, DefaultText: text}
	if id != "" {
		e.ID = &id
	}
	return e
}

func TestFrom_JSON(t *testing.T) {
	path := writeProject(t, "i18n.json", `{
		"tsconfig": "./tsconfig.json",
		"packages": {
			"app": { "sourceFiles": ["src/**/*"] },
			"shared": { "priority": 200, "sourceFiles": ["src/shared/**/*.ts"] }
		},
		"backend": { "url": "postgres://db", "org": "acme", "project": "web", "version": "main" },
		"localExport": { "path": "./i18n" },
		"unknown": true
	}`)

	p, err := From(path)
	require.NoError(t, err)

	dir := filepath.Dir(path)
	assert.Equal(t, []string{filepath.Join(dir, "tsconfig.json")}, p.TSConfigPaths())

	pkgs := p.Packages()
	require.Len(t, pkgs, 2)
	assert.Equal(t, "shared", pkgs[0].ID)
	assert.Equal(t, 200, pkgs[0].Priority)
	assert.Equal(t, "app", pkgs[1].ID)
	assert.Equal(t, DefaultPriority, pkgs[1].Priority)

	require.NotNil(t, p.Config.LocalExport)
	assert.Equal(t, "./i18n", p.Config.LocalExport.Path)
	assert.Same(t, pkgs[1], p.Package("app"))
	assert.Nil(t, p.Package("missing"))
}

func TestFrom_YAMLTSConfigList(t *testing.T) {
	path := writeProject(t, "i18n.yaml", `
tsconfig:
  - a/tsconfig.json
  - b/tsconfig.json
packages:
  main:
    sourceFiles: ["**/*"]
`)
	p, err := From(path)
	require.NoError(t, err)
	dir := filepath.Dir(path)
	assert.Equal(t, []string{
		filepath.Join(dir, "a", "tsconfig.json"),
		filepath.Join(dir, "b", "tsconfig.json"),
	}, p.TSConfigPaths())
}

func TestFrom_Errors(t *testing.T) {
	_, err := From(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = From(writeProject(t, "i18n.json", `{"packages": {}}`))
	assert.ErrorContains(t, err, "tsconfig is missing")

	_, err = From(writeProject(t, "i18n.json", `{"tsconfig": {"a": 1}}`))
	assert.Error(t, err)
}

func TestPackageFor(t *testing.T) {
	dir := t.TempDir()
	prio := 200
	p := New(Config{
		TSConfig: StringList{"tsconfig.json"},
		Packages: map[string]PackageConfig{
			"app":    {SourceFiles: []string{"src/**/*"}},
			"shared": {Priority: &prio, SourceFiles: []string{"src/shared/**/*.ts"}},
		},
	}, dir)

	shared := filepath.Join(dir, "src", "shared", "util.ts")
	view := filepath.Join(dir, "src", "view.tsx")
	outside := filepath.Join(dir, "scripts", "x.ts")

	tests := []struct {
		name  string
		files []string
		want  string
	}{
		{"higher priority wins", []string{shared}, "shared"},
		{"all files must match", []string{shared, view}, "app"},
		{"no package", []string{outside}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &Translatable{ID: "x"}
			for _, f := range tt.files {
				tr.SrcElements = append(tr.SrcElements, elem(f, "x", "X"))
			}
			pkg := p.PackageFor(tr)
			if tt.want == "" {
				assert.Nil(t, pkg)
				return
			}
			require.NotNil(t, pkg)
			assert.Equal(t, tt.want, pkg.ID)
		})
	}
}

func TestResolveBackend(t *testing.T) {
	p := New(Config{Backend: &BackendConfig{URL: "postgres://db", Org: "acme", Project: "web", Version: "main"}}, t.TempDir())

	b, err := p.ResolveBackend(BackendConfig{Version: "next"})
	require.NoError(t, err)
	assert.Equal(t, "postgres://db", b.URL)
	assert.Equal(t, VersionRef{Org: "acme", Project: "web", Version: "next"}, b.Ref)
	assert.Equal(t, "orgs/acme/projects/web/versions/next", b.Ref.String())

	bare := New(Config{}, t.TempDir())
	_, err = bare.ResolveBackend(BackendConfig{URL: "postgres://db"})
	assert.EqualError(t, err, "Arg 'backendOrg' is missing!")
}

func TestTranslatables_List(t *testing.T) {
	var ts Translatables
	ts.Add(
		elem("a.ts", "id1", "Hello"),
		elem("a.ts", "", "No id"),
		elem("b.ts", "id2", "Bye"),
		elem("c.ts", "id1", "Hello again"),
	)

	list := ts.List()
	require.Len(t, list, 2)
	assert.Equal(t, "id1", list[0].ID)
	assert.Equal(t, "Hello", list[0].DefaultText)
	assert.Len(t, list[0].SrcElements, 2)
	assert.Equal(t, "id2", list[1].ID)

	assert.Len(t, ts.Elements(), 4)
	assert.Equal(t, "Bye", ts.Find("id2").DefaultText)
	assert.Nil(t, ts.Find("nope"))
}

func TestGroupDuplicates(t *testing.T) {
	desc := "button"
	withDesc := elem("c.ts", "id3", "Save")
	withDesc.Description = &desc

	groups := GroupDuplicates([]*analysis.TranslatableSrcElement{
		elem("a.ts", "", "Save"),
		elem("b.ts", "id2", "Save"),
		withDesc,
		elem("d.ts", "id4", "Cancel"),
	})

	require.Len(t, groups, 3)
	assert.Len(t, groups[0].Elements, 2)
	assert.Equal(t, "id2", groups[0].CanonicalID())
	assert.Len(t, groups[1].Elements, 1)
	assert.Equal(t, "id3", groups[1].CanonicalID())
	assert.Equal(t, "id4", groups[2].CanonicalID())
}
