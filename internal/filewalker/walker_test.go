package filewalker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("export {};\n"), 0o644))
}

func TestWalker_Walk(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src", "b.tsx"))
	writeFile(t, filepath.Join(root, "src", "a.ts"))
	writeFile(t, filepath.Join(root, "src", "types.d.ts"))
	writeFile(t, filepath.Join(root, "src", "legacy.js"))
	writeFile(t, filepath.Join(root, "README.md"))
	writeFile(t, filepath.Join(root, "node_modules", "dep", "index.ts"))
	writeFile(t, filepath.Join(root, ".cache", "x.ts"))
	writeFile(t, filepath.Join(root, "dist", "a.js"))

	entries, err := NewWalker("dist").Walk(root)
	require.NoError(t, err)

	var rel []string
	for _, e := range entries {
		r, err := filepath.Rel(root, e.Path)
		require.NoError(t, err)
		rel = append(rel, filepath.ToSlash(r))
		assert.NotNil(t, e.Parser)
	}
	assert.Equal(t, []string{"src/a.ts", "src/b.tsx", "src/legacy.js"}, rel)
}

func TestWalker_WalkRejectsFile(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "a.ts")
	writeFile(t, file)

	_, err := NewWalker().Walk(file)
	assert.Error(t, err)
}
