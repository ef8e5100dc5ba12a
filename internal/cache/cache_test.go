package cache

import (
	"context"
	"errors"
	"sync"
	"testing"

	"i18n-analyzer/internal/analysis"
	"i18n-analyzer/internal/project"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	ids []string
	err error
}

func (f fakeSource) KnownIDs(context.Context, project.VersionRef) ([]string, error) {
	return f.ids, f.err
}

func sequence(ids ...string) analysis.IDGenerator {
	i := 0
	return analysis.IDGeneratorFunc(func() string {
		id := ids[i%len(ids)]
		i++
		return id
	})
}

func TestIDRegistry_Preload(t *testing.T) {
	r := NewIDRegistry()
	require.NoError(t, r.Preload(context.Background(), fakeSource{ids: []string{"a", "b"}}, project.VersionRef{}))
	assert.True(t, r.Has("a"))
	assert.Equal(t, 2, r.Len())

	err := r.Preload(context.Background(), fakeSource{err: errors.New("boom")}, project.VersionRef{})
	assert.ErrorContains(t, err, "boom")
}

func TestIDRegistry_AddElements(t *testing.T) {
	id := "abc"
	r := NewIDRegistry()
	r.AddElements([]*analysis.TranslatableSrcElement{{ID: &id}, {}})
	assert.True(t, r.Has("abc"))
	assert.False(t, r.Has(""))
	assert.Equal(t, 1, r.Len())
}

func TestIDRegistry_UniqueIDsSkipsTaken(t *testing.T) {
	r := NewIDRegistry()
	r.Add("taken1", "taken2")
	gen := r.UniqueIDs(sequence("taken1", "taken2", "fresh1", "fresh1", "fresh2"))

	assert.Equal(t, "fresh1", gen.NewID())
	assert.Equal(t, "fresh2", gen.NewID())
	assert.True(t, r.Has("fresh1"))
	assert.True(t, r.Has("fresh2"))
}

func TestIDRegistry_UniqueIDsGivesUp(t *testing.T) {
	r := NewIDRegistry()
	r.Add("same")
	assert.Equal(t, "same", r.UniqueIDs(sequence("same")).NewID())
}

func TestIDRegistry_ConcurrentRandomIDs(t *testing.T) {
	r := NewIDRegistry()
	gen := r.UniqueIDs(analysis.RandomIDs{})

	var wg sync.WaitGroup
	ids := make([]string, 200)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i] = gen.NewID()
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for _, id := range ids {
		assert.True(t, analysis.IsGeneratedIDShape(id))
		assert.False(t, seen[id])
		seen[id] = true
	}
	assert.Equal(t, len(ids), r.Len())
}
