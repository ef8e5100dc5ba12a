package similarity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"i18n-analyzer/internal/analysis"
	"i18n-analyzer/internal/project"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEmbeddingServer(t *testing.T, calls *int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req embeddingRequest
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			return
		}
		assert.Equal(t, "test-model", req.Model)

		type item struct {
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		}
		var data []item
		// Reverse order to check that results are placed by index.
		for i := len(req.Input) - 1; i >= 0; i-- {
			data = append(data, item{Embedding: []float32{float32(len(req.Input[i])), 1}, Index: i})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": data, "usage": map[string]int{"total_tokens": 3}})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestEmbeddingClient_EmbedBatch(t *testing.T) {
	calls := 0
	srv := newEmbeddingServer(t, &calls)
	c := NewEmbeddingClient("secret", "test-model", srv.URL+"/", 0)

	vectors, err := c.EmbedBatch(context.Background(), []string{"a", "bb", "ccc"}, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, [][]float32{{1, 1}, {2, 1}, {3, 1}}, vectors)
}

func TestEmbeddingClient_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewEmbeddingClient("", "m", srv.URL, 0).Embed(context.Background(), []string{"x"})
	assert.ErrorContains(t, err, "status 429")
}

func TestEmbeddingClient_Empty(t *testing.T) {
	vectors, err := NewEmbeddingClient("", "m", "http://unused", 0).Embed(context.Background(), nil)
	assert.NoError(t, err)
	assert.Nil(t, vectors)
}

type fakeEmbedder map[string][]float32

func (f fakeEmbedder) EmbedBatch(_ context.Context, texts []string, _ int) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = f[t]
	}
	return out, nil
}

func tr(id, text string) *project.Translatable {
	return &project.Translatable{
		ID:          id,
		DefaultText: text,
		SrcElements: []*analysis.TranslatableSrcElement{{FileName: id + ".ts"}},
	}
}

func TestFinder_Find(t *testing.T) {
	emb := fakeEmbedder{
		"save changes": {1, 0},
		"save edits":   {0.99, 0.1},
		"delete {}":    {0, 1},
	}
	ts := []*project.Translatable{
		tr("a", "Save changes"),
		tr("b", "Delete {name}"),
		tr("c", "Save edits"),
		tr("d", "Delete %s"),
	}

	pairs, err := NewFinder(emb, 0.9, 10).Find(context.Background(), ts)
	require.NoError(t, err)
	require.Len(t, pairs, 2)

	assert.Equal(t, "b", pairs[0].A.ID)
	assert.Equal(t, "d", pairs[0].B.ID)
	assert.Equal(t, 1.0, pairs[0].Score)
	assert.False(t, pairs[0].SamePlaceholders)

	assert.Equal(t, "a", pairs[1].A.ID)
	assert.Equal(t, "c", pairs[1].B.ID)
	assert.InDelta(t, 0.995, pairs[1].Score, 0.01)
	assert.True(t, pairs[1].SamePlaceholders)
}

func TestFinder_WithoutEmbedder(t *testing.T) {
	pairs, err := NewFinder(nil, 0, 0).Find(context.Background(), []*project.Translatable{
		tr("a", "Hello {name}"), tr("b", "hello  {user}"), tr("c", "Bye"),
		tr("e", "..."), tr("f", "..."),
	})
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.False(t, pairs[0].SamePlaceholders)
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float32{1, 2}, []float32{2, 4}), 1e-9)
	assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Equal(t, 0.0, Cosine([]float32{0, 0}, []float32{1, 1}))
	assert.Equal(t, 0.0, Cosine([]float32{1}, []float32{1, 2}))
}

func TestRecords(t *testing.T) {
	ts := []*project.Translatable{tr("a", "One"), tr("b", "Two")}
	records := Records(ts, [][]float32{{1}, nil})
	require.Len(t, records, 1)
	assert.Equal(t, "a", records[0].CodeID)
	assert.Equal(t, "a.ts", records[0].FilePath)
	assert.Len(t, records[0].Hash, 64)
}
