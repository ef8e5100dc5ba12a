package similarity

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sort"

	"i18n-analyzer/internal/interpolation"
	"i18n-analyzer/internal/project"
	"i18n-analyzer/internal/textutil"

	"github.com/rs/zerolog/log"
)

// DefaultThreshold is the cosine similarity above which two texts count as
// near duplicates.
const DefaultThreshold = 0.92

// Pair is two translatables with similar default texts.
type Pair struct {
	A, B  *project.Translatable
	Score float64
	// SamePlaceholders is true when both texts use the same interpolation
	// variables in the same order, so they could share one id.
	SamePlaceholders bool
}

// Finder reports near-duplicate translatables.
type Finder struct {
	embedder  Embedder
	threshold float64
	batchSize int
}

// NewFinder creates a finder. A nil embedder only finds texts that are
// equal after normalization.
func NewFinder(embedder Embedder, threshold float64, batchSize int) *Finder {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Finder{embedder: embedder, threshold: threshold, batchSize: batchSize}
}

// Find compares every pair of translatables. Texts that normalize to the
// same key score 1 without calling the embedder. Texts without letters or
// digits are skipped. Pairs are sorted by score, highest first.
func (f *Finder) Find(ctx context.Context, all []*project.Translatable) ([]Pair, error) {
	var translatables []*project.Translatable
	for _, t := range all {
		if textutil.HasVisibleText(t.DefaultText) {
			translatables = append(translatables, t)
		}
	}

	keys := make([]string, len(translatables))
	var unique []string
	indexOf := make(map[string]int)
	for i, t := range translatables {
		keys[i] = interpolation.Normalize(t.DefaultText)
		if _, ok := indexOf[keys[i]]; !ok {
			indexOf[keys[i]] = len(unique)
			unique = append(unique, keys[i])
		}
	}

	var vectors [][]float32
	if f.embedder != nil && len(unique) > 1 {
		var err error
		vectors, err = f.embedder.EmbedBatch(ctx, unique, f.batchSize)
		if err != nil {
			return nil, fmt.Errorf("embed default texts: %w", err)
		}
		if len(vectors) != len(unique) {
			return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(unique))
		}
	}

	var pairs []Pair
	for i := 0; i < len(translatables); i++ {
		for j := i + 1; j < len(translatables); j++ {
			var score float64
			if keys[i] == keys[j] {
				score = 1
			} else if vectors != nil {
				score = Cosine(vectors[indexOf[keys[i]]], vectors[indexOf[keys[j]]])
			}
			if score < f.threshold {
				continue
			}
			pairs = append(pairs, Pair{
				A:     translatables[i],
				B:     translatables[j],
				Score: score,
				SamePlaceholders: slices.Equal(
					interpolation.Placeholders(translatables[i].DefaultText),
					interpolation.Placeholders(translatables[j].DefaultText)),
			})
		}
	}

	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].Score > pairs[j].Score })

	log.Info().Int("translatables", len(translatables)).Int("pairs", len(pairs)).Msg("Similarity search complete")
	return pairs, nil
}

// Records builds the rows VectorStore.Store expects from translatables and
// their vectors.
func Records(translatables []*project.Translatable, vectors [][]float32) []EmbeddingRecord {
	records := make([]EmbeddingRecord, 0, len(translatables))
	for i, t := range translatables {
		if i >= len(vectors) || vectors[i] == nil {
			continue
		}
		file := ""
		if len(t.SrcElements) > 0 {
			file = t.SrcElements[0].FileName
		}
		records = append(records, EmbeddingRecord{
			Hash:     textutil.Hash(t.ID + "\x00" + t.DefaultText),
			CodeID:   t.ID,
			Text:     t.DefaultText,
			FilePath: file,
			Vector:   vectors[i],
		})
	}
	return records
}

// Cosine returns the cosine similarity of a and b, or 0 when either is a
// zero vector or their lengths differ.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
