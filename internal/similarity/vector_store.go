package similarity

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
	"github.com/rs/zerolog/log"
)

// VectorStore keeps default-text embeddings in PostgreSQL with pgvector.
type VectorStore struct {
	pool       *pgxpool.Pool
	dimensions int
}

// NewVectorStore creates a vector store for vectors of the given size.
func NewVectorStore(pool *pgxpool.Pool, dimensions int) *VectorStore {
	return &VectorStore{pool: pool, dimensions: dimensions}
}

// EmbeddingRecord is a default text with its embedding.
type EmbeddingRecord struct {
	Hash     string
	CodeID   string
	Text     string
	FilePath string
	Vector   []float32
}

// SearchResult is a stored text close to a query vector.
type SearchResult struct {
	CodeID string
	Text   string
	Score  float64
}

// EnsureSchema creates the pgvector extension and the embeddings table.
func (vs *VectorStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS text_embeddings (
			hash      TEXT PRIMARY KEY,
			code_id   TEXT NOT NULL,
			text      TEXT NOT NULL,
			file_path TEXT NOT NULL DEFAULT '',
			embedding vector(%d) NOT NULL
		)`, vs.dimensions),
	}
	for _, stmt := range stmts {
		if _, err := vs.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create embeddings schema: %w", err)
		}
	}
	return nil
}

// Store upserts records by hash.
func (vs *VectorStore) Store(ctx context.Context, records []EmbeddingRecord) error {
	if len(records) == 0 {
		return nil
	}

	for _, r := range records {
		_, err := vs.pool.Exec(ctx, `
			INSERT INTO text_embeddings (hash, code_id, text, file_path, embedding)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (hash) DO UPDATE
			SET code_id = EXCLUDED.code_id, text = EXCLUDED.text,
			    file_path = EXCLUDED.file_path, embedding = EXCLUDED.embedding
		`, r.Hash, r.CodeID, r.Text, r.FilePath, pgvector.NewVector(r.Vector))
		if err != nil {
			return fmt.Errorf("insert embedding %s: %w", r.Hash, err)
		}
	}

	log.Info().Int("count", len(records)).Msg("Stored embeddings")
	return nil
}

// Search returns the topK stored texts closest to queryVector by cosine
// similarity.
func (vs *VectorStore) Search(ctx context.Context, queryVector []float32, topK int) ([]SearchResult, error) {
	rows, err := vs.pool.Query(ctx, `
		SELECT code_id, text, 1 - (embedding <=> $1) AS similarity
		FROM text_embeddings
		ORDER BY embedding <=> $1
		LIMIT $2
	`, pgvector.NewVector(queryVector), topK)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.CodeID, &r.Text, &r.Score); err != nil {
			return nil, fmt.Errorf("scan search result: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate search results: %w", err)
	}
	return results, nil
}
