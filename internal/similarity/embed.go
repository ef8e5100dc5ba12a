// Package similarity finds translatables whose default texts say nearly the
// same thing.
package similarity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"i18n-analyzer/internal/worker"

	"github.com/rs/zerolog/log"
)

// Embedder turns texts into vectors.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string, batchSize int) ([][]float32, error)
}

// EmbeddingClient calls an OpenAI-compatible /embeddings endpoint.
type EmbeddingClient struct {
	apiKey     string
	model      string
	baseURL    string
	dimensions int
	httpClient *http.Client
}

// NewEmbeddingClient creates a client for baseURL (for example
// https://api.openai.com/v1). dimensions <= 0 leaves the model default.
func NewEmbeddingClient(apiKey, model, baseURL string, dimensions int) *EmbeddingClient {
	return &EmbeddingClient{
		apiKey:     apiKey,
		model:      model,
		baseURL:    strings.TrimRight(baseURL, "/"),
		dimensions: dimensions,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

type embeddingRequest struct {
	Input      []string `json:"input"`
	Model      string   `json:"model"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// Embed returns one vector per text, in input order.
func (c *EmbeddingClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(embeddingRequest{Input: texts, Model: c.model, Dimensions: c.dimensions})
	if err != nil {
		return nil, fmt.Errorf("marshal embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding API call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read embedding response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var parsed embeddingResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal embedding response: %w", err)
	}

	results := make([][]float32, len(texts))
	for _, d := range parsed.Data {
		if d.Index >= 0 && d.Index < len(results) {
			results[d.Index] = d.Embedding
		}
	}
	for i, v := range results {
		if v == nil {
			return nil, fmt.Errorf("embedding API returned no vector for input %d", i)
		}
	}

	log.Debug().Int("texts", len(texts)).Int("tokens", parsed.Usage.TotalTokens).Msg("Generated embeddings")
	return results, nil
}

// EmbedBatch embeds texts in chunks of batchSize.
func (c *EmbeddingClient) EmbedBatch(ctx context.Context, texts []string, batchSize int) ([][]float32, error) {
	all := make([][]float32, 0, len(texts))
	for i, batch := range worker.Batch(texts, batchSize) {
		vectors, err := c.Embed(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("embed batch %d: %w", i+1, err)
		}
		all = append(all, vectors...)
		log.Debug().Int("batch", i+1).Int("processed", len(all)).Int("total", len(texts)).Msg("Embedding progress")
	}
	return all, nil
}
