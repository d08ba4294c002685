package ai

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/api/option"

	"hr-rag-assistant/internal/config"
	"hr-rag-assistant/internal/vectorindex"
)

// Gemini accepts at most 100 contents per batch embedding request.
const embedBatchSize = 100

// GeminiEmbedder computes embeddings with the Gemini embedding models
// (text-embedding-004 by default).
type GeminiEmbedder struct {
	client *genai.Client
	model  string
	dim    int
}

func NewGeminiEmbedder(client *genai.Client, model string, dim int) *GeminiEmbedder {
	if model == "" {
		model = "text-embedding-004"
	}
	if dim <= 0 {
		dim = 768
	}
	return &GeminiEmbedder{client: client, model: model, dim: dim}
}

func (e *GeminiEmbedder) Name() string {
	return "gemini-" + e.model
}

func (e *GeminiEmbedder) Dimension() int {
	return e.dim
}

func (e *GeminiEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, span := otel.Tracer("gemini-client").Start(ctx, "gemini.embed")
	defer span.End()
	span.SetAttributes(
		attribute.String("gemini.embedding_model", e.model),
		attribute.Int("gemini.texts", len(texts)),
	)

	model := e.client.EmbeddingModel(e.model)
	out := make([][]float32, 0, len(texts))

	for start := 0; start < len(texts); start += embedBatchSize {
		end := min(start+embedBatchSize, len(texts))

		batch := model.NewBatch()
		for _, text := range texts[start:end] {
			batch.AddContent(genai.Text(text))
		}

		resp, err := model.BatchEmbedContents(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("batch embed [%d:%d]: %w", start, end, err)
		}
		if len(resp.Embeddings) != end-start {
			return nil, fmt.Errorf("batch embed [%d:%d]: got %d embeddings", start, end, len(resp.Embeddings))
		}

		for i, emb := range resp.Embeddings {
			if emb == nil || len(emb.Values) != e.dim {
				return nil, fmt.Errorf("embedding %d: unexpected dimension, want %d", start+i, e.dim)
			}
			out = append(out, emb.Values)
		}
	}
	return out, nil
}

// NewEmbedder returns the configured embeddings provider and a func that
// releases any connection it opened.
func NewEmbedder(ctx context.Context, cfg *config.Config) (vectorindex.Embedder, func() error, error) {
	switch cfg.EmbeddingsProvider {
	case "google", "":
		if cfg.GeminiAPIKey == "" {
			return nil, nil, fmt.Errorf("missing GEMINI_API_KEY for embeddings")
		}
		client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
		if err != nil {
			return nil, nil, err
		}
		return NewGeminiEmbedder(client, cfg.GoogleEmbeddingsModel, cfg.VectorDimensions), client.Close, nil

	case "local":
		return vectorindex.NewHashEmbedder(cfg.LocalEmbeddingDim), func() error { return nil }, nil

	default:
		return nil, nil, fmt.Errorf("unknown embeddings provider: %s", cfg.EmbeddingsProvider)
	}
}
