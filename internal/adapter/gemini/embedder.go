package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

type Embedder struct {
	client *genai.Client
	model  string
	dim    int
}

// NewEmbedder builds a Gemini embedding client producing vectors of exactly
// dim values. The model emits larger vectors; they are truncated and
// renormalized, which this model family supports.
func NewEmbedder(ctx context.Context, apiKey string, dim int, opts ...option.ClientOption) (*Embedder, error) {
	opts = append(opts, option.WithAPIKey(apiKey))
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &Embedder{client: client, model: "gemini-embedding-001", dim: dim}, nil
}

func (e *Embedder) Close() error {
	return e.client.Close()
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	slog.DebugContext(ctx, "embedding content", "model", e.model, "length", len(text))
	em := e.client.EmbeddingModel(e.model)
	res, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		slog.ErrorContext(ctx, "embedding failed", "error", err)
		return nil, err
	}
	if res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, fmt.Errorf("empty embedding received")
	}

	values := res.Embedding.Values
	if len(values) < e.dim {
		return nil, fmt.Errorf("embedding has %d values, want at least %d", len(values), e.dim)
	}
	return normalize(values[:e.dim]), nil
}

func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	norm := math.Sqrt(sum)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}
