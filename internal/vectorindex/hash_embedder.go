package vectorindex

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"unicode"
)

// HashEmbedder is a deterministic offline embedder. Each word contributes
// its padded character trigrams and the word itself, feature-hashed into
// Dimension() buckets, so related word forms ("resign", "resignation")
// land close together.
type HashEmbedder struct {
	dim int
}

func NewHashEmbedder(dim int) *HashEmbedder {
	if dim <= 0 {
		dim = 512
	}
	return &HashEmbedder{dim: dim}
}

func (h *HashEmbedder) Name() string {
	return fmt.Sprintf("hash-trigram-%d", h.dim)
}

func (h *HashEmbedder) Dimension() int {
	return h.dim
}

func (h *HashEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = h.embedOne(text)
	}
	return out, nil
}

func (h *HashEmbedder) embedOne(text string) []float32 {
	vec := make([]float32, h.dim)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	for _, w := range words {
		h.add(vec, "w:"+w, 1)

		padded := []rune(" " + w + " ")
		for j := 0; j+3 <= len(padded); j++ {
			h.add(vec, string(padded[j:j+3]), 1)
		}
	}

	normalize(vec)
	return vec
}

func (h *HashEmbedder) add(vec []float32, feature string, weight float32) {
	f := fnv.New32a()
	_, _ = f.Write([]byte(feature))
	vec[f.Sum32()%uint32(h.dim)] += weight
}
