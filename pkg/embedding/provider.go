package embedding

import (
	"context"
	"math"
)

const TaskTypeClustering = "CLUSTERING"

type EmbeddingResponseEmbedding struct {
	Values []float32 `json:"values"`
}

type EmbeddingResponse struct {
	Embedding EmbeddingResponseEmbedding `json:"embedding"`
	// ModelVersion identifies the provider and model that produced the vector.
	// Vectors from different versions are never compared.
	ModelVersion string `json:"model_version"`
}

// EmbeddingProvider defines the interface for generating text embeddings
type EmbeddingProvider interface {
	Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error)
	ModelVersion() string
}

// normalizeVector normalizes a vector to unit length (magnitude = 1)
// so cosine similarity reduces to a dot product
func normalizeVector(vec []float32) []float32 {
	var magnitude float64
	for _, v := range vec {
		magnitude += float64(v) * float64(v)
	}
	magnitude = math.Sqrt(magnitude)

	// Avoid division by zero
	if magnitude == 0 {
		return vec
	}

	normalized := make([]float32, len(vec))
	for i, v := range vec {
		normalized[i] = float32(float64(v) / magnitude)
	}
	return normalized
}

// Normalize returns a unit-length copy of vec. A zero vector is returned unchanged.
func Normalize(vec []float32) []float32 {
	return normalizeVector(vec)
}

// Cosine returns the cosine similarity of a and b, or 0 when either is a zero
// vector or the dimensions differ.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
