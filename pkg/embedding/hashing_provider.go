package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"sort"

	"peoples-bill-be/pkg/normalizer"
)

const DefaultHashingDims = 1024

// HashingProvider embeds text locally with signed feature hashing over stemmed
// words. It needs no network and is fully deterministic, which makes it the
// default provider for development and tests.
type HashingProvider struct {
	dims int
}

func NewHashingProvider(dims int) *HashingProvider {
	if dims <= 0 {
		dims = DefaultHashingDims
	}
	return &HashingProvider{dims: dims}
}

func (p *HashingProvider) ModelVersion() string {
	return fmt.Sprintf("hashing-v1-%d", p.dims)
}

func (p *HashingProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tf := make(map[string]int)
	for _, w := range normalizer.Words(text) {
		tf[normalizer.Stem(w)]++
	}

	terms := make([]string, 0, len(tf))
	for term := range tf {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	// Buckets are summed in a fixed order so repeat calls are bit-identical.
	acc := make([]float64, p.dims)
	for _, term := range terms {
		h := fnv.New32a()
		_, _ = h.Write([]byte(term))
		sum := h.Sum32()

		weight := 1 + math.Log(float64(tf[term]))
		if sum&0x80000000 != 0 {
			weight = -weight
		}
		acc[int(sum&0x7fffffff)%p.dims] += weight
	}

	vec := make([]float32, p.dims)
	for i, v := range acc {
		vec[i] = float32(v)
	}

	return &EmbeddingResponse{
		Embedding:    EmbeddingResponseEmbedding{Values: normalizeVector(vec)},
		ModelVersion: p.ModelVersion(),
	}, nil
}
