package embedding

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"peoples-bill-be/pkg/apperror"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func norm(v []float32) float64 {
	var s float64
	for _, x := range v {
		s += float64(x) * float64(x)
	}
	return math.Sqrt(s)
}

func TestHashingProviderSimilarity(t *testing.T) {
	p := NewHashingProvider(0)
	ctx := context.Background()
	assert.Equal(t, "hashing-v1-1024", p.ModelVersion())

	a, err := p.Generate(ctx, "Public officers must declare their assets and property every year.", "")
	require.NoError(t, err)
	b, err := p.Generate(ctx, "Every public officer should declare assets and property publicly.", "")
	require.NoError(t, err)
	c, err := p.Generate(ctx, "Severe penalties and prison terms for corruption convictions.", "")
	require.NoError(t, err)

	assert.Len(t, a.Embedding.Values, DefaultHashingDims)
	assert.InDelta(t, 1.0, norm(a.Embedding.Values), 1e-5)
	assert.Equal(t, "hashing-v1-1024", a.ModelVersion)

	same := Cosine(a.Embedding.Values, b.Embedding.Values)
	other := Cosine(a.Embedding.Values, c.Embedding.Values)
	assert.Greater(t, same, 0.6)
	assert.Less(t, other, 0.3)
}

func TestHashingProviderEmptyTextIsZeroVector(t *testing.T) {
	res, err := NewHashingProvider(64).Generate(context.Background(), "the and of", "")
	require.NoError(t, err)
	assert.Equal(t, 0.0, norm(res.Embedding.Values))
}

func TestHashingProviderIsDeterministic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)
	// Few buckets and a small vocabulary force collisions and repeated terms,
	// so bucket sums mix fractional and negative weights.
	p := NewHashingProvider(64)
	vocab := []string{"water", "roads", "clinic", "teacher", "budget", "land",
		"police", "youth", "market", "tax", "electricity", "farmer", "court", "pension"}

	bitsOf := func(v []float32) []uint32 {
		out := make([]uint32, len(v))
		for i, x := range v {
			out[i] = math.Float32bits(x)
		}
		return out
	}

	properties.Property("same text yields a bit-identical vector", prop.ForAll(
		func(picks []int) bool {
			words := make([]string, len(picks))
			for i, k := range picks {
				words[i] = vocab[k]
			}
			text := strings.Join(words, " ")
			first, err := p.Generate(context.Background(), text, "")
			if err != nil {
				return false
			}
			want := bitsOf(first.Embedding.Values)
			for i := 0; i < 30; i++ {
				again, err := p.Generate(context.Background(), text, "")
				if err != nil {
					return false
				}
				got := bitsOf(again.Embedding.Values)
				for j := range want {
					if want[j] != got[j] {
						return false
					}
				}
			}
			return true
		},
		gen.SliceOfN(120, gen.IntRange(0, len(vocab)-1)),
	))

	properties.TestingRun(t)
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float32{1, 2, 3}, []float32{2, 4, 6}), 1e-9)
	assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Equal(t, 0.0, Cosine([]float32{0, 0}, []float32{1, 1}))
	assert.Equal(t, 0.0, Cosine([]float32{1}, []float32{1, 1}))
}

func TestOllamaProviderNormalizesAndTagsVersion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"embedding":[3,4]}`))
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "nomic-embed-text")
	res, err := p.Generate(context.Background(), "hello world", "")
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{0.6, 0.8}, res.Embedding.Values, 1e-6)
	assert.Equal(t, "ollama:nomic-embed-text", res.ModelVersion)
}

func TestOllamaProviderSurfacesHTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewOllamaProvider(srv.URL, "").Generate(context.Background(), "hello", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model not loaded")
}

type flakyProvider struct {
	failures int32
	calls    atomic.Int32
}

func (f *flakyProvider) ModelVersion() string { return "flaky-v1" }

func (f *flakyProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	n := f.calls.Add(1)
	if n <= f.failures {
		return nil, errors.New("service unavailable")
	}
	return &EmbeddingResponse{
		Embedding:    EmbeddingResponseEmbedding{Values: []float32{1}},
		ModelVersion: f.ModelVersion(),
	}, nil
}

func fastRetry() RetryConfig {
	return RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 4 * time.Millisecond}
}

func TestRetryingProviderRecoversFromTransientFailure(t *testing.T) {
	inner := &flakyProvider{failures: 2}
	res, err := NewRetryingProvider(inner, "flaky", fastRetry()).Generate(context.Background(), "text", "")
	require.NoError(t, err)
	assert.Equal(t, "flaky-v1", res.ModelVersion)
	assert.Equal(t, int32(3), inner.calls.Load())
}

func TestRetryingProviderGivesUpWithEmbeddingServiceError(t *testing.T) {
	inner := &flakyProvider{failures: 100}
	_, err := NewRetryingProvider(inner, "flaky", fastRetry()).Generate(context.Background(), "text", "")

	var svcErr *apperror.EmbeddingServiceError
	require.True(t, errors.As(err, &svcErr))
	assert.Equal(t, "flaky", svcErr.Provider)
	assert.Equal(t, 3, svcErr.Attempts)
	assert.Equal(t, int32(3), inner.calls.Load())
}

type badVectorProvider struct{ calls int }

func (b *badVectorProvider) ModelVersion() string { return "bad-v1" }

func (b *badVectorProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	b.calls++
	return &EmbeddingResponse{Embedding: EmbeddingResponseEmbedding{Values: []float32{1, 0}}}, nil
}

func TestRetryingProviderRejectsWrongDimension(t *testing.T) {
	inner := &badVectorProvider{}
	cfg := fastRetry()
	cfg.Dims = 3

	_, err := NewRetryingProvider(inner, "bad", cfg).Generate(context.Background(), "text", "")
	var svcErr *apperror.EmbeddingServiceError
	require.True(t, errors.As(err, &svcErr))
	assert.Contains(t, svcErr.Error(), "2 dimensions")
	assert.Equal(t, 3, inner.calls)
}

func TestRetryingProviderStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	inner := &flakyProvider{failures: 100}
	_, err := NewRetryingProvider(inner, "flaky", fastRetry()).Generate(ctx, "text", "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEmbedAllKeepsOrder(t *testing.T) {
	texts := []string{
		"clean water for every district",
		"fund rural schools properly",
		"protect whistleblowers from retaliation",
	}
	p := NewHashingProvider(128)

	out, err := EmbedAll(context.Background(), p, texts, 2)
	require.NoError(t, err)
	require.Len(t, out, len(texts))

	for i, text := range texts {
		want, err := p.Generate(context.Background(), text, TaskTypeClustering)
		require.NoError(t, err)
		assert.Equal(t, want.Embedding.Values, out[i].Embedding.Values)
	}
}

func TestEmbedAllFailsFast(t *testing.T) {
	_, err := EmbedAll(context.Background(), &flakyProvider{failures: 100}, []string{"a", "b"}, 2)
	assert.Error(t, err)
}

func TestEmbedEachIsolatesFailures(t *testing.T) {
	p := &selectiveProvider{inner: NewHashingProvider(64), fail: "broken"}
	out, errs, err := EmbedEach(context.Background(), p, []string{"roads in volta", "broken", "clinics in oti"}, 2)
	require.NoError(t, err)

	assert.NotNil(t, out[0])
	assert.Nil(t, out[1])
	assert.Error(t, errs[1])
	assert.NotNil(t, out[2])
	assert.NoError(t, errs[2])
}

type selectiveProvider struct {
	inner EmbeddingProvider
	fail  string
}

func (s *selectiveProvider) Generate(ctx context.Context, text, taskType string) (*EmbeddingResponse, error) {
	if text == s.fail {
		return nil, errors.New("provider rejected input")
	}
	return s.inner.Generate(ctx, text, taskType)
}

func (s *selectiveProvider) ModelVersion() string { return s.inner.ModelVersion() }
