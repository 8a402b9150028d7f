package jina

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"peoples-bill-be/pkg/embedding"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRequestsSeparationTask(t *testing.T) {
	var got embedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"data":[{"index":0,"embedding":[3,4]}]}`))
	}))
	defer srv.Close()

	p := NewJinaProvider("key", WithURL(srv.URL), WithDimensions(2))
	res, err := p.Generate(context.Background(), "declare assets", embedding.TaskTypeClustering)
	require.NoError(t, err)

	assert.Equal(t, "separation", got.Task)
	assert.Equal(t, 2, got.Dimensions)
	assert.Equal(t, []string{"declare assets"}, got.Input)
	assert.Equal(t, "jina:jina-embeddings-v3@2", res.ModelVersion)
	assert.InDelta(t, 0.6, res.Embedding.Values[0], 1e-6)
	assert.InDelta(t, 1.0, math.Hypot(float64(res.Embedding.Values[0]), float64(res.Embedding.Values[1])), 1e-6)
}

func TestGenerateSurfacesAPIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail":"model not found"}`))
	}))
	defer srv.Close()

	_, err := NewJinaProvider("key", WithURL(srv.URL)).Generate(context.Background(), "text", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")
}

func TestGenerateRejectsEmptyInput(t *testing.T) {
	_, err := NewJinaProvider("key").Generate(context.Background(), "  ", "")
	assert.Error(t, err)
}
