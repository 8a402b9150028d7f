package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"peoples-bill-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSendsSystemFormatAndOptions(t *testing.T) {
	var got generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(generateResponse{Model: got.Model, Response: `{"title":"t"}`, Done: true})
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL+"/", "llama3")
	out, err := p.Generate(context.Background(), "draft a clause",
		llm.WithSystem("formal language"), llm.WithJSON(), llm.WithTemperature(0.2), llm.WithMaxTokens(256))
	require.NoError(t, err)

	assert.Equal(t, `{"title":"t"}`, out)
	assert.Equal(t, "llama3", got.Model)
	assert.Equal(t, "draft a clause", got.Prompt)
	assert.Equal(t, "formal language", got.System)
	assert.Equal(t, "json", got.Format)
	assert.False(t, got.Stream)
	require.NotNil(t, got.Options)
	assert.Equal(t, 0.2, got.Options.Temperature)
	assert.Equal(t, 256, got.Options.NumPredict)
}

func TestChatPrependsSystemAndMapsModelRole(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(chatResponse{Message: llm.Message{Role: "assistant", Content: "ok"}, Done: true})
	}))
	defer srv.Close()

	_, err := NewOllamaProvider(srv.URL, "llama3").Chat(context.Background(),
		[]llm.Message{{Role: "user", Content: "hi"}, {Role: "model", Content: "hello"}},
		llm.WithSystem("be brief"), llm.WithModel("mistral"))
	require.NoError(t, err)

	assert.Equal(t, "mistral", got.Model)
	require.Len(t, got.Messages, 3)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "assistant", got.Messages[2].Role)
}

func TestServerErrorsAreTyped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewOllamaProvider(srv.URL, "llama3").Generate(context.Background(), "hi")
	var se *llm.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusServiceUnavailable, se.Code)
	assert.Equal(t, "overloaded", se.Body)
	assert.True(t, llm.IsRetryable(err))
}

func TestEmptyResponseIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(generateResponse{Response: "  ", Done: true})
	}))
	defer srv.Close()

	_, err := NewOllamaProvider(srv.URL, "llama3").Generate(context.Background(), "hi")
	require.Error(t, err)
}
