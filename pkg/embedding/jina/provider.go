package jina

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"peoples-bill-be/pkg/embedding"
)

const (
	defaultURL   = "https://api.jina.ai/v1/embeddings"
	defaultModel = "jina-embeddings-v3"
)

// JinaProvider embeds submissions through the hosted Jina embeddings API.
type JinaProvider struct {
	apiKey     string
	url        string
	model      string
	dimensions int
	client     *http.Client
}

type Option func(*JinaProvider)

func WithModel(model string) Option {
	return func(p *JinaProvider) {
		if model != "" {
			p.model = model
		}
	}
}

func WithURL(url string) Option {
	return func(p *JinaProvider) {
		if url != "" {
			p.url = url
		}
	}
}

// WithDimensions truncates vectors server-side (Matryoshka) to n components.
func WithDimensions(n int) Option {
	return func(p *JinaProvider) {
		p.dimensions = n
	}
}

func NewJinaProvider(apiKey string, opts ...Option) *JinaProvider {
	p := &JinaProvider{
		apiKey: apiKey,
		url:    defaultURL,
		model:  defaultModel,
		client: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type embedRequest struct {
	Model      string   `json:"model"`
	Task       string   `json:"task,omitempty"`
	Dimensions int      `json:"dimensions,omitempty"`
	Normalized bool     `json:"normalized"`
	Input      []string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Detail string `json:"detail,omitempty"`
}

func (p *JinaProvider) ModelVersion() string {
	if p.dimensions > 0 {
		return fmt.Sprintf("jina:%s@%d", p.model, p.dimensions)
	}
	return "jina:" + p.model
}

// task maps the provider-neutral task type onto Jina's LoRA adapters.
func task(taskType string) string {
	switch taskType {
	case embedding.TaskTypeClustering:
		return "separation"
	case "RETRIEVAL_QUERY":
		return "retrieval.query"
	case "RETRIEVAL_DOCUMENT":
		return "retrieval.passage"
	default:
		return "text-matching"
	}
}

func (p *JinaProvider) Generate(ctx context.Context, text string, taskType string) (*embedding.EmbeddingResponse, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("jina: empty input")
	}

	payload, err := json.Marshal(embedRequest{
		Model:      p.model,
		Task:       task(taskType),
		Dimensions: p.dimensions,
		Normalized: true,
		Input:      []string{text},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("jina request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("jina: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var out embedResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if out.Detail != "" {
		return nil, fmt.Errorf("jina: %s", out.Detail)
	}
	if len(out.Data) == 0 || len(out.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("jina: no embedding returned")
	}

	return &embedding.EmbeddingResponse{
		Embedding:    embedding.EmbeddingResponseEmbedding{Values: embedding.Normalize(out.Data[0].Embedding)},
		ModelVersion: p.ModelVersion(),
	}, nil
}
