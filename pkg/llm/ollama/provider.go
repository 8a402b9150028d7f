package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"peoples-bill-be/pkg/llm"
)

const defaultKeepAlive = "5m"

// OllamaProvider drafts text through a local Ollama daemon. Single prompts go
// to /api/generate, conversations to /api/chat.
type OllamaProvider struct {
	baseURL string
	model   string
	client  *http.Client
}

var _ llm.LLMProvider = (*OllamaProvider)(nil)

func NewOllamaProvider(baseURL, modelName string) *OllamaProvider {
	return &OllamaProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   modelName,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

type modelOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type generateRequest struct {
	Model     string        `json:"model"`
	Prompt    string        `json:"prompt"`
	System    string        `json:"system,omitempty"`
	Format    string        `json:"format,omitempty"`
	Stream    bool          `json:"stream"`
	KeepAlive string        `json:"keep_alive,omitempty"`
	Options   *modelOptions `json:"options,omitempty"`
}

type generateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []llm.Message `json:"messages"`
	Format    string        `json:"format,omitempty"`
	Stream    bool          `json:"stream"`
	KeepAlive string        `json:"keep_alive,omitempty"`
	Options   *modelOptions `json:"options,omitempty"`
}

type chatResponse struct {
	Model   string      `json:"model"`
	Message llm.Message `json:"message"`
	Done    bool        `json:"done"`
}

func (o *OllamaProvider) resolve(opts []llm.Option) (llm.Options, string, *modelOptions) {
	options := llm.Apply(llm.Options{Model: o.model, Temperature: 0.7}, opts...)
	format := ""
	if options.JSON {
		format = "json"
	}
	return options, format, &modelOptions{Temperature: options.Temperature, NumPredict: options.MaxTokens}
}

func (o *OllamaProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	options, format, mo := o.resolve(opts)

	var out generateResponse
	err := o.post(ctx, "/api/generate", generateRequest{
		Model:     options.Model,
		Prompt:    prompt,
		System:    options.System,
		Format:    format,
		KeepAlive: defaultKeepAlive,
		Options:   mo,
	}, &out)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(out.Response) == "" {
		return "", fmt.Errorf("ollama returned an empty response")
	}
	return out.Response, nil
}

func (o *OllamaProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	options, format, mo := o.resolve(opts)

	messages := make([]llm.Message, 0, len(history)+1)
	if options.System != "" {
		messages = append(messages, llm.Message{Role: "system", Content: options.System})
	}
	for _, m := range history {
		if m.Role == "model" {
			m.Role = "assistant"
		}
		messages = append(messages, m)
	}

	var out chatResponse
	err := o.post(ctx, "/api/chat", chatRequest{
		Model:     options.Model,
		Messages:  messages,
		Format:    format,
		KeepAlive: defaultKeepAlive,
		Options:   mo,
	}, &out)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(out.Message.Content) == "" {
		return "", fmt.Errorf("ollama returned an empty message")
	}
	return out.Message.Content, nil
}

func (o *OllamaProvider) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return &llm.StatusError{Provider: "ollama", Code: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}
