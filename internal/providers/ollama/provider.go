// internal/providers/ollama/provider.go
// Package ollama provides embedding and chat collaborators backed by
// Ollama-compatible HTTP endpoints.
package ollama

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mwiater/mneme/internal/appconfig"
	"github.com/mwiater/mneme/internal/logging"
	"github.com/mwiater/mneme/internal/providers"
)

// Provider talks to a single Ollama host.
type Provider struct {
	client  *http.Client
	host    appconfig.Host
	timeout time.Duration
}

// New constructs a Provider for the given host, configured with the
// application's request timeout.
func New(cfg *appconfig.Config, host appconfig.Host) *Provider {
	timeout := cfg.RequestTimeout()
	return &Provider{
		client: &http.Client{
			Timeout:   timeout,
			Transport: &http.Transport{ForceAttemptHTTP2: false},
		},
		host:    host,
		timeout: timeout,
	}
}

type embeddingResponse struct {
	Embedding []float32 `json:"embedding"`
}

type chatMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	Done bool `json:"done"`
}

// Embed requests an embedding vector for text from the given model.
func (p *Provider) Embed(ctx context.Context, model, text string) ([]float32, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("embedding model is empty")
	}
	payload := map[string]any{
		"model":  model,
		"prompt": text,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal embedding request: %w", err)
	}
	logging.LogRequest("MNEME->LLM", p.host.Name, model, map[string]int{"prompt_bytes": len(text)})

	raw, err := p.post(ctx, "/api/embeddings", body)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}

	var parsed embeddingResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse embedding response: %w", err)
	}
	if len(parsed.Embedding) == 0 {
		return nil, fmt.Errorf("embedding response returned empty vector")
	}
	return parsed.Embedding, nil
}

// Chat sends a non-streaming chat request and returns the assistant's text.
// Image paths, if any, are read and attached base64-encoded to the user message.
func (p *Provider) Chat(ctx context.Context, req providers.ChatRequest) (string, error) {
	if strings.TrimSpace(req.Model) == "" {
		return "", fmt.Errorf("chat model is empty")
	}

	userMsg := chatMessage{Role: "user", Content: req.UserPrompt}
	for _, path := range req.ImagePaths {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read image %s: %w", path, err)
		}
		userMsg.Images = append(userMsg.Images, base64.StdEncoding.EncodeToString(data))
	}

	messages := []chatMessage{}
	if strings.TrimSpace(req.SystemPrompt) != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.SystemPrompt})
	}
	messages = append(messages, userMsg)

	payload := map[string]any{
		"model":    req.Model,
		"messages": messages,
		"stream":   false,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}
	logging.LogRequest("MNEME->LLM", p.host.Name, req.Model, body)

	raw, err := p.post(ctx, "/api/chat", body)
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}
	logging.LogRequest("LLM->MNEME", p.host.Name, req.Model, raw)

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("parse chat response: %w", err)
	}
	content := strings.TrimSpace(parsed.Message.Content)
	if content == "" {
		return "", fmt.Errorf("chat response returned empty content")
	}
	return content, nil
}

func (p *Provider) post(ctx context.Context, path string, body []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.host.URL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama: %s returned %s: %s", path, resp.Status, strings.TrimSpace(string(raw)))
	}
	return raw, nil
}

// EmbeddingClient binds a Provider to a fixed embedding model, satisfying
// providers.Embedder.
type EmbeddingClient struct {
	provider *Provider
	model    string
}

// NewEmbeddingClient constructs an EmbeddingClient for the given model.
func NewEmbeddingClient(p *Provider, model string) *EmbeddingClient {
	return &EmbeddingClient{provider: p, model: model}
}

// Embed implements providers.Embedder.
func (c *EmbeddingClient) Embed(ctx context.Context, text string) ([]float32, error) {
	return c.provider.Embed(ctx, c.model, text)
}
