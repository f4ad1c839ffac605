package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/arturoeanton/codechat/internal/port"
)

// EndpointConfig holds the configuration for a single model endpoint.
type EndpointConfig struct {
	BaseURL string // e.g. http://localhost:11434 or https://api.openai.com/v1
	Model   string // default model, used when a request names none
	Token   string // Bearer token (empty = no auth unless the request carries one)
}

// OllamaProvider implements port.AIProvider using the Ollama REST API.
type OllamaProvider struct {
	cfg        EndpointConfig
	httpClient *http.Client
}

// NewOllamaProvider creates a new Ollama-backed AI provider.
func NewOllamaProvider(cfg EndpointConfig) *OllamaProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &OllamaProvider{
		cfg:        cfg,
		httpClient: &http.Client{},
	}
}

// ModelName returns the default model identifier.
func (o *OllamaProvider) ModelName() string {
	return o.cfg.Model
}

// Complete sends a non-streaming chat request and returns the message content.
func (o *OllamaProvider) Complete(ctx context.Context, req port.CompletionRequest, credential string) (string, error) {
	model := req.Model
	if model == "" {
		model = o.cfg.Model
	}

	options := map[string]interface{}{
		"temperature": req.Temperature,
	}
	if req.MaxTokens > 0 {
		options["num_predict"] = req.MaxTokens
	}
	payload := map[string]interface{}{
		"model":    model,
		"messages": req.Messages,
		"stream":   false,
		"options":  options,
	}

	token := o.cfg.Token
	if credential != "" {
		token = credential
	}

	body, err := o.post(ctx, "/api/chat", token, payload)
	if err != nil {
		return "", fmt.Errorf("ollama chat: %w", err)
	}

	var resp struct {
		Message *struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("ollama chat decode: %w", err)
	}
	if resp.Message == nil {
		return "", fmt.Errorf("ollama chat: response has no message")
	}

	return resp.Message.Content, nil
}

// post is a helper for POST requests to the Ollama endpoint (with optional bearer token).
func (o *OllamaProvider) post(ctx context.Context, path, token string, payload interface{}) ([]byte, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.cfg.BaseURL+path, bytes.NewReader(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama API error (%d): %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}
