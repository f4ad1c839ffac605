package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/arturoeanton/codechat/internal/port"
)

// ErrNoChoices is returned when a completion response carries no usable message.
var ErrNoChoices = errors.New("no choices in response")

// OpenAIProvider implements port.AIProvider against an OpenAI-compatible
// /chat/completions endpoint.
type OpenAIProvider struct {
	cfg        EndpointConfig
	httpClient *http.Client
}

// NewOpenAIProvider creates a provider for the given endpoint.
func NewOpenAIProvider(cfg EndpointConfig) *OpenAIProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &OpenAIProvider{
		cfg:        cfg,
		httpClient: &http.Client{},
	}
}

type chatCompletionRequest struct {
	Model       string         `json:"model"`
	Messages    []port.Message `json:"messages"`
	MaxTokens   int            `json:"max_tokens,omitempty"`
	Temperature float64        `json:"temperature"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message *port.Message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// ModelName returns the default model identifier.
func (p *OpenAIProvider) ModelName() string {
	return p.cfg.Model
}

// Complete sends one chat completion request and returns the first choice's content.
func (p *OpenAIProvider) Complete(ctx context.Context, req port.CompletionRequest, credential string) (string, error) {
	model := req.Model
	if model == "" {
		model = p.cfg.Model
	}
	token := p.cfg.Token
	if credential != "" {
		token = credential
	}
	if token == "" {
		return "", fmt.Errorf("openai: no API key configured")
	}

	payload, err := json.Marshal(chatCompletionRequest{
		Model:       model,
		Messages:    req.Messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+token)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("openai chat: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var result chatCompletionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("openai API error (%d): %s", resp.StatusCode, string(body))
		}
		return "", fmt.Errorf("openai chat decode: %w", err)
	}

	if result.Error != nil {
		return "", fmt.Errorf("openai API error (%d): %s", resp.StatusCode, result.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("openai API error (%d): %s", resp.StatusCode, string(body))
	}

	if len(result.Choices) == 0 || result.Choices[0].Message == nil {
		return "", ErrNoChoices
	}

	return result.Choices[0].Message.Content, nil
}
