package ai

import (
	"context"
	"fmt"
	"sync"

	"google.golang.org/genai"

	"github.com/arturoeanton/codechat/internal/port"
)

// GeminiProvider implements port.AIProvider using Google's Gemini Go SDK.
// SDK clients are created lazily, one per API key.
type GeminiProvider struct {
	cfg EndpointConfig

	mu      sync.Mutex
	clients map[string]*genai.Client
}

// NewGeminiProvider creates a Gemini provider. BaseURL is ignored; the SDK
// handles endpoint configuration.
func NewGeminiProvider(cfg EndpointConfig) *GeminiProvider {
	return &GeminiProvider{cfg: cfg, clients: make(map[string]*genai.Client)}
}

// ModelName returns the default model identifier.
func (g *GeminiProvider) ModelName() string {
	return g.cfg.Model
}

func (g *GeminiProvider) client(ctx context.Context, apiKey string) (*genai.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if c, ok := g.clients[apiKey]; ok {
		return c, nil
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
		APIKey:  apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	g.clients[apiKey] = c
	return c, nil
}

// Complete maps system messages onto the system instruction and the rest onto
// conversation contents.
func (g *GeminiProvider) Complete(ctx context.Context, req port.CompletionRequest, credential string) (string, error) {
	apiKey := g.cfg.Token
	if credential != "" {
		apiKey = credential
	}
	if apiKey == "" {
		return "", fmt.Errorf("gemini: no API key configured")
	}

	model := req.Model
	if model == "" {
		model = g.cfg.Model
	}

	client, err := g.client(ctx, apiKey)
	if err != nil {
		return "", err
	}

	contents, system := toGeminiContents(req.Messages)
	if len(contents) == 0 {
		return "", fmt.Errorf("gemini: no user/assistant messages provided")
	}

	config := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr(float32(req.Temperature)),
		MaxOutputTokens:   int32(req.MaxTokens),
		SystemInstruction: system,
	}

	result, err := client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return "", fmt.Errorf("gemini API error: %w", err)
	}
	text := result.Text()
	if text == "" {
		return "", ErrNoChoices
	}
	return text, nil
}

func toGeminiContents(messages []port.Message) ([]*genai.Content, *genai.Content) {
	var contents []*genai.Content
	var system *genai.Content

	for _, m := range messages {
		role := m.Role
		switch role {
		case port.RoleSystem:
			if system == nil {
				system = &genai.Content{}
			}
			system.Parts = append(system.Parts, genai.NewPartFromText(m.Content))
			continue
		case port.RoleAssistant:
			role = "model"
		default:
			role = "user"
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{genai.NewPartFromText(m.Content)},
		})
	}
	return contents, system
}
