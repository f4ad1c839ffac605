package ai

import (
	"fmt"
	"strings"

	"github.com/arturoeanton/codechat/internal/port"
)

// Provider names accepted by NewProvider.
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
	ProviderGemini = "gemini"
)

// NewProvider builds the AI backend named by provider.
func NewProvider(provider string, cfg EndpointConfig) (port.AIProvider, error) {
	switch strings.ToLower(provider) {
	case ProviderOpenAI, "":
		return NewOpenAIProvider(cfg), nil
	case ProviderOllama:
		return NewOllamaProvider(cfg), nil
	case ProviderGemini:
		return NewGeminiProvider(cfg), nil
	default:
		return nil, fmt.Errorf("unknown AI provider: %s", provider)
	}
}
