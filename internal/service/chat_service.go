package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/arturoeanton/codechat/internal/port"
)

const (
	chatMaxTokens   = 1024
	chatTemperature = 0.5
)

// ChatService answers questions about processed repositories. Each call is
// independent; the stored summaries are the only context.
type ChatService struct {
	store      port.RepoStore
	ai         port.AIProvider
	model      string
	maxContext int // file summaries injected per call, 0 = all
}

// NewChatService creates a new chat responder.
func NewChatService(store port.RepoStore, ai port.AIProvider, model string, maxContext int) *ChatService {
	return &ChatService{store: store, ai: ai, model: model, maxContext: maxContext}
}

// Answer replies to question using the record's summaries. It returns
// port.ErrRepoNotFound, port.ErrNotReady or port.ErrIngestionFailed without
// calling the model when the record cannot be used.
func (s *ChatService) Answer(ctx context.Context, id, question, credential string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", port.ErrEmptyQuestion
	}

	repo, err := s.store.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if !repo.IsProcessed {
		return "", port.ErrNotReady
	}
	if repo.Failed() {
		return "", fmt.Errorf("%w: %s", port.ErrIngestionFailed, repo.ProcessingError)
	}

	files := repo.FileSummaries
	if s.maxContext > 0 && len(files) > s.maxContext {
		files = files[:s.maxContext]
	}
	messages := BuildChatContext(repo.Summary, files, question)

	reply, err := s.ai.Complete(ctx, port.CompletionRequest{
		Model:       s.model,
		Messages:    messages,
		MaxTokens:   chatMaxTokens,
		Temperature: chatTemperature,
	}, credential)
	if err != nil {
		slog.Error("chat completion failed", "repo_id", id, "error", err)
		return "", fmt.Errorf("%w: %v", port.ErrModelCall, err)
	}
	return strings.TrimSpace(reply), nil
}

// BuildChatContext lays out a chat request: the aggregate summary first, one
// system message per file summary in stored order, then the question.
func BuildChatContext(summary string, fileSummaries []string, question string) []port.Message {
	messages := make([]port.Message, 0, len(fileSummaries)+2)
	messages = append(messages, port.Message{Role: port.RoleSystem, Content: summary})
	for _, fs := range fileSummaries {
		messages = append(messages, port.Message{Role: port.RoleSystem, Content: fs})
	}
	return append(messages, port.Message{Role: port.RoleUser, Content: question})
}
