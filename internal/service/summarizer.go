package service

import (
	"context"
	"errors"
	"strings"

	"github.com/arturoeanton/codechat/internal/port"
)

const (
	fileSummaryPrompt    = "You are a helpful assistant that summarizes code and text."
	projectSummaryPrompt = "Summarize this project based on the individual file summaries."

	fileSummaryTokens    = 1024
	projectSummaryTokens = 2048
	summaryTemperature   = 0.5
)

var errEmptySummary = errors.New("empty response from model")

// Summarizer sends content to the language model and returns its summary.
type Summarizer struct {
	ai           port.AIProvider
	fileModel    string
	projectModel string
}

// NewSummarizer creates a summarizer. Empty model names use the provider default.
func NewSummarizer(ai port.AIProvider, fileModel, projectModel string) *Summarizer {
	return &Summarizer{ai: ai, fileModel: fileModel, projectModel: projectModel}
}

// SummarizeFile summarizes the content of one file.
func (s *Summarizer) SummarizeFile(ctx context.Context, content, credential string) (string, error) {
	return s.complete(ctx, port.CompletionRequest{
		Model: s.fileModel,
		Messages: []port.Message{
			{Role: port.RoleSystem, Content: fileSummaryPrompt},
			{Role: port.RoleUser, Content: "Please summarize the following content:\n\n" + content},
		},
		MaxTokens:   fileSummaryTokens,
		Temperature: summaryTemperature,
	}, credential)
}

// SummarizeProject produces the project-level summary from the combined blob.
func (s *Summarizer) SummarizeProject(ctx context.Context, blob, credential string) (string, error) {
	return s.complete(ctx, port.CompletionRequest{
		Model: s.projectModel,
		Messages: []port.Message{
			{Role: port.RoleSystem, Content: projectSummaryPrompt},
			{Role: port.RoleUser, Content: blob},
		},
		MaxTokens:   projectSummaryTokens,
		Temperature: summaryTemperature,
	}, credential)
}

func (s *Summarizer) complete(ctx context.Context, req port.CompletionRequest, credential string) (string, error) {
	text, err := s.ai.Complete(ctx, req, credential)
	if err != nil {
		return "", &port.SummarizationError{Err: err}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", &port.SummarizationError{Err: errEmptySummary}
	}
	return text, nil
}
