package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/arturoeanton/codechat/internal/domain"
	"github.com/arturoeanton/codechat/internal/port"
)

// Server identification reported to MCP clients.
const (
	ServerName    = "codechat"
	ServerVersion = "1.0.0"
)

// RecordReader looks up repository records.
type RecordReader interface {
	Get(ctx context.Context, id string) (*domain.Repo, error)
}

// Answerer answers questions about a processed repository.
type Answerer interface {
	Answer(ctx context.Context, id, question, credential string) (string, error)
}

// Server exposes repository summaries and chat as MCP tools.
type Server struct {
	mcp     *server.MCPServer
	http    *server.StreamableHTTPServer
	records RecordReader
	chat    Answerer
	port    string
}

// NewServer creates a new MCP server listening on port once started.
func NewServer(records RecordReader, chat Answerer, port string) *Server {
	s := &Server{
		mcp:     server.NewMCPServer(ServerName, ServerVersion),
		records: records,
		chat:    chat,
		port:    port,
	}
	s.mcp.AddTool(getSummaryTool(), s.handleGetSummary)
	s.mcp.AddTool(askTool(), s.handleAsk)
	s.http = server.NewStreamableHTTPServer(s.mcp)
	return s
}

// Start serves the streamable HTTP transport and blocks.
func (s *Server) Start() error {
	slog.Info("MCP server starting", "port", s.port)
	return s.http.Start(":" + s.port)
}

// Shutdown stops the HTTP transport.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func getSummaryTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_repository_summary",
		Description: "Return the project summary and per-file summaries of an ingested repository",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"repo_id": map[string]interface{}{
					"type":        "string",
					"description": "Shareable identifier returned on submission",
				},
			},
			Required: []string{"repo_id"},
		},
	}
}

func askTool() mcp.Tool {
	return mcp.Tool{
		Name:        "ask_repository",
		Description: "Ask a question about an ingested repository, answered from its stored summaries",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"repo_id": map[string]interface{}{
					"type":        "string",
					"description": "Shareable identifier returned on submission",
				},
				"question": map[string]interface{}{
					"type":        "string",
					"description": "Question about the repository",
				},
			},
			Required: []string{"repo_id", "question"},
		},
	}
}

func (s *Server) handleGetSummary(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})
	id, _ := args["repo_id"].(string)
	if id == "" {
		return mcp.NewToolResultError("repo_id parameter is required"), nil
	}

	repo, err := s.records.Get(ctx, id)
	if err != nil {
		return toolError(err)
	}
	if !repo.IsProcessed {
		return toolError(port.ErrNotReady)
	}

	response := map[string]interface{}{
		"repo_id":        repo.ID,
		"source_url":     repo.SourceURL,
		"summary":        repo.Summary,
		"file_summaries": repo.FileSummaries,
	}
	if repo.Failed() {
		response["processing_error"] = repo.ProcessingError
	}
	data, err := json.MarshalIndent(response, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode summary: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleAsk(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})
	id, _ := args["repo_id"].(string)
	question, _ := args["question"].(string)
	if id == "" || question == "" {
		return mcp.NewToolResultError("repo_id and question parameters are required"), nil
	}

	answer, err := s.chat.Answer(ctx, id, question, "")
	if err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(answer), nil
}

// toolError reports expected domain failures to the client as tool errors
// and everything else as protocol errors.
func toolError(err error) (*mcp.CallToolResult, error) {
	switch {
	case errors.Is(err, port.ErrRepoNotFound),
		errors.Is(err, port.ErrNotReady),
		errors.Is(err, port.ErrIngestionFailed),
		errors.Is(err, port.ErrEmptyQuestion),
		errors.Is(err, port.ErrModelCall):
		return mcp.NewToolResultError(err.Error()), nil
	default:
		return nil, err
	}
}
