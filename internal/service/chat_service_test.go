package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arturoeanton/codechat/internal/port"
)

func TestAnswer_ContextLayout(t *testing.T) {
	s := newTestStore(t)
	ai := &fakeAI{fn: func(port.CompletionRequest) (string, error) { return "\n  It is a widget.  \n", nil }}
	seedRepo(t, s, "id-1", widgetURL)
	require.NoError(t, s.SaveResult(context.Background(), "id-1", "The aggregate summary.", []string{"S1", "S2"}))

	answer, err := NewChatService(s, ai, "chat-model", 0).Answer(context.Background(), "id-1", "What is it?", "user-key")
	require.NoError(t, err)
	assert.Equal(t, "It is a widget.", answer)

	calls := ai.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "chat-model", calls[0].Model)
	assert.Equal(t, 1024, calls[0].MaxTokens)
	assert.Equal(t, 0.5, calls[0].Temperature)
	assert.Equal(t, []port.Message{
		{Role: port.RoleSystem, Content: "The aggregate summary."},
		{Role: port.RoleSystem, Content: "S1"},
		{Role: port.RoleSystem, Content: "S2"},
		{Role: port.RoleUser, Content: "What is it?"},
	}, calls[0].Messages)
	assert.Equal(t, "user-key", ai.creds[0])
}

func TestAnswer_CapsFileSummaries(t *testing.T) {
	s := newTestStore(t)
	ai := &fakeAI{fn: func(port.CompletionRequest) (string, error) { return "ok", nil }}
	var files []string
	for i := 0; i < 10; i++ {
		files = append(files, fmt.Sprintf("S%d", i))
	}
	seedRepo(t, s, "id-1", widgetURL)
	require.NoError(t, s.SaveResult(context.Background(), "id-1", "agg", files))

	_, err := NewChatService(s, ai, "", 3).Answer(context.Background(), "id-1", "q", "")
	require.NoError(t, err)

	msgs := ai.Calls()[0].Messages
	require.Len(t, msgs, 5)
	assert.Equal(t, "agg", msgs[0].Content)
	assert.Equal(t, "S0", msgs[1].Content)
	assert.Equal(t, "S2", msgs[3].Content)
	assert.Equal(t, port.RoleUser, msgs[4].Role)
}

func TestAnswer_Errors(t *testing.T) {
	s := newTestStore(t)
	ai := &fakeAI{fn: func(port.CompletionRequest) (string, error) { return "", errors.New("upstream 500") }}
	svc := NewChatService(s, ai, "", 0)
	ctx := context.Background()

	seedRepo(t, s, "pending", widgetURL)
	seedRepo(t, s, "failed", "https://github.com/acme/broken")
	require.NoError(t, s.MarkFailed(ctx, "failed", "not found"))
	seedRepo(t, s, "ready", "https://github.com/acme/ready")
	require.NoError(t, s.SaveResult(ctx, "ready", "agg", nil))

	_, err := svc.Answer(ctx, "missing", "q", "")
	assert.ErrorIs(t, err, port.ErrRepoNotFound)

	_, err = svc.Answer(ctx, "pending", "q", "")
	assert.ErrorIs(t, err, port.ErrNotReady)

	_, err = svc.Answer(ctx, "failed", "q", "")
	assert.ErrorIs(t, err, port.ErrIngestionFailed)

	_, err = svc.Answer(ctx, "ready", "   ", "")
	assert.ErrorIs(t, err, port.ErrEmptyQuestion)

	assert.Empty(t, ai.Calls(), "no model call for unusable records")

	_, err = svc.Answer(ctx, "ready", "q", "")
	assert.ErrorIs(t, err, port.ErrModelCall)
	assert.Len(t, ai.Calls(), 1)
}
