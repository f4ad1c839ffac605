package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "BASE_URL", "MAX_FILE_SIZE", "SUMMARY_WORKERS", "AI_PROVIDER", "SMTP_HOST"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "3001", cfg.Port)
	assert.Equal(t, "http://localhost:3001", cfg.BaseURL)
	assert.Equal(t, int64(32*1024), cfg.MaxFileSize)
	assert.Equal(t, 4, cfg.SummaryWorkers)
	assert.Equal(t, "openai", cfg.AIProvider)
	assert.Empty(t, cfg.SMTPHost)
	assert.True(t, cfg.GitHubPrecheck)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("BASE_URL", "https://chat.example.com/")
	t.Setenv("SUMMARY_WORKERS", "1")
	t.Setenv("GITHUB_PRECHECK", "false")
	t.Setenv("MAX_CONTEXT_SUMMARIES", "not-a-number")
	t.Setenv("JOB_RETENTION", "15m")

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "https://chat.example.com", cfg.BaseURL)
	assert.Equal(t, 1, cfg.SummaryWorkers)
	assert.False(t, cfg.GitHubPrecheck)
	assert.Equal(t, 100, cfg.MaxContextSummaries, "unparseable ints fall back to the default")
	assert.Equal(t, 15*time.Minute, cfg.JobRetention)
	assert.Equal(t, "https://chat.example.com/explain/abc", cfg.ExplainURL("abc"))
}

func TestLoad_OpenAIKeyFallback(t *testing.T) {
	t.Setenv("AI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	assert.Equal(t, "sk-test", Load().AIAPIKey)
}
