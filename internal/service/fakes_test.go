package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arturoeanton/codechat/internal/adapter/store"
	"github.com/arturoeanton/codechat/internal/domain"
	"github.com/arturoeanton/codechat/internal/port"
)

// fakeCloner writes a fixed tree into the destination.
type fakeCloner struct {
	files map[string][]byte
	err   error
	dests []string
}

func (c *fakeCloner) Clone(_ context.Context, _ string, dest string) error {
	c.dests = append(c.dests, dest)
	if c.err != nil {
		// Leave a partial clone behind so cleanup is observable.
		_ = os.WriteFile(filepath.Join(dest, "partial"), []byte("x"), 0o644)
		return c.err
	}
	for name, data := range c.files {
		p := filepath.Join(dest, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(p, data, 0o644); err != nil {
			return err
		}
	}
	return nil
}

// fakeAI records requests and answers through fn.
type fakeAI struct {
	mu    sync.Mutex
	calls []port.CompletionRequest
	creds []string
	fn    func(req port.CompletionRequest) (string, error)
}

func (a *fakeAI) ModelName() string { return "fake" }

func (a *fakeAI) Complete(_ context.Context, req port.CompletionRequest, credential string) (string, error) {
	a.mu.Lock()
	a.calls = append(a.calls, req)
	a.creds = append(a.creds, credential)
	a.mu.Unlock()
	return a.fn(req)
}

func (a *fakeAI) Calls() []port.CompletionRequest {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]port.CompletionRequest(nil), a.calls...)
}

// projectCalls returns the requests made for the project-level summary.
func (a *fakeAI) projectCalls() []port.CompletionRequest {
	var out []port.CompletionRequest
	for _, c := range a.Calls() {
		if c.MaxTokens == projectSummaryTokens {
			out = append(out, c)
		}
	}
	return out
}

// fileContent extracts the file body from a per-file summary request.
func fileContent(req port.CompletionRequest) string {
	return strings.TrimPrefix(req.Messages[len(req.Messages)-1].Content, "Please summarize the following content:\n\n")
}

type notification struct {
	Addresses []string
	Outcome   domain.Outcome
	SourceURL string
	RecordID  string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []notification
	err  error
}

func (n *fakeNotifier) Notify(_ context.Context, addresses []string, outcome domain.Outcome, sourceURL, recordID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification{addresses, outcome, sourceURL, recordID})
	return n.err
}

func (n *fakeNotifier) Sent() []notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notification(nil), n.sent...)
}

func newTestStore(t *testing.T) *store.SQLStore {
	t.Helper()
	s, err := store.Open(context.Background(), "sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedRepo(t *testing.T, s port.RepoStore, id, url string, contacts ...string) *domain.Repo {
	t.Helper()
	r := &domain.Repo{ID: id, SourceURL: url, Contacts: contacts}
	require.NoError(t, s.Create(context.Background(), r))
	return r
}

func dirEntries(t *testing.T, dir string) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	return entries
}
