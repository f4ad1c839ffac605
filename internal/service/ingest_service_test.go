package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arturoeanton/codechat/internal/domain"
	"github.com/arturoeanton/codechat/internal/port"
)

const widgetURL = "https://github.com/acme/widget"

type ingestFixture struct {
	store    port.RepoStore
	cloner   *fakeCloner
	ai       *fakeAI
	notifier *fakeNotifier
	root     string
	svc      *IngestService
}

func newIngestFixture(t *testing.T, files map[string][]byte, workers int) *ingestFixture {
	t.Helper()
	f := &ingestFixture{
		store:    newTestStore(t),
		cloner:   &fakeCloner{files: files},
		notifier: &fakeNotifier{},
		root:     t.TempDir(),
	}
	f.ai = &fakeAI{fn: func(req port.CompletionRequest) (string, error) {
		if req.MaxTokens == projectSummaryTokens {
			return "  the project  ", nil
		}
		return "summary of " + fileContent(req), nil
	}}
	f.svc = NewIngestService(
		f.store,
		NewFetcher(f.cloner, f.root),
		NewSummarizer(f.ai, "file-model", "project-model"),
		f.notifier,
		IngestOptions{MaxFileSize: 32 * 1024, Workers: workers},
	)
	return f
}

func TestIngest_Success(t *testing.T) {
	f := newIngestFixture(t, map[string][]byte{
		".git/HEAD": []byte("ref: refs/heads/main\n"),
		"README":    []byte("readme body"),
		"main":      []byte("main body"),
	}, 2)
	f.ai.fn = func(req port.CompletionRequest) (string, error) {
		switch {
		case req.MaxTokens == projectSummaryTokens:
			return "aggregate\n", nil
		case fileContent(req) == "readme body":
			return "S1", nil
		default:
			return "S2", nil
		}
	}
	seedRepo(t, f.store, "id-1", widgetURL, "dev@example.com")

	var steps []string
	res, err := f.svc.Ingest(context.Background(), "id-1", "user-key", func(s string) { steps = append(steps, s) })
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeSucceeded, res.Outcome)

	project := f.ai.projectCalls()
	require.Len(t, project, 1)
	assert.Equal(t, "S1 S2\n\n.git/HEAD\nREADME\nmain", project[0].Messages[1].Content)
	assert.Equal(t, projectSummaryPrompt, project[0].Messages[0].Content)
	assert.Equal(t, "project-model", project[0].Model)

	for _, c := range f.ai.Calls() {
		assert.InDelta(t, 0.5, c.Temperature, 1e-9)
		if c.MaxTokens == fileSummaryTokens {
			assert.Equal(t, "file-model", c.Model)
		}
	}
	for _, cred := range f.ai.creds {
		assert.Equal(t, "user-key", cred)
	}

	r, err := f.store.GetByID(context.Background(), "id-1")
	require.NoError(t, err)
	assert.True(t, r.IsProcessed)
	assert.Equal(t, "aggregate", r.Summary)
	assert.Equal(t, []string{"S1", "S2"}, r.FileSummaries)
	assert.Empty(t, r.ProcessingError)

	sent := f.notifier.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, domain.OutcomeSucceeded, sent[0].Outcome)
	assert.Equal(t, "id-1", sent[0].RecordID)
	assert.Equal(t, widgetURL, sent[0].SourceURL)
	assert.Equal(t, []string{"dev@example.com"}, sent[0].Addresses)

	assert.Equal(t, []string{StepFetch, StepFilter, StepSummarize, StepAggregate, StepPersist, StepNotify}, steps)
	assert.Empty(t, dirEntries(t, f.root), "workspace removed")
}

func TestIngest_PartialFailure(t *testing.T) {
	f := newIngestFixture(t, map[string][]byte{
		"a.go": []byte("file one"),
		"b.go": []byte("file two"),
		"c.go": []byte("file three"),
	}, 1)
	f.ai.fn = func(req port.CompletionRequest) (string, error) {
		if req.MaxTokens == projectSummaryTokens {
			return "aggregate", nil
		}
		if fileContent(req) == "file two" {
			return "", errors.New("boom")
		}
		return "summary of " + fileContent(req), nil
	}
	seedRepo(t, f.store, "id-1", widgetURL, "dev@example.com")

	_, err := f.svc.Ingest(context.Background(), "id-1", "", nil)
	require.NoError(t, err)

	r, err := f.store.GetByID(context.Background(), "id-1")
	require.NoError(t, err)
	assert.Len(t, r.FileSummaries, 2)
	assert.Equal(t, []string{"summary of file one", "summary of file three"}, r.FileSummaries)
	assert.NotEmpty(t, r.Summary)
	assert.True(t, r.IsProcessed)
}

func TestIngest_KeepsOrderWithWorkers(t *testing.T) {
	files := map[string][]byte{}
	var want []string
	for _, name := range []string{"f0", "f1", "f2", "f3", "f4", "f5", "f6", "f7"} {
		files[name] = []byte(name)
		want = append(want, "summary of "+name)
	}
	f := newIngestFixture(t, files, 4)
	seedRepo(t, f.store, "id-1", widgetURL, "dev@example.com")

	_, err := f.svc.Ingest(context.Background(), "id-1", "", nil)
	require.NoError(t, err)

	r, err := f.store.GetByID(context.Background(), "id-1")
	require.NoError(t, err)
	assert.Equal(t, want, r.FileSummaries)
	assert.Equal(t, "the project", r.Summary)
}

func TestIngest_EmptyRepository(t *testing.T) {
	f := newIngestFixture(t, map[string][]byte{
		".git/HEAD": []byte("ref: refs/heads/main\n"),
		"image.bin": {0xff, 0xfe, 0x00, 0x81},
		"large.txt": make([]byte, 32*1024+1),
	}, 2)
	seedRepo(t, f.store, "id-1", widgetURL, "dev@example.com")

	res, err := f.svc.Ingest(context.Background(), "id-1", "", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeEmptyRepository, res.Outcome)
	assert.Nil(t, res.Repo)

	_, err = f.store.GetByID(context.Background(), "id-1")
	assert.ErrorIs(t, err, port.ErrRepoNotFound)

	sent := f.notifier.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, domain.OutcomeEmptyRepository, sent[0].Outcome)
	assert.Empty(t, sent[0].RecordID)
	assert.Empty(t, f.ai.Calls())
	assert.Empty(t, dirEntries(t, f.root))
}

func TestIngest_FetchError(t *testing.T) {
	f := newIngestFixture(t, nil, 1)
	f.cloner.err = errors.New("not found")
	seedRepo(t, f.store, "id-1", widgetURL, "dev@example.com")

	_, err := f.svc.Ingest(context.Background(), "id-1", "", nil)
	var fe *port.FetchError
	require.ErrorAs(t, err, &fe)

	r, err := f.store.GetByID(context.Background(), "id-1")
	require.NoError(t, err)
	assert.Equal(t, "not found", r.ProcessingError)
	assert.True(t, r.IsProcessed)
	assert.Empty(t, f.notifier.Sent())
	assert.Empty(t, f.ai.Calls())
	require.Len(t, f.cloner.dests, 1)
	assert.NoDirExists(t, f.cloner.dests[0])
}

func TestIngest_ProjectSummaryFailureIsRecorded(t *testing.T) {
	f := newIngestFixture(t, map[string][]byte{"README": []byte("readme")}, 1)
	f.ai.fn = func(req port.CompletionRequest) (string, error) {
		if req.MaxTokens == projectSummaryTokens {
			return "", errors.New("rate limited")
		}
		return "S1", nil
	}
	seedRepo(t, f.store, "id-1", widgetURL, "dev@example.com")

	_, err := f.svc.Ingest(context.Background(), "id-1", "", nil)
	var se *port.SummarizationError
	require.ErrorAs(t, err, &se)

	r, err := f.store.GetByID(context.Background(), "id-1")
	require.NoError(t, err)
	assert.True(t, r.IsProcessed)
	assert.Contains(t, r.ProcessingError, "rate limited")
	assert.Empty(t, r.FileSummaries)
	assert.Empty(t, f.notifier.Sent())
	assert.Empty(t, dirEntries(t, f.root))
}

func TestIngest_NotificationFailureIsNotFatal(t *testing.T) {
	f := newIngestFixture(t, map[string][]byte{"README": []byte("readme")}, 1)
	f.notifier.err = &port.NotificationError{Err: errors.New("smtp down")}
	seedRepo(t, f.store, "id-1", widgetURL, "dev@example.com")

	res, err := f.svc.Ingest(context.Background(), "id-1", "", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeSucceeded, res.Outcome)

	r, err := f.store.GetByID(context.Background(), "id-1")
	require.NoError(t, err)
	assert.True(t, r.IsProcessed)
	assert.Empty(t, r.ProcessingError)
}

func TestIngest_NotifiesContactsAddedDuringRun(t *testing.T) {
	f := newIngestFixture(t, map[string][]byte{"README": []byte("readme")}, 1)
	seedRepo(t, f.store, "id-1", widgetURL, "first@example.com")
	f.ai.fn = func(req port.CompletionRequest) (string, error) {
		if req.MaxTokens == fileSummaryTokens {
			require.NoError(t, f.store.AddContact(context.Background(), "id-1", "second@example.com"))
		}
		return "ok", nil
	}

	_, err := f.svc.Ingest(context.Background(), "id-1", "", nil)
	require.NoError(t, err)

	sent := f.notifier.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, []string{"first@example.com", "second@example.com"}, sent[0].Addresses)
}

func TestIngest_UnknownRecord(t *testing.T) {
	f := newIngestFixture(t, nil, 1)
	_, err := f.svc.Ingest(context.Background(), "missing", "", nil)
	assert.ErrorIs(t, err, port.ErrRepoNotFound)
	assert.Empty(t, f.cloner.dests)
}
