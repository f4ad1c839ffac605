package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/arturoeanton/codechat/internal/domain"
)

// Ingester runs the ingestion pipeline for one record.
type Ingester interface {
	Ingest(ctx context.Context, repoID, credential string, step StepFunc) (*IngestResult, error)
}

// TaskResult is delivered exactly once per started task.
type TaskResult struct {
	RepoID string
	Result *IngestResult
	Err    error
}

// DefaultJobRetention is how long a finished job stays queryable.
const DefaultJobRetention = time.Hour

// Runner executes ingestion runs in the background and tracks their state in
// memory. Jobs are keyed by record id and evicted once finished for longer
// than the retention period.
type Runner struct {
	ingester  Ingester
	ctx       context.Context
	retention time.Duration

	mu   sync.RWMutex
	jobs map[string]*domain.Job
	subs map[string][]chan domain.Job
	wg   sync.WaitGroup
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithJobRetention sets how long finished jobs are kept.
func WithJobRetention(d time.Duration) RunnerOption {
	return func(r *Runner) { r.retention = d }
}

// NewRunner creates a runner. Runs inherit values, not cancellation, from ctx.
func NewRunner(ctx context.Context, ingester Ingester, opts ...RunnerOption) *Runner {
	r := &Runner{
		ingester:  ingester,
		ctx:       context.WithoutCancel(ctx),
		retention: DefaultJobRetention,
		jobs:      make(map[string]*domain.Job),
		subs:      make(map[string][]chan domain.Job),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start begins ingestion of repoID and returns immediately. The returned
// channel receives the run's result and is then closed.
func (r *Runner) Start(repoID, sourceURL, credential string) <-chan TaskResult {
	done := make(chan TaskResult, 1)

	job := &domain.Job{
		ID:        repoID,
		RepoID:    repoID,
		SourceURL: sourceURL,
		Status:    domain.JobStatusRunning,
		StartedAt: time.Now(),
	}
	r.mu.Lock()
	r.jobs[repoID] = job
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer close(done)

		res := TaskResult{RepoID: repoID}
		res.Result, res.Err = r.execute(repoID, credential)

		if res.Err != nil {
			r.update(repoID, func(j *domain.Job) {
				j.Status = domain.JobStatusFailed
				j.Error = res.Err.Error()
			})
		} else {
			r.update(repoID, func(j *domain.Job) {
				j.Status = domain.JobStatusComplete
				j.Step = string(res.Result.Outcome)
			})
		}
		done <- res
		time.AfterFunc(r.retention, func() { r.evict(repoID, job) })
	}()

	return done
}

func (r *Runner) execute(repoID, credential string) (res *IngestResult, err error) {
	defer func() {
		if p := recover(); p != nil {
			slog.Error("ingestion panicked", "repo_id", repoID, "panic", p)
			res, err = nil, fmt.Errorf("ingestion panicked: %v", p)
		}
	}()
	return r.ingester.Ingest(r.ctx, repoID, credential, func(step string) {
		r.update(repoID, func(j *domain.Job) { j.Step = step })
	})
}

// update mutates a job and notifies subscribers.
func (r *Runner) update(id string, fn func(*domain.Job)) {
	r.mu.Lock()
	job, ok := r.jobs[id]
	if !ok {
		r.mu.Unlock()
		return
	}
	defer r.mu.Unlock()
	fn(job)
	if job.Done() && job.CompletedAt == nil {
		now := time.Now()
		job.CompletedAt = &now
	}

	// Sends happen under the lock so Unsubscribe cannot close a channel mid-send.
	snapshot := *job
	for _, ch := range r.subs[id] {
		select {
		case ch <- snapshot:
		default:
		}
	}
}

// evict drops a finished job unless a newer run replaced it.
func (r *Runner) evict(id string, job *domain.Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.jobs[id] == job {
		delete(r.jobs, id)
	}
}

// Get returns a snapshot of the job for repoID.
func (r *Runner) Get(id string) (*domain.Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, false
	}
	snapshot := *job
	return &snapshot, true
}

// Subscribe returns a channel that receives job updates.
func (r *Runner) Subscribe(id string) chan domain.Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch := make(chan domain.Job, 10)
	r.subs[id] = append(r.subs[id], ch)
	return ch
}

// Unsubscribe removes a channel from subscribers.
func (r *Runner) Unsubscribe(id string, ch chan domain.Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	subs := r.subs[id]
	for i, s := range subs {
		if s == ch {
			r.subs[id] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(r.subs[id]) == 0 {
		delete(r.subs, id)
	}
	close(ch)
}

// Wait blocks until all running tasks finish or ctx is done.
func (r *Runner) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
