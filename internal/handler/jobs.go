package handler

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/arturoeanton/codechat/internal/domain"
	"github.com/arturoeanton/codechat/internal/port"
	"github.com/arturoeanton/codechat/internal/service"
)

// JobsHandler exposes ingestion job state.
type JobsHandler struct {
	runner     *service.Runner
	streamTTL  time.Duration
	pollPeriod time.Duration
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(runner *service.Runner) *JobsHandler {
	return &JobsHandler{runner: runner, streamTTL: 10 * time.Minute, pollPeriod: 5 * time.Second}
}

// Register sets up job routes.
func (h *JobsHandler) Register(router fiber.Router) {
	jobs := router.Group("/jobs")
	jobs.Get("/:id", h.GetStatus)
	jobs.Get("/:id/stream", h.StreamSSE)
}

// GetStatus returns the current job status.
func (h *JobsHandler) GetStatus(c fiber.Ctx) error {
	job, ok := h.runner.Get(c.Params("id"))
	if !ok {
		return writeError(c, port.ErrJobNotFound)
	}
	return c.JSON(job)
}

// StreamSSE streams job updates via Server-Sent Events.
func (h *JobsHandler) StreamSSE(c fiber.Ctx) error {
	id := c.Params("id")

	job, ok := h.runner.Get(id)
	if !ok {
		return writeError(c, port.ErrJobNotFound)
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")

	if job.Done() {
		return c.SendString(sseEvent(job))
	}

	ch := h.runner.Subscribe(id)

	return c.SendStreamWriter(func(w *bufio.Writer) {
		defer h.runner.Unsubscribe(id, ch)

		// Re-read after subscribing so a transition in between is not lost.
		if current, ok := h.runner.Get(id); ok {
			job = current
		}
		fmt.Fprint(w, sseEvent(job))
		if err := w.Flush(); err != nil || job.Done() {
			return
		}

		timeout := time.After(h.streamTTL)
		poll := time.NewTicker(h.pollPeriod)
		defer poll.Stop()
		for {
			var update domain.Job
			select {
			case u, ok := <-ch:
				if !ok {
					return
				}
				update = u
			case <-poll.C:
				// Catches a terminal update dropped by a full buffer.
				current, ok := h.runner.Get(id)
				if !ok || !current.Done() {
					continue
				}
				update = *current
			case <-timeout:
				slog.Warn("SSE timeout", "job_id", id)
				return
			}

			fmt.Fprint(w, sseEvent(&update))
			if err := w.Flush(); err != nil {
				return
			}
			if update.Done() {
				return
			}
		}
	})
}

func sseEvent(job *domain.Job) string {
	event := "progress"
	if job.Done() {
		event = job.Status
	}
	data, _ := json.Marshal(job)
	return fmt.Sprintf("event: %s\ndata: %s\n\n", event, data)
}
