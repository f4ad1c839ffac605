package handler

import (
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/arturoeanton/codechat/internal/middleware"
	"github.com/arturoeanton/codechat/internal/service"
)

const notReadyMessage = "Processing is not yet complete. Please wait for an email notification."

// RepoHandler handles submissions and the explain view.
type RepoHandler struct {
	repos *service.RepoService
}

// NewRepoHandler creates a new repo handler.
func NewRepoHandler(repos *service.RepoService) *RepoHandler {
	return &RepoHandler{repos: repos}
}

// Register sets up repo routes under the API group.
func (h *RepoHandler) Register(api fiber.Router) {
	repos := api.Group("/repos")
	repos.Post("/", h.Submit)
	repos.Get("/:id", h.Get)
}

// RegisterPublic sets up the routes linked from notification emails.
func (h *RepoHandler) RegisterPublic(app fiber.Router) {
	app.Post("/submit", h.Submit)
	app.Get("/explain/:id", h.Explain)
}

type submitRequest struct {
	URL       string `json:"url" form:"url"`
	GitHubURL string `json:"githubUrl" form:"githubUrl"`
	Email     string `json:"email" form:"email"`
}

// Submit registers a repository for ingestion.
func (h *RepoHandler) Submit(c fiber.Ctx) error {
	var body submitRequest
	if err := c.Bind().Body(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}
	url := body.URL
	if url == "" {
		url = body.GitHubURL
	}
	if strings.TrimSpace(url) == "" || strings.TrimSpace(body.Email) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Repository URL and email are both required."})
	}

	sub, err := h.repos.Submit(c.Context(), url, body.Email, middleware.GetCredential(c))
	if err != nil {
		slog.Warn("submission rejected", "url", url, "error", err)
		return writeError(c, err)
	}

	switch sub.Status {
	case service.SubmitProcessed:
		return c.Redirect().Status(fiber.StatusSeeOther).To("/explain/" + sub.Repo.ID)
	case service.SubmitInProgress:
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"id":      sub.Repo.ID,
			"status":  sub.Status,
			"message": "Repository is currently being processed.",
		})
	default:
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"id":      sub.Repo.ID,
			"status":  sub.Status,
			"job_url": "/api/v1/jobs/" + sub.Repo.ID,
			"message": "Repository processing started. You will receive an email when it is complete.",
		})
	}
}

// Get returns the record.
func (h *RepoHandler) Get(c fiber.Ctx) error {
	repo, err := h.repos.Get(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(repo)
}

// Explain returns the project summary once the record is processed.
func (h *RepoHandler) Explain(c fiber.Ctx) error {
	repo, err := h.repos.Get(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	if !repo.IsProcessed {
		return c.JSON(fiber.Map{"id": repo.ID, "status": "processing", "message": notReadyMessage})
	}
	resp := fiber.Map{
		"id":         repo.ID,
		"source_url": repo.SourceURL,
		"status":     "processed",
		"summary":    repo.Summary,
		"chat_url":   "/api/v1/repos/" + repo.ID + "/chat",
	}
	if repo.Failed() {
		resp["status"] = "failed"
		resp["error"] = repo.ProcessingError
	}
	return c.JSON(resp)
}
