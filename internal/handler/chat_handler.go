package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/arturoeanton/codechat/internal/middleware"
	"github.com/arturoeanton/codechat/internal/service"
)

// ChatHandler answers questions about a processed repository.
type ChatHandler struct {
	chat *service.ChatService
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(chat *service.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// Register sets up chat routes under the API group.
func (h *ChatHandler) Register(api fiber.Router) {
	api.Post("/repos/:id/chat", h.Chat)
}

// RegisterPublic sets up the legacy interact route.
func (h *ChatHandler) RegisterPublic(app fiber.Router) {
	app.Post("/interact/:id", h.Chat)
}

// Chat handles one question.
func (h *ChatHandler) Chat(c fiber.Ctx) error {
	var body struct {
		Question string `json:"question"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}

	answer, err := h.chat.Answer(c.Context(), c.Params("id"), body.Question, middleware.GetCredential(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"answer": answer})
}
