package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/devvibe-backend/internal/service"
)

// AIHandler serves the AI proxy endpoint.
type AIHandler struct {
	AI *service.AIService
}

func NewAIHandler(ai *service.AIService) *AIHandler {
	return &AIHandler{AI: ai}
}

// Ask: forward the caller's question and relay the answer.  The call runs
// under the request context and is not retried.
func (h *AIHandler) Ask(c echo.Context) error {
	answer, err := h.AI.Ask(c.Request().Context(), ExtractQuestion(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"answer": answer})
}
