package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/asset-console/internal/api/dto"
	"github.com/spec-kit/asset-console/internal/shell"
)

// ViewsHandler renders the console's guarded views. Data for each view is
// loaded by the client from the asset API with the session's bearer token.
type ViewsHandler struct {
	sessions shell.Identity
}

// NewViewsHandler constructs handler.
func NewViewsHandler(sessions shell.Identity) *ViewsHandler {
	return &ViewsHandler{sessions: sessions}
}

// View returns a handler rendering the named view.
func (h *ViewsHandler) View(name string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(dto.ViewResponse{View: name, Nav: shell.Build(h.sessions, c.Path())})
	}
}
