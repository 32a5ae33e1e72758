package event

import (
	"github.com/Kyz7/portfolio/internal/auth"
	"github.com/Kyz7/portfolio/internal/response"
	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Toggle(c *fiber.Ctx) error {
	p := auth.PrincipalFrom(c)
	if p == nil {
		return response.Unauthorized(c, "User not authenticated")
	}
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid event ID", nil)
	}

	reg, err := h.svc.ToggleRegistration(c.UserContext(), p.ID, uint(id))
	if err != nil {
		return response.FromError(c, err)
	}

	msg := "Registration cancelled"
	if reg.Registered {
		msg = "Registered for event"
	}
	return response.Success(c, reg, msg)
}

func (h *Handler) Status(c *fiber.Ctx) error {
	p := auth.PrincipalFrom(c)
	if p == nil {
		return response.Unauthorized(c, "User not authenticated")
	}
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid event ID", nil)
	}

	reg, err := h.svc.Status(c.UserContext(), p.ID, uint(id))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, reg, "Registration status retrieved")
}
