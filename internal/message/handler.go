package message

import (
	"strconv"

	"github.com/Kyz7/portfolio/internal/response"
	"github.com/Kyz7/portfolio/internal/validate"
	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type submitRequest struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,email,max=255"`
	Message string `json:"message" validate:"required,max=5000"`
}

func (h *Handler) Submit(c *fiber.Ctx) error {
	var body submitRequest
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}
	if errs := validate.Struct(body); errs != nil {
		return response.ValidationError(c, errs)
	}

	m, err := h.svc.Submit(c.UserContext(), body.Name, body.Email, body.Message)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, fiber.Map{"id": m.ID}, "Message sent successfully")
}

// List also reports the unread count in the X-Unread-Count header.
func (h *Handler) List(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	msgs, total, unread, err := h.svc.List(c.UserContext(), page, limit)
	if err != nil {
		return response.FromError(c, err)
	}
	c.Set("X-Unread-Count", strconv.FormatInt(unread, 10))
	return response.SuccessWithMeta(c, msgs, response.CalculateMeta(page, limit, total), "Messages retrieved successfully")
}

func (h *Handler) MarkRead(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid message ID", nil)
	}

	if err := h.svc.MarkRead(c.UserContext(), uint(id)); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, fiber.Map{"id": id}, "Message marked as read")
}

func (h *Handler) Delete(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid message ID", nil)
	}

	if err := h.svc.Delete(c.UserContext(), uint(id)); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, fiber.Map{"id": id}, "Message deleted")
}
