package favorite

import (
	"github.com/Kyz7/portfolio/internal/auth"
	"github.com/Kyz7/portfolio/internal/registry"
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

type toggleRequest struct {
	ResourceType string `json:"resource_type" validate:"required"`
	ResourceID   uint   `json:"resource_id" validate:"required"`
}

func (h *Handler) Toggle(c *fiber.Ctx) error {
	p := auth.PrincipalFrom(c)
	if p == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	var body toggleRequest
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}
	if errs := validate.Struct(body); errs != nil {
		return response.ValidationError(c, errs)
	}
	t, err := registry.ParseType(body.ResourceType)
	if err != nil {
		return response.FromError(c, err)
	}

	favorited, err := h.svc.Toggle(c.UserContext(), p.ID, t, body.ResourceID)
	if err != nil {
		return response.FromError(c, err)
	}

	msg := "Removed from favorites"
	if favorited {
		msg = "Added to favorites"
	}
	return response.Success(c, fiber.Map{
		"resource_type": t,
		"resource_id":   body.ResourceID,
		"favorited":     favorited,
	}, msg)
}

func (h *Handler) List(c *fiber.Ctx) error {
	p := auth.PrincipalFrom(c)
	if p == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	var t registry.ResourceType
	if q := c.Query("type"); q != "" {
		parsed, err := registry.ParseType(q)
		if err != nil {
			return response.FromError(c, err)
		}
		t = parsed
	}

	items, err := h.svc.List(c.UserContext(), p.ID, t)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, items, "Favorites retrieved successfully")
}

func (h *Handler) Check(c *fiber.Ctx) error {
	p := auth.PrincipalFrom(c)
	if p == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid resource ID", nil)
	}

	favorited, err := h.svc.Check(c.UserContext(), p.ID, uint(id))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, fiber.Map{"resource_id": id, "favorited": favorited}, "Favorite status retrieved")
}
