package user

import (
	"github.com/Kyz7/portfolio/internal/auth"
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

type updateRequest struct {
	Role     string `json:"role" validate:"omitempty,oneof=admin user"`
	Nickname string `json:"nickname" validate:"max=100"`
	Avatar   string `json:"avatar" validate:"max=500"`
}

func (h *Handler) List(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	users, total, err := h.svc.List(c.UserContext(), c.Query("search"), page, limit)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMeta(c, users, response.CalculateMeta(page, limit, total), "Users retrieved successfully")
}

func (h *Handler) Get(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid user ID", nil)
	}

	u, err := h.svc.Get(c.UserContext(), uint(id))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, u, "User retrieved successfully")
}

func (h *Handler) Update(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid user ID", nil)
	}

	var body updateRequest
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}
	if errs := validate.Struct(body); errs != nil {
		return response.ValidationError(c, errs)
	}

	u, err := h.svc.Update(c.UserContext(), uint(id), body.Role, body.Nickname, body.Avatar, auth.PrincipalFrom(c).ID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, u, "User updated successfully")
}

func (h *Handler) Delete(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid user ID", nil)
	}

	if err := h.svc.Delete(c.UserContext(), uint(id), auth.PrincipalFrom(c).ID); err != nil {
		return response.FromError(c, err)
	}
	return response.NoContent(c)
}
