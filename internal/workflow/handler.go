package workflow

import (
	"github.com/Kyz7/portfolio/internal/response"
	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) ListAuditLogs(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	logs, total, err := h.svc.List(c.UserContext(), page, limit)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.SuccessWithMeta(c, logs, response.CalculateMeta(page, limit, total), "Audit logs retrieved successfully")
}

func (h *Handler) ResourceHistory(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid resource ID", nil)
	}

	logs, err := h.svc.History(c.UserContext(), uint(id))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, logs, "History retrieved successfully")
}

func (h *Handler) Statistics(c *fiber.Ctx) error {
	stats, err := h.svc.Statistics(c.UserContext())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, stats, "Workflow statistics retrieved successfully")
}
