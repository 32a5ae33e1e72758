package search

import (
	"github.com/Kyz7/portfolio/internal/registry"
	"github.com/Kyz7/portfolio/internal/response"
	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Search(c *fiber.Ctx) error {
	q := c.Query("q")
	if q == "" {
		return response.BadRequest(c, "Query parameter q is required", nil)
	}

	results, err := h.svc.SearchAll(c.UserContext(), q)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, results, "Search completed successfully")
}

func (h *Handler) Featured(c *fiber.Ctx) error {
	items, err := h.svc.Featured(c.UserContext())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, items, "Featured resources retrieved successfully")
}

func (h *Handler) Stats(c *fiber.Ctx) error {
	stats, err := h.svc.Stats(c.UserContext())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, stats, "Statistics retrieved successfully")
}

func (h *Handler) Suggest(c *fiber.Ctx) error {
	t, err := registry.ParseType(c.Query("type"))
	if err != nil {
		return response.FromError(c, err)
	}

	titles, err := h.svc.Suggest(c.UserContext(), t, c.Query("prefix"), c.QueryInt("limit", 10))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, titles, "Suggestions retrieved successfully")
}
