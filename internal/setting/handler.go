package setting

import (
	"encoding/json"

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

type setRequest struct {
	Key   string      `json:"key" validate:"required,max=100"`
	Value interface{} `json:"value"`
}

func (h *Handler) List(c *fiber.Ctx) error {
	settings, err := h.svc.All(c.UserContext())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, settings, "Settings retrieved successfully")
}

func (h *Handler) Set(c *fiber.Ctx) error {
	var body setRequest
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}
	if errs := validate.Struct(body); errs != nil {
		return response.ValidationError(c, errs)
	}

	value := text(body.Value)
	if err := h.svc.Set(c.UserContext(), body.Key, value); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, fiber.Map{"key": body.Key, "value": value}, "Setting updated successfully")
}

// text stores strings as is and any other JSON value as its encoding.
func text(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
