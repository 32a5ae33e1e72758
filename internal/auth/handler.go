package auth

import (
	"errors"

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

func (h *Handler) Register(c *fiber.Ctx) error {
	var body struct {
		Username string `json:"username" validate:"required,min=3,max=50"`
		Password string `json:"password" validate:"required,min=6"`
		Nickname string `json:"nickname" validate:"max=100"`
	}

	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}
	if errs := validate.Struct(body); errs != nil {
		return response.ValidationError(c, errs)
	}

	u, token, err := h.svc.Register(c.UserContext(), body.Username, body.Password, body.Nickname)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Created(c, fiber.Map{
		"access_token": token,
		"user":         u,
	}, "Registration successful")
}

func (h *Handler) Login(c *fiber.Ctx) error {
	var body struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}
	if errs := validate.Struct(body); errs != nil {
		return response.ValidationError(c, errs)
	}

	u, token, err := h.svc.Login(c.UserContext(), body.Username, body.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return response.Unauthorized(c, "Invalid username or password")
		}
		return response.FromError(c, err)
	}

	return response.Success(c, fiber.Map{
		"access_token": token,
		"user":         u,
	}, "Login successful")
}

func (h *Handler) Me(c *fiber.Ctx) error {
	p := PrincipalFrom(c)
	if p == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	u, err := h.svc.Me(c.UserContext(), p.ID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, u, "User retrieved successfully")
}

func (h *Handler) UpdateProfile(c *fiber.Ctx) error {
	p := PrincipalFrom(c)
	if p == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	var body struct {
		Nickname string `json:"nickname" validate:"max=100"`
		Avatar   string `json:"avatar" validate:"max=500"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}
	if errs := validate.Struct(body); errs != nil {
		return response.ValidationError(c, errs)
	}

	u, err := h.svc.UpdateProfile(c.UserContext(), p.ID, body.Nickname, body.Avatar)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, u, "Profile updated successfully")
}

func (h *Handler) ChangePassword(c *fiber.Ctx) error {
	p := PrincipalFrom(c)
	if p == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	var body struct {
		CurrentPassword string `json:"current_password" validate:"required"`
		NewPassword     string `json:"new_password" validate:"required,min=6"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}
	if errs := validate.Struct(body); errs != nil {
		return response.ValidationError(c, errs)
	}

	if err := h.svc.ChangePassword(c.UserContext(), p.ID, body.CurrentPassword, body.NewPassword); err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return response.BadRequest(c, "Incorrect current password", nil)
		}
		return response.FromError(c, err)
	}
	return response.Success(c, nil, "Password updated successfully")
}
