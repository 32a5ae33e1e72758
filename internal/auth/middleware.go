package auth

import (
	"strings"

	"github.com/Kyz7/portfolio/internal/models"
	"github.com/Kyz7/portfolio/internal/response"

	"github.com/gofiber/fiber/v2"
)

const principalKey = "principal"

// Principal is the resolved identity of the caller.
type Principal struct {
	ID   uint   `json:"id"`
	Role string `json:"role"`
}

func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == models.RoleAdmin
}

// PrincipalFrom returns the caller resolved by the middleware, or nil for
// anonymous requests.
func PrincipalFrom(c *fiber.Ctx) *Principal {
	p, _ := c.Locals(principalKey).(*Principal)
	return p
}

func bearerToken(c *fiber.Ctx) (string, bool) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}

// JWTProtected rejects requests without a valid bearer token.
func (m *TokenManager) JWTProtected() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Get("Authorization") == "" {
			return response.Unauthorized(c, "Missing authorization token")
		}

		token, ok := bearerToken(c)
		if !ok {
			return response.Error(c, fiber.StatusUnauthorized, "INVALID_TOKEN_FORMAT", "Invalid token format", nil)
		}

		p, err := m.Parse(token)
		if err != nil {
			return response.Error(c, fiber.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token", nil)
		}

		c.Locals(principalKey, p)
		return c.Next()
	}
}

// OptionalAuth resolves the principal when a valid token is present and lets
// anonymous requests through otherwise.
func (m *TokenManager) OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token, ok := bearerToken(c); ok {
			if p, err := m.Parse(token); err == nil {
				c.Locals(principalKey, p)
			}
		}
		return c.Next()
	}
}

// RoleProtected must run after JWTProtected.
func RoleProtected(allowedRoles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := PrincipalFrom(c)
		if p == nil {
			return response.Unauthorized(c, "User not authenticated")
		}

		for _, role := range allowedRoles {
			if p.Role == role {
				return c.Next()
			}
		}

		return response.Forbidden(c, "You don't have permission to access this resource")
	}
}
