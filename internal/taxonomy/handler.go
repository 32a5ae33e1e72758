package taxonomy

import (
	"net/url"

	"github.com/Kyz7/portfolio/internal/registry"
	"github.com/Kyz7/portfolio/internal/response"
	"github.com/Kyz7/portfolio/internal/validate"
	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	categories *CategoryService
	tags       *TagService
}

func NewHandler(categories *CategoryService, tags *TagService) *Handler {
	return &Handler{categories: categories, tags: tags}
}

type nameRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

func parseName(c *fiber.Ctx) (string, bool) {
	name, err := url.PathUnescape(c.Params("name"))
	if err != nil || name == "" {
		return "", false
	}
	return name, true
}

func (h *Handler) ListCategories(t registry.ResourceType) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cats, err := h.categories.List(c.UserContext(), t)
		if err != nil {
			return response.FromError(c, err)
		}
		return response.Success(c, cats, "Categories retrieved successfully")
	}
}

func (h *Handler) AddCategory(t registry.ResourceType) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body nameRequest
		if err := c.BodyParser(&body); err != nil {
			return response.BadRequest(c, "Invalid request body", err.Error())
		}
		if errs := validate.Struct(body); errs != nil {
			return response.ValidationError(c, errs)
		}

		cat, err := h.categories.Add(c.UserContext(), t, body.Name)
		if err != nil {
			return response.FromError(c, err)
		}
		return response.Created(c, cat, "Category created successfully")
	}
}

func (h *Handler) RenameCategory(t registry.ResourceType) fiber.Handler {
	return func(c *fiber.Ctx) error {
		oldName, ok := parseName(c)
		if !ok {
			return response.BadRequest(c, "Invalid category name", nil)
		}

		var body nameRequest
		if err := c.BodyParser(&body); err != nil {
			return response.BadRequest(c, "Invalid request body", err.Error())
		}
		if errs := validate.Struct(body); errs != nil {
			return response.ValidationError(c, errs)
		}

		n, err := h.categories.Rename(c.UserContext(), t, oldName, body.Name)
		if err != nil {
			return response.FromError(c, err)
		}
		return response.Success(c, fiber.Map{
			"old_name":           oldName,
			"new_name":           body.Name,
			"resources_affected": n,
		}, "Category renamed successfully")
	}
}

func (h *Handler) DeleteCategory(t registry.ResourceType) fiber.Handler {
	return func(c *fiber.Ctx) error {
		name, ok := parseName(c)
		if !ok {
			return response.BadRequest(c, "Invalid category name", nil)
		}

		if err := h.categories.Delete(c.UserContext(), t, name); err != nil {
			return response.FromError(c, err)
		}
		return response.Success(c, fiber.Map{"name": name}, "Category deleted successfully")
	}
}

func (h *Handler) ListTags(c *fiber.Ctx) error {
	tags, err := h.tags.List(c.UserContext())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, tags, "Tags retrieved successfully")
}

func (h *Handler) CreateTag(c *fiber.Ctx) error {
	var body nameRequest
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}
	if errs := validate.Struct(body); errs != nil {
		return response.ValidationError(c, errs)
	}

	tag, err := h.tags.Create(c.UserContext(), body.Name)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, tag, "Tag created successfully")
}

func (h *Handler) RenameTag(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid tag ID", nil)
	}

	var body nameRequest
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}
	if errs := validate.Struct(body); errs != nil {
		return response.ValidationError(c, errs)
	}

	n, err := h.tags.Rename(c.UserContext(), uint(id), body.Name)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, fiber.Map{"id": id, "name": body.Name, "resources_affected": n}, "Tag renamed successfully")
}

func (h *Handler) DeleteTag(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid tag ID", nil)
	}

	n, err := h.tags.Delete(c.UserContext(), uint(id))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, fiber.Map{"id": id, "resources_affected": n}, "Tag deleted successfully")
}

func (h *Handler) SyncTags(c *fiber.Ctx) error {
	n, err := h.tags.Sync(c.UserContext())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, fiber.Map{"tags": n}, "Tags synced successfully")
}
