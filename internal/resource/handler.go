package resource

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/Kyz7/portfolio/internal/auth"
	"github.com/Kyz7/portfolio/internal/models"
	"github.com/Kyz7/portfolio/internal/registry"
	"github.com/Kyz7/portfolio/internal/response"
	"github.com/Kyz7/portfolio/internal/validate"
	"github.com/gofiber/fiber/v2"
)

// FavoriteLookup tells which of ids the user has favorited.
type FavoriteLookup interface {
	FavoritedIDs(ctx context.Context, userID uint, ids []uint) (map[uint]bool, error)
}

// Events receives resource level events, e.g. for metrics.
type Events interface {
	ResourceCreated(t registry.ResourceType)
	ResourceLiked(t registry.ResourceType)
	StatusChanged(t registry.ResourceType, status models.ModerationStatus)
}

type Handler struct {
	svc       *Service
	favorites FavoriteLookup
	events    Events
	log       *slog.Logger
}

func NewHandler(svc *Service, favorites FavoriteLookup, events Events, log *slog.Logger) *Handler {
	return &Handler{svc: svc, favorites: favorites, events: events, log: log}
}

func paramID(c *fiber.Ctx) (uint, bool) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, false
	}
	return uint(id), true
}

func (h *Handler) fail(c *fiber.Ctx, err error) error {
	var fe *FieldError
	if errors.As(err, &fe) {
		return response.ValidationError(c, fe.Fields)
	}
	return response.FromError(c, err)
}

// authorizeOwner lets admins and the uploader through. When it reports
// false the response has already been written.
func (h *Handler) authorizeOwner(c *fiber.Ctx, t registry.ResourceType, id uint) (bool, error) {
	p := auth.PrincipalFrom(c)
	if p == nil {
		return false, response.Unauthorized(c, "User not authenticated")
	}
	if p.IsAdmin() {
		return true, nil
	}

	owner, err := h.svc.Owner(c.UserContext(), t, id)
	if err != nil {
		return false, h.fail(c, err)
	}
	if owner == nil || *owner != p.ID {
		return false, response.Forbidden(c, "You can only modify your own uploads")
	}
	return true, nil
}

func (h *Handler) filtersFromQuery(c *fiber.Ctx) Filters {
	f := Filters{
		Status:    c.Query("status"),
		Category:  c.Query("category"),
		Tag:       c.Query("tag"),
		Tags:      c.Query("tags"),
		Search:    c.Query("search", c.Query("q")),
		Lifecycle: strings.ToLower(c.Query("lifecycle")),
		Trashed:   c.QueryBool("trashed", false),
		Sort:      ParseSort(c.Query("sort")),
		Page:      c.QueryInt("page", 1),
		Limit:     c.QueryInt("limit", 0),
	}
	if uid := c.QueryInt("uploader_id", 0); uid > 0 {
		id := uint(uid)
		f.UploaderID = &id
	}
	if v := c.Query("featured"); v != "" {
		featured := c.QueryBool("featured", false)
		f.Featured = &featured
	}
	return f
}

// canSeeHidden reports whether the caller may list trashed or unapproved
// resources under f: admins always, users only their own uploads.
func canSeeHidden(p *auth.Principal, f Filters) bool {
	if p.IsAdmin() {
		return true
	}
	return p != nil && f.UploaderID != nil && *f.UploaderID == p.ID
}

func (h *Handler) markFavorites(c *fiber.Ctx, items []map[string]interface{}) {
	p := auth.PrincipalFrom(c)
	if p == nil || h.favorites == nil || len(items) == 0 {
		return
	}

	ids := make([]uint, 0, len(items))
	for _, it := range items {
		if id, ok := it["id"].(uint); ok {
			ids = append(ids, id)
		}
	}

	favorited, err := h.favorites.FavoritedIDs(c.UserContext(), p.ID, ids)
	if err != nil {
		h.log.Warn("failed to load favorites", slog.Any("err", err))
		return
	}
	for _, it := range items {
		id, _ := it["id"].(uint)
		it["favorited"] = favorited[id]
	}
}

func (h *Handler) List(t registry.ResourceType) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f := h.filtersFromQuery(c)
		hidden := f.Trashed || (f.Status != "" && f.Status != string(models.StatusApproved))
		if hidden && !canSeeHidden(auth.PrincipalFrom(c), f) {
			return response.Forbidden(c, "You don't have permission to list these resources")
		}

		page, err := h.svc.List(c.UserContext(), t, f)
		if err != nil {
			return h.fail(c, err)
		}
		h.markFavorites(c, page.Items)

		return response.SuccessWithMeta(c, page.Items, response.CalculateMeta(page.Page, page.Limit, page.Total), "Resources retrieved successfully")
	}
}

func (h *Handler) Get(t registry.ResourceType) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := paramID(c)
		if !ok {
			return response.BadRequest(c, "Invalid resource ID", nil)
		}

		out, err := h.svc.Get(c.UserContext(), t, id)
		if err != nil {
			return h.fail(c, err)
		}

		// trashed and unapproved items are only visible to admins and their uploader
		p := auth.PrincipalFrom(c)
		visible := out["deleted_at"] == nil && out["status"] == models.StatusApproved
		if !visible && !p.IsAdmin() {
			uploader, _ := out["uploader_id"].(*uint)
			if p == nil || uploader == nil || *uploader != p.ID {
				return response.NotFound(c, "Resource")
			}
		}

		if out["deleted_at"] == nil {
			if views, err := h.svc.View(c.UserContext(), t, id); err == nil {
				out["views"] = views
			} else {
				h.log.Warn("failed to count view", slog.Uint64("id", uint64(id)), slog.Any("err", err))
			}
		}
		h.markFavorites(c, []map[string]interface{}{out})

		return response.Success(c, out, "Resource retrieved successfully")
	}
}

func (h *Handler) Create(t registry.ResourceType) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := auth.PrincipalFrom(c)
		if p == nil {
			return response.Unauthorized(c, "User not authenticated")
		}

		var body map[string]interface{}
		if err := c.BodyParser(&body); err != nil {
			return response.BadRequest(c, "Invalid request body", err.Error())
		}

		out, err := h.svc.Create(c.UserContext(), t, body, p)
		if err != nil {
			return h.fail(c, err)
		}
		if h.events != nil {
			h.events.ResourceCreated(t)
		}

		return response.Created(c, out, "Resource created successfully")
	}
}

func (h *Handler) Update(t registry.ResourceType) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := paramID(c)
		if !ok {
			return response.BadRequest(c, "Invalid resource ID", nil)
		}
		if ok, err := h.authorizeOwner(c, t, id); !ok {
			return err
		}

		var body map[string]interface{}
		if err := c.BodyParser(&body); err != nil {
			return response.BadRequest(c, "Invalid request body", err.Error())
		}

		out, err := h.svc.Update(c.UserContext(), t, id, body)
		if err != nil {
			return h.fail(c, err)
		}
		return response.Success(c, out, "Resource updated successfully")
	}
}

func (h *Handler) SoftDelete(t registry.ResourceType) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := paramID(c)
		if !ok {
			return response.BadRequest(c, "Invalid resource ID", nil)
		}
		if ok, err := h.authorizeOwner(c, t, id); !ok {
			return err
		}

		if err := h.svc.SoftDelete(c.UserContext(), t, id); err != nil {
			return h.fail(c, err)
		}
		return response.Success(c, fiber.Map{"id": id}, "Resource moved to trash")
	}
}

func (h *Handler) Restore(t registry.ResourceType) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := paramID(c)
		if !ok {
			return response.BadRequest(c, "Invalid resource ID", nil)
		}

		if err := h.svc.Restore(c.UserContext(), t, id); err != nil {
			return h.fail(c, err)
		}
		return response.Success(c, fiber.Map{"id": id}, "Resource restored")
	}
}

func (h *Handler) PermanentDelete(t registry.ResourceType) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := paramID(c)
		if !ok {
			return response.BadRequest(c, "Invalid resource ID", nil)
		}

		if err := h.svc.PermanentDelete(c.UserContext(), t, id); err != nil {
			return h.fail(c, err)
		}
		return response.Success(c, fiber.Map{"id": id}, "Resource permanently deleted")
	}
}

func (h *Handler) Like(t registry.ResourceType) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := paramID(c)
		if !ok {
			return response.BadRequest(c, "Invalid resource ID", nil)
		}

		likes, err := h.svc.Like(c.UserContext(), t, id)
		if err != nil {
			return h.fail(c, err)
		}
		if h.events != nil {
			h.events.ResourceLiked(t)
		}
		return response.Success(c, fiber.Map{"id": id, "likes": likes}, "Liked")
	}
}

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending approved rejected"`
	Reason string `json:"reason" validate:"max=1000"`
}

func (h *Handler) SetStatus(t registry.ResourceType) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := paramID(c)
		if !ok {
			return response.BadRequest(c, "Invalid resource ID", nil)
		}

		var body statusRequest
		if err := c.BodyParser(&body); err != nil {
			return response.BadRequest(c, "Invalid request body", err.Error())
		}
		if errs := validate.Struct(body); errs != nil {
			return response.ValidationError(c, errs)
		}

		status := models.ModerationStatus(body.Status)
		out, err := h.svc.SetStatus(c.UserContext(), t, id, status, body.Reason, auth.PrincipalFrom(c))
		if err != nil {
			return h.fail(c, err)
		}
		if h.events != nil {
			h.events.StatusChanged(t, status)
		}
		return response.Success(c, out, "Status updated successfully")
	}
}

func (h *Handler) ListPending(c *fiber.Ctx) error {
	page, err := h.svc.ListPending(c.UserContext(), c.QueryInt("page", 1), c.QueryInt("limit", 20))
	if err != nil {
		return h.fail(c, err)
	}
	return response.SuccessWithMeta(c, page.Items, response.CalculateMeta(page.Page, page.Limit, page.Total), "Pending resources retrieved successfully")
}

// Schema describes the public field mapping of every resource type.
func (h *Handler) Schema(c *fiber.Ctx) error {
	return response.Success(c, registry.Describe(), "Resource schema retrieved successfully")
}
