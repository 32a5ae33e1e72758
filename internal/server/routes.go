package server

import (
	"time"

	"github.com/Kyz7/portfolio/internal/auth"
	"github.com/Kyz7/portfolio/internal/config"
	"github.com/Kyz7/portfolio/internal/models"
	"github.com/Kyz7/portfolio/internal/registry"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

func SetupRoutes(app *fiber.App, cfg *config.Config, h *handlers) {
	// Middleware
	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS, PATCH",
	}))
	app.Use(h.metrics.Middleware())

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"message": "Portfolio API is running",
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(h.metrics.Handler()))

	jwt := h.tokens.JWTProtected()
	optional := h.tokens.OptionalAuth()
	admin := auth.RoleProtected(models.RoleAdmin)

	// ==========================================
	// AUTH ROUTES
	// ==========================================
	authGroup := app.Group("/auth")
	if cfg.AuthRateLimit > 0 {
		authGroup.Use(rateLimit(cfg.AuthRateLimit))
	}
	authGroup.Post("/register", h.auth.Register)
	authGroup.Post("/login", h.auth.Login)
	authGroup.Get("/me", jwt, h.auth.Me)
	authGroup.Put("/profile", jwt, h.auth.UpdateProfile)
	authGroup.Post("/change-password", jwt, h.auth.ChangePassword)

	api := app.Group("/api")

	api.Get("/schema", h.resources.Schema)

	// ==========================================
	// SEARCH
	// ==========================================
	api.Get("/search", h.search.Search)
	api.Get("/search/suggest", h.search.Suggest)
	api.Get("/stats", h.search.Stats)
	api.Get("/featured", h.search.Featured)

	// ==========================================
	// CONTACT & SITE SETTINGS
	// ==========================================
	if cfg.AuthRateLimit > 0 {
		api.Post("/contact", rateLimit(cfg.AuthRateLimit), h.messages.Submit)
	} else {
		api.Post("/contact", h.messages.Submit)
	}
	api.Get("/settings", h.settings.List)
	api.Post("/settings", jwt, admin, h.settings.Set)

	// ==========================================
	// TAGS
	// ==========================================
	api.Get("/tags", h.taxonomy.ListTags)
	api.Post("/tags", jwt, admin, h.taxonomy.CreateTag)
	api.Post("/tags/sync", jwt, admin, h.taxonomy.SyncTags)
	api.Put("/tags/:id", jwt, admin, h.taxonomy.RenameTag)
	api.Delete("/tags/:id", jwt, admin, h.taxonomy.DeleteTag)

	// ==========================================
	// FAVORITES & EVENT REGISTRATION
	// ==========================================
	favGroup := api.Group("/favorites", jwt)
	favGroup.Get("/", h.favorites.List)
	favGroup.Post("/", h.favorites.Toggle)
	favGroup.Get("/:id", h.favorites.Check)

	api.Post("/events/:id/register", jwt, h.events.Toggle)
	api.Get("/events/:id/register", jwt, h.events.Status)

	// ==========================================
	// ADMINISTRATION
	// ==========================================
	adminGroup := api.Group("/admin", jwt, admin)
	adminGroup.Get("/pending", h.resources.ListPending)
	adminGroup.Get("/audit-logs", h.workflow.ListAuditLogs)
	adminGroup.Get("/audit-logs/:id", h.workflow.ResourceHistory)
	adminGroup.Get("/workflow/stats", h.workflow.Statistics)
	adminGroup.Get("/messages", h.messages.List)
	adminGroup.Put("/messages/:id/read", h.messages.MarkRead)
	adminGroup.Delete("/messages/:id", h.messages.Delete)

	userGroup := api.Group("/users", jwt, admin)
	userGroup.Get("/", h.users.List)
	userGroup.Get("/:id", h.users.Get)
	userGroup.Put("/:id", h.users.Update)
	userGroup.Delete("/:id", h.users.Delete)

	// ==========================================
	// RESOURCES (one group per type)
	// ==========================================
	for _, t := range registry.Types() {
		m := registry.MustLookup(t)
		g := api.Group("/" + m.Route)

		// categories before /:id
		g.Get("/categories", h.taxonomy.ListCategories(t))
		g.Post("/categories", jwt, admin, h.taxonomy.AddCategory(t))
		g.Put("/categories/:name", jwt, admin, h.taxonomy.RenameCategory(t))
		g.Delete("/categories/:name", jwt, admin, h.taxonomy.DeleteCategory(t))

		g.Get("/", optional, h.resources.List(t))
		g.Post("/", jwt, h.resources.Create(t))
		g.Get("/:id", optional, h.resources.Get(t))
		g.Put("/:id", jwt, h.resources.Update(t))
		g.Delete("/:id", jwt, h.resources.SoftDelete(t))
		g.Delete("/:id/permanent", jwt, admin, h.resources.PermanentDelete(t))
		g.Post("/:id/restore", jwt, admin, h.resources.Restore(t))
		g.Post("/:id/like", h.resources.Like(t))
		g.Put("/:id/status", jwt, admin, h.resources.SetStatus(t))
	}
}

// rateLimit allows max requests per IP and minute.
func rateLimit(max int) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
	})
}
