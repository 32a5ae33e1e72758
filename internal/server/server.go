package server

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Kyz7/portfolio/internal/auth"
	"github.com/Kyz7/portfolio/internal/config"
	"github.com/Kyz7/portfolio/internal/event"
	"github.com/Kyz7/portfolio/internal/favorite"
	"github.com/Kyz7/portfolio/internal/message"
	"github.com/Kyz7/portfolio/internal/metrics"
	"github.com/Kyz7/portfolio/internal/resource"
	"github.com/Kyz7/portfolio/internal/response"
	"github.com/Kyz7/portfolio/internal/search"
	"github.com/Kyz7/portfolio/internal/setting"
	"github.com/Kyz7/portfolio/internal/taxonomy"
	"github.com/Kyz7/portfolio/internal/user"
	"github.com/Kyz7/portfolio/internal/workflow"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// handlers groups everything the routes need.
type handlers struct {
	tokens    *auth.TokenManager
	auth      *auth.Handler
	resources *resource.Handler
	taxonomy  *taxonomy.Handler
	favorites *favorite.Handler
	events    *event.Handler
	search    *search.Handler
	users     *user.Handler
	workflow  *workflow.Handler
	messages  *message.Handler
	settings  *setting.Handler
	metrics   *metrics.Metrics
}

// New wires services and handlers on top of db and returns the app ready to
// listen. files receives replaced and deleted assets.
func New(db *gorm.DB, cfg *config.Config, log *slog.Logger, files resource.FileCleaner) (*fiber.App, error) {
	policy, err := workflow.ParsePolicy(cfg.ModerationPolicy)
	if err != nil {
		return nil, fmt.Errorf("server.New: %w", err)
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	m := metrics.New()

	audit := workflow.NewService(db, log)
	tags := taxonomy.NewTagService(db, log)
	categories := taxonomy.NewCategoryService(db, cfg.CategoryCacheTTL, log)

	resources := resource.NewService(db, workflow.NewGate(policy), files, audit, log, resource.Options{
		StrictFields: cfg.StrictFields,
		Tags:         tags,
	})
	favorites := favorite.NewService(db, resources.Translator(), log)

	h := &handlers{
		tokens:    tokens,
		auth:      auth.NewHandler(auth.NewService(db, tokens, log)),
		resources: resource.NewHandler(resources, favorites, m, log),
		taxonomy:  taxonomy.NewHandler(categories, tags),
		favorites: favorite.NewHandler(favorites),
		events:    event.NewHandler(event.NewService(db, log)),
		search:    search.NewHandler(search.NewService(db, resources.Translator(), log)),
		users:     user.NewHandler(user.NewService(db, log)),
		workflow:  workflow.NewHandler(audit),
		messages:  message.NewHandler(message.NewService(db, log)),
		settings:  setting.NewHandler(setting.NewService(db, cfg.SettingsCacheTTL, log)),
		metrics:   m,
	}

	app := fiber.New(fiber.Config{
		BodyLimit:    10 * 1024 * 1024,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		ErrorHandler: errorHandler(log),
	})

	app.Static("/uploads", cfg.UploadDir, fiber.Static{
		Compress:  true,
		ByteRange: true,
		Browse:    false,
		MaxAge:    3600,
	})

	SetupRoutes(app, cfg, h)

	return app, nil
}

// errorHandler renders errors that escape the handlers, such as unknown
// routes, in the standard envelope.
func errorHandler(log *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			switch fe.Code {
			case fiber.StatusNotFound:
				return response.Error(c, fe.Code, "NOT_FOUND", fe.Message, nil)
			case fiber.StatusMethodNotAllowed:
				return response.Error(c, fe.Code, "METHOD_NOT_ALLOWED", fe.Message, nil)
			case fiber.StatusTooManyRequests:
				return response.Error(c, fe.Code, "TOO_MANY_REQUESTS", fe.Message, nil)
			case fiber.StatusRequestEntityTooLarge:
				return response.Error(c, fe.Code, "PAYLOAD_TOO_LARGE", fe.Message, nil)
			}
			if fe.Code < fiber.StatusInternalServerError {
				return response.BadRequest(c, fe.Message, nil)
			}
		}

		log.Error("unhandled error", slog.String("path", c.Path()), slog.Any("err", err))
		return response.InternalError(c, "Internal server error")
	}
}
