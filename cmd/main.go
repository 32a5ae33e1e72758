package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Kyz7/portfolio/internal/auth"
	"github.com/Kyz7/portfolio/internal/config"
	"github.com/Kyz7/portfolio/internal/database"
	"github.com/Kyz7/portfolio/internal/filestore"
	"github.com/Kyz7/portfolio/internal/server"
	"github.com/Kyz7/portfolio/internal/taxonomy"
	"github.com/Kyz7/portfolio/internal/user"
)

func main() {
	cfg := config.Load()
	logger := setupLogger(cfg.Env)
	slog.SetDefault(logger)

	if err := auth.ValidateSecret(cfg.JWTSecret); err != nil {
		log.Fatal("❌ JWT Configuration Error: ", err)
	}
	log.Println("✅ JWT secret validated")

	// ========== DATABASE SETUP ==========
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal("❌ Database connection failed:", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatal("❌ Migration failed: ", err)
	}
	log.Println("✅ Database migrated successfully")

	log.Println("🔍 Running SQL migrations for resource indexes...")
	if err := database.RunMigrations(db, cfg.MigrationsDir); err != nil {
		log.Printf("⚠️  SQL migrations failed: %v", err)
		log.Println("⚠️  Listing and search may be slower without indexes")
	} else {
		log.Println("✅ SQL migrations completed successfully")
	}

	// ========== STORAGE SETUP ==========
	store := setupStorage(cfg)
	cleaner := filestore.NewCleaner(store, logger)

	// ========== SEED DEFAULT DATA ==========
	if created, err := user.SeedAdmin(db, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		log.Println("⚠️  Failed to seed admin account:", err)
	} else if created {
		log.Printf("✅ Admin account %q created", cfg.AdminUsername)
	}

	// ========== BACKGROUND JOBS ==========
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tags := taxonomy.NewTagService(db, logger)
	go func() {
		ticker := time.NewTicker(cfg.TagSyncInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n, err := tags.Sync(ctx); err != nil {
					logger.Warn("tag sync failed", slog.Any("err", err))
				} else {
					log.Printf("🏷️  Synced %d tags", n)
				}
			}
		}
	}()

	// ========== START SERVER ==========
	app, err := server.New(db, cfg, logger, cleaner)
	if err != nil {
		log.Fatal("❌ Failed to build server:", err)
	}

	go func() {
		log.Printf("🚀 Portfolio Server starting on %s", cfg.ServerAddr)
		log.Printf("💾 Storage Mode: %s", store.Mode())
		log.Printf("🛡️  Moderation Policy: %s", cfg.ModerationPolicy)
		if err := app.Listen(cfg.ServerAddr); err != nil {
			log.Fatal("❌ Failed to start server:", err)
		}
	}()

	<-ctx.Done()
	log.Println("🛑 Shutting down...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Println("⚠️  Server shutdown:", err)
	}
	cleaner.Wait()
	if err := database.Close(db); err != nil {
		log.Println("⚠️  Database close:", err)
	}
	log.Println("👋 Server stopped")
}

func setupLogger(env string) *slog.Logger {
	var handler slog.Handler
	switch env {
	case config.EnvLocal:
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	case config.EnvDev:
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	default:
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	return slog.New(handler)
}

func setupStorage(cfg *config.Config) filestore.Store {
	local := filestore.NewLocalStore(cfg.UploadDir)
	if err := local.Init(); err != nil {
		log.Fatal("❌ Failed to initialize local storage:", err)
	}

	if cfg.StorageMode != "s3" {
		log.Printf("💾 Using LOCAL storage mode (%s)", cfg.UploadDir)
		return local
	}

	if cfg.S3Bucket == "" || cfg.S3Region == "" {
		log.Println("⚠️  STORAGE_MODE=s3 but S3_BUCKET or S3_REGION not configured")
		log.Println("⚠️  Falling back to local storage")
		return local
	}

	s3Store, err := filestore.NewS3Store(cfg.S3Bucket, cfg.S3Region, cfg.CloudFrontURL)
	if err != nil {
		log.Println("⚠️  S3 initialization failed:", err)
		log.Println("⚠️  Falling back to local storage")
		return local
	}
	log.Printf("☁️  Using S3: %s (region: %s)", cfg.S3Bucket, cfg.S3Region)
	return s3Store
}
