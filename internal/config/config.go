package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

type Config struct {
	ServerAddr string
	Env        string

	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPath     string

	MigrationsDir string

	JWTSecret string
	JWTTTL    time.Duration

	// ModerationPolicy is "auto_approve" or "review".
	ModerationPolicy string
	StrictFields     bool

	StorageMode   string
	UploadDir     string
	S3Bucket      string
	S3Region      string
	CloudFrontURL string

	AdminUsername string
	AdminPassword string

	CategoryCacheTTL time.Duration
	SettingsCacheTTL time.Duration
	TagSyncInterval  time.Duration

	// AuthRateLimit is the number of /auth and contact requests per IP and
	// minute; 0 disables the limiter.
	AuthRateLimit int
	CORSOrigins   string
}

func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8080"),
		Env:        getEnv("APP_ENV", EnvLocal),

		DBDriver:   strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "portfolio"),
		DBPath:     getEnv("DB_PATH", "./data/portfolio.db"),

		MigrationsDir: getEnv("MIGRATIONS_DIR", "./migrations"),

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTTTL:    getEnvDuration("JWT_TTL", 24*time.Hour),

		ModerationPolicy: getEnv("MODERATION_POLICY", "auto_approve"),
		StrictFields:     getEnvBool("STRICT_FIELDS", false),

		StorageMode:   getEnv("STORAGE_MODE", "local"),
		UploadDir:     getEnv("UPLOAD_DIR", "./uploads"),
		S3Bucket:      getEnv("S3_BUCKET", ""),
		S3Region:      getEnv("S3_REGION", ""),
		CloudFrontURL: getEnv("CLOUDFRONT_URL", ""),

		AdminUsername: getEnv("ADMIN_USERNAME", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),

		CategoryCacheTTL: getEnvDuration("CATEGORY_CACHE_TTL", 5*time.Minute),
		SettingsCacheTTL: getEnvDuration("SETTINGS_CACHE_TTL", 5*time.Minute),
		TagSyncInterval:  getEnvDuration("TAG_SYNC_INTERVAL", time.Hour),

		AuthRateLimit: getEnvInt("AUTH_RATE_LIMIT", 20),
		CORSOrigins:   getEnv("CORS_ORIGINS", "*"),
	}

	log.Println("✅ Config loaded")
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v < 0 {
		return fallback
	}
	return v
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
