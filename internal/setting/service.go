package setting

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Kyz7/portfolio/internal/apperr"
	"github.com/Kyz7/portfolio/internal/models"

	"github.com/patrickmn/go-cache"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const cacheKey = "settings"

// Service keeps site-wide key/value settings. Reads are served from a
// cache that every write invalidates.
type Service struct {
	db    *gorm.DB
	cache *cache.Cache
	log   *slog.Logger
}

func NewService(db *gorm.DB, ttl time.Duration, log *slog.Logger) *Service {
	return &Service{
		db:    db,
		cache: cache.New(ttl, 2*ttl),
		log:   log,
	}
}

// All returns every setting keyed by name. The map is a fresh copy.
func (s *Service) All(ctx context.Context) (map[string]string, error) {
	const op = "setting.Service.All"

	if cached, ok := s.cache.Get(cacheKey); ok {
		return clone(cached.(map[string]string)), nil
	}

	var rows []models.Setting
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.Key] = r.Value
	}
	s.cache.SetDefault(cacheKey, out)
	return clone(out), nil
}

// Set creates or replaces one setting.
func (s *Service) Set(ctx context.Context, key, value string) error {
	const op = "setting.Service.Set"

	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("%s: %w: key is required", op, apperr.ErrValidation)
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&models.Setting{Key: key, Value: value}).Error
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.cache.Delete(cacheKey)

	s.log.Info("setting updated", slog.String("op", op), slog.String("key", key))
	return nil
}

func clone(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
