package taxonomy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Kyz7/portfolio/internal/apperr"
	"github.com/Kyz7/portfolio/internal/models"
	"github.com/Kyz7/portfolio/internal/registry"

	"github.com/gosimple/slug"
	"github.com/patrickmn/go-cache"
	"gorm.io/gorm"
)

type CategoryService struct {
	db    *gorm.DB
	cache *cache.Cache
	log   *slog.Logger
}

func NewCategoryService(db *gorm.DB, ttl time.Duration, log *slog.Logger) *CategoryService {
	return &CategoryService{
		db:    db,
		cache: cache.New(ttl, 2*ttl),
		log:   log,
	}
}

func cacheKey(t registry.ResourceType) string {
	return "categories:" + string(t)
}

// definitions returns a copy of the cached list; callers may modify it.
func (s *CategoryService) definitions(ctx context.Context, t registry.ResourceType) ([]models.Category, error) {
	if cached, ok := s.cache.Get(cacheKey(t)); ok {
		return append([]models.Category(nil), cached.([]models.Category)...), nil
	}

	var defs []models.Category
	if err := s.db.WithContext(ctx).Where("type = ?", t).Order("name ASC").Find(&defs).Error; err != nil {
		return nil, err
	}
	s.cache.SetDefault(cacheKey(t), defs)
	return append([]models.Category(nil), defs...), nil
}

// List returns the defined categories of t. Without definitions it falls
// back to the distinct labels used by live resources of t.
func (s *CategoryService) List(ctx context.Context, t registry.ResourceType) ([]models.Category, error) {
	const op = "taxonomy.CategoryService.List"

	if _, err := registry.Lookup(t); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defs, err := s.definitions(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(defs) > 0 {
		return defs, nil
	}

	var names []string
	err = s.db.WithContext(ctx).
		Model(&models.Resource{}).
		Where("type = ? AND category IS NOT NULL AND category <> ''", t).
		Distinct().
		Order("category ASC").
		Pluck("category", &names).Error
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := make([]models.Category, 0, len(names))
	for _, n := range names {
		out = append(out, models.Category{Type: t, Name: n, Slug: slug.Make(n)})
	}
	return out, nil
}

func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: name is required", apperr.ErrValidation)
	}
	if len(name) > 100 {
		return "", fmt.Errorf("%w: name must be at most 100 characters", apperr.ErrValidation)
	}
	return name, nil
}

func (s *CategoryService) exists(tx *gorm.DB, t registry.ResourceType, name string) (bool, error) {
	var n int64
	if err := tx.Model(&models.Category{}).Where("type = ? AND name = ?", t, name).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *CategoryService) Add(ctx context.Context, t registry.ResourceType, name string) (*models.Category, error) {
	const op = "taxonomy.CategoryService.Add"

	if _, err := registry.Lookup(t); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	name, err := cleanName(name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	found, err := s.exists(s.db.WithContext(ctx), t, name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if found {
		return nil, fmt.Errorf("%s: %w: category %q already exists", op, apperr.ErrConflict, name)
	}

	c := models.Category{Type: t, Name: name, Slug: slug.Make(name)}
	if err := s.db.WithContext(ctx).Create(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%s: %w: category %q already exists", op, apperr.ErrConflict, name)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.cache.Delete(cacheKey(t))
	return &c, nil
}

// Rename renames the definition and every resource of t labelled oldName in
// one transaction. It returns the number of resources relabelled.
func (s *CategoryService) Rename(ctx context.Context, t registry.ResourceType, oldName, newName string) (int64, error) {
	const op = "taxonomy.CategoryService.Rename"
	log := s.log.With(slog.String("op", op))

	if _, err := registry.Lookup(t); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	oldName = strings.TrimSpace(oldName)
	newName, err := cleanName(newName)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if oldName == newName {
		return 0, nil
	}

	var relabelled int64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := s.exists(tx, t, newName)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("%w: category %q already exists", apperr.ErrConflict, newName)
		}

		def := tx.Model(&models.Category{}).
			Where("type = ? AND name = ?", t, oldName).
			Updates(map[string]interface{}{"name": newName, "slug": slug.Make(newName)})
		if def.Error != nil {
			return def.Error
		}

		res := tx.Unscoped().Model(&models.Resource{}).
			Where("type = ? AND category = ?", t, oldName).
			Update("category", newName)
		if res.Error != nil {
			return res.Error
		}

		if def.RowsAffected == 0 && res.RowsAffected == 0 {
			return fmt.Errorf("category %q %w", oldName, apperr.ErrNotFound)
		}
		relabelled = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	s.cache.Delete(cacheKey(t))
	log.Info("category renamed",
		slog.String("type", string(t)),
		slog.String("from", oldName),
		slog.String("to", newName),
		slog.Int64("resources", relabelled),
	)
	return relabelled, nil
}

// Delete removes the definition only. Resources keep the label.
func (s *CategoryService) Delete(ctx context.Context, t registry.ResourceType, name string) error {
	const op = "taxonomy.CategoryService.Delete"

	if _, err := registry.Lookup(t); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	res := s.db.WithContext(ctx).Where("type = ? AND name = ?", t, strings.TrimSpace(name)).Delete(&models.Category{})
	if res.Error != nil {
		return fmt.Errorf("%s: %w", op, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s: category %q %w", op, name, apperr.ErrNotFound)
	}

	s.cache.Delete(cacheKey(t))
	return nil
}
