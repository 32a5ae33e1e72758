package favorite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Kyz7/portfolio/internal/apperr"
	"github.com/Kyz7/portfolio/internal/models"
	"github.com/Kyz7/portfolio/internal/registry"

	"gorm.io/gorm"
)

// Projector renders a stored resource in its public shape.
type Projector interface {
	ToExternal(r models.Resource) (map[string]interface{}, error)
}

type Service struct {
	db   *gorm.DB
	proj Projector
	log  *slog.Logger
}

func NewService(db *gorm.DB, proj Projector, log *slog.Logger) *Service {
	return &Service{db: db, proj: proj, log: log}
}

// Toggle adds the favorite when missing and removes it otherwise. It reports
// whether the resource is favorited afterwards.
func (s *Service) Toggle(ctx context.Context, userID uint, t registry.ResourceType, resourceID uint) (bool, error) {
	const op = "favorite.Service.Toggle"

	var favorited bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Resource{}).Where("id = ? AND type = ?", resourceID, t).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%s %d %w", t, resourceID, apperr.ErrNotFound)
		}

		var existing models.Favorite
		err := tx.Where("user_id = ? AND resource_id = ?", userID, resourceID).First(&existing).Error
		switch {
		case err == nil:
			return tx.Delete(&existing).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			favorited = true
			return tx.Create(&models.Favorite{UserID: userID, ResourceID: resourceID, ResourceType: t}).Error
		default:
			return err
		}
	})
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return favorited, nil
}

// Check reports whether the user has favorited the resource.
func (s *Service) Check(ctx context.Context, userID, resourceID uint) (bool, error) {
	const op = "favorite.Service.Check"

	var n int64
	err := s.db.WithContext(ctx).Model(&models.Favorite{}).
		Where("user_id = ? AND resource_id = ?", userID, resourceID).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return n > 0, nil
}

func (s *Service) FavoritedIDs(ctx context.Context, userID uint, ids []uint) (map[uint]bool, error) {
	const op = "favorite.Service.FavoritedIDs"

	out := make(map[uint]bool, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var found []uint
	err := s.db.WithContext(ctx).Model(&models.Favorite{}).
		Where("user_id = ? AND resource_id IN ?", userID, ids).
		Pluck("resource_id", &found).Error
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for _, id := range found {
		out[id] = true
	}
	return out, nil
}

// List returns the user's favorites, newest first, with the live resource
// attached. Favorites of trashed or removed resources are skipped.
func (s *Service) List(ctx context.Context, userID uint, t registry.ResourceType) ([]map[string]interface{}, error) {
	const op = "favorite.Service.List"
	log := s.log.With(slog.String("op", op))

	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if t != "" {
		q = q.Where("resource_type = ?", t)
	}

	var favs []models.Favorite
	if err := q.Order("id DESC").Find(&favs).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(favs) == 0 {
		return []map[string]interface{}{}, nil
	}

	ids := make([]uint, 0, len(favs))
	for _, f := range favs {
		ids = append(ids, f.ResourceID)
	}

	var rows []models.Resource
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	byID := make(map[uint]models.Resource, len(rows))
	for _, r := range rows {
		byID[r.ID] = r
	}

	out := make([]map[string]interface{}, 0, len(favs))
	for _, f := range favs {
		r, ok := byID[f.ResourceID]
		if !ok {
			continue
		}
		item, err := s.proj.ToExternal(r)
		if err != nil {
			log.Warn("skipping favorite", slog.Uint64("resource_id", uint64(r.ID)), slog.Any("err", err))
			continue
		}
		item["favorited"] = true
		item["favorited_at"] = f.CreatedAt
		out = append(out, item)
	}
	return out, nil
}
