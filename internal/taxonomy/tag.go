package taxonomy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Kyz7/portfolio/internal/apperr"
	"github.com/Kyz7/portfolio/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TagService struct {
	db  *gorm.DB
	log *slog.Logger
}

func NewTagService(db *gorm.DB, log *slog.Logger) *TagService {
	return &TagService{db: db, log: log}
}

func (s *TagService) List(ctx context.Context) ([]models.Tag, error) {
	const op = "taxonomy.TagService.List"

	var tags []models.Tag
	if err := s.db.WithContext(ctx).Order("count DESC").Order("name ASC").Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return tags, nil
}

func (s *TagService) Create(ctx context.Context, name string) (*models.Tag, error) {
	const op = "taxonomy.TagService.Create"

	name, err := cleanName(name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Tag{}).Where("name = ?", name).Count(&n).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if n > 0 {
		return nil, fmt.Errorf("%s: %w: tag %q already exists", op, apperr.ErrConflict, name)
	}

	tag := models.Tag{Name: name}
	if err := s.db.WithContext(ctx).Create(&tag).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &tag, nil
}

// Touch registers the tags found in a comma-joined string without changing
// counts of known tags. Counts are recomputed by Sync.
func (s *TagService) Touch(ctx context.Context, tags string) error {
	const op = "taxonomy.TagService.Touch"

	names := SplitTags(tags)
	if len(names) == 0 {
		return nil
	}

	rows := make([]models.Tag, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if seen[n] || len(n) > 100 {
			continue
		}
		seen[n] = true
		rows = append(rows, models.Tag{Name: n})
	}
	if len(rows) == 0 {
		return nil
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(&rows).Error
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *TagService) load(tx *gorm.DB, id uint) (*models.Tag, error) {
	var tag models.Tag
	if err := tx.First(&tag, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("tag %d %w", id, apperr.ErrNotFound)
		}
		return nil, err
	}
	return &tag, nil
}

// rewrite applies fn to the tags of every resource that may carry name and
// saves the rows fn changed. Trashed resources are included.
func rewrite(tx *gorm.DB, name string, fn func(tags string) (string, bool)) (int64, error) {
	var rows []models.Resource
	err := tx.Unscoped().
		Select("id", "tags").
		Where("tags LIKE ?", "%"+name+"%").
		Find(&rows).Error
	if err != nil {
		return 0, err
	}

	var changed int64
	for _, r := range rows {
		tags, ok := fn(r.Tags)
		if !ok {
			continue
		}
		err := tx.Unscoped().Model(&models.Resource{}).
			Where("id = ?", r.ID).
			UpdateColumn("tags", tags).Error
		if err != nil {
			return changed, err
		}
		changed++
	}
	return changed, nil
}

// Rename renames the tag and rewrites the exact token on every resource.
// It returns the number of resources rewritten.
func (s *TagService) Rename(ctx context.Context, id uint, newName string) (int64, error) {
	const op = "taxonomy.TagService.Rename"

	newName, err := cleanName(newName)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	var changed int64
	var oldName string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tag, err := s.load(tx, id)
		if err != nil {
			return err
		}
		oldName = tag.Name
		if oldName == newName {
			return nil
		}

		var n int64
		if err := tx.Model(&models.Tag{}).Where("name = ? AND id <> ?", newName, id).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: tag %q already exists", apperr.ErrConflict, newName)
		}

		changed, err = rewrite(tx, oldName, func(tags string) (string, bool) {
			return RenameToken(tags, oldName, newName)
		})
		if err != nil {
			return err
		}

		return tx.Model(tag).Update("name", newName).Error
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("tag renamed",
		slog.String("op", op),
		slog.String("from", oldName),
		slog.String("to", newName),
		slog.Int64("resources", changed),
	)
	return changed, nil
}

// Delete removes the tag and strips the exact token from every resource.
func (s *TagService) Delete(ctx context.Context, id uint) (int64, error) {
	const op = "taxonomy.TagService.Delete"

	var changed int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tag, err := s.load(tx, id)
		if err != nil {
			return err
		}

		changed, err = rewrite(tx, tag.Name, func(tags string) (string, bool) {
			return RemoveToken(tags, tag.Name)
		})
		if err != nil {
			return err
		}

		return tx.Delete(tag).Error
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return changed, nil
}

// Sync recomputes usage counts over all live resources and upserts them.
// Unknown tags are created; tags no longer used keep a zero count.
func (s *TagService) Sync(ctx context.Context) (int, error) {
	const op = "taxonomy.TagService.Sync"

	var rows []models.Resource
	err := s.db.WithContext(ctx).
		Select("id", "tags").
		Where("tags IS NOT NULL AND tags <> ''").
		Find(&rows).Error
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	counts := make(map[string]int64)
	for _, r := range rows {
		seen := make(map[string]bool)
		for _, t := range SplitTags(r.Tags) {
			if !seen[t] {
				seen[t] = true
				counts[t]++
			}
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Tag{}).Where("count <> ?", 0).Update("count", 0).Error; err != nil {
			return err
		}
		for name, count := range counts {
			if len(name) > 100 {
				continue
			}
			tag := models.Tag{Name: name, Count: count}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "name"}},
				DoUpdates: clause.AssignmentColumns([]string{"count", "updated_at"}),
			}).Create(&tag).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("tags synced", slog.String("op", op), slog.Int("tags", len(counts)))
	return len(counts), nil
}
