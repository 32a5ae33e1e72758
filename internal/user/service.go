package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Kyz7/portfolio/internal/apperr"
	"github.com/Kyz7/portfolio/internal/auth"
	"github.com/Kyz7/portfolio/internal/models"

	"gorm.io/gorm"
)

type Service struct {
	db  *gorm.DB
	log *slog.Logger
}

func NewService(db *gorm.DB, log *slog.Logger) *Service {
	return &Service{db: db, log: log}
}

func (s *Service) List(ctx context.Context, search string, page, limit int) ([]models.User, int64, error) {
	const op = "user.Service.List"

	q := s.db.WithContext(ctx).Model(&models.User{})
	if search = strings.TrimSpace(search); search != "" {
		p := "%" + strings.ToLower(search) + "%"
		q = q.Where("LOWER(username) LIKE ? OR LOWER(nickname) LIKE ?", p, p)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	var users []models.User
	if err := q.Order("id ASC").Offset((page - 1) * limit).Limit(limit).Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	return users, total, nil
}

func (s *Service) Get(ctx context.Context, id uint) (*models.User, error) {
	const op = "user.Service.Get"

	var u models.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%s: user %w", op, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &u, nil
}

// Update changes role, nickname or avatar. Admins cannot demote themselves.
func (s *Service) Update(ctx context.Context, id uint, role, nickname, avatar string, actorID uint) (*models.User, error) {
	const op = "user.Service.Update"

	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if role != "" && role != u.Role {
		if role != models.RoleAdmin && role != models.RoleUser {
			return nil, fmt.Errorf("%s: %w: unknown role %q", op, apperr.ErrValidation, role)
		}
		if id == actorID {
			return nil, fmt.Errorf("%s: %w: cannot change your own role", op, apperr.ErrForbidden)
		}
		updates["role"] = role
	}
	if nickname != "" {
		updates["nickname"] = nickname
	}
	if avatar != "" {
		updates["avatar"] = avatar
	}
	if len(updates) == 0 {
		return u, nil
	}

	if err := s.db.WithContext(ctx).Model(u).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("user updated", slog.String("op", op), slog.Uint64("user_id", uint64(id)), slog.Uint64("actor_id", uint64(actorID)))
	return s.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id, actorID uint) error {
	const op = "user.Service.Delete"

	if id == actorID {
		return fmt.Errorf("%s: %w: cannot delete your own account", op, apperr.ErrForbidden)
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&models.Favorite{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.EventRegistration{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, id).Error
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("user deleted", slog.String("op", op), slog.Uint64("user_id", uint64(id)), slog.Uint64("actor_id", uint64(actorID)))
	return nil
}

// SeedAdmin creates the admin account when username is set and missing.
// It reports whether an account was created.
func SeedAdmin(db *gorm.DB, username, password string) (bool, error) {
	const op = "user.SeedAdmin"

	if username == "" || password == "" {
		return false, nil
	}

	var n int64
	if err := db.Model(&models.User{}).Where("username = ?", username).Count(&n).Error; err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if n > 0 {
		return false, nil
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	admin := models.User{
		Username: username,
		Password: hashed,
		Role:     models.RoleAdmin,
		Nickname: username,
	}
	if err := db.Create(&admin).Error; err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}
