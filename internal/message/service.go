package message

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Kyz7/portfolio/internal/apperr"
	"github.com/Kyz7/portfolio/internal/models"

	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"
)

// Service stores contact form messages for the admin inbox.
type Service struct {
	db        *gorm.DB
	sanitizer *bluemonday.Policy
	log       *slog.Logger
}

func NewService(db *gorm.DB, log *slog.Logger) *Service {
	return &Service{db: db, sanitizer: bluemonday.StrictPolicy(), log: log}
}

// Submit stores a message as unread. Markup is stripped from every field.
func (s *Service) Submit(ctx context.Context, name, email, body string) (*models.Message, error) {
	const op = "message.Service.Submit"

	m := models.Message{
		Name:  strings.TrimSpace(s.sanitizer.Sanitize(name)),
		Email: strings.TrimSpace(email),
		Body:  strings.TrimSpace(s.sanitizer.Sanitize(body)),
	}
	if m.Name == "" || m.Body == "" {
		return nil, fmt.Errorf("%s: %w: name and message are required", op, apperr.ErrValidation)
	}

	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("contact message received", slog.String("op", op), slog.Uint64("id", uint64(m.ID)))
	return &m, nil
}

// List returns the inbox newest first together with the total and the
// number of unread messages.
func (s *Service) List(ctx context.Context, page, limit int) ([]models.Message, int64, int64, error) {
	const op = "message.Service.List"

	var total, unread int64
	if err := s.db.WithContext(ctx).Model(&models.Message{}).Count(&total).Error; err != nil {
		return nil, 0, 0, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.db.WithContext(ctx).Model(&models.Message{}).Where("read = ?", false).Count(&unread).Error; err != nil {
		return nil, 0, 0, fmt.Errorf("%s: %w", op, err)
	}

	var msgs []models.Message
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%s: %w", op, err)
	}
	return msgs, total, unread, nil
}

func (s *Service) MarkRead(ctx context.Context, id uint) error {
	const op = "message.Service.MarkRead"

	res := s.db.WithContext(ctx).Model(&models.Message{}).Where("id = ?", id).Update("read", true)
	if res.Error != nil {
		return fmt.Errorf("%s: %w", op, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s: message %d %w", op, id, apperr.ErrNotFound)
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, id uint) error {
	const op = "message.Service.Delete"

	res := s.db.WithContext(ctx).Delete(&models.Message{}, id)
	if res.Error != nil {
		return fmt.Errorf("%s: %w", op, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s: message %d %w", op, id, apperr.ErrNotFound)
	}

	s.log.Info("contact message deleted", slog.String("op", op), slog.Uint64("id", uint64(id)))
	return nil
}
