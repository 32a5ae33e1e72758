package event

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

// Registration is the registration state of one user for one event.
type Registration struct {
	EventID    uint  `json:"event_id"`
	Registered bool  `json:"registered"`
	Total      int64 `json:"total"`
}

type Service struct {
	db  *gorm.DB
	log *slog.Logger
}

func NewService(db *gorm.DB, log *slog.Logger) *Service {
	return &Service{db: db, log: log}
}

func (s *Service) ensureEvent(tx *gorm.DB, id uint) error {
	var n int64
	if err := tx.Model(&models.Resource{}).Where("id = ? AND type = ?", id, registry.Event).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("event %d %w", id, apperr.ErrNotFound)
	}
	return nil
}

func count(tx *gorm.DB, eventID uint) (int64, error) {
	var n int64
	err := tx.Model(&models.EventRegistration{}).Where("event_id = ?", eventID).Count(&n).Error
	return n, err
}

// ToggleRegistration registers the user for a live event or cancels an
// existing registration.
func (s *Service) ToggleRegistration(ctx context.Context, userID, eventID uint) (*Registration, error) {
	const op = "event.Service.ToggleRegistration"

	out := &Registration{EventID: eventID}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.ensureEvent(tx, eventID); err != nil {
			return err
		}

		var existing models.EventRegistration
		err := tx.Where("user_id = ? AND event_id = ?", userID, eventID).First(&existing).Error
		switch {
		case err == nil:
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Create(&models.EventRegistration{UserID: userID, EventID: eventID}).Error; err != nil {
				return err
			}
			out.Registered = true
		default:
			return err
		}

		total, err := count(tx, eventID)
		out.Total = total
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("event registration toggled",
		slog.String("op", op),
		slog.Uint64("event_id", uint64(eventID)),
		slog.Uint64("user_id", uint64(userID)),
		slog.Bool("registered", out.Registered),
	)
	return out, nil
}

func (s *Service) Status(ctx context.Context, userID, eventID uint) (*Registration, error) {
	const op = "event.Service.Status"

	db := s.db.WithContext(ctx)
	if err := s.ensureEvent(db, eventID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var mine int64
	if err := db.Model(&models.EventRegistration{}).Where("user_id = ? AND event_id = ?", userID, eventID).Count(&mine).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	total, err := count(db, eventID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Registration{EventID: eventID, Registered: mine > 0, Total: total}, nil
}
