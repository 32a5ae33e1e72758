package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Kyz7/portfolio/internal/models"
	"gorm.io/gorm"
)

// Service keeps the moderation audit trail.
type Service struct {
	db  *gorm.DB
	log *slog.Logger
}

func NewService(db *gorm.DB, log *slog.Logger) *Service {
	return &Service{db: db, log: log}
}

func (s *Service) Record(ctx context.Context, entry models.AuditLog) error {
	const op = "workflow.Service.Record"

	entry.Legal = CanTransition(entry.FromStatus, entry.Action)
	if !entry.Legal && entry.FromStatus != entry.Action {
		s.log.With(slog.String("op", op)).Warn("status change outside the moderation state machine",
			slog.String("resource_type", string(entry.ResourceType)),
			slog.Uint64("resource_id", uint64(entry.ResourceID)),
			slog.String("from", string(entry.FromStatus)),
			slog.String("to", string(entry.Action)),
		)
	}

	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Service) List(ctx context.Context, page, limit int) ([]models.AuditLog, int64, error) {
	const op = "workflow.Service.List"

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.AuditLog{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	var logs []models.AuditLog
	err := s.db.WithContext(ctx).
		Preload("Admin").
		Order("id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	return logs, total, nil
}

// History returns the decisions taken on one resource, newest first.
func (s *Service) History(ctx context.Context, resourceID uint) ([]models.AuditLog, error) {
	const op = "workflow.Service.History"

	var logs []models.AuditLog
	err := s.db.WithContext(ctx).
		Where("resource_id = ?", resourceID).
		Preload("Admin").
		Order("id DESC").
		Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return logs, nil
}

// Statistics counts non-trashed resources per moderation status.
func (s *Service) Statistics(ctx context.Context) (map[string]int64, error) {
	const op = "workflow.Service.Statistics"

	var rows []struct {
		Status models.ModerationStatus
		Total  int64
	}
	err := s.db.WithContext(ctx).
		Model(&models.Resource{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	stats := map[string]int64{
		string(models.StatusPending):  0,
		string(models.StatusApproved): 0,
		string(models.StatusRejected): 0,
	}
	var total int64
	for _, r := range rows {
		stats[string(r.Status)] = r.Total
		total += r.Total
	}
	stats["total"] = total

	return stats, nil
}
