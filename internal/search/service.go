package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Kyz7/portfolio/internal/apperr"
	"github.com/Kyz7/portfolio/internal/models"
	"github.com/Kyz7/portfolio/internal/registry"

	"gorm.io/gorm"
)

const (
	SearchPerType   = 5
	FeaturedPerType = 10
	MaxSuggestions  = 20
)

// Projector renders a stored resource in its public shape.
type Projector interface {
	ToExternal(r models.Resource) (map[string]interface{}, error)
}

// Stats summarises public content per type.
type Stats struct {
	Types     map[registry.ResourceType]TypeStats `json:"types"`
	Total     int64                               `json:"total"`
	DateRange *DateRange                          `json:"date_range,omitempty"`
}

type TypeStats struct {
	Count int64 `json:"count"`
	Views int64 `json:"views"`
	Likes int64 `json:"likes"`
}

type DateRange struct {
	Oldest time.Time `json:"oldest"`
	Newest time.Time `json:"newest"`
}

type Service struct {
	db   *gorm.DB
	proj Projector
	log  *slog.Logger
}

func NewService(db *gorm.DB, proj Projector, log *slog.Logger) *Service {
	return &Service{db: db, proj: proj, log: log}
}

// public selects approved, non-trashed resources of t.
func (s *Service) public(ctx context.Context, t registry.ResourceType) *gorm.DB {
	return s.db.WithContext(ctx).
		Model(&models.Resource{}).
		Where("type = ? AND status = ?", t, models.StatusApproved)
}

// matchText applies a case-insensitive substring match on the text columns.
func (s *Service) matchText(q *gorm.DB, text string) *gorm.DB {
	p := "%" + strings.ToLower(text) + "%"
	if s.db.Dialector.Name() == "postgres" {
		return q.Where("(title ILIKE ? OR description ILIKE ? OR tags ILIKE ?)", p, p, p)
	}
	return q.Where("(LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(tags) LIKE ?)", p, p, p)
}

func (s *Service) project(rows []models.Resource) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(rows))
	for _, r := range rows {
		item, err := s.proj.ToExternal(r)
		if err != nil {
			s.log.Warn("skipping resource", slog.Uint64("id", uint64(r.ID)), slog.Any("err", err))
			continue
		}
		out = append(out, item)
	}
	return out
}

// SearchAll returns up to SearchPerType public matches for every type,
// keyed by route name.
func (s *Service) SearchAll(ctx context.Context, text string) (map[string][]map[string]interface{}, error) {
	const op = "search.Service.SearchAll"

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%s: %w: query is required", op, apperr.ErrValidation)
	}

	out := make(map[string][]map[string]interface{}, len(registry.Types()))
	for _, t := range registry.Types() {
		var rows []models.Resource
		err := s.matchText(s.public(ctx, t), text).
			Order("id DESC").
			Limit(SearchPerType).
			Find(&rows).Error
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out[registry.MustLookup(t).Route] = s.project(rows)
	}
	return out, nil
}

// Featured returns up to FeaturedPerType public resources of every type,
// featured ones first.
func (s *Service) Featured(ctx context.Context) (map[string][]map[string]interface{}, error) {
	const op = "search.Service.Featured"

	out := make(map[string][]map[string]interface{}, len(registry.Types()))
	for _, t := range registry.Types() {
		var rows []models.Resource
		err := s.public(ctx, t).
			Order("featured DESC").
			Order("id DESC").
			Limit(FeaturedPerType).
			Find(&rows).Error
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out[registry.MustLookup(t).Route] = s.project(rows)
	}
	return out, nil
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	const op = "search.Service.Stats"

	stats := &Stats{Types: make(map[registry.ResourceType]TypeStats, len(registry.Types()))}
	for _, t := range registry.Types() {
		var ts TypeStats
		err := s.public(ctx, t).
			Select("COUNT(*) AS count, COALESCE(SUM(views), 0) AS views, COALESCE(SUM(likes), 0) AS likes").
			Scan(&ts).Error
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		stats.Types[t] = ts
		stats.Total += ts.Count
	}

	if stats.Total > 0 {
		var oldest, newest models.Resource
		base := func() *gorm.DB {
			return s.db.WithContext(ctx).Select("id", "created_at").Where("status = ?", models.StatusApproved)
		}
		if err := base().Order("created_at ASC").First(&oldest).Error; err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err := base().Order("created_at DESC").First(&newest).Error; err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		stats.DateRange = &DateRange{Oldest: oldest.CreatedAt, Newest: newest.CreatedAt}
	}

	return stats, nil
}

// Suggest returns distinct public titles of t starting with prefix.
func (s *Service) Suggest(ctx context.Context, t registry.ResourceType, prefix string, limit int) ([]string, error) {
	const op = "search.Service.Suggest"

	if _, err := registry.Lookup(t); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if limit <= 0 || limit > MaxSuggestions {
		limit = 10
	}

	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return []string{}, nil
	}

	q := s.public(ctx, t).Distinct()
	p := strings.ToLower(prefix) + "%"
	if s.db.Dialector.Name() == "postgres" {
		q = q.Where("title ILIKE ?", p)
	} else {
		q = q.Where("LOWER(title) LIKE ?", p)
	}

	var titles []string
	if err := q.Order("title ASC").Limit(limit).Pluck("title", &titles).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return titles, nil
}
