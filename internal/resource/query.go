package resource

import (
	"strings"
	"time"

	"github.com/Kyz7/portfolio/internal/models"
	"github.com/Kyz7/portfolio/internal/registry"
	"gorm.io/gorm"
)

type Sort string

const (
	SortNewest Sort = "newest"
	SortOldest Sort = "oldest"
	SortLikes  Sort = "likes"
	SortTitle  Sort = "title"
)

// Event lifecycle filters, relative to the event date.
const (
	LifecycleUpcoming = "upcoming"
	LifecyclePast     = "past"
	LifecycleOngoing  = "ongoing"
)

const (
	// StatusAll disables the status filter.
	StatusAll = "all"
	// CategoryAll disables the category (and article tag) filter.
	CategoryAll = "All"

	MaxLimit = 100
)

// Filters is the caller-supplied listing query for one resource type.
type Filters struct {
	Status     string
	UploaderID *uint
	Category   string
	Tag        string
	// Tags matches the tags column for every type, articles included.
	Tags       string
	Search     string
	// Lifecycle applies to events only; unknown values are ignored.
	Lifecycle  string
	Trashed    bool
	Featured   *bool
	Sort       Sort
	Page       int
	Limit      int
	// Now anchors the lifecycle filter; zero means the current time.
	Now        time.Time
}

func ParseSort(s string) Sort {
	switch Sort(strings.ToLower(strings.TrimSpace(s))) {
	case SortOldest:
		return SortOldest
	case SortLikes:
		return SortLikes
	case SortTitle:
		return SortTitle
	}
	return SortNewest
}

// Normalize fills defaults: approved status, newest first, page 1 and the
// type's default page size.
func (f Filters) Normalize(m registry.Mapping) Filters {
	if f.Status == "" {
		f.Status = string(models.StatusApproved)
	}
	if f.Sort == "" {
		f.Sort = SortNewest
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = m.DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	if f.Now.IsZero() {
		f.Now = time.Now()
	}
	return f
}

func (f Filters) Offset() int {
	return (f.Page - 1) * f.Limit
}

// filterScope applies every predicate of f. It expects an unscoped query so
// the trashed flag alone decides on deleted_at.
func filterScope(t registry.ResourceType, f Filters) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Where("type = ?", t)

		if f.Trashed {
			db = db.Where("deleted_at IS NOT NULL")
		} else {
			db = db.Where("deleted_at IS NULL")
		}

		if f.Status != StatusAll {
			db = db.Where("status = ?", f.Status)
		}

		if f.UploaderID != nil {
			db = db.Where("uploader_id = ?", *f.UploaderID)
		}

		if f.Category != "" && f.Category != CategoryAll {
			db = db.Where("category = ?", f.Category)
		}

		if f.Tag != "" {
			if t == registry.Article {
				// articles expose their category as "tag"
				if f.Tag != CategoryAll {
					db = db.Where("category = ?", f.Tag)
				}
			} else {
				db = db.Where("LOWER(tags) LIKE ?", likePattern(f.Tag))
			}
		}

		if tags := strings.TrimSpace(f.Tags); tags != "" {
			db = db.Where("LOWER(tags) LIKE ?", likePattern(tags))
		}

		if t == registry.Event && f.Lifecycle != "" {
			db = lifecycleScope(db, f.Lifecycle, f.Now)
		}

		if q := strings.TrimSpace(f.Search); q != "" {
			p := likePattern(q)
			db = db.Where("(LOWER(title) LIKE ? OR LOWER(tags) LIKE ? OR LOWER(description) LIKE ?)", p, p, p)
		}

		if f.Featured != nil {
			db = db.Where("featured = ?", *f.Featured)
		}

		return db
	}
}

// lifecycleScope compares the day part of the event date with today's date.
// Events without a date match none of the lifecycles.
func lifecycleScope(db *gorm.DB, lifecycle string, now time.Time) *gorm.DB {
	day := "substr(json_extract(extra_data, '$.date'), 1, 10)"
	if db.Dialector.Name() == "postgres" {
		day = "substr(extra_data->>'date', 1, 10)"
	}
	today := now.Format("2006-01-02")

	switch lifecycle {
	case LifecycleUpcoming:
		return db.Where(day+" > ?", today)
	case LifecyclePast:
		return db.Where(day+" < ?", today)
	case LifecycleOngoing:
		return db.Where(day+" = ?", today)
	}
	return db
}

func sortScope(s Sort) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch s {
		case SortOldest:
			return db.Order("id ASC")
		case SortLikes:
			return db.Order("likes DESC").Order("id DESC")
		case SortTitle:
			return db.Order("title ASC").Order("id ASC")
		}
		return db.Order("id DESC")
	}
}

func paginate(f Filters) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(f.Offset()).Limit(f.Limit)
	}
}

func likePattern(s string) string {
	return "%" + strings.ToLower(strings.TrimSpace(s)) + "%"
}
