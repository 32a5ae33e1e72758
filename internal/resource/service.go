package resource

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/Kyz7/portfolio/internal/apperr"
	"github.com/Kyz7/portfolio/internal/auth"
	"github.com/Kyz7/portfolio/internal/models"
	"github.com/Kyz7/portfolio/internal/registry"
	"github.com/Kyz7/portfolio/internal/workflow"

	"github.com/microcosm-cc/bluemonday"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// FileCleaner removes replaced or orphaned assets. Discard must not block.
type FileCleaner interface {
	Discard(uri string)
}

// AuditRecorder stores moderation decisions.
type AuditRecorder interface {
	Record(ctx context.Context, entry models.AuditLog) error
}

// TagIndexer registers tag names on first use.
type TagIndexer interface {
	Touch(ctx context.Context, tags string) error
}

// Page is one page of projected resources.
type Page struct {
	Items      []map[string]interface{} `json:"items"`
	Total      int64                    `json:"total"`
	Page       int                      `json:"page"`
	Limit      int                      `json:"limit"`
	TotalPages int64                    `json:"total_pages"`
}

type Service struct {
	db        *gorm.DB
	tr        *Translator
	gate      *workflow.Gate
	files     FileCleaner
	audit     AuditRecorder
	tags      TagIndexer
	sanitizer *bluemonday.Policy
	strict    bool
	log       *slog.Logger
}

type Options struct {
	// StrictFields rejects bodies carrying unknown fields instead of
	// dropping them.
	StrictFields bool
	// Tags, when set, is told about every tag string written.
	Tags TagIndexer
}

func NewService(db *gorm.DB, gate *workflow.Gate, files FileCleaner, audit AuditRecorder, log *slog.Logger, opts Options) *Service {
	return &Service{
		db:        db,
		tr:        NewTranslator(log),
		gate:      gate,
		files:     files,
		audit:     audit,
		tags:      opts.Tags,
		sanitizer: bluemonday.UGCPolicy(),
		strict:    opts.StrictFields,
		log:       log,
	}
}

func (s *Service) Translator() *Translator { return s.tr }

func (s *Service) toRow(op string, t registry.ResourceType, body map[string]interface{}) (Row, error) {
	row, err := s.tr.ToStorageRow(t, body)
	if err != nil {
		return Row{}, err
	}
	if len(row.Dropped) > 0 {
		if s.strict {
			return Row{}, fmt.Errorf("%w: unknown fields for %s: %s", apperr.ErrValidation, t, strings.Join(row.Dropped, ", "))
		}
		s.log.Warn("dropping unknown fields",
			slog.String("op", op),
			slog.String("type", string(t)),
			slog.Any("fields", row.Dropped),
		)
	}
	if row.Has(ColContent) {
		row.Columns[ColContent] = s.sanitizer.Sanitize(row.String(ColContent))
	}
	return row, nil
}

func (s *Service) touchTags(ctx context.Context, op string, row Row) {
	if s.tags == nil || !row.Has(ColTags) {
		return
	}
	if err := s.tags.Touch(ctx, row.String(ColTags)); err != nil {
		s.log.Warn("failed to register tags", slog.String("op", op), slog.Any("err", err))
	}
}

func requiredColumns(t registry.ResourceType) []string {
	switch t {
	case registry.Photo, registry.Music, registry.Video:
		return []string{ColTitle, ColFileURL}
	}
	return []string{ColTitle}
}

// missingFields checks the required columns of t. With partial set only the
// supplied columns are checked, so updates may omit them.
func missingFields(t registry.ResourceType, row Row, partial bool) map[string]string {
	aliases := registry.MustLookup(t).Aliases()
	missing := map[string]string{}
	for _, col := range requiredColumns(t) {
		if partial && !row.Has(col) {
			continue
		}
		if strings.TrimSpace(row.String(col)) == "" {
			name := col
			if alias, ok := aliases[col]; ok {
				name = alias
			}
			missing[name] = name + " is required"
		}
	}
	return missing
}

func (s *Service) load(ctx context.Context, t registry.ResourceType, id uint) (*models.Resource, error) {
	var r models.Resource
	err := s.db.WithContext(ctx).Unscoped().Where("type = ?", t).First(&r, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%s %d %w", t, id, apperr.ErrNotFound)
		}
		return nil, err
	}
	return &r, nil
}

// Create stores a new resource. Status comes from the moderation gate and
// the counters start at zero.
func (s *Service) Create(ctx context.Context, t registry.ResourceType, body map[string]interface{}, p *auth.Principal) (map[string]interface{}, error) {
	const op = "resource.Service.Create"

	row, err := s.toRow(op, t, body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if missing := missingFields(t, row, false); len(missing) > 0 {
		return nil, &FieldError{Fields: missing}
	}

	r := models.Resource{
		Type:   t,
		Status: s.gate.InitialStatus(p),
		Views:  0,
		Likes:  0,
	}
	if p != nil {
		id := p.ID
		r.UploaderID = &id
	}
	applyColumns(&r, row)

	if len(row.ExtraKeys) > 0 {
		data, err := registry.EncodeExtra(row.Extra)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		r.ExtraData = datatypes.JSON(data)
	}

	if err := s.db.WithContext(ctx).Create(&r).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.touchTags(ctx, op, row)

	s.log.Info("resource created",
		slog.String("op", op),
		slog.String("type", string(t)),
		slog.Uint64("id", uint64(r.ID)),
		slog.String("status", string(r.Status)),
	)
	return s.tr.ToExternal(r)
}

// Update writes only the supplied fields. Replaced file_url / cover_url
// assets are handed to the file cleaner once the row is saved. Status and
// type are never touched here.
func (s *Service) Update(ctx context.Context, t registry.ResourceType, id uint, body map[string]interface{}) (map[string]interface{}, error) {
	const op = "resource.Service.Update"

	existing, err := s.load(ctx, t, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	row, err := s.toRow(op, t, body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if missing := missingFields(t, row, true); len(missing) > 0 {
		return nil, &FieldError{Fields: missing}
	}

	updates := make(map[string]interface{}, len(row.Columns)+1)
	for col, v := range row.Columns {
		updates[col] = v
	}

	if len(row.ExtraKeys) > 0 {
		current, err := registry.DecodeExtra(t, existing.ExtraData)
		if err != nil {
			s.log.Warn("corrupt extra data replaced on update", slog.String("op", op), slog.Uint64("id", uint64(id)), slog.Any("err", err))
			current, _ = registry.NewExtra(t)
		}
		for _, key := range row.ExtraKeys {
			v, _ := row.Extra.Get(key)
			current.Set(key, v)
		}
		data, err := registry.EncodeExtra(current)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		updates["extra_data"] = datatypes.JSON(data)
	}

	if len(updates) == 0 {
		return s.tr.ToExternal(*existing)
	}

	var stale []string
	if row.Has(ColFileURL) && existing.FileURL != "" && row.String(ColFileURL) != existing.FileURL {
		stale = append(stale, existing.FileURL)
	}
	if row.Has(ColCoverURL) && existing.CoverURL != "" && row.String(ColCoverURL) != existing.CoverURL {
		stale = append(stale, existing.CoverURL)
	}

	err = s.db.WithContext(ctx).Unscoped().
		Model(&models.Resource{}).
		Where("id = ? AND type = ?", id, t).
		Updates(updates).Error
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, uri := range stale {
		s.files.Discard(uri)
	}
	s.touchTags(ctx, op, row)

	updated, err := s.load(ctx, t, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.tr.ToExternal(*updated)
}

// SoftDelete moves the resource to the trash. Already trashed is a no-op.
func (s *Service) SoftDelete(ctx context.Context, t registry.ResourceType, id uint) error {
	const op = "resource.Service.SoftDelete"

	existing, err := s.load(ctx, t, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if existing.DeletedAt.Valid {
		return nil
	}

	if err := s.db.WithContext(ctx).Where("type = ?", t).Delete(&models.Resource{}, id).Error; err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Restore takes the resource out of the trash. Not trashed is a no-op.
func (s *Service) Restore(ctx context.Context, t registry.ResourceType, id uint) error {
	const op = "resource.Service.Restore"

	existing, err := s.load(ctx, t, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !existing.DeletedAt.Valid {
		return nil
	}

	err = s.db.WithContext(ctx).Unscoped().
		Model(&models.Resource{}).
		Where("id = ? AND type = ?", id, t).
		Update("deleted_at", nil).Error
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// PermanentDelete removes the row whatever its state and discards both
// assets.
func (s *Service) PermanentDelete(ctx context.Context, t registry.ResourceType, id uint) error {
	const op = "resource.Service.PermanentDelete"
	log := s.log.With(slog.String("op", op))

	existing, err := s.load(ctx, t, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.db.WithContext(ctx).Unscoped().Where("type = ?", t).Delete(&models.Resource{}, id).Error; err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.db.WithContext(ctx).Where("resource_id = ?", id).Delete(&models.Favorite{}).Error; err != nil {
		log.Warn("failed to remove favorites", slog.Uint64("id", uint64(id)), slog.Any("err", err))
	}
	if t == registry.Event {
		if err := s.db.WithContext(ctx).Where("event_id = ?", id).Delete(&models.EventRegistration{}).Error; err != nil {
			log.Warn("failed to remove registrations", slog.Uint64("id", uint64(id)), slog.Any("err", err))
		}
	}

	s.files.Discard(existing.FileURL)
	s.files.Discard(existing.CoverURL)

	log.Info("resource permanently deleted", slog.String("type", string(t)), slog.Uint64("id", uint64(id)))
	return nil
}

// Get returns the resource whatever its trash or moderation state.
func (s *Service) Get(ctx context.Context, t registry.ResourceType, id uint) (map[string]interface{}, error) {
	const op = "resource.Service.Get"

	r, err := s.load(ctx, t, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.tr.ToExternal(*r)
}

// Owner returns the uploader of a resource, nil for system content.
func (s *Service) Owner(ctx context.Context, t registry.ResourceType, id uint) (*uint, error) {
	const op = "resource.Service.Owner"

	r, err := s.load(ctx, t, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return r.UploaderID, nil
}

func (s *Service) increment(ctx context.Context, t registry.ResourceType, id uint, column string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Resource{}).
			Where("id = ? AND type = ?", id, t).
			UpdateColumn(column, gorm.Expr(column+" + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%s %d %w", t, id, apperr.ErrNotFound)
		}
		return tx.Model(&models.Resource{}).
			Where("id = ?", id).
			Select(column).
			Scan(&count).Error
	})
	return count, err
}

// Like adds one like and returns the new total.
func (s *Service) Like(ctx context.Context, t registry.ResourceType, id uint) (int64, error) {
	const op = "resource.Service.Like"

	likes, err := s.increment(ctx, t, id, "likes")
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return likes, nil
}

// View adds one view and returns the new total.
func (s *Service) View(ctx context.Context, t registry.ResourceType, id uint) (int64, error) {
	const op = "resource.Service.View"

	views, err := s.increment(ctx, t, id, "views")
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return views, nil
}

// SetStatus overwrites the moderation status. Any transition is accepted;
// the audit entry notes whether it follows the state machine.
func (s *Service) SetStatus(ctx context.Context, t registry.ResourceType, id uint, status models.ModerationStatus, reason string, actor *auth.Principal) (map[string]interface{}, error) {
	const op = "resource.Service.SetStatus"

	if !status.Valid() {
		return nil, fmt.Errorf("%s: %w: invalid status %q", op, apperr.ErrValidation, status)
	}

	existing, err := s.load(ctx, t, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rejection := ""
	if status == models.StatusRejected {
		rejection = reason
	}

	err = s.db.WithContext(ctx).Unscoped().
		Model(&models.Resource{}).
		Where("id = ? AND type = ?", id, t).
		Updates(map[string]interface{}{
			"status":           status,
			"rejection_reason": rejection,
		}).Error
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	entry := models.AuditLog{
		ResourceType: t,
		ResourceID:   id,
		FromStatus:   existing.Status,
		Action:       status,
		Reason:       reason,
	}
	if actor != nil {
		adminID := actor.ID
		entry.AdminID = &adminID
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.log.Warn("failed to record audit log", slog.String("op", op), slog.Any("err", err))
	}

	return s.Get(ctx, t, id)
}

// List returns one page of type t matching f. The count uses the same
// predicates as the page query.
func (s *Service) List(ctx context.Context, t registry.ResourceType, f Filters) (*Page, error) {
	const op = "resource.Service.List"

	m, err := registry.Lookup(t)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	f = f.Normalize(m)

	base := func() *gorm.DB {
		return s.db.WithContext(ctx).Unscoped().Model(&models.Resource{}).Scopes(filterScope(t, f))
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var rows []models.Resource
	if err := base().Scopes(sortScope(f.Sort), paginate(f)).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.page(rows, total, f.Page, f.Limit)
}

// ListPending returns the moderation queue across all types, newest first.
func (s *Service) ListPending(ctx context.Context, page, limit int) (*Page, error) {
	const op = "resource.Service.ListPending"

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > MaxLimit {
		limit = 20
	}

	q := func() *gorm.DB {
		return s.db.WithContext(ctx).Model(&models.Resource{}).Where("status = ?", models.StatusPending)
	}

	var total int64
	if err := q().Count(&total).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var rows []models.Resource
	if err := q().Order("id DESC").Offset((page - 1) * limit).Limit(limit).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.page(rows, total, page, limit)
}

func (s *Service) page(rows []models.Resource, total int64, page, limit int) (*Page, error) {
	items := make([]map[string]interface{}, 0, len(rows))
	for _, r := range rows {
		out, err := s.tr.ToExternal(r)
		if err != nil {
			return nil, err
		}
		items = append(items, out)
	}

	totalPages := total / int64(limit)
	if total%int64(limit) > 0 {
		totalPages++
	}

	return &Page{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}, nil
}

func applyColumns(r *models.Resource, row Row) {
	for col, v := range row.Columns {
		switch col {
		case ColTitle:
			r.Title = v.(string)
		case ColDescription:
			r.Description = v.(string)
		case ColContent:
			r.Content = v.(string)
		case ColFileURL:
			r.FileURL = v.(string)
		case ColCoverURL:
			r.CoverURL = v.(string)
		case ColCategory:
			r.Category = v.(string)
		case ColTags:
			r.Tags = v.(string)
		case ColFeatured:
			r.Featured = v.(bool)
		}
	}
}

// FieldError reports missing or invalid body fields by their public name.
type FieldError struct {
	Fields map[string]string
}

func (e *FieldError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return "invalid fields: " + strings.Join(names, ", ")
}

func (e *FieldError) Unwrap() error { return apperr.ErrValidation }
