package resource

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/Kyz7/portfolio/internal/models"
	"github.com/Kyz7/portfolio/internal/registry"
)

// Canonical writable columns, in the order they are resolved.
const (
	ColTitle       = "title"
	ColDescription = "description"
	ColContent     = "content"
	ColFileURL     = "file_url"
	ColCoverURL    = "cover_url"
	ColCategory    = "category"
	ColTags        = "tags"
	ColFeatured    = "featured"
)

var writableColumns = []string{
	ColTitle, ColDescription, ColContent, ColFileURL, ColCoverURL, ColCategory, ColTags, ColFeatured,
}

// System-maintained fields clients commonly echo back; ignored on input
// without being reported as dropped.
var readOnlyFields = map[string]bool{
	"id": true, "type": true, "views": true, "likes": true, "status": true,
	"rejection_reason": true, "uploader_id": true, "extra_data": true,
	"created_at": true, "updated_at": true, "deleted_at": true, "favorited": true,
}

// Row is an inbound body resolved to canonical columns.
type Row struct {
	Columns   map[string]interface{}
	Extra     registry.Extra
	ExtraKeys []string
	// Dropped holds body fields that matched no column, alias or extra.
	Dropped []string
}

func (r Row) Has(col string) bool {
	_, ok := r.Columns[col]
	return ok
}

func (r Row) String(col string) string {
	s, _ := r.Columns[col].(string)
	return s
}

type Translator struct {
	log *slog.Logger
}

func NewTranslator(log *slog.Logger) *Translator {
	return &Translator{log: log}
}

// ToStorageRow resolves aliases, canonical names and extra attributes of
// body for type t.
func (tr *Translator) ToStorageRow(t registry.ResourceType, body map[string]interface{}) (Row, error) {
	m, err := registry.Lookup(t)
	if err != nil {
		return Row{}, err
	}
	extra, err := registry.NewExtra(t)
	if err != nil {
		return Row{}, err
	}

	row := Row{Columns: make(map[string]interface{}), Extra: extra}
	consumed := make(map[string]bool, len(body))
	aliases := m.Aliases()

	for _, col := range writableColumns {
		if alias, ok := aliases[col]; ok {
			if v, ok := body[alias]; ok {
				row.Columns[col] = columnValue(col, v)
				consumed[alias] = true
				consumed[col] = true
				continue
			}
		}
		if v, ok := body[col]; ok {
			row.Columns[col] = columnValue(col, v)
			consumed[col] = true
		}
	}

	for _, key := range m.ExtraFields {
		v, ok := body[key]
		if !ok {
			continue
		}
		extra.Set(key, stringValue(v))
		row.ExtraKeys = append(row.ExtraKeys, key)
		consumed[key] = true
	}

	for k := range body {
		if !consumed[k] && !readOnlyFields[k] {
			row.Dropped = append(row.Dropped, k)
		}
	}
	sort.Strings(row.Dropped)

	return row, nil
}

// ToExternal projects a stored row into its public shape: canonical
// columns, every alias of the type, then the extra attributes on top.
func (tr *Translator) ToExternal(r models.Resource) (map[string]interface{}, error) {
	m, err := registry.Lookup(r.Type)
	if err != nil {
		return nil, err
	}

	out := map[string]interface{}{
		"id":               r.ID,
		"type":             r.Type,
		ColTitle:           r.Title,
		ColDescription:     r.Description,
		ColContent:         r.Content,
		ColFileURL:         r.FileURL,
		ColCoverURL:        r.CoverURL,
		ColCategory:        r.Category,
		ColTags:            r.Tags,
		ColFeatured:        r.Featured,
		"views":            r.Views,
		"likes":            r.Likes,
		"status":           r.Status,
		"rejection_reason": r.RejectionReason,
		"uploader_id":      r.UploaderID,
		"created_at":       r.CreatedAt,
		"updated_at":       r.UpdatedAt,
		"deleted_at":       nil,
	}
	if r.DeletedAt.Valid {
		out["deleted_at"] = r.DeletedAt.Time
	}

	for col, alias := range m.Aliases() {
		out[alias] = out[col]
	}

	extra, err := registry.DecodeExtra(r.Type, r.ExtraData)
	if err != nil {
		tr.log.Warn("corrupt extra data, using empty bag",
			slog.String("op", "resource.Translator.ToExternal"),
			slog.Uint64("id", uint64(r.ID)),
			slog.Any("err", err),
		)
		extra, _ = registry.NewExtra(r.Type)
	}
	for k, v := range registry.Values(extra) {
		out[k] = v
	}

	return out, nil
}

func columnValue(col string, v interface{}) interface{} {
	switch col {
	case ColFeatured:
		return boolValue(v)
	case ColTags:
		return tagsValue(v)
	}
	return stringValue(v)
}

func stringValue(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case json.Number:
		return x.String()
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

func boolValue(v interface{}) bool {
	switch x := v.(type) {
	case bool:
		return x
	case float64:
		return x != 0
	case int:
		return x != 0
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(x))
		return b || x == "1"
	}
	return false
}

// tagsValue accepts the stored comma-joined form or a JSON array.
func tagsValue(v interface{}) string {
	items, ok := v.([]interface{})
	if !ok {
		return stringValue(v)
	}
	parts := make([]string, 0, len(items))
	for _, it := range items {
		if s := strings.TrimSpace(stringValue(it)); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ",")
}
