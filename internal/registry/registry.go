// Package registry declares, per resource type, how the generic resource row
// is presented to clients: field aliases, the typed extra attributes and the
// default page size.
package registry

import (
	"fmt"
	"strings"

	"github.com/Kyz7/portfolio/internal/apperr"
)

type ResourceType string

const (
	Photo   ResourceType = "photo"
	Music   ResourceType = "music"
	Video   ResourceType = "video"
	Article ResourceType = "article"
	Event   ResourceType = "event"
)

var ErrUnsupportedType = fmt.Errorf("%w: unsupported resource type", apperr.ErrValidation)

const defaultLimit = 12

// Mapping describes the public shape of one resource type. Empty alias
// fields mean the canonical column name is used as is.
type Mapping struct {
	Type             ResourceType `json:"type"`
	Route            string       `json:"route"`
	FileURLAlias     string       `json:"file_url_alias,omitempty"`
	CoverURLAlias    string       `json:"cover_url_alias,omitempty"`
	DescriptionAlias string       `json:"description_alias,omitempty"`
	CategoryAlias    string       `json:"category_alias,omitempty"`
	ExtraFields      []string     `json:"extra_fields"`
	DefaultLimit     int          `json:"default_limit"`
}

// Types returns every supported type in a stable order.
func Types() []ResourceType {
	return []ResourceType{Photo, Music, Video, Article, Event}
}

func Lookup(t ResourceType) (Mapping, error) {
	switch t {
	case Photo:
		return Mapping{
			Type:         Photo,
			Route:        "photos",
			FileURLAlias: "url",
			ExtraFields:  PhotoExtra{}.Keys(),
			DefaultLimit: defaultLimit,
		}, nil
	case Music:
		return Mapping{
			Type:          Music,
			Route:         "music",
			FileURLAlias:  "audio",
			CoverURLAlias: "cover",
			ExtraFields:   MusicExtra{}.Keys(),
			DefaultLimit:  defaultLimit,
		}, nil
	case Video:
		return Mapping{
			Type:          Video,
			Route:         "videos",
			FileURLAlias:  "video",
			CoverURLAlias: "thumbnail",
			ExtraFields:   VideoExtra{}.Keys(),
			DefaultLimit:  defaultLimit,
		}, nil
	case Article:
		return Mapping{
			Type:             Article,
			Route:            "articles",
			CoverURLAlias:    "cover",
			DescriptionAlias: "excerpt",
			CategoryAlias:    "tag",
			ExtraFields:      ArticleExtra{}.Keys(),
			DefaultLimit:     defaultLimit,
		}, nil
	case Event:
		return Mapping{
			Type:          Event,
			Route:         "events",
			CoverURLAlias: "image",
			ExtraFields:   EventExtra{}.Keys(),
			DefaultLimit:  defaultLimit,
		}, nil
	}
	return Mapping{}, fmt.Errorf("%w: %q", ErrUnsupportedType, string(t))
}

// MustLookup is for call sites that hold an already validated type.
func MustLookup(t ResourceType) Mapping {
	m, err := Lookup(t)
	if err != nil {
		panic(err)
	}
	return m
}

// ParseType accepts both the singular type name and the plural route name.
func ParseType(s string) (ResourceType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, t := range Types() {
		m := MustLookup(t)
		if s == string(t) || s == m.Route {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedType, s)
}

// Describe lists every mapping, used by the schema endpoint.
func Describe() []Mapping {
	out := make([]Mapping, 0, len(Types()))
	for _, t := range Types() {
		out = append(out, MustLookup(t))
	}
	return out
}

// Aliases returns canonical column -> alias for the non-empty aliases of m.
func (m Mapping) Aliases() map[string]string {
	aliases := make(map[string]string, 4)
	if m.FileURLAlias != "" {
		aliases["file_url"] = m.FileURLAlias
	}
	if m.CoverURLAlias != "" {
		aliases["cover_url"] = m.CoverURLAlias
	}
	if m.DescriptionAlias != "" {
		aliases["description"] = m.DescriptionAlias
	}
	if m.CategoryAlias != "" {
		aliases["category"] = m.CategoryAlias
	}
	return aliases
}
