package registry

import (
	"encoding/json"
	"fmt"
)

// Extra is the type-specific attribute bag stored in resources.extra_data.
// Keys returns the attribute names in their declared order.
type Extra interface {
	Type() ResourceType
	Keys() []string
	Get(key string) (string, bool)
	Set(key, value string) bool
}

// Attributes are pointers so a value written as "" survives a round trip;
// nil means the attribute was never set.

type PhotoExtra struct {
	Size            *string `json:"size,omitempty"`
	GameType        *string `json:"gameType,omitempty"`
	GameDescription *string `json:"gameDescription,omitempty"`
}

func (PhotoExtra) Type() ResourceType { return Photo }
func (PhotoExtra) Keys() []string     { return []string{"size", "gameType", "gameDescription"} }

func (e *PhotoExtra) Get(key string) (string, bool) {
	switch key {
	case "size":
		return get(e.Size)
	case "gameType":
		return get(e.GameType)
	case "gameDescription":
		return get(e.GameDescription)
	}
	return "", false
}

func (e *PhotoExtra) Set(key, value string) bool {
	switch key {
	case "size":
		e.Size = &value
	case "gameType":
		e.GameType = &value
	case "gameDescription":
		e.GameDescription = &value
	default:
		return false
	}
	return true
}

type MusicExtra struct {
	Artist   *string `json:"artist,omitempty"`
	Duration *string `json:"duration,omitempty"`
}

func (MusicExtra) Type() ResourceType { return Music }
func (MusicExtra) Keys() []string     { return []string{"artist", "duration"} }

func (e *MusicExtra) Get(key string) (string, bool) {
	switch key {
	case "artist":
		return get(e.Artist)
	case "duration":
		return get(e.Duration)
	}
	return "", false
}

func (e *MusicExtra) Set(key, value string) bool {
	switch key {
	case "artist":
		e.Artist = &value
	case "duration":
		e.Duration = &value
	default:
		return false
	}
	return true
}

// VideoExtra has no attributes; videos are fully described by the columns.
type VideoExtra struct{}

func (VideoExtra) Type() ResourceType         { return Video }
func (VideoExtra) Keys() []string             { return []string{} }
func (*VideoExtra) Get(string) (string, bool) { return "", false }
func (*VideoExtra) Set(string, string) bool   { return false }

type ArticleExtra struct {
	Date *string `json:"date,omitempty"`
}

func (ArticleExtra) Type() ResourceType { return Article }
func (ArticleExtra) Keys() []string     { return []string{"date"} }

func (e *ArticleExtra) Get(key string) (string, bool) {
	if key == "date" {
		return get(e.Date)
	}
	return "", false
}

func (e *ArticleExtra) Set(key, value string) bool {
	if key != "date" {
		return false
	}
	e.Date = &value
	return true
}

type EventExtra struct {
	Date     *string `json:"date,omitempty"`
	Location *string `json:"location,omitempty"`
	Link     *string `json:"link,omitempty"`
}

func (EventExtra) Type() ResourceType { return Event }
func (EventExtra) Keys() []string     { return []string{"date", "location", "link"} }

func (e *EventExtra) Get(key string) (string, bool) {
	switch key {
	case "date":
		return get(e.Date)
	case "location":
		return get(e.Location)
	case "link":
		return get(e.Link)
	}
	return "", false
}

func (e *EventExtra) Set(key, value string) bool {
	switch key {
	case "date":
		e.Date = &value
	case "location":
		e.Location = &value
	case "link":
		e.Link = &value
	default:
		return false
	}
	return true
}

func get(v *string) (string, bool) {
	if v == nil {
		return "", false
	}
	return *v, true
}

// NewExtra returns an empty bag for t.
func NewExtra(t ResourceType) (Extra, error) {
	switch t {
	case Photo:
		return &PhotoExtra{}, nil
	case Music:
		return &MusicExtra{}, nil
	case Video:
		return &VideoExtra{}, nil
	case Article:
		return &ArticleExtra{}, nil
	case Event:
		return &EventExtra{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, string(t))
}

func EncodeExtra(e Extra) ([]byte, error) {
	return json.Marshal(e)
}

// DecodeExtra parses a stored bag. Empty input yields an empty bag and
// unknown keys are ignored.
func DecodeExtra(t ResourceType, data []byte) (Extra, error) {
	e, err := NewExtra(t)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 || string(data) == "null" {
		return e, nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode %s extra: %w", t, err)
	}
	for _, k := range e.Keys() {
		v, ok := raw[k]
		if !ok || string(v) == "null" {
			continue
		}
		// values are stored as strings; older rows may carry bare numbers
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			s = string(v)
		}
		e.Set(k, s)
	}
	return e, nil
}

// Values returns the attributes set on e keyed by name, empty ones included.
func Values(e Extra) map[string]string {
	out := make(map[string]string, len(e.Keys()))
	for _, k := range e.Keys() {
		if v, ok := e.Get(k); ok {
			out[k] = v
		}
	}
	return out
}
