package models

import (
	"bytes"
	"encoding/json"
)

// Tag is an ordered Nostr tag tuple. The first element is the tag name.
type Tag []string

// UnmarshalJSON decodes a tag leniently so one malformed tag never fails the
// event. Numbers and booleans keep their JSON text, null and nested values
// become "", and a tag that is not an array decodes as an empty tag.
func (t *Tag) UnmarshalJSON(data []byte) error {
	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		*t = Tag{}
		return nil
	}
	out := make(Tag, len(elems))
	for i, raw := range elems {
		out[i] = tagElement(raw)
	}
	*t = out
	return nil
}

func tagElement(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	switch c := raw[0]; {
	case c == '-' || (c >= '0' && c <= '9'), c == 't', c == 'f':
		return string(raw)
	default:
		return ""
	}
}

// Name returns the tag name, or "" for an empty tag.
func (t Tag) Name() string {
	if len(t) == 0 {
		return ""
	}
	return t[0]
}

// Value returns the second element of the tag and whether it exists.
func (t Tag) Value() (string, bool) {
	if len(t) < 2 {
		return "", false
	}
	return t[1], true
}

// RawEvent is a metric event as produced by loaders, HTTP bodies or broker messages.
// It is read-only input for the analytics core.
type RawEvent struct {
	ID        string `json:"id,omitempty"`
	Kind      int    `json:"kind"`
	Content   string `json:"content"`
	Tags      []Tag  `json:"tags"`
	CreatedAt int64  `json:"created_at"` // unix seconds
}

// FindTag returns the first tag with the given name.
func (e RawEvent) FindTag(name string) (Tag, bool) {
	for _, t := range e.Tags {
		if t.Name() == name {
			return t, true
		}
	}
	return nil, false
}

// HasTag reports whether a tag with the given name exists.
func (e RawEvent) HasTag(name string) bool {
	_, ok := e.FindTag(name)
	return ok
}
