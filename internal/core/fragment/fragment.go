// Package fragment models a URL fragment as an ordered set of keys.
//
// A fragment looks like "map=3/51.5/0&layers=ab&path". Each key maps to
// either a string value or a bare flag. Serialization puts the well-known
// view keys first and everything else in insertion order, so two states
// with the same content always render to the same text.
package fragment

import "strings"

// canonical lists the keys that always lead the serialized form.
var canonical = []string{"map", "layers", "overlays", "popups"}

func isCanonical(key string) bool {
	for _, k := range canonical {
		if k == key {
			return true
		}
	}
	return false
}

// Entry is the value stored under a key.
type Entry struct {
	Value string
	Flag  bool
}

// State is a parsed fragment. The zero value is an empty state.
type State struct {
	entries map[string]Entry
	order   []string
}

// New returns an empty state.
func New() *State {
	return &State{entries: make(map[string]Entry)}
}

// Parse reads fragment text. A leading '#' is ignored, empty segments are
// dropped and a segment without '=' becomes a flag. Keys and values are
// kept verbatim. A repeated key overwrites the earlier value but keeps its
// first position. Parse never fails.
func Parse(text string) *State {
	s := New()
	text = strings.TrimPrefix(text, "#")
	for _, seg := range strings.Split(text, "&") {
		if seg == "" {
			continue
		}
		if key, value, ok := strings.Cut(seg, "="); ok {
			s.Set(key, value)
		} else {
			s.SetFlag(seg)
		}
	}
	return s
}

// Serialize renders the state as fragment text without a leading '#'.
func Serialize(s *State) string {
	if s == nil {
		return ""
	}
	return s.String()
}

// String renders the state as fragment text without a leading '#'.
func (s *State) String() string {
	var b strings.Builder
	for _, key := range s.Keys() {
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(key)
		if e := s.entries[key]; !e.Flag {
			b.WriteByte('=')
			b.WriteString(e.Value)
		}
	}
	return b.String()
}

// Keys returns the keys in serialization order.
func (s *State) Keys() []string {
	keys := make([]string, 0, len(s.order))
	for _, k := range canonical {
		if _, ok := s.entries[k]; ok {
			keys = append(keys, k)
		}
	}
	for _, k := range s.order {
		if !isCanonical(k) {
			keys = append(keys, k)
		}
	}
	return keys
}

// Len returns the number of keys.
func (s *State) Len() int { return len(s.order) }

// Get returns the entry for key.
func (s *State) Get(key string) (Entry, bool) {
	e, ok := s.entries[key]
	return e, ok
}

// Value returns the string value for key. Flags report false.
func (s *State) Value(key string) (string, bool) {
	e, ok := s.entries[key]
	if !ok || e.Flag {
		return "", false
	}
	return e.Value, true
}

// Has reports whether key is present, as a value or a flag.
func (s *State) Has(key string) bool {
	_, ok := s.entries[key]
	return ok
}

// Set stores a string value. An existing key keeps its position.
func (s *State) Set(key, value string) {
	s.put(key, Entry{Value: value})
}

// SetFlag stores key as a presence-only flag.
func (s *State) SetFlag(key string) {
	s.put(key, Entry{Flag: true})
}

// Delete removes key. Setting it again appends it at the end.
func (s *State) Delete(key string) {
	if _, ok := s.entries[key]; !ok {
		return
	}
	delete(s.entries, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Clone returns an independent copy.
func (s *State) Clone() *State {
	c := &State{
		entries: make(map[string]Entry, len(s.entries)),
		order:   make([]string, len(s.order)),
	}
	for k, v := range s.entries {
		c.entries[k] = v
	}
	copy(c.order, s.order)
	return c
}

func (s *State) put(key string, e Entry) {
	if s.entries == nil {
		s.entries = make(map[string]Entry)
	}
	if _, ok := s.entries[key]; !ok {
		s.order = append(s.order, key)
	}
	s.entries[key] = e
}
