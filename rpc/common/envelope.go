package common

import (
	"fmt"
	"strings"
)

// --------------------------------------------------------------------------
// Head Field Conventions
// --------------------------------------------------------------------------

// Conventional head keys. Head is an open schema, these are plain entries
// used by the client façade, not a fixed struct.
const (
	HeadName     = "name"     // source process name
	HeadPID      = "pid"      // source process id
	HeadIP       = "ip"       // source local ip
	HeadHostname = "hostname" // source local hostname
	HeadSource   = "source"   // logical source system
	HeadTarget   = "target"   // logical target system
	HeadResult   = "result"   // call outcome, boolean
	HeadMessage  = "message"  // short human-readable status
	HeadTime     = "time"     // elapsed call time in nanoseconds
)

// --------------------------------------------------------------------------
// Ordered Map
// --------------------------------------------------------------------------

// Map is a string-keyed mapping of Values that preserves insertion order.
// Keys are unique; setting an existing key overwrites the value in place
// without moving it. Order is visible to callers for diagnostics but not
// required for correctness.
//
// A Map is not safe for concurrent mutation; every call owns its own
// envelope (see Envelope).
type Map struct {
	keys []string
	vals map[string]Value
}

// NewMap creates an empty ordered map.
func NewMap() *Map {
	return &Map{vals: make(map[string]Value)}
}

// Set inserts or overwrites the value for key.
func (m *Map) Set(key string, v Value) {
	if _, ok := m.vals[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.vals[key] = v
}

// Get returns the value for key and whether it is present.
func (m *Map) Get(key string) (Value, bool) {
	v, ok := m.vals[key]
	return v, ok
}

// Has reports whether key is present.
func (m *Map) Has(key string) bool {
	_, ok := m.vals[key]
	return ok
}

// Len returns the number of entries.
func (m *Map) Len() int {
	return len(m.keys)
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	keys := make([]string, len(m.keys))
	copy(keys, m.keys)
	return keys
}

// Range calls fn for every entry in insertion order until fn returns false.
func (m *Map) Range(fn func(key string, v Value) bool) {
	for _, k := range m.keys {
		if !fn(k, m.vals[k]) {
			return
		}
	}
}

// GetString returns the string payload for key, or "" if the key is absent
// or not a string.
func (m *Map) GetString(key string) string {
	if v, ok := m.vals[key]; ok && v.Tag() == TagString {
		return v.Str()
	}
	return ""
}

// GetBool returns the boolean payload for key, or false if the key is
// absent or not a bool.
func (m *Map) GetBool(key string) bool {
	if v, ok := m.vals[key]; ok && v.Tag() == TagBool {
		return v.Bool()
	}
	return false
}

// GetInt returns the integer payload for key, or 0 if the key is absent or
// not an int64.
func (m *Map) GetInt(key string) int64 {
	if v, ok := m.vals[key]; ok && v.Tag() == TagInt64 {
		return v.Int()
	}
	return 0
}

// String renders the map in insertion order for diagnostics.
func (m *Map) String() string {
	var sb strings.Builder
	sb.WriteString("{")
	for i, k := range m.keys {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(fmt.Sprintf("%s=%s", k, m.vals[k].String()))
	}
	sb.WriteString("}")
	return sb.String()
}

// --------------------------------------------------------------------------
// Envelope
// --------------------------------------------------------------------------

// Envelope is the unit exchanged in one call: two independent ordered
// mappings, head for metadata (identity, routing, outcome) and data for the
// caller-supplied payload.
type Envelope struct {
	Head *Map
	Data *Map
}

// NewEnvelope creates an envelope with empty head and data sections.
func NewEnvelope() *Envelope {
	return &Envelope{Head: NewMap(), Data: NewMap()}
}

// Result reports whether the envelope head marks the call as successful.
func (e *Envelope) Result() bool {
	return e.Head.GetBool(HeadResult)
}

// Message returns the human-readable status from the envelope head.
func (e *Envelope) Message() string {
	return e.Head.GetString(HeadMessage)
}

// String renders the envelope for diagnostics.
func (e *Envelope) String() string {
	return fmt.Sprintf("head=%s data=%s", e.Head.String(), e.Data.String())
}
