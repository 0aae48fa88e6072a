// Package model defines the business record that flows through the lead
// pipeline, its classification, and run bookkeeping types.
package model

import (
	"fmt"
	"maps"
	"strconv"
	"strings"
)

// NotFound marks a field that was looked for but not found. Exported rows
// carry it in place of empty values.
const NotFound = "NOT_FOUND"

// Unknown is the placeholder business name for records without one.
const Unknown = "UNKNOWN"

// Record is a business record keyed by field name. Values are strings,
// numbers, []string (flags), or the NotFound sentinel. Stages only add
// fields; a stage never deletes what an earlier stage wrote.
type Record map[string]any

// NewRecord builds a Record from plain string fields, skipping empty values.
func NewRecord(fields map[string]string) Record {
	r := make(Record, len(fields))
	for k, v := range fields {
		if v = strings.TrimSpace(v); v != "" {
			r[k] = v
		}
	}
	return r
}

// Clone returns a shallow copy. Flag slices are copied so the clone can be
// appended to independently.
func (r Record) Clone() Record {
	out := maps.Clone(r)
	if out == nil {
		out = Record{}
	}
	if flags, ok := r[FieldValidationFlags].([]string); ok {
		out[FieldValidationFlags] = append([]string(nil), flags...)
	}
	return out
}

// Str returns the field as a trimmed string. Absent fields and the NotFound
// sentinel both yield "".
func (r Record) Str(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case []string:
		s = strings.Join(t, "; ")
	default:
		s = fmt.Sprint(t)
	}
	s = strings.TrimSpace(s)
	if s == NotFound {
		return ""
	}
	return s
}

// Raw returns the field as a string without sentinel filtering.
func (r Record) Raw(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Has reports whether the field holds a real value.
func (r Record) Has(key string) bool {
	return r.Str(key) != ""
}

// Int returns the field as an int, parsing strings and truncating floats.
func (r Record) Int(key string) int {
	switch t := r[key].(type) {
	case int:
		return t
	case int64:
		return int(t)
	case float64:
		return int(t)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			return int(f)
		}
	}
	return 0
}

// Float returns the field as a float64.
func (r Record) Float(key string) float64 {
	switch t := r[key].(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			return f
		}
	}
	return 0
}

// Set assigns a field unconditionally.
func (r Record) Set(key string, v any) {
	r[key] = v
}

// Upgrade fills a field only when it is absent or the sentinel. It reports
// whether the value was written.
func (r Record) Upgrade(key string, v any) bool {
	if r.Has(key) {
		return false
	}
	if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
		return false
	}
	r[key] = v
	return true
}

// Flags returns the validation flags attached to the record.
func (r Record) Flags() []string {
	switch t := r[FieldValidationFlags].(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, v := range t {
			if s, ok := v.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if t == "" || t == NotFound {
			return nil
		}
		parts := strings.Split(t, ";")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return nil
}

// AddFlag appends a validation flag if not already present.
func (r Record) AddFlag(flag string) {
	flags := r.Flags()
	for _, f := range flags {
		if f == flag {
			return
		}
	}
	r[FieldValidationFlags] = append(append([]string(nil), flags...), flag)
}

// Name returns the business name, or Unknown when absent.
func (r Record) Name() string {
	if n := r.Str(FieldBusinessName); n != "" {
		return n
	}
	return Unknown
}

// DataFieldCount counts fields holding collected or derived business data.
// Scores, flags, validity markers and dates written by validation are not
// data and are skipped, as are false booleans.
func (r Record) DataFieldCount() int {
	n := 0
	for k, v := range r {
		if bookkeepingFields[k] {
			continue
		}
		if b, ok := v.(bool); ok && !b {
			continue
		}
		if r.Has(k) {
			n++
		}
	}
	return n
}
