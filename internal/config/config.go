// Package config implements the immutable, layered configuration tree
// described by the runtime's host integration: a value is either a string,
// int, float, bool, array, or subtree, loaded from YAML and overridable by
// environment variables.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MissingConfigError is returned when a path has no value and no default
// was supplied.
type MissingConfigError struct {
	Path string
}

func (e *MissingConfigError) Error() string {
	return fmt.Sprintf("config: missing value at path %q", e.Path)
}

// WrongTypeConfigError is returned when a path resolves to a value that
// can't be coerced to the requested scalar type.
type WrongTypeConfigError struct {
	Path string
	Want string
	Got  any
}

func (e *WrongTypeConfigError) Error() string {
	return fmt.Sprintf("config: path %q wanted %s, got %T", e.Path, e.Want, e.Got)
}

// Tree is an immutable node in the configuration tree. The zero value is an
// empty tree.
type Tree struct {
	values map[string]any
}

// New wraps a raw map (as produced by a YAML/JSON unmarshal into
// map[string]any) as a Tree.
func New(values map[string]any) *Tree {
	if values == nil {
		values = map[string]any{}
	}
	return &Tree{values: values}
}

// Empty returns a Tree with no entries.
func Empty() *Tree {
	return New(nil)
}

func splitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

// lookup walks path's dotted segments, returning the raw value and whether
// it was found.
func (t *Tree) lookup(path string) (any, bool) {
	if t == nil {
		return nil, false
	}

	segs := splitPath(path)
	if len(segs) == 0 {
		return nil, false
	}

	cur := any(t.values)
	for _, seg := range segs {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		v, ok := m[seg]
		if !ok {
			return nil, false
		}
		cur = v
	}

	return cur, true
}

// HasPath reports whether path resolves to any value, scalar or subtree.
func (t *Tree) HasPath(path string) bool {
	_, ok := t.lookup(path)
	return ok
}

// GetConfig returns the subtree rooted at path, if any.
func (t *Tree) GetConfig(path string) (*Tree, bool) {
	v, ok := t.lookup(path)
	if !ok {
		return nil, false
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	return New(m), true
}

func (t *Tree) scalar(path string) (any, error) {
	v, ok := t.lookup(path)
	if !ok {
		return nil, &MissingConfigError{Path: path}
	}
	if _, isMap := v.(map[string]any); isMap {
		return nil, &WrongTypeConfigError{Path: path, Want: "scalar", Got: v}
	}
	return v, nil
}

// GetString returns the string at path, an optional default if absent, or
// MissingConfigError/WrongTypeConfigError.
func (t *Tree) GetString(path string, def ...string) (string, error) {
	v, err := t.scalar(path)
	if err != nil {
		if _, ok := err.(*MissingConfigError); ok && len(def) > 0 {
			return def[0], nil
		}
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", &WrongTypeConfigError{Path: path, Want: "string", Got: v}
	}
	return s, nil
}

// GetInt returns the int at path, coercing any numeric scalar type YAML may
// have produced (int, int64, float64).
func (t *Tree) GetInt(path string, def ...int) (int, error) {
	v, err := t.scalar(path)
	if err != nil {
		if _, ok := err.(*MissingConfigError); ok && len(def) > 0 {
			return def[0], nil
		}
		return 0, err
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	case string:
		parsed, perr := strconv.Atoi(n)
		if perr != nil {
			return 0, &WrongTypeConfigError{Path: path, Want: "int", Got: v}
		}
		return parsed, nil
	default:
		return 0, &WrongTypeConfigError{Path: path, Want: "int", Got: v}
	}
}

// GetFloat returns the float64 at path.
func (t *Tree) GetFloat(path string, def ...float64) (float64, error) {
	v, err := t.scalar(path)
	if err != nil {
		if _, ok := err.(*MissingConfigError); ok && len(def) > 0 {
			return def[0], nil
		}
		return 0, err
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		parsed, perr := strconv.ParseFloat(n, 64)
		if perr != nil {
			return 0, &WrongTypeConfigError{Path: path, Want: "float", Got: v}
		}
		return parsed, nil
	default:
		return 0, &WrongTypeConfigError{Path: path, Want: "float", Got: v}
	}
}

// GetBool returns the bool at path.
func (t *Tree) GetBool(path string, def ...bool) (bool, error) {
	v, err := t.scalar(path)
	if err != nil {
		if _, ok := err.(*MissingConfigError); ok && len(def) > 0 {
			return def[0], nil
		}
		return false, err
	}
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		parsed, perr := strconv.ParseBool(b)
		if perr != nil {
			return false, &WrongTypeConfigError{Path: path, Want: "bool", Got: v}
		}
		return parsed, nil
	default:
		return false, &WrongTypeConfigError{Path: path, Want: "bool", Got: v}
	}
}

// GetDuration returns the time.Duration at path. Suffixed strings
// (ns/us/ms/s/m/h/d) are parsed per Go convention extended with a "d" (day)
// unit; a bare number (int, float, or unsuffixed numeric string) is
// interpreted as milliseconds.
func (t *Tree) GetDuration(path string, def ...time.Duration) (time.Duration, error) {
	v, err := t.scalar(path)
	if err != nil {
		if _, ok := err.(*MissingConfigError); ok && len(def) > 0 {
			return def[0], nil
		}
		return 0, err
	}

	switch n := v.(type) {
	case int:
		return time.Duration(n) * time.Millisecond, nil
	case int64:
		return time.Duration(n) * time.Millisecond, nil
	case float64:
		return time.Duration(n * float64(time.Millisecond)), nil
	case string:
		d, perr := parseDuration(n)
		if perr != nil {
			return 0, &WrongTypeConfigError{Path: path, Want: "duration", Got: v}
		}
		return d, nil
	default:
		return 0, &WrongTypeConfigError{Path: path, Want: "duration", Got: v}
	}
}

func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}

	if !strings.HasSuffix(s, "d") {
		if d, err := time.ParseDuration(s); err == nil {
			return d, nil
		}
	}

	if strings.HasSuffix(s, "d") {
		numPart := strings.TrimSuffix(s, "d")
		days, err := strconv.ParseFloat(numPart, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid day duration %q: %w", s, err)
		}
		return time.Duration(days * 24 * float64(time.Hour)), nil
	}

	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(n * float64(time.Millisecond)), nil
	}

	return 0, fmt.Errorf("invalid duration %q", s)
}

// WithFallback deep-merges other beneath t: where both trees define a
// value at the same path, t's value wins. Returns a new Tree; neither
// input is mutated.
func (t *Tree) WithFallback(other *Tree) *Tree {
	if other == nil {
		return t
	}
	if t == nil {
		return other
	}
	return New(deepMerge(other.values, t.values))
}

// WithOverride deep-merges other atop t: where both trees define a value
// at the same path, other's value wins. Returns a new Tree.
func (t *Tree) WithOverride(other *Tree) *Tree {
	if other == nil {
		return t
	}
	if t == nil {
		return other
	}
	return New(deepMerge(t.values, other.values))
}

// deepMerge merges override atop base, override winning on scalar
// conflicts, subtrees merging recursively. Neither input is mutated.
func deepMerge(base, override map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, ov := range override {
		bv, exists := out[k]
		if !exists {
			out[k] = ov
			continue
		}
		bm, bIsMap := bv.(map[string]any)
		om, oIsMap := ov.(map[string]any)
		if bIsMap && oIsMap {
			out[k] = deepMerge(bm, om)
			continue
		}
		out[k] = ov
	}
	return out
}

// WithEnvOverrides returns a new Tree with values taken from the given
// environment (as KEY=VALUE pairs, e.g. os.Environ()) overlaid atop t.
// A variable PFX_A_B_C maps to path "a.b.c"; variables not carrying prefix
// are ignored. Comma-separated values become string-array leaves.
func (t *Tree) WithEnvOverrides(prefix string, environ []string) *Tree {
	overlay := map[string]any{}
	pfx := strings.ToUpper(prefix)
	if pfx != "" && !strings.HasSuffix(pfx, "_") {
		pfx += "_"
	}

	for _, kv := range environ {
		eq := strings.IndexByte(kv, '=')
		if eq < 0 {
			continue
		}
		key, val := kv[:eq], kv[eq+1:]
		if pfx != "" && !strings.HasPrefix(key, pfx) {
			continue
		}
		rest := strings.TrimPrefix(key, pfx)
		if rest == "" {
			continue
		}

		segs := strings.Split(strings.ToLower(rest), "_")
		setPath(overlay, segs, envValue(val))
	}

	return t.WithOverride(New(overlay))
}

func envValue(val string) any {
	if strings.Contains(val, ",") {
		parts := strings.Split(val, ",")
		out := make([]any, len(parts))
		for i, p := range parts {
			out[i] = p
		}
		return out
	}
	return val
}

func setPath(m map[string]any, segs []string, val any) {
	if len(segs) == 0 {
		return
	}
	if len(segs) == 1 {
		m[segs[0]] = val
		return
	}

	next, ok := m[segs[0]].(map[string]any)
	if !ok {
		next = map[string]any{}
		m[segs[0]] = next
	}
	setPath(next, segs[1:], val)
}
