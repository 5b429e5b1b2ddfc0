// Package viewstate holds the filter, sort and page state of list views and
// keeps it in sync with the in-app location bar.
package viewstate

import (
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Params is the current state of one list view. A key that is absent is
// null. A scalar is a one-element slice, so single and multi-valued keys are
// read the same way.
type Params map[string][]string

// Get returns the first value of key, or "" when the key is null.
func (p Params) Get(key string) string {
	if vs := p[key]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// Values returns every value of key.
func (p Params) Values(key string) []string {
	return p[key]
}

// Has reports whether key carries at least one value.
func (p Params) Has(key string) bool {
	return len(p[key]) > 0
}

// Set replaces the values of key. Setting no values nulls the key.
func (p Params) Set(key string, values ...string) {
	if len(values) == 0 {
		delete(p, key)
		return
	}
	p[key] = slices.Clone(values)
}

// Del nulls key.
func (p Params) Del(key string) {
	delete(p, key)
}

// Int parses the first value of key. ok is false when the key is null or
// not a number.
func (p Params) Int(key string) (int, bool) {
	if !p.Has(key) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(p.Get(key)))
	if err != nil {
		return 0, false
	}
	return n, true
}

// IntOr is Int with a fallback for null or malformed values.
func (p Params) IntOr(key string, fallback int) int {
	if n, ok := p.Int(key); ok {
		return n
	}
	return fallback
}

// Bool parses the first value of key.
func (p Params) Bool(key string) (bool, bool) {
	if !p.Has(key) {
		return false, false
	}
	b, err := strconv.ParseBool(p.Get(key))
	if err != nil {
		return false, false
	}
	return b, true
}

// Time parses the first value of key as an RFC 3339 timestamp.
func (p Params) Time(key string) (time.Time, bool) {
	if !p.Has(key) {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, p.Get(key))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Sort reads key as a sort specification.
func (p Params) Sort(key string) SortSpec {
	return ParseSort(p.Values(key))
}

// Clone returns a deep copy.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, vs := range p {
		if len(vs) > 0 {
			out[k] = slices.Clone(vs)
		}
	}
	return out
}

// Merge returns a copy of p with every non-null key of over applied on top.
func (p Params) Merge(over Params) Params {
	out := p.Clone()
	for k, vs := range over {
		if len(vs) > 0 {
			out[k] = slices.Clone(vs)
		}
	}
	return out
}

// Keys returns the non-null keys in sorted order.
func (p Params) Keys() []string {
	keys := make([]string, 0, len(p))
	for k, vs := range p {
		if len(vs) > 0 {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Equal compares two parameter sets, ignoring null keys.
func (p Params) Equal(o Params) bool {
	return len(Changed(p, o)) == 0
}

// Changed lists the keys whose values differ between a and b.
func Changed(a, b Params) []string {
	seen := make(map[string]bool)
	var changed []string
	check := func(k string) {
		if seen[k] {
			return
		}
		seen[k] = true
		if !slices.Equal(a[k], b[k]) && (len(a[k]) > 0 || len(b[k]) > 0) {
			changed = append(changed, k)
		}
	}
	for k := range a {
		check(k)
	}
	for k := range b {
		check(k)
	}
	sort.Strings(changed)
	return changed
}
