package viewstate

import "strings"

// SortKey is one entry of a sort specification.
type SortKey struct {
	Field string
	Desc  bool
}

// String renders the key with a leading "-" when descending.
func (k SortKey) String() string {
	if k.Desc {
		return "-" + k.Field
	}
	return k.Field
}

// SortSpec is an ordered list of sort keys, primary first. A field appears at
// most once.
type SortSpec []SortKey

// ParseSort reads "-field" / "field" values. Empty values are skipped and only
// the first occurrence of a field is kept.
func ParseSort(values []string) SortSpec {
	var spec SortSpec
	seen := make(map[string]bool)
	for _, v := range values {
		v = strings.TrimSpace(v)
		desc := strings.HasPrefix(v, "-")
		field := strings.TrimPrefix(v, "-")
		if field == "" || seen[field] {
			continue
		}
		seen[field] = true
		spec = append(spec, SortKey{Field: field, Desc: desc})
	}
	return spec
}

// Strings is the inverse of ParseSort.
func (s SortSpec) Strings() []string {
	out := make([]string, len(s))
	for i, k := range s {
		out[i] = k.String()
	}
	return out
}

func (s SortSpec) String() string {
	return strings.Join(s.Strings(), ",")
}

// Primary returns the first key.
func (s SortSpec) Primary() (SortKey, bool) {
	if len(s) == 0 {
		return SortKey{}, false
	}
	return s[0], true
}

// WithPrimary moves field to the front with the given direction, keeping the
// remaining keys as tie-breakers.
func (s SortSpec) WithPrimary(field string, desc bool) SortSpec {
	out := SortSpec{{Field: field, Desc: desc}}
	for _, k := range s {
		if k.Field != field {
			out = append(out, k)
		}
	}
	return out
}
