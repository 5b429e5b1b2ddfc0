package viewstate

import (
	"net/url"
	"strings"
)

// Location is a route path plus its query, e.g. "jobs?page=2&order=-created".
type Location struct {
	Path  string
	Query url.Values
}

// ParseLocation splits s into path and query. It never fails: a malformed
// query keeps whatever pairs could be decoded.
func ParseLocation(s string) Location {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "/")
	path, rawQuery, _ := strings.Cut(s, "?")
	return Location{Path: strings.TrimSuffix(path, "/"), Query: ParseQuery(rawQuery)}
}

// ParseQuery decodes a raw query string, dropping pairs that fail to decode.
func ParseQuery(raw string) url.Values {
	q, _ := url.ParseQuery(raw)
	if q == nil {
		q = url.Values{}
	}
	return q
}

func (l Location) String() string {
	if len(l.Query) == 0 {
		return l.Path
	}
	return l.Path + "?" + l.Query.Encode()
}

// Router is the address bar: the current location and the back stack.
// Filter and page changes replace the current entry; only navigation pushes.
type Router struct {
	entries []Location
}

// NewRouter starts at the given location.
func NewRouter(start Location) *Router {
	if start.Query == nil {
		start.Query = url.Values{}
	}
	return &Router{entries: []Location{start}}
}

// Current returns a copy of the current location.
func (r *Router) Current() Location {
	cur := r.entries[len(r.entries)-1]
	return Location{Path: cur.Path, Query: cloneValues(cur.Query)}
}

// Navigate pushes a new entry.
func (r *Router) Navigate(loc Location) {
	r.entries = append(r.entries, Location{Path: loc.Path, Query: cloneValues(loc.Query)})
}

// Replace swaps the current entry for loc without adding history.
func (r *Router) Replace(loc Location) {
	r.entries[len(r.entries)-1] = Location{Path: loc.Path, Query: cloneValues(loc.Query)}
}

// ReplaceQuery rewrites the current entry's query without adding history.
func (r *Router) ReplaceQuery(q url.Values) {
	r.entries[len(r.entries)-1].Query = cloneValues(q)
}

// Back pops the current entry. It returns false at the root.
func (r *Router) Back() bool {
	if len(r.entries) < 2 {
		return false
	}
	r.entries = r.entries[:len(r.entries)-1]
	return true
}

// Depth is the number of history entries.
func (r *Router) Depth() int {
	return len(r.entries)
}

func cloneValues(q url.Values) url.Values {
	out := make(url.Values, len(q))
	for k, vs := range q {
		out[k] = append([]string(nil), vs...)
	}
	return out
}
