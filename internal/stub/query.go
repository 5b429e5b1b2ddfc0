package stub

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/altinukshini/scale-tui/internal/transform"
)

const (
	defaultPageSize = 25
	maxPageSize     = 1000
)

// filterPaths maps query parameters onto the row field they filter.
var filterPaths = map[string]string{
	"job_type_id":       "job_type.id",
	"job_type_name":     "job_type.name",
	"job_type_category": "job_type.category",
	"error_category":    "error.category",
	"type_id":           "recipe_type.id",
	"type_name":         "recipe_type.name",
	"recipe_type_id":    "recipe_type.id",
	"strike_id":         "strike.id",
}

// substringFilters match case-insensitively on part of the value.
var substringFilters = map[string]bool{"name": true, "file_name": true}

var reserved = map[string]bool{
	"page": true, "page_size": true, "order": true,
	"started": true, "ended": true, "time_field": true,
}

// selectRows applies the filters and order in q, the way the Scale REST
// layer does. Parameters naming a field no row carries are ignored.
func selectRows(collection string, rows []transform.Row, q url.Values) []transform.Row {
	out := make([]transform.Row, 0, len(rows))
	field := windowFields[collection]
	if collection == "sources" && q.Get("time_field") == "data" {
		field = "data_started"
	}
	started, hasStarted := transform.ParseTime(q.Get("started"))
	ended, hasEnded := transform.ParseTime(q.Get("ended"))

	filters := map[string][]string{}
	for key, values := range q {
		if reserved[key] {
			continue
		}
		path := key
		if p, ok := filterPaths[key]; ok {
			path = p
		}
		if !anyHas(rows, path) {
			continue
		}
		filters[path] = values
		if substringFilters[key] {
			filters[path] = append([]string{"~"}, values...)
		}
	}

	for _, r := range rows {
		if field != "" && (hasStarted || hasEnded) {
			t, ok := transform.ParseTime(r.String(field))
			if !ok || (hasStarted && t.Before(started)) || (hasEnded && t.After(ended)) {
				continue
			}
		}
		if matches(r, filters) {
			out = append(out, r)
		}
	}
	sortRows(out, orderFields(q))
	return out
}

func anyHas(rows []transform.Row, path string) bool {
	for _, r := range rows {
		if _, ok := r.Lookup(path); ok {
			return true
		}
	}
	return false
}

func matches(r transform.Row, filters map[string][]string) bool {
	for path, values := range filters {
		got := r.String(path)
		if len(values) > 0 && values[0] == "~" {
			if !containsAny(got, values[1:]) {
				return false
			}
			continue
		}
		ok := false
		for _, v := range values {
			if strings.EqualFold(got, v) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

func containsAny(s string, subs []string) bool {
	s = strings.ToLower(s)
	for _, sub := range subs {
		if strings.Contains(s, strings.ToLower(sub)) {
			return true
		}
	}
	return false
}

type orderKey struct {
	path string
	desc bool
}

// orderFields reads repeated or comma separated order values. Related
// fields use "__" the way Django does.
func orderFields(q url.Values) []orderKey {
	var keys []orderKey
	for _, v := range q["order"] {
		for _, f := range strings.Split(v, ",") {
			f = strings.TrimSpace(f)
			if f == "" {
				continue
			}
			k := orderKey{}
			if strings.HasPrefix(f, "-") {
				k.desc = true
				f = f[1:]
			}
			k.path = strings.ReplaceAll(f, "__", ".")
			keys = append(keys, k)
		}
	}
	return keys
}

func sortRows(rows []transform.Row, keys []orderKey) {
	if len(keys) == 0 {
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, k := range keys {
			c := compareValues(rows[i].String(k.path), rows[j].String(k.path))
			if c == 0 {
				continue
			}
			if k.desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

// compareValues orders numbers numerically, timestamps chronologically and
// everything else as text.
func compareValues(a, b string) int {
	if fa, err := strconv.ParseFloat(a, 64); err == nil {
		if fb, err := strconv.ParseFloat(b, 64); err == nil {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
	}
	if ta, ok := transform.ParseTime(a); ok {
		if tb, ok := transform.ParseTime(b); ok {
			return ta.Compare(tb)
		}
	}
	return strings.Compare(a, b)
}

// paginate cuts one page out of rows. ok is false for a page past the end,
// which Scale answers with 404.
func paginate(rows []transform.Row, q url.Values) (page []transform.Row, number, size int, ok bool) {
	size = defaultPageSize
	if n, err := strconv.Atoi(q.Get("page_size")); err == nil && n > 0 {
		size = min(n, maxPageSize)
	}
	number = 1
	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return nil, 0, size, false
		}
		number = n
	}
	pages := max(1, (len(rows)+size-1)/size)
	if number > pages {
		return nil, number, size, false
	}
	lo := (number - 1) * size
	hi := min(lo+size, len(rows))
	return rows[lo:hi], number, size, true
}

// window reads started/ended, defaulting to the day before now.
func window(q url.Values, now time.Time) (time.Time, time.Time) {
	started, ok := transform.ParseTime(q.Get("started"))
	if !ok {
		started = now.Add(-24 * time.Hour)
	}
	ended, ok := transform.ParseTime(q.Get("ended"))
	if !ok {
		ended = now
	}
	return started, ended
}
