// Package views declares every list view: what it reads from the location,
// what it asks the backend for and how its rows are displayed.
package views

import (
	"sort"
	"strings"
	"time"

	"github.com/altinukshini/scale-tui/internal/grid"
	"github.com/altinukshini/scale-tui/internal/model"
	"github.com/altinukshini/scale-tui/internal/query"
	"github.com/altinukshini/scale-tui/internal/transform"
	"github.com/altinukshini/scale-tui/internal/viewstate"
)

// Column is one grid column. Sort is the backend field the column sorts by;
// empty means the column is not sortable.
type Column struct {
	Title string
	Key   string
	Width int
	Sort  string
}

// Filter is a server side filter offered by the filter overlay. Options are
// cycled through; a filter without options takes free text.
type Filter struct {
	Key     string
	Label   string
	Options []string
}

// Free reports whether the filter takes free text.
func (f Filter) Free() bool {
	return len(f.Options) == 0
}

// View is the declaration of one list view.
type View struct {
	Name     string
	Title    string
	Schema   viewstate.Schema
	Endpoint query.Endpoint
	Rules    transform.Rules
	Columns  []Column
	Filters  []Filter
	// Record is the API path of one row's detail object.
	Record func(id string) string
	// Poll names the configured refresh interval; empty means the view only
	// refreshes on demand.
	Poll string
}

// DetailRoute is the location of a row's detail view.
func (v View) DetailRoute(id string) string {
	if id == "" || v.Record == nil {
		return ""
	}
	return v.Name + "/" + id
}

// Transformer returns the view's transformer on the wall clock.
func (v View) Transformer() transform.Transformer {
	return transform.New(v.Rules)
}

var catalog = map[string]View{}

func register(v View) {
	v.Schema.View = v.Name
	catalog[v.Name] = v
}

// Lookup finds a view by name.
func Lookup(name string) (View, bool) {
	v, ok := catalog[name]
	return v, ok
}

// Names lists every registered view, sorted.
func Names() []string {
	names := make([]string, 0, len(catalog))
	for n := range catalog {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Resolve splits a location path into its view and, for detail routes, the
// record id. "jobs" and "jobs/12" both resolve to the jobs view.
func Resolve(path string) (View, string, bool) {
	name, id, _ := strings.Cut(strings.Trim(path, "/"), "/")
	v, ok := catalog[name]
	return v, id, ok
}

var pagingFields = []viewstate.Field{
	{Name: "page", Kind: viewstate.Int},
	{Name: "page_size", Kind: viewstate.Int},
	{Name: "order", Kind: viewstate.Sort, Multi: true},
}

var windowFields = []viewstate.Field{
	{Name: "started", Kind: viewstate.Time},
	{Name: "ended", Kind: viewstate.Time},
}

func fields(extra ...viewstate.Field) []viewstate.Field {
	out := append([]viewstate.Field{}, pagingFields...)
	return append(out, extra...)
}

// pagedDefaults is page 1, the default page size and the default order.
func pagedDefaults(now time.Time) viewstate.Params {
	return viewstate.Params{
		"page":      {"1"},
		"page_size": {"25"},
		"order":     {query.DefaultOrder},
	}
}

// windowDefaults adds the last-week started/ended window.
func windowDefaults(now time.Time) viewstate.Params {
	p := pagedDefaults(now)
	started, ended := viewstate.LastWeek(now)
	p.Set("started", started.Format(time.RFC3339Nano))
	p.Set("ended", ended.Format(time.RFC3339Nano))
	return p
}

func statusStrings[S ~string](in []S) []string {
	out := []string{grid.ViewAll}
	for _, s := range in {
		out = append(out, string(s))
	}
	return out
}

func withViewAll(values ...string) []string {
	return append([]string{grid.ViewAll}, values...)
}

func detailPath(collection string) func(string) string {
	return func(id string) string {
		return collection + "/" + id + "/"
	}
}

// JobStatusIcons are the glyphs of job and execution states.
var JobStatusIcons = transform.IconTable{
	Glyphs: map[string]string{
		string(model.StatusCompleted): "✓",
		string(model.StatusFailed):    "✗",
		string(model.StatusRunning):   "●",
		string(model.StatusQueued):    "◷",
		string(model.StatusCanceled):  "⊘",
		string(model.StatusBlocked):   "■",
		string(model.StatusPending):   "…",
	},
	Default: "?",
}

// IngestStatuses are the states of an ingest record.
var IngestStatuses = []string{
	"TRANSFERRING", "TRANSFERRED", "DEFERRED", "INGESTING", "INGESTED", "ERRORED", "DUPLICATE",
}

var IngestStatusIcons = transform.IconTable{
	Glyphs: map[string]string{
		"TRANSFERRING": "↓",
		"TRANSFERRED":  "◷",
		"DEFERRED":     "…",
		"INGESTING":    "●",
		"INGESTED":     "✓",
		"ERRORED":      "✗",
		"DUPLICATE":    "=",
	},
	Default: "?",
}

// BatchStatuses are the states of a batch.
var BatchStatuses = []string{"SUBMITTED", "CREATED"}
