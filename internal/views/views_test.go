package views

import (
	"testing"
	"time"

	"github.com/altinukshini/scale-tui/internal/viewstate"
)

var now = time.Date(2016, 3, 10, 15, 4, 5, 0, time.UTC)

func TestCatalogIsConsistent(t *testing.T) {
	for _, name := range Names() {
		v, _ := Lookup(name)
		t.Run(name, func(t *testing.T) {
			if v.Schema.View != name {
				t.Errorf("schema view = %q", v.Schema.View)
			}
			for key := range v.Schema.DefaultParams(now) {
				if !v.Schema.Recognizes(key) {
					t.Errorf("default %q is not a recognized parameter", key)
				}
			}
			for _, f := range v.Filters {
				if !v.Schema.Recognizes(f.Key) {
					t.Errorf("filter %q is not a recognized parameter", f.Key)
				}
			}
			if v.Endpoint.Path == "" {
				t.Error("no endpoint")
			}
			if len(v.Columns) == 0 {
				t.Error("no columns")
			}
		})
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		path   string
		view   string
		id     string
		wantOK bool
	}{
		{"jobs", "jobs", "", true},
		{"jobs/12", "jobs", "12", true},
		{"/recipes/3/", "recipes", "3", true},
		{"nope", "", "", false},
	}
	for _, tt := range tests {
		v, id, ok := Resolve(tt.path)
		if ok != tt.wantOK || v.Name != tt.view || id != tt.id {
			t.Errorf("Resolve(%q) = %q, %q, %v", tt.path, v.Name, id, ok)
		}
	}
}

func TestDetailRoute(t *testing.T) {
	jobs, _ := Lookup("jobs")
	if got := jobs.DetailRoute("7"); got != "jobs/7" {
		t.Errorf("DetailRoute = %q", got)
	}
	if got := jobs.Record("7"); got != "jobs/7/" {
		t.Errorf("Record = %q", got)
	}
	if jobs.DetailRoute("") != "" {
		t.Error("empty id should have no route")
	}
}

func TestBookmarkedLocationDrivesRequest(t *testing.T) {
	jobs, _ := Lookup("jobs")
	loc := viewstate.ParseLocation("jobs?page=2&page_size=25&order=-created")
	p := viewstate.Seed(jobs.Schema, loc.Query, nil, now)
	q := jobs.Endpoint.Build(p)

	if q.Get("page") != "2" || q.Get("page_size") != "25" {
		t.Errorf("paging = %v", q)
	}
	if got := q["order"]; len(got) != 1 || got[0] != "-created" {
		t.Errorf("order = %v", got)
	}
	if q.Get("started") == "" {
		t.Error("window default missing from request")
	}
}

func TestJobsDefaults(t *testing.T) {
	jobs, _ := Lookup("jobs")
	p := jobs.Schema.DefaultParams(now)
	if p.Get("started") != "2016-03-03T00:00:00Z" {
		t.Errorf("started = %q", p.Get("started"))
	}
	if p.Get("ended") != "2016-03-10T23:59:59.999Z" {
		t.Errorf("ended = %q", p.Get("ended"))
	}
	if p.Get("order") != "-last_modified" || p.Get("page") != "1" || p.Get("page_size") != "25" {
		t.Errorf("defaults = %v", p)
	}
}

func TestWorkspacesActiveFilter(t *testing.T) {
	v, ok := Lookup("workspaces")
	if !ok {
		t.Fatal("workspaces not registered")
	}
	p := viewstate.Seed(v.Schema, viewstate.ParseLocation("workspaces?is_active=false").Query, nil, now)
	q := v.Endpoint.Build(p)
	if q.Get("is_active") != "false" || q.Get("order") != "-last_modified" {
		t.Errorf("query = %v", q)
	}
	if got := v.Record("4"); got != "workspaces/4/" {
		t.Errorf("Record = %q", got)
	}
}
