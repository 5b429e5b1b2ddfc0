package viewstate

import (
	"net/url"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

var testSchema = Schema{
	View: "jobs",
	Fields: []Field{
		{Name: "page", Kind: Int},
		{Name: "page_size", Kind: Int},
		{Name: "order", Kind: Sort, Multi: true},
		{Name: "status", Kind: String},
		{Name: "job_type_id", Kind: Int},
		{Name: "started", Kind: Time},
	},
	Defaults: func(now time.Time) Params {
		return Params{
			"page":      {"1"},
			"page_size": {"25"},
			"order":     {"-last_modified"},
		}
	},
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   Params
	}{
		{"scalars", Params{"page": {"2"}, "page_size": {"25"}, "status": {"FAILED"}}},
		{"multi order", Params{"order": {"-created", "job_type"}}},
		{"malformed kept", Params{"page": {"abc"}}},
		{"empty string kept", Params{"status": {""}, "page": {"2"}}},
		{"empty", Params{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Read(testSchema, Write(tt.in))
			if !got.Equal(tt.in) {
				t.Errorf("Read(Write(p)) = %v, want %v", got, tt.in)
			}
		})
	}
}

func TestReadDropsUnknownKeys(t *testing.T) {
	q := url.Values{"page": {"3"}, "bogus": {"x"}, "status": {""}}
	got := Read(testSchema, q)
	if got.Has("bogus") {
		t.Error("unrecognized key should be dropped")
	}
	if !got.Has("status") || got.Get("status") != "" {
		t.Errorf("empty value should be kept, got %v", got.Values("status"))
	}
	if got.Get("page") != "3" {
		t.Errorf("page = %q, want 3", got.Get("page"))
	}
}

func TestRepeatedKeyCollapsesToList(t *testing.T) {
	q := ParseLocation("jobs?order=-created&order=status").Query
	got := Read(testSchema, q).Values("order")
	if !slices.Equal(got, []string{"-created", "status"}) {
		t.Errorf("order = %v", got)
	}
	single := Read(testSchema, ParseLocation("jobs?order=-created").Query)
	if single.Sort("order")[0] != (SortKey{Field: "created", Desc: true}) {
		t.Errorf("scalar order should read like a one-element list, got %v", single.Sort("order"))
	}
}

func TestParseSort(t *testing.T) {
	tests := []struct {
		in   []string
		want SortSpec
	}{
		{[]string{"-created"}, SortSpec{{"created", true}}},
		{[]string{"status", "-created"}, SortSpec{{"status", false}, {"created", true}}},
		{[]string{"status", "-status"}, SortSpec{{"status", false}}},
		{[]string{"", "-"}, nil},
	}
	for _, tt := range tests {
		got := ParseSort(tt.in)
		if !slices.Equal(got, tt.want) {
			t.Errorf("ParseSort(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSortInverse(t *testing.T) {
	spec := SortSpec{{"created", true}, {"job_type", false}, {"status", true}}
	if got := ParseSort(spec.Strings()); !slices.Equal(got, spec) {
		t.Errorf("ParseSort(Strings()) = %v, want %v", got, spec)
	}
}

func TestWithPrimary(t *testing.T) {
	spec := SortSpec{{"created", true}, {"status", false}}
	got := spec.WithPrimary("status", true)
	want := SortSpec{{"status", true}, {"created", true}}
	if !slices.Equal(got, want) {
		t.Errorf("WithPrimary = %v, want %v", got, want)
	}
}

func TestSeedPrecedence(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	shared := NewSharedStore()
	shared.SaveParams("jobs", Params{"status": {"RUNNING"}, "page": {"4"}})

	t.Run("url wins", func(t *testing.T) {
		q := ParseLocation("jobs?page=2&order=-created").Query
		got := Seed(testSchema, q, shared, now)
		if got.Get("page") != "2" || got.Get("order") != "-created" {
			t.Errorf("url params not applied: %v", got)
		}
		if got.Has("status") {
			t.Error("shared state must not mix into a url-seeded view")
		}
		if got.Get("page_size") != "25" {
			t.Errorf("missing key should default, got %v", got)
		}
	})

	t.Run("shared when url empty", func(t *testing.T) {
		got := Seed(testSchema, url.Values{"unknown": {"1"}}, shared, now)
		if got.Get("status") != "RUNNING" || got.Get("page") != "4" {
			t.Errorf("shared params not applied: %v", got)
		}
	})

	t.Run("defaults", func(t *testing.T) {
		got := Seed(testSchema, nil, NewSharedStore(), now)
		if got.Get("page") != "1" || got.Get("order") != "-last_modified" {
			t.Errorf("defaults not applied: %v", got)
		}
	})
}

func TestStoreMirrorsIntoRouterWithoutHistory(t *testing.T) {
	r := NewRouter(ParseLocation("jobs"))
	s := NewStore(testSchema, "jobs", r, Params{"page": {"1"}})

	var notified [][]string
	unsub := s.Subscribe(func(changed []string, _ Params) {
		notified = append(notified, changed)
	})

	s.Update(func(p Params) Params {
		p.Set("status", "FAILED")
		p.Set("page", "1")
		return p
	})
	if r.Depth() != 1 {
		t.Errorf("filter change added history: depth %d", r.Depth())
	}
	if got := r.Current().String(); got != "jobs?page=1&status=FAILED" {
		t.Errorf("location = %q", got)
	}
	if len(notified) != 1 || !slices.Equal(notified[0], []string{"status"}) {
		t.Errorf("notified = %v, want [[status]]", notified)
	}

	// No change, no notification.
	s.Set(s.Params())
	if len(notified) != 1 {
		t.Errorf("unchanged Set notified subscribers")
	}

	unsub()
	s.Update(func(p Params) Params { p.Del("status"); return p })
	if len(notified) != 1 {
		t.Error("unsubscribed callback still called")
	}
	if r.Current().Query.Has("status") {
		t.Error("null key must not be written to the location")
	}
}

func TestStoreDoesNotTouchOtherRoutes(t *testing.T) {
	r := NewRouter(ParseLocation("recipes?page=5"))
	s := NewStore(testSchema, "jobs", r, Params{"page": {"1"}})
	s.Set(Params{"page": {"2"}})
	if got := r.Current().String(); got != "recipes?page=5" {
		t.Errorf("store for jobs rewrote %q", got)
	}
}

func TestRouterBack(t *testing.T) {
	r := NewRouter(ParseLocation("jobs?page=2"))
	r.Navigate(ParseLocation("jobs/job/12"))
	if !r.Back() {
		t.Fatal("Back() = false with two entries")
	}
	if got := r.Current().String(); got != "jobs?page=2" {
		t.Errorf("after Back location = %q", got)
	}
	if r.Back() {
		t.Error("Back() at root should return false")
	}
}

func TestParseLocationNeverFails(t *testing.T) {
	loc := ParseLocation("/jobs/?page=%zz&status=FAILED")
	if loc.Path != "jobs" {
		t.Errorf("path = %q", loc.Path)
	}
	if loc.Query.Get("status") != "FAILED" {
		t.Errorf("decodable pairs should survive, got %v", loc.Query)
	}
}

func TestSharedStorePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yaml")
	s, err := LoadSharedStore(path)
	if err != nil {
		t.Fatalf("LoadSharedStore: %v", err)
	}
	s.SaveParams("ingests", Params{"status": {"ERRORED"}, "order": {"-created", "file_name"}})
	if err := s.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	again, err := LoadSharedStore(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	got, ok := again.LastParams("ingests")
	if !ok {
		t.Fatal("ingests state lost")
	}
	if !slices.Equal(got.Values("order"), []string{"-created", "file_name"}) {
		t.Errorf("order = %v", got.Values("order"))
	}
}

func TestParamsAccessors(t *testing.T) {
	p := Params{"page": {" 3 "}, "bad": {"x"}, "flag": {"true"}, "started": {"2024-01-02T00:00:00Z"}}
	if n, ok := p.Int("page"); !ok || n != 3 {
		t.Errorf("Int(page) = %d, %v", n, ok)
	}
	if _, ok := p.Int("bad"); ok {
		t.Error("Int(bad) should fail")
	}
	if p.IntOr("missing", 7) != 7 {
		t.Error("IntOr fallback")
	}
	if b, ok := p.Bool("flag"); !ok || !b {
		t.Error("Bool(flag)")
	}
	if ts, ok := p.Time("started"); !ok || ts.Day() != 2 {
		t.Errorf("Time(started) = %v, %v", ts, ok)
	}
}

func TestLastWeek(t *testing.T) {
	now := time.Date(2024, 3, 10, 15, 4, 5, 0, time.UTC)
	started, ended := LastWeek(now)
	if !started.Equal(time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("started = %v", started)
	}
	if ended.Day() != 10 || ended.Hour() != 23 {
		t.Errorf("ended = %v", ended)
	}
}
