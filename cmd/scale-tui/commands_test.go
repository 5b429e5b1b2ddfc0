package main

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/altinukshini/scale-tui/internal/api"
	"github.com/altinukshini/scale-tui/internal/config"
	"github.com/altinukshini/scale-tui/internal/stub"
)

func TestParseLocation(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		view     string
		wantKey  string
		wantVal  string
		wantFail bool
	}{
		{name: "defaults", args: []string{"jobs"}, view: "jobs", wantKey: "page_size", wantVal: "25"},
		{name: "inline query", args: []string{"jobs?status=FAILED"}, view: "jobs", wantKey: "status", wantVal: "FAILED"},
		{name: "extra args", args: []string{"recipes", "page=3"}, view: "recipes", wantKey: "page", wantVal: "3"},
		{name: "detail route", args: []string{"jobs/12"}, wantFail: true},
		{name: "unknown", args: []string{"nope"}, wantFail: true},
		{name: "empty", wantFail: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, params, err := parseLocation(tt.args)
			if tt.wantFail {
				if err == nil {
					t.Fatalf("expected an error, got view %s", v.Name)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if v.Name != tt.view {
				t.Errorf("view = %s, want %s", v.Name, tt.view)
			}
			if got := params.Get(tt.wantKey); got != tt.wantVal {
				t.Errorf("%s = %q, want %q", tt.wantKey, got, tt.wantVal)
			}
		})
	}
}

func TestJoinIDs(t *testing.T) {
	if got := joinIDs([]int64{3, 14, 15}); got != "3, 14, 15" {
		t.Errorf("joinIDs = %q", got)
	}
}

func TestResolveAccess(t *testing.T) {
	s, err := stub.New(nil, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(s.Routes())
	t.Cleanup(srv.Close)

	tests := []struct {
		name  string
		url   string
		token string
		admin bool
	}{
		{name: "staff", url: srv.URL + stub.Prefix, token: "secret", admin: true},
		{name: "viewer", url: srv.URL + stub.Prefix, token: stub.ViewerToken},
		{name: "no token", url: srv.URL + stub.Prefix},
		{name: "unreachable", url: "http://127.0.0.1:1" + stub.Prefix, token: "secret"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.APIURL = tt.url
			cfg.Token = tt.token
			cfg.Timeout = 2 * time.Second
			client, err := api.NewClient(api.Options{BaseURL: cfg.APIURL, Token: cfg.Token, Timeout: cfg.Timeout})
			if err != nil {
				t.Fatal(err)
			}
			resolveAccess(context.Background(), cfg, client, zap.NewNop())
			if cfg.Admin() != tt.admin {
				t.Errorf("admin = %v, want %v", cfg.Admin(), tt.admin)
			}
		})
	}
}

func TestDraftRecord(t *testing.T) {
	tests := map[string]string{
		"strike0":    "strikes/new",
		"strike12":   "strikes/12",
		"workspace3": "workspaces/3",
		"notes":      "-",
	}
	for k, want := range tests {
		if got := draftRecord(k); got != want {
			t.Errorf("draftRecord(%s) = %s, want %s", k, got, want)
		}
	}
}
