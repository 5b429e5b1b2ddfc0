package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadFileAndDefaults(t *testing.T) {
	t.Setenv(EnvAPIURL, "")
	t.Setenv(EnvToken, "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, `
api_url: https://scale.example.com/api/v5/
token: abc
poll:
  jobs: 30s
cache:
  size_mb: 50
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIURL != "https://scale.example.com/api/v5/" || cfg.Token != "abc" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Interval(PollJobs) != 30*time.Second {
		t.Errorf("jobs interval = %v", cfg.Interval(PollJobs))
	}
	if cfg.Interval(PollRecipes) != 5*time.Minute {
		t.Errorf("recipes interval should default, got %v", cfg.Interval(PollRecipes))
	}
	if cfg.Cache.SizeMB != 50 || cfg.Cache.TTL != 24*time.Hour {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if !cfg.Admin() {
		t.Error("token without read_only should be admin")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "api_url: https://file.example.com/api/\n")
	t.Setenv(EnvAPIURL, "https://env.example.com/api/")
	t.Setenv(EnvToken, "from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIURL != "https://env.example.com/api/" || cfg.Token != "from-env" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "ok", mutate: func(*Config) {}},
		{name: "missing url", mutate: func(c *Config) { c.APIURL = "" }, wantErr: "APIURL"},
		{name: "not a url", mutate: func(c *Config) { c.APIURL = "scale api" }, wantErr: "url"},
		{name: "poll too fast", mutate: func(c *Config) { c.Poll[PollNodes] = time.Second }, wantErr: "gte"},
		{name: "bad level", mutate: func(c *Config) { c.LogLevel = "trace" }, wantErr: "LogLevel"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.APIURL = "http://localhost:8000/api/v5/"
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() = %v", err)
				}
				return
			}
			if !errors.Is(err, ErrInvalidConfig) || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestMissingFileUsesDefaults(t *testing.T) {
	t.Setenv(EnvAPIURL, "http://localhost:8000/api/v5/")
	t.Setenv(EnvToken, "")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Admin() {
		t.Error("no token should mean read-only")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	t.Setenv(EnvAPIURL, "")
	t.Setenv(EnvToken, "")
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.APIURL = "http://localhost:8000/api/v5/"
	cfg.Poll[PollJobs] = 45 * time.Second
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Interval(PollJobs) != 45*time.Second {
		t.Errorf("jobs interval = %v", loaded.Interval(PollJobs))
	}
}

func TestWatchReloads(t *testing.T) {
	t.Setenv(EnvAPIURL, "")
	t.Setenv(EnvToken, "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "api_url: http://localhost:8000/api/v5/\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	got := make(chan *Config, 4)
	if err := Watch(ctx, path, zap.NewNop(), func(c *Config) { got <- c }); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	writeFile(t, path, "api_url: http://localhost:8000/api/v5/\npoll:\n  jobs: 20s\n")
	select {
	case c := <-got:
		if c.Interval(PollJobs) != 20*time.Second {
			t.Errorf("reloaded interval = %v", c.Interval(PollJobs))
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after write")
	}
}
