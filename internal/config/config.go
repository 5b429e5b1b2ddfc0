// Package config loads the dashboard configuration from a YAML profile,
// environment overrides and command line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

const (
	EnvAPIURL = "SCALE_API_URL"
	EnvToken  = "SCALE_TOKEN"
)

// Poll interval names. Views reference them by their Poll key.
const (
	PollJobs     = "jobs"
	PollRecipes  = "recipes"
	PollIngests  = "ingests"
	PollNodes    = "nodes"
	PollBatches  = "batches"
	PollOverview = "overview"
	PollLogs     = "logs"
)

var defaultPoll = map[string]time.Duration{
	PollJobs:     time.Minute,
	PollRecipes:  5 * time.Minute,
	PollIngests:  5 * time.Minute,
	PollNodes:    time.Minute,
	PollBatches:  5 * time.Minute,
	PollOverview: time.Minute,
	PollLogs:     time.Minute,
}

type CacheConfig struct {
	SizeMB int           `yaml:"size_mb" validate:"gte=1"`
	TTL    time.Duration `yaml:"ttl" validate:"gte=1m"`
	Dir    string        `yaml:"dir"`
}

type Config struct {
	APIURL      string                   `yaml:"api_url" validate:"required,url"`
	Token       string                   `yaml:"token,omitempty"`
	ReadOnly    bool                     `yaml:"read_only,omitempty"`
	Timeout     time.Duration            `yaml:"timeout" validate:"gte=1s"`
	Poll        map[string]time.Duration `yaml:"poll" validate:"dive,gte=10s"`
	Cache       CacheConfig              `yaml:"cache"`
	DataDir     string                   `yaml:"data_dir"`
	LogFile     string                   `yaml:"log_file"`
	LogLevel    string                   `yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
	VerboseHTTP bool                     `yaml:"verbose_http,omitempty"`
	StartView   string                   `yaml:"start_view,omitempty"`
}

// Default returns a configuration with every optional field filled in.
func Default() *Config {
	base := baseDir()
	poll := make(map[string]time.Duration, len(defaultPoll))
	for k, v := range defaultPoll {
		poll[k] = v
	}
	return &Config{
		Timeout: 30 * time.Second,
		Poll:    poll,
		Cache: CacheConfig{
			SizeMB: 200,
			TTL:    24 * time.Hour,
			Dir:    filepath.Join(os.TempDir(), "scale-tui", "logs"),
		},
		DataDir:   base,
		LogFile:   filepath.Join(os.TempDir(), "scale-tui", "scale-tui.log"),
		LogLevel:  "info",
		StartView: "overview",
	}
}

func baseDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "scale-tui")
}

// DefaultPath is where the profile is read from when no path is given.
func DefaultPath() string {
	return filepath.Join(baseDir(), "config.yaml")
}

// Load reads path over the defaults and applies environment overrides. A
// missing file is not an error; the result is validated either way.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		buf, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(buf, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	cfg.ApplyEnv(os.Getenv)
	cfg.fill()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides the API location and token from the environment.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvAPIURL); v != "" {
		c.APIURL = v
	}
	if v := getenv(EnvToken); v != "" {
		c.Token = v
	}
}

// fill restores defaults for fields a profile set to their zero value.
func (c *Config) fill() {
	d := Default()
	if c.Poll == nil {
		c.Poll = map[string]time.Duration{}
	}
	for k, v := range d.Poll {
		if _, ok := c.Poll[k]; !ok {
			c.Poll[k] = v
		}
	}
	if c.Timeout == 0 {
		c.Timeout = d.Timeout
	}
	if c.Cache.SizeMB == 0 {
		c.Cache.SizeMB = d.Cache.SizeMB
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = d.Cache.TTL
	}
	if c.Cache.Dir == "" {
		c.Cache.Dir = d.Cache.Dir
	}
	if c.DataDir == "" {
		c.DataDir = d.DataDir
	}
	if c.LogFile == "" {
		c.LogFile = d.LogFile
	}
	if c.StartView == "" {
		c.StartView = d.StartView
	}
}

var validate = validator.New()

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := fmt.Sprintf("%s failed on the '%s' tag", fe.Namespace(), fe.Tag())
		if fe.Param() != "" {
			msg = fmt.Sprintf("%s (value: %s)", msg, fe.Param())
		}
		msgs = append(msgs, msg)
	}
	sort.Strings(msgs)
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
}

// Interval returns the poll interval for name, falling back to a minute.
func (c *Config) Interval(name string) time.Duration {
	if d, ok := c.Poll[name]; ok && d > 0 {
		return d
	}
	if d, ok := defaultPoll[name]; ok {
		return d
	}
	return time.Minute
}

// Admin reports whether control actions are allowed.
func (c *Config) Admin() bool {
	return c.Token != "" && !c.ReadOnly
}

// Save writes the profile, creating its directory.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	buf, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, buf, 0o600)
}
