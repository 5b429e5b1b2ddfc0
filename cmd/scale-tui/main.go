package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/google/subcommands"
	"go.uber.org/zap"

	"github.com/altinukshini/scale-tui/internal/api"
	"github.com/altinukshini/scale-tui/internal/config"
	"github.com/altinukshini/scale-tui/internal/logging"
	"github.com/altinukshini/scale-tui/internal/model"
	"github.com/altinukshini/scale-tui/internal/stub"
)

var version = "dev"

func init() {
	if version != "dev" {
		return
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		version = info.Main.Version
	}
}

// globals holds the top level flags and, once loaded, what every command
// shares.
type globals struct {
	configPath string
	apiURL     string
	token      string
	readOnly   bool
	demo       bool
	logLevel   string

	cfg    *config.Config
	logger *zap.Logger
	client *api.Client
}

// load resolves the configuration and builds the logger and API client.
// Flags reach the config through the environment so reloads keep them.
func (g *globals) load(ctx context.Context) error {
	if g.demo {
		s, err := stub.New(zap.NewNop(), time.Now())
		if err != nil {
			return fmt.Errorf("demo backend: %w", err)
		}
		base, err := s.Start(ctx, "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("demo backend: %w", err)
		}
		g.apiURL = base
		if g.token == "" {
			g.token = "demo"
		}
	}
	if g.apiURL != "" {
		os.Setenv(config.EnvAPIURL, g.apiURL)
	}
	if g.token != "" {
		os.Setenv(config.EnvToken, g.token)
	}

	cfg, err := config.Load(g.configPath)
	if err != nil {
		return err
	}
	if g.readOnly {
		cfg.ReadOnly = true
	}
	if g.logLevel != "" {
		cfg.LogLevel = g.logLevel
	}

	logger, err := logging.New(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return err
	}
	client, err := api.NewClient(api.Options{
		BaseURL:     cfg.APIURL,
		Token:       cfg.Token,
		Timeout:     cfg.Timeout,
		Logger:      logger,
		VerboseHTTP: cfg.VerboseHTTP,
	})
	if err != nil {
		logger.Sync()
		return err
	}
	resolveAccess(ctx, cfg, client, logger)
	logger.Info("starting", zap.String("version", version), zap.String("api", cfg.APIURL),
		zap.Bool("admin", cfg.Admin()), zap.Bool("demo", g.demo))

	g.cfg, g.logger, g.client = cfg, logger, client
	return nil
}

type profileSource interface {
	GetProfile(ctx context.Context) (*model.User, error)
}

// resolveAccess drops to read-only unless the token belongs to a staff
// account. Only staff may run control actions on the server.
func resolveAccess(ctx context.Context, cfg *config.Config, src profileSource, logger *zap.Logger) {
	if !cfg.Admin() {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	user, err := src.GetProfile(ctx)
	switch {
	case err != nil:
		logger.Warn("profile unavailable, running read-only", zap.Error(err))
		cfg.ReadOnly = true
	case !user.IsStaff:
		logger.Warn("token lacks staff rights, running read-only", zap.String("user", user.Username))
		cfg.ReadOnly = true
	default:
		logger.Debug("staff token", zap.String("user", user.Username))
	}
}

func (g *globals) dataPath(name string) string {
	return filepath.Join(g.cfg.DataDir, name)
}

func main() {
	g := &globals{}
	flag.StringVar(&g.configPath, "config", config.DefaultPath(), "path to the YAML profile")
	flag.StringVar(&g.apiURL, "api", "", "Scale API root, overrides the profile and "+config.EnvAPIURL)
	flag.StringVar(&g.token, "token", "", "API token enabling control actions, overrides "+config.EnvToken)
	flag.BoolVar(&g.readOnly, "read-only", false, "disable control actions even with a token")
	flag.BoolVar(&g.demo, "demo", false, "run against a built-in demo backend")
	flag.StringVar(&g.logLevel, "log-level", "", "debug, info, warn or error")
	showVersion := flag.Bool("version", false, "print version and exit")

	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(&uiCmd{}, "")
	subcommands.Register(&listCmd{}, "")
	subcommands.Register(&watchCmd{}, "")
	subcommands.Register(&cancelCmd{}, "control")
	subcommands.Register(&requeueCmd{}, "control")
	subcommands.Register(&schedulerCmd{}, "control")
	subcommands.Register(&draftsCmd{}, "local")
	subcommands.Register(&versionCmd{}, "")
	for _, name := range []string{"config", "api", "token", "demo", "read-only"} {
		subcommands.ImportantFlag(name)
	}
	flag.Parse()

	if *showVersion {
		fmt.Println("scale-tui", version)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	status := run(ctx, g)
	stop()
	os.Exit(int(status))
}

// run executes the named command, or the dashboard when none is given.
func run(ctx context.Context, g *globals) subcommands.ExitStatus {
	if flag.NArg() > 0 {
		return subcommands.Execute(ctx, g)
	}
	ui := &uiCmd{}
	fs := flag.NewFlagSet(ui.Name(), flag.ExitOnError)
	ui.SetFlags(fs)
	if err := fs.Parse(nil); err != nil {
		return subcommands.ExitUsageError
	}
	return ui.Execute(ctx, fs, g)
}
