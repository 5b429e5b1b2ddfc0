package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/cheggaaa/pb/v3"
	"github.com/cli/go-gh/v2/pkg/tableprinter"
	"github.com/cli/go-gh/v2/pkg/term"
	"github.com/google/subcommands"
	"go.uber.org/zap"

	"github.com/altinukshini/scale-tui/internal/cache"
	"github.com/altinukshini/scale-tui/internal/config"
	"github.com/altinukshini/scale-tui/internal/model"
	"github.com/altinukshini/scale-tui/internal/ops"
	"github.com/altinukshini/scale-tui/internal/poll"
	"github.com/altinukshini/scale-tui/internal/transform"
	"github.com/altinukshini/scale-tui/internal/tui"
	"github.com/altinukshini/scale-tui/internal/tui/nodesview"
	"github.com/altinukshini/scale-tui/internal/views"
	"github.com/altinukshini/scale-tui/internal/viewstate"
)

func fail(err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return subcommands.ExitFailure
}

func loaded(ctx context.Context, args []interface{}) (*globals, error) {
	g, ok := args[0].(*globals)
	if !ok {
		return nil, errors.New("missing globals")
	}
	if err := g.load(ctx); err != nil {
		return nil, err
	}
	return g, nil
}

// parseLocation turns "jobs status=FAILED page=2" style arguments into a
// view and its parameters, seeded the same way the dashboard seeds them.
func parseLocation(args []string) (views.View, viewstate.Params, error) {
	if len(args) == 0 {
		return views.View{}, nil, fmt.Errorf("a view is required: %s", strings.Join(views.Names(), ", "))
	}
	loc := viewstate.ParseLocation(args[0])
	v, id, ok := views.Resolve(loc.Path)
	if !ok || id != "" {
		return views.View{}, nil, fmt.Errorf("unknown view %q", args[0])
	}
	q := loc.Query
	if q == nil {
		q = url.Values{}
	}
	for _, arg := range args[1:] {
		extra, err := url.ParseQuery(arg)
		if err != nil {
			return views.View{}, nil, fmt.Errorf("bad parameter %q: %w", arg, err)
		}
		for k, vs := range extra {
			q[k] = append(q[k], vs...)
		}
	}
	return v, viewstate.Seed(v.Schema, q, nil, time.Now()), nil
}

func newTable(w io.Writer) tableprinter.TablePrinter {
	t := term.FromEnv()
	width, _, err := t.Size()
	if err != nil || width <= 0 {
		width = 120
	}
	return tableprinter.New(w, t.IsTerminalOutput(), width)
}

type uiCmd struct {
	start string
}

func (*uiCmd) Name() string     { return "ui" }
func (*uiCmd) Synopsis() string { return "open the dashboard (the default command)" }
func (*uiCmd) Usage() string {
	return `ui [-start location]:
  Open the dashboard, optionally at a location such as "jobs?status=FAILED".
`
}

func (c *uiCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.start, "start", "", "location to open instead of the profile's start_view")
}

func (c *uiCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	g, err := loaded(ctx, args)
	if err != nil {
		return fail(err)
	}
	defer g.logger.Sync()

	logCache, err := cache.NewLogCache(g.cfg.Cache.Dir, g.cfg.Cache.SizeMB, g.cfg.Cache.TTL)
	if err != nil {
		return fail(fmt.Errorf("log cache: %w", err))
	}
	if err := logCache.Evict(); err != nil {
		g.logger.Warn("log cache eviction failed", zap.Error(err))
	}
	drafts, err := cache.NewDraftStore(g.dataPath("drafts"))
	if err != nil {
		return fail(fmt.Errorf("drafts: %w", err))
	}
	shared, err := viewstate.LoadSharedStore(g.dataPath("views.yaml"))
	if err != nil {
		g.logger.Warn("view state ignored", zap.Error(err))
		shared = viewstate.NewSharedStore()
	}

	app := tui.NewApp(tui.Deps{
		Config:   g.cfg,
		Client:   g.client,
		LogCache: logCache,
		Drafts:   drafts,
		Shared:   shared,
		Logger:   g.logger,
		Start:    c.start,
		Now:      time.Now,
	})
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := os.Stat(g.configPath); err == nil {
		err := config.Watch(ctx, g.configPath, g.logger, func(cfg *config.Config) {
			p.Send(tui.ConfigReloadedMsg{Config: cfg})
		})
		if err != nil {
			g.logger.Warn("config watch disabled", zap.Error(err))
		}
	}

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

type listCmd struct{}

func (*listCmd) Name() string     { return "list" }
func (*listCmd) Synopsis() string { return "print one page of a list view" }
func (*listCmd) Usage() string {
	return `list <view>[?query] [key=value ...]:
  Print one page of a view with the same parameters the dashboard would use,
  e.g. "list jobs status=FAILED page_size=50".
`
}
func (*listCmd) SetFlags(*flag.FlagSet) {}

func (*listCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	v, params, err := parseLocation(f.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	g, err := loaded(ctx, args)
	if err != nil {
		return fail(err)
	}
	defer g.logger.Sync()

	page, err := g.client.List(ctx, v.Endpoint.Path, v.Endpoint.Build(params))
	if err != nil {
		return fail(err)
	}
	records := v.Transformer().TransformAll(page.Rows)

	tp := newTable(os.Stdout)
	headers := make([]string, len(v.Columns))
	for i, c := range v.Columns {
		headers[i] = strings.ToUpper(c.Title)
	}
	tp.AddHeader(headers)
	for _, rec := range records {
		for _, c := range v.Columns {
			tp.AddField(rec.Get(c.Key))
		}
		tp.EndRow()
	}
	if err := tp.Render(); err != nil {
		return fail(err)
	}
	size := params.IntOr("page_size", 25)
	fmt.Fprintf(os.Stderr, "Page %d/%d, %d total\n", params.IntOr("page", 1), page.Pages(size), page.Count)
	return subcommands.ExitSuccess
}

type watchCmd struct {
	interval time.Duration
}

func (*watchCmd) Name() string     { return "watch" }
func (*watchCmd) Synopsis() string { return "print queue and node health until interrupted" }
func (*watchCmd) Usage() string {
	return `watch [-interval d]:
  Print one line of queue and node health per refresh.
`
}

func (c *watchCmd) SetFlags(f *flag.FlagSet) {
	f.DurationVar(&c.interval, "interval", 0, "refresh interval, defaults to the profile's overview interval")
}

type health struct {
	queue *model.QueueStatus
	nodes *model.NodeStatusResponse
}

func (c *watchCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	g, err := loaded(ctx, args)
	if err != nil {
		return fail(err)
	}
	defer g.logger.Sync()

	interval := c.interval
	if interval <= 0 {
		interval = g.cfg.Interval(config.PollOverview)
	}
	client := g.client
	loop := &poll.Loop[health]{
		Interval: interval,
		Logger:   g.logger,
		Fetch: func(ctx context.Context) (health, error) {
			q, err := client.GetQueueStatus(ctx)
			if err != nil {
				return health{}, err
			}
			n, err := client.GetNodeStatus(ctx, nil)
			if err != nil {
				return health{}, err
			}
			return health{queue: q, nodes: n}, nil
		},
		OnResult: func(h health) {
			fmt.Printf("%s  queued %d  nodes: %s\n", time.Now().Format("15:04:05"),
				h.queue.Total(), nodesview.Summary(h.nodes.Results))
		},
		OnError: func(err error) {
			fmt.Fprintf(os.Stderr, "%s  %v\n", time.Now().Format("15:04:05"), err)
		},
	}
	loop.Start(ctx)
	<-ctx.Done()
	loop.Stop()
	return subcommands.ExitSuccess
}

type cancelCmd struct {
	from      string
	jobType   string
	olderThan time.Duration
	yes       bool
}

func (*cancelCmd) Name() string     { return "cancel" }
func (*cancelCmd) Synopsis() string { return "cancel jobs by id or by a jobs view query" }
func (*cancelCmd) Usage() string {
	return `cancel [-from query] [-type name] [-older-than d] [-y] [id ...]:
  Cancel the given jobs, or every job on the first page of the jobs view
  selected by -from. Without -y the jobs are only listed.
`
}

func (c *cancelCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.from, "from", "", `jobs view query, e.g. "status=RUNNING&page_size=100"`)
	f.StringVar(&c.jobType, "type", "", "only jobs of this job type name or title")
	f.DurationVar(&c.olderThan, "older-than", 0, "only jobs created longer ago than this")
	f.BoolVar(&c.yes, "y", false, "cancel without asking")
}

func (c *cancelCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	ids, err := ops.ParseIDs(f.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	if len(ids) == 0 && c.from == "" {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	g, err := loaded(ctx, args)
	if err != nil {
		return fail(err)
	}
	defer g.logger.Sync()
	if !g.cfg.Admin() {
		return fail(errors.New("cancel needs a token and a profile without read_only"))
	}

	if c.from != "" {
		v, params, err := parseLocation([]string{"jobs", c.from})
		if err != nil {
			return fail(err)
		}
		page, err := g.client.List(ctx, v.Endpoint.Path, v.Endpoint.Build(params))
		if err != nil {
			return fail(err)
		}
		matched := ops.FilterJobs(v.Transformer().TransformAll(page.Rows), ops.JobFilter{
			JobType:   c.jobType,
			OlderThan: c.olderThan,
		})
		for _, rec := range matched {
			if !model.JobStatus(rec.Get("status")).Cancelable() {
				continue
			}
			if id, err := strconv.ParseInt(rec.ID(), 10, 64); err == nil {
				ids = append(ids, id)
			}
		}
	}
	if len(ids) == 0 {
		fmt.Println("No cancelable jobs matched.")
		return subcommands.ExitSuccess
	}
	if !c.yes {
		fmt.Printf("Would cancel %d jobs: %s\nRun again with -y to cancel them.\n", len(ids), joinIDs(ids))
		return subcommands.ExitSuccess
	}

	bar := pb.New(len(ids))
	bar.SetWriter(os.Stderr)
	bar.Start()
	res, err := ops.BulkCancel(ctx, g.client, ids, func(completed, _ int) {
		bar.SetCurrent(int64(completed))
	})
	bar.Finish()
	if err != nil {
		return fail(err)
	}
	g.logger.Info("bulk cancel", zap.Int("completed", res.Completed), zap.Int("failed", res.Failed))
	fmt.Printf("Canceled %d jobs, %d failed\n", res.Completed, res.Failed)
	for _, e := range res.Errors {
		fmt.Fprintf(os.Stderr, "  %v\n", e)
	}
	if res.Failed > 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ", ")
}

type requeueCmd struct {
	from string
}

func (*requeueCmd) Name() string     { return "requeue" }
func (*requeueCmd) Synopsis() string { return "requeue jobs by id or by a jobs view query" }
func (*requeueCmd) Usage() string {
	return `requeue [-from query] [id ...]:
  Requeue the given jobs, or every job matching the filters of -from
  (status, error_category, job_type_name, started, ended, ...).
`
}

func (c *requeueCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.from, "from", "", `jobs view query, e.g. "status=FAILED&error_category=SYSTEM"`)
}

func (c *requeueCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	ids, err := ops.ParseIDs(f.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	if len(ids) == 0 && c.from == "" {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	g, err := loaded(ctx, args)
	if err != nil {
		return fail(err)
	}
	defer g.logger.Sync()
	if !g.cfg.Admin() {
		return fail(errors.New("requeue needs a token and a profile without read_only"))
	}

	for _, id := range ids {
		if err := g.client.RequeueJob(ctx, id); err != nil {
			return fail(fmt.Errorf("job %d: %w", id, err))
		}
		fmt.Printf("Requeued job %d\n", id)
	}
	if c.from != "" {
		_, params, err := parseLocation([]string{"jobs", c.from})
		if err != nil {
			return fail(err)
		}
		if err := g.client.RequeueJobs(ctx, ops.RequeueFromParams(params)); err != nil {
			return fail(err)
		}
		fmt.Println("Requeued matching jobs")
	}
	return subcommands.ExitSuccess
}

type schedulerCmd struct{}

func (*schedulerCmd) Name() string     { return "scheduler" }
func (*schedulerCmd) Synopsis() string { return "show, pause or resume the scheduler" }
func (*schedulerCmd) Usage() string {
	return `scheduler [pause|resume]:
  Without an argument, print whether the scheduler is paused.
`
}
func (*schedulerCmd) SetFlags(*flag.FlagSet) {}

func (*schedulerCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	action := f.Arg(0)
	if f.NArg() > 1 || (action != "" && action != "pause" && action != "resume") {
		fmt.Fprint(os.Stderr, (&schedulerCmd{}).Usage())
		return subcommands.ExitUsageError
	}
	g, err := loaded(ctx, args)
	if err != nil {
		return fail(err)
	}
	defer g.logger.Sync()

	var s *model.Scheduler
	if action == "" {
		s, err = g.client.GetScheduler(ctx)
	} else if !g.cfg.Admin() {
		err = errors.New("changing the scheduler needs a token and a profile without read_only")
	} else {
		s, err = g.client.UpdateScheduler(ctx, action == "pause")
	}
	if err != nil {
		return fail(err)
	}
	if s.IsPaused {
		fmt.Println("Scheduler is paused")
	} else {
		fmt.Println("Scheduler is running")
	}
	return subcommands.ExitSuccess
}

type draftsCmd struct {
	clear bool
}

func (*draftsCmd) Name() string     { return "drafts" }
func (*draftsCmd) Synopsis() string { return "list or clear unsaved strike and workspace edits" }
func (*draftsCmd) Usage() string {
	return `drafts [-clear]:
  List strike and workspace configurations edited in the dashboard but
  never saved.
`
}

func (c *draftsCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.clear, "clear", false, "delete every draft")
}

func (c *draftsCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	g, err := loaded(ctx, args)
	if err != nil {
		return fail(err)
	}
	defer g.logger.Sync()

	store, err := cache.NewDraftStore(g.dataPath("drafts"))
	if err != nil {
		return fail(err)
	}
	if c.clear {
		n, err := store.DeleteAll("")
		if err != nil {
			return fail(err)
		}
		fmt.Printf("Deleted %d drafts\n", n)
		return subcommands.ExitSuccess
	}

	drafts, err := store.List("")
	if err != nil {
		return fail(err)
	}
	if len(drafts) == 0 {
		fmt.Println("No drafts")
		return subcommands.ExitSuccess
	}
	tp := newTable(os.Stdout)
	tp.AddHeader([]string{"KEY", "RECORD", "MODIFIED", "SIZE"})
	for _, d := range drafts {
		tp.AddField(d.Key)
		tp.AddField(draftRecord(d.Key))
		tp.AddField(transform.FormatTime(d.Modified))
		tp.AddField(transform.FormatBytes(float64(d.Size)))
		tp.EndRow()
	}
	if err := tp.Render(); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

// draftRecord names the record a draft edits, e.g. "workspaces/3".
func draftRecord(key string) string {
	collection, id, ok := model.ParseDraftKey(key)
	switch {
	case !ok:
		return "-"
	case id == 0:
		return collection + "/new"
	}
	return fmt.Sprintf("%s/%d", collection, id)
}

type versionCmd struct{}

func (*versionCmd) Name() string           { return "version" }
func (*versionCmd) Synopsis() string       { return "print the version" }
func (*versionCmd) Usage() string          { return "version:\n  Print the version.\n" }
func (*versionCmd) SetFlags(*flag.FlagSet) {}

func (*versionCmd) Execute(context.Context, *flag.FlagSet, ...interface{}) subcommands.ExitStatus {
	fmt.Println("scale-tui", version)
	return subcommands.ExitSuccess
}
