package tui

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/altinukshini/scale-tui/internal/model"
	"github.com/altinukshini/scale-tui/internal/tui/listview"
	"github.com/altinukshini/scale-tui/internal/tui/nodesview"
	"github.com/altinukshini/scale-tui/internal/tui/overview"
	"github.com/altinukshini/scale-tui/internal/ui"
	"github.com/altinukshini/scale-tui/internal/views"
	"github.com/altinukshini/scale-tui/internal/viewstate"
)

const fetchTimeout = 30 * time.Second

// navigate pushes route and shows it.
func (a *App) navigate(route string) tea.Cmd {
	a.leaveScreen()
	a.router.Navigate(viewstate.ParseLocation(route))
	return a.enter()
}

// back returns to the previous location. At the root it does nothing.
func (a *App) back() tea.Cmd {
	if a.router.Depth() < 2 {
		return nil
	}
	a.leaveScreen()
	a.router.Back()
	return a.enter()
}

// replace shows route in place of the current location.
func (a *App) replace(route string) tea.Cmd {
	a.leaveScreen()
	a.router.Replace(viewstate.ParseLocation(route))
	return a.enter()
}

func (a *App) switchTab(i int) tea.Cmd {
	if i < 0 || i >= len(tabs) {
		return nil
	}
	if a.router.Current().Path == tabs[i].route {
		return nil
	}
	return a.navigate(tabs[i].route)
}

// leaveScreen stops whatever the current screen polls and remembers list
// parameters for the next visit.
func (a *App) leaveScreen() {
	switch a.screen {
	case ScreenOverview:
		a.overviewView = a.overviewView.Deactivate()
	case ScreenList:
		if m, ok := a.lists[a.listName]; ok {
			a.lists[a.listName] = m.Deactivate()
			a.shared.SaveParams(a.listName, m.Params())
			if err := a.shared.Save(); err != nil {
				a.logger.Warn("saving view state failed", zap.Error(err))
			}
		}
	case ScreenNodes:
		a.nodesView = a.nodesView.Deactivate()
	case ScreenLog:
		a.logView = a.logView.Close()
		a.pendingJump = nil
	case ScreenEditor:
		a.editorView = a.editorView.Flush()
	}
	a.searchView.Deactivate()
}

// enter shows the router's current location.
func (a *App) enter() tea.Cmd {
	loc := a.router.Current()
	path := loc.Path
	a.logger.Debug("enter", zap.String("location", loc.String()))

	switch path {
	case "", overview.Target:
		a.screen = ScreenOverview
		var cmd tea.Cmd
		a.overviewView, cmd = a.overviewView.Activate()
		return cmd

	case nodesview.Target:
		a.screen = ScreenNodes
		var cmd tea.Cmd
		a.nodesView, cmd = a.nodesView.Activate()
		return cmd

	case draftsRoute:
		a.screen = ScreenDrafts
		return a.draftsView.Load()
	}

	if collection, id, ok := editRoute(path); ok && a.editorView.Handles(collection) {
		a.screen = ScreenEditor
		var cmd tea.Cmd
		a.editorView, cmd = a.editorView.Open(collection, id)
		return cmd
	}

	if jobID, ok := logRoute(path); ok {
		a.screen = ScreenLog
		exeID, _ := strconv.ParseInt(loc.Query.Get("exe"), 10, 64)
		var cmd tea.Cmd
		a.logView, cmd = a.logView.Open(jobID, exeID, loc.Query.Get("stream"))
		return cmd
	}

	v, id, ok := views.Resolve(path)
	if !ok || strings.Contains(id, "/") || (id != "" && v.Record == nil) {
		return a.unknown(loc)
	}

	if id != "" {
		a.screen = ScreenDetail
		a.detailsView.SetTarget(v, id)
		return a.fetchRecord(v, id)
	}

	a.screen = ScreenList
	a.listName = v.Name
	m := a.openList(v, loc.Query)
	var cmd tea.Cmd
	a.lists[v.Name], cmd = m.Activate()
	return cmd
}

// unknown replaces a location nothing can show with the previous one, or
// with the overview.
func (a *App) unknown(loc viewstate.Location) tea.Cmd {
	a.status = "Unknown location: " + loc.String()
	a.logger.Info("unknown location", zap.String("location", loc.String()))
	if a.router.Back() {
		return a.enter()
	}
	a.router.Replace(viewstate.Location{Path: overview.Target})
	return a.enter()
}

// openList returns the list of v with its parameters seeded from the
// location, the last visit or the view defaults, in that order.
func (a *App) openList(v views.View, q url.Values) listview.Model {
	params := viewstate.Seed(v.Schema, q, a.shared, a.now())
	if m, ok := a.lists[v.Name]; ok {
		m.Store().Set(params)
		return m
	}
	store := viewstate.NewStore(v.Schema, v.Name, a.router, params)
	m := listview.New(listview.Options{
		View:     v,
		Store:    store,
		Router:   a.router,
		Fetcher:  a.client,
		Interval: a.interval(v.Poll),
		ReadOnly: a.readOnly,
		Logger:   a.logger,
		Now:      a.now,
	})
	if a.width > 0 {
		m, _ = m.Update(a.contentSize())
	}
	return m
}

// fetchRecord loads one record for the detail view. Jobs are also decoded
// into a model.Job so their executions can be browsed.
func (a App) fetchRecord(v views.View, id string) tea.Cmd {
	path := v.Record(id)
	client := a.client
	isJob := v.Name == "jobs"
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		row, err := client.GetRecord(ctx, path)
		msg := ui.RecordLoadedMsg{Path: path, Record: row, Err: err}
		if err == nil && isJob {
			if raw, err := json.Marshal(row); err == nil {
				var job model.Job
				if json.Unmarshal(raw, &job) == nil {
					msg.Job = &job
				}
			}
		}
		return msg
	}
}

// editRoute matches "<collection>/new" and "<collection>/<id>/edit".
func editRoute(path string) (string, int64, bool) {
	parts := strings.Split(path, "/")
	switch {
	case len(parts) == 2 && parts[0] != "" && parts[1] == "new":
		return parts[0], 0, true
	case len(parts) == 3 && parts[0] != "" && parts[2] == "edit":
		id, err := strconv.ParseInt(parts[1], 10, 64)
		return parts[0], id, err == nil && id > 0
	}
	return "", 0, false
}

// logRoute matches "jobs/<id>/logs".
func logRoute(path string) (int64, bool) {
	parts := strings.Split(path, "/")
	if len(parts) != 3 || parts[0] != "jobs" || parts[2] != "logs" {
		return 0, false
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	return id, err == nil && id > 0
}
